package policy

import "time"

// BuiltinPolicyName names the default access module.
const BuiltinPolicyName = "access"

// BuiltinPolicy returns the default access module.
func BuiltinPolicy() Policy {
	return Policy{
		Name:        BuiltinPolicyName,
		Description: "Administrators may run every operation; everyone else may read use cases",
		Rego:        builtinRego,
		LoadedAt:    time.Now(),
	}
}

const builtinRego = `# Administrators may run every operation; everyone else may read use cases
package ucm.access

import rego.v1

default allow := false

default view := "business"

admin if {
	some group in input.principal.groups
	group in input.admin_groups
}

read_only_operations := {"get", "list"}

allow if admin

allow if input.operation in read_only_operations

view := "admin" if admin
`
