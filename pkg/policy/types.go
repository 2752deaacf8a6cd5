package policy

import (
	"time"

	"github.com/openfroyo/ucm/pkg/engine"
)

// Policy is a Rego module deciding access.
type Policy struct {
	// Name identifies the module, usually the file name without extension.
	Name string `json:"name"`

	// Description is taken from the leading comment block of the module.
	Description string `json:"description,omitempty"`

	// Rego is the module source.
	Rego string `json:"rego"`

	// Source is the file the module was read from, empty for the built-in.
	Source string `json:"source,omitempty"`

	// LoadedAt is when the module was read.
	LoadedAt time.Time `json:"loaded_at"`
}

// Input is the document a policy is evaluated against.
type Input struct {
	Principal   engine.Principal `json:"principal"`
	Operation   engine.Operation `json:"operation"`
	AdminGroups []string         `json:"admin_groups"`
}

// toValue converts the input to plain JSON values for evaluation.
func (in Input) toValue() map[string]interface{} {
	groups := make([]interface{}, 0, len(in.Principal.Groups))
	for _, g := range in.Principal.Groups {
		groups = append(groups, g)
	}
	admins := make([]interface{}, 0, len(in.AdminGroups))
	for _, g := range in.AdminGroups {
		admins = append(admins, g)
	}
	return map[string]interface{}{
		"principal": map[string]interface{}{
			"sub":       in.Principal.Subject,
			"email":     in.Principal.Email,
			"groups":    groups,
			"tenant_id": in.Principal.TenantID,
		},
		"operation":    string(in.Operation),
		"admin_groups": admins,
	}
}
