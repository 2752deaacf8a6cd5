// Package policy decides who may run which lifecycle operation, and which
// view of a use case they receive, using Open Policy Agent.
//
// # Built-in policy
//
// The built-in module, package ucm.access, grants members of the configured
// administrator groups every operation and the admin view. Everyone else may
// get and list use cases and receives the business view.
//
// # Custom policies
//
// A .rego file may replace the built-in module. It must define, in any
// package:
//
//	allow  boolean, defaults to false when undefined
//	view   "admin" or "business", defaults to "business" when undefined
//
// The input document is:
//
//	{
//	  "principal":    {"sub": "...", "email": "...", "groups": [...], "tenant_id": "..."},
//	  "operation":    "create" | "update" | "delete" | "permanently_delete" | "list" | "get",
//	  "admin_groups": [...]
//	}
//
// Usage:
//
//	eng, err := policy.NewEngine(logger, policy.Options{AdminGroups: []string{"admin"}})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := eng.LoadFile(ctx, "/etc/ucm/access.rego"); err != nil {
//	    log.Fatal(err)
//	}
//	decision, err := eng.Authorize(ctx, principal, engine.OpCreate)
//
// Engine.Watch reloads the custom policy whenever its file changes.
package policy
