// Package merge implements the deep merge applied to stored configuration
// documents on every update.
//
// The merge is recursive: objects merge key by key, everything else
// (scalars and arrays) is taken from the new document. Behaviour that
// deviates from that default is declared as data in a Policy so new use
// case types can register paths without touching the merge core.
package merge

import "strings"

// Action overrides the default recursive merge at a path.
type Action int

const (
	// ActionMerge merges objects key by key. It is the default.
	ActionMerge Action = iota

	// ActionReplace takes the new value wholesale when the new document sets
	// the path, including an empty object.
	ActionReplace
)

// Alternative is one member of a mutually exclusive group.
type Alternative struct {
	// Field is the key of the alternative, relative to the group base.
	Field string

	// Dependents are sibling keys that are only meaningful alongside Field
	// and are removed together with it.
	Dependents []string
}

// ExclusiveGroup declares keys of one object of which at most one may be set.
type ExclusiveGroup struct {
	// Base is the dot-separated path of the object holding the alternatives.
	Base         string
	Alternatives []Alternative
}

// Policy parameterizes Merge.
type Policy struct {
	// Rules maps dot-separated paths to actions. A "*" segment matches any key.
	Rules map[string]Action

	// Exclusive groups are resolved after the recursive merge.
	Exclusive []ExclusiveGroup
}

// NewPolicy returns an empty policy.
func NewPolicy() *Policy {
	return &Policy{Rules: map[string]Action{}}
}

// Replace registers paths whose values are replaced wholesale.
func (p *Policy) Replace(paths ...string) *Policy {
	if p.Rules == nil {
		p.Rules = map[string]Action{}
	}
	for _, path := range paths {
		p.Rules[path] = ActionReplace
	}
	return p
}

// Exclusively registers a mutually exclusive group.
func (p *Policy) Exclusively(group ExclusiveGroup) *Policy {
	p.Exclusive = append(p.Exclusive, group)
	return p
}

// Extend returns a copy of p with the rules and groups of other added.
func (p *Policy) Extend(other *Policy) *Policy {
	out := NewPolicy()
	for _, src := range []*Policy{p, other} {
		if src == nil {
			continue
		}
		for path, a := range src.Rules {
			out.Rules[path] = a
		}
		out.Exclusive = append(out.Exclusive, src.Exclusive...)
	}
	return out
}

func (p *Policy) action(path []string) Action {
	if p == nil {
		return ActionMerge
	}
	if a, ok := p.Rules[strings.Join(path, ".")]; ok {
		return a
	}
	for pattern, a := range p.Rules {
		if matches(strings.Split(pattern, "."), path) {
			return a
		}
	}
	return ActionMerge
}

func matches(pattern, path []string) bool {
	if len(pattern) != len(path) {
		return false
	}
	for i, seg := range pattern {
		if seg != "*" && seg != path[i] {
			return false
		}
	}
	return true
}

// Default is the policy shared by every use case type.
func Default() *Policy {
	return NewPolicy().
		Replace(
			"LlmParams.ModelParams",
			"KnowledgeBaseParams.BedrockKnowledgeBaseParams.RetrievalFilter",
			"MCPParams.RuntimeParams.EnvironmentVariables",
		).
		Exclusively(ExclusiveGroup{
			Base: "LlmParams.BedrockLlmParams",
			Alternatives: []Alternative{
				{Field: "ModelId", Dependents: []string{"ModelArn"}},
				{Field: "InferenceProfileId"},
			},
		})
}
