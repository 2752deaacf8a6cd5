package merge

import (
	"maps"
	"strings"
)

// Merge deep-merges next into prev under p and returns a new document.
// Neither input is modified.
//
// Keys absent from next keep their previous value. A key set to nil in next
// is removed. Arrays are never merged element-wise.
func Merge(prev, next map[string]any, p *Policy) map[string]any {
	out := mergeObject(prev, next, nil, p)
	if p != nil {
		for _, g := range p.Exclusive {
			resolveExclusive(out, next, g)
		}
	}
	return out
}

func mergeObject(prev, next map[string]any, path []string, p *Policy) map[string]any {
	out := make(map[string]any, len(prev)+len(next))
	for k, v := range prev {
		out[k] = clone(v)
	}
	for k, nv := range next {
		childPath := append(append([]string(nil), path...), k)
		if nv == nil {
			delete(out, k)
			continue
		}
		if p.action(childPath) == ActionReplace {
			out[k] = clone(nv)
			continue
		}
		om, oldIsObject := asObject(out[k])
		nm, newIsObject := asObject(nv)
		if oldIsObject && newIsObject {
			out[k] = mergeObject(om, nm, childPath, p)
			continue
		}
		out[k] = clone(nv)
	}
	return out
}

func resolveExclusive(merged, next map[string]any, g ExclusiveGroup) {
	base, ok := lookupObject(merged, g.Base)
	if !ok {
		return
	}
	set := 0
	for _, alt := range g.Alternatives {
		if base[alt.Field] != nil {
			set++
		}
	}
	if set < 2 {
		return
	}

	requested, _ := lookupObject(next, g.Base)
	var winner *Alternative
	for i, alt := range g.Alternatives {
		if requested[alt.Field] == nil {
			continue
		}
		if winner != nil {
			// Both chosen explicitly; left for validation to reject.
			return
		}
		winner = &g.Alternatives[i]
	}
	if winner == nil {
		return
	}

	for _, alt := range g.Alternatives {
		if alt.Field == winner.Field {
			continue
		}
		delete(base, alt.Field)
		for _, dep := range alt.Dependents {
			if !contains(winner.Dependents, dep) {
				delete(base, dep)
			}
		}
	}
}

func lookupObject(doc map[string]any, path string) (map[string]any, bool) {
	cur := doc
	for _, seg := range strings.Split(path, ".") {
		next, ok := asObject(cur[seg])
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

func asObject(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func clone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := maps.Clone(t)
		for k, val := range out {
			out[k] = clone(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = clone(val)
		}
		return out
	default:
		return v
	}
}
