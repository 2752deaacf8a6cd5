package usecase

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Top-level configuration document keys.
const (
	KeyUseCaseName          = "UseCaseName"
	KeyUseCaseType          = "UseCaseType"
	KeyUseCaseDescription   = "UseCaseDescription"
	KeyLlmParams            = "LlmParams"
	KeyKnowledgeBaseParams  = "KnowledgeBaseParams"
	KeyAuthenticationParams = "AuthenticationParams"
	KeyAgentParams          = "AgentParams"
	KeyAgentBuilderParams   = "AgentBuilderParams"
	KeyMCPParams            = "MCPParams"
	KeyWorkflowParams       = "WorkflowParams"
)

// Config is the free-form configuration document of a use case. Its shape
// depends on the use case type; validators decode the parts they check into
// typed structs.
type Config map[string]any

// ParseConfig decodes a JSON document into a Config.
func ParseConfig(data []byte) (Config, error) {
	var c Config
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}
	if c == nil {
		c = Config{}
	}
	return c, nil
}

// Normalize converts an arbitrary decoded document (for example from YAML)
// into JSON-compatible values so it merges and compares consistently.
func Normalize(v any) (Config, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode configuration: %w", err)
	}
	return ParseConfig(data)
}

// JSON encodes the document.
func (c Config) JSON() ([]byte, error) {
	if c == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(c)
}

// Decode unmarshals the document into out.
func (c Config) Decode(out any) error {
	data, err := c.JSON()
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

// Clone returns a deep copy.
func (c Config) Clone() Config {
	if c == nil {
		return nil
	}
	return cloneValue(c).(Config)
}

// Lookup returns the value at a dot-separated path.
func (c Config) Lookup(path string) (any, bool) {
	var cur any = map[string]any(c)
	for _, seg := range strings.Split(path, ".") {
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// String returns the string at path, or "" if absent or not a string.
func (c Config) String(path string) string {
	v, _ := c.Lookup(path)
	s, _ := v.(string)
	return s
}

// Bool returns the boolean at path, or false.
func (c Config) Bool(path string) bool {
	v, _ := c.Lookup(path)
	b, _ := v.(bool)
	return b
}

// Has reports whether path is present with a non-nil value.
func (c Config) Has(path string) bool {
	v, ok := c.Lookup(path)
	return ok && v != nil
}

// SetPath writes value at a dot-separated path, creating intermediate objects.
func (c Config) SetPath(path string, value any) {
	segs := strings.Split(path, ".")
	cur := map[string]any(c)
	for _, seg := range segs[:len(segs)-1] {
		next, ok := asMap(cur[seg])
		if !ok {
			next = map[string]any{}
			cur[seg] = next
		}
		cur = next
	}
	cur[segs[len(segs)-1]] = value
}

// DeletePath removes the value at path if present.
func (c Config) DeletePath(path string) {
	segs := strings.Split(path, ".")
	cur := map[string]any(c)
	for _, seg := range segs[:len(segs)-1] {
		next, ok := asMap(cur[seg])
		if !ok {
			return
		}
		cur = next
	}
	delete(cur, segs[len(segs)-1])
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Config:
		return m, true
	}
	return nil, false
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case Config:
		out := make(Config, len(t))
		for k, val := range t {
			out[k] = cloneValue(val)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = cloneValue(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = cloneValue(val)
		}
		return out
	default:
		return v
	}
}
