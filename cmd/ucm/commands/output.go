package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/openfroyo/ucm/pkg/engine"
	"github.com/openfroyo/ucm/pkg/usecase"
)

// failedError reports a command the provisioning engine rejected. The
// result has already been printed.
type failedError struct {
	op engine.Operation
	id string
}

func (e *failedError) Error() string {
	return fmt.Sprintf("%s of use case %s failed in the provisioning engine", e.op, e.id)
}

// commandResult is printed by the mutating commands.
type commandResult struct {
	UseCaseID string        `json:"useCaseId" yaml:"useCaseId"`
	StackID   string        `json:"stackId,omitempty" yaml:"stackId,omitempty"`
	Status    engine.Status `json:"status" yaml:"status"`
}

func writeOutput(w io.Writer, v any) error {
	switch outputFormat {
	case "yaml", "yml":
		// Round-trip through JSON so field names match the JSON output.
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	case "json", "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	default:
		return fmt.Errorf("unsupported output format: %s", outputFormat)
	}
}

// readDocument reads a JSON or YAML configuration document from path, or
// from stdin when path is "-".
func readDocument(path string, stdin io.Reader) (usecase.Config, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if doc == nil {
		return usecase.Config{}, nil
	}
	if _, ok := doc.(map[string]any); !ok {
		return nil, fmt.Errorf("%s must contain a mapping at the top level", path)
	}
	return usecase.Normalize(doc)
}

// parseParams turns KEY=VALUE flags into deployment parameters, keeping
// their order.
func parseParams(pairs []string) (usecase.Parameters, error) {
	var params usecase.Parameters
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q: expected KEY=VALUE", pair)
		}
		params.Set(key, value)
	}
	return params, nil
}
