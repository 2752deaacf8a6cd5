// Package modelinfo loads the model catalog from YAML and imports it into the
// model-info table the validators read from.
package modelinfo

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/openfroyo/ucm/pkg/usecase"
)

// Catalog is the on-disk model catalog.
type Catalog struct {
	Models []Entry `yaml:"models" validate:"required,min=1,dive"`
}

// Entry is one catalog row.
type Entry struct {
	UseCase              string `yaml:"useCase" validate:"required,oneof=Chat RAGChat"`
	ModelProvider        string `yaml:"modelProvider" validate:"required"`
	ModelName            string `yaml:"modelName"`
	Prompt               string `yaml:"prompt" validate:"required"`
	DisambiguationPrompt string `yaml:"disambiguationPrompt"`
	MaxPromptSize        int    `yaml:"maxPromptSize" validate:"gt=0"`
	MaxChatMessageSize   int    `yaml:"maxChatMessageSize" validate:"gte=0"`
	AllowsStreaming      bool   `yaml:"allowsStreaming"`
}

// ModelInfo converts the entry to the stored form.
func (e Entry) ModelInfo() *usecase.ModelInfo {
	return &usecase.ModelInfo{
		UseCase:              e.UseCase,
		ModelProvider:        e.ModelProvider,
		ModelName:            e.ModelName,
		Prompt:               e.Prompt,
		DisambiguationPrompt: e.DisambiguationPrompt,
		MaxPromptSize:        e.MaxPromptSize,
		MaxChatMessageSize:   e.MaxChatMessageSize,
		AllowsStreaming:      e.AllowsStreaming,
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Parse decodes and checks a catalog document.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("failed to decode model catalog: %w", err)
	}
	if err := validate.Struct(&c); err != nil {
		return nil, fmt.Errorf("invalid model catalog: %w", err)
	}

	seen := make(map[string]bool, len(c.Models))
	for _, m := range c.Models {
		key := m.UseCase + "/" + usecase.ModelSortKey(m.ModelProvider, m.ModelName)
		if seen[key] {
			return nil, fmt.Errorf("invalid model catalog: duplicate entry %s", key)
		}
		seen[key] = true
	}
	return &c, nil
}

// Load reads and parses a catalog file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model catalog: %w", err)
	}
	return Parse(data)
}

// Sink receives imported catalog entries.
type Sink interface {
	UpsertModelInfo(ctx context.Context, info *usecase.ModelInfo) error
}

// Import writes every catalog entry to sink and returns the number written.
// Entries are upserted; entries missing from the catalog are left in place.
func Import(ctx context.Context, sink Sink, c *Catalog) (int, error) {
	for i, m := range c.Models {
		if err := sink.UpsertModelInfo(ctx, m.ModelInfo()); err != nil {
			return i, err
		}
	}
	return len(c.Models), nil
}
