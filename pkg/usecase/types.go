package usecase

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Type is the closed set of use case variants. It selects the validator,
// the configuration shape and the provisioning template.
type Type string

const (
	TypeText         Type = "Text"
	TypeAgent        Type = "Agent"
	TypeAgentBuilder Type = "AgentBuilder"
	TypeMCPServer    Type = "MCPServer"
	TypeWorkflow     Type = "Workflow"
)

// AllTypes lists every supported use case type.
var AllTypes = []Type{TypeText, TypeAgent, TypeAgentBuilder, TypeMCPServer, TypeWorkflow}

// templateNames maps each type to the stack template it is provisioned from.
var templateNames = map[Type]string{
	TypeText:         "TextUseCaseStack",
	TypeAgent:        "BedrockAgentStack",
	TypeAgentBuilder: "AgentBuilderStack",
	TypeMCPServer:    "MCPServerStack",
	TypeWorkflow:     "WorkflowStack",
}

// ParseType converts a string into a Type, accepting any letter case.
func ParseType(s string) (Type, error) {
	for _, t := range AllTypes {
		if strings.EqualFold(string(t), strings.TrimSpace(s)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("unsupported use case type: %q", s)
}

// Valid reports whether t is one of the supported types.
func (t Type) Valid() bool {
	_, ok := templateNames[t]
	return ok
}

// TemplateName returns the name of the stack template for t.
func (t Type) TemplateName() string {
	return templateNames[t]
}

// TemplateURL resolves the template of t against a base location.
func (t Type) TemplateURL(base string) string {
	return strings.TrimRight(base, "/") + "/" + t.TemplateName() + ".template.json"
}

// UseCase is the aggregate passed through validation and the lifecycle
// commands. It is built fresh for every request and never retained.
type UseCase struct {
	// ID is immutable once assigned.
	ID          string
	Type        Type
	Name        string
	Description string

	// UserID is the acting principal; TenantID is the owning customer, if any.
	UserID   string
	TenantID string

	Parameters Parameters
	Config     Config

	// StackID is set once the stack has been provisioned.
	StackID string

	// ConfigRecordKey identifies the stored configuration. It is write-once:
	// every create and update generates a new key.
	ConfigRecordKey string

	// ExecutionRoleArn optionally overrides the role used by the provisioning engine.
	ExecutionRoleArn string

	// APIKey is a third-party credential kept in the secret store, never in Config.
	APIKey string
}

// New builds a UseCase, assigning a fresh identifier when id is empty.
func New(id string, typ Type, name, description, userID string, params Parameters, cfg Config) *UseCase {
	if id == "" {
		id = uuid.NewString()
	}
	uc := &UseCase{
		ID:          id,
		Type:        typ,
		Name:        name,
		Description: description,
		UserID:      userID,
		Parameters:  params.Clone(),
		Config:      cfg.Clone(),
	}
	uc.Parameters.Set(ParamUseCaseUUID, uc.ShortID())
	return uc
}

// ShortID returns the first eight characters of the identifier. Stack names
// and configuration record keys are derived from it.
func (u *UseCase) ShortID() string {
	if len(u.ID) <= 8 {
		return u.ID
	}
	return u.ID[:8]
}

// StackName returns the provisioned stack name for the given prefix.
func (u *UseCase) StackName(prefix string) string {
	if prefix == "" {
		return u.ShortID()
	}
	return prefix + "-" + u.ShortID()
}

// RotateConfigRecordKey generates a new configuration record key, stores it
// on the use case and in the reserved deployment parameter, and returns it.
func (u *UseCase) RotateConfigRecordKey() string {
	key := NewConfigRecordKey(u.ShortID())
	u.ConfigRecordKey = key
	u.Parameters.Set(ParamUseCaseConfigRecordKey, key)
	return key
}

// Clone returns a deep copy of u.
func (u *UseCase) Clone() *UseCase {
	c := *u
	c.Parameters = u.Parameters.Clone()
	c.Config = u.Config.Clone()
	return &c
}

// NewConfigRecordKey returns a fresh, never reused configuration record key.
func NewConfigRecordKey(shortID string) string {
	return shortID + "-" + uuid.NewString()
}

// Record is the persisted deployment metadata row keyed by UseCaseID.
type Record struct {
	UseCaseID       string     `json:"UseCaseId"`
	UseCaseType     Type       `json:"UseCaseType"`
	Name            string     `json:"Name"`
	Description     string     `json:"Description,omitempty"`
	CreatedBy       string     `json:"CreatedBy"`
	TenantID        string     `json:"TenantId,omitempty"`
	StackID         string     `json:"StackId"`
	ConfigRecordKey string     `json:"UseCaseConfigRecordKey"`
	CreatedAt       time.Time  `json:"CreatedDate"`
	UpdatedAt       time.Time  `json:"UpdatedDate"`
	ExpiresAt       *time.Time `json:"TTL,omitempty"`
}

// Deleted reports whether the record has been marked for deletion.
func (r *Record) Deleted() bool {
	return r.ExpiresAt != nil
}

// NewRecord builds the metadata row for a provisioned use case.
func NewRecord(uc *UseCase, now time.Time) *Record {
	return &Record{
		UseCaseID:       uc.ID,
		UseCaseType:     uc.Type,
		Name:            uc.Name,
		Description:     uc.Description,
		CreatedBy:       uc.UserID,
		TenantID:        uc.TenantID,
		StackID:         uc.StackID,
		ConfigRecordKey: uc.ConfigRecordKey,
		CreatedAt:       now.UTC(),
		UpdatedAt:       now.UTC(),
	}
}

// ModelInfo is the catalog entry describing a model for one use case kind.
type ModelInfo struct {
	UseCase              string `json:"UseCase" yaml:"useCase"`
	ModelProvider        string `json:"ModelProvider" yaml:"modelProvider"`
	ModelName            string `json:"ModelName" yaml:"modelName"`
	Prompt               string `json:"Prompt" yaml:"prompt"`
	DisambiguationPrompt string `json:"DisambiguationPrompt" yaml:"disambiguationPrompt"`
	MaxPromptSize        int    `json:"MaxPromptSize" yaml:"maxPromptSize"`
	MaxChatMessageSize   int    `json:"MaxChatMessageSize" yaml:"maxChatMessageSize"`
	AllowsStreaming      bool   `json:"AllowsStreaming" yaml:"allowsStreaming"`
}

// SortKey returns the model-info lookup key for the entry.
func (m *ModelInfo) SortKey() string {
	return ModelSortKey(m.ModelProvider, m.ModelName)
}

// ModelSortKey builds the "<provider>#<model>" key, substituting "default"
// for an empty model name.
func ModelSortKey(provider, model string) string {
	if model == "" {
		model = DefaultModelName
	}
	return provider + "#" + model
}

// DefaultModelName is used for providers whose model is not addressable by id.
const DefaultModelName = "default"

// Model-info use case kinds.
const (
	ModelKindChat    = "Chat"
	ModelKindRAGChat = "RAGChat"
)
