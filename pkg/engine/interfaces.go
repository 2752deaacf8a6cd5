package engine

import (
	"context"
	"time"

	"github.com/openfroyo/ucm/pkg/usecase"
)

// Operation names a lifecycle command. It is used for authorization, span
// names, metric labels and log fields.
type Operation string

const (
	OpCreate            Operation = "create"
	OpUpdate            Operation = "update"
	OpDelete            Operation = "delete"
	OpPermanentlyDelete Operation = "permanently_delete"
	OpList              Operation = "list"
	OpGet               Operation = "get"
)

// StackInput describes a stack to create.
type StackInput struct {
	// StackName is the name of the new stack.
	StackName string

	// TemplateURL locates the template the stack is instantiated from.
	TemplateURL string

	// Parameters are passed verbatim to the template.
	Parameters usecase.Parameters

	// RoleARN optionally sets the execution role of the provisioning engine.
	RoleARN string
}

// StackUpdate describes a change to an existing stack.
type StackUpdate struct {
	StackID string

	// TemplateURL, when empty, keeps the previously deployed template.
	TemplateURL string

	Parameters usecase.Parameters
	RoleARN    string
}

// StackDetails is the live state of a provisioned stack.
type StackDetails struct {
	StackID      string
	StackName    string
	Status       string
	StatusReason string
	Outputs      map[string]string
	Parameters   usecase.Parameters
}

// Provisioner is the infrastructure-as-code engine.
type Provisioner interface {
	// CreateStack provisions a new stack and returns its identifier.
	CreateStack(ctx context.Context, in StackInput) (string, error)

	// UpdateStack applies new parameters to an existing stack.
	UpdateStack(ctx context.Context, in StackUpdate) error

	// DeleteStack removes a stack. A stack that does not exist is reported
	// with an error for which IsNotFound is true.
	DeleteStack(ctx context.Context, stackID, roleARN string) error

	// DescribeStack returns the live status, outputs and parameters of a stack.
	DescribeStack(ctx context.Context, stackID string) (*StackDetails, error)
}

// ListScope restricts which records a scan returns.
type ListScope struct {
	// CreatedBy limits results to one owner when set.
	CreatedBy string

	// TenantID limits results to one tenant when set.
	TenantID string

	// IncludeDeleted includes records marked for deletion.
	IncludeDeleted bool
}

// RecordStore persists use case deployment metadata.
type RecordStore interface {
	PutUseCase(ctx context.Context, rec *usecase.Record) error
	GetUseCase(ctx context.Context, useCaseID string) (*usecase.Record, error)
	UpdateUseCase(ctx context.Context, rec *usecase.Record) error
	DeleteUseCase(ctx context.Context, useCaseID string) error
	MarkUseCaseForDeletion(ctx context.Context, useCaseID string, expiresAt time.Time) error
	ListUseCases(ctx context.Context, scope ListScope) ([]*usecase.Record, error)
}

// ConfigStore persists configuration documents by record key. Keys are
// write-once.
type ConfigStore interface {
	PutConfig(ctx context.Context, key string, cfg usecase.Config) error
	GetConfig(ctx context.Context, key string) (usecase.Config, error)
	DeleteConfig(ctx context.Context, key string) error
	MarkConfigForDeletion(ctx context.Context, key string, expiresAt time.Time) error
}

// SecretStore keeps third-party API keys out of the configuration document.
type SecretStore interface {
	PutAPIKey(ctx context.Context, useCaseID, apiKey string) error
	DeleteAPIKey(ctx context.Context, useCaseID string) error
}

// ModelInfoSource resolves model metadata by use case kind and
// "<provider>#<model>" sort key.
type ModelInfoSource interface {
	GetModelInfo(ctx context.Context, useCaseKind, sortKey string) (*usecase.ModelInfo, error)
}

// IdentityProvider resolves user pool details for authentication settings.
type IdentityProvider interface {
	// UserPoolDomain returns the hosted domain prefix of a user pool, or ""
	// when the pool has none.
	UserPoolDomain(ctx context.Context, userPoolID string) (string, error)
}

// Principal is the verified caller of a lifecycle command.
type Principal struct {
	Subject  string   `json:"sub"`
	Email    string   `json:"email,omitempty"`
	Groups   []string `json:"groups,omitempty"`
	TenantID string   `json:"tenant_id,omitempty"`
}

// View selects how much of a use case is returned to a caller.
type View string

const (
	ViewAdmin    View = "admin"
	ViewBusiness View = "business"
)

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed bool `json:"allowed"`
	View    View `json:"view"`
}

// Authorizer decides whether a principal may perform an operation and which
// view it receives.
type Authorizer interface {
	Authorize(ctx context.Context, p Principal, op Operation) (Decision, error)
}
