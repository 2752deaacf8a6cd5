// Package lifecycle sequences the provisioning engine and the durable stores
// for every use case operation.
//
// The commands share one failure policy. A failure of the provisioning
// engine is reported as engine.StatusFailed with a nil error, and the
// command stops. A failure in any step that runs after the provisioning
// engine has changed state is returned as an error for reconciliation.
// Nothing is retried here.
package lifecycle

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/openfroyo/ucm/pkg/engine"
	"github.com/openfroyo/ucm/pkg/listing"
	"github.com/openfroyo/ucm/pkg/telemetry"
	"github.com/openfroyo/ucm/pkg/validators"
)

// Settings are the deployment-wide values the commands apply to every use case.
type Settings struct {
	// StackNamePrefix is prepended to the short use case id to name stacks.
	StackNamePrefix string

	// TemplateBaseURL locates the stack templates of every use case type.
	TemplateBaseURL string

	// ExecutionRoleArn is the default role of the provisioning engine.
	ExecutionRoleArn string

	// ConfigTableName is passed to every stack so it can read its configuration.
	ConfigTableName string

	// RetentionPeriod is how long soft-deleted records are kept.
	RetentionPeriod time.Duration

	// PageSize is the number of use cases per listing page.
	PageSize int
}

// Deps are the collaborators the commands drive.
type Deps struct {
	Provisioner engine.Provisioner
	Records     engine.RecordStore
	Configs     engine.ConfigStore

	// Secrets is optional; without it API keys are rejected.
	Secrets engine.SecretStore

	Validators validators.Factory

	// Authorizer is optional; without it every caller is an administrator.
	Authorizer engine.Authorizer

	Telemetry *telemetry.Telemetry

	// Now defaults to time.Now.
	Now func() time.Time
}

// env is shared by every command.
type env struct {
	deps     Deps
	settings Settings
	log      *telemetry.Logger
}

// Commands holds one command per lifecycle operation.
type Commands struct {
	Create            *CreateCommand
	Update            *UpdateCommand
	Delete            *DeleteCommand
	PermanentlyDelete *PermanentlyDeleteCommand
	List              *ListCommand
	Get               *GetCommand

	env *env
}

// New wires the lifecycle commands.
func New(deps Deps, settings Settings) *Commands {
	if deps.Telemetry == nil {
		deps.Telemetry = telemetry.Nop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if settings.PageSize <= 0 {
		settings.PageSize = listing.DefaultPageSize
	}
	e := &env{
		deps:     deps,
		settings: settings,
		log:      deps.Telemetry.Logger.NewComponentLogger("lifecycle"),
	}
	return &Commands{
		Create:            &CreateCommand{env: e},
		Update:            &UpdateCommand{env: e},
		Delete:            &DeleteCommand{env: e},
		PermanentlyDelete: &PermanentlyDeleteCommand{env: e},
		List:              &ListCommand{env: e},
		Get:               &GetCommand{env: e},
		env:               e,
	}
}

// Authorize checks whether p may run op and which view it receives.
func (c *Commands) Authorize(ctx context.Context, p engine.Principal, op engine.Operation) (engine.Decision, error) {
	if c.env.deps.Authorizer == nil {
		return engine.Decision{Allowed: true, View: engine.ViewAdmin}, nil
	}
	d, err := c.env.deps.Authorizer.Authorize(ctx, p, op)
	if err != nil {
		return engine.Decision{}, err
	}
	if !d.Allowed {
		return d, engine.NewPermissionError("operation " + string(op) + " is not permitted").WithOperation(string(op))
	}
	return d, nil
}

// commandFunc is the body of a command producing a status.
type commandFunc func(ctx context.Context, log *telemetry.Logger) (engine.Status, error)

// run wraps a command body with its span, log fields and metrics.
func (e *env) run(ctx context.Context, op engine.Operation, useCaseID, useCaseType string, fn commandFunc) (engine.Status, error) {
	tel := e.deps.Telemetry
	timer := telemetry.NewTimer()
	ctx, span := tel.Tracer.StartCommandSpan(ctx, string(op), useCaseID)
	defer span.End()

	log := e.log.WithOperation(string(op)).WithUseCase(useCaseID, useCaseType).WithTrace(ctx)
	status, err := fn(ctx, log)

	label := string(status)
	switch {
	case err != nil:
		label = "ERROR"
		e.recordError(span, useCaseType, err)
		log.WithError(err).Warn("command failed")
	case status == engine.StatusFailed:
		span.SetAttributes(telemetry.AttrStatus.String(label))
	default:
		telemetry.Finish(span, nil)
	}
	tel.Metrics.RecordCommand(string(op), useCaseType, label, timer.Duration())
	return status, err
}

func (e *env) recordError(span trace.Span, useCaseType string, err error) {
	telemetry.Finish(span, err)
	m := e.deps.Telemetry.Metrics
	switch {
	case engine.IsValidation(err):
		m.RecordValidationFailure(useCaseType)
		m.RecordError(engine.ErrCodeValidation)
	case engine.IsStoreError(err):
		m.RecordError(engine.ErrCodeStoreFailed)
	case engine.IsNotFound(err):
		m.RecordError(engine.ErrCodeNotFound)
	case engine.IsPermissionDenied(err):
		m.RecordError(engine.ErrCodePermissionDenied)
	}
}

// provision runs one provisioning engine call inside its own span.
func (e *env) provision(ctx context.Context, op, stackID string, fn func(ctx context.Context) error) error {
	timer := telemetry.NewTimer()
	ctx, span := e.deps.Telemetry.Tracer.StartProvisionerSpan(ctx, op, stackID)
	defer span.End()

	err := fn(ctx)
	telemetry.Finish(span, err)
	e.deps.Telemetry.Metrics.RecordProvisionerCall(op, timer.Duration(), err)
	return err
}

// storeError wraps a store failure and counts it.
func (e *env) storeError(op string, err error) error {
	e.deps.Telemetry.Metrics.RecordStoreError(op)
	return engine.NewStoreError(op, err)
}

func (e *env) roleArn(override string) string {
	if override != "" {
		return override
	}
	return e.settings.ExecutionRoleArn
}
