// Package validators checks and normalizes use case configurations before
// they are provisioned.
//
// Each use case type has its own Validator. The Factory maps every type to
// exactly one implementation. On update, validators merge the incoming
// partial configuration over the previously stored one and then apply the
// same checks as on create.
package validators

import (
	"context"
	"fmt"

	"github.com/openfroyo/ucm/pkg/engine"
	"github.com/openfroyo/ucm/pkg/merge"
	"github.com/openfroyo/ucm/pkg/telemetry"
	"github.com/openfroyo/ucm/pkg/usecase"
)

// Validator checks and normalizes a use case of one type.
type Validator interface {
	// ValidateForCreate returns a normalized copy of uc or a validation error.
	ValidateForCreate(ctx context.Context, uc *usecase.UseCase) (*usecase.UseCase, error)

	// ValidateForUpdate merges uc over the configuration stored under
	// oldConfigKey and validates the result.
	ValidateForUpdate(ctx context.Context, uc *usecase.UseCase, oldConfigKey string) (*usecase.UseCase, error)
}

// ConfigReader reads previously stored configurations.
type ConfigReader interface {
	GetConfig(ctx context.Context, key string) (usecase.Config, error)
}

// MergingConfigReader is implemented by configuration stores that merge a
// patch into the stored document themselves. Validators prefer it over
// fetch-then-merge when available.
type MergingConfigReader interface {
	GetMergedConfig(ctx context.Context, key string, patch usecase.Config, policy *merge.Policy) (usecase.Config, error)
}

// Deps are the collaborators shared by the validators.
type Deps struct {
	Configs  ConfigReader
	Models   engine.ModelInfoSource
	Identity engine.IdentityProvider
	Logger   *telemetry.Logger
}

// Factory maps each use case type to its validator.
type Factory map[usecase.Type]Validator

// NewFactory builds the validator for every supported type.
func NewFactory(deps Deps) Factory {
	if deps.Logger == nil {
		deps.Logger = telemetry.NopLogger()
	}
	return Factory{
		usecase.TypeText:         NewTextValidator(deps),
		usecase.TypeAgent:        NewAgentValidator(deps),
		usecase.TypeAgentBuilder: NewAgentBuilderValidator(deps),
		usecase.TypeMCPServer:    NewMCPServerValidator(deps),
		usecase.TypeWorkflow:     NewWorkflowValidator(deps),
	}
}

// For returns the validator for t.
func (f Factory) For(t usecase.Type) (Validator, error) {
	v, ok := f[t]
	if !ok {
		return nil, engine.NewValidationErrorf(MsgUnsupportedType, t)
	}
	return v, nil
}

// checkFunc validates and normalizes uc in place.
type checkFunc func(ctx context.Context, uc *usecase.UseCase) error

// common carries what every validator needs to run the create and update paths.
type common struct {
	deps   Deps
	typ    usecase.Type
	policy *merge.Policy
	log    *telemetry.Logger
}

func newCommon(deps Deps, typ usecase.Type) common {
	log := deps.Logger
	if log == nil {
		log = telemetry.NopLogger()
	}
	return common{
		deps:   deps,
		typ:    typ,
		policy: merge.Default(),
		log:    log.NewComponentLogger("validators").WithField("use_case_type", string(typ)),
	}
}

func (c *common) create(ctx context.Context, uc *usecase.UseCase, check checkFunc) (*usecase.UseCase, error) {
	out := uc.Clone()
	if out.Config == nil {
		out.Config = usecase.Config{}
	}
	if err := c.run(ctx, out, check); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *common) update(ctx context.Context, uc *usecase.UseCase, oldKey string, check checkFunc) (*usecase.UseCase, error) {
	out := uc.Clone()
	merged, err := c.mergePrevious(ctx, out.Config, oldKey)
	if err != nil {
		return nil, err
	}
	out.Config = merged
	if err := c.run(ctx, out, check); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *common) run(ctx context.Context, uc *usecase.UseCase, check checkFunc) error {
	if uc.Type != c.typ {
		return engine.NewValidationErrorf(MsgTypeMismatch, uc.Type, c.typ)
	}
	if declared := uc.Config.String(usecase.KeyUseCaseType); declared != "" && declared != string(c.typ) {
		return engine.NewValidationErrorf(MsgConfigTypeMismatch, declared, c.typ)
	}
	if err := check(ctx, uc); err != nil {
		c.log.WithUseCaseID(uc.ID).Debugf("configuration rejected: %s", engine.UserMessage(err))
		return err
	}
	uc.Config[usecase.KeyUseCaseType] = string(c.typ)
	if uc.Name != "" {
		uc.Config[usecase.KeyUseCaseName] = uc.Name
	}
	return nil
}

func (c *common) mergePrevious(ctx context.Context, patch usecase.Config, oldKey string) (usecase.Config, error) {
	if oldKey == "" {
		return nil, engine.NewNotFoundError(fmt.Sprintf(MsgPriorConfigNotFound, oldKey), nil)
	}
	if patch == nil {
		patch = usecase.Config{}
	}

	if mr, ok := c.deps.Configs.(MergingConfigReader); ok {
		merged, err := mr.GetMergedConfig(ctx, oldKey, patch, c.policy)
		if err != nil {
			return nil, priorConfigError(oldKey, err)
		}
		return merged, nil
	}

	prev, err := c.deps.Configs.GetConfig(ctx, oldKey)
	if err != nil {
		return nil, priorConfigError(oldKey, err)
	}
	return usecase.Config(merge.Merge(prev, patch, c.policy)), nil
}

func priorConfigError(key string, err error) error {
	if engine.IsNotFound(err) {
		return engine.NewNotFoundError(fmt.Sprintf(MsgPriorConfigNotFound, key), err).WithResource(key)
	}
	return fmt.Errorf("failed to read configuration %s: %w", key, err)
}
