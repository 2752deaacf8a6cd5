package validators

import (
	"context"

	"github.com/openfroyo/ucm/pkg/engine"
	"github.com/openfroyo/ucm/pkg/usecase"
)

// WorkflowValidator validates multi-agent workflows whose agents are other
// AgentBuilder use cases.
type WorkflowValidator struct {
	common
}

// NewWorkflowValidator creates a validator for Workflow use cases.
func NewWorkflowValidator(deps Deps) *WorkflowValidator {
	return &WorkflowValidator{common: newCommon(deps, usecase.TypeWorkflow)}
}

// ValidateForCreate implements Validator.
func (v *WorkflowValidator) ValidateForCreate(ctx context.Context, uc *usecase.UseCase) (*usecase.UseCase, error) {
	return v.create(ctx, uc, v.check)
}

// ValidateForUpdate implements Validator.
func (v *WorkflowValidator) ValidateForUpdate(ctx context.Context, uc *usecase.UseCase, oldConfigKey string) (*usecase.UseCase, error) {
	return v.update(ctx, uc, oldConfigKey, v.check)
}

func (v *WorkflowValidator) check(_ context.Context, uc *usecase.UseCase) error {
	var cfg workflowConfig
	if err := decodeAndCheck(uc.Config, &cfg); err != nil {
		return err
	}
	if err := checkLlmParams(cfg.LlmParams); err != nil {
		return err
	}
	for _, agent := range cfg.WorkflowParams.AgentsAsToolsParams.Agents {
		if agent.UseCaseID == uc.ID {
			return engine.NewValidationErrorf(MsgWorkflowSelfReference, uc.ID)
		}
	}
	syncInferenceProfileParam(uc, cfg.LlmParams)
	return nil
}
