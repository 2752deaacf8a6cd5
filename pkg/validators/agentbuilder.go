package validators

import (
	"context"

	"github.com/openfroyo/ucm/pkg/usecase"
)

// AgentBuilderValidator validates agents assembled from a system prompt,
// tools and MCP servers.
type AgentBuilderValidator struct {
	common
}

// NewAgentBuilderValidator creates a validator for AgentBuilder use cases.
func NewAgentBuilderValidator(deps Deps) *AgentBuilderValidator {
	return &AgentBuilderValidator{common: newCommon(deps, usecase.TypeAgentBuilder)}
}

// ValidateForCreate implements Validator.
func (v *AgentBuilderValidator) ValidateForCreate(ctx context.Context, uc *usecase.UseCase) (*usecase.UseCase, error) {
	return v.create(ctx, uc, v.check)
}

// ValidateForUpdate implements Validator.
func (v *AgentBuilderValidator) ValidateForUpdate(ctx context.Context, uc *usecase.UseCase, oldConfigKey string) (*usecase.UseCase, error) {
	return v.update(ctx, uc, oldConfigKey, v.check)
}

func (v *AgentBuilderValidator) check(_ context.Context, uc *usecase.UseCase) error {
	var cfg agentBuilderConfig
	if err := decodeAndCheck(uc.Config, &cfg); err != nil {
		return err
	}
	if err := checkLlmParams(cfg.LlmParams); err != nil {
		return err
	}
	syncInferenceProfileParam(uc, cfg.LlmParams)
	return nil
}
