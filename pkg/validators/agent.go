package validators

import (
	"context"
	"fmt"

	"github.com/openfroyo/ucm/pkg/engine"
	"github.com/openfroyo/ucm/pkg/usecase"
)

const authProviderCognito = "Cognito"

// AgentValidator validates use cases fronting an existing Bedrock agent.
type AgentValidator struct {
	common
}

// NewAgentValidator creates a validator for Agent use cases.
func NewAgentValidator(deps Deps) *AgentValidator {
	return &AgentValidator{common: newCommon(deps, usecase.TypeAgent)}
}

// ValidateForCreate implements Validator.
func (v *AgentValidator) ValidateForCreate(ctx context.Context, uc *usecase.UseCase) (*usecase.UseCase, error) {
	return v.create(ctx, uc, v.check)
}

// ValidateForUpdate implements Validator.
func (v *AgentValidator) ValidateForUpdate(ctx context.Context, uc *usecase.UseCase, oldConfigKey string) (*usecase.UseCase, error) {
	return v.update(ctx, uc, oldConfigKey, v.check)
}

func (v *AgentValidator) check(ctx context.Context, uc *usecase.UseCase) error {
	var cfg agentConfig
	if err := decodeAndCheck(uc.Config, &cfg); err != nil {
		return err
	}
	if cfg.AuthenticationParams != nil && cfg.AuthenticationParams.AuthenticationProvider == authProviderCognito {
		return v.resolveCognitoDomain(ctx, uc)
	}
	return nil
}

// resolveCognitoDomain looks up the hosted domain of the referenced user pool
// and passes it to the stack as a deployment parameter.
func (v *AgentValidator) resolveCognitoDomain(ctx context.Context, uc *usecase.UseCase) error {
	poolID := uc.Parameters.Value(usecase.ParamExistingCognitoUserPoolID)
	if poolID == "" {
		return engine.NewValidationErrorf(MsgCognitoPoolParamMissing, usecase.ParamExistingCognitoUserPoolID)
	}

	domain, err := v.deps.Identity.UserPoolDomain(ctx, poolID)
	if err != nil {
		if engine.IsNotFound(err) {
			return engine.NewValidationErrorf(MsgCognitoDomainMissing, poolID)
		}
		return fmt.Errorf("failed to describe user pool %s: %w", poolID, err)
	}
	if domain == "" {
		return engine.NewValidationErrorf(MsgCognitoDomainMissing, poolID)
	}

	uc.Parameters.Set(usecase.ParamCognitoDomainPrefix, domain)
	v.log.WithUseCaseID(uc.ID).Debugf("resolved cognito domain %s for user pool %s", domain, poolID)
	return nil
}
