package validators

import (
	"github.com/openfroyo/ucm/pkg/engine"
	"github.com/openfroyo/ucm/pkg/usecase"
)

const (
	providerBedrock   = "Bedrock"
	providerSageMaker = "SageMaker"
)

// checkLlmParams applies the provider-specific rules shared by every type
// that carries LlmParams.
func checkLlmParams(llm *llmParams) error {
	switch llm.ModelProvider {
	case providerBedrock:
		b := llm.BedrockLlmParams
		if b == nil {
			return engine.NewValidationError(MsgBedrockParamsRequired)
		}
		switch {
		case b.ModelID != "" && b.InferenceProfileID != "":
			return engine.NewValidationError(MsgModelIdentityExclusive)
		case b.ModelID == "" && b.InferenceProfileID == "":
			return engine.NewValidationError(MsgModelIdentityRequired)
		}
	case providerSageMaker:
		if llm.SageMakerLlmParams == nil {
			return engine.NewValidationError(MsgSageMakerRequired)
		}
	}
	return nil
}

// modelName returns the model-info lookup name for llm. Inference profiles
// and SageMaker endpoints share the provider default entry.
func modelName(llm *llmParams) string {
	if llm.ModelProvider == providerBedrock && llm.BedrockLlmParams != nil && llm.BedrockLlmParams.ModelID != "" {
		return llm.BedrockLlmParams.ModelID
	}
	return usecase.DefaultModelName
}

// syncInferenceProfileParam records whether the stack must grant access to
// an inference profile rather than a foundation model.
func syncInferenceProfileParam(uc *usecase.UseCase, llm *llmParams) {
	if llm.ModelProvider != providerBedrock || llm.BedrockLlmParams == nil {
		return
	}
	value := "No"
	if llm.BedrockLlmParams.InferenceProfileID != "" {
		value = "Yes"
	}
	uc.Parameters.Set(usecase.ParamUseInferenceProfile, value)
}
