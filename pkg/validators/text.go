package validators

import (
	"context"
	"fmt"

	"github.com/openfroyo/ucm/pkg/engine"
	"github.com/openfroyo/ucm/pkg/usecase"
)

const (
	pathPromptTemplate          = "LlmParams.PromptParams.PromptTemplate"
	pathDisambiguationTemplate  = "LlmParams.PromptParams.DisambiguationPromptTemplate"
	pathMaxPromptTemplateLength = "LlmParams.PromptParams.MaxPromptTemplateLength"
	pathMaxInputTextLength      = "LlmParams.PromptParams.MaxInputTextLength"
)

// TextValidator validates chat use cases, optionally backed by a knowledge base.
type TextValidator struct {
	common
}

// NewTextValidator creates a validator for Text use cases.
func NewTextValidator(deps Deps) *TextValidator {
	return &TextValidator{common: newCommon(deps, usecase.TypeText)}
}

// ValidateForCreate implements Validator.
func (v *TextValidator) ValidateForCreate(ctx context.Context, uc *usecase.UseCase) (*usecase.UseCase, error) {
	return v.create(ctx, uc, v.check)
}

// ValidateForUpdate implements Validator.
func (v *TextValidator) ValidateForUpdate(ctx context.Context, uc *usecase.UseCase, oldConfigKey string) (*usecase.UseCase, error) {
	return v.update(ctx, uc, oldConfigKey, v.check)
}

func (v *TextValidator) check(ctx context.Context, uc *usecase.UseCase) error {
	var cfg textConfig
	if err := decodeAndCheck(uc.Config, &cfg); err != nil {
		return err
	}
	llm := cfg.LlmParams
	if err := checkLlmParams(llm); err != nil {
		return err
	}

	info, err := v.modelInfo(ctx, llm)
	if err != nil {
		return err
	}
	if llm.Streaming && !info.AllowsStreaming {
		return engine.NewValidationErrorf(MsgStreamingUnsupported, info.ModelName)
	}

	prompts, err := v.backfillPrompts(uc.Config, llm.PromptParams, info)
	if err != nil {
		return err
	}

	if err := checkPromptTemplate(prompts.prompt, pathPromptTemplate, requiredPlaceholders(llm.RAGEnabled)); err != nil {
		return err
	}
	if err := checkPromptLength(prompts.prompt, pathPromptTemplate, prompts.limit); err != nil {
		return err
	}

	if llm.RAGEnabled {
		if prompts.disambiguationEnabled && prompts.disambiguation != "" {
			if err := checkPromptTemplate(prompts.disambiguation, pathDisambiguationTemplate, requiredPlaceholders(false)); err != nil {
				return err
			}
			if err := checkPromptLength(prompts.disambiguation, pathDisambiguationTemplate, prompts.limit); err != nil {
				return err
			}
		}
		if err := checkKnowledgeBase(cfg.KnowledgeBaseParams); err != nil {
			return err
		}
		syncKnowledgeBaseParams(uc, cfg.KnowledgeBaseParams)
	}

	if llm.ModelProvider == providerSageMaker {
		schema := schemaText(llm.SageMakerLlmParams.ModelInputPayloadSchema)
		if err := checkPayloadSchema(schema, llm.ModelParams); err != nil {
			return err
		}
	}

	syncInferenceProfileParam(uc, llm)
	return nil
}

func (v *TextValidator) modelInfo(ctx context.Context, llm *llmParams) (*usecase.ModelInfo, error) {
	kind := usecase.ModelKindChat
	if llm.RAGEnabled {
		kind = usecase.ModelKindRAGChat
	}
	name := modelName(llm)
	info, err := v.deps.Models.GetModelInfo(ctx, kind, usecase.ModelSortKey(llm.ModelProvider, name))
	if err != nil {
		if engine.IsNotFound(err) {
			return nil, engine.NewNotFoundError(fmt.Sprintf(MsgModelInfoNotFound, llm.ModelProvider, name), err)
		}
		return nil, fmt.Errorf("failed to read model info: %w", err)
	}
	return info, nil
}

type resolvedPrompts struct {
	prompt                string
	disambiguation        string
	disambiguationEnabled bool
	limit                 int
}

// backfillPrompts fills absent prompt settings from the model defaults and
// writes them into cfg so they are stored with the use case. A caller-supplied
// MaxPromptTemplateLength may lower the model's prompt size limit but never
// raise it.
func (v *TextValidator) backfillPrompts(cfg usecase.Config, pp *promptParams, info *usecase.ModelInfo) (resolvedPrompts, error) {
	if pp == nil {
		pp = &promptParams{}
	}
	out := resolvedPrompts{
		prompt:                pp.PromptTemplate,
		disambiguation:        pp.DisambiguationPromptTemplate,
		disambiguationEnabled: pp.DisambiguationEnabled == nil || *pp.DisambiguationEnabled,
		limit:                 info.MaxPromptSize,
	}

	if out.prompt == "" && info.Prompt != "" {
		out.prompt = info.Prompt
		cfg.SetPath(pathPromptTemplate, out.prompt)
	}
	if out.disambiguation == "" && info.DisambiguationPrompt != "" {
		out.disambiguation = info.DisambiguationPrompt
		cfg.SetPath(pathDisambiguationTemplate, out.disambiguation)
	}
	switch {
	case pp.MaxPromptTemplateLength > 0 && out.limit > 0 && pp.MaxPromptTemplateLength > out.limit:
		return out, engine.NewValidationErrorf(MsgPromptLimitTooLarge,
			pathMaxPromptTemplateLength, pp.MaxPromptTemplateLength, out.limit, info.ModelName)
	case pp.MaxPromptTemplateLength > 0:
		out.limit = pp.MaxPromptTemplateLength
	case out.limit > 0:
		cfg.SetPath(pathMaxPromptTemplateLength, out.limit)
	}
	if pp.MaxInputTextLength == 0 && info.MaxChatMessageSize > 0 {
		cfg.SetPath(pathMaxInputTextLength, info.MaxChatMessageSize)
	}
	return out, nil
}

func checkKnowledgeBase(kb *knowledgeBaseParams) error {
	if kb == nil {
		return engine.NewValidationError(MsgKnowledgeBaseRequired)
	}
	switch kb.KnowledgeBaseType {
	case "Kendra":
		k := kb.KendraKnowledgeBaseParams
		if k == nil {
			return engine.NewValidationError(MsgKendraParamsRequired)
		}
		if k.ExistingKendraIndexID == "" && k.KendraIndexName == "" {
			return engine.NewValidationError(MsgKendraIndexRequired)
		}
	case "Bedrock":
		if kb.BedrockKnowledgeBaseParams == nil {
			return engine.NewValidationError(MsgBedrockKBRequired)
		}
	}
	return nil
}

// syncKnowledgeBaseParams mirrors the knowledge base selection into the
// deployment parameters the template reads.
func syncKnowledgeBaseParams(uc *usecase.UseCase, kb *knowledgeBaseParams) {
	uc.Parameters.Set(usecase.ParamKnowledgeBaseType, kb.KnowledgeBaseType)
	switch kb.KnowledgeBaseType {
	case "Kendra":
		if id := kb.KendraKnowledgeBaseParams.ExistingKendraIndexID; id != "" {
			uc.Parameters.Set(usecase.ParamExistingKendraIndexID, id)
		}
	case "Bedrock":
		uc.Parameters.Set(usecase.ParamBedrockKnowledgeBaseID, kb.BedrockKnowledgeBaseParams.BedrockKnowledgeBaseID)
	}
}
