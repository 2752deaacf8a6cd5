package validators

// User-facing validation messages. Clients match on this wording, so treat
// changes as breaking.
const (
	MsgUnsupportedType     = "Unsupported use case type: %s"
	MsgTypeMismatch        = "Use case type %s cannot be validated as %s"
	MsgConfigTypeMismatch  = "UseCaseType %s in the configuration does not match the use case type %s"
	MsgPriorConfigNotFound = "Configuration %s of the existing use case was not found"

	MsgFieldRequired = "Missing required field %s"
	MsgFieldOneOf    = "Invalid value for %s: must be one of [%s]"
	MsgFieldEqual    = "Invalid value for %s: must be %s"
	MsgFieldMinItems = "%s must contain at least %s item(s)"
	MsgFieldMaxItems = "%s must contain at most %s item(s)"
	MsgFieldMaxLen   = "%s must be at most %s characters long"
	MsgFieldRange    = "Invalid value for %s: must satisfy %s=%s"
	MsgFieldUnique   = "%s must not contain duplicate entries"
	MsgFieldFormat   = "Invalid format for %s"

	MsgModelInfoNotFound      = "No model info found for provider %s and model %s"
	MsgModelIdentityExclusive = "Only one of ModelId or InferenceProfileId may be provided in LlmParams.BedrockLlmParams"
	MsgModelIdentityRequired  = "One of ModelId or InferenceProfileId is required in LlmParams.BedrockLlmParams"
	MsgBedrockParamsRequired  = "LlmParams.BedrockLlmParams is required when ModelProvider is Bedrock"
	MsgSageMakerRequired      = "LlmParams.SageMakerLlmParams is required when ModelProvider is SageMaker"
	MsgStreamingUnsupported   = "Streaming is not supported by model %s"

	MsgPlaceholderMissing  = "Missing required placeholder %s in %s"
	MsgPlaceholderRepeated = "Placeholder %s must appear exactly once in %s, found %d occurrences"
	MsgUnescapedBraces     = "Curly braces in %s must be escaped by doubling them ({{ or }}) unless they form one of the placeholders %s"
	MsgPromptTooLong       = "%s is %d characters long, which exceeds the maximum of %d"
	MsgPromptLimitTooLarge = "%s is %d, which exceeds the maximum prompt size of %d supported by model %s"

	MsgKnowledgeBaseRequired = "KnowledgeBaseParams is required when RAGEnabled is true"
	MsgKendraParamsRequired  = "KnowledgeBaseParams.KendraKnowledgeBaseParams is required when KnowledgeBaseType is Kendra"
	MsgKendraIndexRequired   = "One of ExistingKendraIndexId or KendraIndexName is required in KnowledgeBaseParams.KendraKnowledgeBaseParams"
	MsgBedrockKBRequired     = "KnowledgeBaseParams.BedrockKnowledgeBaseParams is required when KnowledgeBaseType is Bedrock"

	MsgSageMakerPlaceholderUndefined = "Placeholder <<%s>> in ModelInputPayloadSchema has no matching entry in LlmParams.ModelParams"
	MsgSageMakerPromptMissing        = "ModelInputPayloadSchema must contain the placeholder <<prompt>>"

	MsgCognitoPoolParamMissing = "Deployment parameter %s is required when AuthenticationProvider is Cognito"
	MsgCognitoDomainMissing    = "User pool %s has no domain configured"

	MsgMCPExactlyOne          = "Exactly one of MCPParams.GatewayParams or MCPParams.RuntimeParams must be provided"
	MsgTargetNameFormat       = "Invalid TargetName %q at %s: must be 1-100 letters, digits or hyphens"
	MsgTargetNameDuplicate    = "Duplicate TargetName %q in MCPParams.GatewayParams.TargetParams"
	MsgSchemaURIFormat        = "Invalid SchemaUri %q at %s: must match mcp/schemas/<targetType>/<uuid>.<extension>"
	MsgSchemaURITypeMismatch  = "SchemaUri at %s is stored under %s but TargetType is %s"
	MsgSchemaURIExtension     = "SchemaUri at %s has extension .%s, but %s targets accept only %s"
	MsgLambdaArnRequired      = "LambdaArn is required at %s for lambda targets"
	MsgLambdaArnFormat        = "Invalid LambdaArn %q at %s"
	MsgEcrURIFormat           = "Invalid EcrUri %q: must be an ECR image URI with a tag"
	MsgEnvVarCount            = "MCPParams.RuntimeParams.EnvironmentVariables must contain at most %d variables, found %d"
	MsgEnvVarSize             = "MCPParams.RuntimeParams.EnvironmentVariables total size must be at most %d bytes, found %d"
	MsgEnvVarName             = "Invalid environment variable name %q in MCPParams.RuntimeParams.EnvironmentVariables"

	MsgWorkflowSelfReference = "Workflow %s cannot reference itself in WorkflowParams.AgentsAsToolsParams.Agents"
)
