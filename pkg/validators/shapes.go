package validators

// Typed views of the configuration document. Only the fields that are
// checked are declared; everything else passes through untouched in the
// usecase.Config the views are decoded from.

type llmParams struct {
	ModelProvider      string                `json:"ModelProvider" validate:"required,oneof=Bedrock SageMaker"`
	RAGEnabled         bool                  `json:"RAGEnabled"`
	Streaming          bool                  `json:"Streaming"`
	Temperature        *float64              `json:"Temperature" validate:"omitempty,gte=0,lte=2"`
	ModelParams        map[string]modelParam `json:"ModelParams" validate:"omitempty,dive"`
	PromptParams       *promptParams         `json:"PromptParams"`
	BedrockLlmParams   *bedrockLlmParams     `json:"BedrockLlmParams"`
	SageMakerLlmParams *sageMakerLlmParams   `json:"SageMakerLlmParams"`
}

type modelParam struct {
	Value any    `json:"Value"`
	Type  string `json:"Type" validate:"required,oneof=string integer float boolean list dictionary"`
}

type promptParams struct {
	PromptTemplate               string `json:"PromptTemplate"`
	DisambiguationPromptTemplate string `json:"DisambiguationPromptTemplate"`
	DisambiguationEnabled        *bool  `json:"DisambiguationEnabled"`
	MaxPromptTemplateLength      int    `json:"MaxPromptTemplateLength" validate:"gte=0"`
	MaxInputTextLength           int    `json:"MaxInputTextLength" validate:"gte=0"`
}

type bedrockLlmParams struct {
	ModelID            string `json:"ModelId"`
	ModelArn           string `json:"ModelArn"`
	InferenceProfileID string `json:"InferenceProfileId"`
	GuardrailID        string `json:"GuardrailIdentifier"`
	GuardrailVersion   string `json:"GuardrailVersion" validate:"required_with=GuardrailID"`
}

type sageMakerLlmParams struct {
	EndpointName            string `json:"EndpointName" validate:"required"`
	ModelInputPayloadSchema any    `json:"ModelInputPayloadSchema" validate:"required"`
	ModelOutputJSONPath     string `json:"ModelOutputJSONPath" validate:"required"`
}

type knowledgeBaseParams struct {
	KnowledgeBaseType          string                      `json:"KnowledgeBaseType" validate:"required,oneof=Kendra Bedrock"`
	NumberOfDocs               int                         `json:"NumberOfDocs" validate:"omitempty,min=1,max=100"`
	ScoreThreshold             *float64                    `json:"ScoreThreshold" validate:"omitempty,gte=0,lte=1"`
	KendraKnowledgeBaseParams  *kendraKnowledgeBaseParams  `json:"KendraKnowledgeBaseParams"`
	BedrockKnowledgeBaseParams *bedrockKnowledgeBaseParams `json:"BedrockKnowledgeBaseParams"`
}

type kendraKnowledgeBaseParams struct {
	ExistingKendraIndexID string `json:"ExistingKendraIndexId"`
	KendraIndexName       string `json:"KendraIndexName"`
}

type bedrockKnowledgeBaseParams struct {
	BedrockKnowledgeBaseID string `json:"BedrockKnowledgeBaseId" validate:"required"`
	OverrideSearchType     string `json:"OverrideSearchType" validate:"omitempty,oneof=HYBRID SEMANTIC NONE"`
}

type authenticationParams struct {
	AuthenticationProvider string `json:"AuthenticationProvider" validate:"required,oneof=Cognito"`
}

type textConfig struct {
	LlmParams            *llmParams            `json:"LlmParams" validate:"required"`
	KnowledgeBaseParams  *knowledgeBaseParams  `json:"KnowledgeBaseParams"`
	AuthenticationParams *authenticationParams `json:"AuthenticationParams"`
}

type agentConfig struct {
	AgentParams *struct {
		BedrockAgentParams *bedrockAgentParams `json:"BedrockAgentParams" validate:"required"`
	} `json:"AgentParams" validate:"required"`
	AuthenticationParams *authenticationParams `json:"AuthenticationParams"`
}

type bedrockAgentParams struct {
	AgentID      string `json:"AgentId" validate:"required,alphanum,max=10"`
	AgentAliasID string `json:"AgentAliasId" validate:"required,alphanum,max=10"`
	EnableTrace  bool   `json:"EnableTrace"`
}

type agentBuilderConfig struct {
	LlmParams          *llmParams          `json:"LlmParams" validate:"required"`
	AgentBuilderParams *agentBuilderParams `json:"AgentBuilderParams" validate:"required"`
}

type agentBuilderParams struct {
	SystemPrompt string         `json:"SystemPrompt" validate:"required"`
	Tools        []tool         `json:"Tools" validate:"max=20,unique=ToolID,dive"`
	MCPServers   []mcpServerRef `json:"MCPServers" validate:"max=10,unique=UseCaseID,dive"`
}

type tool struct {
	ToolID string `json:"ToolId" validate:"required"`
}

type mcpServerRef struct {
	UseCaseID string `json:"UseCaseId" validate:"required"`
	URL       string `json:"Url" validate:"required,url"`
	Type      string `json:"Type" validate:"required,oneof=gateway runtime"`
}

type mcpServerConfig struct {
	MCPParams *mcpParams `json:"MCPParams" validate:"required"`
}

type mcpParams struct {
	GatewayParams *gatewayParams `json:"GatewayParams"`
	RuntimeParams *runtimeParams `json:"RuntimeParams"`
}

type gatewayParams struct {
	TargetParams []gatewayTarget `json:"TargetParams" validate:"required,min=1,dive"`
}

type gatewayTarget struct {
	TargetName         string              `json:"TargetName" validate:"required"`
	TargetType         string              `json:"TargetType" validate:"required,oneof=lambda openApiSchema smithyModel"`
	SchemaURI          string              `json:"SchemaUri" validate:"required"`
	LambdaArn          string              `json:"LambdaArn"`
	OutboundAuthParams *outboundAuthParams `json:"OutboundAuthParams"`
}

type outboundAuthParams struct {
	OutboundAuthProviderArn  string `json:"OutboundAuthProviderArn" validate:"required"`
	OutboundAuthProviderType string `json:"OutboundAuthProviderType" validate:"required,oneof=API_KEY OAUTH"`
}

type runtimeParams struct {
	EcrURI               string            `json:"EcrUri" validate:"required"`
	EnvironmentVariables map[string]string `json:"EnvironmentVariables"`
}

type workflowConfig struct {
	LlmParams      *llmParams      `json:"LlmParams" validate:"required"`
	WorkflowParams *workflowParams `json:"WorkflowParams" validate:"required"`
}

type workflowParams struct {
	OrchestrationPattern string `json:"OrchestrationPattern" validate:"required,oneof=agents-as-tools"`
	SystemPrompt         string `json:"SystemPrompt" validate:"required"`
	AgentsAsToolsParams  *struct {
		Agents []workflowAgent `json:"Agents" validate:"required,min=1,max=10,unique=UseCaseID,dive"`
	} `json:"AgentsAsToolsParams" validate:"required"`
}

type workflowAgent struct {
	UseCaseID   string `json:"UseCaseId" validate:"required,uuid"`
	UseCaseType string `json:"UseCaseType" validate:"required,eq=AgentBuilder"`
	UseCaseName string `json:"UseCaseName"`
}
