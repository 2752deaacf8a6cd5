package lifecycle

import (
	"context"
	"time"

	"github.com/openfroyo/ucm/pkg/engine"
	"github.com/openfroyo/ucm/pkg/telemetry"
	"github.com/openfroyo/ucm/pkg/usecase"
)

// UseCaseView is a use case as returned to a caller. Fields hidden from
// business users are left empty in their view.
type UseCaseView struct {
	UseCaseID   string             `json:"UseCaseId"`
	Name        string             `json:"Name"`
	Description string             `json:"Description,omitempty"`
	UseCaseType usecase.Type       `json:"UseCaseType"`
	CreatedBy   string             `json:"CreatedBy,omitempty"`
	CreatedAt   time.Time          `json:"CreatedDate"`
	UpdatedAt   time.Time          `json:"UpdatedDate"`
	StackID     string             `json:"StackId,omitempty"`
	Status      string             `json:"Status"`
	Outputs     map[string]string  `json:"Outputs,omitempty"`
	Parameters  usecase.Parameters `json:"Parameters,omitempty"`
	Config      usecase.Config     `json:"Config,omitempty"`
	View        engine.View        `json:"View"`
}

// businessConfigPaths are the configuration values a business user may see.
var businessConfigPaths = []string{
	usecase.KeyUseCaseName,
	usecase.KeyUseCaseType,
	usecase.KeyUseCaseDescription,
	"FeedbackParams",
	"ConversationMemoryParams",
	"LlmParams.ModelProvider",
	"LlmParams.RAGEnabled",
	"LlmParams.Streaming",
	"LlmParams.PromptParams",
	"KnowledgeBaseParams.KnowledgeBaseType",
	"KnowledgeBaseParams.NumberOfDocs",
	"KnowledgeBaseParams.ReturnSourceDocs",
	"AgentBuilderParams.SystemPrompt",
	"AgentBuilderParams.MemoryConfig",
	"WorkflowParams.OrchestrationPattern",
	"WorkflowParams.SystemPrompt",
}

// GetCommand reads one use case.
type GetCommand struct {
	*env
}

// Execute returns the metadata, live stack status and configuration of
// useCaseID projected into view.
func (c *GetCommand) Execute(ctx context.Context, useCaseID string, view engine.View) (*UseCaseView, error) {
	var out *UseCaseView
	_, err := c.run(ctx, engine.OpGet, useCaseID, "", func(ctx context.Context, log *telemetry.Logger) (engine.Status, error) {
		rec, err := c.deps.Records.GetUseCase(ctx, useCaseID)
		if err != nil {
			return "", err
		}
		stack, err := c.describe(ctx, rec)
		if err != nil {
			return "", err
		}
		cfg, err := c.deps.Configs.GetConfig(ctx, rec.ConfigRecordKey)
		if err != nil {
			return "", err
		}
		out = project(rec, stack, cfg, view)
		return engine.StatusSuccess, nil
	})
	return out, err
}

func (e *env) describe(ctx context.Context, rec *usecase.Record) (*engine.StackDetails, error) {
	var details *engine.StackDetails
	err := e.provision(ctx, "describe_stack", rec.StackID, func(ctx context.Context) error {
		var err error
		details, err = e.deps.Provisioner.DescribeStack(ctx, rec.StackID)
		return err
	})
	return details, err
}

// project builds the view of a use case. A nil stack reports an unknown status.
func project(rec *usecase.Record, stack *engine.StackDetails, cfg usecase.Config, view engine.View) *UseCaseView {
	out := &UseCaseView{
		UseCaseID:   rec.UseCaseID,
		Name:        rec.Name,
		Description: rec.Description,
		UseCaseType: rec.UseCaseType,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
		Status:      engine.StackStatusUnknown,
		View:        view,
	}
	if stack != nil {
		out.Status = stack.Status
	}

	if view != engine.ViewAdmin {
		out.View = engine.ViewBusiness
		out.Config = businessConfig(cfg)
		return out
	}

	out.CreatedBy = rec.CreatedBy
	out.StackID = rec.StackID
	out.Config = cfg.Clone()
	if stack != nil {
		out.Outputs = stack.Outputs
		out.Parameters = stack.Parameters.Clone()
	}
	return out
}

func businessConfig(cfg usecase.Config) usecase.Config {
	src := cfg.Clone()
	out := usecase.Config{}
	for _, path := range businessConfigPaths {
		if v, ok := src.Lookup(path); ok {
			out.SetPath(path, v)
		}
	}
	return out
}
