package lifecycle

import (
	"context"

	"github.com/openfroyo/ucm/pkg/engine"
	"github.com/openfroyo/ucm/pkg/listing"
	"github.com/openfroyo/ucm/pkg/telemetry"
)

// ListRequest selects a page of use cases.
type ListRequest struct {
	Scope engine.ListScope
	Query listing.Query
	View  engine.View
}

// ListResult is one page of use cases.
type ListResult struct {
	UseCases []*UseCaseView `json:"deployments"`
	Total    int            `json:"numUseCases"`

	// NextPage is 0 on the last page.
	NextPage int `json:"nextPage,omitempty"`
}

// ListCommand pages through deployed use cases.
type ListCommand struct {
	*env
}

// Execute scans the records in scope, filters, orders and paginates them, and
// joins each row on the page with its stack status and configuration. A row
// whose stack cannot be described is reported with an unknown status. A row
// whose configuration cannot be read is left out of the page.
func (c *ListCommand) Execute(ctx context.Context, req ListRequest) (*ListResult, error) {
	if req.Query.PageSize <= 0 {
		req.Query.PageSize = c.settings.PageSize
	}
	var out *ListResult
	_, err := c.run(ctx, engine.OpList, "", "", func(ctx context.Context, log *telemetry.Logger) (engine.Status, error) {
		records, err := c.deps.Records.ListUseCases(ctx, req.Scope)
		if err != nil {
			return "", c.storeError("list_use_cases", err)
		}
		page := listing.Apply(records, req.Query)

		out = &ListResult{
			UseCases: make([]*UseCaseView, 0, len(page.Records)),
			Total:    page.Total,
			NextPage: page.NextPage,
		}
		for _, rec := range page.Records {
			rowLog := log.WithUseCaseID(rec.UseCaseID).WithStackID(rec.StackID)

			stack, err := c.describe(ctx, rec)
			if err != nil {
				rowLog.WithError(err).Warn("stack status unavailable")
				stack = nil
			}
			cfg, err := c.deps.Configs.GetConfig(ctx, rec.ConfigRecordKey)
			if err != nil {
				rowLog.WithError(err).Warn("configuration unavailable, excluding use case from page")
				continue
			}
			out.UseCases = append(out.UseCases, project(rec, stack, cfg, req.View))
		}
		return engine.StatusSuccess, nil
	})
	return out, err
}
