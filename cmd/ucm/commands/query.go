package commands

import (
	"github.com/spf13/cobra"

	"github.com/openfroyo/ucm/pkg/engine"
	"github.com/openfroyo/ucm/pkg/lifecycle"
	"github.com/openfroyo/ucm/pkg/listing"
)

func newListCommand() *cobra.Command {
	var (
		page           int
		pageSize       int
		search         string
		includeDeleted bool
		mine           bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List use cases",
		Long: `List use cases, newest first, one page at a time.

Administrators see every use case. Other callers see only their own use
cases, limited to their tenant when their identity carries one.`,
		Example: `  # Second page of use cases matching "support"
  ucm list --search support --page 2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			p, d, err := a.authorize(ctx, engine.OpList)
			if err != nil {
				return err
			}

			scope := engine.ListScope{TenantID: p.TenantID, IncludeDeleted: includeDeleted}
			if mine || d.View != engine.ViewAdmin {
				scope.CreatedBy = p.Subject
			}

			result, err := a.lifecycle.List.Execute(ctx, lifecycle.ListRequest{
				Scope: scope,
				Query: listing.Query{Search: search, Page: page, PageSize: pageSize},
				View:  d.View,
			})
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().IntVar(&page, "page", 1, "page number (1-based)")
	cmd.Flags().IntVar(&pageSize, "page-size", 0, "use cases per page (defaults to lifecycle.page_size)")
	cmd.Flags().StringVarP(&search, "search", "s", "", "case-insensitive match on id and name")
	cmd.Flags().BoolVar(&includeDeleted, "include-deleted", false, "include use cases marked for deletion")
	cmd.Flags().BoolVar(&mine, "mine", false, "only list use cases created by the caller")

	return cmd
}

func newGetCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <use-case-id>",
		Short: "Show one use case",
		Long: `Show a use case with its live stack status and configuration.

Administrators receive the full configuration and stack details. Other
callers receive the business view.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			_, d, err := a.authorize(ctx, engine.OpGet)
			if err != nil {
				return err
			}

			view, err := a.lifecycle.Get.Execute(ctx, args[0], d.View)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), view)
		},
	}
	return cmd
}
