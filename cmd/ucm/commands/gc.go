package commands

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newGCCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gc",
		Short: "Remove expired use case records",
		Long: `Physically remove metadata and configuration records of deleted use
cases whose retention period has passed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newStoreApp(ctx, true)
			if err != nil {
				return err
			}
			defer a.close()

			res, err := a.store.PurgeExpired(ctx, time.Now())
			if err != nil {
				return err
			}
			log.Info().
				Int64("use_cases", res.UseCases).
				Int64("configs", res.Configs).
				Msg("Purged expired records")
			return writeOutput(cmd.OutOrStdout(), map[string]int64{
				"useCases": res.UseCases,
				"configs":  res.Configs,
			})
		},
	}
	return cmd
}
