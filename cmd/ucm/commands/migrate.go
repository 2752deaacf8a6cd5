package commands

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newStoreApp(ctx, false)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.store.Migrate(ctx); err != nil {
				return err
			}
			return printSchemaVersion(cmd, a)
		},
	})

	var yes bool
	down := &cobra.Command{
		Use:   "down",
		Short: "Revert every migration, dropping all data",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to drop the schema without --yes")
			}
			ctx := cmd.Context()
			a, err := newStoreApp(ctx, false)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.store.MigrateDown(ctx); err != nil {
				return err
			}
			log.Warn().Str("path", a.settings.Database.Path).Msg("Dropped database schema")
			return printSchemaVersion(cmd, a)
		},
	}
	down.Flags().BoolVar(&yes, "yes", false, "confirm dropping all data")
	cmd.AddCommand(down)

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show the applied schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newStoreApp(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer a.close()
			return printSchemaVersion(cmd, a)
		},
	})

	return cmd
}

func printSchemaVersion(cmd *cobra.Command, a *app) error {
	v, dirty, err := a.store.SchemaVersion()
	if err != nil {
		return err
	}
	return writeOutput(cmd.OutOrStdout(), map[string]any{"version": v, "dirty": dirty})
}
