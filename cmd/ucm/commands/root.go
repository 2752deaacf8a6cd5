package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openfroyo/ucm/pkg/engine"
)

var (
	// Global flags
	configPath   string
	dbPath       string
	token        string
	outputFormat string
	verbose      bool
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

// exitTempFail is EX_TEMPFAIL from sysexits.h. Scripts may rerun the command.
const exitTempFail = 75

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	var failed *failedError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &failed):
		return 2
	case engine.IsPermissionDenied(err):
		return 3
	case engine.IsValidation(err):
		return 4
	case engine.IsNotFound(err):
		return 5
	case engine.IsRetryable(err):
		return exitTempFail
	default:
		return 1
	}
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ucm",
		Short: "ucm - Use Case Management",
		Long: `ucm deploys, updates and retires generative AI use cases.

Each use case is a configuration document plus a provisioned stack:
  - Configurations are validated per use case type before anything is deployed
  - Stacks are provisioned with CloudFormation
  - Metadata and configurations are kept in SQLite
  - Deleted use cases are retained until their expiry, then purged by gc`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (overrides database.path)")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "identity token (defaults to $UCM_TOKEN)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "json", "output format (json, yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(newMigrateCommand())
	rootCmd.AddCommand(newCreateCommand())
	rootCmd.AddCommand(newUpdateCommand())
	rootCmd.AddCommand(newDeleteCommand())
	rootCmd.AddCommand(newPurgeCommand())
	rootCmd.AddCommand(newListCommand())
	rootCmd.AddCommand(newGetCommand())
	rootCmd.AddCommand(newModelsCommand())
	rootCmd.AddCommand(newGCCommand())

	return rootCmd
}
