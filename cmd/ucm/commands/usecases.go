package commands

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/openfroyo/ucm/pkg/engine"
	"github.com/openfroyo/ucm/pkg/usecase"
)

type deployFlags struct {
	file        string
	name        string
	description string
	params      []string
	roleArn     string
	apiKeyEnv   string
}

func (f *deployFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.file, "file", "f", "", "configuration document (JSON or YAML, - for stdin)")
	cmd.Flags().StringVar(&f.name, "name", "", "use case name (defaults to UseCaseName)")
	cmd.Flags().StringVar(&f.description, "description", "", "use case description (defaults to UseCaseDescription)")
	cmd.Flags().StringArrayVarP(&f.params, "param", "p", nil, "deployment parameter KEY=VALUE (repeatable)")
	cmd.Flags().StringVar(&f.roleArn, "role-arn", "", "execution role of the provisioning engine")
	cmd.Flags().StringVar(&f.apiKeyEnv, "api-key-env", "", "environment variable holding a third-party API key")
}

// useCase builds the aggregate from the flags and the document.
func (f *deployFlags) useCase(cmd *cobra.Command, id, typeName string, p engine.Principal) (*usecase.UseCase, error) {
	cfg := usecase.Config{}
	if f.file != "" {
		doc, err := readDocument(f.file, cmd.InOrStdin())
		if err != nil {
			return nil, err
		}
		cfg = doc
	}

	params, err := parseParams(f.params)
	if err != nil {
		return nil, err
	}

	if typeName == "" {
		typeName = cfg.String(usecase.KeyUseCaseType)
	}
	var typ usecase.Type
	if typeName != "" {
		if typ, err = usecase.ParseType(typeName); err != nil {
			return nil, engine.NewValidationError(err.Error())
		}
	}

	name := f.name
	if name == "" {
		name = cfg.String(usecase.KeyUseCaseName)
	}
	description := f.description
	if description == "" {
		description = cfg.String(usecase.KeyUseCaseDescription)
	}

	uc := &usecase.UseCase{
		ID:               id,
		Type:             typ,
		Name:             name,
		Description:      description,
		UserID:           p.Subject,
		TenantID:         p.TenantID,
		Parameters:       params,
		Config:           cfg,
		ExecutionRoleArn: f.roleArn,
	}

	if f.apiKeyEnv != "" {
		key := os.Getenv(f.apiKeyEnv)
		if key == "" {
			return nil, engine.NewValidationErrorf("environment variable %s is empty", f.apiKeyEnv)
		}
		uc.APIKey = key
	}
	return uc, nil
}

// report prints the result and turns a soft failure into an exit status.
func report(cmd *cobra.Command, op engine.Operation, uc *usecase.UseCase, status engine.Status) error {
	if err := writeOutput(cmd.OutOrStdout(), commandResult{
		UseCaseID: uc.ID,
		StackID:   uc.StackID,
		Status:    status,
	}); err != nil {
		return err
	}
	if !status.Succeeded() {
		return &failedError{op: op, id: uc.ID}
	}
	return nil
}

func newCreateCommand() *cobra.Command {
	var (
		flags    deployFlags
		typeName string
		id       string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Deploy a new use case",
		Long: `Validate a configuration document, store it and provision the stack of a
new use case.

The type, name and description default to the UseCaseType, UseCaseName and
UseCaseDescription keys of the document.`,
		Example: `  # Deploy a text use case
  ucm create -f chat.yaml

  # Deploy with an explicit id and extra stack parameters
  ucm create -f chat.yaml --id 7f0c... -p DefaultUserEmail=ops@example.com`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			p, _, err := a.authorize(ctx, engine.OpCreate)
			if err != nil {
				return err
			}
			uc, err := flags.useCase(cmd, id, typeName, p)
			if err != nil {
				return err
			}
			if uc.Type == "" {
				return engine.NewValidationError("use case type is required (--type or UseCaseType)")
			}

			log.Info().Str("type", string(uc.Type)).Str("name", uc.Name).Msg("Creating use case")
			status, err := a.lifecycle.Create.Execute(ctx, uc)
			if err != nil {
				return err
			}
			return report(cmd, engine.OpCreate, uc, status)
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&typeName, "type", "t", "", "use case type (Text, Agent, AgentBuilder, MCPServer, Workflow)")
	cmd.Flags().StringVar(&id, "id", "", "use case id (generated when empty)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func newUpdateCommand() *cobra.Command {
	var flags deployFlags

	cmd := &cobra.Command{
		Use:   "update <use-case-id>",
		Short: "Update a deployed use case",
		Long: `Merge a partial configuration document over the stored configuration,
validate the result and update the stack.

Keys set to null are removed. Arrays replace the stored array.`,
		Example: `  # Change the prompt of a use case
  ucm update 7f0c... -f prompt-patch.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			p, _, err := a.authorize(ctx, engine.OpUpdate)
			if err != nil {
				return err
			}
			uc, err := flags.useCase(cmd, args[0], "", p)
			if err != nil {
				return err
			}

			log.Info().Str("use_case_id", uc.ID).Msg("Updating use case")
			status, err := a.lifecycle.Update.Execute(ctx, uc)
			if err != nil {
				return err
			}
			return report(cmd, engine.OpUpdate, uc, status)
		},
	}

	flags.register(cmd)
	return cmd
}

func newDeleteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <use-case-id>",
		Short: "Delete a use case, keeping its records until they expire",
		Long: `Delete the stack of a use case and mark its metadata and configuration
for expiry. The records stay readable for lifecycle.retention_days and are
then removed by gc.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemoval(cmd, engine.OpDelete, args[0])
		},
	}
	return cmd
}

func newPurgeCommand() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "purge <use-case-id>",
		Short: "Permanently delete a use case",
		Long: `Delete the stack of a use case and remove its metadata, configuration
and stored API key immediately. This cannot be undone.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("refusing to purge %s without --yes", args[0])
			}
			return runRemoval(cmd, engine.OpPermanentlyDelete, args[0])
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm permanent deletion")
	return cmd
}

func runRemoval(cmd *cobra.Command, op engine.Operation, id string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if _, _, err := a.authorize(ctx, op); err != nil {
		return err
	}

	log.Info().Str("use_case_id", id).Str("operation", string(op)).Msg("Removing use case")
	var status engine.Status
	if op == engine.OpPermanentlyDelete {
		status, err = a.lifecycle.PermanentlyDelete.Execute(ctx, id)
	} else {
		status, err = a.lifecycle.Delete.Execute(ctx, id)
	}
	if err != nil {
		return err
	}
	return report(cmd, op, &usecase.UseCase{ID: id}, status)
}
