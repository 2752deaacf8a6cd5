package commands

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/openfroyo/ucm/pkg/modelinfo"
	"github.com/openfroyo/ucm/pkg/usecase"
)

func newModelsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "Manage the model catalog",
	}
	cmd.AddCommand(newModelsImportCommand())
	cmd.AddCommand(newModelsListCommand())
	return cmd
}

func newModelsImportCommand() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "import [catalog.yaml]",
		Short: "Import a model catalog",
		Long: `Import model defaults (prompt templates, size limits, streaming support)
from a YAML catalog. Entries are upserted; existing entries not in the
catalog are kept.

Without an argument the file configured as model_catalog.file is used.`,
		Example: `  # Import once
  ucm models import models.yaml

  # Keep re-importing on every change
  ucm models import models.yaml --watch`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newStoreApp(ctx, true)
			if err != nil {
				return err
			}
			defer a.close()

			path := a.settings.ModelCatalog.File
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				return cmd.Usage()
			}

			catalog, err := modelinfo.Load(path)
			if err != nil {
				return err
			}
			n, err := modelinfo.Import(ctx, a.store, catalog)
			if err != nil {
				return err
			}
			log.Info().Int("models", n).Str("path", path).Msg("Imported model catalog")
			if err := writeOutput(cmd.OutOrStdout(), map[string]int{"imported": n}); err != nil {
				return err
			}

			if watch || (len(args) == 0 && a.settings.ModelCatalog.Watch) {
				return modelinfo.Watch(ctx, path, a.store, a.tel.Logger)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "re-import whenever the catalog changes")
	return cmd
}

func newModelsListCommand() *cobra.Command {
	var useCase string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List imported model defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newStoreApp(ctx, true)
			if err != nil {
				return err
			}
			defer a.close()

			models, err := a.store.ListModelInfo(ctx)
			if err != nil {
				return err
			}
			selected := make([]*usecase.ModelInfo, 0, len(models))
			for _, m := range models {
				if useCase == "" || m.UseCase == useCase {
					selected = append(selected, m)
				}
			}
			return writeOutput(cmd.OutOrStdout(), selected)
		},
	}

	cmd.Flags().StringVar(&useCase, "use-case", "", "only list one use case kind (Chat, RAGChat)")
	return cmd
}
