package lifecycle

import (
	"context"

	"github.com/openfroyo/ucm/pkg/engine"
	"github.com/openfroyo/ucm/pkg/telemetry"
)

// PermanentlyDeleteCommand removes a use case and every record it owns.
type PermanentlyDeleteCommand struct {
	*env
}

// Execute deletes the stack, then the configuration, the metadata row and
// the stored API key. A stack that no longer exists is not a failure, so the
// command can finish the cleanup of a use case that was already deleted.
// Records already gone are tolerated for the same reason.
func (c *PermanentlyDeleteCommand) Execute(ctx context.Context, useCaseID string) (engine.Status, error) {
	return c.run(ctx, engine.OpPermanentlyDelete, useCaseID, "", func(ctx context.Context, log *telemetry.Logger) (engine.Status, error) {
		rec, err := c.deps.Records.GetUseCase(ctx, useCaseID)
		if err != nil {
			return "", err
		}
		log = log.WithStackID(rec.StackID)

		err = c.provision(ctx, "delete_stack", rec.StackID, func(ctx context.Context) error {
			return c.deps.Provisioner.DeleteStack(ctx, rec.StackID, c.roleArn(""))
		})
		switch {
		case engine.IsNotFound(err):
			log.Debug("stack already removed")
		case err != nil:
			log.WithError(err).Error("stack deletion failed")
			return engine.StatusFailed, nil
		}

		if err := c.deps.Configs.DeleteConfig(ctx, rec.ConfigRecordKey); err != nil && !engine.IsNotFound(err) {
			return "", c.storeError("delete_config", err)
		}
		if err := c.deps.Records.DeleteUseCase(ctx, useCaseID); err != nil && !engine.IsNotFound(err) {
			return "", c.storeError("delete_use_case", err)
		}
		if c.deps.Secrets != nil {
			if err := c.deps.Secrets.DeleteAPIKey(ctx, useCaseID); err != nil && !engine.IsNotFound(err) {
				return "", c.storeError("delete_secret", err)
			}
		}

		log.Info("use case permanently deleted")
		return engine.StatusSuccess, nil
	})
}
