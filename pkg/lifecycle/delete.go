package lifecycle

import (
	"context"

	"github.com/openfroyo/ucm/pkg/engine"
	"github.com/openfroyo/ucm/pkg/telemetry"
)

// DeleteCommand tears down a use case stack and soft-deletes its records.
type DeleteCommand struct {
	*env
}

// Execute deletes the stack of useCaseID. When the provisioning engine
// accepts the request, the metadata row and the configuration are marked to
// expire after the retention period; they remain readable until then.
func (c *DeleteCommand) Execute(ctx context.Context, useCaseID string) (engine.Status, error) {
	return c.run(ctx, engine.OpDelete, useCaseID, "", func(ctx context.Context, log *telemetry.Logger) (engine.Status, error) {
		rec, err := c.deps.Records.GetUseCase(ctx, useCaseID)
		if err != nil {
			return "", err
		}
		log = log.WithStackID(rec.StackID)

		if err := c.provision(ctx, "delete_stack", rec.StackID, func(ctx context.Context) error {
			return c.deps.Provisioner.DeleteStack(ctx, rec.StackID, c.roleArn(""))
		}); err != nil {
			log.WithError(err).Error("stack deletion failed")
			return engine.StatusFailed, nil
		}

		expiresAt := c.deps.Now().UTC().Add(c.settings.RetentionPeriod)
		if err := c.deps.Records.MarkUseCaseForDeletion(ctx, useCaseID, expiresAt); err != nil {
			return "", c.storeError("mark_use_case", err)
		}
		if err := c.deps.Configs.MarkConfigForDeletion(ctx, rec.ConfigRecordKey, expiresAt); err != nil {
			return "", c.storeError("mark_config", err)
		}

		log.WithField("expires_at", expiresAt).Info("use case deleted")
		return engine.StatusSuccess, nil
	})
}
