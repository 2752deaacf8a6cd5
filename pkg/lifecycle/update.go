package lifecycle

import (
	"context"
	"fmt"

	"github.com/openfroyo/ucm/pkg/engine"
	"github.com/openfroyo/ucm/pkg/telemetry"
	"github.com/openfroyo/ucm/pkg/usecase"
)

// UpdateCommand applies a partial configuration change to a deployed use case.
type UpdateCommand struct {
	*env
}

// Execute merges uc over the stored configuration, updates the stack and
// moves the configuration to a new record key. The previous key is deleted
// only after the new one is written.
func (c *UpdateCommand) Execute(ctx context.Context, uc *usecase.UseCase) (engine.Status, error) {
	return c.run(ctx, engine.OpUpdate, uc.ID, string(uc.Type), func(ctx context.Context, log *telemetry.Logger) (engine.Status, error) {
		return c.update(ctx, log, uc)
	})
}

func (c *UpdateCommand) update(ctx context.Context, log *telemetry.Logger, uc *usecase.UseCase) (engine.Status, error) {
	rec, err := c.deps.Records.GetUseCase(ctx, uc.ID)
	if err != nil {
		return "", err
	}
	if rec.Deleted() {
		return "", engine.NewNotFoundError("use case is marked for deletion", nil).WithResource(uc.ID)
	}
	if uc.Type == "" {
		uc.Type = rec.UseCaseType
	}
	if uc.Type != rec.UseCaseType {
		return "", engine.NewValidationErrorf("Use case type cannot change from %s to %s", rec.UseCaseType, uc.Type)
	}
	if uc.APIKey != "" && c.deps.Secrets == nil {
		return "", engine.NewValidationError("API keys require a configured secret store")
	}

	validator, err := c.deps.Validators.For(uc.Type)
	if err != nil {
		return "", err
	}

	oldKey := rec.ConfigRecordKey
	uc.StackID = rec.StackID
	uc.Parameters.Set(usecase.ParamUseCaseUUID, uc.ShortID())
	if c.settings.ConfigTableName != "" {
		uc.Parameters.Set(usecase.ParamUseCaseConfigTableName, c.settings.ConfigTableName)
	}
	newKey := uc.RotateConfigRecordKey()
	log = log.WithStackID(rec.StackID).WithFields(map[string]interface{}{
		"old_config_record_key": oldKey,
		"config_record_key":     newKey,
	})

	validated, err := validator.ValidateForUpdate(ctx, uc, oldKey)
	if err != nil {
		return "", err
	}

	if validated.APIKey != "" {
		if err := c.deps.Secrets.PutAPIKey(ctx, validated.ID, validated.APIKey); err != nil {
			return "", c.storeError("put_secret", err)
		}
	}

	in := engine.StackUpdate{
		StackID:     rec.StackID,
		TemplateURL: validated.Type.TemplateURL(c.settings.TemplateBaseURL),
		Parameters:  validated.Parameters,
		RoleARN:     c.roleArn(validated.ExecutionRoleArn),
	}
	if err := c.provision(ctx, "update_stack", rec.StackID, func(ctx context.Context) error {
		return c.deps.Provisioner.UpdateStack(ctx, in)
	}); err != nil {
		log.WithError(err).Error("stack update failed")
		return engine.StatusFailed, nil
	}

	if validated.Name != "" {
		rec.Name = validated.Name
	}
	if validated.Description != "" {
		rec.Description = validated.Description
	}
	rec.ConfigRecordKey = newKey
	rec.UpdatedAt = c.deps.Now().UTC()
	if err := c.deps.Records.UpdateUseCase(ctx, rec); err != nil {
		return "", c.storeError("update_use_case", fmt.Errorf("stack %s updated: %w", rec.StackID, err))
	}

	if err := c.deps.Configs.PutConfig(ctx, newKey, validated.Config); err != nil {
		return "", c.storeError("put_config", err)
	}
	if err := c.deps.Configs.DeleteConfig(ctx, oldKey); err != nil && !engine.IsNotFound(err) {
		return "", c.storeError("delete_config", err)
	}

	log.Info("use case updated")
	return engine.StatusSuccess, nil
}
