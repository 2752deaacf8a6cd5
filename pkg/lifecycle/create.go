package lifecycle

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/openfroyo/ucm/pkg/engine"
	"github.com/openfroyo/ucm/pkg/telemetry"
	"github.com/openfroyo/ucm/pkg/usecase"
)

// CreateCommand deploys a new use case.
type CreateCommand struct {
	*env
}

// Execute validates the use case, stores the normalized configuration under a
// fresh record key, provisions its stack and records the deployment.
//
// On return uc carries the assigned ID, configuration record key and, when
// provisioning succeeded, the stack id.
func (c *CreateCommand) Execute(ctx context.Context, uc *usecase.UseCase) (engine.Status, error) {
	if uc.ID == "" {
		uc.ID = uuid.NewString()
	}
	return c.run(ctx, engine.OpCreate, uc.ID, string(uc.Type), func(ctx context.Context, log *telemetry.Logger) (engine.Status, error) {
		return c.create(ctx, log, uc)
	})
}

func (c *CreateCommand) create(ctx context.Context, log *telemetry.Logger, uc *usecase.UseCase) (engine.Status, error) {
	validator, err := c.deps.Validators.For(uc.Type)
	if err != nil {
		return "", err
	}
	if uc.APIKey != "" && c.deps.Secrets == nil {
		return "", engine.NewValidationError("API keys require a configured secret store")
	}

	uc.Parameters.Set(usecase.ParamUseCaseUUID, uc.ShortID())
	if c.settings.ConfigTableName != "" {
		uc.Parameters.Set(usecase.ParamUseCaseConfigTableName, c.settings.ConfigTableName)
	}
	key := uc.RotateConfigRecordKey()
	log = log.WithField("config_record_key", key)

	validated, err := validator.ValidateForCreate(ctx, uc)
	if err != nil {
		return "", err
	}

	if validated.APIKey != "" {
		if err := c.deps.Secrets.PutAPIKey(ctx, validated.ID, validated.APIKey); err != nil {
			return "", c.storeError("put_secret", err)
		}
	}
	if err := c.deps.Configs.PutConfig(ctx, key, validated.Config); err != nil {
		return "", c.storeError("put_config", err)
	}

	in := engine.StackInput{
		StackName:   validated.StackName(c.settings.StackNamePrefix),
		TemplateURL: validated.Type.TemplateURL(c.settings.TemplateBaseURL),
		Parameters:  validated.Parameters,
		RoleARN:     c.roleArn(validated.ExecutionRoleArn),
	}
	var stackID string
	err = c.provision(ctx, "create_stack", in.StackName, func(ctx context.Context) error {
		var err error
		stackID, err = c.deps.Provisioner.CreateStack(ctx, in)
		return err
	})
	if err != nil {
		log.WithError(err).WithField("stack_name", in.StackName).Error("stack creation failed")
		return engine.StatusFailed, nil
	}
	validated.StackID = stackID
	uc.StackID = stackID
	log = log.WithStackID(stackID)

	if err := c.deps.Records.PutUseCase(ctx, usecase.NewRecord(validated, c.deps.Now())); err != nil {
		log.WithError(err).Error("stack created but use case record could not be written")
		return "", c.storeError("put_use_case", fmt.Errorf("stack %s: %w", stackID, err))
	}

	log.Info("use case created")
	return engine.StatusSuccess, nil
}
