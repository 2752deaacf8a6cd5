// Package config loads the ucm application settings.
//
// Settings come from three layers, later layers winning:
//
//  1. Defaults, overlaid with the production profile when environment is
//     "production".
//  2. A YAML file: --config, ./ucm.yaml or $HOME/.ucm/ucm.yaml.
//  3. UCM_* environment variables, with "." in a key replaced by "_"
//     (UCM_DATABASE_PATH, UCM_POLICY_ADMIN_GROUPS=admin,ops).
//
// The result is checked with struct tags before it is returned.
package config

import (
	"time"

	"github.com/openfroyo/ucm/pkg/telemetry"
)

// Settings is the complete application configuration.
type Settings struct {
	Environment string `mapstructure:"environment" validate:"required,oneof=development staging production"`

	Database     DatabaseSettings     `mapstructure:"database"`
	Provisioner  ProvisionerSettings  `mapstructure:"provisioner"`
	Identity     IdentitySettings     `mapstructure:"identity"`
	Auth         AuthSettings         `mapstructure:"auth"`
	Secrets      SecretsSettings      `mapstructure:"secrets"`
	Policy       PolicySettings       `mapstructure:"policy"`
	Lifecycle    LifecycleSettings    `mapstructure:"lifecycle"`
	ModelCatalog ModelCatalogSettings `mapstructure:"model_catalog"`
	Telemetry    telemetry.Config     `mapstructure:"telemetry"`
}

// DatabaseSettings locate the SQLite database holding records, configurations
// and model info.
type DatabaseSettings struct {
	Path            string        `mapstructure:"path" validate:"required"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"gte=0"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// ProvisionerSettings configure the CloudFormation provisioning engine.
type ProvisionerSettings struct {
	Region           string            `mapstructure:"region" validate:"required"`
	TemplateBaseURL  string            `mapstructure:"template_base_url" validate:"required,url"`
	StackNamePrefix  string            `mapstructure:"stack_name_prefix" validate:"required,max=24"`
	ExecutionRoleArn string            `mapstructure:"execution_role_arn" validate:"omitempty,startswith=arn:"`
	ConfigTableName  string            `mapstructure:"config_table_name" validate:"required"`
	Tags             map[string]string `mapstructure:"tags"`
}

// IdentitySettings configure the deployment-wide user pool.
type IdentitySettings struct {
	UserPoolID string `mapstructure:"user_pool_id"`
}

// AuthSettings configure identity-token verification.
type AuthSettings struct {
	Enabled     bool   `mapstructure:"enabled"`
	IssuerURL   string `mapstructure:"issuer_url" validate:"required_if=Enabled true,omitempty,url"`
	ClientID    string `mapstructure:"client_id" validate:"required_if=Enabled true"`
	GroupsClaim string `mapstructure:"groups_claim"`
	TenantClaim string `mapstructure:"tenant_claim"`
}

// SecretsSettings configure the Vault secret store for third-party API keys.
type SecretsSettings struct {
	Enabled   bool   `mapstructure:"enabled"`
	Address   string `mapstructure:"address" validate:"required_if=Enabled true,omitempty,url"`
	Token     string `mapstructure:"token"`
	Namespace string `mapstructure:"namespace"`
	Mount     string `mapstructure:"mount"`
	Prefix    string `mapstructure:"prefix"`
}

// PolicySettings configure access decisions.
type PolicySettings struct {
	AdminGroups []string `mapstructure:"admin_groups" validate:"min=1,dive,required"`

	// File replaces the built-in policy with a rego module.
	File string `mapstructure:"file"`

	// Watch reloads File when it changes.
	Watch bool `mapstructure:"watch"`
}

// LifecycleSettings tune the lifecycle commands.
type LifecycleSettings struct {
	RetentionDays int `mapstructure:"retention_days" validate:"min=1"`
	PageSize      int `mapstructure:"page_size" validate:"min=1,max=100"`
}

// Retention is the soft-delete retention period.
func (l LifecycleSettings) Retention() time.Duration {
	return time.Duration(l.RetentionDays) * 24 * time.Hour
}

// ModelCatalogSettings locate the model catalog.
type ModelCatalogSettings struct {
	File  string `mapstructure:"file"`
	Watch bool   `mapstructure:"watch"`
}

// Defaults returns the settings used for every field the sources leave unset.
func Defaults() *Settings {
	return &Settings{
		Environment: "development",
		Database: DatabaseSettings{
			Path:            "ucm.db",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Provisioner: ProvisionerSettings{
			Region:          "us-east-1",
			TemplateBaseURL: "https://solutions-templates.s3.amazonaws.com/ucm/latest",
			StackNamePrefix: "ucm",
			ConfigTableName: "UseCaseConfig",
			Tags:            map[string]string{},
		},
		Auth: AuthSettings{
			GroupsClaim: "cognito:groups",
			TenantClaim: "custom:tenant_id",
		},
		Secrets: SecretsSettings{
			Mount:  "secret",
			Prefix: "ucm/use-cases",
		},
		Policy: PolicySettings{
			AdminGroups: []string{"admin"},
		},
		Lifecycle: LifecycleSettings{
			RetentionDays: 90,
			PageSize:      10,
		},
		Telemetry: *telemetry.DefaultConfig(),
	}
}

// productionProfile holds the fields that differ in production.
func productionProfile() *Settings {
	return &Settings{
		Auth: AuthSettings{Enabled: true},
		Secrets: SecretsSettings{Enabled: true},
		Telemetry: *telemetry.ProductionConfig(),
	}
}
