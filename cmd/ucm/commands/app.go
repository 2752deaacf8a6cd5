package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"

	"github.com/openfroyo/ucm/pkg/auth"
	"github.com/openfroyo/ucm/pkg/config"
	"github.com/openfroyo/ucm/pkg/engine"
	"github.com/openfroyo/ucm/pkg/identity"
	"github.com/openfroyo/ucm/pkg/lifecycle"
	"github.com/openfroyo/ucm/pkg/policy"
	"github.com/openfroyo/ucm/pkg/provisioner"
	"github.com/openfroyo/ucm/pkg/secrets"
	"github.com/openfroyo/ucm/pkg/stores"
	"github.com/openfroyo/ucm/pkg/telemetry"
	"github.com/openfroyo/ucm/pkg/validators"
)

// app holds everything a command needs. Commands that only touch the
// database use newStoreApp; lifecycle commands use newApp.
type app struct {
	settings  *config.Settings
	tel       *telemetry.Telemetry
	log       *telemetry.Logger
	store     *stores.SQLiteStore
	lifecycle *lifecycle.Commands
	verifier  *auth.Verifier
}

func loadSettings() (*config.Settings, error) {
	s, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		if err := config.Override(s, config.Settings{Database: config.DatabaseSettings{Path: dbPath}}); err != nil {
			return nil, err
		}
	}
	if verbose {
		s.Telemetry.Logging.Level = "debug"
	}
	return s, nil
}

// newStoreApp opens the database. Pending migrations are applied when
// migrateUp is set.
func newStoreApp(ctx context.Context, migrateUp bool) (*app, error) {
	s, err := loadSettings()
	if err != nil {
		return nil, err
	}

	tel, err := telemetry.NewTelemetry(&s.Telemetry)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	tel.StartMetricsServer()

	a := &app{settings: s, tel: tel, log: tel.Logger.NewComponentLogger("cli")}

	store, err := stores.NewSQLiteStore(stores.Config{
		Path:            s.Database.Path,
		MaxOpenConns:    s.Database.MaxOpenConns,
		MaxIdleConns:    s.Database.MaxIdleConns,
		ConnMaxLifetime: s.Database.ConnMaxLifetime,
	})
	if err != nil {
		a.close()
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		a.close()
		return nil, err
	}
	a.store = store

	if migrateUp {
		if err := store.Migrate(ctx); err != nil {
			a.close()
			return nil, err
		}
	}
	return a, nil
}

// newApp wires the lifecycle commands and their collaborators.
func newApp(ctx context.Context) (*app, error) {
	a, err := newStoreApp(ctx, true)
	if err != nil {
		return nil, err
	}
	s := a.settings

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(s.Provisioner.Region))
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	deps := lifecycle.Deps{
		Provisioner: provisioner.NewFromConfig(awsCfg, provisioner.Options{Tags: s.Provisioner.Tags}),
		Records:     a.store,
		Configs:     a.store,
		Validators: validators.NewFactory(validators.Deps{
			Configs:  a.store,
			Models:   a.store,
			Identity: identity.NewFromConfig(awsCfg),
			Logger:   a.tel.Logger,
		}),
		Telemetry: a.tel,
	}

	if s.Secrets.Enabled {
		vault, err := secrets.NewVaultStore(secrets.Config{
			Address:   s.Secrets.Address,
			Token:     s.Secrets.Token,
			Namespace: s.Secrets.Namespace,
			Mount:     s.Secrets.Mount,
			Prefix:    s.Secrets.Prefix,
		})
		if err != nil {
			a.close()
			return nil, err
		}
		deps.Secrets = vault
	}

	pe, err := policy.NewEngine(a.tel.Logger.NewComponentLogger("policy").Zerolog(), policy.Options{
		AdminGroups: s.Policy.AdminGroups,
	})
	if err != nil {
		a.close()
		return nil, err
	}
	if s.Policy.File != "" {
		if err := pe.LoadFile(ctx, s.Policy.File); err != nil {
			a.close()
			return nil, err
		}
		if s.Policy.Watch {
			if err := pe.Watch(ctx, s.Policy.File); err != nil {
				a.close()
				return nil, err
			}
		}
	}
	deps.Authorizer = pe

	if s.Auth.Enabled {
		v, err := auth.NewVerifier(ctx, auth.Config{
			IssuerURL:   s.Auth.IssuerURL,
			ClientID:    s.Auth.ClientID,
			GroupsClaim: s.Auth.GroupsClaim,
			TenantClaim: s.Auth.TenantClaim,
		})
		if err != nil {
			a.close()
			return nil, err
		}
		a.verifier = v
	}

	a.lifecycle = lifecycle.New(deps, lifecycle.Settings{
		StackNamePrefix:  s.Provisioner.StackNamePrefix,
		TemplateBaseURL:  s.Provisioner.TemplateBaseURL,
		ExecutionRoleArn: s.Provisioner.ExecutionRoleArn,
		ConfigTableName:  s.Provisioner.ConfigTableName,
		RetentionPeriod:  s.Lifecycle.Retention(),
		PageSize:         s.Lifecycle.PageSize,
	})
	return a, nil
}

// principal identifies the caller. With token verification disabled the
// local operator acts as an administrator.
func (a *app) principal(ctx context.Context) (engine.Principal, error) {
	if a.verifier == nil {
		subject := os.Getenv("USER")
		if subject == "" {
			subject = "local"
		}
		return engine.Principal{Subject: subject, Groups: a.settings.Policy.AdminGroups}, nil
	}

	raw := token
	if raw == "" {
		raw = os.Getenv("UCM_TOKEN")
	}
	claims, err := a.verifier.Verify(ctx, raw)
	if err != nil {
		return engine.Principal{}, err
	}
	return claims.Principal(), nil
}

// authorize resolves the caller and checks op against the access policy.
func (a *app) authorize(ctx context.Context, op engine.Operation) (engine.Principal, engine.Decision, error) {
	p, err := a.principal(ctx)
	if err != nil {
		return engine.Principal{}, engine.Decision{}, err
	}
	d, err := a.lifecycle.Authorize(ctx, p, op)
	if err != nil {
		return p, d, err
	}
	a.log.WithField("subject", p.Subject).WithOperation(string(op)).Debugf("authorized with %s view", d.View)
	return p, d, nil
}

func (a *app) close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.WithError(err).Warn("failed to close database")
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.tel.Shutdown(ctx); err != nil {
		a.log.WithError(err).Debug("telemetry shutdown")
	}
}
