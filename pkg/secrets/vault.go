// Package secrets keeps third-party API keys of use cases in HashiCorp Vault.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	vault "github.com/hashicorp/vault/api"

	"github.com/openfroyo/ucm/pkg/engine"
)

// apiKeyField is the key under which the API key is stored in the secret.
const apiKeyField = "api_key"

// Config configures the Vault secret store.
type Config struct {
	Address   string
	Token     string
	Namespace string

	// Mount is the KV v2 mount, "secret" by default.
	Mount string

	// Prefix is prepended to the use case id to build secret paths.
	Prefix string
}

// VaultStore implements engine.SecretStore on a KV v2 mount.
type VaultStore struct {
	kv     *vault.KVv2
	prefix string
}

var _ engine.SecretStore = (*VaultStore)(nil)

// NewVaultStore creates a secret store.
func NewVaultStore(cfg Config) (*VaultStore, error) {
	address := strings.TrimSpace(cfg.Address)
	if address == "" {
		return nil, fmt.Errorf("vault address is required")
	}

	apiCfg := vault.DefaultConfig()
	apiCfg.Address = address
	client, err := vault.NewClient(apiCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	if ns := strings.TrimSpace(cfg.Namespace); ns != "" {
		client.SetNamespace(ns)
	}
	if token := strings.TrimSpace(cfg.Token); token != "" {
		client.SetToken(token)
	}

	mount := strings.Trim(strings.TrimSpace(cfg.Mount), "/")
	if mount == "" {
		mount = "secret"
	}
	prefix := strings.Trim(strings.TrimSpace(cfg.Prefix), "/")
	if prefix == "" {
		prefix = "ucm/use-cases"
	}
	return &VaultStore{kv: client.KVv2(mount), prefix: prefix}, nil
}

func (s *VaultStore) path(useCaseID string) string {
	return s.prefix + "/" + useCaseID
}

// PutAPIKey writes a new version of the use case's API key.
func (s *VaultStore) PutAPIKey(ctx context.Context, useCaseID, apiKey string) error {
	if _, err := s.kv.Put(ctx, s.path(useCaseID), map[string]interface{}{apiKeyField: apiKey}); err != nil {
		return fmt.Errorf("failed to store api key for %s: %w", useCaseID, err)
	}
	return nil
}

// GetAPIKey reads the latest API key of a use case.
func (s *VaultStore) GetAPIKey(ctx context.Context, useCaseID string) (string, error) {
	secret, err := s.kv.Get(ctx, s.path(useCaseID))
	if errors.Is(err, vault.ErrSecretNotFound) {
		return "", engine.NewNotFoundError("api key not found", err).WithResource(useCaseID)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read api key for %s: %w", useCaseID, err)
	}
	key, ok := secret.Data[apiKeyField].(string)
	if !ok {
		return "", engine.NewNotFoundError("api key not found", nil).WithResource(useCaseID)
	}
	return key, nil
}

// DeleteAPIKey removes every version of the use case's API key.
func (s *VaultStore) DeleteAPIKey(ctx context.Context, useCaseID string) error {
	if err := s.kv.DeleteMetadata(ctx, s.path(useCaseID)); err != nil {
		return fmt.Errorf("failed to delete api key for %s: %w", useCaseID, err)
	}
	return nil
}
