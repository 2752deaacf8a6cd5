package stores

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/openfroyo/ucm/pkg/engine"
	"github.com/openfroyo/ucm/pkg/merge"
	"github.com/openfroyo/ucm/pkg/usecase"
)

// PutConfig stores a configuration document. Record keys are write-once; a
// second write under the same key is a conflict.
func (s *SQLiteStore) PutConfig(ctx context.Context, key string, cfg usecase.Config) error {
	if cfg == nil {
		cfg = usecase.Config{}
	}
	doc, err := cfg.JSON()
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO use_case_configs (record_key, config, created_at) VALUES (?, ?, ?)`,
		key, string(doc), toUnix(s.now()))
	if isUniqueViolation(err) {
		return engine.NewConflictError("configuration record key already used", err).
			WithCode(engine.ErrCodeAlreadyExists).WithResource(key)
	}
	if err != nil {
		return fmt.Errorf("failed to store configuration: %w", err)
	}
	return nil
}

// GetConfig retrieves a configuration document, including documents marked
// for deletion.
func (s *SQLiteStore) GetConfig(ctx context.Context, key string) (usecase.Config, error) {
	var doc string
	err := s.db.QueryRowContext(ctx,
		`SELECT config FROM use_case_configs WHERE record_key = ?`, key).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, engine.NewNotFoundError("configuration not found", nil).WithResource(key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get configuration: %w", err)
	}

	cfg, err := usecase.ParseConfig([]byte(doc))
	if err != nil {
		return nil, fmt.Errorf("configuration %s: %w", key, err)
	}
	return cfg, nil
}

// GetMergedConfig reads the document stored under key and merges patch over
// it under policy. The stored document is not modified.
func (s *SQLiteStore) GetMergedConfig(ctx context.Context, key string, patch usecase.Config, policy *merge.Policy) (usecase.Config, error) {
	prev, err := s.GetConfig(ctx, key)
	if err != nil {
		return nil, err
	}
	return usecase.Config(merge.Merge(prev, patch, policy)), nil
}

// DeleteConfig removes a configuration document.
func (s *SQLiteStore) DeleteConfig(ctx context.Context, key string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM use_case_configs WHERE record_key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete configuration: %w", err)
	}
	return requireRow(result, "configuration", key)
}

// MarkConfigForDeletion sets the expiry of a configuration document.
func (s *SQLiteStore) MarkConfigForDeletion(ctx context.Context, key string, expiresAt time.Time) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE use_case_configs SET expires_at = ? WHERE record_key = ?`, toUnix(expiresAt), key)
	if err != nil {
		return fmt.Errorf("failed to mark configuration for deletion: %w", err)
	}
	return requireRow(result, "configuration", key)
}
