package stores

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/openfroyo/ucm/pkg/engine"
	"github.com/openfroyo/ucm/pkg/usecase"
)

const modelInfoColumns = `use_case, model_provider, model_name, prompt, disambiguation_prompt,
		max_prompt_size, max_chat_message_size, allows_streaming`

// UpsertModelInfo inserts or replaces a model catalog entry.
func (s *SQLiteStore) UpsertModelInfo(ctx context.Context, info *usecase.ModelInfo) error {
	query := `
		INSERT INTO model_info (use_case, sort_key, model_provider, model_name, prompt,
			disambiguation_prompt, max_prompt_size, max_chat_message_size, allows_streaming, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(use_case, sort_key) DO UPDATE SET
			model_provider = excluded.model_provider,
			model_name = excluded.model_name,
			prompt = excluded.prompt,
			disambiguation_prompt = excluded.disambiguation_prompt,
			max_prompt_size = excluded.max_prompt_size,
			max_chat_message_size = excluded.max_chat_message_size,
			allows_streaming = excluded.allows_streaming,
			updated_at = excluded.updated_at
	`

	_, err := s.db.ExecContext(ctx, query,
		info.UseCase,
		info.SortKey(),
		info.ModelProvider,
		info.ModelName,
		info.Prompt,
		info.DisambiguationPrompt,
		info.MaxPromptSize,
		info.MaxChatMessageSize,
		info.AllowsStreaming,
		toUnix(s.now()),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert model info %s/%s: %w", info.UseCase, info.SortKey(), err)
	}
	return nil
}

// GetModelInfo looks up the catalog entry for a use case kind and
// "<provider>#<model>" sort key.
func (s *SQLiteStore) GetModelInfo(ctx context.Context, useCaseKind, sortKey string) (*usecase.ModelInfo, error) {
	query := `SELECT ` + modelInfoColumns + ` FROM model_info WHERE use_case = ? AND sort_key = ?`

	info, err := scanModelInfo(s.db.QueryRowContext(ctx, query, useCaseKind, sortKey))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, engine.NewNotFoundError("model info not found", nil).WithResource(useCaseKind + "/" + sortKey)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get model info: %w", err)
	}
	return info, nil
}

// ListModelInfo returns the whole catalog ordered by kind and sort key.
func (s *SQLiteStore) ListModelInfo(ctx context.Context) ([]*usecase.ModelInfo, error) {
	query := `SELECT ` + modelInfoColumns + ` FROM model_info ORDER BY use_case, sort_key`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list model info: %w", err)
	}
	defer rows.Close()

	out := []*usecase.ModelInfo{}
	for rows.Next() {
		info, err := scanModelInfo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan model info: %w", err)
		}
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating model info: %w", err)
	}
	return out, nil
}

func scanModelInfo(row scanner) (*usecase.ModelInfo, error) {
	var info usecase.ModelInfo
	err := row.Scan(
		&info.UseCase,
		&info.ModelProvider,
		&info.ModelName,
		&info.Prompt,
		&info.DisambiguationPrompt,
		&info.MaxPromptSize,
		&info.MaxChatMessageSize,
		&info.AllowsStreaming,
	)
	if err != nil {
		return nil, err
	}
	return &info, nil
}
