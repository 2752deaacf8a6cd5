package stores

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openfroyo/ucm/pkg/engine"
	"github.com/openfroyo/ucm/pkg/usecase"
)

const useCaseColumns = `use_case_id, use_case_type, name, description, created_by, tenant_id,
		stack_id, config_record_key, created_at, updated_at, expires_at`

// PutUseCase inserts the metadata row of a newly provisioned use case.
func (s *SQLiteStore) PutUseCase(ctx context.Context, rec *usecase.Record) error {
	query := `INSERT INTO use_cases (` + useCaseColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		rec.UseCaseID,
		string(rec.UseCaseType),
		rec.Name,
		rec.Description,
		rec.CreatedBy,
		rec.TenantID,
		rec.StackID,
		rec.ConfigRecordKey,
		toUnix(rec.CreatedAt),
		toUnix(rec.UpdatedAt),
		toNullUnix(rec.ExpiresAt),
	)
	if isUniqueViolation(err) {
		return engine.NewConflictError("use case already exists", err).
			WithCode(engine.ErrCodeAlreadyExists).WithResource(rec.UseCaseID)
	}
	if err != nil {
		return fmt.Errorf("failed to create use case: %w", err)
	}
	return nil
}

// GetUseCase retrieves a use case row, including rows marked for deletion.
func (s *SQLiteStore) GetUseCase(ctx context.Context, id string) (*usecase.Record, error) {
	query := `SELECT ` + useCaseColumns + ` FROM use_cases WHERE use_case_id = ?`

	rec, err := scanUseCase(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, engine.NewNotFoundError("use case not found", nil).WithResource(id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get use case: %w", err)
	}
	return rec, nil
}

// UpdateUseCase overwrites the mutable columns of a use case row.
func (s *SQLiteStore) UpdateUseCase(ctx context.Context, rec *usecase.Record) error {
	query := `
		UPDATE use_cases
		SET name = ?, description = ?, stack_id = ?, config_record_key = ?, updated_at = ?
		WHERE use_case_id = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		rec.Name,
		rec.Description,
		rec.StackID,
		rec.ConfigRecordKey,
		toUnix(rec.UpdatedAt),
		rec.UseCaseID,
	)
	if err != nil {
		return fmt.Errorf("failed to update use case: %w", err)
	}
	return requireRow(result, "use case", rec.UseCaseID)
}

// DeleteUseCase removes a use case row.
func (s *SQLiteStore) DeleteUseCase(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM use_cases WHERE use_case_id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete use case: %w", err)
	}
	return requireRow(result, "use case", id)
}

// MarkUseCaseForDeletion sets the expiry of a use case row.
func (s *SQLiteStore) MarkUseCaseForDeletion(ctx context.Context, id string, expiresAt time.Time) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE use_cases SET expires_at = ?, updated_at = ? WHERE use_case_id = ?`,
		toUnix(expiresAt), toUnix(s.now()), id)
	if err != nil {
		return fmt.Errorf("failed to mark use case for deletion: %w", err)
	}
	return requireRow(result, "use case", id)
}

// ListUseCases returns every row in scope. Ordering and pagination are left
// to the caller.
func (s *SQLiteStore) ListUseCases(ctx context.Context, scope engine.ListScope) ([]*usecase.Record, error) {
	var (
		where []string
		args  []any
	)
	if scope.CreatedBy != "" {
		where = append(where, "created_by = ?")
		args = append(args, scope.CreatedBy)
	}
	if scope.TenantID != "" {
		where = append(where, "tenant_id = ?")
		args = append(args, scope.TenantID)
	}
	if !scope.IncludeDeleted {
		where = append(where, "expires_at IS NULL")
	}

	query := `SELECT ` + useCaseColumns + ` FROM use_cases`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list use cases: %w", err)
	}
	defer rows.Close()

	records := []*usecase.Record{}
	for rows.Next() {
		rec, err := scanUseCase(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan use case: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating use cases: %w", err)
	}
	return records, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUseCase(row scanner) (*usecase.Record, error) {
	var (
		rec                  usecase.Record
		typ                  string
		createdAt, updatedAt int64
		expiresAt            sql.NullInt64
	)
	err := row.Scan(
		&rec.UseCaseID,
		&typ,
		&rec.Name,
		&rec.Description,
		&rec.CreatedBy,
		&rec.TenantID,
		&rec.StackID,
		&rec.ConfigRecordKey,
		&createdAt,
		&updatedAt,
		&expiresAt,
	)
	if err != nil {
		return nil, err
	}
	rec.UseCaseType = usecase.Type(typ)
	rec.CreatedAt = fromUnix(createdAt)
	rec.UpdatedAt = fromUnix(updatedAt)
	rec.ExpiresAt = fromNullUnix(expiresAt)
	return &rec, nil
}
