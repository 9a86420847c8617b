package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/ericfisherdev/credentialhub/internal/domain/model"
	"github.com/ericfisherdev/credentialhub/internal/domain/port/driven"
)

const uniqueViolationCode = "23505"

// Compile-time interface satisfaction check.
var _ driven.CredentialStore = (*CredentialRepo)(nil)

// CredentialRepo is the PostgreSQL implementation of the CredentialStore port interface.
type CredentialRepo struct {
	db *sql.DB
}

// NewCredentialRepo creates a new CredentialRepo backed by the given pool.
func NewCredentialRepo(db *DB) *CredentialRepo {
	return &CredentialRepo{db: db.Pool}
}

// Exists reports whether a credential with the given id has been committed.
func (r *CredentialRepo) Exists(ctx context.Context, id string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM credentials WHERE id = $1)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check credential %s: %w", id, err)
	}
	return exists, nil
}

// TryCreate inserts the record unless the id is already taken. The primary
// key arbitrates concurrent inserts; the loser sees zero affected rows.
func (r *CredentialRepo) TryCreate(ctx context.Context, record model.CredentialRecord) (bool, error) {
	const query = `
		INSERT INTO credentials (id, data, worker_id, timestamp)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO NOTHING
	`

	payload, err := json.Marshal(record.Credential)
	if err != nil {
		return false, fmt.Errorf("marshal credential %s: %w", record.ID, err)
	}

	result, err := r.db.ExecContext(ctx, query,
		record.ID,
		string(payload),
		record.IssuedBy,
		model.FormatTimestamp(record.IssuedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("create credential %s: %w", record.ID, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("check rows affected: %w", err)
	}

	return rows == 1, nil
}

// Get retrieves a credential record by id. Returns nil, nil if it does not exist.
func (r *CredentialRepo) Get(ctx context.Context, id string) (*model.CredentialRecord, error) {
	const query = `SELECT id, data, worker_id, timestamp FROM credentials WHERE id = $1`

	var record model.CredentialRecord
	var data, issuedAt string
	err := r.db.QueryRowContext(ctx, query, id).Scan(&record.ID, &data, &record.IssuedBy, &issuedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get credential %s: %w", id, err)
	}

	if err := json.Unmarshal([]byte(data), &record.Credential); err != nil {
		return nil, fmt.Errorf("decode credential %s: %w", id, err)
	}
	record.IssuedAt, err = model.ParseTimestamp(issuedAt)
	if err != nil {
		return nil, fmt.Errorf("parse timestamp for credential %s: %w", id, err)
	}

	return &record, nil
}

// isUniqueViolation reports whether err is a Postgres unique_violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolationCode
	}
	return false
}
