package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ericfisherdev/credentialhub/internal/domain/model"
	"github.com/ericfisherdev/credentialhub/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CredentialStore = (*CredentialRepo)(nil)

// CredentialRepo is the SQLite implementation of the CredentialStore port interface.
type CredentialRepo struct {
	db *DB
}

// NewCredentialRepo creates a new CredentialRepo backed by the given DB.
func NewCredentialRepo(db *DB) *CredentialRepo {
	return &CredentialRepo{db: db}
}

// Exists reports whether a credential with the given id has been committed.
func (r *CredentialRepo) Exists(ctx context.Context, id string) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM credentials WHERE id = ?)`

	var exists bool
	if err := r.db.Reader.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check credential %s: %w", id, err)
	}
	return exists, nil
}

// TryCreate inserts the record unless the id is already taken. The primary
// key conflict is resolved inside the INSERT itself, so there is no window
// between the check and the write.
func (r *CredentialRepo) TryCreate(ctx context.Context, record model.CredentialRecord) (bool, error) {
	const query = `
		INSERT INTO credentials (id, data, worker_id, timestamp)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`

	payload, err := json.Marshal(record.Credential)
	if err != nil {
		return false, fmt.Errorf("marshal credential %s: %w", record.ID, err)
	}

	result, err := r.db.Writer.ExecContext(ctx, query,
		record.ID,
		string(payload),
		record.IssuedBy,
		model.FormatTimestamp(record.IssuedAt),
	)
	if err != nil {
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
	const query = `SELECT id, data, worker_id, timestamp FROM credentials WHERE id = ?`

	record, err := scanCredentialRecord(r.db.Reader.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get credential %s: %w", id, err)
	}

	return record, nil
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanCredentialRecord(s scanner) (*model.CredentialRecord, error) {
	var record model.CredentialRecord
	var data, issuedAt string

	if err := s.Scan(&record.ID, &data, &record.IssuedBy, &issuedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(data), &record.Credential); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}

	var err error
	record.IssuedAt, err = model.ParseTimestamp(issuedAt)
	if err != nil {
		return nil, fmt.Errorf("parse timestamp: %w", err)
	}

	return &record, nil
}
