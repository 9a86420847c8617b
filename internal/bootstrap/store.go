// Package bootstrap wires configuration, storage and the HTTP server shared
// by the issuance and verification binaries.
package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ericfisherdev/credentialhub/internal/adapter/driven/postgres"
	"github.com/ericfisherdev/credentialhub/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/credentialhub/internal/config"
	"github.com/ericfisherdev/credentialhub/internal/domain/port/driven"
)

// Backend names reported in logs.
const (
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// Store is an opened, migrated credential store together with the pools
// that back it.
type Store struct {
	Credentials driven.CredentialStore
	Backend     string

	pools  map[string]*sql.DB
	ping   func(ctx context.Context) error
	closer func() error
}

// OpenStore connects to Postgres when a connection URL is configured and
// falls back to the SQLite file at cfg.DBPath otherwise. Migrations are
// applied before returning; they are idempotent and safe to run from every
// instance.
func OpenStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Store, error) {
	if dsn := cfg.PostgresURL(); dsn != "" {
		return openPostgres(ctx, cfg, dsn, logger)
	}
	return openSQLite(ctx, cfg, logger)
}

func openPostgres(ctx context.Context, cfg *config.Config, dsn string, logger *slog.Logger) (*Store, error) {
	pgCfg := postgres.DefaultConfig()
	pgCfg.URL = dsn
	pgCfg.MaxOpenConns = cfg.DBMaxOpenConns
	pgCfg.MaxIdleConns = cfg.DBMaxIdleConns
	pgCfg.ConnMaxLifetime = cfg.DBConnLifetime

	db, err := postgres.NewDB(ctx, pgCfg)
	if err != nil {
		return nil, err
	}
	if err := postgres.RunMigrations(db.Pool); err != nil {
		return nil, errors.Join(err, db.Close())
	}
	logger.Info("database opened", "backend", BackendPostgres)

	return &Store{
		Credentials: postgres.NewCredentialRepo(db),
		Backend:     BackendPostgres,
		pools:       map[string]*sql.DB{"postgres": db.Pool},
		ping:        db.Ping,
		closer:      db.Close,
	}, nil
}

func openSQLite(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Store, error) {
	db, err := sqlite.NewDB(ctx, cfg.DBPath)
	if err != nil {
		return nil, err
	}
	if err := sqlite.RunMigrations(db.Writer); err != nil {
		return nil, errors.Join(err, db.Close())
	}
	logger.Info("database opened", "backend", BackendSQLite, "path", cfg.DBPath)

	return &Store{
		Credentials: sqlite.NewCredentialRepo(db),
		Backend:     BackendSQLite,
		pools:       map[string]*sql.DB{"sqlite_writer": db.Writer, "sqlite_reader": db.Reader},
		ping:        db.Ping,
		closer:      db.Close,
	}, nil
}

// Pools returns the underlying connection pools keyed by a name suitable
// for a metrics label.
func (s *Store) Pools() map[string]*sql.DB {
	return s.pools
}

// Ping reports whether the backing database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.ping(ctx); err != nil {
		return fmt.Errorf("ping %s: %w", s.Backend, err)
	}
	return nil
}

// Close releases all pools.
func (s *Store) Close() error {
	return s.closer()
}
