package sqlite

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// migrationsFS holds the credentials schema: one row per issued id, keyed by
// the id as primary key, with the canonical JSON payload, the issuing worker
// label and the ISO-8601 issuance timestamp.
//
//go:embed migrations/*.sql
var migrationsFS embed.FS

// RunMigrations creates the credentials table on the writer connection if it
// is missing. The primary key on id is what makes TryCreate's conditional
// insert atomic, so this must run before the repo serves traffic. Applied
// versions are tracked by golang-migrate and skipped on later starts.
func RunMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}
