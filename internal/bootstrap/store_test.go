package bootstrap

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/credentialhub/internal/config"
	"github.com/ericfisherdev/credentialhub/internal/domain/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOpenStore_SQLiteFallback(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{DBPath: filepath.Join(t.TempDir(), "credentials.db")}

	store, err := OpenStore(ctx, cfg, discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	assert.Equal(t, BackendSQLite, store.Backend)
	assert.NoError(t, store.Ping(ctx))
	assert.Contains(t, store.Pools(), "sqlite_writer")
	assert.Contains(t, store.Pools(), "sqlite_reader")

	rec := model.NewCredentialRecord(
		model.Credential{ID: "abc123", Name: "John Doe", Role: "Engineer"},
		"worker-1",
		time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC),
	)
	created, err := store.Credentials.TryCreate(ctx, rec)
	require.NoError(t, err)
	assert.True(t, created)
}

func TestOpenStore_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{DBPath: filepath.Join(t.TempDir(), "credentials.db")}

	first, err := OpenStore(ctx, cfg, discardLogger())
	require.NoError(t, err)
	rec := model.NewCredentialRecord(model.Credential{ID: "1", Name: "A", Role: "B"}, "worker-1", time.Now())
	_, err = first.Credentials.TryCreate(ctx, rec)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := OpenStore(ctx, cfg, discardLogger())
	require.NoError(t, err, "migrations must be re-runnable")
	t.Cleanup(func() { _ = second.Close() })

	exists, err := second.Credentials.Exists(ctx, "1")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestNewRegistry_RegistersPoolCollectors(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{DBPath: filepath.Join(t.TempDir(), "credentials.db")}

	store, err := OpenStore(ctx, cfg, discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	families, err := NewRegistry(store).Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	assert.True(t, names["go_goroutines"])
	assert.True(t, names["go_sql_open_connections"])
}
