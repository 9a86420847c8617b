package sqlite

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/ericfisherdev/credentialhub/internal/domain/model"
)

var testIssuedAt = time.Date(2026, 2, 10, 12, 0, 0, 123_000_000, time.UTC)

func makeRecord(id, name, role, workerID string) model.CredentialRecord {
	return model.NewCredentialRecord(model.Credential{ID: id, Name: name, Role: role}, workerID, testIssuedAt)
}

func TestCredentialRepo_TryCreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db)
	ctx := context.Background()

	created, err := repo.TryCreate(ctx, makeRecord("test789", "Bob Johnson", "Developer", "worker-2"))
	require.NoError(t, err)
	assert.True(t, created)

	got, err := repo.Get(ctx, "test789")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "test789", got.ID)
	assert.Equal(t, "worker-2", got.IssuedBy)
	assert.Equal(t, testIssuedAt, got.IssuedAt)
	assert.Equal(t, model.Credential{ID: "test789", Name: "Bob Johnson", Role: "Developer"}, got.Credential)
}

func TestCredentialRepo_TryCreate_Duplicate(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db)
	ctx := context.Background()

	created, err := repo.TryCreate(ctx, makeRecord("test456", "Jane Smith", "Manager", "worker-1"))
	require.NoError(t, err)
	require.True(t, created)

	second := model.NewCredentialRecord(
		model.Credential{ID: "test456", Name: "Someone Else", Role: "Intern"},
		"worker-9",
		testIssuedAt.Add(time.Hour),
	)
	created, err = repo.TryCreate(ctx, second)
	require.NoError(t, err, "duplicate create is an outcome, not an error")
	assert.False(t, created)

	got, err := repo.Get(ctx, "test456")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Jane Smith", got.Credential.Name, "first writer must be kept")
	assert.Equal(t, "worker-1", got.IssuedBy)
	assert.Equal(t, testIssuedAt, got.IssuedAt)
}

func TestCredentialRepo_Exists(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db)
	ctx := context.Background()

	exists, err := repo.Exists(ctx, "test123")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = repo.TryCreate(ctx, makeRecord("test123", "John Doe", "Engineer", "worker-1"))
	require.NoError(t, err)

	exists, err = repo.Exists(ctx, "test123")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestCredentialRepo_GetMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db)

	got, err := repo.Get(context.Background(), "nonexistent")
	require.NoError(t, err)
	assert.Nil(t, got, "missing credential should return nil without error")
}

func TestCredentialRepo_PreservesAttributes(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db)
	ctx := context.Background()

	cred := model.Credential{
		ID:   "123",
		Name: "John Doe",
		Role: "Engineer",
		Attributes: map[string]string{
			"department": "IT",
			"level":      "Senior",
		},
	}
	_, err := repo.TryCreate(ctx, model.NewCredentialRecord(cred, "worker-1", testIssuedAt))
	require.NoError(t, err)

	got, err := repo.Get(ctx, "123")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "IT", got.Credential.Attributes["department"])
	assert.Equal(t, "Senior", got.Credential.Attributes["level"])
}

func TestCredentialRepo_ConcurrentTryCreate(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db)
	ctx := context.Background()

	const callers = 16
	var wins atomic.Int32

	var g errgroup.Group
	for i := range callers {
		g.Go(func() error {
			rec := makeRecord("race", "John Doe", "Engineer", "worker-"+string(rune('a'+i)))
			created, err := repo.TryCreate(ctx, rec)
			if created {
				wins.Add(1)
			}
			return err
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, int32(1), wins.Load(), "exactly one concurrent create may succeed")

	var count int
	require.NoError(t, db.Reader.QueryRowContext(ctx, `SELECT COUNT(*) FROM credentials WHERE id = ?`, "race").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestRunMigrations_Idempotent(t *testing.T) {
	db := setupTestDB(t)

	assert.NoError(t, RunMigrations(db.Writer), "second run must be a no-op")
}
