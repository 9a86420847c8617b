//go:build integration

package postgres_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/sync/errgroup"

	"github.com/ericfisherdev/credentialhub/internal/adapter/driven/postgres"
	"github.com/ericfisherdev/credentialhub/internal/domain/model"
)

type CredentialRepoSuite struct {
	suite.Suite
	container *tcpostgres.PostgresContainer
	db        *postgres.DB
	repo      *postgres.CredentialRepo
}

func TestCredentialRepoSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(CredentialRepoSuite))
}

func (s *CredentialRepoSuite) SetupSuite() {
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:17-alpine",
		tcpostgres.WithDatabase("credentials_test"),
		tcpostgres.WithUsername("credentials"),
		tcpostgres.WithPassword("credentials_test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	s.Require().NoError(err)
	s.container = container

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	s.Require().NoError(err)

	cfg := postgres.DefaultConfig()
	cfg.URL = dsn
	s.db, err = postgres.NewDB(ctx, cfg)
	s.Require().NoError(err)

	s.Require().NoError(postgres.RunMigrations(s.db.Pool))
	s.repo = postgres.NewCredentialRepo(s.db)
}

func (s *CredentialRepoSuite) TearDownSuite() {
	if s.db != nil {
		_ = s.db.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(context.Background())
	}
}

func (s *CredentialRepoSuite) SetupTest() {
	_, err := s.db.Pool.ExecContext(context.Background(), "TRUNCATE TABLE credentials")
	s.Require().NoError(err)
}

func (s *CredentialRepoSuite) TestMigrationsAreIdempotent() {
	s.NoError(postgres.RunMigrations(s.db.Pool))
}

func (s *CredentialRepoSuite) TestTryCreateThenDuplicate() {
	ctx := context.Background()
	issuedAt := time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)
	cred := model.Credential{ID: "abc123", Name: "John Doe", Role: "Engineer", Attributes: map[string]string{"department": "IT"}}

	created, err := s.repo.TryCreate(ctx, model.NewCredentialRecord(cred, "worker-1", issuedAt))
	s.Require().NoError(err)
	s.True(created)

	created, err = s.repo.TryCreate(ctx, model.NewCredentialRecord(cred, "worker-2", issuedAt.Add(time.Minute)))
	s.Require().NoError(err)
	s.False(created)

	got, err := s.repo.Get(ctx, "abc123")
	s.Require().NoError(err)
	s.Require().NotNil(got)
	s.Equal("worker-1", got.IssuedBy)
	s.Equal(issuedAt, got.IssuedAt)
	s.Equal(cred, got.Credential)

	exists, err := s.repo.Exists(ctx, "abc123")
	s.Require().NoError(err)
	s.True(exists)
}

func (s *CredentialRepoSuite) TestGetMissing() {
	got, err := s.repo.Get(context.Background(), "zzz999")
	s.Require().NoError(err)
	s.Nil(got)

	exists, err := s.repo.Exists(context.Background(), "zzz999")
	s.Require().NoError(err)
	s.False(exists)
}

// TestConcurrentTryCreate verifies that racing inserts for one id produce a
// single winner and a single row.
func (s *CredentialRepoSuite) TestConcurrentTryCreate() {
	ctx := context.Background()
	const callers = 20
	var wins atomic.Int32

	g, gctx := errgroup.WithContext(ctx)
	for range callers {
		g.Go(func() error {
			rec := model.NewCredentialRecord(model.Credential{ID: "race", Name: "A", Role: "B"}, "worker-x", time.Now())
			created, err := s.repo.TryCreate(gctx, rec)
			if created {
				wins.Add(1)
			}
			return err
		})
	}
	s.Require().NoError(g.Wait())
	s.Equal(int32(1), wins.Load())

	var count int
	s.Require().NoError(s.db.Pool.QueryRowContext(ctx, `SELECT COUNT(*) FROM credentials WHERE id = $1`, "race").Scan(&count))
	s.Equal(1, count)
}
