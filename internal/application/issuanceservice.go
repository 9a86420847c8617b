package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ericfisherdev/credentialhub/internal/domain/model"
	"github.com/ericfisherdev/credentialhub/internal/domain/port/driven"
)

// IssueOutcome is the business result of an issuance attempt.
type IssueOutcome int

const (
	// IssueOutcomeIssued means this call performed the single write for the id.
	IssueOutcomeIssued IssueOutcome = iota + 1
	// IssueOutcomeAlreadyIssued means a record for the id already existed.
	IssueOutcomeAlreadyIssued
)

// MessageAlreadyIssued is reported for every issuance after the first.
const MessageAlreadyIssued = "credential already issued"

// IssuanceResult describes a completed issuance attempt. IssuedBy and
// IssuedAt are only set for IssueOutcomeIssued.
type IssuanceResult struct {
	Outcome  IssueOutcome
	Message  string
	IssuedBy string
	IssuedAt time.Time
}

// IssuanceService issues credentials at most once per id and attributes each
// issuance to the worker that performed it.
type IssuanceService struct {
	store    driven.CredentialStore
	workerID string
	now      func() time.Time
	logger   *slog.Logger
}

// NewIssuanceService creates an IssuanceService. workerID is recorded on every
// credential this service writes.
func NewIssuanceService(store driven.CredentialStore, workerID string, logger *slog.Logger) *IssuanceService {
	if logger == nil {
		logger = slog.Default()
	}
	return &IssuanceService{
		store:    store,
		workerID: workerID,
		now:      time.Now,
		logger:   logger,
	}
}

// WorkerID returns the label this service attributes issuances to.
func (s *IssuanceService) WorkerID() string {
	return s.workerID
}

// Issue validates cred and attempts the one-time write. A repeated id is a
// normal IssueOutcomeAlreadyIssued result. Errors are either
// model.ErrMissingRequiredFields, reported before the store is touched, or
// wrap ErrStorage.
func (s *IssuanceService) Issue(ctx context.Context, cred model.Credential) (IssuanceResult, error) {
	if err := cred.Validate(); err != nil {
		return IssuanceResult{}, err
	}

	record := model.NewCredentialRecord(cred, s.workerID, s.now())

	created, err := s.store.TryCreate(ctx, record)
	if err != nil {
		s.logger.Error("credential store failure",
			"operation", "try_create",
			"id", cred.ID,
			"error", err,
		)
		return IssuanceResult{}, fmt.Errorf("issue credential %s: %w: %w", cred.ID, ErrStorage, err)
	}

	if !created {
		s.logger.Info("credential already issued", "id", cred.ID)
		return IssuanceResult{
			Outcome: IssueOutcomeAlreadyIssued,
			Message: MessageAlreadyIssued,
		}, nil
	}

	s.logger.Info("credential issued",
		"id", cred.ID,
		"issued_at", model.FormatTimestamp(record.IssuedAt),
	)

	return IssuanceResult{
		Outcome:  IssueOutcomeIssued,
		Message:  "credential issued by " + s.workerID,
		IssuedBy: s.workerID,
		IssuedAt: record.IssuedAt,
	}, nil
}
