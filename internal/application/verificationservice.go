package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ericfisherdev/credentialhub/internal/domain/model"
	"github.com/ericfisherdev/credentialhub/internal/domain/port/driven"
)

// VerifyOutcome is the business result of a verification attempt.
type VerifyOutcome int

const (
	// VerifyOutcomeVerified means a stored record matched on name and role.
	VerifyOutcomeVerified VerifyOutcome = iota + 1
	// VerifyOutcomeNotFound covers both an unknown id and an attribute
	// mismatch. The two are deliberately indistinguishable.
	VerifyOutcomeNotFound
)

// Messages reported by VerificationService.
const (
	MessageVerified = "credential verified"
	MessageNotFound = "credential not found"
)

// VerificationResult describes a completed verification. Record is only set
// for VerifyOutcomeVerified and holds the stored credential with all of its
// attributes.
type VerificationResult struct {
	Outcome VerifyOutcome
	Message string
	Record  *model.CredentialRecord
}

// VerificationService checks submitted credentials against issued records.
// It never writes to the store.
type VerificationService struct {
	store    driven.CredentialStore
	workerID string
	logger   *slog.Logger
}

// NewVerificationService creates a VerificationService. workerID identifies
// the verifying process in logs.
func NewVerificationService(store driven.CredentialStore, workerID string, logger *slog.Logger) *VerificationService {
	if logger == nil {
		logger = slog.Default()
	}
	return &VerificationService{
		store:    store,
		workerID: workerID,
		logger:   logger,
	}
}

// WorkerID returns the label of the verifying process.
func (s *VerificationService) WorkerID() string {
	return s.workerID
}

// Verify validates cred, loads the record for its id and reports a match only
// when name and role are identical. Errors are either
// model.ErrMissingRequiredFields or wrap ErrStorage.
func (s *VerificationService) Verify(ctx context.Context, cred model.Credential) (VerificationResult, error) {
	if err := cred.Validate(); err != nil {
		return VerificationResult{}, err
	}

	record, err := s.store.Get(ctx, cred.ID)
	if err != nil {
		s.logger.Error("credential store failure",
			"operation", "get",
			"id", cred.ID,
			"error", err,
		)
		return VerificationResult{}, fmt.Errorf("verify credential %s: %w: %w", cred.ID, ErrStorage, err)
	}

	if record == nil || !record.Credential.Matches(cred) {
		s.logger.Info("credential not found or mismatch", "id", cred.ID)
		return VerificationResult{
			Outcome: VerifyOutcomeNotFound,
			Message: MessageNotFound,
		}, nil
	}

	s.logger.Info("credential verified",
		"id", cred.ID,
		"issued_by", record.IssuedBy,
		"verified_by", s.workerID,
	)

	return VerificationResult{
		Outcome: VerifyOutcomeVerified,
		Message: MessageVerified,
		Record:  record,
	}, nil
}
