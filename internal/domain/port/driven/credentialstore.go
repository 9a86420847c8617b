package driven

import (
	"context"

	"github.com/ericfisherdev/credentialhub/internal/domain/model"
)

// CredentialStore defines the driven port for issued credential persistence.
// Records are create-once: there is no update or delete path.
type CredentialStore interface {
	// Exists reports whether a record with the given ID has been committed.
	Exists(ctx context.Context, id string) (bool, error)

	// TryCreate inserts record if no record with the same ID exists. The
	// uniqueness check and the write are a single conflict-checked statement,
	// so concurrent callers for one ID see exactly one true. An existing
	// record yields (false, nil) and is left untouched.
	TryCreate(ctx context.Context, record model.CredentialRecord) (bool, error)

	// Get returns the record for id, or (nil, nil) if none exists.
	Get(ctx context.Context, id string) (*model.CredentialRecord, error)
}
