package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Reserved payload keys. Every other key in a credential payload is an open attribute.
const (
	FieldID   = "id"
	FieldName = "name"
	FieldRole = "role"
)

var (
	// ErrMissingRequiredFields indicates id, name or role is absent or empty.
	ErrMissingRequiredFields = errors.New("missing required fields: id, name, role")

	// ErrInvalidPayload indicates the payload is not a JSON object of string values.
	ErrInvalidPayload = errors.New("invalid credential payload")
)

// Credential is an attributed identity record keyed by a caller-supplied ID.
// Attributes holds every field other than id, name and role; it is stored and
// returned verbatim but never compared.
type Credential struct {
	ID         string
	Name       string
	Role       string
	Attributes map[string]string
}

// Validate returns ErrMissingRequiredFields unless ID, Name and Role are all non-empty.
func (c Credential) Validate() error {
	if c.ID == "" || c.Name == "" || c.Role == "" {
		return ErrMissingRequiredFields
	}
	return nil
}

// Matches reports whether other carries exactly the same name and role.
// The comparison is case-sensitive and ignores ID and Attributes.
func (c Credential) Matches(other Credential) bool {
	return c.Name == other.Name && c.Role == other.Role
}

// MarshalJSON flattens the credential into a single object so that open
// attributes sit next to id, name and role. Reserved keys always win over a
// same-named attribute.
func (c Credential) MarshalJSON() ([]byte, error) {
	fields := make(map[string]string, len(c.Attributes)+3)
	for k, v := range c.Attributes {
		fields[k] = v
	}
	fields[FieldID] = c.ID
	fields[FieldName] = c.Name
	fields[FieldRole] = c.Role
	return json.Marshal(fields)
}

// UnmarshalJSON accepts a flat JSON object whose values are strings. Null
// values are treated as absent. Any other value type yields ErrInvalidPayload.
func (c *Credential) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}

	var out Credential
	for key, value := range raw {
		if string(value) == "null" {
			continue
		}
		var s string
		if err := json.Unmarshal(value, &s); err != nil {
			return fmt.Errorf("%w: field %q must be a string", ErrInvalidPayload, key)
		}

		switch key {
		case FieldID:
			out.ID = s
		case FieldName:
			out.Name = s
		case FieldRole:
			out.Role = s
		default:
			if out.Attributes == nil {
				out.Attributes = make(map[string]string)
			}
			out.Attributes[key] = s
		}
	}

	*c = out
	return nil
}

// CredentialRecord is the persisted form of an issued credential. IssuedBy and
// IssuedAt are fixed at the single successful write and never change.
type CredentialRecord struct {
	ID         string
	Credential Credential
	IssuedBy   string
	IssuedAt   time.Time
}

// NewCredentialRecord builds the record for a first issuance. issuedAt is
// normalised to UTC at millisecond precision so it survives a round trip
// through the stored ISO-8601 text unchanged.
func NewCredentialRecord(c Credential, issuedBy string, issuedAt time.Time) CredentialRecord {
	return CredentialRecord{
		ID:         c.ID,
		Credential: c,
		IssuedBy:   issuedBy,
		IssuedAt:   issuedAt.UTC().Truncate(time.Millisecond),
	}
}
