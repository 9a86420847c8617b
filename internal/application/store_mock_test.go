package application

import (
	"context"
	"sync"

	"github.com/ericfisherdev/credentialhub/internal/domain/model"
)

// memoryStore is a CredentialStore whose create-if-absent is atomic under a
// mutex, standing in for the primary key constraint of a real database.
type memoryStore struct {
	mu      sync.Mutex
	records map[string]model.CredentialRecord
	calls   int
	err     error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{records: make(map[string]model.CredentialRecord)}
}

func (m *memoryStore) Exists(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return false, m.err
	}
	_, ok := m.records[id]
	return ok, nil
}

func (m *memoryStore) TryCreate(_ context.Context, record model.CredentialRecord) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return false, m.err
	}
	if _, ok := m.records[record.ID]; ok {
		return false, nil
	}
	m.records[record.ID] = record
	return true, nil
}

func (m *memoryStore) Get(_ context.Context, id string) (*model.CredentialRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	rec, ok := m.records[id]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *memoryStore) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

func (m *memoryStore) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
