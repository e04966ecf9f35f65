package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/ersonp/name-historian/internal/domain/entities"
	"github.com/ersonp/name-historian/internal/domain/ports"
)

// ChangeSource is a mock implementation of ports.ChangeSource.
// Identities in Failing return an ErrSource error; unknown identities return no changes.
type ChangeSource struct {
	mu        sync.Mutex
	Changes   map[uuid.UUID][]entities.NameChange
	Failing   map[uuid.UUID]bool
	CallCount int
}

// FetchNameChanges returns the configured changes for identity.
func (m *ChangeSource) FetchNameChanges(_ context.Context, identity uuid.UUID) ([]entities.NameChange, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CallCount++
	if m.Failing[identity] {
		return nil, fmt.Errorf("%w: HTTP 500", ports.ErrSource)
	}
	return m.Changes[identity], nil
}

// IdentityResolver is a mock implementation of ports.IdentityResolver.
type IdentityResolver struct {
	Names     map[string]uuid.UUID
	Err       error
	CallCount int
}

// LookupIdentity returns the configured identity for name.
func (m *IdentityResolver) LookupIdentity(_ context.Context, name string) (uuid.UUID, bool, error) {
	m.CallCount++
	if m.Err != nil {
		return uuid.Nil, false, m.Err
	}
	id, ok := m.Names[name]
	return id, ok, nil
}
