package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/ersonp/name-historian/internal/domain/entities"
)

// ChangeSource fetches authoritative name histories from an external service.
type ChangeSource interface {
	// FetchNameChanges returns the identity's name changes, oldest first.
	// Returns an empty slice if the source does not know the identity.
	// Any other failure is wrapped with ErrSource.
	FetchNameChanges(ctx context.Context, identity uuid.UUID) ([]entities.NameChange, error)
}

// IdentityResolver maps a current display name to an identity using an external service.
type IdentityResolver interface {
	// LookupIdentity returns the identity currently using name.
	// ok is false if nobody uses it.
	LookupIdentity(ctx context.Context, name string) (id uuid.UUID, ok bool, err error)
}
