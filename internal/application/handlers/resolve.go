package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ersonp/name-historian/internal/domain/entities"
	"github.com/ersonp/name-historian/internal/domain/ports"
	"github.com/ersonp/name-historian/internal/domain/services"
)

// ErrUnknownPlayer is returned when a player argument matches no identity.
var ErrUnknownPlayer = errors.New("unknown player")

// Resolution sources.
const (
	SourceIdentity = "identity" // the argument was an identity
	SourceLocal    = "local"    // most recent local holder of the name
	SourceRemote   = "remote"   // current holder according to the profile service
)

// Resolution is the identity a player argument refers to.
type Resolution struct {
	Identity uuid.UUID
	Source   string
	// Latest is the matching local interval when Source is SourceLocal.
	Latest *entities.NameInterval
}

// ResolveHandler maps a player argument (identity or name) to an identity.
type ResolveHandler struct {
	service  *services.HistoryService
	resolver ports.IdentityResolver
}

// NewResolveHandler creates a new resolve handler. resolver may be nil when
// remote lookups are disabled.
func NewResolveHandler(service *services.HistoryService, resolver ports.IdentityResolver) *ResolveHandler {
	return &ResolveHandler{service: service, resolver: resolver}
}

// Handle resolves player. Identities are accepted in any form uuid.Parse
// takes: dashed, 32 hex digits, urn:uuid: prefixed or braced.
// Names are looked up locally first, then remotely if enabled.
func (h *ResolveHandler) Handle(ctx context.Context, player string) (*Resolution, error) {
	if id, err := uuid.Parse(player); err == nil {
		return &Resolution{Identity: id, Source: SourceIdentity}, nil
	}

	latest, err := h.service.LatestByName(ctx, player)
	if err != nil {
		return nil, err
	}
	if latest != nil {
		return &Resolution{Identity: latest.Identity, Source: SourceLocal, Latest: latest}, nil
	}

	if h.resolver == nil || !entities.ValidUsername(player) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlayer, player)
	}
	id, ok, err := h.resolver.LookupIdentity(ctx, player)
	if err != nil {
		return nil, fmt.Errorf("looking up %s: %w", player, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPlayer, player)
	}
	return &Resolution{Identity: id, Source: SourceRemote}, nil
}
