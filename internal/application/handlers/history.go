package handlers

import (
	"context"

	"github.com/google/uuid"

	"github.com/ersonp/name-historian/internal/domain/entities"
	"github.com/ersonp/name-historian/internal/domain/services"
)

// HistoryHandler handles name history queries.
type HistoryHandler struct {
	service  *services.HistoryService
	resolver *ResolveHandler
}

// NewHistoryHandler creates a new history handler.
func NewHistoryHandler(service *services.HistoryService, resolver *ResolveHandler) *HistoryHandler {
	return &HistoryHandler{service: service, resolver: resolver}
}

// HistoryResult is an identity's history, newest first.
type HistoryResult struct {
	Identity  uuid.UUID               `json:"identity"`
	Intervals []entities.NameInterval `json:"intervals"`
}

// Handle resolves player and returns its stored history.
func (h *HistoryHandler) Handle(ctx context.Context, player string) (*HistoryResult, error) {
	resolved, err := h.resolver.Handle(ctx, player)
	if err != nil {
		return nil, err
	}

	intervals, err := h.service.History(ctx, resolved.Identity)
	if err != nil {
		return nil, err
	}

	return &HistoryResult{
		Identity:  resolved.Identity,
		Intervals: intervals,
	}, nil
}
