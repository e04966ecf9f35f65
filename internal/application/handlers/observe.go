package handlers

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ersonp/name-historian/internal/domain/entities"
	"github.com/ersonp/name-historian/internal/domain/services"
)

// ObserveHandler records name observations.
type ObserveHandler struct {
	service *services.HistoryService
}

// NewObserveHandler creates a new observe handler.
func NewObserveHandler(service *services.HistoryService) *ObserveHandler {
	return &ObserveHandler{service: service}
}

// ObservationInput is an observation as received from a user or client.
type ObservationInput struct {
	Identity string `json:"identity"`
	Name     string `json:"name"`
}

// Handle parses and records a batch of observations at the same instant.
// Nothing is recorded if any entry is invalid.
func (h *ObserveHandler) Handle(ctx context.Context, inputs []ObservationInput) (int, error) {
	observations := make([]entities.Observation, 0, len(inputs))
	for i, in := range inputs {
		id, err := uuid.Parse(in.Identity)
		if err != nil {
			return 0, fmt.Errorf("%w: entry %d: identity %q", entities.ErrInvalidObservation, i+1, in.Identity)
		}
		observations = append(observations, entities.Observation{Identity: id, Name: in.Name})
	}

	if err := h.service.ObserveAll(ctx, observations); err != nil {
		return 0, err
	}
	return len(observations), nil
}
