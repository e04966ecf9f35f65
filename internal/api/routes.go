package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ersonp/name-historian/internal/application/handlers"
	"github.com/ersonp/name-historian/internal/domain/entities"
	"github.com/ersonp/name-historian/internal/domain/ports"
	"github.com/ersonp/name-historian/internal/domain/services"
)

// maxObservationBody caps POST /observations request bodies.
const maxObservationBody = 1 << 20

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// WhoisResponse is the body of GET /names/{name}.
type WhoisResponse struct {
	Name     string                 `json:"name"`
	Identity uuid.UUID              `json:"identity"`
	Source   string                 `json:"source"`
	Latest   *entities.NameInterval `json:"latest,omitempty"`
}

// ObserveResponse is the body of POST /observations.
type ObserveResponse struct {
	Recorded int `json:"recorded"`
}

// ImportResponse is the body of POST /history/{identity}/import.
type ImportResponse struct {
	Identity uuid.UUID `json:"identity"`
	Imported bool      `json:"imported"`
}

type historyAPI struct {
	handlers Handlers
}

func (a *historyAPI) getHistory(w http.ResponseWriter, r *http.Request) {
	result, err := a.handlers.History.Handle(r.Context(), chi.URLParam(r, "player"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (a *historyAPI) whois(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	resolved, err := a.handlers.Resolve.Handle(r.Context(), name)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, WhoisResponse{
		Name:     name,
		Identity: resolved.Identity,
		Source:   resolved.Source,
		Latest:   resolved.Latest,
	})
}

func (a *historyAPI) observe(w http.ResponseWriter, r *http.Request) {
	var inputs []handlers.ObservationInput
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxObservationBody)).Decode(&inputs); err != nil {
		respondJSONError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	n, err := a.handlers.Observe.Handle(r.Context(), inputs)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, ObserveResponse{Recorded: n})
}

func (a *historyAPI) importHistory(w http.ResponseWriter, r *http.Request) {
	results, err := a.handlers.Import.HandleRemote(r.Context(), []string{chi.URLParam(r, "identity")}, false)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, ImportResponse{
		Identity: results[0].Identity,
		Imported: results[0].Imported,
	})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, handlers.ErrUnknownPlayer):
		return http.StatusNotFound
	case errors.Is(err, handlers.ErrInvalidIdentity),
		errors.Is(err, entities.ErrInvalidObservation),
		errors.Is(err, entities.ErrInvalidInterval):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrLookupsDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, ports.ErrSource):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
