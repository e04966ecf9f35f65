package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/httplog/v3"
)

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// respondJSONError sends a JSON error response.
func respondJSONError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// respondError sends err with the status it maps to. Internal errors are
// attached to the request log instead of the response.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		httplog.SetError(r.Context(), err)
		respondJSONError(w, status, http.StatusText(status))
		return
	}
	respondJSONError(w, status, err.Error())
}
