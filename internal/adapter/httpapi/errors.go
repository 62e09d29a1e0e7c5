package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/keepwise/analytics-backend/internal/domain"
)

// ErrorBody is the wire shape of an API error.
type ErrorBody struct {
	Category string `json:"category"`
	Message  string `json:"message"`
}

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// respondError maps an error to its HTTP status and sends the error body.
// Error categories are contractual; messages are advisory only.
func respondError(w http.ResponseWriter, err error) {
	category, ok := domain.CategoryOf(err)
	if !ok {
		respondJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error: ErrorBody{Category: "INTERNAL_ERROR", Message: "an internal error occurred"},
		})
		return
	}

	status := http.StatusInternalServerError
	switch category {
	case domain.CategoryValidation, domain.CategoryInvalidRange:
		status = http.StatusBadRequest
	case domain.CategoryNoData:
		status = http.StatusNotFound
	}

	respondJSON(w, status, ErrorResponse{
		Error: ErrorBody{Category: string(category), Message: err.Error()},
	})
}
