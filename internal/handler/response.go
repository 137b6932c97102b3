// Package handler contains the HTTP layer: request parsing, response
// serialization, and the single place domain errors become status codes.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/dishdash-server/internal/apperror"
)

// ErrorResponse is the error shape every endpoint returns. The message field
// carries the strings the frontend matches on ("unauthorized access",
// "forbidden access").
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// insertAck mirrors the store's insert acknowledgment, which the frontend
// reads the generated id from.
type insertAck struct {
	Acknowledged bool   `json:"acknowledged"`
	InsertedID   string `json:"insertedId"`
}

// deleteAck mirrors the store's delete acknowledgment.
type deleteAck struct {
	Acknowledged bool  `json:"acknowledged"`
	DeletedCount int64 `json:"deletedCount"`
}

// successBody is the {"success":true} response of the token endpoints.
var successBody = map[string]bool{"success": true}

// writeJSON sends a JSON response. Headers and status must be set before the
// body is written; once Encode starts writing they are final.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeError maps a domain error to its status code and sends it. Anything
// outside the apperror taxonomy becomes an opaque 500, so store errors never
// reach the client.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		errorType := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
			errorType = "validation_error"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			errorType = "not_found"
		case errors.Is(err, apperror.ErrUnauthorized):
			status = http.StatusUnauthorized
			errorType = "unauthorized"
		case errors.Is(err, apperror.ErrForbidden):
			status = http.StatusForbidden
			errorType = "forbidden"
		}

		writeJSON(w, status, ErrorResponse{
			Error:   errorType,
			Message: appErr.Message,
		})
		return
	}

	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}
