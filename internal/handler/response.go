// Package handler is the HTTP layer: it parses requests, calls the service or
// sync layer, and writes command-shaped JSON replies. No business rules live
// here.
//
// REPLY FRAMES:
// The dashboard UI speaks a command protocol — every reply (and every pushed
// event) is {"command": ..., "payload": ...}. HTTP responses use the same
// frame so the UI has one decoder for request replies and websocket events.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/zenjispace/zenjid/internal/apperror"
)

// Reply is the frame every successful response is wrapped in.
type Reply struct {
	Command string `json:"command"`
	Payload any    `json:"payload,omitempty"`
}

// ErrorResponse is the standard error format returned by all API endpoints.
type ErrorResponse struct {
	Error   string `json:"error"`   // machine-readable kind, e.g. "not_authenticated"
	Message string `json:"message"` // human-readable description
	Field   string `json:"field,omitempty"`
}

// writeJSON sends a JSON response with the given status code. Headers must be
// set before the first body write, hence the fixed order here.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeReply sends a 200 with a command frame.
func writeReply(w http.ResponseWriter, command string, payload any) {
	writeJSON(w, http.StatusOK, Reply{Command: command, Payload: payload})
}

// writeError maps a domain error to an HTTP status code and sends it. This is
// the single place where the service layer's error kinds become status codes;
// nothing below the handlers knows about HTTP.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		kind := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status = http.StatusBadRequest
			kind = "validation_error"
		case errors.Is(err, apperror.ErrNotAuthenticated):
			status = http.StatusUnauthorized
			kind = "not_authenticated"
		case errors.Is(err, apperror.ErrNotFound):
			status = http.StatusNotFound
			kind = "not_found"
		case errors.Is(err, apperror.ErrNoRemoteData):
			status = http.StatusNotFound
			kind = "no_remote_data"
		case errors.Is(err, apperror.ErrRemoteUnavailable):
			status = http.StatusBadGateway
			kind = "remote_unavailable"
		case errors.Is(err, apperror.ErrIdentityResolution):
			status = http.StatusBadGateway
			kind = "identity_resolution_failed"
		case errors.Is(err, apperror.ErrIntegration):
			status = http.StatusBadGateway
			kind = "integration_error"
		}

		writeJSON(w, status, ErrorResponse{
			Error:   kind,
			Message: appErr.Message,
			Field:   appErr.Field,
		})
		return
	}

	// Unknown error — never expose internals to the client.
	writeJSON(w, http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "an internal error occurred",
	})
}

// decodeBody parses a JSON request body into dst, rejecting unknown fields so
// a typo'd payload fails loudly instead of silently doing nothing.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperror.ValidationFailed("body", "invalid JSON request body")
	}
	return nil
}
