// Package apperror defines the application's domain errors.
//
// Every layer below the HTTP handlers returns one of these instead of raw
// driver or SDK errors. Handlers translate them to status codes in one place
// (handler.writeError); the sync engine uses them to decide whether a failure
// is user-visible or log-only.
package apperror

import (
	"errors"
	"fmt"
)

// Sentinel errors. Callers match them with errors.Is, which walks the wrap
// chain via AppError.Unwrap.
var (
	// ErrNotAuthenticated means no identity session exists. Sync operations
	// return it before attempting any network call.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrIdentityResolution means the provider's "who am I" lookup failed after
	// login. The session itself stays active; only operations that need the
	// resolved user id fail.
	ErrIdentityResolution = errors.New("identity resolution failed")

	// ErrRemoteUnavailable covers remote store connection and driver failures.
	ErrRemoteUnavailable = errors.New("remote store unavailable")

	// ErrNoRemoteData means a pull found nothing stored for this user.
	ErrNoRemoteData = errors.New("no remote data")

	// ErrIntegration is an adapter-specific failure (expired Spotify token,
	// assistant API error, and so on).
	ErrIntegration = errors.New("integration error")

	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
)

// AppError pairs a sentinel with a human-readable message.
type AppError struct {
	Err     error  // sentinel cause
	Message string // human-readable error message
	Field   string // optional: field causing a validation error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotAuthenticated reports that no identity session is present.
func NotAuthenticated() *AppError {
	return &AppError{
		Err:     ErrNotAuthenticated,
		Message: "please sign in with GitHub to sync your data",
	}
}

// IdentityResolution reports a failed "who am I" lookup.
func IdentityResolution(err error) *AppError {
	return &AppError{
		Err:     ErrIdentityResolution,
		Message: fmt.Sprintf("could not resolve your GitHub identity: %v", err),
	}
}

// RemoteUnavailable wraps a remote store failure.
func RemoteUnavailable(err error) *AppError {
	return &AppError{
		Err:     ErrRemoteUnavailable,
		Message: fmt.Sprintf("cloud storage is unavailable: %v", err),
	}
}

// NoRemoteData reports a pull with nothing stored for the user.
func NoRemoteData(userID string) *AppError {
	return &AppError{
		Err:     ErrNoRemoteData,
		Message: fmt.Sprintf("no synced data found for user %s", userID),
	}
}

// Integration wraps an adapter failure with the adapter's name.
func Integration(name string, err error) *AppError {
	return &AppError{
		Err:     ErrIntegration,
		Message: fmt.Sprintf("%s: %v", name, err),
	}
}

// NotFound returns an AppError for a missing resource.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

// ValidationFailed returns an AppError for a rejected input field.
func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}
