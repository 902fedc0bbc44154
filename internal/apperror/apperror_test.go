package apperror

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorsIs(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{
			name:      "NotAuthenticated wraps ErrNotAuthenticated",
			err:       NotAuthenticated(),
			target:    ErrNotAuthenticated,
			wantMatch: true,
		},
		{
			name:      "IdentityResolution wraps ErrIdentityResolution",
			err:       IdentityResolution(errors.New("403 from /user")),
			target:    ErrIdentityResolution,
			wantMatch: true,
		},
		{
			name:      "RemoteUnavailable wraps ErrRemoteUnavailable",
			err:       RemoteUnavailable(errors.New("connection refused")),
			target:    ErrRemoteUnavailable,
			wantMatch: true,
		},
		{
			name:      "NoRemoteData wraps ErrNoRemoteData",
			err:       NoRemoteData("42"),
			target:    ErrNoRemoteData,
			wantMatch: true,
		},
		{
			name:      "Integration wraps ErrIntegration",
			err:       Integration("spotify", errors.New("token expired")),
			target:    ErrIntegration,
			wantMatch: true,
		},
		{
			name:      "NotAuthenticated does NOT match ErrRemoteUnavailable",
			err:       NotAuthenticated(),
			target:    ErrRemoteUnavailable,
			wantMatch: false,
		},
		{
			name:      "NoRemoteData does NOT match ErrNotFound",
			err:       NoRemoteData("42"),
			target:    ErrNotFound,
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.Is(tt.err, tt.target); got != tt.wantMatch {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.wantMatch)
			}
		})
	}
}

// Errors wrapped further up the stack (fmt.Errorf with %w) must still match.
func TestErrorsIs_ThroughWrapping(t *testing.T) {
	inner := NoRemoteData("42")
	wrapped := fmt.Errorf("pulling from cloud: %w", inner)

	if !errors.Is(wrapped, ErrNoRemoteData) {
		t.Error("errors.Is should find ErrNoRemoteData through fmt.Errorf wrapping")
	}

	var appErr *AppError
	if !errors.As(wrapped, &appErr) {
		t.Fatal("errors.As should extract *AppError through wrapping")
	}
	if appErr.Message == "" {
		t.Error("extracted AppError has no message")
	}
}

func TestMessages(t *testing.T) {
	err := Integration("spotify", errors.New("token expired"))
	want := "spotify: token expired"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	if NotAuthenticated().Error() == "" {
		t.Error("NotAuthenticated() should carry a human-readable message")
	}
}
