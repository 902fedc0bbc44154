package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/zenjispace/zenjid/internal/apperror"
)

type stubSyncer struct {
	pushErr error
	pullErr error
	pushes  int
	pulls   int
}

func (s *stubSyncer) SyncOut(_ context.Context) error {
	s.pushes++
	return s.pushErr
}

func (s *stubSyncer) SyncIn(_ context.Context) error {
	s.pulls++
	return s.pullErr
}

func TestHandlePush(t *testing.T) {
	syncer := &stubSyncer{}
	h := NewSyncHandler(syncer, testLogger())

	rec := httptest.NewRecorder()
	h.HandlePush(rec, httptest.NewRequest(http.MethodPost, "/api/sync/push", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if syncer.pushes != 1 {
		t.Errorf("pushes = %d, want 1", syncer.pushes)
	}

	var payload struct {
		Success   bool   `json:"success"`
		Direction string `json:"direction"`
	}
	decodeReply(t, rec, "syncComplete", &payload)
	if !payload.Success || payload.Direction != "push" {
		t.Errorf("payload = %+v", payload)
	}
}

func TestHandlePush_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   string
	}{
		{"not authenticated", apperror.NotAuthenticated(), http.StatusUnauthorized, "not_authenticated"},
		{"remote down", apperror.RemoteUnavailable(context.DeadlineExceeded), http.StatusBadGateway, "remote_unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewSyncHandler(&stubSyncer{pushErr: tt.err}, testLogger())

			rec := httptest.NewRecorder()
			h.HandlePush(rec, httptest.NewRequest(http.MethodPost, "/api/sync/push", nil))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var errResp ErrorResponse
			if err := json.NewDecoder(rec.Body).Decode(&errResp); err != nil {
				t.Fatal(err)
			}
			if errResp.Error != tt.wantKind {
				t.Errorf("error kind = %q, want %q", errResp.Error, tt.wantKind)
			}
		})
	}
}

func TestHandlePull(t *testing.T) {
	syncer := &stubSyncer{}
	h := NewSyncHandler(syncer, testLogger())

	rec := httptest.NewRecorder()
	h.HandlePull(rec, httptest.NewRequest(http.MethodPost, "/api/sync/pull", nil))

	if rec.Code != http.StatusOK || syncer.pulls != 1 {
		t.Fatalf("status = %d, pulls = %d", rec.Code, syncer.pulls)
	}
}

func TestHandlePull_NoRemoteData(t *testing.T) {
	h := NewSyncHandler(&stubSyncer{pullErr: apperror.NoRemoteData("42")}, testLogger())

	rec := httptest.NewRecorder()
	h.HandlePull(rec, httptest.NewRequest(http.MethodPost, "/api/sync/pull", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
