package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"event-radar/internal/domain"
	"event-radar/internal/storage/memory"
)

func newTestAPI(t *testing.T) (*apiServer, *memory.SessionArchiveStore) {
	t.Helper()
	archive := memory.NewSessionArchiveStore()
	return &apiServer{archive: archive, logger: zerolog.Nop()}, archive
}

func TestHandleRecent_RejectsMalformedLimit(t *testing.T) {
	api, _ := newTestAPI(t)

	for _, v := range []string{"20abc", "abc", "0", "201", "-5", "1.5"} {
		req := httptest.NewRequest(http.MethodGet, "/sessions/recent?limit="+v, nil)
		rec := httptest.NewRecorder()
		api.handleRecent(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("limit=%q: status = %d, want %d", v, rec.Code, http.StatusBadRequest)
		}
	}
}

func TestHandleRecent_ValidLimit(t *testing.T) {
	api, archive := newTestAPI(t)

	err := archive.InsertSession(context.Background(), &domain.SessionRecord{
		SessionID: "sess-1",
		Query:     "Buenos Aires",
		Status:    domain.SessionComplete,
		StartedAt: 1700000000000,
		EndedAt:   1700000005000,
		Summary:   "1/1 sources returned results - 2 total events",
	})
	if err != nil {
		t.Fatalf("InsertSession failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/sessions/recent?limit=5", nil)
	rec := httptest.NewRecorder()
	api.handleRecent(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var resp []recentSessionResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp) != 1 || resp[0].SessionID != "sess-1" {
		t.Errorf("response = %+v, want the single archived session", resp)
	}
}
