package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mossview/concierge/internal/dialogue"
	"github.com/mossview/concierge/internal/store"
)

type fakeChat struct {
	reply dialogue.Reply
	err   error
}

func (f *fakeChat) Handle(_ context.Context, sessionID, message string) (dialogue.Reply, error) {
	if f.err != nil {
		return dialogue.Reply{}, f.err
	}
	reply := f.reply
	if reply.SessionID == "" {
		reply.SessionID = sessionID
	}
	return reply, nil
}

type fakeStore struct {
	turns    []store.Turn
	err      error
	purged   []string
	purgeErr error
}

func (f *fakeStore) Append(_ context.Context, sessionID string, role store.Role, content string) (store.Turn, error) {
	return store.Turn{}, nil
}

func (f *fakeStore) History(_ context.Context, _ string, _ int) ([]store.Turn, error) {
	return f.turns, f.err
}

func (f *fakeStore) Purge(_ context.Context, sessionID string) error {
	if f.purgeErr != nil {
		return f.purgeErr
	}
	f.purged = append(f.purged, sessionID)
	return nil
}

func (f *fakeStore) Close() {}

func TestHealthEndpoint(t *testing.T) {
	srv := NewServer(8780, "", &fakeChat{}, &fakeStore{})

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("expected status ok, got %q", body["status"])
	}
}

func TestChatEndpoint(t *testing.T) {
	chat := &fakeChat{reply: dialogue.Reply{
		SessionID: "sess-1",
		Response:  "We are available 9am-5pm.",
		Source:    "faq",
		Action:    "responded",
	}}
	srv := NewServer(8780, "", chat, &fakeStore{})

	req := httptest.NewRequest("POST", "/api/v1/chat",
		strings.NewReader(`{"session_id":"sess-1","message":"What are your support hours?"}`))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp ChatResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.SessionID != "sess-1" {
		t.Errorf("expected session id sess-1, got %q", resp.SessionID)
	}
	if resp.Response != "We are available 9am-5pm." {
		t.Errorf("unexpected response: %q", resp.Response)
	}
	if resp.Source != "faq" || resp.Action != "responded" {
		t.Errorf("unexpected source/action: %s/%s", resp.Source, resp.Action)
	}
}

func TestChatEndpoint_InvalidJSON(t *testing.T) {
	srv := NewServer(8780, "", &fakeChat{}, &fakeStore{})

	req := httptest.NewRequest("POST", "/api/v1/chat", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestChatEndpoint_EmptyMessage(t *testing.T) {
	chat := &fakeChat{err: &dialogue.Error{Code: dialogue.ErrorInvalidInput, Reason: "empty_message"}}
	srv := NewServer(8780, "", chat, &fakeStore{})

	req := httptest.NewRequest("POST", "/api/v1/chat", strings.NewReader(`{"message":""}`))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for empty message, got %d", w.Code)
	}
}

func TestChatEndpoint_StoreUnavailable(t *testing.T) {
	chat := &fakeChat{err: &dialogue.Error{Code: dialogue.ErrorStoreUnavailable, Reason: "append_user_turn"}}
	srv := NewServer(8780, "", chat, &fakeStore{})

	req := httptest.NewRequest("POST", "/api/v1/chat", strings.NewReader(`{"message":"hello"}`))
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", w.Code)
	}
}

func TestHistoryEndpoint(t *testing.T) {
	s := &fakeStore{turns: []store.Turn{
		{SessionID: "sess-1", Role: store.RoleUser, Content: "hi", Seq: 0},
		{SessionID: "sess-1", Role: store.RoleAssistant, Content: "hello", Seq: 1},
	}}
	srv := NewServer(8780, "", &fakeChat{}, s)

	req := httptest.NewRequest("GET", "/api/v1/sessions/sess-1/history?limit=10", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var body struct {
		SessionID string       `json:"session_id"`
		Turns     []store.Turn `json:"turns"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.SessionID != "sess-1" {
		t.Errorf("expected session id sess-1, got %q", body.SessionID)
	}
	if len(body.Turns) != 2 || body.Turns[0].Content != "hi" {
		t.Errorf("unexpected turns: %+v", body.Turns)
	}
}

func TestHistoryEndpoint_UnknownSessionIsEmptyList(t *testing.T) {
	srv := NewServer(8780, "", &fakeChat{}, &fakeStore{})

	req := httptest.NewRequest("GET", "/api/v1/sessions/never-seen/history", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"turns":[]`) {
		t.Errorf("expected empty turns list, got %s", w.Body.String())
	}
}

func TestHistoryEndpoint_BadLimit(t *testing.T) {
	srv := NewServer(8780, "", &fakeChat{}, &fakeStore{})

	req := httptest.NewRequest("GET", "/api/v1/sessions/sess-1/history?limit=lots", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestPurgeEndpoint(t *testing.T) {
	s := &fakeStore{}
	srv := NewServer(8780, "", &fakeChat{}, s)

	req := httptest.NewRequest("DELETE", "/api/v1/sessions/sess-1/history", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if len(s.purged) != 1 || s.purged[0] != "sess-1" {
		t.Errorf("expected sess-1 purged, got %v", s.purged)
	}
}

func TestPurgeEndpoint_RequiresToken(t *testing.T) {
	s := &fakeStore{}
	srv := NewServer(8780, "secret-token", &fakeChat{}, s)

	req := httptest.NewRequest("DELETE", "/api/v1/sessions/sess-1/history", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}
	if len(s.purged) != 0 {
		t.Error("purge must not run unauthorized")
	}

	req = httptest.NewRequest("DELETE", "/api/v1/sessions/sess-1/history", nil)
	req.Header.Set("Authorization", "Bearer secret-token")
	w = httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("expected 200 with token, got %d", w.Code)
	}
}

func TestNotFoundEndpoint(t *testing.T) {
	srv := NewServer(8780, "", &fakeChat{}, &fakeStore{})

	req := httptest.NewRequest("GET", "/nonexistent", nil)
	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}
