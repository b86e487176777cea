package events

import (
	"encoding/json"
	"testing"
)

func TestHandoffEventRoundTrip(t *testing.T) {
	evt := HandoffEvent{
		SessionID: "sess-42",
		Query:     "I want to exploit a bug in your billing",
		Reason:    "keyword",
		Timestamp: "2026-01-15T10:30:00Z",
	}

	data, err := json.Marshal(evt)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var parsed HandoffEvent
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if parsed != evt {
		t.Errorf("round trip mismatch: %+v vs %+v", parsed, evt)
	}
}

func TestHandoffEventFieldNames(t *testing.T) {
	raw := `{
		"session_id": "sess-001",
		"query": "hack my account",
		"reason": "model_token",
		"timestamp": "2026-01-15T10:30:00Z"
	}`

	var evt HandoffEvent
	if err := json.Unmarshal([]byte(raw), &evt); err != nil {
		t.Fatalf("failed to parse HandoffEvent: %v", err)
	}
	if evt.SessionID != "sess-001" {
		t.Errorf("expected session_id 'sess-001', got '%s'", evt.SessionID)
	}
	if evt.Reason != "model_token" {
		t.Errorf("expected reason 'model_token', got '%s'", evt.Reason)
	}
}

func TestNilPublisherIsSafe(t *testing.T) {
	var p *Publisher

	if err := p.PublishHandoff("sess-1", "query", "keyword"); err != nil {
		t.Errorf("nil publisher should be a no-op, got %v", err)
	}
	p.Close()
}
