package amqp

import (
	"testing"
	"time"
)

func TestNewSyncRequestMessage(t *testing.T) {
	msg := NewSyncRequestMessage(true)

	if !msg.ForceRefresh {
		t.Error("NewSyncRequestMessage(true) should set ForceRefresh")
	}
	if msg.RunID == "" {
		t.Error("NewSyncRequestMessage() should mint a run ID")
	}
	if other := NewSyncRequestMessage(true); other.RunID == msg.RunID {
		t.Error("each request should carry its own run ID")
	}
	if msg.RequestedAt.IsZero() {
		t.Error("NewSyncRequestMessage() RequestedAt should not be zero")
	}
	if time.Since(msg.RequestedAt) > time.Second {
		t.Error("NewSyncRequestMessage() RequestedAt should be recent")
	}
}

func TestSyncRequestMessage_JSON(t *testing.T) {
	requestedAt := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	msg := &SyncRequestMessage{
		RunID:        "run-42",
		ForceRefresh: true,
		RequestedAt:  requestedAt,
	}

	jsonBytes, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	parsed, err := SyncRequestMessageFromJSON(jsonBytes)
	if err != nil {
		t.Fatalf("SyncRequestMessageFromJSON() error = %v", err)
	}

	if parsed.RunID != msg.RunID {
		t.Errorf("Parsed RunID = %v, want %v", parsed.RunID, msg.RunID)
	}
	if parsed.ForceRefresh != msg.ForceRefresh {
		t.Errorf("Parsed ForceRefresh = %v, want %v", parsed.ForceRefresh, msg.ForceRefresh)
	}
	if !parsed.RequestedAt.Equal(msg.RequestedAt) {
		t.Errorf("Parsed RequestedAt = %v, want %v", parsed.RequestedAt, msg.RequestedAt)
	}
}

func TestSyncRequestMessage_InvalidJSON(t *testing.T) {
	invalidJSON := []byte(`{"force_refresh": "not_a_bool"}`)

	if _, err := SyncRequestMessageFromJSON(invalidJSON); err == nil {
		t.Error("SyncRequestMessageFromJSON() should fail with invalid JSON")
	}
}
