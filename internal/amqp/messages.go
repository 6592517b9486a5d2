package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// SyncRequestMessage asks the worker to run one full aggregator sync. The
// message carries no account data; the worker fetches everything itself.
// RunID is minted by the requester so its logs correlate with the worker's.
type SyncRequestMessage struct {
	RunID        string    `json:"run_id"`
	ForceRefresh bool      `json:"force_refresh"`
	RequestedAt  time.Time `json:"requested_at"`
}

func NewSyncRequestMessage(forceRefresh bool) *SyncRequestMessage {
	return &SyncRequestMessage{
		RunID:        uuid.NewString(),
		ForceRefresh: forceRefresh,
		RequestedAt:  time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *SyncRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// FromJSON creates a message from JSON bytes
func SyncRequestMessageFromJSON(data []byte) (*SyncRequestMessage, error) {
	var msg SyncRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
