package ws

import (
	"encoding/json"
	"sync"
	"time"
)

// Event is the structured message sent to clients watching an audit.
type Event struct {
	Type    string          `json:"type"`
	ID      uint64          `json:"id"`
	AuditID int64           `json:"audit_id"`
	Data    json.RawMessage `json:"data"`
	Time    time.Time       `json:"time"`
}

// SubscribeMsg is sent by the client after connecting to request replay of
// events it missed while disconnected.
type SubscribeMsg struct {
	Type        string `json:"type"`
	LastEventID uint64 `json:"last_event_id"`
}

// ResetMsg tells the client to reload the audit (requested events too old).
type ResetMsg struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

// EventSequence hands out monotonic event ids per audit.
type EventSequence struct {
	mu   sync.Mutex
	next map[int64]uint64
}

// NewEventSequence creates a new EventSequence.
func NewEventSequence() *EventSequence {
	return &EventSequence{next: make(map[int64]uint64)}
}

// Next returns the next id for auditID, starting at 1.
func (es *EventSequence) Next(auditID int64) uint64 {
	es.mu.Lock()
	defer es.mu.Unlock()

	es.next[auditID]++

	return es.next[auditID]
}
