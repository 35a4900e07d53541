package ws

import (
	"context"
	"sort"
	"sync"
	"time"
)

const (
	defaultBufferMaxLen = 200
	defaultBufferMaxAge = 1 * time.Hour
	bufferSweepInterval = 10 * time.Minute
)

// EventBuffer keeps recent events per audit so a reconnecting client can
// catch up without reloading the whole audit.
type EventBuffer struct {
	mu     sync.RWMutex
	events map[int64][]Event
	maxAge time.Duration
	maxLen int
}

// NewEventBuffer creates an EventBuffer with the given limits.
func NewEventBuffer(maxLen int, maxAge time.Duration) *EventBuffer {
	return &EventBuffer{
		events: make(map[int64][]Event),
		maxAge: maxAge,
		maxLen: maxLen,
	}
}

// Sweep drops audits whose newest event is older than maxAge, every
// bufferSweepInterval until ctx is cancelled.
func (eb *EventBuffer) Sweep(ctx context.Context) {
	ticker := time.NewTicker(bufferSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			eb.evictStale(now)
		}
	}
}

func (eb *EventBuffer) evictStale(now time.Time) {
	cutoff := now.Add(-eb.maxAge)

	eb.mu.Lock()
	defer eb.mu.Unlock()

	for auditID, buf := range eb.events {
		if len(buf) == 0 || buf[len(buf)-1].Time.Before(cutoff) {
			delete(eb.events, auditID)
		}
	}
}

// Append stores evt, trimming expired and excess entries.
func (eb *EventBuffer) Append(evt *Event) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	buf := eb.events[evt.AuditID]

	cutoff := evt.Time.Add(-eb.maxAge)
	start := sort.Search(len(buf), func(i int) bool { return !buf[i].Time.Before(cutoff) })
	buf = append(buf[start:], *evt)

	if len(buf) > eb.maxLen {
		buf = buf[len(buf)-eb.maxLen:]
	}

	eb.events[evt.AuditID] = buf
}

// Since returns a copy of the events of auditID with ID > lastEventID.
func (eb *EventBuffer) Since(auditID int64, lastEventID uint64) []Event {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	buf := eb.events[auditID]
	lo := sort.Search(len(buf), func(i int) bool { return buf[i].ID > lastEventID })

	if lo >= len(buf) {
		return nil
	}

	out := make([]Event, len(buf)-lo)
	copy(out, buf[lo:])

	return out
}

// OldestID returns the oldest buffered event id of auditID, or 0 if none.
func (eb *EventBuffer) OldestID(auditID int64) uint64 {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	buf := eb.events[auditID]
	if len(buf) == 0 {
		return 0
	}

	return buf[0].ID
}
