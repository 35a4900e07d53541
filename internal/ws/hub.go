// Package ws streams live audit progress to WebSocket clients. Each client
// watches exactly one audit; the hub fans committed audit changes out to the
// watchers of that audit.
package ws

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/persistorai/aptaudit/internal/metrics"
)

// Hub channel buffer sizes and connection limits.
const (
	broadcastBuffer    = 256
	registerBuffer     = 64
	maxClients         = 1000
	maxClientsPerAudit = 50
)

// auditBroadcast is sent through the broadcast channel to the Run goroutine.
type auditBroadcast struct {
	auditID int64
	msg     []byte
}

// Hub manages watchers per audit and broadcasts messages to them.
// All watcher map mutations happen exclusively in the Run goroutine.
type Hub struct {
	watchers   map[int64]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan auditBroadcast
	shutdown   chan struct{}
	done       chan struct{}
	total      int
	count      atomic.Int64
	log        *logrus.Logger
	seq        *EventSequence
	buffer     *EventBuffer
	now        func() time.Time
}

// NewHub creates a new Hub instance.
func NewHub(log *logrus.Logger) *Hub {
	return &Hub{
		watchers:   make(map[int64]map[*Client]struct{}),
		register:   make(chan *Client, registerBuffer),
		unregister: make(chan *Client, registerBuffer),
		broadcast:  make(chan auditBroadcast, broadcastBuffer),
		shutdown:   make(chan struct{}),
		done:       make(chan struct{}),
		log:        log,
		seq:        NewEventSequence(),
		buffer:     NewEventBuffer(defaultBufferMaxLen, defaultBufferMaxAge),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// drainTimeout is how long the hub waits for clients to flush after shutdown.
const drainTimeout = 3 * time.Second

// Run starts the hub event loop. It should be run as a goroutine.
// It exits when Shutdown is called or the context is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	go h.buffer.Sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			h.drainClients()

			return
		case <-h.shutdown:
			h.drainClients()

			return
		case client := <-h.register:
			h.add(client)
		case client := <-h.unregister:
			h.remove(client)
		case b := <-h.broadcast:
			for client := range h.watchers[b.auditID] {
				if !client.trySend(b.msg) {
					// Slow consumer: drop it rather than block the loop.
					h.remove(client)
				}
			}
		}
	}
}

func (h *Hub) add(client *Client) {
	if h.total >= maxClients {
		h.log.Warn("global connection limit reached, dropping client")
		client.closeSend()

		return
	}

	set := h.watchers[client.AuditID]
	if len(set) >= maxClientsPerAudit {
		h.log.WithField("audit_id", client.AuditID).Warn("per-audit connection limit reached, dropping client")
		client.closeSend()

		return
	}

	if set == nil {
		set = make(map[*Client]struct{})
		h.watchers[client.AuditID] = set
	}

	set[client] = struct{}{}
	h.total++
	h.publishCount()
	h.log.WithFields(logrus.Fields{"audit_id": client.AuditID, "total": h.total}).Debug("watcher registered")
}

func (h *Hub) remove(client *Client) {
	set, ok := h.watchers[client.AuditID]
	if !ok {
		return
	}

	if _, ok := set[client]; !ok {
		return
	}

	delete(set, client)
	client.closeSend()
	h.total--

	if len(set) == 0 {
		delete(h.watchers, client.AuditID)
	}

	h.publishCount()
	h.log.WithFields(logrus.Fields{"audit_id": client.AuditID, "total": h.total}).Debug("watcher unregistered")
}

func (h *Hub) publishCount() {
	h.count.Store(int64(h.total))
	metrics.WSConnections.Set(float64(h.total))
}

// maxBroadcastPayload is the maximum allowed event payload size (4 KB).
const maxBroadcastPayload = 4096

// BroadcastEvent assigns a sequence id, buffers the event for replay and
// queues it for every client watching auditID. It never blocks: when the
// broadcast queue is full the event is only kept in the replay buffer.
func (h *Hub) BroadcastEvent(eventType string, auditID int64, data json.RawMessage) {
	if len(data) > maxBroadcastPayload {
		h.log.WithFields(logrus.Fields{
			"audit_id":     auditID,
			"payload_size": len(data),
		}).Warn("dropping oversized audit event")

		return
	}

	evt := Event{
		Type:    eventType,
		ID:      h.seq.Next(auditID),
		AuditID: auditID,
		Data:    data,
		Time:    h.now(),
	}

	msg, err := json.Marshal(evt)
	if err != nil {
		h.log.WithError(err).Error("failed to marshal event")

		return
	}

	h.buffer.Append(&evt)

	select {
	case h.broadcast <- auditBroadcast{auditID: auditID, msg: msg}:
	default:
		h.log.WithField("audit_id", auditID).Warn("broadcast channel full, dropping message")
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	default:
		h.log.Warn("register channel full, dropping client")
		c.closeSend()
	}
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	default:
		// Run loop already exited; cleanup happened during drain.
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	return int(h.count.Load())
}

// Shutdown sends a shutdown frame to every client, waits for their write
// pumps to flush and closes all connections. It blocks until the drain is
// complete or the timeout expires.
func (h *Hub) Shutdown() {
	close(h.shutdown)
	<-h.done
}

// drainClients sends a shutdown frame to every client and waits for buffers to flush.
func (h *Hub) drainClients() {
	if h.total == 0 {
		return
	}

	h.log.WithField("clients", h.total).Info("draining WebSocket clients")

	shutdownMsg := []byte(`{"type":"shutdown","message":"server shutting down"}`)
	h.each(func(c *Client) { c.trySend(shutdownMsg) })

	deadline := time.After(drainTimeout)
	ticker := time.NewTicker(50 * time.Millisecond) //nolint:mnd // poll interval
	defer ticker.Stop()

wait:
	for h.pending() {
		select {
		case <-deadline:
			h.log.Warn("WebSocket drain timeout, closing remaining clients")

			break wait
		case <-ticker.C:
		}
	}

	h.each(func(c *Client) { c.closeSend() })

	h.watchers = make(map[int64]map[*Client]struct{})
	h.total = 0
	h.publishCount()
}

func (h *Hub) each(fn func(*Client)) {
	for _, set := range h.watchers {
		for c := range set {
			fn(c)
		}
	}
}

func (h *Hub) pending() bool {
	for _, set := range h.watchers {
		for c := range set {
			if len(c.send) > 0 {
				return true
			}
		}
	}

	return false
}

// ReplayEvents queues buffered events of the client's audit newer than
// lastEventID. It returns false when the requested id has been evicted and
// the client must reload the audit instead.
func (h *Hub) ReplayEvents(client *Client, lastEventID uint64) bool {
	oldest := h.buffer.OldestID(client.AuditID)
	if oldest > 0 && lastEventID > 0 && lastEventID+1 < oldest {
		return false
	}

	for _, evt := range h.buffer.Since(client.AuditID, lastEventID) {
		msg, err := json.Marshal(evt)
		if err != nil {
			continue
		}

		if !client.trySend(msg) {
			return true
		}
	}

	return true
}
