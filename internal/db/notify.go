package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/aptaudit/internal/dbpool"
	"github.com/persistorai/aptaudit/internal/metrics"
	"github.com/persistorai/aptaudit/internal/models"
)

// AuditChannel is the LISTEN/NOTIFY channel engine transactions publish
// audit changes on. AuditChangedEvent is the default event type.
const (
	AuditChannel      = "audit_changes"
	AuditChangedEvent = "audit.changed"
)

const (
	initialBackoff = 1 * time.Second
	maxBackoff     = 30 * time.Second
	pollInterval   = 2 * time.Minute
)

// Broadcaster sends messages to clients watching an audit.
type Broadcaster interface {
	BroadcastEvent(eventType string, auditID int64, data json.RawMessage)
}

// NotifyBridge relays committed audit changes from PostgreSQL to the
// WebSocket hub. Notifications are only delivered once the publishing
// transaction commits, so subscribers never observe rolled-back state.
type NotifyBridge struct {
	log     *logrus.Logger
	pool    *dbpool.Pool
	hub     Broadcaster
	channel string
}

// NewNotifyBridge creates a NotifyBridge listening on AuditChannel.
func NewNotifyBridge(log *logrus.Logger, pool *dbpool.Pool, hub Broadcaster) *NotifyBridge {
	return &NotifyBridge{
		log:     log,
		pool:    pool,
		hub:     hub,
		channel: AuditChannel,
	}
}

// Start checks the database is reachable and relays notifications in a
// background goroutine until ctx is cancelled. Connection losses after
// Start returns are retried with backoff.
func (b *NotifyBridge) Start(ctx context.Context) error {
	if err := b.pool.Ping(ctx); err != nil {
		return fmt.Errorf("notify bridge: database not reachable: %w", err)
	}

	go b.run(ctx)

	return nil
}

func (b *NotifyBridge) run(ctx context.Context) {
	backoff := initialBackoff

	for ctx.Err() == nil {
		err := b.relay(ctx)
		if err == nil || ctx.Err() != nil {
			return
		}

		metrics.NotifyReconnects.Inc()
		b.log.WithError(err).WithField("retry_in", backoff).Warn("notify.reconnect")

		if !sleep(ctx, backoff) {
			return
		}

		backoff = nextBackoff(backoff)
	}
}

// relay holds one pooled connection subscribed to the channel and forwards
// notifications until the connection fails or ctx ends.
func (b *NotifyBridge) relay(ctx context.Context) error {
	conn, err := b.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquiring connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{b.channel}.Sanitize()); err != nil {
		return fmt.Errorf("executing LISTEN: %w", err)
	}

	b.log.WithField("channel", b.channel).Info("notify.listening")

	for {
		// The deadline wakes WaitForNotification so a dead peer is noticed.
		if err := conn.Conn().PgConn().Conn().SetReadDeadline(time.Now().Add(pollInterval)); err != nil {
			return fmt.Errorf("setting read deadline: %w", err)
		}

		n, err := conn.Conn().WaitForNotification(ctx)
		switch {
		case err == nil:
			b.handleNotification(n)
		case ctx.Err() != nil:
			return nil
		case isTimeout(err):
			continue
		default:
			return fmt.Errorf("waiting for notification: %w", err)
		}
	}
}

// handleNotification decodes an AuditChange payload and broadcasts it to the
// audit's watchers. The raw payload is forwarded unchanged.
func (b *NotifyBridge) handleNotification(n *pgconn.Notification) {
	var change models.AuditChange
	if err := json.Unmarshal([]byte(n.Payload), &change); err != nil || change.AuditID == 0 {
		b.log.WithField("pid", n.PID).Warn("notify.drop: payload without audit_id")
		return
	}

	if change.Type == "" {
		change.Type = AuditChangedEvent
	}

	b.log.WithFields(logrus.Fields{
		"audit_id": change.AuditID,
		"type":     change.Type,
		"status":   change.Status,
	}).Debug("notify.forward")

	metrics.NotificationsForwarded.Inc()
	b.hub.BroadcastEvent(change.Type, change.AuditID, json.RawMessage(n.Payload))
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// sleep waits for d and reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// nextBackoff doubles current up to maxBackoff and applies ±25% jitter.
func nextBackoff(current time.Duration) time.Duration {
	next := min(current*2, maxBackoff)

	return time.Duration(float64(next) * (0.75 + rand.Float64()*0.5)) //nolint:gosec // jitter doesn't need crypto rand.
}
