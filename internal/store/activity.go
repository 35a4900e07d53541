package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/aptaudit/internal/models"
)

// ActivityStore provides data access for the activity_log table.
type ActivityStore struct {
	Base
}

// NewActivityStore creates an ActivityStore.
func NewActivityStore(base Base) *ActivityStore {
	return &ActivityStore{Base: base}
}

// RecordActivity inserts an activity log entry.
func (s *ActivityStore) RecordActivity(
	ctx context.Context,
	action, entityType, entityID, actor string,
	detail map[string]any,
) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var detailJSON []byte
	if detail != nil {
		var err error

		detailJSON, err = json.Marshal(detail)
		if err != nil {
			return fmt.Errorf("marshaling activity detail: %w", err)
		}
	}

	_, err := s.Pool.Exec(ctx, `
		INSERT INTO activity_log (action, entity_type, entity_id, actor, detail)
		VALUES ($1, $2, $3, $4, $5)`,
		action, entityType, entityID, actor, detailJSON,
	)
	if err != nil {
		return fmt.Errorf("inserting activity entry: %w", err)
	}

	return nil
}

// buildActivityFilter builds WHERE clause and args from ActivityQueryOpts.
func buildActivityFilter(opts models.ActivityQueryOpts) (where string, args []any, nextArg int) {
	var conditions []string
	argIdx := 1

	if opts.EntityType != "" {
		conditions = append(conditions, "entity_type = $"+strconv.Itoa(argIdx))
		args = append(args, opts.EntityType)
		argIdx++
	}
	if opts.EntityID != "" {
		conditions = append(conditions, "entity_id = $"+strconv.Itoa(argIdx))
		args = append(args, opts.EntityID)
		argIdx++
	}
	if opts.Action != "" {
		conditions = append(conditions, "action = $"+strconv.Itoa(argIdx))
		args = append(args, opts.Action)
		argIdx++
	}
	if opts.Since != nil {
		conditions = append(conditions, "created_at >= $"+strconv.Itoa(argIdx))
		args = append(args, *opts.Since)
		argIdx++
	}

	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	return where, args, argIdx
}

// QueryActivity returns activity entries matching the given filters, newest
// first. Returns entries, hasMore flag, and any error.
func (s *ActivityStore) QueryActivity(
	ctx context.Context, opts models.ActivityQueryOpts,
) ([]models.ActivityEntry, bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	where, args, argIdx := buildActivityFilter(opts)
	limit := clampLimit(opts.Limit, 50)

	query := fmt.Sprintf(
		"SELECT id, action, entity_type, entity_id, actor, detail, created_at FROM activity_log %s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d",
		where, argIdx, argIdx+1,
	)
	args = append(args, limit+1, opts.Offset)

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, false, fmt.Errorf("querying activity log: %w", err)
	}

	entries, err := scanActivityRows(rows, s.Log)
	if err != nil {
		return nil, false, err
	}

	hasMore := len(entries) > limit
	if hasMore {
		entries = entries[:limit]
	}

	return entries, hasMore, nil
}

// scanActivityRows scans activity entries. Undecodable detail is logged and dropped.
func scanActivityRows(rows pgx.Rows, log *logrus.Logger) ([]models.ActivityEntry, error) {
	defer rows.Close()

	entries := make([]models.ActivityEntry, 0, 16)

	for rows.Next() {
		var e models.ActivityEntry
		var detailJSON []byte
		var actor *string

		if err := rows.Scan(&e.ID, &e.Action, &e.EntityType, &e.EntityID, &actor, &detailJSON, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning activity entry: %w", err)
		}
		if actor != nil {
			e.Actor = *actor
		}
		if detailJSON != nil {
			if err := json.Unmarshal(detailJSON, &e.Detail); err != nil {
				log.WithError(err).Warn("failed to unmarshal activity detail")
			}
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating activity rows: %w", err)
	}

	return entries, nil
}

// purgeBatchSize limits the number of rows deleted per statement to avoid
// holding long locks on activity_log.
const purgeBatchSize = 5000

// PurgeOldEntries deletes entries older than retentionDays in batches and
// returns the number deleted.
func (s *ActivityStore) PurgeOldEntries(ctx context.Context, retentionDays int) (int, error) {
	var totalDeleted int

	for {
		batchCtx, cancel := withTimeout(ctx)

		tag, err := s.Pool.Exec(batchCtx,
			`DELETE FROM activity_log WHERE ctid IN (
				SELECT ctid FROM activity_log
				WHERE created_at < NOW() - make_interval(days => $1)
				LIMIT $2
			)`,
			retentionDays, purgeBatchSize,
		)
		cancel()

		if err != nil {
			return totalDeleted, fmt.Errorf("purging activity entries: %w", err)
		}

		deleted := int(tag.RowsAffected())
		totalDeleted += deleted

		if deleted < purgeBatchSize {
			break
		}
	}

	return totalDeleted, nil
}
