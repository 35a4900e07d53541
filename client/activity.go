package client

import (
	"context"
	"net/url"
	"strconv"
	"time"
)

// ActivityService handles activity log operations.
type ActivityService struct {
	c *Client
}

// activityQueryResponse wraps the paginated activity query response.
type activityQueryResponse struct {
	Data    []ActivityEntry `json:"data"`
	HasMore bool            `json:"has_more"`
}

// Query returns activity log entries matching the given options.
func (s *ActivityService) Query(ctx context.Context, opts *ActivityQueryOptions) ([]ActivityEntry, bool, error) {
	params := url.Values{}
	if opts != nil {
		if opts.EntityType != "" {
			params.Set("entity_type", opts.EntityType)
		}
		if opts.EntityID != "" {
			params.Set("entity_id", opts.EntityID)
		}
		if opts.Action != "" {
			params.Set("action", opts.Action)
		}
		if opts.Since != nil {
			params.Set("since", opts.Since.Format(time.RFC3339))
		}
		if opts.Limit > 0 {
			params.Set("limit", strconv.Itoa(opts.Limit))
		}
		if opts.Offset > 0 {
			params.Set("offset", strconv.Itoa(opts.Offset))
		}
	}
	var resp activityQueryResponse
	if err := s.c.get(ctx, "/api/v1/activity", params, &resp); err != nil {
		return nil, false, err
	}
	return resp.Data, resp.HasMore, nil
}

// Purge deletes activity entries older than retentionDays. Returns count deleted.
func (s *ActivityService) Purge(ctx context.Context, retentionDays int) (int, error) {
	params := url.Values{}
	if retentionDays > 0 {
		params.Set("retention_days", strconv.Itoa(retentionDays))
	}
	var resp struct {
		Deleted       int `json:"deleted"`
		RetentionDays int `json:"retention_days"`
	}
	if err := s.c.del(ctx, "/api/v1/activity", params, &resp); err != nil {
		return 0, err
	}
	return resp.Deleted, nil
}
