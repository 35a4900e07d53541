package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// AuditService handles audit lifecycle and read operations.
type AuditService struct {
	c *Client
}

// Start opens a new audit for an apartment. A nil TemplateVersionID uses the
// default template version.
func (s *AuditService) Start(ctx context.Context, req *StartAuditRequest) (*AuditDetail, error) {
	var detail AuditDetail
	if err := s.c.post(ctx, "/api/v1/audits", req, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Get returns an audit with its items. id is the numeric id or the UUID.
func (s *AuditService) Get(ctx context.Context, id string) (*AuditDetail, error) {
	var detail AuditDetail
	if err := s.c.get(ctx, "/api/v1/audits/"+url.PathEscape(id), nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ListByApartment returns the audits of an apartment, newest first.
func (s *AuditService) ListByApartment(ctx context.Context, apartmentID int64, opts *ListOptions) ([]Audit, bool, error) {
	params := url.Values{}
	if opts != nil {
		if opts.Status != "" {
			params.Set("status", opts.Status)
		}
		if opts.Limit > 0 {
			params.Set("limit", strconv.Itoa(opts.Limit))
		}
		if opts.Offset > 0 {
			params.Set("offset", strconv.Itoa(opts.Offset))
		}
	}
	var resp struct {
		Data    []Audit `json:"data"`
		HasMore bool    `json:"has_more"`
	}
	if err := s.c.get(ctx, fmt.Sprintf("/api/v1/apartments/%d/audits", apartmentID), params, &resp); err != nil {
		return nil, false, err
	}
	return resp.Data, resp.HasMore, nil
}

// Complete finishes an audit whose mandatory items are all answered.
func (s *AuditService) Complete(ctx context.Context, auditID int64) (*Audit, error) {
	var audit Audit
	if err := s.c.post(ctx, fmt.Sprintf("/api/v1/audits/%d/complete", auditID), nil, &audit); err != nil {
		return nil, err
	}
	return &audit, nil
}

// Cancel abandons an audit. reason may be empty.
func (s *AuditService) Cancel(ctx context.Context, auditID int64, reason string) (*Audit, error) {
	var body any
	if reason != "" {
		body = map[string]string{"reason": reason}
	}
	var audit Audit
	if err := s.c.post(ctx, fmt.Sprintf("/api/v1/audits/%d/cancel", auditID), body, &audit); err != nil {
		return nil, err
	}
	return &audit, nil
}

// Summary returns the progress roll-up of an audit.
func (s *AuditService) Summary(ctx context.Context, auditID int64) (*Summary, error) {
	var summary Summary
	if err := s.c.get(ctx, fmt.Sprintf("/api/v1/audits/%d/summary", auditID), nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// Incidences returns the incidences raised during an audit.
func (s *AuditService) Incidences(ctx context.Context, auditID int64) ([]Incidence, error) {
	var resp struct {
		Data []Incidence `json:"data"`
	}
	if err := s.c.get(ctx, fmt.Sprintf("/api/v1/audits/%d/incidences", auditID), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// History returns the status transitions of an audit, oldest first.
func (s *AuditService) History(ctx context.Context, auditID int64) ([]StatusChange, error) {
	var resp struct {
		Data []StatusChange `json:"data"`
	}
	if err := s.c.get(ctx, fmt.Sprintf("/api/v1/audits/%d/history", auditID), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}
