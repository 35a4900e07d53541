package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

// AnswerService records answers.
type AnswerService struct {
	c *Client
}

// PhotoFile is a photo to attach to an answer.
type PhotoFile struct {
	Filename string
	Body     io.Reader
}

func answerPath(auditID, itemID int64) string {
	return fmt.Sprintf("/api/v1/audits/%d/items/%d/answer", auditID, itemID)
}

// Answer records the answer to one audit item.
func (s *AnswerService) Answer(ctx context.Context, auditID, itemID int64, req *AnswerRequest) (*AnswerResult, error) {
	var result AnswerResult
	if err := s.c.post(ctx, answerPath(auditID, itemID), req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// AnswerWithPhotos records an answer and uploads its photos in one multipart request.
func (s *AnswerService) AnswerWithPhotos(ctx context.Context, auditID, itemID int64, req *AnswerRequest, photos []PhotoFile) (*AnswerResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	if err := mw.WriteField("answer", string(data)); err != nil {
		return nil, fmt.Errorf("write answer field: %w", err)
	}

	for _, p := range photos {
		fw, err := mw.CreateFormFile("photos", p.Filename)
		if err != nil {
			return nil, fmt.Errorf("create photo part: %w", err)
		}
		if _, err := io.Copy(fw, p.Body); err != nil {
			return nil, fmt.Errorf("copy photo %s: %w", p.Filename, err)
		}
	}

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart: %w", err)
	}

	var result AnswerResult
	if err := s.c.send(ctx, http.MethodPost, answerPath(auditID, itemID), &buf, mw.FormDataContentType(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetResponse returns the recorded answer of an item.
func (s *AnswerService) GetResponse(ctx context.Context, auditID, itemID int64) (*Response, error) {
	var resp Response
	if err := s.c.get(ctx, fmt.Sprintf("/api/v1/audits/%d/items/%d/response", auditID, itemID), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
