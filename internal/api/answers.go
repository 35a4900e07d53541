package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/aptaudit/internal/middleware"
	"github.com/persistorai/aptaudit/internal/models"
	"github.com/persistorai/aptaudit/internal/service"
)

const (
	// answerField carries the JSON answer in a multipart request.
	answerField = "answer"
	// photosField carries the photo files in a multipart request.
	photosField = "photos"

	maxPhotoFiles = 20
)

// AnswerHandler serves answer endpoints.
type AnswerHandler struct {
	answers AnswerService
	query   AuditQueryService
	photos  PhotoUploader
	log     *logrus.Logger
}

// NewAnswerHandler creates an AnswerHandler. photos may be nil, in which case
// multipart answers are rejected.
func NewAnswerHandler(answers AnswerService, query AuditQueryService, photos PhotoUploader, log *logrus.Logger) *AnswerHandler {
	return &AnswerHandler{answers: answers, query: query, photos: photos, log: log}
}

// Answer handles POST /api/v1/audits/:id/items/:itemId/answer. The body is
// either an AnswerRequest as JSON, or multipart with the request JSON in the
// "answer" field and image files under "photos".
func (h *AnswerHandler) Answer(c *gin.Context) {
	auditID, ok := pathID(c, "id")
	if !ok {
		return
	}

	itemID, ok := pathID(c, "itemId")
	if !ok {
		return
	}

	var (
		req      models.AnswerRequest
		uploaded []models.PhotoUpload
	)

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		var err error

		uploaded, err = h.bindMultipart(c, &req)
		if err != nil {
			h.respondBindError(c, err)
			return
		}

		req.Photos = uploaded
	} else if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")
		return
	}

	req.AuditID = auditID
	req.AuditItemID = itemID
	req.Actor = middleware.ActorFrom(c)

	result, err := h.answers.AnswerItem(c.Request.Context(), req)
	if err != nil {
		h.discard(c, uploaded)
		respondEngineError(c, h.log, err, "failed to record answer")
		return
	}

	c.JSON(http.StatusCreated, result)
}

// GetResponse handles GET /api/v1/audits/:id/items/:itemId/response.
func (h *AnswerHandler) GetResponse(c *gin.Context) {
	auditID, ok := pathID(c, "id")
	if !ok {
		return
	}

	itemID, ok := pathID(c, "itemId")
	if !ok {
		return
	}

	resp, err := h.query.GetResponse(c.Request.Context(), auditID, itemID)
	if err != nil {
		respondEngineError(c, h.log, err, "failed to get response")
		return
	}

	c.JSON(http.StatusOK, resp)
}

var (
	errNoPhotoStore   = errors.New("photo uploads are not enabled")
	errBadAnswerField = errors.New("answer field must be a JSON answer")
	errTooManyPhotos  = errors.New("too many photos")
)

// bindMultipart decodes the answer field into req and stores the photo files.
// The returned uploads must be discarded if the answer is not recorded.
func (h *AnswerHandler) bindMultipart(c *gin.Context, req *models.AnswerRequest) ([]models.PhotoUpload, error) {
	if h.photos == nil {
		return nil, errNoPhotoStore
	}

	form, err := c.MultipartForm()
	if err != nil {
		return nil, err
	}

	if v := form.Value[answerField]; len(v) > 0 {
		if err := json.Unmarshal([]byte(v[0]), req); err != nil {
			return nil, errBadAnswerField
		}
	}

	headers := form.File[photosField]
	if len(headers) > maxPhotoFiles {
		return nil, errTooManyPhotos
	}

	if len(headers) == 0 {
		return nil, nil
	}

	files := make([]service.PhotoFile, 0, len(headers))
	closers := make([]io.Closer, 0, len(headers))

	defer func() {
		for _, cl := range closers {
			cl.Close() //nolint:errcheck // read-only multipart part.
		}
	}()

	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}

		closers = append(closers, f)
		files = append(files, service.PhotoFile{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Body:        f,
		})
	}

	return h.photos.UploadPhotos(c.Request.Context(), files)
}

func (h *AnswerHandler) respondBindError(c *gin.Context, err error) {
	var maxBytes *http.MaxBytesError

	switch {
	case errors.Is(err, errNoPhotoStore):
		respondError(c, http.StatusUnsupportedMediaType, ErrCodeUnsupportedMedia, err.Error())
	case errors.Is(err, errBadAnswerField):
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())
	case errors.Is(err, errTooManyPhotos):
		respondError(c, http.StatusBadRequest, ErrCodeInvalidAnswer, fmt.Sprintf("at most %d photos may be attached", maxPhotoFiles))
	case errors.As(err, &maxBytes):
		respondError(c, http.StatusRequestEntityTooLarge, ErrCodePayloadTooLarge, "request body too large")
	case errors.Is(err, models.ErrInvalidAnswer):
		respondError(c, http.StatusBadRequest, ErrCodeInvalidAnswer, err.Error())
	case errors.Is(err, http.ErrNotMultipart), errors.Is(err, http.ErrMissingBoundary), errors.Is(err, multipart.ErrMessageTooLarge):
		respondError(c, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid multipart body")
	default:
		respondEngineError(c, h.log, err, "failed to store photos")
	}
}

// discard removes photos stored for an answer that was not recorded.
func (h *AnswerHandler) discard(c *gin.Context, uploaded []models.PhotoUpload) {
	if len(uploaded) == 0 {
		return
	}

	keys := make([]string, len(uploaded))
	for i := range uploaded {
		keys[i] = uploaded[i].StorageKey
	}

	if err := h.photos.Delete(context.WithoutCancel(c.Request.Context()), keys); err != nil {
		h.log.WithFields(middleware.LogFields(c)).WithError(err).Warn("failed to discard photos of rejected answer")
	}
}
