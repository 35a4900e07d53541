// Package photostore keeps audit photos on the local filesystem and serves
// them back under a public base URL.
package photostore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/aptaudit/internal/metrics"
	"github.com/persistorai/aptaudit/internal/models"
	"github.com/persistorai/aptaudit/internal/service"
)

// Compile-time check.
var _ service.PhotoUploader = (*Local)(nil)

// ErrUnsupportedType is returned for files that are not a supported image.
var ErrUnsupportedType = fmt.Errorf("%w: unsupported photo type", models.ErrInvalidAnswer)

// ErrTooLarge is returned for files above the configured size limit.
var ErrTooLarge = fmt.Errorf("%w: photo exceeds size limit", models.ErrInvalidAnswer)

// extensions maps sniffed content types to stored file extensions.
var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// sniffLen is how many leading bytes http.DetectContentType inspects.
const sniffLen = 512

// Local stores photos under Dir and publishes them under BaseURL.
type Local struct {
	dir      string
	baseURL  string
	maxBytes int64
	log      *logrus.Logger
	now      func() time.Time
}

// NewLocal creates the photo directory if needed and returns a Local store.
func NewLocal(dir, baseURL string, maxBytes int64, log *logrus.Logger) (*Local, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating photo dir: %w", err)
	}

	return &Local{
		dir:      dir,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		maxBytes: maxBytes,
		log:      log,
		now:      time.Now,
	}, nil
}

// Dir returns the root directory photos are written to.
func (s *Local) Dir() string { return s.dir }

// UploadPhotos stores every file or none: on failure the files already
// written by this call are removed.
func (s *Local) UploadPhotos(ctx context.Context, files []service.PhotoFile) ([]models.PhotoUpload, error) {
	out := make([]models.PhotoUpload, 0, len(files))

	for i := range files {
		if err := ctx.Err(); err != nil {
			s.cleanup(out)

			return nil, err
		}

		p, err := s.store(&files[i])
		if err != nil {
			s.cleanup(out)

			return nil, fmt.Errorf("storing %s: %w", files[i].Filename, err)
		}

		out = append(out, *p)
	}

	return out, nil
}

// Delete removes stored photos. Missing files are not an error.
func (s *Local) Delete(_ context.Context, storageKeys []string) error {
	var errs []error

	for _, key := range storageKeys {
		full, err := s.path(key)
		if err != nil {
			errs = append(errs, err)

			continue
		}

		if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (s *Local) store(f *service.PhotoFile) (*models.PhotoUpload, error) {
	if f.Size > s.maxBytes {
		return nil, ErrTooLarge
	}

	head := make([]byte, sniffLen)

	n, err := io.ReadFull(f.Body, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("reading photo: %w", err)
	}

	head = head[:n]
	contentType := http.DetectContentType(head)

	ext, ok := extensions[contentType]
	if !ok {
		return nil, ErrUnsupportedType
	}

	key := path.Join(s.now().UTC().Format("2006/01"), uuid.NewString()+ext)

	full, err := s.path(key)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return nil, fmt.Errorf("creating photo dir: %w", err)
	}

	written, err := s.write(full, io.MultiReader(bytes.NewReader(head), f.Body))
	if err != nil {
		return nil, err
	}

	metrics.PhotoBytesStored.Add(float64(written))
	s.log.WithFields(logrus.Fields{"key": key, "bytes": written}).Debug("photo stored")

	return &models.PhotoUpload{
		URL:         s.baseURL + "/" + key,
		StorageKey:  key,
		ContentType: contentType,
		SizeBytes:   written,
	}, nil
}

// write copies r to a temp file next to full and renames it into place, so
// readers never see partial photos.
func (s *Local) write(full string, r io.Reader) (int64, error) {
	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}

	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after a successful rename.

	written, err := io.Copy(tmp, io.LimitReader(r, s.maxBytes+1))
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		return 0, fmt.Errorf("writing photo: %w", err)
	}

	if written > s.maxBytes {
		return 0, ErrTooLarge
	}

	if err := os.Rename(tmp.Name(), full); err != nil {
		return 0, fmt.Errorf("publishing photo: %w", err)
	}

	return written, nil
}

// path resolves key inside dir and rejects keys that would escape it.
func (s *Local) path(key string) (string, error) {
	clean := path.Clean("/" + key)
	if clean == "/" || strings.Contains(key, "..") {
		return "", fmt.Errorf("invalid storage key %q", key)
	}

	return filepath.Join(s.dir, filepath.FromSlash(clean)), nil
}

func (s *Local) cleanup(stored []models.PhotoUpload) {
	keys := make([]string, len(stored))
	for i := range stored {
		keys[i] = stored[i].StorageKey
	}

	if err := s.Delete(context.Background(), keys); err != nil {
		s.log.WithError(err).Warn("photo cleanup failed")
	}
}
