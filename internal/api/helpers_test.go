package api_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/persistorai/aptaudit/internal/middleware"
)

const testActor = "inspector@example.com"

func init() {
	gin.SetMode(gin.TestMode)
}

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.ErrorLevel)

	return l
}

// newTestRouter creates a gin engine with request id and actor middleware.
func newTestRouter() *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(testLogger()))
	r.Use(middleware.Actor())

	return r
}

// doRequest performs an HTTP request against the test router and returns the recorder.
func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, http.NoBody)
	}

	req.Header.Set(middleware.ActorHeader, testActor)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

// doMultipart posts an answer field and photo files as multipart/form-data.
func doMultipart(t *testing.T, r *gin.Engine, path, answer string, photos map[string][]byte) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	if answer != "" {
		if err := mw.WriteField("answer", answer); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}

	for name, data := range photos {
		fw, err := mw.CreateFormFile("photos", name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}

		if _, err := fw.Write(data); err != nil {
			t.Fatalf("write form file: %v", err)
		}
	}

	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(middleware.ActorHeader, testActor)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON %q: %v", w.Body.String(), err)
	}

	return body
}
