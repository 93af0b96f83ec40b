package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sakif/docportal/internal/model"
	"github.com/sakif/docportal/internal/session"
)

// captureLogLine runs one request through the Logger middleware and decodes
// the single JSON log line it emits.
func captureLogLine(t *testing.T, req *http.Request, handler http.HandlerFunc) map[string]any {
	t.Helper()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	Logger(logger)(handler).ServeHTTP(httptest.NewRecorder(), req)

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log output is not one JSON line: %v\n%s", err, buf.String())
	}
	return line
}

func TestLoggerNamesSessionUser(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/repositories", nil)
	req = req.WithContext(session.WithSession(req.Context(), &session.Claims{
		UserIDValue:   "guest-1",
		EmailValue:    "reviewer@example.com",
		ProviderValue: model.AccountProviderEmail,
	}))

	line := captureLogLine(t, req, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	if line["user"] != "guest-1" {
		t.Errorf("user = %v, want guest-1", line["user"])
	}
	if line["provider"] != "email" {
		t.Errorf("provider = %v, want email", line["provider"])
	}
	if line["path"] != "/api/repositories" {
		t.Errorf("path = %v, want /api/repositories", line["path"])
	}
}

func TestLoggerMarksAnonymousRequests(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/auth/github/login", nil)

	line := captureLogLine(t, req, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	if line["user"] != "anonymous" {
		t.Errorf("user = %v, want anonymous", line["user"])
	}
	if line["provider"] != "none" {
		t.Errorf("provider = %v, want none", line["provider"])
	}
}

func TestLoggerRecordsStatusAndBytes(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)

	line := captureLogLine(t, req, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"not_found"}`))
	})

	// JSON numbers decode as float64.
	if line["status"] != float64(http.StatusNotFound) {
		t.Errorf("status = %v, want 404", line["status"])
	}
	if line["bytes"] != float64(len(`{"error":"not_found"}`)) {
		t.Errorf("bytes = %v, want the body length", line["bytes"])
	}
}
