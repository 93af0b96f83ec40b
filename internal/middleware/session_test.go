package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sakif/docportal/internal/model"
	"github.com/sakif/docportal/internal/session"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSessions(t *testing.T) *session.TokenService {
	t.Helper()
	ts, err := session.NewTokenService("test-secret-at-least-16-chars")
	if err != nil {
		t.Fatalf("creating token service: %v", err)
	}
	return ts
}

// sessionProbe records the session the middleware left in the request
// context.
func sessionProbe(captured *session.Session) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured = session.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestSessionMiddlewareValidCookie(t *testing.T) {
	sessions := testSessions(t)
	token, err := sessions.Generate("user-1", "dev@example.com", model.AccountProviderGitHub)
	if err != nil {
		t.Fatalf("generating token: %v", err)
	}

	var got session.Session
	handler := Session(sessions, testLogger())(sessionProbe(&got))

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: token})
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got == nil || !got.IsAuthenticated() {
		t.Fatal("expected an authenticated session")
	}
	userID, err := got.UserID()
	if err != nil || userID != "user-1" {
		t.Errorf("UserID() = %q, %v; want user-1", userID, err)
	}
}

func TestSessionMiddlewareMissingCookieIsAnonymous(t *testing.T) {
	var got session.Session
	handler := Session(testSessions(t), testLogger())(sessionProbe(&got))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if got == nil {
		t.Fatal("downstream saw no session at all; want the anonymous session")
	}
	if got.IsAuthenticated() {
		t.Error("request without a cookie came through authenticated")
	}
}

func TestSessionMiddlewareGarbageCookieIsAnonymous(t *testing.T) {
	var got session.Session
	handler := Session(testSessions(t), testLogger())(sessionProbe(&got))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: "not.a.jwt"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	// A bad cookie must not block the request; it just isn't a login.
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
	if got.IsAuthenticated() {
		t.Error("garbage cookie came through authenticated")
	}
}

func TestRequireAuthRejectsAnonymous(t *testing.T) {
	var reached bool
	handler := RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/me", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
	if reached {
		t.Error("protected handler ran for an anonymous request")
	}
	if !strings.Contains(rec.Body.String(), "unauthorized") {
		t.Errorf("body = %q, want an unauthorized error", rec.Body.String())
	}
}

func TestRequireAuthPassesAuthenticated(t *testing.T) {
	var reached bool
	handler := RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req = req.WithContext(session.WithSession(req.Context(), &session.Claims{
		UserIDValue:   "user-1",
		EmailValue:    "dev@example.com",
		ProviderValue: model.AccountProviderGitHub,
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK || !reached {
		t.Errorf("status = %d, reached = %v; want 200 and handler run", rec.Code, reached)
	}
}
