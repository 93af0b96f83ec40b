package middleware

import (
	"log/slog"
	"net/http"

	"github.com/sakif/docportal/internal/session"
)

// Session decodes the session cookie into a session.Session and stores it in
// the request context. It never rejects a request: a missing or invalid
// cookie just yields the anonymous session, and it's up to RequireAuth (or
// the handler) to decide whether anonymous is acceptable.
//
// WHY SPLIT DECODE FROM ENFORCE?
// Some routes serve both states (the login page shows "log in" or "you are
// logged in"), so decoding must not imply rejection. Enforcement is a
// separate, explicit wrapper on the routes that need it.
func Session(sessions *session.TokenService, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(session.CookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := sessions.Validate(cookie.Value)
			if err != nil {
				// Expired or tampered cookie — treat as anonymous, don't 401
				// here. Debug level: this is routine (expiry), not trouble.
				logger.Debug("session cookie rejected", slog.String("error", err.Error()))
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(session.WithSession(r.Context(), claims)))
		})
	}
}

// RequireAuth rejects anonymous requests with 401. Apply AFTER Session in
// the middleware chain — it only inspects what Session already decoded.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !session.FromContext(r.Context()).IsAuthenticated() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"unauthorized","message":"authentication required"}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}
