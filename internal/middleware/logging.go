// Package middleware carries the portal's HTTP middleware: request logging,
// session-cookie decoding, and the authentication gate on the API subtree.
// Each piece wraps the next handler and adds one cross-cutting behaviour;
// the composition root in internal/server decides the order.
package middleware

import (
	"log/slog"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/docportal/internal/session"
)

// statusRecorder wraps http.ResponseWriter to keep the status code and body
// size, which the interface itself never hands back to the caller.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	n, err := r.ResponseWriter.Write(b)
	r.bytes += int64(n)
	return n, err
}

// Logger logs one slog line per completed request.
//
// It runs inside the session decoder, so every line can say who the request
// was for: the session user ID and the account provider that tells hosts
// from guests. Anonymous requests log as "anonymous" rather than omitting
// the attribute — an absent field is ambiguous in a log search, the word is
// not. The chi request ID is included so one request's lines correlate.
func Logger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rec := &statusRecorder{
				ResponseWriter: w,
				status:         http.StatusOK, // unless WriteHeader says otherwise
			}
			next.ServeHTTP(rec, r)

			user, provider := "anonymous", "none"
			if sess := session.FromContext(r.Context()); sess.IsAuthenticated() {
				if id, err := sess.UserID(); err == nil {
					user = id
				}
				if p, err := sess.AccountProvider(); err == nil {
					provider = string(p)
				}
			}

			logger.Info("request completed",
				slog.String("requestID", chimiddleware.GetReqID(r.Context())),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("user", user),
				slog.String("provider", provider),
				slog.Int("status", rec.status),
				slog.Duration("duration", time.Since(start)),
				slog.Int64("bytes", rec.bytes),
			)
		})
	}
}
