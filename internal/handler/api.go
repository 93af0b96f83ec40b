package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/docportal/internal/auth"
	"github.com/sakif/docportal/internal/model"
	"github.com/sakif/docportal/internal/repository"
	"github.com/sakif/docportal/internal/session"
)

// APIHandler serves the authenticated portal API: who am I, is my session
// still good, which repositories can I read, and a scoped token to read
// them with.
type APIHandler struct {
	users     repository.UserRepository
	guests    repository.GuestRepository
	validator auth.SessionValidator
	access    auth.RepositoryAccessReader
	scoped    *auth.RepositoryRestrictingAccessTokenDataSource
	logger    *slog.Logger
}

// NewAPIHandler creates the API handler.
func NewAPIHandler(
	users repository.UserRepository,
	guests repository.GuestRepository,
	validator auth.SessionValidator,
	access auth.RepositoryAccessReader,
	scoped *auth.RepositoryRestrictingAccessTokenDataSource,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		users:     users,
		guests:    guests,
		validator: validator,
		access:    access,
		scoped:    scoped,
		logger:    logger,
	}
}

// HandleMe returns the current user's profile — a host's GitHub profile or a
// guest's account record.
//
// HTTP: GET /api/me
// Auth: required (session middleware rejects anonymous requests)
func (h *APIHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())

	userID, err := sess.UserID()
	if err != nil {
		writeError(w, err)
		return
	}

	provider, err := sess.AccountProvider()
	if err != nil {
		writeError(w, err)
		return
	}

	if provider == model.AccountProviderEmail {
		guest, err := h.guests.FindByID(r.Context(), userID)
		if err != nil {
			h.logger.Error("HandleMe: guest lookup failed", slog.String("userID", userID))
			writeError(w, err)
			return
		}
		if guest == nil {
			http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
			return
		}
		writeJSON(w, http.StatusOK, guest)
		return
	}

	user, err := h.users.GetUserByID(r.Context(), userID)
	if err != nil {
		h.logger.Error("HandleMe: user not found", slog.String("userID", userID))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// SessionStatusResponse reports whether the session's credentials are
// usable. The frontend polls this and routes to login on "invalid".
type SessionStatusResponse struct {
	Validity string `json:"validity"` // "valid" | "invalid_access_token"
}

// HandleSession reports the session's credential validity.
//
// HTTP: GET /api/session
// Auth: required
//
// Always 200: "is my credential still good?" is a successful question to
// answer even when the answer is no. The validator itself never errors.
func (h *APIHandler) HandleSession(w http.ResponseWriter, r *http.Request) {
	validity := h.validator.ValidateSession(r.Context())
	writeJSON(w, http.StatusOK, SessionStatusResponse{Validity: validity.String()})
}

// RepositoriesResponse lists the repositories the user may read.
type RepositoriesResponse struct {
	Repositories []string `json:"repositories"`
}

// HandleRepositories returns the user's authorized repository list.
//
// HTTP: GET /api/repositories
// Auth: required
func (h *APIHandler) HandleRepositories(w http.ResponseWriter, r *http.Request) {
	userID, err := session.FromContext(r.Context()).UserID()
	if err != nil {
		writeError(w, err)
		return
	}

	names, err := h.access.GetRepositoryNames(r.Context(), userID)
	if err != nil {
		h.logger.Error("HandleRepositories: access resolution failed",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}
	if names == nil {
		names = []string{}
	}

	writeJSON(w, http.StatusOK, RepositoriesResponse{Repositories: names})
}

// TokenResponse carries a short-lived, repository-scoped access token.
type TokenResponse struct {
	AccessToken string `json:"accessToken"`
}

// HandleToken mints a token scoped to exactly the user's authorized
// repositories — the docs frontend uses it to fetch raw content.
//
// HTTP: GET /api/token
// Auth: required
func (h *APIHandler) HandleToken(w http.ResponseWriter, r *http.Request) {
	userID, err := session.FromContext(r.Context()).UserID()
	if err != nil {
		writeError(w, err)
		return
	}

	token, err := h.scoped.GetAccessToken(r.Context(), userID)
	if err != nil {
		h.logger.Error("HandleToken: mint failed",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, TokenResponse{AccessToken: token})
}
