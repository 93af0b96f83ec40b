package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/rs/xid"

	"github.com/sakif/docportal/internal/apperror"
	"github.com/sakif/docportal/internal/auth"
	"github.com/sakif/docportal/internal/model"
	"github.com/sakif/docportal/internal/repository"
	"github.com/sakif/docportal/internal/session"
)

// AuthHandler manages both login flows and logout.
//
// HANDLER RESPONSIBILITIES:
//   - HandleGitHubLogin    → redirect the browser to GitHub's authorization page
//   - HandleGitHubCallback → receive the code, establish a host session
//   - HandleGuestLogin     → email + password login for invited guests
//   - HandleLogout         → run the logout pipeline and clear the cookie
//
// THE LOGIN CONTRACT:
// A login only succeeds as a whole. After identity is established (OAuth
// exchange or password check), the login pipeline runs — transferring
// credentials into the token stores — and if ANY step of it fails, no
// session cookie is issued. A user is never "logged in" without a usable
// credential behind them.
type AuthHandler struct {
	github   *auth.GitHubProvider
	sessions *session.TokenService
	users    repository.UserRepository
	guests   repository.GuestRepository
	accounts repository.AccountRepository
	password *auth.PasswordService
	login    auth.LogInHandler
	logout   auth.LogOutHandler
	logger   *slog.Logger
}

// NewAuthHandler creates an AuthHandler. All dependencies are injected here;
// the handler has no knowledge of how they're constructed.
func NewAuthHandler(
	github *auth.GitHubProvider,
	sessions *session.TokenService,
	users repository.UserRepository,
	guests repository.GuestRepository,
	accounts repository.AccountRepository,
	password *auth.PasswordService,
	login auth.LogInHandler,
	logout auth.LogOutHandler,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		github:   github,
		sessions: sessions,
		users:    users,
		guests:   guests,
		accounts: accounts,
		password: password,
		login:    login,
		logout:   logout,
		logger:   logger,
	}
}

// HandleGitHubLogin redirects the user to GitHub's authorization page.
//
// HTTP: GET /auth/github/login
//
// CSRF PROTECTION VIA STATE:
// We generate a random state string and store it in a short-lived cookie.
// When GitHub calls back, HandleGitHubCallback verifies the state matches.
// This proves the callback was initiated by this server, not a CSRF attacker.
func (h *AuthHandler) HandleGitHubLogin(w http.ResponseWriter, r *http.Request) {
	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10 minutes
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, h.github.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleGitHubCallback completes the OAuth login flow.
//
// HTTP: GET /auth/github/callback?code=xxx&state=yyy
//
// FLOW:
//  1. Validate the state parameter (CSRF check)
//  2. Exchange the code for a GitHub user profile + OAuth token
//  3. Upsert the user and record the provider token (accounts table)
//  4. Run the login pipeline — fail closed: any error means no session
//  5. Issue the session JWT cookie and redirect home
func (h *AuthHandler) HandleGitHubCallback(w http.ResponseWriter, r *http.Request) {
	// --- Step 1: Validate CSRF state ---
	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" {
		h.logger.Warn("auth callback: missing state cookie")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}

	if r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("auth callback: state mismatch")
		http.Error(w, "invalid OAuth state", http.StatusBadRequest)
		return
	}

	// Clear the state cookie — it's single-use
	http.SetCookie(w, &http.Cookie{
		Name:   "oauth_state",
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	// User denied authorization on GitHub's page
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("auth callback: user denied authorization",
			slog.String("error", errParam),
		)
		http.Redirect(w, r, "/?auth=denied", http.StatusSeeOther)
		return
	}

	// --- Step 2: Exchange code for profile + token ---
	code := r.URL.Query().Get("code")
	if code == "" {
		http.Error(w, "missing OAuth code", http.StatusBadRequest)
		return
	}

	ghUser, oauthToken, err := h.github.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("auth callback: GitHub exchange failed", slog.String("error", err.Error()))
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	// --- Step 3: Upsert user and record the provider token ---
	user := &model.User{
		GitHubID:  ghUser.ID,
		Login:     ghUser.Login,
		Email:     ghUser.Email,
		AvatarURL: ghUser.AvatarURL,
	}
	if err := h.users.Upsert(r.Context(), user); err != nil {
		h.logger.Error("auth callback: upsert failed",
			slog.Int64("githubID", ghUser.ID),
			slog.String("error", err.Error()),
		)
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	if err := h.accounts.UpsertToken(r.Context(), user.ID, oauthToken); err != nil {
		h.logger.Error("auth callback: recording provider token failed",
			slog.String("userID", user.ID),
			slog.String("error", err.Error()),
		)
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	// --- Step 4: Run the login pipeline (fail closed) ---
	// The pipeline components read identity from the session in context, so
	// build the would-be session before the cookie exists.
	claims := &session.Claims{
		UserIDValue:   user.ID,
		EmailValue:    user.Email,
		ProviderValue: model.AccountProviderGitHub,
	}
	if err := h.login.HandleLogIn(session.WithSession(r.Context(), claims), user.ID); err != nil {
		h.logger.Error("auth callback: login pipeline failed",
			slog.String("userID", user.ID),
			slog.String("error", err.Error()),
		)
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	h.logger.Info("user authenticated",
		slog.String("userID", user.ID),
		slog.String("login", user.Login),
	)

	// --- Step 5: Issue the session cookie and redirect ---
	if err := h.issueSessionCookie(w, claims); err != nil {
		h.logger.Error("auth callback: session issue failed", slog.String("error", err.Error()))
		http.Error(w, "authentication failed", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// guestLoginRequest is the POST body for guest login.
type guestLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// HandleGuestLogin authenticates an invited guest with email + password.
//
// HTTP: POST /auth/guest/login
//
// The error for "no such guest" and "wrong password" is identical on the
// wire — distinguishing them would let an attacker probe which emails have
// guest accounts.
func (h *AuthHandler) HandleGuestLogin(w http.ResponseWriter, r *http.Request) {
	var req guestLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperror.ValidationFailed("body", "invalid JSON body"))
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, apperror.ValidationFailed("body", "email and password are required"))
		return
	}

	guest, err := h.guests.FindByEmail(r.Context(), req.Email)
	if err != nil {
		h.logger.Error("guest login: lookup failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}
	if guest == nil {
		writeError(w, apperror.Unauthorized("invalid email or password"))
		return
	}

	if err := h.password.Verify(guest.PasswordHash, req.Password); err != nil {
		writeError(w, apperror.Unauthorized("invalid email or password"))
		return
	}

	claims := &session.Claims{
		UserIDValue:   guest.ID,
		EmailValue:    guest.Email,
		ProviderValue: model.AccountProviderEmail,
	}
	if err := h.login.HandleLogIn(session.WithSession(r.Context(), claims), guest.ID); err != nil {
		h.logger.Error("guest login: login pipeline failed",
			slog.String("userID", guest.ID),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	if err := h.issueSessionCookie(w, claims); err != nil {
		h.logger.Error("guest login: session issue failed", slog.String("error", err.Error()))
		writeError(w, err)
		return
	}

	h.logger.Info("guest authenticated", slog.String("userID", guest.ID))
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged in"})
}

// HandleLogout runs the logout pipeline and clears the session cookie.
//
// HTTP: POST /auth/logout
//
// FAIL OPEN:
// The cleanup handlers (token deletion, cache eviction) are wrapped so their
// failures are logged, not surfaced — the cookie is cleared regardless. A
// user must always be able to leave.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if session.FromContext(r.Context()).IsAuthenticated() {
		if err := h.logout.HandleLogOut(r.Context()); err != nil {
			// Only reachable if a handler was wired without the
			// error-ignoring wrapper; still don't block the logout.
			h.logger.Warn("logout pipeline reported an error", slog.String("error", err.Error()))
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1, // delete immediately
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

func (h *AuthHandler) issueSessionCookie(w http.ResponseWriter, claims *session.Claims) error {
	token, err := h.sessions.Generate(claims.UserIDValue, claims.EmailValue, claims.ProviderValue)
	if err != nil {
		return err
	}

	// HttpOnly = JavaScript cannot read this cookie (XSS protection).
	// SameSite=Lax = sent on top-level navigations, not cross-site POSTs.
	// Secure should be true in production (HTTPS only).
	http.SetCookie(w, &http.Cookie{
		Name:     session.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(session.DefaultSessionLifetime.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}
