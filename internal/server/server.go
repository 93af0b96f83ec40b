// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the "wiring" layer — the composition root where the whole
// auth pipeline is assembled from its small pieces. Nothing else in the
// codebase constructs pipeline components; everything receives them.
//
// WHY SEPARATE FROM main.go?
// Keeping server setup in its own package makes it:
// - Testable (we can create a test server without running main)
// - Reusable (multiple entry points could use the same server config)
// - Clean (main.go stays minimal — load config, start the server)
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/docportal/internal/auth"
	"github.com/sakif/docportal/internal/github"
	"github.com/sakif/docportal/internal/handler"
	"github.com/sakif/docportal/internal/kv"
	"github.com/sakif/docportal/internal/middleware"
	"github.com/sakif/docportal/internal/mutex"
	sqliteRepo "github.com/sakif/docportal/internal/repository/sqlite"
	"github.com/sakif/docportal/internal/session"
)

// Config holds server configuration, loaded from the environment by main.
type Config struct {
	Port   int
	DBPath string

	// SessionSecret signs the session JWT cookie (≥16 chars).
	SessionSecret string

	// GitHub OAuth app (host login).
	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string

	// GitHub App installation (guest token minting and scoped doc tokens).
	GitHubAppID          string
	GitHubInstallationID string
	GitHubPrivateKeyPEM  []byte

	// RedisAddr enables the Redis-backed KV store. Empty means the in-memory
	// store — fine for a single process, lost on restart.
	RedisAddr     string
	RedisPassword string

	// DocsRepositories is the set of documentation repositories this
	// deployment serves; it is what host accounts get access to.
	DocsRepositories []string
}

// Server represents the HTTP server and all its dependencies.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB // owned by the server, closed on shutdown
}

// New creates a new Server, wiring the full dependency graph.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes assembles the auth pipeline and binds it to routes.
//
// ROUTE STRUCTURE:
// GET    /auth/github/login     → redirect to GitHub authorization
// GET    /auth/github/callback  → complete host login
// POST   /auth/guest/login      → guest email + password login
// POST   /auth/logout           → run logout pipeline, clear cookie
// GET    /api/me                → current user profile
// GET    /api/session           → session credential validity
// GET    /api/repositories      → authorized repository list
// GET    /api/token             → repository-scoped access token
//
// MIDDLEWARE ORDER MATTERS:
// RequestID → RealIP → Recoverer → session decode → request logging. The
// session middleware runs globally (decode never rejects) and sits outside
// the logger so every log line can name the session user; RequireAuth is
// applied only to the /api subtree.
func (s *Server) setupRoutes() error {
	sessions, err := session.NewTokenService(s.config.SessionSecret)
	if err != nil {
		return fmt.Errorf("creating session token service: %w", err)
	}

	// === KV store ===
	// One underlying store, namespaced per concern through UserDataRepository
	// base keys. Redis in production so every server process sees the same
	// tokens and caches; in-memory otherwise.
	var store kv.Store
	if s.config.RedisAddr != "" {
		redisStore, err := kv.NewRedisStore(context.Background(), kv.RedisConfig{
			Addr:      s.config.RedisAddr,
			Password:  s.config.RedisPassword,
			KeyPrefix: "docportal:",
		})
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		store = redisStore
		s.logger.Info("using redis KV store", slog.String("addr", s.config.RedisAddr))
	} else {
		store = kv.NewMemoryStore()
		s.logger.Warn("using in-memory KV store; tokens and caches are lost on restart")
	}

	oauthTokenEntries := kv.NewUserDataRepository(store, "oauthToken")
	providerCache := kv.NewUserDataRepository(store, "identityProvider")
	accessCache := kv.NewUserDataRepository(store, "repositoryAccess")

	mutexes := mutex.NewKeyedFactory()

	// === External collaborators ===
	githubProvider := auth.NewGitHubProvider(
		s.config.GitHubClientID,
		s.config.GitHubClientSecret,
		s.config.GitHubCallbackURL,
	)

	appKey, err := github.ParsePrivateKey(s.config.GitHubPrivateKeyPEM)
	if err != nil {
		return err
	}
	installation := github.NewAppInstallationClient(github.AppConfig{
		AppID:          s.config.GitHubAppID,
		InstallationID: s.config.GitHubInstallationID,
		PrivateKey:     appKey,
	}, http.DefaultClient)

	// === Token repositories ===
	// The KV repository is the fast, writable tier; the accounts table is
	// the durable, read-only one the OAuth callback fills. The fallback
	// heals the KV tier from the accounts table when an entry is missing
	// (fresh Redis, TTL expiry).
	kvTokens := auth.NewKVOAuthTokenRepository(oauthTokenEntries)
	accountTokens := auth.NewAccountOAuthTokenRepository(s.db)
	tokens := auth.NewFallbackOAuthTokenRepository(kvTokens, accountTokens)

	// Bare guest access tokens, 7-day TTL. Written at login, required by the
	// guest validator below — so a guest's session stops validating a week
	// after their last login no matter what else is cached.
	guestAccessTokens := auth.NewGuestAccessTokenRepository(store)

	// === Readers ===
	providerReader := auth.NewCachedUserIdentityProviderReader(
		auth.NewStoreUserIdentityProviderReader(s.db, s.db),
		providerCache,
		s.logger,
	)
	guestReader := auth.NewIsUserGuestReader(providerReader)

	accessReader := auth.NewCachedRepositoryAccessReader(
		auth.NewRoutedRepositoryAccessReader(guestReader, s.db, s.config.DocsRepositories),
		accessCache,
		s.logger,
	)

	// === Data sources ===
	guestSource := auth.NewGuestOAuthTokenDataSource(s.db, installation)
	// Guests re-mint on demand; the persisting wrapper keeps that to at most
	// one mint per user at a time and parks the result in the KV tier.
	persistingGuestSource := auth.NewPersistingOAuthTokenDataSource(guestSource, kvTokens, mutexes)
	hostSource := auth.NewSessionOAuthTokenDataSource(tokens)

	scopedTokens := auth.NewRepositoryRestrictingAccessTokenDataSource(accessReader, installation)

	// === Refreshers ===
	refresher := auth.NewLockingOAuthTokenRefresher(
		auth.NewProviderRoutedOAuthTokenRefresher(
			auth.NewGitHubOAuthTokenRefresher(githubProvider.Config()),
			auth.NewGuestOAuthTokenRefresher(guestSource),
		),
		mutexes,
	)

	// === Validators ===
	// Hosts: their stored OAuth token must be obtainable — repaired by a
	// refresh if stale. Guests: obtainable via re-mint.
	hostValidator := auth.NewRefreshingSessionValidator(
		auth.NewOAuthTokenSessionValidator(hostSource, s.logger),
		tokens,
		refresher,
		s.logger,
	)
	guestValidator := auth.NewMergedSessionValidator(
		auth.NewOAuthTokenSessionValidator(persistingGuestSource, s.logger),
		auth.NewAccessTokenSessionValidator(
			auth.NewSessionAccessTokenDataSource(guestAccessTokens), s.logger,
		),
	)
	validator := auth.NewGuestHostRoutedSessionValidator(guestReader, guestValidator, hostValidator)

	// === Login / logout pipelines ===
	login := auth.NewCompositeLogInHandler(
		auth.NewCredentialTransferLogInHandler(
			auth.NewProviderRoutedCredentialTransferrer(
				auth.NewGitHubCredentialTransferrer(accountTokens, kvTokens),
				auth.NewGuestCredentialTransferrer(s.db, installation, kvTokens, guestAccessTokens),
			),
		),
	)

	// Every cleanup member is wrapped so one flaky store can't trap a user
	// in a session they're trying to leave.
	logout := auth.NewCompositeLogOutHandler(
		auth.NewErrorIgnoringLogOutHandler(auth.NewUserDataCleanupLogOutHandler(kvTokens), s.logger),
		auth.NewErrorIgnoringLogOutHandler(auth.NewUserDataCleanupLogOutHandler(providerCache), s.logger),
		auth.NewErrorIgnoringLogOutHandler(auth.NewUserDataCleanupLogOutHandler(accessCache), s.logger),
		auth.NewErrorIgnoringLogOutHandler(auth.NewUserDataCleanupLogOutHandler(guestAccessTokens), s.logger),
	)

	// === Handlers ===
	passwords := auth.NewPasswordService()
	authHandler := handler.NewAuthHandler(
		githubProvider, sessions, s.db, s.db, s.db, passwords, login, logout, s.logger,
	)
	apiHandler := handler.NewAPIHandler(s.db, s.db, validator, accessReader, scopedTokens, s.logger)

	// === Global middleware ===
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Session(sessions, s.logger))
	s.router.Use(middleware.Logger(s.logger))

	// === Routes ===
	s.router.Route("/auth", func(r chi.Router) {
		r.Get("/github/login", authHandler.HandleGitHubLogin)
		r.Get("/github/callback", authHandler.HandleGitHubCallback)
		r.Post("/guest/login", authHandler.HandleGuestLogin)
		r.Post("/logout", authHandler.HandleLogout)
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/me", apiHandler.HandleMe)
		r.Get("/session", apiHandler.HandleSession)
		r.Get("/repositories", apiHandler.HandleRepositories)
		r.Get("/token", apiHandler.HandleToken)
	})

	return nil
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
// 1. Stop accepting new HTTP connections
// 2. Wait for in-flight requests to finish (30s timeout)
// 3. Close the database connection (flushes WAL, releases the file lock)
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
