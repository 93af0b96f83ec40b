// Package main is the entry point for the documentation portal server.
//
// MAIN PACKAGE IN GO:
// Every Go program starts execution in the main() function of the "main" package.
// The main package should be kept minimal — its job is to:
// 1. Read configuration (from env vars)
// 2. Create the logger
// 3. Start the application
//
// All actual logic lives in imported packages (internal/server and below).
//
// WHY cmd/server/?
// The cmd/ directory is a Go convention for executable entry points.
// A project might have multiple executables (e.g., cmd/server, cmd/invite).
// Each gets its own directory with its own main.go.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sakif/docportal/internal/server"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))

	cfg, err := loadConfig(logger)
	if err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until the server is shut down (Ctrl+C or SIGTERM)
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// loadConfig reads the server configuration from environment variables.
//
// REQUIRED:
//   SESSION_SECRET         — signs session cookies ($(openssl rand -hex 32))
//   GITHUB_CLIENT_ID       — OAuth app for host login
//   GITHUB_CLIENT_SECRET
//   GITHUB_APP_ID          — GitHub App minting repository-scoped tokens
//   GITHUB_INSTALLATION_ID
//   GITHUB_PRIVATE_KEY_PATH — PEM file downloaded from the App settings page
//   DOCS_REPOSITORIES      — comma-separated repository names this portal serves
//
// OPTIONAL:
//   PORT (8080), DB_PATH (data/docportal.db), GITHUB_CALLBACK_URL,
//   REDIS_ADDR (in-memory store when unset), REDIS_PASSWORD
func loadConfig(logger *slog.Logger) (server.Config, error) {
	port := 8080
	if portStr := os.Getenv("PORT"); portStr != "" {
		var err error
		port, err = strconv.Atoi(portStr)
		if err != nil {
			return server.Config{}, fmt.Errorf("invalid PORT %q", portStr)
		}
	}

	dbPath := "data/docportal.db"
	if envDB := os.Getenv("DB_PATH"); envDB != "" {
		dbPath = envDB
	}
	// os.MkdirAll is like `mkdir -p` — creates all parents, no error if present.
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return server.Config{}, fmt.Errorf("creating database directory: %w", err)
	}

	sessionSecret := os.Getenv("SESSION_SECRET")
	if sessionSecret == "" {
		return server.Config{}, fmt.Errorf("SESSION_SECRET is required")
	}

	callbackURL := os.Getenv("GITHUB_CALLBACK_URL")
	if callbackURL == "" {
		callbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", port)
	}

	keyPath := os.Getenv("GITHUB_PRIVATE_KEY_PATH")
	if keyPath == "" {
		return server.Config{}, fmt.Errorf("GITHUB_PRIVATE_KEY_PATH is required")
	}
	keyPEM, err := os.ReadFile(keyPath)
	if err != nil {
		return server.Config{}, fmt.Errorf("reading GitHub App private key: %w", err)
	}

	repositories := splitAndTrim(os.Getenv("DOCS_REPOSITORIES"))
	if len(repositories) == 0 {
		return server.Config{}, fmt.Errorf("DOCS_REPOSITORIES is required")
	}

	if os.Getenv("REDIS_ADDR") == "" {
		logger.Warn("REDIS_ADDR not set — using the in-memory KV store")
	}

	cfg := server.Config{
		Port:                 port,
		DBPath:               dbPath,
		SessionSecret:        sessionSecret,
		GitHubClientID:       os.Getenv("GITHUB_CLIENT_ID"),
		GitHubClientSecret:   os.Getenv("GITHUB_CLIENT_SECRET"),
		GitHubCallbackURL:    callbackURL,
		GitHubAppID:          os.Getenv("GITHUB_APP_ID"),
		GitHubInstallationID: os.Getenv("GITHUB_INSTALLATION_ID"),
		GitHubPrivateKeyPEM:  keyPEM,
		RedisAddr:            os.Getenv("REDIS_ADDR"),
		RedisPassword:        os.Getenv("REDIS_PASSWORD"),
		DocsRepositories:     repositories,
	}

	for name, value := range map[string]string{
		"GITHUB_CLIENT_ID":       cfg.GitHubClientID,
		"GITHUB_CLIENT_SECRET":   cfg.GitHubClientSecret,
		"GITHUB_APP_ID":          cfg.GitHubAppID,
		"GITHUB_INSTALLATION_ID": cfg.GitHubInstallationID,
	} {
		if value == "" {
			return server.Config{}, fmt.Errorf("%s is required", name)
		}
	}

	return cfg, nil
}

func splitAndTrim(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
