// Package github talks to the GitHub REST API on behalf of the portal's
// GitHub App: minting installation access tokens scoped to specific
// repositories. Host OAuth (the login dance) lives in internal/auth; this
// package is only the App-to-GitHub machine credential side.
package github

import (
	"bytes"
	"context"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// DefaultAPIBaseURL is the public GitHub REST endpoint.
const DefaultAPIBaseURL = "https://api.github.com"

// appJWTLifetime is how long the self-signed App JWT is valid. GitHub caps
// this at 10 minutes; we stay well under so clock skew between us and
// GitHub never pushes the token over the limit.
const appJWTLifetime = 5 * time.Minute

// AppConfig identifies the GitHub App installation this deployment mints
// tokens from.
type AppConfig struct {
	AppID          string
	InstallationID string
	PrivateKey     *rsa.PrivateKey
	// BaseURL overrides the GitHub API endpoint (tests, GitHub Enterprise).
	// Empty means DefaultAPIBaseURL.
	BaseURL string
}

// AppInstallationClient mints installation access tokens.
//
// HOW MINTING WORKS:
//  1. Sign a short-lived RS256 JWT with the App's private key. This proves
//     to GitHub that we ARE the App.
//  2. POST to /app/installations/{id}/access_tokens with the repository
//     list we want the token scoped to. GitHub answers with a token valid
//     for about an hour, readable only in those repositories.
//
// The client does not cache: each call mints a fresh token. Caching and
// per-user locking are the job of the persisting data source wrapped
// around this client.
type AppInstallationClient struct {
	config AppConfig
	client *http.Client
}

// NewAppInstallationClient creates a client over the given HTTP client
// (pass http.DefaultClient outside tests).
func NewAppInstallationClient(config AppConfig, client *http.Client) *AppInstallationClient {
	if config.BaseURL == "" {
		config.BaseURL = DefaultAPIBaseURL
	}
	return &AppInstallationClient{config: config, client: client}
}

type accessTokenRequest struct {
	Repositories []string `json:"repositories,omitempty"`
}

type accessTokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// GetAccessToken mints an installation token scoped to exactly the given
// repositories. An empty list means the token covers every repository the
// installation can reach, so callers are expected to always pass the
// resolved access list.
func (c *AppInstallationClient) GetAccessToken(ctx context.Context, repositoryNames []string) (string, error) {
	appJWT, err := c.signAppJWT()
	if err != nil {
		return "", fmt.Errorf("github: signing app JWT: %w", err)
	}

	body, err := json.Marshal(accessTokenRequest{Repositories: repositoryNames})
	if err != nil {
		return "", fmt.Errorf("github: encoding token request: %w", err)
	}

	url := fmt.Sprintf("%s/app/installations/%s/access_tokens", c.config.BaseURL, c.config.InstallationID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("github: building token request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+appJWT)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("github: requesting installation token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("github: installation token request returned %d: %s", resp.StatusCode, detail)
	}

	var decoded accessTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("github: decoding installation token response: %w", err)
	}
	if decoded.Token == "" {
		return "", fmt.Errorf("github: installation token response carried no token")
	}

	return decoded.Token, nil
}

// signAppJWT builds the App-identity JWT GitHub requires on the mint call.
// The iat backdate absorbs small clock skew (GitHub rejects tokens issued
// "in the future").
func (c *AppInstallationClient) signAppJWT() (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Issuer:    c.config.AppID,
		IssuedAt:  jwt.NewNumericDate(now.Add(-30 * time.Second)),
		ExpiresAt: jwt.NewNumericDate(now.Add(appJWTLifetime)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(c.config.PrivateKey)
	if err != nil {
		return "", fmt.Errorf("github: signing with app private key: %w", err)
	}
	return signed, nil
}

// ParsePrivateKey parses the App's PEM-encoded RSA private key as GitHub
// hands it out (PKCS#1, "BEGIN RSA PRIVATE KEY").
func ParsePrivateKey(pemBytes []byte) (*rsa.PrivateKey, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM(pemBytes)
	if err != nil {
		return nil, fmt.Errorf("github: parsing app private key: %w", err)
	}
	return key, nil
}
