package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/sakif/docportal/internal/model"
)

// TokenService signs and verifies the session cookie JWT.
//
// WHY JWT?
// The session cookie is stateless — the server doesn't store session rows.
// Everything a request needs to rebuild its Session (user ID, email, account
// provider) is inside the signed token, and the signature ensures nobody can
// tamper with it without the secret key. The credentials themselves (OAuth
// tokens) are NOT in the cookie; they live server-side in the token
// repositories, keyed by the user ID the cookie carries.
type TokenService struct {
	secret   []byte
	lifetime time.Duration
}

const issuer = "docportal"

// CookieName is the HTTP cookie carrying the session JWT. Declared here so
// the handler that sets it and the middleware that reads it agree.
const CookieName = "session"

// DefaultSessionLifetime is how long a session cookie stays valid. After
// expiry the user re-authenticates; the server-side credential pipeline has
// its own, independent refresh handling.
const DefaultSessionLifetime = 24 * time.Hour

// NewTokenService creates a TokenService with the given secret.
// The secret should be at least 32 bytes of random data in production.
// Example: SESSION_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("session: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret), lifetime: DefaultSessionLifetime}, nil
}

// sessionClaims is the JWT payload. It embeds jwt.RegisteredClaims (Subject,
// ExpiresAt, IssuedAt, Issuer) and adds our custom claims.
//
// "sub" holds the internal user ID — the standard claim for who the token
// belongs to. "provider" is the account provider tag ("github" | "email")
// that strategy-routed components dispatch on.
type sessionClaims struct {
	Email    string `json:"email,omitempty"`
	Provider string `json:"provider"`
	jwt.RegisteredClaims
}

// Generate creates and signs a session JWT for an authenticated user.
//
// Signing algorithm: HS256 (HMAC-SHA256) — symmetric, same key signs and
// verifies. Fine for a deployment where every server shares the secret.
func (s *TokenService) Generate(userID, email string, provider model.AccountProviderType) (string, error) {
	now := time.Now()

	c := sessionClaims{
		Email:    email,
		Provider: string(provider),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.lifetime)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("session: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a session JWT, returning the decoded Claims.
//
// VALIDATION CHECKS (performed by the jwt library):
//   - Signature is valid (wasn't tampered with)
//   - Token is not expired
//   - Issuer matches (prevents tokens minted by other apps)
//   - Algorithm is HS256 (prevents algorithm confusion attacks)
//
// The provider claim is additionally validated against the closed
// AccountProviderType set — a cookie with an unknown provider is rejected
// outright rather than handed to downstream routing.
func (s *TokenService) Validate(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&sessionClaims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("session: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("session: token expired")
		}
		return nil, fmt.Errorf("session: invalid token: %w", err)
	}

	c, ok := token.Claims.(*sessionClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("session: invalid token claims")
	}

	if c.Subject == "" {
		return nil, fmt.Errorf("session: token has no subject")
	}
	provider, err := model.ParseAccountProviderType(c.Provider)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}

	return &Claims{
		UserIDValue:   c.Subject,
		EmailValue:    c.Email,
		ProviderValue: provider,
	}, nil
}
