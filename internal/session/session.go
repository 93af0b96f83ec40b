// Package session models the authenticated (or anonymous) caller of a
// request and carries it through the context.
//
// The session is built once per request by the session middleware, which
// decodes the JWT cookie into a set of claims. Everything downstream — data
// sources, validators, transferrers, handlers — reads the session from the
// context instead of re-parsing cookies.
package session

import (
	"context"
	"fmt"

	"github.com/sakif/docportal/internal/apperror"
	"github.com/sakif/docportal/internal/model"
)

// Session exposes the identity claims of the current request.
//
// The accessor methods error on an unauthenticated session rather than
// returning zero values: a component that reaches for the user ID of an
// anonymous caller has a real bug, and an empty-string user ID would let
// that bug masquerade as a cache miss three layers away.
type Session interface {
	IsAuthenticated() bool
	UserID() (string, error)
	Email() (string, error)
	AccountProvider() (model.AccountProviderType, error)
}

// Claims is the concrete session carried in context for authenticated
// requests, decoded from the JWT cookie.
type Claims struct {
	UserIDValue   string
	EmailValue    string
	ProviderValue model.AccountProviderType
}

var _ Session = (*Claims)(nil)

func (c *Claims) IsAuthenticated() bool { return true }

func (c *Claims) UserID() (string, error) {
	if c.UserIDValue == "" {
		return "", apperror.Unauthorized("session has no user ID")
	}
	return c.UserIDValue, nil
}

func (c *Claims) Email() (string, error) {
	if c.EmailValue == "" {
		return "", fmt.Errorf("session: no email claim")
	}
	return c.EmailValue, nil
}

func (c *Claims) AccountProvider() (model.AccountProviderType, error) {
	if c.ProviderValue == "" {
		return "", fmt.Errorf("session: no account provider claim")
	}
	return c.ProviderValue, nil
}

// Anonymous is the session of an unauthenticated request. Every identity
// accessor fails with an unauthorized error.
type Anonymous struct{}

var _ Session = Anonymous{}

func (Anonymous) IsAuthenticated() bool { return false }

func (Anonymous) UserID() (string, error) {
	return "", apperror.Unauthorized("not authenticated")
}

func (Anonymous) Email() (string, error) {
	return "", apperror.Unauthorized("not authenticated")
}

func (Anonymous) AccountProvider() (model.AccountProviderType, error) {
	return "", apperror.Unauthorized("not authenticated")
}

// contextKey is an unexported type used for context keys in this package.
// A package-private key type means only this package can read or write the
// session in a context — no other package can collide with or shadow it.
type contextKey struct{}

var sessionKey contextKey

// WithSession returns a context carrying the given session.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// FromContext returns the session stored in the context.
//
// A context with no session at all (a request that never passed through the
// session middleware, or a background job) is treated as anonymous — callers
// get the same unauthorized errors either way.
func FromContext(ctx context.Context) Session {
	if s, ok := ctx.Value(sessionKey).(Session); ok {
		return s
	}
	return Anonymous{}
}
