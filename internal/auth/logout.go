package auth

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/sakif/docportal/internal/session"
)

// LogOutHandler is a hook invoked when the user logs out, for cleanup side
// effects (deleting stored tokens, evicting caches).
type LogOutHandler interface {
	HandleLogOut(ctx context.Context) error
}

// CompositeLogOutHandler invokes every registered handler concurrently and
// waits for all of them.
//
// FAIL OPEN:
// Logout must always complete from the caller's perspective — a user trying
// to leave must never be trapped because one cache was unreachable. The
// composite relies on each member being wrapped in
// ErrorIgnoringLogOutHandler (the wiring does this), so sibling handlers
// run to completion regardless of individual failures. Compare
// CompositeLogInHandler, which is sequential and fail-closed — that
// asymmetry is a design decision, not an inconsistency.
type CompositeLogOutHandler struct {
	handlers []LogOutHandler
}

var _ LogOutHandler = (*CompositeLogOutHandler)(nil)

// NewCompositeLogOutHandler creates the composite.
func NewCompositeLogOutHandler(handlers ...LogOutHandler) *CompositeLogOutHandler {
	return &CompositeLogOutHandler{handlers: handlers}
}

// HandleLogOut runs all handlers concurrently and waits for every one.
func (h *CompositeLogOutHandler) HandleLogOut(ctx context.Context) error {
	g := new(errgroup.Group)
	for _, handler := range h.handlers {
		g.Go(func() error {
			return handler.HandleLogOut(ctx)
		})
	}
	return g.Wait()
}

// ErrorIgnoringLogOutHandler wraps a handler and discards its error after
// logging it. Wrapped around every cleanup handler so that a non-critical
// failure (a cache eviction against a flaky Redis, say) never surfaces to
// the logout flow.
type ErrorIgnoringLogOutHandler struct {
	inner  LogOutHandler
	logger *slog.Logger
}

var _ LogOutHandler = (*ErrorIgnoringLogOutHandler)(nil)

// NewErrorIgnoringLogOutHandler wraps inner.
func NewErrorIgnoringLogOutHandler(inner LogOutHandler, logger *slog.Logger) *ErrorIgnoringLogOutHandler {
	return &ErrorIgnoringLogOutHandler{inner: inner, logger: logger}
}

// HandleLogOut never returns an error.
func (h *ErrorIgnoringLogOutHandler) HandleLogOut(ctx context.Context) error {
	if err := h.inner.HandleLogOut(ctx); err != nil {
		h.logger.Warn("logout cleanup failed (ignored)", slog.String("error", err.Error()))
	}
	return nil
}

// UserDataDeleter is the narrow capability the cleanup handler needs: the
// token repositories and the per-user cache repositories all satisfy it.
type UserDataDeleter interface {
	Delete(ctx context.Context, userID string) error
}

// UserDataCleanupLogOutHandler resolves the current user and deletes their
// entry from one repository. Wire one instance per store that holds
// per-user state: the token store, the identity-provider cache, the
// repository-access cache.
type UserDataCleanupLogOutHandler struct {
	deleter UserDataDeleter
}

var _ LogOutHandler = (*UserDataCleanupLogOutHandler)(nil)

// NewUserDataCleanupLogOutHandler creates the cleanup handler.
func NewUserDataCleanupLogOutHandler(deleter UserDataDeleter) *UserDataCleanupLogOutHandler {
	return &UserDataCleanupLogOutHandler{deleter: deleter}
}

// HandleLogOut deletes the session user's entry.
func (h *UserDataCleanupLogOutHandler) HandleLogOut(ctx context.Context) error {
	userID, err := session.FromContext(ctx).UserID()
	if err != nil {
		return fmt.Errorf("auth: resolving user for logout cleanup: %w", err)
	}
	return h.deleter.Delete(ctx, userID)
}
