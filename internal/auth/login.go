package auth

import (
	"context"
	"fmt"
)

// LogInHandler is a hook invoked when a user's login completes. Handlers
// run for their side effects (credential transfer, cache warming).
type LogInHandler interface {
	HandleLogIn(ctx context.Context, userID string) error
}

// CompositeLogInHandler invokes every registered handler with the same user
// ID, sequentially and in order.
//
// FAIL CLOSED — ASYMMETRIC WITH LOGOUT ON PURPOSE:
// The first failing handler aborts the composite and its error propagates
// to the login flow, which then refuses to establish the session.
// Continuing past a failed credential transfer would leave the user "logged
// in" with no usable credential, and every subsequent request would fail in
// a place much harder to diagnose than the login screen.
type CompositeLogInHandler struct {
	handlers []LogInHandler
}

var _ LogInHandler = (*CompositeLogInHandler)(nil)

// NewCompositeLogInHandler creates the composite.
func NewCompositeLogInHandler(handlers ...LogInHandler) *CompositeLogInHandler {
	return &CompositeLogInHandler{handlers: handlers}
}

// HandleLogIn runs every handler; the first error aborts and propagates.
func (h *CompositeLogInHandler) HandleLogIn(ctx context.Context, userID string) error {
	for _, handler := range h.handlers {
		if err := handler.HandleLogIn(ctx, userID); err != nil {
			return fmt.Errorf("auth: login handler failed for user %s: %w", userID, err)
		}
	}
	return nil
}

// CredentialTransferLogInHandler adapts a CredentialTransferrer to the login
// hook.
type CredentialTransferLogInHandler struct {
	transferrer CredentialTransferrer
}

var _ LogInHandler = (*CredentialTransferLogInHandler)(nil)

// NewCredentialTransferLogInHandler creates the adapter.
func NewCredentialTransferLogInHandler(transferrer CredentialTransferrer) *CredentialTransferLogInHandler {
	return &CredentialTransferLogInHandler{transferrer: transferrer}
}

// HandleLogIn transfers the user's credentials.
func (h *CredentialTransferLogInHandler) HandleLogIn(ctx context.Context, userID string) error {
	return h.transferrer.TransferCredentials(ctx, userID)
}
