package auth

import (
	"context"
	"log/slog"

	"github.com/sakif/docportal/internal/model"
	"github.com/sakif/docportal/internal/session"
)

// SessionValidator decides whether the current session's credentials are
// usable.
//
// NOTE THE SIGNATURE: no error return. Validation always resolves to one of
// the two SessionValidity states; internal failures (store down, upstream
// rejection, missing session) are translated to invalid, never propagated.
// The caller's reaction to "invalid" and to "we couldn't check" is identical
// anyway — send the user back through login.
type SessionValidator interface {
	ValidateSession(ctx context.Context) model.SessionValidity
}

// AccessTokenSessionValidator is valid exactly when an access token can be
// obtained for the session.
type AccessTokenSessionValidator struct {
	source AccessTokenDataSource
	logger *slog.Logger
}

var _ SessionValidator = (*AccessTokenSessionValidator)(nil)

// NewAccessTokenSessionValidator creates the validator.
func NewAccessTokenSessionValidator(source AccessTokenDataSource, logger *slog.Logger) *AccessTokenSessionValidator {
	return &AccessTokenSessionValidator{source: source, logger: logger}
}

// ValidateSession swallows any data-source error into invalid.
func (v *AccessTokenSessionValidator) ValidateSession(ctx context.Context) model.SessionValidity {
	if _, err := v.source.GetAccessToken(ctx); err != nil {
		v.logger.Debug("session invalid: access token unavailable", slog.String("error", err.Error()))
		return model.SessionInvalidAccessToken
	}
	return model.SessionValid
}

// OAuthTokenSessionValidator is the same shape over the OAuth-token data
// source.
type OAuthTokenSessionValidator struct {
	source OAuthTokenDataSource
	logger *slog.Logger
}

var _ SessionValidator = (*OAuthTokenSessionValidator)(nil)

// NewOAuthTokenSessionValidator creates the validator.
func NewOAuthTokenSessionValidator(source OAuthTokenDataSource, logger *slog.Logger) *OAuthTokenSessionValidator {
	return &OAuthTokenSessionValidator{source: source, logger: logger}
}

// ValidateSession swallows any data-source error into invalid.
func (v *OAuthTokenSessionValidator) ValidateSession(ctx context.Context) model.SessionValidity {
	if _, err := v.source.GetOAuthToken(ctx); err != nil {
		v.logger.Debug("session invalid: OAuth token unavailable", slog.String("error", err.Error()))
		return model.SessionInvalidAccessToken
	}
	return model.SessionValid
}

// HostOnlySessionValidator runs its inner validator for hosts only. Guest
// sessions short-circuit to valid WITHOUT delegating — guests are validated
// by a separate path, and running a host check (say, an OAuth-token
// freshness probe) against a guest would reject every guest.
type HostOnlySessionValidator struct {
	guests GuestReader
	inner  SessionValidator
}

var _ SessionValidator = (*HostOnlySessionValidator)(nil)

// NewHostOnlySessionValidator creates the validator.
func NewHostOnlySessionValidator(guests GuestReader, inner SessionValidator) *HostOnlySessionValidator {
	return &HostOnlySessionValidator{guests: guests, inner: inner}
}

// ValidateSession short-circuits for guests, delegates for hosts. Failure to
// even determine guest-ness is invalid, per the no-error contract.
func (v *HostOnlySessionValidator) ValidateSession(ctx context.Context) model.SessionValidity {
	userID, err := session.FromContext(ctx).UserID()
	if err != nil {
		return model.SessionInvalidAccessToken
	}

	isGuest, err := v.guests.GetIsUserGuest(ctx, userID)
	if err != nil {
		return model.SessionInvalidAccessToken
	}
	if isGuest {
		return model.SessionValid
	}
	return v.inner.ValidateSession(ctx)
}

// GuestHostRoutedSessionValidator routes to the guest or host validator —
// mutually exclusive, exactly one branch executes per call.
type GuestHostRoutedSessionValidator struct {
	guests GuestReader
	guest  SessionValidator
	host   SessionValidator
}

var _ SessionValidator = (*GuestHostRoutedSessionValidator)(nil)

// NewGuestHostRoutedSessionValidator creates the routed validator.
func NewGuestHostRoutedSessionValidator(guests GuestReader, guest, host SessionValidator) *GuestHostRoutedSessionValidator {
	return &GuestHostRoutedSessionValidator{guests: guests, guest: guest, host: host}
}

// ValidateSession routes on guest-ness.
func (v *GuestHostRoutedSessionValidator) ValidateSession(ctx context.Context) model.SessionValidity {
	userID, err := session.FromContext(ctx).UserID()
	if err != nil {
		return model.SessionInvalidAccessToken
	}

	isGuest, err := v.guests.GetIsUserGuest(ctx, userID)
	if err != nil {
		return model.SessionInvalidAccessToken
	}
	if isGuest {
		return v.guest.ValidateSession(ctx)
	}
	return v.host.ValidateSession(ctx)
}

// MergedSessionValidator runs every member and merges their results: the
// session is valid only when ALL members agree it is. Use it when a session
// needs more than one credential to be usable at the same time.
type MergedSessionValidator struct {
	members []SessionValidator
}

var _ SessionValidator = (*MergedSessionValidator)(nil)

// NewMergedSessionValidator creates the merged validator.
func NewMergedSessionValidator(members ...SessionValidator) *MergedSessionValidator {
	return &MergedSessionValidator{members: members}
}

// ValidateSession merges all member results. Members always run — a merged
// validator reports WHETHER the session is usable, and short-circuiting
// would let a broken member hide behind an earlier invalid one.
func (v *MergedSessionValidator) ValidateSession(ctx context.Context) model.SessionValidity {
	validity := model.SessionValid
	for _, member := range v.members {
		validity = model.MergeSessionValidity(validity, member.ValidateSession(ctx))
	}
	return validity
}
