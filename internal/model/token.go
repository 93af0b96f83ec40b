package model

import (
	"encoding/json"
	"errors"
	"fmt"
)

// OAuthToken is the fundamental credential unit moved around by the auth
// pipeline: an access token plus an optional refresh token.
//
// WHY IS RefreshToken OPTIONAL?
// Host accounts (GitHub OAuth) get a refresh token and renew their access
// token through the standard refresh-token grant. Guest accounts never do —
// their access tokens are installation tokens re-minted on demand, so a guest
// token always has an empty RefreshToken. Several components key behaviour
// off this distinction (for example the guest refresher refuses to operate
// on a token that unexpectedly carries a refresh token).
//
// The value is immutable by convention: components construct a new OAuthToken
// rather than mutating one they were handed.
type OAuthToken struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
}

// ErrMalformedToken is returned by DecodeOAuthToken when the stored bytes do
// not describe a usable token. Token repositories translate it into an
// unauthorized error — a malformed persisted token is indistinguishable from
// a missing one as far as callers are concerned.
var ErrMalformedToken = errors.New("malformed OAuth token")

// EncodeOAuthToken serializes a token for storage in a key-value entry.
func EncodeOAuthToken(token OAuthToken) (string, error) {
	data, err := json.Marshal(token)
	if err != nil {
		return "", fmt.Errorf("model: encoding OAuth token: %w", err)
	}
	return string(data), nil
}

// DecodeOAuthToken parses a stored token and validates its shape.
//
// VALIDATION, NOT JUST PARSING:
// json.Unmarshal happily produces a zero-value struct from `{}` or `null`.
// A token without an access token is useless, so we reject it here rather
// than letting a "valid" empty credential propagate into API calls that will
// fail much further from the cause.
func DecodeOAuthToken(data []byte) (OAuthToken, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return OAuthToken{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	if raw == nil {
		return OAuthToken{}, fmt.Errorf("%w: not a JSON object", ErrMalformedToken)
	}

	var token OAuthToken
	if err := json.Unmarshal(data, &token); err != nil {
		return OAuthToken{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	if token.AccessToken == "" {
		return OAuthToken{}, fmt.Errorf("%w: missing access token", ErrMalformedToken)
	}

	return token, nil
}
