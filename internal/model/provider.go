package model

import "fmt"

// UserIdentityProvider distinguishes how a user authenticated. It drives
// routing decisions throughout the auth pipeline: which token strategy to
// use, which session validator runs, and how credentials are transferred at
// login time.
type UserIdentityProvider int

const (
	// IdentityProviderGitHub marks a host account authenticated via GitHub OAuth.
	IdentityProviderGitHub UserIdentityProvider = iota
	// IdentityProviderUsernamePassword marks a guest account authenticated
	// with email + password. Username/password implies "guest" everywhere in
	// this codebase.
	IdentityProviderUsernamePassword
)

// String implements fmt.Stringer.
func (p UserIdentityProvider) String() string {
	switch p {
	case IdentityProviderGitHub:
		return "github"
	case IdentityProviderUsernamePassword:
		return "username_password"
	default:
		return "unknown"
	}
}

// EncodeUserIdentityProvider serializes the enum for cache storage.
func EncodeUserIdentityProvider(p UserIdentityProvider) string {
	return p.String()
}

// DecodeUserIdentityProvider parses a cached enum value.
//
// An unknown value is an error, not a silent default: the cache only ever
// holds values this package wrote, so anything else signals corruption (or a
// deploy skew between writer and reader) that the caller must treat as a miss.
func DecodeUserIdentityProvider(s string) (UserIdentityProvider, error) {
	switch s {
	case "github":
		return IdentityProviderGitHub, nil
	case "username_password":
		return IdentityProviderUsernamePassword, nil
	default:
		return 0, fmt.Errorf("model: unknown identity provider %q", s)
	}
}

// AccountProviderType is the provider tag carried by the session itself,
// read straight from the session cookie's claims.
//
// PROVIDER TAG vs IDENTITY PROVIDER:
// AccountProviderType is what the session SAYS the user is; it is available
// without any store lookup and is used by strategy-routed components
// (refresher, transferrer) to select a sub-strategy. UserIdentityProvider is
// what the account store says, resolved by user ID and cached. The two agree
// for well-formed sessions — the separate types keep "cheap, claim-derived"
// and "authoritative, store-derived" from being mixed up.
type AccountProviderType string

const (
	// AccountProviderGitHub tags host sessions.
	AccountProviderGitHub AccountProviderType = "github"
	// AccountProviderEmail tags guest (email + password) sessions.
	AccountProviderEmail AccountProviderType = "email"
)

// ParseAccountProviderType validates a provider tag from an untrusted source
// (a decoded cookie). Anything outside the closed set is rejected.
func ParseAccountProviderType(s string) (AccountProviderType, error) {
	switch AccountProviderType(s) {
	case AccountProviderGitHub:
		return AccountProviderGitHub, nil
	case AccountProviderEmail:
		return AccountProviderEmail, nil
	default:
		return "", fmt.Errorf("model: unsupported account provider %q", s)
	}
}
