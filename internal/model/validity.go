package model

// SessionValidity is the two-state outcome of checking whether the current
// session's stored credential can still be used.
//
// WHY AN ENUM AND NOT A BOOL?
// Two reasons. First, the name at the call site: `SessionInvalidAccessToken`
// says what went wrong where `false` says nothing. Second, the merge
// operation below is a real piece of domain logic — it deserves a named type
// to live on.
//
// There is deliberately no third "pending" or "unknown" state: every
// validation resolves to exactly one of these two values, and validators
// translate any internal failure into SessionInvalidAccessToken rather than
// surfacing an error.
type SessionValidity int

const (
	// SessionValid means the stored credential is usable as-is.
	SessionValid SessionValidity = iota
	// SessionInvalidAccessToken means the credential is absent, expired, or
	// otherwise unusable; the caller should route the user to re-authenticate.
	SessionInvalidAccessToken
)

// String implements fmt.Stringer for log output.
func (v SessionValidity) String() string {
	switch v {
	case SessionValid:
		return "valid"
	case SessionInvalidAccessToken:
		return "invalid_access_token"
	default:
		return "unknown"
	}
}

// MergeSessionValidity combines two validity results: the merged result is
// valid only if both operands are valid.
//
// This is logical AND over a two-element lattice (valid = top, invalid =
// bottom), so the operation is total, commutative, and associative — callers
// may fold any number of independent checks in any order. It is used when
// multiple checks (say, store reachability and token freshness) must all
// pass for a session to count as valid.
func MergeSessionValidity(a, b SessionValidity) SessionValidity {
	if a == SessionInvalidAccessToken || b == SessionInvalidAccessToken {
		return SessionInvalidAccessToken
	}
	return SessionValid
}
