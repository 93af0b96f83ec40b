// Package auth implements the credential pipeline at the heart of the
// portal: deciding whether a session's stored credential is still usable,
// moving credentials from the identity provider into our own store at login
// time, and handing out repository-scoped access tokens.
//
// ARCHITECTURE — SMALL PIECES, COMPOSED:
// Every concern is a narrow interface (a token repository is get/set/delete,
// a refresher is one method, a validator is one method) and most behaviour
// is added by wrapping: a fallback repository wraps two repositories, a
// locking refresher wraps a refresher and a mutex, a persisting data source
// wraps a data source and a repository. The wiring in internal/server reads
// like the architecture diagram because it IS the architecture diagram.
//
// THE TWO KINDS OF USER:
// Hosts authenticate via GitHub OAuth and hold real OAuth tokens (access +
// refresh). Guests authenticate with email + password and hold short-lived
// installation tokens scoped to their admin-assigned project list — no
// refresh token, ever. Provider-routed components (refresher, transferrer,
// validator) pick the right strategy off the session's account provider tag,
// and an unknown tag is a configuration bug that fails loudly, never a case
// to limp past.
//
// ERROR POLICY (asymmetric on purpose):
//   - Repositories fail Get with apperror.ErrUnauthorized for both "absent"
//     and "malformed" — callers redirect to login either way.
//   - Validators never propagate errors; any failure becomes
//     SessionInvalidAccessToken.
//   - Login handlers fail closed (a broken login-time persistence step must
//     surface); logout handlers fail open (cleanup trouble must never trap a
//     user in a session they're trying to leave).
package auth
