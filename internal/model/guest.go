package model

import "time"

// Guest represents a guest account: a user invited by an administrator,
// authenticating with email + password, and granted access to a specific set
// of projects (repositories) rather than whatever their GitHub identity can
// reach.
//
// Guests never hold OAuth refresh tokens. Their access tokens are
// installation tokens scoped to Projects and re-minted on demand, which is
// why the guest refresher and transferrer both persist tokens with an empty
// RefreshToken.
//
// PasswordHash is a bcrypt hash — never the plain password. It is excluded
// from JSON so a handler can return a Guest directly without leaking it.
type Guest struct {
	ID           string    `json:"id"       db:"id"`
	Email        string    `json:"email"    db:"email"`
	PasswordHash string    `json:"-"        db:"password_hash"`
	Projects     []string  `json:"projects" db:"projects"` // repository names, admin-assigned
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}
