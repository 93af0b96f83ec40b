package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// guestPasswordCost is the bcrypt work factor for guest passwords.
//
// Guests log in rarely — an invite, then a session cookie for a day — so a
// hash that takes a few hundred milliseconds costs us nothing noticeable.
// What it buys: if the guests table ever leaks, every password guess costs
// the attacker those same few hundred milliseconds, per guess.
const guestPasswordCost = 12

// PasswordService hashes and verifies guest passwords.
//
// Only guests carry passwords; hosts authenticate through GitHub OAuth and
// never set one. The invite command hashes the password an administrator
// chose, and the guest login handler verifies attempts against that stored
// hash. bcrypt salts automatically and embeds salt and cost in its output,
// so the hash stores as a single column and Verify needs nothing else.
//
// The cost lives in a struct field so tests can dial it down to bcrypt's
// minimum instead of paying the production work factor on every hash.
type PasswordService struct {
	cost int
}

// NewPasswordService creates a PasswordService with the production work
// factor.
func NewPasswordService() *PasswordService {
	return &PasswordService{cost: guestPasswordCost}
}

// NewPasswordServiceForTest creates a PasswordService with the given bcrypt
// cost. Tests pass bcrypt.MinCost; production never should.
func NewPasswordServiceForTest(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// Hash bcrypt-hashes a plaintext guest password for storage.
//
// Passwords over 72 bytes are rejected rather than hashed: bcrypt silently
// truncates there, and an invite created with a longer password would
// quietly accept any login attempt sharing its first 72 bytes.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > 72 {
		return "", fmt.Errorf("auth: password must be 72 bytes or fewer")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}
	return string(hashed), nil
}

// Verify checks a login attempt against the stored hash; nil means match.
// bcrypt's comparison is constant-time, so response timing doesn't tell an
// attacker how close a guess was.
func (p *PasswordService) Verify(hash, plaintext string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return fmt.Errorf("auth: invalid password")
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}
