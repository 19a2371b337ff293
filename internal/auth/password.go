package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/wiseman-psychedelics/wiseman-api/internal/shared"
)

// MaxPasswordBytes is the longest input bcrypt consumes; longer inputs
// would be silently truncated, so they are rejected instead.
const MaxPasswordBytes = 72

// Hasher hashes and verifies passwords with bcrypt.
type Hasher struct {
	cost int
}

// NewHasher returns a Hasher. A cost outside bcrypt's range falls back to bcrypt.DefaultCost.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// CheckPasswordLength rejects passwords longer than MaxPasswordBytes bytes.
func CheckPasswordLength(password string) error {
	if len(password) > MaxPasswordBytes {
		return shared.NewValidationError("password", fmt.Sprintf("cannot be longer than %d bytes", MaxPasswordBytes))
	}
	return nil
}

// Hash returns the bcrypt hash of password.
func (h *Hasher) Hash(password string) (string, error) {
	if err := CheckPasswordLength(password); err != nil {
		return "", err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether password matches hash.
func (h *Hasher) Verify(password, hash string) bool {
	if len(password) > MaxPasswordBytes {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
