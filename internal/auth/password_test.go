package auth

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/wiseman-psychedelics/wiseman-api/internal/shared"
)

func TestHasherVerifiesOwnHash(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	for _, pw := range []string{"secret123", "", "pässwörd", strings.Repeat("a", MaxPasswordBytes)} {
		hashed, err := h.Hash(pw)
		require.NoError(t, err)
		assert.NotEqual(t, pw, hashed)
		assert.True(t, h.Verify(pw, hashed), "password %q should verify", pw)
	}
}

func TestHasherRejectsOtherPassword(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	hashed, err := h.Hash("secret123")
	require.NoError(t, err)

	assert.False(t, h.Verify("secret124", hashed))
	assert.False(t, h.Verify("", hashed))
	assert.False(t, h.Verify("secret123", "not-a-bcrypt-hash"))
}

func TestHasherSaltsEachHash(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)
	a, err := h.Hash("secret123")
	require.NoError(t, err)
	b, err := h.Hash("secret123")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestHasherRejectsOversizedPassword(t *testing.T) {
	h := NewHasher(bcrypt.MinCost)

	_, err := h.Hash(strings.Repeat("a", MaxPasswordBytes+1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrValidation))

	var verr *shared.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "password")
}

func TestPasswordLimitCountsBytes(t *testing.T) {
	// 37 two-byte runes: short in characters, too long in bytes.
	pw := strings.Repeat("é", 37)
	require.Equal(t, 74, len(pw))
	assert.ErrorIs(t, CheckPasswordLength(pw), shared.ErrValidation)
	assert.NoError(t, CheckPasswordLength(strings.Repeat("é", 36)))
}

func TestNewHasherFallsBackToDefaultCost(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewHasher(0).cost)
	assert.Equal(t, bcrypt.DefaultCost, NewHasher(bcrypt.MaxCost+1).cost)
	assert.Equal(t, bcrypt.MinCost, NewHasher(bcrypt.MinCost).cost)
}
