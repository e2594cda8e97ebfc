package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerify(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	hash, err := h.Hash("contraseña-segura")
	require.NoError(t, err)
	assert.NotEqual(t, "contraseña-segura", hash)
	assert.True(t, h.Verify(hash, "contraseña-segura"))
	assert.False(t, h.Verify(hash, "contraseña-segurA"))
	assert.False(t, h.Verify("not-a-hash", "contraseña-segura"))
}

func TestHashRejectsLength(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)

	_, err := h.Hash("corta")
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	_, err = h.Hash(strings.Repeat("x", MaxPasswordLen+1))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestVerifyNoneDoesNotPanic(t *testing.T) {
	h := NewBcryptHasher(bcrypt.MinCost)
	h.VerifyNone("whatever")
	h.VerifyNone("again")
}
