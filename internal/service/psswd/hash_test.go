package psswd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHasher(t *testing.T) {
	h := New(bcrypt.MinCost)

	hash, err := h.HashPassword("secret42")
	require.NoError(t, err)
	assert.NotEqual(t, "secret42", hash)

	assert.True(t, h.ComparePassword("secret42", hash))
	assert.False(t, h.ComparePassword("secret43", hash))
}

func TestNew_InvalidCost(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, New(0).cost)
	assert.Equal(t, bcrypt.DefaultCost, New(bcrypt.MaxCost+1).cost)
}
