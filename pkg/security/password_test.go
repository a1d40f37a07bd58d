package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCompare(t *testing.T) {
	hasher := NewBcryptHasher(bcrypt.MinCost)

	digest, err := hasher.Hash("correct horse battery")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery", digest)

	assert.NoError(t, hasher.Compare(digest, "correct horse battery"))
	assert.Error(t, hasher.Compare(digest, "wrong password"))
}

func TestHashRejectsOverlongPassword(t *testing.T) {
	hasher := NewBcryptHasher(bcrypt.MinCost)

	_, err := hasher.Hash(strings.Repeat("x", 73))
	assert.Error(t, err)
}

func TestZeroCostFallsBackToDefault(t *testing.T) {
	hasher := NewBcryptHasher(0)

	digest, err := hasher.Hash("correct horse battery")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(digest))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}
