package hasher

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHasher(t *testing.T) {
	for _, alg := range []string{AlgBcrypt, AlgArgon2id} {
		t.Run(alg, func(t *testing.T) {
			h, err := New(alg, bcrypt.MinCost)
			require.NoError(t, err)

			first, err := h.Hash("pw123456")
			require.NoError(t, err)
			second, err := h.Hash("pw123456")
			require.NoError(t, err)

			assert.NotEqual(t, first, second, "salt must differ per call")
			assert.True(t, h.Verify("pw123456", first))
			assert.True(t, h.Verify("pw123456", second))
			assert.False(t, h.Verify("pw1234567", first))
		})
	}
}

func TestHasherVerifiesOtherAlgorithm(t *testing.T) {
	bc, err := New(AlgBcrypt, bcrypt.MinCost)
	require.NoError(t, err)
	ar, err := New(AlgArgon2id, 0)
	require.NoError(t, err)

	digest, err := ar.Hash("secret-pass")
	require.NoError(t, err)

	assert.True(t, bc.Verify("secret-pass", digest))
}

func TestHasherErrors(t *testing.T) {
	_, err := New("md5", 0)
	assert.ErrorIs(t, err, ErrUnknownAlgorithm)

	_, err = New(AlgBcrypt, 99)
	assert.Error(t, err)

	h, err := New("", 0)
	require.NoError(t, err)

	_, err = h.Hash("")
	assert.ErrorIs(t, err, ErrEmptyPassword)

	for _, alg := range []string{AlgBcrypt, AlgArgon2id} {
		h, err := New(alg, bcrypt.MinCost)
		require.NoError(t, err)

		_, err = h.Hash(strings.Repeat("a", MaxPasswordBytes+1))
		assert.ErrorIs(t, err, ErrPasswordTooLong, alg)

		_, err = h.Hash(strings.Repeat("a", MaxPasswordBytes))
		assert.NoError(t, err, alg)
	}

	assert.False(t, h.Verify("pw", "not-a-hash"))
}
