package auth_test

import (
	"testing"

	auth "github.com/ideahq/idea-auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecretCipherRoundTrip(t *testing.T) {
	key, err := auth.GenerateCipherKey()
	require.NoError(t, err)

	cipher, err := auth.NewSecretCipher(key)
	require.NoError(t, err)

	sealed, err := cipher.Seal("JBSWY3DPEHPK3PXP")
	require.NoError(t, err)
	assert.NotEqual(t, "JBSWY3DPEHPK3PXP", sealed)

	opened, err := cipher.Open(sealed)
	require.NoError(t, err)
	assert.Equal(t, "JBSWY3DPEHPK3PXP", opened)
}

func TestSecretCipherRejectsBadKeyLength(t *testing.T) {
	_, err := auth.NewSecretCipher([]byte("too-short"))
	assert.Error(t, err)
}

func TestSecretCipherWrongKeyFails(t *testing.T) {
	keyA, err := auth.GenerateCipherKey()
	require.NoError(t, err)
	keyB, err := auth.GenerateCipherKey()
	require.NoError(t, err)

	cipherA, err := auth.NewSecretCipher(keyA)
	require.NoError(t, err)
	cipherB, err := auth.NewSecretCipher(keyB)
	require.NoError(t, err)

	sealed, err := cipherA.Seal("JBSWY3DPEHPK3PXP")
	require.NoError(t, err)

	_, err = cipherB.Open(sealed)
	assert.Error(t, err)
}
