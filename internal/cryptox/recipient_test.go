package cryptox

import (
	"testing"

	"github.com/dmitrijs2005/encodex/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapUnwrap_RoundTrip(t *testing.T) {
	kp, err := GenerateRecipientKeyPair()
	require.NoError(t, err)

	dek := testKey(t)
	w, err := WrapKey(kp.PublicKey, dek)
	require.NoError(t, err)

	got, err := UnwrapKey(kp.PrivateKey, w)
	require.NoError(t, err)
	assert.Equal(t, dek, got)
}

func TestUnwrap_ForeignPrivateKey(t *testing.T) {
	alice, err := GenerateRecipientKeyPair()
	require.NoError(t, err)
	mallory, err := GenerateRecipientKeyPair()
	require.NoError(t, err)

	w, err := WrapKey(alice.PublicKey, testKey(t))
	require.NoError(t, err)

	_, err = UnwrapKey(mallory.PrivateKey, w)
	assert.ErrorIs(t, err, common.ErrDecryptionFailed)
}

func TestUnwrap_Tampered(t *testing.T) {
	kp, err := GenerateRecipientKeyPair()
	require.NoError(t, err)
	w, err := WrapKey(kp.PublicKey, testKey(t))
	require.NoError(t, err)

	w.Ciphertext[3] ^= 0x80
	_, err = UnwrapKey(kp.PrivateKey, w)
	assert.ErrorIs(t, err, common.ErrDecryptionFailed)
}

func TestWrap_InvalidPublicKey(t *testing.T) {
	_, err := WrapKey([]byte("not a key"), testKey(t))
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestUnwrap_InvalidInputs(t *testing.T) {
	kp, err := GenerateRecipientKeyPair()
	require.NoError(t, err)

	_, err = UnwrapKey(kp.PrivateKey, nil)
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = UnwrapKey([]byte("short"), &WrappedKey{})
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = UnwrapKey(kp.PrivateKey, &WrappedKey{KEMCiphertext: []byte{1, 2}})
	assert.ErrorIs(t, err, common.ErrDecryptionFailed)
}
