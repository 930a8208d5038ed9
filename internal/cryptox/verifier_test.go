package cryptox

import (
	"testing"

	"github.com/dmitrijs2005/encodex/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fastParams = KDFParams{Algorithm: KDFPBKDF2SHA256, Iterations: common.MinKDFIterations}

func TestEnrollCheck_CorrectPassword(t *testing.T) {
	v, key, err := Enroll([]byte("Sn0wman!"), fastParams)
	require.NoError(t, err)
	require.Len(t, v.Salt, common.SaltSize)

	got, err := Check([]byte("Sn0wman!"), v)
	require.NoError(t, err)
	assert.Equal(t, key, got)
}

func TestEnroll_DefaultIterations(t *testing.T) {
	v, _, err := Enroll([]byte("Sn0wman!"), DefaultKDFParams(""))
	require.NoError(t, err)
	assert.Equal(t, 150000, v.KDF.Iterations)
	assert.Equal(t, KDFPBKDF2SHA256, v.KDF.Algorithm)

	pt, err := Open(mustDerive(t, v, "Sn0wman!"), v.Nonce, v.Ciphertext)
	require.NoError(t, err)
	assert.Equal(t, []byte("ok"), pt)
}

func mustDerive(t *testing.T, v *Verifier, pw string) []byte {
	t.Helper()
	k, err := DeriveKeyWith(v.KDF, []byte(pw), v.Salt)
	require.NoError(t, err)
	return k
}

func TestCheck_WrongPasswordRejected(t *testing.T) {
	v, _, err := Enroll([]byte("passwordB"), fastParams)
	require.NoError(t, err)

	for _, pw := range []string{"passwordA", "", "passwordb", "passwordB "} {
		key, err := Check([]byte(pw), v)
		require.ErrorIs(t, err, common.ErrAuthenticationFailed, "password %q", pw)
		assert.Nil(t, key)
	}
}

func TestEnroll_SaltUniqueForSamePassword(t *testing.T) {
	v1, _, err := Enroll([]byte("same"), fastParams)
	require.NoError(t, err)
	v2, _, err := Enroll([]byte("same"), fastParams)
	require.NoError(t, err)

	assert.NotEqual(t, v1.Salt, v2.Salt)
	assert.NotEqual(t, v1.Ciphertext, v2.Ciphertext)
}

func TestCheck_TamperedVerifier(t *testing.T) {
	v, _, err := Enroll([]byte("pw"), fastParams)
	require.NoError(t, err)

	v.Ciphertext[0] ^= 0x01
	_, err = Check([]byte("pw"), v)
	assert.ErrorIs(t, err, common.ErrAuthenticationFailed)
}

func TestCheck_ForeignMarker(t *testing.T) {
	v, key, err := Enroll([]byte("pw"), fastParams)
	require.NoError(t, err)

	// Valid AEAD, wrong marker.
	nonce, ct, err := Seal(key, []byte("no"))
	require.NoError(t, err)
	v.Nonce, v.Ciphertext = nonce, ct

	_, err = Check([]byte("pw"), v)
	assert.ErrorIs(t, err, common.ErrAuthenticationFailed)
}

func TestCheck_NilVerifier(t *testing.T) {
	_, err := Check([]byte("pw"), nil)
	assert.ErrorIs(t, err, common.ErrAuthenticationFailed)
}

func TestEnroll_InvalidParams(t *testing.T) {
	_, _, err := Enroll([]byte("pw"), KDFParams{Algorithm: KDFPBKDF2SHA256, Iterations: 10})
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestReseal_VerifiesUnderSameKey(t *testing.T) {
	v, key, err := Enroll([]byte("pw"), fastParams)
	require.NoError(t, err)

	v2, err := Reseal(key, v.Salt, v.KDF)
	require.NoError(t, err)
	assert.NotEqual(t, v.Nonce, v2.Nonce)

	_, err = Check([]byte("pw"), v2)
	assert.NoError(t, err)
}

func TestCheckKey(t *testing.T) {
	v, key, err := Enroll([]byte("Sn0wman!"), fastParams)
	require.NoError(t, err)
	require.NoError(t, CheckKey(key, v))

	v2, key2, err := Enroll([]byte("Sn0wman!"), fastParams)
	require.NoError(t, err)
	assert.ErrorIs(t, CheckKey(key, v2), common.ErrAuthenticationFailed)
	assert.ErrorIs(t, CheckKey(key2, v), common.ErrAuthenticationFailed)
	assert.ErrorIs(t, CheckKey(key, nil), common.ErrAuthenticationFailed)
	assert.ErrorIs(t, CheckKey([]byte("short"), v), common.ErrAuthenticationFailed)
}
