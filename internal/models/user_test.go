package models

import (
	"testing"

	"github.com/dmitrijs2005/encodex/internal/cryptox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultDisplayName(t *testing.T) {
	assert.Equal(t, "alice", DefaultDisplayName("alice@example.org"))
	assert.Equal(t, "bob", DefaultDisplayName("bob"))
	assert.Equal(t, "@weird", DefaultDisplayName("@weird"))
}

func TestUserRecord_LegacyRecordIsPBKDF2(t *testing.T) {
	rec := UserRecord{
		Identity: "a@b.c", DisplayName: "a",
		SaltB64: "c2FsdA==", Iterations: 150000,
		VerifierB64: "AQI=", VerifierNonceB64: "AwQ=",
	}
	u, err := rec.FromRecord()
	require.NoError(t, err)
	assert.Equal(t, cryptox.KDFPBKDF2SHA256, u.Verifier.KDF.Algorithm)
	assert.Equal(t, 150000, u.Verifier.KDF.Iterations)
	assert.Equal(t, []byte("salt"), u.Verifier.Salt)

	again := u.ToRecord()
	assert.Equal(t, "pbkdf2-sha256", again.KDF)
	assert.Equal(t, rec.SaltB64, again.SaltB64)
}
