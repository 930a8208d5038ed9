package models

import (
	"testing"
	"time"

	"github.com/dmitrijs2005/encodex/internal/common"
	"github.com/dmitrijs2005/encodex/internal/cryptox"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShareLink_RoundTrip(t *testing.T) {
	link := ShareLink("https://vault.local/app", "abc_-123")
	assert.Equal(t, "https://vault.local/app#share?token=abc_-123", link)

	tok, err := ParseShareLink(link)
	require.NoError(t, err)
	assert.Equal(t, "abc_-123", tok)
}

func TestParseShareLink_Forms(t *testing.T) {
	for _, in := range []string{"#share?token=t1", "share?token=t1", "token=t1"} {
		tok, err := ParseShareLink(in)
		require.NoError(t, err, in)
		assert.Equal(t, "t1", tok)
	}

	_, err := ParseShareLink("#share?other=1")
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestShareRecord_RevokedHasNoSnapshot(t *testing.T) {
	s := &Share{
		Token: "tok", Kind: ShareKindPassword, State: ShareStateRevoked,
		Owner: "o", DocumentID: "d", CreatedAt: time.UnixMilli(1000).UTC(),
		RevokedAt: time.UnixMilli(2000).UTC(),
	}
	rec := s.ToRecord()
	assert.Nil(t, rec.Document)
	assert.Equal(t, int64(2000), rec.RevokedAtEpochMs)

	back, err := rec.FromRecord()
	require.NoError(t, err)
	assert.Equal(t, s, back)
}

func TestShareRecord_SealedKeepsWrappedKey(t *testing.T) {
	s := &Share{
		Token: "tok", Kind: ShareKindSealed, State: ShareStateRedeemable,
		CreatedAt:  time.UnixMilli(5).UTC(),
		Document:   &Document{ID: "d", CreatedAt: time.UnixMilli(5).UTC(), Nonce: []byte{1}, Ciphertext: []byte{2}},
		WrappedKey: &cryptox.WrappedKey{KEMCiphertext: []byte{3}, Nonce: []byte{4}, Ciphertext: []byte{5}},
	}
	back, err := s.ToRecord().FromRecord()
	require.NoError(t, err)
	assert.Equal(t, s.WrappedKey, back.WrappedKey)
	assert.Equal(t, s.Document.Ciphertext, back.Document.Ciphertext)
}

func TestShareRecord_DefaultsToPasswordKind(t *testing.T) {
	s, err := ShareRecord{Token: "t", State: ShareStateRedeemable}.FromRecord()
	require.NoError(t, err)
	assert.Equal(t, ShareKindPassword, s.Kind)
}
