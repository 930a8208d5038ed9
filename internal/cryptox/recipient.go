package cryptox

import (
	"crypto/sha256"
	"fmt"
	"io"

	"github.com/cloudflare/circl/kem/mlkem/mlkem768"
	"github.com/dmitrijs2005/encodex/internal/common"
	"golang.org/x/crypto/hkdf"
)

// wrapContext separates the wrap key derivation from any other HKDF use.
const wrapContext = "encodex share key wrap v1"

// RecipientKeyPair is an ML-KEM-768 key pair in packed binary form.
type RecipientKeyPair struct {
	PublicKey  []byte
	PrivateKey []byte
}

// WrappedKey is a symmetric key sealed to one recipient public key.
type WrappedKey struct {
	KEMCiphertext []byte
	Nonce         []byte
	Ciphertext    []byte
}

// GenerateRecipientKeyPair creates a fresh ML-KEM-768 key pair.
func GenerateRecipientKeyPair() (*RecipientKeyPair, error) {
	pub, priv, err := mlkem768.Scheme().GenerateKeyPair()
	if err != nil {
		return nil, err
	}
	pubBytes, err := pub.MarshalBinary()
	if err != nil {
		return nil, err
	}
	privBytes, err := priv.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return &RecipientKeyPair{PublicKey: pubBytes, PrivateKey: privBytes}, nil
}

// WrapKey encapsulates a shared secret to recipientPub, derives a wrap key
// from it with HKDF-SHA256 (salted with the hash of the KEM ciphertext) and
// seals dek under that wrap key.
func WrapKey(recipientPub, dek []byte) (*WrappedKey, error) {
	scheme := mlkem768.Scheme()
	if len(recipientPub) != scheme.PublicKeySize() {
		return nil, fmt.Errorf("%w: recipient public key must be %d bytes", common.ErrInvalidInput, scheme.PublicKeySize())
	}
	pub, err := scheme.UnmarshalBinaryPublicKey(recipientPub)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
	}

	kemCT, secret, err := scheme.Encapsulate(pub)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(secret)

	wrapKey, err := deriveWrapKey(secret, kemCT)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(wrapKey)

	nonce, ct, err := SealWithAD(wrapKey, dek, kemCT)
	if err != nil {
		return nil, err
	}
	return &WrappedKey{KEMCiphertext: kemCT, Nonce: nonce, Ciphertext: ct}, nil
}

// UnwrapKey recovers the key sealed by WrapKey. A wrong private key or any
// tampering yields common.ErrDecryptionFailed.
func UnwrapKey(recipientPriv []byte, w *WrappedKey) ([]byte, error) {
	scheme := mlkem768.Scheme()
	if w == nil {
		return nil, fmt.Errorf("%w: nil wrapped key", common.ErrInvalidInput)
	}
	if len(recipientPriv) != scheme.PrivateKeySize() {
		return nil, fmt.Errorf("%w: recipient private key must be %d bytes", common.ErrInvalidInput, scheme.PrivateKeySize())
	}
	if len(w.KEMCiphertext) != scheme.CiphertextSize() {
		return nil, common.ErrDecryptionFailed
	}
	priv, err := scheme.UnmarshalBinaryPrivateKey(recipientPriv)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidInput, err)
	}

	// ML-KEM decapsulation is implicit-rejecting: a foreign key yields an
	// unrelated secret and the AEAD check below fails.
	secret, err := scheme.Decapsulate(priv, w.KEMCiphertext)
	if err != nil {
		return nil, common.ErrDecryptionFailed
	}
	defer common.WipeByteArray(secret)

	wrapKey, err := deriveWrapKey(secret, w.KEMCiphertext)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(wrapKey)

	return OpenWithAD(wrapKey, w.Nonce, w.Ciphertext, w.KEMCiphertext)
}

func deriveWrapKey(secret, kemCT []byte) ([]byte, error) {
	salt := sha256.Sum256(kemCT)
	r := hkdf.New(sha256.New, secret, salt[:], []byte(wrapContext))
	key := make([]byte, common.KeySize)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("failed to derive wrap key: %w", err)
	}
	return key, nil
}
