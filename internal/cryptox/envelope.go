package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"github.com/dmitrijs2005/encodex/internal/common"
)

// NonceSize is the AES-GCM nonce length used by Seal.
const NonceSize = 12

// TagSize is the authentication tag appended to every ciphertext.
const TagSize = 16

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != common.KeySize {
		return nil, fmt.Errorf("%w: key must be %d bytes", common.ErrInvalidInput, common.KeySize)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// Seal encrypts plaintext under key with AES-256-GCM.
//
// A fresh random 12-byte nonce is generated for every call and returned
// alongside the ciphertext; the 16-byte tag is appended to the ciphertext.
// The key must be exactly 32 bytes.
//
// Example:
//
//	nonce, ct, err := cryptox.Seal(key, []byte("hello docs"))
//	if err != nil {
//	    return err
//	}
//	pt, err := cryptox.Open(key, nonce, ct)
func Seal(key, plaintext []byte) (nonce, ciphertext []byte, err error) {
	return SealWithAD(key, plaintext, nil)
}

// SealWithAD is Seal with additional authenticated data bound to the
// ciphertext. Open must be given the same data.
func SealWithAD(key, plaintext, ad []byte) (nonce, ciphertext []byte, err error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, nil, err
	}

	nonce = make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, err
	}

	ciphertext = aead.Seal(nil, nonce, plaintext, ad)
	return nonce, ciphertext, nil
}

// Open decrypts and authenticates a ciphertext produced by Seal.
//
// Any modification of nonce or ciphertext, or a wrong key, yields
// common.ErrDecryptionFailed and no plaintext.
func Open(key, nonce, ciphertext []byte) ([]byte, error) {
	return OpenWithAD(key, nonce, ciphertext, nil)
}

// OpenWithAD is Open for ciphertexts sealed with SealWithAD.
func OpenWithAD(key, nonce, ciphertext, ad []byte) ([]byte, error) {
	aead, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	// cipher.AEAD panics on a nonce of the wrong size.
	if len(nonce) != aead.NonceSize() || len(ciphertext) < aead.Overhead() {
		return nil, common.ErrDecryptionFailed
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, ad)
	if err != nil {
		return nil, common.ErrDecryptionFailed
	}
	return plaintext, nil
}
