package cryptox

import (
	"crypto/subtle"
	"errors"

	"github.com/dmitrijs2005/encodex/internal/common"
)

// verifierMarker is the known plaintext sealed under the derived key.
var verifierMarker = []byte("ok")

// Verifier is the stored proof of password knowledge. It contains neither the
// password nor the key.
type Verifier struct {
	Salt       []byte
	KDF        KDFParams
	Nonce      []byte
	Ciphertext []byte
}

// Enroll generates a fresh salt, derives a key from password with params and
// seals the verifier marker under it. The derived key is returned so the
// caller can start a session without deriving twice.
func Enroll(password []byte, params KDFParams) (*Verifier, []byte, error) {
	if err := params.Validate(); err != nil {
		return nil, nil, err
	}
	if params.Algorithm == "" {
		params.Algorithm = KDFPBKDF2SHA256
	}

	salt, err := common.RandomBytes(common.SaltSize)
	if err != nil {
		return nil, nil, err
	}

	key, err := DeriveKeyWith(params, password, salt)
	if err != nil {
		return nil, nil, err
	}

	v, err := sealVerifier(key, salt, params)
	if err != nil {
		common.WipeByteArray(key)
		return nil, nil, err
	}
	return v, key, nil
}

// Reseal builds a verifier for an already derived key. Used when re-keying.
func Reseal(key, salt []byte, params KDFParams) (*Verifier, error) {
	return sealVerifier(key, salt, params)
}

func sealVerifier(key, salt []byte, params KDFParams) (*Verifier, error) {
	nonce, ct, err := Seal(key, verifierMarker)
	if err != nil {
		return nil, err
	}
	return &Verifier{Salt: salt, KDF: params, Nonce: nonce, Ciphertext: ct}, nil
}

// Check derives a key from password using the stored salt and parameters and
// tries to open the stored verifier. On success the derived key is returned.
//
// Every failure after input validation, whether an AEAD failure or a marker
// mismatch, is reported as common.ErrAuthenticationFailed.
func Check(password []byte, v *Verifier) ([]byte, error) {
	if v == nil {
		return nil, common.ErrAuthenticationFailed
	}

	key, err := DeriveKeyWith(v.KDF, password, v.Salt)
	if err != nil {
		return nil, err
	}

	pt, err := Open(key, v.Nonce, v.Ciphertext)
	if err != nil {
		common.WipeByteArray(key)
		if errors.Is(err, common.ErrInvalidInput) {
			return nil, err
		}
		return nil, common.ErrAuthenticationFailed
	}

	if subtle.ConstantTimeCompare(pt, verifierMarker) != 1 {
		common.WipeByteArray(key)
		return nil, common.ErrAuthenticationFailed
	}
	return key, nil
}

// CheckKey reports whether key opens v, that is, whether key is the current
// key of the account v belongs to. It fails with common.ErrAuthenticationFailed.
func CheckKey(key []byte, v *Verifier) error {
	if v == nil {
		return common.ErrAuthenticationFailed
	}
	pt, err := Open(key, v.Nonce, v.Ciphertext)
	if err != nil {
		return common.ErrAuthenticationFailed
	}
	if subtle.ConstantTimeCompare(pt, verifierMarker) != 1 {
		return common.ErrAuthenticationFailed
	}
	return nil
}
