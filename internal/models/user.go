package models

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/encodex/internal/common"
	"github.com/dmitrijs2005/encodex/internal/cryptox"
)

// User is a registered identity and its password verifier.
// Salt, KDF parameters and verifier never change after registration except
// through an explicit re-key.
type User struct {
	Identity    string
	DisplayName string
	Verifier    cryptox.Verifier
}

// DefaultDisplayName returns the local part of an email-like identity.
func DefaultDisplayName(identity string) string {
	if i := strings.Index(identity, "@"); i > 0 {
		return identity[:i]
	}
	return identity
}

// UserRecord is the stored form of User.
type UserRecord struct {
	Identity         string `json:"identity"`
	DisplayName      string `json:"displayName"`
	SaltB64          string `json:"saltB64"`
	Iterations       int    `json:"iterations"`
	KDF              string `json:"kdf,omitempty"`
	VerifierB64      string `json:"verifierB64"`
	VerifierNonceB64 string `json:"verifierNonceB64"`
}

// ToRecord converts u to its storage form.
func (u *User) ToRecord() UserRecord {
	return UserRecord{
		Identity:         u.Identity,
		DisplayName:      u.DisplayName,
		SaltB64:          base64.StdEncoding.EncodeToString(u.Verifier.Salt),
		Iterations:       u.Verifier.KDF.Iterations,
		KDF:              string(u.Verifier.KDF.Algorithm),
		VerifierB64:      base64.StdEncoding.EncodeToString(u.Verifier.Ciphertext),
		VerifierNonceB64: base64.StdEncoding.EncodeToString(u.Verifier.Nonce),
	}
}

// FromRecord decodes a stored user. Records written before the kdf field
// existed are PBKDF2-SHA256.
func (r UserRecord) FromRecord() (*User, error) {
	salt, err := base64.StdEncoding.DecodeString(r.SaltB64)
	if err != nil {
		return nil, fmt.Errorf("%w: user salt: %v", common.ErrInvalidInput, err)
	}
	ct, err := base64.StdEncoding.DecodeString(r.VerifierB64)
	if err != nil {
		return nil, fmt.Errorf("%w: user verifier: %v", common.ErrInvalidInput, err)
	}
	nonce, err := base64.StdEncoding.DecodeString(r.VerifierNonceB64)
	if err != nil {
		return nil, fmt.Errorf("%w: user verifier nonce: %v", common.ErrInvalidInput, err)
	}

	alg := cryptox.KDFAlgorithm(r.KDF)
	if alg == "" {
		alg = cryptox.KDFPBKDF2SHA256
	}

	return &User{
		Identity:    r.Identity,
		DisplayName: r.DisplayName,
		Verifier: cryptox.Verifier{
			Salt:       salt,
			KDF:        cryptox.KDFParams{Algorithm: alg, Iterations: r.Iterations},
			Nonce:      nonce,
			Ciphertext: ct,
		},
	}, nil
}
