// Package cryptox implements the cryptographic core of the vault: password
// based key derivation, authenticated envelope encryption, the password
// verifier and the recipient key wrap used by sealed shares.
//
// All functions are pure with respect to their explicit arguments. They hold
// no state between calls and are safe for concurrent use.
package cryptox

import (
	"crypto/sha256"
	"fmt"

	"github.com/dmitrijs2005/encodex/internal/common"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/pbkdf2"
)

// KDFAlgorithm names a password stretching function.
type KDFAlgorithm string

const (
	KDFPBKDF2SHA256 KDFAlgorithm = "pbkdf2-sha256"
	KDFArgon2id     KDFAlgorithm = "argon2id"
)

// Argon2id cost parameters other than the time cost, which is carried in
// KDFParams.Iterations.
const (
	argon2Memory  = 64 * 1024
	argon2Threads = 4

	// DefaultArgon2Iterations is the argon2id time cost used when none is set.
	DefaultArgon2Iterations = 3
)

// KDFParams describes how a key was (or will be) derived from a password.
type KDFParams struct {
	Algorithm  KDFAlgorithm
	Iterations int
}

// DefaultKDFParams returns the registration parameters for alg. An empty
// algorithm selects PBKDF2-HMAC-SHA256.
func DefaultKDFParams(alg KDFAlgorithm) KDFParams {
	switch alg {
	case KDFArgon2id:
		return KDFParams{Algorithm: KDFArgon2id, Iterations: DefaultArgon2Iterations}
	default:
		return KDFParams{Algorithm: KDFPBKDF2SHA256, Iterations: common.DefaultKDFIterations}
	}
}

// Validate reports whether p can be used for derivation.
func (p KDFParams) Validate() error {
	switch p.Algorithm {
	case KDFPBKDF2SHA256, "":
		if p.Iterations < common.MinKDFIterations {
			return fmt.Errorf("%w: pbkdf2 iterations must be at least %d, got %d",
				common.ErrInvalidInput, common.MinKDFIterations, p.Iterations)
		}
	case KDFArgon2id:
		if p.Iterations < 1 {
			return fmt.Errorf("%w: argon2id time cost must be positive, got %d",
				common.ErrInvalidInput, p.Iterations)
		}
	default:
		return fmt.Errorf("%w: unknown kdf %q", common.ErrInvalidInput, p.Algorithm)
	}
	return nil
}

// DeriveKey stretches password with salt using PBKDF2-HMAC-SHA256 and returns
// a 32-byte key. The same inputs always produce the same key.
func DeriveKey(password, salt []byte, iterations int) ([]byte, error) {
	return DeriveKeyWith(KDFParams{Algorithm: KDFPBKDF2SHA256, Iterations: iterations}, password, salt)
}

// DeriveKeyWith derives a 32-byte key using the algorithm and cost in p.
// It fails only on malformed input: an empty salt or an out of range cost.
func DeriveKeyWith(p KDFParams, password, salt []byte) ([]byte, error) {
	if len(salt) == 0 {
		return nil, fmt.Errorf("%w: empty salt", common.ErrInvalidInput)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	if p.Algorithm == KDFArgon2id {
		return argon2.IDKey(password, salt, uint32(p.Iterations), argon2Memory, argon2Threads, common.KeySize), nil
	}
	return pbkdf2.Key(password, salt, p.Iterations, common.KeySize, sha256.New), nil
}
