// Package common defines shared constants, sentinel errors and small helpers
// used across the EncodeX vault core. Callers should use errors.Is to match
// the sentinel values.
package common

import "errors"

var (
	// Input validation, rejected before any cryptographic work.
	ErrInvalidInput = errors.New("invalid input")

	// Wrong password or a tampered/foreign verifier. Deliberately carries no
	// detail about which check failed.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// AEAD tag mismatch on a document body: wrong key or tampered ciphertext.
	ErrDecryptionFailed = errors.New("decryption failed")

	// Share token lifecycle errors.
	ErrTokenNotFound = errors.New("share token not found")
	ErrTokenRevoked  = errors.New("share token revoked")

	// A document operation attempted without an established key.
	ErrNoActiveSession = errors.New("no active session")

	// Repository-level errors.
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)
