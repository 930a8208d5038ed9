package common

const (
	// DefaultKDFIterations is the PBKDF2 iteration count used at registration.
	DefaultKDFIterations = 150_000

	// MinKDFIterations is the lowest iteration count accepted by the KDF.
	MinKDFIterations = 1_000

	// SaltSize is the length of the per-user random salt, in bytes.
	SaltSize = 16

	// KeySize is the derived symmetric key length (AES-256).
	KeySize = 32

	// ShareTokenSize is the number of random bytes behind a share token.
	ShareTokenSize = 32

	// ActivityLimit caps the number of activity events retained.
	ActivityLimit = 500
)
