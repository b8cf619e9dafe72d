package token

import "errors"

// Sentinel errors
var (
	// ErrPemFormat is returned when the private key input is not a PEM block.
	ErrPemFormat = errors.New("invalid PEM format")

	// ErrClock is returned when the current time is before the unix epoch or the
	// requested validity cannot be turned into an expiry claim.
	ErrClock = errors.New("invalid clock")

	// ErrKeyRejected is returned when the key bytes are not an ECDSA P-256 private key.
	ErrKeyRejected = errors.New("signing key rejected")

	// ErrSerialization is returned when the header, claims or token cannot be encoded.
	ErrSerialization = errors.New("token serialization failed")
)

// Retryable reports whether issuing again with the same input may succeed.
// Only clock failures can be transient.
func Retryable(err error) bool {
	return errors.Is(err, ErrClock)
}

// ErrorKind returns a short label for err, suitable for metric attributes.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrPemFormat):
		return "pem"
	case errors.Is(err, ErrClock):
		return "clock"
	case errors.Is(err, ErrKeyRejected):
		return "key_rejected"
	case errors.Is(err, ErrSerialization):
		return "serialization"
	default:
		return "unknown"
	}
}
