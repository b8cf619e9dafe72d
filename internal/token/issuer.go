// Package token issues short-lived ES256 provider authentication tokens from a
// key id, an issuer (team) id and a PEM-encoded P-256 private key.
package token

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Option configures an Issuer.
type Option func(*Issuer)

// WithClock overrides the time source used for the "iat" and "exp" claims.
func WithClock(now func() time.Time) Option {
	return func(i *Issuer) {
		if now != nil {
			i.now = now
		}
	}
}

// Issuer builds and signs provider tokens. It holds no per-token state and is
// safe for concurrent use.
type Issuer struct {
	now func() time.Time
}

// NewIssuer creates an Issuer reading the wall clock unless WithClock is given.
func NewIssuer(opts ...Option) *Issuer {
	i := &Issuer{now: time.Now}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

var defaultIssuer = NewIssuer()

// Issue signs a token for id valid for validity using the wall clock.
func Issue(id Identity, validity time.Duration) (string, error) {
	return defaultIssuer.Issue(id, validity)
}

// Issue returns a compact serialized JWT with header {"alg":"ES256","kid":<key id>}
// and claims {"iss":<issuer id>,"exp":<iat+validity>,"iat":<now>}.
//
// The clock is read once and both timestamps are derived from that reading, so
// exp - iat is always validity truncated to whole seconds.
func (i *Issuer) Issue(id Identity, validity time.Duration) (string, error) {
	issuedAt, expiresAt, err := claimTimes(i.now(), validity)
	if err != nil {
		return "", err
	}

	claims := &jwt.RegisteredClaims{
		Issuer:    id.issuerID,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	token := jwt.NewWithClaims(signingMethodES256, claims)

	// Replace the default header so "typ" is not emitted.
	token.Header = map[string]any{
		"alg": signingMethodES256.Alg(),
		"kid": id.keyID,
	}

	signingString, err := token.SigningString()
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSerialization, err)
	}

	privateKey, err := parseSigningKey(id.block)
	if err != nil {
		return "", err
	}

	sig, err := token.Method.Sign(signingString, privateKey)
	if err != nil {
		return "", fmt.Errorf("%w: failed to sign token: %v", ErrKeyRejected, err)
	}

	return signingString + "." + token.EncodeSegment(sig), nil
}

// claimTimes returns the issued-at and expiry instants, both whole seconds.
func claimTimes(now time.Time, validity time.Duration) (time.Time, time.Time, error) {
	iat := now.Unix()
	if iat < 0 {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: current time %s is before the unix epoch", ErrClock, now.UTC().Format(time.RFC3339))
	}

	if validity < 0 {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: negative validity %s", ErrClock, validity)
	}

	seconds := int64(validity / time.Second)
	if iat > math.MaxInt64-seconds {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: expiry overflows for validity %s", ErrClock, validity)
	}

	return time.Unix(iat, 0), time.Unix(iat+seconds, 0), nil
}

// Quote returns token as a JSON string literal, for callers that embed the
// token in JSON payloads.
func Quote(token string) (string, error) {
	b, err := json.Marshal(token)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSerialization, err)
	}
	return string(b), nil
}
