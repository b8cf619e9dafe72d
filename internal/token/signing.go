package token

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"
)

// ES256 signatures are r || s, each left padded to the P-256 field size.
const es256KeySize = 32

var _ jwt.SigningMethod = (*signingMethodES256Fixed)(nil)

// signingMethodES256Fixed is ES256 with RFC 6979 deterministic nonces, so the
// same key and signing input always produce the same signature.
//
// It is not registered with jwt.RegisterSigningMethod; tokens it produces
// verify with the stock jwt.SigningMethodES256.
type signingMethodES256Fixed struct{}

var signingMethodES256 = &signingMethodES256Fixed{}

func (m *signingMethodES256Fixed) Alg() string {
	return jwt.SigningMethodES256.Alg()
}

func (m *signingMethodES256Fixed) Verify(signingString string, sig []byte, key any) error {
	return jwt.SigningMethodES256.Verify(signingString, sig, key)
}

func (m *signingMethodES256Fixed) Sign(signingString string, key any) ([]byte, error) {
	privateKey, ok := key.(*ecdsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: expected *ecdsa.PrivateKey, got %T", jwt.ErrInvalidKeyType, key)
	}

	digest := sha256.Sum256([]byte(signingString))

	// A nil random source selects deterministic RFC 6979 signing.
	der, err := privateKey.Sign(nil, digest[:], crypto.SHA256)
	if err != nil {
		return nil, err
	}

	r, s, err := parseECDSASignature(der)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 2*es256KeySize)
	r.FillBytes(out[:es256KeySize])
	s.FillBytes(out[es256KeySize:])

	return out, nil
}

// parseECDSASignature parses a DER-encoded ECDSA-Sig-Value.
func parseECDSASignature(der []byte) (*big.Int, *big.Int, error) {
	var (
		r, s  = new(big.Int), new(big.Int)
		inner cryptobyte.String
	)

	input := cryptobyte.String(der)
	if !input.ReadASN1(&inner, cbasn1.SEQUENCE) ||
		!input.Empty() ||
		!inner.ReadASN1Integer(r) ||
		!inner.ReadASN1Integer(s) ||
		!inner.Empty() {
		return nil, nil, errors.New("malformed ECDSA signature")
	}

	return r, s, nil
}

// parseSigningKey decodes the key bytes of block as a P-256 private key.
// PKCS#8 is what providers hand out; SEC1 "EC PRIVATE KEY" is accepted as well.
func parseSigningKey(block *pem.Block) (*ecdsa.PrivateKey, error) {
	if block == nil {
		return nil, fmt.Errorf("%w: no private key", ErrKeyRejected)
	}

	var privateKey *ecdsa.PrivateKey

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err == nil {
		ecKey, ok := parsed.(*ecdsa.PrivateKey)
		if !ok {
			return nil, fmt.Errorf("%w: key is %T, not ECDSA", ErrKeyRejected, parsed)
		}
		privateKey = ecKey
	} else {
		ecKey, ecErr := x509.ParseECPrivateKey(block.Bytes)
		if ecErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrKeyRejected, errors.Join(err, ecErr))
		}
		privateKey = ecKey
	}

	if privateKey.Curve != elliptic.P256() {
		return nil, fmt.Errorf("%w: curve %s is not P-256", ErrKeyRejected, privateKey.Curve.Params().Name)
	}

	return privateKey, nil
}
