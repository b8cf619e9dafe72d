package token

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSigningMethodES256Fixed(t *testing.T) {
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	const signingString = "eyJhbGciOiJFUzI1NiIsImtpZCI6ImtpZCJ9.eyJpc3MiOiJ0ZWFtIn0"

	t.Run("signs deterministically", func(t *testing.T) {
		first, err := signingMethodES256.Sign(signingString, privateKey)
		require.NoError(t, err)
		second, err := signingMethodES256.Sign(signingString, privateKey)
		require.NoError(t, err)

		assert.Len(t, first, 64)
		assert.Equal(t, first, second)
	})

	t.Run("verifies with stock ES256", func(t *testing.T) {
		sig, err := signingMethodES256.Sign(signingString, privateKey)
		require.NoError(t, err)

		require.NoError(t, jwt.SigningMethodES256.Verify(signingString, sig, &privateKey.PublicKey))
		require.NoError(t, signingMethodES256.Verify(signingString, sig, &privateKey.PublicKey))
		require.Error(t, jwt.SigningMethodES256.Verify(signingString+"x", sig, &privateKey.PublicKey))
	})

	t.Run("rejects wrong key type", func(t *testing.T) {
		_, err := signingMethodES256.Sign(signingString, []byte("secret"))
		require.ErrorIs(t, err, jwt.ErrInvalidKeyType)
	})

	t.Run("reports ES256", func(t *testing.T) {
		assert.Equal(t, "ES256", signingMethodES256.Alg())
	})
}

func TestParseECDSASignature(t *testing.T) {
	t.Run("valid DER", func(t *testing.T) {
		// SEQUENCE { INTEGER 1, INTEGER 2 }
		r, s, err := parseECDSASignature([]byte{0x30, 0x06, 0x02, 0x01, 0x01, 0x02, 0x01, 0x02})
		require.NoError(t, err)
		assert.Equal(t, int64(1), r.Int64())
		assert.Equal(t, int64(2), s.Int64())
	})

	tests := []struct {
		name string
		der  []byte
	}{
		{name: "empty", der: nil},
		{name: "not a sequence", der: []byte{0x02, 0x01, 0x01}},
		{name: "missing s", der: []byte{0x30, 0x03, 0x02, 0x01, 0x01}},
		{name: "trailing data", der: []byte{0x30, 0x06, 0x02, 0x01, 0x01, 0x02, 0x01, 0x02, 0x00}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := parseECDSASignature(tt.der)
			require.Error(t, err)
		})
	}
}

func TestParseSigningKey(t *testing.T) {
	decode := func(t *testing.T, name string) *pem.Block {
		t.Helper()
		block, _ := pem.Decode([]byte(readTestdata(t, name)))
		require.NotNil(t, block)
		return block
	}

	t.Run("PKCS8 and SEC1 yield the same key", func(t *testing.T) {
		pkcs8, err := parseSigningKey(decode(t, "p256_pkcs8.pem"))
		require.NoError(t, err)
		sec1, err := parseSigningKey(decode(t, "p256_sec1.pem"))
		require.NoError(t, err)

		assert.True(t, pkcs8.Equal(sec1))
	})

	t.Run("generated PKCS8 key", func(t *testing.T) {
		privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
		require.NoError(t, err)
		der, err := x509.MarshalPKCS8PrivateKey(privateKey)
		require.NoError(t, err)

		parsed, err := parseSigningKey(&pem.Block{Type: "PRIVATE KEY", Bytes: der})
		require.NoError(t, err)
		assert.True(t, privateKey.Equal(parsed))
	})

	t.Run("nil block", func(t *testing.T) {
		_, err := parseSigningKey(nil)
		require.ErrorIs(t, err, ErrKeyRejected)
	})

	t.Run("RSA", func(t *testing.T) {
		_, err := parseSigningKey(decode(t, "rsa_pkcs8.pem"))
		require.ErrorIs(t, err, ErrKeyRejected)
		assert.Contains(t, err.Error(), "not ECDSA")
	})

	t.Run("neither PKCS8 nor SEC1", func(t *testing.T) {
		_, err := parseSigningKey(&pem.Block{Type: "PRIVATE KEY", Bytes: []byte("not a key")})
		require.ErrorIs(t, err, ErrKeyRejected)
		// Both parse attempts are reported.
		assert.Contains(t, err.Error(), "failed to parse EC private key")
		assert.Len(t, strings.Split(err.Error(), "\n"), 2)
	})

	t.Run("P-384", func(t *testing.T) {
		_, err := parseSigningKey(decode(t, "p384_pkcs8.pem"))
		require.ErrorIs(t, err, ErrKeyRejected)
		assert.Contains(t, err.Error(), "P-384")
	})
}
