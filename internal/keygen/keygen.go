package keygen

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mr-tron/base58"
	"github.com/rs/zerolog/log"
)

// ErrKeyExists is returned when a key file with the requested name already exists.
var ErrKeyExists = errors.New("key already exists")

// KeyPair is a freshly generated P-256 signing key in the PEM forms providers use.
type KeyPair struct {
	// PrivateKeyPEM is the PKCS#8 "PRIVATE KEY" block, the .p8 format.
	PrivateKeyPEM []byte
	// PublicKeyPEM is the PKIX "PUBLIC KEY" block.
	PublicKeyPEM []byte
	// Fingerprint is the Base58-encoded SHA-256 of the public key DER.
	Fingerprint string
}

// Generate creates a new ECDSA P-256 key pair.
func Generate() (*KeyPair, error) {
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("failed to generate key: %w", err)
	}

	privateKeyDER, err := x509.MarshalPKCS8PrivateKey(privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal private key: %w", err)
	}

	publicKeyDER, err := x509.MarshalPKIXPublicKey(&privateKey.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal public key: %w", err)
	}

	return &KeyPair{
		PrivateKeyPEM: pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privateKeyDER}),
		PublicKeyPEM:  pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: publicKeyDER}),
		Fingerprint:   Fingerprint(publicKeyDER),
	}, nil
}

// Fingerprint returns the Base58-encoded SHA-256 of a PKIX public key DER.
func Fingerprint(publicKeyDER []byte) string {
	hash := sha256.Sum256(publicKeyDER)
	return base58.Encode(hash[:])
}

// WriteFiles writes <name>.p8 (0600) and <name>.pub (0644) to dir, creating
// dir with 0700 permissions. Existing files are never overwritten; files are
// created exclusively so concurrent runs cannot replace each other's keys.
func (kp *KeyPair) WriteFiles(dir, name string) (privateKeyPath, publicKeyPath string, err error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", "", fmt.Errorf("failed to create key directory: %w", err)
	}

	privateKeyPath = filepath.Join(dir, name+".p8")
	publicKeyPath = filepath.Join(dir, name+".pub")

	if err := writeExclusive(privateKeyPath, kp.PrivateKeyPEM, 0600); err != nil {
		return "", "", fmt.Errorf("failed to write private key: %w", err)
	}

	// #nosec G306 - Public key files are intentionally world-readable
	if err := writeExclusive(publicKeyPath, kp.PublicKeyPEM, 0644); err != nil {
		// Clean up private key on failure
		_ = os.Remove(privateKeyPath)
		return "", "", fmt.Errorf("failed to write public key: %w", err)
	}

	log.Info().
		Str("fingerprint", kp.Fingerprint).
		Str("privateKeyPath", privateKeyPath).
		Str("publicKeyPath", publicKeyPath).
		Msg("key pair written")

	return privateKeyPath, publicKeyPath, nil
}

// writeExclusive creates path and writes data to it, failing with ErrKeyExists
// if path already exists. A partially written file is removed.
func writeExclusive(path string, data []byte, perm os.FileMode) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", ErrKeyExists, path)
		}
		return err
	}

	_, err = f.Write(data)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return err
	}

	return nil
}
