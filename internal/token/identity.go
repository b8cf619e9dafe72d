package token

import (
	"crypto/sha256"
	"encoding/pem"
	"fmt"
)

// Identity holds the provider-assigned key id, the issuer (team) id and the
// PEM-decoded private key used to sign tokens.
//
// An Identity is immutable once created. Copies share the decoded key bytes,
// which are never written after construction, so an Identity can be passed
// by value and used from multiple goroutines.
type Identity struct {
	keyID    string
	issuerID string
	block    *pem.Block
}

// NewIdentity decodes privateKeyPEM and returns an Identity for keyID and issuerID.
// The key bytes are not validated here; an unusable key is reported by Issue.
func NewIdentity(keyID, issuerID, privateKeyPEM string) (Identity, error) {
	block, _ := pem.Decode([]byte(privateKeyPEM))
	if block == nil {
		return Identity{}, fmt.Errorf("%w: no PEM block found in private key", ErrPemFormat)
	}

	return Identity{
		keyID:    keyID,
		issuerID: issuerID,
		block:    block,
	}, nil
}

// KeyID returns the key identifier placed in the token "kid" header.
func (id Identity) KeyID() string {
	return id.keyID
}

// IssuerID returns the team identifier placed in the "iss" claim.
func (id Identity) IssuerID() string {
	return id.issuerID
}

// KeyType returns the PEM block type of the private key, e.g. "PRIVATE KEY".
func (id Identity) KeyType() string {
	if id.block == nil {
		return ""
	}
	return id.block.Type
}

// String never includes key material.
func (id Identity) String() string {
	return fmt.Sprintf("Identity{kid=%s iss=%s type=%s}", id.keyID, id.issuerID, id.KeyType())
}

// cacheKey identifies the tokens an Identity produces. The ids are quoted so
// separators inside them cannot collide, and the key bytes are digested so
// different keys under the same ids get separate entries.
func (id Identity) cacheKey() string {
	var keyBytes []byte
	if id.block != nil {
		keyBytes = id.block.Bytes
	}
	return fmt.Sprintf("%q|%q|%x", id.keyID, id.issuerID, sha256.Sum256(keyBytes))
}
