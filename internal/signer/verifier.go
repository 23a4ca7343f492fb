// Package signer checks the detached GPG signatures a server publishes next
// to its repository metadata (repomd.xml.asc).
package signer

import (
	"bytes"
	"fmt"
	"os"

	"github.com/ProtonMail/go-crypto/openpgp"
)

// Verifier validates armored detached signatures against a trusted keyring.
type Verifier struct {
	keyring openpgp.EntityList
}

// NewVerifier creates a verifier from a public keyring file.
func NewVerifier(keyringPath string) (*Verifier, error) {
	if keyringPath == "" {
		return nil, fmt.Errorf("keyring path is empty")
	}

	keyFile, err := os.Open(keyringPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open keyring: %w", err)
	}
	defer keyFile.Close()

	// Try to parse as an armored keyring first
	keyring, err := openpgp.ReadArmoredKeyRing(keyFile)
	if err != nil {
		// Try as a binary keyring
		keyFile.Seek(0, 0)
		keyring, err = openpgp.ReadKeyRing(keyFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read keyring: %w", err)
		}
	}

	if len(keyring) == 0 {
		return nil, fmt.Errorf("no keys found in keyring")
	}

	return &Verifier{keyring: keyring}, nil
}

// NewVerifierFromKeyring wraps an already-loaded keyring.
func NewVerifierFromKeyring(keyring openpgp.EntityList) *Verifier {
	return &Verifier{keyring: keyring}
}

// VerifyDetached checks an armored detached signature over data.
func (v *Verifier) VerifyDetached(data, signature []byte) error {
	_, err := openpgp.CheckArmoredDetachedSignature(
		v.keyring,
		bytes.NewReader(data),
		bytes.NewReader(signature),
		nil,
	)
	if err != nil {
		return fmt.Errorf("signature verification failed: %w", err)
	}
	return nil
}
