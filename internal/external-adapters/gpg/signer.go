// Package gpg provides OpenPGP detached signing of release checksum manifests.
package gpg

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/ProtonMail/go-crypto/openpgp"
)

// Signer produces armored detached signatures using ProtonMail's go-crypto
// This is in external-adapters to isolate the external dependency
type Signer struct {
	entity  *openpgp.Entity
	keyring openpgp.EntityList
}

// NewSignerFromFile loads an armored (or binary) private key and unlocks it
// with passphrase when the key is encrypted
func NewSignerFromFile(keyPath string, passphrase []byte) (*Signer, error) {
	//nolint:gosec // G304: keyPath is operator-provided signing key
	data, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open key file: %w", err)
	}
	return NewSigner(data, passphrase)
}

// NewSigner parses key material and selects the first entity with a private key
func NewSigner(keyData, passphrase []byte) (*Signer, error) {
	entities, err := openpgp.ReadArmoredKeyRing(bytes.NewReader(keyData))
	if err != nil {
		entities, err = openpgp.ReadKeyRing(bytes.NewReader(keyData))
		if err != nil {
			return nil, fmt.Errorf("failed to read key: %w", err)
		}
	}

	for _, entity := range entities {
		if entity.PrivateKey == nil {
			continue
		}
		if entity.PrivateKey.Encrypted {
			if len(passphrase) == 0 {
				return nil, fmt.Errorf("signing key is encrypted and no passphrase was provided")
			}
			if err := entity.DecryptPrivateKeys(passphrase); err != nil {
				return nil, fmt.Errorf("failed to decrypt signing key: %w", err)
			}
		}
		return &Signer{entity: entity, keyring: openpgp.EntityList{entity}}, nil
	}

	return nil, fmt.Errorf("no private key found in key material")
}

// Fingerprint returns the primary key fingerprint in upper-case hex
func (s *Signer) Fingerprint() string {
	return fmt.Sprintf("%X", s.entity.PrimaryKey.Fingerprint)
}

// SignFile writes an armored detached signature of filePath to sigPath and
// verifies it against the signing key before returning
func (s *Signer) SignFile(filePath, sigPath string) error {
	//nolint:gosec // G304: filePath is a manifest written by this run
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to open data file: %w", err)
	}

	var sig bytes.Buffer
	if err := openpgp.ArmoredDetachSign(&sig, s.entity, bytes.NewReader(data), nil); err != nil {
		return fmt.Errorf("failed to sign %s: %w", filePath, err)
	}

	if err := s.Verify(bytes.NewReader(data), bytes.NewReader(sig.Bytes())); err != nil {
		return err
	}

	if err := os.WriteFile(sigPath, sig.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write signature: %w", err)
	}
	return nil
}

// Verify checks an armored detached signature against the signing key
func (s *Signer) Verify(signed, signature io.Reader) error {
	if _, err := openpgp.CheckArmoredDetachedSignature(s.keyring, signed, signature, nil); err != nil {
		return fmt.Errorf("signature verification failed: %w", err)
	}
	return nil
}
