package gateways

import (
	"fmt"

	"github.com/ochairo/relmirror/internal/external-adapters/gpg"
)

// SignatureSuffix is appended to a signed file's name for its detached signature
const SignatureSuffix = ".asc"

// gpgSigner wraps the external OpenPGP adapter for the mirror workflow
type gpgSigner struct {
	signer *gpg.Signer
}

// NewGPGSigner loads the signing key at keyPath
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewGPGSigner(keyPath string, passphrase []byte) (*gpgSigner, error) {
	signer, err := gpg.NewSignerFromFile(keyPath, passphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to load signing key: %w", err)
	}
	return &gpgSigner{signer: signer}, nil
}

// Sign writes filePath + ".asc" and returns its path
func (g *gpgSigner) Sign(filePath string) (string, error) {
	sigPath := filePath + SignatureSuffix
	if err := g.signer.SignFile(filePath, sigPath); err != nil {
		return "", fmt.Errorf("GPG signing failed: %w", err)
	}
	return sigPath, nil
}

// Fingerprint returns the signing key fingerprint
func (g *gpgSigner) Fingerprint() string {
	return g.signer.Fingerprint()
}
