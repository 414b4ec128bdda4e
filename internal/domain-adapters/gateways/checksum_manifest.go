package gateways

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ochairo/relmirror/internal/domain/entities"
)

// ChecksumManifestName is the asset name of the generated checksum list
const ChecksumManifestName = "SHA256SUMS"

// ChecksumManifest hashes downloaded artifacts and writes a sha256sum-compatible list
type ChecksumManifest struct{}

// NewChecksumManifest creates a new checksum manifest writer
func NewChecksumManifest() *ChecksumManifest {
	return &ChecksumManifest{}
}

// CalculateChecksum calculates the SHA256 checksum of a file
func (m *ChecksumManifest) CalculateChecksum(filePath string) (string, error) {
	//nolint:gosec // G304: File path is a downloaded artifact owned by this run
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash file: %w", err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// Write fills in each artifact's SHA256 and writes outputDir/SHA256SUMS,
// sorted by filename. It returns the manifest path.
func (m *ChecksumManifest) Write(artifacts []*entities.Artifact, outputDir string) (string, error) {
	lines := make([]string, 0, len(artifacts))
	for _, artifact := range artifacts {
		sum, err := m.CalculateChecksum(artifact.Path)
		if err != nil {
			return "", fmt.Errorf("checksum %s: %w", filepath.Base(artifact.Path), err)
		}
		artifact.SHA256 = sum
		lines = append(lines, fmt.Sprintf("%s  %s", sum, filepath.Base(artifact.Path)))
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i][66:] < lines[j][66:] })

	path := filepath.Join(outputDir, ChecksumManifestName)
	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return "", fmt.Errorf("failed to write checksum manifest: %w", err)
	}
	return path, nil
}
