// Package jsonfile provides a version ledger persisted as a JSON array file.
package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/ochairo/relmirror/internal/domain/interfaces"
)

// VersionLedger implements repositories.VersionLedger on a single JSON file
// holding an array of version strings. Writes replace the whole file via
// rename; concurrent writers are not supported.
type VersionLedger struct {
	path   string
	logger interfaces.Logger
}

// NewVersionLedger creates a ledger backed by path
func NewVersionLedger(path string, logger interfaces.Logger) *VersionLedger {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &VersionLedger{path: path, logger: logger}
}

// Path returns the ledger file location
func (l *VersionLedger) Path() string {
	return l.path
}

// Contains reports whether version has been recorded
func (l *VersionLedger) Contains(ctx context.Context, version string) (bool, error) {
	versions, err := l.List(ctx)
	if err != nil {
		return false, err
	}
	return slices.Contains(versions, version), nil
}

// List loads the recorded versions. A missing file is created as an empty
// array and a malformed file is treated as empty; read errors are returned.
func (l *VersionLedger) List(_ context.Context) ([]string, error) {
	//nolint:gosec // G304: ledger path is operator configuration
	data, err := os.ReadFile(l.path)
	if errors.Is(err, os.ErrNotExist) {
		if err := l.write([]string{}); err != nil {
			return nil, fmt.Errorf("failed to create ledger: %w", err)
		}
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}

	var versions []string
	if err := json.Unmarshal(data, &versions); err != nil {
		l.logger.Warn("ledger file is corrupt, treating as empty",
			interfaces.F("path", l.path),
			interfaces.F("error", err))
		return []string{}, nil
	}
	if versions == nil {
		versions = []string{}
	}
	return versions, nil
}

// Add records version and rewrites the file; known versions are left as is
func (l *VersionLedger) Add(ctx context.Context, version string) error {
	versions, err := l.List(ctx)
	if err != nil {
		return err
	}
	if slices.Contains(versions, version) {
		return nil
	}

	if err := l.write(append(versions, version)); err != nil {
		return fmt.Errorf("failed to save ledger: %w", err)
	}
	return nil
}

// write replaces the ledger atomically through a temp file in the same directory
func (l *VersionLedger) write(versions []string) error {
	data, err := json.MarshalIndent(versions, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal ledger: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(l.path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create ledger directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(l.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		cleanup()
		return fmt.Errorf("failed to set ledger permissions: %w", err)
	}
	if err := os.Rename(tmpPath, l.path); err != nil {
		cleanup()
		return fmt.Errorf("failed to replace ledger: %w", err)
	}
	return nil
}
