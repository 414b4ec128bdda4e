// Package memory provides in-process implementations of domain repositories.
package memory

import (
	"context"
	"slices"
	"sync"
)

// VersionLedger is an in-memory repositories.VersionLedger
type VersionLedger struct {
	mu       sync.Mutex
	versions []string
}

// NewVersionLedger creates a ledger seeded with versions
func NewVersionLedger(versions ...string) *VersionLedger {
	l := &VersionLedger{}
	for _, v := range versions {
		if !slices.Contains(l.versions, v) {
			l.versions = append(l.versions, v)
		}
	}
	return l
}

// Contains reports whether version has been recorded
func (l *VersionLedger) Contains(_ context.Context, version string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Contains(l.versions, version), nil
}

// Add records version once
func (l *VersionLedger) Add(_ context.Context, version string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !slices.Contains(l.versions, version) {
		l.versions = append(l.versions, version)
	}
	return nil
}

// List returns a copy of the recorded versions
func (l *VersionLedger) List(_ context.Context) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string{}, l.versions...), nil
}
