// Package repositories defines interfaces for data access layers.
package repositories

import "context"

// VersionLedger records which upstream versions have already been mirrored
type VersionLedger interface {
	// Contains reports whether version has been mirrored
	Contains(ctx context.Context, version string) (bool, error)

	// Add records version as mirrored; adding a known version is a no-op
	Add(ctx context.Context, version string) error

	// List returns all mirrored versions in insertion order
	List(ctx context.Context) ([]string, error)
}
