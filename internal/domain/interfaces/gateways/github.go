// Package gateways defines interfaces for external service adapters.
package gateways

import (
	"context"
	"io"
)

// GitHubRelease represents a GitHub release
type GitHubRelease struct {
	ID          int64
	TagName     string
	Name        string
	Body        string
	Draft       bool
	Prerelease  bool
	CreatedAt   string
	PublishedAt string
	HTMLURL     string
	UploadURL   string
}

// GitHubAsset represents an uploaded release asset
type GitHubAsset struct {
	ID                 int64
	Name               string
	Label              string
	State              string
	Size               int64
	DownloadCount      int
	BrowserDownloadURL string
}

// GitHubGateway defines operations for GitHub API interactions
type GitHubGateway interface {
	// ListReleases lists every release in a repository
	ListReleases(ctx context.Context, owner, repo string) ([]*GitHubRelease, error)

	// CreateRelease creates a new GitHub release
	CreateRelease(ctx context.Context, owner, repo string, release *GitHubRelease) (*GitHubRelease, error)

	// UploadAsset uploads size bytes of content as a release asset
	UploadAsset(ctx context.Context, uploadURL, filename string, content io.Reader, size int64) (*GitHubAsset, error)
}
