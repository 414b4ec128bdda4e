package entities

import (
	"fmt"
	"strings"
	"time"
)

// Default timeouts for the two kinds of upstream requests
const (
	DefaultResolveTimeout  = 10 * time.Second
	DefaultDownloadTimeout = 5 * time.Minute
)

// DefaultExtensions is the installer/archive allow-list used when parsing resolved URLs
var DefaultExtensions = []string{"zip", "dmg", "tar.gz", "tar.xz", "exe", "msi", "pkg", "AppImage", "deb", "rpm"}

// Config holds everything the mirror workflow needs for one run
type Config struct {
	Product    string
	Owner      string
	Repo       string
	Token      string
	Targets    []PlatformTarget
	Extensions []string

	ResolveTimeout  time.Duration
	DownloadTimeout time.Duration

	WorkDir    string
	LedgerPath string

	// RequireAllPlatforms aborts the run when any configured platform failed to download
	RequireAllPlatforms bool

	// ReconcileExistingRelease records a version in the ledger when its release
	// already exists remotely instead of reporting a publish failure
	ReconcileExistingRelease bool

	Release   ReleaseConfig
	Checksums ChecksumConfig
	GitHub    GitHubConfig
}

// ReleaseConfig controls the text of created releases.
// Templates support {product}, {version} and {tag} placeholders.
type ReleaseConfig struct {
	TitleTemplate string
	BodyTemplate  string
}

// ChecksumConfig controls the optional SHA256SUMS release asset
type ChecksumConfig struct {
	Enabled        bool
	SigningKeyPath string
	Passphrase     string
}

// GitHubConfig holds release API settings
type GitHubConfig struct {
	APIURL     string
	MaxRetries int
}

// DefaultConfig returns the built-in configuration mirroring Snipaste
func DefaultConfig() Config {
	return Config{
		Product: "Snipaste",
		Targets: []PlatformTarget{
			{Name: "win-x64", RedirectURL: "https://dl.snipaste.com/win-x64"},
			{Name: "win-x86", RedirectURL: "https://dl.snipaste.com/win-x86"},
			{Name: "mac", RedirectURL: "https://dl.snipaste.com/mac"},
			{Name: "linux", RedirectURL: "https://dl.snipaste.com/linux"},
		},
		Extensions:               append([]string(nil), DefaultExtensions...),
		ResolveTimeout:           DefaultResolveTimeout,
		DownloadTimeout:          DefaultDownloadTimeout,
		WorkDir:                  ".",
		LedgerPath:               "versions.json",
		ReconcileExistingRelease: true,
		Release: ReleaseConfig{
			TitleTemplate: "{product} {tag}",
			BodyTemplate:  "Automated mirror of {product} {tag}",
		},
		GitHub: GitHubConfig{
			APIURL: "https://api.github.com",
		},
	}
}

// SetRepository parses an "owner/repo" identifier
func (c *Config) SetRepository(id string) error {
	owner, repo, ok := strings.Cut(strings.TrimSpace(id), "/")
	if !ok || owner == "" || repo == "" || strings.Contains(repo, "/") {
		return fmt.Errorf("invalid repository %q: expected owner/repo", id)
	}
	c.Owner = owner
	c.Repo = repo
	return nil
}

// Repository returns the "owner/repo" identifier
func (c *Config) Repository() string {
	if c.Owner == "" && c.Repo == "" {
		return ""
	}
	return c.Owner + "/" + c.Repo
}

// Validate checks the fields every run depends on.
// Publishing credentials are checked separately by ValidatePublish.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Product) == "" {
		return fmt.Errorf("product name is required")
	}
	if len(c.Targets) == 0 {
		return fmt.Errorf("at least one platform target is required")
	}
	seen := make(map[string]bool, len(c.Targets))
	for _, t := range c.Targets {
		if t.Name == "" || t.RedirectURL == "" {
			return fmt.Errorf("platform target must have a name and redirect_url")
		}
		if seen[t.Name] {
			return fmt.Errorf("duplicate platform target %q", t.Name)
		}
		seen[t.Name] = true
	}
	if len(c.Extensions) == 0 {
		return fmt.Errorf("extension allow-list must not be empty")
	}
	if c.ResolveTimeout <= 0 || c.DownloadTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	if c.LedgerPath == "" {
		return fmt.Errorf("ledger path is required")
	}
	if c.GitHub.MaxRetries < 0 {
		return fmt.Errorf("github max_retries must not be negative")
	}
	return nil
}

// ValidatePublish checks the settings needed to talk to the release API
func (c *Config) ValidatePublish() error {
	if c.Owner == "" || c.Repo == "" {
		return fmt.Errorf("target repository is required (set GITHUB_REPOSITORY or repository in config)")
	}
	if c.Token == "" {
		return fmt.Errorf("GITHUB_TOKEN environment variable is required")
	}
	return nil
}

// ReleaseTitle renders the release title for a version
func (c *Config) ReleaseTitle(version string) string {
	return c.render(c.Release.TitleTemplate, version)
}

// ReleaseBody renders the release message for a version
func (c *Config) ReleaseBody(version string) string {
	return c.render(c.Release.BodyTemplate, version)
}

func (c *Config) render(template, version string) string {
	out := strings.ReplaceAll(template, "{product}", c.Product)
	out = strings.ReplaceAll(out, "{tag}", TagName(version))
	return strings.ReplaceAll(out, "{version}", version)
}
