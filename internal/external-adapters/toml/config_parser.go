// Package toml provides TOML-based mirror configuration parsing.
package toml

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/ochairo/relmirror/internal/domain/entities"
)

type fileConfig struct {
	Product                  string         `toml:"product"`
	Repository               string         `toml:"repository"`
	WorkDir                  string         `toml:"work_dir"`
	Ledger                   string         `toml:"ledger"`
	Extensions               []string       `toml:"extensions"`
	RequireAllPlatforms      bool           `toml:"require_all_platforms"`
	ReconcileExistingRelease bool           `toml:"reconcile_existing_release"`
	Timeouts                 fileTimeouts   `toml:"timeouts"`
	Release                  fileRelease    `toml:"release"`
	Checksums                fileChecksums  `toml:"checksums"`
	GitHub                   fileGitHub     `toml:"github"`
	Targets                  []filePlatform `toml:"targets"`
}

type fileTimeouts struct {
	Resolve  string `toml:"resolve"`
	Download string `toml:"download"`
}

type fileRelease struct {
	Title string `toml:"title"`
	Body  string `toml:"body"`
}

type fileChecksums struct {
	Enabled    bool   `toml:"enabled"`
	SigningKey string `toml:"signing_key"`
}

type fileGitHub struct {
	APIURL     string `toml:"api_url"`
	MaxRetries int    `toml:"max_retries"`
}

type filePlatform struct {
	Name        string `toml:"name"`
	RedirectURL string `toml:"redirect_url"`
}

// LoadFile decodes a TOML config file on top of base
func LoadFile(path string, base entities.Config) (entities.Config, error) {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return entities.Config{}, fmt.Errorf("load config: %w", err)
	}
	return apply(raw, meta, base)
}

// Decode decodes a TOML document on top of base
func Decode(data string, base entities.Config) (entities.Config, error) {
	var raw fileConfig
	meta, err := toml.Decode(data, &raw)
	if err != nil {
		return entities.Config{}, fmt.Errorf("load config: %w", err)
	}
	return apply(raw, meta, base)
}

// apply overlays raw onto base. Empty strings and empty lists count as unset,
// matching the YAML parser; booleans and numbers apply whenever the key is present.
func apply(raw fileConfig, meta toml.MetaData, base entities.Config) (entities.Config, error) {
	cfg := base

	setString(&cfg.Product, raw.Product)
	setString(&cfg.WorkDir, raw.WorkDir)
	setString(&cfg.LedgerPath, raw.Ledger)
	setString(&cfg.Checksums.SigningKeyPath, raw.Checksums.SigningKey)
	setString(&cfg.GitHub.APIURL, raw.GitHub.APIURL)

	if v := strings.TrimSpace(raw.Repository); v != "" {
		if err := cfg.SetRepository(v); err != nil {
			return entities.Config{}, err
		}
	}

	// templates keep their own whitespace
	if strings.TrimSpace(raw.Release.Title) != "" {
		cfg.Release.TitleTemplate = raw.Release.Title
	}
	if strings.TrimSpace(raw.Release.Body) != "" {
		cfg.Release.BodyTemplate = raw.Release.Body
	}

	if len(raw.Extensions) > 0 {
		cfg.Extensions = append([]string(nil), raw.Extensions...)
	}

	if meta.IsDefined("require_all_platforms") {
		cfg.RequireAllPlatforms = raw.RequireAllPlatforms
	}

	if meta.IsDefined("reconcile_existing_release") {
		cfg.ReconcileExistingRelease = raw.ReconcileExistingRelease
	}

	if err := setDuration(&cfg.ResolveTimeout, raw.Timeouts.Resolve, "timeouts.resolve"); err != nil {
		return entities.Config{}, err
	}
	if err := setDuration(&cfg.DownloadTimeout, raw.Timeouts.Download, "timeouts.download"); err != nil {
		return entities.Config{}, err
	}

	if meta.IsDefined("checksums", "enabled") {
		cfg.Checksums.Enabled = raw.Checksums.Enabled
	}

	if meta.IsDefined("github", "max_retries") {
		cfg.GitHub.MaxRetries = raw.GitHub.MaxRetries
	}

	if len(raw.Targets) > 0 {
		targets := make([]entities.PlatformTarget, 0, len(raw.Targets))
		for _, t := range raw.Targets {
			targets = append(targets, entities.PlatformTarget{
				Name:        strings.TrimSpace(t.Name),
				RedirectURL: strings.TrimSpace(t.RedirectURL),
			})
		}
		cfg.Targets = targets
	}

	return cfg, nil
}

func setString(dst *string, raw string) {
	if v := strings.TrimSpace(raw); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, raw, field string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse %s: %w", field, err)
	}
	*dst = d
	return nil
}
