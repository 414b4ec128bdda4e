// Package yaml provides YAML-based mirror configuration parsing.
package yaml

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ochairo/relmirror/internal/domain/entities"
	"gopkg.in/yaml.v3"
)

// yamlConfig represents the raw YAML structure. Pointer fields distinguish
// "unset" from zero values so defaults survive partial files.
type yamlConfig struct {
	Product                  string         `yaml:"product"`
	Repository               string         `yaml:"repository"`
	WorkDir                  string         `yaml:"work_dir"`
	Ledger                   string         `yaml:"ledger"`
	Extensions               []string       `yaml:"extensions"`
	RequireAllPlatforms      *bool          `yaml:"require_all_platforms"`
	ReconcileExistingRelease *bool          `yaml:"reconcile_existing_release"`
	Timeouts                 yamlTimeouts   `yaml:"timeouts"`
	Release                  yamlRelease    `yaml:"release"`
	Checksums                yamlChecksums  `yaml:"checksums"`
	GitHub                   yamlGitHub     `yaml:"github"`
	Targets                  []yamlPlatform `yaml:"targets"`
}

type yamlTimeouts struct {
	Resolve  string `yaml:"resolve"`
	Download string `yaml:"download"`
}

type yamlRelease struct {
	Title string `yaml:"title"`
	Body  string `yaml:"body"`
}

type yamlChecksums struct {
	Enabled    *bool  `yaml:"enabled"`
	SigningKey string `yaml:"signing_key"`
}

type yamlGitHub struct {
	APIURL     string `yaml:"api_url"`
	MaxRetries *int   `yaml:"max_retries"`
}

type yamlPlatform struct {
	Name        string `yaml:"name"`
	RedirectURL string `yaml:"redirect_url"`
}

// ConfigParser parses YAML configuration files
type ConfigParser struct{}

// NewConfigParser creates a new YAML parser
func NewConfigParser() *ConfigParser {
	return &ConfigParser{}
}

// ParseFile parses a YAML config file on top of base
func (p *ConfigParser) ParseFile(filePath string, base entities.Config) (entities.Config, error) {
	//nolint:gosec // G304: filePath is operator-provided configuration
	data, err := os.ReadFile(filePath)
	if err != nil {
		return entities.Config{}, fmt.Errorf("failed to read file %s: %w", filePath, err)
	}

	return p.Parse(data, base)
}

// Parse overlays the YAML document onto base; fields absent from the document keep base values
func (p *ConfigParser) Parse(data []byte, base entities.Config) (entities.Config, error) {
	var raw yamlConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return entities.Config{}, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg := base

	if v := strings.TrimSpace(raw.Product); v != "" {
		cfg.Product = v
	}
	if v := strings.TrimSpace(raw.Repository); v != "" {
		if err := cfg.SetRepository(v); err != nil {
			return entities.Config{}, err
		}
	}
	if v := strings.TrimSpace(raw.WorkDir); v != "" {
		cfg.WorkDir = v
	}
	if v := strings.TrimSpace(raw.Ledger); v != "" {
		cfg.LedgerPath = v
	}
	if len(raw.Extensions) > 0 {
		cfg.Extensions = append([]string(nil), raw.Extensions...)
	}
	if raw.RequireAllPlatforms != nil {
		cfg.RequireAllPlatforms = *raw.RequireAllPlatforms
	}
	if raw.ReconcileExistingRelease != nil {
		cfg.ReconcileExistingRelease = *raw.ReconcileExistingRelease
	}

	if err := applyDuration(&cfg.ResolveTimeout, raw.Timeouts.Resolve, "timeouts.resolve"); err != nil {
		return entities.Config{}, err
	}
	if err := applyDuration(&cfg.DownloadTimeout, raw.Timeouts.Download, "timeouts.download"); err != nil {
		return entities.Config{}, err
	}

	if strings.TrimSpace(raw.Release.Title) != "" {
		cfg.Release.TitleTemplate = raw.Release.Title
	}
	if strings.TrimSpace(raw.Release.Body) != "" {
		cfg.Release.BodyTemplate = raw.Release.Body
	}

	if raw.Checksums.Enabled != nil {
		cfg.Checksums.Enabled = *raw.Checksums.Enabled
	}
	if v := strings.TrimSpace(raw.Checksums.SigningKey); v != "" {
		cfg.Checksums.SigningKeyPath = v
	}

	if v := strings.TrimSpace(raw.GitHub.APIURL); v != "" {
		cfg.GitHub.APIURL = v
	}
	if raw.GitHub.MaxRetries != nil {
		cfg.GitHub.MaxRetries = *raw.GitHub.MaxRetries
	}

	if len(raw.Targets) > 0 {
		cfg.Targets = convertTargets(raw.Targets)
	}

	return cfg, nil
}

func convertTargets(raw []yamlPlatform) []entities.PlatformTarget {
	targets := make([]entities.PlatformTarget, 0, len(raw))
	for _, t := range raw {
		targets = append(targets, entities.PlatformTarget{
			Name:        strings.TrimSpace(t.Name),
			RedirectURL: strings.TrimSpace(t.RedirectURL),
		})
	}
	return targets
}

func applyDuration(dst *time.Duration, raw, field string) error {
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
