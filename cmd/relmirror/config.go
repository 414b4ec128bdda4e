package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ochairo/relmirror/internal/domain/entities"
	"github.com/ochairo/relmirror/internal/external-adapters/toml"
	"github.com/ochairo/relmirror/internal/external-adapters/yaml"
)

// Environment variables read by the CLI
const (
	envToken             = "GITHUB_TOKEN"
	envTokenFallback     = "GH_TOKEN"
	envRepository        = "GITHUB_REPOSITORY"
	envSigningPassphrase = "RELMIRROR_SIGNING_PASSPHRASE"
)

// loadConfig layers the built-in defaults, an optional config file and the
// process environment, in that order
func loadConfig(path string, getenv func(string) string) (entities.Config, error) {
	cfg := entities.DefaultConfig()

	if path != "" {
		var err error
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yml", ".yaml":
			cfg, err = yaml.NewConfigParser().ParseFile(path, cfg)
		case ".toml":
			cfg, err = toml.LoadFile(path, cfg)
		default:
			return entities.Config{}, fmt.Errorf("unsupported config file extension %q (expected .yml, .yaml or .toml)", filepath.Ext(path))
		}
		if err != nil {
			return entities.Config{}, err
		}
	}

	if repo := strings.TrimSpace(getenv(envRepository)); repo != "" {
		if err := cfg.SetRepository(repo); err != nil {
			return entities.Config{}, fmt.Errorf("%s: %w", envRepository, err)
		}
	}

	cfg.Token = getenv(envToken)
	if cfg.Token == "" {
		cfg.Token = getenv(envTokenFallback)
	}
	cfg.Checksums.Passphrase = getenv(envSigningPassphrase)

	if err := cfg.Validate(); err != nil {
		return entities.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
