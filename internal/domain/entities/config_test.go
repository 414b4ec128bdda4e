package entities

import (
	"strings"
	"testing"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() error = %v", err)
	}
	if len(cfg.Targets) != 4 {
		t.Errorf("len(Targets) = %d, want 4", len(cfg.Targets))
	}
	if !cfg.ReconcileExistingRelease {
		t.Error("ReconcileExistingRelease should default to true")
	}
}

func TestConfig_SetRepository(t *testing.T) {
	tests := []struct {
		input   string
		owner   string
		repo    string
		wantErr bool
	}{
		{input: "octo/snipaste-mirror", owner: "octo", repo: "snipaste-mirror"},
		{input: " octo/mirror ", owner: "octo", repo: "mirror"},
		{input: "octo", wantErr: true},
		{input: "/repo", wantErr: true},
		{input: "octo/", wantErr: true},
		{input: "a/b/c", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var cfg Config
			err := cfg.SetRepository(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SetRepository() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if cfg.Owner != tt.owner || cfg.Repo != tt.repo {
				t.Errorf("got %s/%s, want %s/%s", cfg.Owner, cfg.Repo, tt.owner, tt.repo)
			}
			if cfg.Repository() != tt.owner+"/"+tt.repo {
				t.Errorf("Repository() = %s", cfg.Repository())
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "missing product", mutate: func(c *Config) { c.Product = " " }, wantErr: "product"},
		{name: "no targets", mutate: func(c *Config) { c.Targets = nil }, wantErr: "at least one"},
		{name: "duplicate target", mutate: func(c *Config) { c.Targets = append(c.Targets, c.Targets[0]) }, wantErr: "duplicate"},
		{name: "target without url", mutate: func(c *Config) { c.Targets[0].RedirectURL = "" }, wantErr: "redirect_url"},
		{name: "no extensions", mutate: func(c *Config) { c.Extensions = nil }, wantErr: "extension"},
		{name: "zero timeout", mutate: func(c *Config) { c.ResolveTimeout = 0 }, wantErr: "timeouts"},
		{name: "no ledger", mutate: func(c *Config) { c.LedgerPath = "" }, wantErr: "ledger"},
		{name: "negative retries", mutate: func(c *Config) { c.GitHub.MaxRetries = -1 }, wantErr: "max_retries"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_ValidatePublish(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.ValidatePublish(); err == nil || !strings.Contains(err.Error(), "repository") {
		t.Errorf("ValidatePublish() error = %v, want repository error", err)
	}

	_ = cfg.SetRepository("octo/mirror")
	if err := cfg.ValidatePublish(); err == nil || !strings.Contains(err.Error(), "GITHUB_TOKEN") {
		t.Errorf("ValidatePublish() error = %v, want token error", err)
	}

	cfg.Token = "secret"
	if err := cfg.ValidatePublish(); err != nil {
		t.Errorf("ValidatePublish() error = %v", err)
	}
}

func TestConfig_ReleaseText(t *testing.T) {
	cfg := DefaultConfig()
	if got := cfg.ReleaseTitle("2.10.8"); got != "Snipaste v2.10.8" {
		t.Errorf("ReleaseTitle() = %q", got)
	}
	if got := cfg.ReleaseBody("2.10.8"); got != "Automated mirror of Snipaste v2.10.8" {
		t.Errorf("ReleaseBody() = %q", got)
	}

	cfg.Release.TitleTemplate = "{product} {version} ({tag})"
	if got := cfg.ReleaseTitle("1.0"); got != "Snipaste 1.0 (v1.0)" {
		t.Errorf("ReleaseTitle() = %q", got)
	}
}
