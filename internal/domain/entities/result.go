package entities

import (
	"fmt"
	"strings"
	"time"
)

// Outcome is the terminal state of a mirror run
type Outcome string

// Run outcomes
const (
	OutcomePublished       Outcome = "published"
	OutcomeAlreadyMirrored Outcome = "already_mirrored"
	OutcomeReleaseExists   Outcome = "release_exists"
	OutcomeNoData          Outcome = "no_data"
	OutcomeInconsistent    Outcome = "inconsistent"
	OutcomeDownloadFailed  Outcome = "download_failed"
	OutcomePublishFailed   Outcome = "publish_failed"
	OutcomeDryRun          Outcome = "dry_run"
)

// Failed reports whether the outcome should be surfaced as a failed run
func (o Outcome) Failed() bool {
	return o == OutcomeDownloadFailed || o == OutcomePublishFailed
}

// PlatformReport is the discovery result for a single platform
type PlatformReport struct {
	Platform string `json:"platform"`
	Version  string `json:"version,omitempty"`
	Filename string `json:"filename,omitempty"`
	URL      string `json:"url,omitempty"`
	Error    string `json:"error,omitempty"`
}

// MirrorResult summarizes one run of the mirror workflow
type MirrorResult struct {
	RunID     string
	Version   string
	Outcome   Outcome
	Platforms []PlatformReport
	Artifacts []*Artifact
	Assets    []string
	// ReleaseURL is the HTML URL of the created release, if any
	ReleaseURL string
	Recorded   bool
	Err        error

	DownloadDuration time.Duration
	PublishDuration  time.Duration
	TotalDuration    time.Duration
}

// Summary returns a human-readable summary of the run
func (r *MirrorResult) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Outcome: %s\n", r.Outcome)
	if r.Version != "" {
		fmt.Fprintf(&b, "Version: %s\n", r.Version)
	}
	for _, p := range r.Platforms {
		if p.Error != "" {
			fmt.Fprintf(&b, "  %-10s ERROR: %s\n", p.Platform, p.Error)
			continue
		}
		fmt.Fprintf(&b, "  %-10s %s (%s)\n", p.Platform, p.Version, p.Filename)
	}
	if len(r.Assets) > 0 {
		fmt.Fprintf(&b, "Assets: %s\n", strings.Join(r.Assets, ", "))
	}
	if r.ReleaseURL != "" {
		fmt.Fprintf(&b, "Release: %s\n", r.ReleaseURL)
	}
	if r.Recorded {
		b.WriteString("Ledger: recorded\n")
	}
	if r.Err != nil {
		fmt.Fprintf(&b, "Error: %v\n", r.Err)
	}
	fmt.Fprintf(&b, "Total: %v", r.TotalDuration)
	return b.String()
}
