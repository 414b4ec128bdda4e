package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ochairo/relmirror/internal/domain/entities"
	"github.com/ochairo/relmirror/internal/domain/interfaces"
)

// runReport is the JSON form of a mirror run
type runReport struct {
	RunID      string                    `json:"run_id"`
	Version    string                    `json:"version,omitempty"`
	Outcome    entities.Outcome          `json:"outcome"`
	Platforms  []entities.PlatformReport `json:"platforms"`
	Assets     []string                  `json:"assets,omitempty"`
	ReleaseURL string                    `json:"release_url,omitempty"`
	Recorded   bool                      `json:"recorded"`
	Error      string                    `json:"error,omitempty"`
	Retryable  bool                      `json:"retryable"`
	DurationMS int64                     `json:"duration_ms"`
}

func newRunCommand(a *app) *cobra.Command {
	var (
		dryRun     bool
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Args:  cobra.NoArgs,
		Short: "Mirror the current upstream version if it has not been mirrored yet",
		Example: `  relmirror run
  relmirror run --config mirror.yml --dry-run
  GITHUB_REPOSITORY=owner/repo GITHUB_TOKEN=... relmirror run --json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(a.configPath, os.Getenv)
			if err != nil {
				return err
			}
			if !dryRun {
				if err := cfg.ValidatePublish(); err != nil {
					return &exitError{code: 1, err: err}
				}
			}

			logger := a.logger.With(interfaces.F("command", "run"))
			logger.Info("starting mirror run",
				interfaces.F("product", cfg.Product),
				interfaces.F("repository", cfg.Repository()),
				interfaces.F("platforms", len(cfg.Targets)),
				interfaces.F("dry_run", dryRun))

			orch, err := newOrchestrator(cfg, logger)
			if err != nil {
				return err
			}

			result, runErr := orch.Run(cmd.Context(), dryRun)
			if jsonOutput {
				if err := writeJSON(a, newRunReport(result)); err != nil {
					return err
				}
			} else {
				fmt.Fprintln(a.stdout, result.Summary())
			}

			if runErr != nil {
				return runErr
			}
			if result.Outcome.Failed() {
				if entities.IsRetryable(result.Err) {
					logger.Warn("run failed, the next scheduled run may recover", interfaces.F("outcome", result.Outcome))
				} else {
					logger.Error("run failed and needs intervention", interfaces.F("outcome", result.Outcome))
				}
				return &exitError{code: 1, err: fmt.Errorf("mirror run %s: %w", result.Outcome, result.Err)}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Resolve and check the ledger (creating it if missing) without downloading or publishing")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the run report as JSON")
	return cmd
}

func newRunReport(result *entities.MirrorResult) runReport {
	report := runReport{
		RunID:      result.RunID,
		Version:    result.Version,
		Outcome:    result.Outcome,
		Platforms:  result.Platforms,
		Assets:     result.Assets,
		ReleaseURL: result.ReleaseURL,
		Recorded:   result.Recorded,
		DurationMS: result.TotalDuration.Milliseconds(),
	}
	if result.Err != nil {
		report.Error = result.Err.Error()
		report.Retryable = entities.IsRetryable(result.Err)
	}
	return report
}

func writeJSON(a *app, v any) error {
	encoder := json.NewEncoder(a.stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
