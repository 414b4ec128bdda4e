package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	orchestrators "github.com/ochairo/relmirror/internal/domain-orchestrators"
	"github.com/ochairo/relmirror/internal/domain/interfaces"
)

func newCheckCommand(a *app) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "check",
		Args:  cobra.NoArgs,
		Short: "Report upstream versions per platform and whether an update is needed",
		Long: `Resolve every platform redirect, apply the consistency gate and consult the
ledger. Nothing is downloaded or published and no version is recorded; a
missing ledger file is created as an empty list.

Always exits 0 when the check itself ran; parse the JSON report to decide
whether an update is available.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(a.configPath, os.Getenv)
			if err != nil {
				return err
			}

			orch, err := newOrchestrator(cfg, a.logger.With(interfaces.F("command", "check")))
			if err != nil {
				return err
			}

			result, err := orch.Check(cmd.Context())
			if err != nil {
				return err
			}

			if jsonOutput {
				return writeJSON(a, result)
			}
			outputHuman(a, result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", true, "Output results as JSON (default)")
	return cmd
}

func outputHuman(a *app, result *orchestrators.CheckResult) {
	fmt.Fprintln(a.stdout, "Upstream Version Check")
	fmt.Fprintln(a.stdout, strings.Repeat("=", 60))
	fmt.Fprintln(a.stdout)

	for _, p := range result.Platforms {
		if p.Error != "" {
			fmt.Fprintf(a.stdout, "❌ %-12s ERROR: %s\n", p.Platform, p.Error)
			continue
		}
		fmt.Fprintf(a.stdout, "✅ %-12s %s (%s)\n", p.Platform, p.Version, p.Filename)
	}

	fmt.Fprintln(a.stdout)
	switch {
	case result.Error != "":
		fmt.Fprintf(a.stdout, "Status: %s (%s)\n", result.Status, result.Error)
	case result.UpdateNeeded:
		fmt.Fprintf(a.stdout, "📦 %s is not mirrored yet\n", result.Version)
	default:
		fmt.Fprintf(a.stdout, "%s already mirrored\n", result.Version)
	}
}
