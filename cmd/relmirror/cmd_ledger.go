package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ochairo/relmirror/internal/domain/interfaces"
	"github.com/ochairo/relmirror/internal/external-adapters/jsonfile"
)

func newLedgerCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect or edit the mirrored version ledger",
	}

	cmd.AddCommand(
		newLedgerListCommand(a),
		newLedgerAddCommand(a),
	)
	return cmd
}

func openLedger(a *app) (*jsonfile.VersionLedger, error) {
	cfg, err := loadConfig(a.configPath, os.Getenv)
	if err != nil {
		return nil, err
	}
	return jsonfile.NewVersionLedger(cfg.LedgerPath, a.logger.With(interfaces.F("component", "ledger"))), nil
}

func newLedgerListCommand(a *app) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Args:  cobra.NoArgs,
		Short: "List mirrored versions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ledger, err := openLedger(a)
			if err != nil {
				return err
			}

			versions, err := ledger.List(cmd.Context())
			if err != nil {
				return err
			}

			if jsonOutput {
				return writeJSON(a, versions)
			}
			for _, v := range versions {
				fmt.Fprintln(a.stdout, v)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output versions as a JSON array")
	return cmd
}

func newLedgerAddCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <version>",
		Args:  cobra.ExactArgs(1),
		Short: "Record a version as mirrored without publishing",
		Long: `Record a version as mirrored. Use this to reconcile the ledger with a
release that was published by hand or by a run that stopped before recording.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			version := strings.TrimPrefix(strings.TrimSpace(args[0]), "v")
			if version == "" {
				return fmt.Errorf("version is required")
			}

			ledger, err := openLedger(a)
			if err != nil {
				return err
			}

			if err := ledger.Add(cmd.Context(), version); err != nil {
				return err
			}
			a.logger.Info("version recorded", interfaces.F("version", version), interfaces.F("ledger", ledger.Path()))
			return nil
		},
	}
}
