package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ochairo/relmirror/internal/domain/interfaces"
	"github.com/ochairo/relmirror/internal/external-adapters/logging"
)

const (
	appName         = "relmirror"
	defaultLogLevel = "info"
)

// exitError carries a process exit code out of a command
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

// app holds state shared by all subcommands
type app struct {
	configPath string
	logLevel   string
	logFormat  string
	logger     interfaces.Logger
	stdout     io.Writer
	stderr     io.Writer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCommand(&app{stdout: os.Stdout, stderr: os.Stderr})
	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintf(os.Stderr, "interrupted: %v\n", err)
			os.Exit(130)
		}
		var exitErr *exitError
		if errors.As(err, &exitErr) {
			if exitErr.err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", exitErr.err)
			}
			os.Exit(exitErr.code)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Mirror vendor installer releases into GitHub releases",
		Long: `relmirror polls vendor download redirects, detects a new upstream version
published consistently across all platforms, and republishes the installers
as a tagged GitHub release. Mirrored versions are recorded in a JSON ledger.`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Path to a YAML (.yml/.yaml) or TOML (.toml) config file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", defaultLogLevel, "Set log verbosity (debug, info, warning, error)")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", string(logging.FormatConsole), "Log output format (console, json)")
	root.PersistentPreRunE = func(_ *cobra.Command, _ []string) error {
		level, err := logging.ParseLevel(a.logLevel)
		if err != nil {
			return err
		}
		format, err := logging.ParseFormat(a.logFormat)
		if err != nil {
			return err
		}
		a.logger = logging.New(a.stderr, appName, level, format)
		return nil
	}

	root.AddCommand(
		newRunCommand(a),
		newCheckCommand(a),
		newLedgerCommand(a),
	)
	return root
}
