// Package cmd provides the CLI commands for docrag.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/docrag/internal/config"
	ragerrors "github.com/Aman-CERP/docrag/internal/errors"
	"github.com/Aman-CERP/docrag/internal/logging"
	"github.com/Aman-CERP/docrag/pkg/version"
)

// rootOptions holds the persistent flags.
type rootOptions struct {
	debug     bool
	configDir string
	timeout   time.Duration

	loggingCleanup func()
}

// NewRootCmd creates the root command for the docrag CLI.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "docrag",
		Short: "Hybrid retrieval and question answering over local documents",
		Long: `docrag indexes a directory of documents for keyword (BM25) and
semantic (embedding) retrieval, and answers questions strictly from the
retrieved context with a local LLM.

Build the indexes with 'docrag index', then query with 'docrag search'
or 'docrag ask'.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("docrag version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging to ~/.docrag/logs/")
	cmd.PersistentFlags().StringVar(&opts.configDir, "config-dir", ".", "Project directory holding .docrag.yaml; relative paths resolve against it")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 0, "Abort the command after this duration (0 = no limit)")

	cmd.PersistentPreRunE = opts.startLogging
	cmd.PersistentPostRunE = opts.stopLogging

	cmd.AddCommand(newIndexCmd(opts))
	cmd.AddCommand(newSearchCmd(opts))
	cmd.AddCommand(newAskCmd(opts))
	cmd.AddCommand(newEvalCmd(opts))
	cmd.AddCommand(newWatchCmd(opts))
	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newStatusCmd(opts))
	cmd.AddCommand(newDoctorCmd(opts))
	cmd.AddCommand(newConfigCmd(opts))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// startLogging sends logs to the rotating file. Stdout stays clean so that
// 'serve' can speak JSON-RPC on it.
func (o *rootOptions) startLogging(_ *cobra.Command, _ []string) error {
	logCfg := logging.DefaultConfig()
	// A broken config is reported by the command itself.
	if cfg, err := config.Load(o.configDir); err == nil {
		logCfg.Level = cfg.Logging.Level
		if cfg.Logging.File != "" {
			logCfg.FilePath = cfg.Logging.File
		}
		logCfg.MaxSizeMB = cfg.Logging.MaxSizeMB
		logCfg.MaxFiles = cfg.Logging.MaxFiles
	}
	if o.debug {
		logCfg.Level = "debug"
	}

	cleanup, err := logging.SetupDefault(logCfg)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	o.loggingCleanup = cleanup

	if o.debug {
		slog.Debug("debug_logging_enabled",
			slog.String("log_file", logCfg.FilePath),
			slog.String("version", version.Version))
	}
	return nil
}

func (o *rootOptions) stopLogging(_ *cobra.Command, _ []string) error {
	if o.loggingCleanup != nil {
		o.loggingCleanup()
		o.loggingCleanup = nil
	}
	return nil
}

// context returns the command context bounded by --timeout.
func (o *rootOptions) context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if o.timeout > 0 {
		return context.WithTimeout(ctx, o.timeout)
	}
	return context.WithCancel(ctx)
}

// Execute runs the root command and prints any error for humans on stderr.
func Execute() error {
	err := NewRootCmd().Execute()
	if err != nil {
		slog.Error("command_failed", ragerrors.LogAttrs(err)...)
		_, _ = fmt.Fprint(os.Stderr, ragerrors.FormatForCLI(err))
	}
	return err
}
