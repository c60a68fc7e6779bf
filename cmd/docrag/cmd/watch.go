package cmd

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/docrag/internal/output"
	"github.com/Aman-CERP/docrag/internal/watcher"
)

func newWatchCmd(root *rootOptions) *cobra.Command {
	var (
		skipInitial bool
		polling     bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Rebuild the indexes whenever documents change",
		Long: `Watch the documents directory and rebuild both indexes after each
burst of changes. Bursts are debounced by documents.watch_debounce.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			base, cancel := root.context(cmd)
			defer cancel()
			ctx, stop := signal.NotifyContext(base, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := loadApp(root.configDir)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			out := output.New(cmd.OutOrStdout())

			if !skipInitial {
				if err := a.engine.Rebuild(ctx); err != nil {
					return err
				}
				out.Successf("Indexed %d chunks", a.engine.Status().LexicalChunks)
			}

			opts := watcher.DefaultOptions()
			opts.Debounce = a.cfg.WatchDebounceDuration()
			opts.Accept = a.source.Accepts
			opts.ForcePolling = polling

			out.Statusf("👀", "Watching %s (Ctrl+C to stop)", a.cfg.Documents.Dir)
			return watcher.Watch(ctx, a.cfg.Documents.Dir, a.engine, opts, func(res watcher.RebuildResult) {
				if res.Err != nil {
					out.Errorf("Rebuild failed: %v", res.Err)
					return
				}
				out.Successf("Rebuilt after %d changes in %s", len(res.Events), res.Duration.Round(time.Millisecond))
			})
		},
	}

	cmd.Flags().BoolVar(&skipInitial, "skip-initial", false, "Do not build before watching")
	cmd.Flags().BoolVar(&polling, "poll", false, "Poll the directory instead of using filesystem notifications")

	return cmd
}
