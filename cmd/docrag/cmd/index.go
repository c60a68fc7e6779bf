package cmd

import (
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/docrag/internal/output"
)

func newIndexCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Build the lexical and semantic indexes",
		Long: `Load every document from the documents directory, split it into
overlapping chunks, and build both indexes. The semantic collection on
disk is replaced.`,
		Example: `  docrag index
  docrag index --config-dir ./project`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runIndex(cmd, root)
		},
	}
}

func runIndex(cmd *cobra.Command, root *rootOptions) error {
	ctx, cancel := root.context(cmd)
	defer cancel()

	a, err := loadApp(root.configDir)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	out := output.New(cmd.OutOrStdout())
	start := time.Now()

	docs, err := a.source.LoadAll(ctx)
	if err != nil {
		return err
	}
	out.Statusf("📂", "Found %d documents in %s", len(docs), a.cfg.Documents.Dir)

	out.Statusf("🧮", "Embedding with %s", a.embedder.ModelName())
	if err := a.engine.BuildAll(ctx, docs); err != nil {
		return err
	}

	st := a.engine.Status()
	slog.Info("index_command_completed",
		slog.Int("documents", len(docs)),
		slog.Int("chunks", st.LexicalChunks),
		slog.Duration("duration", time.Since(start)))

	out.Successf("Indexed %d chunks into %q in %s", st.SemanticChunks, st.Collection, time.Since(start).Round(time.Millisecond))
	return nil
}
