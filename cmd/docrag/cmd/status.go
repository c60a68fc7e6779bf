package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/docrag/internal/config"
	ragerrors "github.com/Aman-CERP/docrag/internal/errors"
	"github.com/Aman-CERP/docrag/internal/output"
	"github.com/Aman-CERP/docrag/internal/store"
)

func newStatusCmd(root *rootOptions) *cobra.Command {
	var lexical bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the persisted semantic collection",
		Long: `Show the persisted semantic collection and whether a build is running.

With --lexical the lexical index is built from the documents directory and
its chunk and vocabulary sizes are reported.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := root.context(cmd)
			defer cancel()

			cfg, err := config.Load(root.configDir)
			if err != nil {
				return ragerrors.ConfigError("failed to load configuration", err)
			}

			out := output.New(cmd.OutOrStdout())
			out.Header("docrag status")
			out.Field("documents", cfg.Documents.Dir)
			out.Field("vector store", cfg.Semantic.Dir)

			if lexical {
				if err := printLexicalStats(ctx, out, cfg); err != nil {
					return err
				}
			}

			busy, err := store.BuildInProgress(cfg.Semantic.Dir)
			if err != nil {
				return err
			}
			if busy {
				out.Warning("A semantic build is in progress")
			}

			info, err := store.ReadCollectionInfo(ctx, cfg.Semantic.Dir, cfg.Semantic.Collection)
			if ragerrors.GetCode(err) == ragerrors.ErrCodeIndexNotFound {
				out.Warningf("Collection %q not built; run 'docrag index'", cfg.Semantic.Collection)
				return nil
			}
			if err != nil {
				return err
			}

			out.Field("collection", info.Name)
			out.Field("chunks", info.Count)
			out.Field("model", info.Model)
			out.Field("dimensions", info.Dimensions)
			out.Field("metric", info.Metric)
			out.Field("built", info.CreatedAt.Local().Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().BoolVar(&lexical, "lexical", false, "Build the lexical index and report its size")

	return cmd
}

func printLexicalStats(ctx context.Context, out *output.Writer, cfg *config.Config) error {
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	stats, err := a.engine.PrepareLexical(ctx)
	if err != nil {
		return err
	}
	out.Field("lexical chunks", stats.Chunks)
	out.Field("lexical terms", stats.Terms)
	out.Field("avg chunk tokens", fmt.Sprintf("%.1f", stats.AvgLength))
	return nil
}

func formatMs(ms float64) string {
	if ms >= 1000 {
		return fmt.Sprintf("%.2fs", ms/1000)
	}
	return fmt.Sprintf("%.0fms", ms)
}
