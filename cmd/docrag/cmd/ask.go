package cmd

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/docrag/internal/output"
)

func newAskCmd(root *rootOptions) *cobra.Command {
	var (
		mode       string
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a question from the indexed documents",
		Long: `Retrieve context for the question and ask the local LLM to answer
strictly from that context. Requires a running Ollama server.`,
		Example: `  docrag ask "What causes network latency?"
  docrag ask "How do vector databases index embeddings?" --mode semantic --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := root.context(cmd)
			defer cancel()

			a, err := loadApp(root.configDir)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			m, err := a.mode(mode)
			if err != nil {
				return err
			}
			p, err := a.pipeline()
			if err != nil {
				return err
			}

			res, err := p.Answer(ctx, strings.Join(args, " "), m)
			if err != nil {
				return err
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}

			out := output.New(cmd.OutOrStdout())
			out.Header("Answer")
			out.Code(res.Answer)
			out.Field("mode", res.Mode)
			out.Field("latency", formatMs(res.LatencyMs))
			out.Field("sources", strings.Join(res.Sources, ", "))
			return nil
		},
	}

	cmd.Flags().StringVarP(&mode, "mode", "m", "", "Retrieval mode: lexical, semantic, hybrid (default from config)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output {answer, context, sources, latency_ms, mode} as JSON")

	return cmd
}
