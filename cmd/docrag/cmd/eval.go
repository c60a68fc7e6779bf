package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/docrag/internal/eval"
	"github.com/Aman-CERP/docrag/internal/output"
	"github.com/Aman-CERP/docrag/internal/search"
)

func newEvalCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "eval",
		Short: "Score answers in every retrieval mode against reference answers",
		Long: `Read qa.jsonl from the eval directory, answer each question in
lexical, semantic and hybrid mode, score each answer by token overlap with
the reference, and write results.json next to it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := root.context(cmd)
			defer cancel()

			a, err := loadApp(root.configDir)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			questions, err := eval.LoadQuestions(a.cfg.Eval.Dir)
			if err != nil {
				return err
			}
			p, err := a.pipeline()
			if err != nil {
				return err
			}

			out := output.New(cmd.OutOrStdout())
			out.Statusf("🧪", "Evaluating %d questions in %d modes", len(questions), len(search.Modes))

			report, err := eval.Run(ctx, p, questions, search.Modes, func(mode search.Mode, done, total int, _ float64) {
				out.Progress(done, total, mode.String())
			})
			if err != nil {
				return err
			}

			path, err := eval.WriteResults(a.cfg.Eval.Dir, report)
			if err != nil {
				return err
			}

			out.Newline()
			out.Header("Average lexical overlap")
			for _, mode := range search.Modes {
				out.Field(mode.String(), fmt.Sprintf("%.3f", report.Averages[mode.String()]))
			}
			out.Successf("Results written to %s", path)
			return nil
		},
	}
}
