package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/docrag/internal/output"
	"github.com/Aman-CERP/docrag/internal/preflight"
)

func newDoctorCmd(root *rootOptions) *cobra.Command {
	var (
		jsonOutput bool
		skipModel  bool
	)

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check documents, vector store, embedder and answer model",
		Long: `Run the preflight checks: documents are loadable, the vector store is
writable with enough free space, the semantic collection is built, the
embedder answers and the answer model is pulled in Ollama.

Exits non-zero only when a required check fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := root.context(cmd)
			defer cancel()

			a, err := loadApp(root.configDir)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			target := preflight.Target{
				Source:         a.source,
				DocumentsDir:   a.cfg.Documents.Dir,
				VectorStoreDir: a.cfg.Semantic.Dir,
				Collection:     a.cfg.Semantic.Collection,
				Embedder:       a.embedder,
				OllamaHost:     a.cfg.Generation.Host,
			}
			if !skipModel {
				target.GenerationModel = a.cfg.Generation.Model
			}

			results := preflight.New(target).RunAll(ctx)

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(results); err != nil {
					return err
				}
			} else {
				printChecks(output.New(cmd.OutOrStdout()), results)
			}

			if preflight.HasCriticalFailures(results) {
				return fmt.Errorf("system check failed")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output check results as JSON")
	cmd.Flags().BoolVar(&skipModel, "skip-model", false, "Skip the answer model check")

	return cmd
}

func printChecks(out *output.Writer, results []preflight.CheckResult) {
	out.Header("docrag system check")
	out.Newline()
	for _, r := range results {
		msg := fmt.Sprintf("%s: %s", r.Name, r.Message)
		switch r.Status {
		case preflight.StatusPass:
			out.Success(msg)
		case preflight.StatusWarn:
			out.Warning(msg)
		default:
			out.Error(msg)
		}
		if r.Details != "" {
			out.Status("", r.Details)
		}
	}
	out.Newline()
	out.Field("status", preflight.SummaryStatus(results))
}
