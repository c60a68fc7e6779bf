package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/docrag/internal/chunk"
	"github.com/Aman-CERP/docrag/internal/output"
)

// searchOptions holds CLI flags for search.
type searchOptions struct {
	mode   string
	format string
}

// searchResult is the JSON form of one retrieved chunk.
type searchResult struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Index  int    `json:"index"`
	Text   string `json:"text"`
}

func newSearchCmd(root *rootOptions) *cobra.Command {
	var opts searchOptions

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Retrieve the chunks most relevant to a query",
		Long: `Retrieve chunks with one of three modes:

  lexical   BM25 keyword ranking, built in memory on first use
  semantic  embedding similarity over the persisted collection
  hybrid    both, concatenated lexical first, deduplicated by text`,
		Example: `  docrag search "network latency"
  docrag search "vector databases" --mode semantic
  docrag search "bm25" --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, root, strings.Join(args, " "), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.mode, "mode", "m", "", "Retrieval mode: lexical, semantic, hybrid (default from config)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "text", "Output format: text, json")

	return cmd
}

func runSearch(cmd *cobra.Command, root *rootOptions, query string, opts searchOptions) error {
	if opts.format != "text" && opts.format != "json" {
		return fmt.Errorf("unknown format %q (use text or json)", opts.format)
	}

	ctx, cancel := root.context(cmd)
	defer cancel()

	a, err := loadApp(root.configDir)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	mode, err := a.mode(opts.mode)
	if err != nil {
		return err
	}

	results, err := a.engine.Retrieve(ctx, query, mode)
	if err != nil {
		return err
	}

	if opts.format == "json" {
		return writeSearchJSON(cmd, query, mode.String(), results)
	}

	out := output.New(cmd.OutOrStdout())
	if len(results) == 0 {
		out.Warningf("No results for %q (%s)", query, mode)
		return nil
	}
	out.Header(fmt.Sprintf("%d results for %q (%s)", len(results), query, mode))
	out.Newline()
	for i, c := range results {
		out.Result(i+1, c.Source, c.Text)
	}
	return nil
}

func writeSearchJSON(cmd *cobra.Command, query, mode string, results []chunk.Chunk) error {
	payload := struct {
		Query   string         `json:"query"`
		Mode    string         `json:"mode"`
		Results []searchResult `json:"results"`
	}{Query: query, Mode: mode, Results: make([]searchResult, 0, len(results))}

	for _, c := range results {
		payload.Results = append(payload.Results, searchResult{ID: c.ID, Source: c.Source, Index: c.Index, Text: c.Text})
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}
