package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/docrag/internal/mcp"
)

func newServeCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve retrieval and answers as MCP tools over stdio",
		Long: `Start a Model Context Protocol server on stdin/stdout exposing the
retrieve, ask and index_status tools. Nothing but JSON-RPC is written to
stdout; logs go to the log file.`,
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

			p, err := a.pipeline()
			if err != nil {
				return err
			}

			srv, err := mcp.NewServer(a.engine, p)
			if err != nil {
				return err
			}
			return srv.Serve(ctx)
		},
	}
}
