package cmd

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ragdex/ragdex/internal/config"
	"github.com/ragdex/ragdex/internal/mcpserver"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run an MCP server exposing index/search tools over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg := config.Defaults()
			a := newApp(cfg, slog.Default())

			server := mcpserver.New(a.indexer, a.searcher, a.logger)
			return server.Run(ctx)
		},
	}

	return cmd
}
