package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"qualrag/internal/adapter/mcp"
	"qualrag/internal/app"
)

var (
	serveHTTP string
	serveWarm bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP tool server",
	Long: `Expose search_knowledge and knowledge_status as MCP tools.

The index is built (or loaded) on the first search unless --warm is given.

Examples:
  qualrag serve                        # stdio, for MCP clients that spawn the server
  qualrag serve --http 127.0.0.1:8770  # streamable HTTP with GET /health`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveHTTP, "http", "", "serve streamable HTTP on this address instead of stdio")
	serveCmd.Flags().BoolVar(&serveWarm, "warm", false, "build or load the index at startup")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	a, err := app.New(cfg, log)
	if err != nil {
		return err
	}

	server, err := mcp.NewServer(a.Engine, mcp.WithLogger(log), mcp.WithDefaultTopK(cfg.Retrieve.TopK))
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if serveWarm {
		go a.Engine.EnsureReady(context.WithoutCancel(ctx))
	}

	addr := serveHTTP
	if addr == "" && cfg.Server.Transport == "http" {
		addr = cfg.Server.Addr
	}
	if addr != "" {
		return server.RunHTTP(ctx, addr)
	}
	return server.Run(ctx)
}
