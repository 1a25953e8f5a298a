package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	cmcp "github.com/clinicsite/clinicsite/internal/mcp"
)

func newMCPCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server for AI agents",
		Long: `Start a Model Context Protocol (MCP) server that exposes read-only tools
for contact submissions and site content. Supports stdio (default) and HTTP
transports.

In stdio mode the server talks JSON-RPC over stdin/stdout, suitable for MCP
clients that launch it as a subprocess. In HTTP mode it listens on --addr
and serves /mcp to clients presenting an admin session token as
"Authorization: Bearer <token>" (see 'clinicsite admin token').`,
		Example: `  clinicsite mcp                                        # stdio mode
  clinicsite mcp --transport http --addr 127.0.0.1:3001  # streamable HTTP mode`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMCP(cmd.Context())
		},
	}

	cmd.Flags().String("transport", "stdio", "Transport mode: stdio or http")
	cmd.Flags().String("addr", "127.0.0.1:3001", "HTTP listen address (only used with --transport http)")

	viper.BindPFlag("mcp.transport", cmd.Flags().Lookup("transport"))
	viper.BindPFlag("mcp.addr", cmd.Flags().Lookup("addr"))

	return cmd
}

func runMCP(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	switch cfg.MCP.Transport {
	case "stdio", "http":
	default:
		return fmt.Errorf("unsupported transport %q; use 'stdio' or 'http'", cfg.MCP.Transport)
	}
	if cfg.MCP.Transport == "http" {
		if err := cfg.ValidateAuth(); err != nil {
			return fmt.Errorf("http transport requires session auth:\n%w", err)
		}
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	pages, err := openPages(cfg, logger)
	if err != nil {
		return err
	}
	if pages == nil {
		logger.Warn("content.project_id is not set; get_content is disabled")
	}

	mcpSrv := cmcp.NewMCPServer(st, pages, appVersion, logger)

	if cfg.MCP.Transport == "stdio" {
		return mcpSrv.ServeStdio()
	}

	authSvc, closeAuth, err := newAuthService(ctx, cfg, st)
	if err != nil {
		return err
	}
	defer closeAuth()
	return mcpSrv.ServeHTTP(cfg.MCP.Addr, authSvc)
}
