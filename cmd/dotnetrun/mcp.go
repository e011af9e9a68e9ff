package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	dotnetmcp "github.com/deixis/dotnetrun/internal/mcp"
	"github.com/deixis/dotnetrun/internal/report"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
)

func newMCPCmd(gf *globalFlags) *cobra.Command {
	var (
		httpAddr     string
		instructions bool
	)
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server",
		Long:  "Start the MCP server on stdio, or on a streamable HTTP endpoint with --http.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if instructions {
				fmt.Fprint(cmd.OutOrStdout(), dotnetmcp.Instructions)
				return nil
			}
			return serve(cmd, gf, httpAddr)
		},
	}
	cmd.Flags().StringVar(&httpAddr, "http", "", "start HTTP server on address (e.g. :9090)")
	cmd.Flags().BoolVar(&instructions, "instructions", false, "print model instructions and exit")
	return cmd
}

func serve(cmd *cobra.Command, gf *globalFlags, httpAddr string) error {
	e, err := gf.newEnv(cmd)
	if err != nil {
		return err
	}

	store := report.NewLRUStore(16, report.NewDiskStore())
	server := dotnetmcp.NewServer(e.engine.Config, e.runner, store, e.engine.Workspace, dotnetmcp.WithLogger(e.logger))

	if httpAddr != "" {
		return serveHTTP(cmd.Context(), server, httpAddr, e.logger)
	}
	return server.Run(cmd.Context(), &mcpsdk.StdioTransport{})
}

func serveHTTP(ctx context.Context, server *mcpsdk.Server, addr string, logger *log.Logger) error {
	handler := mcpsdk.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcpsdk.Server { return server },
		nil,
	)

	httpServer := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	go func() {
		<-ctx.Done()
		_ = httpServer.Close()
	}()

	logger.Info("listening", "addr", addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}
