package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/kalambet/adnidocs/internal/api"
	"github.com/kalambet/adnidocs/internal/config"
	"github.com/kalambet/adnidocs/internal/curate"
	"github.com/kalambet/adnidocs/internal/pdftext"
	"github.com/kalambet/adnidocs/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the curated catalog over HTTP and MCP",
	Long: `Serve the curated catalog over a local HTTP API and an MCP server.

By default the MCP server uses the stdio transport (for editor and agent
integrations) alongside the HTTP API. Use --sse to expose MCP over SSE
on the configured MCP port instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		sse, _ := cmd.Flags().GetBool("sse")
		catalogPath, _ := cmd.Flags().GetString("catalog")
		return runServe(sse, catalogPath)
	},
}

func init() {
	serveCmd.Flags().Bool("sse", false, "serve MCP over SSE instead of stdio")
	serveCmd.Flags().String("catalog", "", "curated catalog path")
}

func runServe(sse bool, catalogPath string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	initLogging(cfg)

	if catalogPath == "" {
		catalogPath = cfg.Curate.OutputPath
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: closing storage: %v\n", err)
		}
	}()

	catalogSource := api.NewFileCatalog(catalogPath)
	fetcher := pdftext.New(store, nil)
	curator := curate.New()

	handler := api.NewCatalogHandler(api.AppDeps{
		Catalog:           catalogSource,
		PDF:               fetcher,
		Curator:           curator,
		RawInputPath:      cfg.Crawl.RawOutputPath,
		CuratedOutputPath: catalogPath,
		Token:             cfg.Server.Token,
	})

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	mcpSrv := api.NewMCPServer(api.MCPDeps{
		Catalog:           catalogSource,
		PDF:               fetcher,
		Curator:           curator,
		RawInputPath:      cfg.Crawl.RawOutputPath,
		CuratedOutputPath: catalogPath,
	})

	if sse {
		sseSrv := server.NewSSEServer(mcpSrv)
		mcpAddr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.MCPPort)
		go func() {
			slog.Info("MCP server started (SSE transport)", "addr", mcpAddr)
			if err := sseSrv.Start(mcpAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("MCP SSE server error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			sseSrv.Shutdown(shutdownCtx)
		}()
	} else {
		stdioSrv := server.NewStdioServer(mcpSrv)
		go func() {
			if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("MCP stdio server error", "error", err)
			}
		}()
		slog.Info("MCP server started (stdio transport)")
	}

	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(os.Stderr, "adnidocs listening on %s\n", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "shutting down...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
