package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"github.com/phuslu/log"
	"golang.org/x/sync/errgroup"

	"github.com/a3tai/orcamento/internal/backup"
	"github.com/a3tai/orcamento/internal/config"
	"github.com/a3tai/orcamento/internal/httpapi"
	"github.com/a3tai/orcamento/internal/logging"
	"github.com/a3tai/orcamento/internal/mcp"
	"github.com/a3tai/orcamento/internal/pdf"
	"github.com/a3tai/orcamento/internal/service"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// uploadSlack leaves room for multipart framing on top of the PDF size limit.
const uploadSlack = 1 << 20

func main() {
	cfg, err := config.LoadFromFlags()
	if errors.Is(err, config.ErrVersionRequested) {
		printVersion(os.Stdout)
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if version != "dev" {
		cfg.Version = version
	}

	// stdout carries the MCP protocol in stdio mode; logs always go to stderr.
	logger := logging.New(cfg.LogLevel, os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error().Err(err).Msg("orcamento stopped with error")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	if cfg.IsDebug() {
		logger.Debug().Str("config", cfg.String()).Msg("starting")
	}

	store, err := backup.OpenStore(cfg.Store, cfg.BackupDirectory, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open backup store: %w", err)
	}

	svc, err := service.New(service.Options{
		WorkDirectory:   cfg.WorkDirectory,
		BackupDirectory: cfg.BackupDirectory,
		Decoder:         cfg.Decoder,
		MaxFileSize:     cfg.MaxFileSize,
		DumpText:        cfg.DumpText,
		Company: pdf.Company{
			Name:      cfg.Company,
			Address:   cfg.CompanyAddress,
			LogoPath:  cfg.Logo,
			Signature: cfg.Signature,
		},
		Store:  store,
		Logger: logger,
	})
	if err != nil {
		store.Close()
		return fmt.Errorf("failed to create quote service: %w", err)
	}
	defer svc.Close()

	mcpServer, err := mcp.NewServer(cfg, svc, logger)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}

	if cfg.IsStdioMode() {
		return mcpServer.Run(ctx)
	}
	return runServerMode(ctx, cfg, svc, mcpServer, logger)
}

// runServerMode serves the HTTP API with the MCP endpoint mounted at /mcp
// until ctx is canceled. With an MCP address configured the streamable
// HTTP transport is also served on its own listener.
func runServerMode(ctx context.Context, cfg *config.Config, svc *service.Service, mcpServer *mcp.Server, logger *log.Logger) error {
	mcpHandler := server.NewStreamableHTTPServer(mcpServer.MCPServer())
	router := httpapi.NewRouter(svc, httpapi.Options{
		MaxBodySize: cfg.MaxFileSize + uploadSlack,
		MCP:         mcpHandler,
		Logger:      logger,
	})

	endpoints := []endpoint{{name: "api", addr: cfg.Address(), handler: router}}
	if cfg.MCPAddr != "" {
		endpoints = append(endpoints, endpoint{name: "mcp", addr: cfg.MCPAddr, handler: mcpHandler})
	}

	if err := serveEndpoints(ctx, logger, endpoints...); err != nil {
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}

// endpoint is one HTTP listener of server mode.
type endpoint struct {
	name    string
	addr    string
	handler http.Handler
}

// serveEndpoints runs every endpoint until ctx is canceled. The first
// endpoint to fail stops the others and its error is returned.
func serveEndpoints(ctx context.Context, logger *log.Logger, endpoints ...endpoint) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, ep := range endpoints {
		g.Go(func() error {
			if err := httpapi.Serve(gctx, ep.addr, ep.handler, logger); err != nil {
				return fmt.Errorf("%s endpoint: %w", ep.name, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// printVersion prints version information
func printVersion(w io.Writer) {
	fmt.Fprintf(w, "Orcamento\n")
	fmt.Fprintf(w, "Version: %s\n", version)
	fmt.Fprintf(w, "Build Time: %s\n", buildTime)
	fmt.Fprintf(w, "Git Commit: %s\n", gitCommit)
	fmt.Fprintf(w, "Built with: %s\n", runtime.Version())
}
