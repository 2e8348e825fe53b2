package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ironsheep/layout-tools-mcp/internal/bridge"
	"github.com/ironsheep/layout-tools-mcp/internal/config"
	"github.com/ironsheep/layout-tools-mcp/internal/journal"
	"github.com/ironsheep/layout-tools-mcp/internal/logging"
	"github.com/ironsheep/layout-tools-mcp/internal/ocr"
	"github.com/ironsheep/layout-tools-mcp/internal/registry"
	"github.com/ironsheep/layout-tools-mcp/internal/server"
	"github.com/ironsheep/layout-tools-mcp/internal/telemetry"
	"github.com/ironsheep/layout-tools-mcp/internal/tools"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

const serverName = "layout-tools-mcp"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("%s %s\n", serverName, Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printHelp()
			return
		}
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serverName, err)
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Printf("%s - MCP server for page-layout automation\n", serverName)
	fmt.Println()
	fmt.Printf("Usage: %s [options]\n", serverName)
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  LAYOUT_MCP_CONFIG_FILE=path      YAML or TOML config file")
	fmt.Println("  LAYOUT_MCP_LOG_LEVEL=debug       Log level (debug, info, warn, error)")
	fmt.Println("  LAYOUT_MCP_LOG_FORMAT=json       Log format (text, json)")
	fmt.Println("  LAYOUT_MCP_LOG_FILE=path         Write logs to a file instead of stderr")
	fmt.Println("  LAYOUT_MCP_HOST_COMMAND=a,b      Host helper command; empty runs dry")
	fmt.Println("  LAYOUT_MCP_MAX_FRAME_BYTES=n     Largest accepted request line")
	fmt.Println("  LAYOUT_MCP_IDLE_TIMEOUT=30s      Bound on a stalled partial request")
	fmt.Println("  LAYOUT_MCP_JOURNAL_PATH=path     SQLite journal of tool calls")
	fmt.Println("  LAYOUT_MCP_OTLP_ENDPOINT=url     OTLP/HTTP trace endpoint")
	fmt.Println("  LAYOUT_MCP_PREVIEW_SCALE=2       Default preview pixels per point")
	fmt.Println("  LAYOUT_MCP_TESSDATA_PREFIX=dir   Tesseract language data directory")
	fmt.Println()
	fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
	fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logs, err := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile})
	if err != nil {
		return err
	}
	defer logs.Close()
	logger := logs.Logger
	logger.Info("starting", "version", Version, "commit", GitCommit, "built", BuildTime)
	if ocr.Available() {
		logger.Info("ocr.available", "tesseract", ocr.Version())
	} else {
		logger.Info("ocr.unavailable", "reason", "built without cgo")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.Setup(ctx, cfg.OTLPEndpoint, serverName, Version)
	if err != nil {
		logger.Warn("telemetry.disabled", "error", err)
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Warn("telemetry.shutdown_failed", "error", err)
		}
	}()
	inst, err := telemetry.Global()
	if err != nil {
		return fmt.Errorf("create instruments: %w", err)
	}

	var host bridge.Bridge
	if cfg.DryRun() {
		logger.Warn("bridge.dry_run", "reason", "no host command configured")
		host = bridge.NewRecorder()
	} else {
		exec := bridge.NewExec(cfg.HostCommand, bridge.WithLogger(logger))
		defer func() {
			logger.Info("bridge.stopped", "status", exec.Status())
			exec.Close()
		}()
		host = exec
	}

	opts := []server.Option{
		server.WithLogger(logger),
		server.WithInstruments(inst),
		server.WithServerInfo(serverName, Version),
		server.WithMaxFrameBytes(cfg.MaxFrameBytes),
		server.WithIdleTimeout(cfg.IdleTimeout),
	}
	if cfg.JournalPath != "" {
		store, err := journal.Open(ctx, cfg.JournalPath)
		if err != nil {
			return err
		}
		defer func() {
			if counts, err := store.Counts(context.Background()); err == nil {
				logger.Info("journal.summary", "calls", counts)
			}
			store.Close()
		}()
		logger.Info("journal.opened", "path", store.Path())
		opts = append(opts, server.WithJournal(store))
	}

	reg := registry.New()
	if err := tools.Register(reg, tools.Deps{
		Bridge:       host,
		Logger:       logger,
		PreviewScale: cfg.PreviewScale,
		OCROptions:   ocr.Options{TessdataPrefix: cfg.TessdataPrefix},
	}); err != nil {
		return err
	}

	return server.New(reg, opts...).Run(ctx)
}
