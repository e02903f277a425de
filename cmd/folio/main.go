package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/eringen/folio"
	"github.com/eringen/folio/logging"
	"github.com/eringen/folio/views"
)

// version is set at build time via ldflags.
var version = "dev"

const shutdownGrace = 10 * time.Second

func main() {
	cmd := "serve"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	switch cmd {
	case "serve":
		if err := runServe(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "seed":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: folio seed <file>")
			os.Exit(1)
		}
		if err := runSeed(os.Args[2]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "version":
		fmt.Printf("folio %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func setup() (folio.SiteConfig, *slog.Logger, error) {
	cfg, err := folio.LoadConfig()
	if err != nil {
		return folio.SiteConfig{}, nil, err
	}
	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func runServe() error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	app := folio.New(cfg, views.Default(), folio.WithLogger(logger))
	defer func() {
		if err := app.Close(); err != nil {
			logger.Error("closing store", slog.Any("error", err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(app.Start)
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down", slog.Duration("grace", shutdownGrace))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := app.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func runSeed(path string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}

	seed, err := folio.LoadSeed(path)
	if err != nil {
		return err
	}
	store, err := folio.OpenStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	n, err := store.ApplySeed(context.Background(), seed)
	if err != nil {
		return err
	}
	logger.Info("seed applied",
		slog.String("file", path),
		slog.Int("categories", len(seed.Categories)),
		slog.Int("articles", n),
	)
	return nil
}

func printUsage() {
	fmt.Println(`folio - a content site built with Go, Echo, and templ

Usage:
  folio [command] [arguments]

Commands:
  serve         Start the HTTP server (default)
  seed <file>   Load categories and articles from a YAML or JSON file
  version       Print the folio version
  help          Show this help message

Configuration is read from the environment (SITE_NAME, ADDR, DATABASE_DRIVER,
DATABASE_PATH, DATABASE_URL, OBJECT_STORE_*, LOG_LEVEL, ...).

Examples:
  folio
  folio seed testdata/seed.yaml`)
}
