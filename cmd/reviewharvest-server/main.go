package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/use-agent/reviewharvest/api"
	"github.com/use-agent/reviewharvest/config"
	"github.com/use-agent/reviewharvest/logging"
	"github.com/use-agent/reviewharvest/scraper"
	"github.com/use-agent/reviewharvest/sites"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	// A missing .env is normal in containers; real env vars win.
	_ = godotenv.Load()
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── 2. Initialise structured logging ────────────────────────────
	logging.Init(cfg.Log)
	slog.Info("reviewharvest server starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"maxPages", cfg.Browser.MaxPages,
	)

	// ── 3. Load site profiles ───────────────────────────────────────
	reg, err := sites.Load(cfg.ProfilesPath)
	if err != nil {
		slog.Error("failed to load site profiles", "error", err)
		os.Exit(1)
	}
	slog.Info("site profiles loaded", "sites", reg.Names())

	// ── 4. Initialise scraper (launches browser) ────────────────────
	sc, err := scraper.NewScraper(cfg.Browser, cfg.Scraper, cfg.Harvest)
	if err != nil {
		slog.Error("failed to initialise scraper", "error", err)
		os.Exit(1)
	}
	if cfg.Export.Screenshots {
		sc.SetScreenshotDir(filepath.Join(cfg.Export.OutputDir, "screenshots"))
	}

	// ── 5. Setup router ─────────────────────────────────────────────
	startTime := time.Now()
	router := api.NewRouter(sc, reg, cfg, startTime)

	// ── 6. Start HTTP server ────────────────────────────────────────
	// Request contexts derive from ctx, so a shutdown signal interrupts
	// in-flight runs, which then export what they collected.
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := newHTTPServer(ctx, addr, router)

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		serveErr <- srv.ListenAndServe()
	}()

	// ── 7. Graceful shutdown ────────────────────────────────────────
	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
			sc.Close()
			os.Exit(1)
		}
	case <-ctx.Done():
		// A second signal kills the process immediately.
		stop()
		slog.Info("shutdown signal received, draining runs", "timeout", cfg.Server.ShutdownTimeout)
	}

	if err := drain(srv, cfg.Server.ShutdownTimeout); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	// Chrome goes away only after every handler has returned.
	sc.Close()
	slog.Info("reviewharvest server stopped")
}

// newHTTPServer builds the server with every request context derived from ctx.
func newHTTPServer(ctx context.Context, addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:        addr,
		Handler:     h,
		BaseContext: func(net.Listener) context.Context { return ctx },
	}
}

// drain stops accepting connections and waits up to timeout for in-flight
// requests to finish.
func drain(srv *http.Server, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return srv.Shutdown(ctx)
}
