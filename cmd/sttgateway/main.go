// Command sttgateway is the main entry point for the STT gateway server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hyprnote/stt-gateway/internal/adapter"
	"github.com/hyprnote/stt-gateway/internal/batchclient"
	"github.com/hyprnote/stt-gateway/internal/config"
	"github.com/hyprnote/stt-gateway/internal/health"
	"github.com/hyprnote/stt-gateway/internal/observe"
	"github.com/hyprnote/stt-gateway/internal/relay"
	"github.com/hyprnote/stt-gateway/internal/resilience"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "sttgateway: config file %q not found\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "sttgateway: %v\n", err)
		}
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("sttgateway starting",
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Telemetry ─────────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observe.InitProvider(ctx, observe.ProviderConfig{})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}

	// ── Provider registry ─────────────────────────────────────────────────────
	registry := adapter.NewRegistry()
	credentials := cfg.Credentials()

	// ── Watcher (hot reload) ──────────────────────────────────────────────────
	watcher, err := config.NewWatcher(*configPath, func(old, new *config.Config) {
		d := config.Diff(old, new)
		if d.LogLevelChanged {
			slog.SetDefault(newLogger(d.NewLogLevel))
			slog.Info("log level changed", "new_level", d.NewLogLevel)
		}
		if len(d.ProvidersChanged) > 0 {
			slog.Info("provider configuration changed", "providers", d.ProvidersChanged)
		}
		if d.RoutingChanged {
			slog.Info("routing configuration changed")
		}
	})
	if err != nil {
		slog.Error("failed to start config watcher", "err", err)
		return 1
	}
	defer watcher.Stop()

	// ── Relay server ──────────────────────────────────────────────────────────
	server := relay.NewServer(relay.Config{
		Registry:    registry,
		Credentials: credentials,
		APIKeyFor:   cfg.APIKeyFor,
		APIBaseFor:  cfg.APIBaseFor,
		Fallback: resilience.FallbackConfig{
			CircuitBreaker: resilience.CircuitBreakerConfig{
				MaxFailures:  cfg.Routing.CircuitBreaker.MaxFailures,
				ResetTimeout: cfg.Routing.CircuitBreaker.ResetTimeout(),
				HalfOpenMax:  cfg.Routing.CircuitBreaker.HalfOpenMax,
			},
		},
		BatchRetry: batchclient.RetryConfig{
			NumRetries:   cfg.Routing.BatchRetry.NumRetries,
			MaxDelaySecs: cfg.Routing.BatchRetry.MaxDelaySecs,
		},
		SupabaseJWTSecret: cfg.Server.SupabaseJWTSecret,
		Logger:            logger,
	})

	healthHandler := health.New(
		health.Checker{Name: "providers", Check: func(_ context.Context) error {
			if len(credentials) == 0 {
				return errors.New("no provider has credentials configured")
			}
			return nil
		}},
	)

	mux := http.NewServeMux()
	mux.Handle("/", server.Handler())
	healthHandler.Register(mux)

	httpServer := &http.Server{
		Addr:    cfg.Server.ListenAddr,
		Handler: observe.Middleware(observe.DefaultMetrics())(mux),
	}

	printStartupSummary(cfg, credentials)

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server ready — press Ctrl+C to shut down", "addr", cfg.Server.ListenAddr)
		serveErr <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received, stopping…")
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "err", err)
			return 1
		}
	}

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown error", "err", err)
		return 1
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		slog.Error("telemetry shutdown error", "err", err)
	}
	slog.Info("goodbye")
	return 0
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config, credentials map[adapter.Kind]bool) {
	fmt.Println("╔═══════════════════════════════════════╗")
	fmt.Println("║      stt-gateway — startup summary    ║")
	fmt.Println("╠═══════════════════════════════════════╣")
	configured := 0
	for kind, ok := range credentials {
		if ok {
			configured++
			fmt.Printf("║  %-12s    : %-19s ║\n", "provider", string(kind))
		}
	}
	if configured == 0 {
		fmt.Printf("║  %-12s    : %-19s ║\n", "provider", "(none configured)")
	}
	fmt.Printf("║  Listen addr     : %-19s ║\n", cfg.Server.ListenAddr)
	fmt.Printf("║  Vault dir       : %-19s ║\n", vaultSummary(cfg.Vault.Dir))
	fmt.Println("╚═══════════════════════════════════════╝")
}

func vaultSummary(dir string) string {
	if dir == "" {
		return "(in-memory only)"
	}
	if len(dir) > 19 {
		return dir[:16] + "…"
	}
	return dir
}

// ── Logger ─────────────────────────────────────────────────────────────────────

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
