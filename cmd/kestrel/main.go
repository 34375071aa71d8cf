// Kestrel - Loan applicant evaluation that deploys in 60 seconds.
// Copyright (c) 2025 opensource.finance
// Licensed under the Apache License 2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/opensource-finance/kestrel/internal/api"
	"github.com/opensource-finance/kestrel/internal/bus"
	"github.com/opensource-finance/kestrel/internal/cache"
	"github.com/opensource-finance/kestrel/internal/catalog"
	"github.com/opensource-finance/kestrel/internal/config"
	"github.com/opensource-finance/kestrel/internal/domain"
	"github.com/opensource-finance/kestrel/internal/evaluation"
	"github.com/opensource-finance/kestrel/internal/facts"
	"github.com/opensource-finance/kestrel/internal/repository"
	"github.com/opensource-finance/kestrel/internal/velocity"
	"github.com/opensource-finance/kestrel/internal/worker"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// DefaultTenantID is the tenant the catalogue is seeded for when no
// KESTREL_TENANTS list is configured.
const DefaultTenantID = "default"

func main() {
	// Load .env if present, before reading any configuration
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("KESTREL_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	initLogger(cfg.Logging)

	slog.Info("starting kestrel",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
	)
	slog.Info("configuration loaded",
		"tier", cfg.Tier,
		"repository", cfg.Repository.Driver,
		"cache", cfg.Cache.Type,
		"eventbus", cfg.EventBus.Type,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Initialize Repository
	repo, err := repository.New(cfg.Repository)
	if err != nil {
		slog.Error("failed to initialize repository", "error", err)
		os.Exit(1)
	}
	defer repo.Close()
	slog.Info("repository initialized", "driver", cfg.Repository.Driver)

	// Initialize Cache
	cacheImpl, err := cache.New(cfg.Cache)
	if err != nil {
		slog.Error("failed to initialize cache", "error", err)
		os.Exit(1)
	}
	defer cacheImpl.Close()
	slog.Info("cache initialized", "type", cfg.Cache.Type)

	// Initialize EventBus
	busImpl, err := bus.New(cfg.EventBus)
	if err != nil {
		slog.Error("failed to initialize event bus", "error", err)
		os.Exit(1)
	}
	defer busImpl.Close()
	slog.Info("event bus initialized", "type", cfg.EventBus.Type)

	// Initialize catalogue store, seeding defaults on first run
	tenants := tenantList()
	store := catalog.NewStore(repo, slog.Default())
	for _, tenantID := range tenants {
		if cfg.Engine.SeedCatalog {
			if err := store.Seed(ctx, tenantID); err != nil {
				slog.Error("failed to seed catalogue", "tenant_id", tenantID, "error", err)
				os.Exit(1)
			}
		}
		if err := store.Reload(ctx, tenantID); err != nil {
			slog.Error("failed to load catalogue", "tenant_id", tenantID, "error", err)
			os.Exit(1)
		}
	}
	slog.Info("catalogue initialized",
		"rules", len(store.Snapshot().Rules()),
		"products", len(store.Snapshot().Products()),
	)

	// Initialize inquiry velocity tracker
	tracker := velocity.NewTracker(repo, cacheImpl, cfg.Engine.InquiryWindowDays, cfg.Engine.InquiryThreshold, slog.Default())
	slog.Info("velocity tracker initialized",
		"window_days", cfg.Engine.InquiryWindowDays,
		"threshold", cfg.Engine.InquiryThreshold,
	)

	// Optional CEL fact derivation
	var exprDeriver *facts.ExprDeriver
	if exprs := os.Getenv("KESTREL_CEL_FACTS"); exprs != "" {
		exprDeriver, err = facts.NewExprDeriver(slog.Default())
		if err != nil {
			slog.Error("failed to create CEL fact deriver", "error", err)
			os.Exit(1)
		}
		if err := exprDeriver.Load(parseCELFacts(exprs)); err != nil {
			slog.Error("failed to compile CEL fact expressions", "error", err)
			os.Exit(1)
		}
		slog.Info("CEL fact deriver initialized", "expressions", exprDeriver.Count())
	}

	// Initialize evaluation orchestrator
	orchestrator := evaluation.NewOrchestrator(store, evaluation.Options{
		Repo:    repo,
		Cache:   cacheImpl,
		Bus:     busImpl,
		Expr:    exprDeriver,
		Tracker: tracker,
		Logger:  slog.Default(),
	})

	// Initialize async Worker (Pro tier)
	var asyncWorker *worker.Worker
	if cfg.Tier == domain.TierPro || os.Getenv("KESTREL_ASYNC_WORKER") == "true" {
		asyncWorker = worker.NewWorker(busImpl, orchestrator)

		if err := asyncWorker.Start(worker.Config{TenantIDs: tenants}); err != nil {
			slog.Error("failed to start async worker", "error", err)
		} else {
			slog.Info("async worker started", "tenant_count", len(tenants))
		}
	}

	// Initialize Server
	srv := api.NewServer(cfg.Server, repo, cacheImpl, busImpl, orchestrator, store, Version)

	// Start Server in goroutine
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("kestrel is ready",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	printBanner(cfg, Version)

	// Wait for shutdown signal
	<-ctx.Done()
	slog.Info("shutting down...")

	// Stop async worker first
	if asyncWorker != nil {
		if err := asyncWorker.Stop(); err != nil {
			slog.Error("failed to stop async worker", "error", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("kestrel shutdown complete")
}

func initLogger(cfg domain.LoggingConfig) {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// tenantList returns the tenants to seed and process, from the
// comma-separated KESTREL_TENANTS variable or the default tenant.
func tenantList() []string {
	env := os.Getenv("KESTREL_TENANTS")
	if env == "" {
		return []string{DefaultTenantID}
	}

	var tenants []string
	for _, t := range strings.Split(env, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tenants = append(tenants, t)
		}
	}
	if len(tenants) == 0 {
		return []string{DefaultTenantID}
	}
	return tenants
}

// parseCELFacts parses "FACT_A=expr;FACT_B=expr" into fact expressions.
func parseCELFacts(s string) []*facts.FactExpression {
	var out []*facts.FactExpression
	for _, pair := range strings.Split(s, ";") {
		name, expr, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		expr = strings.TrimSpace(expr)
		if ok && name != "" && expr != "" {
			out = append(out, &facts.FactExpression{
				FactCode:   name,
				Expression: expr,
				Enabled:    true,
			})
		}
	}
	return out
}

func printBanner(cfg *domain.Config, version string) {
	fmt.Println()
	fmt.Println("  +-------------------------------------------+")
	fmt.Println("  |                 KESTREL                   |")
	fmt.Println("  |      Loan Applicant Decision Engine       |")
	fmt.Println("  |     Every applicant, every rule.          |")
	fmt.Println("  +-------------------------------------------+")
	fmt.Println()
	fmt.Printf("  Version:  %s\n", version)
	fmt.Printf("  Tier:     %s\n", cfg.Tier)
	fmt.Printf("  Server:   http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println()
	fmt.Println("  Endpoints:")
	fmt.Println("    POST /v1/evaluate           - Evaluate an applicant")
	fmt.Println("    GET  /v1/evaluations/{id}   - Get evaluation by ID")
	fmt.Println("    GET  /v1/evaluations        - List evaluations by applicant")
	fmt.Println("    GET  /v1/stats              - Session counts by decision")
	fmt.Println("    GET  /v1/rules              - List catalogue rules")
	fmt.Println("    POST /v1/rules              - Create a new rule")
	fmt.Println("    POST /v1/rules/reload       - Hot-reload the catalogue")
	fmt.Println("    GET  /v1/facts              - List fact definitions")
	fmt.Println("    GET  /v1/failures           - List failure definitions")
	fmt.Println("    GET  /v1/products           - List product templates")
	fmt.Println("    GET  /health                - Health check")
	fmt.Println()
}
