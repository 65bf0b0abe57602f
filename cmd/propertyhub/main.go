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

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	phhttp "github.com/Strob0t/PropertyHub/internal/adapter/http"
	phnats "github.com/Strob0t/PropertyHub/internal/adapter/nats"
	photel "github.com/Strob0t/PropertyHub/internal/adapter/otel"
	"github.com/Strob0t/PropertyHub/internal/adapter/ristretto"
	"github.com/Strob0t/PropertyHub/internal/authz"
	"github.com/Strob0t/PropertyHub/internal/config"
	"github.com/Strob0t/PropertyHub/internal/logger"
	"github.com/Strob0t/PropertyHub/internal/middleware"
	"github.com/Strob0t/PropertyHub/internal/port/messagequeue"
	"github.com/Strob0t/PropertyHub/internal/resilience"
	"github.com/Strob0t/PropertyHub/internal/service"
	"github.com/Strob0t/PropertyHub/internal/tenancy"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	if err := run(os.Args[1:]); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cmd := "serve"
	if len(args) > 0 {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "serve":
		return serve()
	case "migrate":
		return runMigrate(args)
	case "admin":
		return runAdmin(args)
	case "help", "--help", "-h":
		printHelp()
		return nil
	default:
		printHelp()
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

func printHelp() {
	fmt.Fprintf(os.Stderr, `Usage: propertyhub [command]

Commands:
  serve     Run the API server (default)
  migrate   Apply or inspect database migrations (up|down|version)
  admin     Bootstrap tenants and administrators
`)
}

func serve() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, logs := logger.New(cfg.Logging)
	defer func() {
		fctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := logs.Close(fctx); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}()
	slog.SetDefault(log)

	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"storage", cfg.Storage.Driver,
		"log_level", cfg.Logging.Level,
		"subdomains", cfg.Tenancy.BaseDomain != "",
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Observability ---

	shutdownOTEL, err := photel.Init(ctx, cfg.OTEL, cfg.Logging.Service)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTEL(sctx); err != nil {
			slog.Warn("otel shutdown", "error", err)
		}
	}()

	metrics, err := photel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	if err := metrics.ObserveLogDrops(logs.Dropped); err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	// --- Infrastructure ---

	st, err := openStores(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer st.close()

	cache, err := ristretto.New(cfg.Tenancy.CacheMaxCostBytes)
	if err != nil {
		return fmt.Errorf("tenant cache: %w", err)
	}
	defer cache.Close()

	var queue messagequeue.Queue
	if cfg.NATS.URL != "" {
		nq, err := phnats.Connect(ctx, cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		defer func() { _ = nq.Drain() }()
		queue = nq
	} else {
		slog.Warn("nats disabled: tenant changes will not reach other replicas")
	}

	// --- Services ---

	gate := authz.NewGate(metrics)
	tokens := service.NewTokenIssuer(cfg.Auth)
	directory := service.NewTenantDirectory(st.tenants, cache, cfg.Tenancy.CacheTTL, metrics)

	if queue != nil {
		unsubscribe, err := directory.Subscribe(ctx, queue)
		if err != nil {
			return fmt.Errorf("tenant events: %w", err)
		}
		defer unsubscribe()
	}

	breaker := resilience.NewBreaker("tenant-events", cfg.Breaker.MaxFailures, cfg.Breaker.Timeout)

	handlers := &phhttp.Handlers{
		Auth:          service.NewAuthService(st.users, tokens, gate, cfg.Auth),
		Tenants:       service.NewTenantService(st.tenants, gate, directory, queue, breaker),
		Directory:     directory,
		Bookings:      service.NewBookingService(tenancy.NewStore("booking", st.bookings, metrics)),
		Announcements: service.NewAnnouncementService(tenancy.NewStore("announcement", st.announcements, metrics), gate),
		BodyLimit:     cfg.Server.BodyLimit,
		Ready:         st.ping,
	}

	// --- HTTP ---

	resolver := middleware.NewResolver(
		middleware.BearerStrategy{Tokens: tokens, Tenants: directory},
		middleware.HeaderStrategy{Header: cfg.Tenancy.Header, Tenants: directory},
		middleware.SubdomainStrategy{BaseDomain: cfg.Tenancy.BaseDomain, Tenants: directory},
	)

	limiter := middleware.NewRateLimiter(cfg.Rate, cfg.Tenancy.Header)
	stopCleanup := limiter.StartCleanup(cfg.Rate.CleanupInterval, cfg.Rate.MaxIdleTime)
	defer stopCleanup()

	r := chi.NewRouter()

	// Recoverer sits outside Authenticate so a panicking handler still
	// unwinds through the identity clear.
	r.Use(photel.HTTPMiddleware(cfg.Logging.Service))
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(phhttp.CORS(cfg.Server.CORSOrigin, cfg.Tenancy.Header))
	r.Use(phhttp.SecurityHeaders)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(cfg.Server.RequestTimeout))
	r.Use(middleware.Authenticate(resolver, metrics))
	r.Use(phhttp.Logger)

	phhttp.MountRoutes(r, handlers, gate, limiter)

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
