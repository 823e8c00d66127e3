// Package main is the entry point for the Network Monitor server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/network-monitor/backend/internal/api"
	"github.com/network-monitor/backend/internal/api/handlers"
	"github.com/network-monitor/backend/internal/config"
	"github.com/network-monitor/backend/internal/logging"
	"github.com/network-monitor/backend/internal/metrics"
	"github.com/network-monitor/backend/internal/monitor"
	"github.com/network-monitor/backend/internal/simulator"
	"github.com/network-monitor/backend/internal/storage"
	"github.com/network-monitor/backend/internal/websocket"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
// Defaults to "dev" when not provided.
var version = "dev"

func main() {
	// Flags override the environment when set
	addr := flag.String("addr", "", "HTTP server address (overrides NETMON_HTTP_ADDR)")
	dataDir := flag.String("data", "", "Data directory for SQLite database (overrides NETMON_DATA_DIR)")
	staticDir := flag.String("static", "", "Directory for static frontend files (overrides NETMON_STATIC_DIR)")
	healthCheck := flag.Bool("health-check", false, "Run health check and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.HTTPAddr = *addr
	}
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *staticDir != "" {
		cfg.StaticDir = *staticDir
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	// Health check mode for Docker HEALTHCHECK
	if *healthCheck {
		if err := runHealthCheck(cfg.HTTPAddr); err != nil {
			fmt.Fprintf(os.Stderr, "health check failed: %v\n", err)
			os.Exit(1)
		}
		os.Exit(0)
	}

	// Allow overriding version via environment (e.g., injected by container build/runtime)
	if envVer := os.Getenv("VERSION"); envVer != "" {
		version = envVer
	}

	logger := logging.New(cfg.LogLevel)
	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server exited with error")
	}
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info().Str("version", version).Str("addr", cfg.HTTPAddr).Msg("starting network monitor")

	// Initialize database
	db, err := storage.NewDB(cfg.DatabasePath())
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := storage.RunMigrations(db, logger); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	blockedRepo := storage.NewBlockedDeviceRepository(db)
	decisionRepo := storage.NewDecisionRepository(db)
	settingsRepo := storage.NewSettingsRepository(db)

	blocked, err := blockedRepo.ListIDs(ctx)
	if err != nil {
		return fmt.Errorf("load blocked devices: %w", err)
	}

	policy, err := monitor.ParsePendingPolicy(cfg.AlertPolicy)
	if err != nil {
		return err
	}

	// Initialize WebSocket hub
	hub := websocket.NewHub(logger)
	go hub.Run(ctx)
	events := websocket.NewEventBroadcaster(hub, logger.With().Str("component", "events").Logger())

	m := metrics.New()
	dash := monitor.NewDashboard(logger, monitor.Options{
		LogCapacity:   cfg.LogCapacity,
		PendingPolicy: policy,
		Blocked:       blocked,
		Recorder:      decisionRepo,
		Observer:      events,
		Metrics:       m,
	})
	dash.SeedLog(cfg.Owner)
	logger.Info().Int("blocked", len(blocked)).Str("policy", string(policy)).Msg("dashboard ready")

	// Stored settings win over the environment
	settings, err := settingsRepo.LoadSimulator(ctx, simulator.Settings{
		Probability:      cfg.SimProbability,
		Interval:         cfg.SimInterval,
		SpeedInterval:    cfg.SpeedInterval,
		ActivityInterval: cfg.ActivityInterval,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("ignoring stored simulator settings")
	}

	gen := simulator.NewGenerator(rand.New(rand.NewSource(time.Now().UnixNano())), time.Now, cfg.LocationLat, cfg.LocationLng)
	sched := simulator.NewScheduler(logger, dash, gen, settings)
	if err := sched.Start(); err != nil {
		return fmt.Errorf("start simulator: %w", err)
	}
	defer sched.Stop()

	router := api.NewRouter(api.Services{
		DB:        db,
		Dashboard: dash,
		Hub:       hub,
		Events:    events,
		Simulator: sched,
		Metrics:   m,
		Location: handlers.Location{
			Latitude:  cfg.LocationLat,
			Longitude: cfg.LocationLng,
			Address:   cfg.LocationAddress,
			City:      cfg.LocationCity,
			Country:   cfg.LocationCountry,
		},
		StaticDir: cfg.StaticDir,
		Version:   version,
		Log:       logger.With().Str("component", "http").Logger(),
	})

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.HTTPAddr).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	logger.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info().Msg("server stopped")
	return nil
}

// runHealthCheck performs a health check against the running server.
func runHealthCheck(addr string) error {
	_, port, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get("http://localhost:" + port + "/api/health")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
