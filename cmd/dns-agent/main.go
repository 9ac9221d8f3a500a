package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/saaga0h/jeeves-dns/internal/agent"
	"github.com/saaga0h/jeeves-dns/internal/clock"
	"github.com/saaga0h/jeeves-dns/internal/dns"
	"github.com/saaga0h/jeeves-dns/internal/host"
	"github.com/saaga0h/jeeves-dns/pkg/config"
	"github.com/saaga0h/jeeves-dns/pkg/health"
	"github.com/saaga0h/jeeves-dns/pkg/mqtt"
	"github.com/saaga0h/jeeves-dns/pkg/postgres"
	"github.com/saaga0h/jeeves-dns/pkg/redis"
)

func main() {
	// Load configuration with hierarchy: defaults → env → flags
	cfg := config.NewConfig()
	cfg.LoadFromEnv()
	cfg.LoadFromFlags()

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	logger.Info("Starting DNS agent",
		"service_name", cfg.ServiceName,
		"mqtt_broker", cfg.MQTTAddress(),
		"redis_host", cfg.RedisAddress(),
		"postgres_enabled", cfg.PostgresEnabled,
		"clock", cfg.ClockSource,
		"log_level", cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	mqttClient := mqtt.NewClient(cfg, logger)
	redisClient := redis.NewClient(cfg, logger)

	// Postgres history is optional
	var (
		postgresClient postgres.Client
		history        agent.HistoryStore
	)
	if cfg.PostgresEnabled {
		postgresClient = postgres.NewClient(cfg, logger)
		connectCtx, connectCancel := context.WithTimeout(ctx, 30*time.Second)
		err := postgresClient.Connect(connectCtx)
		connectCancel()
		if err != nil {
			logger.Error("Failed to connect to Postgres", "error", err)
			os.Exit(1)
		}
		defer postgresClient.Disconnect()
		history = agent.NewPostgresHistory(postgresClient, logger)
	}

	clk, err := buildClock(cfg, logger)
	if err != nil {
		logger.Error("Failed to set up clock", "error", err)
		os.Exit(1)
	}

	dnsAgent, err := agent.NewAgent(mqttClient, redisClient, history, clk, cfg, logger)
	if err != nil {
		logger.Error("Failed to create agent", "error", err)
		os.Exit(1)
	}

	healthChecker := health.NewChecker(mqttClient, redisClient, postgresClient, dnsAgent, logger)
	httpServer := startHTTPServer(cfg.HealthPort, healthChecker, dnsAgent, logger)

	agentErr := make(chan error, 1)
	go func() {
		if err := dnsAgent.Start(ctx); err != nil {
			logger.Error("Agent error", "error", err)
			agentErr <- err
		}
	}()

	select {
	case <-sigChan:
		logger.Info("Shutdown signal received (SIGTERM/SIGINT)")
	case err := <-agentErr:
		logger.Error("Agent failed", "error", err)
	}

	logger.Info("Initiating graceful shutdown")
	cancel()

	if err := dnsAgent.Stop(); err != nil {
		logger.Error("Error stopping agent", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error shutting down HTTP server", "error", err)
	}

	logger.Info("DNS agent shutdown complete")
}

func buildClock(cfg *config.Config, logger *slog.Logger) (dns.Clock, error) {
	switch cfg.ClockSource {
	case "rtc":
		return clock.NewRTC(cfg.ClockOffset()), nil
	case "virtual":
		return clock.NewVirtual(logger), nil
	case "solar":
		boundaries := dns.DefaultBoundaries()
		if cfg.TablesPath != "" {
			tables, err := dns.LoadTables(cfg.TablesPath)
			if err != nil {
				return nil, err
			}
			boundaries = tables.Boundaries
		}
		return clock.NewSolar(cfg.Latitude, cfg.Longitude, boundaries, logger), nil
	}
	return nil, fmt.Errorf("unknown clock source %q", cfg.ClockSource)
}

func startHTTPServer(port int, checker *health.Checker, dnsAgent *agent.Agent, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", checker.HandlerFunc())
	mux.HandleFunc("/health/detailed", checker.DetailedHandlerFunc())
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/palette.png", func(w http.ResponseWriter, r *http.Request) {
		scale := 16
		if v, err := strconv.Atoi(r.URL.Query().Get("scale")); err == nil && v > 0 && v <= 64 {
			scale = v
		}
		vram := dnsAgent.Display().Snapshot()
		w.Header().Set("Content-Type", "image/png")
		if err := host.WritePNG(w, &vram, scale); err != nil {
			logger.Error("Failed to encode palette image", "error", err)
		}
	})

	mux.HandleFunc("/state", func(w http.ResponseWriter, r *http.Request) {
		state, err := dnsAgent.State(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(state); err != nil {
			logger.Error("Failed to encode state", "error", err)
		}
	})

	mux.HandleFunc("/transitions", func(w http.ResponseWriter, r *http.Request) {
		transitions, err := dnsAgent.RecentTransitions(r.Context(), 20)
		if err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(transitions); err != nil {
			logger.Error("Failed to encode transitions", "error", err)
		}
	})

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		logger.Info("Starting HTTP server", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	return server
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
