package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/saaga0h/jeeves-dns/e2e/internal/executor"
	"github.com/saaga0h/jeeves-dns/e2e/internal/reporter"
	"github.com/saaga0h/jeeves-dns/e2e/internal/scenario"
	"github.com/saaga0h/jeeves-dns/pkg/config"
	"github.com/saaga0h/jeeves-dns/pkg/mqtt"
	"github.com/saaga0h/jeeves-dns/pkg/redis"
)

func main() {
	cfg := config.NewConfig()
	cfg.LoadFromEnv()
	cfg.ServiceName = "dns-test-runner"
	cfg.MQTTAnnounce = false
	cfg.RegisterFlags(pflag.CommandLine)

	scenarioPath := pflag.String("scenario", "", "Path to YAML scenario file (required)")
	outputDir := pflag.String("output-dir", "./test-output", "Output directory for test artifacts")
	settle := pflag.Duration("settle", 3*time.Second, "Wait after configuring the agent clock")
	skipRedis := pflag.Bool("skip-redis", false, "Do not connect to Redis; redis expectations fail")
	pflag.Parse()

	if *scenarioPath == "" {
		fmt.Fprintf(os.Stderr, "Error: --scenario is required\n")
		pflag.Usage()
		os.Exit(1)
	}

	level := slog.LevelInfo
	if cfg.LogLevel == "debug" {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	scen, err := scenario.LoadScenario(*scenarioPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load scenario: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	mqttClient := mqtt.NewClient(cfg, logger)
	if err := mqttClient.Connect(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to MQTT: %v\n", err)
		os.Exit(1)
	}
	defer mqttClient.Disconnect()

	var redisClient redis.Client
	if !*skipRedis {
		redisClient = redis.NewClient(cfg, logger)
		if err := redisClient.Ping(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to connect to Redis: %v\n", err)
			os.Exit(1)
		}
		defer redisClient.Close()
	}

	runner := executor.NewRunner(mqttClient, redisClient, *settle, logger)
	result, timelineEvents, err := runner.Run(ctx, scen)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Test execution failed: %v\n", err)
		os.Exit(1)
	}

	name := strings.TrimSuffix(filepath.Base(*scenarioPath), filepath.Ext(*scenarioPath))

	timeline := reporter.GenerateTimeline(result, timelineEvents)
	fmt.Println(timeline)

	if err := reporter.SaveTimeline(timeline, filepath.Join(*outputDir, "timelines", name+".txt")); err != nil {
		logger.Warn("Failed to save timeline", "error", err)
	}
	if err := runner.SaveCapture(filepath.Join(*outputDir, "captures", name+".json")); err != nil {
		logger.Warn("Failed to save capture", "error", err)
	}
	if err := reporter.SaveSummary(result, filepath.Join(*outputDir, "summaries", name+".json")); err != nil {
		logger.Warn("Failed to save summary", "error", err)
	}

	if !result.Passed {
		os.Exit(1)
	}
}
