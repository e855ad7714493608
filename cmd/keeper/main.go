// Package main runs one keeper role: the "open" resolver settling queued
// trades, the "close" resolver unlocking expired options, or the
// "monitor_keeper" watching the other roles' checkpoints.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	httpadapter "github.com/archon-research/keeper/internal/adapters/inbound/http"
	redisadapter "github.com/archon-research/keeper/internal/adapters/outbound/redis"
	"github.com/archon-research/keeper/internal/adapters/outbound/telemetry"
	"github.com/archon-research/keeper/internal/config"
	"github.com/archon-research/keeper/internal/domain/entity"
	"github.com/archon-research/keeper/internal/pkg/env"
	"github.com/archon-research/keeper/internal/ports/inbound"
	"github.com/archon-research/keeper/internal/services/supervisor"
)

const serviceName = "keeper"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:]); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

type cliConfig struct {
	role        entity.Role
	environment string
}

func parseConfig(args []string) (cliConfig, error) {
	fs := flag.NewFlagSet(serviceName, flag.ContinueOnError)
	bot := fs.String("bot", "", "keeper role: open, close or monitor_keeper")
	environment := fs.String("env", "", "deployment environment (defaults to ENVIRONMENT)")
	if err := fs.Parse(args); err != nil {
		return cliConfig{}, err
	}

	if *bot == "" {
		*bot = env.Get("BOT", "")
	}
	role, err := entity.ParseRole(*bot)
	if err != nil {
		return cliConfig{}, err
	}

	if *environment == "" {
		*environment = env.Get("ENVIRONMENT", "")
	}
	if *environment == "" {
		return cliConfig{}, errors.New("environment not provided (use -env flag or ENVIRONMENT env var)")
	}
	return cliConfig{role: role, environment: *environment}, nil
}

// loopSettings are the timing parameters shared by every role.
type loopSettings struct {
	delay         time.Duration
	errorBackoff  time.Duration
	haltThreshold time.Duration
}

func loadLoopSettings() (loopSettings, error) {
	var s loopSettings
	var err error
	if s.delay, err = env.GetDuration("DELAY", time.Second); err != nil {
		return s, err
	}
	if s.errorBackoff, err = env.GetDuration("WAIT_TIME", 5*time.Second); err != nil {
		return s, err
	}
	if s.haltThreshold, err = env.GetDuration("HALT_THRESHOLD", 120*time.Second); err != nil {
		return s, err
	}
	return s, nil
}

func run(ctx context.Context, args []string) error {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	cfg, err := parseConfig(args)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: env.ParseLogLevel(slog.LevelInfo),
	}))
	slog.SetDefault(logger)
	logger = logger.With("role", string(cfg.role), "environment", cfg.environment)

	chain, err := config.Load(cfg.environment)
	if err != nil {
		return err
	}
	loop, err := loadLoopSettings()
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	otlpEndpoint := env.Get("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	shutdownMetrics, err := telemetry.InitMetrics(ctx, telemetry.MetricConfig{
		ServiceName:  serviceName,
		Environment:  cfg.environment,
		OTLPEndpoint: otlpEndpoint,
		Registerer:   registry,
	})
	if err != nil {
		return fmt.Errorf("initialising metrics: %w", err)
	}
	defer flush(logger, "metrics", shutdownMetrics)

	shutdownTracer, err := telemetry.InitTracer(ctx, telemetry.TracerConfig{
		ServiceName:  serviceName,
		Environment:  cfg.environment,
		OTLPEndpoint: otlpEndpoint,
	})
	if err != nil {
		return fmt.Errorf("initialising tracer: %w", err)
	}
	defer flush(logger, "tracer", shutdownTracer)

	metrics, err := telemetry.NewMetrics()
	if err != nil {
		return fmt.Errorf("creating metrics: %w", err)
	}

	redisDB, err := env.GetInt("REDIS_DB", 0)
	if err != nil {
		return err
	}
	cache, err := redisadapter.NewCache(redisadapter.Config{
		Addr:     env.Get("REDIS_ADDR", redisadapter.ConfigDefaults().Addr),
		Password: env.Get("REDIS_PASSWORD", ""),
		DB:       redisDB,
	}, logger)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer func() {
		if err := cache.Close(); err != nil {
			logger.Warn("error closing redis", "error", err)
		}
	}()

	var worker inbound.Resolver
	var cleanup func()
	if cfg.role == entity.RoleMonitor {
		worker, err = buildMonitor(ctx, cfg, loop, cache, metrics, logger)
	} else {
		worker, cleanup, err = buildResolver(ctx, cfg, chain, cache, metrics, logger)
	}
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}

	sup, err := supervisor.NewSupervisor(supervisor.Config{
		Delay:         loop.delay,
		ErrorBackoff:  loop.errorBackoff,
		HaltThreshold: loop.haltThreshold,
		Logger:        logger,
	}, worker, cache, metrics)
	if err != nil {
		return fmt.Errorf("creating supervisor: %w", err)
	}

	var shuttingDown atomic.Bool
	health := httpadapter.NewHealthServer(httpadapter.HealthServerConfig{
		Addr:     env.Get("HEALTH_ADDR", ":8080"),
		Role:     string(cfg.role),
		Logger:   logger,
		Gatherer: registry,
	}, sup, &shuttingDown)
	health.Start()

	logger.Info("starting keeper", "chainId", chain.ChainID, "router", chain.Router)
	runErr := sup.Run(ctx)

	logger.Info("shutting down...")
	shuttingDown.Store(true)
	if err := health.Shutdown(5 * time.Second); err != nil {
		logger.Warn("health server shutdown failed", "error", err)
	}
	return runErr
}

func flush(logger *slog.Logger, name string, shutdown func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		logger.Warn("telemetry shutdown failed", "provider", name, "error", err)
	}
}
