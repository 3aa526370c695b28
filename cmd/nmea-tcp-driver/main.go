// Package main implements the NMEA TCP driver: it connects to an NMEA 0183
// source over TCP, validates every sentence and publishes it to NATS, or logs
// it when no NATS server is configured.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/takiaine/nmea-navsat-driver/config"
	"github.com/takiaine/nmea-navsat-driver/dispatch"
	"github.com/takiaine/nmea-navsat-driver/health"
	"github.com/takiaine/nmea-navsat-driver/input/tcp"
	"github.com/takiaine/nmea-navsat-driver/metric"
	"github.com/takiaine/nmea-navsat-driver/natsclient"
	"github.com/takiaine/nmea-navsat-driver/sentence"
)

// Build information constants
const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "nmea-tcp-driver"
)

const shutdownTimeout = 5 * time.Second

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(os.Args[1:]); err != nil {
		slog.Error("Application failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run(args []string) error {
	cliCfg, logger, shouldExit, err := initializeCLI(args)
	if shouldExit || err != nil {
		return err
	}

	cfg, err := initializeConfiguration(cliCfg)
	if err != nil {
		return err
	}

	if cliCfg.Validate {
		logger.Info("Configuration is valid", "endpoint", cfg.Endpoint())
		return nil
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return runDriver(ctx, cfg, logger)
}

// initializeCLI parses flags and sets up logging
func initializeCLI(args []string) (*CLIConfig, *slog.Logger, bool, error) {
	cliCfg, err := parseFlags(args, os.Stderr)
	if err != nil {
		return nil, nil, false, fmt.Errorf("invalid flags: %w", err)
	}
	if err := validateFlags(cliCfg); err != nil {
		return nil, nil, false, fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil, nil, true, nil
	}

	logger := setupLogger(cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	slog.Info("Starting NMEA TCP driver",
		"version", Version,
		"build_time", BuildTime,
		"config_path", cliCfg.ConfigPath)

	return cliCfg, logger, false, nil
}

// initializeConfiguration loads and validates configuration
func initializeConfiguration(cliCfg *CLIConfig) (config.Config, error) {
	cfg, err := config.Load(cliCfg.ConfigPath)
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// runDriver wires the consumer, metrics and TCP client and runs until ctx is
// cancelled or the client stops with a fatal error.
func runDriver(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	var registry *metric.MetricsRegistry
	if cfg.Metrics.Port > 0 {
		registry = metric.NewMetricsRegistry()
	}

	consumer, natsClient, err := setupConsumer(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if natsClient != nil {
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := natsClient.Close(closeCtx); err != nil {
				logger.Warn("NATS close failed", "error", err)
			}
		}()
	}

	client, err := tcp.NewClient(tcp.ClientDeps{
		Config:          cfg,
		Consumer:        consumer,
		MetricsRegistry: registry,
		Logger:          logger,
	})
	if err != nil {
		return fmt.Errorf("create tcp client: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	var server *metric.Server
	if registry != nil {
		server = metric.NewServer(cfg.Metrics.Port, cfg.Metrics.Path, registry, healthFunc(client, natsClient))
		if err := server.Listen(); err != nil {
			return fmt.Errorf("metrics server: %w", err)
		}
		logger.Info("Serving metrics", "address", server.Address())

		g.Go(func() error {
			if err := server.Start(); err != nil {
				logger.Error("Metrics server stopped", "error", err)
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		defer stopServer(server, logger)
		if err := client.Run(gctx); err != nil {
			return fmt.Errorf("nmea tcp client: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	stats := client.Stats()
	logger.Info("NMEA TCP driver shutdown complete",
		"records_accepted", stats.RecordsAccepted,
		"records_rejected", stats.RecordsRejected,
		"reconnects", stats.Reconnects())
	return nil
}

// setupConsumer returns the NATS publisher when a server is configured, and
// the logging consumer otherwise. A NATS connect failure is fatal.
func setupConsumer(
	ctx context.Context,
	cfg config.Config,
	logger *slog.Logger,
) (dispatch.Consumer, *natsclient.Client, error) {
	if !cfg.NATS.Enabled() {
		logger.Info("No NATS URL configured, logging sentences")
		return sentence.NewLogger(logger), nil, nil
	}

	natsClient, err := natsclient.NewClient(cfg.NATS.URL,
		natsclient.WithName(appName),
		natsclient.WithLogger(logger),
		natsclient.WithTimeout(cfg.ConnectTimeout.Std()),
		natsclient.WithToken(cfg.NATS.Token),
		natsclient.WithCredentials(cfg.NATS.User, cfg.NATS.Password),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("create NATS client: %w", err)
	}

	connCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := natsClient.Connect(connCtx); err != nil {
		return nil, nil, fmt.Errorf("connect to NATS: %w", err)
	}

	return sentence.NewPublisher(ctx, natsClient, cfg.NATS.SubjectPrefix, logger), natsClient, nil
}

// stopServer shuts the metrics server down so its goroutine returns. A nil
// server is ignored.
func stopServer(server *metric.Server, logger *slog.Logger) {
	if server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Stop(ctx); err != nil {
		logger.Warn("Metrics server shutdown failed", "error", err)
	}
}

func healthFunc(client *tcp.Client, natsClient *natsclient.Client) metric.HealthFunc {
	return func() health.Status {
		subs := []health.Status{client.Health()}
		if natsClient != nil {
			subs = append(subs, natsClient.Health())
		}
		return health.Aggregate(appName, subs)
	}
}
