package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
)

// CLIConfig holds command-line configuration
type CLIConfig struct {
	ConfigPath  string
	LogLevel    string
	LogFormat   string
	Debug       bool
	ShowVersion bool
	Validate    bool
}

func parseFlags(args []string, output io.Writer) (*CLIConfig, error) {
	cfg := &CLIConfig{}
	fs := flag.NewFlagSet(appName, flag.ContinueOnError)
	fs.SetOutput(output)

	// Define flags with environment variable fallback
	fs.StringVar(&cfg.ConfigPath, "config",
		getEnv("NMEA_TCP_CONFIG", ""),
		"Path to a .json, .yaml or .toml configuration file (env: NMEA_TCP_CONFIG)")

	fs.StringVar(&cfg.ConfigPath, "c",
		getEnv("NMEA_TCP_CONFIG", ""),
		"Path to configuration file (shorthand for -config)")

	fs.StringVar(&cfg.LogLevel, "log-level",
		getEnv("NMEA_TCP_LOG_LEVEL", "info"),
		"Log level: debug, info, warn, error (env: NMEA_TCP_LOG_LEVEL)")

	fs.StringVar(&cfg.LogFormat, "log-format",
		getEnv("NMEA_TCP_LOG_FORMAT", "json"),
		"Log format: json, text (env: NMEA_TCP_LOG_FORMAT)")

	fs.BoolVar(&cfg.Debug, "debug",
		getEnvBool("NMEA_TCP_DEBUG", false),
		"Enable debug logging (env: NMEA_TCP_DEBUG)")

	fs.BoolVar(&cfg.ShowVersion, "version", false, "Show version information")
	fs.BoolVar(&cfg.Validate, "validate", false, "Validate configuration and exit")

	fs.Usage = func() {
		printDetailedHelp(fs, output)
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	// Override log level if debug is set
	if cfg.Debug {
		cfg.LogLevel = "debug"
	}

	return cfg, nil
}

func validateFlags(cfg *CLIConfig) error {
	if cfg.ShowVersion {
		return nil
	}

	if cfg.ConfigPath != "" {
		if _, err := os.Stat(cfg.ConfigPath); err != nil {
			return fmt.Errorf("config file not found: %s", cfg.ConfigPath)
		}
	}

	if !slices.Contains([]string{"debug", "info", "warn", "error"}, cfg.LogLevel) {
		return fmt.Errorf("invalid log level: %s", cfg.LogLevel)
	}

	if !slices.Contains([]string{"json", "text"}, cfg.LogFormat) {
		return fmt.Errorf("invalid log format: %s", cfg.LogFormat)
	}

	return nil
}

func printDetailedHelp(fs *flag.FlagSet, w io.Writer) {
	_, _ = fmt.Fprintf(w, `%s - NMEA 0183 over TCP driver

Usage: %s [options]

Options:
`, appName, appName)
	fs.PrintDefaults()
	_, _ = fmt.Fprintf(w, `
Environment overrides (applied after the config file):
  NMEA_TCP_HOST, NMEA_TCP_PORT, NMEA_TCP_BUFFER_SIZE,
  NMEA_TCP_TIMEOUT, NMEA_TCP_FRAME_ID, NMEA_TCP_NATS_URL,
  NMEA_TCP_NATS_TOKEN

Examples:
  # Connect to a receiver with defaults for everything else
  NMEA_TCP_HOST=192.168.1.20 NMEA_TCP_PORT=5017 %s

  # Run with a config file and readable logs
  %s -c /etc/nmea/driver.yaml -log-format=text

  # Validate configuration only
  %s -c driver.toml -validate

Version: %s
Build: %s
`, appName, appName, appName, Version, BuildTime)
}

// Environment variable helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
