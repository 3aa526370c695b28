package config

import (
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/takiaine/nmea-navsat-driver/errors"
	"github.com/takiaine/nmea-navsat-driver/pkg/retry"
)

// Defaults
const (
	DefaultHost          = "0.0.0.0"
	DefaultPort          = 10110
	DefaultMaxChunkBytes = 4096
	DefaultReadTimeout   = 2 * time.Second
	DefaultFrameID       = "gps"
)

// Duration is a time.Duration that decodes from "2s"-style strings, or from a
// number of seconds.
type Duration time.Duration

// Std returns the value as a time.Duration
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// String returns the duration in time.Duration notation
func (d Duration) String() string {
	return time.Duration(d).String()
}

// MarshalText implements encoding.TextMarshaler
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := parseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// UnmarshalJSON accepts a duration string or a number of seconds
func (d *Duration) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case string:
		return d.UnmarshalText([]byte(v))
	case float64:
		*d = Duration(time.Duration(v * float64(time.Second)))
		return nil
	default:
		return fmt.Errorf("invalid duration %s", string(data))
	}
}

// UnmarshalYAML accepts a duration string or a number of seconds
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: duration must be a scalar", node.Line)
	}
	return d.UnmarshalText([]byte(node.Value))
}

func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	secs, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	return time.Duration(secs * float64(time.Second)), nil
}

// Config is the complete driver configuration
type Config struct {
	Host           string          `json:"host" yaml:"host" toml:"host"`
	Port           uint16          `json:"port" yaml:"port" toml:"port"`
	MaxChunkBytes  uint32          `json:"max_chunk_bytes" yaml:"max_chunk_bytes" toml:"max_chunk_bytes"`
	ReadTimeout    Duration        `json:"read_timeout" yaml:"read_timeout" toml:"read_timeout"`
	ConnectTimeout Duration        `json:"connect_timeout" yaml:"connect_timeout" toml:"connect_timeout"`
	FrameID        string          `json:"frame_id" yaml:"frame_id" toml:"frame_id"`
	MaxRecordBytes uint32          `json:"max_record_bytes" yaml:"max_record_bytes" toml:"max_record_bytes"` // 0 = unlimited
	Reconnect      ReconnectConfig `json:"reconnect" yaml:"reconnect" toml:"reconnect"`
	NATS           NATSConfig      `json:"nats" yaml:"nats" toml:"nats"`
	Metrics        MetricsConfig   `json:"metrics" yaml:"metrics" toml:"metrics"`
}

// ReconnectConfig is the backoff applied after a working connection was lost
type ReconnectConfig struct {
	MaxAttempts  int      `json:"max_attempts" yaml:"max_attempts" toml:"max_attempts"`
	InitialDelay Duration `json:"initial_delay" yaml:"initial_delay" toml:"initial_delay"`
	MaxDelay     Duration `json:"max_delay" yaml:"max_delay" toml:"max_delay"`
	Multiplier   float64  `json:"multiplier" yaml:"multiplier" toml:"multiplier"`
	AddJitter    bool     `json:"add_jitter" yaml:"add_jitter" toml:"add_jitter"`
}

// Retry converts the section to a retry.Config
func (r ReconnectConfig) Retry() retry.Config {
	return retry.Config{
		MaxAttempts:  r.MaxAttempts,
		InitialDelay: r.InitialDelay.Std(),
		MaxDelay:     r.MaxDelay.Std(),
		Multiplier:   r.Multiplier,
		AddJitter:    r.AddJitter,
	}
}

// NATSConfig configures sentence publishing. An empty URL disables it.
// Token and User/Password are alternative ways to authenticate.
type NATSConfig struct {
	URL           string `json:"url" yaml:"url" toml:"url"`
	SubjectPrefix string `json:"subject_prefix" yaml:"subject_prefix" toml:"subject_prefix"`
	Token         string `json:"token,omitempty" yaml:"token,omitempty" toml:"token,omitempty"`
	User          string `json:"user,omitempty" yaml:"user,omitempty" toml:"user,omitempty"`
	Password      string `json:"password,omitempty" yaml:"password,omitempty" toml:"password,omitempty"`
}

// Enabled reports whether a NATS URL is configured
func (n NATSConfig) Enabled() bool {
	return strings.TrimSpace(n.URL) != ""
}

// HealthPath is served next to the metrics path and cannot be reused for it
const HealthPath = "/health"

// MetricsConfig configures the Prometheus endpoint. Port 0 disables it.
type MetricsConfig struct {
	Port int    `json:"port" yaml:"port" toml:"port"`
	Path string `json:"path" yaml:"path" toml:"path"`
}

// Default returns the configuration used when no file is given
func Default() Config {
	rc := retry.Reconnect()
	return Config{
		Host:           DefaultHost,
		Port:           DefaultPort,
		MaxChunkBytes:  DefaultMaxChunkBytes,
		ReadTimeout:    Duration(DefaultReadTimeout),
		ConnectTimeout: Duration(5 * time.Second),
		FrameID:        DefaultFrameID,
		Reconnect: ReconnectConfig{
			MaxAttempts:  rc.MaxAttempts,
			InitialDelay: Duration(rc.InitialDelay),
			MaxDelay:     Duration(rc.MaxDelay),
			Multiplier:   rc.Multiplier,
			AddJitter:    rc.AddJitter,
		},
		NATS: NATSConfig{
			SubjectPrefix: "nmea",
		},
		Metrics: MetricsConfig{
			Path: "/metrics",
		},
	}
}

// Endpoint returns the host:port the driver connects to
func (c Config) Endpoint() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(int(c.Port)))
}

// Validate checks that the configuration can drive a client
func (c Config) Validate() error {
	invalid := func(format string, args ...any) error {
		return errors.WrapInvalid(
			fmt.Errorf("%w: %s", errors.ErrInvalidConfig, fmt.Sprintf(format, args...)),
			"Config", "Validate", "configuration check")
	}

	if strings.TrimSpace(c.Host) == "" {
		return invalid("host is required")
	}
	if c.Port == 0 {
		return invalid("port must be between 1 and 65535")
	}
	if c.MaxChunkBytes == 0 {
		return invalid("max_chunk_bytes must be positive")
	}
	if c.ReadTimeout <= 0 {
		return invalid("read_timeout must be positive, got %s", c.ReadTimeout)
	}
	if c.ConnectTimeout <= 0 {
		return invalid("connect_timeout must be positive, got %s", c.ConnectTimeout)
	}
	if c.MaxRecordBytes != 0 && c.MaxRecordBytes < c.MaxChunkBytes {
		return invalid("max_record_bytes (%d) must be 0 or at least max_chunk_bytes (%d)",
			c.MaxRecordBytes, c.MaxChunkBytes)
	}
	if c.Reconnect.InitialDelay < 0 || c.Reconnect.MaxDelay < 0 || c.Reconnect.Multiplier < 0 {
		return invalid("reconnect delays and multiplier must not be negative")
	}
	if c.Reconnect.MaxDelay != 0 && c.Reconnect.MaxDelay < c.Reconnect.InitialDelay {
		return invalid("reconnect.max_delay must be >= reconnect.initial_delay")
	}
	if c.NATS.Enabled() && strings.TrimSpace(c.NATS.SubjectPrefix) == "" {
		return invalid("nats.subject_prefix is required when nats.url is set")
	}
	if strings.ContainsAny(c.NATS.SubjectPrefix, " *>") {
		return invalid("nats.subject_prefix %q contains wildcard or space", c.NATS.SubjectPrefix)
	}
	if (c.NATS.User == "") != (c.NATS.Password == "") {
		return invalid("nats.user and nats.password must be set together")
	}
	if c.NATS.Token != "" && c.NATS.User != "" {
		return invalid("nats.token and nats.user are mutually exclusive")
	}
	if c.Metrics.Port < 0 || c.Metrics.Port > 65535 {
		return invalid("metrics.port %d out of range", c.Metrics.Port)
	}
	if c.Metrics.Path != "" && !strings.HasPrefix(c.Metrics.Path, "/") {
		return invalid("metrics.path %q must start with /", c.Metrics.Path)
	}
	if c.Metrics.Path == HealthPath {
		return invalid("metrics.path %q is reserved for health", c.Metrics.Path)
	}
	return nil
}
