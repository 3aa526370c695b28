package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/takiaine/nmea-navsat-driver/errors"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "0.0.0.0", cfg.Host)
	assert.Equal(t, uint16(10110), cfg.Port)
	assert.Equal(t, uint32(4096), cfg.MaxChunkBytes)
	assert.Equal(t, 2*time.Second, cfg.ReadTimeout.Std())
	assert.Equal(t, "gps", cfg.FrameID)
	assert.Equal(t, "0.0.0.0:10110", cfg.Endpoint())
	assert.False(t, cfg.NATS.Enabled())
	require.NoError(t, cfg.Validate())
}

func TestEndpointIPv6(t *testing.T) {
	cfg := Default()
	cfg.Host = "::1"
	cfg.Port = 2000
	assert.Equal(t, "[::1]:2000", cfg.Endpoint())
}

func TestDecodeFormats(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		data   string
	}{
		{
			name:   "json",
			format: FormatJSON,
			data: `{"host":"192.168.1.20","port":5017,"max_chunk_bytes":1024,
				"read_timeout":"500ms","frame_id":"gnss","reconnect":{"initial_delay":1}}`,
		},
		{
			name:   "yaml",
			format: FormatYAML,
			data: `host: 192.168.1.20
port: 5017
max_chunk_bytes: 1024
read_timeout: 500ms
frame_id: gnss
reconnect:
  initial_delay: 1
`,
		},
		{
			name:   "toml",
			format: FormatTOML,
			data: `host = "192.168.1.20"
port = 5017
max_chunk_bytes = 1024
read_timeout = "500ms"
frame_id = "gnss"

[reconnect]
initial_delay = "1s"
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Decode([]byte(tt.data), tt.format)
			require.NoError(t, err)

			assert.Equal(t, "192.168.1.20", cfg.Host)
			assert.Equal(t, uint16(5017), cfg.Port)
			assert.Equal(t, uint32(1024), cfg.MaxChunkBytes)
			assert.Equal(t, 500*time.Millisecond, cfg.ReadTimeout.Std())
			assert.Equal(t, "gnss", cfg.FrameID)
			assert.Equal(t, time.Second, cfg.Reconnect.InitialDelay.Std())

			// unset fields keep their defaults
			assert.Equal(t, Default().ConnectTimeout, cfg.ConnectTimeout)
			assert.Equal(t, Default().Reconnect.MaxDelay, cfg.Reconnect.MaxDelay)
			assert.Equal(t, "nmea", cfg.NATS.SubjectPrefix)
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode([]byte(`{"host":`), FormatJSON)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))

	_, err = Decode([]byte(`{"hots":"x"}`), FormatJSON)
	require.Error(t, err, "unknown fields are rejected")

	_, err = Decode([]byte(`read_timeout: soon`), FormatYAML)
	require.Error(t, err)

	_, err = Decode([]byte(`x`), Format("ini"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrUnsupportedFormat)
}

func TestDecodeEmptyYAML(t *testing.T) {
	cfg, err := Decode(nil, FormatYAML)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestDurationJSON(t *testing.T) {
	var d Duration
	require.NoError(t, json.Unmarshal([]byte(`"1m30s"`), &d))
	assert.Equal(t, 90*time.Second, d.Std())

	require.NoError(t, json.Unmarshal([]byte(`0.25`), &d))
	assert.Equal(t, 250*time.Millisecond, d.Std())

	assert.Error(t, json.Unmarshal([]byte(`true`), &d))

	out, err := json.Marshal(Duration(3 * time.Second))
	require.NoError(t, err)
	assert.Equal(t, `"3s"`, string(out))
}

func TestFormatFromPath(t *testing.T) {
	for path, want := range map[string]Format{
		"driver.json": FormatJSON,
		"driver.yaml": FormatYAML,
		"driver.YML":  FormatYAML,
		"driver.toml": FormatTOML,
	} {
		got, err := FormatFromPath(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, got, path)
	}

	_, err := FormatFromPath("driver.conf")
	assert.ErrorIs(t, err, errors.ErrUnsupportedFormat)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "driver.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: 4000\nframe_id: boat\n"), 0o600))

	t.Setenv(EnvFrameID, "mast")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, uint16(4000), cfg.Port)
	assert.Equal(t, "mast", cfg.FrameID, "environment wins over file")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestLoadDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "conf.json")
	require.NoError(t, os.Mkdir(dir, 0o755))

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a regular file")
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		EnvHost:       "10.0.0.5",
		EnvPort:       "2947",
		EnvBufferSize: "512",
		EnvTimeout:    "1.5",
		EnvFrameID:    "  ",
		EnvNATSURL:    "nats://localhost:4222",
		EnvNATSToken:  "s3cret",
	}
	lookup := func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}

	cfg := Default()
	require.NoError(t, ApplyEnv(&cfg, lookup))

	assert.Equal(t, "10.0.0.5", cfg.Host)
	assert.Equal(t, uint16(2947), cfg.Port)
	assert.Equal(t, uint32(512), cfg.MaxChunkBytes)
	assert.Equal(t, 1500*time.Millisecond, cfg.ReadTimeout.Std())
	assert.Equal(t, "gps", cfg.FrameID, "blank values are ignored")
	assert.True(t, cfg.NATS.Enabled())
	assert.Equal(t, "s3cret", cfg.NATS.Token)
}

func TestApplyEnvInvalid(t *testing.T) {
	tests := map[string]string{
		EnvPort:       "70000",
		EnvBufferSize: "-1",
		EnvTimeout:    "later",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			cfg := Default()
			err := ApplyEnv(&cfg, func(k string) (string, bool) {
				if k == key {
					return value, true
				}
				return "", false
			})
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrInvalidConfig)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{"empty host", func(c *Config) { c.Host = " " }, "host is required"},
		{"zero port", func(c *Config) { c.Port = 0 }, "port"},
		{"zero chunk", func(c *Config) { c.MaxChunkBytes = 0 }, "max_chunk_bytes"},
		{"zero read timeout", func(c *Config) { c.ReadTimeout = 0 }, "read_timeout"},
		{"negative connect timeout", func(c *Config) { c.ConnectTimeout = Duration(-time.Second) }, "connect_timeout"},
		{"record smaller than chunk", func(c *Config) { c.MaxRecordBytes = 100 }, "max_record_bytes"},
		{"negative backoff", func(c *Config) { c.Reconnect.Multiplier = -1 }, "must not be negative"},
		{"max below initial", func(c *Config) {
			c.Reconnect.InitialDelay = Duration(time.Second)
			c.Reconnect.MaxDelay = Duration(time.Millisecond)
		}, "max_delay"},
		{"nats without prefix", func(c *Config) {
			c.NATS.URL = "nats://localhost:4222"
			c.NATS.SubjectPrefix = ""
		}, "subject_prefix is required"},
		{"wildcard prefix", func(c *Config) { c.NATS.SubjectPrefix = "nmea.>" }, "wildcard"},
		{"nats user without password", func(c *Config) { c.NATS.User = "driver" }, "set together"},
		{"nats token and user", func(c *Config) {
			c.NATS.Token = "t"
			c.NATS.User = "driver"
			c.NATS.Password = "p"
		}, "mutually exclusive"},
		{"metrics port", func(c *Config) { c.Metrics.Port = 70000 }, "metrics.port"},
		{"metrics path without slash", func(c *Config) { c.Metrics.Path = "metrics" }, "must start with /"},
		{"metrics path on health", func(c *Config) { c.Metrics.Path = "/health" }, "reserved for health"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsInvalid(err))
			assert.ErrorIs(t, err, errors.ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestValidateUnlimitedRecord(t *testing.T) {
	cfg := Default()
	cfg.MaxRecordBytes = 0
	assert.NoError(t, cfg.Validate())

	cfg.MaxRecordBytes = cfg.MaxChunkBytes
	assert.NoError(t, cfg.Validate())
}

func TestReconnectRetry(t *testing.T) {
	rc := Default().Reconnect.Retry()
	assert.Equal(t, 10, rc.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, rc.InitialDelay)
	assert.Equal(t, 5*time.Second, rc.MaxDelay)
}

func TestLoadExampleConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "configs", "driver.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "192.168.1.20:10110", cfg.Endpoint())
	assert.Equal(t, Default().Reconnect, cfg.Reconnect)
	assert.False(t, cfg.NATS.Enabled())
}
