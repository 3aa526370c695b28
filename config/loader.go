package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/takiaine/nmea-navsat-driver/errors"
)

// Environment overrides
const (
	EnvHost       = "NMEA_TCP_HOST"
	EnvPort       = "NMEA_TCP_PORT"
	EnvBufferSize = "NMEA_TCP_BUFFER_SIZE"
	EnvTimeout    = "NMEA_TCP_TIMEOUT"
	EnvFrameID    = "NMEA_TCP_FRAME_ID"
	EnvNATSURL    = "NMEA_TCP_NATS_URL"
	EnvNATSToken  = "NMEA_TCP_NATS_TOKEN"
)

// Format identifies a configuration file encoding
type Format string

// Supported formats
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

const maxConfigSize = 1 << 20

// FormatFromPath picks the format from a file extension
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	default:
		return "", errors.WrapInvalid(
			fmt.Errorf("%w: %q", errors.ErrUnsupportedFormat, filepath.Ext(path)),
			"Loader", "FormatFromPath", "format detection")
	}
}

// Load reads a configuration file over the defaults and applies environment
// overrides. An empty path yields the defaults plus overrides. The result is
// not validated; call Validate.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		format, err := FormatFromPath(path)
		if err != nil {
			return cfg, err
		}
		data, err := safeReadFile(path)
		if err != nil {
			return cfg, errors.WrapInvalid(err, "Loader", "Load", "read config file")
		}
		if cfg, err = Decode(data, format); err != nil {
			return cfg, err
		}
	}

	if err := ApplyEnv(&cfg, os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Decode parses data in the given format over the defaults
func Decode(data []byte, format Format) (Config, error) {
	cfg := Default()

	var err error
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&cfg)
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&cfg)
		if errors.Is(err, io.EOF) {
			// empty document
			err = nil
		}
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&cfg)
	default:
		err = fmt.Errorf("%w: %q", errors.ErrUnsupportedFormat, format)
	}

	if err != nil {
		return cfg, errors.WrapInvalid(err, "Loader", "Decode", fmt.Sprintf("parse %s", format))
	}
	return cfg, nil
}

// ApplyEnv overrides cfg from environment variables. lookup is usually os.LookupEnv.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}
	bad := func(key, value string, err error) error {
		return errors.WrapInvalid(fmt.Errorf("%w: %s=%q: %v", errors.ErrInvalidConfig, key, value, err),
			"Loader", "ApplyEnv", "environment override")
	}

	if v, ok := get(EnvHost); ok {
		cfg.Host = v
	}
	if v, ok := get(EnvPort); ok {
		port, err := strconv.ParseUint(v, 10, 16)
		if err != nil {
			return bad(EnvPort, v, err)
		}
		cfg.Port = uint16(port)
	}
	if v, ok := get(EnvBufferSize); ok {
		size, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return bad(EnvBufferSize, v, err)
		}
		cfg.MaxChunkBytes = uint32(size)
	}
	if v, ok := get(EnvTimeout); ok {
		d, err := parseDuration(v)
		if err != nil {
			return bad(EnvTimeout, v, err)
		}
		cfg.ReadTimeout = Duration(d)
	}
	if v, ok := get(EnvFrameID); ok {
		cfg.FrameID = v
	}
	if v, ok := get(EnvNATSURL); ok {
		cfg.NATS.URL = v
	}
	if v, ok := get(EnvNATSToken); ok {
		cfg.NATS.Token = v
	}
	return nil
}

func safeReadFile(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot stat config file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("not a regular file: %s", path)
	}
	if info.Size() > maxConfigSize {
		return nil, fmt.Errorf("config file too large: %d bytes > %d", info.Size(), maxConfigSize)
	}
	return os.ReadFile(path)
}
