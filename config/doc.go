// Package config holds the typed configuration of the NMEA TCP driver.
//
// A configuration file is optional. Without one, Default() describes a driver
// connecting to 0.0.0.0:10110 with 4096-byte reads and a 2 second read timeout.
// Files are decoded over the defaults, so a file only needs the keys it changes.
// The format follows the extension:
//
//	driver.json   encoding/json
//	driver.yaml   gopkg.in/yaml.v3 (also .yml)
//	driver.toml   github.com/pelletier/go-toml/v2
//
// Example (YAML):
//
//	host: 192.168.1.20
//	port: 10110
//	read_timeout: 2s
//	frame_id: gps
//	nats:
//	  url: nats://localhost:4222
//
// Durations are strings such as "250ms" or "2s". JSON and YAML also accept a
// bare number of seconds, matching the timeout_sec parameter of the ROS driver.
//
// Environment variables override file values; see the Env* constants.
package config
