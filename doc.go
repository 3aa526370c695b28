// Package nmeadriver is a resilient TCP client for NMEA 0183 sentence streams.
//
// The driver connects to a GNSS receiver, AIS transponder or serial-to-TCP
// bridge, splits the byte stream into newline-terminated records, and hands
// each record to a consumer that validates and forwards it.
//
// # Architecture
//
//	input/tcp    connection manager: dial, read deadline, reconnect with backoff
//	frame        frame assembler: bounded reads, record extraction, remainder buffer
//	dispatch     record dispatcher: trims records, isolates consumer rejections
//	sentence     NMEA checksum validation; NATS publisher and logging consumers
//	natsclient   NATS connection used by the publisher
//	config       JSON, YAML and TOML configuration with environment overrides
//	errors       error classification (transient, invalid, fatal) and wrapping
//	metric       Prometheus registry and the /metrics and /health endpoint
//	health       health status reporting
//	pkg/retry    exponential backoff
//
// Data flows from the connection through the assembler and dispatcher to the
// consumer. Failures flow back: a rejected record stays at the dispatcher, a
// read failure makes the connection manager discard buffered bytes and
// reconnect, and only a failed first connection or a consumer contract
// violation stops the process.
//
// # Running
//
//	nmea-tcp-driver -c configs/driver.yaml
//
// See cmd/nmea-tcp-driver for flags and environment variables.
package nmeadriver
