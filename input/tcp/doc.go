// Package tcp implements the connection manager of the NMEA TCP driver.
//
// A Client keeps one TCP connection to an NMEA 0183 source, such as a GNSS
// receiver or a serial-to-TCP bridge, and turns the byte stream into
// newline-terminated records for a dispatch.Consumer:
//
//	client, err := tcp.NewClient(tcp.ClientDeps{
//		Config:          cfg,
//		Consumer:        consumer,
//		MetricsRegistry: registry,
//		Logger:          logger,
//	})
//	if err != nil {
//		return err
//	}
//	return client.Run(ctx)
//
// # Failure handling
//
// The first connection attempt decides whether the endpoint is usable at
// all: if it fails, Run returns a Fatal error and no reconnect is made. Once
// a connection has worked, every later failure (refused connect, read
// timeout, EOF, reset, oversized record) discards any partial record and
// reconnects with exponential backoff, indefinitely.
//
// Records the consumer rejects with an Invalid-classified error are reported
// to the Observer and skipped. Any other consumer error is treated as a bug in
// the consumer and stops Run.
//
// # Concurrency
//
// Run owns the connection and the frame buffer and must be called from one
// goroutine. Health, Stats and State may be called from any goroutine.
// Shutdown is observed before each connect and each read, so cancelling the
// context takes effect within one read timeout.
package tcp
