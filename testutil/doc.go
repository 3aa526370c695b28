// Package testutil provides test doubles and fixtures for the driver packages.
//
// # Mocks
//
// MockConsumer records every record handed to it and can be scripted to
// reject records or to fail with a contract violation. RecordingObserver
// collects connection and rejection events. MockNATSClient stores published
// messages in memory and satisfies the publisher interface of the sentence
// package, so no NATS server is needed.
//
// # Servers
//
// Server is a loopback TCP listener that hands accepted connections to the
// test, which then writes scripted chunks, stalls, or closes them:
//
//	srv := testutil.NewServer(t)
//	go client.Run(ctx)
//	conn := srv.Accept(t, time.Second)
//	testutil.WriteChunks(t, conn, "$GPGGA,...*47\r\n$GP", "RMC,...*6A\r\n")
//
// ClosedAddr returns an address on which nothing listens, for refusal tests.
//
// # Data
//
// GGA, RMC, VDM and friends are checksum-valid NMEA sentences.
package testutil
