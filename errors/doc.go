// Package errors classifies failures of the NMEA TCP driver.
//
// # Overview
//
// Every error that crosses a package boundary carries one of three classes:
//
//   - Transient: the connection failed (read timeout, reset, EOF). The client
//     discards its frame buffer and reconnects.
//   - Invalid: a single record was rejected by the consumer. The record is
//     skipped and the connection is unaffected.
//   - Fatal: the process cannot continue. Only the very first connect attempt
//     and consumer contract violations are fatal.
//
// # Wrapping
//
// Errors are wrapped with the pattern "component.method: action failed: cause":
//
//	if err := conn.SetReadDeadline(deadline); err != nil {
//	    return errors.WrapTransient(err, "tcp-client", "serve", "set read deadline")
//	}
//
// Consumers report a bad record by returning an Invalid error:
//
//	return errors.WrapInvalid(errors.ErrChecksumFailed, "sentence", "Parse", "checksum")
//
// # Inspection
//
// Classification survives further wrapping with fmt.Errorf("...: %w"), and the
// standard errors.Is/errors.As helpers work on every wrapped error:
//
//	var ce *errors.ClassifiedError
//	if errors.As(err, &ce) {
//	    logger.Warn("classified failure", "class", ce.Class, "component", ce.Component)
//	}
package errors
