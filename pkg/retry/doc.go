// Package retry provides exponential backoff for transient failures.
//
// The driver uses it in two places: reconnecting to the NMEA source after a
// working connection was lost, and publishing accepted sentences to NATS.
//
//	err := retry.DoNotify(ctx, retry.Reconnect(), dial, func(attempt int, err error, wait time.Duration) {
//	    logger.Warn("reconnect failed", "attempt", attempt, "retry_in", wait, "error", err)
//	})
//
// Operations stop immediately on context cancellation, during the operation or
// during the backoff sleep. Returning NonRetryable(err) from the operation ends
// the loop without further attempts.
package retry
