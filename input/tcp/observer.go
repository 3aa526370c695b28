package tcp

import (
	"log/slog"
	"sync/atomic"

	"golang.org/x/time/rate"

	"github.com/takiaine/nmea-navsat-driver/errors"
)

// Rejection logging defaults: a short burst, then one line per second.
const (
	DefaultRejectLogRate  = rate.Limit(1)
	DefaultRejectLogBurst = 10
)

// Observer receives the failure events of a Client. Implementations are
// called from the client goroutine and must not block.
type Observer interface {
	ConnectFailed(endpoint string, err error)
	ReadFailed(endpoint string, err error)
	RecordRejected(record []byte, reason error)
}

// LogObserver writes events to a structured logger. Rejections are rate
// limited when a limit is set; the zero value logs every event.
type LogObserver struct {
	Logger *slog.Logger

	rejects *rejectLimit
}

type rejectLimit struct {
	limiter    *rate.Limiter
	suppressed atomic.Uint64
}

// NewLogObserver creates a LogObserver that logs rejections at
// DefaultRejectLogRate. A nil logger uses slog.Default().
func NewLogObserver(logger *slog.Logger) LogObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return LogObserver{Logger: logger}.WithRejectLimit(DefaultRejectLogRate, DefaultRejectLogBurst)
}

// WithRejectLimit returns a copy that logs at most limit rejections per
// second after an initial burst. rate.Inf disables the limit.
func (o LogObserver) WithRejectLimit(limit rate.Limit, burst int) LogObserver {
	if limit == rate.Inf {
		o.rejects = nil
		return o
	}
	o.rejects = &rejectLimit{limiter: rate.NewLimiter(limit, burst)}
	return o
}

// SuppressedRejections returns how many rejections were not logged since the
// last logged one.
func (o LogObserver) SuppressedRejections() uint64 {
	if o.rejects == nil {
		return 0
	}
	return o.rejects.suppressed.Load()
}

func (o LogObserver) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

// ConnectFailed logs a failed connection attempt
func (o LogObserver) ConnectFailed(endpoint string, err error) {
	o.logger().Error("connect_failed", "endpoint", endpoint, "error", err, "class", errors.Classify(err).String())
}

// ReadFailed logs a read that ended the connection
func (o LogObserver) ReadFailed(endpoint string, err error) {
	o.logger().Warn("read_failed", "endpoint", endpoint, "error", err, "class", errors.Classify(err).String())
}

// RecordRejected logs a record the consumer refused. Rejections over the
// limit are counted and reported with the next logged one.
func (o LogObserver) RecordRejected(record []byte, reason error) {
	if o.rejects == nil {
		o.logger().Warn("record_rejected", "record", string(record), "reason", reason)
		return
	}
	if !o.rejects.limiter.Allow() {
		o.rejects.suppressed.Add(1)
		return
	}
	if n := o.rejects.suppressed.Swap(0); n > 0 {
		o.logger().Warn("record_rejected", "record", string(record), "reason", reason, "suppressed", n)
		return
	}
	o.logger().Warn("record_rejected", "record", string(record), "reason", reason)
}

// MultiObserver forwards every event to each observer in order
type MultiObserver []Observer

// ConnectFailed implements Observer
func (m MultiObserver) ConnectFailed(endpoint string, err error) {
	for _, o := range m {
		o.ConnectFailed(endpoint, err)
	}
}

// ReadFailed implements Observer
func (m MultiObserver) ReadFailed(endpoint string, err error) {
	for _, o := range m {
		o.ReadFailed(endpoint, err)
	}
}

// RecordRejected implements Observer
func (m MultiObserver) RecordRejected(record []byte, reason error) {
	for _, o := range m {
		o.RecordRejected(record, reason)
	}
}
