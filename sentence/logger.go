package sentence

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// Logger is a dispatch.Consumer that validates sentences and logs them
type Logger struct {
	logger   *slog.Logger
	accepted atomic.Uint64
	rejected atomic.Uint64
}

// NewLogger creates a Logger consumer
func NewLogger(logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{logger: logger.With("component", "sentence-logger")}
}

// Accept validates record and logs it at debug level
func (l *Logger) Accept(record []byte, frameID string) error {
	s, err := Parse(record)
	if err != nil {
		l.rejected.Add(1)
		return err
	}

	l.accepted.Add(1)
	if l.logger.Enabled(context.Background(), slog.LevelDebug) {
		l.logger.Debug("NMEA sentence",
			"frame_id", frameID,
			"talker", s.Talker,
			"type", s.Type,
			"fields", len(s.Fields),
			"raw", string(s.Raw))
	}
	return nil
}

// Stats returns the logger counters
func (l *Logger) Stats() Stats {
	return Stats{
		Accepted: l.accepted.Load(),
		Rejected: l.rejected.Load(),
	}
}
