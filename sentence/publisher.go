package sentence

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/takiaine/nmea-navsat-driver/pkg/retry"
)

// HeaderFrameID carries the frame context of the publishing driver
const HeaderFrameID = "Frame-Id"

// MsgPublisher is the part of natsclient.Client the Publisher needs
type MsgPublisher interface {
	PublishMsg(ctx context.Context, msg *nats.Msg) error
}

// Stats counts what a consumer has seen
type Stats struct {
	Accepted      uint64
	Rejected      uint64
	PublishFailed uint64
}

// Publisher is a dispatch.Consumer that publishes sentences to NATS
type Publisher struct {
	ctx     context.Context
	client  MsgPublisher
	prefix  string
	retry   retry.Config
	timeout time.Duration
	logger  *slog.Logger

	accepted      atomic.Uint64
	rejected      atomic.Uint64
	publishFailed atomic.Uint64
}

// NewPublisher creates a Publisher. Cancelling ctx aborts in-flight retries.
func NewPublisher(ctx context.Context, client MsgPublisher, prefix string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		ctx:     ctx,
		client:  client,
		prefix:  strings.TrimSuffix(prefix, "."),
		retry:   retry.Quick(),
		timeout: time.Second,
		logger:  logger.With("component", "sentence-publisher"),
	}
}

// Subject returns the subject a sentence from frameID is published on
func (p *Publisher) Subject(s Sentence, frameID string) string {
	return p.prefix + "." + subjectToken(frameID) + "." + strings.ToLower(s.ID())
}

// Accept validates record and publishes it. Publish failures are logged and
// counted but do not reject the record.
func (p *Publisher) Accept(record []byte, frameID string) error {
	s, err := Parse(record)
	if err != nil {
		p.rejected.Add(1)
		return err
	}

	msg := &nats.Msg{
		Subject: p.Subject(s, frameID),
		Data:    s.Raw,
		Header:  nats.Header{},
	}
	msg.Header.Set(HeaderFrameID, frameID)

	err = retry.Do(p.ctx, p.retry, func() error {
		ctx, cancel := context.WithTimeout(p.ctx, p.timeout)
		defer cancel()
		return p.client.PublishMsg(ctx, msg)
	})
	if err != nil {
		p.publishFailed.Add(1)
		p.logger.Warn("Publish failed, sentence dropped",
			"subject", msg.Subject, "sentence", s.ID(), "error", err)
		return nil
	}

	p.accepted.Add(1)
	return nil
}

// Stats returns the publisher counters
func (p *Publisher) Stats() Stats {
	return Stats{
		Accepted:      p.accepted.Load(),
		Rejected:      p.rejected.Load(),
		PublishFailed: p.publishFailed.Load(),
	}
}

// subjectToken makes frameID safe to use as a single subject token
func subjectToken(frameID string) string {
	if frameID == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t':
			return '_'
		}
		return r
	}, frameID)
}
