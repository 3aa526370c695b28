package testutil

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/require"

	"github.com/takiaine/nmea-navsat-driver/errors"
)

// MockConsumer records accepted records. AcceptFunc, when set, decides the
// result for each record.
type MockConsumer struct {
	mu sync.Mutex

	AcceptFunc func(record []byte, frameID string) error

	records  []string
	frameIDs []string
	calls    int
}

// NewMockConsumer creates a consumer that accepts everything
func NewMockConsumer() *MockConsumer {
	return &MockConsumer{}
}

// RejectContaining returns an AcceptFunc that rejects records containing substr
func RejectContaining(substr string) func([]byte, string) error {
	return func(record []byte, _ string) error {
		if bytes.Contains(record, []byte(substr)) {
			return errors.WrapInvalid(errors.ErrInvalidData, "mock-consumer", "Accept", "validate record")
		}
		return nil
	}
}

// Accept implements dispatch.Consumer
func (m *MockConsumer) Accept(record []byte, frameID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.AcceptFunc != nil {
		if err := m.AcceptFunc(record, frameID); err != nil {
			return err
		}
	}
	m.records = append(m.records, string(record))
	m.frameIDs = append(m.frameIDs, frameID)
	return nil
}

// Records returns the accepted records in order
func (m *MockConsumer) Records() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.records...)
}

// FrameIDs returns the frame id passed with each accepted record
func (m *MockConsumer) FrameIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.frameIDs...)
}

// Calls returns the number of Accept calls, including rejected ones
func (m *MockConsumer) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// WaitForRecords blocks until at least n records have been accepted
func (m *MockConsumer) WaitForRecords(t testing.TB, n int, timeout time.Duration) []string {
	t.Helper()
	require.Eventually(t, func() bool {
		return len(m.Records()) >= n
	}, timeout, 5*time.Millisecond, "waiting for %d records", n)
	return m.Records()
}

// Event is one observer callback
type Event struct {
	Kind     string // "connect_failed", "read_failed" or "record_rejected"
	Endpoint string
	Record   string
	Err      error
}

// RecordingObserver collects observer events. It satisfies tcp.Observer.
type RecordingObserver struct {
	mu     sync.Mutex
	events []Event
}

// ConnectFailed records a connect_failed event
func (o *RecordingObserver) ConnectFailed(endpoint string, err error) {
	o.add(Event{Kind: "connect_failed", Endpoint: endpoint, Err: err})
}

// ReadFailed records a read_failed event
func (o *RecordingObserver) ReadFailed(endpoint string, err error) {
	o.add(Event{Kind: "read_failed", Endpoint: endpoint, Err: err})
}

// RecordRejected records a record_rejected event
func (o *RecordingObserver) RecordRejected(record []byte, reason error) {
	o.add(Event{Kind: "record_rejected", Record: string(record), Err: reason})
}

func (o *RecordingObserver) add(e Event) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, e)
}

// Events returns all events in order
func (o *RecordingObserver) Events() []Event {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Event(nil), o.events...)
}

// Count returns the number of events of the given kind
func (o *RecordingObserver) Count(kind string) int {
	n := 0
	for _, e := range o.Events() {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// WaitFor blocks until at least n events of kind have been recorded
func (o *RecordingObserver) WaitFor(t testing.TB, kind string, n int, timeout time.Duration) {
	t.Helper()
	require.Eventually(t, func() bool {
		return o.Count(kind) >= n
	}, timeout, 5*time.Millisecond, "waiting for %d %s events", n, kind)
}

// MockNATSClient is an in-memory stand-in for natsclient.Client's publish side.
// Thread-safe for concurrent use.
type MockNATSClient struct {
	mu       sync.RWMutex
	messages []*nats.Msg
	closed   bool

	// FailNext makes the next n publishes fail
	FailNext int
}

// NewMockNATSClient creates a new mock NATS client
func NewMockNATSClient() *MockNATSClient {
	return &MockNATSClient{}
}

// PublishMsg stores msg
func (c *MockNATSClient) PublishMsg(ctx context.Context, msg *nats.Msg) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return fmt.Errorf("client is closed")
	}
	if c.FailNext > 0 {
		c.FailNext--
		return errors.WrapTransient(errors.ErrNotConnected, "mock-nats", "PublishMsg", "publish")
	}

	cp := &nats.Msg{Subject: msg.Subject, Data: bytes.Clone(msg.Data), Header: nats.Header{}}
	for k, v := range msg.Header {
		cp.Header[k] = append([]string(nil), v...)
	}
	c.messages = append(c.messages, cp)
	return nil
}

// Publish stores data without headers
func (c *MockNATSClient) Publish(ctx context.Context, subject string, data []byte) error {
	return c.PublishMsg(ctx, &nats.Msg{Subject: subject, Data: data})
}

// Messages returns every published message in order
func (c *MockNATSClient) Messages() []*nats.Msg {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]*nats.Msg(nil), c.messages...)
}

// Subjects returns the subject of every published message in order
func (c *MockNATSClient) Subjects() []string {
	msgs := c.Messages()
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Subject
	}
	return out
}

// Close marks the client closed; later publishes fail
func (c *MockNATSClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}
