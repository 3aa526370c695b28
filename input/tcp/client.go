package tcp

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/takiaine/nmea-navsat-driver/config"
	"github.com/takiaine/nmea-navsat-driver/dispatch"
	"github.com/takiaine/nmea-navsat-driver/errors"
	"github.com/takiaine/nmea-navsat-driver/frame"
	"github.com/takiaine/nmea-navsat-driver/health"
	"github.com/takiaine/nmea-navsat-driver/metric"
	"github.com/takiaine/nmea-navsat-driver/pkg/retry"
)

// Dialer opens connections. *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// ClientDeps holds everything a Client needs
type ClientDeps struct {
	Name            string                  // Service name for metrics and health; derived from the endpoint if empty
	Config          config.Config           // Endpoint, timeouts, framing and reconnect settings
	Consumer        dispatch.Consumer       // Required
	Observer        Observer                // Defaults to a LogObserver on Logger
	MetricsRegistry *metric.MetricsRegistry // nil disables metrics
	Logger          *slog.Logger            // Defaults to slog.Default()
	Dialer          Dialer                  // Defaults to a net.Dialer
}

// Stats is a snapshot of client counters
type Stats struct {
	State           State
	Session         string
	Connects        uint64
	ConnectFailures uint64
	ReadFailures    uint64
	RecordsAccepted uint64
	RecordsRejected uint64
	BytesReceived   uint64
	Buffered        int
	LastActivity    time.Time
	LastFailure     dispatch.Outcome // ConnectionFailed outcome of the latest connect or read failure
}

// Reconnects returns the number of connections after the first
func (s Stats) Reconnects() uint64 {
	if s.Connects == 0 {
		return 0
	}
	return s.Connects - 1
}

// Client keeps a TCP connection to an NMEA source and dispatches every
// newline-terminated record it receives.
type Client struct {
	name           string
	endpoint       string
	frameID        string
	readTimeout    time.Duration
	connectTimeout time.Duration
	reconnect      retry.Config

	dialer   Dialer
	observer Observer
	logger   *slog.Logger
	metrics  *Metrics

	// owned by the Run goroutine
	assembler  *frame.Assembler
	dispatcher *dispatch.Dispatcher

	running       atomic.Bool
	state         atomic.Int32
	everConnected atomic.Bool
	failed        atomic.Bool
	lastError     atomic.Value // string
	session       atomic.Value // string
	startTime     atomic.Int64 // unix nanos
	lastActivity  atomic.Int64 // unix nanos
	lastFailure   atomic.Value // dispatch.Outcome

	connects        atomic.Uint64
	connectFailures atomic.Uint64
	readFailures    atomic.Uint64
	accepted        atomic.Uint64
	rejected        atomic.Uint64
	bytesReceived   atomic.Uint64
	buffered        atomic.Int64
}

// NewClient validates the configuration and builds a Client
func NewClient(deps ClientDeps) (*Client, error) {
	cfg := deps.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Consumer == nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: consumer is required", errors.ErrMissingConfig),
			"tcp-client", "NewClient", "dependency check")
	}

	endpoint := cfg.Endpoint()
	name := deps.Name
	if name == "" {
		name = serviceName(endpoint)
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "tcp-client", "endpoint", endpoint)

	observer := deps.Observer
	if observer == nil {
		observer = NewLogObserver(logger)
	}

	dialer := deps.Dialer
	if dialer == nil {
		dialer = &net.Dialer{KeepAlive: 30 * time.Second}
	}

	var registrar metric.MetricsRegistrar
	if deps.MetricsRegistry != nil {
		registrar = deps.MetricsRegistry
	}
	metrics, err := newMetrics(registrar, name, endpoint)
	if err != nil {
		return nil, err
	}

	c := &Client{
		name:           name,
		endpoint:       endpoint,
		frameID:        cfg.FrameID,
		readTimeout:    cfg.ReadTimeout.Std(),
		connectTimeout: cfg.ConnectTimeout.Std(),
		reconnect:      cfg.Reconnect.Retry(),
		dialer:         dialer,
		observer:       observer,
		logger:         logger,
		metrics:        metrics,
		assembler: frame.NewAssembler(frame.Options{
			MaxChunk:  int(cfg.MaxChunkBytes),
			MaxRecord: int(cfg.MaxRecordBytes),
		}),
	}
	c.dispatcher = dispatch.NewDispatcher(deps.Consumer, observer.RecordRejected)
	c.lastError.Store("")
	c.session.Store("")
	c.lastFailure.Store(dispatch.Outcome{})

	return c, nil
}

// serviceName turns an endpoint into a metrics service name such as tcp_10_0_0_5_10110
func serviceName(endpoint string) string {
	return "tcp_" + strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		}
		return '_'
	}, endpoint)
}

// Name returns the service name
func (c *Client) Name() string {
	return c.name
}

// Endpoint returns the host:port the client connects to
func (c *Client) Endpoint() string {
	return c.endpoint
}

// State returns the current lifecycle state
func (c *Client) State() State {
	return State(c.state.Load())
}

func (c *Client) setState(s State) {
	c.state.Store(int32(s))
}

// Run connects and processes the stream until ctx is cancelled or a fatal
// error occurs. It returns nil on shutdown.
//
// A failed first connection attempt is fatal. Once a connection has been
// established, every connection or read failure discards buffered bytes and
// reconnects with backoff, indefinitely. A consumer contract violation is
// fatal. The returned error is classified Fatal.
func (c *Client) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return errors.WrapInvalid(errors.ErrAlreadyRunning, "tcp-client", "Run", "start")
	}
	defer c.running.Store(false)

	c.failed.Store(false)
	c.startTime.Store(time.Now().UnixNano())
	c.logger.Info("Starting NMEA TCP client",
		"frame_id", c.frameID,
		"read_timeout", c.readTimeout,
		"connect_timeout", c.connectTimeout)

	first := true
	for {
		if ctx.Err() != nil {
			return c.shutdown()
		}

		var conn net.Conn
		var err error
		if first {
			conn, err = c.connectOnce(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return c.shutdown()
				}
				return c.terminate(errors.WrapFatal(err, "tcp-client", "Run", "initial connect"))
			}
			first = false
		} else {
			conn, err = c.reconnectLoop(ctx)
			if err != nil {
				return c.shutdown()
			}
		}

		if err := c.serve(ctx, conn); err != nil {
			return c.terminate(err)
		}
	}
}

func (c *Client) shutdown() error {
	c.setState(StateShuttingDown)
	c.logger.Info("NMEA TCP client stopped", "connects", c.connects.Load())
	c.setState(StateTerminated)
	return nil
}

func (c *Client) terminate(err error) error {
	c.failed.Store(true)
	c.lastError.Store(err.Error())
	c.setState(StateTerminated)
	c.logger.Error("NMEA TCP client terminated", "error", err)
	return err
}

// connectOnce makes a single dial attempt. A failure is reported to the
// observer unless it was caused by shutdown, in which case ctx.Err() is returned.
func (c *Client) connectOnce(ctx context.Context) (net.Conn, error) {
	c.setState(StateConnecting)

	dialCtx, cancel := context.WithTimeout(ctx, c.connectTimeout)
	defer cancel()

	conn, err := c.dialer.DialContext(dialCtx, "tcp", c.endpoint)
	if err != nil {
		c.setState(StateDisconnected)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		c.connectFailures.Add(1)
		c.metrics.recordConnectFailure()

		err = errors.WrapTransient(
			fmt.Errorf("%w: %w", errors.ErrNoConnection, err),
			"tcp-client", "connect", "dial "+c.endpoint)
		c.connectionFailed(err)
		c.observer.ConnectFailed(c.endpoint, err)
		return nil, err
	}
	return conn, nil
}

// reconnectLoop dials with backoff until a connection is made or ctx is done.
// An exhausted backoff round is followed by a new one after the longest delay.
func (c *Client) reconnectLoop(ctx context.Context) (net.Conn, error) {
	for round := 1; ; round++ {
		var conn net.Conn
		err := retry.DoNotify(ctx, c.reconnect, func() error {
			if err := ctx.Err(); err != nil {
				return retry.NonRetryable(err)
			}
			var dialErr error
			conn, dialErr = c.connectOnce(ctx)
			return dialErr
		}, func(attempt int, _ error, wait time.Duration) {
			c.logger.Debug("Reconnect attempt failed", "round", round, "attempt", attempt, "retry_in", wait)
		})
		if err == nil {
			return conn, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		wait := retry.Delay(c.reconnect, c.reconnect.MaxAttempts)
		c.logger.Warn("Reconnect round exhausted, starting another",
			"round", round, "retry_in", wait, "error", err)

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// serve reads from conn until the connection fails or ctx is done. It returns
// a non-nil error only for a consumer contract violation.
func (c *Client) serve(ctx context.Context, conn net.Conn) error {
	session := uuid.NewString()
	log := c.logger.With("session", session, "remote", conn.RemoteAddr().String())

	c.assembler.Reset()
	c.buffered.Store(0)
	c.session.Store(session)
	c.everConnected.Store(true)
	if n := c.connects.Add(1); n > 1 {
		log.Info("Reconnected to NMEA source", "reconnects", n-1)
	} else {
		log.Info("Connected to NMEA source")
	}
	c.metrics.recordConnect()
	c.setState(StateConnected)

	defer func() {
		_ = conn.Close()
		c.assembler.Reset()
		c.buffered.Store(0)
		c.metrics.recordDisconnect()
	}()

	for {
		if ctx.Err() != nil {
			log.Info("Shutdown requested, closing connection", "discarded_bytes", c.assembler.Buffered())
			return nil
		}

		if err := conn.SetReadDeadline(time.Now().Add(c.readTimeout)); err != nil {
			c.readFailed(log, errors.WrapTransient(
				fmt.Errorf("%w: %w", errors.ErrConnectionLost, err),
				"tcp-client", "serve", "set read deadline"))
			return nil
		}

		before := c.assembler.Buffered()
		records, readErr := c.assembler.Pull(conn)
		c.account(before, records)

		if err := c.dispatch(log, records); err != nil {
			return err
		}

		if readErr != nil {
			if ctx.Err() != nil {
				log.Info("Shutdown requested, closing connection", "discarded_bytes", c.assembler.Buffered())
				return nil
			}
			c.readFailed(log, readErr)
			return nil
		}
	}
}

// account updates byte counters after a read. Each record lost one delimiter byte.
func (c *Client) account(before int, records []frame.Record) {
	after := c.assembler.Buffered()
	n := after - before
	for _, rec := range records {
		n += len(rec) + 1
	}

	if n > 0 {
		c.bytesReceived.Add(uint64(n))
		c.lastActivity.Store(time.Now().UnixNano())
	}
	c.buffered.Store(int64(after))
	c.metrics.recordRead(n, len(records), after)
}

func (c *Client) dispatch(log *slog.Logger, records []frame.Record) error {
	outcomes, err := c.dispatcher.DispatchAll(records, c.frameID)
	for _, out := range outcomes {
		switch out.Status {
		case dispatch.Accepted:
			c.accepted.Add(1)
		case dispatch.Rejected:
			c.rejected.Add(1)
		}
		c.metrics.recordOutcome(out.Status.String())
	}
	if err != nil {
		log.Error("Consumer contract violation", "error", err)
		return err
	}
	return nil
}

func (c *Client) readFailed(log *slog.Logger, err error) {
	c.readFailures.Add(1)
	c.metrics.recordReadFailure()
	c.setState(StateDisconnected)

	c.connectionFailed(err)
	c.observer.ReadFailed(c.endpoint, err)
	if c.assembler.Buffered() > 0 && log.Enabled(context.Background(), slog.LevelDebug) {
		partial := c.assembler.Pending()
		log.Debug("Discarding partial record", "bytes", len(partial), "partial", string(partial))
	}
}

func (c *Client) connectionFailed(err error) {
	c.lastFailure.Store(dispatch.Outcome{Status: dispatch.ConnectionFailed, Reason: err.Error()})
}

// Stats returns a snapshot of the client counters. Safe for concurrent use.
func (c *Client) Stats() Stats {
	s := Stats{
		State:           c.State(),
		Session:         c.session.Load().(string),
		Connects:        c.connects.Load(),
		ConnectFailures: c.connectFailures.Load(),
		ReadFailures:    c.readFailures.Load(),
		RecordsAccepted: c.accepted.Load(),
		RecordsRejected: c.rejected.Load(),
		BytesReceived:   c.bytesReceived.Load(),
		Buffered:        int(c.buffered.Load()),
		LastFailure:     c.lastFailure.Load().(dispatch.Outcome),
	}
	if ts := c.lastActivity.Load(); ts > 0 {
		s.LastActivity = time.Unix(0, ts)
	}
	return s
}

// Health reports the connection state. Safe for concurrent use.
//
// Healthy while connected, degraded while reconnecting after a lost
// connection, unhealthy before the first connection and once stopped.
func (c *Client) Health() health.Status {
	state := c.State()

	var status health.Status
	switch {
	case c.failed.Load():
		status = health.NewUnhealthy(c.name,
			"terminated: "+health.SanitizeErrorMessage(c.lastError.Load().(string)))
	case state == StateConnected:
		status = health.NewHealthy(c.name, "connected")
	case state == StateShuttingDown || state == StateTerminated:
		status = health.NewUnhealthy(c.name, "stopped")
	case !c.everConnected.Load():
		status = health.NewUnhealthy(c.name, "not connected")
	default:
		status = health.NewDegraded(c.name, "reconnecting")
	}

	stats := c.Stats()
	m := &health.Metrics{
		ErrorCount:      int(stats.ConnectFailures + stats.ReadFailures),
		Reconnects:      int64(stats.Reconnects()),
		RecordsAccepted: int64(stats.RecordsAccepted),
		RecordsRejected: int64(stats.RecordsRejected),
		LastActivity:    stats.LastActivity,
	}
	if start := c.startTime.Load(); start > 0 {
		m.Uptime = time.Since(time.Unix(0, start))
	}
	return status.WithMetrics(m)
}
