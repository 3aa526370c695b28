package tcp

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/takiaine/nmea-navsat-driver/errors"
	"github.com/takiaine/nmea-navsat-driver/metric"
)

// Metrics holds Prometheus metrics for one TCP client
type Metrics struct {
	connects        prometheus.Counter
	connectFailures prometheus.Counter
	readFailures    prometheus.Counter
	records         *prometheus.CounterVec
	recordsPerRead  prometheus.Histogram
	bytesReceived   prometheus.Counter
	connected       prometheus.Gauge
	bufferedBytes   prometheus.Gauge
}

// newMetrics creates and registers client metrics. A nil registry disables
// metrics and returns nil.
func newMetrics(registry metric.MetricsRegistrar, serviceName, endpoint string) (*Metrics, error) {
	if registry == nil {
		return nil, nil
	}

	labels := prometheus.Labels{"endpoint": endpoint}
	m := &Metrics{
		connects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "nmea",
			Subsystem:   "tcp",
			Name:        "connects_total",
			Help:        "Connections established to the NMEA source",
			ConstLabels: labels,
		}),
		connectFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "nmea",
			Subsystem:   "tcp",
			Name:        "connect_failures_total",
			Help:        "Failed connection attempts",
			ConstLabels: labels,
		}),
		readFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "nmea",
			Subsystem:   "tcp",
			Name:        "read_failures_total",
			Help:        "Reads that ended a connection, including timeouts",
			ConstLabels: labels,
		}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "nmea",
			Subsystem:   "tcp",
			Name:        "records_total",
			Help:        "Records dispatched to the consumer by outcome",
			ConstLabels: labels,
		}, []string{"outcome"}),
		recordsPerRead: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   "nmea",
			Subsystem:   "tcp",
			Name:        "records_per_read",
			Help:        "Records completed by a single read",
			Buckets:     []float64{0, 1, 2, 5, 10, 20, 50, 100},
			ConstLabels: labels,
		}),
		bytesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   "nmea",
			Subsystem:   "tcp",
			Name:        "bytes_received_total",
			Help:        "Bytes read from the NMEA source",
			ConstLabels: labels,
		}),
		connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "nmea",
			Subsystem:   "tcp",
			Name:        "connected",
			Help:        "1 while a connection is open",
			ConstLabels: labels,
		}),
		bufferedBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "nmea",
			Subsystem:   "tcp",
			Name:        "buffered_bytes",
			Help:        "Bytes of an unterminated record held between reads",
			ConstLabels: labels,
		}),
	}

	regs := []struct {
		name string
		fn   func() error
	}{
		{"connects", func() error { return registry.RegisterCounter(serviceName, "connects", m.connects) }},
		{"connect_failures", func() error {
			return registry.RegisterCounter(serviceName, "connect_failures", m.connectFailures)
		}},
		{"read_failures", func() error { return registry.RegisterCounter(serviceName, "read_failures", m.readFailures) }},
		{"records", func() error { return registry.RegisterCounterVec(serviceName, "records", m.records) }},
		{"records_per_read", func() error {
			return registry.RegisterHistogram(serviceName, "records_per_read", m.recordsPerRead)
		}},
		{"bytes_received", func() error { return registry.RegisterCounter(serviceName, "bytes_received", m.bytesReceived) }},
		{"connected", func() error { return registry.RegisterGauge(serviceName, "connected", m.connected) }},
		{"buffered_bytes", func() error { return registry.RegisterGauge(serviceName, "buffered_bytes", m.bufferedBytes) }},
	}

	for i, reg := range regs {
		if err := reg.fn(); err != nil {
			// roll back what was registered so a retry with another name works
			for _, done := range regs[:i] {
				registry.Unregister(serviceName, done.name)
			}
			return nil, errors.Wrap(err, "tcp-client", "newMetrics", "register "+reg.name)
		}
	}

	return m, nil
}

func (m *Metrics) recordConnect() {
	if m == nil {
		return
	}
	m.connects.Inc()
	m.connected.Set(1)
}

func (m *Metrics) recordDisconnect() {
	if m == nil {
		return
	}
	m.connected.Set(0)
	m.bufferedBytes.Set(0)
}

func (m *Metrics) recordConnectFailure() {
	if m == nil {
		return
	}
	m.connectFailures.Inc()
}

func (m *Metrics) recordReadFailure() {
	if m == nil {
		return
	}
	m.readFailures.Inc()
}

func (m *Metrics) recordRead(bytes, records, buffered int) {
	if m == nil {
		return
	}
	m.bytesReceived.Add(float64(bytes))
	m.recordsPerRead.Observe(float64(records))
	m.bufferedBytes.Set(float64(buffered))
}

func (m *Metrics) recordOutcome(outcome string) {
	if m == nil {
		return
	}
	m.records.WithLabelValues(outcome).Inc()
}
