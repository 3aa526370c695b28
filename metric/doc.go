// Package metric provides the Prometheus registry and the HTTP endpoint that
// exposes driver metrics.
//
// Components register their collectors under a service name so that several
// clients can share one registry without colliding:
//
//	registry := metric.NewMetricsRegistry()
//	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "nmea_tcp_records_total"})
//	if err := registry.RegisterCounter("tcp_10110", "records", counter); err != nil {
//	    return err
//	}
//
// A nil *MetricsRegistry is the "metrics disabled" value: components that receive
// nil skip collector creation entirely.
//
// Server serves the registry on a configurable path together with /health:
//
//	server := metric.NewServer(9090, "/metrics", registry, client.Health)
//	go func() { _ = server.Start() }()
//	defer server.Stop(ctx)
package metric
