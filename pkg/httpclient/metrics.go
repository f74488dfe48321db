package httpclient

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for outgoing requests.
type Metrics struct {
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "shiksha",
				Subsystem: "http_client",
				Name:      "requests_total",
				Help:      "Total number of outgoing requests by method and status",
			},
			[]string{"method", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "shiksha",
				Subsystem: "http_client",
				Name:      "request_duration_seconds",
				Help:      "Outgoing request latency",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 14), // 5ms to ~40s
			},
			[]string{"method"},
		),
		RequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "shiksha",
				Subsystem: "http_client",
				Name:      "requests_in_flight",
				Help:      "Outgoing requests currently awaiting a response",
			},
		),
	}
}

type instrumentedClient struct {
	next    Client
	metrics *Metrics
}

// NewInstrumentedClient records every call on m. A nil m returns next.
func NewInstrumentedClient(next Client, m *Metrics) Client {
	if m == nil {
		return next
	}
	return &instrumentedClient{next: next, metrics: m}
}

func (c *instrumentedClient) Do(ctx context.Context, req Request) (Response, error) {
	method, err := normalizeMethod(req.Method)
	if err != nil {
		return nil, err
	}

	c.metrics.RequestsInFlight.Inc()
	defer c.metrics.RequestsInFlight.Dec()

	start := time.Now()
	resp, err := c.next.Do(ctx, req)
	c.metrics.RequestDuration.WithLabelValues(method).Observe(time.Since(start).Seconds())

	status := "error"
	if err == nil {
		status = strconv.Itoa(resp.StatusCode())
	}
	c.metrics.RequestsTotal.WithLabelValues(method, status).Inc()
	return resp, err
}
