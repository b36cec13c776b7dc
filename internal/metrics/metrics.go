package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collectors holds the exporter's Prometheus metrics.
type Collectors struct {
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	records         *prometheus.GaugeVec
	lastSuccess     prometheus.Gauge
	runs            *prometheus.CounterVec
}

// NewRegistry returns a registry holding only the exporter's collectors, so a
// textfile dump carries no go_* or process_* families.
func NewRegistry() (*prometheus.Registry, *Collectors) {
	reg := prometheus.NewRegistry()
	return reg, New(reg)
}

func New(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "freshservice_requests_total",
				Help: "Requests sent to Freshservice by endpoint and HTTP status code (0 when no response).",
			},
			[]string{"endpoint", "code"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "freshservice_request_duration_seconds",
				Help:    "Freshservice request latency by endpoint.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		records: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "freshservice_enriched_records",
				Help: "Tickets of the last successful run, by status (item, empty).",
			},
			[]string{"status"},
		),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "freshservice_last_run_success_timestamp_seconds",
			Help: "Unix time of the last successful export.",
		}),
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "freshservice_runs_total",
				Help: "Export runs by result (success, failure).",
			},
			[]string{"result"},
		),
	}
	reg.MustRegister(c.requests, c.requestDuration, c.records, c.lastSuccess, c.runs)
	return c
}

func (c *Collectors) ObserveRequest(endpoint string, code int, elapsed time.Duration) {
	c.requests.WithLabelValues(endpoint, strconv.Itoa(code)).Inc()
	c.requestDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// RunSucceeded records the outcome of a finished export.
func (c *Collectors) RunSucceeded(items, empty int, at time.Time) {
	c.records.WithLabelValues("item").Set(float64(items))
	c.records.WithLabelValues("empty").Set(float64(empty))
	c.lastSuccess.Set(float64(at.Unix()))
	c.runs.WithLabelValues("success").Inc()
}

func (c *Collectors) RunFailed() {
	c.runs.WithLabelValues("failure").Inc()
}

// WriteTextfile dumps everything g gathers in the node_exporter textfile format.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}

// Handler serves what g gathers in the Prometheus exposition format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
