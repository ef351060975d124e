package srv

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metrics struct {
	registry     *prometheus.Registry
	observations *prometheus.CounterVec
	errors       *prometheus.CounterVec
	schemas      prometheus.Gauge
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		observations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "schemagen_observations_total",
			Help: "Documents added to a schema, by kind (object or schema).",
		}, []string{"kind"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "schemagen_errors_total",
			Help: "Rejected requests, by kind (parse, engine or auth).",
		}, []string{"kind"}),
		schemas: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "schemagen_schemas",
			Help: "Number of named schemas held by the server.",
		}),
	}
	m.registry.MustRegister(
		m.observations,
		m.errors,
		m.schemas,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
