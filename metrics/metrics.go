package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	// MutationsTotal counts successful writes, labelled by resource and action.
	MutationsTotal *prometheus.CounterVec
	// ValidationFailures counts payloads rejected with 400.
	ValidationFailures *prometheus.CounterVec
	StoreErrors        prometheus.Counter
}

var (
	metricsOnce     sync.Once
	metricsInstance *Metrics
)

func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		metricsInstance = &Metrics{
			MutationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "marketmaster_mutations_total",
				Help: "Total number of successful create, update and delete calls",
			}, []string{"resource", "action"}),
			ValidationFailures: promauto.NewCounterVec(prometheus.CounterOpts{
				Name: "marketmaster_validation_failures_total",
				Help: "Total number of request payloads rejected by validation",
			}, []string{"resource"}),
			StoreErrors: promauto.NewCounter(prometheus.CounterOpts{
				Name: "marketmaster_store_errors_total",
				Help: "Total number of storage failures surfaced as 500",
			}),
		}
	})
	return metricsInstance
}

func (m *Metrics) RecordMutation(resource, action string) {
	if m == nil || m.MutationsTotal == nil {
		return
	}
	m.MutationsTotal.WithLabelValues(resource, action).Inc()
}

func (m *Metrics) RecordValidationFailure(resource string) {
	if m == nil || m.ValidationFailures == nil {
		return
	}
	m.ValidationFailures.WithLabelValues(resource).Inc()
}

func (m *Metrics) RecordStoreError() {
	if m == nil || m.StoreErrors == nil {
		return
	}
	m.StoreErrors.Inc()
}

// Handler serves the default registry in the prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}
