package metrics

import (
	"net/http"
	"time"

	dErrors "my-pet/internal/domainerrors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics agrupa las métricas de los registros. Usa un registry propio
// (no el global) para poder construir varios routers en tests.
type Metrics struct {
	registry *prometheus.Registry

	Operations *prometheus.CounterVec
	Duration   *prometheus.HistogramVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Operations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "my_pet_registry_operations_total",
			Help: "Registry mutations by registry, operation and outcome (committed or error code)",
		}, []string{"registry", "op", "outcome"}),
		Duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "my_pet_registry_operation_duration_seconds",
			Help:    "Duration of registry mutations including validation and commit",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
		}, []string{"registry", "op"}),
	}
}

// ObserveOperation registra el resultado de una mutación. Acepta receiver nil.
func (m *Metrics) ObserveOperation(registry, op string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := "committed"
	if err != nil {
		outcome = string(dErrors.CodeOf(err))
	}
	m.Operations.WithLabelValues(registry, op, outcome).Inc()
	m.Duration.WithLabelValues(registry, op).Observe(elapsed.Seconds())
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
