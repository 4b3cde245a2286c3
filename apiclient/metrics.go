package apiclient

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts pipeline activity. A nil *Metrics records nothing.
type Metrics struct {
	requests      *prometheus.CounterVec
	refreshes     *prometheus.CounterVec
	invalidations prometheus.Counter
}

// NewMetrics registers the pipeline collectors on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tareas",
			Subsystem: "apiclient",
			Name:      "requests_total",
			Help:      "HTTP requests sent, by client, method and status (0 for transport errors).",
		}, []string{"client", "method", "status"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tareas",
			Subsystem: "apiclient",
			Name:      "token_refreshes_total",
			Help:      "Token refresh attempts by result.",
		}, []string{"result"}),
		invalidations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tareas",
			Subsystem: "apiclient",
			Name:      "session_invalidations_total",
			Help:      "Sessions torn down after an unrecoverable 401.",
		}),
	}
	for _, c := range []prometheus.Collector{m.requests, m.refreshes, m.invalidations} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observeRequest(client, method string, status int) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(client, method, strconv.Itoa(status)).Inc()
}

func (m *Metrics) observeRefresh(result string) {
	if m == nil {
		return
	}
	m.refreshes.WithLabelValues(result).Inc()
}

func (m *Metrics) observeInvalidation() {
	if m == nil {
		return
	}
	m.invalidations.Inc()
}
