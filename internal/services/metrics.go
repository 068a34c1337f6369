package services

import (
	"github.com/prometheus/client_golang/prometheus"

	"eventcrm/internal/domain"
)

// Metrics holds the counters updated by the services. A nil *Metrics records nothing.
type Metrics struct {
	roleTransitions *prometheus.CounterVec
	bulkDeliveries  *prometheus.CounterVec
}

// NewMetrics creates the service counters and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		roleTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eventcrm",
			Name:      "role_transitions_total",
			Help:      "Role change requests by resulting change type.",
		}, []string{"change_type"}),
		bulkDeliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eventcrm",
			Name:      "bulk_deliveries_total",
			Help:      "Bulk email deliveries by outcome.",
		}, []string{"outcome"}),
	}
	reg.MustRegister(m.roleTransitions, m.bulkDeliveries)
	return m
}

func (m *Metrics) roleTransition(changeType domain.ChangeType) {
	if m == nil {
		return
	}
	m.roleTransitions.WithLabelValues(string(changeType)).Inc()
}

func (m *Metrics) delivery(ok bool) {
	if m == nil {
		return
	}
	outcome := "failed"
	if ok {
		outcome = "sent"
	}
	m.bulkDeliveries.WithLabelValues(outcome).Inc()
}
