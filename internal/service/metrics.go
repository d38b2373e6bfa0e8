package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

// Metrics exposes claim outcomes to prometheus.
type Metrics struct {
	claimsCommitted prometheus.Counter
	claimsRejected  *prometheus.CounterVec
	wordsCreated    prometheus.Counter
	revenue         prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		claimsCommitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "spkkn_claims_committed_total",
			Help: "Successful word claims, including word creations.",
		}),
		claimsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "spkkn_claims_rejected_total",
			Help: "Rejected claim attempts by reason.",
		}, []string{"reason"}),
		wordsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "spkkn_words_created_total",
			Help: "Brand-new words added to the registry.",
		}),
		revenue: factory.NewCounter(prometheus.CounterOpts{
			Name: "spkkn_revenue_total",
			Help: "Confirmed payment amounts from committed claims.",
		}),
	}
}

func (m *Metrics) ClaimCommitted(amount decimal.Decimal) {
	m.claimsCommitted.Inc()
	value, _ := amount.Float64()
	m.revenue.Add(value)
}

func (m *Metrics) ClaimRejected(reason string) {
	m.claimsRejected.WithLabelValues(reason).Inc()
}

func (m *Metrics) WordCreated() {
	m.wordsCreated.Inc()
}
