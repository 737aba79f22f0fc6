package metrics

import (
	"context"

	"github.com/Ashenafi-pixel/limbo-crash-engine/round"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	HttpRequests  *prometheus.CounterVec
	RoundsSettled *prometheus.CounterVec
	CrashValues   prometheus.Histogram
	PayoutTotal   prometheus.Counter
	StakeTotal    prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HttpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total HTTP requests",
			},
			[]string{"method", "endpoint"},
		),
		RoundsSettled: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crash_rounds_settled_total",
				Help: "Settled crash rounds by status",
			},
			[]string{"status"},
		),
		CrashValues: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "crash_values",
				Help:    "Distribution of crash multipliers",
				Buckets: []float64{1.5, 3, 10, 15},
			},
		),
		PayoutTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "crash_payout_total",
				Help: "Sum of payouts on winning rounds",
			},
		),
		StakeTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "crash_stake_total",
				Help: "Sum of stakes on settled rounds",
			},
		),
	}
	reg.MustRegister(m.HttpRequests, m.RoundsSettled, m.CrashValues, m.PayoutTotal, m.StakeTotal)
	return m
}

// Record implements round.Recorder.
func (m *Metrics) Record(_ context.Context, s round.Settlement) error {
	m.RoundsSettled.WithLabelValues(string(s.Status)).Inc()
	m.CrashValues.Observe(s.CrashValue)
	m.StakeTotal.Add(s.Bet.InexactFloat64())
	if s.Payout.Valid {
		m.PayoutTotal.Add(s.Payout.Decimal.InexactFloat64())
	}
	return nil
}
