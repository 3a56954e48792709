package payroll

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	encryptions   prometheus.Counter
	decryptions   *prometheus.CounterVec
	submissions   *prometheus.CounterVec
	submitLatency prometheus.Histogram
}

func newMetrics(reg prometheus.Registerer) (*metrics, error) {
	m := &metrics{
		encryptions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "stealth_payroll",
			Name:      "encryptions_total",
			Help:      "Payroll records encrypted for a recipient.",
		}),
		decryptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stealth_payroll",
			Name:      "decryptions_total",
			Help:      "Envelope open attempts by result.",
		}, []string{"result"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "stealth_payroll",
			Name:      "submissions_total",
			Help:      "Ledger submissions by final entry status.",
		}, []string{"status"}),
		submitLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "stealth_payroll",
			Name:      "submit_duration_seconds",
			Help:      "Time from ledger submit to receipt.",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 1.5, 2, 3, 5},
		}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.encryptions, m.decryptions, m.submissions, m.submitLatency} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register payroll metrics: %w", err)
		}
	}
	return m, nil
}
