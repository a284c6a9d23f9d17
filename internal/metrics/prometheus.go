package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus implements Recorder with client_golang collectors.
type Prometheus struct {
	cycles        *prometheus.CounterVec
	cycleDuration prometheus.Histogram
	fraudAccounts prometheus.Gauge
	alerts        *prometheus.CounterVec
	searches      *prometheus.CounterVec
	webhooks      *prometheus.CounterVec
}

// NewPrometheus creates the collectors and registers them with reg.
func NewPrometheus(namespace string, reg prometheus.Registerer) *Prometheus {
	p := &Prometheus{
		cycles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "generator_cycles_total",
				Help:      "Generator cycles by outcome",
			},
			[]string{"outcome"},
		),
		cycleDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "generator_cycle_duration_seconds",
				Help:      "Time spent loading, mutating, saving and reporting in one cycle",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
			},
		),
		fraudAccounts: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "fraud_report_accounts",
				Help:      "Number of accounts in the latest fraud report",
			},
		),
		alerts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "alerts_raised_total",
				Help:      "Alerts raised by account searches, per rule and level",
			},
			[]string{"rule", "level"},
		),
		searches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "account_searches_total",
				Help:      "Account searches by whether the account was found",
			},
			[]string{"found"},
		),
		webhooks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "webhook_deliveries_total",
				Help:      "Webhook delivery attempts by result",
			},
			[]string{"success"},
		),
	}

	reg.MustRegister(p.cycles, p.cycleDuration, p.fraudAccounts, p.alerts, p.searches, p.webhooks)
	return p
}

func (p *Prometheus) RecordCycle(outcome string, duration time.Duration) {
	p.cycles.WithLabelValues(outcome).Inc()
	if outcome != OutcomeSkipped {
		p.cycleDuration.Observe(duration.Seconds())
	}
}

func (p *Prometheus) RecordFraudAccounts(n int) {
	p.fraudAccounts.Set(float64(n))
}

func (p *Prometheus) RecordAlert(rule, level string) {
	p.alerts.WithLabelValues(rule, level).Inc()
}

func (p *Prometheus) RecordSearch(found bool) {
	p.searches.WithLabelValues(strconv.FormatBool(found)).Inc()
}

func (p *Prometheus) RecordWebhook(success bool) {
	p.webhooks.WithLabelValues(strconv.FormatBool(success)).Inc()
}
