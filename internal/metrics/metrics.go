package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome label values for CommandsTotal.
const (
	OutcomeOK         = "ok"
	OutcomeUsageError = "usage_error"
	OutcomeError      = "error"
)

// Metrics holds the bot's collectors. Each instance registers on its own
// registry so tests do not share state.
type Metrics struct {
	CommandsTotal          *prometheus.CounterVec
	CommandDuration        *prometheus.HistogramVec
	RateRefreshTotal       *prometheus.CounterVec
	CalculationsSavedTotal prometheus.Counter
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		CommandsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tipbot_commands_total",
				Help: "Total number of handled commands",
			},
			[]string{"command", "outcome"},
		),
		CommandDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tipbot_command_duration_seconds",
				Help:    "Command handling duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"command"},
		),
		RateRefreshTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tipbot_rate_refresh_total",
				Help: "Total number of exchange rate refresh attempts",
			},
			[]string{"result"},
		),
		CalculationsSavedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "tipbot_calculations_saved_total",
				Help: "Total number of tip calculations written to storage",
			},
		),
	}
}

func (m *Metrics) RecordCommand(command, outcome string, duration time.Duration) {
	m.CommandsTotal.WithLabelValues(command, outcome).Inc()
	m.CommandDuration.WithLabelValues(command).Observe(duration.Seconds())
}

// ObserveRateRefresh implements rates.RefreshObserver.
func (m *Metrics) ObserveRateRefresh(ok bool) {
	result := "success"
	if !ok {
		result = "failure"
	}
	m.RateRefreshTotal.WithLabelValues(result).Inc()
}

// ObserveCalculationSaved implements service.CalculationObserver.
func (m *Metrics) ObserveCalculationSaved() {
	m.CalculationsSavedTotal.Inc()
}
