package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder — счётчики, которые инкрементирует ядро проведения результатов.
type Recorder interface {
	IncSettlementsCompleted()
	IncSettlementsRejected()
	ObserveSettlementDuration(seconds float64)
}

var _ Recorder = (*Service)(nil)

type Service struct {
	SettlementsCompleted prometheus.Counter
	SettlementsRejected  prometheus.Counter
	SettlementDuration   prometheus.Histogram
}

// NewMetricsHandler returns an http.Handler for the given Gatherer.
// If no gatherer is provided, it uses the default one.
func NewMetricsHandler(gatherer ...prometheus.Gatherer) http.Handler {
	gath := prometheus.DefaultGatherer
	if len(gatherer) > 0 {
		gath = gatherer[0]
	}
	return promhttp.HandlerFor(gath, promhttp.HandlerOpts{})
}

// NewService creates and registers the Prometheus metrics.
// If no registerer is provided, it uses the default Prometheus registerer.
func NewService(registerer ...prometheus.Registerer) *Service {
	reg := prometheus.DefaultRegisterer
	if len(registerer) > 0 {
		reg = registerer[0]
	}

	s := &Service{
		SettlementsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matchup_settlements_completed_total",
			Help: "The total number of match results settled successfully.",
		}),
		SettlementsRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "matchup_settlements_rejected_total",
			Help: "The total number of settlement attempts rejected or rolled back.",
		}),
		SettlementDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "matchup_settlement_duration_seconds",
			Help:    "The duration of individual match settlements.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}

	reg.MustRegister(
		s.SettlementsCompleted,
		s.SettlementsRejected,
		s.SettlementDuration,
	)

	return s
}

func (s *Service) IncSettlementsCompleted() {
	s.SettlementsCompleted.Inc()
}

func (s *Service) IncSettlementsRejected() {
	s.SettlementsRejected.Inc()
}

func (s *Service) ObserveSettlementDuration(seconds float64) {
	s.SettlementDuration.Observe(seconds)
}

// Nop отключает метрики там, где регистрация не нужна (тесты).
type Nop struct{}

func (Nop) IncSettlementsCompleted()                  {}
func (Nop) IncSettlementsRejected()                   {}
func (Nop) ObserveSettlementDuration(seconds float64) {}
