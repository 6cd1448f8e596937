package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what the service layer sees, so tests can pass a noop.
type Recorder interface {
	IncMatchesResolved()
	IncDraws()
	IncStandingsUpdates()
	IncAdvancements()
	IncImportRows(ok bool)
	ObserveResolutionDuration(seconds float64)
}

var _ Recorder = (*Service)(nil)

type Service struct {
	MatchesResolved    prometheus.Counter
	Draws              prometheus.Counter
	StandingsUpdates   prometheus.Counter
	Advancements       prometheus.Counter
	ImportRowsOK       prometheus.Counter
	ImportRowsFailed   prometheus.Counter
	ResolutionDuration prometheus.Histogram
}

// Handler returns the scrape endpoint for the given gatherer, defaulting to
// the global one.
func Handler(gatherer ...prometheus.Gatherer) http.Handler {
	gath := prometheus.DefaultGatherer
	if len(gatherer) > 0 {
		gath = gatherer[0]
	}
	return promhttp.HandlerFor(gath, promhttp.HandlerOpts{})
}

// NewService creates and registers the Prometheus metrics. If no registerer
// is provided, the default Prometheus registerer is used.
func NewService(registerer ...prometheus.Registerer) *Service {
	reg := prometheus.DefaultRegisterer
	if len(registerer) > 0 {
		reg = registerer[0]
	}

	s := &Service{
		MatchesResolved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "league_matches_resolved_total",
			Help: "The total number of match resolutions applied.",
		}),
		Draws: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "league_match_draws_total",
			Help: "The total number of matches resolved as draws.",
		}),
		StandingsUpdates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "league_standings_updates_total",
			Help: "The total number of points table rows written.",
		}),
		Advancements: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "league_bracket_advancements_total",
			Help: "The total number of winners propagated into a successor match.",
		}),
		ImportRowsOK: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "league_import_rows_ok_total",
			Help: "The total number of bulk import rows applied.",
		}),
		ImportRowsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "league_import_rows_failed_total",
			Help: "The total number of bulk import rows rejected.",
		}),
		ResolutionDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "league_match_resolution_duration_seconds",
			Help:    "The duration of a single score update transaction.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}

	reg.MustRegister(
		s.MatchesResolved,
		s.Draws,
		s.StandingsUpdates,
		s.Advancements,
		s.ImportRowsOK,
		s.ImportRowsFailed,
		s.ResolutionDuration,
	)

	return s
}

func (s *Service) IncMatchesResolved() { s.MatchesResolved.Inc() }

func (s *Service) IncDraws() { s.Draws.Inc() }

func (s *Service) IncStandingsUpdates() { s.StandingsUpdates.Inc() }

func (s *Service) IncAdvancements() { s.Advancements.Inc() }

func (s *Service) IncImportRows(ok bool) {
	if ok {
		s.ImportRowsOK.Inc()
	} else {
		s.ImportRowsFailed.Inc()
	}
}

func (s *Service) ObserveResolutionDuration(seconds float64) {
	s.ResolutionDuration.Observe(seconds)
}
