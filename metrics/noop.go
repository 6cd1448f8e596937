package metrics

// Noop satisfies Recorder without registering anything; used in tests and
// tools that do not expose a scrape endpoint.
type Noop struct{}

var _ Recorder = Noop{}

func (Noop) IncMatchesResolved() {}

func (Noop) IncDraws() {}

func (Noop) IncStandingsUpdates() {}

func (Noop) IncAdvancements() {}

func (Noop) IncImportRows(bool) {}

func (Noop) ObserveResolutionDuration(float64) {}
