package labelfilter

import (
	"sync"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/model"
)

// State holds the per-series bookkeeping that ReduceTimeResolution needs:
// for every series fingerprint, the metric last emitted to a client and the
// time it was recorded. State is route-scoped; routes never share it.
//
// All methods are safe for concurrent use. Locks are held only for the
// single check-and-update step, never across a backend fetch.
type State struct {
	mu     sync.Mutex
	series map[model.Fingerprint]*seriesState
}

// seriesState tracks one logical series.
type seriesState struct {
	// lastEmitted is the metric most recently forwarded to a client.
	lastEmitted *dto.Metric

	// lastChange is when lastEmitted was recorded.
	lastChange time.Time

	// lastSeen is when the series last appeared in a scrape; used by Sweep.
	lastSeen time.Time
}

// NewState returns an empty state table.
func NewState() *State {
	return &State{series: make(map[model.Fingerprint]*seriesState)}
}

// fingerprint identifies a series by metric name plus full label set.
func fingerprint(familyName string, m *dto.Metric) model.Fingerprint {
	metric := make(model.Metric, len(m.GetLabel())+1)
	metric[model.MetricNameLabel] = model.LabelValue(familyName)
	for _, lp := range m.GetLabel() {
		metric[model.LabelName(lp.GetName())] = model.LabelValue(lp.GetValue())
	}
	return metric.Fingerprint()
}

// reduce applies the ReduceTimeResolution bookkeeping for one series and
// returns the metric to emit. If no prior emission exists, or at least
// resolution has elapsed since the last recorded emission, the live metric
// is recorded and passed through; otherwise the previously emitted metric
// is substituted and the live value discarded.
func (s *State) reduce(familyName string, live *dto.Metric, resolution time.Duration, now time.Time) *dto.Metric {
	fp := fingerprint(familyName, live)

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.series[fp]
	if !ok || now.Sub(entry.lastChange) >= resolution {
		s.series[fp] = &seriesState{
			lastEmitted: live,
			lastChange:  now,
			lastSeen:    now,
		}
		return live
	}

	entry.lastSeen = now
	return entry.lastEmitted
}

// Len returns the number of tracked series.
func (s *State) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.series)
}

// Sweep removes series that have not appeared in a scrape for at least
// retention, and returns how many were removed. Series that stop being
// scraped would otherwise keep their state forever.
func (s *State) Sweep(retention time.Duration, now time.Time) int {
	cutoff := now.Add(-retention)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for fp, entry := range s.series {
		if entry.lastSeen.Before(cutoff) {
			delete(s.series, fp)
			removed++
		}
	}
	return removed
}
