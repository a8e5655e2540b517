package labelfilter

import (
	"time"

	dto "github.com/prometheus/client_model/go"
)

// Apply runs the ordered rule list over a scraped snapshot and returns the
// filtered snapshot. The input map is not modified. State carries the
// per-series bookkeeping for ReduceTimeResolution and must be the same
// object across requests for a given route; now is the wall-clock time the
// reduction decisions are evaluated against.
//
// Per sample, rules are tried in order. A rule whose anchored pattern does
// not match the sample's key is skipped. A matching rule's actions run in
// order: Keep and Drop terminate processing for the sample; after
// ReduceTimeResolution processing continues with later actions and rules.
// A sample that exhausts all rules without a terminating action is kept.
//
// Families whose samples are all dropped are omitted from the output; type
// and help text of surviving families are preserved.
func Apply(families map[string]*dto.MetricFamily, rules []Rule, state *State, now time.Time) map[string]*dto.MetricFamily {
	out := make(map[string]*dto.MetricFamily, len(families))

	for name, family := range families {
		var kept []*dto.Metric
		for _, m := range family.GetMetric() {
			if emit, ok := evaluate(name, m, rules, state, now); ok {
				kept = append(kept, emit)
			}
		}
		if len(kept) == 0 {
			continue
		}
		out[name] = &dto.MetricFamily{
			Name:   family.Name,
			Help:   family.Help,
			Type:   family.Type,
			Unit:   family.Unit,
			Metric: kept,
		}
	}

	return out
}

// evaluate decides the fate of a single sample: the metric to emit (possibly
// a substituted earlier emission) and whether it survives at all.
func evaluate(familyName string, live *dto.Metric, rules []Rule, state *State, now time.Time) (*dto.Metric, bool) {
	emit := live

	for _, rule := range rules {
		if !rule.matches(familyName, live) {
			continue
		}
		for _, action := range rule.actions {
			switch action.Kind {
			case Keep:
				return emit, true
			case Drop:
				return nil, false
			case ReduceTimeResolution:
				emit = state.reduce(familyName, live, action.Resolution, now)
			}
		}
	}

	return emit, true
}
