package labelfilter

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/model"
)

// MetricNameLabel is the pseudo label that resolves to the metric name when
// listed in a rule's source labels.
const MetricNameLabel = model.MetricNameLabel

// ActionKind identifies what an Action does to a matched series.
type ActionKind int

const (
	// Keep passes the series through and terminates processing for it.
	Keep ActionKind = iota

	// Drop removes the series and terminates processing for it.
	Drop

	// ReduceTimeResolution allows the emitted value of the series to change
	// at most once per resolution; between permitted updates the last
	// emitted value is re-served in place of the live one.
	ReduceTimeResolution
)

// String returns the configuration-file spelling of the action kind.
func (k ActionKind) String() string {
	switch k {
	case Keep:
		return "keep"
	case Drop:
		return "drop"
	case ReduceTimeResolution:
		return "reduce_time_resolution"
	default:
		return fmt.Sprintf("ActionKind(%d)", int(k))
	}
}

// Action is one step in a rule's action list.
type Action struct {
	Kind ActionKind

	// Resolution is the minimum interval between emitted value changes.
	// Only used when Kind is ReduceTimeResolution.
	Resolution time.Duration
}

// Rule matches series by concatenated label values and applies an ordered
// action list. Rules are immutable once compiled.
type Rule struct {
	sourceLabels []string
	separator    string
	pattern      *regexp.Regexp
	actions      []Action
}

// NewRule compiles a filter rule. The pattern is anchored at both ends
// before compilation (wrapped as ^(?:pattern)$), so a match key must match
// the whole pattern; a partial substring match is never sufficient.
func NewRule(sourceLabels []string, separator, pattern string, actions []Action) (Rule, error) {
	if len(sourceLabels) == 0 {
		sourceLabels = []string{MetricNameLabel}
	}

	re, err := regexp.Compile("^(?:" + pattern + ")$")
	if err != nil {
		return Rule{}, fmt.Errorf("invalid filter pattern %q: %w", pattern, err)
	}

	for _, a := range actions {
		if a.Kind == ReduceTimeResolution && a.Resolution <= 0 {
			return Rule{}, fmt.Errorf("reduce_time_resolution requires a positive resolution")
		}
	}

	return Rule{
		sourceLabels: sourceLabels,
		separator:    separator,
		pattern:      re,
		actions:      actions,
	}, nil
}

// matchKey concatenates the sample's values for the rule's source labels,
// in order, joined by the rule's separator. A missing label contributes the
// empty string.
func (r Rule) matchKey(familyName string, m *dto.Metric) string {
	values := make([]string, len(r.sourceLabels))
	for i, name := range r.sourceLabels {
		if name == MetricNameLabel {
			values[i] = familyName
			continue
		}
		for _, lp := range m.GetLabel() {
			if lp.GetName() == name {
				values[i] = lp.GetValue()
				break
			}
		}
	}
	return strings.Join(values, r.separator)
}

// matches reports whether the sample's match key fully matches the rule's
// anchored pattern.
func (r Rule) matches(familyName string, m *dto.Metric) bool {
	return r.pattern.MatchString(r.matchKey(familyName, m))
}
