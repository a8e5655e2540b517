package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// ActionKind identifies a filter action.
type ActionKind string

const (
	// ActionKeep keeps the series and terminates filter processing for it.
	ActionKeep ActionKind = "keep"

	// ActionDrop removes the series from the output and terminates filter
	// processing for it.
	ActionDrop ActionKind = "drop"

	// ActionReduceTimeResolution allows the emitted value of the series to
	// change at most once per resolution interval. Between permitted
	// updates the previously emitted value is re-served.
	ActionReduceTimeResolution ActionKind = "reduce_time_resolution"
)

// ActionConfig is one entry in a filter rule's action list.
//
// In YAML an action is either a bare string:
//
//	actions: [keep]
//	actions: [drop]
//
// or, for reduce_time_resolution, a mapping carrying the resolution:
//
//	actions:
//	  - reduce_time_resolution:
//	      resolution: 5m
type ActionConfig struct {
	// Kind is the action to apply.
	Kind ActionKind

	// Resolution is the minimum interval between emitted value changes.
	// Only meaningful for reduce_time_resolution, where it is required.
	Resolution time.Duration
}

// UnmarshalYAML decodes the two accepted YAML shapes for an action.
func (a *ActionConfig) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		switch ActionKind(s) {
		case ActionKeep, ActionDrop:
			a.Kind = ActionKind(s)
			return nil
		case ActionReduceTimeResolution:
			return fmt.Errorf("action %q requires a resolution, e.g. {%s: {resolution: 5m}}",
				s, ActionReduceTimeResolution)
		default:
			return fmt.Errorf("unknown filter action %q", s)
		}

	case yaml.MappingNode:
		var m struct {
			ReduceTimeResolution *struct {
				Resolution time.Duration `yaml:"resolution"`
			} `yaml:"reduce_time_resolution"`
		}
		if err := value.Decode(&m); err != nil {
			return err
		}
		if m.ReduceTimeResolution == nil {
			return fmt.Errorf("unknown filter action mapping (line %d)", value.Line)
		}
		if m.ReduceTimeResolution.Resolution <= 0 {
			return fmt.Errorf("%s requires a positive resolution", ActionReduceTimeResolution)
		}
		a.Kind = ActionReduceTimeResolution
		a.Resolution = m.ReduceTimeResolution.Resolution
		return nil

	default:
		return fmt.Errorf("filter action must be a string or a mapping (line %d)", value.Line)
	}
}
