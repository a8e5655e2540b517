package proxy

import (
	"bytes"
	"fmt"
	"sort"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

// textFormat is the exposition format snapshots are re-served in.
var textFormat = expfmt.NewFormat(expfmt.TypeTextPlain)

// ContentType returns the Content-Type for serialized snapshots.
func ContentType() string {
	return string(textFormat)
}

// serialize encodes a snapshot as a text exposition document. Families are
// written in name order so identical snapshots produce identical bytes.
func serialize(families map[string]*dto.MetricFamily) ([]byte, error) {
	names := make([]string, 0, len(families))
	for name := range families {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	encoder := expfmt.NewEncoder(&buf, textFormat)
	for _, name := range names {
		if err := encoder.Encode(families[name]); err != nil {
			return nil, fmt.Errorf("cannot encode metric family %s: %w", name, err)
		}
	}
	return buf.Bytes(), nil
}
