// Package optdiff decides whether edited query options differ meaningfully
// from a baseline.
package optdiff

import (
	"bytes"
	"reflect"

	json "github.com/goccy/go-json"
	"github.com/leapstack-labs/leapquery/pkg/core"
)

// transientKeys never take part in comparisons.
var transientKeys = []string{core.OptionArrayValuesChanged}

// Strip returns a copy of opts without transient bookkeeping keys.
func Strip(opts core.Options) core.Options {
	out := opts.Clone()
	for _, k := range transientKeys {
		delete(out, k)
	}
	return out
}

// HeadersChanged reports whether a list-of-pairs editor flagged an edit that
// may not be visible structurally (for example reordering empty rows).
func HeadersChanged(opts core.Options) bool {
	v, _ := opts[core.OptionArrayValuesChanged].(bool)
	return v
}

// IsDirty reports whether current differs from baseline once transient keys
// are stripped. For the REST API kind a headers change always counts as an
// edit.
func IsDirty(current, baseline core.Options, kind string, headersChanged bool) bool {
	if !Equal(Strip(current), Strip(baseline)) {
		return true
	}
	return kind == core.KindRestAPI && headersChanged
}

// Equal compares two JSON-shaped values structurally. Values are compared in
// their canonical JSON encoding (sorted keys), so 1 and 1.0 are equal and a
// nil map equals an empty one.
func Equal(a, b any) bool {
	ab, errA := canonical(a)
	bb, errB := canonical(b)
	if errA != nil || errB != nil {
		return reflect.DeepEqual(a, b)
	}
	return bytes.Equal(ab, bb)
}

func canonical(v any) ([]byte, error) {
	if o, ok := v.(core.Options); ok && o == nil {
		v = core.Options{}
	}
	return json.Marshal(v)
}
