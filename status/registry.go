// Package status is the metrics facade for the simulation substrate:
// frame/step counters, queue depths, and resource-load gauges are all
// cached-pointer atomics registered once and written to directly from the
// hot path.
package status

import (
	"fmt"
	"sort"
	"sync/atomic"
)

// Registry is the central metrics facade. Callers cache pointers during
// setup; update loops write directly to the atomics thereafter.
type Registry struct {
	Bools   *MetricMap[atomic.Bool]
	Ints    *MetricMap[atomic.Int64]
	Floats  *MetricMap[AtomicFloat]
	Strings *MetricMap[AtomicString]
}

// NewRegistry creates an initialized Registry.
func NewRegistry() *Registry {
	return &Registry{
		Bools:   NewMetricMap[atomic.Bool](),
		Ints:    NewMetricMap[atomic.Int64](),
		Floats:  NewMetricMap[AtomicFloat](),
		Strings: NewMetricMap[AtomicString](),
	}
}

// TotalCount returns the number of registered metrics across all types.
func (r *Registry) TotalCount() int {
	return r.Bools.Count() + r.Ints.Count() + r.Floats.Count() + r.Strings.Count()
}

// Sample is one metric's name and current value, formatted for
// diagnostic printing rather than further computation.
type Sample struct {
	Name  string
	Value string
}

// Snapshot renders every registered metric across all four maps as a
// sorted, deterministic slice of samples — the substrate's equivalent of
// the teacher's per-frame overlay readout, used by host code (cmd/simcli's
// digest output) that wants to print gauges without knowing which map
// each name lives in.
func (r *Registry) Snapshot() []Sample {
	out := make([]Sample, 0, r.TotalCount())
	r.Bools.Range(func(key string, ptr *atomic.Bool) {
		out = append(out, Sample{Name: key, Value: fmt.Sprintf("%t", ptr.Load())})
	})
	r.Ints.Range(func(key string, ptr *atomic.Int64) {
		out = append(out, Sample{Name: key, Value: fmt.Sprintf("%d", ptr.Load())})
	})
	r.Floats.Range(func(key string, ptr *AtomicFloat) {
		out = append(out, Sample{Name: key, Value: fmt.Sprintf("%g", ptr.Get())})
	})
	r.Strings.Range(func(key string, ptr *AtomicString) {
		out = append(out, Sample{Name: key, Value: ptr.Load()})
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
