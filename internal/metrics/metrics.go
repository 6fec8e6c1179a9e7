/*
Copyright 2025 The RAMSTK Allocator Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package metrics exposes Prometheus collectors for allocation runs.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ramstk/reliability-allocator/pkg/allocator"
	"github.com/ramstk/reliability-allocator/pkg/apportion"
)

const namespace = "reliability_allocator"

// Outcome label values.
const (
	OutcomeSuccess            = "success"
	OutcomeNoIncludedChildren = "no_included_children"
	OutcomeInconsistent       = "inconsistent"
	OutcomeInvalidState       = "invalid_state"
	OutcomeDepthExceeded      = "depth_exceeded"
	OutcomeError              = "error"
)

// Metrics records allocator activity. It implements allocator.Recorder.
type Metrics struct {
	allocations  *prometheus.CounterVec
	fallbacks    prometheus.Counter
	trickleDowns *prometheus.CounterVec
	trickleSize  prometheus.Histogram
}

var _ allocator.Recorder = (*Metrics)(nil)

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		allocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "allocations_total",
			Help:      "Allocation runs by requested method, applied method and outcome.",
		}, []string{"method", "applied", "outcome"}),
		fallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "arinc_fallbacks_total",
			Help:      "ARINC allocations that fell back to equal apportionment for lack of current hazard rate data.",
		}),
		trickleDowns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trickle_downs_total",
			Help:      "Trickle-down runs by outcome.",
		}, []string{"outcome"}),
		trickleSize: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "trickle_down_allocations",
			Help:      "Number of subordinate allocations performed by a successful trickle-down.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		}),
	}
	for _, c := range []prometheus.Collector{m.allocations, m.fallbacks, m.trickleDowns, m.trickleSize} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// RecordAllocation counts one Allocate call.
func (m *Metrics) RecordAllocation(requested, applied apportion.Method, err error) {
	appliedLabel := ""
	if err == nil {
		appliedLabel = applied.String()
		if requested != applied {
			m.fallbacks.Inc()
		}
	}
	m.allocations.WithLabelValues(requested.String(), appliedLabel, Outcome(err)).Inc()
}

// RecordTrickleDown counts one TrickleDown call; allocations is the number of
// subordinate allocations it performed.
func (m *Metrics) RecordTrickleDown(allocations int, err error) {
	m.trickleDowns.WithLabelValues(Outcome(err)).Inc()
	if err == nil {
		m.trickleSize.Observe(float64(allocations))
	}
}

// Outcome classifies err into an outcome label value.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, apportion.ErrNoIncludedChildren):
		return OutcomeNoIncludedChildren
	case errors.Is(err, allocator.ErrAllocationInconsistent):
		return OutcomeInconsistent
	case errors.Is(err, allocator.ErrInvalidState):
		return OutcomeInvalidState
	case errors.Is(err, allocator.ErrDepthExceeded):
		return OutcomeDepthExceeded
	default:
		return OutcomeError
	}
}
