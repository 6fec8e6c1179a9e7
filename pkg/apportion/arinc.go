package apportion

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/ramstk/reliability-allocator/pkg/goal"
	"github.com/ramstk/reliability-allocator/pkg/hierarchy"
)

// ARINCApportioner keeps the existing relative failure-rate profile of the children
// and scales it to the new goal. With no current hazard rate data at all it falls back
// to an equal apportionment and says so in the result.
type ARINCApportioner struct {
	baseline BaselineFunc
}

// NewARINCApportioner returns an ARINC apportioner weighting children by baseline, or
// by their own current hazard rate when baseline is nil.
func NewARINCApportioner(baseline BaselineFunc) *ARINCApportioner {
	if baseline == nil {
		baseline = currentHazardRate
	}
	return &ARINCApportioner{baseline: baseline}
}

// Apportion computes w_i = λcurrent_i / Σλcurrent and λ_i = λ_goal * w_i.
func (a *ARINCApportioner) Apportion(parent hierarchy.Node, children []hierarchy.Node, g goal.Goal) (*Result, error) {
	if len(children) == 0 {
		return nil, ErrNoIncludedChildren
	}
	rates := make([]float64, len(children))
	for i, child := range children {
		rate, err := a.baseline(child)
		if err != nil {
			return nil, fmt.Errorf("ARINC baseline for node %d: %w", child.ID, err)
		}
		if rate < 0 {
			return nil, fmt.Errorf("ARINC baseline for node %d is %g: %w", child.ID, rate, goal.ErrValueOutOfRange)
		}
		rates[i] = rate
	}

	total := floats.Sum(rates)
	if total == 0 {
		result, err := (&EqualApportioner{}).Apportion(parent, children, g)
		if err != nil {
			return nil, err
		}
		result.Requested = ARINC
		return result, nil
	}

	result := &Result{Requested: ARINC, Applied: ARINC, Shares: make([]Share, len(children))}
	for i, child := range children {
		weight := rates[i] / total
		share, err := newShare(child, weight, weight, g.HazardRate*weight)
		if err != nil {
			return nil, err
		}
		result.Shares[i] = share
	}
	return result, nil
}

func currentHazardRate(child hierarchy.Node) (float64, error) {
	return child.Current.HazardRate, nil
}
