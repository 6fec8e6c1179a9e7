package apportion

import (
	"github.com/ramstk/reliability-allocator/pkg/goal"
	"github.com/ramstk/reliability-allocator/pkg/hierarchy"
)

// FeasibilityApportioner implements the Feasibility-of-Objectives method: children
// rated harder to make reliable receive a larger part of the failure budget.
type FeasibilityApportioner struct{}

// Apportion computes w_i = intricacy * state_of_art * operating_time * environment
// and λ_i = λ_goal * w_i / Σw.
func (a *FeasibilityApportioner) Apportion(_ hierarchy.Node, children []hierarchy.Node, g goal.Goal) (*Result, error) {
	if len(children) == 0 {
		return nil, ErrNoIncludedChildren
	}
	weights := make([]float64, len(children))
	for i, child := range children {
		attrs := child.Attributes
		weights[i] = float64(attrs.Intricacy) * float64(attrs.StateOfArt) *
			float64(attrs.OperatingTimeFactor) * float64(attrs.EnvironmentFactor)
	}
	return weighted(FeasibilityOfObjectives, children, g, weights, one)
}
