package apportion

import (
	"github.com/ramstk/reliability-allocator/pkg/goal"
	"github.com/ramstk/reliability-allocator/pkg/hierarchy"
)

// AGREEApportioner weights children by part count times relative operating time.
// The budget of a redundant position is split across its units, so each unit of a
// position with n_sub_systems > 1 receives a proportionally smaller hazard rate.
type AGREEApportioner struct{}

// Apportion computes w_i = n_sub_elements_i * operating_time_factor_i and
// λ_i = λ_goal * (w_i / Σw) / n_sub_systems_i.
func (a *AGREEApportioner) Apportion(_ hierarchy.Node, children []hierarchy.Node, g goal.Goal) (*Result, error) {
	if len(children) == 0 {
		return nil, ErrNoIncludedChildren
	}
	weights := make([]float64, len(children))
	for i, child := range children {
		weights[i] = float64(child.Attributes.NSubElements) * float64(child.Attributes.OperatingTimeFactor)
	}
	return weighted(AGREE, children, g, weights, func(child hierarchy.Node) float64 {
		return float64(child.Attributes.NSubSystems)
	})
}
