package apportion

import (
	"github.com/ramstk/reliability-allocator/pkg/goal"
	"github.com/ramstk/reliability-allocator/pkg/hierarchy"
)

// EqualApportioner gives every included child the same share of the parent goal,
// ignoring all per-child attributes.
type EqualApportioner struct{}

// Apportion allocates λ_goal / n to each of the n children.
func (a *EqualApportioner) Apportion(_ hierarchy.Node, children []hierarchy.Node, g goal.Goal) (*Result, error) {
	if len(children) == 0 {
		return nil, ErrNoIncludedChildren
	}
	n := float64(len(children))
	result := &Result{Requested: Equal, Applied: Equal, Shares: make([]Share, len(children))}
	for i, child := range children {
		share, err := newShare(child, 1, 1/n, g.HazardRate/n)
		if err != nil {
			return nil, err
		}
		result.Shares[i] = share
	}
	return result, nil
}
