package allocator

import (
	"errors"
	"fmt"

	"github.com/ramstk/reliability-allocator/pkg/apportion"
	"github.com/ramstk/reliability-allocator/pkg/goal"
	"github.com/ramstk/reliability-allocator/pkg/hierarchy"
)

var (
	// ErrAllocationInconsistent is returned when the children's allocations do not add up
	// to the parent goal. It indicates a defect in an apportioner and is never corrected.
	ErrAllocationInconsistent = errors.New("allocation inconsistent with parent goal")
	// ErrInvalidState is returned when an operation is called in a state that does not
	// allow it, e.g. Allocate before a goal is set.
	ErrInvalidState = errors.New("invalid allocation state")
	// ErrDepthExceeded is returned when TrickleDown would descend past its depth limit.
	ErrDepthExceeded = errors.New("trickle-down depth limit exceeded")
)

// State is the allocation state of a node.
type State int

// enumeration of State
const (
	Idle State = iota
	MethodSelected
	GoalSet
	Allocated
	TrickledDown
)

// String returns the name of the state.
func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case MethodSelected:
		return "MethodSelected"
	case GoalSet:
		return "GoalSet"
	case Allocated:
		return "Allocated"
	case TrickledDown:
		return "TrickledDown"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Result describes the allocation of one node's goal among its included children.
type Result struct {
	NodeID hierarchy.ID
	// Method is the method selected for the node.
	Method apportion.Method
	// Applied is the method actually used; see apportion.Result.Applied.
	Applied apportion.Method
	Goal    goal.Goal
	Shares  []apportion.Share
	// Children holds the results of subordinate allocations made by TrickleDown, in
	// child order. Leaf children have no entry.
	Children []*Result
}

// Count returns the number of allocations in the result tree, including r itself.
func (r *Result) Count() int {
	n := 1
	for _, c := range r.Children {
		n += c.Count()
	}
	return n
}

func (r *Result) clone() *Result {
	c := *r
	c.Shares = append([]apportion.Share(nil), r.Shares...)
	c.Children = nil
	return &c
}

// InconsistencyError reports a failed post-condition check of an allocation.
type InconsistencyError struct {
	NodeID    hierarchy.ID
	Method    apportion.Method
	Goal      float64
	Total     float64
	Tolerance float64
}

func (e *InconsistencyError) Error() string {
	return fmt.Sprintf("node %d: %v allocations total %g, goal hazard rate %g (relative tolerance %g)",
		e.NodeID, e.Method, e.Total, e.Goal, e.Tolerance)
}

func (e *InconsistencyError) Unwrap() error {
	return ErrAllocationInconsistent
}

// Recorder observes allocator activity, e.g. to export metrics.
type Recorder interface {
	RecordAllocation(requested, applied apportion.Method, err error)
	RecordTrickleDown(allocations int, err error)
}

type noopRecorder struct{}

func (noopRecorder) RecordAllocation(apportion.Method, apportion.Method, error) {}
func (noopRecorder) RecordTrickleDown(int, error)                             {}

// record is the allocation goal and state of one node.
type record struct {
	method    apportion.Method
	hasMethod bool
	goal      goal.Goal
	hasGoal   bool
	state     State
	result    *Result
}

func (r *record) clone() *record {
	c := *r
	return &c
}
