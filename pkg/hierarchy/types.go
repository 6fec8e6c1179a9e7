// Package hierarchy holds the hardware structure that reliability goals are apportioned
// over: an arena of nodes addressed by integer ID, each with a parent pointer and an
// ordered list of child IDs.
//
// Each group of node fields has exactly one writer:
//   - Attributes are written by hierarchy storage (Insert, SetAttributes)
//   - Current metrics are written by the external prediction engine (SetCurrent)
//   - Allocation outputs are written by the allocator (CommitAllocations, ClearAllocations)
package hierarchy

import (
	"errors"
	"fmt"

	"github.com/ramstk/reliability-allocator/pkg/goal"
)

var (
	// ErrCyclicHierarchy is returned when an insert would make a node its own ancestor.
	ErrCyclicHierarchy = errors.New("cyclic hierarchy")
	// ErrNodeNotFound is returned when an ID does not address a node in the model.
	ErrNodeNotFound = errors.New("node not found")
	// ErrDuplicateNode is returned when inserting an ID that already exists elsewhere.
	ErrDuplicateNode = errors.New("duplicate node")
	// ErrInvalidID is returned when inserting a node whose ID is reserved by the model.
	ErrInvalidID = errors.New("invalid node ID")
)

// ID addresses a node in a Model.
type ID int

// NoParent is the parent ID of a root node.
const NoParent ID = -1

// Factor bounds for the Feasibility-of-Objectives ratings.
const (
	MinFactor = 1
	MaxFactor = 10
)

// Attributes are the allocation inputs of a node, owned by hierarchy storage.
type Attributes struct {
	Name string
	// Included marks the node as participating in its parent's allocation.
	Included bool
	// NSubSystems is the redundancy count of the position (>= 1).
	NSubSystems int
	// NSubElements is the part count of the item (>= 0).
	NSubElements int
	// MissionTime is the mission length the item's reliability is stated over (> 0).
	MissionTime float64
	// DutyCycle is the fraction of the mission the item operates (0-1).
	DutyCycle float64
	// MTTR is the mean time to repair, used to derive allocated availability (>= 0).
	MTTR float64

	Intricacy           int
	StateOfArt          int
	OperatingTimeFactor int
	EnvironmentFactor   int
}

// DefaultAttributes returns the attributes of a freshly created hardware item.
func DefaultAttributes() Attributes {
	return Attributes{
		Included:            true,
		NSubSystems:         1,
		NSubElements:        1,
		MissionTime:         100,
		DutyCycle:           1,
		Intricacy:           1,
		StateOfArt:          1,
		OperatingTimeFactor: 1,
		EnvironmentFactor:   1,
	}
}

// Validate checks the attributes against their documented ranges.
func (a Attributes) Validate() error {
	if a.NSubSystems < 1 {
		return fmt.Errorf("n_sub_systems must be >= 1, got %d: %w", a.NSubSystems, goal.ErrValueOutOfRange)
	}
	if a.NSubElements < 0 {
		return fmt.Errorf("n_sub_elements must be >= 0, got %d: %w", a.NSubElements, goal.ErrValueOutOfRange)
	}
	if !(a.MissionTime > 0) {
		return fmt.Errorf("mission time must be > 0, got %g: %w", a.MissionTime, goal.ErrInvalidMissionTime)
	}
	if !(a.DutyCycle >= 0 && a.DutyCycle <= 1) {
		return fmt.Errorf("duty cycle must be between 0 and 1, got %g: %w", a.DutyCycle, goal.ErrValueOutOfRange)
	}
	if !(a.MTTR >= 0) {
		return fmt.Errorf("MTTR must be >= 0, got %g: %w", a.MTTR, goal.ErrValueOutOfRange)
	}
	factors := []struct {
		name  string
		value int
	}{
		{"intricacy", a.Intricacy},
		{"state_of_art", a.StateOfArt},
		{"environment_factor", a.EnvironmentFactor},
	}
	for _, f := range factors {
		if f.value < MinFactor || f.value > MaxFactor {
			return fmt.Errorf("%s must be between %d and %d, got %d: %w",
				f.name, MinFactor, MaxFactor, f.value, goal.ErrValueOutOfRange)
		}
	}
	// AGREE reads the operating time factor as relative operating hours, so it is
	// only bounded below.
	if a.OperatingTimeFactor < MinFactor {
		return fmt.Errorf("operating_time_factor must be >= %d, got %d: %w",
			MinFactor, a.OperatingTimeFactor, goal.ErrValueOutOfRange)
	}
	return nil
}

// Metrics are the current figures supplied by the prediction engine.
type Metrics struct {
	HazardRate   float64
	MTBF         float64
	Reliability  float64
	Availability float64
}

// Allocation are the outputs written by the allocator.
type Allocation struct {
	WeightFactor        float64
	PercentWeightFactor float64
	HazardRate          float64
	MTBF                float64
	Reliability         float64
	Availability        float64
}

// Node is a hardware item. Values returned by the Model are copies.
type Node struct {
	ID         ID
	ParentID   ID
	ChildIDs   []ID
	Attributes Attributes
	Current    Metrics
	Allocated  Allocation
}

// IsRoot reports whether the node has no parent.
func (n Node) IsRoot() bool {
	return n.ParentID == NoParent
}
