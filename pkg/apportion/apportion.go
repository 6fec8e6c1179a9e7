package apportion

import (
	"errors"
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/ramstk/reliability-allocator/pkg/goal"
	"github.com/ramstk/reliability-allocator/pkg/hierarchy"
)

var (
	// ErrNoIncludedChildren is returned when there is nothing to apportion among.
	ErrNoIncludedChildren = errors.New("no included children")
	// ErrUnknownMethod is returned for a method outside the supported set.
	ErrUnknownMethod = errors.New("unknown allocation method")
)

// Apportioner divides a parent goal among the parent's included children.
type Apportioner interface {
	// Apportion returns one share per child, in the order of children.
	Apportion(parent hierarchy.Node, children []hierarchy.Node, g goal.Goal) (*Result, error)
}

// Method is an enumeration of the apportionment methods.
type Method int

// enumeration of Method
const (
	Equal Method = iota + 1
	AGREE
	ARINC
	FeasibilityOfObjectives
)

// String returns the canonical name of the method.
func (m Method) String() string {
	switch m {
	case Equal:
		return "Equal"
	case AGREE:
		return "AGREE"
	case ARINC:
		return "ARINC"
	case FeasibilityOfObjectives:
		return "FeasibilityOfObjectives"
	default:
		return fmt.Sprintf("Method(%d)", int(m))
	}
}

// ParseMethod parses a method name, case-insensitively. "foo" and
// "feasibility-of-objectives" are accepted for FeasibilityOfObjectives.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "equal":
		return Equal, nil
	case "agree":
		return AGREE, nil
	case "arinc":
		return ARINC, nil
	case "feasibilityofobjectives", "feasibility-of-objectives", "feasibility_of_objectives", "foo":
		return FeasibilityOfObjectives, nil
	default:
		return 0, fmt.Errorf("%q: %w", s, ErrUnknownMethod)
	}
}

// BaselineFunc returns the hazard rate ARINC weights a child by.
type BaselineFunc func(child hierarchy.Node) (float64, error)

// Config holds optional settings for the apportioners.
type Config struct {
	// ARINCBaseline overrides the child's own current hazard rate as the ARINC
	// weighting baseline, e.g. with the rolled-up hazard rate of its subtree.
	ARINCBaseline BaselineFunc
}

// New is a factory that creates the Apportioner for the given method. cfg may be nil.
func New(method Method, cfg *Config) (Apportioner, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	switch method {
	case Equal:
		return &EqualApportioner{}, nil
	case AGREE:
		return &AGREEApportioner{}, nil
	case ARINC:
		return NewARINCApportioner(cfg.ARINCBaseline), nil
	case FeasibilityOfObjectives:
		return &FeasibilityApportioner{}, nil
	default:
		return nil, fmt.Errorf("%v: %w", method, ErrUnknownMethod)
	}
}

// Share is the allocation of one child.
type Share struct {
	NodeID hierarchy.ID
	// NSubSystems is the redundancy count the share was computed with.
	NSubSystems int
	hierarchy.Allocation
}

// Result is the outcome of one apportionment.
type Result struct {
	// Requested is the method the caller asked for.
	Requested Method
	// Applied is the method actually used; it differs from Requested only when ARINC
	// fell back to Equal for lack of current hazard rate data.
	Applied Method
	Shares  []Share
}

// Fallback reports whether the applied method differs from the requested one.
func (r *Result) Fallback() bool {
	return r.Requested != r.Applied
}

// Total returns the hazard rate the shares add up to at the parent: the plain sum of
// allocated hazard rates, or for AGREE the sum weighted by each position's redundancy
// count.
func (r *Result) Total() float64 {
	rates := make([]float64, len(r.Shares))
	for i, s := range r.Shares {
		rates[i] = s.HazardRate
	}
	if r.Applied != AGREE {
		return floats.Sum(rates)
	}
	units := make([]float64, len(r.Shares))
	for i, s := range r.Shares {
		units[i] = float64(s.NSubSystems)
	}
	return floats.Dot(rates, units)
}

// newShare derives the MTBF, reliability and availability of a child from its
// allocated hazard rate, using the child's own mission time and MTTR.
func newShare(child hierarchy.Node, weight, percent, hazardRate float64) (Share, error) {
	reliability, mtbf, err := goal.FromHazardRate(hazardRate, child.Attributes.MissionTime)
	if err != nil {
		return Share{}, fmt.Errorf("node %d: %w", child.ID, err)
	}
	return Share{
		NodeID:      child.ID,
		NSubSystems: child.Attributes.NSubSystems,
		Allocation: hierarchy.Allocation{
			WeightFactor:        weight,
			PercentWeightFactor: percent,
			HazardRate:          hazardRate,
			MTBF:                mtbf,
			Reliability:         reliability,
			Availability:        goal.Availability(mtbf, child.Attributes.MTTR),
		},
	}, nil
}

// weighted apportions g by the given weights: percent_i = w_i / Σw and
// λ_i = λ_goal * percent_i / divisor_i.
func weighted(method Method, children []hierarchy.Node, g goal.Goal, weights []float64, divisor func(hierarchy.Node) float64) (*Result, error) {
	total := floats.Sum(weights)
	if !(total > 0) {
		return nil, fmt.Errorf("%v weight factors sum to %g: %w", method, total, goal.ErrValueOutOfRange)
	}
	result := &Result{Requested: method, Applied: method, Shares: make([]Share, len(children))}
	for i, child := range children {
		percent := weights[i] / total
		share, err := newShare(child, weights[i], percent, g.HazardRate*percent/divisor(child))
		if err != nil {
			return nil, err
		}
		result.Shares[i] = share
	}
	return result, nil
}

func one(hierarchy.Node) float64 { return 1 }
