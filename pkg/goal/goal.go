package goal

import (
	"fmt"
	"strings"
)

// Measure identifies which of the three goal values is user-driven.
type Measure int

// enumeration of Measure
const (
	Reliability Measure = iota + 1
	HazardRate
	MTBF
)

// String returns the canonical name of the measure.
func (m Measure) String() string {
	switch m {
	case Reliability:
		return "Reliability"
	case HazardRate:
		return "HazardRate"
	case MTBF:
		return "MTBF"
	default:
		return fmt.Sprintf("Measure(%d)", int(m))
	}
}

// ParseMeasure parses a measure name, case-insensitively. "hazard-rate", "hazard_rate"
// and "failure-rate" are accepted as aliases of HazardRate.
func ParseMeasure(s string) (Measure, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "reliability", "r":
		return Reliability, nil
	case "hazardrate", "hazard-rate", "hazard_rate", "failure-rate", "lambda":
		return HazardRate, nil
	case "mtbf":
		return MTBF, nil
	default:
		return 0, fmt.Errorf("unknown goal measure %q: %w", s, ErrInvalidGoal)
	}
}

// Goal is a reliability requirement stated in all three measures. Exactly one of the
// values is user-driven (Measure); the other two are derived from it.
type Goal struct {
	Measure     Measure
	MissionTime float64
	Reliability float64
	HazardRate  float64
	MTBF        float64
}

// NewGoal validates value as the given measure over mission time t and derives the
// other two measures.
func NewGoal(measure Measure, value, t float64) (Goal, error) {
	g := Goal{Measure: measure, MissionTime: t}
	var err error
	switch measure {
	case Reliability:
		g.Reliability = value
		g.HazardRate, g.MTBF, err = FromReliability(value, t)
	case HazardRate:
		g.HazardRate = value
		g.Reliability, g.MTBF, err = FromHazardRate(value, t)
	case MTBF:
		g.MTBF = value
		g.HazardRate, g.Reliability, err = FromMTBF(value, t)
	default:
		return Goal{}, fmt.Errorf("unsupported goal measure %v: %w", measure, ErrInvalidGoal)
	}
	if err != nil {
		return Goal{}, err
	}
	return g, nil
}

// Value returns the user-driven value of the goal.
func (g Goal) Value() float64 {
	switch g.Measure {
	case Reliability:
		return g.Reliability
	case HazardRate:
		return g.HazardRate
	case MTBF:
		return g.MTBF
	default:
		return 0
	}
}
