package goal

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidGoal is returned when a goal cannot be interpreted, e.g. an unknown measure.
	ErrInvalidGoal = errors.New("invalid goal")
	// ErrValueOutOfRange is returned for a reliability, hazard rate, MTBF or attribute
	// outside its legal range.
	ErrValueOutOfRange = errors.New("value out of range")
	// ErrInvalidMissionTime is returned when the mission time is not strictly positive.
	ErrInvalidMissionTime = errors.New("invalid mission time")
)

// InfiniteMTBF is the MTBF of an item with a zero hazard rate.
var InfiniteMTBF = math.Inf(1)

// FromReliability returns the hazard rate and MTBF equivalent to reliability r over
// mission time t.
func FromReliability(r, t float64) (hazardRate, mtbf float64, err error) {
	if err := checkMissionTime(t); err != nil {
		return 0, 0, err
	}
	if math.IsNaN(r) || r <= 0 || r > 1 {
		return 0, 0, fmt.Errorf("reliability must be in (0, 1], got %g: %w", r, ErrValueOutOfRange)
	}
	hazardRate = -math.Log(r) / t
	// -log(1) is -0; normalize so callers never see a negative zero
	if hazardRate == 0 {
		hazardRate = 0
	}
	return hazardRate, HazardRateToMTBF(hazardRate), nil
}

// FromHazardRate returns the reliability over mission time t and the MTBF equivalent
// to hazard rate h.
func FromHazardRate(h, t float64) (reliability, mtbf float64, err error) {
	if err := checkMissionTime(t); err != nil {
		return 0, 0, err
	}
	if math.IsNaN(h) || math.IsInf(h, 0) || h < 0 {
		return 0, 0, fmt.Errorf("hazard rate must be >= 0, got %g: %w", h, ErrValueOutOfRange)
	}
	return math.Exp(-h * t), HazardRateToMTBF(h), nil
}

// FromMTBF returns the hazard rate and the reliability over mission time t equivalent
// to MTBF m. An infinite MTBF is accepted and yields a zero hazard rate.
func FromMTBF(m, t float64) (hazardRate, reliability float64, err error) {
	if err := checkMissionTime(t); err != nil {
		return 0, 0, err
	}
	if math.IsNaN(m) || m <= 0 {
		return 0, 0, fmt.Errorf("MTBF must be > 0, got %g: %w", m, ErrValueOutOfRange)
	}
	hazardRate = 1 / m
	return hazardRate, math.Exp(-t / m), nil
}

// HazardRateToMTBF returns 1/h, or InfiniteMTBF when h is zero.
func HazardRateToMTBF(h float64) float64 {
	if h == 0 {
		return InfiniteMTBF
	}
	return 1 / h
}

// Availability returns the inherent availability MTBF/(MTBF+MTTR).
// An item that is never repaired (mttr == 0) or never fails is fully available.
func Availability(mtbf, mttr float64) float64 {
	if mttr <= 0 || math.IsInf(mtbf, 1) {
		return 1
	}
	if mtbf <= 0 {
		return 0
	}
	return mtbf / (mtbf + mttr)
}

func checkMissionTime(t float64) error {
	if math.IsNaN(t) || math.IsInf(t, 0) || t <= 0 {
		return fmt.Errorf("mission time must be > 0, got %g: %w", t, ErrInvalidMissionTime)
	}
	return nil
}
