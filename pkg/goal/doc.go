// Package goal converts between the three equivalent statements of a reliability
// requirement under the constant-failure-rate (exponential) model:
//
//   - Reliability R over a mission of length t
//   - Hazard rate λ (failures per unit time)
//   - Mean time between failures MTBF
//
// The relations are R = exp(-λt) and MTBF = 1/λ. A hazard rate of zero is legal and
// maps to R = 1 and an MTBF of InfiniteMTBF.
//
// Example usage:
//
//	// A 1000 h MTBF requirement over a 100 h mission
//	g, err := goal.NewGoal(goal.MTBF, 1000, 100)
//	if err != nil {
//	    return err
//	}
//	// g.HazardRate == 0.001, g.Reliability ≈ 0.9048
package goal
