// Package apportion implements the reliability apportionment methods that divide a
// parent's hazard-rate goal among its included children.
//
// Methods:
//
//   - Equal: every child receives the same share of the goal
//   - AGREE: shares weighted by part count times relative operating time, divided
//     across redundant units of a position
//   - ARINC: shares proportional to each child's current hazard rate
//   - Feasibility of Objectives: shares weighted by the product of subjective
//     intricacy, state-of-the-art, operating time and environment ratings
//
// Every method returns one Share per child carrying the weight factors and the
// allocated hazard rate, MTBF, reliability and availability. Apportioners are pure:
// the same inputs always give bit-identical results.
//
// Example usage:
//
//	a, err := apportion.New(apportion.AGREE, nil)
//	if err != nil {
//	    return err
//	}
//	result, err := a.Apportion(parent, children, g)
package apportion
