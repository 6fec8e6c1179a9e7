// Package allocator orchestrates reliability allocation over a hierarchy.Model.
//
// For every parent under allocation the Allocator keeps an allocation goal (method,
// user-driven measure and the three consistent goal values) and moves it through the
// states
//
//	Idle → MethodSelected → GoalSet → Allocated → TrickledDown
//
// SetMethod and SetGoal record inputs and discard any previous outputs. Allocate
// dispatches to the method's apportion.Apportioner over the included children, checks
// that the children's allocated hazard rates add back up to the parent goal, and only
// then writes the outputs. TrickleDown turns each child's allocation into that child's
// own goal and repeats the process level by level.
//
// Every mutating call is all-or-nothing: on error the model and goals are left exactly
// as before the call. The Allocator does no locking; callers serialize calls that touch
// overlapping subtrees.
//
// Example usage:
//
//	a, err := allocator.New(model, &allocator.Config{Logger: logger})
//	if err != nil {
//	    return err
//	}
//	if err := a.SetMethod(systemID, apportion.AGREE); err != nil {
//	    return err
//	}
//	if err := a.SetGoal(systemID, goal.MTBF, 1000); err != nil {
//	    return err
//	}
//	if _, err := a.Allocate(systemID); err != nil {
//	    return err
//	}
//	result, err := a.TrickleDown(systemID, 0)
package allocator
