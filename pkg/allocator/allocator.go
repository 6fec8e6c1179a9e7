package allocator

import (
	"fmt"
	"math"

	"github.com/go-logr/logr"
	"gonum.org/v1/gonum/floats/scalar"

	"github.com/ramstk/reliability-allocator/internal/logging"
	"github.com/ramstk/reliability-allocator/pkg/apportion"
	"github.com/ramstk/reliability-allocator/pkg/goal"
	"github.com/ramstk/reliability-allocator/pkg/hierarchy"
)

const (
	// DefaultTolerance is the relative tolerance of the parent/children consistency check.
	DefaultTolerance = 1e-9
	// DefaultMaxDepth is the trickle-down depth limit used when the caller gives none.
	DefaultMaxDepth = 64
	// DefaultMethod is applied to nodes that receive a goal before a method.
	DefaultMethod = apportion.Equal
)

// Config holds configuration for the Allocator. Zero fields take their defaults.
type Config struct {
	Tolerance     float64
	MaxDepth      int
	DefaultMethod apportion.Method
	// ARINCUseAggregate weights ARINC allocations by each child's rolled-up current
	// hazard rate instead of its own figure.
	ARINCUseAggregate bool
	Logger            logr.Logger
	Recorder          Recorder
}

// Allocator apportions goals over a hierarchy.Model. It is the only writer of the
// model's allocation outputs.
type Allocator struct {
	model   *hierarchy.Model
	config  Config
	records map[hierarchy.ID]*record

	newApportioner func(apportion.Method, *apportion.Config) (apportion.Apportioner, error)
}

// New creates an Allocator over model and subscribes it to the model's invalidation
// notifications.
func New(model *hierarchy.Model, config *Config) (*Allocator, error) {
	if model == nil {
		return nil, fmt.Errorf("model cannot be nil")
	}
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	cfg := *config
	if cfg.Tolerance == 0 {
		cfg.Tolerance = DefaultTolerance
	}
	if cfg.Tolerance < 0 || math.IsNaN(cfg.Tolerance) {
		return nil, fmt.Errorf("tolerance must be > 0, got %g", cfg.Tolerance)
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultMaxDepth
	}
	if cfg.DefaultMethod == 0 {
		cfg.DefaultMethod = DefaultMethod
	}
	if _, err := apportion.New(cfg.DefaultMethod, nil); err != nil {
		return nil, fmt.Errorf("default method: %w", err)
	}
	if cfg.Logger.GetSink() == nil {
		cfg.Logger = logr.Discard()
	}
	if cfg.Recorder == nil {
		cfg.Recorder = noopRecorder{}
	}

	a := &Allocator{
		model:          model,
		config:         cfg,
		records:        make(map[hierarchy.ID]*record),
		newApportioner: apportion.New,
	}
	model.AddInvalidationHandler(a.invalidate)
	return a, nil
}

// State returns the allocation state of id; nodes never touched are Idle.
func (a *Allocator) State(id hierarchy.ID) State {
	if rec, ok := a.records[id]; ok {
		return rec.state
	}
	return Idle
}

// Method returns the method selected for id.
func (a *Allocator) Method(id hierarchy.ID) (apportion.Method, bool) {
	rec, ok := a.records[id]
	if !ok || !rec.hasMethod {
		return 0, false
	}
	return rec.method, true
}

// Goal returns the goal set on id.
func (a *Allocator) Goal(id hierarchy.ID) (goal.Goal, bool) {
	rec, ok := a.records[id]
	if !ok || !rec.hasGoal {
		return goal.Goal{}, false
	}
	return rec.goal, true
}

// Result returns the latest committed allocation of id, if it is still valid.
func (a *Allocator) Result(id hierarchy.ID) (*Result, bool) {
	rec, ok := a.records[id]
	if !ok || rec.result == nil {
		return nil, false
	}
	return rec.result, true
}

// SetMethod selects the apportionment method of id and discards any allocation made
// with the previous one.
func (a *Allocator) SetMethod(id hierarchy.ID, method apportion.Method) error {
	if _, err := a.model.Get(id); err != nil {
		return err
	}
	if _, err := a.newApportioner(method, nil); err != nil {
		return fmt.Errorf("node %d: %w", id, err)
	}

	rec := a.recordFor(id)
	a.discard(rec)
	rec.method, rec.hasMethod = method, true
	if rec.hasGoal {
		rec.state = GoalSet
	} else {
		rec.state = MethodSelected
	}
	a.config.Logger.V(logging.DEBUG).Info("Allocation method selected", "node", id, "method", method)
	return nil
}

// SetGoal sets the goal of id from a single user-driven value, deriving the other two
// measures over the node's mission time. Any previous allocation is discarded. A node
// without a method gets the configured default method.
func (a *Allocator) SetGoal(id hierarchy.ID, measure goal.Measure, value float64) error {
	node, err := a.model.Get(id)
	if err != nil {
		return err
	}
	g, err := goal.NewGoal(measure, value, node.Attributes.MissionTime)
	if err != nil {
		return fmt.Errorf("node %d: %w", id, err)
	}

	rec := a.recordFor(id)
	a.discard(rec)
	if !rec.hasMethod {
		rec.method, rec.hasMethod = a.config.DefaultMethod, true
	}
	rec.goal, rec.hasGoal = g, true
	rec.state = GoalSet
	a.config.Logger.V(logging.DEBUG).Info("Allocation goal set",
		"node", id,
		"measure", measure,
		"reliability", g.Reliability,
		"hazardRate", g.HazardRate,
		"mtbf", g.MTBF)
	return nil
}

// Allocate apportions the goal of id among its included children and commits the
// outputs. The goal must have been set.
func (a *Allocator) Allocate(id hierarchy.ID) (*Result, error) {
	rec, ok := a.records[id]
	if !ok || rec.state < GoalSet {
		err := fmt.Errorf("allocating node %d in state %v: %w", id, a.State(id), ErrInvalidState)
		a.config.Recorder.RecordAllocation(a.methodOrDefault(id), 0, err)
		return nil, err
	}

	result, err := a.apportion(id, rec)
	if err != nil {
		a.config.Recorder.RecordAllocation(rec.method, 0, err)
		return nil, err
	}

	var stale []hierarchy.ID
	if rec.result != nil {
		current := result.outputs()
		for _, s := range rec.result.Shares {
			if _, ok := current[s.NodeID]; !ok {
				stale = append(stale, s.NodeID)
			}
		}
	}
	if err := a.model.CommitAllocations(result.outputs()); err != nil {
		a.config.Recorder.RecordAllocation(rec.method, 0, err)
		return nil, err
	}
	a.model.ClearAllocations(stale)
	rec.result = result
	rec.state = Allocated

	if result.Applied != result.Method {
		a.config.Logger.Info("No current hazard rate data for ARINC allocation, fell back to equal apportionment",
			"node", id)
	}
	a.config.Logger.V(logging.DEBUG).Info("Allocation committed",
		"node", id,
		"method", result.Applied,
		"children", len(result.Shares),
		"hazardRateGoal", result.Goal.HazardRate)
	a.config.Recorder.RecordAllocation(result.Method, result.Applied, nil)
	return result, nil
}

// apportion runs the node's method and checks the result without touching the model.
func (a *Allocator) apportion(id hierarchy.ID, rec *record) (*Result, error) {
	parent, err := a.model.Get(id)
	if err != nil {
		return nil, err
	}
	children, err := a.model.IncludedChildrenOf(id)
	if err != nil {
		return nil, err
	}
	cfg := &apportion.Config{}
	if a.config.ARINCUseAggregate {
		cfg.ARINCBaseline = func(child hierarchy.Node) (float64, error) {
			return a.model.AggregateCurrent(child.ID)
		}
	}
	apportioner, err := a.newApportioner(rec.method, cfg)
	if err != nil {
		return nil, fmt.Errorf("node %d: %w", id, err)
	}
	res, err := apportioner.Apportion(parent, children, rec.goal)
	if err != nil {
		return nil, fmt.Errorf("allocating node %d with %v: %w", id, rec.method, err)
	}
	if err := a.check(id, rec, children, res); err != nil {
		return nil, err
	}
	return &Result{
		NodeID:  id,
		Method:  rec.method,
		Applied: res.Applied,
		Goal:    rec.goal,
		Shares:  res.Shares,
	}, nil
}

// check verifies that res covers exactly the included children and that their
// allocations add back up to the parent goal.
func (a *Allocator) check(id hierarchy.ID, rec *record, children []hierarchy.Node, res *apportion.Result) error {
	if len(res.Shares) != len(children) {
		return fmt.Errorf("node %d: %d shares for %d included children: %w",
			id, len(res.Shares), len(children), ErrAllocationInconsistent)
	}
	for i, s := range res.Shares {
		if s.NodeID != children[i].ID {
			return fmt.Errorf("node %d: share %d is for node %d, expected %d: %w",
				id, i, s.NodeID, children[i].ID, ErrAllocationInconsistent)
		}
		if math.IsNaN(s.HazardRate) || math.IsInf(s.HazardRate, 0) || s.HazardRate < 0 {
			return fmt.Errorf("node %d: child %d allocated hazard rate %g: %w",
				id, s.NodeID, s.HazardRate, ErrAllocationInconsistent)
		}
	}
	total := res.Total()
	if !scalar.EqualWithinRel(total, rec.goal.HazardRate, a.config.Tolerance) {
		return &InconsistencyError{
			NodeID:    id,
			Method:    res.Applied,
			Goal:      rec.goal.HazardRate,
			Total:     total,
			Tolerance: a.config.Tolerance,
		}
	}
	return nil
}

// invalidate is the model's invalidation handler. Any committed allocation of id is
// stale after the change; a mission time change also re-derives the goal of id from
// its user-driven value.
func (a *Allocator) invalidate(id hierarchy.ID, change hierarchy.Change) {
	rec, ok := a.records[id]
	if !ok {
		return
	}
	switch change {
	case hierarchy.DescendantsChanged:
		// Only the rolled-up ARINC baseline reads below the children.
		if !a.config.ARINCUseAggregate || rec.method != apportion.ARINC {
			return
		}
	case hierarchy.MissionTimeChanged:
		if !rec.hasGoal {
			return
		}
		if err := a.rederive(id, rec); err != nil {
			a.config.Logger.Error(err, "Re-deriving allocation goal failed", "node", id)
		}
	}
	if rec.result == nil {
		return
	}
	a.discard(rec)
	rec.state = GoalSet
	a.config.Logger.V(logging.DEBUG).Info("Allocation inputs changed, outputs cleared", "node", id, "change", change)
}

// rederive restates the goal of id over the node's current mission time.
func (a *Allocator) rederive(id hierarchy.ID, rec *record) error {
	node, err := a.model.Get(id)
	if err != nil {
		return err
	}
	g, err := goal.NewGoal(rec.goal.Measure, rec.goal.Value(), node.Attributes.MissionTime)
	if err != nil {
		return fmt.Errorf("node %d: %w", id, err)
	}
	rec.goal = g
	return nil
}

// discard clears the outputs committed by rec's last allocation.
func (a *Allocator) discard(rec *record) {
	if rec.result == nil {
		return
	}
	ids := make([]hierarchy.ID, len(rec.result.Shares))
	for i, s := range rec.result.Shares {
		ids[i] = s.NodeID
	}
	a.model.ClearAllocations(ids)
	rec.result = nil
}

func (a *Allocator) recordFor(id hierarchy.ID) *record {
	rec, ok := a.records[id]
	if !ok {
		rec = &record{}
		a.records[id] = rec
	}
	return rec
}

func (a *Allocator) methodOrDefault(id hierarchy.ID) apportion.Method {
	if m, ok := a.Method(id); ok {
		return m
	}
	return a.config.DefaultMethod
}

func (r *Result) outputs() map[hierarchy.ID]hierarchy.Allocation {
	out := make(map[hierarchy.ID]hierarchy.Allocation, len(r.Shares))
	for _, s := range r.Shares {
		out[s.NodeID] = s.Allocation
	}
	return out
}
