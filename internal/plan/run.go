package plan

import (
	"fmt"
	"time"

	"github.com/go-logr/logr"
	"k8s.io/apimachinery/pkg/api/meta"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/ramstk/reliability-allocator/api/v1alpha1"
	"github.com/ramstk/reliability-allocator/internal/logging"
	"github.com/ramstk/reliability-allocator/pkg/allocator"
	"github.com/ramstk/reliability-allocator/pkg/apportion"
	"github.com/ramstk/reliability-allocator/pkg/goal"
	"github.com/ramstk/reliability-allocator/pkg/hierarchy"
)

// Runner runs the allocation requests of plans.
type Runner struct {
	config allocator.Config
	now    func() time.Time
}

// NewRunner returns a Runner creating its allocators with config.
func NewRunner(config *allocator.Config) (*Runner, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	r := &Runner{config: *config, now: time.Now}
	if r.config.Logger.GetSink() == nil {
		r.config.Logger = logr.Discard()
	}
	return r, nil
}

// Run builds the plan's hierarchy, runs its allocation requests in order and writes
// the outcome to p.Status. Requests after a failed one are not run; the results of
// the earlier ones are kept. The returned error is the one recorded in the Allocated
// condition.
func (r *Runner) Run(p *v1alpha1.AllocationPlan) error {
	logger := r.config.Logger
	now := metav1.NewTime(r.now())
	p.Status.LastRunTime = now
	p.Status.Results = nil

	model, err := Build(p)
	if err != nil {
		r.setCondition(p, now, v1alpha1.ReasonInvalidPlan, err)
		return err
	}
	alloc, err := allocator.New(model, &r.config)
	if err != nil {
		r.setCondition(p, now, v1alpha1.ReasonInvalidPlan, err)
		return err
	}

	logger.Info("Running allocation plan", "plan", p.Name, "items", model.Len(), "requests", len(p.Spec.Allocations))
	for i, req := range p.Spec.Allocations {
		if err := r.runRequest(alloc, req); err != nil {
			err = fmt.Errorf("allocations[%d]: %w", i, err)
			p.Status.Results = results(model, alloc)
			r.setCondition(p, now, v1alpha1.ReasonAllocationFailed, err)
			return err
		}
		logger.V(logging.DEBUG).Info("Allocation request done", "plan", p.Name, "request", i, "node", req.NodeID)
	}
	p.Status.Results = results(model, alloc)
	r.setCondition(p, now, v1alpha1.ReasonAllocationSucceeded, nil)
	return nil
}

func (r *Runner) runRequest(alloc *allocator.Allocator, req v1alpha1.AllocationRequest) error {
	id := hierarchy.ID(req.NodeID)
	if req.Method != "" {
		method, err := apportion.ParseMethod(req.Method)
		if err != nil {
			return err
		}
		if err := alloc.SetMethod(id, method); err != nil {
			return err
		}
	}
	measure, err := goal.ParseMeasure(req.Measure)
	if err != nil {
		return err
	}
	if err := alloc.SetGoal(id, measure, req.Value); err != nil {
		return err
	}
	if _, err := alloc.Allocate(id); err != nil {
		return err
	}
	if req.TrickleDown {
		if _, err := alloc.TrickleDown(id, req.MaxDepth); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) setCondition(p *v1alpha1.AllocationPlan, now metav1.Time, reason string, err error) {
	cond := metav1.Condition{
		Type:               v1alpha1.TypeAllocated,
		Status:             metav1.ConditionTrue,
		Reason:             reason,
		Message:            "All allocation requests succeeded",
		LastTransitionTime: now,
		ObservedGeneration: p.Generation,
	}
	if err != nil {
		cond.Status = metav1.ConditionFalse
		cond.Message = err.Error()
	}
	meta.SetStatusCondition(&p.Status.Conditions, cond)
}

// results lists every node whose parent holds a valid allocation, parents first.
func results(model *hierarchy.Model, alloc *allocator.Allocator) []v1alpha1.NodeResult {
	var out []v1alpha1.NodeResult
	for _, root := range model.Roots() {
		_ = model.Walk(root, func(n hierarchy.Node) error {
			if n.IsRoot() {
				return nil
			}
			parent, ok := alloc.Result(n.ParentID)
			if !ok || !allocatedBy(parent, n.ID) {
				return nil
			}
			res := v1alpha1.NodeResult{
				NodeID:              int(n.ID),
				ParentID:            int(n.ParentID),
				Name:                n.Attributes.Name,
				Method:              parent.Applied.String(),
				WeightFactor:        n.Allocated.WeightFactor,
				PercentWeightFactor: n.Allocated.PercentWeightFactor,
				HazardRate:          n.Allocated.HazardRate,
				MTBF:                formatMTBF(n.Allocated.MTBF),
				Reliability:         n.Allocated.Reliability,
				Availability:        n.Allocated.Availability,
			}
			if g, ok := alloc.Goal(n.ID); ok {
				res.Goal = &v1alpha1.NodeGoal{
					Measure:     measureName(g.Measure),
					Reliability: g.Reliability,
					HazardRate:  g.HazardRate,
					MTBF:        formatMTBF(g.MTBF),
				}
			}
			out = append(out, res)
			return nil
		})
	}
	return out
}

func allocatedBy(r *allocator.Result, id hierarchy.ID) bool {
	for _, s := range r.Shares {
		if s.NodeID == id {
			return true
		}
	}
	return false
}
