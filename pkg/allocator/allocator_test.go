package allocator

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/ramstk/reliability-allocator/internal/logging/logtest"
	"github.com/ramstk/reliability-allocator/pkg/apportion"
	"github.com/ramstk/reliability-allocator/pkg/goal"
	"github.com/ramstk/reliability-allocator/pkg/hierarchy"
)

const (
	systemID hierarchy.ID = 1
)

func hardware(id hierarchy.ID, mutate func(*hierarchy.Attributes)) hierarchy.Node {
	attrs := hierarchy.DefaultAttributes()
	if mutate != nil {
		mutate(&attrs)
	}
	return hierarchy.Node{ID: id, Attributes: attrs}
}

// agreeSystem builds a system with three assemblies of 2, 3 and 5 parts.
func agreeSystem() *hierarchy.Model {
	m := hierarchy.NewModel()
	Expect(m.Insert(hardware(systemID, nil), hierarchy.NoParent)).To(Succeed())
	for i, parts := range []int{2, 3, 5} {
		node := hardware(hierarchy.ID(10+i), func(a *hierarchy.Attributes) {
			a.NSubElements = parts
			a.OperatingTimeFactor = 100
		})
		Expect(m.Insert(node, systemID)).To(Succeed())
	}
	return m
}

func allocated(m *hierarchy.Model, id hierarchy.ID) hierarchy.Allocation {
	n, err := m.Get(id)
	Expect(err).NotTo(HaveOccurred())
	return n.Allocated
}

// brokenApportioner returns shares that do not add up to the goal.
type brokenApportioner struct{}

func (brokenApportioner) Apportion(_ hierarchy.Node, children []hierarchy.Node, g goal.Goal) (*apportion.Result, error) {
	r := &apportion.Result{Requested: apportion.Equal, Applied: apportion.Equal}
	for _, c := range children {
		r.Shares = append(r.Shares, apportion.Share{
			NodeID:      c.ID,
			NSubSystems: 1,
			Allocation:  hierarchy.Allocation{HazardRate: g.HazardRate},
		})
	}
	return r, nil
}

type recorded struct {
	requested, applied apportion.Method
	err                error
}

type fakeRecorder struct {
	allocations []recorded
	trickles    []int
}

func (f *fakeRecorder) RecordAllocation(requested, applied apportion.Method, err error) {
	f.allocations = append(f.allocations, recorded{requested, applied, err})
}

func (f *fakeRecorder) RecordTrickleDown(n int, err error) {
	if err == nil {
		f.trickles = append(f.trickles, n)
	}
}

var _ = Describe("New", func() {
	It("should reject a nil model or config", func() {
		_, err := New(nil, &Config{})
		Expect(err).To(HaveOccurred())
		_, err = New(hierarchy.NewModel(), nil)
		Expect(err).To(HaveOccurred())
	})

	It("should fill defaults", func() {
		a, err := New(hierarchy.NewModel(), &Config{})
		Expect(err).NotTo(HaveOccurred())
		Expect(a.config.Tolerance).To(Equal(DefaultTolerance))
		Expect(a.config.MaxDepth).To(Equal(DefaultMaxDepth))
		Expect(a.config.DefaultMethod).To(Equal(apportion.Equal))
	})

	It("should reject an unknown default method", func() {
		_, err := New(hierarchy.NewModel(), &Config{DefaultMethod: apportion.Method(99)})
		Expect(err).To(MatchError(apportion.ErrUnknownMethod))
	})
})

var _ = Describe("Allocator", func() {
	var (
		model    *hierarchy.Model
		alloc    *Allocator
		recorder *fakeRecorder
	)

	BeforeEach(func() {
		model = agreeSystem()
		recorder = &fakeRecorder{}
		var err error
		alloc, err = New(model, &Config{Logger: logtest.New(), Recorder: recorder})
		Expect(err).NotTo(HaveOccurred())
	})

	Context("state machine", func() {
		It("should start Idle", func() {
			Expect(alloc.State(systemID)).To(Equal(Idle))
		})

		It("should move through MethodSelected, GoalSet and Allocated", func() {
			Expect(alloc.SetMethod(systemID, apportion.AGREE)).To(Succeed())
			Expect(alloc.State(systemID)).To(Equal(MethodSelected))

			Expect(alloc.SetGoal(systemID, goal.MTBF, 1000)).To(Succeed())
			Expect(alloc.State(systemID)).To(Equal(GoalSet))

			_, err := alloc.Allocate(systemID)
			Expect(err).NotTo(HaveOccurred())
			Expect(alloc.State(systemID)).To(Equal(Allocated))
		})

		It("should refuse to allocate without a goal", func() {
			Expect(alloc.SetMethod(systemID, apportion.AGREE)).To(Succeed())
			_, err := alloc.Allocate(systemID)
			Expect(err).To(MatchError(ErrInvalidState))
			Expect(recorder.allocations).To(HaveLen(1))
			Expect(recorder.allocations[0].requested).To(Equal(apportion.AGREE))
		})

		It("should apply the default method to a goal set on an Idle node", func() {
			Expect(alloc.SetGoal(systemID, goal.HazardRate, 0.003)).To(Succeed())
			m, ok := alloc.Method(systemID)
			Expect(ok).To(BeTrue())
			Expect(m).To(Equal(apportion.Equal))

			_, err := alloc.Allocate(systemID)
			Expect(err).NotTo(HaveOccurred())
			Expect(allocated(model, 10).HazardRate).To(BeNumerically("~", 0.001, 1e-15))
		})

		It("should reject unknown nodes and methods without creating state", func() {
			Expect(alloc.SetMethod(99, apportion.AGREE)).To(MatchError(hierarchy.ErrNodeNotFound))
			Expect(alloc.SetMethod(systemID, apportion.Method(42))).To(MatchError(apportion.ErrUnknownMethod))
			Expect(alloc.State(systemID)).To(Equal(Idle))
		})
	})

	Context("goals", func() {
		It("should derive all three measures from an MTBF goal", func() {
			Expect(alloc.SetGoal(systemID, goal.MTBF, 1000)).To(Succeed())
			g, ok := alloc.Goal(systemID)
			Expect(ok).To(BeTrue())
			Expect(g.Measure).To(Equal(goal.MTBF))
			Expect(g.HazardRate).To(BeNumerically("~", 0.001, 1e-15))
			Expect(g.Reliability).To(BeNumerically("~", 0.9048, 1e-4))
		})

		It("should re-derive the other measures on every call", func() {
			Expect(alloc.SetGoal(systemID, goal.MTBF, 1000)).To(Succeed())
			Expect(alloc.SetGoal(systemID, goal.Reliability, 0.99)).To(Succeed())
			g, _ := alloc.Goal(systemID)
			Expect(g.Measure).To(Equal(goal.Reliability))
			Expect(g.HazardRate).To(BeNumerically("~", -math.Log(0.99)/100, 1e-15))
			Expect(g.MTBF).To(BeNumerically("~", 1/g.HazardRate, 1e-9))
		})

		It("should reject an invalid value and keep the previous goal", func() {
			Expect(alloc.SetGoal(systemID, goal.MTBF, 1000)).To(Succeed())
			Expect(alloc.SetGoal(systemID, goal.Reliability, 0)).To(MatchError(goal.ErrValueOutOfRange))
			Expect(alloc.SetGoal(systemID, goal.Measure(9), 1)).To(MatchError(goal.ErrInvalidGoal))
			g, _ := alloc.Goal(systemID)
			Expect(g.MTBF).To(Equal(1000.0))
			Expect(alloc.State(systemID)).To(Equal(GoalSet))
		})

		It("should re-derive the goal over a new mission time", func() {
			Expect(alloc.SetGoal(systemID, goal.Reliability, 0.9)).To(Succeed())

			root, err := model.Get(systemID)
			Expect(err).NotTo(HaveOccurred())
			root.Attributes.MissionTime = 200
			Expect(model.SetAttributes(systemID, root.Attributes)).To(Succeed())

			g, _ := alloc.Goal(systemID)
			Expect(g.Measure).To(Equal(goal.Reliability))
			Expect(g.Reliability).To(Equal(0.9))
			Expect(g.MissionTime).To(Equal(200.0))
			Expect(g.HazardRate).To(BeNumerically("~", -math.Log(0.9)/200, 1e-15))
			Expect(alloc.State(systemID)).To(Equal(GoalSet))
		})
	})

	Context("AGREE scenario", func() {
		BeforeEach(func() {
			Expect(alloc.SetMethod(systemID, apportion.AGREE)).To(Succeed())
			Expect(alloc.SetGoal(systemID, goal.MTBF, 1000)).To(Succeed())
		})

		It("should allocate by part count and operating time", func() {
			result, err := alloc.Allocate(systemID)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Shares).To(HaveLen(3))

			wantWeights := []float64{200, 300, 500}
			wantPercents := []float64{0.2, 0.3, 0.5}
			wantRates := []float64{0.0002, 0.0003, 0.0005}
			var sum float64
			for i, id := range []hierarchy.ID{10, 11, 12} {
				out := allocated(model, id)
				Expect(out.WeightFactor).To(Equal(wantWeights[i]))
				Expect(out.PercentWeightFactor).To(BeNumerically("~", wantPercents[i], 1e-15))
				Expect(out.HazardRate).To(BeNumerically("~", wantRates[i], 1e-15))
				Expect(out.MTBF).To(BeNumerically("~", 1/wantRates[i], 1e-6))
				sum += out.HazardRate
			}
			Expect(sum).To(BeNumerically("~", 0.001, 1e-15))
			Expect(recorder.allocations).To(ContainElement(recorded{apportion.AGREE, apportion.AGREE, nil}))
		})

		It("should be idempotent", func() {
			first, err := alloc.Allocate(systemID)
			Expect(err).NotTo(HaveOccurred())
			before := []hierarchy.Allocation{allocated(model, 10), allocated(model, 11), allocated(model, 12)}

			second, err := alloc.Allocate(systemID)
			Expect(err).NotTo(HaveOccurred())
			Expect(second).To(Equal(first))
			after := []hierarchy.Allocation{allocated(model, 10), allocated(model, 11), allocated(model, 12)}
			Expect(after).To(Equal(before))
		})

		It("should clear outputs when the method changes", func() {
			_, err := alloc.Allocate(systemID)
			Expect(err).NotTo(HaveOccurred())

			Expect(alloc.SetMethod(systemID, apportion.FeasibilityOfObjectives)).To(Succeed())
			Expect(alloc.State(systemID)).To(Equal(GoalSet))
			Expect(allocated(model, 11)).To(Equal(hierarchy.Allocation{}))
			_, ok := alloc.Result(systemID)
			Expect(ok).To(BeFalse())
		})

		It("should clear outputs when the goal changes", func() {
			_, err := alloc.Allocate(systemID)
			Expect(err).NotTo(HaveOccurred())

			Expect(alloc.SetGoal(systemID, goal.MTBF, 2000)).To(Succeed())
			Expect(allocated(model, 10)).To(Equal(hierarchy.Allocation{}))
		})

		It("should clear outputs when a child's inputs change", func() {
			_, err := alloc.Allocate(systemID)
			Expect(err).NotTo(HaveOccurred())

			child, err := model.Get(12)
			Expect(err).NotTo(HaveOccurred())
			child.Attributes.NSubElements = 15
			Expect(model.SetAttributes(12, child.Attributes)).To(Succeed())

			Expect(alloc.State(systemID)).To(Equal(GoalSet))
			for _, id := range []hierarchy.ID{10, 11, 12} {
				Expect(allocated(model, id)).To(Equal(hierarchy.Allocation{}))
			}

			_, err = alloc.Allocate(systemID)
			Expect(err).NotTo(HaveOccurred())
			Expect(allocated(model, 12).PercentWeightFactor).To(BeNumerically("~", 0.75, 1e-15))
		})

		It("should clear outputs when a child's current metrics change", func() {
			_, err := alloc.Allocate(systemID)
			Expect(err).NotTo(HaveOccurred())
			Expect(model.SetCurrent(10, hierarchy.Metrics{HazardRate: 0.5})).To(Succeed())
			Expect(alloc.State(systemID)).To(Equal(GoalSet))
			Expect(allocated(model, 10)).To(Equal(hierarchy.Allocation{}))
		})

		It("should restate the goal and clear outputs when the node's mission time changes", func() {
			_, err := alloc.Allocate(systemID)
			Expect(err).NotTo(HaveOccurred())

			root, _ := model.Get(systemID)
			root.Attributes.MissionTime = 50
			Expect(model.SetAttributes(systemID, root.Attributes)).To(Succeed())

			Expect(alloc.State(systemID)).To(Equal(GoalSet))
			_, ok := alloc.Result(systemID)
			Expect(ok).To(BeFalse())
			for _, id := range []hierarchy.ID{10, 11, 12} {
				Expect(allocated(model, id)).To(Equal(hierarchy.Allocation{}))
			}
			g, _ := alloc.Goal(systemID)
			Expect(g.MTBF).To(Equal(1000.0))
			Expect(g.MissionTime).To(Equal(50.0))
			Expect(g.Reliability).To(BeNumerically("~", math.Exp(-0.05), 1e-15))

			_, err = alloc.Allocate(systemID)
			Expect(err).NotTo(HaveOccurred())
			Expect(allocated(model, 12).HazardRate).To(BeNumerically("~", 0.0005, 1e-15))
		})

		It("should keep outputs when a node's attributes change without touching the mission time", func() {
			_, err := alloc.Allocate(systemID)
			Expect(err).NotTo(HaveOccurred())

			root, _ := model.Get(systemID)
			root.Attributes.Name = "radar"
			Expect(model.SetAttributes(systemID, root.Attributes)).To(Succeed())

			Expect(alloc.State(systemID)).To(Equal(Allocated))
			Expect(allocated(model, 12).HazardRate).To(BeNumerically("~", 0.0005, 1e-15))
		})

		It("should clear the output of a child excluded between allocations", func() {
			_, err := alloc.Allocate(systemID)
			Expect(err).NotTo(HaveOccurred())

			child, _ := model.Get(11)
			child.Attributes.Included = false
			Expect(model.SetAttributes(11, child.Attributes)).To(Succeed())

			result, err := alloc.Allocate(systemID)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Shares).To(HaveLen(2))
			Expect(allocated(model, 11)).To(Equal(hierarchy.Allocation{}))
			Expect(allocated(model, 10).HazardRate + allocated(model, 12).HazardRate).
				To(BeNumerically("~", 0.001, 1e-15))
		})
	})

	Context("redundancy", func() {
		It("should satisfy the redundancy-weighted sum under AGREE", func() {
			child, _ := model.Get(11)
			child.Attributes.NSubSystems = 3
			Expect(model.SetAttributes(11, child.Attributes)).To(Succeed())

			Expect(alloc.SetMethod(systemID, apportion.AGREE)).To(Succeed())
			Expect(alloc.SetGoal(systemID, goal.HazardRate, 0.001)).To(Succeed())
			_, err := alloc.Allocate(systemID)
			Expect(err).NotTo(HaveOccurred())

			total := allocated(model, 10).HazardRate + 3*allocated(model, 11).HazardRate + allocated(model, 12).HazardRate
			Expect(total).To(BeNumerically("~", 0.001, 1e-12))
		})
	})

	Context("ARINC", func() {
		BeforeEach(func() {
			Expect(alloc.SetMethod(systemID, apportion.ARINC)).To(Succeed())
			Expect(alloc.SetGoal(systemID, goal.HazardRate, 0.004)).To(Succeed())
		})

		It("should fall back to equal apportionment without current data", func() {
			result, err := alloc.Allocate(systemID)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Method).To(Equal(apportion.ARINC))
			Expect(result.Applied).To(Equal(apportion.Equal))
			Expect(allocated(model, 10).HazardRate).To(BeNumerically("~", 0.004/3, 1e-15))
			Expect(recorder.allocations).To(ContainElement(recorded{apportion.ARINC, apportion.Equal, nil}))
		})

		It("should use rolled-up current hazard rates when configured", func() {
			agg, err := New(model, &Config{ARINCUseAggregate: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(model.Insert(hardware(20, nil), 10)).To(Succeed())
			Expect(model.Insert(hardware(21, nil), 10)).To(Succeed())
			Expect(model.SetCurrent(20, hierarchy.Metrics{HazardRate: 0.002})).To(Succeed())
			Expect(model.SetCurrent(21, hierarchy.Metrics{HazardRate: 0.002})).To(Succeed())
			Expect(model.SetCurrent(11, hierarchy.Metrics{HazardRate: 0.004})).To(Succeed())

			Expect(agg.SetMethod(systemID, apportion.ARINC)).To(Succeed())
			Expect(agg.SetGoal(systemID, goal.HazardRate, 0.004)).To(Succeed())
			_, err = agg.Allocate(systemID)
			Expect(err).NotTo(HaveOccurred())
			Expect(allocated(model, 10).HazardRate).To(BeNumerically("~", 0.002, 1e-15))
			Expect(allocated(model, 11).HazardRate).To(BeNumerically("~", 0.002, 1e-15))
			Expect(allocated(model, 12).HazardRate).To(BeNumerically("~", 0, 1e-15))
		})
	})

	Context("ARINC with rolled-up current hazard rates", func() {
		var agg *Allocator

		BeforeEach(func() {
			var err error
			agg, err = New(model, &Config{ARINCUseAggregate: true, Logger: logtest.New()})
			Expect(err).NotTo(HaveOccurred())
			for _, leaf := range []struct{ id, parent hierarchy.ID }{{20, 10}, {21, 11}} {
				Expect(model.Insert(hardware(leaf.id, nil), leaf.parent)).To(Succeed())
				Expect(model.SetCurrent(leaf.id, hierarchy.Metrics{HazardRate: 1})).To(Succeed())
			}
			child, _ := model.Get(12)
			child.Attributes.Included = false
			Expect(model.SetAttributes(12, child.Attributes)).To(Succeed())

			Expect(agg.SetMethod(systemID, apportion.ARINC)).To(Succeed())
			Expect(agg.SetGoal(systemID, goal.HazardRate, 0.001)).To(Succeed())
			_, err = agg.Allocate(systemID)
			Expect(err).NotTo(HaveOccurred())
			Expect(allocated(model, 10).HazardRate).To(BeNumerically("~", 0.0005, 1e-15))
		})

		It("should clear outputs when a grandchild's current metrics change", func() {
			Expect(model.SetCurrent(20, hierarchy.Metrics{HazardRate: 3})).To(Succeed())

			Expect(agg.State(systemID)).To(Equal(GoalSet))
			Expect(allocated(model, 10)).To(Equal(hierarchy.Allocation{}))
			Expect(allocated(model, 11)).To(Equal(hierarchy.Allocation{}))

			_, err := agg.Allocate(systemID)
			Expect(err).NotTo(HaveOccurred())
			Expect(allocated(model, 10).HazardRate).To(BeNumerically("~", 0.00075, 1e-15))
			Expect(allocated(model, 11).HazardRate).To(BeNumerically("~", 0.00025, 1e-15))
		})

		It("should clear outputs when a grandchild is added", func() {
			leaf := hardware(22, nil)
			leaf.Current.HazardRate = 2
			Expect(model.Insert(leaf, 11)).To(Succeed())

			Expect(agg.State(systemID)).To(Equal(GoalSet))
			_, err := agg.Allocate(systemID)
			Expect(err).NotTo(HaveOccurred())
			Expect(allocated(model, 11).HazardRate).To(BeNumerically("~", 0.00075, 1e-15))
		})

		It("should leave allocations on a node's own figures alone", func() {
			Expect(model.SetCurrent(10, hierarchy.Metrics{HazardRate: 0.001})).To(Succeed())
			Expect(model.SetCurrent(11, hierarchy.Metrics{HazardRate: 0.001})).To(Succeed())
			Expect(alloc.SetMethod(systemID, apportion.ARINC)).To(Succeed())
			Expect(alloc.SetGoal(systemID, goal.HazardRate, 0.002)).To(Succeed())
			_, err := alloc.Allocate(systemID)
			Expect(err).NotTo(HaveOccurred())

			Expect(model.SetCurrent(20, hierarchy.Metrics{HazardRate: 3})).To(Succeed())
			Expect(alloc.State(systemID)).To(Equal(Allocated))
			Expect(allocated(model, 10).HazardRate).To(BeNumerically("~", 0.001, 1e-15))
		})
	})

	Context("failures", func() {
		It("should report no included children and leave the model untouched", func() {
			Expect(alloc.SetGoal(10, goal.HazardRate, 0.001)).To(Succeed())
			_, err := alloc.Allocate(10)
			Expect(err).To(MatchError(apportion.ErrNoIncludedChildren))
			Expect(alloc.State(10)).To(Equal(GoalSet))
		})

		It("should never commit an inconsistent allocation", func() {
			alloc.newApportioner = func(apportion.Method, *apportion.Config) (apportion.Apportioner, error) {
				return brokenApportioner{}, nil
			}
			Expect(alloc.SetGoal(systemID, goal.HazardRate, 0.003)).To(Succeed())
			_, err := alloc.Allocate(systemID)
			Expect(err).To(MatchError(ErrAllocationInconsistent))
			var inconsistency *InconsistencyError
			Expect(err).To(BeAssignableToTypeOf(inconsistency))
			Expect(err.(*InconsistencyError).Total).To(BeNumerically("~", 0.009, 1e-15))

			Expect(alloc.State(systemID)).To(Equal(GoalSet))
			for _, id := range []hierarchy.ID{10, 11, 12} {
				Expect(allocated(model, id)).To(Equal(hierarchy.Allocation{}))
			}
		})
	})
})
