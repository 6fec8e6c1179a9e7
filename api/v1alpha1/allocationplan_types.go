package v1alpha1

import (
	"errors"
	"fmt"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// Kind is the kind of an allocation plan document.
const Kind = "AllocationPlan"

// AllocationPlanSpec describes a hardware hierarchy and the allocations to run on it.
type AllocationPlanSpec struct {
	// Hardware lists the items of the hierarchy. A parent must be listed before its
	// children; sibling order is the allocation order.
	// +kubebuilder:validation:MinItems=1
	Hardware []HardwareItem `json:"hardware"`

	// Allocations are run in order. A later request may override goals set on a node by
	// an earlier trickle-down.
	// +optional
	Allocations []AllocationRequest `json:"allocations,omitempty"`
}

// HardwareItem is one node of the hierarchy with its allocation inputs.
// Zero-valued inputs take the defaults of a new hardware item.
type HardwareItem struct {
	// ID identifies the item within the plan.
	// +kubebuilder:validation:Minimum=0
	ID int `json:"id"`

	// ParentID is the ID of the parent item; omitted for a root.
	// +optional
	ParentID *int `json:"parentID,omitempty"`

	// +optional
	Name string `json:"name,omitempty"`

	// Included marks the item as taking part in its parent's allocation. Defaults to true.
	// +optional
	Included *bool `json:"included,omitempty"`

	// NSubSystems is the redundancy count of the position. Defaults to 1.
	// +kubebuilder:validation:Minimum=1
	// +optional
	NSubSystems int `json:"nSubSystems,omitempty"`

	// NSubElements is the part count of the item. Defaults to 1.
	// +kubebuilder:validation:Minimum=0
	// +optional
	NSubElements *int `json:"nSubElements,omitempty"`

	// MissionTime is the mission length in hours. Defaults to 100.
	// +optional
	MissionTime float64 `json:"missionTime,omitempty"`

	// DutyCycle is the operating fraction of the mission. Defaults to 1.
	// +optional
	DutyCycle *float64 `json:"dutyCycle,omitempty"`

	// MTTR is the mean time to repair in hours.
	// +optional
	MTTR float64 `json:"mttr,omitempty"`

	// Feasibility-of-Objectives ratings (1-10) and, for AGREE, the operating time factor.
	// Each defaults to 1.
	// +optional
	Factors Factors `json:"factors,omitempty"`

	// Current holds the figures predicted for the item, used by ARINC.
	// +optional
	Current CurrentMetrics `json:"current,omitempty"`
}

// Factors are the rating factors of a hardware item.
type Factors struct {
	// +kubebuilder:validation:Minimum=1
	// +kubebuilder:validation:Maximum=10
	// +optional
	Intricacy int `json:"intricacy,omitempty"`
	// +kubebuilder:validation:Minimum=1
	// +kubebuilder:validation:Maximum=10
	// +optional
	StateOfArt int `json:"stateOfArt,omitempty"`
	// +kubebuilder:validation:Minimum=1
	// +optional
	OperatingTime int `json:"operatingTime,omitempty"`
	// +kubebuilder:validation:Minimum=1
	// +kubebuilder:validation:Maximum=10
	// +optional
	Environment int `json:"environment,omitempty"`
}

// CurrentMetrics are the current figures of a hardware item.
type CurrentMetrics struct {
	// +kubebuilder:validation:Minimum=0
	// +optional
	HazardRate float64 `json:"hazardRate,omitempty"`
	// +optional
	MTBF float64 `json:"mtbf,omitempty"`
	// +optional
	Reliability float64 `json:"reliability,omitempty"`
	// +optional
	Availability float64 `json:"availability,omitempty"`
}

// AllocationRequest sets a goal on a node and allocates it.
type AllocationRequest struct {
	// NodeID is the hardware item whose goal is allocated among its children.
	NodeID int `json:"nodeID"`

	// Method is the apportionment method: equal, agree, arinc or foo.
	// Defaults to the configured default method.
	// +optional
	Method string `json:"method,omitempty"`

	// Measure names the goal value: reliability, hazardRate or mtbf.
	// +kubebuilder:validation:Enum=reliability;hazardRate;mtbf
	Measure string `json:"measure"`

	// Value is the goal in the unit of Measure.
	Value float64 `json:"value"`

	// TrickleDown pushes the allocated goals on through every level below NodeID.
	// +optional
	TrickleDown bool `json:"trickleDown,omitempty"`

	// MaxDepth limits the trickle-down; 0 uses the configured limit.
	// +kubebuilder:validation:Minimum=0
	// +optional
	MaxDepth int `json:"maxDepth,omitempty"`
}

// AllocationPlanStatus holds the outcome of running a plan.
type AllocationPlanStatus struct {
	// LastRunTime is the time the plan was last run.
	// +optional
	LastRunTime metav1.Time `json:"lastRunTime,omitempty"`

	// Results holds one entry per hardware item with an allocation, in plan order.
	// +optional
	Results []NodeResult `json:"results,omitempty"`

	// Conditions represent the latest available observations of the plan's state.
	// +optional
	// +listType=map
	// +listMapKey=type
	Conditions []metav1.Condition `json:"conditions,omitempty" patchStrategy:"merge" patchMergeKey:"type"`
}

// NodeResult is the allocation of one hardware item.
type NodeResult struct {
	NodeID int `json:"nodeID"`

	// ParentID is the item whose goal was apportioned.
	ParentID int `json:"parentID"`

	// +optional
	Name string `json:"name,omitempty"`

	// Method is the method applied by the parent's allocation. It differs from the
	// parent's selected method only when ARINC fell back to equal apportionment.
	Method string `json:"method"`

	// +optional
	Goal *NodeGoal `json:"goal,omitempty"`

	WeightFactor        float64 `json:"weightFactor"`
	PercentWeightFactor float64 `json:"percentWeightFactor"`
	HazardRate          float64 `json:"hazardRate"`
	// MTBF is formatted as a string since it is "+Inf" for a zero hazard rate.
	MTBF         string  `json:"mtbf"`
	Reliability  float64 `json:"reliability"`
	Availability float64 `json:"availability"`
}

// NodeGoal is the goal a hardware item received, set directly or by trickle-down.
type NodeGoal struct {
	Measure     string  `json:"measure"`
	Reliability float64 `json:"reliability"`
	HazardRate  float64 `json:"hazardRate"`
	MTBF        string  `json:"mtbf"`
}

// +kubebuilder:object:root=true
// +kubebuilder:subresource:status

// AllocationPlan is the Schema for allocation plan documents.
type AllocationPlan struct {
	metav1.TypeMeta   `json:",inline"`
	metav1.ObjectMeta `json:"metadata,omitempty"`

	Spec   AllocationPlanSpec   `json:"spec,omitempty"`
	Status AllocationPlanStatus `json:"status,omitempty"`
}

// AllocationPlanList contains a list of AllocationPlan documents.
// +kubebuilder:object:root=true
type AllocationPlanList struct {
	metav1.TypeMeta `json:",inline"`
	metav1.ListMeta `json:"metadata,omitempty"`

	Items []AllocationPlan `json:"items"`
}

func init() {
	SchemeBuilder.Register(&AllocationPlan{}, &AllocationPlanList{})
}

// Condition Types for AllocationPlan
const (
	// TypeAllocated indicates whether every allocation request of the plan succeeded
	TypeAllocated = "Allocated"
)

// Condition Reasons for Allocated
const (
	// ReasonAllocationSucceeded indicates all requests were allocated
	ReasonAllocationSucceeded = "AllocationSucceeded"
	// ReasonAllocationFailed indicates a request failed; later requests were not run
	ReasonAllocationFailed = "AllocationFailed"
	// ReasonInvalidPlan indicates the hardware list could not be built into a hierarchy
	ReasonInvalidPlan = "InvalidPlan"
)

// ErrInvalidPlan is returned by Validate.
var ErrInvalidPlan = errors.New("invalid allocation plan")

// Validate checks the document header and the references between items and requests.
// Value ranges are checked when the hierarchy is built.
func (p *AllocationPlan) Validate() error {
	if p.APIVersion != GroupVersion.String() {
		return fmt.Errorf("apiVersion %q, expected %q: %w", p.APIVersion, GroupVersion.String(), ErrInvalidPlan)
	}
	if p.Kind != Kind {
		return fmt.Errorf("kind %q, expected %q: %w", p.Kind, Kind, ErrInvalidPlan)
	}
	if len(p.Spec.Hardware) == 0 {
		return fmt.Errorf("no hardware items: %w", ErrInvalidPlan)
	}
	seen := make(map[int]bool, len(p.Spec.Hardware))
	for i, h := range p.Spec.Hardware {
		if h.ID < 0 {
			return fmt.Errorf("hardware[%d]: negative id %d: %w", i, h.ID, ErrInvalidPlan)
		}
		if seen[h.ID] {
			return fmt.Errorf("hardware[%d]: duplicate id %d: %w", i, h.ID, ErrInvalidPlan)
		}
		if h.ParentID != nil && !seen[*h.ParentID] {
			return fmt.Errorf("hardware[%d]: parent %d is not listed before item %d: %w",
				i, *h.ParentID, h.ID, ErrInvalidPlan)
		}
		seen[h.ID] = true
	}
	for i, r := range p.Spec.Allocations {
		if !seen[r.NodeID] {
			return fmt.Errorf("allocations[%d]: unknown node %d: %w", i, r.NodeID, ErrInvalidPlan)
		}
		if r.MaxDepth < 0 {
			return fmt.Errorf("allocations[%d]: negative maxDepth: %w", i, ErrInvalidPlan)
		}
	}
	return nil
}
