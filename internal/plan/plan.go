// Package plan reads allocation plan documents, builds their hardware hierarchy and
// runs their allocation requests.
package plan

import (
	"fmt"
	"strconv"

	"sigs.k8s.io/yaml"

	"github.com/ramstk/reliability-allocator/api/v1alpha1"
	"github.com/ramstk/reliability-allocator/pkg/goal"
	"github.com/ramstk/reliability-allocator/pkg/hierarchy"
)

// Decode parses a YAML or JSON plan document and validates it. Unknown fields are
// rejected.
func Decode(data []byte) (*v1alpha1.AllocationPlan, error) {
	var p v1alpha1.AllocationPlan
	if err := yaml.UnmarshalStrict(data, &p); err != nil {
		return nil, fmt.Errorf("decoding allocation plan: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Encode renders p as YAML.
func Encode(p *v1alpha1.AllocationPlan) ([]byte, error) {
	return yaml.Marshal(p)
}

// Build creates the hierarchy described by the plan's hardware list.
func Build(p *v1alpha1.AllocationPlan) (*hierarchy.Model, error) {
	m := hierarchy.NewModel()
	for i, item := range p.Spec.Hardware {
		parent := hierarchy.NoParent
		if item.ParentID != nil {
			parent = hierarchy.ID(*item.ParentID)
		}
		node := hierarchy.Node{ID: hierarchy.ID(item.ID), Attributes: attributes(item)}
		if err := m.Insert(node, parent); err != nil {
			return nil, fmt.Errorf("hardware[%d]: %w", i, err)
		}
		current, err := currentMetrics(item.Current)
		if err != nil {
			return nil, fmt.Errorf("hardware[%d]: %w", i, err)
		}
		if current != (hierarchy.Metrics{}) {
			if err := m.SetCurrent(node.ID, current); err != nil {
				return nil, fmt.Errorf("hardware[%d]: %w", i, err)
			}
		}
	}
	return m, nil
}

// attributes applies the defaults of a new hardware item to the fields item leaves
// unset.
func attributes(item v1alpha1.HardwareItem) hierarchy.Attributes {
	a := hierarchy.DefaultAttributes()
	a.Name = item.Name
	a.MTTR = item.MTTR
	if item.Included != nil {
		a.Included = *item.Included
	}
	if item.NSubSystems != 0 {
		a.NSubSystems = item.NSubSystems
	}
	if item.NSubElements != nil {
		a.NSubElements = *item.NSubElements
	}
	if item.MissionTime != 0 {
		a.MissionTime = item.MissionTime
	}
	if item.DutyCycle != nil {
		a.DutyCycle = *item.DutyCycle
	}
	setFactor(&a.Intricacy, item.Factors.Intricacy)
	setFactor(&a.StateOfArt, item.Factors.StateOfArt)
	setFactor(&a.OperatingTimeFactor, item.Factors.OperatingTime)
	setFactor(&a.EnvironmentFactor, item.Factors.Environment)
	return a
}

func setFactor(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

// currentMetrics fills in the hazard rate from the MTBF when only the latter is given.
func currentMetrics(c v1alpha1.CurrentMetrics) (hierarchy.Metrics, error) {
	m := hierarchy.Metrics{
		HazardRate:   c.HazardRate,
		MTBF:         c.MTBF,
		Reliability:  c.Reliability,
		Availability: c.Availability,
	}
	if m.HazardRate == 0 && m.MTBF != 0 {
		if !(m.MTBF > 0) {
			return hierarchy.Metrics{}, fmt.Errorf("current MTBF must be > 0, got %g: %w", m.MTBF, goal.ErrValueOutOfRange)
		}
		m.HazardRate = 1 / m.MTBF
	}
	return m, nil
}

func formatMTBF(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func measureName(m goal.Measure) string {
	switch m {
	case goal.Reliability:
		return "reliability"
	case goal.HazardRate:
		return "hazardRate"
	case goal.MTBF:
		return "mtbf"
	default:
		return m.String()
	}
}
