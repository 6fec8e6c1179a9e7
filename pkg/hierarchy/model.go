package hierarchy

import (
	"fmt"
	"math"
	"slices"

	"github.com/ramstk/reliability-allocator/pkg/goal"
)

// Change tells an InvalidationHandler which of a node's allocation inputs changed.
type Change int

const (
	// ChildrenChanged: an attribute or current-metric update on one of the node's
	// children, or a child added or removed.
	ChildrenChanged Change = iota
	// DescendantsChanged: current metrics or structure changed below one of the node's
	// children, which moves the children's rolled-up current hazard rates.
	DescendantsChanged
	// MissionTimeChanged: the node's own mission time changed.
	MissionTimeChanged
)

func (c Change) String() string {
	switch c {
	case ChildrenChanged:
		return "ChildrenChanged"
	case DescendantsChanged:
		return "DescendantsChanged"
	case MissionTimeChanged:
		return "MissionTimeChanged"
	default:
		return fmt.Sprintf("Change(%d)", int(c))
	}
}

// InvalidationHandler is notified with the ID of a node whose allocation inputs changed.
type InvalidationHandler func(id ID, change Change)

// Model is an arena of hardware nodes. It does no locking; callers serialize access to
// overlapping subtrees.
type Model struct {
	nodes    []*Node
	index    map[ID]int
	handlers []InvalidationHandler
}

// NewModel returns an empty hierarchy.
func NewModel() *Model {
	return &Model{
		index: make(map[ID]int),
	}
}

// AddInvalidationHandler registers h to be called on every invalidating change.
func (m *Model) AddInvalidationHandler(h InvalidationHandler) {
	m.handlers = append(m.handlers, h)
}

// Len returns the number of nodes in the model.
func (m *Model) Len() int {
	return len(m.nodes)
}

// Insert adds node under parentID, or as a root when parentID is NoParent. The node's
// ChildIDs and Allocated fields are ignored; children attach through their own Insert.
func (m *Model) Insert(node Node, parentID ID) error {
	if node.ID == NoParent {
		return fmt.Errorf("node ID %d is reserved for the root's parent: %w", node.ID, ErrInvalidID)
	}
	if parentID == node.ID {
		return fmt.Errorf("node %d cannot be its own parent: %w", node.ID, ErrCyclicHierarchy)
	}
	if _, exists := m.index[node.ID]; exists {
		return fmt.Errorf("node %d: %w", node.ID, ErrDuplicateNode)
	}
	if err := node.Attributes.Validate(); err != nil {
		return fmt.Errorf("node %d: %w", node.ID, err)
	}
	if err := node.Current.validate(); err != nil {
		return fmt.Errorf("node %d: %w", node.ID, err)
	}
	var parent *Node
	if parentID != NoParent {
		var err error
		if parent, err = m.lookup(parentID); err != nil {
			return err
		}
	}

	m.index[node.ID] = len(m.nodes)
	m.nodes = append(m.nodes, &Node{
		ID:         node.ID,
		ParentID:   parentID,
		Attributes: node.Attributes,
		Current:    node.Current,
	})
	if parent != nil {
		parent.ChildIDs = append(parent.ChildIDs, node.ID)
		m.notifyUp(parentID)
	}
	return nil
}

// Move re-parents id, with its subtree, under newParent. It fails with
// ErrCyclicHierarchy when newParent is id or one of its descendants.
func (m *Model) Move(id, newParent ID) error {
	n, err := m.lookup(id)
	if err != nil {
		return err
	}
	if newParent != NoParent {
		if _, err := m.lookup(newParent); err != nil {
			return err
		}
		for cur := newParent; cur != NoParent; cur = m.nodes[m.index[cur]].ParentID {
			if cur == id {
				return fmt.Errorf("moving node %d under %d: %w", id, newParent, ErrCyclicHierarchy)
			}
		}
	}
	if n.ParentID == newParent {
		return nil
	}
	oldParent := n.ParentID
	if oldParent != NoParent {
		p := m.nodes[m.index[oldParent]]
		p.ChildIDs = slices.DeleteFunc(p.ChildIDs, func(c ID) bool { return c == id })
	}
	n.ParentID = newParent
	if newParent != NoParent {
		p := m.nodes[m.index[newParent]]
		p.ChildIDs = append(p.ChildIDs, id)
	}
	if oldParent != NoParent {
		m.notifyUp(oldParent)
	}
	if newParent != NoParent {
		m.notifyUp(newParent)
	}
	return nil
}

// Get returns a copy of the node.
func (m *Model) Get(id ID) (Node, error) {
	n, err := m.lookup(id)
	if err != nil {
		return Node{}, err
	}
	return n.clone(), nil
}

// Parent returns the parent ID of id, NoParent for a root.
func (m *Model) Parent(id ID) (ID, error) {
	n, err := m.lookup(id)
	if err != nil {
		return NoParent, err
	}
	return n.ParentID, nil
}

// Roots returns the IDs of all root nodes in insertion order.
func (m *Model) Roots() []ID {
	var roots []ID
	for _, n := range m.nodes {
		if n.ParentID == NoParent {
			roots = append(roots, n.ID)
		}
	}
	return roots
}

// ChildrenOf returns copies of the children of id in insertion order.
func (m *Model) ChildrenOf(id ID) ([]Node, error) {
	n, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	children := make([]Node, 0, len(n.ChildIDs))
	for _, c := range n.ChildIDs {
		children = append(children, m.nodes[m.index[c]].clone())
	}
	return children, nil
}

// IncludedChildrenOf returns copies of the children of id that participate in
// allocation, in insertion order.
func (m *Model) IncludedChildrenOf(id ID) ([]Node, error) {
	children, err := m.ChildrenOf(id)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(children, func(c Node) bool { return !c.Attributes.Included }), nil
}

// AggregateCurrent returns the current hazard rate of id rolled up from the leaves:
// a leaf contributes its own current hazard rate, any other node the sum of its
// children's aggregates. It is intended for display and validation.
func (m *Model) AggregateCurrent(id ID) (float64, error) {
	n, err := m.lookup(id)
	if err != nil {
		return 0, err
	}
	return m.aggregate(n), nil
}

func (m *Model) aggregate(n *Node) float64 {
	if len(n.ChildIDs) == 0 {
		return n.Current.HazardRate
	}
	var sum float64
	for _, c := range n.ChildIDs {
		sum += m.aggregate(m.nodes[m.index[c]])
	}
	return sum
}

// Walk calls fn for id and every descendant, parents before children. A non-nil error
// from fn stops the walk and is returned.
func (m *Model) Walk(id ID, fn func(Node) error) error {
	n, err := m.lookup(id)
	if err != nil {
		return err
	}
	return m.walk(n, fn)
}

func (m *Model) walk(n *Node, fn func(Node) error) error {
	if err := fn(n.clone()); err != nil {
		return err
	}
	for _, c := range n.ChildIDs {
		if err := m.walk(m.nodes[m.index[c]], fn); err != nil {
			return err
		}
	}
	return nil
}

// SetAttributes replaces the allocation inputs of id. A new mission time is also
// reported on id itself, since goals stated over it must be re-derived.
func (m *Model) SetAttributes(id ID, attrs Attributes) error {
	n, err := m.lookup(id)
	if err != nil {
		return err
	}
	if err := attrs.Validate(); err != nil {
		return fmt.Errorf("node %d: %w", id, err)
	}
	missionTimeChanged := n.Attributes.MissionTime != attrs.MissionTime
	n.Attributes = attrs
	if missionTimeChanged {
		m.notify(id, MissionTimeChanged)
	}
	if n.ParentID != NoParent {
		m.notify(n.ParentID, ChildrenChanged)
	}
	return nil
}

// SetCurrent replaces the current metrics of id. It is the prediction engine's entry
// point and the only writer of current metrics.
func (m *Model) SetCurrent(id ID, current Metrics) error {
	n, err := m.lookup(id)
	if err != nil {
		return err
	}
	if err := current.validate(); err != nil {
		return fmt.Errorf("node %d: %w", id, err)
	}
	n.Current = current
	if n.ParentID != NoParent {
		m.notifyUp(n.ParentID)
	}
	return nil
}

// CommitAllocations writes allocation outputs. Every ID is checked before anything is
// written. Reserved for the allocator.
func (m *Model) CommitAllocations(outputs map[ID]Allocation) error {
	for id := range outputs {
		if _, err := m.lookup(id); err != nil {
			return err
		}
	}
	for id, a := range outputs {
		m.nodes[m.index[id]].Allocated = a
	}
	return nil
}

// ClearAllocations zeroes the allocation outputs of the given nodes. Unknown IDs are
// ignored. Reserved for the allocator.
func (m *Model) ClearAllocations(ids []ID) {
	for _, id := range ids {
		if i, ok := m.index[id]; ok {
			m.nodes[i].Allocated = Allocation{}
		}
	}
}

// Snapshot records the allocation outputs of the given nodes.
type Snapshot map[ID]Allocation

// Snapshot captures the allocation outputs of ids so a failed multi-node operation can
// put them back with Restore.
func (m *Model) Snapshot(ids []ID) Snapshot {
	s := make(Snapshot, len(ids))
	for _, id := range ids {
		if i, ok := m.index[id]; ok {
			s[id] = m.nodes[i].Allocated
		}
	}
	return s
}

// Restore writes back the outputs captured by Snapshot.
func (m *Model) Restore(s Snapshot) {
	for id, a := range s {
		if i, ok := m.index[id]; ok {
			m.nodes[i].Allocated = a
		}
	}
}

func (m *Model) lookup(id ID) (*Node, error) {
	i, ok := m.index[id]
	if !ok {
		return nil, fmt.Errorf("node %d: %w", id, ErrNodeNotFound)
	}
	return m.nodes[i], nil
}

func (m *Model) notify(id ID, change Change) {
	for _, h := range m.handlers {
		h(id, change)
	}
}

// notifyUp reports a change among parent's children to parent, and to every
// ancestor above it as a change further down.
func (m *Model) notifyUp(parent ID) {
	m.notify(parent, ChildrenChanged)
	for cur := m.nodes[m.index[parent]].ParentID; cur != NoParent; cur = m.nodes[m.index[cur]].ParentID {
		m.notify(cur, DescendantsChanged)
	}
}

func (n *Node) clone() Node {
	c := *n
	c.ChildIDs = slices.Clone(n.ChildIDs)
	return c
}

func (c Metrics) validate() error {
	if math.IsNaN(c.HazardRate) || c.HazardRate < 0 {
		return fmt.Errorf("current hazard rate must be >= 0, got %g: %w", c.HazardRate, goal.ErrValueOutOfRange)
	}
	return nil
}
