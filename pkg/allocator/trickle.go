package allocator

import (
	"fmt"

	"github.com/ramstk/reliability-allocator/internal/logging"
	"github.com/ramstk/reliability-allocator/pkg/goal"
	"github.com/ramstk/reliability-allocator/pkg/hierarchy"
)

// TrickleDown makes each included child's allocated hazard rate that child's own
// goal and allocates it with the child's own method, recursively, until a level has no
// included children. id must be allocated. maxDepth bounds the number of levels below
// id that receive goals; maxDepth <= 0 uses the configured limit.
//
// On error the goals, states and outputs of the whole subtree are restored.
func (a *Allocator) TrickleDown(id hierarchy.ID, maxDepth int) (*Result, error) {
	if maxDepth <= 0 {
		maxDepth = a.config.MaxDepth
	}
	rec, ok := a.records[id]
	if !ok || rec.state < Allocated || rec.result == nil {
		err := fmt.Errorf("trickling down node %d in state %v: %w", id, a.State(id), ErrInvalidState)
		a.config.Recorder.RecordTrickleDown(0, err)
		return nil, err
	}

	tx, err := a.begin(id)
	if err != nil {
		a.config.Recorder.RecordTrickleDown(0, err)
		return nil, err
	}
	result, err := a.trickle(id, 0, maxDepth)
	if err != nil {
		tx.rollback()
		a.config.Logger.Error(err, "Trickle-down failed, subtree restored", "node", id)
		a.config.Recorder.RecordTrickleDown(0, err)
		return nil, err
	}

	allocations := result.Count() - 1
	a.config.Logger.Info("Trickle-down completed", "node", id, "allocations", allocations)
	a.config.Recorder.RecordTrickleDown(allocations, nil)
	return result, nil
}

// trickle sets the goals of id's allocated children, which sit at level+1, and
// recurses into those that have included children of their own.
func (a *Allocator) trickle(id hierarchy.ID, level, maxDepth int) (*Result, error) {
	rec := a.records[id]
	if level+1 > maxDepth {
		return nil, fmt.Errorf("node %d: children would be at level %d, limit %d: %w",
			id, level+1, maxDepth, ErrDepthExceeded)
	}
	result := rec.result.clone()
	for _, share := range result.Shares {
		if err := a.SetGoal(share.NodeID, goal.HazardRate, share.HazardRate); err != nil {
			return nil, fmt.Errorf("trickling goal to node %d: %w", share.NodeID, err)
		}
		grandchildren, err := a.model.IncludedChildrenOf(share.NodeID)
		if err != nil {
			return nil, err
		}
		if len(grandchildren) == 0 {
			continue
		}
		if _, err := a.Allocate(share.NodeID); err != nil {
			return nil, err
		}
		sub, err := a.trickle(share.NodeID, level+1, maxDepth)
		if err != nil {
			return nil, err
		}
		result.Children = append(result.Children, sub)
	}
	rec.result = result
	rec.state = TrickledDown
	a.config.Logger.V(logging.TRACE).Info("Goals trickled down", "node", id, "level", level)
	return result, nil
}

// txn captures the allocator records and model outputs of a subtree.
type txn struct {
	a       *Allocator
	records map[hierarchy.ID]*record
	outputs hierarchy.Snapshot
}

func (a *Allocator) begin(root hierarchy.ID) (*txn, error) {
	var ids []hierarchy.ID
	if err := a.model.Walk(root, func(n hierarchy.Node) error {
		ids = append(ids, n.ID)
		return nil
	}); err != nil {
		return nil, err
	}
	tx := &txn{
		a:       a,
		records: make(map[hierarchy.ID]*record, len(ids)),
		outputs: a.model.Snapshot(ids),
	}
	for _, id := range ids {
		if rec, ok := a.records[id]; ok {
			tx.records[id] = rec.clone()
		} else {
			tx.records[id] = nil
		}
	}
	return tx, nil
}

func (tx *txn) rollback() {
	for id, rec := range tx.records {
		if rec == nil {
			delete(tx.a.records, id)
			continue
		}
		tx.a.records[id] = rec
	}
	tx.a.model.Restore(tx.outputs)
}
