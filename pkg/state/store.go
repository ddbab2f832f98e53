package state

import (
	"github.com/downfa11-org/tombmap/pkg/layout"
	"github.com/downfa11-org/tombmap/pkg/types"
	"github.com/downfa11-org/tombmap/util"
)

// Store holds one lifecycle cell per (segment, item) pair, addressed by
// the layout table's dense cell index. It is owned by the single applier
// goroutine; the renderer only ever sees copies taken with Snapshot.
//
// Deletedness is monotone: a transition never lowers a cell's rank, so an
// item observed as deleted stays deleted for the rest of the run.
type Store struct {
	table     *layout.Table
	cells     []types.ItemState
	counts    [types.NumItemStates]uint64
	anomalies uint64
	unknownOp map[types.Operation]uint64
}

// New sizes the store to the catalog's total item count, all cells alive.
func New(table *layout.Table) *Store {
	s := &Store{
		table:     table,
		cells:     make([]types.ItemState, table.Total()),
		unknownOp: make(map[types.Operation]uint64),
	}
	s.counts[types.StateAlive] = table.Total()
	return s
}

// Apply replays one event, returning the number of cells whose state
// changed. Events addressing segments or items outside the catalog fail
// with an OutOfRangeError; the store is left exactly as it was before the
// offending item.
func (s *Store) Apply(ev *types.Event) (int, error) {
	bound, known := s.table.ItemCount(ev.Segment)
	if !known {
		return 0, &types.OutOfRangeError{Segment: ev.Segment}
	}

	if ev.Operation != types.OpDelete && ev.Operation != types.OpExpire {
		if s.unknownOp[ev.Operation] == 0 {
			util.Warn("Ignoring unrecognized operation %q (segment %d, %d items)", ev.Operation, ev.Segment, len(ev.Items))
		}
		s.unknownOp[ev.Operation] += uint64(len(ev.Items))
		return 0, nil
	}

	mutated := 0
	for _, item := range ev.Items {
		if item >= bound {
			return mutated, &types.OutOfRangeError{
				Segment:      ev.Segment,
				Item:         item,
				Bound:        bound,
				KnownSegment: true,
			}
		}
		cell, _ := s.table.CellIndex(ev.Segment, item)

		cur := s.cells[cell]
		next, anomaly := transition(ev.Operation, cur)
		if anomaly {
			s.anomalies++
		}
		if next != cur {
			s.cells[cell] = next
			s.counts[cur]--
			s.counts[next]++
			mutated++
		}
	}
	return mutated, nil
}

// transition applies the lifecycle rules for one cell.
//
//	delete: Alive -> Deleted; idempotent on every deleted tier.
//	expire: Deleted -> Expired -> Purged; Alive -> Purged (an expire
//	        without a marker completes the whole lifecycle); a second
//	        expire past Purged is an anomaly and leaves the cell alone.
func transition(op types.Operation, cur types.ItemState) (types.ItemState, bool) {
	switch op {
	case types.OpDelete:
		if cur == types.StateAlive {
			return types.StateDeleted, false
		}
		return cur, false

	case types.OpExpire:
		switch cur {
		case types.StateAlive:
			return types.StatePurged, false
		case types.StateDeleted:
			return types.StateExpired, false
		case types.StateExpired:
			return types.StatePurged, false
		default:
			return cur, true
		}
	}
	return cur, false
}

// Counts returns the current per-state populations.
func (s *Store) Counts() [types.NumItemStates]uint64 { return s.counts }

// Anomalies is the number of lifecycle-violating item updates seen so far.
func (s *Store) Anomalies() uint64 { return s.anomalies }

// UnknownOps returns items skipped per unrecognized operation tag.
func (s *Store) UnknownOps() map[types.Operation]uint64 {
	out := make(map[types.Operation]uint64, len(s.unknownOp))
	for op, n := range s.unknownOp {
		out[op] = n
	}
	return out
}

// Len is the number of cells.
func (s *Store) Len() int { return len(s.cells) }

// Snapshot copies the cell array and counters for a point-in-time view
// the renderer can consume while the applier moves on. The copy is the
// brief exclusive section: the applier calls this between events.
func (s *Store) Snapshot() *Snapshot {
	snap := &Snapshot{
		Cells:     make([]types.ItemState, len(s.cells)),
		Counts:    s.counts,
		Anomalies: s.anomalies,
	}
	copy(snap.Cells, s.cells)
	return snap
}

// Snapshot is an immutable point-in-time copy of the store.
type Snapshot struct {
	Cells     []types.ItemState
	Counts    [types.NumItemStates]uint64
	Anomalies uint64
}
