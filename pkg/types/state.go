package types

// ItemState is the lifecycle position of a single (segment, item) cell.
// Ranks only ever increase during a replay: an item never moves back
// toward StateAlive.
type ItemState uint8

const (
	// StateAlive: the object exists and carries no delete marker.
	StateAlive ItemState = iota
	// StateDeleted: a delete marker has been written over the object.
	StateDeleted
	// StateExpired: the object data has been removed.
	StateExpired
	// StatePurged: the delete marker itself is gone.
	StatePurged

	NumItemStates = 4
)

func (s ItemState) String() string {
	switch s {
	case StateAlive:
		return "alive"
	case StateDeleted:
		return "deleted"
	case StateExpired:
		return "expired"
	case StatePurged:
		return "purged"
	}
	return "unknown"
}
