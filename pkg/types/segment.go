package types

import "fmt"

// Segment describes one shard of the object store: a stable identifier and
// the number of individually addressable items it holds.
// {"segment":233023,"num":33}
type Segment struct {
	ID    uint64 `json:"segment"`
	Items uint64 `json:"num"`
}

func (s Segment) String() string {
	return fmt.Sprintf("segment %d (%d items)", s.ID, s.Items)
}
