package types

import "strings"

// Operation is the tag of a deletion-log event. The upstream store emits
// "delete" and "expire"; anything else is treated as unknown and skipped
// without mutating state.
type Operation string

const (
	OpDelete Operation = "delete"
	OpExpire Operation = "expire"
)

// Event is one record of the deletion log.
// {"bucket":"2022-09-02 15:55:00.0","operation":"delete","segment":133135,"items":[1,2,3]}
type Event struct {
	Bucket    string    `json:"bucket"`
	Operation Operation `json:"operation"`
	Segment   uint64    `json:"segment"`
	Items     []uint64  `json:"items"`
}

// CompareEvents orders events by (bucket, operation). Buckets are opaque
// time labels compared lexicographically, which matches chronological order
// for the zero-padded timestamp labels the store produces.
func CompareEvents(a, b *Event) int {
	if c := strings.Compare(a.Bucket, b.Bucket); c != 0 {
		return c
	}
	return strings.Compare(string(a.Operation), string(b.Operation))
}
