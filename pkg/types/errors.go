package types

import "fmt"

// CatalogError reports a segment population that the requested canvas
// cannot accommodate even with pixel sharing.
type CatalogError struct {
	TotalItems uint64
	CanvasSize int
	Capacity   uint64
	Factor     float64
}

func (e *CatalogError) Error() string {
	return fmt.Sprintf("catalog holds %d items but a %dx%d canvas caps out at %d (overflow factor %.1f); increase the output size",
		e.TotalItems, e.CanvasSize, e.CanvasSize, e.Capacity, e.Factor)
}

// ParseError reports a malformed record in a segment or event file,
// carrying enough position information to find the corrupt bytes.
type ParseError struct {
	File   string
	Offset int64
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed record in %s at offset %d: %v", e.File, e.Offset, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// OutOfRangeError reports an event addressing a segment missing from the
// catalog, or an item index outside the segment's item count.
type OutOfRangeError struct {
	Segment      uint64
	Item         uint64
	Bound        uint64
	KnownSegment bool
}

func (e *OutOfRangeError) Error() string {
	if !e.KnownSegment {
		return fmt.Sprintf("event references segment %d which is not in the catalog", e.Segment)
	}
	return fmt.Sprintf("event references item %d of segment %d, outside [0, %d)", e.Item, e.Segment, e.Bound)
}
