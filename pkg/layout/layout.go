package layout

import (
	"fmt"
	"math"

	"github.com/downfa11-org/tombmap/pkg/catalog"
	"github.com/downfa11-org/tombmap/pkg/types"
)

// Rect is a region of the output canvas, in pixels.
type Rect struct {
	X, Y, W, H int
}

func (r Rect) Area() int { return r.W * r.H }

// Table maps every (segment, item) pair to a canvas coordinate and back.
// It is built once from the id-sorted catalog and never mutated, so it can
// be shared between the applier and the renderer without locking.
//
// Each segment owns one rectangle, sized proportionally to its item count
// by recursive halving of the canvas. Items fill their rectangle in
// row-major order; a segment holding more items than pixels wraps around
// and shares pixels in index order.
type Table struct {
	size    int
	total   uint64
	rects   map[uint64]Rect
	offsets map[uint64]uint64
	counts  map[uint64]uint64
	owner   []int32
}

// Build partitions a size x size canvas across the catalog's segments.
// It fails with a CatalogError when the item population exceeds the pixel
// budget by more than overflowFactor.
func Build(cat *catalog.Catalog, size int, overflowFactor float64) (*Table, error) {
	if size <= 0 {
		return nil, fmt.Errorf("canvas size must be positive, got %d", size)
	}
	if overflowFactor <= 0 {
		overflowFactor = 1
	}

	total := cat.TotalItems()
	capacity := uint64(size) * uint64(size)
	budget := uint64(float64(capacity) * overflowFactor)
	if total > budget || total > math.MaxInt32 {
		return nil, &types.CatalogError{
			TotalItems: total,
			CanvasSize: size,
			Capacity:   budget,
			Factor:     overflowFactor,
		}
	}

	t := &Table{
		size:    size,
		total:   total,
		rects:   make(map[uint64]Rect, cat.Len()),
		offsets: make(map[uint64]uint64, cat.Len()),
		counts:  make(map[uint64]uint64, cat.Len()),
		owner:   make([]int32, size*size),
	}
	for i := range t.owner {
		t.owner[i] = -1
	}

	segs := cat.Segments()
	var off uint64
	nonzero := make([]types.Segment, 0, len(segs))
	for _, seg := range segs {
		t.offsets[seg.ID] = off
		t.counts[seg.ID] = seg.Items
		off += seg.Items
		if seg.Items > 0 {
			nonzero = append(nonzero, seg)
		}
	}

	if len(nonzero) > 0 {
		t.partition(Rect{0, 0, size, size}, nonzero, total)
	}

	for _, seg := range nonzero {
		r := t.rects[seg.ID]
		area := uint64(r.Area())
		n := seg.Items
		if n > area {
			n = area
		}
		base := t.offsets[seg.ID]
		for p := uint64(0); p < n; p++ {
			x := r.X + int(p%uint64(r.W))
			y := r.Y + int(p/uint64(r.W))
			// Segments sharing an indivisible rectangle keep the lowest
			// cell index as the pixel owner.
			if t.owner[y*size+x] < 0 {
				t.owner[y*size+x] = int32(base + p)
			}
		}
	}

	return t, nil
}

// partition recursively splits rect along its longer axis, dividing segs
// into two groups with near-equal item totals, until each leaf holds one
// segment. A rectangle too small to subdivide is shared by the whole
// group, the same wraparound fallback an over-dense segment uses, so
// every segment keeps a coordinate mapping. segs must be non-empty and
// contain no zero-item segments.
func (t *Table) partition(rect Rect, segs []types.Segment, total uint64) {
	if len(segs) == 1 {
		t.rects[segs[0].ID] = rect
		return
	}
	if rect.W <= 1 && rect.H <= 1 {
		for _, seg := range segs {
			t.rects[seg.ID] = rect
		}
		return
	}

	split, leftTotal := splitIndex(segs, total)
	left, right := segs[:split], segs[split:]

	var leftRect, rightRect Rect
	if rect.W >= rect.H {
		w := proportion(rect.W, leftTotal, total)
		leftRect = Rect{rect.X, rect.Y, w, rect.H}
		rightRect = Rect{rect.X + w, rect.Y, rect.W - w, rect.H}
	} else {
		h := proportion(rect.H, leftTotal, total)
		leftRect = Rect{rect.X, rect.Y, rect.W, h}
		rightRect = Rect{rect.X, rect.Y + h, rect.W, rect.H - h}
	}

	t.partition(leftRect, left, leftTotal)
	t.partition(rightRect, right, total-leftTotal)
}

// splitIndex picks the cut point in [1, len-1] that makes the two group
// totals as close to equal as possible. Returns the index and the left
// group's total.
func splitIndex(segs []types.Segment, total uint64) (int, uint64) {
	bestIdx := 1
	bestDiff := uint64(math.MaxUint64)
	bestLeft := uint64(0)

	var acc uint64
	for i := 1; i < len(segs); i++ {
		acc += segs[i-1].Items
		var diff uint64
		if 2*acc > total {
			diff = 2*acc - total
		} else {
			diff = total - 2*acc
		}
		if diff < bestDiff {
			bestDiff = diff
			bestIdx = i
			bestLeft = acc
		}
	}
	return bestIdx, bestLeft
}

// proportion splits length along an axis by item share, keeping at least
// one pixel per side whenever the length allows it.
func proportion(length int, leftTotal, total uint64) int {
	if length <= 1 {
		return length
	}
	v := int(math.Round(float64(length) * float64(leftTotal) / float64(total)))
	if v < 1 {
		v = 1
	}
	if v > length-1 {
		v = length - 1
	}
	return v
}

// Coord returns the canvas pixel for an item. An over-dense segment wraps
// around its rectangle, so distinct items may share a pixel. ok is false
// for unknown segments, out-of-range items, and zero-area rectangles.
func (t *Table) Coord(segID, item uint64) (x, y int, ok bool) {
	r, exists := t.rects[segID]
	if !exists || item >= t.counts[segID] {
		return 0, 0, false
	}
	area := uint64(r.Area())
	if area == 0 {
		return 0, 0, false
	}
	p := item
	if p >= area {
		p %= area
	}
	return r.X + int(p%uint64(r.W)), r.Y + int(p/uint64(r.W)), true
}

// CellIndex returns the dense state-store index for an item. The index
// space is the prefix-sum order of the id-sorted catalog, shared with the
// state store's cell array.
func (t *Table) CellIndex(segID, item uint64) (uint64, bool) {
	n, ok := t.counts[segID]
	if !ok || item >= n {
		return 0, false
	}
	return t.offsets[segID] + item, true
}

// ItemCount returns a segment's item count, with ok=false for segments
// missing from the catalog.
func (t *Table) ItemCount(segID uint64) (uint64, bool) {
	n, ok := t.counts[segID]
	return n, ok
}

// OwnerAt returns the dense cell index owning a pixel. Shared pixels are
// owned by the lowest item index that maps there; unused canvas area has
// no owner.
func (t *Table) OwnerAt(x, y int) (uint64, bool) {
	v := t.owner[y*t.size+x]
	if v < 0 {
		return 0, false
	}
	return uint64(v), true
}

// Rect returns the leaf rectangle assigned to a segment. Zero-item
// segments have no rectangle.
func (t *Table) Rect(segID uint64) (Rect, bool) {
	r, ok := t.rects[segID]
	return r, ok
}

// Size is the canvas edge length in pixels.
func (t *Table) Size() int { return t.size }

// Total is the number of addressable cells across all segments.
func (t *Table) Total() uint64 { return t.total }
