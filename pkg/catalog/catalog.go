package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/downfa11-org/tombmap/pkg/types"
	"github.com/downfa11-org/tombmap/util"
)

// Catalog is the full segment population, loaded once at startup and
// immutable afterwards. Segments are held sorted by id so that every
// consumer sees the same deterministic order regardless of how the
// descriptor files were laid out on disk.
type Catalog struct {
	segments []types.Segment
	byID     map[uint64]int
	total    uint64
}

// Load reads every file in dir as a stream of segment descriptor records,
// one JSON object per line: {"segment":<id>,"num":<items>}. Files may be
// gzip, lz4 or plain.
func Load(dir string) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read segment dir: %w", err)
	}

	c := &Catalog{byID: make(map[uint64]int)}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := c.loadFile(path, entry.Name()); err != nil {
			return nil, err
		}
	}

	sort.Slice(c.segments, func(i, j int) bool {
		return c.segments[i].ID < c.segments[j].ID
	})
	for i, seg := range c.segments {
		c.byID[seg.ID] = i
	}

	util.Info("Loaded %d segments with %s total items", len(c.segments), util.FormatCount(c.total))
	return c, nil
}

func (c *Catalog) loadFile(path, name string) error {
	rc, err := util.OpenCompressed(path)
	if err != nil {
		return fmt.Errorf("open segment file: %w", err)
	}
	defer func() { _ = rc.Close() }()

	seen := make(map[uint64]bool, len(c.byID))
	for _, seg := range c.segments {
		seen[seg.ID] = true
	}

	dec := json.NewDecoder(rc)
	for {
		var seg types.Segment
		if err := dec.Decode(&seg); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return &types.ParseError{File: name, Offset: dec.InputOffset(), Err: err}
		}
		if seen[seg.ID] {
			return &types.ParseError{
				File:   name,
				Offset: dec.InputOffset(),
				Err:    fmt.Errorf("duplicate segment id %d", seg.ID),
			}
		}
		seen[seg.ID] = true
		c.segments = append(c.segments, seg)
		c.total += seg.Items
	}
}

// FromSegments builds a catalog from an in-memory segment list, sorting by
// id. Intended for synthetic catalogs in tests and tooling.
func FromSegments(segs []types.Segment) *Catalog {
	c := &Catalog{
		segments: make([]types.Segment, len(segs)),
		byID:     make(map[uint64]int, len(segs)),
	}
	copy(c.segments, segs)
	sort.Slice(c.segments, func(i, j int) bool {
		return c.segments[i].ID < c.segments[j].ID
	})
	for i, seg := range c.segments {
		c.byID[seg.ID] = i
		c.total += seg.Items
	}
	return c
}

// Segments returns the id-sorted segment list. Callers must not mutate it.
func (c *Catalog) Segments() []types.Segment { return c.segments }

// Lookup returns the descriptor for a segment id.
func (c *Catalog) Lookup(id uint64) (types.Segment, bool) {
	i, ok := c.byID[id]
	if !ok {
		return types.Segment{}, false
	}
	return c.segments[i], true
}

// TotalItems is the sum of item counts across the catalog.
func (c *Catalog) TotalItems() uint64 { return c.total }

// Len is the number of segments.
func (c *Catalog) Len() int { return len(c.segments) }
