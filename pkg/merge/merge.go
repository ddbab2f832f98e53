package merge

import (
	"container/heap"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/downfa11-org/tombmap/pkg/types"
	"github.com/downfa11-org/tombmap/util"
)

// Merger presents the union of per-shard sorted event files as one stream
// in non-decreasing (bucket, operation) order. Each shard is individually
// sorted by the upstream preparation step; the merger restores the global
// order with a k-way heap merge, holding one buffered record per shard.
//
// Ties between shards at equal (bucket, operation) break by shard id: the
// position of the shard's file name in lexicographic directory order.
// Arbitrary, but fixed, so replays are reproducible.
type Merger struct {
	h shardHeap
}

// Open builds a merger over every file in the event directory.
func Open(dir string) (*Merger, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read event dir: %w", err)
	}

	m := &Merger{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		id := len(m.h)
		sr, err := openShard(id, filepath.Join(dir, entry.Name()), entry.Name())
		if err != nil {
			m.Close()
			return nil, err
		}

		switch err := sr.advance(); {
		case err == nil:
			m.h = append(m.h, sr)
		case errors.Is(err, io.EOF):
			util.Debug("Shard %s is empty, skipping", entry.Name())
			_ = sr.close()
		default:
			_ = sr.close()
			m.Close()
			return nil, err
		}
	}

	heap.Init(&m.h)
	util.Info("Merging %d event shards", len(m.h))
	return m, nil
}

// Next returns the globally next event, or io.EOF when every shard is
// exhausted. A malformed record fails the whole merge: skipping it would
// desynchronize the replayed state from the true deletion history.
func (m *Merger) Next() (*types.Event, error) {
	if len(m.h) == 0 {
		return nil, io.EOF
	}

	sr := m.h[0]
	ev := sr.head

	switch err := sr.advance(); {
	case err == nil:
		heap.Fix(&m.h, 0)
	case errors.Is(err, io.EOF):
		heap.Pop(&m.h)
		// The event is already decoded; a close failure on the drained
		// shard must not lose it.
		if cerr := sr.close(); cerr != nil {
			util.Warn("Closing drained shard %s: %v", sr.name, cerr)
		}
	default:
		return nil, err
	}

	return ev, nil
}

// Shards is the number of shards still holding events.
func (m *Merger) Shards() int { return len(m.h) }

// Close releases any shards the merge did not run to completion.
func (m *Merger) Close() error {
	var first error
	for _, sr := range m.h {
		if err := sr.close(); err != nil && first == nil {
			first = err
		}
	}
	m.h = nil
	return first
}

// shardHeap is a min-heap keyed by (bucket, operation, shard id).
type shardHeap []*shardReader

func (h shardHeap) Len() int { return len(h) }

func (h shardHeap) Less(i, j int) bool {
	if c := types.CompareEvents(h[i].head, h[j].head); c != 0 {
		return c < 0
	}
	return h[i].id < h[j].id
}

func (h shardHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *shardHeap) Push(x any) { *h = append(*h, x.(*shardReader)) }

func (h *shardHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return x
}
