package merge

import (
	"container/heap"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/downfa11-org/tombmap/pkg/types"
)

type failingCloser struct{ io.Reader }

func (failingCloser) Close() error { return errors.New("stale NFS handle") }

func TestNextKeepsEventWhenShardCloseFails(t *testing.T) {
	// The last event of a shard is decoded before the shard is closed; a
	// failing close must not swallow it.
	ev := &types.Event{Bucket: "t1", Operation: types.OpDelete, Segment: 1, Items: []uint64{0}}
	sr := &shardReader{
		name: "flaky.json.gz",
		rc:   failingCloser{strings.NewReader("")},
		dec:  json.NewDecoder(strings.NewReader("")),
		head: ev,
	}

	m := &Merger{h: shardHeap{sr}}
	heap.Init(&m.h)

	got, err := m.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if got != ev {
		t.Fatalf("Next returned %+v, want the buffered event", got)
	}
	if _, err := m.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("expected io.EOF after the drained shard, got %v", err)
	}
}
