package catalog_test

import (
	"compress/gzip"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/downfa11-org/tombmap/pkg/catalog"
	"github.com/downfa11-org/tombmap/pkg/types"
)

func writeSegmentFile(t *testing.T, dir, name string, lines []string) {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
	defer func() { _ = f.Close() }()

	gw := gzip.NewWriter(f)
	for _, line := range lines {
		if _, err := fmt.Fprintln(gw, line); err != nil {
			t.Fatalf("write line: %v", err)
		}
	}
	if err := gw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
}

func TestLoadSortsAndSums(t *testing.T) {
	dir := t.TempDir()
	// Deliberately out of id order, split across two files.
	writeSegmentFile(t, dir, "b.jsonl.gz", []string{
		`{"segment":30,"num":5}`,
		`{"segment":10,"num":3}`,
	})
	writeSegmentFile(t, dir, "a.jsonl.gz", []string{
		`{"segment":20,"num":7}`,
	})

	c, err := catalog.Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if c.Len() != 3 {
		t.Fatalf("expected 3 segments, got %d", c.Len())
	}
	if c.TotalItems() != 15 {
		t.Errorf("TotalItems = %d, want 15", c.TotalItems())
	}

	ids := []uint64{}
	for _, seg := range c.Segments() {
		ids = append(ids, seg.ID)
	}
	want := []uint64{10, 20, 30}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("segment order = %v, want %v", ids, want)
		}
	}

	seg, ok := c.Lookup(20)
	if !ok || seg.Items != 7 {
		t.Errorf("Lookup(20) = %+v ok=%v", seg, ok)
	}
	if _, ok := c.Lookup(99); ok {
		t.Error("Lookup(99) should miss")
	}
}

func TestLoadPlainFile(t *testing.T) {
	dir := t.TempDir()
	body := `{"segment":1,"num":4}` + "\n" + `{"segment":2,"num":4}` + "\n"
	if err := os.WriteFile(filepath.Join(dir, "segments.jsonl"), []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	c, err := catalog.Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if c.Len() != 2 || c.TotalItems() != 8 {
		t.Errorf("unexpected catalog: len=%d total=%d", c.Len(), c.TotalItems())
	}
}

func TestLoadDuplicateSegment(t *testing.T) {
	dir := t.TempDir()
	writeSegmentFile(t, dir, "dup.jsonl.gz", []string{
		`{"segment":5,"num":2}`,
		`{"segment":5,"num":9}`,
	})

	_, err := catalog.Load(dir)
	var pe *types.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
	if pe.File != "dup.jsonl.gz" {
		t.Errorf("ParseError file = %q", pe.File)
	}
}

func TestLoadMalformedRecord(t *testing.T) {
	dir := t.TempDir()
	writeSegmentFile(t, dir, "bad.jsonl.gz", []string{
		`{"segment":1,"num":2}`,
		`{"segment":`,
	})

	_, err := catalog.Load(dir)
	var pe *types.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ParseError, got %v", err)
	}
}

func TestLoadEmptyDir(t *testing.T) {
	c, err := catalog.Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if c.Len() != 0 || c.TotalItems() != 0 {
		t.Errorf("expected empty catalog, got len=%d total=%d", c.Len(), c.TotalItems())
	}
}
