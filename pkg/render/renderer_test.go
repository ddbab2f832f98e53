package render_test

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/downfa11-org/tombmap/pkg/catalog"
	"github.com/downfa11-org/tombmap/pkg/config"
	"github.com/downfa11-org/tombmap/pkg/layout"
	"github.com/downfa11-org/tombmap/pkg/render"
	"github.com/downfa11-org/tombmap/pkg/state"
	"github.com/downfa11-org/tombmap/pkg/types"
)

func testConfig() *config.Config {
	cfg := &config.Config{OutputSize: 4, FrameSync: false}
	cfg.Normalize()
	return cfg
}

func buildFixture(t *testing.T) (*layout.Table, *state.Store) {
	t.Helper()
	cat := catalog.FromSegments([]types.Segment{
		{ID: 1, Items: 8},
		{ID: 2, Items: 8},
	})
	table, err := layout.Build(cat, 4, 4)
	if err != nil {
		t.Fatalf("layout.Build: %v", err)
	}
	return table, state.New(table)
}

func TestRenderPixelColors(t *testing.T) {
	table, store := buildFixture(t)

	if _, err := store.Apply(&types.Event{Bucket: "t1", Operation: types.OpDelete, Segment: 1, Items: []uint64{0, 1}}); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	r := render.NewRenderer(testConfig(), table)
	img := r.Render(store.Snapshot(), render.FrameInfo{Bucket: "t1"})

	b := img.Bounds()
	if b.Dx() != 4 || b.Dy() != 4 {
		t.Fatalf("frame bounds = %v, want 4x4", b)
	}

	// Deleted items paint yellow, everything else green; the canvas is
	// exactly full so there is no background.
	wantDeleted := map[[2]int]bool{}
	for _, item := range []uint64{0, 1} {
		x, y, ok := table.Coord(1, item)
		if !ok {
			t.Fatalf("Coord(1,%d) not mapped", item)
		}
		wantDeleted[[2]int{x, y}] = true
	}

	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			c := img.RGBAAt(x, y)
			if wantDeleted[[2]int{x, y}] {
				if c.R != 255 || c.G != 255 || c.B != 0 {
					t.Errorf("pixel (%d,%d) = %v, want deleted yellow", x, y, c)
				}
			} else if c.G != 255 || c.R != 0 {
				t.Errorf("pixel (%d,%d) = %v, want alive green", x, y, c)
			}
		}
	}
}

func TestRenderBackgroundForUnusedCanvas(t *testing.T) {
	cat := catalog.FromSegments([]types.Segment{{ID: 1, Items: 4}})
	table, err := layout.Build(cat, 4, 4)
	if err != nil {
		t.Fatalf("layout.Build: %v", err)
	}
	store := state.New(table)

	r := render.NewRenderer(testConfig(), table)
	img := r.Render(store.Snapshot(), render.FrameInfo{})

	background := 0
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if _, owned := table.OwnerAt(x, y); !owned {
				background++
				c := img.RGBAAt(x, y)
				if c.G == 255 {
					t.Errorf("unowned pixel (%d,%d) painted as a state", x, y)
				}
			}
		}
	}
	if background != 12 {
		t.Errorf("expected 12 background pixels, got %d", background)
	}
}

func TestRenderBannerExtendsFrame(t *testing.T) {
	table, store := buildFixture(t)
	cfg := testConfig()
	cfg.EnableBanner = true
	cfg.BannerHeight = 120

	r := render.NewRenderer(cfg, table)
	img := r.Render(store.Snapshot(), render.FrameInfo{Bucket: "t1"})

	b := img.Bounds()
	if b.Dx() != 4 || b.Dy() != 124 {
		t.Errorf("banner frame bounds = %v, want 4x124", b)
	}
}

func TestWriteFrame(t *testing.T) {
	table, store := buildFixture(t)
	dir := t.TempDir()

	r := render.NewRenderer(testConfig(), table)
	img := r.Render(store.Snapshot(), render.FrameInfo{})

	path, err := r.WriteFrame(img, dir, 0)
	if err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	if filepath.Base(path) != "000000.png" {
		t.Errorf("frame name = %s, want 000000.png", filepath.Base(path))
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open frame: %v", err)
	}
	defer func() { _ = f.Close() }()

	decoded, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	if decoded.Bounds().Dx() != 4 || decoded.Bounds().Dy() != 4 {
		t.Errorf("decoded bounds = %v", decoded.Bounds())
	}
}
