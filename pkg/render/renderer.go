package render

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/downfa11-org/tombmap/pkg/config"
	"github.com/downfa11-org/tombmap/pkg/layout"
	"github.com/downfa11-org/tombmap/pkg/state"
	"github.com/downfa11-org/tombmap/pkg/types"
	"github.com/downfa11-org/tombmap/util"
)

var (
	colorAlive   = color.RGBA{0, 255, 0, 255}
	colorDeleted = color.RGBA{255, 255, 0, 255}
	colorExpired = color.RGBA{255, 0, 0, 255}
	colorPurged  = color.RGBA{0, 0, 0, 255}
	colorUnused  = color.RGBA{40, 40, 40, 255}
	colorBanner  = color.RGBA{255, 255, 255, 255}
)

func stateColor(s types.ItemState) color.RGBA {
	switch s {
	case types.StateAlive:
		return colorAlive
	case types.StateDeleted:
		return colorDeleted
	case types.StateExpired:
		return colorExpired
	case types.StatePurged:
		return colorPurged
	}
	return colorPurged
}

// Renderer rasterizes state snapshots through the layout table. It never
// mutates the snapshot, so rendering can run on its own worker while the
// applier processes the next bucket.
type Renderer struct {
	table        *layout.Table
	banner       bool
	bannerHeight int
	frameSync    bool
}

func NewRenderer(cfg *config.Config, table *layout.Table) *Renderer {
	return &Renderer{
		table:        table,
		banner:       cfg.EnableBanner,
		bannerHeight: cfg.BannerHeight,
		frameSync:    cfg.FrameSync,
	}
}

// FrameInfo carries the per-bucket stats drawn on the optional banner.
type FrameInfo struct {
	Bucket        string
	Seq           int
	Elapsed       time.Duration
	ActionsPerSec int64
}

// Render paints one pixel per canvas coordinate: the owning cell's state
// color, or the background for unused canvas area. With the banner
// enabled the raster is offset below a stats strip.
func (r *Renderer) Render(snap *state.Snapshot, info FrameInfo) *image.RGBA {
	size := r.table.Size()
	top := 0
	if r.banner {
		top = r.bannerHeight
	}

	img := image.NewRGBA(image.Rect(0, 0, size, size+top))

	if r.banner {
		for y := 0; y < top; y++ {
			for x := 0; x < size; x++ {
				img.SetRGBA(x, y, colorBanner)
			}
		}
		r.drawBanner(img, snap, info)
	}

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := colorUnused
			if cell, ok := r.table.OwnerAt(x, y); ok {
				c = stateColor(snap.Cells[cell])
			}
			img.SetRGBA(x, y+top, c)
		}
	}
	return img
}

func (r *Renderer) drawBanner(img *image.RGBA, snap *state.Snapshot, info FrameInfo) {
	lines := []string{
		fmt.Sprintf("Bucket: %s", info.Bucket),
		fmt.Sprintf("Hours: %d", int(info.Elapsed.Hours())),
		fmt.Sprintf("Alive: %s  Deleted: %s",
			util.FormatCount(snap.Counts[types.StateAlive]),
			util.FormatCount(snap.Counts[types.StateDeleted])),
		fmt.Sprintf("Expired: %s  Purged: %s",
			util.FormatCount(snap.Counts[types.StateExpired]),
			util.FormatCount(snap.Counts[types.StatePurged])),
		fmt.Sprintf("Per second: %s", util.FormatCount(uint64(info.ActionsPerSec))),
	}

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.RGBA{0, 0, 0, 255}),
		Face: basicfont.Face7x13,
	}
	y := 16
	for _, line := range lines {
		if y > r.bannerHeight-4 {
			break
		}
		d.Dot = fixed.P(8, y)
		d.DrawString(line)
		y += 18
	}
}

// WriteFrame encodes the frame as PNG under its zero-padded sequence
// number and pushes it to stable storage.
func (r *Renderer) WriteFrame(img *image.RGBA, dir string, seq int) (string, error) {
	path := filepath.Join(dir, fmt.Sprintf("%06d.png", seq))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create frame %s: %w", path, err)
	}

	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("encode frame %s: %w", path, err)
	}
	if r.frameSync {
		if err := flushFrame(f); err != nil {
			_ = f.Close()
			return "", fmt.Errorf("flush frame %s: %w", path, err)
		}
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close frame %s: %w", path, err)
	}
	return path, nil
}
