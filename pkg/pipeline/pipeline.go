package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/downfa11-org/tombmap/pkg/catalog"
	"github.com/downfa11-org/tombmap/pkg/config"
	"github.com/downfa11-org/tombmap/pkg/layout"
	"github.com/downfa11-org/tombmap/pkg/merge"
	"github.com/downfa11-org/tombmap/pkg/metrics"
	"github.com/downfa11-org/tombmap/pkg/render"
	"github.com/downfa11-org/tombmap/pkg/state"
	"github.com/downfa11-org/tombmap/pkg/types"
	"github.com/downfa11-org/tombmap/util"
)

// Summary reports what one replay run did.
type Summary struct {
	RunID        string
	Segments     int
	TotalItems   uint64
	Events       uint64
	ItemsMutated uint64
	Buckets      uint64
	Frames       uint64
	Anomalies    uint64
	Counts       [types.NumItemStates]uint64
}

type frameJob struct {
	snap *state.Snapshot
	info render.FrameInfo
}

// Run wires catalog -> layout -> merge -> state -> render into one replay.
//
// Event application is strictly sequential; rendering runs on its own
// worker fed point-in-time snapshots, so encoding a frame overlaps the
// next bucket's events. One frame is captured per distinct bucket value,
// numbered in bucket order. Cancellation is honored at bucket boundaries
// only; frames already written always stay on disk.
func Run(ctx context.Context, cfg *config.Config) (*Summary, error) {
	runID := uuid.NewString()
	util.Info("Starting replay run %s", runID)

	cat, err := catalog.Load(cfg.SegmentDir)
	if err != nil {
		return nil, err
	}

	table, err := layout.Build(cat, cfg.OutputSize, cfg.OverflowFactor)
	if err != nil {
		return nil, err
	}
	util.Info("Layout built: %d segments on a %dx%d canvas", cat.Len(), cfg.OutputSize, cfg.OutputSize)

	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	m, err := merge.Open(cfg.EventDir)
	if err != nil {
		return nil, err
	}
	defer func() { _ = m.Close() }()

	store := state.New(table)
	renderer := render.NewRenderer(cfg, table)

	sum := &Summary{RunID: runID, Segments: cat.Len(), TotalItems: cat.TotalItems()}

	// Single render worker keeps frames in bucket order while the applier
	// moves on. The queue depth bounds how far the applier can run ahead.
	jobs := make(chan frameJob, cfg.RenderQueueDepth)
	done := make(chan error, 1)
	var framesWritten uint64

	go func() {
		var werr error
		for job := range jobs {
			if werr != nil {
				continue // drain the queue after a failure
			}
			start := time.Now()
			img := renderer.Render(job.snap, job.info)
			if _, err := renderer.WriteFrame(img, cfg.OutputDir, job.info.Seq); err != nil {
				werr = err
				continue
			}
			metrics.RenderSeconds.Observe(time.Since(start).Seconds())
			metrics.FramesWritten.Inc()
			framesWritten++
			util.Debug("Frame %06d written for bucket %s", job.info.Seq, job.info.Bucket)
		}
		done <- werr
	}()

	// fail flushes in-flight frames before surfacing the error: partial
	// output stays on disk for inspection.
	fail := func(err error) (*Summary, error) {
		close(jobs)
		if werr := <-done; werr != nil {
			util.Error("Render worker failed during shutdown: %v", werr)
		}
		return nil, err
	}

	var (
		curBucket     string
		haveBucket    bool
		seq           int
		bucketActions uint64
		seenAnomalies uint64
		bucketStart   = time.Now()
		firstTime     time.Time
		haveFirst     bool
		prevTime      time.Time
		havePrev      bool
	)

	emit := func() {
		info := render.FrameInfo{Bucket: curBucket, Seq: seq}
		if ts, ok := parseBucket(curBucket); ok {
			if !haveFirst {
				firstTime = ts
				haveFirst = true
			}
			info.Elapsed = ts.Sub(firstTime)
			if havePrev {
				if delta := int64(ts.Sub(prevTime).Seconds()); delta > 0 {
					info.ActionsPerSec = int64(bucketActions) / delta
				}
			}
			prevTime = ts
			havePrev = true
		}

		jobs <- frameJob{snap: store.Snapshot(), info: info}
		seq++
		sum.Buckets++
		metrics.BucketsObserved.Inc()
		metrics.BucketApplySeconds.Observe(time.Since(bucketStart).Seconds())
		for s, n := range store.Counts() {
			metrics.StatePopulation.WithLabelValues(types.ItemState(s).String()).Set(float64(n))
		}
		if a := store.Anomalies(); a > seenAnomalies {
			metrics.Anomalies.Add(float64(a - seenAnomalies))
			seenAnomalies = a
		}

		bucketActions = 0
		bucketStart = time.Now()
	}

	for {
		ev, err := m.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fail(err)
		}

		if haveBucket && ev.Bucket != curBucket {
			emit()
			if cerr := ctx.Err(); cerr != nil {
				util.Warn("Abort requested, stopping before bucket %s", ev.Bucket)
				return fail(cerr)
			}
		}
		if !haveBucket {
			haveBucket = true
		}
		curBucket = ev.Bucket

		n, err := store.Apply(ev)
		if err != nil {
			return fail(err)
		}
		sum.Events++
		sum.ItemsMutated += uint64(n)
		bucketActions += uint64(len(ev.Items))
		metrics.EventsApplied.Inc()
		metrics.ItemsMutated.Add(float64(n))
	}

	if haveBucket {
		emit()
	}
	close(jobs)
	if werr := <-done; werr != nil {
		return nil, werr
	}

	sum.Frames = framesWritten
	sum.Anomalies = store.Anomalies()
	sum.Counts = store.Counts()
	for op, n := range store.UnknownOps() {
		util.Warn("Run %s skipped %d items under unrecognized operation %q", runID, n, op)
	}
	util.Info("Run %s complete: %d events over %d buckets, %d frames written",
		runID, sum.Events, sum.Buckets, sum.Frames)
	return sum, nil
}

// bucketLayouts are tried in order when parsing a bucket label for the
// banner stats. Parsing is best-effort: ordering never depends on it.
var bucketLayouts = []string{
	"2006-01-02 15:04:05.0",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseBucket(label string) (time.Time, bool) {
	for _, layout := range bucketLayouts {
		if ts, err := time.Parse(layout, label); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
