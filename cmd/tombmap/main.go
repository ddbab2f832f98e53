package main

import (
	"context"
	"fmt"
	"log"
	"os/signal"
	"syscall"

	"github.com/downfa11-org/tombmap/pkg/config"
	"github.com/downfa11-org/tombmap/pkg/metrics"
	"github.com/downfa11-org/tombmap/pkg/pipeline"
	"github.com/downfa11-org/tombmap/pkg/types"
	"github.com/downfa11-org/tombmap/util"
)

func main() {
	// Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}
	util.SetLevel(cfg.LogLevel)

	fmt.Printf("🚀 Replaying %s onto a %dx%d canvas\n", cfg.EventDir, cfg.OutputSize, cfg.OutputSize)
	fmt.Printf("🖼️ Frames: %s | 📊 Exporter: %v\n", cfg.OutputDir, cfg.EnableExporter)

	if cfg.EnableExporter {
		metrics.StartMetricsServer(cfg.ExporterPort)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sum, err := pipeline.Run(ctx, cfg)
	if err != nil {
		log.Fatalf("❌ Replay failed: %v", err)
	}

	fmt.Printf("✅ Run %s finished\n", sum.RunID)
	fmt.Printf("📦 Segments: %s | Items: %s\n",
		util.FormatCount(uint64(sum.Segments)), util.FormatCount(sum.TotalItems))
	fmt.Printf("⏱ Events: %s over %s buckets | 🖼️ Frames: %s\n",
		util.FormatCount(sum.Events), util.FormatCount(sum.Buckets), util.FormatCount(sum.Frames))
	fmt.Printf("🟢 Alive: %s | 🟡 Deleted: %s | 🔴 Expired: %s | ⚫ Purged: %s\n",
		util.FormatCount(sum.Counts[types.StateAlive]),
		util.FormatCount(sum.Counts[types.StateDeleted]),
		util.FormatCount(sum.Counts[types.StateExpired]),
		util.FormatCount(sum.Counts[types.StatePurged]))
	if sum.Anomalies > 0 {
		fmt.Printf("⚠️ Lifecycle anomalies: %s\n", util.FormatCount(sum.Anomalies))
	}
}
