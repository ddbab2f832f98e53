package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	EventsApplied = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tombmap_events_applied_total",
		Help: "Total number of deletion-log events applied to the state store",
	})

	ItemsMutated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tombmap_items_mutated_total",
		Help: "Total number of item cells whose state changed during replay",
	})

	BucketsObserved = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tombmap_buckets_observed_total",
		Help: "Number of distinct time buckets seen in the merged stream",
	})

	FramesWritten = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tombmap_frames_written_total",
		Help: "Number of frame files flushed to the output directory",
	})

	Anomalies = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "tombmap_lifecycle_anomalies_total",
		Help: "Item updates that violated the expected deletion lifecycle",
	})

	StatePopulation = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "tombmap_state_population",
		Help: "Current number of items per lifecycle state",
	}, []string{"state"})

	BucketApplySeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "tombmap_bucket_apply_seconds",
		Help:    "Time spent applying one bucket's worth of events",
		Buckets: prometheus.DefBuckets,
	})

	RenderSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "tombmap_frame_render_seconds",
		Help:    "Time spent rasterizing and encoding one frame",
		Buckets: prometheus.DefBuckets,
	})
)
