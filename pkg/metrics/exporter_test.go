package metrics_test

import (
	"testing"

	"github.com/downfa11-org/tombmap/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

func TestCollectorsRegistered(t *testing.T) {
	metrics.EventsApplied.Inc()
	metrics.StatePopulation.WithLabelValues("alive").Set(42)

	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}

	found := map[string]bool{}
	for _, mf := range families {
		found[mf.GetName()] = true
	}
	for _, name := range []string{
		"tombmap_events_applied_total",
		"tombmap_state_population",
		"tombmap_frames_written_total",
		"tombmap_frame_render_seconds",
	} {
		if !found[name] {
			t.Errorf("collector %s not registered", name)
		}
	}
}
