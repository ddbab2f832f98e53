package config

import (
	"github.com/downfa11-org/tombmap/util"
)

// Normalize fills defaults and clamps invalid values.
func (cfg *Config) Normalize() {
	if cfg.OutputSize < 0 {
		util.Warn("Invalid output_size (%d), defaulting to 1024", cfg.OutputSize)
		cfg.OutputSize = 1024
	}

	if cfg.OverflowFactor <= 0 {
		cfg.OverflowFactor = 4
	}

	if cfg.BannerHeight <= 0 {
		cfg.BannerHeight = 120
	}
	if cfg.RenderQueueDepth <= 0 {
		cfg.RenderQueueDepth = 1
	}

	if cfg.ExporterPort <= 0 {
		cfg.ExporterPort = 9100
	}
}
