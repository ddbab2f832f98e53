package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/downfa11-org/tombmap/util"
	"gopkg.in/yaml.v3"
)

// Config holds every tunable of a replay run. The four input/output fields
// come from the positional command-line arguments; everything else has a
// default filled in by Normalize and can be overridden by flags or an
// optional YAML/JSON config file.
type Config struct {
	// Run inputs and output (positional arguments)
	SegmentDir string `yaml:"segment_dir" json:"segment.dir"`
	EventDir   string `yaml:"event_dir" json:"event.dir"`
	OutputDir  string `yaml:"output_dir" json:"output.dir"`
	OutputSize int    `yaml:"output_size" json:"output.size"`

	LogLevel util.LogLevel `yaml:"log_level" json:"log_level"`

	// Layout
	OverflowFactor float64 `yaml:"overflow_factor" json:"overflow.factor"`

	// Rendering
	EnableBanner     bool `yaml:"enable_banner" json:"banner.enable"`
	BannerHeight     int  `yaml:"banner_height" json:"banner.height"`
	RenderQueueDepth int  `yaml:"render_queue_depth" json:"render.queue.depth"`
	FrameSync        bool `yaml:"frame_sync" json:"frame.sync"`

	// Observability
	EnableExporter bool `yaml:"enable_exporter" json:"enable.exporter"`
	ExporterPort   int  `yaml:"exporter_port" json:"exporter.port"`
}

// LoadConfig parses flags, the optional config file, and the four
// positional arguments: segment dir, event dir, output dir, canvas size.
func LoadConfig() (*Config, error) {
	cfg := &Config{}

	configPath := flag.String("config", "", "Path to YAML/JSON config file")
	logLevelStr := flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	exporterStr := flag.String("exporter", "false", "Enable Prometheus exporter")
	exporterPortStr := flag.String("exporter-port", "9100", "Exporter port")
	overflowStr := flag.String("overflow-factor", "4", "Max total items per canvas pixel before the layout is rejected")
	bannerStr := flag.String("banner", "false", "Draw a stats banner above each frame")
	frameSyncStr := flag.String("frame-sync", "true", "fsync each frame file after writing")

	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" && *configPath == "" {
		*configPath = envPath
	}

	flag.Parse()

	cfg.LogLevel = util.ParseLogLevel(*logLevelStr)
	cfg.EnableExporter = util.ParseBool(*exporterStr, false)
	cfg.ExporterPort = util.ParseInt(*exporterPortStr, 9100)
	cfg.OverflowFactor = util.ParseFloat(*overflowStr, 4)
	cfg.EnableBanner = util.ParseBool(*bannerStr, false)
	cfg.FrameSync = util.ParseBool(*frameSyncStr, true)

	if *configPath != "" {
		data, err := os.ReadFile(*configPath)
		if err != nil {
			return nil, err
		}
		if strings.HasSuffix(*configPath, ".json") {
			if err := json.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", *configPath, err)
			}
		} else {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", *configPath, err)
			}
		}
	}

	args := flag.Args()
	if len(args) != 4 {
		return nil, fmt.Errorf("usage: tombmap [flags] <segment-dir> <event-dir> <output-dir> <output-size>, got %d arguments", len(args))
	}
	cfg.SegmentDir = args[0]
	cfg.EventDir = args[1]
	cfg.OutputDir = args[2]
	cfg.OutputSize = util.ParseInt(args[3], 0)
	if cfg.OutputSize <= 0 {
		return nil, fmt.Errorf("output size must be a positive integer, got %q", args[3])
	}

	cfg.Normalize()
	return cfg, nil
}
