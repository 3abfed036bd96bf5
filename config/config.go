// Package config loads and validates the service configuration.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/atlasgrid/geochange/core/dataset"
	"github.com/atlasgrid/geochange/core/metrics"
	"github.com/atlasgrid/geochange/infra/mqtt"
)

// Config is the root service configuration.
type Config struct {
	Server   ServerConfig   `json:"server"`
	Datasets dataset.Config `json:"datasets"`
	Output   OutputConfig   `json:"output"`
	Storage  StorageConfig  `json:"storage"`
	Analysis AnalysisConfig `json:"analysis"`
	Ingest   mqtt.Config    `json:"ingest"`
	Metrics  metrics.Config `json:"metrics"`
}

// ServerConfig holds the API listener settings.
type ServerConfig struct {
	Addr string `json:"addr"`
}

// SetDefaults applies sane defaults.
func (c *ServerConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8000"
	}
}

// OutputConfig names the artifact directories.
type OutputConfig struct {
	GeoJSONDir       string `json:"geojson_dir"`
	VisualizationDir string `json:"visualization_dir"`
}

// SetDefaults applies sane defaults.
func (c *OutputConfig) SetDefaults() {
	if c.GeoJSONDir == "" {
		c.GeoJSONDir = filepath.Join("outputs", "geojson")
	}
	if c.VisualizationDir == "" {
		c.VisualizationDir = filepath.Join("outputs", "visualizations")
	}
}

// StorageConfig locates the run-history database.
type StorageConfig struct {
	// Path is the SQLite database file. Empty disables persistence.
	Path string `json:"path"`
}

// AnalysisConfig tunes the change-detection engine.
type AnalysisConfig struct {
	// CoordinatePrecision is the number of decimal places used to match
	// coordinates across snapshots. Valid range is [1, 9]; zero means the
	// default of 6.
	CoordinatePrecision int `json:"coordinate_precision"`
}

// SetDefaults applies sane defaults.
func (c *AnalysisConfig) SetDefaults() {
	if c.CoordinatePrecision == 0 {
		c.CoordinatePrecision = 6
	}
}

// Validate checks the precision bounds.
func (c AnalysisConfig) Validate() error {
	if c.CoordinatePrecision < 1 || c.CoordinatePrecision > 9 {
		return fmt.Errorf("coordinate_precision must be within [1, 9], got %d", c.CoordinatePrecision)
	}
	return nil
}

// Load reads the configuration from path. YAML and JSON files are supported;
// environment variables prefixed with GC_ override file values, with "__"
// standing in for the key separator.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("GC_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "gc_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Server.SetDefaults()
	cfg.Output.SetDefaults()
	cfg.Analysis.SetDefaults()
	cfg.Ingest.SetDefaults()
	cfg.Metrics.SetDefaults()
	if err := cfg.Analysis.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Ingest.Validate(); err != nil {
		return nil, err
	}
	if len(cfg.Datasets) == 0 {
		return nil, fmt.Errorf("at least one dataset must be configured")
	}
	for site, sc := range cfg.Datasets {
		if err := sc.Validate(); err != nil {
			return nil, fmt.Errorf("dataset %q: %w", site, err)
		}
	}
	return &cfg, nil
}
