// Package config handles generator configuration loading and management.
package config

import (
	"github.com/pkg/errors"
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all generator settings.
type Config struct {
	Mesh     MeshConfig     `yaml:"mesh"`
	Output   OutputConfig   `yaml:"output"`
	Grouping GroupingConfig `yaml:"grouping"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// MeshConfig holds the sphere parameters for the fine and coarse meshes.
type MeshConfig struct {
	Radius            float64 `yaml:"radius"`
	FineSubdivision   int     `yaml:"fine_subdivision"`
	CoarseSubdivision int     `yaml:"coarse_subdivision"` // Format version 2 only
}

// OutputConfig holds the destination file settings.
type OutputConfig struct {
	Path          string `yaml:"output_path"`
	FormatVersion int    `yaml:"format_version"` // 1 or 2
}

// GroupingConfig holds group assignment settings.
type GroupingConfig struct {
	Workers int  `yaml:"workers"` // <= 1 scans on a single goroutine
	Verify  bool `yaml:"verify"`  // Re-check graph invariants before writing
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Mesh: MeshConfig{
			Radius:            92.333333333,
			FineSubdivision:   6,
			CoarseSubdivision: 4,
		},
		Output: OutputConfig{
			Path:          "map-sphere.gra",
			FormatVersion: 2,
		},
		Grouping: GroupingConfig{
			Workers: 1,
			Verify:  false,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate reports the first setting that cannot produce a file.
func (c *Config) Validate() error {
	switch {
	case !(c.Mesh.Radius > 0):
		return errors.Wrapf(ErrInvalidConfig, "mesh.radius must be positive, got %v", c.Mesh.Radius)
	case c.Mesh.FineSubdivision < 0:
		return errors.Wrapf(ErrInvalidConfig, "mesh.fine_subdivision must be >= 0, got %d", c.Mesh.FineSubdivision)
	case c.Output.FormatVersion != 1 && c.Output.FormatVersion != 2:
		return errors.Wrapf(ErrInvalidConfig, "output.format_version must be 1 or 2, got %d", c.Output.FormatVersion)
	case c.Output.FormatVersion == 2 && c.Mesh.CoarseSubdivision < 0:
		return errors.Wrapf(ErrInvalidConfig, "mesh.coarse_subdivision must be >= 0, got %d", c.Mesh.CoarseSubdivision)
	case c.Output.Path == "":
		return errors.Wrap(ErrInvalidConfig, "output.output_path is empty")
	}
	return nil
}
