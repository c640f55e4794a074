package config

import "flag"

var (
	flagConfig  = flag.String("config", "", "Path to config file")
	flagDebug   = flag.Bool("debug", false, "Enable debug logging and graph verification")
	flagRadius  = flag.Float64("radius", 0, "Sphere radius for fine and coarse mesh")
	flagFine    = flag.Int("fine", -1, "Subdivision level of the fine mesh")
	flagCoarse  = flag.Int("coarse", -1, "Subdivision level of the coarse mesh (format 2)")
	flagOutput  = flag.String("out", "", "Output file path")
	flagFormat  = flag.Int("format", 0, "Output format version (1 or 2)")
	flagWorkers = flag.Int("workers", 0, "Goroutines used for group assignment")

	flagSaveConfig = flag.String("save-config", "", "Write the effective config to this path and exit")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// SaveConfigPath returns the path given via --save-config, if any.
func SaveConfigPath() string {
	return *flagSaveConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
		cfg.Grouping.Verify = true
	}
	if *flagRadius > 0 {
		cfg.Mesh.Radius = *flagRadius
	}
	if *flagFine >= 0 {
		cfg.Mesh.FineSubdivision = *flagFine
	}
	if *flagCoarse >= 0 {
		cfg.Mesh.CoarseSubdivision = *flagCoarse
	}
	if *flagOutput != "" {
		cfg.Output.Path = *flagOutput
	}
	if *flagFormat > 0 {
		cfg.Output.FormatVersion = *flagFormat
	}
	if *flagWorkers > 0 {
		cfg.Grouping.Workers = *flagWorkers
	}
}
