// gragen builds a subdivided sphere, derives its vertex graph and writes it
// as a GRA file.
package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/grassfeet/internal/config"
	"github.com/Faultbox/grassfeet/internal/logger"
	"github.com/Faultbox/grassfeet/internal/pipeline"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Parse CLI flags first
	config.ParseFlags()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		return 1
	}

	if path := config.SaveConfigPath(); path != "" {
		if err := cfg.SaveTo(path); err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot save config, %v\n", err)
			return 1
		}
		fmt.Printf("Config written: %s\n", path)
		return 0
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		return 1
	}
	defer logger.Sync()

	logger.Sugar.Debugf("Config: %+v", cfg)

	res, err := pipeline.New(cfg, pipeline.Icosphere, os.Stdout).Run()
	if err != nil {
		logger.Error("generation failed", zap.Error(err))
		return 1
	}

	logger.Info("done",
		zap.String("path", res.Path),
		zap.Int("vertices", res.Vertices),
		zap.Int("groups", res.Groups),
		zap.Int64("bytes", res.Bytes))
	return 0
}
