// Copyright RedactQC Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package config holds the application settings and their YAML loader.
package config

import (
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"

	"redact-qc/internal/paths"
)

// Config holds all tunable settings with their defaults. A subset can be
// overridden from a YAML file; zero values in the file keep the default.
type Config struct {
	// Paths
	DataDir string `yaml:"data_dir"`

	// Server
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// Processing
	WorkerCount int `yaml:"worker_count"`
	ChunkSize   int `yaml:"chunk_size"`

	// Detection
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
	ContextWindow       int     `yaml:"context_window"`

	// Extraction
	NativeMinChars    int `yaml:"native_min_chars"`
	OCRDPI            int `yaml:"ocr_dpi"`
	OCRTimeoutSeconds int `yaml:"ocr_timeout_seconds"`
}

// Default returns the baseline configuration.
func Default() Config {
	workers := runtime.NumCPU() - 1
	if workers < 1 {
		workers = 1
	}
	return Config{
		DataDir:             paths.DataDir(),
		Host:                "127.0.0.1",
		Port:                8000,
		WorkerCount:         workers,
		ChunkSize:           100,
		ConfidenceThreshold: 0.4,
		ContextWindow:       6,
		NativeMinChars:      50,
		OCRDPI:              300,
		OCRTimeoutSeconds:   60,
	}
}

// Load reads a YAML config file over the defaults. A missing file is not an
// error: the defaults are returned unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, cfg.validate()
}

func (c Config) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port out of range: %d", c.Port)
	}
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("confidence_threshold must be in [0,1], got %v", c.ConfidenceThreshold)
	}
	if c.ChunkSize < 1 {
		return fmt.Errorf("chunk_size must be positive, got %d", c.ChunkSize)
	}
	return nil
}
