package app

import (
	"errors"
	"io/fs"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// BundlesPath points at a descriptor file or a directory of them.
	BundlesPath string
	// WebRoot is the directory assets are served and resolved from.
	WebRoot string

	// Mode is "dev" or "prod".
	Mode string
	// MountPath is the application's mount prefix; request paths are made
	// relative to it before group extraction.
	MountPath string

	ListenAddr  string
	LogFormat   string
	LogLevel    string
	WorkerCount int

	// Assets optionally mounts an fs.FS behind the "embed:" URI scheme.
	Assets fs.FS
}

// NewConfig validates a Config and applies defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.BundlesPath == "" {
		return nil, errors.New("BundlesPath is a required configuration field and cannot be empty")
	}
	if cfg.WebRoot == "" {
		return nil, errors.New("WebRoot is a required configuration field and cannot be empty")
	}
	if cfg.Mode == "" {
		cfg.Mode = "prod"
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8080"
	}
	if cfg.WorkerCount < 1 {
		cfg.WorkerCount = 4
	}
	return &cfg, nil
}
