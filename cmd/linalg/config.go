package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/samcharles93/linalg/internal/logger"
)

// Config represents the linalg configuration file
// ($XDG_CONFIG_HOME/linalg/config.yaml). Pointer fields distinguish "not
// set" from zero values.
type Config struct {
	Parallelism *int64   `yaml:"parallelism"`
	SizeAlpha   *float64 `yaml:"size_alpha"`
	FlopsAlpha  *float64 `yaml:"flops_alpha"`
	BoundsCheck *bool    `yaml:"bounds_check"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	ServerAddress string `yaml:"server_address"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "linalg", "config.yaml")
}

// LoadConfig reads the config file at path. A missing file yields a zero
// Config; a malformed one is an error.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return Config{}, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Config{}, nil
	}
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// applyEngineConfig applies config file defaults to the engine and logging
// variables when the matching flag was not set.
func applyEngineConfig(c *cli.Command, cfg Config) {
	if cfg.Parallelism != nil && !c.IsSet("parallelism") {
		parallelism = *cfg.Parallelism
	}
	if cfg.SizeAlpha != nil && !c.IsSet("size-alpha") {
		sizeAlpha = *cfg.SizeAlpha
	}
	if cfg.FlopsAlpha != nil && !c.IsSet("flops-alpha") {
		flopsAlpha = *cfg.FlopsAlpha
	}
	if cfg.BoundsCheck != nil && !c.IsSet("bounds-check") {
		boundsCheck = *cfg.BoundsCheck
	}
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
}

// applyServeConfig applies config file defaults to serve command variables.
func applyServeConfig(c *cli.Command, cfg Config, addr *string) {
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
}

// setup loads the config file, overlays it on unset flags and builds the
// logger every command uses.
func setup(c *cli.Command) (Config, logger.Logger, error) {
	cfg, err := LoadConfig(configPath())
	if err != nil {
		return Config{}, nil, cli.Exit(fmt.Sprintf("error: %v", err), 1)
	}
	applyEngineConfig(c, cfg)
	log, err := newLogger()
	if err != nil {
		return Config{}, nil, cli.Exit(fmt.Sprintf("error: %v", err), 1)
	}
	return cfg, log, nil
}
