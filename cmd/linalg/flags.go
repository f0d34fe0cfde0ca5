package main

import (
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/linalg/internal/logger"
	"github.com/samcharles93/linalg/pkg/einsum"
)

var (
	parallelism int64
	sizeAlpha   float64
	flopsAlpha  float64
	boundsCheck bool
	logLevel    string
	logFormat   string
	debug       bool

	shapes     []string
	inputPath  string
	inputNames []string
	seed       int64
)

func engineFlags() []cli.Flag {
	return []cli.Flag{
		&cli.Int64Flag{
			Name:        "parallelism",
			Aliases:     []string{"j"},
			Usage:       "workers per fan-out (0 = half the hardware threads)",
			Destination: &parallelism,
		},
		&cli.FloatFlag{
			Name:        "size-alpha",
			Usage:       "planner weight of operand sizes",
			Value:       1,
			Destination: &sizeAlpha,
		},
		&cli.FloatFlag{
			Name:        "flops-alpha",
			Usage:       "planner weight of multiply count",
			Value:       0,
			Destination: &flopsAlpha,
		},
		&cli.BoolFlag{
			Name:        "bounds-check",
			Usage:       "verify tensor views against their buffers",
			Value:       true,
			Destination: &boundsCheck,
		},
	}
}

func operandFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:        "shape",
			Aliases:     []string{"s"},
			Usage:       "operand shape such as 3x4, once per operand",
			Destination: &shapes,
		},
		&cli.StringFlag{
			Name:        "input",
			Aliases:     []string{"i"},
			Usage:       "read operands from a .safetensors file",
			Destination: &inputPath,
		},
		&cli.StringSliceFlag{
			Name:        "name",
			Usage:       "tensor name in --input, once per operand (default: sorted names)",
			Destination: &inputNames,
		},
		&cli.Int64Flag{
			Name:        "seed",
			Usage:       "seed for random operands",
			Value:       1,
			Destination: &seed,
		},
	}
}

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text, none)",
			Value:       "pretty",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}

func commonFlags(extra ...cli.Flag) []cli.Flag {
	flags := append(engineFlags(), loggingFlags()...)
	return append(flags, extra...)
}

func newLogger() (logger.Logger, error) {
	level := logLevel
	if debug {
		level = "debug"
	}
	return logger.ForFormat(logFormat, os.Stderr, logger.ParseLevel(level))
}

func engineConfig(log logger.Logger) einsum.Config {
	cfg := einsum.DefaultConfig()
	if parallelism > 0 {
		cfg.Parallelism = int(parallelism)
	}
	cfg.SizeAlpha = sizeAlpha
	cfg.FlopsAlpha = flopsAlpha
	cfg.BoundsCheck = boundsCheck
	cfg.Logger = log
	return cfg
}
