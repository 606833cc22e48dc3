package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/RyanBlaney/sonido-chroma/algorithms/tonal"
	"github.com/RyanBlaney/sonido-chroma/analysis"
	"github.com/RyanBlaney/sonido-chroma/config"
	"github.com/RyanBlaney/sonido-chroma/logging"
	"github.com/RyanBlaney/sonido-chroma/transcode"
)

var errInvalidArgCount = errors.New("expected exactly one argument: audio file path")

func commonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "JSON configuration file layered over the defaults",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn, error",
			Value: "warn",
		},
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format: console, json, markdown",
			Value:   "console",
		},
		&cli.StringFlag{
			Name:  "ffmpeg",
			Usage: "Path to the ffmpeg binary used for container formats",
			Value: "ffmpeg",
		},
	}
}

func analyzeCommand() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Usage:     "Compute the chromagram, key and duration of an audio file",
		ArgsUsage: "<file>",
		Flags: append(commonFlags(),
			&cli.BoolFlag{
				Name:  "show-chroma",
				Usage: "Include the enhanced chromagram, one row per pitch class",
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			engine, data, err := prepare(ctx, cmd)
			if err != nil {
				return err
			}
			defer engine.Close()

			result, err := engine.Analyze(data.PCM)
			if err != nil {
				return fmt.Errorf("analysis failed: %w", err)
			}

			return outputAnalysis(data, result, cmd.String("format"), cmd.Bool("show-chroma"))
		},
	}
}

func keyCommand() *cli.Command {
	return &cli.Command{
		Name:      "key",
		Usage:     "Estimate only the musical key of an audio file",
		ArgsUsage: "<file>",
		Flags:     commonFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			engine, data, err := prepare(ctx, cmd)
			if err != nil {
				return err
			}
			defer engine.Close()

			est, err := engine.Key(data.PCM)
			if err != nil && !errors.Is(err, tonal.ErrDegenerateInput) {
				return fmt.Errorf("key estimation failed: %w", err)
			}

			return outputKey(data, est, err == nil, cmd.String("format"))
		},
	}
}

// prepare configures logging, loads the configuration and the audio file, and builds an engine
func prepare(ctx context.Context, cmd *cli.Command) (*analysis.Engine, *transcode.AudioData, error) {
	if cmd.NArg() != 1 {
		return nil, nil, fmt.Errorf("%w: got %d", errInvalidArgCount, cmd.NArg())
	}

	level, err := logging.ParseLevel(cmd.String("log-level"))
	if err != nil {
		return nil, nil, err
	}
	logger := logging.NewDefaultLogger()
	logger.SetLevel(level)
	logging.SetGlobalLogger(logger)

	cfg := config.DefaultConfig()
	if path := cmd.String("config"); path != "" {
		if cfg, err = config.Load(path); err != nil {
			return nil, nil, err
		}
	}

	decoderConfig := transcode.DefaultDecoderConfig()
	decoderConfig.FFmpegPath = cmd.String("ffmpeg")
	decoderConfig.TargetSampleRate = cfg.SampleRate

	inputPath := cmd.Args().First()
	data, err := transcode.Load(ctx, inputPath, transcode.NewDecoder(decoderConfig))
	if err != nil {
		return nil, nil, fmt.Errorf("loading %s: %w", inputPath, err)
	}

	engine, err := analysis.NewEngine(cfg)
	if err != nil {
		return nil, nil, err
	}

	return engine, data, nil
}
