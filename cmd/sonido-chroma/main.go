package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"
)

const appName = "sonido-chroma"

func main() {
	ctx := context.Background()

	appl := &cli.Command{
		Name:  appName,
		Usage: "Chromagram, key and duration analysis for audio files",
		Commands: []*cli.Command{
			analyzeCommand(),
			keyCommand(),
		},
	}

	if err := appl.Run(ctx, os.Args); err != nil {
		slog.Error("failed to run", "error", err)
		os.Exit(1)
	}
}
