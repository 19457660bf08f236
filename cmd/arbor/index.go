package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/arborlabs/arbor/internal/output"
	"github.com/arborlabs/arbor/internal/progress"
	"github.com/arborlabs/arbor/internal/service/analysis"
)

func indexCmd() *cli.Command {
	return &cli.Command{
		Name:      "index",
		Aliases:   []string{"i"},
		Usage:     "Build the project symbol index",
		ArgsUsage: "[path...]",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Parallel parse workers (default: CPU count)",
			},
		},
		Action: runIndex,
	}
}

func runIndex(c *cli.Context) error {
	paths := getPaths(c)
	svc := newService(c)

	tracker := progress.NewSpinner("Indexing...")
	result, err := svc.Index(analysis.IndexOptions{
		Paths:      paths,
		Workers:    c.Int("workers"),
		OnProgress: tracker.Tick,
		OnSkip: func(path string, err error) {
			if c.Bool("verbose") {
				fmt.Fprintf(c.App.ErrWriter, "skip %s: %v\n", path, err)
			}
		},
	})
	if err != nil {
		tracker.FinishError(err)
		return fmt.Errorf("indexing failed: %w", err)
	}
	tracker.FinishSuccess()

	if result.Index.Len() == 0 {
		color.Yellow("No Python symbols found under %v", paths)
		return nil
	}

	formatter, err := newFormatter(c)
	if err != nil {
		return err
	}
	defer formatter.Close()

	return formatter.Output(&output.IndexReport{
		Files:    result.Files,
		Symbols:  result.Index.Len(),
		Skipped:  result.Skipped,
		Duration: result.Duration,
	})
}
