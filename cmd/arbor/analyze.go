package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/arborlabs/arbor/internal/output"
	"github.com/arborlabs/arbor/internal/progress"
	"github.com/arborlabs/arbor/internal/service/analysis"
)

func analyzeCmd() *cli.Command {
	return &cli.Command{
		Name:      "analyze",
		Aliases:   []string{"a"},
		Usage:     "Trace exceptions and None sources for one or more functions",
		ArgsUsage: "<qualified.function.name>...",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "depth",
				Aliases: []string{"d"},
				Usage:   "Maximum call-graph depth (default: configured limit)",
			},
			&cli.StringFlag{
				Name:  "venv",
				Usage: "Virtualenv whose site-packages should be searched",
			},
			&cli.BoolFlag{
				Name:  "suggest",
				Usage: "Include handler grouping suggestions",
			},
			&cli.BoolFlag{
				Name:  "chains",
				Usage: "Show the call chain for each finding",
			},
		},
		Action: runAnalyze,
	}
}

func runAnalyze(c *cli.Context) error {
	if c.Args().Len() == 0 {
		return fmt.Errorf("missing function name, e.g. arbor analyze mypackage.api.get_data")
	}
	functionIDs := c.Args().Slice()

	svc := newService(c)
	opts := analysis.AnalyzeOptions{
		MaxDepth: c.Int("depth"),
		Venv:     c.String("venv"),
		NoCache:  c.Bool("no-cache"),
		Suggest:  c.Bool("suggest"),
	}

	if len(functionIDs) == 1 {
		result, err := svc.Analyze(functionIDs[0], opts)
		if err != nil {
			return err
		}
		return outputAnalysis(c, result)
	}

	tracker := progress.NewTracker("Analyzing", len(functionIDs))
	results := make([]*analysis.AnalyzeResult, 0, len(functionIDs))
	var failed []error
	for _, id := range functionIDs {
		tracker.Describe(id)
		result, err := svc.Analyze(id, opts)
		tracker.Tick()
		if err != nil {
			failed = append(failed, fmt.Errorf("%s: %w", id, err))
			continue
		}
		results = append(results, result)
	}
	tracker.FinishSuccess()

	formatter, err := newFormatter(c)
	if err != nil {
		return err
	}
	defer formatter.Close()

	for _, result := range results {
		if err := formatter.Output(&output.AnalysisReport{
			Analysis:    result.Analysis,
			Suggestions: result.Suggestions,
			ShowChains:  c.Bool("chains"),
		}); err != nil {
			return err
		}
	}
	for _, ferr := range failed {
		formatter.Error("analysis failed: %v", ferr)
	}
	if len(results) == 0 && len(failed) > 0 {
		return failed[0]
	}
	return nil
}

func outputAnalysis(c *cli.Context, result *analysis.AnalyzeResult) error {
	formatter, err := newFormatter(c)
	if err != nil {
		return err
	}
	defer formatter.Close()

	return formatter.Output(&output.AnalysisReport{
		Analysis:    result.Analysis,
		Suggestions: result.Suggestions,
		ShowChains:  c.Bool("chains"),
	})
}
