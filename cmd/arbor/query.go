package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/arborlabs/arbor/internal/output"
	"github.com/arborlabs/arbor/pkg/grouping"
	"github.com/arborlabs/arbor/pkg/models"
)

func queryCmd() *cli.Command {
	return &cli.Command{
		Name:    "query",
		Aliases: []string{"q"},
		Usage:   "Query stored analysis results",
		Subcommands: []*cli.Command{
			{
				Name:      "function",
				Usage:     "Show the full stored analysis for a function",
				ArgsUsage: "<qualified.function.name>",
				Action:    runQueryFunction,
			},
			{
				Name:      "exceptions",
				Usage:     "List the exceptions a function can raise",
				ArgsUsage: "<qualified.function.name>",
				Action:    runQueryExceptions,
			},
			{
				Name:      "none",
				Usage:     "List where a function can return None",
				ArgsUsage: "<qualified.function.name>",
				Action:    runQueryNone,
			},
			{
				Name:      "risk",
				Usage:     "Show a function's risk level",
				ArgsUsage: "<qualified.function.name>",
				Action:    runQueryRisk,
			},
			{
				Name:      "has",
				Usage:     "Check whether a function can raise a given exception type",
				ArgsUsage: "<qualified.function.name> <ExceptionType>",
				Action:    runQueryHas,
			},
			{
				Name:      "chain",
				Usage:     "Show the call chains that reach a given exception type",
				ArgsUsage: "<qualified.function.name> <ExceptionType>",
				Action:    runQueryChain,
			},
			{
				Name:      "groups",
				Usage:     "Show handler grouping suggestions for a function",
				ArgsUsage: "<qualified.function.name>",
				Action:    runQueryGroups,
			},
			{
				Name:   "list",
				Usage:  "List all analyzed functions",
				Action: runQueryList,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "risk",
						Usage: "Only functions at this risk level: low, medium, high",
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Search the symbol index by name substring",
				ArgsUsage: "<substring>",
				Action:    runQuerySearch,
			},
			{
				Name:   "stats",
				Usage:  "Show distribution statistics over all analyses",
				Action: runQueryStats,
			},
		},
	}
}

// storedAnalysis fetches one function's stored analysis or fails with a
// hint to analyze first.
func storedAnalysis(c *cli.Context) (*models.FunctionAnalysis, error) {
	if c.Args().Len() == 0 {
		return nil, fmt.Errorf("missing function name")
	}
	functionID := c.Args().First()

	db := newService(c).OpenDatabase()
	fn, ok := db.GetFunction(functionID)
	if !ok {
		return nil, fmt.Errorf("%s has not been analyzed; run: arbor analyze %s", functionID, functionID)
	}
	return fn, nil
}

func runQueryFunction(c *cli.Context) error {
	fn, err := storedAnalysis(c)
	if err != nil {
		return err
	}

	formatter, err := newFormatter(c)
	if err != nil {
		return err
	}
	defer formatter.Close()
	return formatter.Output(&output.AnalysisReport{Analysis: fn, ShowChains: true})
}

func runQueryExceptions(c *cli.Context) error {
	fn, err := storedAnalysis(c)
	if err != nil {
		return err
	}

	formatter, err := newFormatter(c)
	if err != nil {
		return err
	}
	defer formatter.Close()

	rows := make([][]string, 0, len(fn.Raises))
	for _, raise := range fn.Raises {
		rows = append(rows, []string{
			raise.ExceptionType,
			raise.RaiseLocation.ShortString(),
			raise.Condition,
			raise.Message,
		})
	}
	table := output.NewTable(
		fmt.Sprintf("Exceptions raised by %s", fn.FunctionID),
		[]string{"Type", "Location", "Condition", "Message"},
		rows, nil, fn.Raises,
	)
	return formatter.Output(table)
}

func runQueryNone(c *cli.Context) error {
	fn, err := storedAnalysis(c)
	if err != nil {
		return err
	}

	formatter, err := newFormatter(c)
	if err != nil {
		return err
	}
	defer formatter.Close()

	rows := make([][]string, 0, len(fn.NoneSources))
	for _, src := range fn.NoneSources {
		rows = append(rows, []string{
			src.Kind.DisplayString(),
			src.Location.ShortString(),
			src.Condition,
		})
	}
	table := output.NewTable(
		fmt.Sprintf("None sources in %s", fn.FunctionID),
		[]string{"Kind", "Location", "Condition"},
		rows, nil, fn.NoneSources,
	)
	return formatter.Output(table)
}

func runQueryRisk(c *cli.Context) error {
	fn, err := storedAnalysis(c)
	if err != nil {
		return err
	}

	risk := fn.Risk()
	fmt.Printf("%s %s: %s (%d exceptions, %d none sources)\n",
		risk.Emoji(), fn.FunctionID, risk, len(fn.Raises), len(fn.NoneSources))
	return nil
}

func runQueryHas(c *cli.Context) error {
	if c.Args().Len() < 2 {
		return fmt.Errorf("usage: arbor query has <function> <ExceptionType>")
	}
	excType := c.Args().Get(1)

	fn, err := storedAnalysis(c)
	if err != nil {
		return err
	}

	for _, raise := range fn.Raises {
		if raise.ExceptionType == excType || raise.QualifiedType == excType {
			color.Red("yes: %s raised at %s", raise.ExceptionType, raise.RaiseLocation.ShortString())
			return nil
		}
	}
	color.Green("no: %s does not raise %s", fn.FunctionID, excType)
	return nil
}

func runQueryChain(c *cli.Context) error {
	if c.Args().Len() < 2 {
		return fmt.Errorf("usage: arbor query chain <function> <ExceptionType>")
	}
	excType := c.Args().Get(1)

	fn, err := storedAnalysis(c)
	if err != nil {
		return err
	}

	prefix := excType + "@"
	found := false

	keys := make([]string, 0, len(fn.CallChains))
	for key := range fn.CallChains {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		found = true
		fmt.Printf("%s\n  %s\n", key, strings.Join(fn.CallChains[key], " -> "))
	}
	if !found {
		return fmt.Errorf("no %s findings recorded for %s", excType, fn.FunctionID)
	}
	return nil
}

func runQueryGroups(c *cli.Context) error {
	fn, err := storedAnalysis(c)
	if err != nil {
		return err
	}

	formatter, err := newFormatter(c)
	if err != nil {
		return err
	}
	defer formatter.Close()

	return formatter.Output(&output.GroupingReport{
		FunctionID:  fn.FunctionID,
		Suggestions: grouping.SuggestGroups(fn.Raises),
	})
}

func runQueryList(c *cli.Context) error {
	db := newService(c).OpenDatabase()

	functions := db.Functions
	if riskFlag := c.String("risk"); riskFlag != "" {
		want := models.RiskLevel(strings.ToLower(riskFlag))
		functions = make(map[string]*models.FunctionAnalysis)
		for id, fn := range db.Functions {
			if fn.Risk() == want {
				functions[id] = fn
			}
		}
	}

	formatter, err := newFormatter(c)
	if err != nil {
		return err
	}
	defer formatter.Close()
	return formatter.Output(&output.FunctionListReport{Functions: functions})
}

func runQuerySearch(c *cli.Context) error {
	if c.Args().Len() == 0 {
		return fmt.Errorf("missing search term")
	}
	term := strings.ToLower(c.Args().First())

	db := newService(c).OpenDatabase()
	if db.SymbolIndex.Len() == 0 {
		return fmt.Errorf("symbol index is empty; run: arbor index")
	}

	var matches []string
	for name := range db.SymbolIndex.Symbols {
		if strings.Contains(strings.ToLower(name), term) {
			matches = append(matches, name)
		}
	}
	sort.Strings(matches)

	if len(matches) == 0 {
		color.Yellow("No symbols match %q", term)
		return nil
	}
	for _, name := range matches {
		loc := db.SymbolIndex.Symbols[name]
		fmt.Printf("%s  %s:%d\n", name, loc.FilePath, loc.LineStart)
	}
	return nil
}

func runQueryStats(c *cli.Context) error {
	svc := newService(c)

	formatter, err := newFormatter(c)
	if err != nil {
		return err
	}
	defer formatter.Close()
	return formatter.Output(&output.StatsReport{Stats: svc.Stats()})
}
