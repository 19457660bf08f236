package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	toon "github.com/toon-format/toon-go"

	"github.com/arborlabs/arbor/internal/service/analysis"
	"github.com/arborlabs/arbor/pkg/grouping"
	"github.com/arborlabs/arbor/pkg/models"
)

// AnalyzeFunctionInput selects a function and traversal parameters.
type AnalyzeFunctionInput struct {
	Function string `json:"function" jsonschema:"Fully qualified Python function name, e.g. mypackage.api.get_data or requests.sessions.Session.request."`
	Depth    int    `json:"depth,omitempty" jsonschema:"Maximum call-graph depth to traverse. Defaults to the configured limit."`
	Venv     string `json:"venv,omitempty" jsonschema:"Path to a virtualenv whose site-packages should be searched."`
	NoCache  bool   `json:"no_cache,omitempty" jsonschema:"Skip the result cache and re-traverse."`
	Format   string `json:"format,omitempty" jsonschema:"Output format: toon (default) or json."`
}

// QueryFunctionInput looks up a stored analysis.
type QueryFunctionInput struct {
	Function string `json:"function" jsonschema:"Fully qualified function name previously analyzed."`
	Aspect   string `json:"aspect,omitempty" jsonschema:"Which findings to return: all (default), exceptions, none, or chains."`
	Format   string `json:"format,omitempty" jsonschema:"Output format: toon (default) or json."`
}

// IndexProjectInput selects directories to index.
type IndexProjectInput struct {
	Paths  []string `json:"paths,omitempty" jsonschema:"Directories to index. Defaults to the configured python_path."`
	Format string   `json:"format,omitempty" jsonschema:"Output format: toon (default) or json."`
}

// ListFunctionsInput filters the stored analyses.
type ListFunctionsInput struct {
	Risk   string `json:"risk,omitempty" jsonschema:"Only functions at this risk level: low, medium, or high."`
	Format string `json:"format,omitempty" jsonschema:"Output format: toon (default) or json."`
}

// SuggestGroupsInput selects a function for handler grouping.
type SuggestGroupsInput struct {
	Function string `json:"function" jsonschema:"Fully qualified function name previously analyzed."`
	Format   string `json:"format,omitempty" jsonschema:"Output format: toon (default) or json."`
}

// ProjectStatsInput has only formatting options.
type ProjectStatsInput struct {
	Format string `json:"format,omitempty" jsonschema:"Output format: toon (default) or json."`
}

func formatOutput(data any, format string) (string, error) {
	if strings.ToLower(format) == "json" {
		out, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return "", err
		}
		return string(out), nil
	}
	out, err := toon.Marshal(data, toon.WithIndent(2))
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func toolResult(data any, format string) (*mcp.CallToolResult, any, error) {
	text, err := formatOutput(data, format)
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}, nil, nil
}

func toolError(msg string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "Error: " + msg},
		},
		IsError: true,
	}, nil, nil
}

func handleAnalyzeFunction(ctx context.Context, req *mcp.CallToolRequest, input AnalyzeFunctionInput) (*mcp.CallToolResult, any, error) {
	if input.Function == "" {
		return toolError("function is required")
	}

	svc := analysis.New()
	result, err := svc.Analyze(input.Function, analysis.AnalyzeOptions{
		MaxDepth: input.Depth,
		Venv:     input.Venv,
		NoCache:  input.NoCache,
		Suggest:  true,
	})
	if err != nil {
		return toolError(err.Error())
	}

	out := struct {
		Analysis    *models.FunctionAnalysis `json:"analysis" toon:"analysis"`
		Suggestions []grouping.Suggestion    `json:"suggestions,omitempty" toon:"suggestions,omitempty"`
		FromCache   bool                     `json:"from_cache" toon:"from_cache"`
	}{result.Analysis, result.Suggestions, result.FromCache}
	return toolResult(out, input.Format)
}

func handleQueryFunction(ctx context.Context, req *mcp.CallToolRequest, input QueryFunctionInput) (*mcp.CallToolResult, any, error) {
	if input.Function == "" {
		return toolError("function is required")
	}

	svc := analysis.New()
	db := svc.OpenDatabase()
	fn, ok := db.GetFunction(input.Function)
	if !ok {
		return toolError(fmt.Sprintf("%s has not been analyzed; run analyze_function first", input.Function))
	}

	switch strings.ToLower(input.Aspect) {
	case "exceptions":
		return toolResult(fn.Raises, input.Format)
	case "none":
		return toolResult(fn.NoneSources, input.Format)
	case "chains":
		return toolResult(fn.CallChains, input.Format)
	default:
		return toolResult(fn, input.Format)
	}
}

func handleIndexProject(ctx context.Context, req *mcp.CallToolRequest, input IndexProjectInput) (*mcp.CallToolResult, any, error) {
	svc := analysis.New()
	result, err := svc.Index(analysis.IndexOptions{Paths: input.Paths})
	if err != nil {
		return toolError(err.Error())
	}

	out := struct {
		Files    int    `json:"files" toon:"files"`
		Symbols  int    `json:"symbols" toon:"symbols"`
		Skipped  int    `json:"skipped,omitempty" toon:"skipped,omitempty"`
		Duration string `json:"duration" toon:"duration"`
	}{result.Files, result.Index.Len(), result.Skipped, result.Duration.String()}
	return toolResult(out, input.Format)
}

func handleListFunctions(ctx context.Context, req *mcp.CallToolRequest, input ListFunctionsInput) (*mcp.CallToolResult, any, error) {
	svc := analysis.New()
	db := svc.OpenDatabase()

	type entry struct {
		Function   string `json:"function" toon:"function"`
		Risk       string `json:"risk" toon:"risk"`
		Exceptions int    `json:"exceptions" toon:"exceptions"`
		NoneCount  int    `json:"none_sources" toon:"none_sources"`
	}

	wantRisk := models.RiskLevel(strings.ToLower(input.Risk))
	var entries []entry
	for id, fn := range db.Functions {
		if input.Risk != "" && fn.Risk() != wantRisk {
			continue
		}
		entries = append(entries, entry{
			Function:   id,
			Risk:       string(fn.Risk()),
			Exceptions: len(fn.Raises),
			NoneCount:  len(fn.NoneSources),
		})
	}
	return toolResult(entries, input.Format)
}

func handleSuggestGroups(ctx context.Context, req *mcp.CallToolRequest, input SuggestGroupsInput) (*mcp.CallToolResult, any, error) {
	if input.Function == "" {
		return toolError("function is required")
	}

	svc := analysis.New()
	db := svc.OpenDatabase()
	fn, ok := db.GetFunction(input.Function)
	if !ok {
		return toolError(fmt.Sprintf("%s has not been analyzed; run analyze_function first", input.Function))
	}
	return toolResult(grouping.SuggestGroups(fn.Raises), input.Format)
}

func handleProjectStats(ctx context.Context, req *mcp.CallToolRequest, input ProjectStatsInput) (*mcp.CallToolResult, any, error) {
	svc := analysis.New()
	return toolResult(svc.Stats(), input.Format)
}
