package output

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/arborlabs/arbor/pkg/grouping"
	"github.com/arborlabs/arbor/pkg/models"
	"github.com/arborlabs/arbor/pkg/stats"
)

// AnalysisReport renders one function analysis across all formats.
type AnalysisReport struct {
	Analysis    *models.FunctionAnalysis `json:"analysis"`
	Suggestions []grouping.Suggestion    `json:"grouping_suggestions,omitempty"`
	ShowChains  bool                     `json:"-"`
}

func (r *AnalysisReport) RenderData() any {
	return r
}

func (r *AnalysisReport) RenderText(w io.Writer, colored bool) error {
	a := r.Analysis

	header := fmt.Sprintf("%s %s", a.Risk().Emoji(), a.FunctionID)
	if colored {
		color.New(color.Bold).Fprintln(w, header)
	} else {
		fmt.Fprintln(w, header)
	}
	fmt.Fprintf(w, "  %s\n", a.Signature)
	fmt.Fprintf(w, "  %s\n", a.Location.ShortString())
	fmt.Fprintf(w, "  traced %d functions, max depth %d\n\n", a.FunctionsTraced, a.CallDepth)

	if len(a.Raises) > 0 {
		if colored {
			color.New(color.Bold).Fprintf(w, "Exceptions (%d)\n", len(a.Raises))
		} else {
			fmt.Fprintf(w, "Exceptions (%d)\n", len(a.Raises))
		}
		for _, raise := range a.Raises {
			name := raise.ExceptionType
			if colored {
				name = SeverityColor("high", name)
			}
			fmt.Fprintf(w, "  %s at %s\n", name, raise.RaiseLocation.ShortString())
			if raise.Condition != "" {
				fmt.Fprintf(w, "    when: %s\n", raise.Condition)
			}
			if raise.Message != "" {
				fmt.Fprintf(w, "    message: %q\n", raise.Message)
			}
			if raise.DefinitionLocation != nil {
				fmt.Fprintf(w, "    defined: %s\n", raise.DefinitionLocation.ShortString())
			}
			if r.ShowChains {
				key := fmt.Sprintf("%s@%s:%d", raise.ExceptionType, raise.RaiseLocation.File, raise.RaiseLocation.Line)
				if chain, ok := a.CallChains[key]; ok {
					fmt.Fprintf(w, "    via: %s\n", strings.Join(chain, " -> "))
				}
			}
		}
		fmt.Fprintln(w)
	}

	if len(a.NoneSources) > 0 {
		if colored {
			color.New(color.Bold).Fprintf(w, "None sources (%d)\n", len(a.NoneSources))
		} else {
			fmt.Fprintf(w, "None sources (%d)\n", len(a.NoneSources))
		}
		for _, src := range a.NoneSources {
			fmt.Fprintf(w, "  %s at %s\n", src.Kind.DisplayString(), src.Location.ShortString())
			if src.Condition != "" {
				fmt.Fprintf(w, "    when: %s\n", src.Condition)
			}
		}
		fmt.Fprintln(w)
	}

	if len(a.Raises) == 0 && len(a.NoneSources) == 0 {
		fmt.Fprintln(w, "No exceptions or None sources found.")
	}

	if len(r.Suggestions) > 0 {
		report := &GroupingReport{FunctionID: a.FunctionID, Suggestions: r.Suggestions}
		return report.RenderText(w, colored)
	}
	return nil
}

func (r *AnalysisReport) RenderMarkdown(w io.Writer) error {
	a := r.Analysis

	fmt.Fprintf(w, "## %s\n\n", a.FunctionID)
	fmt.Fprintf(w, "`%s` at %s\n\n", a.Signature, a.Location.ShortString())
	fmt.Fprintf(w, "- Risk: %s\n- Functions traced: %d\n- Max call depth: %d\n\n",
		a.Risk(), a.FunctionsTraced, a.CallDepth)

	if len(a.Raises) > 0 {
		fmt.Fprintf(w, "### Exceptions (%d)\n\n", len(a.Raises))
		fmt.Fprintln(w, "| Type | Location | Condition | Message |")
		fmt.Fprintln(w, "| --- | --- | --- | --- |")
		for _, raise := range a.Raises {
			fmt.Fprintf(w, "| %s | %s | %s | %s |\n",
				raise.ExceptionType, raise.RaiseLocation.ShortString(), raise.Condition, raise.Message)
		}
		fmt.Fprintln(w)
	}

	if len(a.NoneSources) > 0 {
		fmt.Fprintf(w, "### None sources (%d)\n\n", len(a.NoneSources))
		fmt.Fprintln(w, "| Kind | Location | Condition |")
		fmt.Fprintln(w, "| --- | --- | --- |")
		for _, src := range a.NoneSources {
			fmt.Fprintf(w, "| %s | %s | %s |\n",
				src.Kind.DisplayString(), src.Location.ShortString(), src.Condition)
		}
		fmt.Fprintln(w)
	}

	if len(r.Suggestions) > 0 {
		report := &GroupingReport{FunctionID: a.FunctionID, Suggestions: r.Suggestions}
		return report.RenderMarkdown(w)
	}
	return nil
}

// GroupingReport renders handler grouping suggestions.
type GroupingReport struct {
	FunctionID  string                `json:"function_id"`
	Suggestions []grouping.Suggestion `json:"suggestions"`
}

func (r *GroupingReport) RenderData() any {
	return r
}

func (r *GroupingReport) RenderText(w io.Writer, colored bool) error {
	if len(r.Suggestions) == 0 {
		fmt.Fprintln(w, "No grouping suggestions.")
		return nil
	}

	if colored {
		color.New(color.Bold).Fprintf(w, "Suggested handler groups (%d)\n", len(r.Suggestions))
	} else {
		fmt.Fprintf(w, "Suggested handler groups (%d)\n", len(r.Suggestions))
	}
	for _, s := range r.Suggestions {
		fmt.Fprintf(w, "\n  %s\n", s.GroupName)
		fmt.Fprintf(w, "    %s\n", s.Rationale)
		fmt.Fprintf(w, "    except (%s)\n", strings.Join(s.Exceptions, ", "))
	}
	return nil
}

func (r *GroupingReport) RenderMarkdown(w io.Writer) error {
	fmt.Fprintf(w, "### Suggested handler groups\n\n")
	for _, s := range r.Suggestions {
		fmt.Fprintf(w, "#### %s\n\n%s\n\n", s.GroupName, s.Rationale)
		fmt.Fprintf(w, "```python\n%s\n```\n\n", s.HandlerExample)
	}
	return nil
}

// IndexReport summarizes an indexing run.
type IndexReport struct {
	Files    int           `json:"files"`
	Symbols  int           `json:"symbols"`
	Skipped  int           `json:"skipped"`
	Duration time.Duration `json:"duration"`
}

func (r *IndexReport) RenderData() any { return r }

func (r *IndexReport) RenderText(w io.Writer, colored bool) error {
	line := fmt.Sprintf("Indexed %d symbols from %d files in %s", r.Symbols, r.Files, r.Duration.Round(time.Millisecond))
	if colored {
		color.Green(line)
		return nil
	}
	fmt.Fprintln(w, line)
	if r.Skipped > 0 {
		fmt.Fprintf(w, "Skipped %d files\n", r.Skipped)
	}
	return nil
}

func (r *IndexReport) RenderMarkdown(w io.Writer) error {
	fmt.Fprintf(w, "Indexed **%d** symbols from **%d** files in %s.\n\n", r.Symbols, r.Files, r.Duration.Round(time.Millisecond))
	return nil
}

// StatsReport renders database-wide distribution summaries.
type StatsReport struct {
	Stats stats.DatabaseStats `json:"stats"`
}

func (r *StatsReport) RenderData() any { return r.Stats }

func (r *StatsReport) summaryRows() [][]string {
	row := func(name string, s stats.Summary) []string {
		return []string{
			name,
			fmt.Sprintf("%.2f", s.Mean),
			fmt.Sprintf("%.1f", s.Median),
			fmt.Sprintf("%.1f", s.P90),
			fmt.Sprintf("%.0f", s.Max),
		}
	}
	return [][]string{
		row("Exceptions", r.Stats.Exceptions),
		row("None sources", r.Stats.NoneSources),
		row("Call depth", r.Stats.CallDepth),
	}
}

func (r *StatsReport) RenderText(w io.Writer, colored bool) error {
	if colored {
		color.New(color.Bold).Fprintln(w, "Database statistics")
	} else {
		fmt.Fprintln(w, "Database statistics")
	}
	fmt.Fprintf(w, "  functions: %d  exceptions: %d  none sources: %d  high risk: %d\n\n",
		r.Stats.Functions, r.Stats.TotalExceptions, r.Stats.TotalNoneSources, r.Stats.HighRisk)

	table := NewTable("", []string{"Metric", "Mean", "Median", "P90", "Max"}, r.summaryRows(), nil, nil)
	if err := table.RenderText(w, colored); err != nil {
		return err
	}

	if len(r.Stats.TopExceptionTypes) > 0 {
		fmt.Fprintln(w, "Most raised types:")
		for _, tc := range r.Stats.TopExceptionTypes {
			fmt.Fprintf(w, "  %4d  %s\n", tc.Count, tc.Type)
		}
	}
	return nil
}

func (r *StatsReport) RenderMarkdown(w io.Writer) error {
	fmt.Fprintln(w, "## Database statistics")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "- Functions: %d\n- Exceptions: %d\n- None sources: %d\n- High risk: %d\n\n",
		r.Stats.Functions, r.Stats.TotalExceptions, r.Stats.TotalNoneSources, r.Stats.HighRisk)

	table := NewTable("", []string{"Metric", "Mean", "Median", "P90", "Max"}, r.summaryRows(), nil, nil)
	return table.RenderMarkdown(w)
}

// FunctionListReport renders the stored analyses as a table sorted by
// risk, then exception count.
type FunctionListReport struct {
	Functions map[string]*models.FunctionAnalysis `json:"functions"`
}

func (r *FunctionListReport) RenderData() any { return r.Functions }

func (r *FunctionListReport) rows() [][]string {
	ids := make([]string, 0, len(r.Functions))
	for id := range r.Functions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, b := r.Functions[ids[i]], r.Functions[ids[j]]
		if len(a.Raises) != len(b.Raises) {
			return len(a.Raises) > len(b.Raises)
		}
		return ids[i] < ids[j]
	})

	rows := make([][]string, 0, len(ids))
	for _, id := range ids {
		fn := r.Functions[id]
		rows = append(rows, []string{
			fn.Risk().Emoji(),
			id,
			fmt.Sprintf("%d", len(fn.Raises)),
			fmt.Sprintf("%d", len(fn.NoneSources)),
			fmt.Sprintf("%d", fn.CallDepth),
		})
	}
	return rows
}

func (r *FunctionListReport) RenderText(w io.Writer, colored bool) error {
	if len(r.Functions) == 0 {
		fmt.Fprintln(w, "No analyzed functions in the database.")
		return nil
	}
	table := NewTable("", []string{"", "Function", "Exceptions", "None", "Depth"}, r.rows(), nil, nil)
	return table.RenderText(w, colored)
}

func (r *FunctionListReport) RenderMarkdown(w io.Writer) error {
	table := NewTable("Analyzed functions", []string{"Risk", "Function", "Exceptions", "None", "Depth"}, r.rows(), nil, nil)
	return table.RenderMarkdown(w)
}
