package output

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arborlabs/arbor/pkg/models"
)

func TestParseFormat(t *testing.T) {
	assert.Equal(t, FormatJSON, ParseFormat("json"))
	assert.Equal(t, FormatMarkdown, ParseFormat("markdown"))
	assert.Equal(t, FormatMarkdown, ParseFormat("md"))
	assert.Equal(t, FormatTOON, ParseFormat("toon"))
	assert.Equal(t, FormatText, ParseFormat("text"))
	assert.Equal(t, FormatText, ParseFormat("anything-else"))
}

func sampleReport() *AnalysisReport {
	a := models.NewFunctionAnalysis("app.process", "def process(...)", models.NewCodeLocation("app.py", 4))
	raise := models.NewRaiseStatement("ValueError", models.NewCodeLocation("app.py", 6))
	raise.Condition = "x < 0"
	raise.Message = "negative"
	a.Raises = append(a.Raises, raise)
	a.NoneSources = append(a.NoneSources, models.NewNoneSource(models.NoneExplicitReturn, models.NewCodeLocation("app.py", 9)))
	a.FunctionsTraced = 3
	a.CallDepth = 1
	a.CallChains["ValueError@app.py:6"] = []string{"app.process", "app.helper"}
	return &AnalysisReport{Analysis: a}
}

func TestAnalysisReportText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleReport().RenderText(&buf, false))
	out := buf.String()

	assert.Contains(t, out, "app.process")
	assert.Contains(t, out, "def process(...)")
	assert.Contains(t, out, "traced 3 functions, max depth 1")
	assert.Contains(t, out, "ValueError at app.py:6")
	assert.Contains(t, out, "when: x < 0")
	assert.Contains(t, out, `message: "negative"`)
	assert.Contains(t, out, "explicit return at app.py:9")
	assert.NotContains(t, out, "via:")
}

func TestAnalysisReportTextChains(t *testing.T) {
	report := sampleReport()
	report.ShowChains = true

	var buf bytes.Buffer
	require.NoError(t, report.RenderText(&buf, false))
	assert.Contains(t, buf.String(), "via: app.process -> app.helper")
}

func TestAnalysisReportTextEmpty(t *testing.T) {
	a := models.NewFunctionAnalysis("app.safe", "def safe(...)", models.NewCodeLocation("app.py", 1))
	a.FunctionsTraced = 1

	var buf bytes.Buffer
	require.NoError(t, (&AnalysisReport{Analysis: a}).RenderText(&buf, false))
	assert.Contains(t, buf.String(), "No exceptions or None sources found.")
}

func TestAnalysisReportMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, sampleReport().RenderMarkdown(&buf))
	out := buf.String()

	assert.Contains(t, out, "## app.process")
	assert.Contains(t, out, "| Type | Location | Condition | Message |")
	assert.Contains(t, out, "| ValueError | app.py:6 | x < 0 | negative |")
}

func TestFormatterJSON(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/out.json"

	f, err := NewFormatter(FormatJSON, path, false)
	require.NoError(t, err)

	require.NoError(t, f.Output(sampleReport()))
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded struct {
		Analysis struct {
			FunctionID string `json:"function_id"`
		} `json:"analysis"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "app.process", decoded.Analysis.FunctionID)
}

func TestFormatterTOON(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/out.toon"

	f, err := NewFormatter(FormatTOON, path, false)
	require.NoError(t, err)

	require.NoError(t, f.Output(map[string]any{"name": "arbor"}))
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "arbor")
}

func TestTableRenderText(t *testing.T) {
	table := NewTable("Findings", []string{"Type", "Count"}, [][]string{
		{"ValueError", "2"},
		{"KeyError", "1"},
	}, nil, nil)

	var buf bytes.Buffer
	require.NoError(t, table.RenderText(&buf, false))
	out := buf.String()

	assert.Contains(t, out, "Findings")
	assert.Contains(t, out, "ValueError")
	assert.Contains(t, out, "KeyError")
}

func TestTableRenderMarkdown(t *testing.T) {
	table := NewTable("Findings", []string{"Type", "Count"}, [][]string{
		{"ValueError", "2"},
	}, nil, nil)

	var buf bytes.Buffer
	require.NoError(t, table.RenderMarkdown(&buf))
	out := buf.String()

	assert.Contains(t, out, "| Type | Count |")
	assert.Contains(t, out, "| ValueError | 2 |")
}

func TestIndexReport(t *testing.T) {
	report := &IndexReport{Files: 12, Symbols: 48, Skipped: 1, Duration: 250 * time.Millisecond}

	var buf bytes.Buffer
	require.NoError(t, report.RenderText(&buf, false))
	out := buf.String()

	assert.Contains(t, out, "12")
	assert.Contains(t, out, "48")
}

func TestFunctionListReportSorted(t *testing.T) {
	a := models.NewFunctionAnalysis("app.low", "def low(...)", models.NewCodeLocation("a.py", 1))
	b := models.NewFunctionAnalysis("app.high", "def high(...)", models.NewCodeLocation("a.py", 5))
	for i := 0; i < 3; i++ {
		b.Raises = append(b.Raises, models.NewRaiseStatement("ValueError", models.NewCodeLocation("a.py", 6)))
	}

	report := &FunctionListReport{Functions: map[string]*models.FunctionAnalysis{
		"app.low":  a,
		"app.high": b,
	}}

	var buf bytes.Buffer
	require.NoError(t, report.RenderText(&buf, false))
	out := buf.String()

	high := strings.Index(out, "app.high")
	low := strings.Index(out, "app.low")
	require.GreaterOrEqual(t, high, 0)
	require.GreaterOrEqual(t, low, 0)
	assert.Less(t, high, low, "functions should sort by raise count descending")
}
