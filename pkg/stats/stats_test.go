package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arborlabs/arbor/pkg/models"
)

func analysisWith(id string, raises []string, noneCount, depth int) *models.FunctionAnalysis {
	a := models.NewFunctionAnalysis(id, "def f(...)", models.NewCodeLocation("f.py", 1))
	for _, excType := range raises {
		a.Raises = append(a.Raises, models.NewRaiseStatement(excType, models.NewCodeLocation("f.py", 2)))
	}
	for i := 0; i < noneCount; i++ {
		a.NoneSources = append(a.NoneSources, models.NewNoneSource(models.NoneExplicitReturn, models.NewCodeLocation("f.py", 3)))
	}
	a.CallDepth = depth
	return a
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	assert.Equal(t, 0, s.Count)
	assert.Zero(t, s.Mean)
	assert.Zero(t, s.Max)
}

func TestSummarizeSingleValue(t *testing.T) {
	s := Summarize([]float64{4})
	assert.Equal(t, 1, s.Count)
	assert.Equal(t, 4.0, s.Mean)
	assert.Equal(t, 4.0, s.Median)
	assert.Equal(t, 4.0, s.Max)
	assert.Zero(t, s.StdDev)
}

func TestSummarize(t *testing.T) {
	s := Summarize([]float64{1, 2, 3, 4, 10})
	assert.Equal(t, 5, s.Count)
	assert.InDelta(t, 4.0, s.Mean, 1e-9)
	assert.Equal(t, 3.0, s.Median)
	assert.Equal(t, 10.0, s.Max)
	assert.Greater(t, s.StdDev, 0.0)
	assert.GreaterOrEqual(t, s.P90, s.Median)
}

func TestCollectEmpty(t *testing.T) {
	stats := Collect(map[string]*models.FunctionAnalysis{})
	assert.Equal(t, 0, stats.Functions)
	assert.Equal(t, 0, stats.TotalExceptions)
	assert.Empty(t, stats.TopExceptionTypes)
}

func TestCollect(t *testing.T) {
	functions := map[string]*models.FunctionAnalysis{
		"app.a": analysisWith("app.a", []string{"ValueError", "KeyError"}, 1, 2),
		"app.b": analysisWith("app.b", []string{"ValueError"}, 0, 1),
		"app.c": analysisWith("app.c", nil, 0, 0),
	}

	stats := Collect(functions)

	assert.Equal(t, 3, stats.Functions)
	assert.Equal(t, 3, stats.TotalExceptions)
	assert.Equal(t, 1, stats.TotalNoneSources)
	assert.Equal(t, 3, stats.Exceptions.Count)
	assert.Equal(t, 2.0, stats.CallDepth.Max)

	require.NotEmpty(t, stats.TopExceptionTypes)
	assert.Equal(t, "ValueError", stats.TopExceptionTypes[0].Type)
	assert.Equal(t, 2, stats.TopExceptionTypes[0].Count)
}

func TestCollectHighRisk(t *testing.T) {
	risky := analysisWith("app.risky", []string{
		"E1", "E2", "E3", "E4", "E5", "E6", "E7", "E8", "E9", "E10",
	}, 0, 1)
	calm := analysisWith("app.calm", []string{"E1"}, 0, 1)

	stats := Collect(map[string]*models.FunctionAnalysis{
		"app.risky": risky,
		"app.calm":  calm,
	})

	assert.Equal(t, 1, stats.HighRisk)
}

func TestCollectTopTypesLimit(t *testing.T) {
	var raises []string
	for _, r := range []rune("abcdefghijklmn") {
		raises = append(raises, "Error"+string(r))
	}
	stats := Collect(map[string]*models.FunctionAnalysis{
		"app.f": analysisWith("app.f", raises, 0, 0),
	})

	assert.Len(t, stats.TopExceptionTypes, 10)
}
