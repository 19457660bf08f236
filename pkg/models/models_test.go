package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeLocationShortString(t *testing.T) {
	loc := NewCodeLocation("app.py", 12)
	assert.Equal(t, "app.py:12", loc.ShortString())

	withCol := loc.WithColumn(4)
	assert.Equal(t, "app.py:12:4", withCol.ShortString())
	// The receiver is unchanged.
	assert.Equal(t, -1, loc.Column)
}

func TestRaiseStatementReRaise(t *testing.T) {
	r := NewRaiseStatement(ReRaiseType, NewCodeLocation("app.py", 3))
	assert.True(t, r.IsReRaise())

	r = NewRaiseStatement("ValueError", NewCodeLocation("app.py", 3))
	assert.False(t, r.IsReRaise())
	assert.Equal(t, "ValueError", r.QualifiedType)
}

func TestNoneSourceKindDisplayString(t *testing.T) {
	assert.Equal(t, "explicit return", NoneExplicitReturn.DisplayString())
	assert.Equal(t, "implicit return", NoneImplicitReturn.DisplayString())
	assert.Equal(t, "function call", NoneFunctionCall.DisplayString())
	assert.Equal(t, "collection access", NoneCollectionAccess.DisplayString())
	assert.Equal(t, "custom", NoneSourceKind("custom").DisplayString())
}

func TestFunctionAnalysisRisk(t *testing.T) {
	a := NewFunctionAnalysis("app.f", "def f(...)", NewCodeLocation("app.py", 1))
	assert.Equal(t, RiskLow, a.Risk())

	for i := 0; i < 5; i++ {
		a.Raises = append(a.Raises, NewRaiseStatement("E", NewCodeLocation("app.py", 2)))
	}
	assert.Equal(t, RiskMedium, a.Risk())

	for i := 0; i < 5; i++ {
		a.Raises = append(a.Raises, NewRaiseStatement("E", NewCodeLocation("app.py", 2)))
	}
	assert.Equal(t, RiskHigh, a.Risk())

	b := NewFunctionAnalysis("app.g", "def g(...)", NewCodeLocation("app.py", 1))
	for i := 0; i < 5; i++ {
		b.NoneSources = append(b.NoneSources, NewNoneSource(NoneExplicitReturn, NewCodeLocation("app.py", 2)))
	}
	assert.Equal(t, RiskHigh, b.Risk())
}

func TestFunctionAnalysisJSONRoundTrip(t *testing.T) {
	a := NewFunctionAnalysis("app.f", "def f(...)", NewCodeLocation("app.py", 1))
	a.CallChains["ValueError@app.py:2"] = []string{"app.f"}
	raise := NewRaiseStatement("ValueError", NewCodeLocation("app.py", 2))
	def := NewCodeLocation("errors.py", 1)
	raise.DefinitionLocation = &def
	a.Raises = append(a.Raises, raise)

	data, err := json.Marshal(a)
	require.NoError(t, err)

	var decoded FunctionAnalysis
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, a.FunctionID, decoded.FunctionID)
	require.Len(t, decoded.Raises, 1)
	require.NotNil(t, decoded.Raises[0].DefinitionLocation)
	assert.Equal(t, "errors.py", decoded.Raises[0].DefinitionLocation.File)
	assert.Equal(t, a.CallChains, decoded.CallChains)
}

func TestSymbolIndex(t *testing.T) {
	idx := NewSymbolIndex()
	assert.Equal(t, 0, idx.Len())
	assert.Nil(t, idx.IndexedAt)

	idx.Add("app.f", SymbolLocation{FilePath: "app.py", LineStart: 1, LineEnd: 3})
	assert.Equal(t, 1, idx.Len())
	assert.True(t, idx.Contains("app.f"))

	loc, ok := idx.Get("app.f")
	require.True(t, ok)
	assert.Equal(t, "app.py", loc.FilePath)

	idx.MarkIndexed()
	assert.NotNil(t, idx.IndexedAt)
}

func TestSymbolLocationRoundTrip(t *testing.T) {
	loc := SymbolLocation{FilePath: "c.py", LineStart: 5, LineEnd: 9, IsMethod: true, ParentClass: "C"}
	resolved := loc.ToResolved("app.C.m")

	assert.Equal(t, "app.C.m", resolved.FunctionName)
	assert.Equal(t, loc, resolved.ToSymbolLocation())
}

func TestCallGraph(t *testing.T) {
	g := NewCallGraph()
	g.AddCall("a", "b")
	g.AddCall("a", "c")
	g.AddCall("b", "c")

	assert.Equal(t, []string{"b", "c"}, g.Callees("a"))
	assert.Equal(t, []string{"a", "b"}, g.Callers("c"))
	assert.Nil(t, g.Callees("unknown"))
}

func TestRiskLevelEmoji(t *testing.T) {
	assert.Equal(t, "🔴", RiskHigh.Emoji())
	assert.Equal(t, "🟡", RiskMedium.Emoji())
	assert.Equal(t, "🟢", RiskLow.Emoji())
}
