package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arborlabs/arbor/pkg/models"
	"github.com/arborlabs/arbor/pkg/parser"
)

func parseSource(t *testing.T, source string) *parser.ParseResult {
	t.Helper()
	p := parser.New()
	t.Cleanup(p.Close)
	res, err := p.Parse([]byte(source), "test.py")
	require.NoError(t, err)
	return res
}

func TestExtractRaisesSimple(t *testing.T) {
	res := parseSource(t, `def f():
    raise ValueError("bad value")
`)
	raises := ExtractRaises(res)
	require.Len(t, raises, 1)

	assert.Equal(t, "ValueError", raises[0].ExceptionType)
	assert.Equal(t, "ValueError", raises[0].QualifiedType)
	assert.Equal(t, "bad value", raises[0].Message)
	assert.Equal(t, uint32(2), raises[0].RaiseLocation.Line)
	assert.Equal(t, "test.py", raises[0].RaiseLocation.File)
	assert.False(t, raises[0].IsReRaise())
}

func TestExtractRaisesBareReRaise(t *testing.T) {
	res := parseSource(t, `def f():
    try:
        g()
    except Exception:
        raise
`)
	raises := ExtractRaises(res)
	require.Len(t, raises, 1)

	assert.Equal(t, models.ReRaiseType, raises[0].ExceptionType)
	assert.True(t, raises[0].IsReRaise())
	assert.Empty(t, raises[0].Message)
}

func TestExtractRaisesWithoutCall(t *testing.T) {
	res := parseSource(t, `def f():
    raise ValueError
`)
	raises := ExtractRaises(res)
	require.Len(t, raises, 1)
	assert.Equal(t, "ValueError", raises[0].ExceptionType)
	assert.Empty(t, raises[0].Message)
}

func TestExtractRaisesAttributeType(t *testing.T) {
	res := parseSource(t, `def f():
    raise errors.CustomError("boom")
`)
	raises := ExtractRaises(res)
	require.Len(t, raises, 1)
	assert.Equal(t, "errors.CustomError", raises[0].ExceptionType)
	assert.Equal(t, "boom", raises[0].Message)
}

func TestExtractRaisesGuardingCondition(t *testing.T) {
	res := parseSource(t, `def f(x):
    if x < 0:
        raise ValueError("negative")
    return x
`)
	raises := ExtractRaises(res)
	require.Len(t, raises, 1)
	assert.Equal(t, "x < 0", raises[0].Condition)
}

func TestExtractRaisesNoCondition(t *testing.T) {
	res := parseSource(t, `def f():
    raise RuntimeError("always")
`)
	raises := ExtractRaises(res)
	require.Len(t, raises, 1)
	assert.Empty(t, raises[0].Condition)
}

func TestExtractRaisesInRange(t *testing.T) {
	res := parseSource(t, `def first():
    raise ValueError("one")


def second():
    raise KeyError("two")
`)
	all := ExtractRaises(res)
	require.Len(t, all, 2)

	raises := ExtractRaisesInRange(res, LineRange{Start: 1, End: 3})
	require.Len(t, raises, 1)
	assert.Equal(t, "ValueError", raises[0].ExceptionType)

	raises = ExtractRaisesInRange(res, LineRange{Start: 5, End: 7})
	require.Len(t, raises, 1)
	assert.Equal(t, "KeyError", raises[0].ExceptionType)
}

func TestExtractRaisesMultipleInOneFunction(t *testing.T) {
	res := parseSource(t, `def f(x):
    if x is None:
        raise TypeError("none")
    if x < 0:
        raise ValueError("negative")
    raise RuntimeError("unreachable")
`)
	raises := ExtractRaises(res)
	require.Len(t, raises, 3)
	assert.Equal(t, "TypeError", raises[0].ExceptionType)
	assert.Equal(t, "ValueError", raises[1].ExceptionType)
	assert.Equal(t, "RuntimeError", raises[2].ExceptionType)
}

func TestLineRangeContains(t *testing.T) {
	r := LineRange{Start: 3, End: 7}
	assert.True(t, r.Contains(3))
	assert.True(t, r.Contains(5))
	assert.True(t, r.Contains(7))
	assert.False(t, r.Contains(2))
	assert.False(t, r.Contains(8))
}

func TestExtractNoneSourcesExplicitReturn(t *testing.T) {
	res := parseSource(t, `def f(x):
    if x is None:
        return None
    return x
`)
	sources := ExtractNoneSources(res)
	require.Len(t, sources, 1)
	assert.Equal(t, models.NoneExplicitReturn, sources[0].Kind)
	assert.Equal(t, uint32(3), sources[0].Location.Line)
	assert.Equal(t, "x is None", sources[0].Condition)
}

func TestExtractNoneSourcesImplicitReturn(t *testing.T) {
	res := parseSource(t, `def f(x):
    if not x:
        return
    process(x)
`)
	sources := ExtractNoneSources(res)
	require.Len(t, sources, 1)
	assert.Equal(t, models.NoneImplicitReturn, sources[0].Kind)
}

func TestExtractNoneSourcesValueReturnIgnored(t *testing.T) {
	res := parseSource(t, `def f(x):
    return x + 1
`)
	sources := ExtractNoneSources(res)
	assert.Empty(t, sources)
}

func TestExtractNoneSourcesDictGet(t *testing.T) {
	res := parseSource(t, `def f(d):
    value = d.get("key")
    return value
`)
	sources := ExtractNoneSources(res)
	require.Len(t, sources, 1)
	assert.Equal(t, models.NoneCollectionAccess, sources[0].Kind)
	assert.Equal(t, uint32(2), sources[0].Location.Line)
}

func TestExtractNoneSourcesPop(t *testing.T) {
	res := parseSource(t, `def f(d):
    return d.pop("key", None)
`)
	sources := ExtractNoneSources(res)
	require.Len(t, sources, 1)
	assert.Equal(t, models.NoneFunctionCall, sources[0].Kind)
}

func TestExtractNoneSourcesBareGetIgnored(t *testing.T) {
	// A plain function named get is not a receiver method.
	res := parseSource(t, `def f():
    return get()
`)
	sources := ExtractNoneSources(res)
	assert.Empty(t, sources)
}

func TestExtractNoneSourcesInRange(t *testing.T) {
	res := parseSource(t, `def first(d):
    return d.get("a")


def second():
    return None
`)
	sources := ExtractNoneSourcesInRange(res, LineRange{Start: 5, End: 6})
	require.Len(t, sources, 1)
	assert.Equal(t, models.NoneExplicitReturn, sources[0].Kind)
}
