// Package stats computes distribution summaries over a set of analyzed
// functions, for the query stats surface.
package stats

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/arborlabs/arbor/pkg/models"
)

// Summary describes the distribution of one metric.
type Summary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	P90    float64 `json:"p90"`
	Max    float64 `json:"max"`
	StdDev float64 `json:"std_dev"`
}

// Summarize computes a Summary over raw values. Values are sorted in place.
func Summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}

	sort.Float64s(values)

	s := Summary{
		Count:  len(values),
		Mean:   stat.Mean(values, nil),
		Median: stat.Quantile(0.5, stat.Empirical, values, nil),
		P90:    stat.Quantile(0.9, stat.Empirical, values, nil),
		Max:    values[len(values)-1],
	}
	if len(values) > 1 {
		s.StdDev = stat.StdDev(values, nil)
	}
	return s
}

// TypeCount is an exception type with its occurrence count.
type TypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// DatabaseStats aggregates every analyzed function in a database.
type DatabaseStats struct {
	Functions         int         `json:"functions"`
	TotalExceptions   int         `json:"total_exceptions"`
	TotalNoneSources  int         `json:"total_none_sources"`
	HighRisk          int         `json:"high_risk"`
	Exceptions        Summary     `json:"exceptions"`
	NoneSources       Summary     `json:"none_sources"`
	CallDepth         Summary     `json:"call_depth"`
	TopExceptionTypes []TypeCount `json:"top_exception_types"`
}

// topTypesLimit caps the exception-type leaderboard.
const topTypesLimit = 10

// Collect builds DatabaseStats from analyzed functions.
func Collect(functions map[string]*models.FunctionAnalysis) DatabaseStats {
	ds := DatabaseStats{Functions: len(functions)}
	if len(functions) == 0 {
		return ds
	}

	excCounts := make([]float64, 0, len(functions))
	noneCounts := make([]float64, 0, len(functions))
	depths := make([]float64, 0, len(functions))
	typeCounts := make(map[string]int)

	for _, fn := range functions {
		excCounts = append(excCounts, float64(len(fn.Raises)))
		noneCounts = append(noneCounts, float64(len(fn.NoneSources)))
		depths = append(depths, float64(fn.CallDepth))

		ds.TotalExceptions += len(fn.Raises)
		ds.TotalNoneSources += len(fn.NoneSources)
		if fn.Risk() == models.RiskHigh {
			ds.HighRisk++
		}
		for _, r := range fn.Raises {
			typeCounts[r.ExceptionType]++
		}
	}

	ds.Exceptions = Summarize(excCounts)
	ds.NoneSources = Summarize(noneCounts)
	ds.CallDepth = Summarize(depths)
	ds.TopExceptionTypes = topTypes(typeCounts, topTypesLimit)
	return ds
}

// topTypes returns the most frequent types, count descending with name as
// tiebreaker.
func topTypes(counts map[string]int, limit int) []TypeCount {
	out := make([]TypeCount, 0, len(counts))
	for t, c := range counts {
		out = append(out, TypeCount{Type: t, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Type < out[j].Type
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
