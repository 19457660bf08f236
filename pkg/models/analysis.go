package models

// FunctionAnalysis aggregates everything a traversal discovered starting
// from one root function. Constructed fresh per analyze call and not
// mutated afterwards.
type FunctionAnalysis struct {
	FunctionID  string           `json:"function_id"`
	Signature   string           `json:"signature"`
	Location    CodeLocation     `json:"location"`
	Raises      []RaiseStatement `json:"raises"`
	NoneSources []NoneSource     `json:"none_sources"`

	// FunctionsTraced counts attempted visits, including functions whose
	// resolution later failed.
	FunctionsTraced int `json:"functions_traced"`

	// CallDepth is the maximum BFS depth actually reached.
	CallDepth int `json:"call_depth"`

	// CallChains maps a finding key ("type@file:line") to the qualified-name
	// chain from the root to the function that produced the finding. The
	// first chain discovered for a key wins.
	CallChains map[string][]string `json:"call_chains"`
}

// NewFunctionAnalysis creates an empty analysis for the given root.
func NewFunctionAnalysis(functionID, signature string, location CodeLocation) *FunctionAnalysis {
	return &FunctionAnalysis{
		FunctionID:  functionID,
		Signature:   signature,
		Location:    location,
		Raises:      []RaiseStatement{},
		NoneSources: []NoneSource{},
		CallChains:  make(map[string][]string),
	}
}

// ExceptionCount returns the number of discovered raise sites.
func (a *FunctionAnalysis) ExceptionCount() int {
	return len(a.Raises)
}

// NoneSourceCount returns the number of discovered None origins.
func (a *FunctionAnalysis) NoneSourceCount() int {
	return len(a.NoneSources)
}

// Risk classifies the analysis by finding volume.
func (a *FunctionAnalysis) Risk() RiskLevel {
	exc := a.ExceptionCount()
	none := a.NoneSourceCount()

	switch {
	case exc >= 10 || none >= 5:
		return RiskHigh
	case exc >= 5 || none >= 2:
		return RiskMedium
	default:
		return RiskLow
	}
}

// RiskLevel is a coarse classification of how failure-prone a function is.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Emoji returns the terminal indicator for the risk level.
func (r RiskLevel) Emoji() string {
	switch r {
	case RiskHigh:
		return "🔴"
	case RiskMedium:
		return "🟡"
	default:
		return "🟢"
	}
}

// SingleFunctionAnalysis holds the findings of one visited function before
// aggregation: its raise sites, None origins, and outgoing call names.
type SingleFunctionAnalysis struct {
	Raises      []RaiseStatement
	NoneSources []NoneSource
	Calls       []string
}
