package models

// CallGraph records caller/callee edges accumulated across analyses.
type CallGraph struct {
	Calls    map[string][]string `json:"calls"`
	CalledBy map[string][]string `json:"called_by"`
}

// NewCallGraph creates an empty graph.
func NewCallGraph() *CallGraph {
	return &CallGraph{
		Calls:    make(map[string][]string),
		CalledBy: make(map[string][]string),
	}
}

// AddCall records a caller -> callee edge in both directions.
func (g *CallGraph) AddCall(caller, callee string) {
	g.Calls[caller] = append(g.Calls[caller], callee)
	g.CalledBy[callee] = append(g.CalledBy[callee], caller)
}

// Callees returns the functions called by the given function.
func (g *CallGraph) Callees(function string) []string {
	return g.Calls[function]
}

// Callers returns the functions that call the given function.
func (g *CallGraph) Callers(function string) []string {
	return g.CalledBy[function]
}
