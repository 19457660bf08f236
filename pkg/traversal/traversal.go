// Package traversal walks the call graph of a Python function breadth-first
// and aggregates every raise site and None origin reachable from it.
package traversal

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/arborlabs/arbor/pkg/extractor"
	"github.com/arborlabs/arbor/pkg/models"
	"github.com/arborlabs/arbor/pkg/parser"
	"github.com/arborlabs/arbor/pkg/resolver"
)

// DefaultMaxDepth bounds traversal when the caller does not choose one.
const DefaultMaxDepth = 5

// Engine drives breadth-first call-graph traversal. The symbol index, when
// present, short-circuits filesystem resolution and enables project-local
// exception definition lookup.
type Engine struct {
	resolver *resolver.Resolver
	index    *models.SymbolIndex
	graph    *models.CallGraph
	maxDepth int
	parser   *parser.Parser
}

// Option configures an Engine.
type Option func(*Engine)

// WithSymbolIndex supplies a prebuilt symbol index consulted before the
// filesystem resolver.
func WithSymbolIndex(index *models.SymbolIndex) Option {
	return func(e *Engine) { e.index = index }
}

// WithCallGraph records every traversed edge into graph as a side effect.
func WithCallGraph(graph *models.CallGraph) Option {
	return func(e *Engine) { e.graph = graph }
}

// WithMaxDepth overrides the traversal depth ceiling.
func WithMaxDepth(depth int) Option {
	return func(e *Engine) { e.maxDepth = depth }
}

// New creates an Engine over the given resolver.
func New(res *resolver.Resolver, opts ...Option) *Engine {
	e := &Engine{
		resolver: res,
		maxDepth: DefaultMaxDepth,
		parser:   parser.New(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Close releases the engine's parser.
func (e *Engine) Close() {
	e.parser.Close()
}

// queueItem is one pending function in the BFS frontier, carrying the chain
// of function IDs that led to it.
type queueItem struct {
	functionID string
	depth      int
	callChain  []string
}

// internTable assigns dense uint32 ids to function IDs so the visited set
// can live in a compressed bitmap.
type internTable struct {
	ids  map[string]uint32
	next uint32
}

func newInternTable() *internTable {
	return &internTable{ids: make(map[string]uint32)}
}

func (t *internTable) id(functionID string) uint32 {
	if id, ok := t.ids[functionID]; ok {
		return id
	}
	id := t.next
	t.ids[functionID] = id
	t.next++
	return id
}

// AnalyzeFunction traverses the call graph rooted at functionID and returns
// the aggregated analysis. Unresolvable callees are skipped, not fatal:
// third-party and stdlib calls routinely fall outside the search roots.
// Functions are counted as traced when dequeued, before resolution is
// attempted, so the count reflects traversal effort rather than hit rate.
func (e *Engine) AnalyzeFunction(functionID string) (*models.FunctionAnalysis, error) {
	if functionID == "" {
		return nil, fmt.Errorf("empty function id")
	}

	intern := newInternTable()
	visited := roaring.New()

	var allRaises []models.RaiseStatement
	var allNoneSources []models.NoneSource
	callChains := make(map[string][]string)
	functionsTraced := 0
	maxCallDepth := 0

	queue := []queueItem{{
		functionID: functionID,
		depth:      0,
		callChain:  []string{functionID},
	}}

	var rootLocation *models.CodeLocation
	rootSignature := ""

	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		id := intern.id(item.functionID)
		if visited.Contains(id) {
			continue
		}
		if item.depth > e.maxDepth {
			continue
		}

		visited.Add(id)
		functionsTraced++
		if item.depth > maxCallDepth {
			maxCallDepth = item.depth
		}

		resolved, err := e.resolveFunction(item.functionID)
		if err != nil {
			continue
		}

		if item.depth == 0 {
			loc := models.NewCodeLocation(resolved.FilePath, resolved.LineStart)
			rootLocation = &loc
			rootSignature = fmt.Sprintf("def %s(...)", resolved.FunctionName)
		}

		single, err := e.analyzeSingle(resolved, item.functionID)
		if err != nil {
			continue
		}

		for _, raise := range single.Raises {
			key := fmt.Sprintf("%s@%s:%d", raise.ExceptionType, raise.RaiseLocation.File, raise.RaiseLocation.Line)
			if _, seen := callChains[key]; !seen {
				callChains[key] = item.callChain
			}
			allRaises = append(allRaises, raise)
		}

		for _, src := range single.NoneSources {
			key := fmt.Sprintf("%s@%s:%d", src.Kind, src.Location.File, src.Location.Line)
			if _, seen := callChains[key]; !seen {
				callChains[key] = item.callChain
			}
			allNoneSources = append(allNoneSources, src)
		}

		for _, call := range single.Calls {
			if e.graph != nil {
				e.graph.AddCall(item.functionID, call)
			}
			if visited.Contains(intern.id(call)) {
				continue
			}
			chain := make([]string, len(item.callChain), len(item.callChain)+1)
			copy(chain, item.callChain)
			queue = append(queue, queueItem{
				functionID: call,
				depth:      item.depth + 1,
				callChain:  append(chain, call),
			})
		}
	}

	location := models.NewCodeLocation("unknown", 0)
	if rootLocation != nil {
		location = *rootLocation
	}

	analysis := &models.FunctionAnalysis{
		FunctionID:      functionID,
		Signature:       rootSignature,
		Location:        location,
		Raises:          allRaises,
		NoneSources:     allNoneSources,
		FunctionsTraced: functionsTraced,
		CallDepth:       maxCallDepth,
		CallChains:      callChains,
	}
	return analysis, nil
}

// resolveFunction consults the symbol index before falling back to the
// filesystem resolver.
func (e *Engine) resolveFunction(functionID string) (models.ResolvedFunction, error) {
	if e.index != nil {
		if loc, ok := e.index.Get(functionID); ok {
			parts := strings.Split(functionID, ".")
			return models.ResolvedFunction{
				FilePath:     loc.FilePath,
				FunctionName: parts[len(parts)-1],
				LineStart:    loc.LineStart,
				LineEnd:      loc.LineEnd,
				IsMethod:     loc.IsMethod,
				ParentClass:  loc.ParentClass,
			}, nil
		}
	}
	return e.resolver.Resolve(functionID)
}

// analyzeSingle extracts raises, None sources, and outgoing calls from one
// resolved function body.
func (e *Engine) analyzeSingle(resolved models.ResolvedFunction, functionID string) (*models.SingleFunctionAnalysis, error) {
	source, err := os.ReadFile(resolved.FilePath)
	if err != nil {
		return nil, err
	}
	res, err := e.parser.Parse(source, resolved.FilePath)
	if err != nil {
		return nil, err
	}

	lineRange := extractor.LineRange{Start: resolved.LineStart, End: resolved.LineEnd}

	raises := extractor.ExtractRaisesInRange(res, lineRange)
	imports := extractor.ExtractImports(res)

	for i := range raises {
		if defLoc, ok := e.resolveExceptionDefinition(raises[i].ExceptionType, imports, resolved.FilePath); ok {
			raises[i].DefinitionLocation = &defLoc
			if raises[i].QualifiedType == raises[i].ExceptionType {
				if qualified, ok := imports[raises[i].ExceptionType]; ok {
					raises[i].QualifiedType = qualified
				}
			}
		}
	}

	noneSources := extractor.ExtractNoneSourcesInRange(res, lineRange)

	ctx := extractor.CallContext{
		CurrentModule: fullModulePath(resolved.FilePath),
		CurrentClass:  classFromFunctionID(functionID),
		Imports:       imports,
	}
	calls := extractor.ExtractCallsInRangeWithContext(res, lineRange, &ctx)

	return &models.SingleFunctionAnalysis{
		Raises:      raises,
		NoneSources: noneSources,
		Calls:       calls,
	}, nil
}

// resolveExceptionDefinition locates where a project-defined exception class
// is declared. Builtins never get a definition location. Lookup tries the
// bare name, the import binding, then the current module's namespace.
func (e *Engine) resolveExceptionDefinition(excType string, imports map[string]string, currentFile string) (models.CodeLocation, bool) {
	if IsBuiltinException(excType) {
		return models.CodeLocation{}, false
	}

	if loc, ok := e.lookupInIndex(excType); ok {
		return loc, true
	}

	if qualified, ok := imports[excType]; ok {
		if loc, ok := e.lookupInIndex(qualified); ok {
			return loc, true
		}
	}

	if module := moduleFromPath(currentFile); module != "" {
		if loc, ok := e.lookupInIndex(module + "." + excType); ok {
			return loc, true
		}
	}

	return models.CodeLocation{}, false
}

func (e *Engine) lookupInIndex(name string) (models.CodeLocation, bool) {
	if e.index == nil {
		return models.CodeLocation{}, false
	}
	loc, ok := e.index.Get(name)
	if !ok {
		return models.CodeLocation{}, false
	}
	return models.NewCodeLocation(loc.FilePath, loc.LineStart), true
}

// moduleFromPath returns the immediate module name for a file: the stem,
// or the containing package for an initializer.
func moduleFromPath(path string) string {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if stem == "__init__" {
		return filepath.Base(filepath.Dir(path))
	}
	return stem
}

// fullModulePath rebuilds the dotted module path of a file by climbing
// through package directories (those with an initializer, plus a src
// layout root).
func fullModulePath(path string) string {
	var components []string

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if stem != "__init__" {
		components = append(components, stem)
	}

	current := filepath.Dir(path)
	for current != "" && current != "." && current != string(filepath.Separator) {
		isPackage := false
		if info, err := os.Stat(filepath.Join(current, "__init__.py")); err == nil && !info.IsDir() {
			isPackage = true
		}
		if !isPackage && filepath.Base(current) != "src" {
			break
		}
		components = append(components, filepath.Base(current))
		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}

	for i, j := 0, len(components)-1; i < j; i, j = i+1, j-1 {
		components[i], components[j] = components[j], components[i]
	}
	return strings.Join(components, ".")
}

// classFromFunctionID guesses the enclosing class from a qualified function
// ID: the second-to-last segment when it is capitalized.
func classFromFunctionID(functionID string) string {
	parts := strings.Split(functionID, ".")
	if len(parts) < 2 {
		return ""
	}
	candidate := parts[len(parts)-2]
	if candidate == "" {
		return ""
	}
	first := rune(candidate[0])
	if first >= 'A' && first <= 'Z' {
		return candidate
	}
	return ""
}
