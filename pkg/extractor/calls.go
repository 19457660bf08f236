package extractor

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/arborlabs/arbor/pkg/parser"
)

// CallContext carries the qualification context of the function whose body
// is being scanned: its module path, its enclosing class (for self calls),
// and the file's import bindings.
type CallContext struct {
	CurrentModule string
	CurrentClass  string
	Imports       map[string]string
}

// ExtractCalls returns the callee text of every call expression, in source
// order, deduplicated by first occurrence.
func ExtractCalls(res *parser.ParseResult) []string {
	return extractCalls(res, nil, nil)
}

// ExtractCallsInRange restricts extraction to the inclusive line range.
func ExtractCallsInRange(res *parser.ParseResult, rng LineRange) []string {
	return extractCalls(res, &rng, nil)
}

// ExtractCallsInRangeWithContext additionally qualifies each callee against
// the context's class, imports, and module.
func ExtractCallsInRangeWithContext(res *parser.ParseResult, rng LineRange, ctx *CallContext) []string {
	return extractCalls(res, &rng, ctx)
}

func extractCalls(res *parser.ParseResult, rng *LineRange, ctx *CallContext) []string {
	var calls []string
	seen := make(map[string]struct{})

	parser.WalkTyped(res.Tree.RootNode(), res.Source, func(node *sitter.Node, nodeType string, source []byte) bool {
		if nodeType != "call" {
			return true
		}
		if rng != nil && !rng.Contains(parser.StartLine(node)) {
			return true
		}
		fn := node.ChildByFieldName("function")
		if fn == nil {
			return true
		}
		qualified := QualifyCall(parser.GetNodeText(fn, source), ctx)
		if _, dup := seen[qualified]; !dup {
			seen[qualified] = struct{}{}
			calls = append(calls, qualified)
		}
		return true
	})

	return calls
}

// QualifyCall rewrites a callee name using the call context. Rules, in
// order: a self-receiver call becomes module.Class.method; a callee whose
// first segment is an import binding is rewritten to the bound target plus
// the remaining suffix; a bare single-segment callee is prefixed with the
// current module; anything else passes through unchanged.
func QualifyCall(callName string, ctx *CallContext) string {
	if ctx == nil {
		return callName
	}

	parts := strings.Split(callName, ".")
	if len(parts) == 0 {
		return callName
	}

	if parts[0] == "self" {
		if ctx.CurrentClass == "" {
			return callName
		}
		method := strings.Join(parts[1:], ".")
		if method == "" {
			return callName
		}
		return ctx.CurrentModule + "." + ctx.CurrentClass + "." + method
	}

	if base, ok := ctx.Imports[parts[0]]; ok {
		if len(parts) == 1 {
			return base
		}
		return base + "." + strings.Join(parts[1:], ".")
	}

	if len(parts) == 1 && ctx.CurrentModule != "" {
		return ctx.CurrentModule + "." + callName
	}

	return callName
}
