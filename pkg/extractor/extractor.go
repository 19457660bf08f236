// Package extractor pulls raise statements, None origins, call targets, and
// import bindings out of parsed Python syntax trees.
//
// All functions are stateless: they take a parse result and return findings
// in source order. An optional line range restricts extraction to one
// function's definition span.
package extractor

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/arborlabs/arbor/pkg/models"
	"github.com/arborlabs/arbor/pkg/parser"
)

// LineRange is an inclusive 1-based line span.
type LineRange struct {
	Start uint32
	End   uint32
}

// Contains reports whether the line falls inside the range.
func (r LineRange) Contains(line uint32) bool {
	return line >= r.Start && line <= r.End
}

// ExtractRaises returns every raise statement in the tree, in source order.
func ExtractRaises(res *parser.ParseResult) []models.RaiseStatement {
	return extractRaises(res, nil)
}

// ExtractRaisesInRange returns raise statements whose start line falls
// within the inclusive range. A raise statement outside the range is
// excluded together with its subtree.
func ExtractRaisesInRange(res *parser.ParseResult, rng LineRange) []models.RaiseStatement {
	return extractRaises(res, &rng)
}

func extractRaises(res *parser.ParseResult, rng *LineRange) []models.RaiseStatement {
	var raises []models.RaiseStatement

	parser.WalkTyped(res.Tree.RootNode(), res.Source, func(node *sitter.Node, nodeType string, source []byte) bool {
		if nodeType != "raise_statement" {
			return true
		}
		if rng != nil && !rng.Contains(parser.StartLine(node)) {
			return false
		}
		raises = append(raises, parseRaiseStatement(node, source, res.Path))
		return true
	})

	return raises
}

func parseRaiseStatement(node *sitter.Node, source []byte, path string) models.RaiseStatement {
	location := models.NewCodeLocation(path, parser.StartLine(node)).
		WithColumn(int(node.StartPoint().Column))

	var exceptionType, message string

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "call":
			if fn := child.ChildByFieldName("function"); fn != nil {
				exceptionType = parser.GetNodeText(fn, source)
			}
			if args := child.ChildByFieldName("arguments"); args != nil {
				message = firstStringArg(args, source)
			}
		case "identifier", "attribute":
			exceptionType = parser.GetNodeText(child, source)
		}
	}

	if exceptionType == "" {
		exceptionType = models.ReRaiseType
	}

	stmt := models.NewRaiseStatement(exceptionType, location)
	stmt.Message = message
	stmt.Condition = guardingCondition(node, source)
	return stmt
}

// firstStringArg returns the text of the first string literal in an
// argument list, with surrounding quotes stripped.
func firstStringArg(args *sitter.Node, source []byte) string {
	for i := 0; i < int(args.ChildCount()); i++ {
		child := args.Child(i)
		if child != nil && child.Type() == "string" {
			return strings.Trim(parser.GetNodeText(child, source), `"'`)
		}
	}
	return ""
}

// guardingCondition walks parents upward to the nearest enclosing if
// statement and returns its condition's source text. This is a syntactic
// proxy for "guarded by": intervening loops or try blocks are not
// considered, so the condition may not dominate the site on every path.
func guardingCondition(node *sitter.Node, source []byte) string {
	for parent := node.Parent(); parent != nil; parent = parent.Parent() {
		if parent.Type() == "if_statement" {
			if cond := parent.ChildByFieldName("condition"); cond != nil {
				return parser.GetNodeText(cond, source)
			}
		}
	}
	return ""
}

// noneReturningMethods are receiver methods treated as potential None
// producers regardless of the receiver's type.
var noneReturningMethods = map[string]models.NoneSourceKind{
	"get":        models.NoneCollectionAccess,
	"getattr":    models.NoneCollectionAccess,
	"pop":        models.NoneFunctionCall,
	"setdefault": models.NoneFunctionCall,
}

// ExtractNoneSources returns every syntactic None origin in the tree.
func ExtractNoneSources(res *parser.ParseResult) []models.NoneSource {
	return extractNoneSources(res, nil)
}

// ExtractNoneSourcesInRange restricts extraction to the inclusive line
// range. Unlike raises, an out-of-range node's children are still visited.
func ExtractNoneSourcesInRange(res *parser.ParseResult, rng LineRange) []models.NoneSource {
	return extractNoneSources(res, &rng)
}

func extractNoneSources(res *parser.ParseResult, rng *LineRange) []models.NoneSource {
	var sources []models.NoneSource

	parser.WalkTyped(res.Tree.RootNode(), res.Source, func(node *sitter.Node, nodeType string, source []byte) bool {
		if rng != nil && !rng.Contains(parser.StartLine(node)) {
			return true
		}
		switch nodeType {
		case "return_statement":
			if src, ok := parseReturnNone(node, source, res.Path); ok {
				sources = append(sources, src)
			}
		case "call":
			if src, ok := parseNoneReturningCall(node, source, res.Path); ok {
				sources = append(sources, src)
			}
		}
		return true
	})

	return sources
}

func parseReturnNone(node *sitter.Node, source []byte, path string) (models.NoneSource, bool) {
	location := models.NewCodeLocation(path, parser.StartLine(node)).
		WithColumn(int(node.StartPoint().Column))

	hasValue := false
	explicitNone := false

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil || child.Type() == "return" {
			continue
		}
		hasValue = true
		if child.Type() == "none" {
			explicitNone = true
		}
	}

	var kind models.NoneSourceKind
	switch {
	case explicitNone:
		kind = models.NoneExplicitReturn
	case !hasValue:
		kind = models.NoneImplicitReturn
	default:
		return models.NoneSource{}, false
	}

	src := models.NewNoneSource(kind, location)
	src.Condition = guardingCondition(node, source)
	return src, true
}

func parseNoneReturningCall(node *sitter.Node, source []byte, path string) (models.NoneSource, bool) {
	fn := node.ChildByFieldName("function")
	if fn == nil || fn.Type() != "attribute" {
		return models.NoneSource{}, false
	}

	attr := fn.ChildByFieldName("attribute")
	if attr == nil {
		return models.NoneSource{}, false
	}

	kind, ok := noneReturningMethods[parser.GetNodeText(attr, source)]
	if !ok {
		return models.NoneSource{}, false
	}

	location := models.NewCodeLocation(path, parser.StartLine(node)).
		WithColumn(int(node.StartPoint().Column))

	src := models.NewNoneSource(kind, location)
	src.Condition = guardingCondition(node, source)
	return src, true
}
