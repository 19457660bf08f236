package extractor

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/arborlabs/arbor/pkg/parser"
)

// ExtractImports builds a map from locally bound name to fully qualified
// source name, e.g. "from requests.exceptions import ConnectionError" maps
// ConnectionError to requests.exceptions.ConnectionError. Relative imports
// keep their leading dots in the recorded module string.
func ExtractImports(res *parser.ParseResult) map[string]string {
	imports := make(map[string]string)

	parser.WalkTyped(res.Tree.RootNode(), res.Source, func(node *sitter.Node, nodeType string, source []byte) bool {
		switch nodeType {
		case "import_from_statement":
			parseImportFrom(node, source, imports)
		case "import_statement":
			parseImport(node, source, imports)
		}
		return true
	})

	return imports
}

func parseImportFrom(node *sitter.Node, source []byte, imports map[string]string) {
	var module string
	type binding struct{ name, alias string }
	var names []binding

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "dotted_name":
			// The first dotted name is the source module; the rest are
			// imported names.
			if module == "" {
				module = parser.GetNodeText(child, source)
			} else {
				names = append(names, binding{name: parser.GetNodeText(child, source)})
			}
		case "relative_import":
			module = parseRelativeImport(child, source)
		case "aliased_import":
			if name, alias, ok := parseAliasedImport(child, source); ok {
				names = append(names, binding{name: name, alias: alias})
			}
		case "identifier":
			names = append(names, binding{name: parser.GetNodeText(child, source)})
		}
	}

	for _, b := range names {
		local := b.alias
		if local == "" {
			local = b.name
		}
		imports[local] = module + "." + b.name
	}
}

func parseImport(node *sitter.Node, source []byte, imports map[string]string) {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "dotted_name":
			// "import os.path" binds the last segment locally.
			name := parser.GetNodeText(child, source)
			segments := strings.Split(name, ".")
			imports[segments[len(segments)-1]] = name
		case "aliased_import":
			if name, alias, ok := parseAliasedImport(child, source); ok {
				if alias == "" {
					alias = name
				}
				imports[alias] = name
			}
		}
	}
}

// parseRelativeImport preserves the leading dots literally, so ".api"
// and "..core.errors" round-trip as written.
func parseRelativeImport(node *sitter.Node, source []byte) string {
	var prefix, module string
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		switch child.Type() {
		case "import_prefix":
			prefix = parser.GetNodeText(child, source)
		case "dotted_name":
			module = parser.GetNodeText(child, source)
		}
	}
	return prefix + module
}

func parseAliasedImport(node *sitter.Node, source []byte) (name, alias string, ok bool) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return "", "", false
	}
	name = parser.GetNodeText(nameNode, source)
	if aliasNode := node.ChildByFieldName("alias"); aliasNode != nil {
		alias = parser.GetNodeText(aliasNode, source)
	}
	return name, alias, true
}
