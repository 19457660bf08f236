package resolver

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/arborlabs/arbor/pkg/models"
	"github.com/arborlabs/arbor/pkg/parser"
)

// initImport is a single name bound by a from-import in a package
// initializer. OriginalName is set when the binding is aliased.
type initImport struct {
	Name         string
	SourceModule string
	OriginalName string
}

// findInInitReexport checks whether a package initializer re-exports the
// wanted name and, if so, chases the binding to where it is defined. The
// resolved function is reported under the requested name so callers see the
// public API name, not the internal one. Chains of initializers are
// followed up to maxReexportDepth.
func (r *Resolver) findInInitReexport(initPath, name string, depth int) (models.ResolvedFunction, bool, error) {
	if depth >= maxReexportDepth || !fileExists(initPath) {
		return models.ResolvedFunction{}, false, nil
	}

	imports, err := r.parseInitImports(initPath)
	if err != nil {
		return models.ResolvedFunction{}, false, err
	}

	for _, imp := range imports {
		if imp.Name != name && imp.OriginalName != name {
			continue
		}

		targetName := imp.Name
		if imp.OriginalName != "" {
			targetName = imp.OriginalName
		}

		sourcePath, ok := resolveRelativeImport(initPath, imp.SourceModule)
		if !ok {
			continue
		}

		if resolved, ok, err := r.findInFile(sourcePath, targetName); err == nil && ok {
			resolved.FunctionName = name
			return resolved, true, nil
		}

		// The target may itself be a re-exporting initializer.
		if filepath.Base(sourcePath) == "__init__.py" {
			if resolved, ok, err := r.findInInitReexport(sourcePath, targetName, depth+1); err == nil && ok {
				resolved.FunctionName = name
				return resolved, true, nil
			}
		}
	}

	return models.ResolvedFunction{}, false, nil
}

// parseInitImports collects the from-imports at the top level of a file.
// Nested imports inside functions or conditionals are not package
// re-exports and are skipped.
func (r *Resolver) parseInitImports(filePath string) ([]initImport, error) {
	res, err := r.parser.ParseFile(filePath)
	if err != nil {
		return nil, err
	}

	var imports []initImport
	root := res.Tree.RootNode()

	for i := 0; i < int(root.ChildCount()); i++ {
		stmt := root.Child(i)
		if stmt == nil || stmt.Type() != "import_from_statement" {
			continue
		}

		var moduleName, prefix string
		inNames := false

		for j := 0; j < int(stmt.ChildCount()); j++ {
			c := stmt.Child(j)
			if c == nil {
				continue
			}
			switch c.Type() {
			case "relative_import":
				for k := 0; k < int(c.ChildCount()); k++ {
					relChild := c.Child(k)
					if relChild == nil {
						continue
					}
					switch relChild.Type() {
					case "import_prefix":
						prefix = strings.Repeat(".", strings.Count(parser.GetNodeText(relChild, res.Source), "."))
					case "dotted_name":
						moduleName = parser.GetNodeText(relChild, res.Source)
					}
				}
			case "dotted_name":
				if !inNames {
					if moduleName == "" {
						moduleName = parser.GetNodeText(c, res.Source)
					}
				} else if name := parser.GetNodeText(c, res.Source); name != "" {
					imports = append(imports, initImport{
						Name:         name,
						SourceModule: prefix + moduleName,
					})
				}
			case "aliased_import":
				var orig, alias string
				if n := c.ChildByFieldName("name"); n != nil {
					orig = parser.GetNodeText(n, res.Source)
				}
				if n := c.ChildByFieldName("alias"); n != nil {
					alias = parser.GetNodeText(n, res.Source)
				}
				name := alias
				if name == "" {
					name = orig
				}
				if name != "" {
					imports = append(imports, initImport{
						Name:         name,
						SourceModule: prefix + moduleName,
						OriginalName: orig,
					})
				}
			case "import":
				inNames = true
			}
		}
	}

	return imports, nil
}

// resolveRelativeImport maps a from-import's module reference to a file
// path, anchored at the importing file's directory. One leading dot means
// the same package; each extra dot climbs one directory. A bare module
// (no dots) is treated as a sibling as well, which matches how package
// initializers are laid out in practice.
func resolveRelativeImport(fromFile, module string) (string, bool) {
	base := filepath.Dir(fromFile)

	dotCount := 0
	for dotCount < len(module) && module[dotCount] == '.' {
		dotCount++
	}
	moduleRest := module[dotCount:]

	for i := 1; i < dotCount; i++ {
		parent := filepath.Dir(base)
		if parent == base {
			return "", false
		}
		base = parent
	}

	if moduleRest == "" {
		return filepath.Join(base, "__init__.py"), true
	}

	subpath := filepath.FromSlash(strings.ReplaceAll(moduleRest, ".", "/"))

	filePath := filepath.Join(base, subpath+".py")
	if fileExists(filePath) {
		return filePath, true
	}

	dirPath := filepath.Join(base, subpath)
	if info, err := os.Stat(dirPath); err == nil && info.IsDir() {
		init := filepath.Join(dirPath, "__init__.py")
		if fileExists(init) {
			return init, true
		}
	}

	return "", false
}
