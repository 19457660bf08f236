// Package resolver locates the defining file and span of a dotted Python
// qualified name, emulating import and package re-export semantics over a
// set of search roots.
package resolver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/arborlabs/arbor/pkg/models"
	"github.com/arborlabs/arbor/pkg/parser"
)

var (
	// ErrInvalidQualifiedName is returned for an empty qualified name.
	ErrInvalidQualifiedName = errors.New("invalid qualified name")

	// ErrFunctionNotFound is returned when every search root and re-export
	// chain has been exhausted.
	ErrFunctionNotFound = errors.New("function not found")

	// ErrModuleNotFound is used internally while locating site-packages
	// style secondary roots.
	ErrModuleNotFound = errors.New("module not found")
)

// maxReexportDepth bounds re-export chasing; cyclic __init__ imports would
// otherwise recurse forever.
const maxReexportDepth = 8

// Resolver locates qualified names on disk. Explicit source roots are
// searched before site-packages roots.
type Resolver struct {
	SourceRoots  []string
	SitePackages []string

	parser *parser.Parser
}

// New creates a resolver over explicit source roots and secondary
// site-packages roots.
func New(sourceRoots, sitePackages []string) *Resolver {
	return &Resolver{
		SourceRoots:  sourceRoots,
		SitePackages: sitePackages,
		parser:       parser.New(),
	}
}

// FromEnvironment builds a resolver from the working directory, PYTHONPATH,
// and any detectable virtualenv.
func FromEnvironment() *Resolver {
	return New(detectSourceRoots(), detectSitePackages())
}

func detectSourceRoots() []string {
	var roots []string

	if cwd, err := os.Getwd(); err == nil {
		roots = append(roots, cwd)
		if src := filepath.Join(cwd, "src"); dirExists(src) {
			roots = append(roots, src)
		}
	}

	if pythonPath := os.Getenv("PYTHONPATH"); pythonPath != "" {
		for _, p := range filepath.SplitList(pythonPath) {
			if p != "" && dirExists(p) {
				roots = append(roots, p)
			}
		}
	}

	return roots
}

func detectSitePackages() []string {
	var packages []string

	if cwd, err := os.Getwd(); err == nil {
		for _, name := range []string{".venv", "venv", ".env", "env"} {
			venv := filepath.Join(cwd, name)
			if !dirExists(venv) {
				continue
			}
			if sp, err := FindSitePackages(venv); err == nil {
				packages = append(packages, sp)
				break
			}
		}
	}

	if virtualEnv := os.Getenv("VIRTUAL_ENV"); virtualEnv != "" {
		if sp, err := FindSitePackages(virtualEnv); err == nil {
			if !contains(packages, sp) {
				packages = append(packages, sp)
			}
		}
	}

	return packages
}

// FindSitePackages locates the site-packages directory inside a virtualenv
// (venv/lib/pythonX.Y/site-packages).
func FindSitePackages(venv string) (string, error) {
	lib := filepath.Join(venv, "lib")
	entries, err := os.ReadDir(lib)
	if err != nil {
		return "", fmt.Errorf("%w: no lib directory in venv %s", ErrModuleNotFound, venv)
	}

	for _, entry := range entries {
		if !strings.HasPrefix(entry.Name(), "python") {
			continue
		}
		sp := filepath.Join(lib, entry.Name(), "site-packages")
		if dirExists(sp) {
			return sp, nil
		}
	}

	return "", fmt.Errorf("%w: no site-packages in venv %s", ErrModuleNotFound, venv)
}

// Close releases the resolver's parser.
func (r *Resolver) Close() {
	r.parser.Close()
}

// SearchPaths returns all roots in precedence order.
func (r *Resolver) SearchPaths() []string {
	paths := make([]string, 0, len(r.SourceRoots)+len(r.SitePackages))
	paths = append(paths, r.SourceRoots...)
	paths = append(paths, r.SitePackages...)
	return paths
}

// Resolve locates a dotted qualified name. Candidate module-path lengths
// are tried longest first, so a deep package wins over a same-named shallow
// module. When the whole name matches a module, its initializer's
// re-exports are chased before scanning the file itself.
func (r *Resolver) Resolve(qualifiedName string) (models.ResolvedFunction, error) {
	if qualifiedName == "" {
		return models.ResolvedFunction{}, fmt.Errorf("%w: empty name", ErrInvalidQualifiedName)
	}

	parts := strings.Split(qualifiedName, ".")

	for i := len(parts); i >= 1; i-- {
		moduleParts := parts[:i]
		remaining := parts[i:]

		modulePath, ok := r.resolveModulePath(moduleParts)
		if !ok {
			continue
		}

		functionName := strings.Join(remaining, ".")
		if functionName == "" {
			functionName = parts[len(parts)-1]
		}

		if len(remaining) == 0 {
			if resolved, ok, err := r.findInInitReexport(initializerOf(modulePath), parts[len(parts)-1], 0); err == nil && ok {
				return resolved, nil
			}
		}

		if fileExists(modulePath) {
			if resolved, ok, err := r.findInFile(modulePath, functionName); err == nil && ok {
				return resolved, nil
			}
		}

		initPath := initializerOf(modulePath)
		if fileExists(initPath) {
			if resolved, ok, err := r.findInInitReexport(initPath, functionName, 0); err == nil && ok {
				return resolved, nil
			}
		}
	}

	// Last resort: all segments but the final one as the module.
	if len(parts) > 1 {
		if modulePath, ok := r.resolveModulePath(parts[:len(parts)-1]); ok {
			filePath := initializerOf(modulePath)
			functionName := parts[len(parts)-1]

			if fileExists(filePath) {
				if resolved, ok, err := r.findInFile(filePath, functionName); err == nil && ok {
					return resolved, nil
				}
				if resolved, ok, err := r.findInInitReexport(filePath, functionName, 0); err == nil && ok {
					return resolved, nil
				}
			}
		}
	}

	return models.ResolvedFunction{}, fmt.Errorf("%w: %s in all search paths", ErrFunctionNotFound, qualifiedName)
}

// resolveModulePath maps module segments to a package directory (with an
// initializer), a same-named source file, or a file inside the parent
// package directory.
func (r *Resolver) resolveModulePath(parts []string) (string, bool) {
	subpath := filepath.Join(parts...)

	for _, base := range r.SearchPaths() {
		dirPath := filepath.Join(base, subpath)
		if dirExists(dirPath) && fileExists(initializerOf(dirPath)) {
			return dirPath, true
		}

		filePath := filepath.Join(base, subpath+".py")
		if fileExists(filePath) {
			return filePath, true
		}

		if len(parts) > 1 {
			parentPath := filepath.Join(base, filepath.Join(parts[:len(parts)-1]...))
			if dirExists(parentPath) {
				fileInParent := filepath.Join(parentPath, parts[len(parts)-1]+".py")
				if fileExists(fileInParent) {
					return fileInParent, true
				}
			}
		}
	}

	return "", false
}

// initializerOf returns the package initializer for a directory, or the
// path unchanged when it is already a file.
func initializerOf(modulePath string) string {
	if dirExists(modulePath) {
		return filepath.Join(modulePath, "__init__.py")
	}
	return modulePath
}

// findInFile scans a parsed file for a top-level function, a class, or a
// Class.method pair.
func (r *Resolver) findInFile(filePath, name string) (models.ResolvedFunction, bool, error) {
	res, err := r.parser.ParseFile(filePath)
	if err != nil {
		return models.ResolvedFunction{}, false, err
	}

	className, methodName := splitClassMethod(name)

	if className != "" && methodName != "" {
		if resolved, ok := findMethodInClass(res, filePath, className, methodName); ok {
			return resolved, true, nil
		}
		return models.ResolvedFunction{}, false, nil
	}

	if resolved, ok := findTopLevelFunction(res, filePath, name); ok {
		return resolved, true, nil
	}
	if resolved, ok := findClassDefinition(res, filePath, name); ok {
		return resolved, true, nil
	}
	return models.ResolvedFunction{}, false, nil
}

func splitClassMethod(name string) (class, method string) {
	if !strings.Contains(name, ".") {
		return "", ""
	}
	parts := strings.SplitN(name, ".", 2)
	return parts[0], parts[1]
}

// definitionNode unwraps decorated definitions to the underlying node when
// it matches the wanted kind.
func definitionNode(node *sitter.Node, kind string) *sitter.Node {
	switch node.Type() {
	case kind:
		return node
	case "decorated_definition":
		if def := node.ChildByFieldName("definition"); def != nil && def.Type() == kind {
			return def
		}
	}
	return nil
}

func findTopLevelFunction(res *parser.ParseResult, filePath, name string) (models.ResolvedFunction, bool) {
	root := res.Tree.RootNode()
	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(i)
		if child == nil {
			continue
		}
		fn := definitionNode(child, "function_definition")
		if fn == nil {
			continue
		}
		nameNode := fn.ChildByFieldName("name")
		if nameNode == nil || parser.GetNodeText(nameNode, res.Source) != name {
			continue
		}
		return models.ResolvedFunction{
			FilePath:     filePath,
			FunctionName: name,
			LineStart:    parser.StartLine(fn),
			LineEnd:      parser.EndLine(fn),
		}, true
	}
	return models.ResolvedFunction{}, false
}

func findClassDefinition(res *parser.ParseResult, filePath, className string) (models.ResolvedFunction, bool) {
	root := res.Tree.RootNode()
	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(i)
		if child == nil {
			continue
		}
		cls := definitionNode(child, "class_definition")
		if cls == nil {
			continue
		}
		nameNode := cls.ChildByFieldName("name")
		if nameNode == nil || parser.GetNodeText(nameNode, res.Source) != className {
			continue
		}
		return models.ResolvedFunction{
			FilePath:     filePath,
			FunctionName: className,
			LineStart:    parser.StartLine(cls),
			LineEnd:      parser.EndLine(cls),
		}, true
	}
	return models.ResolvedFunction{}, false
}

func findMethodInClass(res *parser.ParseResult, filePath, className, methodName string) (models.ResolvedFunction, bool) {
	root := res.Tree.RootNode()
	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(i)
		if child == nil {
			continue
		}
		cls := definitionNode(child, "class_definition")
		if cls == nil {
			continue
		}
		nameNode := cls.ChildByFieldName("name")
		if nameNode == nil || parser.GetNodeText(nameNode, res.Source) != className {
			continue
		}
		body := cls.ChildByFieldName("body")
		if body == nil {
			continue
		}
		for j := 0; j < int(body.ChildCount()); j++ {
			member := body.Child(j)
			if member == nil {
				continue
			}
			method := definitionNode(member, "function_definition")
			if method == nil {
				continue
			}
			mname := method.ChildByFieldName("name")
			if mname == nil || parser.GetNodeText(mname, res.Source) != methodName {
				continue
			}
			return models.ResolvedFunction{
				FilePath:     filePath,
				FunctionName: className + "." + methodName,
				LineStart:    parser.StartLine(method),
				LineEnd:      parser.EndLine(method),
				IsMethod:     true,
				ParentClass:  className,
			}, true
		}
	}
	return models.ResolvedFunction{}, false
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
