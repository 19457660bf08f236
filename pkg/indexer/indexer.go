// Package indexer builds a project-wide symbol index by parsing every
// Python source file under a set of roots.
package indexer

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/zeebo/blake3"

	"github.com/arborlabs/arbor/internal/fileproc"
	"github.com/arborlabs/arbor/internal/scanner"
	"github.com/arborlabs/arbor/pkg/models"
	"github.com/arborlabs/arbor/pkg/parser"
)

// Indexer walks directories and records every function, class, and method
// definition under its fully qualified name.
type Indexer struct {
	scanner    *scanner.Scanner
	workers    int
	onProgress func()
	onSkip     func(path string, err error)
}

// Option configures an Indexer.
type Option func(*Indexer)

// WithWorkers sets the parallel parse worker count (<= 0 means default).
func WithWorkers(n int) Option {
	return func(ix *Indexer) {
		ix.workers = n
	}
}

// WithProgress registers a callback invoked once per processed file.
func WithProgress(fn func()) Option {
	return func(ix *Indexer) {
		ix.onProgress = fn
	}
}

// WithSkipHandler registers a callback for files skipped due to read or
// parse failures. Skips are never fatal to the indexing pass.
func WithSkipHandler(fn func(path string, err error)) Option {
	return func(ix *Indexer) {
		ix.onSkip = fn
	}
}

// WithExcludePatterns adds gitignore-syntax exclusion patterns to the
// underlying scanner.
func WithExcludePatterns(patterns []string) Option {
	return func(ix *Indexer) {
		ix.scanner = scanner.New(scanner.WithExcludePatterns(patterns))
	}
}

// New creates an indexer.
func New(opts ...Option) *Indexer {
	ix := &Indexer{scanner: scanner.New()}
	for _, opt := range opts {
		opt(ix)
	}
	return ix
}

// symbolEntry pairs a qualified name with its location, preserving the
// in-file discovery order until the deterministic merge.
type symbolEntry struct {
	name     string
	location models.SymbolLocation
}

// fileResult is the per-file output of a parallel indexing worker.
type fileResult struct {
	path    string
	hash    string
	symbols []symbolEntry
}

// IndexDirectories builds a SymbolIndex covering every source file under
// the given roots. Missing roots are skipped. Files are parsed in parallel;
// results merge sorted by path so the final key set does not depend on
// completion order.
func (ix *Indexer) IndexDirectories(dirs []string) (*models.SymbolIndex, error) {
	index := models.NewSymbolIndex()

	for _, dir := range dirs {
		if _, err := os.Stat(dir); err != nil {
			continue
		}

		files, err := ix.scanner.ScanDir(dir)
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", dir, err)
		}

		results := fileproc.MapFilesN(files, ix.workers, func(p *parser.Parser, path string) (fileResult, error) {
			return ix.indexFile(p, path, dir)
		}, ix.onProgress, ix.onSkip)

		sort.Slice(results, func(i, j int) bool { return results[i].path < results[j].path })

		for _, r := range results {
			for _, s := range r.symbols {
				index.Add(s.name, s.location)
			}
			index.SetFileHash(r.path, r.hash)
		}
	}

	index.MarkIndexed()
	return index, nil
}

// indexFile reads, hashes, and parses one file, collecting its definitions.
// The hash is recorded even when no definitions are found.
func (ix *Indexer) indexFile(p *parser.Parser, path, baseDir string) (fileResult, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return fileResult{}, err
	}

	res, err := p.Parse(content, path)
	if err != nil {
		return fileResult{}, err
	}

	modulePath := PathToModule(path, baseDir)
	symbols := collectSymbols(res.Tree.RootNode(), content, path, modulePath)

	return fileResult{
		path:    path,
		hash:    HashContent(content),
		symbols: symbols,
	}, nil
}

// HashContent returns the hex blake3 hash of file content.
func HashContent(content []byte) string {
	sum := blake3.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// PathToModule derives the dotted module path of a file relative to its
// indexing root: extension stripped, package-initializer files collapsed to
// their directory.
func PathToModule(path, baseDir string) string {
	rel, err := filepath.Rel(baseDir, path)
	if err != nil {
		rel = path
	}

	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) > 0 {
		last := parts[len(parts)-1]
		last = strings.TrimSuffix(last, filepath.Ext(last))
		parts[len(parts)-1] = last
		if last == "__init__" {
			parts = parts[:len(parts)-1]
		}
	}

	return strings.Join(parts, ".")
}

// collectSymbols walks the definition structure of a module: top-level
// functions and classes, plus one level of methods inside each class.
// Nested functions inside bodies are not indexed.
func collectSymbols(root *sitter.Node, source []byte, filePath, modulePath string) []symbolEntry {
	var symbols []symbolEntry
	collectFromNode(root, source, filePath, modulePath, "", &symbols)
	return symbols
}

func collectFromNode(node *sitter.Node, source []byte, filePath, modulePath, currentClass string, out *[]symbolEntry) {
	switch node.Type() {
	case "function_definition":
		nameNode := node.ChildByFieldName("name")
		if nameNode == nil {
			return
		}
		name := parser.GetNodeText(nameNode, source)
		qualified := modulePath + "." + name
		if currentClass != "" {
			qualified = modulePath + "." + currentClass + "." + name
		}
		*out = append(*out, symbolEntry{
			name: qualified,
			location: models.SymbolLocation{
				FilePath:    filePath,
				LineStart:   parser.StartLine(node),
				LineEnd:     parser.EndLine(node),
				IsMethod:    currentClass != "",
				ParentClass: currentClass,
			},
		})

	case "class_definition":
		nameNode := node.ChildByFieldName("name")
		if nameNode == nil {
			return
		}
		className := parser.GetNodeText(nameNode, source)
		*out = append(*out, symbolEntry{
			name: modulePath + "." + className,
			location: models.SymbolLocation{
				FilePath:  filePath,
				LineStart: parser.StartLine(node),
				LineEnd:   parser.EndLine(node),
			},
		})
		if body := node.ChildByFieldName("body"); body != nil {
			for i := 0; i < int(body.ChildCount()); i++ {
				if child := body.Child(i); child != nil {
					collectFromNode(child, source, filePath, modulePath, className, out)
				}
			}
		}

	case "decorated_definition":
		if def := node.ChildByFieldName("definition"); def != nil {
			collectFromNode(def, source, filePath, modulePath, currentClass, out)
		}

	case "module":
		for i := 0; i < int(node.ChildCount()); i++ {
			if child := node.Child(i); child != nil {
				collectFromNode(child, source, filePath, modulePath, currentClass, out)
			}
		}
	}
}
