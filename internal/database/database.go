// Package database persists analysis results as a JSON document under the
// project's .arbor directory.
package database

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/arborlabs/arbor/pkg/grouping"
	"github.com/arborlabs/arbor/pkg/models"
)

// SchemaVersion identifies the database layout. A loaded database with a
// different version is rejected so callers can rebuild instead of
// misreading old fields.
const SchemaVersion = "1"

// DefaultPath is where the database lives relative to the project root.
var DefaultPath = filepath.Join(".arbor", "database.json")

var (
	ErrNotFound        = errors.New("database not found")
	ErrVersionMismatch = errors.New("database schema version mismatch")
)

// Environment captures the Python environment the index was built against.
type Environment struct {
	PythonVersion string   `json:"python_version"`
	VenvPath      string   `json:"venv_path,omitempty"`
	SitePackages  []string `json:"site_packages"`
	PythonPath    []string `json:"python_path"`
}

// Database is the on-disk analysis store: the symbol index, per-function
// analyses, the dependency graph, and grouping suggestions keyed by
// function ID.
type Database struct {
	Version             string                              `json:"version"`
	CreatedAt           time.Time                           `json:"created_at"`
	UpdatedAt           time.Time                           `json:"updated_at"`
	Environment         Environment                         `json:"environment"`
	SymbolIndex         *models.SymbolIndex                 `json:"symbol_index"`
	Functions           map[string]*models.FunctionAnalysis `json:"functions"`
	DependencyGraph     *models.CallGraph                   `json:"dependency_graph"`
	GroupingSuggestions map[string][]grouping.Suggestion    `json:"grouping_suggestions"`
}

// New creates an empty database for the given environment.
func New(env Environment) *Database {
	now := time.Now().UTC()
	return &Database{
		Version:             SchemaVersion,
		CreatedAt:           now,
		UpdatedAt:           now,
		Environment:         env,
		SymbolIndex:         models.NewSymbolIndex(),
		Functions:           make(map[string]*models.FunctionAnalysis),
		DependencyGraph:     models.NewCallGraph(),
		GroupingSuggestions: make(map[string][]grouping.Suggestion),
	}
}

// Load reads a database from disk.
func Load(path string) (*Database, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, err
	}

	var db Database
	if err := json.Unmarshal(data, &db); err != nil {
		return nil, fmt.Errorf("parsing database %s: %w", path, err)
	}
	if db.Version != SchemaVersion {
		return nil, fmt.Errorf("%w: have %q, want %q", ErrVersionMismatch, db.Version, SchemaVersion)
	}

	if db.SymbolIndex == nil {
		db.SymbolIndex = models.NewSymbolIndex()
	}
	if db.Functions == nil {
		db.Functions = make(map[string]*models.FunctionAnalysis)
	}
	if db.DependencyGraph == nil {
		db.DependencyGraph = models.NewCallGraph()
	}
	if db.GroupingSuggestions == nil {
		db.GroupingSuggestions = make(map[string][]grouping.Suggestion)
	}
	return &db, nil
}

// LoadOrNew loads an existing database, or creates a fresh one when the
// file is missing or carries an old schema.
func LoadOrNew(path string, env Environment) *Database {
	db, err := Load(path)
	if err != nil {
		return New(env)
	}
	return db
}

// Save writes the database atomically: a temp file in the same directory,
// then a rename over the target.
func (db *Database) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(db, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".database-*.json")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, path)
}

// AddFunction stores an analysis, replacing any previous result for the
// same function.
func (db *Database) AddFunction(analysis *models.FunctionAnalysis) {
	db.UpdatedAt = time.Now().UTC()
	db.Functions[analysis.FunctionID] = analysis
}

// GetFunction returns a stored analysis.
func (db *Database) GetFunction(id string) (*models.FunctionAnalysis, bool) {
	fn, ok := db.Functions[id]
	return fn, ok
}

// RemoveFunction drops a stored analysis.
func (db *Database) RemoveFunction(id string) bool {
	if _, ok := db.Functions[id]; !ok {
		return false
	}
	db.UpdatedAt = time.Now().UTC()
	delete(db.Functions, id)
	return true
}

// SetGroupingSuggestions stores handler groupings for a function.
func (db *Database) SetGroupingSuggestions(functionID string, suggestions []grouping.Suggestion) {
	db.UpdatedAt = time.Now().UTC()
	db.GroupingSuggestions[functionID] = suggestions
}

// FunctionCount returns the number of stored analyses.
func (db *Database) FunctionCount() int {
	return len(db.Functions)
}

// SymbolCount returns the number of indexed symbols.
func (db *Database) SymbolCount() int {
	return db.SymbolIndex.Len()
}

// ResolveFromIndex looks up a qualified name in the symbol index.
func (db *Database) ResolveFromIndex(qualifiedName string) (models.ResolvedFunction, bool) {
	loc, ok := db.SymbolIndex.Get(qualifiedName)
	if !ok {
		return models.ResolvedFunction{}, false
	}
	return loc.ToResolved(qualifiedName), true
}
