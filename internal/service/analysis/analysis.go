// Package analysis orchestrates indexing, traversal, caching, and
// persistence behind one service shared by the CLI and the MCP server.
package analysis

import (
	"fmt"
	"runtime"
	"time"

	"github.com/arborlabs/arbor/internal/cache"
	"github.com/arborlabs/arbor/internal/database"
	"github.com/arborlabs/arbor/pkg/config"
	"github.com/arborlabs/arbor/pkg/grouping"
	"github.com/arborlabs/arbor/pkg/indexer"
	"github.com/arborlabs/arbor/pkg/models"
	"github.com/arborlabs/arbor/pkg/resolver"
	"github.com/arborlabs/arbor/pkg/stats"
	"github.com/arborlabs/arbor/pkg/traversal"
)

// Service runs arbor operations against one project.
type Service struct {
	config *config.Config
	cache  *cache.Cache
}

// Option configures a Service.
type Option func(*Service)

// WithConfig sets the configuration.
func WithConfig(cfg *config.Config) Option {
	return func(s *Service) { s.config = cfg }
}

// WithCache sets the result cache.
func WithCache(c *cache.Cache) Option {
	return func(s *Service) { s.cache = c }
}

// New creates an analysis service. Without options it loads config from
// the standard locations and opens the default cache.
func New(opts ...Option) *Service {
	s := &Service{config: config.LoadOrDefault()}
	for _, opt := range opts {
		opt(s)
	}
	if s.cache == nil {
		c, err := cache.New(cache.DefaultDir, 24, true)
		if err != nil {
			c, _ = cache.New("", 0, false)
		}
		s.cache = c
	}
	return s
}

// Config returns the service configuration.
func (s *Service) Config() *config.Config {
	return s.config
}

// environment snapshots the configured Python environment for the
// database header.
func (s *Service) environment() database.Environment {
	return database.Environment{
		PythonVersion: "unknown",
		VenvPath:      s.config.Environment.VenvPath,
		SitePackages:  s.config.Environment.SitePackages,
		PythonPath:    s.config.Environment.PythonPath,
	}
}

// OpenDatabase loads the project database, creating an empty one when
// missing or stale.
func (s *Service) OpenDatabase() *database.Database {
	return database.LoadOrNew(s.config.Database.Path, s.environment())
}

// IndexOptions configures an indexing run.
type IndexOptions struct {
	Paths      []string
	Workers    int
	OnProgress func()
	OnSkip     func(path string, err error)
}

// IndexResult summarizes an indexing run.
type IndexResult struct {
	Index    *models.SymbolIndex
	Files    int
	Skipped  int
	Duration time.Duration
}

// Index scans the given paths, builds the symbol index, and saves it into
// the project database.
func (s *Service) Index(opts IndexOptions) (*IndexResult, error) {
	paths := opts.Paths
	if len(paths) == 0 {
		paths = s.config.Environment.PythonPath
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	skipped := 0
	onSkip := func(path string, err error) {
		skipped++
		if opts.OnSkip != nil {
			opts.OnSkip(path, err)
		}
	}

	idx := indexer.New(
		indexer.WithWorkers(workers),
		indexer.WithProgress(opts.OnProgress),
		indexer.WithSkipHandler(onSkip),
		indexer.WithExcludePatterns(s.config.Ignore.Patterns),
	)

	start := time.Now()
	index, err := idx.IndexDirectories(paths)
	if err != nil {
		return nil, err
	}

	db := s.OpenDatabase()
	db.SymbolIndex = index
	if s.config.Database.AutoSave {
		if err := db.Save(s.config.Database.Path); err != nil {
			return nil, fmt.Errorf("saving database: %w", err)
		}
	}

	return &IndexResult{
		Index:    index,
		Files:    len(index.FileHashes),
		Skipped:  skipped,
		Duration: time.Since(start),
	}, nil
}

// AnalyzeOptions configures one analyze run.
type AnalyzeOptions struct {
	MaxDepth int    // 0 means the configured default
	Venv     string // overrides the configured virtualenv
	NoCache  bool
	Suggest  bool // compute grouping suggestions too
}

// AnalyzeResult is one analyze run's output.
type AnalyzeResult struct {
	Analysis    *models.FunctionAnalysis
	Suggestions []grouping.Suggestion
	FromCache   bool
}

// Analyze traverses the call graph of functionID and persists the result.
func (s *Service) Analyze(functionID string, opts AnalyzeOptions) (*AnalyzeResult, error) {
	if s.config.ShouldIgnoreFunction(functionID) {
		return nil, fmt.Errorf("function %s is ignored by configuration", functionID)
	}

	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = s.config.Analysis.MaxDepth
	}

	res := s.buildResolver(opts.Venv)
	defer res.Close()

	db := s.OpenDatabase()
	fingerprint := indexFingerprint(db.SymbolIndex)

	key := cache.AnalysisKey(functionID, maxDepth, fingerprint)
	if !opts.NoCache {
		if analysis, ok := s.cache.GetAnalysis(key, fingerprint); ok {
			result := &AnalyzeResult{Analysis: analysis, FromCache: true}
			if opts.Suggest {
				result.Suggestions = grouping.SuggestGroups(analysis.Raises)
			}
			return result, nil
		}
	}

	engine := traversal.New(res,
		traversal.WithSymbolIndex(db.SymbolIndex),
		traversal.WithCallGraph(db.DependencyGraph),
		traversal.WithMaxDepth(maxDepth),
	)
	defer engine.Close()

	analysis, err := engine.AnalyzeFunction(functionID)
	if err != nil {
		return nil, err
	}

	result := &AnalyzeResult{Analysis: analysis}
	if opts.Suggest {
		result.Suggestions = grouping.SuggestGroups(analysis.Raises)
		db.SetGroupingSuggestions(functionID, result.Suggestions)
	}

	db.AddFunction(analysis)
	if s.config.Database.AutoSave {
		if err := db.Save(s.config.Database.Path); err != nil {
			return nil, fmt.Errorf("saving database: %w", err)
		}
	}
	s.cache.SetAnalysis(key, fingerprint, analysis)

	return result, nil
}

// Stats computes distribution summaries over the stored analyses.
func (s *Service) Stats() stats.DatabaseStats {
	db := s.OpenDatabase()
	return stats.Collect(db.Functions)
}

// buildResolver assembles search roots from config plus an optional venv
// override.
func (s *Service) buildResolver(venv string) *resolver.Resolver {
	roots := s.config.Environment.PythonPath
	if len(roots) == 0 {
		roots = []string{"."}
	}

	sitePackages := append([]string(nil), s.config.Environment.SitePackages...)

	if venv == "" {
		venv = s.config.Environment.VenvPath
	}
	if venv != "" {
		if sp, err := resolver.FindSitePackages(venv); err == nil {
			sitePackages = append(sitePackages, sp)
		}
	}

	if len(sitePackages) == 0 {
		return resolver.FromEnvironment()
	}
	return resolver.New(roots, sitePackages)
}

// indexFingerprint derives a stable identifier for the index state so
// cached analyses invalidate when the index is rebuilt.
func indexFingerprint(index *models.SymbolIndex) string {
	if index == nil || index.IndexedAt == nil {
		return "unindexed"
	}
	return fmt.Sprintf("%d:%d", index.Len(), index.IndexedAt.UnixNano())
}
