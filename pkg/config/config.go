// Package config loads arbor configuration from TOML, YAML, or JSON files.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvConfigPath, when set, overrides the config file search entirely.
const EnvConfigPath = "ARBOR_CONFIG"

// Config holds all configuration options for arbor.
type Config struct {
	Database    DatabaseConfig    `koanf:"database"`
	Analysis    AnalysisConfig    `koanf:"analysis"`
	Environment EnvironmentConfig `koanf:"environment"`
	Ignore      IgnoreConfig      `koanf:"ignore"`
	Output      OutputConfig      `koanf:"output"`
}

// DatabaseConfig controls where analysis results persist.
type DatabaseConfig struct {
	Path     string `koanf:"path"`
	AutoSave bool   `koanf:"auto_save"`
}

// AnalysisConfig controls traversal behavior.
type AnalysisConfig struct {
	MaxDepth       int  `koanf:"max_depth"`
	IncludeStdlib  bool `koanf:"include_stdlib"`
	TimeoutSeconds int  `koanf:"timeout_seconds"`
}

// EnvironmentConfig locates Python source roots and site-packages.
type EnvironmentConfig struct {
	PythonPath   []string `koanf:"python_path"`
	VenvPath     string   `koanf:"venv_path"`
	SitePackages []string `koanf:"site_packages"`
}

// IgnoreConfig filters packages and functions out of traversal. Entries
// may be exact names or glob patterns.
type IgnoreConfig struct {
	Packages  []string `koanf:"packages"`
	Functions []string `koanf:"functions"`
	Patterns  []string `koanf:"patterns"`
}

// OutputConfig controls rendering.
type OutputConfig struct {
	Format  string `koanf:"format"` // text, json, markdown, toon
	Color   bool   `koanf:"color"`
	Verbose bool   `koanf:"verbose"`
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:     filepath.Join(".arbor", "database.json"),
			AutoSave: true,
		},
		Analysis: AnalysisConfig{
			MaxDepth:       50,
			IncludeStdlib:  false,
			TimeoutSeconds: 300,
		},
		Environment: EnvironmentConfig{
			PythonPath: []string{"."},
		},
		Ignore: IgnoreConfig{
			Packages: []string{"tests", "__pycache__", ".git"},
		},
		Output: OutputConfig{
			Format: "text",
			Color:  true,
		},
	}
}

// Load loads configuration from a file, layered over the defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		parser = toml.Parser()
	}

	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads config from ARBOR_CONFIG or standard locations,
// falling back to defaults.
func LoadOrDefault() *Config {
	if path := os.Getenv(EnvConfigPath); path != "" {
		if cfg, err := Load(path); err == nil {
			return cfg
		}
		return DefaultConfig()
	}

	configNames := []string{
		"arbor.toml",
		"arbor.yaml",
		"arbor.yml",
		"arbor.json",
		".arbor.toml",
		".arbor.yaml",
		".arbor.yml",
		".arbor.json",
	}
	searchDirs := []string{".", ".arbor"}

	for _, dir := range searchDirs {
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err != nil {
				continue
			}
			if cfg, err := Load(path); err == nil {
				return cfg
			}
		}
	}

	return DefaultConfig()
}

// ShouldIgnorePackage reports whether a package name matches the ignore
// list. Entries containing glob metacharacters match as patterns.
func (c *Config) ShouldIgnorePackage(pkg string) bool {
	return matchesAny(c.Ignore.Packages, pkg)
}

// ShouldIgnoreFunction reports whether a qualified function name matches
// the ignore list.
func (c *Config) ShouldIgnoreFunction(function string) bool {
	return matchesAny(c.Ignore.Functions, function)
}

// ShouldIgnorePath reports whether a file path matches an ignore pattern.
// Patterns use doublestar globs against the slash form of the path.
func (c *Config) ShouldIgnorePath(path string) bool {
	slashed := filepath.ToSlash(path)
	for _, pattern := range c.Ignore.Patterns {
		if ok, err := doublestar.Match(pattern, slashed); err == nil && ok {
			return true
		}
	}
	return false
}

func matchesAny(entries []string, name string) bool {
	for _, entry := range entries {
		if strings.ContainsAny(entry, "*?[") {
			if ok, err := doublestar.Match(entry, name); err == nil && ok {
				return true
			}
			continue
		}
		if entry == name {
			return true
		}
	}
	return false
}

// DefaultTOML is the annotated config written by arbor init.
const DefaultTOML = `# Arbor configuration

[database]
path = ".arbor/database.json"
auto_save = true

[analysis]
max_depth = 50
include_stdlib = false
timeout_seconds = 300

[environment]
python_path = ["."]
# venv_path = ".venv"

[ignore]
packages = ["tests", "__pycache__", ".git"]
functions = []

[output]
format = "text"
color = true
`
