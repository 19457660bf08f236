package models

import "time"

// SymbolLocation records where a function, method, or class is defined.
type SymbolLocation struct {
	FilePath    string `json:"file_path"`
	LineStart   uint32 `json:"line_start"`
	LineEnd     uint32 `json:"line_end"`
	IsMethod    bool   `json:"is_method"`
	ParentClass string `json:"parent_class,omitempty"`
}

// ToResolved converts an indexed location into a ResolvedFunction under the
// given name.
func (s SymbolLocation) ToResolved(name string) ResolvedFunction {
	return ResolvedFunction{
		FilePath:     s.FilePath,
		FunctionName: name,
		LineStart:    s.LineStart,
		LineEnd:      s.LineEnd,
		IsMethod:     s.IsMethod,
		ParentClass:  s.ParentClass,
	}
}

// ResolvedFunction is the result of locating a qualified name on disk.
type ResolvedFunction struct {
	FilePath     string `json:"file_path"`
	FunctionName string `json:"function_name"`
	LineStart    uint32 `json:"line_start"`
	LineEnd      uint32 `json:"line_end"`
	IsMethod     bool   `json:"is_method"`
	ParentClass  string `json:"parent_class,omitempty"`
}

// ToSymbolLocation converts a resolution result into an indexable location.
func (r ResolvedFunction) ToSymbolLocation() SymbolLocation {
	return SymbolLocation{
		FilePath:    r.FilePath,
		LineStart:   r.LineStart,
		LineEnd:     r.LineEnd,
		IsMethod:    r.IsMethod,
		ParentClass: r.ParentClass,
	}
}

// SymbolIndex maps fully qualified names to definition locations, plus a
// content hash per indexed file for change detection. Built once per
// indexing pass and queried read-only afterwards.
type SymbolIndex struct {
	Symbols    map[string]SymbolLocation `json:"symbols"`
	IndexedAt  *time.Time                `json:"indexed_at,omitempty"`
	FileHashes map[string]string         `json:"file_hashes"`
}

// NewSymbolIndex creates an empty index.
func NewSymbolIndex() *SymbolIndex {
	return &SymbolIndex{
		Symbols:    make(map[string]SymbolLocation),
		FileHashes: make(map[string]string),
	}
}

// Add inserts or replaces a symbol.
func (i *SymbolIndex) Add(qualifiedName string, location SymbolLocation) {
	i.Symbols[qualifiedName] = location
}

// Get looks up a qualified name.
func (i *SymbolIndex) Get(qualifiedName string) (SymbolLocation, bool) {
	loc, ok := i.Symbols[qualifiedName]
	return loc, ok
}

// Contains reports whether the qualified name is indexed.
func (i *SymbolIndex) Contains(qualifiedName string) bool {
	_, ok := i.Symbols[qualifiedName]
	return ok
}

// Len returns the number of indexed symbols.
func (i *SymbolIndex) Len() int {
	return len(i.Symbols)
}

// MarkIndexed stamps the index with the completion time of a pass.
func (i *SymbolIndex) MarkIndexed() {
	now := time.Now().UTC()
	i.IndexedAt = &now
}

// SetFileHash records the content hash for a file.
func (i *SymbolIndex) SetFileHash(path, hash string) {
	i.FileHashes[path] = hash
}

// FileChanged reports whether the file's current hash differs from the
// stored one. Unknown files count as changed.
func (i *SymbolIndex) FileChanged(path, currentHash string) bool {
	stored, ok := i.FileHashes[path]
	if !ok {
		return true
	}
	return stored != currentHash
}
