// Package testutil holds filesystem helpers for building throwaway Python
// project fixtures in tests.
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// WriteFile writes content to a file, creating parent directories.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("MkdirAll(%s) error: %v", dir, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile(%s) error: %v", path, err)
	}
}

// ReadFile reads a file or fails the test.
func ReadFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile(%s) error: %v", path, err)
	}
	return string(data)
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// TempDir creates a temporary directory removed when the test ends.
func TempDir(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "arbor-test-*")
	if err != nil {
		t.Fatalf("MkdirTemp error: %v", err)
	}
	t.Cleanup(func() {
		os.RemoveAll(dir)
	})
	return dir
}

// CreateFileTree creates files from a map of relative path to content.
func CreateFileTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		WriteFile(t, filepath.Join(root, name), content)
	}
}

// WriteModule writes a Python module given its dotted name, creating
// __init__.py in every package directory along the way. A name ending in
// ".__init__" writes the package initializer itself.
func WriteModule(t *testing.T, root, module, content string) string {
	t.Helper()

	parts := strings.Split(module, ".")
	dir := root
	for _, pkg := range parts[:len(parts)-1] {
		dir = filepath.Join(dir, pkg)
		initPath := filepath.Join(dir, "__init__.py")
		if !FileExists(initPath) {
			WriteFile(t, initPath, "")
		}
	}

	path := filepath.Join(dir, parts[len(parts)-1]+".py")
	WriteFile(t, path, content)
	return path
}
