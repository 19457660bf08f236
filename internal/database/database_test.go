package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arborlabs/arbor/pkg/grouping"
	"github.com/arborlabs/arbor/pkg/models"
)

func testEnv() Environment {
	return Environment{PythonPath: []string{"."}}
}

func sampleAnalysis(id string) *models.FunctionAnalysis {
	a := models.NewFunctionAnalysis(id, "def f(...)", models.NewCodeLocation("app.py", 10))
	a.Raises = append(a.Raises, models.NewRaiseStatement("ValueError", models.NewCodeLocation("app.py", 12)))
	return a
}

func TestNew(t *testing.T) {
	db := New(testEnv())

	assert.Equal(t, SchemaVersion, db.Version)
	assert.NotNil(t, db.SymbolIndex)
	assert.NotNil(t, db.Functions)
	assert.NotNil(t, db.DependencyGraph)
	assert.Equal(t, 0, db.FunctionCount())
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".arbor", "database.json")

	db := New(testEnv())
	db.AddFunction(sampleAnalysis("app.process"))
	db.SymbolIndex.Add("app.process", models.SymbolLocation{FilePath: "app.py", LineStart: 10, LineEnd: 20})
	db.SetGroupingSuggestions("app.process", []grouping.Suggestion{
		{GroupName: "test group", Exceptions: []string{"ValueError", "TypeError"}},
	})

	require.NoError(t, db.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 1, loaded.FunctionCount())
	fn, ok := loaded.GetFunction("app.process")
	require.True(t, ok)
	assert.Equal(t, "app.process", fn.FunctionID)
	require.Len(t, fn.Raises, 1)
	assert.Equal(t, "ValueError", fn.Raises[0].ExceptionType)

	assert.Equal(t, 1, loaded.SymbolCount())
	require.Len(t, loaded.GroupingSuggestions["app.process"], 1)
	assert.Equal(t, "test group", loaded.GroupingSuggestions["app.process"][0].GroupName)
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadVersionMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version": "0"}`), 0o644))

	_, err := Load(path)
	assert.ErrorIs(t, err, ErrVersionMismatch)
}

func TestLoadRecoversNilMaps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sparse.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"version": "1"}`), 0o644))

	db, err := Load(path)
	require.NoError(t, err)
	assert.NotNil(t, db.SymbolIndex)
	assert.NotNil(t, db.Functions)
	assert.NotNil(t, db.DependencyGraph)
	assert.NotNil(t, db.GroupingSuggestions)
}

func TestLoadOrNew(t *testing.T) {
	dir := t.TempDir()

	db := LoadOrNew(filepath.Join(dir, "absent.json"), testEnv())
	require.NotNil(t, db)
	assert.Equal(t, SchemaVersion, db.Version)

	path := filepath.Join(dir, "db.json")
	db.AddFunction(sampleAnalysis("app.f"))
	require.NoError(t, db.Save(path))

	again := LoadOrNew(path, testEnv())
	assert.Equal(t, 1, again.FunctionCount())
}

func TestAddReplacesFunction(t *testing.T) {
	db := New(testEnv())

	db.AddFunction(sampleAnalysis("app.f"))
	updated := sampleAnalysis("app.f")
	updated.Signature = "def f(x, y)"
	db.AddFunction(updated)

	assert.Equal(t, 1, db.FunctionCount())
	fn, _ := db.GetFunction("app.f")
	assert.Equal(t, "def f(x, y)", fn.Signature)
}

func TestRemoveFunction(t *testing.T) {
	db := New(testEnv())
	db.AddFunction(sampleAnalysis("app.f"))

	assert.True(t, db.RemoveFunction("app.f"))
	assert.False(t, db.RemoveFunction("app.f"))
	assert.Equal(t, 0, db.FunctionCount())
}

func TestResolveFromIndex(t *testing.T) {
	db := New(testEnv())
	db.SymbolIndex.Add("app.Client.send", models.SymbolLocation{
		FilePath:    "client.py",
		LineStart:   5,
		LineEnd:     9,
		IsMethod:    true,
		ParentClass: "Client",
	})

	resolved, ok := db.ResolveFromIndex("app.Client.send")
	require.True(t, ok)
	assert.Equal(t, "client.py", resolved.FilePath)
	assert.True(t, resolved.IsMethod)
	assert.Equal(t, "Client", resolved.ParentClass)

	_, ok = db.ResolveFromIndex("app.unknown")
	assert.False(t, ok)
}

func TestSaveAtomicNoTempLeft(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "db.json")

	db := New(testEnv())
	require.NoError(t, db.Save(path))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "db.json", entries[0].Name())
}
