package parser

import (
	"os"
	"path/filepath"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	p := New()
	defer p.Close()

	source := []byte("def hello():\n    return 1\n")
	res, err := p.Parse(source, "hello.py")
	require.NoError(t, err)

	assert.Equal(t, "module", res.Tree.RootNode().Type())
	assert.Equal(t, "hello.py", res.Path)
	assert.Equal(t, source, res.Source)
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mod.py")
	require.NoError(t, os.WriteFile(path, []byte("x = 1\n"), 0o644))

	p := New()
	defer p.Close()

	res, err := p.ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, res.Path)
	assert.Equal(t, "module", res.Tree.RootNode().Type())
}

func TestParseFileMissing(t *testing.T) {
	p := New()
	defer p.Close()

	_, err := p.ParseFile(filepath.Join(t.TempDir(), "nope.py"))
	assert.Error(t, err)
}

func TestGetNodeText(t *testing.T) {
	p := New()
	defer p.Close()

	source := []byte("def greet():\n    pass\n")
	res, err := p.Parse(source, "t.py")
	require.NoError(t, err)

	fn := res.Tree.RootNode().Child(0)
	require.NotNil(t, fn)
	require.Equal(t, "function_definition", fn.Type())

	name := fn.ChildByFieldName("name")
	require.NotNil(t, name)
	assert.Equal(t, "greet", GetNodeText(name, source))

	assert.Equal(t, "", GetNodeText(nil, source))
}

func TestStartEndLine(t *testing.T) {
	p := New()
	defer p.Close()

	source := []byte("x = 1\n\n\ndef f():\n    return 2\n")
	res, err := p.Parse(source, "t.py")
	require.NoError(t, err)

	root := res.Tree.RootNode()
	found := false
	for i := 0; i < int(root.ChildCount()); i++ {
		child := root.Child(i)
		if child != nil && child.Type() == "function_definition" {
			assert.Equal(t, uint32(4), StartLine(child))
			assert.Equal(t, uint32(5), EndLine(child))
			found = true
		}
	}
	assert.True(t, found, "function definition not found")
}

func TestWalkTypedVisitsInSourceOrder(t *testing.T) {
	p := New()
	defer p.Close()

	source := []byte("a()\nb()\nc()\n")
	res, err := p.Parse(source, "t.py")
	require.NoError(t, err)

	var names []string
	WalkTyped(res.Tree.RootNode(), source, func(node *sitter.Node, nodeType string, src []byte) bool {
		if nodeType == "identifier" {
			names = append(names, GetNodeText(node, src))
		}
		return true
	})

	assert.Equal(t, []string{"a", "b", "c"}, names)
}

func TestWalkTypedSkipsSubtree(t *testing.T) {
	p := New()
	defer p.Close()

	source := []byte("def outer():\n    inner()\n")
	res, err := p.Parse(source, "t.py")
	require.NoError(t, err)

	var visited []string
	WalkTyped(res.Tree.RootNode(), source, func(node *sitter.Node, nodeType string, src []byte) bool {
		visited = append(visited, nodeType)
		return nodeType != "function_definition"
	})

	assert.Contains(t, visited, "function_definition")
	assert.NotContains(t, visited, "call")
}

func TestWalkTypedDeepNesting(t *testing.T) {
	p := New()
	defer p.Close()

	var src []byte
	for i := 0; i < 200; i++ {
		src = append(src, []byte("(")...)
	}
	src = append(src, []byte("1")...)
	for i := 0; i < 200; i++ {
		src = append(src, []byte(")")...)
	}

	res, err := p.Parse(src, "deep.py")
	require.NoError(t, err)

	count := 0
	WalkTyped(res.Tree.RootNode(), src, func(_ *sitter.Node, _ string, _ []byte) bool {
		count++
		return true
	})
	assert.Greater(t, count, 200)
}
