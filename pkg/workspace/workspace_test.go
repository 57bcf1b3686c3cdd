// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestScan_PopulatesIndex(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	writeFile(t, filepath.Join(src, "Person.elm"), `module Person exposing (name)


name : String
name =
    "ok"
`)

	w := New(Config{Root: root, SourceRoots: []string{src}}, nil)
	require.NoError(t, w.Scan(nil))

	_, ok := w.Index().Function("Person", "name")
	assert.True(t, ok)
}

func TestScan_SkipsVCSAndBuildDirs(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	writeFile(t, filepath.Join(src, "A.elm"), `module A exposing (a)


a : Int
a =
    1
`)
	writeFile(t, filepath.Join(src, "elm-stuff", "Generated.elm"), `module Generated exposing (g)


g : Int
g =
    2
`)

	w := New(Config{Root: root, SourceRoots: []string{src}}, nil)
	require.NoError(t, w.Scan(nil))

	_, ok := w.Index().Function("Generated", "g")
	assert.False(t, ok, "elm-stuff must not be walked during scan")
}

func TestDidChange_ReindexesFile(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	path := filepath.Join(src, "A.elm")
	writeFile(t, path, `module A exposing (a)


a : Int
a =
    1
`)
	w := New(Config{Root: root, SourceRoots: []string{src}}, nil)
	require.NoError(t, w.Scan(nil))

	w.DidChange(path, `module A exposing (a, b)


a : Int
a =
    1


b : Int
b =
    2
`)

	_, ok := w.Index().Function("A", "b")
	assert.True(t, ok)
}

func TestDidChangeWatchedFile_UsesOnDiskContent(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	path := filepath.Join(src, "A.elm")
	writeFile(t, path, `module A exposing (a)


a : Int
a =
    1
`)
	w := New(Config{Root: root, SourceRoots: []string{src}}, nil)
	require.NoError(t, w.Scan(nil))

	writeFile(t, path, `module A exposing (a, c)


a : Int
a =
    1


c : Int
c =
    3
`)
	require.NoError(t, w.DidChangeWatchedFile(path))

	_, ok := w.Index().Function("A", "c")
	assert.True(t, ok)
}

func TestPlan_RendersEditSetWithoutTouchingDisk(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	path := filepath.Join(src, "A.elm")
	original := `module A exposing (a)


a : Int
a =
    1
`
	writeFile(t, path, original)
	w := New(Config{Root: root, SourceRoots: []string{src}}, nil)
	require.NoError(t, w.Scan(nil))

	offset := w.Index()
	entry, ok := offset.Module("A")
	require.True(t, ok)
	fnOffset := indexOfSource(entry.Doc.Source, "a : Int")

	es, rerr := w.Engine.RenameFunction(path, fnOffset, "first")
	require.Nil(t, rerr)

	diffs := w.Plan(es)
	require.NotEmpty(t, diffs)
	found := false
	for _, d := range diffs {
		if d.Path == path {
			found = true
			assert.Contains(t, d.After, "first : Int")
			assert.NotContains(t, d.After, "a : Int")
		}
	}
	assert.True(t, found)

	diskContent, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, original, string(diskContent), "Plan must never write to disk")
}

func indexOfSource(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}
