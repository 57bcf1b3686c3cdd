// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Plan implements SPEC_FULL.md §12's supplemented "generic dry-run
// path": any refactor.EditSet can be rendered as a per-file diff
// without ever touching disk, by applying the edits against the
// in-memory Document text the Workspace already holds. cmd/elmwright's
// preview mode uses this before a rename/move is committed.
package workspace

import (
	"sort"

	"github.com/kraklabs/elmwright/pkg/refactor"
)

// FileDiff is one file's before/after text for a proposed edit set.
type FileDiff struct {
	Path   string
	Before string
	After  string
}

// Plan applies es against the Workspace's current in-memory documents
// and returns one FileDiff per touched file, in sorted path order,
// without mutating any document — the edit set is only realized in a
// throwaway string. Per spec.md §9's "scoped edit emission" note, the
// edits within one file are applied in descending (line, column) order
// so earlier replacements don't invalidate later ranges.
func (w *Workspace) Plan(es refactor.EditSet) []FileDiff {
	w.mu.RLock()
	defer w.mu.RUnlock()

	paths := make([]string, 0, len(es))
	for p := range es {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	diffs := make([]FileDiff, 0, len(paths))
	for _, path := range paths {
		entry, ok := w.idx.ModuleForPath(path)
		var before string
		if ok {
			before = entry.Doc.Source
		}
		after := ApplyEdits(before, es[path])
		diffs = append(diffs, FileDiff{Path: path, Before: before, After: after})
	}
	return diffs
}

// ApplyEdits splices edits into source, applying them in descending
// byte-offset order so each replacement's range is still valid against
// the not-yet-modified remainder of the text.
func ApplyEdits(source string, edits []refactor.Edit) string {
	sorted := make([]refactor.Edit, len(edits))
	copy(sorted, edits)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Range.Start.Offset > sorted[j].Range.Start.Offset
	})
	out := source
	for _, e := range sorted {
		start, end := e.Range.Start.Offset, e.Range.End.Offset
		if start < 0 || end > len(out) || start > end {
			continue
		}
		out = out[:start] + e.NewText + out[end:]
	}
	return out
}
