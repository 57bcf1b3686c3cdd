// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package document owns one source file's text and CST, and the
// header-level facts a refactor needs without re-walking the tree each
// time: the module name, its exposing list, and its import list. It is
// rebuilt wholesale on every source change (spec.md §4.B) — there is no
// incremental reparse, matching spec.md §1's explicit non-goal.
package document

import (
	"strings"

	"github.com/kraklabs/elmwright/pkg/syntax"
)

// Range is a half-open [Start, End) span over a Document's source,
// carrying both byte offsets and line/column so callers can pick
// whichever coordinate system they need without recomputing it.
type Range struct {
	Start syntax.Position
	End   syntax.Position
}

func RangeOf(n *syntax.Node) Range {
	if n == nil {
		return Range{}
	}
	return Range{Start: n.Start(), End: n.End()}
}

// ExposingEntry is one name in a module header or import's exposing
// list, with the "(..)" open-variant marker spec.md §3 calls out.
type ExposingEntry struct {
	Name    string
	AllSub  bool // true for "T(..)"
	Range   Range
}

// Exposing is a module or import's exposing clause: either the open
// form "exposing (..)" or an explicit set of names.
type Exposing struct {
	All     bool
	Entries []ExposingEntry
}

func (e Exposing) Has(name string) bool {
	if e.All {
		return true
	}
	for _, entry := range e.Entries {
		if entry.Name == name {
			return true
		}
	}
	return false
}

// Import is one "import Mod [as Alias] [exposing (...)]" line.
type Import struct {
	ModuleName string
	Alias      string // "" if no alias
	Exposing   Exposing
	Node       *syntax.Node
}

// Document is the per-file model §4.B describes: source text, CST, and
// the header facts (module name, exposing list, imports) extracted
// from it once at parse time.
type Document struct {
	Path   string
	Source string
	Tree   *syntax.Node

	ModuleName   string
	ModuleHeader *syntax.Node // nil if the file has no module header
	Exposing     Exposing
	Imports      []Import
}

// New parses source and extracts its header facts. It never fails —
// per spec.md §4.A/§8 property 6, Parse always returns a tree, and
// header extraction degrades gracefully (empty ModuleName, no
// imports) when the header itself didn't parse cleanly.
func New(path, source string) *Document {
	tree := syntax.Parse(source)
	d := &Document{Path: path, Source: source, Tree: tree}
	d.extractHeader()
	d.extractImports()
	return d
}

func (d *Document) extractHeader() {
	header := d.Tree.ChildOfKind("module-header")
	if header == nil {
		return
	}
	d.ModuleHeader = header
	if nameNode := header.ChildOfKind("module-name"); nameNode != nil {
		d.ModuleName = moduleNameText(nameNode)
	}
	if expList := header.ChildOfKind("exposing-list"); expList != nil {
		d.Exposing = parseExposing(expList)
	}
}

func (d *Document) extractImports() {
	for _, n := range d.Tree.ChildrenOfKind("import") {
		imp := Import{Node: n}
		if nameNode := n.ChildOfKind("module-name"); nameNode != nil {
			imp.ModuleName = moduleNameText(nameNode)
		}
		if alias := n.ChildOfKind("import-alias"); alias != nil {
			imp.Alias = alias.Text()
		}
		if expList := n.ChildOfKind("exposing-list"); expList != nil {
			imp.Exposing = parseExposing(expList)
		}
		d.Imports = append(d.Imports, imp)
	}
}

func moduleNameText(nameNode *syntax.Node) string {
	var parts []string
	for _, c := range nameNode.ChildrenOfKind("module-name-part") {
		parts = append(parts, c.Text())
	}
	return strings.Join(parts, ".")
}

func parseExposing(expList *syntax.Node) Exposing {
	var e Exposing
	for _, c := range expList.Children() {
		switch c.Kind() {
		case "exposing-all":
			e.All = true
		case "exposing-item":
			entry := ExposingEntry{Range: RangeOf(c)}
			if c.IsLeaf() {
				entry.Name = c.Text()
			} else if nameChild := c.Child(0); nameChild != nil {
				entry.Name = nameChild.Text()
				entry.Range = RangeOf(nameChild)
				if c.ChildOfKind("exposing-all") != nil {
					entry.AllSub = true
				}
			}
			e.Entries = append(e.Entries, entry)
		}
	}
	return e
}

// Declarations returns every top-level declaration node: function,
// type, type-alias, and port declarations, in source order.
func (d *Document) Declarations() []*syntax.Node {
	var out []*syntax.Node
	for _, c := range d.Tree.Children() {
		switch c.Kind() {
		case "function-declaration", "type-declaration", "type-alias-declaration", "port-declaration":
			out = append(out, c)
		}
	}
	return out
}

// NodeAt returns the innermost node whose range contains offset, or
// nil if offset falls outside the tree (or only inside an error node's
// synthesized zero-width span).
func (d *Document) NodeAt(offset int) *syntax.Node {
	var best *syntax.Node
	d.Tree.Walk(func(n *syntax.Node) bool {
		if n.Start().Offset > offset || n.End().Offset < offset {
			return false
		}
		if n.Start().Offset == n.End().Offset && n.Start().Offset != offset {
			return false
		}
		best = n
		return true
	})
	return best
}

// OffsetAt converts a 1-based line/column into a byte offset.
func (d *Document) OffsetAt(line, column int) int {
	curLine, curCol := 1, 1
	for i := 0; i < len(d.Source); i++ {
		if curLine == line && curCol == column {
			return i
		}
		if d.Source[i] == '\n' {
			curLine++
			curCol = 1
		} else {
			curCol++
		}
	}
	if curLine == line && curCol == column {
		return len(d.Source)
	}
	return -1
}

// HasParseErrors reports whether any node in the tree is an
// error-recovery node (spec.md's ParseIncomplete condition).
func (d *Document) HasParseErrors() bool {
	found := false
	d.Tree.Walk(func(n *syntax.Node) bool {
		if found {
			return false
		}
		if n.IsError() {
			found = true
			return false
		}
		return true
	})
	return found
}
