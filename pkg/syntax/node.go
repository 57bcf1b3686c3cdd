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

// Package syntax is a hand-written, error-tolerant parser for the
// target language's concrete syntax. It wraps the same shape the
// teacher wraps go-tree-sitter in — a Node with Kind(), Children(),
// byte offsets, line/column, and Walk — so pkg/document,
// pkg/typeresolve, and pkg/refactor consume it exactly as the
// teacher's ingestion code consumes a *sitter.Node. There is no
// fetchable grammar binding for this language in the retrieval pack's
// dependency graph, so this component — alone among the core — is
// built on the standard library; see DESIGN.md.
package syntax

// Position is a 1-based line/column coordinate paired with its 0-based
// byte offset into the source.
type Position struct {
	Line   int
	Column int
	Offset int
}

// Node is one CST node. Leaf nodes (identifiers, literals, operators,
// punctuation, comments) carry Text; interior nodes carry Children.
// Kind names match the node *roles* spec.md references: "module-header",
// "import", "exposing-list", "field-access", "record-update",
// "record-literal", "case-of", "pattern-as", "lambda", "apply",
// "let-in", plus declaration- and pattern-level kinds.
type Node struct {
	kind     string
	start    Position
	end      Position
	text     string
	children []*Node
	err      bool // true for error-recovery nodes (spec.md §4.A totality)
}

func NewLeaf(kind string, start, end Position, text string) *Node {
	return &Node{kind: kind, start: start, end: end, text: text}
}

func NewInterior(kind string, children []*Node) *Node {
	n := &Node{kind: kind, children: children}
	if len(children) > 0 {
		n.start = children[0].start
		n.end = children[len(children)-1].end
	}
	return n
}

func NewError(start, end Position, children []*Node) *Node {
	n := NewInterior("error", children)
	n.err = true
	n.start, n.end = start, end
	return n
}

func (n *Node) Kind() string       { return n.kind }
func (n *Node) Text() string       { return n.text }
func (n *Node) Children() []*Node  { return n.children }
func (n *Node) Start() Position    { return n.start }
func (n *Node) End() Position      { return n.end }
func (n *Node) IsError() bool      { return n.err }
func (n *Node) IsLeaf() bool       { return len(n.children) == 0 }
func (n *Node) ChildCount() int    { return len(n.children) }
func (n *Node) Child(i int) *Node {
	if i < 0 || i >= len(n.children) {
		return nil
	}
	return n.children[i]
}

// ChildOfKind returns the node's first child of the given kind, or nil.
func (n *Node) ChildOfKind(kind string) *Node {
	for _, c := range n.children {
		if c.kind == kind {
			return c
		}
	}
	return nil
}

// ChildrenOfKind returns every direct child with the given kind.
func (n *Node) ChildrenOfKind(kind string) []*Node {
	var out []*Node
	for _, c := range n.children {
		if c.kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// Walk visits n and every descendant in pre-order depth-first order.
// visit returns false to skip the subtree rooted at the node it was
// given (its children are not visited), true to continue descending.
func (n *Node) Walk(visit func(*Node) bool) {
	if n == nil {
		return
	}
	if !visit(n) {
		return
	}
	for _, c := range n.children {
		c.Walk(visit)
	}
}

// Source returns the exact source text spanned by the node, given the
// full file text it was parsed from.
func (n *Node) Source(fullText string) string {
	if n.start.Offset < 0 || n.end.Offset > len(fullText) || n.start.Offset > n.end.Offset {
		return ""
	}
	return fullText[n.start.Offset:n.end.Offset]
}
