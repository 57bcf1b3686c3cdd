// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package reference

import "github.com/kraklabs/elmwright/pkg/syntax"

func findPath(root, target *syntax.Node) []*syntax.Node {
	if root == target {
		return []*syntax.Node{root}
	}
	for _, c := range root.Children() {
		if p := findPath(c, target); p != nil {
			return append([]*syntax.Node{root}, p...)
		}
	}
	return nil
}

func parentOf(path []*syntax.Node) *syntax.Node {
	if len(path) < 2 {
		return nil
	}
	return path[len(path)-2]
}

func ancestorOfKind(path []*syntax.Node, kind string) *syntax.Node {
	for i := len(path) - 2; i >= 0; i-- {
		if path[i].Kind() == kind {
			return path[i]
		}
	}
	return nil
}

func functionParams(fn *syntax.Node) []*syntax.Node {
	var out []*syntax.Node
	seenName := false
	for _, c := range fn.Children() {
		switch c.Kind() {
		case "type-signature":
			continue
		case "name":
			if seenName {
				out = append(out, c)
			}
			seenName = true
		case "punct":
			return out
		default:
			if seenName {
				out = append(out, c)
			}
		}
	}
	return out
}

// enclosingLocalBinding reports whether name is bound by a pattern or
// parameter local to the innermost enclosing function-declaration in
// path (a parameter, a pattern-binding's left-hand side, a case
// branch's pattern, or a lambda parameter) — used both to classify a
// local-binding target and to decide whether an outer function/import
// reference is shadowed at a given use site.
func enclosingLocalBinding(path []*syntax.Node, name string) (*syntax.Node, bool) {
	fn := ancestorOfKind(path, "function-declaration")
	if fn == nil {
		return nil, false
	}
	if fn == path[len(path)-1] {
		// the path's innermost node is the declaration itself: no
		// narrower scope to check, fall through to parameter scan.
	}
	for _, p := range functionParams(fn) {
		if patternBindsName(p, name) {
			return fn, true
		}
	}
	for i := range path {
		n := path[i]
		switch n.Kind() {
		case "lambda":
			for _, c := range n.Children() {
				if c.Kind() != "punct" && patternBindsName(c, name) {
					return fn, true
				}
			}
		case "let-in":
			for _, c := range n.Children() {
				if c.Kind() == "function-declaration" {
					if nameNode := c.ChildOfKind("name"); nameNode != nil && nameNode.Text() == name {
						return fn, true
					}
				}
				if c.Kind() == "pattern-binding" && len(c.Children()) > 0 && patternBindsName(c.Children()[0], name) {
					return fn, true
				}
			}
		case "case-branch":
			if len(n.Children()) > 0 && patternBindsName(n.Children()[0], name) {
				return fn, true
			}
		}
	}
	return nil, false
}

func patternBindsName(pat *syntax.Node, name string) bool {
	found := false
	pat.Walk(func(n *syntax.Node) bool {
		if found {
			return false
		}
		if n.Kind() == "variable-pattern" && n.Text() == name {
			found = true
			return false
		}
		return true
	})
	return found
}
