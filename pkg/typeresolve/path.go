// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package typeresolve

import (
	"github.com/kraklabs/elmwright/pkg/sigparse"
	"github.com/kraklabs/elmwright/pkg/syntax"
)

// findPath returns the ancestor chain from root to target, inclusive,
// using pointer identity (every CST node is a distinct allocation).
// Returns nil if target isn't reachable from root.
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

// ancestorOfKind returns the nearest ancestor (searching from the end
// of path backward, i.e. innermost first) with the given kind,
// excluding the target node itself.
func ancestorOfKind(path []*syntax.Node, kind string) *syntax.Node {
	for i := len(path) - 2; i >= 0; i-- {
		if path[i].Kind() == kind {
			return path[i]
		}
	}
	return nil
}

func ancestorOfKindAmong(path []*syntax.Node, kinds ...string) *syntax.Node {
	for i := len(path) - 2; i >= 0; i-- {
		for _, k := range kinds {
			if path[i].Kind() == k {
				return path[i]
			}
		}
	}
	return nil
}

// --- function parameter lookups ---

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

// paramIndexOf locates a pattern node (or a node nested inside one,
// e.g. a record-destructure-pattern passed as a parameter) among fn's
// parameter list and returns its 0-based position.
func paramIndexOf(fn, pattern *syntax.Node) (int, bool) {
	for i, p := range functionParams(fn) {
		if p == pattern {
			return i, true
		}
	}
	return 0, false
}

// paramIndexAndNodeByBoundName finds which parameter position binds
// name, returning the pattern node at that position (a
// variable-pattern, or a constructor-pattern for "(Ctor v)" params).
func paramIndexAndNodeByBoundName(fn *syntax.Node, name string) (int, *syntax.Node, bool) {
	for i, p := range functionParams(fn) {
		switch p.Kind() {
		case "variable-pattern":
			if p.Text() == name {
				return i, p, true
			}
		case "constructor-pattern":
			for _, arg := range p.Children() {
				if arg.Kind() == "variable-pattern" && arg.Text() == name {
					return i, p, true
				}
			}
		case "pattern-as":
			if children := p.Children(); len(children) == 2 && children[1].Text() == name {
				return i, children[1], true
			}
		}
	}
	return 0, nil, false
}

func signatureTextOf(fn *syntax.Node) string {
	if sig := fn.ChildOfKind("type-signature"); sig != nil {
		if len(sig.Children()) >= 3 {
			return reconstructTypeText(sig.Children()[2])
		}
	}
	return ""
}

// reconstructTypeText mirrors symbolindex's sourceOfTypeExpr; kept as
// a local, dependency-free copy so pkg/typeresolve doesn't need to
// import pkg/symbolindex's internal helpers.
func reconstructTypeText(n *syntax.Node) string {
	var parts []string
	n.Walk(func(node *syntax.Node) bool {
		if node.IsLeaf() {
			parts = append(parts, node.Text())
		}
		return true
	})
	out := ""
	for i, p := range parts {
		noBefore := p == ")" || p == "," || p == "."
		noAfter := i > 0 && (parts[i-1] == "(" || parts[i-1] == ".")
		if i > 0 && !noBefore && !noAfter {
			out += " "
		}
		out += p
	}
	return out
}

// paramTypeAt reads the declared type of fn's i-th parameter from its
// signature's arrow chain (spec.md §4.D rule 2/3's "function has a
// signature" branch).
func (r *Resolver) paramTypeAt(module string, fn *syntax.Node, i int) Result {
	sig := signatureTextOf(fn)
	if sig == "" {
		return unknown()
	}
	segments := sigparse.SplitArrowChain(sig)
	if i >= len(segments) {
		return unknown()
	}
	base := sigparse.BaseTypeName(segments[i])
	if t, ok := r.lookupTypeByName(module, base); ok {
		return resolved(t)
	}
	return unknown()
}

// --- let bindings ---

// nearestLetBinding walks path from innermost to outermost looking
// for a "let v = expr in ..." declaration binding name, returning the
// let-in node and the bound expression.
func nearestLetBinding(path []*syntax.Node, name string) (*syntax.Node, *syntax.Node) {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i].Kind() != "let-in" {
			continue
		}
		if expr := letBindingExprForName(path[i], name); expr != nil {
			return path[i], expr
		}
	}
	return nil, nil
}

func letBindingExprForName(letIn *syntax.Node, name string) *syntax.Node {
	for _, c := range letIn.Children() {
		if c.Kind() != "function-declaration" {
			continue
		}
		nameNode := c.ChildOfKind("name")
		if nameNode == nil || nameNode.Text() != name {
			continue
		}
		if len(functionParams(c)) > 0 {
			continue // a let-bound function, not a simple value binding
		}
		children := c.Children()
		if len(children) > 0 {
			return children[len(children)-1]
		}
	}
	return nil
}

// letBindingExprFor finds the bound expression for a let declaration
// whose left-hand pattern is exactly pattern (used for destructuring
// let bindings: "let { f, g } = expr in ...").
func letBindingExprFor(letIn *syntax.Node, pattern *syntax.Node) *syntax.Node {
	for _, c := range letIn.Children() {
		if c.Kind() != "pattern-binding" {
			continue
		}
		children := c.Children()
		if len(children) == 3 && children[0] == pattern {
			return children[2]
		}
	}
	return nil
}

// --- lambdas ---

// nearestLambdaBinding walks path looking for a lambda that binds
// name as one of its parameters.
func nearestLambdaBinding(path []*syntax.Node, name string) *syntax.Node {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i].Kind() != "lambda" {
			continue
		}
		for _, c := range path[i].Children() {
			if c.Kind() == "variable-pattern" && c.Text() == name {
				return path[i]
			}
		}
	}
	return nil
}

// enclosingApplyWithArg finds the nearest "apply" node in path whose
// direct argument list contains lambda.
func enclosingApplyWithArg(path []*syntax.Node, lambda *syntax.Node) *syntax.Node {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i].Kind() != "apply" {
			continue
		}
		for _, c := range path[i].Children() {
			if c == lambda {
				return path[i]
			}
		}
	}
	return nil
}

// callHeadName renders an apply's head node as a dotted name
// ("List.map", or a bare "map" for an unqualified/exposed reference).
func callHeadName(head *syntax.Node) string {
	switch head.Kind() {
	case "value-reference", "constructor-reference":
		return head.Text()
	case "qualified-reference":
		children := head.Children()
		if len(children) == 2 {
			return callHeadName(children[0]) + "." + callHeadName(children[1])
		}
	}
	return ""
}

// --- field-name collection for structural fallback ---

func destructureFieldNames(destructure *syntax.Node) []string {
	var out []string
	for _, c := range destructure.ChildrenOfKind("field-pattern") {
		out = append(out, c.Text())
	}
	return out
}

func literalFieldNames(literal *syntax.Node) []string {
	var out []string
	for _, c := range literal.ChildrenOfKind("field-assignment") {
		if nameNode := c.ChildOfKind("field-name"); nameNode != nil {
			out = append(out, nameNode.Text())
		}
	}
	return out
}
