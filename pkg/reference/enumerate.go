// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package reference

import (
	"strings"

	"github.com/kraklabs/elmwright/pkg/document"
	"github.com/kraklabs/elmwright/pkg/symbolindex"
	"github.com/kraklabs/elmwright/pkg/syntax"
	"github.com/kraklabs/elmwright/pkg/typeresolve"
)

// FindFunctionOccurrences collects every definition and every
// reference (qualified or unqualified) that resolves to the function
// targetName in targetModule, across the whole workspace. An
// unqualified use is only counted when no local binding of the same
// name shadows it in scope, per spec.md §4.E's "local shadowing
// bindings... mask" rule.
func (f *Finder) FindFunctionOccurrences(targetModule, targetName string) []Occurrence {
	var out []Occurrence
	for _, entry := range f.idx.AllModules() {
		doc := entry.Doc
		if doc == nil {
			continue
		}
		if entry.Name == targetModule {
			if fn, ok := entry.Functions[targetName]; ok {
				out = append(out, Occurrence{
					Path: doc.Path, Range: fn.NameRange, Kind: KindDefinition, Node: fn.Node,
				})
				if sig := fn.Node.ChildOfKind("type-signature"); sig != nil {
					if sigName := sig.ChildOfKind("name"); sigName != nil && document.RangeOf(sigName) != fn.NameRange {
						out = append(out, Occurrence{
							Path: doc.Path, Range: document.RangeOf(sigName), Kind: KindDefinition, Node: fn.Node,
						})
					}
				}
			}
		}

		exposedUnqualified := moduleExposesUnqualified(doc, targetModule, targetName)

		doc.Tree.Walk(func(n *syntax.Node) bool {
			switch n.Kind() {
			case "value-reference":
				if n.Text() != targetName {
					return true
				}
				path := findPath(doc.Tree, n)
				if _, shadowed := enclosingLocalBinding(path, targetName); shadowed {
					return true
				}
				if entry.Name == targetModule || exposedUnqualified {
					out = append(out, Occurrence{
						Path: doc.Path, Range: document.RangeOf(n), Kind: KindUnqualifiedReference, Node: n,
					})
				}
			case "qualified-reference":
				parts, final := flattenQualified(n)
				if final != targetName {
					return true
				}
				qualifier := strings.Join(parts, ".")
				if mod, ok := resolveQualifier(doc, qualifier); ok && mod == targetModule {
					tail := n.Children()[len(n.Children())-1]
					out = append(out, Occurrence{
						Path: doc.Path, Range: document.RangeOf(tail), Kind: KindQualifiedReference, Node: tail,
					})
				}
				return false
			}
			return true
		})
	}
	return out
}

// moduleExposesUnqualified reports whether doc can refer to
// targetModule.targetName without a qualifier — either doc is
// targetModule itself, or it imports targetModule with name exposed
// (explicitly, or via "exposing (..)").
func moduleExposesUnqualified(doc *document.Document, targetModule, name string) bool {
	if doc.ModuleName == targetModule {
		return true
	}
	for _, imp := range doc.Imports {
		if imp.ModuleName == targetModule && imp.Exposing.Has(name) {
			return true
		}
	}
	return false
}

// FindTypeOccurrences collects the definition and every reference to
// the type (alias or custom type) targetName in targetModule.
func (f *Finder) FindTypeOccurrences(targetModule, targetName string) []Occurrence {
	var out []Occurrence
	for _, entry := range f.idx.AllModules() {
		doc := entry.Doc
		if doc == nil {
			continue
		}
		if entry.Name == targetModule {
			if t, ok := entry.Types[targetName]; ok {
				declKind := "type-alias-declaration"
				if !t.IsAlias {
					declKind = "type-declaration"
				}
				decl := ancestorlessFindDecl(doc.Tree, declKind, targetName)
				out = append(out, Occurrence{
					Path: doc.Path, Range: t.NameRange, Kind: KindDefinition, Node: decl,
				})
			}
		}

		exposedUnqualified := moduleExposesUnqualified(doc, targetModule, targetName)

		doc.Tree.Walk(func(n *syntax.Node) bool {
			switch n.Kind() {
			case "type-name":
				if n.Text() != targetName {
					return true
				}
				if entry.Name == targetModule || exposedUnqualified {
					out = append(out, Occurrence{
						Path: doc.Path, Range: document.RangeOf(n), Kind: KindUnqualifiedReference, Node: n,
					})
				}
			case "qualified-type-name":
				parts, final := flattenQualified(n)
				if final != targetName {
					return true
				}
				qualifier := strings.Join(parts, ".")
				if mod, ok := resolveQualifier(doc, qualifier); ok && mod == targetModule {
					tail := n.Children()[len(n.Children())-1]
					out = append(out, Occurrence{
						Path: doc.Path, Range: document.RangeOf(tail), Kind: KindQualifiedReference, Node: tail,
					})
				}
				return false
			}
			return true
		})
	}
	return out
}

// singleParentOfKind reports the kind of n's immediate parent in
// root's tree, "" if n is the root or unreachable.
func singleParentOfKind(root, n *syntax.Node) string {
	path := findPath(root, n)
	if p := parentOf(path); p != nil {
		return p.Kind()
	}
	return ""
}

func ancestorlessFindDecl(root *syntax.Node, kind, name string) *syntax.Node {
	var found *syntax.Node
	root.Walk(func(n *syntax.Node) bool {
		if found != nil {
			return false
		}
		if n.Kind() == kind {
			if nameNode := n.ChildOfKind("name"); nameNode != nil && nameNode.Text() == name {
				found = n
				return false
			}
		}
		return true
	})
	return found
}

// FindVariantOccurrences collects the definition and every
// constructor use (as a value, or as a pattern) of targetTypeName's
// targetVariantName variant, in targetModule.
func (f *Finder) FindVariantOccurrences(targetModule, targetTypeName, targetVariantName string) []Occurrence {
	var out []Occurrence
	for _, entry := range f.idx.AllModules() {
		doc := entry.Doc
		if doc == nil {
			continue
		}
		if entry.Name == targetModule {
			if t, ok := entry.Types[targetTypeName]; ok {
				for _, v := range t.Variants {
					if v.Name == targetVariantName {
						out = append(out, Occurrence{
							Path: doc.Path, Range: v.NameRange, Kind: KindDefinition,
						})
					}
				}
			}
		}

		exposedUnqualified := moduleExposesUnqualified(doc, targetModule, targetVariantName) ||
			moduleExposesUnqualified(doc, targetModule, targetTypeName)

		doc.Tree.Walk(func(n *syntax.Node) bool {
			switch n.Kind() {
			case "constructor-reference", "constructor-pattern-name":
				if n.Text() != targetVariantName {
					return true
				}
				refs := f.idx.VariantsNamed(targetVariantName)
				if len(refs) > 1 && !(entry.Name == targetModule || exposedUnqualified) {
					return true // ambiguous against an un-imported same-named variant elsewhere
				}
				matches := false
				for _, r := range refs {
					if r.TypeModule == targetModule && r.TypeName == targetTypeName {
						matches = true
					}
				}
				if matches && (entry.Name == targetModule || exposedUnqualified) {
					out = append(out, Occurrence{
						Path: doc.Path, Range: document.RangeOf(n), Kind: KindUnqualifiedReference, Node: n,
					})
				}
			case "qualified-reference":
				parts, final := flattenQualified(n)
				if final != targetVariantName {
					return true
				}
				qualifier := strings.Join(parts, ".")
				if mod, ok := resolveQualifier(doc, qualifier); ok && mod == targetModule {
					tail := n.Children()[len(n.Children())-1]
					out = append(out, Occurrence{
						Path: doc.Path, Range: document.RangeOf(tail), Kind: KindQualifiedReference, Node: tail,
					})
				}
				return false
			}
			return true
		})
	}
	return out
}

// FindFieldOccurrences collects every occurrence — declaration,
// access, record-literal/update assignment, and destructure pattern —
// whose resolved owner is exactly targetType, plus the field's
// declaration site itself. Per spec.md §4.E, a textual match whose
// owner resolves elsewhere, or Ambiguous, is never included.
func (f *Finder) FindFieldOccurrences(targetType *symbolindex.TypeSymbol, targetFieldName string) []Occurrence {
	var out []Occurrence
	declPath := ""
	if m, ok := f.idx.Module(targetType.Module); ok {
		declPath = m.Path
	}
	for _, fld := range targetType.Fields {
		if fld.Name == targetFieldName {
			out = append(out, Occurrence{
				Path: declPath, Range: fld.NameRange, Kind: KindDefinition,
			})
		}
	}

	for _, entry := range f.idx.AllModules() {
		doc := entry.Doc
		if doc == nil {
			continue
		}
		doc.Tree.Walk(func(n *syntax.Node) bool {
			var kind OccurrenceKind
			switch n.Kind() {
			case "field-name":
				if parent := singleParentOfKind(doc.Tree, n); parent == "field-access" {
					kind = KindFieldAccess
				} else if parent == "field-assignment" {
					if container := nearestContainerKind(doc.Tree, n); container == "record-update" {
						kind = KindFieldRecordUpdate
					} else {
						kind = KindFieldRecordLiteral
					}
				} else {
					return true
				}
			case "field-pattern":
				kind = KindFieldDestructure
			default:
				return true
			}
			if n.Text() != targetFieldName {
				return true
			}
			res := f.resolver.ResolveFieldOwner(doc, entry.Name, n)
			if res.Status == typeresolve.Resolved && res.Type == targetType {
				out = append(out, Occurrence{Path: doc.Path, Range: document.RangeOf(n), Kind: kind, Node: n})
			}
			return true
		})
	}
	return out
}

func nearestContainerKind(root, n *syntax.Node) string {
	path := findPath(root, n)
	for i := len(path) - 2; i >= 0; i-- {
		switch path[i].Kind() {
		case "record-update", "record-literal":
			return path[i].Kind()
		}
	}
	return ""
}

// FindLocalBindingOccurrences collects every use of a function
// parameter or let/lambda/case-bound name within its single enclosing
// function declaration. Used only for read-only navigation (no
// refactor operation renames local variables).
func (f *Finder) FindLocalBindingOccurrences(doc *document.Document, fn *syntax.Node, name string) []Occurrence {
	var out []Occurrence
	fn.Walk(func(n *syntax.Node) bool {
		if n.Kind() != "value-reference" && n.Kind() != "variable-pattern" {
			return true
		}
		if n.Text() != name {
			return true
		}
		path := findPath(fn, n)
		if boundFn, ok := enclosingLocalBinding(path, name); !ok || boundFn != fn {
			// bound by a nested, shadowing scope instead: not this binding.
			if n.Kind() == "value-reference" {
				return true
			}
		}
		kind := KindUnqualifiedReference
		if n.Kind() == "variable-pattern" {
			kind = KindPatternBinding
		}
		out = append(out, Occurrence{Path: doc.Path, Range: document.RangeOf(n), Kind: kind, Node: n})
		return true
	})
	return out
}
