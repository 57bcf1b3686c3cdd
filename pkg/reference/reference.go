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

// Package reference implements spec.md §4.E: given a declaration under
// the cursor, classify it, then enumerate every textual occurrence
// that semantically refers to the same entity. Grounded on the
// teacher's CallResolver's alias/qualified-call disambiguation
// (pkg/ingestion/resolver.go's fileImports/importPathToPackagePath
// maps), carried over from Go import paths to Elm's "import Mod as
// Alias exposing (...)" form. Per spec.md §9's "polymorphism over
// symbol kinds", Function/Type/Variant/Field/LocalBinding all produce
// the same Occurrence shape.
package reference

import (
	"strings"

	"github.com/kraklabs/elmwright/pkg/document"
	"github.com/kraklabs/elmwright/pkg/symbolindex"
	"github.com/kraklabs/elmwright/pkg/syntax"
	"github.com/kraklabs/elmwright/pkg/typeresolve"
)

// OccurrenceKind enumerates the node roles spec.md §3's Occurrence
// data model names.
type OccurrenceKind string

const (
	KindDefinition           OccurrenceKind = "definition"
	KindQualifiedReference   OccurrenceKind = "qualified-reference"
	KindUnqualifiedReference OccurrenceKind = "unqualified-reference"
	KindPatternBinding        OccurrenceKind = "pattern-binding"
	KindFieldAccess           OccurrenceKind = "field-access"
	KindFieldRecordLiteral    OccurrenceKind = "field-record-literal"
	KindFieldRecordUpdate     OccurrenceKind = "field-record-update"
	KindFieldDestructure      OccurrenceKind = "field-destructure"
	KindExposingEntry         OccurrenceKind = "exposing-entry"
)

// Occurrence is the (file, range, kind) triple of spec.md §3. Node is
// the specific identifier-range node an edit should replace text on —
// for field kinds this is the field-name leaf, never the whole
// surrounding expression.
type Occurrence struct {
	Path  string
	Range document.Range
	Kind  OccurrenceKind
	Node  *syntax.Node
}

// SymbolKind classifies what a cursor position resolved to, per
// spec.md §4.E's "classify it (function, type, variant, field,
// module-local binding)".
type SymbolKind int

const (
	None SymbolKind = iota
	SymFunction
	SymType
	SymVariant
	SymField
	SymLocalBinding
)

// Target identifies the specific entity a cursor position classified
// to, carrying only the fields relevant to its Kind.
type Target struct {
	Kind SymbolKind

	Module string // function / type / variant owning module
	Name   string // function / type / variant name

	TypeName string // variant: the owning type's name

	Field *symbolindex.FieldSymbol // field: resolved owner + name

	LocalFuncNode *syntax.Node // local binding: enclosing function-declaration
	LocalName     string
}

// DocSet lists every Document in a workspace, for Finder methods
// that must scan every file in the workspace.
type DocSet interface {
	AllDocuments() []*document.Document
}

// Finder enumerates occurrences against one workspace's symbol index.
type Finder struct {
	idx      *symbolindex.Index
	resolver *typeresolve.Resolver
}

func New(idx *symbolindex.Index) *Finder {
	return &Finder{idx: idx, resolver: typeresolve.New(idx)}
}

// Classify determines which symbol the node at offset in doc refers
// to, walking upward from the innermost node until a recognized role
// is found.
func (f *Finder) Classify(doc *document.Document, module string, offset int) Target {
	node := doc.NodeAt(offset)
	if node == nil {
		return Target{}
	}
	path := findPath(doc.Tree, node)
	if path == nil {
		return Target{}
	}

	for i := len(path) - 1; i >= 0; i-- {
		n := path[i]
		switch n.Kind() {
		case "field-name", "field-pattern":
			if res := f.resolver.ResolveFieldOwner(doc, module, n); res.Status == typeresolve.Resolved {
				if fs := fieldOf(res.Type, n.Text()); fs != nil {
					return Target{Kind: SymField, Field: fs}
				}
			}
			return Target{}
		case "variant-name":
			if parent := path[i-1]; i > 0 && parent.Kind() == "variant" {
				if typeName := findEnclosingTypeDecl(path, i); typeName != "" {
					return Target{Kind: SymVariant, Module: module, TypeName: typeName, Name: n.Text()}
				}
			}
		case "constructor-reference", "constructor-pattern-name":
			if ref, ok := f.resolveVariantRef(module, n.Text()); ok {
				return Target{Kind: SymVariant, Module: ref.TypeModule, TypeName: ref.TypeName, Name: ref.Name}
			}
		case "name":
			if i > 0 {
				parent := path[i-1]
				if parent.Kind() == "function-declaration" || parent.Kind() == "port-declaration" || parent.Kind() == "type-signature" {
					return Target{Kind: SymFunction, Module: module, Name: n.Text()}
				}
				if parent.Kind() == "type-declaration" || parent.Kind() == "type-alias-declaration" {
					return Target{Kind: SymType, Module: module, Name: n.Text()}
				}
			}
		case "value-reference":
			if localFn, ok := enclosingLocalBinding(path, n.Text()); ok {
				return Target{Kind: SymLocalBinding, LocalFuncNode: localFn, LocalName: n.Text()}
			}
			if _, ok := f.idx.Function(module, n.Text()); ok {
				return Target{Kind: SymFunction, Module: module, Name: n.Text()}
			}
			if mod, name, ok := resolveUnqualifiedFunction(doc, f.idx, n.Text()); ok {
				return Target{Kind: SymFunction, Module: mod, Name: name}
			}
		case "qualified-reference":
			if qualTarget, ok := f.classifyQualified(doc, n); ok {
				return qualTarget
			}
		case "type-name", "qualified-type-name":
			if t, ok := f.resolveTypeNameNode(doc, module, n); ok {
				return Target{Kind: SymType, Module: t.Module, Name: t.Name}
			}
		}
	}
	return Target{}
}

func (f *Finder) classifyQualified(doc *document.Document, n *syntax.Node) (Target, bool) {
	parts, final := flattenQualified(n)
	qualifier := strings.Join(parts, ".")
	targetModule, ok := resolveQualifier(doc, qualifier)
	if !ok {
		return Target{}, false
	}
	if fn, ok := f.idx.Function(targetModule, final); ok {
		return Target{Kind: SymFunction, Module: fn.Module, Name: fn.Name}, true
	}
	if ref, ok := f.resolveVariantRefIn(targetModule, final); ok {
		return Target{Kind: SymVariant, Module: ref.TypeModule, TypeName: ref.TypeName, Name: ref.Name}, true
	}
	return Target{}, false
}

func fieldOf(t *symbolindex.TypeSymbol, name string) *symbolindex.FieldSymbol {
	for _, fld := range t.Fields {
		if fld.Name == name {
			return fld
		}
	}
	return nil
}

func findEnclosingTypeDecl(path []*syntax.Node, fromIdx int) string {
	for i := fromIdx; i >= 0; i-- {
		if path[i].Kind() == "type-declaration" {
			if nameNode := path[i].ChildOfKind("name"); nameNode != nil {
				return nameNode.Text()
			}
		}
	}
	return ""
}

func (f *Finder) resolveVariantRef(module, name string) (symbolindex.VariantRef, bool) {
	return f.resolveVariantRefIn(module, name)
}

func (f *Finder) resolveVariantRefIn(preferredModule, name string) (symbolindex.VariantRef, bool) {
	refs := f.idx.VariantsNamed(name)
	for _, r := range refs {
		if r.TypeModule == preferredModule {
			return r, true
		}
	}
	if len(refs) == 1 {
		return refs[0], true
	}
	return symbolindex.VariantRef{}, false
}

func (f *Finder) resolveTypeNameNode(doc *document.Document, module string, n *syntax.Node) (*symbolindex.TypeSymbol, bool) {
	if n.Kind() == "qualified-type-name" {
		parts, final := flattenQualified(n)
		targetModule, ok := resolveQualifier(doc, strings.Join(parts, "."))
		if !ok {
			return nil, false
		}
		return f.idx.Type(targetModule, final)
	}
	if t, ok := f.idx.Type(module, n.Text()); ok {
		return t, true
	}
	if owner, ok := f.idx.TypeOwner(n.Text()); ok {
		return f.idx.Type(owner, n.Text())
	}
	return nil, false
}

// resolveUnqualifiedFunction finds the module an unqualified
// reference name resolves to through doc's imports (an "exposing
// (name)" or "exposing (..)" clause).
func resolveUnqualifiedFunction(doc *document.Document, idx *symbolindex.Index, name string) (string, string, bool) {
	for _, imp := range doc.Imports {
		if !imp.Exposing.Has(name) {
			continue
		}
		if fn, ok := idx.Function(imp.ModuleName, name); ok {
			return fn.Module, fn.Name, true
		}
	}
	return "", "", false
}

// --- import/qualifier resolution ---

// resolveQualifier maps a use-site qualifier text ("Utils", an
// aliased "U") to the module name it denotes in doc.
func resolveQualifier(doc *document.Document, qualifier string) (string, bool) {
	if qualifier == "" {
		return "", false
	}
	if doc.ModuleName == qualifier {
		return doc.ModuleName, true
	}
	for _, imp := range doc.Imports {
		if imp.Alias == qualifier {
			return imp.ModuleName, true
		}
		if imp.Alias == "" && imp.ModuleName == qualifier {
			return imp.ModuleName, true
		}
	}
	return "", false
}

// QualifierUsed returns the alias doc uses to refer to targetModule —
// the explicit "as" alias if any, else the bare module name — or ""
// if doc doesn't import targetModule at all (and isn't targetModule
// itself, in which case the empty qualifier denotes an unqualified
// use).
func QualifierUsed(doc *document.Document, targetModule string) (string, bool) {
	if doc.ModuleName == targetModule {
		return "", true
	}
	for _, imp := range doc.Imports {
		if imp.ModuleName == targetModule {
			if imp.Alias != "" {
				return imp.Alias, true
			}
			return imp.ModuleName, true
		}
	}
	return "", false
}

func flattenQualified(n *syntax.Node) (parts []string, final string) {
	if n.Kind() == "qualified-reference" || n.Kind() == "qualified-type-name" {
		children := n.Children()
		if len(children) != 2 {
			return nil, ""
		}
		leftParts, leftFinal := flattenQualified(children[0])
		parts = append(leftParts, leftFinal)
		final = children[1].Text()
		return
	}
	return nil, n.Text()
}
