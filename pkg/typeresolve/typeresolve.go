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

// Package typeresolve answers spec.md §4.D's one query: given a CST
// node that is a field occurrence, which record-alias type owns it.
// It implements just enough inference to disambiguate field rename —
// not full let-polymorphic unification (spec.md §1's explicit
// non-goal). Grounded on the teacher's implements.go superset-of-
// methods check (pkg/ingestion/implements.go), generalized from "type
// T implements interface I" to "record type T structurally matches
// the fields observed at an occurrence" for the rule 6 fallback.
package typeresolve

import (
	"github.com/kraklabs/elmwright/pkg/document"
	"github.com/kraklabs/elmwright/pkg/sigparse"
	"github.com/kraklabs/elmwright/pkg/symbolindex"
	"github.com/kraklabs/elmwright/pkg/syntax"
)

// Status classifies the outcome of a field-owner query.
type Status int

const (
	Unknown Status = iota
	Resolved
	Ambiguous
)

type Result struct {
	Status Status
	Type   *symbolindex.TypeSymbol
}

func unknown() Result   { return Result{Status: Unknown} }
func ambiguous() Result { return Result{Status: Ambiguous} }
func resolved(t *symbolindex.TypeSymbol) Result {
	if t == nil {
		return unknown()
	}
	return Result{Status: Resolved, Type: t}
}

// mapLikeArgIndex names the recognized "collection element -> value"
// higher-order functions (spec.md §4.D rule 3's lambda-parameter
// sub-case) and the 0-based index, among an apply node's argument
// children (excluding the head), of the collection argument.
var mapLikeArgIndex = map[string]int{
	"List.map": 1, "List.indexedMap": 1, "List.filterMap": 1, "List.concatMap": 1,
	"Array.map": 1, "Array.indexedMap": 1,
	"Dict.map": 1,
	"map": 1, "filterMap": 1, "concatMap": 1, "indexedMap": 1,
}

// Resolver answers field-owner queries against one workspace's symbol
// index. It holds no per-query state — every call is independent,
// matching spec.md §5's "no suspension inside ... the refactor
// engine" / stateless-per-call design.
type Resolver struct {
	idx *symbolindex.Index
}

func New(idx *symbolindex.Index) *Resolver {
	return &Resolver{idx: idx}
}

// ResolveFieldOwner is the §4.D entry point. occurrence is the
// specific node role spec.md lists: a "field-name" leaf (inside a
// field-access or field-type), a "field-pattern" leaf (inside a
// record-destructure-pattern), or the "field-name" leaf of a
// "field-assignment" (inside a record-literal or record-update).
func (r *Resolver) ResolveFieldOwner(doc *document.Document, module string, occurrence *syntax.Node) Result {
	path := findPath(doc.Tree, occurrence)
	if path == nil {
		return unknown()
	}
	parent := parentOf(path)

	switch {
	case parent != nil && parent.Kind() == "field-type":
		return r.resolveDeclarationSite(path, module)
	case parent != nil && parent.Kind() == "field-access":
		return r.resolveFieldAccess(doc, module, path, parent, occurrence)
	case occurrence.Kind() == "field-pattern":
		return r.resolveDestructureField(doc, module, path, occurrence)
	case parent != nil && parent.Kind() == "field-assignment":
		return r.resolveFieldAssignment(doc, module, path, parent, occurrence)
	}
	return unknown()
}

func (r *Resolver) resolveDeclarationSite(path []*syntax.Node, module string) Result {
	decl := ancestorOfKind(path, "type-alias-declaration")
	if decl == nil {
		return unknown()
	}
	nameNode := decl.ChildOfKind("name")
	if nameNode == nil {
		return unknown()
	}
	t, ok := r.idx.Type(module, nameNode.Text())
	if !ok {
		return unknown()
	}
	return resolved(t)
}

// --- rule 3: field access e.f ---

func (r *Resolver) resolveFieldAccess(doc *document.Document, module string, path []*syntax.Node, fieldAccess *syntax.Node, fieldNameLeaf *syntax.Node) Result {
	base := fieldAccess.Child(0)
	if base == nil {
		return unknown()
	}
	res := r.resolveExprType(doc, module, path, base)
	if res.Status == Unknown {
		// rule 6 for an access: the record types that have this field.
		return r.structuralFallbackForFields(module, nil, fieldNameLeaf.Text())
	}
	return r.requireField(res, fieldNameLeaf.Text())
}

// requireField narrows a resolved expression type down to whether it
// actually owns the requested field. A type that resolved but lacks
// the field is deliberately reported Unknown rather than falling
// through to the structural fallback — spec.md §4.D rule 3's explicit
// "STOP" for the pattern-binding short-circuit, applied uniformly
// whenever the base type is already known with confidence.
func (r *Resolver) requireField(res Result, field string) Result {
	if res.Status != Resolved {
		return res
	}
	for _, f := range res.Type.Fields {
		if f.Name == field {
			return res
		}
	}
	return unknown()
}

// --- rule 2/destructure: { f, g } = x, or as a function parameter ---

func (r *Resolver) resolveDestructureField(doc *document.Document, module string, path []*syntax.Node, fieldPattern *syntax.Node) Result {
	destructure := ancestorOfKind(path, "record-destructure-pattern")
	if destructure == nil {
		return unknown()
	}
	owner := r.resolveDestructureOwner(doc, module, path, destructure)
	return r.requireField(owner, fieldPattern.Text())
}

func (r *Resolver) resolveDestructureOwner(doc *document.Document, module string, path []*syntax.Node, destructure *syntax.Node) Result {
	fn := ancestorOfKind(path, "function-declaration")
	if fn != nil {
		if idx, ok := paramIndexOf(fn, destructure); ok {
			if t := r.paramTypeAt(module, fn, idx); t.Status == Resolved {
				return t
			}
		}
	}
	if letDecl := ancestorOfKind(path, "let-in"); letDecl != nil {
		if expr := letBindingExprFor(letDecl, destructure); expr != nil {
			return r.resolveExprType(doc, module, path, expr)
		}
	}
	return r.structuralFallbackForFields(module, destructureFieldNames(destructure), "")
}

// --- identifier resolution shared by field-access bases, update
// bases, and destructure right-hand sides ---

// resolveIdentifierType resolves the declared or inferred type of a
// bare identifier in scope at path, per spec.md §4.D rule 3's
// sub-bullets.
func (r *Resolver) resolveIdentifierType(doc *document.Document, module string, path []*syntax.Node, name string) Result {
	for i := len(path) - 2; i >= 0; i-- {
		fn := path[i]
		if fn.Kind() != "function-declaration" {
			continue
		}
		if idx, paramNode, ok := paramIndexAndNodeByBoundName(fn, name); ok {
			switch paramNode.Kind() {
			case "variable-pattern":
				return r.paramTypeAt(module, fn, idx)
			case "constructor-pattern":
				// rule 3's pattern-destructure sub-bullet: (Ctor v).
				return r.resolveConstructorPatternBinding(module, paramNode, name)
			}
		}
	}

	if lambda := nearestLambdaBinding(path, name); lambda != nil {
		return r.resolveLambdaParamType(doc, module, path, lambda, name)
	}

	if letDecl, expr := nearestLetBinding(path, name); letDecl != nil {
		return r.resolveExprType(doc, module, path, expr)
	}

	return unknown()
}

func (r *Resolver) resolveConstructorPatternBinding(module string, ctorPattern *syntax.Node, boundName string) Result {
	ctorNameNode := ctorPattern.ChildOfKind("constructor-pattern-name")
	if ctorNameNode == nil {
		return unknown()
	}
	refs := r.idx.VariantsNamed(ctorNameNode.Text())
	for _, ref := range refs {
		t, ok := r.idx.Type(ref.TypeModule, ref.TypeName)
		if !ok {
			continue
		}
		for _, v := range t.Variants {
			if v.Name != ctorNameNode.Text() || len(v.ArgTypes) != 1 {
				continue
			}
			argBase := sigparse.BaseTypeName(v.ArgTypes[0])
			if argType, ok := r.lookupTypeByName(module, argBase); ok {
				return resolved(argType)
			}
		}
	}
	return unknown()
}

// resolveLambdaParamType implements rule 3's "lambda parameter whose
// type comes from a recognized map-like combinator's collection
// argument" inference, and rule 4's restriction that a record-update
// base only resolves this way when it is *statically* a lambda
// parameter.
func (r *Resolver) resolveLambdaParamType(doc *document.Document, module string, path []*syntax.Node, lambda *syntax.Node, paramName string) Result {
	apply := enclosingApplyWithArg(path, lambda)
	if apply == nil {
		return unknown()
	}
	args := apply.Children()
	if len(args) < 2 {
		return unknown()
	}
	head := callHeadName(args[0])
	collIdx, ok := mapLikeArgIndex[head]
	if !ok || collIdx >= len(args)-1 {
		return unknown()
	}
	collArg := args[1+collIdx]
	collType := r.resolveCollectionExprType(doc, module, path, collArg)
	if collType == "" {
		return unknown()
	}
	_, elemArgs := sigparse.UnwrapApplication(collType)
	if len(elemArgs) == 0 {
		return unknown()
	}
	elemBase := sigparse.BaseTypeName(elemArgs[0])
	if t, ok := r.lookupTypeByName(module, elemBase); ok {
		return resolved(t)
	}
	return unknown()
}

// resolveCollectionExprType returns the declared type text (e.g.
// "List Person") of a map-like combinator's collection argument, when
// that argument is itself a function parameter with a signature.
func (r *Resolver) resolveCollectionExprType(doc *document.Document, module string, path []*syntax.Node, expr *syntax.Node) string {
	if expr.Kind() != "value-reference" {
		return ""
	}
	fn := ancestorOfKind(path, "function-declaration")
	if fn == nil {
		return ""
	}
	idx, paramNode, ok := paramIndexAndNodeByBoundName(fn, expr.Text())
	if !ok || paramNode.Kind() != "variable-pattern" {
		return ""
	}
	sig := signatureTextOf(fn)
	if sig == "" {
		return ""
	}
	segments := sigparse.SplitArrowChain(sig)
	if idx >= len(segments) {
		return ""
	}
	return segments[idx]
}

// --- rule 5: function call g arg ---

func (r *Resolver) resolveFieldAssignment(doc *document.Document, module string, path []*syntax.Node, assignment *syntax.Node, fieldNameLeaf *syntax.Node) Result {
	container := ancestorOfKindAmong(path, "record-literal", "record-update")
	if container == nil {
		return unknown()
	}
	var owner Result
	switch container.Kind() {
	case "record-update":
		owner = r.resolveUpdateOwner(doc, module, path, container)
	case "record-literal":
		owner = r.resolveLiteralOwner(doc, module, path, container)
	}
	return r.requireField(owner, fieldNameLeaf.Text())
}

func (r *Resolver) resolveUpdateOwner(doc *document.Document, module string, path []*syntax.Node, update *syntax.Node) Result {
	base := update.ChildOfKind("record-update-base")
	if base == nil {
		return unknown()
	}
	return r.resolveIdentifierType(doc, module, path, base.Text())
}

func (r *Resolver) resolveLiteralOwner(doc *document.Document, module string, path []*syntax.Node, literal *syntax.Node) Result {
	// rule 5: the literal is a call argument to a function with a
	// known signature.
	if apply := ancestorOfKind(path, "apply"); apply != nil {
		args := apply.Children()
		for i := 1; i < len(args); i++ {
			if args[i] == literal {
				if head := args[0]; head.Kind() == "value-reference" || head.Kind() == "qualified-reference" {
					if t := r.resolveCallArgType(module, head, i-1); t.Status == Resolved {
						return t
					}
				}
			}
		}
	}
	return r.structuralFallbackForFields(module, literalFieldNames(literal), "")
}

func (r *Resolver) resolveCallArgType(module string, head *syntax.Node, argIdx int) Result {
	fnModule, fnName := r.resolveCalleeName(module, head)
	if fnName == "" {
		return unknown()
	}
	fn, ok := r.idx.Function(fnModule, fnName)
	if !ok || fn.SignatureText == "" {
		return unknown()
	}
	segments := sigparse.SplitArrowChain(fn.SignatureText)
	if argIdx >= len(segments) {
		return unknown()
	}
	base := sigparse.BaseTypeName(segments[argIdx])
	if t, ok := r.lookupTypeByName(module, base); ok {
		return resolved(t)
	}
	return unknown()
}

func (r *Resolver) resolveCalleeName(fromModule string, head *syntax.Node) (module, name string) {
	if head.Kind() == "value-reference" {
		return fromModule, head.Text()
	}
	if head.Kind() == "qualified-reference" && len(head.Children()) == 2 {
		// unresolved against imports here; callers needing import-alias
		// precision go through pkg/reference's classifier instead. A
		// best-effort same-name lookup across the index's local name
		// covers the common single-module-per-name case.
		refs := r.idx.FunctionsNamed(head.Children()[1].Text())
		if len(refs) == 1 {
			return refs[0].Module, refs[0].Name
		}
	}
	return "", ""
}

func (r *Resolver) lookupTypeByName(fromModule, name string) (*symbolindex.TypeSymbol, bool) {
	if name == "" {
		return nil, false
	}
	if t, ok := r.idx.Type(fromModule, name); ok {
		return t, true
	}
	if owner, ok := r.idx.TypeOwner(name); ok {
		return r.idx.Type(owner, name)
	}
	return nil, false
}

// --- rule 6: structural fallback ---

func (r *Resolver) structuralFallbackForFields(module string, observedFields []string, mustContain string) Result {
	if mustContain != "" {
		found := map[*symbolindex.TypeSymbol]bool{}
		for _, f := range r.idx.FieldCandidates(mustContain) {
			found[f.Owner] = true
		}
		if len(found) == 1 {
			for t := range found {
				return resolved(t)
			}
		}
		if len(found) > 1 {
			return ambiguous()
		}
		return unknown()
	}

	if len(observedFields) == 0 {
		return unknown()
	}
	candidates := map[*symbolindex.TypeSymbol]bool{}
	for _, f := range r.idx.FieldCandidates(observedFields[0]) {
		candidates[f.Owner] = true
	}
	for t := range candidates {
		if !hasAllFields(t, observedFields) {
			delete(candidates, t)
		}
	}
	if len(candidates) == 1 {
		for t := range candidates {
			return resolved(t)
		}
	}
	if len(candidates) > 1 {
		return ambiguous()
	}
	return unknown()
}

func hasAllFields(t *symbolindex.TypeSymbol, names []string) bool {
	set := map[string]bool{}
	for _, f := range t.Fields {
		set[f.Name] = true
	}
	for _, n := range names {
		if !set[n] {
			return false
		}
	}
	return true
}

// --- general expression typing, used for let-bound and chained
// field-access bases ---

func (r *Resolver) resolveExprType(doc *document.Document, module string, path []*syntax.Node, expr *syntax.Node) Result {
	switch expr.Kind() {
	case "value-reference":
		return r.resolveIdentifierType(doc, module, path, expr.Text())
	case "field-access":
		owner := r.ResolveFieldOwner(doc, module, fieldNameOf(expr))
		if owner.Status != Resolved {
			return owner
		}
		fieldName := fieldNameOf(expr).Text()
		for _, f := range owner.Type.Fields {
			if f.Name == fieldName {
				base := sigparse.BaseTypeName(f.TypeText)
				if t, ok := r.lookupTypeByName(module, base); ok {
					return resolved(t)
				}
			}
		}
		return unknown()
	case "apply":
		children := expr.Children()
		if len(children) == 0 {
			return unknown()
		}
		head := children[0]
		fnModule, fnName := r.resolveCalleeName(module, head)
		if fnName == "" {
			return unknown()
		}
		fn, ok := r.idx.Function(fnModule, fnName)
		if !ok || fn.SignatureText == "" {
			return unknown()
		}
		ret := sigparse.ReturnType(fn.SignatureText)
		base := sigparse.BaseTypeName(ret)
		if t, ok := r.lookupTypeByName(module, base); ok {
			return resolved(t)
		}
		return unknown()
	case "record-update":
		if base := expr.ChildOfKind("record-update-base"); base != nil {
			return r.resolveIdentifierType(doc, module, path, base.Text())
		}
		return unknown()
	case "parenthesized":
		if len(expr.Children()) == 1 {
			return r.resolveExprType(doc, module, path, expr.Children()[0])
		}
	}
	return unknown()
}

// ResolveScrutineeType resolves the static type of an arbitrary
// expression node in doc — used by pkg/refactor to decide whether a
// case expression's subject is known to be the variant-removal
// target's owning type (spec.md §4.F step 4's wildcard-branch
// cleanup), reusing the same identifier/call/update inference
// resolveExprType already applies to field-access and field-assignment
// bases.
func (r *Resolver) ResolveScrutineeType(doc *document.Document, module string, expr *syntax.Node) Result {
	path := findPath(doc.Tree, expr)
	if path == nil {
		return unknown()
	}
	return r.resolveExprType(doc, module, path, expr)
}

func fieldNameOf(fieldAccess *syntax.Node) *syntax.Node {
	if len(fieldAccess.Children()) != 2 {
		return nil
	}
	return fieldAccess.Children()[1]
}
