// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package refactor

import (
	"fmt"

	"github.com/kraklabs/elmwright/pkg/document"
	"github.com/kraklabs/elmwright/pkg/reference"
	"github.com/kraklabs/elmwright/pkg/symbolindex"
	"github.com/kraklabs/elmwright/pkg/syntax"
	"github.com/kraklabs/elmwright/pkg/typeresolve"
)

// CaseUse is one case-branch pattern matching the variant under
// analysis, reported by PrepareRemoveVariant.
type CaseUse struct {
	Path  string
	Range document.Range
}

// ConstructorUse is one term-position use of the variant's
// constructor, reported by PrepareRemoveVariant.
type ConstructorUse struct {
	Path  string
	Range document.Range
}

// RemoveVariantAnalysis is the read-only report spec.md §6's
// `prepareRemoveVariant` command returns.
type RemoveVariantAnalysis struct {
	Cases           []CaseUse
	ConstructorUses []ConstructorUse
	CanRemove       bool
	Reason          string
}

// PrepareRemoveVariant implements spec.md §4.F's "Prepare remove
// variant": classify the cursor onto a variant, then report every
// pattern-match branch and constructor-expression use site without
// producing any edits.
func (e *Engine) PrepareRemoveVariant(path string, offset int) (RemoveVariantAnalysis, *Error) {
	entry, ferr := e.docFor(path)
	if ferr != nil {
		return RemoveVariantAnalysis{}, ferr
	}
	target := e.finder.Classify(entry.Doc, entry.Name, offset)
	if target.Kind != reference.SymVariant {
		return RemoveVariantAnalysis{}, errSymbolNotFound("the cursor is not on a variant name or reference")
	}
	return e.prepareRemoveVariant(target.Module, target.TypeName, target.Name)
}

func (e *Engine) prepareRemoveVariant(module, typeName, variantName string) (RemoveVariantAnalysis, *Error) {
	owner, ok := e.idx.Type(module, typeName)
	if !ok {
		return RemoveVariantAnalysis{}, errSymbolNotFound(fmt.Sprintf("no type %s.%s", module, typeName))
	}

	occs := e.finder.FindVariantOccurrences(module, typeName, variantName)
	analysis := RemoveVariantAnalysis{CanRemove: len(owner.Variants) >= 2}
	if !analysis.CanRemove {
		analysis.Reason = fmt.Sprintf("type %s has only one variant", typeName)
	}
	for _, occ := range occs {
		if occ.Kind == reference.KindDefinition {
			continue
		}
		if occ.Node != nil && occ.Node.Kind() == "constructor-pattern-name" {
			analysis.Cases = append(analysis.Cases, CaseUse{Path: occ.Path, Range: occ.Range})
		} else {
			analysis.ConstructorUses = append(analysis.ConstructorUses, ConstructorUse{Path: occ.Path, Range: occ.Range})
		}
	}
	return analysis, nil
}

// RemoveVariant implements spec.md §4.F's "Remove variant": delete the
// variant from its type declaration, replace every constructor-
// expression use with a Debug.todo placeholder, delete every matching
// case-branch (with branch extents per §9 Open Question (iii) /
// SPEC_FULL.md §12), and drop a now-vacuous trailing wildcard branch
// per §4.F step 4.
func (e *Engine) RemoveVariant(path string, offset int) (EditSet, *Error) {
	entry, ferr := e.docFor(path)
	if ferr != nil {
		return nil, ferr
	}
	target := e.finder.Classify(entry.Doc, entry.Name, offset)
	if target.Kind != reference.SymVariant {
		return nil, errSymbolNotFound("the cursor is not on a variant name or reference")
	}
	return e.removeVariant(target.Module, target.TypeName, target.Name)
}

func (e *Engine) removeVariant(module, typeName, variantName string) (EditSet, *Error) {
	owner, ok := e.idx.Type(module, typeName)
	if !ok {
		return nil, errSymbolNotFound(fmt.Sprintf("no type %s.%s", module, typeName))
	}
	if len(owner.Variants) < 2 {
		return nil, errCannotRemoveOnlyVariant(typeName)
	}
	declEntry, ok := e.idx.Module(module)
	if !ok {
		return nil, errSymbolNotFound(fmt.Sprintf("no module %s", module))
	}
	declDoc := declEntry.Doc

	es := EditSet{}

	declNode := findTypeDecl(declDoc.Tree, typeName)
	if declNode == nil {
		return nil, errParseIncomplete(declDoc.Path)
	}
	rng, ok := variantDeleteRange(declNode, variantName)
	if !ok {
		return nil, errSymbolNotFound(fmt.Sprintf("variant %s not found in %s", variantName, typeName))
	}
	es.add(declDoc.Path, rng, "")

	occs := e.finder.FindVariantOccurrences(module, typeName, variantName)

	// group case-branch deletions per (document, case-of) so the
	// wildcard-cleanup check (step 4) sees every branch removed from
	// that case expression, not just one at a time.
	type caseGroup struct {
		doc       *document.Document
		caseOf    *syntax.Node
		toDelete  map[*syntax.Node]bool
	}
	groups := map[*syntax.Node]*caseGroup{}

	for _, occ := range occs {
		if occ.Kind == reference.KindDefinition || occ.Node == nil {
			continue
		}
		modEntry, ok := e.idx.ModuleForPath(occ.Path)
		if !ok {
			continue
		}
		doc := modEntry.Doc

		if occ.Node.Kind() == "constructor-pattern-name" {
			path := findPathIn(doc.Tree, occ.Node)
			branch := ancestorOfKindIn(path, "case-branch")
			caseOf := ancestorOfKindIn(path, "case-of")
			if branch == nil || caseOf == nil {
				continue
			}
			g, ok := groups[caseOf]
			if !ok {
				g = &caseGroup{doc: doc, caseOf: caseOf, toDelete: map[*syntax.Node]bool{}}
				groups[caseOf] = g
			}
			g.toDelete[branch] = true
			continue
		}

		// term-position use: replace the smallest enclosing
		// expression (the constructor applied to its arguments, if
		// any) with a Debug.todo placeholder.
		useExpr := enclosingApplyHead(doc.Tree, occ.Node)
		original := nodeText(doc, useExpr)
		placeholder := fmt.Sprintf(`(Debug.todo "VARIANT REMOVAL DONE: %s")`, original)
		es.add(doc.Path, document.RangeOf(useExpr), placeholder)
	}

	for _, g := range groups {
		applyBranchDeletions(es, g.doc, g.caseOf, g.toDelete, e.resolver, owner)
	}

	e.filterExcluded(es)
	return es, nil
}

func findTypeDecl(root *syntax.Node, name string) *syntax.Node {
	var found *syntax.Node
	root.Walk(func(n *syntax.Node) bool {
		if found != nil {
			return false
		}
		if n.Kind() == "type-declaration" {
			if nameNode := n.ChildOfKind("name"); nameNode != nil && nameNode.Text() == name {
				found = n
				return false
			}
		}
		return true
	})
	return found
}

// variantDeleteRange computes the edit range that removes one
// variant, plus the separating `|` that goes with it, per spec.md §4.F
// step 1 ("fixing up the leading | / = as needed").
func variantDeleteRange(decl *syntax.Node, variantName string) (document.Range, bool) {
	children := decl.Children()
	var variantIdx []int
	for i, c := range children {
		if c.Kind() == "variant" {
			variantIdx = append(variantIdx, i)
		}
	}
	target := -1
	for j, idx := range variantIdx {
		if nameNode := children[idx].ChildOfKind("variant-name"); nameNode != nil && nameNode.Text() == variantName {
			target = j
			break
		}
	}
	if target == -1 {
		return document.Range{}, false
	}
	idx := variantIdx[target]
	if target == 0 {
		if len(variantIdx) > 1 {
			nextPipe := children[idx+1] // the "|" following the first variant
			return document.Range{Start: children[idx].Start(), End: nextPipe.End()}, true
		}
		return document.RangeOf(children[idx]), true
	}
	prevPipe := children[idx-1]
	return document.Range{Start: prevPipe.Start(), End: children[idx].End()}, true
}

// enclosingApplyHead returns the "apply" node that node is the head
// of, if any — the variant's full constructor-with-arguments
// expression — else node itself for a nullary constructor use.
func enclosingApplyHead(root, node *syntax.Node) *syntax.Node {
	path := findPathIn(root, node)
	// a qualified constructor reference ("Mod.Ctor") is itself one
	// level up from the bare name leaf occurrence.
	head := node
	if p := parentOfIn(path); p != nil && p.Kind() == "qualified-reference" {
		head = p
		path = findPathIn(root, head)
	}
	if parent := parentOfIn(path); parent != nil && parent.Kind() == "apply" {
		if args := parent.Children(); len(args) > 0 && args[0] == head {
			return parent
		}
	}
	return head
}

// applyBranchDeletions deletes every case-branch in toDelete from
// caseOf, then — per spec.md §4.F step 4 — drops a sole remaining
// wildcard branch when the case's subject is known to be the owning
// type (so the wildcard now covers nothing), unless that wildcard
// would be the only branch left.
func applyBranchDeletions(es EditSet, doc *document.Document, caseOf *syntax.Node, toDelete map[*syntax.Node]bool, resolver *typeresolve.Resolver, owner *symbolindex.TypeSymbol) {
	branches := caseOf.ChildrenOfKind("case-branch")
	remaining := make([]*syntax.Node, 0, len(branches))
	for _, b := range branches {
		if !toDelete[b] {
			remaining = append(remaining, b)
		}
	}

	for i, b := range branches {
		if !toDelete[b] {
			continue
		}
		es.add(doc.Path, branchDeleteRange(branches, i), "")
	}

	if len(remaining) == 1 && remaining[0].ChildCount() > 0 {
		pat := remaining[0].Child(0)
		if pat != nil && pat.Kind() == "wildcard-pattern" && len(branches) > 1 {
			subject := caseOf.Child(1)
			if subject != nil {
				if res := resolver.ResolveScrutineeType(doc, owner.Module, subject); res.Status == typeresolve.Resolved && res.Type == owner {
					es.add(doc.Path, document.RangeOf(remaining[0]), "")
				}
			}
		}
	}
}

// branchDeleteRange computes a case-branch's deletion range per §9
// Open Question (iii): through the end of the branch up to (not
// including) the next branch's start, or — for the last branch —
// absorbing the preceding branch's trailing whitespace instead.
func branchDeleteRange(branches []*syntax.Node, i int) document.Range {
	if i < len(branches)-1 {
		return document.Range{Start: branches[i].Start(), End: branches[i+1].Start()}
	}
	if i > 0 {
		return document.Range{Start: branches[i-1].End(), End: branches[i].End()}
	}
	return document.RangeOf(branches[i])
}

// --- local tree-walking duplicates (see pkg/reference/path.go and
// pkg/typeresolve/path.go for the same shape over their own packages)

func findPathIn(root, target *syntax.Node) []*syntax.Node {
	if root == target {
		return []*syntax.Node{root}
	}
	for _, c := range root.Children() {
		if p := findPathIn(c, target); p != nil {
			return append([]*syntax.Node{root}, p...)
		}
	}
	return nil
}

func parentOfIn(path []*syntax.Node) *syntax.Node {
	if len(path) < 2 {
		return nil
	}
	return path[len(path)-2]
}

func ancestorOfKindIn(path []*syntax.Node, kind string) *syntax.Node {
	for i := len(path) - 2; i >= 0; i-- {
		if path[i].Kind() == kind {
			return path[i]
		}
	}
	return nil
}
