// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package refactor

import (
	"fmt"

	"github.com/kraklabs/elmwright/pkg/document"
	"github.com/kraklabs/elmwright/pkg/syntax"
	"github.com/kraklabs/elmwright/pkg/typeresolve"
)

// BranchKind tags one element of AddVariant's branches argument, per
// spec.md §9's "tagged branch input" design note.
type BranchKind int

const (
	BranchAddDebug BranchKind = iota
	BranchAddCode
	BranchAddCodeWithImports
)

// Branch is one case-branch body specification for AddVariant.
type Branch struct {
	Kind    BranchKind
	Code    string   // used by BranchAddCode / BranchAddCodeWithImports
	Imports []string // used by BranchAddCodeWithImports
}

// AddVariantAnalysis is prepareAddVariant's report: how many existing
// case expressions over the type need a new branch (those without an
// already-present wildcard, which would otherwise silently absorb the
// new variant).
type AddVariantAnalysis struct {
	CasesNeedingBranch int
}

type caseSite struct {
	doc    *document.Document
	module string
	caseOf *syntax.Node
}

func caseHasWildcard(caseOf *syntax.Node) bool {
	for _, b := range caseOf.ChildrenOfKind("case-branch") {
		if pat := b.Child(0); pat != nil && pat.Kind() == "wildcard-pattern" {
			return true
		}
	}
	return false
}

// PrepareAddVariant implements spec.md §6's prepareAddVariant command.
func (e *Engine) PrepareAddVariant(module, typeName string) (AddVariantAnalysis, *Error) {
	owner, ok := e.idx.Type(module, typeName)
	if !ok {
		return AddVariantAnalysis{}, errSymbolNotFound(fmt.Sprintf("no type %s.%s", module, typeName))
	}
	sites := e.casesNeedingBranchForType(owner.Module, owner.Name)
	return AddVariantAnalysis{CasesNeedingBranch: len(sites)}, nil
}

func (e *Engine) casesNeedingBranchForType(module, typeName string) []*caseSite {
	owner, ok := e.idx.Type(module, typeName)
	if !ok {
		return nil
	}
	var sites []*caseSite
	for _, entry := range e.idx.AllModules() {
		doc := entry.Doc
		if doc == nil {
			continue
		}
		doc.Tree.Walk(func(n *syntax.Node) bool {
			if n.Kind() != "case-of" {
				return true
			}
			subject := n.Child(1)
			if subject == nil {
				return true
			}
			res := e.resolver.ResolveScrutineeType(doc, entry.Name, subject)
			if res.Status != typeresolve.Resolved || res.Type != owner {
				return true
			}
			if caseHasWildcard(n) {
				return true
			}
			sites = append(sites, &caseSite{doc: doc, module: entry.Name, caseOf: n})
			return true
		})
	}
	return sites
}

// AddVariant implements spec.md §6's addVariant command: append the
// new variant to its type declaration, then insert one branch per
// case expression reported by PrepareAddVariant, in the order those
// cases are discovered.
func (e *Engine) AddVariant(module, typeName, variantName, argTypeText string, branches []Branch) (EditSet, *Error) {
	owner, ok := e.idx.Type(module, typeName)
	if !ok {
		return nil, errSymbolNotFound(fmt.Sprintf("no type %s.%s", module, typeName))
	}
	for _, v := range owner.Variants {
		if v.Name == variantName {
			return nil, errNameCollision("variant", variantName, module)
		}
	}

	sites := e.casesNeedingBranchForType(module, typeName)
	if branches == nil {
		branches = make([]Branch, len(sites))
		for i := range branches {
			branches[i] = Branch{Kind: BranchAddDebug}
		}
	}
	if len(branches) != len(sites) {
		return nil, errWrongBranchCount(len(sites), len(branches))
	}

	declEntry, ok := e.idx.Module(module)
	if !ok {
		return nil, errSymbolNotFound(fmt.Sprintf("no module %s", module))
	}
	declDoc := declEntry.Doc
	declNode := findTypeDecl(declDoc.Tree, typeName)
	if declNode == nil {
		return nil, errParseIncomplete(declDoc.Path)
	}

	es := EditSet{}

	variantText := variantName
	if argTypeText != "" {
		variantText = variantName + " " + argTypeText
	}
	children := declNode.Children()
	lastChild := children[len(children)-1]
	es.add(declDoc.Path, document.Range{Start: lastChild.End(), End: lastChild.End()}, " | "+variantText)

	binder := ""
	if argTypeText != "" {
		binder = " value"
	}
	for i, site := range sites {
		branch := branches[i]
		body := branchBody(variantName, branch)
		branchText := "\n    " + variantName + binder + " ->\n        " + body
		lastBranch := site.caseOf.Child(site.caseOf.ChildCount() - 1)
		es.add(site.doc.Path, document.Range{Start: lastBranch.End(), End: lastBranch.End()}, branchText)

		if branch.Kind == BranchAddCodeWithImports {
			for _, imp := range branch.Imports {
				if hasImport(site.doc, imp) {
					continue
				}
				es.add(site.doc.Path, importInsertRange(site.doc), "import "+imp+"\n")
			}
		}
	}

	e.filterExcluded(es)
	return es, nil
}

func branchBody(variantName string, b Branch) string {
	switch b.Kind {
	case BranchAddCode, BranchAddCodeWithImports:
		return b.Code
	default:
		return fmt.Sprintf(`Debug.todo "Handle %s"`, variantName)
	}
}

func hasImport(doc *document.Document, module string) bool {
	for _, imp := range doc.Imports {
		if imp.ModuleName == module {
			return true
		}
	}
	return false
}

func importInsertRange(doc *document.Document) document.Range {
	if len(doc.Imports) > 0 {
		last := doc.Imports[len(doc.Imports)-1]
		end := document.RangeOf(last.Node).End
		return document.Range{Start: end, End: end}
	}
	decls := doc.Declarations()
	if len(decls) > 0 {
		start := decls[0].Start()
		return document.Range{Start: start, End: start}
	}
	end := doc.Tree.End()
	return document.Range{Start: end, End: end}
}
