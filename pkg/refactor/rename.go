// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package refactor

import (
	"github.com/kraklabs/elmwright/pkg/reference"
	"github.com/kraklabs/elmwright/pkg/typeresolve"
)

// RenameFunction implements spec.md §4.F's "Rename function / type /
// variant" for the function case: classify, collision-check,
// enumerate occurrences via the Reference Finder, replace identifier
// ranges, and fix up every exposing list naming the old name.
func (e *Engine) RenameFunction(path string, offset int, newName string) (EditSet, *Error) {
	entry, ferr := e.docFor(path)
	if ferr != nil {
		return nil, ferr
	}
	target := e.finder.Classify(entry.Doc, entry.Name, offset)
	if target.Kind != reference.SymFunction {
		return nil, errSymbolNotFound("the cursor is not on a function name or reference")
	}
	if target.Name == newName {
		return EditSet{}, nil // spec.md §8 property 1: idempotent no-op
	}
	if _, collides := e.idx.Function(target.Module, newName); collides {
		return nil, errNameCollision("function", newName, target.Module)
	}

	occs := e.finder.FindFunctionOccurrences(target.Module, target.Name)
	es := renameIdentifierEdits(occs, newName)
	mergeInto(es, exposingEdits(e.idx, target.Module, target.Name, newName))
	e.filterExcluded(es)
	return es, nil
}

// RenameType implements the type case of spec.md §4.F's rename
// operation.
func (e *Engine) RenameType(path string, offset int, newName string) (EditSet, *Error) {
	entry, ferr := e.docFor(path)
	if ferr != nil {
		return nil, ferr
	}
	target := e.finder.Classify(entry.Doc, entry.Name, offset)
	if target.Kind != reference.SymType {
		return nil, errSymbolNotFound("the cursor is not on a type name or reference")
	}
	if target.Name == newName {
		return EditSet{}, nil
	}
	if t, ok := e.idx.Type(target.Module, newName); ok && t.Name != target.Name {
		return nil, errNameCollision("type", newName, target.Module)
	}

	occs := e.finder.FindTypeOccurrences(target.Module, target.Name)
	es := renameIdentifierEdits(occs, newName)
	mergeInto(es, exposingEdits(e.idx, target.Module, target.Name, newName))
	e.filterExcluded(es)
	return es, nil
}

// RenameVariant implements the variant case. Per spec.md §9 Open
// Question (ii), the owning type's exposing-list text is never
// touched — a `T(..)` open form exposes every variant by construction,
// so only the occurrence scan runs.
func (e *Engine) RenameVariant(path string, offset int, newName string) (EditSet, *Error) {
	entry, ferr := e.docFor(path)
	if ferr != nil {
		return nil, ferr
	}
	target := e.finder.Classify(entry.Doc, entry.Name, offset)
	if target.Kind != reference.SymVariant {
		return nil, errSymbolNotFound("the cursor is not on a variant name or reference")
	}
	if target.Name == newName {
		return EditSet{}, nil
	}
	if owner, ok := e.idx.Type(target.Module, target.TypeName); ok {
		for _, v := range owner.Variants {
			if v.Name == newName {
				return nil, errNameCollision("variant", newName, target.Module)
			}
		}
	}

	occs := e.finder.FindVariantOccurrences(target.Module, target.TypeName, target.Name)
	es := renameIdentifierEdits(occs, newName)
	e.filterExcluded(es)
	return es, nil
}

// RenameField implements spec.md §4.F's "Rename field": resolve the
// owning type via the Type Resolver, fail on ambiguity, then enumerate
// and rewrite every occurrence owned by that exact type. Field names
// never appear in an exposing list, so there is nothing to fix up
// there.
func (e *Engine) RenameField(path string, offset int, newName string) (EditSet, *Error) {
	entry, ferr := e.docFor(path)
	if ferr != nil {
		return nil, ferr
	}
	target := e.finder.Classify(entry.Doc, entry.Name, offset)
	if target.Kind != reference.SymField || target.Field == nil {
		if node := entry.Doc.NodeAt(offset); node != nil {
			if res := e.resolver.ResolveFieldOwner(entry.Doc, entry.Name, node); res.Status == typeresolve.Ambiguous {
				return nil, errAmbiguousField(node.Text())
			}
		}
		return nil, errSymbolNotFound("the cursor is not on a field occurrence")
	}
	if target.Field.Name == newName {
		return EditSet{}, nil
	}
	for _, f := range target.Field.Owner.Fields {
		if f.Name == newName {
			return nil, errNameCollision("field", newName, target.Field.Owner.Module)
		}
	}

	occs := e.finder.FindFieldOccurrences(target.Field.Owner, target.Field.Name)
	es := renameIdentifierEdits(occs, newName)
	e.filterExcluded(es)
	return es, nil
}
