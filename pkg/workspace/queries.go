// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// documentSymbol and definition implement the two read-queries
// SPEC_FULL.md §12 calls out as supplemented from spec.md §6's
// editor-protocol surface list: thin Workspace methods over the Symbol
// Index and Reference Finder returning the same Occurrence/range value
// types the rest of the core already uses, so a future editor-protocol
// bridge has nothing left to compute.
package workspace

import (
	"github.com/kraklabs/elmwright/pkg/document"
	"github.com/kraklabs/elmwright/pkg/reference"
)

// SymbolKind mirrors the handful of top-level declaration kinds
// documentSymbol reports — deliberately narrower than
// reference.SymbolKind, which also covers local bindings that have no
// place in a file's outline.
type SymbolKind int

const (
	SymbolFunction SymbolKind = iota
	SymbolType
	SymbolVariant
)

// Symbol is one entry in a document's outline.
type Symbol struct {
	Name  string
	Kind  SymbolKind
	Range document.Range
}

// DocumentSymbol lists every top-level function, type, and variant
// declared in path, in source order by definition range.
func (w *Workspace) DocumentSymbol(path string) ([]Symbol, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	entry, ok := w.idx.ModuleForPath(path)
	if !ok {
		return nil, false
	}

	var out []Symbol
	for _, fn := range entry.Functions {
		out = append(out, Symbol{Name: fn.Name, Kind: SymbolFunction, Range: fn.DefRange})
	}
	for _, t := range entry.Types {
		out = append(out, Symbol{Name: t.Name, Kind: SymbolType, Range: t.DefRange})
		for _, v := range t.Variants {
			out = append(out, Symbol{Name: t.Name + "." + v.Name, Kind: SymbolVariant, Range: v.DefRange})
		}
	}
	sortSymbols(out)
	return out, true
}

func sortSymbols(out []Symbol) {
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Range.Start.Offset < out[j-1].Range.Start.Offset; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
}

// Location is a (file, range) pair — definition's return shape.
type Location struct {
	Path  string
	Range document.Range
}

// Definition resolves the symbol under offset in path to its
// declaration site, classifying the cursor the same way
// pkg/refactor's rename operations do (via reference.Finder.Classify)
// and then reading the matching symbol's DefRange/NameRange back out
// of the index.
func (w *Workspace) Definition(path string, offset int) (Location, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	entry, ok := w.idx.ModuleForPath(path)
	if !ok {
		return Location{}, false
	}
	target := w.Finder.Classify(entry.Doc, entry.Name, offset)

	switch target.Kind {
	case reference.SymFunction:
		fn, ok := w.idx.Function(target.Module, target.Name)
		if !ok {
			return Location{}, false
		}
		declEntry, ok := w.idx.Module(target.Module)
		if !ok {
			return Location{}, false
		}
		return Location{Path: declEntry.Path, Range: fn.NameRange}, true

	case reference.SymType:
		t, ok := w.idx.Type(target.Module, target.Name)
		if !ok {
			return Location{}, false
		}
		declEntry, ok := w.idx.Module(target.Module)
		if !ok {
			return Location{}, false
		}
		return Location{Path: declEntry.Path, Range: t.NameRange}, true

	case reference.SymVariant:
		t, ok := w.idx.Type(target.Module, target.TypeName)
		if !ok {
			return Location{}, false
		}
		for _, v := range t.Variants {
			if v.Name == target.Name {
				declEntry, ok := w.idx.Module(target.Module)
				if !ok {
					return Location{}, false
				}
				return Location{Path: declEntry.Path, Range: v.NameRange}, true
			}
		}
		return Location{}, false

	case reference.SymField:
		if target.Field == nil || target.Field.Owner == nil {
			return Location{}, false
		}
		declEntry, ok := w.idx.Module(target.Field.Owner.Module)
		if !ok {
			return Location{}, false
		}
		return Location{Path: declEntry.Path, Range: target.Field.NameRange}, true

	default:
		return Location{}, false
	}
}
