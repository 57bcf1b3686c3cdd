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

// Package symbolindex is the cross-file symbol catalog spec.md §4.C
// describes: a per-module table of functions/types/variants/fields,
// plus global reverse indexes for name lookup. Grounded on the
// teacher's ingestion.CallResolver (pkg/ingestion/resolver.go) — same
// mutex-guarded map-of-maps shape (globalFunctions, fieldIndex,
// qualifiedFunctions), generalized from Go packages/receivers to Elm
// modules/record types.
package symbolindex

import (
	"log/slog"
	"sync"

	"github.com/kraklabs/elmwright/pkg/document"
	"github.com/kraklabs/elmwright/pkg/syntax"
)

// FunctionSymbol is one top-level function or port declaration.
type FunctionSymbol struct {
	Module        string
	Name          string
	SignatureText string // "" if the declaration carries no annotation
	ParamNames    []string
	DefRange      document.Range
	NameRange     document.Range // the declaration's name token, for rename edits
	Node          *syntax.Node
	IsPort        bool
}

// TypeSymbol is a type-alias or custom-type declaration.
type TypeSymbol struct {
	Module    string
	Name      string
	IsAlias   bool
	BodyNode  *syntax.Node // type-alias body, or nil for custom types
	Variants  []*VariantSymbol
	Fields    []*FieldSymbol // only set when IsAlias && body is a record
	DefRange  document.Range
	NameRange document.Range
}

// VariantSymbol is one alternative of a custom type.
type VariantSymbol struct {
	Name      string
	Owner     *TypeSymbol
	Index     int // position among the owning type's variants
	ArgTypes  []string
	DefRange  document.Range
	NameRange document.Range
}

// FieldSymbol is a field scoped to the record-alias type that declares
// it — spec.md §3's "field names are not standalone entities" design
// choice, carried as the (owner, name) pair throughout the core.
type FieldSymbol struct {
	Name      string
	Owner     *TypeSymbol
	TypeText  string // the field's declared type, reconstructed from its field-type node
	NameRange document.Range
}

// ModuleEntry is one module's complete symbol table plus the document
// it was extracted from.
type ModuleEntry struct {
	Name     string
	Path     string
	Doc      *document.Document
	Functions map[string]*FunctionSymbol
	Types     map[string]*TypeSymbol
	Variants  map[string]*VariantSymbol
}

// FunctionRef and VariantRef are the global reverse-index payloads:
// enough to locate the owning module's entry without a second lookup.
type FunctionRef struct {
	Module string
	Name   string
}

type VariantRef struct {
	TypeModule string
	TypeName   string
	Name       string
}

// Index is the cross-file catalog. Lookups are map accesses (O(1)
// average, per spec.md §4.C's contract); insertion of a module
// replaces any prior entry for that module atomically under Lock.
type Index struct {
	mu sync.RWMutex

	modules map[string]*ModuleEntry // module name -> entry
	pathToModule map[string]string  // file path -> module name, for removal on reparse

	functionsByName map[string][]FunctionRef     // local name -> defining (module, name) pairs
	typeOwner       map[string]string            // type name -> owning module
	variantsByName  map[string][]VariantRef      // variant name -> owning (type, module)
	fieldsByName    map[string][]*FieldSymbol    // field name -> candidate owning record types

	logger *slog.Logger
}

func New(logger *slog.Logger) *Index {
	if logger == nil {
		logger = slog.Default()
	}
	return &Index{
		modules:         make(map[string]*ModuleEntry),
		pathToModule:    make(map[string]string),
		functionsByName: make(map[string][]FunctionRef),
		typeOwner:       make(map[string]string),
		variantsByName:  make(map[string][]VariantRef),
		fieldsByName:    make(map[string][]*FieldSymbol),
		logger:          logger,
	}
}

// Upsert replaces the module entry derived from doc, first removing
// any prior entry for doc.Path (which may have carried a different
// module name if the file was edited mid-rename). Atomic under the
// index's write lock, satisfying spec.md §4.C's replace-atomically
// contract.
func (idx *Index) Upsert(doc *document.Document) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if oldModule, ok := idx.pathToModule[doc.Path]; ok && oldModule != doc.ModuleName {
		idx.removeModuleLocked(oldModule)
	}

	entry := buildEntry(doc)
	idx.removeModuleLocked(entry.Name)
	idx.modules[entry.Name] = entry
	idx.pathToModule[doc.Path] = entry.Name
	idx.insertReverseLocked(entry)

	idx.logger.Debug("symbolindex.upsert",
		"module", entry.Name,
		"functions", len(entry.Functions),
		"types", len(entry.Types),
		"path", doc.Path,
	)
}

// Remove drops the module indexed under path, used when a file is
// deleted or moved away.
func (idx *Index) Remove(path string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if module, ok := idx.pathToModule[path]; ok {
		idx.removeModuleLocked(module)
		delete(idx.pathToModule, path)
	}
}

func (idx *Index) removeModuleLocked(module string) {
	entry, ok := idx.modules[module]
	if !ok {
		return
	}
	for name := range entry.Functions {
		idx.functionsByName[name] = removeFuncRef(idx.functionsByName[name], module, name)
	}
	for name, t := range entry.Types {
		if idx.typeOwner[name] == module {
			delete(idx.typeOwner, name)
		}
		for _, v := range t.Variants {
			idx.variantsByName[v.Name] = removeVariantRef(idx.variantsByName[v.Name], module, name)
		}
		for _, f := range t.Fields {
			idx.fieldsByName[f.Name] = removeFieldSym(idx.fieldsByName[f.Name], t)
		}
	}
	delete(idx.modules, module)
}

func (idx *Index) insertReverseLocked(entry *ModuleEntry) {
	for name := range entry.Functions {
		idx.functionsByName[name] = append(idx.functionsByName[name], FunctionRef{Module: entry.Name, Name: name})
	}
	for name, t := range entry.Types {
		idx.typeOwner[name] = entry.Name
		for _, v := range t.Variants {
			idx.variantsByName[v.Name] = append(idx.variantsByName[v.Name], VariantRef{TypeModule: entry.Name, TypeName: name, Name: v.Name})
		}
		for _, f := range t.Fields {
			idx.fieldsByName[f.Name] = append(idx.fieldsByName[f.Name], f)
		}
	}
}

// --- queries ---

func (idx *Index) Module(name string) (*ModuleEntry, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	e, ok := idx.modules[name]
	return e, ok
}

func (idx *Index) ModuleForPath(path string) (*ModuleEntry, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	name, ok := idx.pathToModule[path]
	if !ok {
		return nil, false
	}
	e, ok := idx.modules[name]
	return e, ok
}

func (idx *Index) AllModules() []*ModuleEntry {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make([]*ModuleEntry, 0, len(idx.modules))
	for _, e := range idx.modules {
		out = append(out, e)
	}
	return out
}

func (idx *Index) Function(module, name string) (*FunctionSymbol, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	e, ok := idx.modules[module]
	if !ok {
		return nil, false
	}
	f, ok := e.Functions[name]
	return f, ok
}

func (idx *Index) FunctionsNamed(name string) []FunctionRef {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make([]FunctionRef, len(idx.functionsByName[name]))
	copy(out, idx.functionsByName[name])
	return out
}

func (idx *Index) Type(module, name string) (*TypeSymbol, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	e, ok := idx.modules[module]
	if !ok {
		return nil, false
	}
	t, ok := e.Types[name]
	return t, ok
}

func (idx *Index) TypeOwner(name string) (string, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	m, ok := idx.typeOwner[name]
	return m, ok
}

func (idx *Index) VariantsNamed(name string) []VariantRef {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make([]VariantRef, len(idx.variantsByName[name]))
	copy(out, idx.variantsByName[name])
	return out
}

// FieldCandidates returns every record type known to declare a field
// named name — the candidate set spec.md §4.D rule 6's structural
// fallback, and §4.C's field->owners reverse index, both draw from.
func (idx *Index) FieldCandidates(name string) []*FieldSymbol {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make([]*FieldSymbol, len(idx.fieldsByName[name]))
	copy(out, idx.fieldsByName[name])
	return out
}

func removeFuncRef(refs []FunctionRef, module, name string) []FunctionRef {
	out := refs[:0]
	for _, r := range refs {
		if r.Module == module && r.Name == name {
			continue
		}
		out = append(out, r)
	}
	return out
}

func removeVariantRef(refs []VariantRef, module, typeName string) []VariantRef {
	out := refs[:0]
	for _, r := range refs {
		if r.TypeModule == module && r.TypeName == typeName {
			continue
		}
		out = append(out, r)
	}
	return out
}

func removeFieldSym(fields []*FieldSymbol, owner *TypeSymbol) []*FieldSymbol {
	out := fields[:0]
	for _, f := range fields {
		if f.Owner == owner {
			continue
		}
		out = append(out, f)
	}
	return out
}
