// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package symbolindex

import (
	"github.com/kraklabs/elmwright/pkg/document"
	"github.com/kraklabs/elmwright/pkg/sigparse"
	"github.com/kraklabs/elmwright/pkg/syntax"
)

// buildEntry walks one document's top-level declarations into a
// ModuleEntry. It never fails: a declaration that didn't parse
// cleanly (wrapped in an "error" node by pkg/syntax) is simply absent
// from the table, matching spec.md §7's ParseIncomplete tolerance.
func buildEntry(doc *document.Document) *ModuleEntry {
	entry := &ModuleEntry{
		Name:      doc.ModuleName,
		Path:      doc.Path,
		Doc:       doc,
		Functions: make(map[string]*FunctionSymbol),
		Types:     make(map[string]*TypeSymbol),
		Variants:  make(map[string]*VariantSymbol),
	}

	for _, decl := range doc.Declarations() {
		switch decl.Kind() {
		case "function-declaration":
			if fn := buildFunction(entry.Name, decl); fn != nil {
				entry.Functions[fn.Name] = fn
			}
		case "port-declaration":
			if fn := buildPort(entry.Name, decl); fn != nil {
				entry.Functions[fn.Name] = fn
			}
		case "type-declaration":
			if t := buildCustomType(entry.Name, decl); t != nil {
				entry.Types[t.Name] = t
				for _, v := range t.Variants {
					entry.Variants[v.Name] = v
				}
			}
		case "type-alias-declaration":
			if t := buildAliasType(entry.Name, decl); t != nil {
				entry.Types[t.Name] = t
			}
		}
	}
	return entry
}

func buildFunction(module string, decl *syntax.Node) *FunctionSymbol {
	var sigNode, nameNode *syntax.Node
	var paramNames []string

	children := decl.Children()
	idx := 0
	if len(children) > 0 && children[0].Kind() == "type-signature" {
		sigNode = children[0]
		idx = 1
	}
	if idx >= len(children) || children[idx].Kind() != "name" {
		if sigNode == nil {
			return nil
		}
		// Signature with no accompanying equation: still a known symbol
		// (spec.md §4.C indexes every declared function, not only ones
		// with a body present in this file).
		nameNode = sigNode.Child(0)
		if nameNode == nil {
			return nil
		}
		sig := ""
		if typeExpr := sigNode.Child(2); typeExpr != nil {
			sig = sourceOfTypeExpr(typeExpr)
		}
		return &FunctionSymbol{
			Module:        module,
			Name:          nameNode.Text(),
			SignatureText: sig,
			NameRange:     document.RangeOf(nameNode),
			DefRange:      document.RangeOf(decl),
			Node:          decl,
		}
	}
	nameNode = children[idx]
	for _, c := range children[idx+1:] {
		if c.Kind() == "punct" {
			break
		}
		if name := patternBoundName(c); name != "" {
			paramNames = append(paramNames, name)
		} else {
			paramNames = append(paramNames, "")
		}
	}

	fn := &FunctionSymbol{
		Module:     module,
		Name:       nameNode.Text(),
		ParamNames: paramNames,
		NameRange:  document.RangeOf(nameNode),
		DefRange:   document.RangeOf(decl),
		Node:       decl,
	}
	if sigNode != nil {
		typeExpr := sigNode.Child(2)
		if typeExpr != nil {
			fn.SignatureText = sourceOfTypeExpr(typeExpr)
		}
	}
	return fn
}

func buildPort(module string, decl *syntax.Node) *FunctionSymbol {
	nameNode := decl.ChildOfKind("name")
	if nameNode == nil {
		return nil
	}
	fn := &FunctionSymbol{
		Module:    module,
		Name:      nameNode.Text(),
		IsPort:    true,
		NameRange: document.RangeOf(nameNode),
		DefRange:  document.RangeOf(decl),
		Node:      decl,
	}
	for _, c := range decl.Children() {
		switch c.Kind() {
		case "type-function", "type-name", "type-application", "qualified-type-name", "record-type", "tuple-type", "type-var", "unit-type":
			fn.SignatureText = sourceOfTypeExpr(c)
		}
	}
	return fn
}

// sourceOfTypeExpr reconstructs a type expression's source text from
// its leaf tokens, since the parser doesn't retain the original file
// text on interior nodes (only Document.Source does). A single space
// between tokens keeps it readable and stable for sigparse without
// needing byte-range slicing across files.
func sourceOfTypeExpr(n *syntax.Node) string {
	var parts []string
	n.Walk(func(node *syntax.Node) bool {
		if node.IsLeaf() {
			parts = append(parts, node.Text())
		}
		return true
	})
	out := ""
	for i, p := range parts {
		if i > 0 && !noSpaceBefore(p) && !noSpaceAfter(parts[i-1]) {
			out += " "
		}
		out += p
	}
	return out
}

func noSpaceBefore(tok string) bool {
	switch tok {
	case ")", ",", ".":
		return true
	}
	return false
}

func noSpaceAfter(tok string) bool {
	switch tok {
	case "(", ".":
		return true
	}
	return false
}

func patternBoundName(pat *syntax.Node) string {
	switch pat.Kind() {
	case "variable-pattern":
		return pat.Text()
	case "pattern-as":
		if len(pat.Children()) == 2 {
			return pat.Children()[1].Text()
		}
	}
	return ""
}

func buildCustomType(module string, decl *syntax.Node) *TypeSymbol {
	nameNode := decl.ChildOfKind("name")
	if nameNode == nil {
		return nil
	}
	t := &TypeSymbol{
		Module:    module,
		Name:      nameNode.Text(),
		NameRange: document.RangeOf(nameNode),
		DefRange:  document.RangeOf(decl),
	}
	idx := 0
	for _, variantNode := range decl.ChildrenOfKind("variant") {
		vNameNode := variantNode.ChildOfKind("variant-name")
		if vNameNode == nil {
			continue
		}
		var argTypes []string
		for _, c := range variantNode.Children() {
			if c.Kind() == "variant-name" {
				continue
			}
			argTypes = append(argTypes, sourceOfTypeExpr(c))
		}
		v := &VariantSymbol{
			Name:      vNameNode.Text(),
			Owner:     t,
			Index:     idx,
			ArgTypes:  argTypes,
			NameRange: document.RangeOf(vNameNode),
			DefRange:  document.RangeOf(variantNode),
		}
		t.Variants = append(t.Variants, v)
		idx++
	}
	return t
}

func buildAliasType(module string, decl *syntax.Node) *TypeSymbol {
	nameNode := decl.ChildOfKind("name")
	if nameNode == nil {
		return nil
	}
	var body *syntax.Node
	children := decl.Children()
	if len(children) > 0 {
		body = children[len(children)-1]
	}
	t := &TypeSymbol{
		Module:    module,
		Name:      nameNode.Text(),
		IsAlias:   true,
		BodyNode:  body,
		NameRange: document.RangeOf(nameNode),
		DefRange:  document.RangeOf(decl),
	}
	if body != nil && body.Kind() == "record-type" {
		for _, fieldNode := range body.ChildrenOfKind("field-type") {
			fNameNode := fieldNode.ChildOfKind("field-name")
			if fNameNode == nil {
				continue
			}
			typeText := ""
			if typeExpr := fieldNode.ChildOfKind("type-function"); typeExpr != nil {
				typeText = sourceOfTypeExpr(typeExpr)
			} else {
				// a non-function field type isn't wrapped in a dedicated
				// "type-function" node; take whichever child follows the
				// field name and colon punct.
				children := fieldNode.Children()
				if len(children) > 0 {
					typeText = sourceOfTypeExpr(children[len(children)-1])
				}
			}
			t.Fields = append(t.Fields, &FieldSymbol{
				Name:      fNameNode.Text(),
				Owner:     t,
				TypeText:  typeText,
				NameRange: document.RangeOf(fNameNode),
			})
		}
	}
	return t
}

// RecordFieldNamesFromSignature is a convenience re-export used by
// pkg/typeresolve when it only has a signature's text (a parameter's
// declared type, not a parsed record-type node) to work from.
var RecordFieldNamesFromSignature = sigparse.RecordFieldNames
