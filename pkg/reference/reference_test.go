// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package reference

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/elmwright/pkg/document"
	"github.com/kraklabs/elmwright/pkg/symbolindex"
)

func buildTestIndex(t *testing.T) (*symbolindex.Index, map[string]*document.Document) {
	t.Helper()
	idx := symbolindex.New(nil)
	docs := map[string]*document.Document{}

	person := document.New("src/Person.elm", `module Person exposing (Person, Role(..), name)

type alias Person =
    { name : String, age : Int }


type Role
    = Admin
    | Viewer String


name : Person -> String
name person =
    person.name
`)
	main := document.New("src/Main.elm", `module Main exposing (main)

import Person exposing (Person, name)


main : Person -> String
main person =
    name person
`)
	qualified := document.New("src/Qualified.elm", `module Qualified exposing (describe)

import Person


describe : Person.Person -> String
describe p =
    Person.name p
`)

	for _, d := range []*document.Document{person, main, qualified} {
		idx.Upsert(d)
		docs[d.Path] = d
	}
	return idx, docs
}

func TestClassify_FunctionDefinition(t *testing.T) {
	idx, docs := buildTestIndex(t)
	f := New(idx)
	doc := docs["src/Person.elm"]

	offset := indexOf(t, doc.Source, "name person =")
	target := f.Classify(doc, "Person", offset)

	assert.Equal(t, SymFunction, target.Kind)
	assert.Equal(t, "Person", target.Module)
	assert.Equal(t, "name", target.Name)
}

func TestClassify_QualifiedReference(t *testing.T) {
	idx, docs := buildTestIndex(t)
	f := New(idx)
	doc := docs["src/Qualified.elm"]

	offset := indexOf(t, doc.Source, "Person.name p") + len("Person.")
	target := f.Classify(doc, "Qualified", offset)

	assert.Equal(t, SymFunction, target.Kind)
	assert.Equal(t, "Person", target.Module)
	assert.Equal(t, "name", target.Name)
}

func TestClassify_FieldAccess(t *testing.T) {
	idx, docs := buildTestIndex(t)
	f := New(idx)
	doc := docs["src/Person.elm"]

	offset := indexOf(t, doc.Source, "person.name") + len("person.")
	target := f.Classify(doc, "Person", offset)

	require.Equal(t, SymField, target.Kind)
	assert.Equal(t, "name", target.Field.Name)
	assert.Equal(t, "Person", target.Field.Owner.Name)
}

func TestFindFunctionOccurrences_CrossModule(t *testing.T) {
	idx, _ := buildTestIndex(t)
	f := New(idx)

	occs := f.FindFunctionOccurrences("Person", "name")

	paths := map[string]int{}
	for _, o := range occs {
		paths[o.Path]++
	}
	assert.GreaterOrEqual(t, paths["src/Person.elm"], 2, "signature name + equation name")
	assert.GreaterOrEqual(t, paths["src/Main.elm"], 1, "unqualified call via exposing")
	assert.GreaterOrEqual(t, paths["src/Qualified.elm"], 1, "qualified call Person.name")
}

func TestFindVariantOccurrences(t *testing.T) {
	idx, _ := buildTestIndex(t)
	f := New(idx)

	occs := f.FindVariantOccurrences("Person", "Role", "Admin")
	require.NotEmpty(t, occs)
	for _, o := range occs {
		assert.Equal(t, "src/Person.elm", o.Path)
	}
}

func indexOf(t *testing.T, src, substr string) int {
	t.Helper()
	i := indexOfString(src, substr)
	require.GreaterOrEqual(t, i, 0, "expected %q to appear in source", substr)
	return i
}

func indexOfString(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}
