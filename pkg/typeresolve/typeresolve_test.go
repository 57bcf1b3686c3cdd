// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package typeresolve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/elmwright/pkg/document"
	"github.com/kraklabs/elmwright/pkg/symbolindex"
)

func TestResolveFieldOwner_UniqueFieldAcrossIndex(t *testing.T) {
	idx := symbolindex.New(nil)
	doc := document.New("src/Person.elm", `module Person exposing (Person, greet)

type alias Person =
    { name : String, age : Int }


greet : Person -> String
greet person =
    person.name
`)
	idx.Upsert(doc)
	r := New(idx)

	offset := indexOfString(doc.Source, "person.name") + len("person.")
	node := doc.NodeAt(offset)
	require.NotNil(t, node)

	res := r.ResolveFieldOwner(doc, "Person", node)
	require.Equal(t, Resolved, res.Status)
	assert.Equal(t, "Person", res.Type.Name)
}

func TestResolveFieldOwner_AmbiguousWhenTwoTypesShareField(t *testing.T) {
	idx := symbolindex.New(nil)
	doc := document.New("src/Shapes.elm", `module Shapes exposing (Circle, Square, describe)

type alias Circle =
    { name : String, radius : Float }


type alias Square =
    { name : String, side : Float }


describe : a -> String
describe thing =
    thing.name
`)
	idx.Upsert(doc)
	r := New(idx)

	offset := indexOfString(doc.Source, "thing.name") + len("thing.")
	node := doc.NodeAt(offset)
	require.NotNil(t, node)

	res := r.ResolveFieldOwner(doc, "Shapes", node)
	assert.Equal(t, Ambiguous, res.Status)
}

func TestResolveFieldOwner_DeclarationSiteViaParamAnnotation(t *testing.T) {
	idx := symbolindex.New(nil)
	doc := document.New("src/Person.elm", `module Person exposing (Person, greet)

type alias Person =
    { name : String, age : Int }


greet : Person -> String
greet person =
    let
        n = person.name
    in
    n
`)
	idx.Upsert(doc)
	r := New(idx)

	offset := indexOfString(doc.Source, "person.name") + len("person.")
	node := doc.NodeAt(offset)
	require.NotNil(t, node)

	res := r.ResolveFieldOwner(doc, "Person", node)
	require.Equal(t, Resolved, res.Status)
	assert.Equal(t, "Person", res.Type.Name)
}

func indexOfString(s, substr string) int {
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}
