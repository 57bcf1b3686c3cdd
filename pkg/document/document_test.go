// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ModuleHeaderAndExposingAll(t *testing.T) {
	src := `module Person exposing (..)

type alias Person =
    { name : String, age : Int }
`
	doc := New("src/Person.elm", src)
	assert.Equal(t, "Person", doc.ModuleName)
	require.NotNil(t, doc.ModuleHeader)
	assert.True(t, doc.Exposing.All)
	assert.True(t, doc.Exposing.Has("anything"))
}

func TestNew_ExplicitExposingList(t *testing.T) {
	src := `module Person exposing (Person, name, setName)


name : Person -> String
name person =
    person.name
`
	doc := New("src/Person.elm", src)
	assert.False(t, doc.Exposing.All)
	assert.True(t, doc.Exposing.Has("Person"))
	assert.True(t, doc.Exposing.Has("name"))
	assert.True(t, doc.Exposing.Has("setName"))
	assert.False(t, doc.Exposing.Has("age"))
}

func TestNew_Imports(t *testing.T) {
	src := `module Main exposing (main)

import Html exposing (Html, text)
import Html.Attributes as Attr
import Person
`
	doc := New("src/Main.elm", src)
	require.Len(t, doc.Imports, 3)

	html := doc.Imports[0]
	assert.Equal(t, "Html", html.ModuleName)
	assert.Equal(t, "", html.Alias)
	assert.True(t, html.Exposing.Has("Html"))
	assert.True(t, html.Exposing.Has("text"))

	attrs := doc.Imports[1]
	assert.Equal(t, "Html.Attributes", attrs.ModuleName)
	assert.Equal(t, "Attr", attrs.Alias)

	person := doc.Imports[2]
	assert.Equal(t, "Person", person.ModuleName)
	assert.False(t, person.Exposing.All)
	assert.Empty(t, person.Exposing.Entries)
}

func TestNew_NeverFailsOnMalformedSource(t *testing.T) {
	// spec.md's parser never returns a parse failure outright; a
	// malformed header (here an unclosed exposing list) still yields a
	// Document and a Tree rather than nil.
	doc := New("src/Broken.elm", "module Broken exposing (")
	assert.NotNil(t, doc)
	assert.NotNil(t, doc.Tree)
}

func TestDocument_OffsetAt(t *testing.T) {
	src := "module M exposing (..)\n\nx =\n    1\n"
	doc := New("src/M.elm", src)

	// line 3 (1-based), column 1 is the start of "x ="
	off := doc.OffsetAt(3, 1)
	assert.Equal(t, "x =\n    1\n", src[off:])
}

func TestDocument_HasParseErrors(t *testing.T) {
	clean := New("src/Clean.elm", "module Clean exposing (x)\n\nx =\n    1\n")
	assert.False(t, clean.HasParseErrors())
}

func TestDocument_NodeAt(t *testing.T) {
	src := "module M exposing (..)\n\nx =\n    1\n"
	doc := New("src/M.elm", src)
	n := doc.NodeAt(len(src) - 2)
	assert.NotNil(t, n)
}
