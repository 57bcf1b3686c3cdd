// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package refactor

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/elmwright/pkg/document"
	"github.com/kraklabs/elmwright/pkg/symbolindex"
)

// applyEdits splices es[path]'s edits into source in descending-offset
// order, mirroring pkg/workspace.ApplyEdits locally so this package's
// tests don't need to import its own caller (pkg/workspace already
// imports pkg/refactor).
func applyEdits(source string, edits []Edit) string {
	sorted := make([]Edit, len(edits))
	copy(sorted, edits)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Range.Start.Offset > sorted[j].Range.Start.Offset
	})
	out := source
	for _, e := range sorted {
		start, end := e.Range.Start.Offset, e.Range.End.Offset
		out = out[:start] + e.NewText + out[end:]
	}
	return out
}

func newEngine(t *testing.T, docs ...*document.Document) (*Engine, *symbolindex.Index) {
	t.Helper()
	idx := symbolindex.New(nil)
	for _, d := range docs {
		idx.Upsert(d)
	}
	return New(idx, nil, []string{"src"}), idx
}

func indexOf(t *testing.T, src, substr string) int {
	t.Helper()
	i := -1
	for j := 0; j+len(substr) <= len(src); j++ {
		if src[j:j+len(substr)] == substr {
			i = j
			break
		}
	}
	require.GreaterOrEqual(t, i, 0, "expected %q to appear in source", substr)
	return i
}

// S1: rename a field shared by name across two record types touches
// only the occurrences owned by the type the cursor was on.
func TestRenameField_CommonFieldIsolation(t *testing.T) {
	src := document.New("src/Person.elm", `module Person exposing (Person, Visitor, getUsername, getVisitorName, createPerson, extractName)

type alias Person =
    { name : String, email : String }


type alias Visitor =
    { name : String }


getUsername : Person -> String
getUsername person =
    person.name


getVisitorName : Visitor -> String
getVisitorName visitor =
    visitor.name


createPerson : String -> String -> Person
createPerson n e =
    { name = n, email = e }


extractName : Person -> String
extractName person =
    let
        { name } = person
    in
    name
`)
	e, _ := newEngine(t, src)

	offset := indexOf(t, src.Source, "{ name : String, email") + len("{ ")
	es, rerr := e.RenameField("src/Person.elm", offset, "fullName")
	require.Nil(t, rerr)
	require.Contains(t, es, "src/Person.elm")

	after := applyEdits(src.Source, es["src/Person.elm"])
	assert.Contains(t, after, "{ fullName : String, email : String }")
	assert.Contains(t, after, "person.fullName")
	assert.Contains(t, after, "{ fullName = n, email = e }")
	assert.Contains(t, after, "{ fullName } = person")

	// Visitor.name is untouched.
	assert.Contains(t, after, "{ name : String }")
	assert.Contains(t, after, "visitor.name")
}

// S2/S3: removing a variant deletes the declaration, replaces
// constructor use sites with a Debug.todo placeholder, and leaves
// wildcard-only cases alone unless the case becomes vacuous.
func TestRemoveVariant_ConstructorUseAndWildcardCleanup(t *testing.T) {
	src := document.New("src/Color.elm", `module Color exposing (Color(..), describe, f)

type Color
    = Red
    | Green
    | Blue
    | Unused


describe : Color -> String
describe c =
    case c of
        Red ->
            "red"

        Green ->
            "green"

        _ ->
            "other"


f : Int -> Color
f x =
    Blue
`)
	e, _ := newEngine(t, src)

	unusedOffset := indexOf(t, src.Source, "| Unused") + len("| ")
	es, rerr := e.RemoveVariant("src/Color.elm", unusedOffset)
	require.Nil(t, rerr)
	after := applyEdits(src.Source, es["src/Color.elm"])
	assert.NotContains(t, after, "Unused")
	assert.Contains(t, after, `case c of`)
	assert.Contains(t, after, `"other"`)

	// Now remove Blue from the already-edited source via a fresh index.
	src2 := document.New("src/Color.elm", after)
	e2, _ := newEngine(t, src2)
	blueOffset := indexOf(t, src2.Source, "Blue\n")
	es2, rerr2 := e2.RemoveVariant("src/Color.elm", blueOffset)
	require.Nil(t, rerr2)
	after2 := applyEdits(src2.Source, es2["src/Color.elm"])
	assert.NotContains(t, after2, "| Blue")
	assert.Contains(t, after2, `Debug.todo "VARIANT REMOVAL DONE: Blue"`)
}

// S4: removing the only remaining variant of a type fails with
// CannotRemoveOnlyVariant and produces no edits.
func TestRemoveVariant_CannotRemoveOnlyVariant(t *testing.T) {
	src := document.New("src/T.elm", `module T exposing (T(..))

type T
    = Only
`)
	e, _ := newEngine(t, src)
	offset := indexOf(t, src.Source, "Only")
	es, rerr := e.RemoveVariant("src/T.elm", offset)
	require.Nil(t, es)
	require.NotNil(t, rerr)
	assert.Equal(t, CannotRemoveOnlyVariant, rerr.Kind)
}

// S5: renaming a function updates its exposing list and every
// importer's exposing list / qualified use.
func TestRenameFunction_AcrossExposingLists(t *testing.T) {
	utils := document.New("src/Utils.elm", `module Utils exposing (formatName, greet, helper)


helper : Int -> Int
helper x =
    x + 1


greet : String -> String
greet name =
    name


formatName : String -> String
formatName name =
    name
`)
	importer := document.New("src/Main.elm", `module Main exposing (main)

import Utils exposing (helper)


main : Int -> Int
main =
    helper 1
`)
	qualified := document.New("src/Other.elm", `module Other exposing (run)

import Utils


run : Int -> Int
run =
    Utils.helper 2
`)
	e, _ := newEngine(t, utils, importer, qualified)

	offset := indexOf(t, utils.Source, "helper : Int")
	es, rerr := e.RenameFunction("src/Utils.elm", offset, "fmt")
	require.Nil(t, rerr)

	afterUtils := applyEdits(utils.Source, es["src/Utils.elm"])
	assert.Contains(t, afterUtils, "exposing (formatName, greet, fmt)")
	assert.Contains(t, afterUtils, "fmt : Int -> Int")
	assert.Contains(t, afterUtils, "fmt x =")

	afterMain := applyEdits(importer.Source, es["src/Main.elm"])
	assert.Contains(t, afterMain, "exposing (fmt)")
	assert.Contains(t, afterMain, "fmt 1")

	afterOther := applyEdits(qualified.Source, es["src/Other.elm"])
	assert.Contains(t, afterOther, "Utils.fmt 2")
}

// S6: addVariant requires exactly as many branches as
// prepareAddVariant reports cases needing one.
func TestAddVariant_WrongBranchCount(t *testing.T) {
	src := document.New("src/Theme.elm", `module Theme exposing (ColorTheme(..), a, b, c)

type ColorTheme
    = Light
    | Dark


a : ColorTheme -> String
a t =
    case t of
        Light ->
            "light"

        Dark ->
            "dark"


b : ColorTheme -> String
b t =
    case t of
        Light ->
            "light2"

        Dark ->
            "dark2"


c : ColorTheme -> String
c t =
    case t of
        Light ->
            "light3"

        Dark ->
            "dark3"
`)
	e, _ := newEngine(t, src)

	analysis, perr := e.PrepareAddVariant("Theme", "ColorTheme")
	require.Nil(t, perr)
	require.Equal(t, 3, analysis.CasesNeedingBranch)

	_, rerr := e.AddVariant("Theme", "ColorTheme", "SystemTheme", "", []Branch{{Kind: BranchAddDebug}})
	require.NotNil(t, rerr)
	assert.Equal(t, WrongBranchCount, rerr.Kind)
	assert.Equal(t, 3, rerr.CasesNeedingBranch)

	es, rerr2 := e.AddVariant("Theme", "ColorTheme", "SystemTheme", "", []Branch{
		{Kind: BranchAddDebug}, {Kind: BranchAddDebug}, {Kind: BranchAddDebug},
	})
	require.Nil(t, rerr2)
	after := applyEdits(src.Source, es["src/Theme.elm"])
	assert.Contains(t, after, "| SystemTheme")
	assert.Equal(t, 3, countOccurrences(after, `Debug.todo "Handle SystemTheme"`))
}

func countOccurrences(s, substr string) int {
	count := 0
	for i := 0; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			count++
			i += len(substr) - 1
		}
	}
	return count
}

// RenameFunction to its current name is a no-op edit set, per spec.md
// §8 property 1.
func TestRenameFunction_IdempotentSameName(t *testing.T) {
	src := document.New("src/A.elm", `module A exposing (f)


f : Int -> Int
f x =
    x
`)
	e, _ := newEngine(t, src)
	offset := indexOf(t, src.Source, "f x =")
	es, rerr := e.RenameFunction("src/A.elm", offset, "f")
	require.Nil(t, rerr)
	assert.Empty(t, es)
}

// MoveFile rewrites the moved file's module header and every importer
// reference, per spec.md §8 property 4.
func TestMoveFile_RewritesImportsAndQualifiedUses(t *testing.T) {
	old := document.New("src/Old/Name.elm", `module Old.Name exposing (thing)


thing : Int
thing =
    1
`)
	importer := document.New("src/Main.elm", `module Main exposing (main)

import Old.Name


main : Int
main =
    Old.Name.thing
`)
	e, idx := newEngine(t, old, importer)
	_ = idx

	es, rerr := e.MoveFile("src/Old/Name.elm", "src/New/Name.elm")
	require.Nil(t, rerr)

	afterOld := applyEdits(old.Source, es["src/New/Name.elm"])
	assert.Contains(t, afterOld, "module New.Name exposing")

	afterMain := applyEdits(importer.Source, es["src/Main.elm"])
	assert.Contains(t, afterMain, "import New.Name")
	assert.Contains(t, afterMain, "New.Name.thing")
}
