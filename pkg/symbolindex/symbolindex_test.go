// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package symbolindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/elmwright/pkg/document"
)

func personDoc() *document.Document {
	src := `module Person exposing (Person, name, Role(..))

type alias Person =
    { name : String, age : Int }


type Role
    = Admin
    | Viewer String


name : Person -> String
name person =
    person.name
`
	return document.New("src/Person.elm", src)
}

func TestUpsert_PopulatesModuleEntry(t *testing.T) {
	idx := New(nil)
	idx.Upsert(personDoc())

	entry, ok := idx.Module("Person")
	require.True(t, ok)
	assert.Equal(t, "src/Person.elm", entry.Path)
	assert.Contains(t, entry.Functions, "name")
	assert.Contains(t, entry.Types, "Person")
	assert.Contains(t, entry.Types, "Role")

	personType := entry.Types["Person"]
	assert.True(t, personType.IsAlias)
	require.Len(t, personType.Fields, 2)

	roleType := entry.Types["Role"]
	assert.False(t, roleType.IsAlias)
	require.Len(t, roleType.Variants, 2)
	assert.Equal(t, "Admin", roleType.Variants[0].Name)
	assert.Equal(t, "Viewer", roleType.Variants[1].Name)
}

func TestUpsert_ReplacesAtomicallyOnReparse(t *testing.T) {
	idx := New(nil)
	idx.Upsert(personDoc())

	renamed := document.New("src/Person.elm", `module Person exposing (fullName)


fullName : Person -> String
fullName person =
    person.name
`)
	idx.Upsert(renamed)

	_, hasOldFn := idx.Function("Person", "name")
	assert.False(t, hasOldFn, "the old function symbol should be gone after reparse")

	_, hasNewFn := idx.Function("Person", "fullName")
	assert.True(t, hasNewFn)
}

func TestModuleForPath(t *testing.T) {
	idx := New(nil)
	idx.Upsert(personDoc())

	entry, ok := idx.ModuleForPath("src/Person.elm")
	require.True(t, ok)
	assert.Equal(t, "Person", entry.Name)

	_, ok = idx.ModuleForPath("src/Nonexistent.elm")
	assert.False(t, ok)
}

func TestRemove(t *testing.T) {
	idx := New(nil)
	idx.Upsert(personDoc())
	idx.Remove("src/Person.elm")

	_, ok := idx.Module("Person")
	assert.False(t, ok)
	_, ok = idx.Function("Person", "name")
	assert.False(t, ok)
}

func TestFunctionsNamed_AcrossModules(t *testing.T) {
	idx := New(nil)
	idx.Upsert(personDoc())
	idx.Upsert(document.New("src/Account.elm", `module Account exposing (name)


name : Account -> String
name account =
    account.label
`))

	refs := idx.FunctionsNamed("name")
	assert.Len(t, refs, 2)
}

func TestFieldCandidates(t *testing.T) {
	idx := New(nil)
	idx.Upsert(personDoc())

	candidates := idx.FieldCandidates("name")
	require.Len(t, candidates, 1)
	assert.Equal(t, "Person", candidates[0].Owner.Name)
}

func TestVariantsNamed(t *testing.T) {
	idx := New(nil)
	idx.Upsert(personDoc())

	refs := idx.VariantsNamed("Admin")
	require.Len(t, refs, 1)
	assert.Equal(t, "Role", refs[0].TypeName)
	assert.Equal(t, "Person", refs[0].TypeModule)
}

func TestTypeOwner(t *testing.T) {
	idx := New(nil)
	idx.Upsert(personDoc())

	owner, ok := idx.TypeOwner("Role")
	require.True(t, ok)
	assert.Equal(t, "Person", owner)
}
