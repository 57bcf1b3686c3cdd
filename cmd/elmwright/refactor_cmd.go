// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// runRefactor dispatches the rename/move/variant subcommands to the
// matching pkg/refactor.Engine method, then either previews the
// resulting edit set as a colorized diff (the default) or writes it to
// disk with --apply. Grounded on the teacher's cmd/cie command
// handlers (flag.NewFlagSet per subcommand, a shared --json escape
// hatch) generalized from read-only query output to diff-or-apply
// edit output.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/kraklabs/elmwright/internal/errors"
	"github.com/kraklabs/elmwright/internal/ui"
	"github.com/kraklabs/elmwright/pkg/refactor"
	"github.com/kraklabs/elmwright/pkg/workspace"
)

func runRefactor(cmd string, args []string) error {
	fs := pflag.NewFlagSet(cmd, pflag.ContinueOnError)
	file := fs.String("file", "", "path of the file containing the cursor")
	line := fs.Int("line", -1, "1-based line of the cursor (used with --col)")
	col := fs.Int("col", -1, "1-based column of the cursor (used with --line)")
	offset := fs.Int("offset", -1, "0-based byte offset of the cursor (overrides --line/--col)")
	newName := fs.String("new-name", "", "replacement identifier")
	targetModule := fs.String("target-module", "", "destination module (move-function)")
	oldPath := fs.String("old-path", "", "current file path (rename-file/move-file)")
	newPath := fs.String("new-path", "", "new file path (rename-file/move-file)")
	module := fs.String("module", "", "module name (prepare-add-variant/add-variant)")
	typeName := fs.String("type", "", "custom type name (prepare-add-variant/add-variant)")
	variantName := fs.String("variant", "", "new variant name (add-variant)")
	argType := fs.String("arg-type", "", "new variant's argument type, empty for a nullary variant")
	branchCode := fs.StringArray("branch", nil, "one case-branch body per occurrence needing one (add-variant); omit to fill with Debug.todo")
	apply := fs.Bool("apply", false, "write the edits to disk instead of previewing them")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ws, _, err := loadAndScan(globalFlags.ConfigPath, nil)
	if err != nil {
		return err
	}

	resolvedOffset := *offset
	if resolvedOffset < 0 && *line >= 0 && *col >= 0 {
		entry, ok := ws.Index().ModuleForPath(*file)
		if !ok {
			return errors.NewInputError("File not indexed", fmt.Sprintf("%s is not part of the scanned workspace", *file), "Check --file and the project's source roots")
		}
		resolvedOffset = entry.Doc.OffsetAt(*line, *col)
	}

	var es refactor.EditSet
	var rerr *refactor.Error

	switch cmd {
	case "rename-function":
		es, rerr = ws.Engine.RenameFunction(*file, resolvedOffset, *newName)
	case "rename-type":
		es, rerr = ws.Engine.RenameType(*file, resolvedOffset, *newName)
	case "rename-variant":
		es, rerr = ws.Engine.RenameVariant(*file, resolvedOffset, *newName)
	case "rename-field":
		es, rerr = ws.Engine.RenameField(*file, resolvedOffset, *newName)
	case "move-function":
		funcName, ok := functionNameAt(ws, *file, resolvedOffset)
		if !ok {
			return errors.NewInputError("No function at cursor",
				"the offset does not land inside a top-level function's name or body",
				"Point --offset/--line+--col at the function's definition")
		}
		es, rerr = ws.Engine.MoveFunction(*file, funcName, *targetModule)
	case "rename-file":
		es, rerr = ws.Engine.RenameFile(*oldPath, *newPath)
	case "move-file":
		es, rerr = ws.Engine.MoveFile(*oldPath, *newPath)
	case "prepare-remove-variant":
		analysis, aerr := ws.Engine.PrepareRemoveVariant(*file, resolvedOffset)
		ws.ObserveRefactor(cmd, errOf(aerr))
		if aerr != nil {
			return aerr
		}
		return jsonOrPrint(analysis, func() {
			fmt.Printf("can remove: %v (%s)\n", analysis.CanRemove, analysis.Reason)
			fmt.Printf("case branches affected: %d\n", len(analysis.Cases))
			fmt.Printf("constructor uses affected: %d\n", len(analysis.ConstructorUses))
		})
	case "remove-variant":
		es, rerr = ws.Engine.RemoveVariant(*file, resolvedOffset)
	case "prepare-add-variant":
		analysis, aerr := ws.Engine.PrepareAddVariant(*module, *typeName)
		ws.ObserveRefactor(cmd, errOf(aerr))
		if aerr != nil {
			return aerr
		}
		return jsonOrPrint(analysis, func() {
			fmt.Printf("branches needed: %d\n", analysis.CasesNeedingBranch)
		})
	case "add-variant":
		var branches []refactor.Branch
		for _, code := range *branchCode {
			branches = append(branches, refactor.Branch{Kind: refactor.BranchAddCode, Code: code})
		}
		es, rerr = ws.Engine.AddVariant(*module, *typeName, *variantName, *argType, branches)
	default:
		return errors.NewInputError("Unknown refactor command", cmd, "")
	}

	ws.ObserveRefactor(cmd, errOf(rerr))
	if rerr != nil {
		return rerr
	}

	if *apply {
		return applyEditsToDisk(es)
	}
	return previewEditSet(ws, es)
}

// functionNameAt returns the name of the top-level function whose
// definition range contains offset in path, if any.
func functionNameAt(ws *workspace.Workspace, path string, offset int) (string, bool) {
	entry, ok := ws.Index().ModuleForPath(path)
	if !ok {
		return "", false
	}
	for name, fn := range entry.Functions {
		if offset >= fn.DefRange.Start.Offset && offset <= fn.DefRange.End.Offset {
			return name, true
		}
	}
	return "", false
}

func errOf(e *refactor.Error) error {
	if e == nil {
		return nil
	}
	return e
}

// previewEditSet renders es as one colorized diff per touched file
// without writing anything to disk, via Workspace.Plan.
func previewEditSet(ws *workspace.Workspace, es refactor.EditSet) error {
	diffs := ws.Plan(es)
	if globalFlags.JSON {
		return jsonEncode(os.Stdout, diffs)
	}
	if len(diffs) == 0 {
		fmt.Println("no changes")
		return nil
	}
	for _, d := range diffs {
		fmt.Print(ui.Diff(d.Path, d.Before, d.After))
	}
	fmt.Printf("\n%d file(s) would change. Re-run with --apply to write them.\n", len(diffs))
	return nil
}

// applyEditsToDisk writes es's edits to the files on disk, one
// read-modify-write per touched file.
func applyEditsToDisk(es refactor.EditSet) error {
	for path, edits := range es {
		data, err := os.ReadFile(path) //nolint:gosec // G304: path came from the workspace index
		if err != nil {
			return errors.NewPermissionError("Cannot read file for editing", path, "Check file permissions", err)
		}
		after := workspace.ApplyEdits(string(data), edits)
		if err := os.WriteFile(path, []byte(after), 0600); err != nil {
			return errors.NewPermissionError("Cannot write edited file", path, "Check file permissions", err)
		}
		logInfo("applied %d edit(s) to %s", len(edits), path)
	}
	return nil
}

func jsonOrPrint(v any, printText func()) error {
	if globalFlags.JSON {
		return jsonEncode(os.Stdout, v)
	}
	printText()
	return nil
}
