// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// status and index share a summary shape: SPEC_FULL.md §12's
// supplemented "in-memory workspace reporting" feature (file, module,
// function, type, variant, and field counts, plus the parse-error and
// exclusion-list figures a developer needs to trust the index before
// running a refactor), grounded on the teacher's StatusResult JSON
// struct in cmd/cie/status.go.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/kraklabs/elmwright/internal/ui"
	"github.com/kraklabs/elmwright/pkg/workspace"
)

// IndexSummary is the JSON/text shape both `status` and `index` report.
type IndexSummary struct {
	Files          int      `json:"files"`
	Modules        int      `json:"modules"`
	Functions      int      `json:"functions"`
	Types          int      `json:"types"`
	Variants       int      `json:"variants"`
	Fields         int      `json:"fields"`
	ParseErrors    int      `json:"parse_errors"`
	ExcludedGlobs  []string `json:"excluded_globs"`
}

func summarizeIndex(ws *workspace.Workspace) IndexSummary {
	idx := ws.Index()
	var s IndexSummary
	modules := idx.AllModules()
	s.Modules = len(modules)
	for _, m := range modules {
		s.Files++
		s.Functions += len(m.Functions)
		s.Types += len(m.Types)
		for _, t := range m.Types {
			s.Fields += len(t.Fields)
		}
		s.Variants += len(m.Variants)
		if m.Doc != nil && m.Doc.HasParseErrors() {
			s.ParseErrors++
		}
	}
	return s
}

func printIndexSummary(s IndexSummary) {
	fmt.Println(ui.Bold("elmwright index summary"))
	fmt.Printf("  files:       %d\n", s.Files)
	fmt.Printf("  modules:     %d\n", s.Modules)
	fmt.Printf("  functions:   %d\n", s.Functions)
	fmt.Printf("  types:       %d\n", s.Types)
	fmt.Printf("  variants:    %d\n", s.Variants)
	fmt.Printf("  fields:      %d\n", s.Fields)
	fmt.Printf("  parse errors: %d\n", s.ParseErrors)
}

func runStatus(args []string) error {
	fs := pflag.NewFlagSet("status", pflag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	ws, cfg, err := loadAndScan(globalFlags.ConfigPath, nil)
	if err != nil {
		return err
	}

	summary := summarizeIndex(ws)
	summary.ExcludedGlobs = cfg.Indexing.Exclude

	if globalFlags.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}
	printIndexSummary(summary)
	if len(summary.ExcludedGlobs) > 0 {
		fmt.Println("  excluded:")
		for _, g := range summary.ExcludedGlobs {
			fmt.Printf("    - %s\n", g)
		}
	}
	return nil
}
