// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// runIndex implements SPEC_FULL.md §12's supplemented "index" command:
// a one-shot scan of the configured source roots with progress
// feedback, reporting the same counts `status` reports from a
// resident Workspace. Grounded on the teacher's cmd/cie/index.go
// (runIndex), which drives schollz/progressbar/v3 off its ingestion
// pipeline's per-file callback the same way this drives it off
// Workspace.Scan's onFile callback.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/pflag"
)

func runIndex(args []string) error {
	fs := pflag.NewFlagSet("index", pflag.ContinueOnError)
	quiet := fs.Bool("no-progress", false, "suppress the progress bar")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var bar *progressbar.ProgressBar
	if !*quiet && !globalFlags.Quiet && !globalFlags.JSON {
		bar = progressbar.NewOptions(-1,
			progressbar.OptionSetDescription("indexing"),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionSetWriter(os.Stderr),
		)
	}

	ws, _, err := loadAndScan(globalFlags.ConfigPath, func(path string) {
		if bar != nil {
			_ = bar.Add(1)
		}
		logDebug("scanned %s", path)
	})
	if bar != nil {
		_ = bar.Finish()
		fmt.Fprintln(os.Stderr)
	}
	if err != nil {
		return err
	}

	summary := summarizeIndex(ws)
	if globalFlags.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}
	printIndexSummary(summary)
	return nil
}
