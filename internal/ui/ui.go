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

// Package ui renders CLI output: colorized diagnostics, conflict
// errors, and unified-diff edit previews for cmd/elmwright.
package ui

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/mitchellh/colorstring"
	"github.com/rivo/uniseg"
)

var (
	colorEnabled = true

	added   = color.New(color.FgGreen)
	removed = color.New(color.FgRed)
	context = color.New(color.FgHiBlack)
	bold    = color.New(color.Bold)
)

// InitColors decides whether subsequent Format/Diff calls emit ANSI
// color, mirroring the teacher's CLI precedence: an explicit
// --no-color flag always wins, then NO_COLOR (https://no-color.org),
// then whether stdout is a terminal.
func InitColors(noColorFlag bool) {
	if noColorFlag || os.Getenv("NO_COLOR") != "" {
		colorEnabled = false
	} else {
		colorEnabled = isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	}
	color.NoColor = !colorEnabled
}

// ColorEnabled reports the decision made by the most recent InitColors
// call.
func ColorEnabled() bool { return colorEnabled }

// Bold renders s in bold when color is enabled, unchanged otherwise.
func Bold(s string) string {
	if !colorEnabled {
		return s
	}
	return bold.Sprint(s)
}

// Diff renders a single-file edit as a unified-diff-style preview: a
// header line, unchanged context, then the changed middle as one block
// of removed lines followed by one block of added lines, colorized the way
// the teacher's mcp.go colors its tool-result summaries (green for
// additions, red for removals, dim gray for surrounding context).
func Diff(path string, before, after string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", Bold(path))

	beforeLines := strings.Split(before, "\n")
	afterLines := strings.Split(after, "\n")

	// A line-level diff good enough for a preview: common prefix/suffix
	// trimmed, the differing middle shown as one removed block and one
	// added block. Refactor edits are localized, so this rarely needs
	// more than that to read clearly.
	prefix := commonPrefixLen(beforeLines, afterLines)
	suffix := commonSuffixLen(beforeLines[prefix:], afterLines[prefix:])

	for _, l := range beforeLines[:prefix] {
		fmt.Fprintf(&b, "  %s\n", contextLine(l))
	}
	for _, l := range beforeLines[prefix : len(beforeLines)-suffix] {
		fmt.Fprintf(&b, "- %s\n", removedLine(l))
	}
	for _, l := range afterLines[prefix : len(afterLines)-suffix] {
		fmt.Fprintf(&b, "+ %s\n", addedLine(l))
	}
	for _, l := range beforeLines[len(beforeLines)-suffix:] {
		fmt.Fprintf(&b, "  %s\n", contextLine(l))
	}
	return b.String()
}

func addedLine(s string) string {
	if !colorEnabled {
		return s
	}
	return added.Sprint(truncateDisplay(s, 200))
}

func removedLine(s string) string {
	if !colorEnabled {
		return s
	}
	return removed.Sprint(truncateDisplay(s, 200))
}

func contextLine(s string) string {
	if !colorEnabled {
		return s
	}
	return context.Sprint(truncateDisplay(s, 200))
}

// truncateDisplay cuts s to at most n *display* columns (not bytes),
// using uniseg so multi-byte identifiers (module names, comments with
// non-ASCII punctuation) don't get cut mid-grapheme.
func truncateDisplay(s string, n int) string {
	if uniseg.StringWidth(s) <= n {
		return s
	}
	g := uniseg.NewGraphemes(s)
	var b strings.Builder
	width := 0
	for g.Next() {
		cw := g.Width()
		if width+cw > n {
			break
		}
		b.WriteString(g.Str())
		width += cw
	}
	b.WriteString("…")
	return b.String()
}

// RemoveVariantSummary renders prepareRemoveVariant's coalesced report
// (files touched, branches deleted, constructor uses replaced) using
// colorstring's `[green]`/`[red]`/`[reset]` template markup, matching
// the compact multi-field summaries the teacher's CLI prints after a
// batch operation.
func RemoveVariantSummary(filesTouched, branchesDeleted, constructorUsesReplaced int) string {
	tmpl := "[bold]Remove variant:[reset] " +
		"[green]%d file(s)[reset] touched, " +
		"[red]%d branch(es)[reset] deleted, " +
		"[yellow]%d constructor use(s)[reset] replaced with Debug.todo"
	rendered := fmt.Sprintf(tmpl, filesTouched, branchesDeleted, constructorUsesReplaced)
	if !colorEnabled {
		return colorstring.Color(stripColorTags(rendered))
	}
	return colorstring.Color(rendered)
}

// stripColorTags removes colorstring's [tag] markup without invoking
// the ANSI encoder, used when color is disabled so plain-text output
// has no leftover bracket tags.
func stripColorTags(s string) string {
	var b strings.Builder
	depth := 0
	for _, r := range s {
		switch r {
		case '[':
			depth++
		case ']':
			if depth > 0 {
				depth--
			}
		default:
			if depth == 0 {
				b.WriteRune(r)
			}
		}
	}
	return b.String()
}

func commonPrefixLen(a, b []string) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}

func commonSuffixLen(a, b []string) int {
	n := 0
	for n < len(a) && n < len(b) && a[len(a)-1-n] == b[len(b)-1-n] {
		n++
	}
	return n
}
