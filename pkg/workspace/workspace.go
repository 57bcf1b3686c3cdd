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

// Package workspace orchestrates the Parser, Document, Symbol Index,
// Type Resolver, Reference Finder, and Refactor Engine (spec.md §4.G):
// it owns the scan/open/change/watched-file lifecycle and is the only
// component that performs file I/O. Grounded on the teacher's
// ingestion.LocalPipeline (pkg/ingestion/local_pipeline.go) for the
// "walk the tree, parse each file, populate the catalog" scan shape,
// adapted from a batch, embedding-producing pipeline to a synchronous,
// in-memory reindex with no persisted output.
package workspace

import (
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kraklabs/elmwright/pkg/document"
	"github.com/kraklabs/elmwright/pkg/reference"
	"github.com/kraklabs/elmwright/pkg/refactor"
	"github.com/kraklabs/elmwright/pkg/symbolindex"
	"github.com/kraklabs/elmwright/pkg/typeresolve"
)

// Config holds the scan-time settings a Workspace needs: where to look
// for source files and which paths to leave out of indexing entirely
// (distinct from refactor.Engine.Excluded, which still indexes
// excluded files but won't emit edits into them).
type Config struct {
	Root        string
	SourceRoots []string
	Excluded    []string // glob patterns, not walked at all during scan
	RefactorExcluded []string // glob patterns indexed but not edited
	Logger      *slog.Logger
}

// Workspace is the single logical actor spec.md §5 describes: one
// request at a time against a consistent index snapshot, reparses and
// index updates synchronous within the request that caused them.
type Workspace struct {
	mu sync.RWMutex

	root        string
	sourceRoots []string
	excluded    []string

	idx      *symbolindex.Index
	Engine   *refactor.Engine
	Finder   *reference.Finder
	Resolver *typeresolve.Resolver

	logger  *slog.Logger
	metrics *Metrics
}

// New builds a Workspace over cfg, ready for Scan. The Index, Refactor
// Engine, Reference Finder, and Type Resolver all share the one index
// instance so a reader can always ask any of the five components the
// same question against the same snapshot.
func New(cfg Config, metrics *Metrics) *Workspace {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	idx := symbolindex.New(logger)
	w := &Workspace{
		root:        cfg.Root,
		sourceRoots: cfg.SourceRoots,
		excluded:    cfg.Excluded,
		idx:         idx,
		Engine:      refactor.New(idx, cfg.RefactorExcluded, cfg.SourceRoots),
		Finder:      reference.New(idx),
		Resolver:    typeresolve.New(idx),
		logger:      logger,
		metrics:     metrics,
	}
	return w
}

// Index exposes the underlying catalog for read queries that don't
// need a whole Workspace (tests, the CLI's status command).
func (w *Workspace) Index() *symbolindex.Index { return w.idx }

// ObserveRefactor records a refactor.Engine call's outcome against this
// workspace's metrics, for callers (cmd/elmwright's command handlers)
// that invoke w.Engine directly rather than through a Workspace method.
func (w *Workspace) ObserveRefactor(operation string, err error) {
	if w.metrics != nil {
		w.metrics.observeRefactor(operation, err)
	}
}

// Scan implements spec.md §4.G's scan(root): enumerate source files
// under the configured source roots honoring the exclusion list, parse
// each, and populate the index. onFile, if non-nil, is called once per
// discovered file before it's parsed — cmd/elmwright's index command
// uses it to drive a progressbar.
func (w *Workspace) Scan(onFile func(path string)) error {
	start := time.Now()
	files, err := w.discoverFiles()
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	parseErrors := 0
	for _, path := range files {
		if onFile != nil {
			onFile(path)
		}
		source, err := os.ReadFile(path)
		if err != nil {
			w.logger.Warn("workspace.scan.file_error", "path", path, "error", err)
			if w.metrics != nil {
				w.metrics.ScanErrors.Inc()
			}
			continue
		}
		doc := document.New(path, string(source))
		if doc.HasParseErrors() {
			parseErrors++
		}
		w.idx.Upsert(doc)
	}

	w.logger.Info("workspace.scan.complete",
		"files", len(files),
		"parse_errors", parseErrors,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	if w.metrics != nil {
		w.metrics.FilesIndexed.Set(float64(len(files)))
		w.metrics.ParseErrorCount.Set(float64(parseErrors))
		w.metrics.ScanDuration.Observe(time.Since(start).Seconds())
	}
	return nil
}

func (w *Workspace) discoverFiles() ([]string, error) {
	var out []string
	for _, root := range w.sourceRoots {
		err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				if os.IsPermission(err) {
					return filepath.SkipDir
				}
				return nil
			}
			normalized := filepath.ToSlash(path)
			if info.IsDir() {
				if isScanSkipDir(filepath.Base(path)) {
					return filepath.SkipDir
				}
				return nil
			}
			if !strings.HasSuffix(path, ".elm") {
				return nil
			}
			if w.isExcludedFromScan(normalized) {
				return nil
			}
			out = append(out, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(out)
	return out, nil
}

var scanSkipDirs = map[string]bool{
	".git": true, "node_modules": true, "elm-stuff": true, ".elmwright": true,
}

func isScanSkipDir(base string) bool {
	if scanSkipDirs[base] {
		return true
	}
	return strings.HasPrefix(base, ".") && base != "."
}

func (w *Workspace) isExcludedFromScan(path string) bool {
	for _, pattern := range w.excluded {
		if ok, _ := filepath.Match(pattern, path); ok {
			return true
		}
		if strings.HasSuffix(pattern, "/**") && strings.HasPrefix(path, strings.TrimSuffix(pattern, "/**")+"/") {
			return true
		}
	}
	return false
}

// DidOpen implements spec.md §4.G's didOpen: create or replace the
// document for path with text and rebuild its index entries.
func (w *Workspace) DidOpen(path, text string) {
	w.reindex(path, text)
}

// DidChange implements spec.md §4.G's didChange: full reparse and
// index refresh for path, matching spec.md §1's explicit non-goal of
// incremental reparsing.
func (w *Workspace) DidChange(path, text string) {
	w.reindex(path, text)
}

// DidChangeWatchedFile implements spec.md §4.G's watched-file change:
// treat it as didChange using on-disk content, for when external tools
// (tests, version control) restore files behind the editor's back.
func (w *Workspace) DidChangeWatchedFile(path string) error {
	source, err := os.ReadFile(path)
	if err != nil {
		w.mu.Lock()
		w.idx.Remove(path)
		w.mu.Unlock()
		return err
	}
	w.reindex(path, string(source))
	return nil
}

// DidClose implements spec.md §4.G's didClose: the on-disk view stays
// in the index — symbols are never dropped just because an editor
// buffer closed.
func (w *Workspace) DidClose(path string) {}

func (w *Workspace) reindex(path, text string) {
	start := time.Now()
	doc := document.New(path, text)

	w.mu.Lock()
	w.idx.Upsert(doc)
	w.mu.Unlock()

	w.logger.Debug("workspace.reindex", "path", path, "duration_ms", time.Since(start).Milliseconds())
	if w.metrics != nil {
		w.metrics.ReparseDuration.Observe(time.Since(start).Seconds())
		if doc.HasParseErrors() {
			w.metrics.ParseErrorCount.Inc()
		}
	}
}
