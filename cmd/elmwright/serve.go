// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

// runServe keeps a Workspace resident and exposes it over HTTP: a
// Prometheus /metrics endpoint (SPEC_FULL.md §11) and a small JSON API
// over the refactor and query operations, for an editor bridge or
// dashboard that would rather poll HTTP than shell out to the CLI per
// call. Grounded on the teacher's cmd/cie serve command (promhttp
// mounted alongside a JSON request/response surface).
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"

	"github.com/kraklabs/elmwright/pkg/refactor"
	"github.com/kraklabs/elmwright/pkg/workspace"
)

func runServe(args []string) error {
	fs := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	addr := fs.String("addr", ":4747", "listen address")
	watch := fs.Bool("watch", true, "reindex files on disk change")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := LoadConfig(globalFlags.ConfigPath)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	metrics := workspace.NewMetrics(reg)
	ws := workspace.New(workspace.Config{
		Root:             cfg.ProjectRoot,
		SourceRoots:      cfg.AbsoluteSourceRoots(),
		Excluded:         cfg.Indexing.Exclude,
		RefactorExcluded: cfg.Indexing.RefactorExclude,
	}, metrics)

	if err := ws.Scan(nil); err != nil {
		return err
	}
	logInfo("indexed %d module(s)", len(ws.Index().AllModules()))

	var watcher *workspace.Watcher
	if *watch {
		watcher, err = workspace.NewWatcher(ws)
		if err != nil {
			logError("failed to start file watcher: %v", err)
		} else {
			go watcher.Run(func(err error) { logError("watch error: %v", err) })
			defer watcher.Close()
		}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, summarizeIndex(ws))
	})
	mux.HandleFunc("/documentSymbol", func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Query().Get("path")
		symbols, ok := ws.DocumentSymbol(path)
		if !ok {
			http.Error(w, "file not indexed", http.StatusNotFound)
			return
		}
		writeJSON(w, symbols)
	})
	mux.HandleFunc("/definition", func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Query().Get("path")
		offset, perr := intQuery(r, "offset")
		if perr != nil {
			http.Error(w, perr.Error(), http.StatusBadRequest)
			return
		}
		loc, ok := ws.Definition(path, offset)
		if !ok {
			http.Error(w, "no definition found", http.StatusNotFound)
			return
		}
		writeJSON(w, loc)
	})
	mux.HandleFunc("/refactor/", func(w http.ResponseWriter, r *http.Request) {
		handleRefactorRequest(ws, w, r)
	})

	srv := &http.Server{Addr: *addr, Handler: mux}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	logInfo("serving on %s", *addr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return err
		}
	case <-sigCh:
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
	return nil
}

// refactorRequest is the JSON body every /refactor/<op> endpoint
// accepts; unused fields for a given op are ignored.
type refactorRequest struct {
	File         string            `json:"file"`
	Offset       int               `json:"offset"`
	NewName      string            `json:"new_name"`
	TargetModule string            `json:"target_module"`
	OldPath      string            `json:"old_path"`
	NewPath      string            `json:"new_path"`
	Module       string            `json:"module"`
	Type         string            `json:"type"`
	Variant      string            `json:"variant"`
	ArgType      string            `json:"arg_type"`
	Branches     []refactor.Branch `json:"branches"`
	Apply        bool              `json:"apply"`
}

func handleRefactorRequest(ws *workspace.Workspace, w http.ResponseWriter, r *http.Request) {
	op := r.URL.Path[len("/refactor/"):]
	var req refactorRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	var es refactor.EditSet
	var rerr *refactor.Error

	switch op {
	case "rename-function":
		es, rerr = ws.Engine.RenameFunction(req.File, req.Offset, req.NewName)
	case "rename-type":
		es, rerr = ws.Engine.RenameType(req.File, req.Offset, req.NewName)
	case "rename-variant":
		es, rerr = ws.Engine.RenameVariant(req.File, req.Offset, req.NewName)
	case "rename-field":
		es, rerr = ws.Engine.RenameField(req.File, req.Offset, req.NewName)
	case "move-function":
		funcName, ok := functionNameAt(ws, req.File, req.Offset)
		if !ok {
			http.Error(w, "no function at offset", http.StatusBadRequest)
			return
		}
		es, rerr = ws.Engine.MoveFunction(req.File, funcName, req.TargetModule)
	case "rename-file":
		es, rerr = ws.Engine.RenameFile(req.OldPath, req.NewPath)
	case "move-file":
		es, rerr = ws.Engine.MoveFile(req.OldPath, req.NewPath)
	case "remove-variant":
		es, rerr = ws.Engine.RemoveVariant(req.File, req.Offset)
	case "add-variant":
		es, rerr = ws.Engine.AddVariant(req.Module, req.Type, req.Variant, req.ArgType, req.Branches)
	default:
		http.Error(w, fmt.Sprintf("unknown refactor op %q", op), http.StatusNotFound)
		return
	}

	ws.ObserveRefactor(op, errOf(rerr))
	if rerr != nil {
		w.WriteHeader(http.StatusUnprocessableEntity)
		writeJSON(w, map[string]any{
			"error":      true,
			"title":      rerr.Title,
			"detail":     rerr.Detail,
			"suggestion": rerr.Suggestion,
		})
		return
	}

	if req.Apply {
		if err := applyEditsToDisk(es); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]any{"applied": true, "files": sortedKeys(es)})
		return
	}
	writeJSON(w, ws.Plan(es))
}

func sortedKeys(es refactor.EditSet) []string {
	out := make([]string, 0, len(es))
	for k := range es {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func intQuery(r *http.Request, key string) (int, error) {
	s := r.URL.Query().Get(key)
	var n int
	if _, err := fmt.Sscanf(s, "%d", &n); err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return n, nil
}
