// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kraklabs/elmwright/pkg/workspace"
)

// loadAndScan loads configuration (resolving configPathFlag the same
// way every subcommand does) and returns a fully scanned Workspace
// wired to its own metrics registry, ready for queries or refactor
// commands.
func loadAndScan(configPathFlag string, onFile func(path string)) (*workspace.Workspace, *Config, error) {
	cfg, err := LoadConfig(configPathFlag)
	if err != nil {
		return nil, nil, err
	}

	reg := prometheus.NewRegistry()
	metrics := workspace.NewMetrics(reg)

	ws := workspace.New(workspace.Config{
		Root:             cfg.ProjectRoot,
		SourceRoots:      cfg.AbsoluteSourceRoots(),
		Excluded:         cfg.Indexing.Exclude,
		RefactorExcluded: cfg.Indexing.RefactorExclude,
	}, metrics)

	if err := ws.Scan(onFile); err != nil {
		return nil, nil, err
	}
	return ws, cfg, nil
}
