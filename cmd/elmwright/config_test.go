// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"path/filepath"
	"testing"
)

func TestSaveAndLoadConfig_RoundTrip(t *testing.T) {
	root := t.TempDir()
	t.Setenv("ELMWRIGHT_CONFIG_PATH", "")
	t.Setenv("ELMWRIGHT_SOURCE_ROOTS", "")

	cfg := DefaultConfig(root)
	path := ConfigPath(root)
	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig() error = %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if loaded.ProjectRoot != root {
		t.Fatalf("ProjectRoot = %q, want %q", loaded.ProjectRoot, root)
	}
	if len(loaded.Indexing.SourceRoots) != 1 || loaded.Indexing.SourceRoots[0] != "src" {
		t.Fatalf("SourceRoots = %v, want [src]", loaded.Indexing.SourceRoots)
	}
}

func TestLoadConfig_EnvSourceRootsOverride(t *testing.T) {
	root := t.TempDir()
	cfg := DefaultConfig(root)
	path := ConfigPath(root)
	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig() error = %v", err)
	}

	t.Setenv("ELMWRIGHT_SOURCE_ROOTS", "app:lib")
	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	want := []string{"app", "lib"}
	if len(loaded.Indexing.SourceRoots) != len(want) {
		t.Fatalf("SourceRoots = %v, want %v", loaded.Indexing.SourceRoots, want)
	}
	for i := range want {
		if loaded.Indexing.SourceRoots[i] != want[i] {
			t.Fatalf("SourceRoots = %v, want %v", loaded.Indexing.SourceRoots, want)
		}
	}
}

func TestLoadConfig_MissingFileWalksUpToNotFound(t *testing.T) {
	root := t.TempDir()
	t.Chdir(root)
	t.Setenv("ELMWRIGHT_CONFIG_PATH", "")

	if _, err := LoadConfig(""); err == nil {
		t.Fatal("LoadConfig() error = nil, want not-found error")
	}
}

func TestAbsoluteSourceRoots_JoinsRelativeToProjectRoot(t *testing.T) {
	cfg := &Config{ProjectRoot: "/proj", Indexing: IndexingConfig{SourceRoots: []string{"src", "/abs/other"}}}
	got := cfg.AbsoluteSourceRoots()
	want := []string{filepath.Join("/proj", "src"), "/abs/other"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("AbsoluteSourceRoots()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
