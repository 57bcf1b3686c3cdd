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

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/kraklabs/elmwright/internal/errors"
)

const (
	defaultConfigDir  = ".elmwright"
	defaultConfigFile = "project.yaml"
	configVersion     = "1"
)

// Config represents the .elmwright/project.yaml configuration file,
// the SPEC_FULL.md §10.3 shape of the teacher's cmd/cie/config.go
// Config: YAML-backed, environment-overridable, with a DefaultConfig.
type Config struct {
	Version     string         `yaml:"version"`
	ProjectRoot string         `yaml:"project_root"`
	Indexing    IndexingConfig `yaml:"indexing"`
}

// IndexingConfig holds scan-time settings: where source lives, what
// never gets walked, and what's indexed but excluded from refactor
// edits (spec.md §3's "Exclusions").
type IndexingConfig struct {
	SourceRoots      []string `yaml:"source_roots"`
	Exclude          []string `yaml:"exclude"`
	RefactorExclude  []string `yaml:"refactor_exclude"`
}

// DefaultConfig returns a config with sensible defaults for a project
// rooted at root, mirroring the teacher's DefaultConfig(projectID)
// shape but with Elm-appropriate source roots and exclusions instead
// of CozoDB/embedding settings.
func DefaultConfig(root string) *Config {
	return &Config{
		Version:     configVersion,
		ProjectRoot: root,
		Indexing: IndexingConfig{
			SourceRoots: []string{"src"},
			Exclude: []string{
				".git/**", "elm-stuff/**", "node_modules/**", ".elmwright/**",
			},
			RefactorExclude: []string{
				"generated/**",
			},
		},
	}
}

// LoadConfig loads configuration from configPath, or discovers
// .elmwright/project.yaml by walking up from the working directory
// when configPath is empty, same search order as the teacher's
// findConfigFile.
func LoadConfig(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = os.Getenv("ELMWRIGHT_CONFIG_PATH")
	}
	if configPath == "" {
		var err error
		configPath, err = findConfigFile()
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) //nolint:gosec // G304: path from user config or discovery
	if err != nil {
		return nil, errors.NewConfigError(
			"Cannot read configuration file",
			fmt.Sprintf("Failed to read %s", configPath),
			"Check file permissions and ensure the file exists",
			err,
		)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.NewConfigError(
			"Invalid configuration format",
			"YAML parsing failed - the config file contains syntax errors",
			fmt.Sprintf("Edit %s to fix syntax errors, or run 'elmwright init' to recreate", configPath),
			err,
		)
	}
	if cfg.Version != configVersion {
		return nil, errors.NewConfigError(
			"Unsupported configuration version",
			fmt.Sprintf("Config version %q is not supported (expected %q)", cfg.Version, configVersion),
			"Run 'elmwright init --force' to regenerate the configuration file",
			nil,
		)
	}

	cfg.applyEnvOverrides()
	return &cfg, nil
}

// SaveConfig writes cfg to configPath as YAML, creating the containing
// directory if needed.
func SaveConfig(cfg *Config, configPath string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.NewInternalError(
			"Cannot encode configuration",
			"YAML marshaling failed unexpectedly",
			"This is a bug in elmwright. Please report it.",
			err,
		)
	}
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return errors.NewPermissionError(
			"Cannot create configuration directory",
			fmt.Sprintf("Permission denied creating %s", dir),
			"Check directory permissions or run with appropriate privileges",
			err,
		)
	}
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return errors.NewPermissionError(
			"Cannot write configuration file",
			fmt.Sprintf("Permission denied writing to %s", configPath),
			"Check file permissions and ensure sufficient disk space",
			err,
		)
	}
	return nil
}

// ConfigPath returns <dir>/.elmwright/project.yaml.
func ConfigPath(dir string) string {
	return filepath.Join(dir, defaultConfigDir, defaultConfigFile)
}

func findConfigFile() (string, error) {
	if p := os.Getenv("ELMWRIGHT_CONFIG_PATH"); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
		return "", errors.NewConfigError(
			"Configuration file not found",
			fmt.Sprintf("ELMWRIGHT_CONFIG_PATH is set to %q but the file does not exist", p),
			"Fix the ELMWRIGHT_CONFIG_PATH environment variable or run 'elmwright init'",
			nil,
		)
	}

	dir, err := os.Getwd()
	if err != nil {
		return "", errors.NewInternalError(
			"Cannot access working directory",
			"Failed to determine current directory path",
			"Check system permissions and try again",
			err,
		)
	}
	for {
		p := ConfigPath(dir)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", errors.NewConfigError(
		"Configuration not found",
		"No .elmwright/project.yaml file found in current directory or any parent directory",
		"Run 'elmwright init' to create a new configuration",
		nil,
	)
}

// applyEnvOverrides applies ELMWRIGHT_SOURCE_ROOTS (colon-separated)
// on top of file-based configuration, mirroring the teacher's
// environment-variable-wins convention.
func (c *Config) applyEnvOverrides() {
	if roots := os.Getenv("ELMWRIGHT_SOURCE_ROOTS"); roots != "" {
		c.Indexing.SourceRoots = filepath.SplitList(roots)
	}
}

// AbsoluteSourceRoots resolves the configured source roots against the
// config's project root.
func (c *Config) AbsoluteSourceRoots() []string {
	out := make([]string, len(c.Indexing.SourceRoots))
	for i, r := range c.Indexing.SourceRoots {
		if filepath.IsAbs(r) {
			out[i] = r
		} else {
			out[i] = filepath.Join(c.ProjectRoot, r)
		}
	}
	return out
}
