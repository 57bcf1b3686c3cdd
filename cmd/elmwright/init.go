// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/kraklabs/elmwright/internal/errors"
)

func runInit(args []string) error {
	fs := pflag.NewFlagSet("init", pflag.ContinueOnError)
	force := fs.Bool("force", false, "overwrite an existing configuration file")
	root := fs.String("root", ".", "project root directory")
	if err := fs.Parse(args); err != nil {
		return err
	}

	path := ConfigPath(*root)
	if _, err := os.Stat(path); err == nil && !*force {
		return errors.NewConfigError(
			"Configuration already exists",
			fmt.Sprintf("%s already exists", path),
			"Pass --force to overwrite it",
			nil,
		)
	}

	cfg := DefaultConfig(*root)
	if err := SaveConfig(cfg, path); err != nil {
		return err
	}
	logInfo("wrote %s", path)
	return nil
}
