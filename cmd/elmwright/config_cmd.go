// Copyright 2025 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

func runConfigCmd(args []string) error {
	fs := pflag.NewFlagSet("config", pflag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := LoadConfig(globalFlags.ConfigPath)
	if err != nil {
		return err
	}

	if globalFlags.JSON {
		return jsonEncode(os.Stdout, cfg)
	}
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	fmt.Print(string(out))
	return nil
}
