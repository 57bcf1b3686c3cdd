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

// Command elmwright is the CLI front end for the semantic navigation
// and refactoring engine: it scans a project's source roots into a
// Workspace, then either serves refactor/query commands one-shot from
// the command line or stays resident as an HTTP server (SPEC_FULL.md
// §11). Grounded on the teacher's cmd/cie/main.go: pflag global
// flags, SetInterspersed(false) so subcommand flags aren't hoisted
// above the subcommand name, and a logInfo/logDebug/logError trio keyed
// off --verbose/--quiet.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/kraklabs/elmwright/internal/errors"
	"github.com/kraklabs/elmwright/internal/ui"
	"github.com/kraklabs/elmwright/pkg/refactor"
)

const version = "0.1.0"

// GlobalFlags holds the flags recognized before the subcommand name,
// mirroring the teacher's GlobalFlags struct.
type GlobalFlags struct {
	ShowVersion bool
	ConfigPath  string
	JSON        bool
	NoColor     bool
	Verbose     int
	Quiet       bool
}

var globalFlags GlobalFlags

func main() {
	flag := pflag.NewFlagSet("elmwright", pflag.ContinueOnError)
	flag.SetInterspersed(false)

	flag.BoolVarP(&globalFlags.ShowVersion, "version", "V", false, "print version and exit")
	flag.StringVarP(&globalFlags.ConfigPath, "config", "c", "", "path to project.yaml")
	flag.BoolVar(&globalFlags.JSON, "json", false, "emit machine-readable JSON instead of text")
	flag.BoolVar(&globalFlags.NoColor, "no-color", false, "disable colorized output")
	verbose := flag.CountP("verbose", "v", "increase log verbosity (repeatable)")
	flag.BoolVarP(&globalFlags.Quiet, "quiet", "q", false, "suppress non-error log output")

	if err := flag.Parse(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	globalFlags.Verbose = *verbose

	ui.InitColors(globalFlags.NoColor)
	setupLogging()

	if globalFlags.ShowVersion {
		fmt.Printf("elmwright %s\n", version)
		return
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(2)
	}

	cmd, rest := args[0], args[1:]
	var err error
	switch cmd {
	case "init":
		err = runInit(rest)
	case "index":
		err = runIndex(rest)
	case "status":
		err = runStatus(rest)
	case "config":
		err = runConfigCmd(rest)
	case "serve":
		err = runServe(rest)
	case "rename-function", "rename-type", "rename-variant", "rename-field",
		"move-function", "rename-file", "move-file",
		"prepare-remove-variant", "remove-variant",
		"prepare-add-variant", "add-variant":
		err = runRefactor(cmd, rest)
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "elmwright: unknown command %q\n", cmd)
		printUsage()
		os.Exit(2)
	}

	if err != nil {
		if re, ok := err.(*refactor.Error); ok {
			errors.FatalError(re.UserError, globalFlags.JSON)
		}
		if ue, ok := err.(*errors.UserError); ok {
			errors.FatalError(ue, globalFlags.JSON)
		}
		errors.FatalError(err, globalFlags.JSON)
	}
}

func setupLogging() {
	level := slog.LevelInfo
	switch {
	case globalFlags.Quiet:
		level = slog.LevelError
	case globalFlags.Verbose >= 2:
		level = slog.LevelDebug
	case globalFlags.Verbose == 1:
		level = slog.LevelInfo
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
}

func logInfo(format string, args ...any) {
	if !globalFlags.Quiet {
		slog.Info(fmt.Sprintf(format, args...))
	}
}

func logDebug(format string, args ...any) {
	if globalFlags.Verbose >= 2 {
		slog.Debug(fmt.Sprintf(format, args...))
	}
}

func logError(format string, args ...any) {
	slog.Error(fmt.Sprintf(format, args...))
}

func printUsage() {
	fmt.Fprint(os.Stderr, `elmwright - semantic navigation and refactoring for Elm-like projects

Usage:
  elmwright [global flags] <command> [command flags]

Commands:
  init                      write a new .elmwright/project.yaml
  index                     scan the project and report indexing stats
  status                    print a summary of the current index
  config                    print the resolved configuration
  serve                     run an HTTP server exposing /metrics and refactor endpoints
  rename-function           rename the function under --file/--offset
  rename-type               rename the type under --file/--offset
  rename-variant            rename the variant under --file/--offset
  rename-field              rename the field under --file/--offset
  move-function             move a function to another module
  rename-file / move-file   rename or relocate a module's file
  prepare-remove-variant    report what removing a variant would touch
  remove-variant            remove the variant under --file/--offset
  prepare-add-variant       report how many case branches a new variant needs
  add-variant               add a variant with supplied branch bodies

Global flags:
  -V, --version       print version and exit
  -c, --config PATH   path to project.yaml
      --json          emit JSON instead of text
      --no-color      disable colorized output
  -v, --verbose       increase log verbosity (repeatable)
  -q, --quiet         suppress non-error log output
`)
}
