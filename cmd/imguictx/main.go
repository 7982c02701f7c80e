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

// Package main implements the imguictx CLI: an automated source-to-source
// conversion of the Dear ImGui C++ API from an implicit, global-context
// calling convention to an explicit ImGuiContext* first parameter.
//
// Usage:
//
//	imguictx convert <path>          Convert a Dear ImGui checkout in place
//	imguictx rebase <path>           Replay generated commits across a rebase
//	imguictx rtransform               Rewrite a rebase todo on stdin (internal)
//	imguictx explain <path> <function>  Show why a function needs a context
//	imguictx config <path>           Show the resolved project configuration
package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/imgui-tools/implicit-ctx/internal/ui"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// GlobalFlags holds the flags that apply to every subcommand.
type GlobalFlags struct {
	NoColor bool
	Verbose int
	Quiet   bool
}

func main() {
	var (
		showVersion = flag.BoolP("version", "V", false, "Show version and exit")
		configPath  = flag.StringP("config", "c", "", "Path to .imguictx/project.yaml (default: discovered from cwd)")
		noColor     = flag.Bool("no-color", false, "Disable color output")
		verbose     = flag.CountP("verbose", "v", "Increase verbosity (-v for info, -vv for debug)")
		quiet       = flag.BoolP("quiet", "q", false, "Suppress non-essential output (progress, info messages)")
	)

	flag.SetInterspersed(false)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `imguictx - Dear ImGui implicit-context conversion tool

Rewrites a Dear ImGui checkout so every function that transitively depends
on the global GImGui context pointer accepts the context as an explicit
first parameter, then generates a compatibility layer so existing callers
keep working unmodified.

Usage:
  imguictx <command> [options]

Commands:
  convert       Convert a Dear ImGui checkout in place
  rebase        Replay generated commits across an interactive rebase
  rtransform    Rewrite a rebase todo read from stdin (internal, used by rebase)
  explain       Show why a function ended up needing an explicit context
  config        Show the resolved project configuration

Global Options:
  --no-color        Disable color output (respects NO_COLOR env var)
  -v, --verbose     Increase verbosity (-v for info, -vv for debug)
  -q, --quiet       Suppress non-essential output (progress, info messages)
  -c, --config      Path to .imguictx/project.yaml
  -V, --version     Show version and exit

Examples:
  imguictx convert ./imgui --apply --commit
  imguictx convert ./imgui --dump-test-ast
  imguictx rebase ./imgui --branch feature/x --base main
  imguictx explain ./imgui ImGui::Text

For detailed command help: imguictx <command> --help

`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("imguictx version %s\n", version)
		fmt.Printf("commit: %s\n", commit)
		fmt.Printf("built: %s\n", date)
		os.Exit(0)
	}

	if os.Getenv("NO_COLOR") != "" {
		*noColor = true
	}

	if *quiet && *verbose > 0 {
		fmt.Fprintf(os.Stderr, "Error: cannot use --quiet and --verbose together\n")
		os.Exit(1)
	}

	globals := GlobalFlags{NoColor: *noColor, Verbose: *verbose, Quiet: *quiet}
	ui.InitColors(globals.NoColor)

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	command := args[0]
	cmdArgs := args[1:]

	switch command {
	case "convert":
		os.Exit(runConvert(cmdArgs, *configPath, globals))
	case "rebase":
		os.Exit(runRebase(cmdArgs, *configPath, globals))
	case "rtransform":
		os.Exit(runRtransform(cmdArgs, globals))
	case "explain":
		os.Exit(runExplain(cmdArgs, *configPath, globals))
	case "config":
		os.Exit(runConfigCmd(cmdArgs, *configPath, globals))
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}
