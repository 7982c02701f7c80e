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

	flag "github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/imgui-tools/implicit-ctx/internal/errors"
	"github.com/imgui-tools/implicit-ctx/internal/ui"
)

// runConfigCmd executes the 'config' subcommand: it resolves the project
// configuration exactly as convert would and prints it back as YAML, so a
// user can confirm what a bare checkout, a discovered .imguictx/project.yaml,
// or an explicit --config will actually produce.
func runConfigCmd(args []string, configPath string, globals GlobalFlags) int {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	fullRepo := fs.Bool("full-repo", false, "Show the translation unit convert --full-repo would use")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: imguictx config <path>

Shows the resolved project configuration: either the discovered
.imguictx/project.yaml, the file passed via --config, or the defaults
convert falls back to for a bare Dear ImGui checkout.
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 1
	}
	root := fs.Arg(0)

	projectCfg, err := loadOrDefaultProjectConfig(configPath, root)
	if err != nil {
		errors.FatalError(err, false)
		return 1
	}

	out, err := yaml.Marshal(projectCfg)
	if err != nil {
		errors.FatalError(errors.NewInternalError(
			"Cannot encode configuration",
			"YAML marshaling failed unexpectedly",
			"This is a bug. Please report it with your configuration details",
			err,
		), false)
		return 1
	}

	ui.Header("Resolved configuration")
	fmt.Print(string(out))

	cfg := buildModelConfig(projectCfg, root, *fullRepo)
	ui.SubHeader("Translation unit")
	for _, src := range cfg.Sources() {
		fmt.Println(" ", src)
	}

	return 0
}
