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

	"github.com/imgui-tools/implicit-ctx/internal/errors"
	"github.com/imgui-tools/implicit-ctx/internal/ui"
	"github.com/imgui-tools/implicit-ctx/pkg/gitops"
)

// runRebase executes the 'rebase' subcommand: it replays --branch across
// --base (or --onto), replacing every commit whose message begins with the
// generated-conversion marker by an exec step that reruns convert against
// the checked-out tree, so a generated commit is always produced fresh
// rather than cherry-picked against a tree that has since moved on.
func runRebase(args []string, configPath string, globals GlobalFlags) int {
	fs := flag.NewFlagSet("rebase", flag.ExitOnError)
	branch := fs.String("branch", "", "Branch to rebase (required)")
	base := fs.String("base", "", "Base to rebase onto (defaults to the branch's upstream)")
	onto := fs.String("onto", "", "Replay commits onto this ref instead of --base")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: imguictx rebase <path> --branch <name> [--base <ref>] [--onto <ref>]

Replays --branch across an interactive rebase, replacing every
"[generated]" commit with a fresh re-run of convert against the rebased
tree instead of cherry-picking its stale diff.

Options:
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
	if *branch == "" {
		errors.FatalError(errors.NewInputError(
			"--branch is required",
			"rebase needs to know which branch to replay",
			"Pass --branch <name>",
		), false)
		return 1
	}
	root := fs.Arg(0)

	repo := gitops.Open(root)
	if !repo.IsGitRepository() {
		errors.FatalError(errors.NewInternalError(
			"Cannot rebase: not a git repository",
			fmt.Sprintf("%s is not inside a git working tree", root),
			"Point rebase at a git checkout",
			nil,
		), false)
		return 1
	}

	baseRef := *base
	if baseRef == "" {
		upstream, err := repo.ResolveRef(*branch + "@{upstream}")
		if err != nil {
			errors.FatalError(errors.NewInternalError(
				"Cannot determine a default --base",
				err.Error(),
				"Pass --base explicitly",
				err,
			), false)
			return 1
		}
		baseRef = upstream
	}

	exe, err := os.Executable()
	if err != nil {
		errors.FatalError(errors.NewInternalError(
			"Cannot determine imguictx's own executable path",
			err.Error(),
			"This is required to build the rebase sequence editor and exec commands",
			err,
		), false)
		return 1
	}

	sequenceEditor := fmt.Sprintf(`sh -c '%s rtransform < "$1" > "$1.rewritten" && mv "$1.rewritten" "$1"' --`, exe)

	ui.Info(fmt.Sprintf("rebasing %s onto %s (replacing generated commits with a fresh convert run)", *branch, baseRef))
	if err := repo.StartRebase(baseRef, *onto, *branch, sequenceEditor); err != nil {
		errors.FatalError(errors.NewInternalError(
			"git rebase failed",
			err.Error(),
			"Inspect the working tree; the rebase was aborted automatically",
			err,
		), false)
		return 1
	}

	ui.Success("rebase complete")
	return 0
}
