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
	"io"
	"os"

	"github.com/imgui-tools/implicit-ctx/internal/errors"
	"github.com/imgui-tools/implicit-ctx/pkg/gitops"
)

// runRtransform implements the internal 'rtransform' subcommand: it reads a
// rebase todo list on standard input and writes the rewritten todo to
// standard output, replacing every pick of a "[generated]" commit with an
// exec step that reruns convert against the tree at that point in history.
// rebase's sequence editor wrapper redirects the todo file git hands it
// through this command's stdin/stdout.
func runRtransform(args []string, globals GlobalFlags) int {
	if len(args) > 0 {
		fmt.Fprintln(os.Stderr, "Usage: imguictx rtransform (reads a rebase todo on stdin, internal use only)")
		return 1
	}

	todo, err := io.ReadAll(os.Stdin)
	if err != nil {
		errors.FatalError(errors.NewInternalError(
			"Cannot read rebase todo from stdin",
			err.Error(),
			"This subcommand is only meant to run as GIT_SEQUENCE_EDITOR via 'imguictx rebase'",
			err,
		), false)
		return 1
	}

	repo := gitops.Open(".")
	exe, exeErr := os.Executable()
	if exeErr != nil {
		errors.FatalError(errors.NewInternalError(
			"Cannot determine imguictx's own executable path",
			exeErr.Error(),
			"This is required to build the exec line replayed for each generated commit",
			exeErr,
		), false)
		return 1
	}

	reexecCommand := fmt.Sprintf("%s convert . --apply && git commit -a --amend --no-edit", exe)

	rewritten, rewriteErr := gitops.RewriteTodo(string(todo), repo.CommitSubject, reexecCommand)
	if rewriteErr != nil {
		errors.FatalError(errors.NewInternalError(
			"Failed to rewrite the rebase todo",
			rewriteErr.Error(),
			"Inspect the todo list git handed to rtransform",
			rewriteErr,
		), false)
		return 1
	}

	if _, err := os.Stdout.WriteString(rewritten); err != nil {
		errors.FatalError(errors.NewInternalError(
			"Cannot write the rewritten rebase todo",
			err.Error(),
			"Check that stdout is writable",
			err,
		), false)
		return 1
	}
	return 0
}
