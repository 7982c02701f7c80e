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

import "testing"

func TestRunRebaseRequiresBranchFlag(t *testing.T) {
	got := runRebase([]string{t.TempDir()}, "", GlobalFlags{})
	if got != 1 {
		t.Fatalf("runRebase() without --branch = %d, want 1", got)
	}
}

func TestRunRebaseRequiresAPathArgument(t *testing.T) {
	got := runRebase([]string{"--branch", "feature/x"}, "", GlobalFlags{})
	if got != 1 {
		t.Fatalf("runRebase() without a path = %d, want 1", got)
	}
}

func TestRunRebaseRejectsNonGitDirectory(t *testing.T) {
	got := runRebase([]string{"--branch", "feature/x", t.TempDir()}, "", GlobalFlags{})
	if got != 1 {
		t.Fatalf("runRebase() on a non-git directory = %d, want 1", got)
	}
}
