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

package gitops

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRewriteTodoReplacesGeneratedCommits(t *testing.T) {
	todo := "pick aaa111 Some unrelated change\n" +
		"pick bbb222 [generated] Convert Dear ImGui API to use an explicit ImGuiContext.\n" +
		"pick ccc333 Another change\n"

	subjects := map[string]string{
		"aaa111": "Some unrelated change",
		"bbb222": GeneratedMarker,
		"ccc333": "Another change",
	}

	got, err := RewriteTodo(todo, func(sha string) (string, error) {
		return subjects[sha], nil
	}, "imguictx rtransform")
	require.NoError(t, err)

	assert.Contains(t, got, "pick aaa111 Some unrelated change\n")
	assert.Contains(t, got, "exec imguictx rtransform\n")
	assert.NotContains(t, got, "bbb222")
	assert.Contains(t, got, "pick ccc333 Another change\n")
}

func TestRewriteTodoPropagatesSubjectLookupError(t *testing.T) {
	todo := "pick aaa111 Some change\n"
	_, err := RewriteTodo(todo, func(sha string) (string, error) {
		return "", errors.New("boom")
	}, "imguictx rtransform")
	assert.Error(t, err)
}

func TestRewriteTodoLeavesNonPickLinesUntouched(t *testing.T) {
	todo := "# This is a comment\n\npick aaa111 Some change\n"
	got, err := RewriteTodo(todo, func(sha string) (string, error) {
		return "Some change", nil
	}, "imguictx rtransform")
	require.NoError(t, err)
	assert.Contains(t, got, "# This is a comment\n")
}
