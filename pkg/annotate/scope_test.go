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

package annotate

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = `IMGUI_API void Text(const char* fmt, ...) IM_FMTARGS(1);
IMGUI_API void TextV(const char* fmt, va_list args) IM_FMTLIST(1);
`

func TestRewrite(t *testing.T) {
	got := rewrite(header)
	assert.Contains(t, got, `__attribute__((annotate("imgui_api")))`)
	assert.Contains(t, got, `__attribute__((annotate("IM_FMTARGS(1)")))`)
	assert.Contains(t, got, `__attribute__((annotate("IM_FMTLIST(1)")))`)
	assert.NotContains(t, got, "IMGUI_API void Text")
}

func TestWithAnnotationMacrosRestoresOnSuccess(t *testing.T) {
	path := writeTempHeader(t, header)

	err := WithAnnotationMacros([]string{path}, func() error {
		rewritten, readErr := os.ReadFile(path)
		require.NoError(t, readErr)
		assert.Contains(t, string(rewritten), "__attribute__((annotate")
		return nil
	})
	require.NoError(t, err)

	restored, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, header, string(restored))
}

func TestWithAnnotationMacrosRestoresOnError(t *testing.T) {
	path := writeTempHeader(t, header)

	err := WithAnnotationMacros([]string{path}, func() error {
		return errors.New("boom")
	})
	require.Error(t, err)

	restored, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, header, string(restored))
}

func TestColumnRemapNilIsIdentity(t *testing.T) {
	var remap *ColumnRemap
	assert.Equal(t, 42, remap.Remap("imgui.h", 1, 42))
}

// TestColumnRemapTranslatesShiftedColumns covers the case this package
// originally missed: IMGUI_API is a line-prefix macro, so every token after
// it on the same line shifts right once the macro is rewritten into its
// much longer attribute form. A cursor position reported against the
// rewritten file must remap back to where that token actually sits in the
// ledger's unrewritten copy.
func TestColumnRemapTranslatesShiftedColumns(t *testing.T) {
	rewritten, deltas := rewriteWithDeltas(header)
	remap := &ColumnRemap{perFile: map[string]map[int][]colDelta{"imgui.h": deltas}}

	originalLine := strings.Split(header, "\n")[0]
	rewrittenLine := strings.Split(rewritten, "\n")[0]

	wantCol := strings.Index(originalLine, "Text") + 1
	annotatedCol := strings.Index(rewrittenLine, "Text") + 1

	require.NotEqual(t, wantCol, annotatedCol, "fixture should actually shift Text's column")
	assert.Equal(t, wantCol, remap.Remap("imgui.h", 1, annotatedCol))
}

// TestColumnRemapHandlesCoOccurringMacros covers the second line of the
// fixture, where IM_FMTLIST follows the IMGUI_API shift on the same line —
// the remap must account for both deltas together.
func TestColumnRemapHandlesCoOccurringMacros(t *testing.T) {
	rewritten, deltas := rewriteWithDeltas(header)
	remap := &ColumnRemap{perFile: map[string]map[int][]colDelta{"imgui.h": deltas}}

	originalLine := strings.Split(header, "\n")[1]
	rewrittenLine := strings.Split(rewritten, "\n")[1]

	wantCol := strings.Index(originalLine, "TextV") + 1
	annotatedCol := strings.Index(rewrittenLine, "TextV") + 1

	assert.Equal(t, wantCol, remap.Remap("imgui.h", 2, annotatedCol))
}

func TestScopeRemapWiresDeltasFromAcquire(t *testing.T) {
	path := writeTempHeader(t, header)

	scope, err := Acquire([]string{path})
	require.NoError(t, err)
	defer scope.Restore()

	remap := scope.Remap()

	rewritten, readErr := os.ReadFile(path)
	require.NoError(t, readErr)

	originalLine := strings.Split(header, "\n")[0]
	rewrittenLine := strings.Split(string(rewritten), "\n")[0]

	wantCol := strings.Index(originalLine, "Text") + 1
	annotatedCol := strings.Index(rewrittenLine, "Text") + 1

	assert.Equal(t, wantCol, remap.Remap(path, 1, annotatedCol))
}

func writeTempHeader(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "imgui.h")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
