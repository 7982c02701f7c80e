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

package callgraph

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imgui-tools/implicit-ctx/pkg/cxxcursor"
	"github.com/imgui-tools/implicit-ctx/pkg/database"
	"github.com/imgui-tools/implicit-ctx/pkg/discover"
	"github.com/imgui-tools/implicit-ctx/pkg/ledger"
	"github.com/imgui-tools/implicit-ctx/pkg/model"
)

const sample = `void Foo(int a) {
}

void Bar() {
    Foo(1);
}
`

func TestWalkRecordsCallEdgeBetweenBarAndFoo(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "imgui.cpp")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	led := ledger.New()
	require.NoError(t, led.Load(path))
	locator := ledger.NewSymbolLocator(led)

	symbols := cxxcursor.NewSymbolIndex()
	unit, err := cxxcursor.ParseFile(context.Background(), path, []byte(sample), symbols)
	require.NoError(t, err)

	cfg := &model.Config{ImguiCPP: path}

	entries, cursors, err := discover.Discover(unit.Root(), led, locator, cfg, nil)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	db, err := database.New(led, nil, "/nonexistent/imgui_demo.cpp", entries)
	require.NoError(t, err)

	logCalls, err := Walk(cursors, db, led, locator, cfg, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, logCalls)

	calls := db.IterCalls()
	require.Len(t, calls, 1)
	assert.Equal(t, "Bar", calls[0].Caller.Name)
	assert.Equal(t, "Foo", calls[0].Callee.Name)
	assert.True(t, calls[0].HasArg)
}
