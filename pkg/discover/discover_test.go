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

package discover

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imgui-tools/implicit-ctx/pkg/cxxcursor"
	"github.com/imgui-tools/implicit-ctx/pkg/ledger"
	"github.com/imgui-tools/implicit-ctx/pkg/model"
)

const sample = `struct ImGuiContext;
extern ImGuiContext* GImGui;

void Foo(int a) {
    ImGuiContext& g = *GImGui;
}
`

func TestDiscoverFindsFreeFunctionWithImplicitContext(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "imgui.cpp")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))

	led := ledger.New()
	require.NoError(t, led.Load(path))
	locator := ledger.NewSymbolLocator(led)

	symbols := cxxcursor.NewSymbolIndex()
	unit, err := cxxcursor.ParseFile(context.Background(), path, []byte(sample), symbols)
	require.NoError(t, err)

	cfg := &model.Config{ImguiCPP: path, Blacklist: nil}

	entries, cursors, err := Discover(unit.Root(), led, locator, cfg, nil)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	foo := entries[0]
	assert.Equal(t, "Foo", foo.Name)
	assert.Len(t, foo.ImplicitContexts, 1)
	assert.NotEmpty(t, cursors[foo.ID])
}
