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

package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSymbolLocatorFindSymbol(t *testing.T) {
	path := writeSource(t, "ImGuiContext& g = *GImGui;\n")
	l := New()
	require.NoError(t, l.Load(path))

	loc := NewSymbolLocator(l)
	cr, found, err := loc.FindSymbol(path, 1, 1, "GImGui")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 20, cr.StartColumn)
	assert.Equal(t, 26, cr.EndColumn)
}

func TestSymbolLocatorFindSymbolNotFound(t *testing.T) {
	path := writeSource(t, "void Foo();\n")
	l := New()
	require.NoError(t, l.Load(path))

	loc := NewSymbolLocator(l)
	_, found, err := loc.FindSymbol(path, 1, 1, "GImGui")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestSymbolLocatorFindSymbolRespectsStartColumn(t *testing.T) {
	path := writeSource(t, "Foo(1); Foo(2);\n")
	l := New()
	require.NoError(t, l.Load(path))

	loc := NewSymbolLocator(l)
	cr, found, err := loc.FindSymbol(path, 1, 5, "Foo")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 9, cr.StartColumn)
}

func TestSymbolLocatorFindUntil(t *testing.T) {
	path := writeSource(t, "GImGui->IO.DeltaTime;\n")
	l := New()
	require.NoError(t, l.Load(path))

	loc := NewSymbolLocator(l)
	cr, found, err := loc.FindUntil(path, 1, 1, "-> \t\n")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 1, cr.StartColumn)
	assert.Equal(t, 7, cr.EndColumn)
}
