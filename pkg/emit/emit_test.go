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

package emit

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/imgui-tools/implicit-ctx/pkg/model"
)

func TestPublicAPIsFiltersToNonMemberNonBlacklisted(t *testing.T) {
	cfg := &model.Config{ImguiH: "/repo/imgui.h", Blacklist: []string{"MemAlloc"}}

	apis := []*model.FunctionEntry{
		{Name: "Text", IsAPI: true, CodeRange: model.NewCodeRange("/repo/imgui.h", 10, 1, 1)},
		{Name: "MemAlloc", IsAPI: true, CodeRange: model.NewCodeRange("/repo/imgui.h", 11, 1, 1)},
		{Name: "Render", IsAPI: true, IsMethod: true, CodeRange: model.NewCodeRange("/repo/imgui.h", 12, 1, 1)},
		{Name: "Internal", IsAPI: false, CodeRange: model.NewCodeRange("/repo/imgui.h", 13, 1, 1)},
		{Name: "OtherFile", IsAPI: true, CodeRange: model.NewCodeRange("/repo/imgui_internal.h", 1, 1, 1)},
	}

	got := PublicAPIs(apis, cfg)
	require := []string{"Text"}
	var names []string
	for _, f := range got {
		names = append(names, f.Name)
	}
	assert.Equal(t, require, names)
}

// TestWrapperForScenarioD covers Scenario D: the generated wrapper for a
// variadic public API va-forwards to the V-suffixed explicit callee.
func TestWrapperForScenarioD(t *testing.T) {
	f := &model.FunctionEntry{
		Name:       "Bar",
		ReturnType: "void",
		FmtArgs:    2,
		Params:     []model.FunctionParameter{model.NewFunctionParameter("fmt", "const char*", "const char* fmt")},
	}

	got := wrapperFor(f)
	assert.Contains(t, got, "va_list args;")
	assert.Contains(t, got, "va_start(args, fmt);")
	assert.Contains(t, got, "ImGuiEx::BarV(GImGui, fmt, args)")
	assert.Contains(t, got, "va_end(args);")
}

func TestWrapperForNonVariadicReturningValue(t *testing.T) {
	f := &model.FunctionEntry{
		Name:       "GetID",
		ReturnType: "ImGuiID",
		Params:     []model.FunctionParameter{model.NewFunctionParameter("str_id", "const char*", "const char* str_id")},
	}

	got := wrapperFor(f)
	assert.Contains(t, got, "return ImGuiEx::GetID(GImGui, str_id);")
}

func TestRewriteNamespace(t *testing.T) {
	src := "namespace ImGui\n{\n    void Foo() { ImGui::Bar(); }\n}\n"
	got := RewriteNamespace(src)
	assert.Contains(t, got, "namespace ImGuiEx")
	assert.Contains(t, got, "ImGuiEx::Bar()")
	assert.NotContains(t, got, "namespace ImGui\n")
}
