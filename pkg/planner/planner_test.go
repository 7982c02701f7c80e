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

package planner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imgui-tools/implicit-ctx/pkg/database"
	"github.com/imgui-tools/implicit-ctx/pkg/ledger"
	"github.com/imgui-tools/implicit-ctx/pkg/model"
)

func writeFixture(t *testing.T, content string) (*ledger.SourceLedger, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "imgui.cpp")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	led := ledger.New()
	require.NoError(t, led.Load(path))
	return led, path
}

// TestPlanScenarioA covers Scenario A: a free function referencing GImGui
// directly and calling another function that needs the context too.
func TestPlanScenarioA(t *testing.T) {
	led, path := writeFixture(t, "void Foo() { ImGuiContext& g = *GImGui; Bar(28); }\nvoid Bar(int a) { }\n")

	foo := &model.FunctionEntry{
		Name: "Foo", ID: "fn:Foo", FQName: "Foo", ReturnType: "void",
		IsDefinition: true, NeedContextParam: true,
		CodeRange:        model.NewCodeRange(path, 1, 6, 9),
		ImplicitContexts: []model.CodeRange{model.NewCodeRange(path, 1, 33, 39)},
	}
	bar := &model.FunctionEntry{
		Name: "Bar", ID: "fn:Bar", FQName: "Bar", ReturnType: "void",
		IsDefinition: true, NeedContextParam: true,
		Params:    []model.FunctionParameter{model.NewFunctionParameter("a", "int", "int a")},
		CodeRange: model.NewCodeRange(path, 2, 6, 9),
	}

	db, err := database.New(led, nil, "/nonexistent/imgui_demo.cpp", []*model.FunctionEntry{foo, bar})
	require.NoError(t, err)

	callRange := model.NewCodeRange(path, 1, 41, 44)
	require.NoError(t, db.AddCall(foo.ID, bar.ID, callRange))

	cfg := &model.Config{}
	require.NoError(t, Plan(db, led, cfg, nil))
	require.NoError(t, led.Flush(nil))

	out, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "void Foo(ImGuiContext* ctx) { ImGuiContext& g = *ctx; Bar(ctx, 28); }\nvoid Bar(ImGuiContext* ctx, int a) { }\n", string(out))
}

// TestPlanScenarioD covers Scenario D: an IM_FMTARGS declaration gains a
// leading context parameter and its format-argument index is bumped by one.
func TestPlanScenarioD(t *testing.T) {
	led, path := writeFixture(t, "void Bar(const char* fmt, ...) IM_FMTARGS(1);\nvoid Bar(const char* fmt, ...) { }\n")

	params := []model.FunctionParameter{model.NewFunctionParameter("fmt", "const char*", "const char* fmt")}
	bar := &model.FunctionEntry{
		Name: "Bar", ID: "fn:Bar", FQName: "Bar", ReturnType: "void",
		IsDefinition: false, NeedContextParam: true, FmtArgs: 1,
		Params:    params,
		CodeRange: model.NewCodeRange(path, 1, 6, 9),
	}
	barDef := &model.FunctionEntry{
		Name: "Bar", ID: "fn:Bar", FQName: "Bar", ReturnType: "void",
		IsDefinition: true, NeedContextParam: true,
		Params:    params,
		CodeRange: model.NewCodeRange(path, 2, 6, 9),
	}

	db, err := database.New(led, nil, "/nonexistent/imgui_demo.cpp", []*model.FunctionEntry{bar, barDef})
	require.NoError(t, err)

	cfg := &model.Config{}
	require.NoError(t, Plan(db, led, cfg, nil))
	require.NoError(t, led.Flush(nil))

	out, err := os.ReadFile(path)
	require.NoError(t, err)
	want := "void Bar(ImGuiContext* ctx, const char* fmt, ...) IM_FMTARGS(2);\nvoid Bar(ImGuiContext* ctx, const char* fmt, ...) { }\n"
	assert.Equal(t, want, string(out))
}
