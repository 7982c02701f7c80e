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

package database

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

func definitionAt(path string, name string, line int) *model.FunctionEntry {
	return &model.FunctionEntry{
		Name:         name,
		ID:           "fn:" + name,
		FQName:       name,
		ReturnType:   "void",
		IsDefinition: true,
		CodeRange:    model.NewCodeRange(path, line, 1, 1),
	}
}

func declarationAt(path string, name string, line int) *model.FunctionEntry {
	d := definitionAt(path, name, line)
	d.IsDefinition = false
	return d
}

// TestClosurePropagatesThroughThreeFunctionChain covers the scenario where
// A calls B calls C, and only C directly references GImGui: all three must
// end up needing a context parameter.
func TestClosurePropagatesThroughThreeFunctionChain(t *testing.T) {
	led, path := writeFixture(t, "A(); B(); C(28);\n")

	a := definitionAt(path, "A", 1)
	b := definitionAt(path, "B", 1)
	c := definitionAt(path, "C", 1)
	c.ImplicitContexts = []model.CodeRange{model.NewCodeRange(path, 1, 1, 1)}

	db, err := New(led, nil, "/nonexistent/imgui_demo.cpp", []*model.FunctionEntry{a, b, c})
	require.NoError(t, err)

	callAB := model.NewCodeRange(path, 1, 1, 2)
	callBC := model.NewCodeRange(path, 1, 4, 5)
	db.calls[[3]any{path, 1, 1}] = model.NewCallEntry(a, b, callAB, false)
	db.callerToCall[a.ID][[3]any{path, 1, 1}] = db.calls[[3]any{path, 1, 1}]
	db.calleeToCall[b.ID][[3]any{path, 1, 1}] = db.calls[[3]any{path, 1, 1}]

	db.calls[[3]any{path, 1, 4}] = model.NewCallEntry(b, c, callBC, false)
	db.callerToCall[b.ID][[3]any{path, 1, 4}] = db.calls[[3]any{path, 1, 4}]
	db.calleeToCall[c.ID][[3]any{path, 1, 4}] = db.calls[[3]any{path, 1, 4}]

	db.ComputeContextNeed(&model.Config{})

	assert.True(t, a.NeedContextParam)
	assert.True(t, b.NeedContextParam)
	assert.True(t, c.NeedContextParam)
}

// TestClosureStopsAtClassWithContextBoundary covers Scenario C: a method of
// a class listed in ClassesWithContext must never gain a new parameter,
// even when it calls a function that does need the context.
func TestClosureStopsAtClassWithContextBoundary(t *testing.T) {
	led, path := writeFixture(t, "Foo(28);\n")

	foo := definitionAt(path, "Foo", 1)
	foo.ImplicitContexts = []model.CodeRange{model.NewCodeRange(path, 1, 1, 1)}

	method := definitionAt(path, "Update", 1)
	method.IsMethod = true
	method.ClassType = "ImGuiWindow"

	db, err := New(led, nil, "/nonexistent/imgui_demo.cpp", []*model.FunctionEntry{foo, method})
	require.NoError(t, err)

	call := model.NewCodeRange(path, 1, 1, 4)
	db.calls[[3]any{path, 1, 1}] = model.NewCallEntry(method, foo, call, false)
	db.callerToCall[method.ID][[3]any{path, 1, 1}] = db.calls[[3]any{path, 1, 1}]
	db.calleeToCall[foo.ID][[3]any{path, 1, 1}] = db.calls[[3]any{path, 1, 1}]

	cfg := &model.Config{ClassesWithContext: []string{"ImGuiWindow"}}
	db.ComputeContextNeed(cfg)

	assert.True(t, foo.NeedContextParam)
	assert.False(t, method.NeedContextParam)
}

// TestDuplicateDeclarationNonDemoWins covers Scenario F: when the same
// function is declared twice, a non-imgui_demo.cpp declaration always wins
// over one found in imgui_demo.cpp, regardless of which was seen first.
func TestDuplicateDeclarationNonDemoWins(t *testing.T) {
	led, path := writeFixture(t, "void Foo();\n")
	demoPath := filepath.Join(filepath.Dir(path), "imgui_demo.cpp")

	def := definitionAt(path, "Foo", 1)
	demoDecl := declarationAt(demoPath, "Foo", 10)
	realDecl := declarationAt(path, "Foo", 1)

	db, err := New(led, nil, demoPath, []*model.FunctionEntry{def, demoDecl, realDecl})
	require.NoError(t, err)

	assert.Equal(t, path, db.Declaration("fn:Foo").CodeRange.File)
}

func TestDuplicateDeclarationKeepsFirstWhenSecondIsDemo(t *testing.T) {
	led, path := writeFixture(t, "void Foo();\n")
	demoPath := filepath.Join(filepath.Dir(path), "imgui_demo.cpp")

	def := definitionAt(path, "Foo", 1)
	realDecl := declarationAt(path, "Foo", 1)
	demoDecl := declarationAt(demoPath, "Foo", 10)

	db, err := New(led, nil, demoPath, []*model.FunctionEntry{def, realDecl, demoDecl})
	require.NoError(t, err)

	assert.Equal(t, path, db.Declaration("fn:Foo").CodeRange.File)
}

func TestNewSilentlyDropsDeclarationsWithoutADefinition(t *testing.T) {
	led, path := writeFixture(t, "void Foo();\n")
	orphan := declarationAt(path, "Orphan", 1)

	db, err := New(led, nil, "/nonexistent/imgui_demo.cpp", []*model.FunctionEntry{orphan})
	require.NoError(t, err)

	assert.Nil(t, db.Declaration("fn:Orphan"))
}

func TestAddCallDetectsHasArg(t *testing.T) {
	led, path := writeFixture(t, "Foo(28); Bar();\n")

	foo := definitionAt(path, "Foo", 1)
	bar := definitionAt(path, "Bar", 1)
	caller := definitionAt(path, "Caller", 1)

	db, err := New(led, nil, "/nonexistent/imgui_demo.cpp", []*model.FunctionEntry{foo, bar, caller})
	require.NoError(t, err)

	fooCall := model.NewCodeRange(path, 1, 1, 4)
	require.NoError(t, db.AddCall(caller.ID, foo.ID, fooCall))

	barCall := model.NewCodeRange(path, 1, 10, 13)
	require.NoError(t, db.AddCall(caller.ID, bar.ID, barCall))

	calls := db.IterCalls()
	require.Len(t, calls, 2)
	for _, call := range calls {
		if call.Callee.Name == "Foo" {
			assert.True(t, call.HasArg)
		}
		if call.Callee.Name == "Bar" {
			assert.False(t, call.HasArg)
		}
	}
}
