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
	"context"
	"fmt"
	"log/slog"
	"os"

	flag "github.com/spf13/pflag"

	"github.com/imgui-tools/implicit-ctx/internal/errors"
	"github.com/imgui-tools/implicit-ctx/internal/ui"
	"github.com/imgui-tools/implicit-ctx/pkg/annotate"
	"github.com/imgui-tools/implicit-ctx/pkg/callgraph"
	"github.com/imgui-tools/implicit-ctx/pkg/cxxcursor"
	"github.com/imgui-tools/implicit-ctx/pkg/database"
	"github.com/imgui-tools/implicit-ctx/pkg/discover"
	"github.com/imgui-tools/implicit-ctx/pkg/ledger"
	"github.com/imgui-tools/implicit-ctx/pkg/model"
)

// pathNode is one step of the BFS queue runExplain drives: the function at
// this step, and the chain of calls (first to last) that reached it.
type pathNode struct {
	fn   *model.FunctionEntry
	path []*model.FunctionEntry
}

// runExplain executes the 'explain' subcommand: given a function name, it
// rebuilds the function database and call graph exactly as convert would,
// then walks the callee graph breadth-first from that function until it
// reaches one that directly references GImGui — the shortest chain of calls
// explaining why the named function ends up needing an explicit context.
func runExplain(args []string, configPath string, globals GlobalFlags) int {
	fs := flag.NewFlagSet("explain", flag.ExitOnError)
	fullRepo := fs.Bool("full-repo", false, "Also trace through imgui_demo.cpp")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: imguictx explain <path> <function-name>

Shows the shortest chain of calls from <function-name> down to a function
that directly references GImGui, explaining why it needs an explicit
context parameter.
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return 1
	}
	root := fs.Arg(0)
	target := fs.Arg(1)

	projectCfg, err := loadOrDefaultProjectConfig(configPath, root)
	if err != nil {
		errors.FatalError(err, false)
		return 1
	}
	cfg := buildModelConfig(projectCfg, root, *fullRepo)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	led := ledger.New()
	for _, src := range cfg.Sources() {
		if err := led.Load(src); err != nil {
			errors.FatalError(errors.NewInternalError(
				"Cannot load source file",
				fmt.Sprintf("Failed reading %s", src),
				"Check the repository path and file permissions",
				err,
			), false)
			return 1
		}
	}

	scope, err := annotate.Acquire([]string{cfg.ImguiH, cfg.ImguiInternalH})
	if err != nil {
		errors.FatalError(errors.NewInternalError(
			"Cannot apply the annotation trick",
			err.Error(),
			"Check file permissions on imgui.h and imgui_internal.h",
			err,
		), false)
		return 1
	}
	defer scope.Restore()
	remap := scope.Remap()

	symbols := cxxcursor.NewSymbolIndex()
	units := map[string]*cxxcursor.Unit{}
	for _, src := range cfg.Sources() {
		data, readErr := os.ReadFile(src) //nolint:gosec // src comes from Config, not user input
		if readErr != nil {
			errors.FatalError(errors.NewInternalError(
				"Cannot read source file for parsing",
				fmt.Sprintf("Failed reading %s", src),
				"Check the repository path and file permissions",
				readErr,
			), false)
			return 1
		}
		unit, parseErr := cxxcursor.ParseFile(context.Background(), src, data, symbols)
		if parseErr != nil {
			errors.FatalError(errors.NewInternalError(
				"Parser diagnostic",
				fmt.Sprintf("Failed parsing %s", src),
				"This indicates a source the annotation trick or grammar can't handle",
				parseErr,
			), false)
			return 1
		}
		units[src] = unit
	}

	locator := ledger.NewSymbolLocator(led)

	var allEntries []*model.FunctionEntry
	allCursors := map[string]cxxcursor.Cursor{}
	for _, src := range cfg.Sources() {
		entries, cursors, discErr := discover.Discover(units[src].Root(), led, locator, cfg, remap)
		if discErr != nil {
			errors.FatalError(errors.NewInternalError(
				"Invariant violation during discovery",
				discErr.Error(),
				"This indicates a mismatch between the parsed cursor tree and the source ledger",
				discErr,
			), false)
			return 1
		}
		allEntries = append(allEntries, entries...)
		for id, c := range cursors {
			allCursors[id] = c
		}
	}

	db, err := database.New(led, logger, cfg.ImguiDemo, allEntries)
	if err != nil {
		errors.FatalError(errors.NewInternalError(
			"Invariant violation building the function database",
			err.Error(),
			"This indicates a duplicate definition or a declaration without a matching definition",
			err,
		), false)
		return 1
	}

	if _, err := callgraph.Walk(allCursors, db, led, locator, cfg, logger, remap); err != nil {
		errors.FatalError(errors.NewInternalError(
			"Invariant violation during call-graph construction",
			err.Error(),
			"This indicates a mismatch between a call-site cursor and the source ledger",
			err,
		), false)
		return 1
	}

	start := findByName(db, target)
	if start == nil {
		errors.FatalError(errors.NewInputError(
			"Function not found",
			fmt.Sprintf("No discovered function named %q", target),
			"Check the spelling, or that the function lives in one of the tracked translation-unit files",
		), false)
		return 1
	}

	path := explainPath(db, start)
	if path == nil {
		ui.Info(fmt.Sprintf("%s does not transitively reference GImGui", start.FQName))
		return 0
	}

	ui.Header(fmt.Sprintf("Why %s needs a context", start.FQName))
	for i, fn := range path {
		fmt.Printf("%d. %s\n", i+1, fn.FQName)
	}
	fmt.Printf("%d. (references GImGui directly)\n", len(path)+1)
	return 0
}

func findByName(db *database.FunctionDatabase, name string) *model.FunctionEntry {
	for _, fn := range db.Iter() {
		if fn.Name == name || fn.FQName == name {
			return fn
		}
	}
	return nil
}

// explainPath breadth-first searches the callee graph from start, stopping
// at the first function whose body directly references GImGui, and returns
// the chain of calls from start up to and including that function (just
// [start] when start itself references GImGui). It returns nil if no such
// chain exists.
func explainPath(db *database.FunctionDatabase, start *model.FunctionEntry) []*model.FunctionEntry {
	if len(start.ImplicitContexts) > 0 {
		return []*model.FunctionEntry{start}
	}

	calleesByCaller := map[string][]*model.FunctionEntry{}
	for _, call := range db.IterCalls() {
		if call.Caller == nil || call.Callee == nil {
			continue
		}
		calleesByCaller[call.Caller.ID] = append(calleesByCaller[call.Caller.ID], call.Callee)
	}

	visited := map[string]bool{start.ID: true}
	queue := []pathNode{{fn: start, path: []*model.FunctionEntry{start}}}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, callee := range calleesByCaller[current.fn.ID] {
			if visited[callee.ID] {
				continue
			}
			visited[callee.ID] = true

			nextPath := make([]*model.FunctionEntry, len(current.path), len(current.path)+1)
			copy(nextPath, current.path)
			nextPath = append(nextPath, callee)

			if len(callee.ImplicitContexts) > 0 {
				return nextPath
			}
			queue = append(queue, pathNode{fn: callee, path: nextPath})
		}
	}
	return nil
}
