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
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	flag "github.com/spf13/pflag"

	"github.com/imgui-tools/implicit-ctx/internal/errors"
	"github.com/imgui-tools/implicit-ctx/internal/ui"
	"github.com/imgui-tools/implicit-ctx/pkg/annotate"
	"github.com/imgui-tools/implicit-ctx/pkg/callgraph"
	"github.com/imgui-tools/implicit-ctx/pkg/cxxcursor"
	"github.com/imgui-tools/implicit-ctx/pkg/database"
	"github.com/imgui-tools/implicit-ctx/pkg/discover"
	"github.com/imgui-tools/implicit-ctx/pkg/emit"
	"github.com/imgui-tools/implicit-ctx/pkg/gitops"
	"github.com/imgui-tools/implicit-ctx/pkg/ledger"
	"github.com/imgui-tools/implicit-ctx/pkg/metrics"
	"github.com/imgui-tools/implicit-ctx/pkg/model"
	"github.com/imgui-tools/implicit-ctx/pkg/planner"
)

// runConvert executes the 'convert' subcommand: it builds the function
// database and call graph for the repository at args[0], computes which
// functions need an explicit context, plans every textual edit, and
// (with --apply) writes the converted sources plus the compatibility layer.
//
// Flags:
//   - --verbose: print per-phase progress (in addition to -v/-vv globals)
//   - --apply: actually write the converted files; without it, convert only
//     reports what it would do
//   - --commit: after a successful --apply, commit the result with the
//     fixed generated-conversion message
//   - --dump-test-ast: print the parsed cursor tree for each source file
//     instead of running the conversion, for debugging the parser layer
//   - --metrics-addr: expose Prometheus gauges on this address
//   - --full-repo: also track imgui_demo.cpp, converting it along with the
//     rest of the translation unit instead of leaving it untouched
func runConvert(args []string, configPath string, globals GlobalFlags) int {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	verbose := fs.Bool("verbose", false, "Print per-phase progress")
	apply := fs.Bool("apply", false, "Write the converted sources and compatibility layer")
	commitFlag := fs.Bool("commit", false, "Commit the result after a successful --apply")
	dumpAST := fs.Bool("dump-test-ast", false, "Dump the parsed cursor tree instead of converting")
	metricsAddr := fs.String("metrics-addr", "", "HTTP listen address for Prometheus metrics (empty to disable)")
	fullRepo := fs.Bool("full-repo", false, "Also convert imgui_demo.cpp (excluded by default)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: imguictx convert <path> [options]

Converts the Dear ImGui checkout at <path> from an implicit, global-context
API to one threading ImGuiContext* explicitly, and generates a
compatibility layer so existing callers keep working.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 1
	}
	root := fs.Arg(0)

	logLevel := slog.LevelWarn
	if *verbose || globals.Verbose >= 1 {
		logLevel = slog.LevelInfo
	}
	if globals.Verbose >= 2 {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			srv := &http.Server{Addr: *metricsAddr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
			logger.Info("convert.metrics.start", "addr", *metricsAddr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Warn("convert.metrics.error", "err", err)
			}
		}()
	}

	projectCfg, err := loadOrDefaultProjectConfig(configPath, root)
	if err != nil {
		errors.FatalError(err, false)
		return 1
	}
	cfg := buildModelConfig(projectCfg, root, *fullRepo)

	start := time.Now()

	led := ledger.New()
	progressCfg := ui.NewProgressConfig(globals.Quiet, globals.NoColor)
	bar := ui.NewProgressBar(progressCfg, len(cfg.Sources()), "convert.load")
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
		_ = bar.Add(1)
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
	restored := false
	defer func() {
		if !restored {
			scope.Restore()
		}
	}()
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

		if *dumpAST {
			dumpCursorTree(unit.Root(), 0)
		}
	}
	// Parsing is the only step that reads the annotated headers; restoring
	// them here keeps the restore from overwriting a later --apply flush.
	scope.Restore()
	restored = true
	if *dumpAST {
		return 0
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
	metrics.FunctionsDiscovered.Set(float64(len(allEntries)))
	logger.Info("convert.discover.complete", "functions", len(allEntries))

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

	logCalls, err := callgraph.Walk(allCursors, db, led, locator, cfg, logger, remap)
	if err != nil {
		errors.FatalError(errors.NewInternalError(
			"Invariant violation during call-graph construction",
			err.Error(),
			"This indicates a mismatch between a call-site cursor and the source ledger",
			err,
		), false)
		return 1
	}
	metrics.CallEdges.Set(float64(len(db.IterCalls())))
	logger.Info("convert.callgraph.complete", "edges", len(db.IterCalls()), "log_calls", len(logCalls))

	db.ComputeContextNeed(cfg)
	needCount := 0
	for _, def := range db.IterDefinitions() {
		if def.NeedContextParam {
			needCount++
		}
	}
	metrics.FunctionsNeedingContext.Set(float64(needCount))
	logger.Info("convert.closure.complete", "functions_needing_context", needCount)

	if err := planner.Plan(db, led, cfg, logCalls); err != nil {
		errors.FatalError(errors.NewInternalError(
			"Invariant violation during edit planning",
			err.Error(),
			"This indicates a formatted-args annotation or call site the planner could not locate",
			err,
		), false)
		return 1
	}
	metrics.EditsPlanned.Set(float64(led.PendingEditCount()))
	logger.Info("convert.plan.complete", "edits", led.PendingEditCount())

	apis := emit.PublicAPIs(allEntries, cfg)
	headerBlock := emit.HeaderBlock(apis)
	definitions := emit.RewriteNamespace(emit.DefinitionsFile(apis))

	metrics.ConversionDuration.Set(time.Since(start).Seconds())

	if !*apply {
		ui.Info(fmt.Sprintf("dry run: %d functions discovered, %d need an explicit context, %d edits planned (pass --apply to write)",
			len(allEntries), needCount, led.PendingEditCount()))
		return 0
	}

	if err := led.Flush(nil); err != nil {
		errors.FatalError(errors.NewInternalError(
			"Cannot flush converted sources",
			err.Error(),
			"Check file permissions in the repository",
			err,
		), false)
		return 1
	}
	if err := emit.WriteGeneratedFiles(cfg, headerBlock, definitions); err != nil {
		errors.FatalError(errors.NewInternalError(
			"Cannot write generated compatibility layer",
			err.Error(),
			"Check file permissions in the repository",
			err,
		), false)
		return 1
	}
	ui.Successf("converted %d functions, wrote %s and appended the compatibility block to %s", len(allEntries), cfg.ImplicitCPP, cfg.ImguiH)

	if *commitFlag {
		repo := gitops.Open(root)
		if !repo.IsGitRepository() {
			errors.FatalError(errors.NewInternalError(
				"Cannot commit: not a git repository",
				fmt.Sprintf("%s is not inside a git working tree", root),
				"Run convert without --commit, or point it at a git checkout",
				nil,
			), false)
			return 1
		}
		if err := repo.CommitAll(); err != nil {
			errors.FatalError(errors.NewInternalError(
				"git commit failed",
				err.Error(),
				"Inspect the working tree and retry the commit manually",
				err,
			), false)
			return 1
		}
		ui.Success("committed: " + gitops.GeneratedMarker)
	}

	return 0
}

func dumpCursorTree(c cxxcursor.Cursor, depth int) {
	indent := ""
	for i := 0; i < depth; i++ {
		indent += "  "
	}
	fmt.Printf("%s%s %q\n", indent, c.Kind(), c.Spelling())
	for _, child := range c.Children() {
		dumpCursorTree(child, depth+1)
	}
}
