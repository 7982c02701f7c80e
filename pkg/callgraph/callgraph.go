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

// Package callgraph walks every discovered function's body for call
// expressions and records the caller/callee edges a FunctionDatabase needs
// to run closure propagation.
package callgraph

import (
	"fmt"
	"log/slog"

	"github.com/imgui-tools/implicit-ctx/pkg/annotate"
	"github.com/imgui-tools/implicit-ctx/pkg/cxxcursor"
	"github.com/imgui-tools/implicit-ctx/pkg/database"
	"github.com/imgui-tools/implicit-ctx/pkg/ledger"
	"github.com/imgui-tools/implicit-ctx/pkg/model"
)

var logMacros = []string{
	"IMGUI_DEBUG_LOG",
	"IMGUI_DEBUG_LOG_ACTIVEID",
	"IMGUI_DEBUG_LOG_FOCUS",
	"IMGUI_DEBUG_LOG_POPUP",
	"IMGUI_DEBUG_LOG_NAV",
	"IMGUI_DEBUG_LOG_CLIPPER",
	"IMGUI_DEBUG_LOG_IO",
	"IMGUI_DEBUG_LOG_DOCKING",
	"IMGUI_DEBUG_LOG_VIEWPORT",
}

// LogCall is one recorded use of a debug-logging macro, which always
// expands to a call needing the context forwarded even though its callee
// ("DebugLog") may not itself be a tracked FunctionEntry.
type LogCall struct {
	CodeRange model.CodeRange
	Caller    *model.FunctionEntry
	MacroName string
}

var callExprKind = map[cxxcursor.Kind]bool{cxxcursor.KindCallExpr: true}

// Walk scans every definition's body for call expressions, resolving each
// callee via the parser's GetDefinition and recording the edge in db. It
// returns the set of debug-log macro invocations found along the way, since
// those are handled by the planner as a parallel, always-rewritten set
// rather than as ordinary FunctionDatabase calls.
//
// remap translates column positions the parser reports (against
// annotation-rewritten files) back to the ledger's original-file
// coordinates; it may be nil when no rewrite is in play.
func Walk(cursors map[string]cxxcursor.Cursor, db *database.FunctionDatabase, led *ledger.SourceLedger, locator *ledger.SymbolLocator, cfg *model.Config, logger *slog.Logger, remap *annotate.ColumnRemap) ([]LogCall, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var logCalls []LogCall

	for _, def := range db.IterDefinitions() {
		cursor, ok := cursors[def.ID]
		if !ok {
			continue
		}

		var walkErr error
		cxxcursor.Visit(cursor, callExprKind, func(call cxxcursor.Cursor) bool {
			if walkErr != nil {
				return false
			}

			spelling := call.Spelling()
			if spelling == "DebugLog" {
				lc, found, err := resolveLogCall(call, led, locator, remap)
				if err != nil {
					walkErr = err
					return true
				}
				if found {
					lc.Caller = def
					logCalls = append(logCalls, lc)
				}
				return true
			}

			calleeCursor := call.GetDefinition()
			if calleeCursor == nil {
				logger.Info("unresolved call", "caller", def.FQName, "callee", spelling)
				return true
			}
			calleeID := calleeCursor.MangledName()
			if calleeID == "" {
				return true
			}
			if !cfg.IsValidFunc(calleeCursor.Location().File, spelling) {
				return true
			}

			callRange, found, err := resolveCallRange(call, spelling, cfg, led, locator, remap)
			if err != nil {
				walkErr = err
				return true
			}
			if !found {
				return true
			}

			if addErr := db.AddCall(def.ID, calleeID, callRange); addErr != nil {
				walkErr = fmt.Errorf("callgraph: %w", addErr)
			}
			return true
		})
		if walkErr != nil {
			return nil, walkErr
		}
	}

	return logCalls, nil
}

// resolveCallRange recovers the name-token range at a call site: for names
// in the special-template set, the range runs to the next '(' and so
// includes any angle-bracket template arguments; otherwise it is exactly
// the spelling.
func resolveCallRange(call cxxcursor.Cursor, spelling string, cfg *model.Config, led *ledger.SourceLedger, locator *ledger.SymbolLocator, remap *annotate.ColumnRemap) (model.CodeRange, bool, error) {
	loc := call.Location()
	col := remap.Remap(loc.File, loc.Line, loc.Column)

	if isSpecialTemplate(spelling, cfg) {
		return locator.FindUntil(loc.File, loc.Line, col, "(")
	}

	cr, found, err := locator.FindSymbol(loc.File, loc.Line, col, spelling)
	if err != nil || !found {
		return model.CodeRange{}, found, err
	}
	text, err := led.GetText(cr)
	if err != nil {
		return model.CodeRange{}, false, err
	}
	if text != spelling {
		return model.CodeRange{}, false, fmt.Errorf("callgraph: invariant violation: expected %q at %s, got %q", spelling, cr, text)
	}
	return cr, true, nil
}

func isSpecialTemplate(name string, cfg *model.Config) bool {
	for _, n := range cfg.SpecialTemplateFunc {
		if n == name {
			return true
		}
	}
	return false
}

// resolveLogCall locates whichever debug-log macro name is actually present
// at the call site (the parser only ever reports "DebugLog", the name the
// macro itself expands to).
func resolveLogCall(call cxxcursor.Cursor, led *ledger.SourceLedger, locator *ledger.SymbolLocator, remap *annotate.ColumnRemap) (LogCall, bool, error) {
	loc := call.Location()
	col := remap.Remap(loc.File, loc.Line, loc.Column)
	// The suffixed variants are tried before the bare IMGUI_DEBUG_LOG, which
	// is a prefix of every one of them.
	for i := len(logMacros) - 1; i >= 0; i-- {
		macro := logMacros[i]
		cr, found, err := locator.FindSymbol(loc.File, loc.Line, col, macro)
		if err != nil {
			return LogCall{}, false, err
		}
		if !found {
			continue
		}
		text, err := led.GetText(cr)
		if err != nil {
			return LogCall{}, false, err
		}
		if text == macro {
			return LogCall{CodeRange: cr, MacroName: macro}, true, nil
		}
	}
	return LogCall{}, false, nil
}
