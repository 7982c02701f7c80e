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

// Package database indexes every discovered FunctionEntry by identity,
// tracks the call edges between them, and resolves which functions
// transitively need a context parameter. It is the Go counterpart of
// original_source/make_explicit_imgui.py's FunctionDatabase.
package database

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/imgui-tools/implicit-ctx/pkg/ledger"
	"github.com/imgui-tools/implicit-ctx/pkg/model"
)

// FunctionDatabase indexes declarations and definitions by FunctionEntry.ID
// and tracks the caller/callee call-edge sets needed for closure
// propagation. Every entry is assumed to have at least a definition, and
// optionally a distinct declaration.
type FunctionDatabase struct {
	ledger *ledger.SourceLedger
	logger *slog.Logger

	declarations map[string]*model.FunctionEntry
	definitions  map[string]*model.FunctionEntry

	callerToCall map[string]map[[3]any]model.CallEntry
	calleeToCall map[string]map[[3]any]model.CallEntry
	calls        map[[3]any]model.CallEntry

	demoFile string
}

// New builds a FunctionDatabase from every discovered FunctionEntry. demoFile
// is the absolute path of imgui_demo.cpp; per the non-demo-wins policy, a
// duplicate declaration there never overrides one found elsewhere.
func New(led *ledger.SourceLedger, logger *slog.Logger, demoFile string, funcs []*model.FunctionEntry) (*FunctionDatabase, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db := &FunctionDatabase{
		ledger:       led,
		logger:       logger,
		declarations: map[string]*model.FunctionEntry{},
		definitions:  map[string]*model.FunctionEntry{},
		callerToCall: map[string]map[[3]any]model.CallEntry{},
		calleeToCall: map[string]map[[3]any]model.CallEntry{},
		calls:        map[[3]any]model.CallEntry{},
		demoFile:     demoFile,
	}

	for _, f := range funcs {
		if f.IsDefinition {
			if _, exists := db.definitions[f.ID]; exists {
				return nil, fmt.Errorf("database: %s already has a definition", f.ID)
			}
			db.definitions[f.ID] = f
			continue
		}

		if existing, exists := db.declarations[f.ID]; exists {
			logger.Warn("duplicate declaration",
				"function", f.FQName,
				"location", f.CodeRange.String(),
				"previous_location", existing.CodeRange.String())
			if filepath.Clean(f.CodeRange.File) != filepath.Clean(demoFile) {
				db.declarations[f.ID] = f
			}
		} else {
			db.declarations[f.ID] = f
		}
	}

	// A declaration with no matching definition describes a function that
	// is external to the tracked translation unit (a third-party callback
	// prototype, or a definition living outside cfg.Sources()) and is
	// assumed external and unaffected rather than a conversion candidate.
	for id := range db.declarations {
		if _, ok := db.definitions[id]; !ok {
			delete(db.declarations, id)
		}
	}

	for id := range db.definitions {
		db.callerToCall[id] = map[[3]any]model.CallEntry{}
		db.calleeToCall[id] = map[[3]any]model.CallEntry{}
	}

	return db, nil
}

// Declaration returns the declaration entry for id, or nil.
func (db *FunctionDatabase) Declaration(id string) *model.FunctionEntry {
	return db.declarations[id]
}

// Definition returns the definition entry for id, or nil.
func (db *FunctionDatabase) Definition(id string) *model.FunctionEntry {
	return db.definitions[id]
}

// IterDeclarations yields every tracked declaration.
func (db *FunctionDatabase) IterDeclarations() []*model.FunctionEntry {
	out := make([]*model.FunctionEntry, 0, len(db.declarations))
	for _, d := range db.declarations {
		out = append(out, d)
	}
	return out
}

// IterDefinitions yields every tracked definition.
func (db *FunctionDatabase) IterDefinitions() []*model.FunctionEntry {
	out := make([]*model.FunctionEntry, 0, len(db.definitions))
	for _, d := range db.definitions {
		out = append(out, d)
	}
	return out
}

// IterCalls yields every tracked call edge.
func (db *FunctionDatabase) IterCalls() []model.CallEntry {
	out := make([]model.CallEntry, 0, len(db.calls))
	for _, c := range db.calls {
		out = append(out, c)
	}
	return out
}

// Iter yields, for every function, its declaration (when distinct from the
// definition) followed by its definition — the order the planner walks when
// rewriting the prototypes of both.
func (db *FunctionDatabase) Iter() []*model.FunctionEntry {
	var out []*model.FunctionEntry
	for id, def := range db.definitions {
		decl := db.declarations[id]
		if decl != nil && !decl.CodeRange.Equal(def.CodeRange) {
			out = append(out, decl)
		}
		out = append(out, def)
	}
	return out
}

// AddCall records a call edge from callerID to calleeID at codeRange, after
// confirming both ends resolve to a tracked definition. It peeks the two
// characters immediately after the call-site extent to tell an empty
// argument list "()" from one with at least one argument.
func (db *FunctionDatabase) AddCall(callerID, calleeID string, codeRange model.CodeRange) error {
	caller := db.definitions[callerID]
	callee := db.definitions[calleeID]
	if caller == nil || callee == nil {
		return nil
	}

	peek := model.NewCodeRange(codeRange.File, codeRange.EndLine, codeRange.EndColumn, codeRange.EndColumn+2)
	text, err := db.ledger.GetText(peek)
	if err != nil {
		return fmt.Errorf("database: reading call-site punctuation: %w", err)
	}
	if len(text) == 0 || text[0] != '(' {
		return fmt.Errorf("database: call site %s does not open with '('", codeRange)
	}

	call := model.NewCallEntry(caller, callee, codeRange, text != "()")
	key := call.ID
	if _, exists := db.calls[key]; exists {
		return fmt.Errorf("database: duplicate call entry at %s", codeRange)
	}

	db.calls[key] = call
	db.callerToCall[callerID][key] = call
	db.calleeToCall[calleeID][key] = call
	return nil
}
