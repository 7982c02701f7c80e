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

import "github.com/imgui-tools/implicit-ctx/pkg/model"

// ComputeContextNeed marks NeedContextParam true on every function that
// either directly references GImGui or transitively calls one that does,
// walking caller edges outward from each seeded definition. Propagation
// stops at any function whose owning class is listed in
// cfg.ClassesWithContext: such a method already obtains the context from a
// member field, gains no new parameter, and does not propagate the need any
// further up its own callers.
//
// Unlike the original tool, which stored its visited flag directly on
// FunctionEntry, the visited set here is local to one solver run: nothing
// about "have we already propagated through this function during this
// pass" belongs on the function's own persistent state, and reusing a
// FunctionDatabase across more than one ComputeContextNeed call would
// otherwise silently short-circuit the second run.
func (db *FunctionDatabase) ComputeContextNeed(cfg *model.Config) {
	visited := map[string]bool{}
	for id, def := range db.definitions {
		if len(def.ImplicitContexts) > 0 {
			db.propagate(id, cfg, visited)
		}
	}
}

func (db *FunctionDatabase) propagate(id string, cfg *model.Config, visited map[string]bool) {
	if visited[id] {
		return
	}
	visited[id] = true

	def := db.definitions[id]
	if def != nil && ClassBoundary(def, cfg) {
		return
	}

	if decl := db.declarations[id]; decl != nil {
		decl.NeedContextParam = true
	}
	if def != nil {
		def.NeedContextParam = true
	}

	for _, call := range db.calleeToCall[id] {
		db.propagate(call.Caller.ID, cfg, visited)
	}
}

// NeedsContext reports whether id has already been marked as needing a
// context parameter by a prior ComputeContextNeed call.
func (db *FunctionDatabase) NeedsContext(id string) bool {
	if def := db.definitions[id]; def != nil && def.NeedContextParam {
		return true
	}
	if decl := db.declarations[id]; decl != nil {
		return decl.NeedContextParam
	}
	return false
}

// ClassBoundary reports whether fn belongs to one of the classes listed in
// cfg.ClassesWithContext, meaning its forwarded parameter should be named
// "Ctx" (member variable convention) instead of "ctx".
func ClassBoundary(fn *model.FunctionEntry, cfg *model.Config) bool {
	if !fn.IsMethod {
		return false
	}
	for _, cls := range cfg.ClassesWithContext {
		if cls == fn.ClassType {
			return true
		}
	}
	return false
}
