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

package model

import "path/filepath"

// Config describes one conversion run: the repository root, the concrete
// source files that make up the Dear ImGui translation unit, and the policy
// knobs that tune discovery and emission.
type Config struct {
	RootFolder string

	ImguiH         string
	ImguiInternalH string
	ImguiCPP       string
	ImguiTables    string
	ImguiWidgets   string
	ImguiDraw      string
	ImguiDemo      string
	ImplicitH      string // imgui_implicit.h path; not written, the compatibility declarations are appended to ImguiH
	ImplicitCPP    string // generated compatibility source (imgui_implicit.cpp)

	// IncludeDemo adds imgui_demo.cpp to the tracked translation unit. Off
	// by default: the demo file is excluded unless the full-repo variant of
	// convert is run.
	IncludeDemo bool

	// Blacklist holds API names that need special, non-mechanical handling
	// and are never candidates for an added context parameter.
	Blacklist []string

	// ClassesWithContext holds C++ class names whose methods already carry
	// an explicit context (or equivalent) and must not be rewritten.
	ClassesWithContext []string

	// SpecialTemplateFunc holds template function names whose call sites
	// need bespoke argument-forwarding handling (e.g. angle-bracket
	// disambiguation) instead of the generic rewrite.
	SpecialTemplateFunc []string
}

// NewConfig builds a Config rooted at rootFolder with the standard Dear
// ImGui file layout and the default blacklist.
func NewConfig(rootFolder string) *Config {
	root := func(name string) string { return filepath.Join(rootFolder, name) }
	return &Config{
		RootFolder:     rootFolder,
		ImguiH:         root("imgui.h"),
		ImguiInternalH: root("imgui_internal.h"),
		ImguiCPP:       root("imgui.cpp"),
		ImguiTables:    root("imgui_tables.cpp"),
		ImguiWidgets:   root("imgui_widgets.cpp"),
		ImguiDraw:      root("imgui_draw.cpp"),
		ImguiDemo:      root("imgui_demo.cpp"),
		ImplicitH:      root("imgui_implicit.h"),
		ImplicitCPP:    root("imgui_implicit.cpp"),
		Blacklist: []string{
			"CreateContext",
			"DestroyContext",
			"GetCurrentContext",
			"SetCurrentContext",
			"AddContextHook",
			"RemoveContextHook",
			"CallContextHooks",
			"MemAlloc",
			"MemFree",
		},
		ClassesWithContext:  []string{},
		SpecialTemplateFunc: []string{},
	}
}

// Sources returns the set of source files that make up the translation
// unit — the files Discovery and the call-graph pass are allowed to touch.
// imgui_demo.cpp is only included when IncludeDemo is set.
func (c *Config) Sources() []string {
	sources := []string{c.ImguiH, c.ImguiInternalH, c.ImguiCPP, c.ImguiTables, c.ImguiWidgets, c.ImguiDraw}
	if c.IncludeDemo {
		sources = append(sources, c.ImguiDemo)
	}
	return sources
}

// IsSource reports whether path is one of the tracked translation-unit
// files.
func (c *Config) IsSource(path string) bool {
	for _, s := range c.Sources() {
		if s == path {
			return true
		}
	}
	return false
}

// IsBlacklisted reports whether name is one of the manually-handled APIs
// that Discovery must never turn into an ordinary FunctionEntry candidate.
func (c *Config) IsBlacklisted(name string) bool {
	for _, b := range c.Blacklist {
		if b == name {
			return true
		}
	}
	return false
}

// IsValidFunc reports whether a discovered cursor at sourceFile with the
// given spelling is eligible for discovery: it must live in one of the
// tracked translation-unit files and must not be blacklisted.
func (c *Config) IsValidFunc(sourceFile, spelling string) bool {
	return sourceFile != "" && c.IsSource(sourceFile) && !c.IsBlacklisted(spelling)
}
