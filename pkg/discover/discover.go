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

// Package discover walks a parsed translation unit and builds one
// FunctionEntry per function declaration or definition worth tracking.
package discover

import (
	"fmt"
	"regexp"

	"github.com/imgui-tools/implicit-ctx/pkg/annotate"
	"github.com/imgui-tools/implicit-ctx/pkg/cxxcursor"
	"github.com/imgui-tools/implicit-ctx/pkg/ledger"
	"github.com/imgui-tools/implicit-ctx/pkg/model"
)

var declKinds = map[cxxcursor.Kind]bool{
	cxxcursor.KindFunctionDecl: true,
	cxxcursor.KindCXXMethod:    true,
}

var (
	fmtArgsAnnotation = regexp.MustCompile(`^IM_FMTARGS\((\d+)\)$`)
	fmtListAnnotation = regexp.MustCompile(`^IM_FMTLIST\((\d+)\)$`)
)

// Discover walks root (the translation unit's root cursor) and returns one
// FunctionEntry per eligible declaration or definition found under cfg's
// tracked source set, plus a lookup from each entry's ID back to the cursor
// it came from — the call-graph pass re-walks definition bodies starting
// from those same cursors.
//
// remap translates column positions the parser reports (against files that
// went through the annotation trick's textual rewrite) back to the
// original, unrewritten source the ledger holds. It may be nil, in which
// case positions pass through unchanged — the shape callers without the
// annotation trick in play (tests, or files the trick never touched) need.
func Discover(root cxxcursor.Cursor, led *ledger.SourceLedger, locator *ledger.SymbolLocator, cfg *model.Config, remap *annotate.ColumnRemap) ([]*model.FunctionEntry, map[string]cxxcursor.Cursor, error) {
	var entries []*model.FunctionEntry
	cursors := map[string]cxxcursor.Cursor{}
	var walkErr error

	cxxcursor.Visit(root, declKinds, func(c cxxcursor.Cursor) bool {
		if walkErr != nil {
			return false
		}

		loc := c.Location()
		spelling := c.Spelling()
		if !cfg.IsValidFunc(loc.File, spelling) {
			return true
		}

		mangled := c.MangledName()
		isSpecialTemplate := isSpecialTemplateFunc(spelling, cfg)
		if mangled == "" && !isSpecialTemplate {
			return true
		}

		entry, err := buildEntry(c, led, locator, cfg, remap)
		if err != nil {
			walkErr = err
			return false
		}
		entries = append(entries, entry)
		cursors[entry.ID] = c
		return true
	})

	if walkErr != nil {
		return nil, nil, walkErr
	}
	return entries, cursors, nil
}

func isSpecialTemplateFunc(name string, cfg *model.Config) bool {
	for _, n := range cfg.SpecialTemplateFunc {
		if n == name {
			return true
		}
	}
	return false
}

func buildEntry(c cxxcursor.Cursor, led *ledger.SourceLedger, locator *ledger.SymbolLocator, cfg *model.Config, remap *annotate.ColumnRemap) (*model.FunctionEntry, error) {
	loc := c.Location()
	ext := c.Extent()
	nameStart := remap.Remap(loc.File, ext.Start.Line, ext.Start.Column)
	nameRange := model.NewCodeRange(loc.File, loc.Line, nameStart, nameStart+len(c.Spelling()))

	gotName, err := led.GetText(nameRange)
	if err != nil {
		return nil, fmt.Errorf("discover: reading name token for %s: %w", c.Spelling(), err)
	}
	if gotName != c.Spelling() {
		return nil, fmt.Errorf("discover: invariant violation: name token %q at %s does not match cursor spelling %q", gotName, nameRange, c.Spelling())
	}

	entry := &model.FunctionEntry{
		Name:         c.Spelling(),
		ID:           c.MangledName(),
		CodeRange:    nameRange,
		FQName:       cxxcursor.FullyQualifiedName(c),
		ReturnType:   c.ResultTypeSpelling(),
		IsMethod:     c.Kind() == cxxcursor.KindCXXMethod,
		IsDefinition: c.IsDefinition(),
		IsAPI:        false,
	}
	if entry.ID == "" {
		entry.ID = "special:" + entry.FQName
	}
	if entry.IsMethod {
		if parent := c.SemanticParent(); parent != nil {
			entry.ClassType = parent.Spelling()
		}
	}

	for _, child := range c.Children() {
		if child.Kind() != cxxcursor.KindAnnotateAttr {
			continue
		}
		text := child.Spelling()
		switch {
		case text == "imgui_api":
			entry.IsAPI = true
		case fmtArgsAnnotation.MatchString(text):
			entry.FmtArgs = parseAnnotationInt(fmtArgsAnnotation, text)
		case fmtListAnnotation.MatchString(text):
			entry.FmtList = parseAnnotationInt(fmtListAnnotation, text)
		}
	}

	for _, p := range c.Arguments() {
		pExt := p.Extent()
		start := remap.Remap(pExt.Start.File, pExt.Start.Line, pExt.Start.Column)
		end := remap.Remap(pExt.End.File, pExt.End.Line, pExt.End.Column)
		paramRange := model.NewCodeRange(p.Location().File, p.Location().Line, start, end)
		decl, declErr := led.GetText(paramRange)
		if declErr != nil {
			return nil, fmt.Errorf("discover: reading parameter declaration for %s: %w", entry.Name, declErr)
		}
		entry.Params = append(entry.Params, model.NewFunctionParameterAt(p.Spelling(), p.TypeSpelling(), decl, paramRange))
	}

	contexts, err := findImplicitContexts(c, led, locator, remap)
	if err != nil {
		return nil, err
	}
	entry.ImplicitContexts = contexts

	return entry, nil
}

func parseAnnotationInt(pattern *regexp.Regexp, text string) int {
	m := pattern.FindStringSubmatch(text)
	n := 0
	for _, r := range m[1] {
		n = n*10 + int(r-'0')
	}
	return n
}

// findImplicitContexts recursively scans c's subtree for every reference
// spelled "GImGui", recovering a non-zero-width range via the locator when
// the cursor's own extent collapsed to a single point, and validates that
// every recovered range reads back the literal text "GImGui".
func findImplicitContexts(c cxxcursor.Cursor, led *ledger.SourceLedger, locator *ledger.SymbolLocator, remap *annotate.ColumnRemap) ([]model.CodeRange, error) {
	var found []model.CodeRange
	var walkErr error

	var walk func(cur cxxcursor.Cursor)
	walk = func(cur cxxcursor.Cursor) {
		if walkErr != nil {
			return
		}
		if cur.Spelling() == "GImGui" {
			ext := cur.Extent()
			startCol := remap.Remap(ext.Start.File, ext.Start.Line, ext.Start.Column)
			endCol := remap.Remap(ext.End.File, ext.End.Line, ext.End.Column)
			cr := model.NewCodeRange(ext.Start.File, ext.Start.Line, startCol, endCol)
			if startCol == endCol {
				located, found2, err := locator.FindSymbol(ext.Start.File, ext.Start.Line, startCol, "GImGui")
				if err != nil {
					walkErr = err
					return
				}
				if !found2 {
					walkErr = fmt.Errorf("discover: invariant violation: could not locate GImGui reference at %s", ext.Start)
					return
				}
				cr = located
			}

			text, err := led.GetText(cr)
			if err != nil {
				walkErr = err
				return
			}
			if text != "GImGui" {
				walkErr = fmt.Errorf("discover: invariant violation: expected GImGui at %s, got %q", cr, text)
				return
			}

			found = append(found, cr)
			return
		}
		for _, child := range cur.Children() {
			walk(child)
		}
	}
	walk(c)

	if walkErr != nil {
		return nil, walkErr
	}
	return found, nil
}
