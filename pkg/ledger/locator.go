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

package ledger

import (
	"strings"

	"github.com/imgui-tools/implicit-ctx/pkg/model"
)

// SymbolLocator recovers CodeRanges for tokens the parser itself doesn't
// hand back extents for — chiefly bare `GImGui` references reached via
// pointer dereference or member access, whose AST node only covers `*` or
// `->` rather than the identifier. It works directly against a
// SourceLedger's already-loaded lines, the same way
// original_source/make_explicit_imgui.py's ParsingContext.find_symbol reuses
// its own _sources cache rather than re-reading the file or re-parsing.
type SymbolLocator struct {
	ledger *SourceLedger
}

// NewSymbolLocator returns a locator backed by ledger. ledger must already
// have every file the caller intends to search Load-ed.
func NewSymbolLocator(ledger *SourceLedger) *SymbolLocator {
	return &SymbolLocator{ledger: ledger}
}

// FindSymbol searches line lineNum of path for the first occurrence of
// symbol at or after 1-based column columnNum, and returns its CodeRange.
// It returns (model.CodeRange{}, false, nil) if symbol does not occur on
// that line at or after columnNum.
func (l *SymbolLocator) FindSymbol(path string, lineNum, columnNum int, symbol string) (model.CodeRange, bool, error) {
	line, err := l.ledger.Line(path, lineNum)
	if err != nil {
		return model.CodeRange{}, false, err
	}

	searchFrom := columnNum - 1
	if searchFrom < 0 {
		searchFrom = 0
	}
	if searchFrom > len(line) {
		return model.CodeRange{}, false, nil
	}

	idx := strings.Index(line[searchFrom:], symbol)
	if idx < 0 {
		return model.CodeRange{}, false, nil
	}
	start := searchFrom + idx

	return model.NewCodeRange(path, lineNum, start+1, start+1+len(symbol)), true, nil
}

// FindUntil searches line lineNum of path, starting at 1-based column
// columnNum, for the first occurrence of any rune in terminators, and
// returns the CodeRange spanning [columnNum, match). It is used to recover
// the extent of a bare identifier when only its starting column is known,
// by scanning until whitespace or a delimiter closes it off.
func (l *SymbolLocator) FindUntil(path string, lineNum, columnNum int, terminators string) (model.CodeRange, bool, error) {
	line, err := l.ledger.Line(path, lineNum)
	if err != nil {
		return model.CodeRange{}, false, err
	}

	start := columnNum - 1
	if start < 0 || start > len(line) {
		return model.CodeRange{}, false, nil
	}

	end := strings.IndexAny(line[start:], terminators)
	if end < 0 {
		end = len(line) - start
	}
	if end == 0 {
		return model.CodeRange{}, false, nil
	}

	return model.NewCodeRange(path, lineNum, columnNum, columnNum+end), true, nil
}
