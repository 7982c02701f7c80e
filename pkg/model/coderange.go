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

// Package model holds the plain value types shared by every pass of the
// implicit-context propagation pipeline: source ranges, function and call
// entries, and the configuration that tunes them.
package model

import "fmt"

// CodeRange is a half-open, single-line text range: columns are 1-based and
// [StartColumn, EndColumn) describes the span. Identity and equality are
// keyed only on File, StartLine and StartColumn — two ranges that start at
// the same place are considered the same range regardless of how their end
// column was computed, matching how the planner re-derives ranges from two
// different passes (declaration vs. call-site) without them being treated as
// distinct edits.
type CodeRange struct {
	File        string
	StartLine   int
	StartColumn int
	EndLine     int
	EndColumn   int
}

// NewCodeRange builds a single-line CodeRange.
func NewCodeRange(file string, line, startColumn, endColumn int) CodeRange {
	return CodeRange{File: file, StartLine: line, StartColumn: startColumn, EndLine: line, EndColumn: endColumn}
}

// Copy returns a value copy of r.
func (r CodeRange) Copy() CodeRange {
	return r
}

// Key returns the identity tuple used for map keys and equality checks.
func (r CodeRange) Key() [3]any {
	return [3]any{r.File, r.StartLine, r.StartColumn}
}

// Equal compares two ranges by identity (file, start line, start column),
// not by their full extent.
func (r CodeRange) Equal(other CodeRange) bool {
	return r.Key() == other.Key()
}

func (r CodeRange) String() string {
	if r.StartLine != r.EndLine {
		return fmt.Sprintf("%s:%d:%d-%d:%d", r.File, r.StartLine, r.StartColumn, r.EndLine, r.EndColumn)
	}
	return fmt.Sprintf("%s:%d:%d-%d", r.File, r.StartLine, r.StartColumn, r.EndColumn)
}
