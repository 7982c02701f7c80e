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

// Package ledger owns faithful, line-indexed in-memory copies of every
// source file the conversion touches, accumulates typed edit requests
// against individual lines, and flushes the result back to disk. It is the
// Go counterpart of original_source/make_explicit_imgui.py's ParsingContext
// and SourceLine.
package ledger

import (
	"fmt"
	"os"
	"strings"

	"github.com/imgui-tools/implicit-ctx/pkg/model"
)

// UnsupportedMultilineRangeError is returned by GetText when asked for a
// range spanning more than one line; the ledger only ever deals in
// single-line ranges.
type UnsupportedMultilineRangeError struct {
	Range model.CodeRange
}

func (e *UnsupportedMultilineRangeError) Error() string {
	return fmt.Sprintf("ledger: %s spans multiple lines, which get_text does not support", e.Range)
}

// SourceLedger is the in-memory source of truth for every file under
// conversion. Lines keep their terminator so Flush reproduces files
// byte-for-byte except where an edit was requested.
type SourceLedger struct {
	files map[string][]*Line
	order []string
}

// New returns an empty SourceLedger.
func New() *SourceLedger {
	return &SourceLedger{files: map[string][]*Line{}}
}

// Load reads path once into a line-indexed array, preserving line
// terminators verbatim (bufio.Scanner's ScanLines strips them, so this
// implementation splits by hand to keep them, matching Python's
// `list(file)` which preserves trailing '\n' on every line but the last).
func (s *SourceLedger) Load(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from Config, not user input
	if err != nil {
		return fmt.Errorf("ledger: load %s: %w", path, err)
	}

	var lines []*Line
	start := 0
	for i := 0; i < len(data); i++ {
		if data[i] == '\n' {
			lines = append(lines, newLine(string(data[start:i+1])))
			start = i + 1
		}
	}
	if start < len(data) {
		lines = append(lines, newLine(string(data[start:])))
	}

	if _, exists := s.files[path]; !exists {
		s.order = append(s.order, path)
	}
	s.files[path] = lines
	return nil
}

// HasFile reports whether path has been Load-ed.
func (s *SourceLedger) HasFile(path string) bool {
	_, ok := s.files[path]
	return ok
}

// Line returns read-only access to one 1-based line of path.
func (s *SourceLedger) Line(path string, lineNum int) (string, error) {
	l, err := s.line(path, lineNum)
	if err != nil {
		return "", err
	}
	return l.raw, nil
}

func (s *SourceLedger) line(path string, lineNum int) (*Line, error) {
	lines, ok := s.files[path]
	if !ok {
		return nil, fmt.Errorf("ledger: %s was never loaded", path)
	}
	if lineNum < 1 || lineNum > len(lines) {
		return nil, fmt.Errorf("ledger: %s has no line %d", path, lineNum)
	}
	return lines[lineNum-1], nil
}

// GetText returns the substring covered by a single-line CodeRange. Columns
// are 1-based, half-open, matching CodeRange's own convention.
func (s *SourceLedger) GetText(cr model.CodeRange) (string, error) {
	if cr.StartLine != cr.EndLine {
		return "", &UnsupportedMultilineRangeError{Range: cr}
	}
	l, err := s.line(cr.File, cr.StartLine)
	if err != nil {
		return "", err
	}
	if cr.StartColumn-1 < 0 || cr.EndColumn-1 > len(l.raw) || cr.StartColumn > cr.EndColumn {
		return "", fmt.Errorf("ledger: %s is out of bounds for line %q", cr, l.raw)
	}
	return l.raw[cr.StartColumn-1 : cr.EndColumn-1], nil
}

// RequestReplaceContext enqueues the context-replacement edit for a single
// `GImGui` reference, to be rewritten to varName ("ctx" or "Ctx").
func (s *SourceLedger) RequestReplaceContext(cr model.CodeRange, varName string) error {
	l, err := s.line(cr.File, cr.StartLine)
	if err != nil {
		return err
	}
	return l.RequestReplaceContext(cr, varName)
}

// RequestReplacePrototype enqueues a prototype-rewrite edit.
func (s *SourceLedger) RequestReplacePrototype(cr model.CodeRange, name, varName string, hasArgs bool) error {
	l, err := s.line(cr.File, cr.StartLine)
	if err != nil {
		return err
	}
	return l.RequestReplacePrototype(cr, name, varName, hasArgs)
}

// RequestReplaceParam enqueues a parameter-text rewrite edit.
func (s *SourceLedger) RequestReplaceParam(cr model.CodeRange, before string) error {
	l, err := s.line(cr.File, cr.StartLine)
	if err != nil {
		return err
	}
	return l.RequestReplaceParam(cr, before)
}

// RequestReplaceCall enqueues a call-site rewrite edit.
func (s *SourceLedger) RequestReplaceCall(cr model.CodeRange, name, varName string, hasArgs bool) error {
	l, err := s.line(cr.File, cr.StartLine)
	if err != nil {
		return err
	}
	l.RequestReplaceCall(cr, name, varName, hasArgs)
	return nil
}

// RequestNumericRewrite enqueues an IM_FMTARGS/IM_FMTLIST index bump.
func (s *SourceLedger) RequestNumericRewrite(cr model.CodeRange, before, after string) error {
	l, err := s.line(cr.File, cr.StartLine)
	if err != nil {
		return err
	}
	l.RequestNumericRewrite(cr, before, after)
	return nil
}

// PendingEditCount returns the total number of edit requests enqueued
// across every loaded file, used only for progress reporting and metrics.
func (s *SourceLedger) PendingEditCount() int {
	n := 0
	for _, lines := range s.files {
		for _, l := range lines {
			n += l.PendingEditCount()
		}
	}
	return n
}

// Flush replays every enqueued edit, in positional order, against each
// tracked file and writes the result to outputPaths[path] (or back to path
// itself if outputPaths is nil or has no entry for it).
func (s *SourceLedger) Flush(outputPaths map[string]string) error {
	for _, path := range s.order {
		lines := s.files[path]
		var b strings.Builder
		for i, l := range lines {
			text, err := l.Transform()
			if err != nil {
				return fmt.Errorf("ledger: flush %s:%d: %w", path, i+1, err)
			}
			b.WriteString(text)
		}

		dest := path
		if outputPaths != nil {
			if mapped, ok := outputPaths[path]; ok {
				dest = mapped
			}
		}
		if err := os.WriteFile(dest, []byte(b.String()), 0o644); err != nil { //nolint:gosec
			return fmt.Errorf("ledger: write %s: %w", dest, err)
		}
	}
	return nil
}
