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
	"fmt"
	"sort"
	"strings"

	"github.com/imgui-tools/implicit-ctx/pkg/model"
)

// editOp is one textual substitution against a single line, expressed as a
// half-open, 0-based character range: line[start:end] must equal before,
// and is replaced with after. This is the Go EditRequest sum type: each
// concrete request kind below is a constructor that produces one editOp,
// carrying the exact index arithmetic the original tool derives from
// 1-based, half-open CodeRange columns.
type editOp struct {
	start, end int
	before     string
	after      string
}

func newEditOp(start, end int, before, after string) editOp {
	return editOp{start: start, end: end, before: before, after: after}
}

// contextReplaceOp rewrites an exact `GImGui` reference to the forwarding
// variable name (normally "ctx", or "Ctx" for CLASSES_WITH_CONTEXT
// methods).
func contextReplaceOp(cr model.CodeRange, varName string) editOp {
	return newEditOp(cr.StartColumn-1, cr.EndColumn-1, "GImGui", varName)
}

// prototypeRewriteOp rewrites `name(` into `name(ImGuiContext* ctx` or
// `name(ImGuiContext* ctx, ` depending on hasArgs. cr covers only the name
// token; the trailing '(' is included by extending the 0-based end by one
// column past cr's own extent, matching the arithmetic original_source uses
// (end_column, not end_column-1).
func prototypeRewriteOp(cr model.CodeRange, name, varName string, hasArgs bool) editOp {
	sep := ""
	if hasArgs {
		sep = ", "
	}
	before := name + "("
	after := fmt.Sprintf("%s(ImGuiContext* %s%s", name, varName, sep)
	return newEditOp(cr.StartColumn-1, cr.EndColumn, before, after)
}

// callRewriteOp rewrites a call site `name(` into `name(ctx, ` or
// `name(ctx` the same way prototypeRewriteOp does for declarations.
func callRewriteOp(cr model.CodeRange, name, varName string, hasArgs bool) editOp {
	sep := ""
	if hasArgs {
		sep = ", "
	}
	before := name + "("
	after := fmt.Sprintf("%s(%s%s", name, varName, sep)
	return newEditOp(cr.StartColumn-1, cr.EndColumn, before, after)
}

// paramRewriteOp replaces an existing, misnamed context parameter's full
// declaration text with "ImGuiContext* ctx".
func paramRewriteOp(cr model.CodeRange, before string) editOp {
	return newEditOp(cr.StartColumn-1, cr.EndColumn-1, before, "ImGuiContext* ctx")
}

// numericRewriteOp bumps an IM_FMTARGS(n)/IM_FMTLIST(n) index by one to
// account for the inserted context parameter shifting every later argument.
func numericRewriteOp(cr model.CodeRange, before, after string) editOp {
	return newEditOp(cr.StartColumn-1, cr.EndColumn-1, before, after)
}

// Line is a single source line plus every edit request enqueued against it.
// It mirrors original_source/make_explicit_imgui.py's SourceLine: at most
// one context-replacement, at most one prototype rewrite, and any number of
// call/numeric rewrites, replayed left to right at Transform time.
type Line struct {
	raw string

	contextReplace *editOp
	prototype      *editOp
	param          *editOp
	calls          []editOp
	numeric        []editOp

	deleted bool
}

func newLine(raw string) *Line { return &Line{raw: raw} }

// Text returns the line's current (possibly already transformed) text.
func (l *Line) Text() string { return l.raw }

// RequestReplaceContext enqueues the single context-replacement edit this
// line may carry.
func (l *Line) RequestReplaceContext(cr model.CodeRange, varName string) error {
	if l.contextReplace != nil {
		return fmt.Errorf("ledger: line already has a context-replacement request")
	}
	op := contextReplaceOp(cr, varName)
	l.contextReplace = &op
	return nil
}

// RequestReplacePrototype enqueues the single prototype-rewrite edit this
// line may carry.
func (l *Line) RequestReplacePrototype(cr model.CodeRange, name, varName string, hasArgs bool) error {
	if l.prototype != nil {
		return fmt.Errorf("ledger: line already has a prototype-rewrite request")
	}
	op := prototypeRewriteOp(cr, name, varName, hasArgs)
	l.prototype = &op
	return nil
}

// RequestReplaceParam enqueues the single existing-parameter rewrite this
// line may carry (used when a function already has a context parameter
// that isn't named "ctx").
func (l *Line) RequestReplaceParam(cr model.CodeRange, before string) error {
	if l.param != nil {
		return fmt.Errorf("ledger: line already has a parameter-rewrite request")
	}
	op := paramRewriteOp(cr, before)
	l.param = &op
	return nil
}

// RequestReplaceCall enqueues one of possibly several call-site rewrites.
func (l *Line) RequestReplaceCall(cr model.CodeRange, name, varName string, hasArgs bool) {
	l.calls = append(l.calls, callRewriteOp(cr, name, varName, hasArgs))
}

// RequestNumericRewrite enqueues an IM_FMTARGS/IM_FMTLIST index bump.
func (l *Line) RequestNumericRewrite(cr model.CodeRange, before, after string) {
	l.numeric = append(l.numeric, numericRewriteOp(cr, before, after))
}

// PendingEditCount returns the number of edit requests enqueued on this
// line, used only for progress reporting and metrics.
func (l *Line) PendingEditCount() int {
	n := len(l.calls) + len(l.numeric)
	if l.contextReplace != nil {
		n++
	}
	if l.prototype != nil {
		n++
	}
	if l.param != nil {
		n++
	}
	return n
}

// Transform replays every enqueued edit against the line's raw text in
// start-column order and returns the resulting text; it does not mutate the
// Line, so it is safe to call more than once (Flush calls it exactly once
// per line).
//
// Overlapping edits — any two requests whose ranges intersect — are a fatal
// invariant violation: it means two passes tried to rewrite the same text,
// which should never happen for a correctly computed plan.
func (l *Line) Transform() (string, error) {
	if l.deleted {
		return "", nil
	}

	var ops []editOp
	if l.contextReplace != nil {
		ops = append(ops, *l.contextReplace)
	}
	if l.prototype != nil {
		ops = append(ops, *l.prototype)
	}
	if l.param != nil {
		ops = append(ops, *l.param)
	}
	ops = append(ops, l.calls...)
	ops = append(ops, l.numeric...)

	sort.Slice(ops, func(i, j int) bool { return ops[i].start < ops[j].start })

	var b strings.Builder
	next := 0
	for i, op := range ops {
		if op.start < next {
			return "", fmt.Errorf("ledger: overlapping edits at column %d (request %d starts before column %d ends)", op.start, i, next)
		}
		b.WriteString(l.raw[next:op.start])
		b.WriteString(op.after)
		next = op.start + len(op.before)
		if next > len(l.raw) {
			return "", fmt.Errorf("ledger: edit request %d extends past end of line", i)
		}
	}
	b.WriteString(l.raw[next:])
	return b.String(), nil
}
