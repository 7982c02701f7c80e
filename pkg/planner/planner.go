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

// Package planner decides which edits a converted function, call site, or
// GImGui reference needs and enqueues them against a SourceLedger. It owns
// no state of its own: every decision reads from a FunctionDatabase and a
// Config and every mutation goes straight through typed SourceLedger
// methods, which own the actual per-line merge.
package planner

import (
	"fmt"
	"regexp"

	"github.com/imgui-tools/implicit-ctx/pkg/callgraph"
	"github.com/imgui-tools/implicit-ctx/pkg/database"
	"github.com/imgui-tools/implicit-ctx/pkg/ledger"
	"github.com/imgui-tools/implicit-ctx/pkg/model"
)

const contextParamType = "ImGuiContext*"

var fmtArgsDigits = regexp.MustCompile(`IM_FMTARGS\((\d+)\)`)
var fmtListDigits = regexp.MustCompile(`IM_FMTLIST\((\d+)\)`)

// Plan walks db and enqueues every edit the conversion requires: prototype
// rewrites and parameter renames for functions newly needing a context,
// IM_FMTARGS/IM_FMTLIST renumbering on their declarations, GImGui
// replacements everywhere they occur, and call-site rewrites for every call
// whose callee needs the context (plus every recorded debug-log macro use).
func Plan(db *database.FunctionDatabase, led *ledger.SourceLedger, cfg *model.Config, logCalls []callgraph.LogCall) error {
	for _, fn := range db.Iter() {
		if !fn.NeedContextParam {
			continue
		}
		if err := planSignature(fn, led); err != nil {
			return err
		}
	}

	for _, fn := range db.IterDefinitions() {
		varName := forwardingVarName(fn, cfg)
		for _, cr := range fn.ImplicitContexts {
			if err := led.RequestReplaceContext(cr, varName); err != nil {
				return fmt.Errorf("planner: %w", err)
			}
		}
	}

	for _, call := range db.IterCalls() {
		if !call.Callee.NeedContextParam {
			continue
		}
		varName := forwardingVarName(call.Caller, cfg)
		if err := led.RequestReplaceCall(call.CodeRange, call.Callee.Name, varName, call.HasArg); err != nil {
			return fmt.Errorf("planner: %w", err)
		}
	}

	for _, lc := range logCalls {
		varName := forwardingVarName(lc.Caller, cfg)
		hasArgs, err := peekHasArgs(led, lc.CodeRange)
		if err != nil {
			return fmt.Errorf("planner: %w", err)
		}
		if err := led.RequestReplaceCall(lc.CodeRange, lc.MacroName, varName, hasArgs); err != nil {
			return fmt.Errorf("planner: %w", err)
		}
	}

	return nil
}

// forwardingVarName picks the variable name used to pass the context
// onward: "Ctx", the already-available member field, for methods of a
// CLASSES_WITH_CONTEXT class, otherwise the ordinary forwarded parameter
// "ctx".
func forwardingVarName(fn *model.FunctionEntry, cfg *model.Config) string {
	if database.ClassBoundary(fn, cfg) {
		return "Ctx"
	}
	return "ctx"
}

func findContextParam(fn *model.FunctionEntry) (*model.FunctionParameter, bool) {
	for i := range fn.Params {
		if fn.Params[i].Type == contextParamType {
			return &fn.Params[i], true
		}
	}
	return nil, false
}

func planSignature(fn *model.FunctionEntry, led *ledger.SourceLedger) error {
	if existing, ok := findContextParam(fn); ok {
		if existing.Name != "ctx" {
			if err := led.RequestReplaceParam(existing.CodeRange, existing.Declaration); err != nil {
				return fmt.Errorf("planner: %w", err)
			}
		}
	} else {
		hasArgs := len(fn.Params) > 0
		if err := led.RequestReplacePrototype(fn.CodeRange, fn.Name, "ctx", hasArgs); err != nil {
			return fmt.Errorf("planner: %w", err)
		}
	}

	if fn.IsDefinition {
		return nil
	}
	if fn.FmtArgs > 0 {
		if err := planNumericBump(fn, led, fmtArgsDigits, fn.FmtArgs); err != nil {
			return err
		}
	}
	if fn.FmtList > 0 {
		if err := planNumericBump(fn, led, fmtListDigits, fn.FmtList); err != nil {
			return err
		}
	}
	return nil
}

// planNumericBump finds the literal "IM_FMTARGS(n)"/"IM_FMTLIST(n)" token on
// fn's declaration line and enqueues a rewrite of just the digits, bumping n
// to n+1 to account for the newly inserted leading context parameter.
func planNumericBump(fn *model.FunctionEntry, led *ledger.SourceLedger, pattern *regexp.Regexp, n int) error {
	line, err := led.Line(fn.CodeRange.File, fn.CodeRange.StartLine)
	if err != nil {
		return fmt.Errorf("planner: %w", err)
	}

	loc := pattern.FindStringSubmatchIndex(line)
	if loc == nil {
		return fmt.Errorf("planner: invariant violation: expected %s on %s:%d but found none", pattern.String(), fn.CodeRange.File, fn.CodeRange.StartLine)
	}
	digitsStart, digitsEnd := loc[2], loc[3]

	before := line[digitsStart:digitsEnd]
	after := fmt.Sprintf("%d", n+1)
	cr := model.NewCodeRange(fn.CodeRange.File, fn.CodeRange.StartLine, digitsStart+1, digitsEnd+1)
	return led.RequestNumericRewrite(cr, before, after)
}

func peekHasArgs(led *ledger.SourceLedger, cr model.CodeRange) (bool, error) {
	peek := model.NewCodeRange(cr.File, cr.EndLine, cr.EndColumn, cr.EndColumn+2)
	text, err := led.GetText(peek)
	if err != nil {
		return false, err
	}
	if len(text) == 0 || text[0] != '(' {
		return false, fmt.Errorf("call site %s does not open with '('", cr)
	}
	return text != "()", nil
}
