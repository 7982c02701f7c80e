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

import (
	"fmt"
	"strings"
)

// FormatTypeName removes the space ImGui's style never puts before a '*' or
// '&', e.g. "ImGuiContext *" becomes "ImGuiContext*".
func FormatTypeName(typeName string) string {
	if len(typeName) == 0 {
		return typeName
	}
	var b strings.Builder
	runes := []rune(typeName)
	for i := 0; i < len(runes)-1; i++ {
		if runes[i] == ' ' && (runes[i+1] == '*' || runes[i+1] == '&') {
			continue
		}
		b.WriteRune(runes[i])
	}
	b.WriteRune(runes[len(runes)-1])
	return b.String()
}

// FunctionParameter is one parameter of a function signature, both in its
// declared form (used when re-emitting a prototype) and split into name/type
// (used when forwarding arguments).
type FunctionParameter struct {
	Name        string
	Type        string
	Declaration string
	CodeRange   CodeRange // the parameter's full declaration text span
}

// NewFunctionParameter builds a parameter, formatting typ ImGui-style and
// defaulting Declaration to "typ name" when none is supplied.
func NewFunctionParameter(name, typ, declaration string) FunctionParameter {
	p := FunctionParameter{Name: name, Type: FormatTypeName(typ)}
	if declaration == "" {
		declaration = fmt.Sprintf("%s %s", typ, name)
	}
	p.Declaration = declaration
	return p
}

// NewFunctionParameterAt is NewFunctionParameter plus the parameter's source
// range, used by the planner to rewrite an existing, misnamed context
// parameter in place.
func NewFunctionParameterAt(name, typ, declaration string, cr CodeRange) FunctionParameter {
	p := NewFunctionParameter(name, typ, declaration)
	p.CodeRange = cr
	return p
}

func (p FunctionParameter) String() string { return p.Declaration }

// FunctionEntry describes one function or method declaration or definition
// discovered in the translation unit.
type FunctionEntry struct {
	Name             string
	ID               string // mangled/synthetic identity — see pkg/cxxcursor
	CodeRange        CodeRange
	FQName           string
	ReturnType       string
	Params           []FunctionParameter
	FmtArgs          int // IM_FMTARGS(n) index, 0 if absent
	FmtList          int // IM_FMTLIST(n) index, 0 if absent
	IsAPI            bool
	IsMethod         bool
	IsDefinition     bool
	ClassType        string // set when IsMethod
	NeedContextParam bool
	ImplicitContexts []CodeRange // every `GImGui` reference found in the body
}

// ParamCount returns len(Params), mirroring the original's cached field.
func (f *FunctionEntry) ParamCount() int { return len(f.Params) }

// CompatDeclaration renders the IMGUI_API prototype this entry would emit
// into the generated compatibility header, including any IM_FMTARGS/
// IM_FMTLIST suffix with its variadic "..." trailer.
func (f *FunctionEntry) CompatDeclaration() string {
	params := f.Params
	suffix := ""
	if f.FmtList > 0 {
		suffix = fmt.Sprintf(" IM_FMTLIST(%d)", f.FmtList)
	}
	if f.FmtArgs > 0 {
		suffix = fmt.Sprintf(" IM_FMTARGS(%d)", f.FmtArgs)
		params = append(append([]FunctionParameter{}, params...), FunctionParameter{Name: "...", Declaration: "..."})
	}
	return fmt.Sprintf("IMGUI_API %s %s(%s)%s;", f.ReturnType, f.Name, MakeSignature(params, true), suffix)
}

// CallEntry is one call site: a caller invoking a callee at code_range,
// recording whether the call already passed at least one argument (so the
// planner knows whether to add a trailing ", ").
type CallEntry struct {
	ID        [3]any
	Caller    *FunctionEntry
	Callee    *FunctionEntry
	CodeRange CodeRange
	HasArg    bool
}

// NewCallEntry builds a CallEntry, deriving its identity from codeRange —
// two calls sharing a start position are the same call.
func NewCallEntry(caller, callee *FunctionEntry, codeRange CodeRange, hasArg bool) CallEntry {
	return CallEntry{ID: codeRange.Key(), Caller: caller, Callee: callee, CodeRange: codeRange, HasArg: hasArg}
}

// MakeSignature renders params as a valid C++ parameter list. withDefault
// includes each parameter's full declaration (defaults, "..."); otherwise it
// prints bare "type name" pairs suitable for a call-site forwarder's
// definition line.
func MakeSignature(params []FunctionParameter, withDefault bool) string {
	parts := make([]string, 0, len(params))
	for _, p := range params {
		if withDefault {
			parts = append(parts, p.String())
		} else {
			parts = append(parts, fmt.Sprintf("%s %s", p.Type, p.Name))
		}
	}
	return strings.Join(parts, ", ")
}

// MakeArgs renders params as a valid C++ call argument list (names only).
func MakeArgs(params []FunctionParameter) string {
	names := make([]string, 0, len(params))
	for _, p := range params {
		names = append(names, p.Name)
	}
	return strings.Join(names, ", ")
}
