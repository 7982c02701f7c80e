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

// Package emit generates the compatibility shim that lets existing callers
// keep using the implicit, global-context API after the conversion: a
// guarded declaration block appended to the public header, and a
// definitions file providing GImGui itself, the context lifecycle shims,
// and one forwarding wrapper per public API.
package emit

import (
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"github.com/imgui-tools/implicit-ctx/pkg/model"
)

const guardBegin = "#ifndef IMGUI_DISABLE_IMPLICIT_API"
const guardEnd = "#endif // IMGUI_DISABLE_IMPLICIT_API"

// PublicAPIs filters funcs down to the set the compatibility generator
// covers: public, non-member entries declared in the public header that
// aren't on the blacklist (those need bespoke, hand-written shims).
func PublicAPIs(funcs []*model.FunctionEntry, cfg *model.Config) []*model.FunctionEntry {
	var out []*model.FunctionEntry
	for _, f := range funcs {
		if !f.IsAPI || f.IsMethod || f.IsDefinition {
			continue
		}
		if f.CodeRange.File != cfg.ImguiH {
			continue
		}
		if cfg.IsBlacklisted(f.Name) {
			continue
		}
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// HeaderBlock renders the guarded declaration block appended to the public
// header: unchanged signatures from the original API, living in the
// implicit-context-compatible global namespace.
func HeaderBlock(apis []*model.FunctionEntry) string {
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(guardBegin + "\n")
	b.WriteString("// Implicit-context compatibility wrappers, generated from the explicit-context API.\n")
	for _, f := range apis {
		b.WriteString(f.CompatDeclaration() + "\n")
	}
	b.WriteString(guardEnd + "\n")
	return b.String()
}

// DefinitionsFile renders the generated imgui_implicit.cpp contents: the
// GImGui definition, the four lifecycle shims, and one wrapper per public
// API.
func DefinitionsFile(apis []*model.FunctionEntry) string {
	var b strings.Builder
	b.WriteString("// Code generated by the implicit-context conversion tool. DO NOT EDIT.\n\n")
	b.WriteString(`#include "imgui.h"` + "\n")
	b.WriteString(`#include "imgui_internal.h"` + "\n\n")
	b.WriteString("ImGuiContext* GImGui = nullptr;\n\n")
	b.WriteString(lifecycleShims())
	b.WriteString("\n")
	for _, f := range apis {
		b.WriteString(wrapperFor(f))
		b.WriteString("\n")
	}
	return b.String()
}

func lifecycleShims() string {
	return strings.Join([]string{
		"ImGuiContext* ImGui::CreateContext(ImFontAtlas* shared_font_atlas)",
		"{",
		"    ImGuiContext* ctx = ImGuiEx::CreateContext(shared_font_atlas);",
		"    if (GImGui == nullptr)",
		"        GImGui = ctx;",
		"    return ctx;",
		"}",
		"",
		"void ImGui::DestroyContext(ImGuiContext* ctx)",
		"{",
		"    if (ctx == nullptr)",
		"        ctx = GImGui;",
		"    if (GImGui == ctx)",
		"        GImGui = nullptr;",
		"    ImGuiEx::DestroyContext(ctx);",
		"}",
		"",
		"ImGuiContext* ImGui::GetCurrentContext()",
		"{",
		"    return GImGui;",
		"}",
		"",
		"void ImGui::SetCurrentContext(ImGuiContext* ctx)",
		"{",
		"    GImGui = ctx;",
		"}",
		"",
	}, "\n")
}

// wrapperFor renders one forwarding wrapper. Variadic (IM_FMTARGS) APIs
// allocate a va_list and forward to the V-suffixed explicit-context callee;
// non-void returns are captured in a local and returned.
func wrapperFor(f *model.FunctionEntry) string {
	var b strings.Builder
	isVoid := f.ReturnType == "void"

	if f.FmtArgs > 0 {
		sig := model.MakeSignature(f.Params, true) + ", ..."
		fmt.Fprintf(&b, "%s ImGui::%s(%s)\n{\n", f.ReturnType, f.Name, sig)
		b.WriteString("    va_list args;\n")
		fmt.Fprintf(&b, "    va_start(args, %s);\n", lastParamName(f.Params))
		callArgs := append([]string{"GImGui"}, forwardArgNames(f.Params)...)
		callArgs = append(callArgs, "args")
		call := fmt.Sprintf("ImGuiEx::%sV(%s)", f.Name, strings.Join(callArgs, ", "))
		if isVoid {
			fmt.Fprintf(&b, "    %s;\n", call)
		} else {
			fmt.Fprintf(&b, "    %s result = %s;\n", f.ReturnType, call)
		}
		b.WriteString("    va_end(args);\n")
		if !isVoid {
			b.WriteString("    return result;\n")
		}
		b.WriteString("}\n")
		return b.String()
	}

	sig := model.MakeSignature(f.Params, true)
	fmt.Fprintf(&b, "%s ImGui::%s(%s)\n{\n", f.ReturnType, f.Name, sig)
	callArgs := append([]string{"GImGui"}, forwardArgNames(f.Params)...)
	call := fmt.Sprintf("ImGuiEx::%s(%s)", f.Name, strings.Join(callArgs, ", "))
	if isVoid {
		fmt.Fprintf(&b, "    %s;\n", call)
	} else {
		fmt.Fprintf(&b, "    return %s;\n", call)
	}
	b.WriteString("}\n")
	return b.String()
}

func forwardArgNames(params []model.FunctionParameter) []string {
	names := make([]string, 0, len(params))
	for _, p := range params {
		if p.Name == "..." {
			continue
		}
		names = append(names, p.Name)
	}
	return names
}

func lastParamName(params []model.FunctionParameter) string {
	for i := len(params) - 1; i >= 0; i-- {
		if params[i].Name != "..." {
			return params[i].Name
		}
	}
	return ""
}

var (
	namespaceDecl = regexp.MustCompile(`\bnamespace\s+ImGui\b`)
	namespaceRef  = regexp.MustCompile(`\bImGui::`)
)

// RewriteNamespace rewrites every "namespace ImGui" declaration and every
// "ImGui::" qualifier in content to the new ImGuiEx namespace, via literal
// textual substitution rather than an AST-aware rewrite: safe because the
// source convention never spells those sequences inside a comment or
// string literal.
func RewriteNamespace(content string) string {
	content = namespaceDecl.ReplaceAllString(content, "namespace ImGuiEx")
	content = namespaceRef.ReplaceAllString(content, "ImGuiEx::")
	return content
}

// WriteGeneratedFiles appends headerBlock to the public header and writes
// definitionsContent to cfg.ImplicitCPP.
func WriteGeneratedFiles(cfg *model.Config, headerBlock, definitionsContent string) error {
	headerData, err := os.ReadFile(cfg.ImguiH) //nolint:gosec
	if err != nil {
		return fmt.Errorf("emit: reading %s: %w", cfg.ImguiH, err)
	}
	updated := string(headerData) + headerBlock
	if err := os.WriteFile(cfg.ImguiH, []byte(updated), 0o644); err != nil { //nolint:gosec
		return fmt.Errorf("emit: writing %s: %w", cfg.ImguiH, err)
	}
	if err := os.WriteFile(cfg.ImplicitCPP, []byte(definitionsContent), 0o644); err != nil { //nolint:gosec
		return fmt.Errorf("emit: writing %s: %w", cfg.ImplicitCPP, err)
	}
	return nil
}
