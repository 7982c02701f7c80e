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

package cxxcursor

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/cpp"
)

var (
	cppPool sync.Pool
	poolInit sync.Once
)

func initPool() {
	poolInit.Do(func() {
		cppPool.New = func() any {
			parser := sitter.NewParser()
			parser.SetLanguage(cpp.GetLanguage())
			return parser
		}
	})
}

// acquireParser borrows a pooled *sitter.Parser configured for C++; release
// returns it to the pool.
func acquireParser() (*sitter.Parser, func()) {
	initPool()
	parser := cppPool.Get().(*sitter.Parser)
	return parser, func() { cppPool.Put(parser) }
}

// Unit is a parsed translation unit: one file's syntax tree plus the shared
// symbol index that every ParseFile call of one run fills, so GetDefinition can
// resolve a call site's callee across file boundaries within the tracked
// source set.
type Unit struct {
	file    string
	source  []byte
	root    *sitter.Node
	symbols *SymbolIndex
}

// SymbolIndex maps a function/method spelling to every FUNCTION_DECL/
// CXX_METHOD cursor sharing that name across every parsed file, and
// separately tracks which of those is the definition (has a body). Overload
// resolution is intentionally name-based only — Dear ImGui's C API has no
// overloaded free functions that this tool needs to disambiguate beyond
// name, so this stays a direct port of the original's assumption that a
// call's callee is found by looking up its spelling.
type SymbolIndex struct {
	mu          sync.Mutex
	byName      map[string][]*boundCursor
	definitions map[string]*boundCursor
}

func newSymbolIndex() *SymbolIndex {
	return &SymbolIndex{byName: map[string][]*boundCursor{}, definitions: map[string]*boundCursor{}}
}

func (s *SymbolIndex) register(c *boundCursor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	name := c.Spelling()
	s.byName[name] = append(s.byName[name], c)
	if c.IsDefinition() {
		s.definitions[name] = c
	}
}

func (s *SymbolIndex) lookupDefinition(name string) *boundCursor {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.definitions[name]
}

// ParseFile parses content (the bytes of file) into a *Unit sharing symbols
// with the given index; pass a fresh newSymbolIndex() result for the first
// file of a translation unit and reuse it for the rest.
func ParseFile(ctx context.Context, file string, content []byte, symbols *SymbolIndex) (*Unit, error) {
	parser, release := acquireParser()
	defer release()

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("cxxcursor: parse %s: %w", file, err)
	}

	u := &Unit{file: file, source: content, root: tree.RootNode(), symbols: symbols}
	registerDeclarations(u)
	return u, nil
}

// NewSymbolIndex starts a fresh cross-file symbol table for a translation
// unit made of several ParseFile calls.
func NewSymbolIndex() *SymbolIndex { return newSymbolIndex() }

// Root returns the translation-unit root cursor.
func (u *Unit) Root() Cursor {
	return &boundCursor{unit: u, node: u.root}
}

// registerDeclarations walks u's tree once up front so GetDefinition has a
// complete index before the discovery/call-graph passes start querying it.
func registerDeclarations(u *Unit) {
	Visit(u.Root(), functionKinds, func(c Cursor) bool {
		if bc, ok := c.(*boundCursor); ok {
			u.symbols.register(bc)
		}
		return true
	})
}

var functionKinds = map[Kind]bool{KindFunctionDecl: true, KindCXXMethod: true}

// boundCursor is the concrete Cursor implementation: a Tree-sitter node plus
// enough of its owning Unit to resolve text, location and cross-references.
type boundCursor struct {
	unit *Unit
	node *sitter.Node
}

func (c *boundCursor) text() string {
	return string(c.unit.source[c.node.StartByte():c.node.EndByte()])
}

func (c *boundCursor) Kind() Kind {
	switch c.node.Type() {
	case "translation_unit":
		return KindTranslationUnit
	case "function_definition":
		if c.isMethodContext() {
			return KindCXXMethod
		}
		return KindFunctionDecl
	case "declaration":
		if declaratorHasFunctionShape(c.node) {
			if c.isMethodContext() {
				return KindCXXMethod
			}
			return KindFunctionDecl
		}
		return KindOther
	case "parameter_declaration":
		return KindParmDecl
	case "call_expression":
		return KindCallExpr
	case "attribute_declaration", "attribute_specifier":
		return KindAnnotateAttr
	default:
		return KindOther
	}
}

// isMethodContext reports whether node's nearest enclosing named-type
// ancestor is a class/struct specifier, i.e. this is a CXX_METHOD rather
// than a free FUNCTION_DECL.
func (c *boundCursor) isMethodContext() bool {
	n := c.node.Parent()
	for n != nil {
		switch n.Type() {
		case "field_declaration_list":
			return true
		case "translation_unit":
			return false
		}
		n = n.Parent()
	}
	return false
}

// declaratorHasFunctionShape reports whether a "declaration" node's
// declarator is a function_declarator, distinguishing a prototype from an
// ordinary variable declaration.
func declaratorHasFunctionShape(n *sitter.Node) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.Child(i).Type() == "function_declarator" {
			return true
		}
	}
	return false
}

func (c *boundCursor) declarator() *sitter.Node {
	for i := 0; i < int(c.node.ChildCount()); i++ {
		child := c.node.Child(i)
		if child.Type() == "function_declarator" {
			return child
		}
		if child.Type() == "pointer_declarator" || child.Type() == "reference_declarator" {
			for j := 0; j < int(child.ChildCount()); j++ {
				if child.Child(j).Type() == "function_declarator" {
					return child.Child(j)
				}
			}
		}
	}
	return nil
}

func (c *boundCursor) Spelling() string {
	switch c.node.Type() {
	case "parameter_declaration":
		if id := identifierIn(c.node); id != nil {
			return string(c.unit.source[id.StartByte():id.EndByte()])
		}
		return ""
	case "call_expression":
		if fn := c.node.ChildByFieldName("function"); fn != nil {
			return string(c.unit.source[fn.StartByte():fn.EndByte()])
		}
		return ""
	case "attribute_declaration", "attribute_specifier":
		return annotationText(c.node, c.unit.source)
	case "namespace_definition", "class_specifier", "struct_specifier":
		if name := c.node.ChildByFieldName("name"); name != nil {
			return string(c.unit.source[name.StartByte():name.EndByte()])
		}
		return ""
	default:
		decl := c.declarator()
		if decl == nil {
			return ""
		}
		if id := identifierIn(decl); id != nil {
			return string(c.unit.source[id.StartByte():id.EndByte()])
		}
		return ""
	}
}

// identifierIn returns the first identifier/field_identifier/
// qualified_identifier descendant of n, the common shape of "the name part"
// of a declarator across tree-sitter-cpp's declarator node kinds.
func identifierIn(n *sitter.Node) *sitter.Node {
	if n.Type() == "identifier" || n.Type() == "field_identifier" || n.Type() == "qualified_identifier" {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if found := identifierIn(n.Child(i)); found != nil {
			return found
		}
	}
	return nil
}

// MangledName synthesizes a stable identity for a FUNCTION_DECL/CXX_METHOD
// cursor: its fully qualified name plus the spelling of each parameter
// type, sha256-hashed into a short hex digest. Tree-sitter has no notion of
// Itanium name mangling; a declaration and its definition only need an
// opaque identity that compares equal across the two, which this satisfies.
func (c *boundCursor) MangledName() string {
	switch c.Kind() {
	case KindFunctionDecl, KindCXXMethod:
		fq := FullyQualifiedName(c)
		h := sha256.New()
		h.Write([]byte(fq))
		for _, arg := range c.Arguments() {
			h.Write([]byte("|"))
			h.Write([]byte(arg.TypeSpelling()))
		}
		return "fn:" + hex.EncodeToString(h.Sum(nil))[:16]
	default:
		return ""
	}
}

func (c *boundCursor) Extent() SourceRange {
	start := c.node.StartPoint()
	end := c.node.EndPoint()
	return SourceRange{
		Start: Location{File: c.unit.file, Line: int(start.Row) + 1, Column: int(start.Column) + 1},
		End:   Location{File: c.unit.file, Line: int(end.Row) + 1, Column: int(end.Column) + 1},
	}
}

func (c *boundCursor) Location() Location {
	return c.Extent().Start
}

func (c *boundCursor) SemanticParent() Cursor {
	n := c.node.Parent()
	for n != nil {
		switch n.Type() {
		case "translation_unit", "class_specifier", "struct_specifier", "namespace_definition":
			return &boundCursor{unit: c.unit, node: n}
		}
		n = n.Parent()
	}
	return nil
}

func (c *boundCursor) Arguments() []Cursor {
	decl := c.declarator()
	if decl == nil {
		return nil
	}
	var params *sitter.Node
	for i := 0; i < int(decl.ChildCount()); i++ {
		if decl.Child(i).Type() == "parameter_list" {
			params = decl.Child(i)
			break
		}
	}
	if params == nil {
		return nil
	}
	var out []Cursor
	for i := 0; i < int(params.ChildCount()); i++ {
		child := params.Child(i)
		if child.Type() == "parameter_declaration" {
			out = append(out, &boundCursor{unit: c.unit, node: child})
		}
	}
	return out
}

func (c *boundCursor) Children() []Cursor {
	out := make([]Cursor, 0, c.node.ChildCount())
	for i := 0; i < int(c.node.ChildCount()); i++ {
		out = append(out, &boundCursor{unit: c.unit, node: c.node.Child(i)})
	}
	return out
}

func (c *boundCursor) TypeSpelling() string {
	if c.node.Type() != "parameter_declaration" {
		return ""
	}
	id := identifierIn(c.node)
	if id == nil {
		return c.text()
	}
	before := c.unit.source[c.node.StartByte():id.StartByte()]
	after := c.unit.source[id.EndByte():c.node.EndByte()]
	return string(before) + string(after)
}

func (c *boundCursor) ResultTypeSpelling() string {
	decl := c.declarator()
	if decl == nil {
		return ""
	}
	return string(c.unit.source[c.node.StartByte():decl.StartByte()])
}

func (c *boundCursor) GetDefinition() Cursor {
	name := c.Spelling()
	if def := c.unit.symbols.lookupDefinition(name); def != nil {
		return def
	}
	return nil
}

func (c *boundCursor) IsDefinition() bool {
	switch c.node.Type() {
	case "function_definition":
		return true
	default:
		return false
	}
}

// annotationText extracts the quoted string literal inside a
// __attribute__((annotate("..."))) subtree, mirroring how libclang's
// ANNOTATE_ATTR cursor reports its spelling as the bare annotation text
// ("imgui_api", "IM_FMTARGS(1)", ...) rather than the surrounding syntax.
func annotationText(n *sitter.Node, source []byte) string {
	var lit *sitter.Node
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if lit != nil {
			return
		}
		if n.Type() == "string_literal" {
			lit = n
			return
		}
		for i := 0; i < int(n.ChildCount()); i++ {
			walk(n.Child(i))
		}
	}
	walk(n)
	if lit == nil {
		return ""
	}
	raw := string(source[lit.StartByte():lit.EndByte()])
	return strings.Trim(raw, `"`)
}
