// Package writer renders a decompiled method, either as Java-like
// source text or as a typed statement/expression tree. Both walk the
// same structurer output (a structure.Region chain); only the leaf
// shape differs — one builds indented text, the other builds Stmt and
// Expr nodes.
package writer

import (
	"fmt"
	"strings"

	"dad/internal/dataflow"
	"dad/internal/dex"
	"dad/internal/graph"
	"dad/internal/structure"
)

// Param is one formal parameter of a rendered method.
type Param struct {
	Name string
	Type string
}

// MethodView is everything a Writer needs to render one method: the
// orchestrator builds this after the fixed pipeline and hands it to
// a Writer or the AST builder.
type MethodView struct {
	ClassName string
	Name string
	ReturnType string
	Params []Param
	Access []string
	Comments []string

	Graph *graph.Graph
	Env *dataflow.Env
	Root *structure.Region // nil for a native/abstract method
}

// Writer renders a MethodView to Java-like source text.
type Writer interface {
	WriteMethod(m MethodView) string
}

// TextWriter is the default Writer: a straight-line indented emitter,
// no different in spirit from a textual AST pretty-printer. There is no
// ecosystem Java-pretty-printer in play here; building indented text
// from a tree is a small enough job that the standard library's
// strings.Builder is the idiomatic tool, not a missing dependency.
type TextWriter struct{}

// NewTextWriter returns the default text Writer.
func NewTextWriter() *TextWriter { return &TextWriter{} }

func (w *TextWriter) WriteMethod(m MethodView) string {
	var b strings.Builder
	for _, c := range m.Comments {
		b.WriteString("// " + c + "\n")
	}
	b.WriteString(prototype(m))
	if m.Root == nil {
		b.WriteString(" {}\n")
		return b.String()
	}
	b.WriteString(" {\n")
	writeRegion(&b, m, m.Root, 1)
	b.WriteString("}\n")
	return b.String()
}

func prototype(m MethodView) string {
	var mods strings.Builder
	for _, a := range m.Access {
		mods.WriteString(a + " ")
	}
	params := make([]string, len(m.Params))
	for i, p := range m.Params {
		params[i] = JavaType(p.Type) + " " + p.Name
	}
	return fmt.Sprintf("%s%s %s(%s)", mods.String(), JavaType(m.ReturnType), m.Name, strings.Join(params, ", "))
}

func indentOf(depth int) string { return strings.Repeat(" ", depth) }

// writeRegion walks a Region chain via Next, rendering each region kind
// in turn. This is recursive in the Then/Else/Body/case/handler
// direction, which is bounded by nesting depth of actual Java control
// structures (small, unlike the structurer's own CFG-sized work-stacks)
// so plain recursion is appropriate here, unlike in the graph/structure
// passes, which only needs explicit stacks where recursion would
// scale with block count.
func writeRegion(b *strings.Builder, m MethodView, root *structure.Region, depth int) {
	indent := indentOf(depth)
	for cur := root; cur != nil; cur = cur.Next {
		switch cur.Kind {
		case structure.KindLinear:
			writeLinear(b, m, cur, depth)
		case structure.KindIf:
			writeIf(b, m, cur, depth, indent)
		case structure.KindLoop:
			writeLoop(b, m, cur, depth, indent)
		case structure.KindSwitch:
			writeSwitch(b, m, cur, depth, indent)
		case structure.KindTry:
			writeTry(b, m, cur, depth, indent)
		case structure.KindUnstructured:
			b.WriteString(indent + "// unstructured region: " + cur.Label + "\n")
		}
	}
}

func writeLinear(b *strings.Builder, m MethodView, r *structure.Region, depth int) {
	indent := indentOf(depth)
	for _, blockID := range r.LinearBlocks {
		block, ok := m.Graph.Blocks[blockID]
		if !ok {
			continue
		}
		for idx, inst := range block.Instructions {
			stmt := RenderStatement(m, blockID, idx, inst)
			if stmt != "" {
				b.WriteString(indent + stmt + "\n")
			}
		}
	}
}

func writeIf(b *strings.Builder, m MethodView, r *structure.Region, depth int, indent string) {
	b.WriteString(indent + "if (" + condText(m, r.CondBlock) + ") {\n")
	if r.Then != nil {
		writeRegion(b, m, r.Then, depth+1)
	}
	b.WriteString(indent + "}")
	if r.Else != nil {
		b.WriteString(" else {\n")
		writeRegion(b, m, r.Else, depth+1)
		b.WriteString(indent + "}")
	}
	b.WriteString("\n")
}

func writeLoop(b *strings.Builder, m MethodView, r *structure.Region, depth int, indent string) {
	switch r.LoopKind {
	case structure.LoopDoWhile:
		b.WriteString(indent + "do {\n")
		if r.Body != nil {
			writeRegion(b, m, r.Body, depth+1)
		}
		b.WriteString(indent + "} while (" + condText(m, r.Header) + ");\n")
	case structure.LoopEndless:
		b.WriteString(indent + "while (true) {\n")
		if r.Body != nil {
			writeRegion(b, m, r.Body, depth+1)
		}
		b.WriteString(indent + "}\n")
	default:
		b.WriteString(indent + "while (" + condText(m, r.Header) + ") {\n")
		if r.Body != nil {
			writeRegion(b, m, r.Body, depth+1)
		}
		b.WriteString(indent + "}\n")
	}
}

func writeSwitch(b *strings.Builder, m MethodView, r *structure.Region, depth int, indent string) {
	b.WriteString(indent + "switch (" + selectorText(m, r.Selector) + ") {\n")
	for _, c := range r.Cases {
		if c.IsDefault {
			b.WriteString(indent + " default:\n")
		} else {
			b.WriteString(fmt.Sprintf("%s case %d:\n", indent, c.Key))
		}
		if c.Body != nil {
			writeRegion(b, m, c.Body, depth+2)
		}
	}
	b.WriteString(indent + "}\n")
}

func writeTry(b *strings.Builder, m MethodView, r *structure.Region, depth int, indent string) {
	b.WriteString(indent + "try {\n")
	if r.TryBody != nil {
		writeRegion(b, m, r.TryBody, depth+1)
	}
	b.WriteString(indent + "}")
	for _, h := range r.Handlers {
		b.WriteString(" catch (" + JavaType(h.Type) + " e) {\n")
		if h.Body != nil {
			writeRegion(b, m, h.Body, depth+1)
		}
		b.WriteString(indent + "}")
	}
	b.WriteString("\n")
}

// condText renders the comparison feeding a conditional block's branch:
// the Terminator is the branch itself, so the condition is its
// preceding compare instruction, if any.
func condText(m MethodView, blockID int) string {
	block, ok := m.Graph.Blocks[blockID]
	if !ok || len(block.Instructions) == 0 {
		return "?"
	}
	for i := len(block.Instructions) - 1; i >= 0; i-- {
		inst := block.Instructions[i]
		if inst.Kind == dex.KCmp {
			return operandText(m, blockID, i, 0) + " " + inst.Op + " " + operandText(m, blockID, i, 1)
		}
	}
	return operandText(m, blockID, len(block.Instructions)-1, 0)
}

func selectorText(m MethodView, blockID int) string {
	block, ok := m.Graph.Blocks[blockID]
	if !ok || len(block.Instructions) == 0 {
		return "?"
	}
	return operandText(m, blockID, len(block.Instructions)-1, 0)
}
