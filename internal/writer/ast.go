package writer

import (
	"fmt"

	"dad/internal/dataflow"
	"dad/internal/descriptor"
	"dad/internal/dex"
	"dad/internal/structure"
)

// MethodAST is the JSON-serializable shape of one decompiled method: a
// flat triple plus a real statement tree, built by walking the
// structurer's Region output directly rather than by re-parsing the
// TextWriter's rendered lines.
type MethodAST struct {
	Triple string `json:"triple"` // "ClassL;->name(params)ret"
	Flags []string `json:"flags"`
	Ret string `json:"ret"`
	Params []string `json:"params"`
	Comments []string `json:"comments"`
	Body []Stmt `json:"body"`
}

// ClassAST is the JSON-serializable shape of one decompiled class.
type ClassAST struct {
	RawName string `json:"rawname"`
	Name string `json:"name"`
	Super string `json:"super"`
	Flags []string `json:"flags"`
	IsInterface bool `json:"isInterface"`
	Interfaces []string `json:"interfaces"`
	Annotations []string `json:"annotations"`
	Fields []FieldAST `json:"fields"`
	Methods []MethodAST `json:"methods"`
}

// FieldAST is the JSON-serializable shape of one decompiled field.
type FieldAST struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Flags []string `json:"flags"`
	Literal string `json:"literal,omitempty"`
}

// ExprKind tags the variant an Expr carries, the same tagged-variant
// shape dex.Instruction and structure.Region already use: dispatch by
// exhaustive switch on Kind, not by type hierarchy.
type ExprKind int

const (
	ExprLiteral ExprKind = iota
	ExprVariable
	ExprBinOp
	ExprUnaryOp
	ExprFieldGet
	ExprArrayGet
	ExprNew
	ExprNewArray
	ExprCast
	ExprCall
	// ExprRaw is the fallback for an instruction kind with no structured
	// expression shape of its own.
	ExprRaw
)

// Expr is a node in an expression tree: a literal, a variable
// reference, or an operator/call/field-access applied to child Exprs.
type Expr struct {
	Kind ExprKind `json:"kind"`
	Text string `json:"text,omitempty"` // literal text, variable/field/method name, operator, or raw fallback
	Type string `json:"type,omitempty"` // Java type, for New/NewArray/Cast/a static field's owner
	Args []Expr `json:"args,omitempty"` // operands, receiver+args, index target+key, in kind-specific order
}

// StmtKind tags the variant a Stmt carries.
type StmtKind int

const (
	StmtAssign StmtKind = iota
	StmtExprStmt // a bare call or other side-effecting expression with no destination
	StmtFieldSet // an instance/static/array field or element write
	StmtReturn
	StmtThrow
	StmtIf
	StmtLoop
	StmtSwitch
	StmtTry
	StmtUnstructured
)

// Stmt is a node in the statement tree BuildMethodAST produces: a
// conditional, loop, switch or try carries its nested bodies as []Stmt,
// so a caller can walk a method's control-flow shape directly instead
// of parsing indented text.
type Stmt struct {
	Kind StmtKind `json:"kind"`

	// Assign / FieldSet / ExprStmt / Return / Throw
	Target *Expr `json:"target,omitempty"`
	DeclType string `json:"declType,omitempty"` // non-empty when this assignment is also the variable's declaration
	Value *Expr `json:"value,omitempty"`
	Note string `json:"note,omitempty"` // a TypeResolutionAmbiguity comment, if any

	// If
	Cond *Expr `json:"cond,omitempty"`
	Then []Stmt `json:"then,omitempty"`
	Else []Stmt `json:"else,omitempty"`

	// Loop: LoopKind is one of "while", "doWhile", "endless"
	LoopKind string `json:"loopKind,omitempty"`
	Body []Stmt `json:"body,omitempty"`

	// Switch
	Selector *Expr `json:"selector,omitempty"`
	Cases []CaseStmt `json:"cases,omitempty"`

	// Try
	TryBody []Stmt `json:"tryBody,omitempty"`
	Handlers []HandlerStmt `json:"handlers,omitempty"`

	Label string `json:"label,omitempty"` // Unstructured
}

// CaseStmt is one arm of a StmtSwitch.
type CaseStmt struct {
	Key int64 `json:"key"`
	IsDefault bool `json:"isDefault"`
	Body []Stmt `json:"body"`
}

// HandlerStmt is one catch clause of a StmtTry.
type HandlerStmt struct {
	Type string `json:"type"`
	Body []Stmt `json:"body"`
}

// BuildMethodAST builds the AST shape for m by walking m.Root the same
// way writeRegion does, but constructing typed Stmt/Expr nodes instead
// of indented text.
func BuildMethodAST(m MethodView) MethodAST {
	triple := m.ClassName + "->" + m.Name + "(" + paramDescriptors(m.Params) + ")" + m.ReturnType

	params := make([]string, len(m.Params))
	for i, p := range m.Params {
		params[i] = p.Type
	}

	var body []Stmt
	if m.Root != nil {
		body = buildStmts(m, m.Root)
	}

	return MethodAST{
		Triple: triple,
		Flags: append([]string(nil), m.Access...),
		Ret: m.ReturnType,
		Params: params,
		Comments: append([]string(nil), m.Comments...),
		Body: body,
	}
}

func paramDescriptors(params []Param) string {
	out := ""
	for _, p := range params {
		out += p.Type
	}
	return out
}

// buildStmts is BuildMethodAST's analogue of writeRegion: it walks a
// Region chain via Next and emits one Stmt per region, recursing into
// Then/Else/Body/case/handler the same way the TextWriter does.
func buildStmts(m MethodView, root *structure.Region) []Stmt {
	var out []Stmt
	for cur := root; cur != nil; cur = cur.Next {
		switch cur.Kind {
		case structure.KindLinear:
			out = append(out, buildLinearStmts(m, cur)...)
		case structure.KindIf:
			out = append(out, buildIfStmt(m, cur))
		case structure.KindLoop:
			out = append(out, buildLoopStmt(m, cur))
		case structure.KindSwitch:
			out = append(out, buildSwitchStmt(m, cur))
		case structure.KindTry:
			out = append(out, buildTryStmt(m, cur))
		case structure.KindUnstructured:
			out = append(out, Stmt{Kind: StmtUnstructured, Label: cur.Label})
		}
	}
	return out
}

func buildLinearStmts(m MethodView, r *structure.Region) []Stmt {
	var out []Stmt
	for _, blockID := range r.LinearBlocks {
		block, ok := m.Graph.Blocks[blockID]
		if !ok {
			continue
		}
		for idx, inst := range block.Instructions {
			if s, ok := buildInstStmt(m, blockID, idx, inst); ok {
				out = append(out, s)
			}
		}
	}
	return out
}

func buildIfStmt(m MethodView, r *structure.Region) Stmt {
	cond := buildCondExpr(m, r.CondBlock)
	s := Stmt{Kind: StmtIf, Cond: &cond}
	if r.Then != nil {
		s.Then = buildStmts(m, r.Then)
	}
	if r.Else != nil {
		s.Else = buildStmts(m, r.Else)
	}
	return s
}

func buildLoopStmt(m MethodView, r *structure.Region) Stmt {
	s := Stmt{Kind: StmtLoop}
	switch r.LoopKind {
	case structure.LoopDoWhile:
		s.LoopKind = "doWhile"
		cond := buildCondExpr(m, r.Header)
		s.Cond = &cond
	case structure.LoopEndless:
		s.LoopKind = "endless"
	default:
		s.LoopKind = "while"
		cond := buildCondExpr(m, r.Header)
		s.Cond = &cond
	}
	if r.Body != nil {
		s.Body = buildStmts(m, r.Body)
	}
	return s
}

func buildSwitchStmt(m MethodView, r *structure.Region) Stmt {
	sel := buildSelectorExpr(m, r.Selector)
	s := Stmt{Kind: StmtSwitch, Selector: &sel}
	for _, c := range r.Cases {
		cs := CaseStmt{Key: c.Key, IsDefault: c.IsDefault}
		if c.Body != nil {
			cs.Body = buildStmts(m, c.Body)
		}
		s.Cases = append(s.Cases, cs)
	}
	return s
}

func buildTryStmt(m MethodView, r *structure.Region) Stmt {
	s := Stmt{Kind: StmtTry}
	if r.TryBody != nil {
		s.TryBody = buildStmts(m, r.TryBody)
	}
	for _, h := range r.Handlers {
		hs := HandlerStmt{Type: JavaType(h.Type)}
		if h.Body != nil {
			hs.Body = buildStmts(m, h.Body)
		}
		s.Handlers = append(s.Handlers, hs)
	}
	return s
}

// buildInstStmt builds the Stmt for one instruction, mirroring
// RenderStatement's dispatch but producing a typed node; the second
// return value is false for instructions with no visible statement (a
// nop, a monitor enter/exit, a goto, a branch rendered by its enclosing
// region instead, or a side-effect-free instruction with no destination).
func buildInstStmt(m MethodView, blockID, idx int, inst *dex.Instruction) (Stmt, bool) {
	switch inst.Kind {
	case dex.KNop, dex.KMonitorEnter, dex.KMonitorExit, dex.KGoto, dex.KIf, dex.KSwitch:
		return Stmt{}, false
	case dex.KReturn:
		if len(inst.Srcs) == 0 {
			return Stmt{Kind: StmtReturn}, true
		}
		v := buildOperand(m, blockID, idx, 0)
		return Stmt{Kind: StmtReturn, Value: &v}, true
	case dex.KThrow:
		v := buildOperand(m, blockID, idx, 0)
		return Stmt{Kind: StmtThrow, Value: &v}, true
	case dex.KIPut:
		target := Expr{Kind: ExprFieldGet, Text: inst.FieldName, Args: []Expr{buildOperand(m, blockID, idx, 0)}}
		val := buildOperand(m, blockID, idx, 1)
		return Stmt{Kind: StmtFieldSet, Target: &target, Value: &val}, true
	case dex.KSPut:
		target := Expr{Kind: ExprFieldGet, Text: inst.FieldName, Type: JavaType(inst.FieldOwner)}
		val := buildOperand(m, blockID, idx, 0)
		return Stmt{Kind: StmtFieldSet, Target: &target, Value: &val}, true
	case dex.KAPut:
		target := Expr{Kind: ExprArrayGet, Args: []Expr{buildOperand(m, blockID, idx, 0), buildOperand(m, blockID, idx, 1)}}
		val := buildOperand(m, blockID, idx, 2)
		return Stmt{Kind: StmtFieldSet, Target: &target, Value: &val}, true
	default:
		if !inst.HasDest {
			if !inst.SideEffects() {
				return Stmt{}, false
			}
			v := buildExpr(m, blockID, idx, inst)
			return Stmt{Kind: StmtExprStmt, Value: &v}, true
		}
		declType := ""
		if v := declAt(m, blockID, idx); v != nil {
			declType = v.Type
		}
		target := Expr{Kind: ExprVariable, Text: destText(m, blockID, idx, inst.Dest)}
		value := buildExpr(m, blockID, idx, inst)
		return Stmt{Kind: StmtAssign, Target: &target, DeclType: declType, Value: &value, Note: inst.Comment}, true
	}
}

// buildExpr is buildInstStmt/buildOperand's analogue of RenderExpr: it
// builds the Expr node for inst's value instead of its rendered text.
func buildExpr(m MethodView, blockID, idx int, inst *dex.Instruction) Expr {
	switch inst.Kind {
	case dex.KConst:
		return Expr{Kind: ExprLiteral, Text: constLiteral(inst.Const)}
	case dex.KMove:
		return buildOperand(m, blockID, idx, 0)
	case dex.KBinOp:
		if len(inst.Srcs) == 2 {
			return Expr{Kind: ExprBinOp, Text: inst.Op, Args: []Expr{buildOperand(m, blockID, idx, 0), buildOperand(m, blockID, idx, 1)}}
		}
		return Expr{Kind: ExprUnaryOp, Text: inst.Op, Args: []Expr{buildOperand(m, blockID, idx, 0)}}
	case dex.KCmp:
		return Expr{Kind: ExprBinOp, Text: inst.Op, Args: []Expr{buildOperand(m, blockID, idx, 0), buildOperand(m, blockID, idx, 1)}}
	case dex.KIGet:
		return Expr{Kind: ExprFieldGet, Text: inst.FieldName, Args: []Expr{buildOperand(m, blockID, idx, 0)}}
	case dex.KSGet:
		return Expr{Kind: ExprFieldGet, Text: inst.FieldName, Type: JavaType(inst.FieldOwner)}
	case dex.KAGet:
		return Expr{Kind: ExprArrayGet, Args: []Expr{buildOperand(m, blockID, idx, 0), buildOperand(m, blockID, idx, 1)}}
	case dex.KNewInstance:
		return Expr{Kind: ExprNew, Type: JavaType(inst.Type)}
	case dex.KNewArray:
		return Expr{Kind: ExprNewArray, Type: JavaType(inst.ArrayType), Args: []Expr{buildOperand(m, blockID, idx, 0)}}
	case dex.KCheckCast:
		return Expr{Kind: ExprCast, Type: JavaType(inst.Type), Args: []Expr{buildOperand(m, blockID, idx, 0)}}
	case dex.KInvoke:
		args := make([]Expr, len(inst.Srcs))
		for i := range inst.Srcs {
			args[i] = buildOperand(m, blockID, idx, i)
		}
		return Expr{Kind: ExprCall, Text: inst.MethodName, Type: descriptor.MethodReturnType(inst.MethodDesc), Args: args}
	case dex.KNewObject:
		args := make([]Expr, len(inst.Srcs))
		for i := range inst.Srcs {
			args[i] = buildOperand(m, blockID, idx, i)
		}
		return Expr{Kind: ExprNew, Type: JavaType(inst.Type), Args: args}
	default:
		return Expr{Kind: ExprRaw, Text: fmt.Sprint(inst.Kind)}
	}
}

// buildOperand is operandText's analogue: it resolves inst's source
// operand at opIdx to an Expr node, recursing into a fused SubExprs
// producer rather than re-rendering its text.
func buildOperand(m MethodView, blockID, idx, opIdx int) Expr {
	block, ok := m.Graph.Blocks[blockID]
	if !ok || idx < 0 || idx >= len(block.Instructions) {
		return Expr{Kind: ExprRaw, Text: "?"}
	}
	inst := block.Instructions[idx]
	if sub, ok := inst.SubExprs[opIdx]; ok {
		return buildExpr(m, blockID, idx, sub)
	}
	if opIdx < 0 || opIdx >= len(inst.Srcs) {
		return Expr{Kind: ExprRaw, Text: "?"}
	}
	if m.Env == nil {
		return Expr{Kind: ExprVariable, Text: fmt.Sprintf("r%d", int(inst.Srcs[opIdx]))}
	}
	use := dataflow.UseSite{Reg: inst.Srcs[opIdx], Block: blockID, Index: idx, Operand: opIdx}
	return Expr{Kind: ExprVariable, Text: variableName(m.Env, m.Env.VariableForUse(use))}
}

// buildCondExpr is condText's analogue: the branch block's terminator
// is the branch itself, so the condition is its preceding compare
// instruction, if any.
func buildCondExpr(m MethodView, blockID int) Expr {
	block, ok := m.Graph.Blocks[blockID]
	if !ok || len(block.Instructions) == 0 {
		return Expr{Kind: ExprRaw, Text: "?"}
	}
	for i := len(block.Instructions) - 1; i >= 0; i-- {
		inst := block.Instructions[i]
		if inst.Kind == dex.KCmp {
			return Expr{Kind: ExprBinOp, Text: inst.Op, Args: []Expr{buildOperand(m, blockID, i, 0), buildOperand(m, blockID, i, 1)}}
		}
	}
	return buildOperand(m, blockID, len(block.Instructions)-1, 0)
}

func buildSelectorExpr(m MethodView, blockID int) Expr {
	block, ok := m.Graph.Blocks[blockID]
	if !ok || len(block.Instructions) == 0 {
		return Expr{Kind: ExprRaw, Text: "?"}
	}
	return buildOperand(m, blockID, len(block.Instructions)-1, 0)
}
