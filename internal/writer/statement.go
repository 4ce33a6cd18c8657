package writer

import (
	"fmt"
	"strconv"
	"strings"

	"dad/internal/dataflow"
	"dad/internal/descriptor"
	"dad/internal/dex"
)

// JavaType renders a raw Dalvik type descriptor in dotted Java form.
func JavaType(raw string) string {
	if raw == "" {
		return "Object"
	}
	return descriptor.JavaName(raw)
}

// variableName returns the Java-source name place_declarations and
// split_variables settled on for a def/use site's variable, falling
// back to the raw register when no Env is available (e.g. a native
// method's stub rendering never reaches here).
func variableName(env *dataflow.Env, v *dataflow.Variable) string {
	if v == nil {
		return "?"
	}
	if v.DeclBlock == -1 && v.DeclIndex == -1 && isParam(v) {
		return paramName(v)
	}
	return fmt.Sprintf("v%d", v.ID)
}

func isParam(v *dataflow.Variable) bool {
	for _, d := range v.Defs {
		if d.Index == -1 {
			return true
		}
	}
	return false
}

func paramName(v *dataflow.Variable) string {
	return fmt.Sprintf("p%d", int(v.Reg))
}

// operandText renders instruction inst's (at blockID:idx) source
// operand at position opIdx: either a fused sub-expression, a literal,
// or a variable name resolved through the use-site's reaching def.
func operandText(m MethodView, blockID, idx, opIdx int) string {
	block, ok := m.Graph.Blocks[blockID]
	if !ok || idx < 0 || idx >= len(block.Instructions) {
		return "?"
	}
	inst := block.Instructions[idx]
	if sub, ok := inst.SubExprs[opIdx]; ok {
		return RenderExpr(m, blockID, idx, sub)
	}
	if opIdx < 0 || opIdx >= len(inst.Srcs) {
		return "?"
	}
	use := dataflow.UseSite{Reg: inst.Srcs[opIdx], Block: blockID, Index: idx, Operand: opIdx}
	if m.Env == nil {
		return fmt.Sprintf("r%d", int(inst.Srcs[opIdx]))
	}
	return variableName(m.Env, m.Env.VariableForUse(use))
}

// destText renders the variable an instruction defines, via its def
// site rather than any use, since a dead-but-kept store may have none.
func destText(m MethodView, blockID, idx int, reg dex.Register) string {
	if m.Env == nil {
		return fmt.Sprintf("r%d", int(reg))
	}
	def := dataflow.DefSite{Reg: reg, Block: blockID, Index: idx}
	return variableName(m.Env, m.Env.VariableForDef(def))
}

// constLiteral renders a KConst payload as Java source text.
func constLiteral(v any) string {
	switch t := v.(type) {
	case bool:
		return strconv.FormatBool(t)
	case string:
		return strconv.Quote(t)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case int64:
		return strconv.FormatInt(t, 10) + "L"
	case float32:
		return strconv.FormatFloat(float64(t), 'g', -1, 32) + "f"
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%v", t)
	}
}

// RenderExpr renders inst as a value expression, used both for
// top-level statements and for inlined SubExprs (post-propagation).
func RenderExpr(m MethodView, blockID, idx int, inst *dex.Instruction) string {
	switch inst.Kind {
	case dex.KConst:
		return constLiteral(inst.Const)
	case dex.KMove:
		return operandText(m, blockID, idx, 0)
	case dex.KBinOp:
		if len(inst.Srcs) == 2 {
			return operandText(m, blockID, idx, 0) + " " + inst.Op + " " + operandText(m, blockID, idx, 1)
		}
		return inst.Op + operandText(m, blockID, idx, 0)
	case dex.KCmp:
		return operandText(m, blockID, idx, 0) + " " + inst.Op + " " + operandText(m, blockID, idx, 1)
	case dex.KIGet:
		return operandText(m, blockID, idx, 0) + "." + inst.FieldName
	case dex.KSGet:
		return JavaType(inst.FieldOwner) + "." + inst.FieldName
	case dex.KAGet:
		return operandText(m, blockID, idx, 0) + "[" + operandText(m, blockID, idx, 1) + "]"
	case dex.KNewInstance:
		return "new " + JavaType(inst.Type) + ""
	case dex.KNewArray:
		return "new " + JavaType(inst.ArrayType) + "[" + operandText(m, blockID, idx, 0) + "]"
	case dex.KCheckCast:
		return "(" + JavaType(inst.Type) + ") " + operandText(m, blockID, idx, 0)
	case dex.KInvoke:
		return renderInvoke(m, blockID, idx, inst)
	case dex.KNewObject:
		return renderNewObject(m, blockID, idx, inst)
	default:
		return "/* " + fmt.Sprint(inst.Kind) + " */"
	}
}

func renderInvoke(m MethodView, blockID, idx int, inst *dex.Instruction) string {
	args := make([]string, len(inst.Srcs))
	for i := range inst.Srcs {
		args[i] = operandText(m, blockID, idx, i)
	}
	recv := ""
	rest := args
	if len(args) > 0 {
		recv = args[0] + "."
		rest = args[1:]
	}
	call := fmt.Sprintf("%s%s(%s)", recv, inst.MethodName, strings.Join(rest, ", "))
	if ret := descriptor.MethodReturnType(inst.MethodDesc); ret != "" && ret != "void" {
		call += " /* " + ret + " */"
	}
	return call
}

func renderNewObject(m MethodView, blockID, idx int, inst *dex.Instruction) string {
	args := make([]string, len(inst.Srcs))
	for i := range inst.Srcs {
		args[i] = operandText(m, blockID, idx, i)
	}
	return fmt.Sprintf("new %s(%s)", JavaType(inst.Type), strings.Join(args, ", "))
}

// RenderStatement renders one instruction as a full Java-like
// statement line, or "" for instructions that produce no visible
// statement (a nop, a monitor enter/exit, a goto, an if/switch branch
// rendered by its enclosing region, or a side-effect-free instruction
// with no destination).
func RenderStatement(m MethodView, blockID, idx int, inst *dex.Instruction) string {
	switch inst.Kind {
	case dex.KNop, dex.KMonitorEnter, dex.KMonitorExit:
		return ""
	case dex.KGoto:
		return ""
	case dex.KIf, dex.KSwitch:
		// rendered by the enclosing If/Loop/Switch region, not as a
		// standalone statement
		return ""
	case dex.KReturn:
		if len(inst.Srcs) == 0 {
			return "return;"
		}
		return "return " + operandText(m, blockID, idx, 0) + ";"
	case dex.KThrow:
		return "throw " + operandText(m, blockID, idx, 0) + ";"
	case dex.KIPut:
		return operandText(m, blockID, idx, 0) + "." + inst.FieldName + " = " + operandText(m, blockID, idx, 1) + ";"
	case dex.KSPut:
		return JavaType(inst.FieldOwner) + "." + inst.FieldName + " = " + operandText(m, blockID, idx, 0) + ";"
	case dex.KAPut:
		return operandText(m, blockID, idx, 0) + "[" + operandText(m, blockID, idx, 1) + "] = " + operandText(m, blockID, idx, 2) + ";"
	default:
		if !inst.HasDest {
			if !inst.SideEffects() {
				return ""
			}
			return RenderExpr(m, blockID, idx, inst) + ";"
		}
		decl := ""
		if v := declAt(m, blockID, idx); v != nil {
			decl = v.Type + " "
		}
		stmt := fmt.Sprintf("%s%s = %s;", decl, destText(m, blockID, idx, inst.Dest), RenderExpr(m, blockID, idx, inst))
		if inst.Comment != "" {
			stmt += " // " + inst.Comment
		}
		return stmt
	}
}

// declAt reports the variable, if any, whose place_declarations site is
// exactly this instruction, so its first assignment can carry a type
// prefix the way a Java local declaration would.
func declAt(m MethodView, blockID, idx int) *dataflow.Variable {
	if m.Env == nil {
		return nil
	}
	for _, v := range m.Env.Variables {
		if v.DeclBlock == blockID && v.DeclIndex == idx {
			return v
		}
	}
	return nil
}
