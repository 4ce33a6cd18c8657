package dataflow

import (
	"dad/internal/descriptor"
	"dad/internal/dex"
)

// ObjectFallback is the type resolve_variables_type falls back to when a
// variable's definitions disagree. It is used for every disagreement,
// whether the definitions are primitive or reference types; no
// widest-primitive or common-supertype choice is made.
const ObjectFallback = "java.lang.Object"

// ResolveVariablesType assigns each split variable a Java source type by
// unifying the descriptor evidence at every one of its definitions.
// A variable whose definitions disagree falls back to
// ObjectFallback and gets a TypeResolutionAmbiguity note attached to
// each defining instruction whose type differs from the first one
// seen: the method still
// decompiles, the disagreement just surfaces as a comment rather than
// failing the method outright.
func ResolveVariablesType(ctx *Context) {
	if ctx.Env == nil {
		return
	}
	for _, v := range ctx.Env.Variables {
		resolveOne(ctx, v)
	}
}

func resolveOne(ctx *Context, v *Variable) {
	resolved := ""
	conflict := false
	var conflicting []DefSite

	for _, d := range v.Defs {
		t := inferDefType(ctx, d)
		if t == "" {
			continue
		}
		switch {
		case resolved == "":
			resolved = t
		case resolved != t:
			conflict = true
			conflicting = append(conflicting, d)
		}
	}

	if !conflict {
		v.Type = resolved
		return
	}
	v.Type = ObjectFallback
	note := "ambiguous inferred type: definitions disagreed, fell back to " + ObjectFallback
	for _, d := range conflicting {
		if d.Index < 0 {
			continue
		}
		block, ok := ctx.Graph.Blocks[d.Block]
		if !ok || d.Index >= len(block.Instructions) {
			continue
		}
		inst := block.Instructions[d.Index]
		if inst.Comment == "" {
			inst.Comment = note
		}
	}
}

// inferDefType reads the descriptor evidence a single definition site
// carries. Parameter definitions (Index == -1) carry no instruction and
// contribute nothing here; the orchestrator seeds a parameter variable
// left untyped from the method signature after this pass runs.
func inferDefType(ctx *Context, d DefSite) string {
	if d.Index < 0 {
		return ""
	}
	block, ok := ctx.Graph.Blocks[d.Block]
	if !ok || d.Index >= len(block.Instructions) {
		return ""
	}
	inst := block.Instructions[d.Index]

	switch inst.Kind {
	case dex.KNewInstance, dex.KNewObject, dex.KCheckCast, dex.KIGet, dex.KSGet, dex.KAGet:
		if inst.Type != "" {
			return descriptor.JavaName(inst.Type)
		}
	case dex.KInvoke:
		if inst.Type != "" {
			return descriptor.JavaName(inst.Type)
		}
	case dex.KConst:
		return constType(inst)
	case dex.KBinOp, dex.KCmp:
		if inst.Type != "" {
			return descriptor.JavaName(inst.Type)
		}
		return "int"
	}
	return ""
}

func constType(inst *dex.Instruction) string {
	switch inst.Const.(type) {
	case bool:
		return "boolean"
	case string:
		return "java.lang.String"
	case int32, int64, int:
		return "int"
	default:
		if inst.Type != "" {
			return descriptor.JavaName(inst.Type)
		}
		return ""
	}
}
