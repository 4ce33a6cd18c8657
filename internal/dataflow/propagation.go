package dataflow

import "dad/internal/dex"

// RegisterPropagation retargets every use of a bare copy (`move v, w`)
// to read directly from whatever definitions reached w, then drops the
// move's own definition so a following DeadCodeElimination pass can
// delete the now-unreferenced instruction.
func RegisterPropagation(ctx *Context) bool {
	changed := false
	for _, id := range ctx.Graph.RPOOrder() {
		block, ok := ctx.Graph.Blocks[id]
		if !ok {
			continue
		}
		for idx, inst := range block.Instructions {
			if inst.Kind != dex.KMove || !inst.HasDest || len(inst.Srcs) != 1 {
				continue
			}
			moveDef := DefSite{Reg: inst.Dest, Block: id, Index: idx}
			srcUse := UseSite{Reg: inst.Srcs[0], Block: id, Index: idx, Operand: 0}
			sourceDefs := ctx.UseDefs[srcUse]
			if len(sourceDefs) == 0 {
				continue
			}

			for _, u := range ctx.DefUses[moveDef] {
				ctx.UseDefs[u] = retarget(ctx.UseDefs[u], moveDef, sourceDefs)
				for _, sd := range sourceDefs {
					ctx.DefUses[sd] = appendUseOnce(ctx.DefUses[sd], u)
				}
				rewriteOperand(ctx, u, inst.Srcs[0])
			}
			delete(ctx.DefUses, moveDef)
			if ctx.Env != nil {
				delete(ctx.Env.byDef, moveDef)
			}
			changed = true
		}
	}
	return changed
}

func retarget(defs []DefSite, drop DefSite, replacement []DefSite) []DefSite {
	out := make([]DefSite, 0, len(defs)+len(replacement))
	for _, d := range defs {
		if d != drop {
			out = append(out, d)
		}
	}
	for _, r := range replacement {
		found := false
		for _, d := range out {
			if d == r {
				found = true
				break
			}
		}
		if !found {
			out = append(out, r)
		}
	}
	return sortedDefSites(out)
}

func appendUseOnce(uses []UseSite, u UseSite) []UseSite {
	for _, existing := range uses {
		if existing == u {
			return uses
		}
	}
	return append(uses, u)
}

func rewriteOperand(ctx *Context, u UseSite, reg dex.Register) {
	block, ok := ctx.Graph.Blocks[u.Block]
	if !ok || u.Index >= len(block.Instructions) {
		return
	}
	inst := block.Instructions[u.Index]
	if u.Operand < len(inst.Srcs) {
		inst.Srcs[u.Operand] = reg
	}
}

// NewInstancePropagation fuses a `new-instance v, T` definition with the
// single `invoke-direct v, args.., T.<init>` that consumes it as a
// receiver into one KNewObject node (grounded in
// dex.KNewObject's doc comment). The original new-instance instruction
// stays in its block: DeadCodeElimination treats new-instance as
// side-effecting and does not remove it.
func NewInstancePropagation(ctx *Context) bool {
	changed := false
	for _, id := range ctx.Graph.RPOOrder() {
		block, ok := ctx.Graph.Blocks[id]
		if !ok {
			continue
		}
		for idx, inst := range block.Instructions {
			if inst.Kind != dex.KNewInstance || !inst.HasDest {
				continue
			}
			def := DefSite{Reg: inst.Dest, Block: id, Index: idx}
			uses := ctx.DefUses[def]
			if len(uses) != 1 || uses[0].Operand != 0 {
				continue
			}
			ctorUse := uses[0]
			ctorBlock, ok := ctx.Graph.Blocks[ctorUse.Block]
			if !ok || ctorUse.Index >= len(ctorBlock.Instructions) {
				continue
			}
			ctor := ctorBlock.Instructions[ctorUse.Index]
			if ctor.Kind != dex.KInvoke || ctor.MethodName != "<init>" || ctor.MethodOwner != inst.Type {
				continue
			}

			fused := &dex.Instruction{
				Kind: dex.KNewObject,
				Dest: inst.Dest,
				HasDest: true,
				Srcs: append([]dex.Register(nil), ctor.Srcs[1:]...),
				Type: inst.Type,
				MethodOwner: ctor.MethodOwner,
				MethodName: ctor.MethodName,
				MethodDesc: ctor.MethodDesc,
			}
			ctorBlock.Instructions[ctorUse.Index] = fused

			// The constructor call no longer reads the receiver register
			// at operand 0; every other operand shifted down by one.
			delete(ctx.UseDefs, ctorUse)
			for i := 1; i < len(ctor.Srcs); i++ {
				oldUse := UseSite{Reg: ctor.Srcs[i], Block: ctorUse.Block, Index: ctorUse.Index, Operand: i}
				newUse := UseSite{Reg: ctor.Srcs[i], Block: ctorUse.Block, Index: ctorUse.Index, Operand: i - 1}
				if defs, ok := ctx.UseDefs[oldUse]; ok {
					ctx.UseDefs[newUse] = defs
					delete(ctx.UseDefs, oldUse)
					for _, d := range defs {
						ctx.DefUses[d] = replaceUse(ctx.DefUses[d], oldUse, newUse)
					}
				}
			}
			delete(ctx.DefUses, def)
			if ctx.Env != nil {
				delete(ctx.Env.byDef, def)
			}
			changed = true
		}
	}
	return changed
}

func replaceUse(uses []UseSite, old, new UseSite) []UseSite {
	out := make([]UseSite, len(uses))
	for i, u := range uses {
		if u == old {
			out[i] = new
		} else {
			out[i] = u
		}
	}
	return out
}
