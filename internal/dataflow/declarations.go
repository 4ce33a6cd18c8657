package dataflow

import "dad/internal/graph"

// PlaceDeclarations decides, for every split variable, the block and
// in-block index where its declaration belongs: the lowest common
// dominator of every block that defines or uses it, placed just before
// the earliest defining instruction reachable there: declare each
// variable at the lowest point that dominates every use. A
// parameter variable (one of whose defs is the synthetic entry def,
// Index == -1) is declared nowhere — the Writer renders it as a method
// parameter instead.
func PlaceDeclarations(ctx *Context) {
	if ctx.Env == nil {
		return
	}
	ctx.Graph.ComputeRPO()
	idom := ctx.Graph.ImmediateDominators()

	for _, v := range ctx.Env.Variables {
		if isParamVariable(v) {
			v.DeclBlock, v.DeclIndex = -1, -1
			continue
		}

		sites := relevantBlocks(ctx, v)
		if len(sites) == 0 {
			continue
		}
		block := graph.LowestCommonDominator(idom, sites)
		v.DeclBlock = block
		v.DeclIndex = earliestIndexIn(v, block)
	}
}

func isParamVariable(v *Variable) bool {
	for _, d := range v.Defs {
		if d.Index == -1 {
			return true
		}
	}
	return false
}

// relevantBlocks collects every block that defines or uses v, deduped.
func relevantBlocks(ctx *Context, v *Variable) []int {
	seen := make(map[int]bool)
	var blocks []int
	add := func(b int) {
		if !seen[b] {
			seen[b] = true
			blocks = append(blocks, b)
		}
	}
	for _, d := range v.Defs {
		add(d.Block)
		for _, u := range ctx.DefUses[d] {
			add(u.Block)
		}
	}
	return blocks
}

// earliestIndexIn returns the lowest instruction index within block that
// defines v, or 0 if v is only used there (its definition dominates the
// block from outside).
func earliestIndexIn(v *Variable, block int) int {
	earliest := -1
	for _, d := range v.Defs {
		if d.Block != block {
			continue
		}
		if earliest == -1 || d.Index < earliest {
			earliest = d.Index
		}
	}
	if earliest == -1 {
		return 0
	}
	return earliest
}
