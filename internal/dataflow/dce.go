package dataflow

import "dad/internal/graph"

// DeadCodeElimination removes instructions whose variable has no
// remaining uses and carries no side effect, then removes blocks no
// longer reachable from the entry. It reports whether anything changed,
// so the orchestrator can re-run it to a fixpoint after
// register_propagation exposes new dead stores.
func DeadCodeElimination(ctx *Context) bool {
	changed := false
	changed = eliminateDeadInstructions(ctx) || changed
	changed = eliminateDeadBlocks(ctx) || changed
	return changed
}

func eliminateDeadInstructions(ctx *Context) bool {
	changed := false
	for _, id := range ctx.Graph.RPOOrder() {
		block, ok := ctx.Graph.Blocks[id]
		if !ok {
			continue
		}
		kept := block.Instructions[:0]
		for idx, inst := range block.Instructions {
			reg, hasDest := inst.Writes()
			if !hasDest || inst.SideEffects() {
				kept = append(kept, inst)
				continue
			}
			def := DefSite{Reg: reg, Block: id, Index: idx}
			if len(ctx.DefUses[def]) > 0 {
				kept = append(kept, inst)
				continue
			}
			// Dead store: drop it and forget it ever defined anything.
			delete(ctx.DefUses, def)
			if ctx.Env != nil {
				delete(ctx.Env.byDef, def)
			}
			changed = true
		}
		block.Instructions = kept
	}
	return changed
}

// eliminateDeadBlocks removes every block not reachable from the entry
// by an explicit-stack DFS (no unbounded recursion).
func eliminateDeadBlocks(ctx *Context) bool {
	g := ctx.Graph
	reachable := reachableSet(g)
	changed := false
	for id := range g.Blocks {
		if !reachable[id] {
			g.RemoveBlock(id)
			changed = true
		}
	}
	return changed
}

func reachableSet(g *graph.Graph) map[int]bool {
	visited := map[int]bool{g.Entry: true}
	stack := []int{g.Entry}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		block, ok := g.Blocks[id]
		if !ok {
			continue
		}
		for _, e := range block.Out {
			if !visited[e.To] {
				visited[e.To] = true
				stack = append(stack, e.To)
			}
		}
	}
	return visited
}
