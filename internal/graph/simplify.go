package graph

import "dad/internal/dex"

// SplitIfNodes splits any conditional block whose body holds statements
// besides its terminating branch into a pre-header (those statements,
// falling through) and a bare header (just the branch). The structurer
// wants headers to be pure decision points.
func SplitIfNodes(g *Graph) {
	for _, id := range g.RPOOrder() {
		block := g.Blocks[id]
		term := block.Terminator()
		if term == nil || term.Branches() != dex.BranchIf {
			continue
		}
		if len(block.Instructions) <= 1 {
			continue
		}

		header := g.NewBlock(KindConditional)
		h := g.Blocks[header]
		h.Instructions = []*dex.Instruction{term}
		h.Out = block.Out
		for _, e := range h.Out {
			if to, ok := g.Blocks[e.To]; ok {
				for i, p := range to.In {
					if p == block.ID {
						to.In[i] = header
					}
				}
			}
		}

		block.Instructions = block.Instructions[:len(block.Instructions)-1]
		block.Out = []Edge{{Kind: EdgeFallThrough, To: header}}
		h.In = []int{block.ID}
	}
}

// Simplify coalesces a block with its unique successor when that
// successor has a unique predecessor and the block ends with
// fall-through, and deletes blocks left empty by DCE whose single
// predecessor/successor can be wired directly. It iterates to a
// fixpoint (and the idempotence property in ).
func Simplify(g *Graph) {
	for {
		if !simplifyPass(g) {
			return
		}
	}
}

func simplifyPass(g *Graph) bool {
	changed := false

	// Coalesce fall-through chains: A -(fallthrough)-> B, B has exactly
	// one predecessor (A). Fold B's instructions and edges into A.
	for _, id := range g.RPOOrder() {
		block, ok := g.Blocks[id]
		if !ok {
			continue
		}
		if len(block.Out) != 1 || block.Out[0].Kind != EdgeFallThrough {
			continue
		}
		succID := block.Out[0].To
		if succID == id {
			continue // self-loop, not a candidate
		}
		succ := g.Blocks[succID]
		if len(succ.In) != 1 || succ.In[0] != id {
			continue
		}
		block.Instructions = append(block.Instructions, succ.Instructions...)
		block.Out = succ.Out
		for _, e := range block.Out {
			if to, ok := g.Blocks[e.To]; ok {
				for i, p := range to.In {
					if p == succID {
						to.In[i] = id
					}
				}
			}
		}
		g.RemoveBlock(succID)
		changed = true
	}

	// Delete empty non-entry blocks with exactly one predecessor and one
	// successor by wiring the predecessor directly to the successor. The
	// synthetic catch-entry blocks are empty by construction and carry
	// the typed handler edges, so they are kept.
	for _, id := range g.RPOOrder() {
		block, ok := g.Blocks[id]
		if !ok || id == g.Entry || block.Kind == KindCatch {
			continue
		}
		if !block.IsEmpty() || len(block.Out) != 1 || len(block.In) != 1 {
			continue
		}
		pred, succID := block.In[0], block.Out[0].To
		if pred == id || succID == id {
			continue
		}
		predBlock := g.Blocks[pred]
		for i, e := range predBlock.Out {
			if e.To == id {
				predBlock.Out[i].To = succID
			}
		}
		if succ, ok := g.Blocks[succID]; ok {
			for i, p := range succ.In {
				if p == id {
					succ.In[i] = pred
				}
			}
		}
		g.RemoveBlock(id)
		changed = true
	}

	return changed
}
