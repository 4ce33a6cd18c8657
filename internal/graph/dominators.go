package graph

// ImmediateDominators computes the immediate dominator of every block
// reachable from the entry, using the Cooper-Harvey-Kennedy iterative
// algorithm over reverse-postorder numbers. ComputeRPO must
// have been called first. The result maps a block id to its immediate
// dominator id; the entry block maps to itself.
func (g *Graph) ImmediateDominators() map[int]int {
	order := g.RPOOrder()
	// rpoToID lets us walk "in RPO order" without resorting each pass.
	rpoToID := make(map[int]int, len(order))
	for _, id := range order {
		rpoToID[g.Blocks[id].RPO] = id
	}

	idom := make(map[int]int)
	idom[g.Entry] = g.Entry

	changed := true
	for changed {
		changed = false
		for _, id := range order {
			if id == g.Entry {
				continue
			}
			block := g.Blocks[id]
			newIdom := -1
			for _, p := range block.In {
				if _, ok := idom[p]; !ok {
					continue // predecessor not processed yet this pass
				}
				if newIdom == -1 {
					newIdom = p
					continue
				}
				newIdom = intersect(idom, g, newIdom, p)
			}
			if newIdom == -1 {
				continue // unreachable predecessor set, revisit next pass
			}
			if prev, ok := idom[id]; !ok || prev != newIdom {
				idom[id] = newIdom
				changed = true
			}
		}
	}
	return idom
}

// intersect walks two blocks up the partially-built dominator tree
// until their RPO-ordered paths meet, per the classic CHK algorithm.
func intersect(idom map[int]int, g *Graph, a, b int) int {
	for a != b {
		for g.Blocks[a].RPO > g.Blocks[b].RPO {
			a = idom[a]
		}
		for g.Blocks[b].RPO > g.Blocks[a].RPO {
			b = idom[b]
		}
	}
	return a
}

// Dominates reports whether block d dominates block b in the given
// immediate-dominator map.
func Dominates(idom map[int]int, d, b int) bool {
	for {
		if b == d {
			return true
		}
		parent, ok := idom[b]
		if !ok || parent == b {
			return b == d
		}
		b = parent
	}
}

// DominatorChain returns the path from b up to the entry, inclusive,
// via immediate dominators, nearest-first.
func DominatorChain(idom map[int]int, b int) []int {
	var chain []int
	for {
		chain = append(chain, b)
		parent, ok := idom[b]
		if !ok || parent == b {
			break
		}
		b = parent
	}
	return chain
}

// LowestCommonDominator returns the lowest block that dominates every
// block in blocks, used by place_declarations to find the
// tightest legal declaration site.
func LowestCommonDominator(idom map[int]int, blocks []int) int {
	if len(blocks) == 0 {
		return -1
	}
	lca := blocks[0]
	for _, b := range blocks[1:] {
		lca = pairwiseLCA(idom, lca, b)
	}
	return lca
}

func pairwiseLCA(idom map[int]int, a, b int) int {
	chainA := DominatorChain(idom, a)
	inA := make(map[int]bool, len(chainA))
	for _, id := range chainA {
		inA[id] = true
	}
	for _, id := range DominatorChain(idom, b) {
		if inA[id] {
			return id
		}
	}
	return a
}
