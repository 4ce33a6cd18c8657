package graph

// VirtualExit is the synthetic id every return/throw block post-dominates
// into, letting PostDominators run the same fixed-point algorithm
// ImmediateDominators uses, just over the reversed graph, since
// conditional identification needs the immediate post-dominator rather
// than the dominator.
const VirtualExit = -1

// PostDominators computes the immediate post-dominator of every block
// reachable backward from an exit block (one with no outgoing edges),
// via the same Cooper-Harvey-Kennedy fixpoint as ImmediateDominators,
// run over the graph with edges reversed. A result of VirtualExit means
// the block's continuations reach the end of the method along every
// path with no single join block inside it.
func (g *Graph) PostDominators() map[int]int {
	order, rpo := reversePostorderFromExit(g)

	idom := map[int]int{VirtualExit: VirtualExit}
	changed := true
	for changed {
		changed = false
		for _, id := range order {
			if id == VirtualExit {
				continue
			}
			newIdom := -2 // unset sentinel, distinct from the real VirtualExit(-1)
			for _, p := range reversePredecessors(g, id) {
				if _, ok := idom[p]; !ok {
					continue
				}
				if newIdom == -2 {
					newIdom = p
					continue
				}
				newIdom = intersectRPO(idom, rpo, newIdom, p)
			}
			if newIdom == -2 {
				continue
			}
			if prev, ok := idom[id]; !ok || prev != newIdom {
				idom[id] = newIdom
				changed = true
			}
		}
	}
	return idom
}

// reverseSuccessors returns a block's successors in the reversed graph.
// An original edge u->v becomes v->u, so v's reversed successor is u:
// a block's reversed successors are its real predecessors.
// VirtualExit's reversed successors are every exit block (one with no
// outgoing edges), since each exit implicitly flows into it.
func reverseSuccessors(g *Graph, id int) []int {
	if id == VirtualExit {
		var exits []int
		for bid, b := range g.Blocks {
			if len(b.Out) == 0 {
				exits = append(exits, bid)
			}
		}
		return exits
	}
	return g.Blocks[id].In
}

// reversePredecessors returns a block's predecessors in the reversed
// graph: its real successors, or VirtualExit if the block is itself an
// exit block (VirtualExit has none: it is the reversed-graph root).
func reversePredecessors(g *Graph, id int) []int {
	if id == VirtualExit {
		return nil
	}
	block := g.Blocks[id]
	if len(block.Out) == 0 {
		return []int{VirtualExit}
	}
	out := make([]int, 0, len(block.Out))
	for _, e := range block.Out {
		out = append(out, e.To)
	}
	return out
}

func reversePostorderFromExit(g *Graph) (order []int, rpo map[int]int) {
	type frame struct {
		id int
		idx int
	}
	visited := map[int]bool{VirtualExit: true}
	var postorder []int
	stack := []frame{{id: VirtualExit}}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		succs := reverseSuccessors(g, top.id)
		if top.idx < len(succs) {
			next := succs[top.idx]
			top.idx++
			if !visited[next] {
				visited[next] = true
				stack = append(stack, frame{id: next})
			}
			continue
		}
		postorder = append(postorder, top.id)
		stack = stack[:len(stack)-1]
	}

	n := len(postorder)
	rpo = make(map[int]int, n)
	order = make([]int, n)
	for i, id := range postorder {
		rpo[id] = n - 1 - i
		order[n-1-i] = id
	}
	return order, rpo
}

func intersectRPO(idom, rpo map[int]int, a, b int) int {
	for a != b {
		for rpo[a] > rpo[b] {
			a = idom[a]
		}
		for rpo[b] > rpo[a] {
			b = idom[b]
		}
	}
	return a
}

// ImmediatePostDominator looks up b's entry in a PostDominators result,
// defaulting to VirtualExit for a block the pass never reached (dead or
// itself unreachable-from-exit code).
func ImmediatePostDominator(ipdom map[int]int, b int) int {
	if d, ok := ipdom[b]; ok {
		return d
	}
	return VirtualExit
}
