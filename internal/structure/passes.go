package structure

import (
	"sort"

	"dad/internal/graph"
)

// isLoopHeader reports whether some current node reaches n via an edge
// that is a back edge under the original dominator tree: n dominates
// the source.
func (r *reducer) isLoopHeader(n *rnode) bool {
	for _, id := range r.order {
		if id == n.id {
			continue
		}
		src := r.nodes[id]
		for _, e := range src.out {
			if e.To == n.id && graph.Dominates(r.idom, n.entry, src.entry) {
				return true
			}
		}
	}
	return false
}

func (r *reducer) currentNodeIDForBlock(blockID int) int {
	if blockID == graph.VirtualExit {
		return graph.VirtualExit
	}
	n := r.nodeOf(blockID)
	if n == nil {
		return graph.VirtualExit
	}
	return n.id
}

// reduceLoop finds a header with at least one back edge reaching it and
// collapses its natural loop body into one Loop region.
// Tried only after reduceTry/reduceIf/reduceSwitch/reduceChain have run
// to a local fixpoint, so nested shapes inside the loop body are
// already structured by the time the loop itself collapses.
func (r *reducer) reduceLoop() bool {
	for _, hid := range r.order {
		h := r.nodes[hid]
		var latches []int
		for _, id := range r.order {
			n := r.nodes[id]
			for _, e := range n.out {
				if e.To == hid && graph.Dominates(r.idom, h.entry, n.entry) {
					latches = append(latches, id)
				}
			}
		}
		if len(latches) == 0 {
			continue
		}

		body := map[int]bool{hid: true}
		stack := append([]int(nil), latches...)
		for len(stack) > 0 {
			id := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if body[id] {
				continue
			}
			body[id] = true
			if id == hid {
				continue
			}
			for _, p := range r.nodes[id].in {
				if !body[p] {
					stack = append(stack, p)
				}
			}
		}

		kind := r.classifyLoop(h, body, latches)
		exits := r.loopExits(body)
		bodyRegion := r.buildLoopBody(h, body)

		region := &Region{
			Kind: KindLoop,
			Blocks: []int{h.entry},
			LoopKind: kind,
			Header: h.entry,
			Body: bodyRegion,
			Exits: exits,
		}
		r.replace(body, h.entry, region)
		return true
	}
	return false
}

// classifyLoop distinguishes while/do-while/endless per .
func (r *reducer) classifyLoop(h *rnode, body map[int]bool, latches []int) LoopKind {
	if len(h.out) == 2 {
		for _, e := range h.out {
			if !body[e.To] {
				return LoopWhile
			}
		}
	}
	for _, lid := range latches {
		l := r.nodes[lid]
		if len(l.out) != 2 {
			continue
		}
		for _, e := range l.out {
			if !body[e.To] {
				return LoopDoWhile
			}
		}
	}
	return LoopEndless
}

func (r *reducer) loopExits(body map[int]bool) []int {
	seen := make(map[int]bool)
	var exits []int
	for id := range body {
		for _, e := range r.nodes[id].out {
			if !body[e.To] && !seen[e.To] {
				seen[e.To] = true
				exits = append(exits, e.To)
			}
		}
	}
	sort.Ints(exits)
	return exits
}

// buildLoopBody chains the regions of every body node other than the
// header via Next, in ascending entry-id order, and returns the first
// (nil when the body holds only the header). Inner
// conditionals/switches/tries inside the body have
// already collapsed to single composite nodes by the time this runs, so
// in the common case body holds the header plus one such node.
func (r *reducer) buildLoopBody(h *rnode, body map[int]bool) *Region {
	var ids []int
	for id := range body {
		if id != h.id {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	sort.Slice(ids, func(i, j int) bool { return r.nodes[ids[i]].entry < r.nodes[ids[j]].entry })

	wrapper := &Region{Kind: KindLinear}
	tail := wrapper
	for _, id := range ids {
		seg := r.nodes[id].region
		tail.Next = seg
		tail = seg
		for tail.Next != nil {
			tail = tail.Next
		}
	}
	return wrapper.Next
}

// reduceIf collapses a two-way conditional (not itself a loop header)
// together with its then/else arms up to their common immediate
// post-dominator. When the post-dominator is the virtual
// exit (both arms terminate independently, e.g. two returns), the
// composite node becomes terminal with no outgoing edge.
func (r *reducer) reduceIf() bool {
	for _, cid := range r.order {
		c := r.nodes[cid]
		if len(c.out) != 2 || r.isLoopHeader(c) {
			continue
		}
		var trueTo, falseTo = -1, -1
		for _, e := range c.out {
			switch e.Kind {
			case graph.EdgeTrue:
				trueTo = e.To
			case graph.EdgeFalse:
				falseTo = e.To
			}
		}
		if trueTo == -1 || falseTo == -1 {
			continue
		}

		join := graph.ImmediatePostDominator(r.ipdom, c.entry)
		joinNodeID := r.currentNodeIDForBlock(join)

		members := map[int]bool{cid: true}
		var thenRegion, elseRegion *Region
		switch {
		case falseTo == joinNodeID:
			thenRegion = r.chainRegion(trueTo, joinNodeID, members)
		case trueTo == joinNodeID:
			elseRegion = r.chainRegion(falseTo, joinNodeID, members)
		default:
			thenRegion = r.chainRegion(trueTo, joinNodeID, members)
			elseRegion = r.chainRegion(falseTo, joinNodeID, members)
		}

		region := &Region{Kind: KindIf, Blocks: []int{c.entry}, CondBlock: c.entry, Then: thenRegion, Else: elseRegion}
		r.replace(members, c.entry, region)
		return true
	}
	return false
}

// reduceSwitch collapses a switch block together with its case arms up
// to their common immediate post-dominator.
func (r *reducer) reduceSwitch() bool {
	for _, sid := range r.order {
		s := r.nodes[sid]
		hasCase := false
		for _, e := range s.out {
			if e.Kind == graph.EdgeSwitchCase {
				hasCase = true
			}
		}
		if !hasCase || r.isLoopHeader(s) {
			continue
		}

		join := graph.ImmediatePostDominator(r.ipdom, s.entry)
		joinNodeID := r.currentNodeIDForBlock(join)

		members := map[int]bool{sid: true}
		var cases []Case
		for _, e := range s.out {
			if e.Kind != graph.EdgeSwitchCase {
				continue
			}
			cases = append(cases, Case{Key: e.CaseKey, Body: r.chainRegion(e.To, joinNodeID, members)})
		}
		for _, e := range s.out {
			if e.Kind == graph.EdgeSwitchCase || e.To == joinNodeID {
				continue
			}
			cases = append(cases, Case{IsDefault: true, Body: r.chainRegion(e.To, joinNodeID, members)})
		}

		region := &Region{Kind: KindSwitch, Blocks: []int{s.entry}, Selector: s.entry, Cases: cases}
		r.replace(members, s.entry, region)
		return true
	}
	return false
}

// reduceTry collapses every block protected by the same exception
// handler chain, together with the synthetic catch-entry block and its
// handler bodies, into one Try region.
func (r *reducer) reduceTry() bool {
	for _, cid := range r.order {
		c := r.nodes[cid]
		catchTarget := -1
		for _, e := range c.out {
			if e.Kind == graph.EdgeException {
				catchTarget = e.To
				break
			}
		}
		if catchTarget == -1 {
			continue
		}
		catchNode, ok := r.nodes[catchTarget]
		if !ok {
			continue
		}

		protected := make(map[int]bool)
		for _, id := range r.order {
			n := r.nodes[id]
			for _, e := range n.out {
				if e.Kind == graph.EdgeException && e.To == catchTarget {
					protected[id] = true
				}
			}
		}
		if len(protected) == 0 {
			continue
		}

		tryEntry := protectedEntry(r, protected)
		tryBody := r.chainWithinSet(tryEntry, protected)

		handlerMembers := map[int]bool{catchTarget: true}
		var handlers []Catch
		for _, e := range catchNode.out {
			handlers = append(handlers, Catch{Type: e.ExceptionType, Body: r.chainRegion(e.To, graph.VirtualExit, handlerMembers)})
		}

		members := map[int]bool{}
		for id := range protected {
			members[id] = true
		}
		for id := range handlerMembers {
			members[id] = true
		}

		region := &Region{Kind: KindTry, Blocks: []int{catchTarget}, TryBody: tryBody, Handlers: handlers}
		r.replace(members, tryEntry, region)
		return true
	}
	return false
}

// protectedEntry picks the block in a protected set with no predecessor
// inside the set: the range's own entry point.
func protectedEntry(r *reducer, protected map[int]bool) int {
	for id := range protected {
		hasInternalPred := false
		for _, p := range r.nodes[id].in {
			if protected[p] {
				hasInternalPred = true
				break
			}
		}
		if !hasInternalPred {
			return id
		}
	}
	min := -1
	for id := range protected {
		if min == -1 || id < min {
			min = id
		}
	}
	return min
}

// chainWithinSet walks a single-successor chain that stays entirely
// inside set, unlike chainRegion which walks until an explicit stop id.
func (r *reducer) chainWithinSet(start int, set map[int]bool) *Region {
	if !set[start] {
		return nil
	}
	var head, tail *Region
	visited := make(map[int]bool)
	cur := start
	for set[cur] && !visited[cur] {
		visited[cur] = true
		node := r.nodes[cur]
		seg := node.region
		if head == nil {
			head, tail = seg, seg
		} else {
			tail.Next = seg
			tail = seg
		}
		if len(node.out) != 1 {
			break
		}
		cur = node.out[0].To
	}
	return head
}

// reduceChain coalesces a node with its unique successor when that
// successor has a unique predecessor: the plain sequential case left
// over once every branching shape has been recognised.
func (r *reducer) reduceChain() bool {
	for _, id := range r.order {
		n := r.nodes[id]
		if len(n.out) != 1 {
			continue
		}
		to := n.out[0].To
		if to == graph.VirtualExit || to == id {
			continue
		}
		succ, ok := r.nodes[to]
		if !ok || len(succ.in) != 1 || succ.in[0] != id {
			continue
		}

		tail := n.region
		for tail.Next != nil {
			tail = tail.Next
		}
		tail.Next = succ.region

		members := map[int]bool{id: true, to: true}
		r.replace(members, n.entry, n.region)
		return true
	}
	return false
}

func (r *reducer) fallbackUnstructured() *Region {
	wrapper := &Region{Kind: KindUnstructured, Label: "unstructured"}
	tail := wrapper
	for _, id := range r.order {
		seg := r.nodes[id].region
		tail.Next = seg
		tail = seg
		for tail.Next != nil {
			tail = tail.Next
		}
	}
	return wrapper
}
