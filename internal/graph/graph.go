// Package graph builds and simplifies the control-flow graph the rest
// of the decompilation pipeline operates on. Blocks and
// edges live in an arena owned by the Graph; every other component
// refers to a block by its integer id, never by pointer, which is how
// the core avoids reference cycles on a graph that is inherently
// cyclic (loops, back-edges) — see .
package graph

import (
	"fmt"

	"github.com/tliron/commonlog"

	"dad/internal/dex"
)

var log = commonlog.GetLogger("dad.graph")

// EdgeKind tags a CFG edge the way describes.
type EdgeKind int

const (
	EdgeFallThrough EdgeKind = iota
	EdgeTrue
	EdgeFalse
	EdgeSwitchCase
	EdgeException
)

// Edge is a directed edge from one block to another, kept by target id
// only; the arena (Graph.Blocks) is the single source of truth for
// block identity.
type Edge struct {
	Kind EdgeKind
	CaseKey int64
	ExceptionType string
	To int
}

// Kind classifies a block's role once the graph has been built and
// (later) structured.
type Kind int

const (
	KindNormal Kind = iota
	KindEntry
	KindSwitch
	KindConditional
	KindTry
	KindCatch
	KindReturn
	KindThrow
	KindLoopHeader
	KindLoopBody
	KindLoopLatch
)

// Block is an arena-owned basic block. Out holds its successor edges;
// In holds the ids of its predecessors, maintained incrementally so
// dominator and structuring passes never have to recompute it.
type Block struct {
	ID int
	RPO int
	Kind Kind
	Instructions []*dex.Instruction
	Out []Edge
	In []int
}

// IsEmpty reports whether a block carries no instructions.
func (b *Block) IsEmpty() bool { return len(b.Instructions) == 0 }

// Terminator returns the block's branching tail instruction, if any.
func (b *Block) Terminator() *dex.Instruction {
	if len(b.Instructions) == 0 {
		return nil
	}
	last := b.Instructions[len(b.Instructions)-1]
	if last.Branches() != dex.BranchNone {
		return last
	}
	return nil
}

// Graph is the arena-owned CFG for a single method. It is never shared
// across methods (no shared mutable state in the core).
type Graph struct {
	Entry int
	Blocks map[int]*Block
	nextID int
}

// NewGraph returns an empty graph seeded so synthetic blocks created
// during construction or simplification get ids distinct from the
// frontend's.
func NewGraph() *Graph {
	return &Graph{Blocks: make(map[int]*Block)}
}

// NewBlock allocates a fresh block in the arena and returns its id.
func (g *Graph) NewBlock(kind Kind) int {
	id := g.nextID
	g.nextID++
	g.Blocks[id] = &Block{ID: id, Kind: kind}
	return id
}

// AddEdge records a successor edge and keeps the target's predecessor
// list in sync.
func (g *Graph) AddEdge(from int, e Edge) {
	g.Blocks[from].Out = append(g.Blocks[from].Out, e)
	if to, ok := g.Blocks[e.To]; ok {
		to.In = append(to.In, from)
	}
}

// RemoveBlock deletes a block from the arena and scrubs it from every
// remaining predecessor/successor list.
func (g *Graph) RemoveBlock(id int) {
	delete(g.Blocks, id)
	for _, b := range g.Blocks {
		newOut := b.Out[:0]
		for _, e := range b.Out {
			if e.To != id {
				newOut = append(newOut, e)
			}
		}
		b.Out = newOut
		newIn := b.In[:0]
		for _, p := range b.In {
			if p != id {
				newIn = append(newIn, p)
			}
		}
		b.In = newIn
	}
}

// ErrMalformedCFG is returned by Construct when a branch target escapes
// the method ("Failure": fatal for the method, caught by the
// orchestrator).
type ErrMalformedCFG struct {
	Detail string
}

func (e *ErrMalformedCFG) Error() string {
	return fmt.Sprintf("malformed control-flow graph: %s", e.Detail)
}

// Construct builds the CFG by following control-flow successors of
// every raw block, then grafts synthetic catch-entry blocks for each
// exception range and wires exception edges from every covered block
// to its handler chain, deduplicating identical handler stacks.
func Construct(entry *dex.RawBlock, paramRegs []dex.Register, exceptions []dex.ExceptionRange) (*Graph, error) {
	if entry == nil {
		return nil, &ErrMalformedCFG{Detail: "nil entry block"}
	}

	g := NewGraph()
	rawToID := make(map[*dex.RawBlock]int)

	// First pass: allocate one Block per reachable RawBlock.
	order := []*dex.RawBlock{entry}
	visited := map[*dex.RawBlock]bool{entry: true}
	// Handler blocks are reached through the exception table, not Succs.
	for _, er := range exceptions {
		for _, h := range er.Handlers {
			if h.Handler != nil && !visited[h.Handler] {
				visited[h.Handler] = true
				order = append(order, h.Handler)
			}
		}
	}
	for i := 0; i < len(order); i++ {
		raw := order[i]
		id := g.NewBlock(KindNormal)
		rawToID[raw] = id
		g.Blocks[id].Instructions = append([]*dex.Instruction(nil), raw.Instructions...)
		for _, e := range raw.Succs {
			if e.Target == nil {
				return nil, &ErrMalformedCFG{Detail: "branch target outside method"}
			}
			if !visited[e.Target] {
				visited[e.Target] = true
				order = append(order, e.Target)
			}
		}
	}
	g.Entry = rawToID[entry]
	g.Blocks[g.Entry].Kind = KindEntry

	// Second pass: wire successor edges now that every raw block has an id.
	for _, raw := range order {
		from := rawToID[raw]
		for _, e := range raw.Succs {
			to, ok := rawToID[e.Target]
			if !ok {
				return nil, &ErrMalformedCFG{Detail: "branch target outside method"}
			}
			g.AddEdge(from, Edge{Kind: rawKindToEdgeKind(e.Kind), CaseKey: e.CaseKey, To: to})
		}
	}

	if err := attachExceptions(g, rawToID, exceptions); err != nil {
		return nil, err
	}

	log.Debugf("constructed graph with %d blocks from %d raw blocks", len(g.Blocks), len(order))
	return g, nil
}

func rawKindToEdgeKind(k dex.RawEdgeKind) EdgeKind {
	switch k {
	case dex.RawTrue:
		return EdgeTrue
	case dex.RawFalse:
		return EdgeFalse
	case dex.RawSwitchCase:
		return EdgeSwitchCase
	default:
		return EdgeFallThrough
	}
}

// handlerKey produces a stable key for a handler chain so identical
// stacks can share one synthetic catch-entry block.
func handlerKey(rawToID map[*dex.RawBlock]int, handlers []dex.CatchHandler) string {
	key := ""
	for _, h := range handlers {
		key += h.Type + "@" + fmt.Sprint(rawToID[h.Handler]) + ";"
	}
	return key
}

func attachExceptions(g *Graph, rawToID map[*dex.RawBlock]int, exceptions []dex.ExceptionRange) error {
	dedup := make(map[string]int) // handler-chain key -> synthetic catch-entry block id

	for _, er := range exceptions {
		key := handlerKey(rawToID, er.Handlers)
		catchEntry, ok := dedup[key]
		if !ok {
			catchEntry = g.NewBlock(KindCatch)
			dedup[key] = catchEntry
			for _, h := range er.Handlers {
				target, ok := rawToID[h.Handler]
				if !ok {
					return &ErrMalformedCFG{Detail: "exception handler outside method"}
				}
				g.AddEdge(catchEntry, Edge{Kind: EdgeException, ExceptionType: h.Type, To: target})
			}
		}
		for _, raw := range er.Blocks {
			from, ok := rawToID[raw]
			if !ok {
				return &ErrMalformedCFG{Detail: "exception range covers a block outside method"}
			}
			g.AddEdge(from, Edge{Kind: EdgeException, To: catchEntry})
		}
	}
	return nil
}

// ComputeRPO assigns reverse-postorder numbers via an explicit-stack DFS
// from the entry block (required before dominator
// computation; forbids unbounded recursion).
func (g *Graph) ComputeRPO() {
	type frame struct {
		id int
		childIdx int
	}
	// Any block the DFS below does not reach keeps this out-of-range
	// number, so RPOOrder sorts it after every reached block.
	for _, b := range g.Blocks {
		b.RPO = len(g.Blocks)
	}
	visited := make(map[int]bool)
	var postorder []int
	stack := []frame{{id: g.Entry}}
	visited[g.Entry] = true

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		block := g.Blocks[top.id]
		if top.childIdx < len(block.Out) {
			next := block.Out[top.childIdx].To
			top.childIdx++
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
	for i, id := range postorder {
		g.Blocks[id].RPO = n - 1 - i
	}
}

// RPOOrder returns block ids ordered by ascending RPO number. Blocks
// never reached by ComputeRPO (dead code not yet removed) sort last in
// arbitrary order.
func (g *Graph) RPOOrder() []int {
	ids := make([]int, 0, len(g.Blocks))
	for id := range g.Blocks {
		ids = append(ids, id)
	}
	// Simple insertion sort: method CFGs are small, and this keeps the
	// ordering stable without pulling in sort for a handful of ints.
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && g.Blocks[ids[j-1]].RPO > g.Blocks[ids[j]].RPO; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
	return ids
}
