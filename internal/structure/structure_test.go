package structure

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dad/internal/dex"
	"dad/internal/graph"
)

func build(t *testing.T, entry *dex.RawBlock, paramRegs []dex.Register) *Region {
	t.Helper()
	g, err := graph.Construct(entry, paramRegs, nil)
	require.NoError(t, err)
	graph.Simplify(g)
	g.ComputeRPO()
	idom := g.ImmediateDominators()
	return IdentifyStructures(g, idom)
}

// TestIdentityIsLinear covers scenario 2: a single block with no
// branches structures to one Linear region.
func TestIdentityIsLinear(t *testing.T) {
	entry := &dex.RawBlock{ID: 0, Instructions: []*dex.Instruction{
		{Kind: dex.KReturn, Srcs: []dex.Register{0}},
	}}
	root := build(t, entry, []dex.Register{0})
	require.NotNil(t, root)
	assert.Equal(t, KindLinear, root.Kind)
}

// TestIfElse covers scenario 3: if (a > b) return a; else return b;
func TestIfElse(t *testing.T) {
	thenBlk := &dex.RawBlock{ID: 2, Instructions: []*dex.Instruction{
		{Kind: dex.KReturn, Srcs: []dex.Register{0}},
	}}
	elseBlk := &dex.RawBlock{ID: 3, Instructions: []*dex.Instruction{
		{Kind: dex.KReturn, Srcs: []dex.Register{1}},
	}}
	header := &dex.RawBlock{ID: 1, Instructions: []*dex.Instruction{
		{Kind: dex.KCmp, Dest: 2, HasDest: true, Srcs: []dex.Register{0, 1}, Op: ">"},
		{Kind: dex.KIf, Srcs: []dex.Register{2}},
	}}
	header.Succs = []dex.RawEdge{
		{Kind: dex.RawTrue, Target: thenBlk},
		{Kind: dex.RawFalse, Target: elseBlk},
	}
	entry := &dex.RawBlock{ID: 0}
	entry.Succs = []dex.RawEdge{{Kind: dex.RawFallThrough, Target: header}}

	root := build(t, entry, []dex.Register{0, 1})
	require.NotNil(t, root)
	require.Equal(t, KindIf, root.Kind)
	require.NotNil(t, root.Then)
	require.NotNil(t, root.Else)
	assert.Nil(t, root.Next, "both arms terminate independently: no join to continue into")
}

// TestWhileLoop covers scenario 4: int i = 0; while (i < n) { i++; } return i;
func TestWhileLoop(t *testing.T) {
	// block ids: 0 init, 1 header (i<n), 2 body (i++), 3 exit (return i)
	exitBlk := &dex.RawBlock{ID: 3, Instructions: []*dex.Instruction{
		{Kind: dex.KReturn, Srcs: []dex.Register{0}},
	}}
	header := &dex.RawBlock{ID: 1, Instructions: []*dex.Instruction{
		{Kind: dex.KCmp, Dest: 2, HasDest: true, Srcs: []dex.Register{0, 1}, Op: "<"},
		{Kind: dex.KIf, Srcs: []dex.Register{2}},
	}}
	body := &dex.RawBlock{ID: 2, Instructions: []*dex.Instruction{
		{Kind: dex.KBinOp, Dest: 0, HasDest: true, Srcs: []dex.Register{0}, Op: "+1"},
		{Kind: dex.KGoto},
	}}
	body.Succs = []dex.RawEdge{{Kind: dex.RawFallThrough, Target: header}}
	header.Succs = []dex.RawEdge{
		{Kind: dex.RawTrue, Target: body},
		{Kind: dex.RawFalse, Target: exitBlk},
	}
	entry := &dex.RawBlock{ID: 0, Instructions: []*dex.Instruction{
		{Kind: dex.KConst, Dest: 0, HasDest: true, Const: int32(0)},
	}}
	entry.Succs = []dex.RawEdge{{Kind: dex.RawFallThrough, Target: header}}

	root := build(t, entry, []dex.Register{1})
	require.NotNil(t, root)

	// entry coalesces with the loop's enclosing chain; walk to the Loop.
	cur := root
	for cur != nil && cur.Kind != KindLoop {
		cur = cur.Next
	}
	require.NotNil(t, cur, "expected a Loop region somewhere in the chain")
	assert.Equal(t, LoopWhile, cur.LoopKind)
}

// TestTryCatch covers scenario 5: try { return f; } catch (E e) { return 0; }
func TestTryCatch(t *testing.T) {
	handler := &dex.RawBlock{ID: 2, Instructions: []*dex.Instruction{
		{Kind: dex.KReturn, Srcs: []dex.Register{1}},
	}}
	body := &dex.RawBlock{ID: 0, Instructions: []*dex.Instruction{
		{Kind: dex.KInvoke, Dest: 0, HasDest: true, MethodOwner: "LMain;", MethodName: "f", MethodDesc: "I"},
		{Kind: dex.KReturn, Srcs: []dex.Register{0}},
	}}

	g, err := graph.Construct(body, []dex.Register{1}, []dex.ExceptionRange{
		{Blocks: []*dex.RawBlock{body}, Handlers: []dex.CatchHandler{{Type: "LE;", Handler: handler}}},
	})
	require.NoError(t, err)
	graph.Simplify(g)
	g.ComputeRPO()
	idom := g.ImmediateDominators()
	root := IdentifyStructures(g, idom)

	require.NotNil(t, root)
	require.Equal(t, KindTry, root.Kind)
	require.Len(t, root.Handlers, 1)
	assert.Equal(t, "LE;", root.Handlers[0].Type)
	assert.NotNil(t, root.TryBody)
}

func TestAllBlocksCoversEveryBlock(t *testing.T) {
	entry := &dex.RawBlock{ID: 0, Instructions: []*dex.Instruction{
		{Kind: dex.KReturn, Srcs: []dex.Register{0}},
	}}
	g, err := graph.Construct(entry, []dex.Register{0}, nil)
	require.NoError(t, err)
	g.ComputeRPO()
	idom := g.ImmediateDominators()
	root := IdentifyStructures(g, idom)

	blocks := AllBlocks(root)
	assert.Contains(t, blocks, 0)
}
