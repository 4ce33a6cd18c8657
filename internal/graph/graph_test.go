package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dad/internal/dex"
)

// linearRaw builds entry -> [return x] with no branches: the "identity
// method" scenario from .
func linearRaw() *dex.RawBlock {
	entry := &dex.RawBlock{ID: 0}
	entry.Instructions = []*dex.Instruction{
		{Kind: dex.KReturn, Srcs: []dex.Register{0}},
	}
	return entry
}

func TestConstructLinear(t *testing.T) {
	g, err := Construct(linearRaw(), nil, nil)
	require.NoError(t, err)
	assert.Len(t, g.Blocks, 1)
	assert.Equal(t, g.Entry, 0)
}

// ifElseRaw builds the 4-block if/else CFG from scenario 3:
// if (a > b) return a; else return b;
func ifElseRaw() *dex.RawBlock {
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
	return entry
}

func TestConstructIfElse(t *testing.T) {
	g, err := Construct(ifElseRaw(), nil, nil)
	require.NoError(t, err)
	assert.Len(t, g.Blocks, 4)
}

func TestMalformedCFGNilTarget(t *testing.T) {
	entry := &dex.RawBlock{ID: 0}
	entry.Succs = []dex.RawEdge{{Kind: dex.RawFallThrough, Target: nil}}
	_, err := Construct(entry, nil, nil)
	require.Error(t, err)
	var malformed *ErrMalformedCFG
	assert.ErrorAs(t, err, &malformed)
}

func TestDominators(t *testing.T) {
	g, err := Construct(ifElseRaw(), nil, nil)
	require.NoError(t, err)
	g.ComputeRPO()
	idom := g.ImmediateDominators()

	// Both branches are dominated by the conditional header, which is
	// dominated by the entry.
	var header, then_, else_ int
	for id, b := range g.Blocks {
		if len(b.Out) == 2 {
			header = id
		}
	}
	for id, b := range g.Blocks {
		if b.In != nil && len(b.In) == 1 && b.In[0] == header && id != header {
			if then_ == 0 {
				then_ = id
			} else {
				else_ = id
			}
		}
	}
	assert.True(t, Dominates(idom, g.Entry, header))
	assert.True(t, Dominates(idom, header, then_))
	assert.True(t, Dominates(idom, header, else_))
	assert.False(t, Dominates(idom, then_, else_))
}

func TestSimplifyCoalescesFallThroughChain(t *testing.T) {
	b2 := &dex.RawBlock{ID: 2, Instructions: []*dex.Instruction{{Kind: dex.KReturn}}}
	b1 := &dex.RawBlock{ID: 1}
	b1.Succs = []dex.RawEdge{{Kind: dex.RawFallThrough, Target: b2}}
	b0 := &dex.RawBlock{ID: 0}
	b0.Succs = []dex.RawEdge{{Kind: dex.RawFallThrough, Target: b1}}

	g, err := Construct(b0, nil, nil)
	require.NoError(t, err)
	require.Len(t, g.Blocks, 3)

	Simplify(g)
	assert.Len(t, g.Blocks, 1)
}

func TestSimplifyIdempotent(t *testing.T) {
	b2 := &dex.RawBlock{ID: 2, Instructions: []*dex.Instruction{{Kind: dex.KReturn}}}
	b1 := &dex.RawBlock{ID: 1}
	b1.Succs = []dex.RawEdge{{Kind: dex.RawFallThrough, Target: b2}}
	b0 := &dex.RawBlock{ID: 0}
	b0.Succs = []dex.RawEdge{{Kind: dex.RawFallThrough, Target: b1}}

	g, err := Construct(b0, nil, nil)
	require.NoError(t, err)
	Simplify(g)
	before := len(g.Blocks)
	Simplify(g)
	assert.Equal(t, before, len(g.Blocks))
}

func TestSplitIfNodes(t *testing.T) {
	g, err := Construct(ifElseRaw(), nil, nil)
	require.NoError(t, err)

	var headerBefore *Block
	for _, b := range g.Blocks {
		if len(b.Instructions) == 2 {
			headerBefore = b
		}
	}
	require.NotNil(t, headerBefore)

	SplitIfNodes(g)

	// The original block now only has the comparison; a new bare header
	// holds just the branch.
	assert.Len(t, headerBefore.Instructions, 1)
	var bareHeaders int
	for _, b := range g.Blocks {
		if len(b.Instructions) == 1 && b.Instructions[0].Kind == dex.KIf {
			bareHeaders++
		}
	}
	assert.Equal(t, 1, bareHeaders)
}
