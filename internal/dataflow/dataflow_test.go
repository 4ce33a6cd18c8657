package dataflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dad/internal/dex"
	"dad/internal/graph"
)

// identityRaw builds entry -> [move r1, r0; return r1], the "identity
// method" scenario from with an extra copy for
// RegisterPropagation to eliminate.
func identityRaw() *dex.RawBlock {
	entry := &dex.RawBlock{ID: 0}
	entry.Instructions = []*dex.Instruction{
		{Kind: dex.KMove, Dest: 1, HasDest: true, Srcs: []dex.Register{0}},
		{Kind: dex.KReturn, Srcs: []dex.Register{1}},
	}
	return entry
}

func TestBuildDefUseIdentity(t *testing.T) {
	g, err := graph.Construct(identityRaw(), []dex.Register{0}, nil)
	require.NoError(t, err)

	ctx := BuildDefUse(g, []dex.Register{0})
	paramDef := DefSite{Reg: 0, Block: g.Entry, Index: -1}
	assert.Len(t, ctx.DefUses[paramDef], 1, "the param is read exactly once, by the move")

	moveDef := DefSite{Reg: 1, Block: g.Entry, Index: 0}
	assert.Len(t, ctx.DefUses[moveDef], 1, "the move result is read exactly once, by the return")
}

func TestRegisterPropagationRemovesCopy(t *testing.T) {
	g, err := graph.Construct(identityRaw(), []dex.Register{0}, nil)
	require.NoError(t, err)

	ctx := BuildDefUse(g, []dex.Register{0})
	SplitVariables(ctx)

	changed := RegisterPropagation(ctx)
	assert.True(t, changed)

	moveDef := DefSite{Reg: 1, Block: g.Entry, Index: 0}
	assert.Empty(t, ctx.DefUses[moveDef], "propagation retargets the move's uses elsewhere")

	// The return's operand now reads r0 directly.
	ret := g.Blocks[g.Entry].Instructions[1]
	require.Len(t, ret.Srcs, 1)
	assert.Equal(t, dex.Register(0), ret.Srcs[0])

	require.True(t, DeadCodeElimination(ctx))
	assert.Len(t, g.Blocks[g.Entry].Instructions, 1, "the dead move was removed")
}

// ifElseRaw mirrors the graph package's if/else scenario fixture
// locally so this package's tests don't depend on graph's unexported
// test helpers.
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

func TestSplitVariablesIfElse(t *testing.T) {
	g, err := graph.Construct(ifElseRaw(), []dex.Register{0, 1}, nil)
	require.NoError(t, err)

	ctx := BuildDefUse(g, []dex.Register{0, 1})
	SplitVariables(ctx)

	// a and b each have exactly one definition (the parameter), read by
	// the comparison and by their respective return, so each should land
	// in its own variable, distinct from the comparison's result variable.
	assert.GreaterOrEqual(t, len(ctx.Env.Variables), 3)

	PlaceDeclarations(ctx)
	ResolveVariablesType(ctx)
	for _, v := range ctx.Env.Variables {
		if isParamVariable(v) {
			assert.Equal(t, -1, v.DeclBlock)
		}
	}
}

func newInstanceRaw() *dex.RawBlock {
	entry := &dex.RawBlock{ID: 0}
	entry.Instructions = []*dex.Instruction{
		{Kind: dex.KNewInstance, Dest: 0, HasDest: true, Type: "LFoo;"},
		{Kind: dex.KInvoke, Srcs: []dex.Register{0, 1}, MethodOwner: "LFoo;", MethodName: "<init>", MethodDesc: "(I)V"},
		{Kind: dex.KReturn, Srcs: []dex.Register{0}},
	}
	return entry
}

func TestNewInstancePropagationFuses(t *testing.T) {
	g, err := graph.Construct(newInstanceRaw(), []dex.Register{1}, nil)
	require.NoError(t, err)

	ctx := BuildDefUse(g, []dex.Register{1})
	changed := NewInstancePropagation(ctx)
	assert.True(t, changed)

	block := g.Blocks[g.Entry]
	require.Len(t, block.Instructions, 3)
	fused := block.Instructions[1]
	assert.Equal(t, dex.KNewObject, fused.Kind)
	assert.Equal(t, "LFoo;", fused.Type)
	require.Len(t, fused.Srcs, 1)
	assert.Equal(t, dex.Register(1), fused.Srcs[0])
}

func TestResolveVariablesTypeFromConstant(t *testing.T) {
	entry := &dex.RawBlock{ID: 0}
	entry.Instructions = []*dex.Instruction{
		{Kind: dex.KConst, Dest: 0, HasDest: true, Const: true},
		{Kind: dex.KReturn, Srcs: []dex.Register{0}},
	}
	g, err := graph.Construct(entry, nil, nil)
	require.NoError(t, err)

	ctx := BuildDefUse(g, nil)
	SplitVariables(ctx)
	ResolveVariablesType(ctx)

	constDef := DefSite{Reg: 0, Block: g.Entry, Index: 0}
	v := ctx.Env.VariableForDef(constDef)
	require.NotNil(t, v)
	assert.Equal(t, "boolean", v.Type)
}
