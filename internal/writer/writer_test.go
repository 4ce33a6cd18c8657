package writer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dad/internal/dex"
	"dad/internal/graph"
	"dad/internal/structure"
)

func TestTextWriterIdentity(t *testing.T) {
	entry := &dex.RawBlock{ID: 0, Instructions: []*dex.Instruction{
		{Kind: dex.KReturn, Srcs: []dex.Register{0}},
	}}
	g, err := graph.Construct(entry, []dex.Register{0}, nil)
	require.NoError(t, err)
	graph.Simplify(g)
	g.ComputeRPO()
	idom := g.ImmediateDominators()
	root := structure.IdentifyStructures(g, idom)

	m := MethodView{
		Name: "identity", ReturnType: "int",
		Params: []Param{{Name: "p0", Type: "int"}},
		Graph: g, Root: root,
	}
	out := NewTextWriter().WriteMethod(m)
	assert.Contains(t, out, "int identity(int p0)")
	assert.Contains(t, out, "return")
}

func TestDecodeFieldLiteralBoolUsesSemanticValue(t *testing.T) {
	assert.Equal(t, "true", DecodeFieldLiteral(FieldValue{Descriptor: "Z", Present: true, Value: true}))
	assert.Equal(t, "false", DecodeFieldLiteral(FieldValue{Descriptor: "Z", Present: true, Value: false}))
}

func TestDecodeFieldLiteralAbsentStringIsEmpty(t *testing.T) {
	assert.Equal(t, `""`, DecodeFieldLiteral(FieldValue{Descriptor: "Ljava/lang/String;", Present: false}))
}

func TestDecodeFieldLiteralByteRoundTrips(t *testing.T) {
	assert.Equal(t, "-0x1", DecodeFieldLiteral(FieldValue{Descriptor: "B", Present: true, Value: uint8(0xFF)}))
}

func TestAlignParameterAnnotationsOffByOne(t *testing.T) {
	raw := [][]Annotation{{{Type: "LA;"}}}
	aligned, warn := AlignParameterAnnotations(raw, 2)
	require.Empty(t, warn)
	require.Len(t, aligned, 2)
	assert.Nil(t, aligned[0])
	assert.Equal(t, raw[0], aligned[1])
}

func TestAlignParameterAnnotationsIrreconcilable(t *testing.T) {
	raw := [][]Annotation{{{Type: "LA;"}}, {{Type: "LB;"}}, {{Type: "LC;"}}}
	aligned, warn := AlignParameterAnnotations(raw, 1)
	require.NotEmpty(t, warn)
	require.Len(t, aligned, 1)
	assert.Nil(t, aligned[0])
}

func TestBuildMethodASTMatchesTriple(t *testing.T) {
	entry := &dex.RawBlock{ID: 0, Instructions: []*dex.Instruction{
		{Kind: dex.KReturn, Srcs: []dex.Register{0}},
	}}
	g, err := graph.Construct(entry, []dex.Register{0}, nil)
	require.NoError(t, err)
	graph.Simplify(g)
	g.ComputeRPO()
	idom := g.ImmediateDominators()
	root := structure.IdentifyStructures(g, idom)

	m := MethodView{
		ClassName: "LMain;", Name: "identity", ReturnType: "I",
		Params: []Param{{Name: "p0", Type: "I"}},
		Graph: g, Root: root,
	}
	ast := BuildMethodAST(m)
	assert.Equal(t, "LMain;->identity(I)I", ast.Triple)
	assert.NotEmpty(t, ast.Body)
}

func TestOperandTextWithoutEnvFallsBackToRegister(t *testing.T) {
	entry := &dex.RawBlock{ID: 0, Instructions: []*dex.Instruction{
		{Kind: dex.KReturn, Srcs: []dex.Register{0}},
	}}
	g, err := graph.Construct(entry, []dex.Register{0}, nil)
	require.NoError(t, err)
	m := MethodView{Graph: g}
	assert.Equal(t, "r0", operandText(m, 0, 0, 0))
}
