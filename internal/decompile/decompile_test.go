package decompile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dad/internal/dex"
)

func identityMethod() *dex.MethodInput {
	entry := &dex.RawBlock{ID: 0, Instructions: []*dex.Instruction{
		{Kind: dex.KReturn, Srcs: []dex.Register{0}},
	}}
	return &dex.MethodInput{
		ClassName: "LMain;", Name: "identity", Static: true,
		Entry: entry, RegistersSize: 1, InsSize: 1,
		ParamsType: []string{"I"}, ReturnType: "I",
	}
}

func TestDecompileMethodSucceeds(t *testing.T) {
	r := DecompileMethod(identityMethod())
	require.Nil(t, r.Err)
	assert.NotNil(t, r.View.Graph)
	assert.NotNil(t, r.View.Root)
}

func TestDecompileMethodNativeHasNoCode(t *testing.T) {
	mi := &dex.MethodInput{ClassName: "LMain;", Name: "native", Static: true, ReturnType: "V"}
	r := DecompileMethod(mi)
	require.Nil(t, r.Err)
	assert.Nil(t, r.View.Graph)
	assert.Nil(t, r.View.Root)
}

func TestDecompileMethodMalformedCFGIsIsolated(t *testing.T) {
	entry := &dex.RawBlock{ID: 0, Instructions: []*dex.Instruction{{Kind: dex.KGoto}},
		Succs: []dex.RawEdge{{Target: nil}}}
	mi := &dex.MethodInput{ClassName: "LMain;", Name: "broken", Static: true, Entry: entry, ReturnType: "V"}
	r := DecompileMethod(mi)
	require.NotNil(t, r.Err)
	assert.True(t, r.Err.Kind == "D0001")
}

func TestDecompileClassIsolatesOneBadMethod(t *testing.T) {
	goodFail := &dex.RawBlock{ID: 0, Instructions: []*dex.Instruction{{Kind: dex.KGoto}},
		Succs: []dex.RawEdge{{Target: nil}}}
	ci := &ClassInput{
		RawName: "LMain;",
		Methods: []*dex.MethodInput{
			identityMethod(),
			{ClassName: "LMain;", Name: "broken", Entry: goodFail, ReturnType: "V"},
		},
	}
	result := DecompileClass(ci)
	require.Len(t, result.Methods, 2)
	assert.Nil(t, result.Methods[0].Err)
	assert.NotNil(t, result.Methods[1].Err)
}

func TestDecompileClassMissingRawNameSkips(t *testing.T) {
	result := DecompileClass(&ClassInput{})
	assert.NotNil(t, result.Err)
}

func TestFindClassBySubstringFirstHit(t *testing.T) {
	pi := &ProgramInput{Classes: []*ClassInput{
		{RawName: "LMainActivity;"},
		{RawName: "LMain;"},
	}}
	found := FindClassBySubstring(pi, "Main")
	require.NotNil(t, found)
	assert.Equal(t, "LMainActivity;", found.RawName, "first substring match wins, ambiguity included")
}

func TestDecompileProgramNilIsEmpty(t *testing.T) {
	assert.Empty(t, DecompileProgram(nil).Classes)
}
