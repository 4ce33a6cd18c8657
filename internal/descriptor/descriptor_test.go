package descriptor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrimitive(t *testing.T) {
	d, err := Parse("I")
	require.NoError(t, err)
	assert.Equal(t, "int", d.JavaName())
	assert.True(t, d.IsPrimitive())
	assert.False(t, d.IsWide())
}

func TestParseWidePrimitive(t *testing.T) {
	d, err := Parse("J")
	require.NoError(t, err)
	assert.Equal(t, "long", d.JavaName())
	assert.True(t, d.IsWide())
}

func TestParseClass(t *testing.T) {
	d, err := Parse("Ljava/lang/String;")
	require.NoError(t, err)
	assert.Equal(t, "java.lang.String", d.JavaName())
	assert.False(t, d.IsPrimitive())
}

func TestParseArray(t *testing.T) {
	d, err := Parse("[I")
	require.NoError(t, err)
	assert.Equal(t, "int[]", d.JavaName())
}

func TestParseArrayOfClass(t *testing.T) {
	d, err := Parse("[Ljava/lang/Object;")
	require.NoError(t, err)
	assert.Equal(t, "java.lang.Object[]", d.JavaName())
}

func TestParseInvalid(t *testing.T) {
	_, err := Parse("")
	assert.Error(t, err)
}

func TestJavaNameHelper(t *testing.T) {
	assert.Equal(t, "java.lang.Object", JavaName("Ljava/lang/Object;"))
	// Malformed input falls back to the raw string rather than panicking.
	assert.Equal(t, "not-a-descriptor", JavaName("not-a-descriptor"))
}

func TestParsePrototypeNoArgs(t *testing.T) {
	p, err := ParsePrototype("()V")
	require.NoError(t, err)
	assert.Empty(t, p.JavaParams())
	assert.Equal(t, "void", p.JavaReturn())
}

func TestParsePrototypeWithArgs(t *testing.T) {
	p, err := ParsePrototype("(ILjava/lang/String;)Ljava/lang/String;")
	require.NoError(t, err)
	assert.Equal(t, []string{"int", "java.lang.String"}, p.JavaParams())
	assert.Equal(t, "java.lang.String", p.JavaReturn())
	assert.Equal(t, "(int, java.lang.String): java.lang.String", p.JavaSignature())
}

func TestMethodReturnTypeHelper(t *testing.T) {
	assert.Equal(t, "java.lang.String", MethodReturnType("(II)Ljava/lang/String;"))
	assert.Equal(t, "", MethodReturnType(""))
	assert.Equal(t, "", MethodReturnType("not-a-prototype"))
}

func TestSignedByteRoundTrip(t *testing.T) {
	cases := []struct {
		stored uint8
		want int8
	}{
		{0xFF, -1},
		{0x80, -128},
		{0x7F, 127},
		{0x00, 0},
	}
	for _, c := range cases {
		got := DecodeSignedByte(c.stored)
		assert.Equal(t, c.want, got)
		assert.Equal(t, c.stored, EncodeSignedByte(got))
	}
}

func TestSignedByteRoundTripExhaustive(t *testing.T) {
	for i := 0; i < 256; i++ {
		stored := uint8(i)
		decoded := DecodeSignedByte(stored)
		assert.Equal(t, stored, EncodeSignedByte(decoded))
	}
}
