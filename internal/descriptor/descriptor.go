package descriptor

import (
	"fmt"
	"strings"
)

// JavaName renders the parsed descriptor in dotted Java source form,
// e.g. "Ljava/lang/String;" -> "java.lang.String", "[I" -> "int[]".
func (d *Descriptor) JavaName() string {
	if d.Array != nil {
		return d.Array.JavaName() + "[]"
	}
	if d.Class != nil {
		return strings.Join(d.Class.Parts, ".")
	}
	return primitiveName(d.Prim)
}

// IsWide reports whether this descriptor occupies two registers.
func (d *Descriptor) IsWide() bool {
	return d.Class == nil && d.Array == nil && (d.Prim == "J" || d.Prim == "D")
}

// IsPrimitive reports whether this descriptor names a primitive type.
func (d *Descriptor) IsPrimitive() bool {
	return d.Class == nil && d.Array == nil && d.Prim != ""
}

var primitiveNames = map[string]string{
	"B": "byte",
	"S": "short",
	"C": "char",
	"I": "int",
	"J": "long",
	"F": "float",
	"D": "double",
	"Z": "boolean",
	"V": "void",
}

func primitiveName(letter string) string {
	if name, ok := primitiveNames[letter]; ok {
		return name
	}
	return letter
}

// JavaName renders a raw descriptor string without building an AST
// first, for callers (like the Writer) that just need the dotted name.
func JavaName(raw string) string {
	d, err := Parse(raw)
	if err != nil {
		return raw
	}
	return d.JavaName()
}

// JavaParams renders a prototype's parameter types in dotted Java form.
func (p *Prototype) JavaParams() []string {
	out := make([]string, len(p.Params))
	for i, d := range p.Params {
		out[i] = d.JavaName()
	}
	return out
}

// JavaReturn renders a prototype's return type in dotted Java form.
func (p *Prototype) JavaReturn() string {
	return p.Return.JavaName()
}

// JavaSignature renders a prototype the way a decompiled call's
// signature hint reads, e.g. "(int, int): java.lang.String".
func (p *Prototype) JavaSignature() string {
	return "(" + strings.Join(p.JavaParams(), ", ") + "): " + p.JavaReturn()
}

// MethodReturnType parses a raw method-prototype descriptor (dex.
// Instruction.MethodDesc) and renders just its return type, for
// callers that only need the invoked method's static result type.
// Returns "" on an empty or unparsable descriptor.
func MethodReturnType(raw string) string {
	if raw == "" {
		return ""
	}
	p, err := ParsePrototype(raw)
	if err != nil {
		return ""
	}
	return p.JavaReturn()
}

// DecodeSignedByte converts an unsigned storage byte (0..255) to its
// two's-complement signed value, matching round-trip property:
// decode(0xFF) = -1, decode(0x80) = -128, decode(0x7F) = 127.
func DecodeSignedByte(stored uint8) int8 {
	return int8(stored)
}

// EncodeSignedByte is the inverse of DecodeSignedByte.
func EncodeSignedByte(v int8) uint8 {
	return uint8(v)
}

// FormatHexByte renders a signed byte value the way field-initialiser
// output does: a hex literal of its signed form, preserving a
// documented field-literal decoding quirk rather than a "nicer" decimal
// rendering.
func FormatHexByte(v int8) string {
	if v < 0 {
		return fmt.Sprintf("-0x%x", -int(v))
	}
	return fmt.Sprintf("0x%x", v)
}
