package writer

import (
	"fmt"
	"strconv"

	"dad/internal/descriptor"
)

// FieldValue is the decoded initial value of a static or instance
// field, along with its descriptor, as handed to the decompiler by the
// frontend (the container parser, not this core, is responsible for
// pulling the raw constant out of the class file).
type FieldValue struct {
	Descriptor string
	Present bool // false when the field has no initial-value entry at all
	Value any // bool, string, int64, float64, uint8 (for B), etc., per Descriptor
}

// DecodeFieldLiteral renders a field's initial value as a Java source
// literal. Four cases get specific treatment:
//
// - Boolean fields decode on the *semantic* stored value (FieldValue.Value
// must already be a bool), not a string compare against "True" the
// way the original frontend's XML-derived value did — that bug was a
// property of that frontend's own string-typed storage, not of the
// the type itself, so a typed FieldValue sidesteps it entirely.
// - Byte fields route through descriptor.DecodeSignedByte/FormatHexByte,
// rendering the two's-complement value as a hex literal.
// - An absent or empty String value renders as the empty string
// literal `""`: there is no distinguishable "null" in the source
// data, so this core does not invent one.
// - See annotation.go for the fourth: the parameter-annotation
// off-by-one heuristic.
func DecodeFieldLiteral(fv FieldValue) string {
	if !fv.Present {
		return zeroLiteral(fv.Descriptor)
	}
	switch fv.Descriptor {
	case "Z":
		b, _ := fv.Value.(bool)
		return strconv.FormatBool(b)
	case "B":
		var stored uint8
		switch v := fv.Value.(type) {
		case uint8:
			stored = v
		case int64:
			stored = uint8(v)
		case int:
			stored = uint8(v)
		}
		return descriptor.FormatHexByte(descriptor.DecodeSignedByte(stored))
	case "I", "S", "C":
		return intLiteral(fv.Value)
	case "J":
		return intLiteral64(fv.Value) + "L"
	case "F":
		return floatLiteral(fv.Value, 32) + "f"
	case "D":
		return floatLiteral(fv.Value, 64)
	case "Ljava/lang/String;":
		s, _ := fv.Value.(string)
		return strconv.Quote(s) // empty/absent already folded into s == ""
	case "Ljava/lang/Class;":
		if s, ok := fv.Value.(string); ok && s != "" {
			return JavaType(s) + ".class"
		}
		return "null"
	default:
		return fmt.Sprintf("%v", fv.Value)
	}
}

func zeroLiteral(desc string) string {
	switch desc {
	case "Z":
		return "false"
	case "B", "S", "C", "I":
		return "0"
	case "J":
		return "0L"
	case "F":
		return "0f"
	case "D":
		return "0.0"
	case "Ljava/lang/String;":
		return `""`
	default:
		return "null"
	}
}

func intLiteral(v any) string {
	switch t := v.(type) {
	case int64:
		return strconv.FormatInt(t, 10)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case int:
		return strconv.Itoa(t)
	default:
		return "0"
	}
}

func intLiteral64(v any) string {
	switch t := v.(type) {
	case int64:
		return strconv.FormatInt(t, 10)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case int:
		return strconv.Itoa(t)
	default:
		return "0"
	}
}

func floatLiteral(v any, bits int) string {
	switch t := v.(type) {
	case float64:
		return strconv.FormatFloat(t, 'g', -1, bits)
	case float32:
		return strconv.FormatFloat(float64(t), 'g', -1, bits)
	default:
		return "0"
	}
}
