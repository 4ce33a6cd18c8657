package writer

import "strconv"

// Annotation is a single parsed annotation: its type descriptor plus
// whatever name/value pairs it carried.
type Annotation struct {
	Type string
	Values map[string]string
}

// AlignParameterAnnotations reshapes a frontend's raw per-parameter
// annotation list to line up with paramCount declared parameters.
//
// The frontend is known to sometimes omit the annotation list entry for
// an implicit receiver or leading synthetic parameter, leaving the
// annotation count one short of the parameter count. This preserves
// that exact off-by-one heuristic rather than a more "correct" general
// realignment: when the shortfall is exactly one, an empty annotation
// set is inserted at parameter 0 and the rest are assumed to already
// line up; any other mismatch is irreconcilable and falls back to no
// annotations at all for every parameter, with a warning for the
// caller to surface: preserved as documented behavior, not corrected to
// a general fix.
func AlignParameterAnnotations(raw [][]Annotation, paramCount int) (aligned [][]Annotation, warn string) {
	if len(raw) == paramCount {
		return raw, ""
	}
	if paramCount-len(raw) == 1 {
		out := make([][]Annotation, 0, paramCount)
		out = append(out, nil)
		out = append(out, raw...)
		return out, ""
	}
	out := make([][]Annotation, paramCount)
	return out, "failed to align parameter annotations: got " +
		strconv.Itoa(len(raw)) + " for " + strconv.Itoa(paramCount) + " parameters"
}
