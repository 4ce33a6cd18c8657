// Package derrors defines the decompiler's error kinds and the
// propagation policy around them. Error codes follow the
// same range-partitioned scheme the rest of the pack's diagnostics use:
// one short code per kind, grouped by pipeline stage.
package derrors

// Kind classifies a decompiler error by the policy that governs it
//: whether the caller sees it, whether it aborts the method,
// the class, or the whole run.
type Kind string

const (
	// MalformedInput: container parse failure, or a method that should
	// have code but has none. Surfaced to the caller.
	MalformedInput Kind = "D0001"

	// UnstructurableRegion: the structurer could not reduce a region.
	// Policy is best-effort output with synthetic labels, not abort.
	UnstructurableRegion Kind = "D0002"

	// TypeResolutionAmbiguity: conflicting type evidence for a variable.
	// Falls back to java.lang.Object; recorded as a comment.
	TypeResolutionAmbiguity Kind = "D0003"

	// InternalInvariantViolation: a DefUse or structurer invariant check
	// failed. The method is skipped with a logged warning.
	InternalInvariantViolation Kind = "D0004"
)

// Description returns a human-readable summary of a Kind, grounded in
// 's error-kind table.
func Description(k Kind) string {
	switch k {
	case MalformedInput:
		return "container parse failure or a method missing expected code"
	case UnstructurableRegion:
		return "structurer could not reduce a control-flow region"
	case TypeResolutionAmbiguity:
		return "conflicting type evidence for a variable"
	case InternalInvariantViolation:
		return "an internal DefUse or structurer invariant was violated"
	default:
		return "unknown decompiler error"
	}
}

// Fatal reports whether a Kind aborts the method outright rather than
// degrading to a best-effort stub.
func Fatal(k Kind) bool {
	switch k {
	case MalformedInput, InternalInvariantViolation:
		return true
	default:
		return false
	}
}
