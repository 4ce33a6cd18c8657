package derrors

import (
	"fmt"

	"github.com/fatih/color"
)

// MethodError wraps a decompiler failure with the method/class context
// the orchestrator boundary needs to log it and continue ("per
// method failures are caught and isolated at the orchestrator
// boundary"). It is the source's broad catch-all, kept as documented
// policy rather than removed.
type MethodError struct {
	Kind Kind
	ClassName string
	Method string
	Message string
	Cause error
}

func (e *MethodError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s.%s: [%s] %s: %v", e.ClassName, e.Method, e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s.%s: [%s] %s", e.ClassName, e.Method, e.Kind, e.Message)
}

func (e *MethodError) Unwrap() error { return e.Cause }

// NewMethodError builds a MethodError, defaulting Message to the Kind's
// stock description when the caller has nothing more specific to say.
func NewMethodError(kind Kind, className, method string, cause error) *MethodError {
	return &MethodError{Kind: kind, ClassName: className, Method: method, Message: Description(kind), Cause: cause}
}

// ClassError wraps a failure that skips an entire class (// "per-class failures (missing class metadata) skip the class").
type ClassError struct {
	ClassName string
	Message string
	Cause error
}

func (e *ClassError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.ClassName, e.Message, e.Cause)
}

func (e *ClassError) Unwrap() error { return e.Cause }

// ContainerError wraps a failure that aborts the whole run (// "container-level failures abort the run").
type ContainerError struct {
	Message string
	Cause error
}

func (e *ContainerError) Error() string {
	return fmt.Sprintf("container: %s: %v", e.Message, e.Cause)
}

func (e *ContainerError) Unwrap() error { return e.Cause }

// FormatMethodError renders a MethodError the way the CLI surfaces
// fatal parse diagnostics: a colored level tag followed by the message.
func FormatMethodError(e *MethodError) string {
	tag := color.New(color.FgYellow, color.Bold).SprintFunc()
	if Fatal(e.Kind) {
		tag = color.New(color.FgRed, color.Bold).SprintFunc()
	}
	return fmt.Sprintf("%s [%s] %s", tag("warning:"), e.Kind, e.Error())
}
