// Package decompile runs the fixed per-method pipeline and
// owns the three-tier error-isolation policy around it: a
// method failure is caught and skipped without losing its class, a
// class failure skips the class without aborting the run, and only a
// container-level failure aborts outright.
package decompile

import (
	"fmt"
	"strings"

	"github.com/tliron/commonlog"

	"dad/internal/dataflow"
	"dad/internal/derrors"
	"dad/internal/dex"
	"dad/internal/graph"
	"dad/internal/structure"
	"dad/internal/writer"
)

var log = commonlog.GetLogger("dad.decompile")

// MethodResult is one method's decompiled output, or the error that
// aborted it (callers render one or the other, never both).
type MethodResult struct {
	Input *dex.MethodInput
	View writer.MethodView
	Err *derrors.MethodError
}

// DecompileMethod runs the full fixed pipeline on one method:
// build_def_use, split_variables, dead_code_elimination,
// register_propagation, resolve_variables_type, new_instance_propagation,
// place_declarations, split_if_nodes, simplify, compute_rpo,
// identify_structures, in that order. Any panic or graph-construction
// failure is caught here and reported as a MethodError rather than
// propagated, so one malformed method never takes down its class.
func DecompileMethod(mi *dex.MethodInput) (result MethodResult) {
	result.Input = mi
	defer func() {
		if r := recover(); r != nil {
			result.Err = derrors.NewMethodError(derrors.InternalInvariantViolation, mi.ClassName, mi.Name,
				fmt.Errorf("panic: %v", r))
		}
	}()

	view := writer.MethodView{
		ClassName: mi.ClassName,
		Name: mi.Name,
		ReturnType: mi.ReturnType,
		Access: mi.Access,
	}
	for i, t := range mi.ParamsType {
		view.Params = append(view.Params, writer.Param{Name: fmt.Sprintf("p%d", i), Type: t})
	}

	if !mi.HasCode() {
		result.View = view
		return result
	}

	g, err := graph.Construct(mi.Entry, mi.ParamRegisters(), mi.Exceptions)
	if err != nil {
		result.Err = derrors.NewMethodError(derrors.MalformedInput, mi.ClassName, mi.Name, err)
		return result
	}

	ctx := dataflow.BuildDefUse(g, mi.ParamRegisters())
	dataflow.SplitVariables(ctx)
	dataflow.DeadCodeElimination(ctx)
	dataflow.RegisterPropagation(ctx)
	dataflow.ResolveVariablesType(ctx)
	// Parameter definitions carry no instruction, so their variables
	// take their type from the method signature instead.
	paramTypes := mi.ParamsType
	if !mi.Static {
		paramTypes = append([]string{mi.ClassName}, paramTypes...)
	}
	for i, r := range mi.ParamRegisters() {
		v := ctx.Env.VariableForDef(dataflow.DefSite{Reg: r, Block: g.Entry, Index: -1})
		if v != nil && v.Type == "" {
			v.Type = writer.JavaType(paramTypes[i])
		}
	}
	dataflow.NewInstancePropagation(ctx)
	dataflow.PlaceDeclarations(ctx)

	graph.SplitIfNodes(g)
	graph.Simplify(g)
	g.ComputeRPO()
	idom := g.ImmediateDominators()
	root := structure.IdentifyStructures(g, idom)

	view.Graph = g
	view.Env = ctx.Env
	view.Root = root

	if root != nil && root.Kind == structure.KindUnstructured {
		log.Warningf("%s.%s: %s", mi.ClassName, mi.Name, derrors.Description(derrors.UnstructurableRegion))
	}

	result.View = view
	return result
}

// ClassResult is one class's decompiled methods, or the error that
// skipped the whole class.
type ClassResult struct {
	Input *ClassInput
	Methods []MethodResult
	Err *derrors.ClassError
}

// ClassInput is the read-only view of a parsed class the core consumes.
type ClassInput struct {
	RawName string
	Name string
	Super string
	Flags []string
	IsInterface bool
	Interfaces []string
	Annotations []writer.Annotation
	Fields []FieldInput
	Methods []*dex.MethodInput
}

// FieldInput is the read-only view of a parsed field.
type FieldInput struct {
	Name string
	Type string
	Flags []string
	Value writer.FieldValue
}

// DecompileClass decompiles every method of ci, isolating each one: a
// method that fails is recorded and skipped, never aborting its
// siblings. ci itself being unusable (no name) is the one
// class-level failure this core can detect without frontend
// cooperation; everything else a frontend would reject (missing
// superclass metadata, say) never reaches this package.
func DecompileClass(ci *ClassInput) ClassResult {
	if ci == nil || ci.RawName == "" {
		return ClassResult{Input: ci, Err: &derrors.ClassError{Message: "class has no raw name"}}
	}
	result := ClassResult{Input: ci}
	for _, mi := range ci.Methods {
		mr := DecompileMethod(mi)
		if mr.Err != nil {
			log.Warningf("%s", derrors.FormatMethodError(mr.Err))
		}
		result.Methods = append(result.Methods, mr)
	}
	return result
}

// ProgramInput is the read-only view of every class a run should cover.
type ProgramInput struct {
	Classes []*ClassInput
}

// ProgramResult is the per-class results of a full run.
type ProgramResult struct {
	Classes []ClassResult
}

// FindClassBySubstring returns the first class (in pi.Classes order)
// whose raw name contains needle as a substring, or nil if none match.
// This mirrors the frontend's own class lookup exactly, substring match
// included: a needle like "Main" matches "LMainActivity;" just as
// readily as "LMain;", and only the first hit in declaration order is
// ever returned even when more than one class matches: preserved as
// documented CLI behavior, not tightened to an exact or unambiguous
// match.
func FindClassBySubstring(pi *ProgramInput, needle string) *ClassInput {
	if pi == nil {
		return nil
	}
	for _, ci := range pi.Classes {
		if ci != nil && strings.Contains(ci.RawName, needle) {
			return ci
		}
	}
	return nil
}

// DecompileProgram decompiles every class of pi. There is no
// container-level recovery path here: a nil ProgramInput or classes
// slice simply yields an empty ProgramResult, matching 's policy
// that only a genuine container-parse failure (handled upstream, before
// a ProgramInput exists at all) aborts the run.
func DecompileProgram(pi *ProgramInput) ProgramResult {
	if pi == nil {
		return ProgramResult{}
	}
	result := ProgramResult{}
	for _, ci := range pi.Classes {
		result.Classes = append(result.Classes, DecompileClass(ci))
	}
	return result
}
