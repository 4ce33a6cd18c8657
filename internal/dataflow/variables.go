package dataflow

import (
	"sort"

	"dad/internal/dex"
)

// Variable is a named, typed slot the Writer renders as a Java local. A
// single Dalvik register can back more than one Variable across a
// method's lifetime once split_variables has run.
type Variable struct {
	ID int

	// Reg is the register this variable was split out of, kept for
	// diagnostics and for passes that still need to look up the
	// originating register set.
	Reg dex.Register

	// Defs is the reaching-def set that makes this variable's uses
	// equivalent: every use Env maps to this variable reaches from
	// exactly this set and no use outside it does.
	Defs []DefSite

	Type string // filled in by resolve_variables_type

	// DeclBlock/DeclIndex mark where place_declarations decided the
	// variable's declaration belongs; -1 until that pass runs.
	DeclBlock int
	DeclIndex int
}

// Env owns the variables a method has been split into and the mapping
// from every def/use site to the variable that now covers it.
type Env struct {
	Variables []*Variable

	byDef map[DefSite]*Variable
	byUse map[UseSite]*Variable
}

func newEnv() *Env {
	return &Env{byDef: make(map[DefSite]*Variable), byUse: make(map[UseSite]*Variable)}
}

// VariableForDef returns the variable a definition site now belongs to.
func (e *Env) VariableForDef(d DefSite) *Variable { return e.byDef[d] }

// VariableForUse returns the variable a use site now reads from.
func (e *Env) VariableForUse(u UseSite) *Variable { return e.byUse[u] }

// SplitVariables partitions every definition into equivalence classes
// keyed by reaching-def set identity, then assigns each class a fresh
// Variable: "two uses share a variable iff their reaching
// def sets are identical." A definition with no uses still gets its own
// variable, seeded by its own singleton def set, so dead stores are
// still nameable until dead_code_elimination removes them.
func SplitVariables(ctx *Context) {
	env := newEnv()

	classes := make(map[string]*Variable)
	var order []string // first-seen key order, for deterministic Variable.ID assignment

	classFor := func(key string, seed []DefSite) *Variable {
		v, ok := classes[key]
		if !ok {
			v = &Variable{ID: len(order), Defs: seed, DeclBlock: -1, DeclIndex: -1}
			if len(seed) > 0 {
				v.Reg = seed[0].Reg
			}
			classes[key] = v
			order = append(order, key)
		}
		return v
	}

	// Every use's reaching-def set determines its class; every def in
	// that set joins the same variable.
	uses := make([]UseSite, 0, len(ctx.UseDefs))
	for u := range ctx.UseDefs {
		uses = append(uses, u)
	}
	sort.Slice(uses, func(i, j int) bool { return uses[i].String() < uses[j].String() })

	for _, u := range uses {
		defs := ctx.UseDefs[u]
		key := reachingDefKey(defs)
		v := classFor(key, defs)
		env.byUse[u] = v
		for _, d := range defs {
			env.byDef[d] = v
		}
	}

	// Defs with zero uses (dead stores, or the synthetic entry defs for
	// unused parameters) never appeared above; give each its own class.
	defs := make([]DefSite, 0, len(ctx.DefUses))
	for d := range ctx.DefUses {
		defs = append(defs, d)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].String() < defs[j].String() })
	for _, d := range defs {
		if _, ok := env.byDef[d]; ok {
			continue
		}
		key := reachingDefKey([]DefSite{d})
		v := classFor(key, []DefSite{d})
		env.byDef[d] = v
	}

	for _, key := range order {
		env.Variables = append(env.Variables, classes[key])
	}

	ctx.Env = env
}
