// Package dataflow computes def/use information over a method's CFG
// and runs the in-place transforms that turn raw register traffic into
// a small set of typed, declared variables. Every
// pass takes the same mutable Context rather than reaching into hidden
// globals: {graph, env, def_uses, use_defs}.
package dataflow

import (
	"fmt"
	"sort"

	"dad/internal/dex"
	"dad/internal/graph"
)

// DefSite identifies a single definition of a register: either a real
// instruction (Index >= 0) or the synthetic parameter definition at
// method entry (Index == -1, "Synthesise a definition for
// each parameter register at method entry").
type DefSite struct {
	Reg dex.Register
	Block int
	Index int
}

func (d DefSite) String() string {
	return fmt.Sprintf("r%d@%d:%d", d.Reg, d.Block, d.Index)
}

// UseSite identifies a single read of a register: the instruction that
// reads it, and which operand slot, since one instruction can read the
// same register more than once (e.g. x + x).
type UseSite struct {
	Reg dex.Register
	Block int
	Index int
	Operand int
}

func (u UseSite) String() string {
	return fmt.Sprintf("r%d@%d:%d#%d", u.Reg, u.Block, u.Index, u.Operand)
}

// Context is the shared mutable state every dataflow pass operates on.
type Context struct {
	Graph *graph.Graph
	Env *Env
	DefUses map[DefSite][]UseSite
	UseDefs map[UseSite][]DefSite
}

// sortedDefSites returns defs in a stable, comparable order so two
// reaching-def sets can be compared for equality by their string form:
// two uses are equivalent iff their reaching-def sets are identical.
func sortedDefSites(defs []DefSite) []DefSite {
	out := append([]DefSite(nil), defs...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Block != out[j].Block {
			return out[i].Block < out[j].Block
		}
		if out[i].Index != out[j].Index {
			return out[i].Index < out[j].Index
		}
		return out[i].Reg < out[j].Reg
	})
	return out
}

func reachingDefKey(defs []DefSite) string {
	key := ""
	for _, d := range sortedDefSites(defs) {
		key += d.String() + "|"
	}
	return key
}
