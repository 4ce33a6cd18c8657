package dataflow

import (
	"github.com/tliron/commonlog"

	"dad/internal/dex"
	"dad/internal/graph"
)

var log = commonlog.GetLogger("dad.dataflow")

type regDefSet map[dex.Register]map[DefSite]bool

func (s regDefSet) clone() regDefSet {
	out := make(regDefSet, len(s))
	for r, defs := range s {
		out[r] = make(map[DefSite]bool, len(defs))
		for d := range defs {
			out[r][d] = true
		}
	}
	return out
}

func unionInto(dst regDefSet, src regDefSet) bool {
	changed := false
	for r, defs := range src {
		if dst[r] == nil {
			dst[r] = make(map[DefSite]bool)
		}
		for d := range defs {
			if !dst[r][d] {
				dst[r][d] = true
				changed = true
			}
		}
	}
	return changed
}

// BuildDefUse computes reaching definitions over the CFG and returns the
// bidirectional def-use / use-def maps. paramRegs seeds a
// synthetic definition for every method parameter at the entry block.
func BuildDefUse(g *graph.Graph, paramRegs []dex.Register) *Context {
	g.ComputeRPO()
	order := g.RPOOrder()

	rdIn := make(map[int]regDefSet, len(order))
	rdOut := make(map[int]regDefSet, len(order))
	for _, id := range order {
		rdIn[id] = make(regDefSet)
		rdOut[id] = make(regDefSet)
	}

	// Fixed-point iterative reaching-definitions dataflow: RD_in[b] is the
	// union of RD_out over predecessors; RD_out[b] kills every register
	// redefined in b and adds b's own generated defs.
	changed := true
	for changed {
		changed = false
		for _, id := range order {
			block := g.Blocks[id]
			in := make(regDefSet)
			if id == g.Entry {
				for _, r := range paramRegs {
					in[r] = map[DefSite]bool{{Reg: r, Block: g.Entry, Index: -1}: true}
				}
			}
			for _, p := range block.In {
				unionInto(in, rdOut[p])
			}
			rdIn[id] = in

			out := in.clone()
			for idx, inst := range block.Instructions {
				if reg, ok := inst.Writes(); ok {
					out[reg] = map[DefSite]bool{{Reg: reg, Block: id, Index: idx}: true}
				}
			}
			if unionInto(rdOut[id], out) || !setEqual(rdOut[id], out) {
				rdOut[id] = out
				changed = true
			}
		}
	}

	defUses := make(map[DefSite][]UseSite)
	useDefs := make(map[UseSite][]DefSite)

	for _, id := range order {
		block := g.Blocks[id]
		current := rdIn[id].clone()
		for idx, inst := range block.Instructions {
			for opIdx, reg := range inst.Reads() {
				use := UseSite{Reg: reg, Block: id, Index: idx, Operand: opIdx}
				var defs []DefSite
				for d := range current[reg] {
					defs = append(defs, d)
				}
				defs = sortedDefSites(defs)
				useDefs[use] = defs
				for _, d := range defs {
					defUses[d] = append(defUses[d], use)
				}
			}
			if reg, ok := inst.Writes(); ok {
				current[reg] = map[DefSite]bool{{Reg: reg, Block: id, Index: idx}: true}
			}
		}
	}

	// Every def gets an entry in DefUses, even with zero uses, so later
	// passes don't need a presence check before ranging over it.
	for _, r := range paramRegs {
		d := DefSite{Reg: r, Block: g.Entry, Index: -1}
		if _, ok := defUses[d]; !ok {
			defUses[d] = nil
		}
	}
	for _, id := range order {
		block := g.Blocks[id]
		for idx, inst := range block.Instructions {
			if reg, ok := inst.Writes(); ok {
				d := DefSite{Reg: reg, Block: id, Index: idx}
				if _, ok := defUses[d]; !ok {
					defUses[d] = nil
				}
			}
		}
	}

	log.Debugf("build_def_use: %d defs, %d uses", len(defUses), len(useDefs))

	return &Context{Graph: g, DefUses: defUses, UseDefs: useDefs}
}

func setEqual(a, b regDefSet) bool {
	if len(a) != len(b) {
		return false
	}
	for r, defs := range a {
		other, ok := b[r]
		if !ok || len(other) != len(defs) {
			return false
		}
		for d := range defs {
			if !other[d] {
				return false
			}
		}
	}
	return true
}
