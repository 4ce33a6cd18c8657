package dex

// RawEdgeKind tags a successor edge as the frontend sees it, before the
// Graph package turns it into a fully-formed CFG edge.
type RawEdgeKind int

const (
	RawFallThrough RawEdgeKind = iota
	RawTrue
	RawFalse
	RawSwitchCase
)

// RawEdge is a single successor edge out of a RawBlock.
type RawEdge struct {
	Kind RawEdgeKind
	CaseKey int64
	Target *RawBlock
}

// RawBlock is the basic-block shape the frontend hands the core: an
// ordered instruction list with at most one branching tail instruction,
// plus its raw successor edges. Graph.Construct walks this shape to
// build the arena-owned Graph described in .
type RawBlock struct {
	ID int
	Instructions []*Instruction
	Succs []RawEdge
}

// CatchHandler pairs an exception type with the block that handles it.
type CatchHandler struct {
	Type string
	Handler *RawBlock
}

// ExceptionRange is the Dalvik exception-table entry: every block in
// Blocks is covered by this range's handler chain, tried in order.
type ExceptionRange struct {
	Blocks []*RawBlock
	Handlers []CatchHandler
}

// MethodInput is the read-only view of a parsed Dalvik method the core
// consumes (Upstream). Entry is nil for methods with no code
// (native/abstract).
type MethodInput struct {
	ClassName string
	Name string
	Static bool
	Access []string

	Entry *RawBlock

	RegistersSize int
	InsSize int

	ParamsType []string // Dalvik descriptor per parameter, excluding `this`
	ReturnType string

	Exceptions []ExceptionRange
}

// ParamRegisters returns the registers occupied by `this` (if
// non-static) followed by the formal parameters, in frame order. Per
// parameters occupy the last InsSize registers of the frame.
func (m *MethodInput) ParamRegisters() []Register {
	start := m.RegistersSize - m.InsSize
	var regs []Register
	if !m.Static {
		regs = append(regs, Register(start))
		start++
	}
	for _, t := range m.ParamsType {
		regs = append(regs, Register(start))
		start += TypeWidth(t)
	}
	return regs
}

// TypeWidth returns the register-width of a Dalvik descriptor: 2 for
// wide primitives (J, D), 1 otherwise.
func TypeWidth(descriptor string) int {
	if descriptor == "J" || descriptor == "D" {
		return 2
	}
	return 1
}

// BasicBlocks returns every block reachable from Entry, in discovery
// order, via a plain work-stack traversal rather than recursion, since a
// method's block count isn't bounded by anything but input size.
func (m *MethodInput) BasicBlocks() []*RawBlock {
	if m.Entry == nil {
		return nil
	}
	seen := map[*RawBlock]bool{m.Entry: true}
	order := []*RawBlock{m.Entry}
	stack := []*RawBlock{m.Entry}
	for len(stack) > 0 {
		b := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, e := range b.Succs {
			if e.Target != nil && !seen[e.Target] {
				seen[e.Target] = true
				order = append(order, e.Target)
				stack = append(stack, e.Target)
			}
		}
		for _, er := range m.Exceptions {
			for _, h := range er.Handlers {
				if h.Handler != nil && !seen[h.Handler] {
					seen[h.Handler] = true
					order = append(order, h.Handler)
					stack = append(stack, h.Handler)
				}
			}
		}
	}
	return order
}

// HasCode reports whether the method has a body to decompile. Native
// and abstract methods carry no code.
func (m *MethodInput) HasCode() bool { return m.Entry != nil }
