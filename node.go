package polaris

import (
	"fmt"
	"reflect"
)

// NodeID is a stable, sequential vertex identifier. Allocation is
// monotonic across every subgraph sharing one idAllocator — never a
// per-subgraph counter with an offset.
type NodeID uint64

func (n NodeID) String() string { return fmt.Sprintf("node#%d", uint64(n)) }

// NodeKind discriminates the six node shapes the builder produces.
type NodeKind int

const (
	NodeSystem NodeKind = iota
	NodeDecision
	NodeSwitch
	NodeParallel
	NodeJoin
	NodeLoop
)

func (k NodeKind) String() string {
	switch k {
	case NodeSystem:
		return "System"
	case NodeDecision:
		return "Decision"
	case NodeSwitch:
		return "Switch"
	case NodeParallel:
		return "Parallel"
	case NodeJoin:
		return "Join"
	case NodeLoop:
		return "Loop"
	default:
		return "Unknown"
	}
}

// Node is one vertex: a stable identifier, a name, a kind, and (for
// System nodes) the System it wraps.
type Node struct {
	ID   NodeID
	Name string
	Kind NodeKind

	// System is populated for NodeSystem.
	System AnySystem

	// InputType names the type I a Decision/Switch/Loop reads (the
	// predicate/discriminator input).
	InputType reflect.Type

	// Predicate is set for NodeDecision: evaluates I, returns the branch.
	Predicate func(i any) bool

	// Discriminator is set for NodeSwitch: evaluates I, returns a case key.
	Discriminator func(i any) string

	// LoopPredicate is set for NodeLoop with a termination predicate
	// (nil when the loop is iteration-capped only, via AddLoopN).
	LoopPredicate func(i any) bool

	// MaxIterations caps a Loop's body repetitions; 0 means "use the
	// GraphExecutor's default_max_iterations".
	MaxIterations int

	// ParallelBranches names the entry nodes of a Parallel node's N
	// concurrent branches.
	ParallelBranches []NodeID

	// LoopBodyEntry is the first node of a Loop's body subgraph.
	LoopBodyEntry NodeID
}
