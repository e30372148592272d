// Package agent defines a reusable pattern-builder seam on top of the
// graph kernel: an Agent describes its behavior once, as a function
// from an empty Graph to a populated one, so concrete patterns (ReAct,
// ReWOO, ...) stay decoupled from how the graph gets executed.
package agent

import (
	"reflect"

	polaris "github.com/TeamRadiantAI/polaris-sub001"
)

// Agent builds the directed graph of systems defining one agent
// pattern. Agents are builders, not executors — they hand the finished
// graph to a separate GraphExecutor.
type Agent interface {
	// Build populates graph with this agent's systems and control flow.
	// Called once when the graph is constructed.
	Build(graph *polaris.Graph)

	// Name identifies the agent for logging and tracing. Implementations
	// with no opinion can embed Named or return TypeName(self).
	Name() string
}

// Named supplies a fixed Name() for Agents that don't need per-instance
// naming, mirroring the teacher's default-to-type-name behavior without
// Go's lack of reflection-based type names on interfaces being a fully
// faithful stand-in — callers get an explicit, readable name instead.
type Named struct {
	name string
}

// NewNamed returns a Named embeddable with a fixed name.
func NewNamed(name string) Named { return Named{name: name} }

func (n Named) Name() string { return n.name }

// ToGraph builds and returns a's graph in a fresh Graph.
func ToGraph(a Agent) *polaris.Graph {
	graph := polaris.NewGraph()
	a.Build(graph)
	return graph
}

// TypeName returns the Go type name of a, for Agents that don't embed
// Named and want a name resembling the original crate's
// core::any::type_name::<Self>() default.
func TypeName(a Agent) string {
	t := reflect.TypeOf(a)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.PkgPath() + "." + t.Name()
}
