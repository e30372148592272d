package polaris

import (
	"fmt"
	"reflect"
)

// ValidationError is a fatal structural or resource-flow defect found by
// Graph.Validate. Kind says which defect it is; only the fields relevant
// to that kind are set (for example Edge and Node for a dangling edge,
// Node, Name and Type for a resource-flow error).
type ValidationError struct {
	Kind ValidationErrorKind

	Node   NodeID
	Name   string
	Branch string
	Edge   EdgeID
	Type   reflect.Type
}

type ValidationErrorKind int

const (
	ErrNoEntryPoint ValidationErrorKind = iota
	ErrInvalidEntryPoint
	ErrMissingPredicate
	ErrMissingBranch
	ErrNoTerminationCondition
	ErrDanglingEdge
	ErrLoopPredicateOutputNotProduced
	ErrParallelResourceWriteConflict
	ErrInputTypeNotAvailable
)

func (e *ValidationError) Error() string {
	switch e.Kind {
	case ErrNoEntryPoint:
		return "graph has no entry point"
	case ErrInvalidEntryPoint:
		return fmt.Sprintf("invalid node: entry points to absent node_%d", uint64(e.Node))
	case ErrMissingPredicate:
		return fmt.Sprintf("%s: missing predicate", e.Name)
	case ErrMissingBranch:
		return fmt.Sprintf("%s: missing %s branch", e.Name, e.Branch)
	case ErrNoTerminationCondition:
		return fmt.Sprintf("%s: no termination condition", e.Name)
	case ErrDanglingEdge:
		return fmt.Sprintf("edge %s references absent node %s", e.Edge, e.Node)
	case ErrLoopPredicateOutputNotProduced:
		return fmt.Sprintf("%s: loop body does not produce predicate input type %s", e.Name, typeNameOf(e.Type))
	case ErrParallelResourceWriteConflict:
		return fmt.Sprintf("%s: two parallel branches write the same resource type %s", e.Name, typeNameOf(e.Type))
	case ErrInputTypeNotAvailable:
		return fmt.Sprintf("%s: input type %s not available at node", e.Name, typeNameOf(e.Type))
	default:
		return "unknown validation error"
	}
}

// ValidationWarning is a non-fatal finding; the graph still executes.
type ValidationWarning struct {
	Kind ValidationWarningKind
	Node NodeID
	Name string
	Type reflect.Type
}

type ValidationWarningKind int

const (
	WarnConflictingParallelOutputs ValidationWarningKind = iota
)

func (w *ValidationWarning) String() string {
	switch w.Kind {
	case WarnConflictingParallelOutputs:
		return fmt.Sprintf("%s: branches produce conflicting output type %s (last-writer-wins at runtime)", w.Name, typeNameOf(w.Type))
	default:
		return "unknown validation warning"
	}
}

// Validate runs structural checks and a symbolic resource-flow analysis
// against the graph. hooks may be nil (treated as providing nothing).
// Validation never mutates the graph and is idempotent: repeated calls
// return equal (errors, warnings) sets.
func (g *Graph) Validate(hooks *HooksAPI) ([]ValidationError, []ValidationWarning) {
	var errs []ValidationError
	var warns []ValidationWarning

	if g.IsEmpty() {
		errs = append(errs, ValidationError{Kind: ErrNoEntryPoint})
		return errs, warns
	}

	entry, _ := g.Entry()
	if _, ok := g.nodes[entry]; !ok {
		errs = append(errs, ValidationError{Kind: ErrInvalidEntryPoint, Node: entry})
		return errs, warns
	}

	for _, e := range g.edges {
		for _, id := range e.endpoints() {
			if id == 0 {
				continue
			}
			if _, ok := g.nodes[id]; !ok {
				errs = append(errs, ValidationError{Kind: ErrDanglingEdge, Edge: e.ID, Node: id})
			}
		}
	}

	for _, n := range g.nodes {
		switch n.Kind {
		case NodeDecision:
			if n.Predicate == nil {
				errs = append(errs, ValidationError{Kind: ErrMissingPredicate, Node: n.ID, Name: n.Name})
				continue
			}
			edge, ok := g.conditionalEdge(n.ID)
			if !ok {
				errs = append(errs, ValidationError{Kind: ErrMissingBranch, Node: n.ID, Name: n.Name, Branch: "true"})
				continue
			}
			if edge.TrueTo == 0 {
				errs = append(errs, ValidationError{Kind: ErrMissingBranch, Node: n.ID, Name: n.Name, Branch: "true"})
			}
			if edge.FalseTo == 0 {
				errs = append(errs, ValidationError{Kind: ErrMissingBranch, Node: n.ID, Name: n.Name, Branch: "false"})
			}
		case NodeSwitch:
			if n.Discriminator == nil {
				errs = append(errs, ValidationError{Kind: ErrMissingPredicate, Node: n.ID, Name: n.Name})
			}
		case NodeLoop:
			if n.LoopPredicate == nil && n.MaxIterations <= 0 {
				errs = append(errs, ValidationError{Kind: ErrNoTerminationCondition, Node: n.ID, Name: n.Name})
			}
		}
	}

	if len(errs) > 0 {
		return errs, warns
	}

	flowErrs, flowWarns := g.analyzeResourceFlow(hooks)
	errs = append(errs, flowErrs...)
	warns = append(warns, flowWarns...)

	return errs, warns
}

func (e *Edge) endpoints() []NodeID {
	switch e.Kind {
	case EdgeConditional:
		ids := []NodeID{e.From, e.TrueTo, e.FalseTo}
		for _, t := range e.SwitchCases {
			ids = append(ids, t)
		}
		if e.HasDefault {
			ids = append(ids, e.Default)
		}
		return ids
	case EdgeParallel:
		ids := []NodeID{e.From}
		return append(ids, e.Targets...)
	default:
		return []NodeID{e.From, e.To}
	}
}

type typeSet map[reflect.Type]bool

func (s typeSet) clone() typeSet {
	out := make(typeSet, len(s))
	for t := range s {
		out[t] = true
	}
	return out
}

func (s typeSet) union(other typeSet) typeSet {
	out := s.clone()
	for t := range other {
		out[t] = true
	}
	return out
}

// analyzeResourceFlow symbolically simulates execution using the set of
// available output types at each node, starting from the entry with the
// set of types provided by OnGraphStart/OnSystemStart hooks. Loop
// back-edges are analyzed to a fixpoint bounded by the loop's body size.
func (g *Graph) analyzeResourceFlow(hooks *HooksAPI) ([]ValidationError, []ValidationWarning) {
	var errs []ValidationError
	var warns []ValidationWarning

	hookTypes := make(typeSet)
	if hooks != nil {
		for _, t := range hooks.ProvidedTypes(ScheduleIDOf[OnGraphStart]()) {
			hookTypes[t] = true
		}
		for _, t := range hooks.ProvidedTypes(ScheduleIDOf[OnSystemStart]()) {
			hookTypes[t] = true
		}
	}

	entry, _ := g.Entry()
	visited := make(map[NodeID]bool)

	var visit func(id NodeID, incoming typeSet)
	visit = func(id NodeID, incoming typeSet) {
		n, ok := g.nodes[id]
		if !ok || visited[id] {
			return
		}
		visited[id] = true

		switch n.Kind {
		case NodeSystem:
			for _, entry := range n.System.Access().Entries {
				if entry.IsOut && !incoming[entry.Type] {
					// Out<T> unmet: downstream OutputMissing is a runtime
					// concern (Testable Property 3); not duplicated as a
					// distinct validation error here since no such
					// variant is named for System nodes in the taxonomy.
					_ = entry
				}
			}
			out := incoming.clone()
			out[n.OutputType()] = true
			if next, ok := g.outgoingSequential(id); ok {
				visit(next, out)
			}
			if next, ok := g.errorFallback(id); ok {
				visit(next, out)
			}
			if next, ok := g.timeoutFallback(id); ok {
				visit(next, out)
			}

		case NodeDecision:
			if !incoming[n.InputType] {
				errs = append(errs, ValidationError{Kind: ErrInputTypeNotAvailable, Node: id, Name: n.Name, Type: n.InputType})
			}
			edge, _ := g.conditionalEdge(id)
			if edge != nil {
				visit(edge.TrueTo, incoming.clone())
				visit(edge.FalseTo, incoming.clone())
			}

		case NodeSwitch:
			if !incoming[n.InputType] {
				errs = append(errs, ValidationError{Kind: ErrInputTypeNotAvailable, Node: id, Name: n.Name, Type: n.InputType})
			}
			edge, _ := g.conditionalEdge(id)
			if edge != nil {
				for _, t := range edge.SwitchCases {
					visit(t, incoming.clone())
				}
				if edge.HasDefault {
					visit(edge.Default, incoming.clone())
				}
			}

		case NodeParallel:
			branchOut := make([]typeSet, 0, len(n.ParallelBranches))
			branchWrites := make([]map[reflect.Type]bool, 0, len(n.ParallelBranches))
			for _, b := range n.ParallelBranches {
				writes := make(map[reflect.Type]bool)
				out := simulateBranch(g, b, incoming.clone(), writes)
				branchOut = append(branchOut, out)
				branchWrites = append(branchWrites, writes)
			}
			union := incoming.clone()
			seen := make(map[reflect.Type]int)
			for _, out := range branchOut {
				for t := range out {
					if !incoming[t] {
						seen[t]++
					}
					union[t] = true
				}
			}
			for t, count := range seen {
				if count > 1 {
					warns = append(warns, ValidationWarning{Kind: WarnConflictingParallelOutputs, Node: id, Name: n.Name, Type: t})
				}
			}
			// ParallelResourceWriteConflict: two branches both writing the
			// same resource (ResMut) type, checked via each branch's
			// declared System access sets rather than the output set.
			writeOwners := make(map[reflect.Type]int)
			for _, w := range branchWrites {
				for t := range w {
					writeOwners[t]++
				}
			}
			for t, count := range writeOwners {
				if count > 1 {
					errs = append(errs, ValidationError{Kind: ErrParallelResourceWriteConflict, Node: id, Name: n.Name, Type: t})
				}
			}

			// Mark every node reachable within branches as visited (done
			// inside simulateBranch); now continue from the Join.
			if joinID, ok := g.joinAfterParallel(id); ok {
				visit(joinID, union)
			}

		case NodeJoin:
			if next, ok := g.outgoingSequential(id); ok {
				visit(next, incoming.clone())
			}

		case NodeLoop:
			if n.InputType != nil && !incoming[n.InputType] {
				// No predicate (iteration-capped loop) never reads InputType.
			}
			bodyIncoming := incoming.clone()
			bodyNodeCount := countBody(g, n.LoopBodyEntry, id)
			var afterBody typeSet
			for i := 0; i <= bodyNodeCount+1; i++ {
				afterBody = simulateLoopBody(g, n.LoopBodyEntry, id, bodyIncoming)
				if n.LoopPredicate == nil || afterBody[n.InputType] {
					break
				}
				if setsEqual(afterBody, bodyIncoming) {
					break
				}
				bodyIncoming = bodyIncoming.union(afterBody)
			}
			if n.LoopPredicate != nil && !afterBody[n.InputType] {
				errs = append(errs, ValidationError{Kind: ErrLoopPredicateOutputNotProduced, Node: id, Name: n.Name, Type: n.InputType})
			}
			markBodyVisited(g, n.LoopBodyEntry, id, visited)
			if next, ok := g.outgoingSequential(id); ok {
				visit(next, afterBody.union(incoming))
			}
		}
	}

	visit(entry, hookTypes)
	return errs, warns
}

// simulateBranch walks one Parallel branch from its entry to its
// terminator (a node with no further Sequential successor inside the
// branch), returning the accumulated output type set, and records
// ResMut write-target types for ParallelResourceWriteConflict detection.
func simulateBranch(g *Graph, start NodeID, incoming typeSet, writes map[reflect.Type]bool) typeSet {
	cur := start
	set := incoming
	for {
		n, ok := g.nodes[cur]
		if !ok {
			return set
		}
		if n.Kind == NodeSystem {
			set = set.clone()
			set[n.OutputType()] = true
			for _, e := range n.System.Access().Entries {
				if e.Write && !e.IsOut {
					writes[e.Type] = true
				}
			}
		}
		next, ok := g.outgoingSequential(cur)
		if !ok || isJoinNode(g, next) {
			return set
		}
		cur = next
	}
}

func isJoinNode(g *Graph, id NodeID) bool {
	n, ok := g.nodes[id]
	return ok && n.Kind == NodeJoin
}

// joinAfterParallel finds the Join node a Parallel node's branches all
// eventually connect to, by following any one branch's Sequential chain.
func (g *Graph) joinAfterParallel(parallelID NodeID) (NodeID, bool) {
	n := g.nodes[parallelID]
	for _, b := range n.ParallelBranches {
		cur := b
		for {
			next, ok := g.outgoingSequential(cur)
			if !ok {
				break
			}
			if isJoinNode(g, next) {
				return next, true
			}
			cur = next
		}
	}
	// No branch produced a node (empty branches); look for any Join
	// whose only predecessor set is this parallel's own id.
	for id, cand := range g.nodes {
		if cand.Kind != NodeJoin {
			continue
		}
		for _, e := range g.edges {
			if e.Kind == EdgeSequential && e.To == id {
				if _, isBranch := containsNode(n.ParallelBranches, e.From); isBranch || e.From == parallelID {
					return id, true
				}
			}
		}
	}
	return 0, false
}

func containsNode(ids []NodeID, target NodeID) (NodeID, bool) {
	for _, id := range ids {
		if id == target {
			return id, true
		}
	}
	return 0, false
}

func simulateLoopBody(g *Graph, start, loopID NodeID, incoming typeSet) typeSet {
	cur := start
	set := incoming.clone()
	for {
		n, ok := g.nodes[cur]
		if !ok {
			return set
		}
		if n.Kind == NodeSystem {
			set[n.OutputType()] = true
		}
		var next NodeID
		var hasNext bool
		for _, e := range g.edges {
			if e.From == cur && (e.Kind == EdgeSequential || e.Kind == EdgeLoopBack) {
				next = e.To
				hasNext = true
				break
			}
		}
		if !hasNext || next == loopID {
			return set
		}
		cur = next
	}
}

func countBody(g *Graph, start, loopID NodeID) int {
	count := 0
	cur := start
	seen := make(map[NodeID]bool)
	for {
		if seen[cur] {
			break
		}
		seen[cur] = true
		count++
		var next NodeID
		var hasNext bool
		for _, e := range g.edges {
			if e.From == cur && (e.Kind == EdgeSequential || e.Kind == EdgeLoopBack) {
				next = e.To
				hasNext = true
				break
			}
		}
		if !hasNext || next == loopID {
			break
		}
		cur = next
	}
	return count
}

func markBodyVisited(g *Graph, start, loopID NodeID, visited map[NodeID]bool) {
	cur := start
	for {
		if visited[cur] {
			return
		}
		visited[cur] = true
		var next NodeID
		var hasNext bool
		for _, e := range g.edges {
			if e.From == cur && (e.Kind == EdgeSequential || e.Kind == EdgeLoopBack) {
				next = e.To
				hasNext = true
				break
			}
		}
		if !hasNext || next == loopID {
			return
		}
		cur = next
	}
}

func setsEqual(a, b typeSet) bool {
	if len(a) != len(b) {
		return false
	}
	for t := range a {
		if !b[t] {
			return false
		}
	}
	return true
}
