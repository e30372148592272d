package polaris

import (
	"reflect"
	"sync"
	"time"
)

// GraphExecutor walks a validated Graph from its entry node, dispatching
// lifecycle hooks and routing control flow by edge kind. Concurrency
// arises only inside Parallel nodes; everything else runs one node at a
// time in issue order, matching the cooperative scheduling model.
type GraphExecutor struct {
	graph                 *Graph
	hooks                 *HooksAPI
	defaultMaxIterations  int
}

// NewGraphExecutor builds an executor for graph, dispatching hooks
// through hooks (may be nil) and capping the iterations of every loop
// that sets no MaxIterations of its own at defaultMaxIterations
// (10,000 when defaultMaxIterations is zero or negative).
func NewGraphExecutor(graph *Graph, hooks *HooksAPI, defaultMaxIterations int) *GraphExecutor {
	if defaultMaxIterations <= 0 {
		defaultMaxIterations = 10_000
	}
	return &GraphExecutor{graph: graph, hooks: hooks, defaultMaxIterations: defaultMaxIterations}
}

func (x *GraphExecutor) dispatch(c *Context, event *GraphEvent) {
	if x.hooks == nil {
		return
	}
	x.hooks.Dispatch(event, c)
}

// Run executes the graph to completion against c, starting at the
// configured entry node. Graph-level OnGraphStart/OnGraphComplete/
// OnGraphFailure bracket the whole traversal.
func (x *GraphExecutor) Run(c *Context) error {
	entry, ok := x.graph.Entry()
	if !ok {
		return &GraphExecutionError{Err: ExecutionErrorf("graph has no entry point")}
	}

	startedAt := time.Now()
	x.dispatch(c, &GraphEvent{Schedule: ScheduleIDOf[OnGraphStart](), StartedAt: startedAt})

	completed := make(map[NodeID]bool)
	err := x.run(c, entry, completed)

	if err != nil {
		x.dispatch(c, &GraphEvent{Schedule: ScheduleIDOf[OnGraphFailure](), Err: err, StartedAt: startedAt, EndedAt: time.Now()})
		return err
	}
	x.dispatch(c, &GraphEvent{Schedule: ScheduleIDOf[OnGraphComplete](), StartedAt: startedAt, EndedAt: time.Now()})
	return nil
}

// run dispatches on the current node's kind and recurses to its
// successor, terminating when a node has no outgoing edge.
func (x *GraphExecutor) run(c *Context, id NodeID, completed map[NodeID]bool) error {
	for {
		n, ok := x.graph.GetNode(id)
		if !ok {
			return &GraphExecutionError{Node: id, Err: ExecutionErrorf("node %s not found", id)}
		}

		switch n.Kind {
		case NodeSystem:
			next, err := x.runSystem(c, n)
			if err != nil {
				return err
			}
			completed[id] = true
			if !next.ok {
				return nil
			}
			id = next.id

		case NodeDecision:
			next, err := x.runDecision(c, n)
			if err != nil {
				return err
			}
			completed[id] = true
			id = next

		case NodeSwitch:
			next, err := x.runSwitch(c, n)
			if err != nil {
				return err
			}
			completed[id] = true
			id = next

		case NodeParallel:
			next, err := x.runParallel(c, n, completed)
			if err != nil {
				return err
			}
			completed[id] = true
			id = next

		case NodeJoin:
			completed[id] = true
			next, ok := x.graph.outgoingSequential(id)
			if !ok {
				return nil
			}
			id = next

		case NodeLoop:
			next, err := x.runLoop(c, n, completed)
			if err != nil {
				return err
			}
			completed[id] = true
			if next == nil {
				return nil
			}
			id = *next

		default:
			return &GraphExecutionError{Node: id, Err: ExecutionErrorf("unknown node kind")}
		}
	}
}

type nextNode struct {
	id NodeID
	ok bool
}

func (x *GraphExecutor) runSystem(c *Context, n *Node) (nextNode, error) {
	startedAt := time.Now()
	x.dispatch(c, &GraphEvent{Schedule: ScheduleIDOf[OnSystemStart](), Node: n.ID, SystemName: n.Name, StartedAt: startedAt})

	_, serr := n.System.RunAny(c)
	if serr != nil {
		x.dispatch(c, &GraphEvent{Schedule: ScheduleIDOf[OnSystemError](), Node: n.ID, SystemName: n.Name, Err: serr, StartedAt: startedAt, EndedAt: time.Now()})
		if fallback, ok := x.graph.errorFallback(n.ID); ok {
			return nextNode{id: fallback, ok: true}, nil
		}
		return nextNode{}, &GraphExecutionError{Node: n.ID, Err: serr}
	}

	x.dispatch(c, &GraphEvent{Schedule: ScheduleIDOf[OnSystemComplete](), Node: n.ID, SystemName: n.Name, StartedAt: startedAt, EndedAt: time.Now()})

	if next, ok := x.graph.outgoingSequential(n.ID); ok {
		return nextNode{id: next, ok: true}, nil
	}
	return nextNode{}, nil
}

func (x *GraphExecutor) runDecision(c *Context, n *Node) (NodeID, error) {
	x.dispatch(c, &GraphEvent{Schedule: ScheduleIDOf[OnDecisionStart](), Node: n.ID, SystemName: n.Name})

	input, err := x.readInput(c, n.InputType)
	if err != nil {
		return 0, &GraphExecutionError{Node: n.ID, Err: err}
	}

	edge, ok := x.graph.conditionalEdge(n.ID)
	if !ok {
		return 0, &GraphExecutionError{Node: n.ID, Err: ExecutionErrorf("decision %s has no conditional edge", n.Name)}
	}

	branch := "false"
	target := edge.FalseTo
	if n.Predicate(input) {
		branch = "true"
		target = edge.TrueTo
	}

	x.dispatch(c, &GraphEvent{Schedule: ScheduleIDOf[OnDecisionComplete](), Node: n.ID, SystemName: n.Name, Branch: branch})
	return target, nil
}

func (x *GraphExecutor) runSwitch(c *Context, n *Node) (NodeID, error) {
	x.dispatch(c, &GraphEvent{Schedule: ScheduleIDOf[OnSwitchStart](), Node: n.ID, SystemName: n.Name})

	input, err := x.readInput(c, n.InputType)
	if err != nil {
		return 0, &GraphExecutionError{Node: n.ID, Err: err}
	}

	edge, ok := x.graph.conditionalEdge(n.ID)
	if !ok {
		return 0, &GraphExecutionError{Node: n.ID, Err: ExecutionErrorf("switch %s has no case edge", n.Name)}
	}

	key := n.Discriminator(input)
	target, matched := edge.SwitchCases[key]
	if !matched {
		if !edge.HasDefault {
			return 0, &GraphExecutionError{Node: n.ID, Err: ExecutionErrorf("switch %s: no case %q and no default", n.Name, key)}
		}
		target = edge.Default
		key = "default"
	}

	x.dispatch(c, &GraphEvent{Schedule: ScheduleIDOf[OnSwitchComplete](), Node: n.ID, SystemName: n.Name, Branch: key})
	return target, nil
}

// readInput fetches a Decision/Switch/Loop's input type I from the
// Context's output slots, mirroring how Out<T> params are fetched.
func (x *GraphExecutor) readInput(c *Context, t reflect.Type) (any, *SystemError) {
	val, ok := c.outputs.GetAny(t)
	if !ok {
		return nil, &SystemError{Kind: SystemOutputMissing, Cause: &OutputError{TypeName: typeNameOf(t)}}
	}
	return val, nil
}

func (x *GraphExecutor) runParallel(c *Context, n *Node, completed map[NodeID]bool) (NodeID, error) {
	x.dispatch(c, &GraphEvent{Schedule: ScheduleIDOf[OnParallelStart](), Node: n.ID, SystemName: n.Name})

	var wg sync.WaitGroup
	errCh := make(chan error, len(n.ParallelBranches))
	for _, branchEntry := range n.ParallelBranches {
		wg.Add(1)
		go func(start NodeID) {
			defer wg.Done()
			branchCompleted := make(map[NodeID]bool)
			if err := x.run(c, start, branchCompleted); err != nil {
				errCh <- err
			}
		}(branchEntry)
	}
	wg.Wait()
	close(errCh)

	var firstErr error
	for err := range errCh {
		if firstErr == nil {
			firstErr = err
		}
	}
	if firstErr != nil {
		return 0, firstErr
	}

	x.dispatch(c, &GraphEvent{Schedule: ScheduleIDOf[OnParallelComplete](), Node: n.ID, SystemName: n.Name})

	join, ok := x.graph.joinAfterParallel(n.ID)
	if !ok {
		return 0, nil
	}
	return join, nil
}

func (x *GraphExecutor) runLoop(c *Context, n *Node, completed map[NodeID]bool) (*NodeID, error) {
	x.dispatch(c, &GraphEvent{Schedule: ScheduleIDOf[OnLoopStart](), Node: n.ID, SystemName: n.Name})

	maxIter := n.MaxIterations
	if maxIter <= 0 {
		maxIter = x.defaultMaxIterations
	}

	for i := 0; i < maxIter; i++ {
		x.dispatch(c, &GraphEvent{Schedule: ScheduleIDOf[OnLoopIteration](), Node: n.ID, SystemName: n.Name, Iteration: i})

		bodyCompleted := make(map[NodeID]bool)
		if err := x.run(c, n.LoopBodyEntry, bodyCompleted); err != nil {
			return nil, err
		}

		if n.LoopPredicate != nil {
			input, err := x.readInput(c, n.InputType)
			if err != nil {
				return nil, &GraphExecutionError{Node: n.ID, Err: err}
			}
			if n.LoopPredicate(input) {
				break
			}
		}

		if i == maxIter-1 && n.MaxIterations <= 0 {
			return nil, &GraphExecutionError{Node: n.ID, Err: ExecutionErrorf("loop iteration limit exceeded")}
		}
	}

	x.dispatch(c, &GraphEvent{Schedule: ScheduleIDOf[OnLoopEnd](), Node: n.ID, SystemName: n.Name})

	next, ok := x.graph.outgoingSequential(n.ID)
	if !ok {
		return nil, nil
	}
	return &next, nil
}
