package polaris

import "sync/atomic"

// idAllocator hands out monotonic, gap-free NodeID/EdgeID values. One
// allocator is shared by reference across every nested subgraph builder,
// which is what makes IDs unique and sequential no matter how deeply
// Parallel/Loop/Decision nesting goes. ID 0 is reserved to mean "no node".
type idAllocator struct {
	nodeSeq atomic.Uint64
	edgeSeq atomic.Uint64
}

func newIDAllocator() *idAllocator {
	return &idAllocator{}
}

func (a *idAllocator) nextNode() NodeID {
	return NodeID(a.nodeSeq.Add(1))
}

func (a *idAllocator) nextEdge() EdgeID {
	return EdgeID(a.edgeSeq.Add(1))
}

// Graph is the node/edge data structure a Builder assembles. Subgraphs
// built inside AddConditionalBranch/AddSwitch/AddParallel/AddLoop share
// this Graph's underlying node/edge maps and idAllocator — they are
// plain Go values, not copies, scoped only by their own entry/tail cursor.
type Graph struct {
	alloc *idAllocator
	nodes map[NodeID]*Node
	edges map[EdgeID]*Edge

	entry    NodeID
	hasEntry bool
	tail     NodeID
	hasTail  bool
}

// NewGraph creates an empty top-level Graph with a fresh ID allocator.
func NewGraph() *Graph {
	return &Graph{
		alloc: newIDAllocator(),
		nodes: make(map[NodeID]*Node),
		edges: make(map[EdgeID]*Edge),
	}
}

func (g *Graph) subgraph() *Graph {
	return &Graph{alloc: g.alloc, nodes: g.nodes, edges: g.edges}
}

// IsEmpty reports whether the graph has no nodes.
func (g *Graph) IsEmpty() bool { return len(g.nodes) == 0 }

// NodeCount returns the total number of nodes across the whole graph.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the total number of edges across the whole graph.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Entry returns the graph's single entry node, the first node added at
// the top level.
func (g *Graph) Entry() (NodeID, bool) { return g.entry, g.hasEntry }

// GetNode looks up a node by ID.
func (g *Graph) GetNode(id NodeID) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// GetEdge looks up an edge by ID.
func (g *Graph) GetEdge(id EdgeID) (*Edge, bool) {
	e, ok := g.edges[id]
	return e, ok
}

// Nodes returns every node in the graph, order unspecified.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n)
	}
	return out
}

// Edges returns every edge in the graph, order unspecified.
func (g *Graph) Edges() []*Edge {
	out := make([]*Edge, 0, len(g.edges))
	for _, e := range g.edges {
		out = append(out, e)
	}
	return out
}

// outgoingSequential returns the target of the first Sequential edge
// leaving from, if one exists. LoopBack, Error and Timeout edges are not
// considered.
func (g *Graph) outgoingSequential(from NodeID) (NodeID, bool) {
	for _, e := range g.edges {
		if e.From == from && e.Kind == EdgeSequential {
			return e.To, true
		}
	}
	return 0, false
}

func (g *Graph) errorFallback(from NodeID) (NodeID, bool) {
	for _, e := range g.edges {
		if e.From == from && e.Kind == EdgeError {
			return e.To, true
		}
	}
	return 0, false
}

func (g *Graph) timeoutFallback(from NodeID) (NodeID, bool) {
	for _, e := range g.edges {
		if e.From == from && e.Kind == EdgeTimeout {
			return e.To, true
		}
	}
	return 0, false
}

func (g *Graph) conditionalEdge(from NodeID) (*Edge, bool) {
	for _, e := range g.edges {
		if e.From == from && e.Kind == EdgeConditional {
			return e, true
		}
	}
	return nil, false
}

func (g *Graph) parallelEdge(from NodeID) (*Edge, bool) {
	for _, e := range g.edges {
		if e.From == from && e.Kind == EdgeParallel {
			return e, true
		}
	}
	return nil, false
}

func (g *Graph) link(from, to NodeID, kind EdgeKind) {
	id := g.alloc.nextEdge()
	g.edges[id] = &Edge{ID: id, Kind: kind, From: from, To: to}
}

// place registers a freshly allocated node at the current insertion
// point: wires a sequential edge from the prior tail (if any), sets the
// graph's entry on first use, and advances the tail to this node.
func (g *Graph) place(n *Node) {
	g.nodes[n.ID] = n
	if g.hasTail {
		g.link(g.tail, n.ID, EdgeSequential)
	}
	if !g.hasEntry {
		g.entry = n.ID
		g.hasEntry = true
	}
	g.tail = n.ID
	g.hasTail = true
}

// AddSystem appends a System node at the current insertion point.
func (g *Graph) AddSystem(sys AnySystem) *Graph {
	id := g.alloc.nextNode()
	g.place(&Node{ID: id, Name: sys.Name(), Kind: NodeSystem, System: sys})
	return g
}

// WithErrorFallback attaches an error-fallback edge from the most
// recently added node to target, followed when that node's system
// returns any error instead of aborting the graph.
func (g *Graph) WithErrorFallback(target NodeID) *Graph {
	if g.hasTail {
		g.link(g.tail, target, EdgeError)
	}
	return g
}

// WithTimeoutFallback attaches a timeout-fallback edge from the most
// recently added node to target. The kernel itself starts no timer;
// this wire is for caller-driven timeout wrappers (see design notes).
func (g *Graph) WithTimeoutFallback(target NodeID) *Graph {
	if g.hasTail {
		g.link(g.tail, target, EdgeTimeout)
	}
	return g
}

func predicateAny[I any](p func(I) bool) func(any) bool {
	return func(v any) bool {
		typed, ok := v.(I)
		if !ok {
			return false
		}
		return p(typed)
	}
}

func discriminatorAny[I any](d func(I) string) func(any) string {
	return func(v any) string {
		typed, ok := v.(I)
		if !ok {
			return ""
		}
		return d(typed)
	}
}

// AddConditionalBranch inserts a Decision node reading input type I,
// recursively builds both subgraphs against the same allocator, then
// auto-creates a Join that the following node connects from.
func AddConditionalBranch[I any](g *Graph, name string, predicate func(I) bool, trueBranch, falseBranch func(*Graph)) *Graph {
	id := g.alloc.nextNode()
	node := &Node{ID: id, Name: name, Kind: NodeDecision, InputType: reflectTypeOf[I](), Predicate: predicateAny(predicate)}
	g.place(node)

	trueG := g.subgraph()
	trueBranch(trueG)
	falseG := g.subgraph()
	falseBranch(falseG)

	edgeID := g.alloc.nextEdge()
	g.edges[edgeID] = &Edge{ID: edgeID, Kind: EdgeConditional, From: id, TrueTo: trueG.entry, FalseTo: falseG.entry}

	joinID := g.alloc.nextNode()
	joinNode := &Node{ID: joinID, Name: name + "_join", Kind: NodeJoin}
	g.nodes[joinID] = joinNode
	if trueG.hasTail {
		g.link(trueG.tail, joinID, EdgeSequential)
	}
	if falseG.hasTail {
		g.link(falseG.tail, joinID, EdgeSequential)
	}
	g.tail = joinID
	g.hasTail = true
	return g
}

// AddSwitch inserts a Switch node reading input type I, evaluating a
// discriminator into one of N case keys, each built as its own subgraph
// against the shared allocator, with a mandatory default subgraph.
func AddSwitch[I any](g *Graph, name string, discriminator func(I) string, cases map[string]func(*Graph), defaultBranch func(*Graph)) *Graph {
	id := g.alloc.nextNode()
	node := &Node{ID: id, Name: name, Kind: NodeSwitch, InputType: reflectTypeOf[I](), Discriminator: discriminatorAny(discriminator)}
	g.place(node)

	joinID := g.alloc.nextNode()
	joinNode := &Node{ID: joinID, Name: name + "_join", Kind: NodeJoin}

	edge := &Edge{Kind: EdgeConditional, From: id, SwitchCases: make(map[string]NodeID)}

	caseKeys := make([]string, 0, len(cases))
	for key := range cases {
		caseKeys = append(caseKeys, key)
	}
	sortStrings(caseKeys)
	for _, key := range caseKeys {
		build := cases[key]
		caseG := g.subgraph()
		build(caseG)
		edge.SwitchCases[key] = caseG.entry
		if caseG.hasTail {
			g.link(caseG.tail, joinID, EdgeSequential)
		}
	}
	if defaultBranch != nil {
		defG := g.subgraph()
		defaultBranch(defG)
		edge.Default = defG.entry
		edge.HasDefault = true
		if defG.hasTail {
			g.link(defG.tail, joinID, EdgeSequential)
		}
	}

	edgeID := g.alloc.nextEdge()
	edge.ID = edgeID
	g.edges[edgeID] = edge

	g.nodes[joinID] = joinNode
	g.tail = joinID
	g.hasTail = true
	return g
}

// AddParallel fans out to N independent branches, auto-joined after all
// complete. Outputs from distinct branches are both kept; outputs
// colliding on type are last-writer-wins at runtime (flagged as a
// warning, not an error, by the Validator).
func (g *Graph) AddParallel(name string, branches []func(*Graph)) *Graph {
	id := g.alloc.nextNode()
	node := &Node{ID: id, Name: name, Kind: NodeParallel}
	g.place(node)

	joinID := g.alloc.nextNode()
	joinNode := &Node{ID: joinID, Name: name + "_join", Kind: NodeJoin}

	targets := make([]NodeID, 0, len(branches))
	for _, build := range branches {
		branchG := g.subgraph()
		build(branchG)
		if branchG.hasEntry {
			targets = append(targets, branchG.entry)
		}
		if branchG.hasTail {
			g.link(branchG.tail, joinID, EdgeSequential)
		}
	}
	node.ParallelBranches = targets

	edgeID := g.alloc.nextEdge()
	g.edges[edgeID] = &Edge{ID: edgeID, Kind: EdgeParallel, From: id, Targets: targets}

	g.nodes[joinID] = joinNode
	g.tail = joinID
	g.hasTail = true
	return g
}

// AddLoop inserts a Loop node: the body subgraph is built with the same
// allocator; a loop-back edge runs from the body's last node to the
// Loop node itself. The Loop node is the insertion point for whatever
// follows (executed once the termination predicate returns true).
func AddLoop[I any](g *Graph, name string, terminationPredicate func(I) bool, body func(*Graph)) *Graph {
	id := g.alloc.nextNode()
	node := &Node{ID: id, Name: name, Kind: NodeLoop, InputType: reflectTypeOf[I](), LoopPredicate: predicateAny(terminationPredicate)}
	g.place(node)

	bodyG := g.subgraph()
	body(bodyG)
	node.LoopBodyEntry = bodyG.entry

	// No edge is recorded from the Loop node to its own body entry:
	// both the Executor (runLoop) and the Validator (simulateLoopBody /
	// countBody / markBodyVisited) enter the body via node.LoopBodyEntry
	// directly. Recording it as a Sequential edge would collide with the
	// Sequential edge a later AddSystem/etc. wires from this same node
	// to whatever follows the loop, making outgoingSequential(id)
	// ambiguous between "enter body" and "after loop".
	if bodyG.hasTail {
		g.link(bodyG.tail, id, EdgeLoopBack)
	}
	return g
}

// AddLoopN inserts an iteration-capped Loop node with no user predicate.
func (g *Graph) AddLoopN(name string, n int, body func(*Graph)) *Graph {
	id := g.alloc.nextNode()
	node := &Node{ID: id, Name: name, Kind: NodeLoop, MaxIterations: n}
	g.place(node)

	bodyG := g.subgraph()
	body(bodyG)
	node.LoopBodyEntry = bodyG.entry

	// No edge is recorded from the Loop node to its own body entry:
	// both the Executor (runLoop) and the Validator (simulateLoopBody /
	// countBody / markBodyVisited) enter the body via node.LoopBodyEntry
	// directly. Recording it as a Sequential edge would collide with the
	// Sequential edge a later AddSystem/etc. wires from this same node
	// to whatever follows the loop, making outgoingSequential(id)
	// ambiguous between "enter body" and "after loop".
	if bodyG.hasTail {
		g.link(bodyG.tail, id, EdgeLoopBack)
	}
	return g
}
