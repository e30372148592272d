package polaris

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testSystem(name string) *System[rawQuery] {
	return NewSystem0(name, func(c *Context) (rawQuery, *SystemError) {
		return rawQuery{Text: name}, nil
	})
}

func TestGraph_AddSystemChainsSequentially(t *testing.T) {
	g := NewGraph()
	g.AddSystem(testSystem("a")).AddSystem(testSystem("b"))

	require.Equal(t, 2, g.NodeCount())
	entry, ok := g.Entry()
	require.True(t, ok)

	n, _ := g.GetNode(entry)
	require.Equal(t, "a", n.Name)

	next, ok := g.outgoingSequential(entry)
	require.True(t, ok)
	nn, _ := g.GetNode(next)
	require.Equal(t, "b", nn.Name)
}

func TestGraph_NoIDCollisionInDeepNesting(t *testing.T) {
	g := NewGraph()
	g.AddSystem(testSystem("root"))

	AddConditionalBranch(g, "decide",
		func(r rawQuery) bool { return true },
		func(g *Graph) {
			g.AddParallel("fan", []func(*Graph){
				func(g *Graph) {
					AddLoop(g, "loop1", func(r rawQuery) bool { return true },
						func(g *Graph) { g.AddSystem(testSystem("loop_body_1")) })
				},
				func(g *Graph) {
					g.AddSystem(testSystem("branch_b"))
				},
			})
		},
		func(g *Graph) {
			g.AddSystem(testSystem("false_branch"))
		},
	)

	seenNodes := make(map[NodeID]bool)
	for _, n := range g.Nodes() {
		require.False(t, seenNodes[n.ID], "duplicate node id %s", n.ID)
		seenNodes[n.ID] = true
	}

	seenEdges := make(map[EdgeID]bool)
	for _, e := range g.Edges() {
		require.False(t, seenEdges[e.ID], "duplicate edge id %s", e.ID)
		seenEdges[e.ID] = true
	}
}

func TestGraph_IDsAreSequentialAcrossSubgraphs(t *testing.T) {
	g := NewGraph()
	g.AddSystem(testSystem("a"))
	AddConditionalBranch(g, "decide",
		func(r rawQuery) bool { return true },
		func(g *Graph) { g.AddSystem(testSystem("t1")).AddSystem(testSystem("t2")) },
		func(g *Graph) { g.AddSystem(testSystem("f1")) },
	)
	g.AddSystem(testSystem("after"))

	ids := make([]int, 0, g.NodeCount())
	for _, n := range g.Nodes() {
		ids = append(ids, int(n.ID))
	}
	for i := 0; i < len(ids); i++ {
		for j := i + 1; j < len(ids); j++ {
			require.NotEqual(t, ids[i], ids[j])
		}
	}
	sortInts(ids)
	for i := 1; i < len(ids); i++ {
		require.Equal(t, 1, ids[i]-ids[i-1], "node ids must be gap-free once sorted")
	}
}

func sortInts(s []int) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

func TestGraph_ConditionalBranchAutoJoins(t *testing.T) {
	g := NewGraph()
	AddConditionalBranch(g, "decide",
		func(r rawQuery) bool { return true },
		func(g *Graph) { g.AddSystem(testSystem("t")) },
		func(g *Graph) { g.AddSystem(testSystem("f")) },
	)
	g.AddSystem(testSystem("after"))

	entry, _ := g.Entry()
	decisionNode, _ := g.GetNode(entry)
	require.Equal(t, NodeDecision, decisionNode.Kind)

	edge, ok := g.conditionalEdge(entry)
	require.True(t, ok)

	trueNode, _ := g.GetNode(edge.TrueTo)
	require.Equal(t, "t", trueNode.Name)

	afterTrue, ok := g.outgoingSequential(edge.TrueTo)
	require.True(t, ok)
	joinNode, _ := g.GetNode(afterTrue)
	require.Equal(t, NodeJoin, joinNode.Kind)

	afterFalse, ok := g.outgoingSequential(edge.FalseTo)
	require.True(t, ok)
	require.Equal(t, afterTrue, afterFalse, "both branches must join at the same node")
}

func TestGraph_SwitchRoutesByDiscriminator(t *testing.T) {
	g := NewGraph()
	AddSwitch(g, "route",
		func(r rawQuery) string { return r.Text },
		map[string]func(*Graph){
			"a": func(g *Graph) { g.AddSystem(testSystem("case_a")) },
			"b": func(g *Graph) { g.AddSystem(testSystem("case_b")) },
		},
		func(g *Graph) { g.AddSystem(testSystem("default_case")) },
	)

	entry, _ := g.Entry()
	edge, ok := g.conditionalEdge(entry)
	require.True(t, ok)
	require.Len(t, edge.SwitchCases, 2)
	require.True(t, edge.HasDefault)
}

func TestGraph_ParallelRecordsAllBranchEntries(t *testing.T) {
	g := NewGraph()
	g.AddParallel("fan", []func(*Graph){
		func(g *Graph) { g.AddSystem(testSystem("p1")) },
		func(g *Graph) { g.AddSystem(testSystem("p2")) },
		func(g *Graph) { g.AddSystem(testSystem("p3")) },
	})

	entry, _ := g.Entry()
	n, _ := g.GetNode(entry)
	require.Equal(t, NodeParallel, n.Kind)
	require.Len(t, n.ParallelBranches, 3)
}

func TestGraph_LoopBackEdgeReturnsToLoopNode(t *testing.T) {
	g := NewGraph()
	AddLoop(g, "loop", func(r rawQuery) bool { return true },
		func(g *Graph) { g.AddSystem(testSystem("body")) })
	g.AddSystem(testSystem("after"))

	entry, _ := g.Entry()
	loopNode, _ := g.GetNode(entry)
	require.Equal(t, NodeLoop, loopNode.Kind)

	bodyNode, _ := g.GetNode(loopNode.LoopBodyEntry)
	require.Equal(t, "body", bodyNode.Name)

	var loopBackFound bool
	for _, e := range g.Edges() {
		if e.Kind == EdgeLoopBack && e.From == loopNode.LoopBodyEntry && e.To == entry {
			loopBackFound = true
		}
	}
	require.True(t, loopBackFound)

	// outgoingSequential from the loop node must resolve unambiguously to
	// the node placed after the loop, not the body entry.
	next, ok := g.outgoingSequential(entry)
	require.True(t, ok)
	nextNode, _ := g.GetNode(next)
	require.Equal(t, "after", nextNode.Name)
}

func TestGraph_AddLoopNSetsMaxIterations(t *testing.T) {
	g := NewGraph()
	g.AddLoopN("bounded", 5, func(g *Graph) { g.AddSystem(testSystem("body")) })

	entry, _ := g.Entry()
	n, _ := g.GetNode(entry)
	require.Equal(t, 5, n.MaxIterations)
	require.Nil(t, n.LoopPredicate)
}

func TestGraph_WithErrorFallbackAttachesEdge(t *testing.T) {
	g := NewGraph()
	g.AddSystem(testSystem("recover"))
	recoverID, _ := g.Entry()

	g.AddSystem(testSystem("risky"))
	riskyID, ok := g.outgoingSequential(recoverID)
	require.True(t, ok)

	g.WithErrorFallback(recoverID)

	target, ok := g.errorFallback(riskyID)
	require.True(t, ok)
	require.Equal(t, recoverID, target)
}
