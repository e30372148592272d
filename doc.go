// Package polaris is a typed directed-graph execution kernel for agent
// frameworks: a dependency-injected System abstraction, a Graph builder
// with Decision/Switch/Parallel/Loop control flow, a structural and
// resource-flow Validator, and a cooperative GraphExecutor with a
// lifecycle hook registry.
//
// # Resources and Systems
//
// A Server holds Global (read-only, server-lifetime) resources; a
// Context holds Local (mutable, per-execution) resources and Output
// slots. A System declares the parameters it needs via Res, ResMut, and
// Out, and the kernel derives its read/write access set automatically:
//
//	type Config struct{ Model string }
//	type Counter struct{ N int }
//
//	server := polaris.NewServer()
//	server.InsertGlobal(Config{Model: "gpt"})
//
//	increment := polaris.NewSystem1(
//		"increment",
//		polaris.ResMut[Counter](),
//		func(c *polaris.Context, counter *Counter) (int, *polaris.SystemError) {
//			counter.N++
//			return counter.N, nil
//		},
//	)
//
// # Building a graph
//
// A Graph is assembled with a builder whose nested subgraph closures
// all share one monotonic ID allocator, so node and edge identifiers
// never collide no matter how deeply Parallel/Loop/Decision nesting goes:
//
//	graph := polaris.NewGraph()
//	graph.AddSystem(reason).AddSystem(selectTool)
//	polaris.AddConditionalBranch(graph, "needs_tool",
//		func(r ReasoningResult) bool { return r.NeedsTool },
//		func(g *polaris.Graph) { g.AddSystem(invokeTool).AddSystem(observe) },
//		func(g *polaris.Graph) { g.AddSystem(respond) },
//	)
//
// # Validating and executing
//
// Graph.Validate runs structural checks plus a symbolic resource-flow
// simulation before any node runs; GraphExecutor then walks the graph,
// dispatching Observer/Provider hooks at each lifecycle schedule:
//
//	errs, warns := graph.Validate(server.Hooks())
//	if len(errs) > 0 {
//		log.Fatal(errs)
//	}
//	ctx := polaris.NewContext(server)
//	exec := polaris.NewGraphExecutor(graph, server.Hooks(), 1000)
//	if err := exec.Run(ctx); err != nil {
//		log.Fatal(err)
//	}
package polaris
