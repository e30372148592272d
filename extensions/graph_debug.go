package extensions

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	polaris "github.com/TeamRadiantAI/polaris-sub001"
	"github.com/m1gwings/treedrawer/tree"
)

// GraphDebugExtension logs a rendering of the graph's node/edge topology
// when a system fails or the graph as a whole fails, so the failed node
// and its place in the control-flow tree are visible in one log line.
//
// Usage:
//
//	// Human-readable formatted output (with line breaks)
//	handler := extensions.NewHumanHandler(os.Stdout, slog.LevelError)
//	ext := extensions.NewGraphDebugExtension(graph, handler)
//
//	// Structured JSON logging (compact, machine-readable)
//	ext := extensions.NewGraphDebugExtension(graph, slog.NewJSONHandler(os.Stdout, nil))
//
//	// Silent (for testing)
//	ext := extensions.NewGraphDebugExtension(graph, extensions.NewSilentHandler())
type GraphDebugExtension struct {
	polaris.BasePlugin

	graph *polaris.Graph

	completed map[polaris.NodeID]bool
	failed    map[polaris.NodeID]error
	logger    *slog.Logger
}

// NewGraphDebugExtension creates a debug extension bound to graph,
// logging through logHandler (use HumanHandler for formatted output,
// or any other slog.Handler).
func NewGraphDebugExtension(graph *polaris.Graph, logHandler slog.Handler) *GraphDebugExtension {
	return &GraphDebugExtension{
		graph:     graph,
		completed: make(map[polaris.NodeID]bool),
		failed:    make(map[polaris.NodeID]error),
		logger:    slog.New(logHandler),
	}
}

func (e *GraphDebugExtension) ID() string { return "graph-debug" }

func (e *GraphDebugExtension) Version() polaris.Version { return polaris.NewVersion(0, 1, 0) }

func (e *GraphDebugExtension) Build(s *polaris.Server) {
	hooks := s.Hooks()

	polaris.RegisterObserver[polaris.OnSystemComplete](hooks, "graph_debug_system_complete", func(event *polaris.GraphEvent) {
		e.completed[event.Node] = true
	})
	polaris.RegisterObserver[polaris.OnSystemError](hooks, "graph_debug_system_error", func(event *polaris.GraphEvent) {
		e.failed[event.Node] = event.Err
		e.logError(event.Node, event.Err)
	})
	polaris.RegisterObserver[polaris.OnGraphFailure](hooks, "graph_debug_graph_failure", func(event *polaris.GraphEvent) {
		e.logError(event.Node, event.Err)
	})
}

func (e *GraphDebugExtension) logError(failedNode polaris.NodeID, failedErr error) {
	nodeName := e.nodeLabel(failedNode)
	graphOutput := e.formatGraph(failedNode, failedErr)

	e.logger.Error("Graph Execution Error",
		"node", nodeName,
		"error", fmt.Sprint(failedErr),
		"graph", graphOutput,
	)
}

// tryFormatHorizontalTree renders the graph's reachable topology as a
// horizontal tree rooted at the entry node.
func (e *GraphDebugExtension) tryFormatHorizontalTree(failedNode polaris.NodeID) string {
	entry, ok := e.graph.Entry()
	if !ok {
		return ""
	}
	root := e.buildTree(entry, failedNode, make(map[polaris.NodeID]bool))
	if root == nil {
		return ""
	}
	return root.String()
}

func (e *GraphDebugExtension) children(id polaris.NodeID) []polaris.NodeID {
	var out []polaris.NodeID
	for _, edge := range e.graph.Edges() {
		if edge.From != id {
			continue
		}
		switch edge.Kind {
		case polaris.EdgeSequential, polaris.EdgeError, polaris.EdgeTimeout, polaris.EdgeLoopBack:
			out = append(out, edge.To)
		case polaris.EdgeConditional:
			out = append(out, edge.TrueTo, edge.FalseTo)
		case polaris.EdgeParallel:
			out = append(out, edge.Targets...)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (e *GraphDebugExtension) buildTree(id, failedNode polaris.NodeID, visited map[polaris.NodeID]bool) *tree.Tree {
	if visited[id] {
		return nil
	}
	visited[id] = true

	node := tree.NewTree(tree.NodeString(e.nodeStatusLabel(id, failedNode)))
	for _, child := range e.children(id) {
		childTree := e.buildTree(child, failedNode, visited)
		if childTree != nil {
			e.addTreeAsChild(node, childTree)
		}
	}
	return node
}

func (e *GraphDebugExtension) addTreeAsChild(parent *tree.Tree, child *tree.Tree) {
	newChild := parent.AddChild(child.Val())
	for _, grandchild := range child.Children() {
		e.addTreeAsChild(newChild, grandchild)
	}
}

func (e *GraphDebugExtension) formatGraph(failedNode polaris.NodeID, failedErr error) string {
	var sb strings.Builder

	if e.graph == nil || e.graph.IsEmpty() {
		sb.WriteString("\n(empty graph)")
		return sb.String()
	}

	if horizontal := e.tryFormatHorizontalTree(failedNode); horizontal != "" {
		sb.WriteString("\n")
		sb.WriteString(horizontal)
		sb.WriteString("\n")
	}

	sb.WriteString("\nDetailed View:\n")

	nodes := e.graph.Nodes()
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })

	for _, n := range nodes {
		children := e.children(n.ID)
		status := e.nodeStatus(n.ID)
		if len(children) == 0 {
			sb.WriteString(fmt.Sprintf("  %s%s (terminal)\n", e.nodeLabel(n.ID), status))
			continue
		}
		sb.WriteString(fmt.Sprintf("  %s%s\n", e.nodeLabel(n.ID), status))
		for i, child := range children {
			label := e.nodeStatusLabel(child, failedNode)
			if i == len(children)-1 {
				sb.WriteString(fmt.Sprintf("    └─> %s\n", label))
			} else {
				sb.WriteString(fmt.Sprintf("    ├─> %s\n", label))
			}
		}
	}

	if failedErr != nil {
		sb.WriteString("\nError Details:\n")
		sb.WriteString(fmt.Sprintf("  Node: %s\n", e.nodeLabel(failedNode)))
		sb.WriteString(fmt.Sprintf("  Error: %v\n", failedErr))
	}

	return sb.String()
}

func (e *GraphDebugExtension) nodeStatus(id polaris.NodeID) string {
	if _, bad := e.failed[id]; bad {
		return " ❌"
	}
	if e.completed[id] {
		return " ✓"
	}
	return ""
}

func (e *GraphDebugExtension) nodeStatusLabel(id, failedNode polaris.NodeID) string {
	label := e.nodeLabel(id)
	if id == failedNode {
		return label + " ❌ FAILED"
	}
	return label + e.nodeStatus(id)
}

func (e *GraphDebugExtension) nodeLabel(id polaris.NodeID) string {
	n, ok := e.graph.GetNode(id)
	if !ok {
		return id.String()
	}
	return fmt.Sprintf("%s[%s:%s]", n.Name, n.Kind, id)
}

// SilentHandler is a slog.Handler that discards all log output. Useful
// for testing when log output is not wanted.
type SilentHandler struct{}

func NewSilentHandler() *SilentHandler { return &SilentHandler{} }

func (h *SilentHandler) Enabled(ctx context.Context, level slog.Level) bool { return false }
func (h *SilentHandler) Handle(ctx context.Context, record slog.Record) error { return nil }
func (h *SilentHandler) WithAttrs(attrs []slog.Attr) slog.Handler             { return h }
func (h *SilentHandler) WithGroup(name string) slog.Handler                  { return h }

// HumanHandler is a slog.Handler that formats logs for human readability
// with line breaks, used for the multi-line graph rendering above.
type HumanHandler struct {
	writer io.Writer
	level  slog.Level
}

func NewHumanHandler(writer io.Writer, level slog.Level) *HumanHandler {
	return &HumanHandler{writer: writer, level: level}
}

func (h *HumanHandler) Enabled(ctx context.Context, level slog.Level) bool { return level >= h.level }

func (h *HumanHandler) Handle(ctx context.Context, record slog.Record) error {
	if record.Message == "Graph Execution Error" {
		return h.handleGraphError(record)
	}

	if _, err := fmt.Fprintf(h.writer, "[%s] %s\n", record.Level, record.Message); err != nil {
		return err
	}
	var writeErr error
	record.Attrs(func(a slog.Attr) bool {
		if _, err := fmt.Fprintf(h.writer, "  %s: %v\n", a.Key, a.Value); err != nil {
			writeErr = err
			return false
		}
		return true
	})
	return writeErr
}

func (h *HumanHandler) handleGraphError(record slog.Record) error {
	var node, errorMsg, graph string

	record.Attrs(func(a slog.Attr) bool {
		switch a.Key {
		case "node":
			node = a.Value.String()
		case "error":
			errorMsg = a.Value.String()
		case "graph":
			graph = a.Value.String()
		}
		return true
	})

	writes := []func() error{
		func() error { _, err := fmt.Fprintln(h.writer); return err },
		func() error { _, err := fmt.Fprintln(h.writer, strings.Repeat("=", 70)); return err },
		func() error { _, err := fmt.Fprintln(h.writer, "[GraphDebug] Graph Execution Error"); return err },
		func() error { _, err := fmt.Fprintln(h.writer, strings.Repeat("=", 70)); return err },
		func() error { _, err := fmt.Fprintf(h.writer, "\nFailed Node: %s\n", node); return err },
		func() error { _, err := fmt.Fprintf(h.writer, "Error: %s\n", errorMsg); return err },
		func() error { _, err := fmt.Fprintf(h.writer, "\nGraph:%s", graph); return err },
		func() error { _, err := fmt.Fprintln(h.writer, strings.Repeat("=", 70)); return err },
		func() error { _, err := fmt.Fprintln(h.writer); return err },
	}

	for _, write := range writes {
		if err := write(); err != nil {
			return err
		}
	}
	return nil
}

func (h *HumanHandler) WithAttrs(attrs []slog.Attr) slog.Handler { return h }
func (h *HumanHandler) WithGroup(name string) slog.Handler       { return h }
