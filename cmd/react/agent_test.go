package main

import (
	"context"
	"encoding/json"
	"testing"

	polaris "github.com/TeamRadiantAI/polaris-sub001"
	"github.com/TeamRadiantAI/polaris-sub001/providers"
	"github.com/TeamRadiantAI/polaris-sub001/tools"
	"github.com/stretchr/testify/require"
)

// stubProvider answers with a queued sequence of responses, one per
// call, so a test can script a tool call followed by a final answer.
type stubProvider struct {
	responses []providers.GenerationResponse
	calls     int
}

func (s *stubProvider) Generate(ctx context.Context, model string, req providers.GenerationRequest) (providers.GenerationResponse, error) {
	resp := s.responses[s.calls]
	s.calls++
	return resp, nil
}

type echoTool struct{}

func (echoTool) Definition() providers.ToolDefinition {
	return providers.ToolDefinition{Name: "echo", Description: "echoes its input", Parameters: map[string]any{"type": "object"}}
}

func (echoTool) Execute(args json.RawMessage) (json.RawMessage, error) {
	return json.Marshal("echoed")
}

func newTestServer(t *testing.T, responses []providers.GenerationResponse) (*polaris.Server, *polaris.Context) {
	t.Helper()

	registry := providers.NewRegistry()
	registry.RegisterProvider("stub", &stubProvider{responses: responses})

	toolRegistry := tools.NewRegistry()
	toolRegistry.Register(echoTool{})

	server := polaris.NewServer()
	server.InsertGlobal(agentConfig{Model: "stub/test-model", MaxIterations: 10})
	server.InsertGlobal(registry)
	require.NoError(t, server.Build())

	c := polaris.NewContext(server)
	c.With(newConversationMemory("what files are here?"))
	c.With(toolRegistry)
	return server, c
}

func TestBuildReActGraph_RunsStraightToFinalAnswerWithNoToolCall(t *testing.T) {
	_, c := newTestServer(t, []providers.GenerationResponse{
		{Text: "The answer is 42."},
	})

	graph := buildReActGraph()
	exec := polaris.NewGraphExecutor(graph, polaris.NewHooksAPI(), 10)
	require.NoError(t, exec.Run(c))

	out, err := polaris.GetOutput[reasoningResult](c.Outputs())
	require.NoError(t, err)
	require.Equal(t, "The answer is 42.", out.FinalAnswer)
}

func TestBuildReActGraph_CallsToolThenRespondsOnNextRound(t *testing.T) {
	_, c := newTestServer(t, []providers.GenerationResponse{
		{ToolCalls: []providers.ToolCall{{ID: "call-1", Name: "echo", Arguments: `{"text":"hi"}`}}},
		{Text: "Done, the tool said echoed."},
	})

	graph := buildReActGraph()
	exec := polaris.NewGraphExecutor(graph, polaris.NewHooksAPI(), 10)
	require.NoError(t, exec.Run(c))

	out, err := polaris.GetOutput[reasoningResult](c.Outputs())
	require.NoError(t, err)
	require.Equal(t, "Done, the tool said echoed.", out.FinalAnswer)

	memGuard, err := polaris.Get[conversationMemory](c.Locals())
	require.NoError(t, err)
	defer memGuard.Release()
	found := false
	for _, m := range memGuard.Value().Messages {
		if m.Role == providers.RoleTool && m.Text == "echoed" {
			found = true
		}
	}
	require.True(t, found, "observe system must append the tool's output to conversation memory")
}

func TestBuildReActGraph_NodeCountIncludesLoopAndFinalPrint(t *testing.T) {
	graph := buildReActGraph()
	// loop, reason, decision, execute_tool, observe, respond, join, print_final
	require.Equal(t, 8, graph.NodeCount())
	entry, ok := graph.Entry()
	require.True(t, ok)
	n, _ := graph.GetNode(entry)
	require.Equal(t, polaris.NodeLoop, n.Kind)
}

func TestSandboxedWorkingDir_RejectsMissingDirectory(t *testing.T) {
	_, err := sandboxedWorkingDir("/no/such/directory/at/all")
	require.Error(t, err)
}

func TestSandboxedWorkingDir_AcceptsExistingDirectory(t *testing.T) {
	dir, err := sandboxedWorkingDir(t.TempDir())
	require.NoError(t, err)
	require.NotEmpty(t, dir)
}
