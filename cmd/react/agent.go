package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	polaris "github.com/TeamRadiantAI/polaris-sub001"
	"github.com/TeamRadiantAI/polaris-sub001/providers"
	"github.com/TeamRadiantAI/polaris-sub001/tools"
)

const systemPrompt = "You are a helpful ReAct agent with access to file tools. Think step by step, call a tool when you need more information, and answer directly once you have enough."

// agentConfig names which model answers and how many reasoning rounds
// the loop tolerates before giving up.
type agentConfig struct {
	Model         providers.ModelID
	MaxIterations int
}

// conversationMemory is the running message history, mutated in place
// across every reasoning round.
type conversationMemory struct {
	Messages []providers.Message
}

func newConversationMemory(query string) conversationMemory {
	return conversationMemory{Messages: []providers.Message{{Role: providers.RoleUser, Text: query}}}
}

// reasoningResult is what one reasoning round decided: either a tool to
// call, or a final answer to give.
type reasoningResult struct {
	NeedsTool   bool
	ToolCallID  string
	ToolName    string
	ToolArgs    json.RawMessage
	FinalAnswer string
}

// toolExecutionResult is the outcome of running one tool call.
type toolExecutionResult struct {
	ToolCallID string
	Output     string
	Success    bool
}

// loopState tracks whether the reasoning loop has reached a final answer.
type loopState struct {
	Complete bool
}

func reasonSystem() *polaris.System[reasoningResult] {
	return polaris.NewSystem3("reason",
		polaris.Res[agentConfig](),
		polaris.Res[*providers.Registry](),
		polaris.ResMut[conversationMemory](),
		func(c *polaris.Context, cfg agentConfig, registry *providers.Registry, memory *conversationMemory) (reasoningResult, *polaris.SystemError) {
			toolRegistry, err := polaris.Get[*tools.Registry](c.Locals())
			if err != nil {
				return reasoningResult{}, polaris.ExecutionErrorf("tool registry unavailable: %v", err)
			}
			defer toolRegistry.Release()

			req := providers.GenerationRequest{
				System:   systemPrompt,
				Messages: append([]providers.Message(nil), memory.Messages...),
				Tools:    toolRegistry.Value().Definitions(),
			}

			resp, genErr := registry.Generate(context.Background(), cfg.Model, req)
			if genErr != nil {
				return reasoningResult{}, polaris.ExecutionErrorf("generation failed: %v", genErr)
			}

			if resp.HasToolCalls() {
				call := resp.ToolCalls[0]
				memory.Messages = append(memory.Messages, providers.Message{
					Role:      providers.RoleAssistant,
					ToolCalls: []providers.ToolCall{call},
				})
				return reasoningResult{
					NeedsTool:  true,
					ToolCallID: call.ID,
					ToolName:   call.Name,
					ToolArgs:   json.RawMessage(call.Arguments),
				}, nil
			}

			memory.Messages = append(memory.Messages, providers.Message{Role: providers.RoleAssistant, Text: resp.Text})
			return reasoningResult{FinalAnswer: resp.Text}, nil
		})
}

func executeToolSystem() *polaris.System[toolExecutionResult] {
	return polaris.NewSystem1("execute_tool", polaris.Out[reasoningResult](),
		func(c *polaris.Context, decision reasoningResult) (toolExecutionResult, *polaris.SystemError) {
			toolRegistry, err := polaris.Get[*tools.Registry](c.Locals())
			if err != nil {
				return toolExecutionResult{}, polaris.ExecutionErrorf("tool registry unavailable: %v", err)
			}
			defer toolRegistry.Release()

			output, execErr := toolRegistry.Value().Execute(decision.ToolName, decision.ToolArgs)
			if execErr != nil {
				fmt.Printf("[Tool Error] %v\n", execErr)
				return toolExecutionResult{ToolCallID: decision.ToolCallID, Output: execErr.Error(), Success: false}, nil
			}

			var text string
			_ = json.Unmarshal(output, &text)
			fmt.Printf("[Tool Result] %s\n", text)
			return toolExecutionResult{ToolCallID: decision.ToolCallID, Output: text, Success: true}, nil
		})
}

func observeSystem() *polaris.System[loopState] {
	return polaris.NewSystem2("observe",
		polaris.Out[toolExecutionResult](),
		polaris.ResMut[conversationMemory](),
		func(c *polaris.Context, result toolExecutionResult, memory *conversationMemory) (loopState, *polaris.SystemError) {
			role := providers.RoleTool
			text := result.Output
			if !result.Success {
				text = "error: " + text
			}
			memory.Messages = append(memory.Messages, providers.Message{
				Role:       role,
				Text:       text,
				ToolCallID: result.ToolCallID,
			})
			return loopState{Complete: false}, nil
		})
}

func respondSystem() *polaris.System[loopState] {
	return polaris.NewSystem1("respond", polaris.Out[reasoningResult](),
		func(c *polaris.Context, decision reasoningResult) (loopState, *polaris.SystemError) {
			return loopState{Complete: true}, nil
		})
}

func printFinalSystem() *polaris.System[struct{}] {
	return polaris.NewSystem1("print_final", polaris.Out[reasoningResult](),
		func(c *polaris.Context, decision reasoningResult) (struct{}, *polaris.SystemError) {
			fmt.Println(strings.TrimSpace(decision.FinalAnswer))
			return struct{}{}, nil
		})
}

// buildReActGraph wires the ReAct loop: reason, decide whether a tool
// is needed, either execute it and loop back, or respond and stop.
func buildReActGraph() *polaris.Graph {
	g := polaris.NewGraph()
	polaris.AddLoop(g, "react_loop", func(s loopState) bool { return s.Complete },
		func(body *polaris.Graph) {
			body.AddSystem(reasonSystem())
			polaris.AddConditionalBranch(body, "needs_tool",
				func(r reasoningResult) bool { return r.NeedsTool },
				func(trueBranch *polaris.Graph) {
					trueBranch.AddSystem(executeToolSystem()).AddSystem(observeSystem())
				},
				func(falseBranch *polaris.Graph) {
					falseBranch.AddSystem(respondSystem())
				},
			)
		})
	g.AddSystem(printFinalSystem())
	return g
}
