// Package tools defines the Tool seam a ReAct-style agent calls into,
// plus a filesystem-backed reference tool set sandboxed to a working
// directory.
package tools

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/TeamRadiantAI/polaris-sub001/providers"
)

// Tool is one callable capability a model can invoke by name.
type Tool interface {
	Definition() providers.ToolDefinition
	Execute(args json.RawMessage) (json.RawMessage, error)
}

// Registry resolves tool names to Tool implementations and exposes
// their definitions together, the shape an agent's reasoning step
// hands to a provider's GenerationRequest.Tools.
type Registry struct {
	tools map[string]Tool
}

// NewRegistry creates an empty tool registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds tool under its own declared name, overwriting any
// previous registration with that name.
func (r *Registry) Register(tool Tool) {
	r.tools[tool.Definition().Name] = tool
}

// Definitions returns every registered tool's definition, in
// registration-independent (sorted by name) order.
func (r *Registry) Definitions() []providers.ToolDefinition {
	defs := make([]providers.ToolDefinition, 0, len(r.tools))
	for _, t := range r.tools {
		defs = append(defs, t.Definition())
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Execute runs the named tool with the given raw JSON arguments.
func (r *Registry) Execute(name string, args json.RawMessage) (json.RawMessage, error) {
	tool, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
	return tool.Execute(args)
}
