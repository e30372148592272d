// Package providers defines the LLM provider seam: a small interface
// kernel Systems depend on through a resource, plus one reference
// implementation. Vendor wire formats (Anthropic, Bedrock, Gemini) are
// deliberately not reimplemented here — see SPEC_FULL.md.
package providers

import (
	"context"
	"fmt"
)

// Role identifies the speaker of a Message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one turn of a generation request's conversation history.
type Message struct {
	Role Role
	Text string

	// ToolCallID names which ToolCall this message answers, set only on
	// RoleTool messages.
	ToolCallID string

	// ToolCalls carries the tool invocations an assistant message asked
	// for; empty on every other role.
	ToolCalls []ToolCall
}

// ToolDefinition describes one callable tool to a provider, mirroring
// the JSON-schema-carrying shape every major chat-completions API uses.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]any // JSON schema, as a decoded document
}

// ToolCall is a single invocation a model requested.
type ToolCall struct {
	ID        string
	Name      string
	Arguments string // raw JSON
}

// Usage reports token accounting for a single generation.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// GenerationRequest is a provider-agnostic text-generation request.
type GenerationRequest struct {
	System       string
	Messages     []Message
	Tools        []ToolDefinition
	Temperature  float32
	MaxTokens    int
	OutputSchema map[string]any // set to request structured JSON output
}

// WithSystem builds a GenerationRequest from a system prompt and a
// single user turn, the common case for one-shot generation.
func WithSystem(system, userText string) GenerationRequest {
	return GenerationRequest{
		System:   system,
		Messages: []Message{{Role: RoleUser, Text: userText}},
	}
}

// GenerationResponse is a provider-agnostic text-generation result.
type GenerationResponse struct {
	Text      string
	ToolCalls []ToolCall
	Usage     Usage

	// StopReason names why generation ended ("stop", "tool_calls",
	// "length", "content_filter", provider-defined strings otherwise).
	StopReason string
}

// HasToolCalls reports whether the model asked to invoke any tools.
func (r GenerationResponse) HasToolCalls() bool { return len(r.ToolCalls) > 0 }

// ModelID names a model as "provider/model", e.g. "openai/gpt-4o".
type ModelID string

// Provider returns the provider prefix of a ModelID.
func (m ModelID) Provider() string {
	for i := 0; i < len(m); i++ {
		if m[i] == '/' {
			return string(m[:i])
		}
	}
	return ""
}

// Model returns the bare model name with the provider prefix stripped.
func (m ModelID) Model() string {
	for i := 0; i < len(m); i++ {
		if m[i] == '/' {
			return string(m[i+1:])
		}
	}
	return string(m)
}

// GenerationError is the error type every LlmProvider implementation
// returns, distinguishing transport failures from provider-reported
// refusals so callers can decide whether retrying makes sense.
type GenerationError struct {
	Kind    GenerationErrorKind
	Message string
	Cause   error
}

type GenerationErrorKind int

const (
	GenerationHTTP GenerationErrorKind = iota
	GenerationAuth
	GenerationRateLimited
	GenerationInvalidRequest
	GenerationInvalidResponse
	GenerationRefusal
	GenerationProvider
)

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation error (%s): %s", e.kindString(), e.Message)
}

func (e *GenerationError) Unwrap() error { return e.Cause }

func (e *GenerationError) kindString() string {
	switch e.Kind {
	case GenerationAuth:
		return "auth"
	case GenerationRateLimited:
		return "rate_limited"
	case GenerationInvalidRequest:
		return "invalid_request"
	case GenerationInvalidResponse:
		return "invalid_response"
	case GenerationRefusal:
		return "refusal"
	case GenerationProvider:
		return "provider"
	default:
		return "http"
	}
}

// LlmProvider is implemented by one model vendor's client. A Provider
// keyed registry (Registry below) lets a Server expose many providers
// under a single Res[*Registry]() resource, matching how ModelRegistry
// decouples consumers from concrete vendor plugins.
type LlmProvider interface {
	Generate(ctx context.Context, model string, request GenerationRequest) (GenerationResponse, error)
}

// Registry maps provider name ("openai") to an LlmProvider, resolving
// ModelID values like "openai/gpt-4o" at call time. Providers register
// themselves during a Plugin's Build phase; the registry is inserted as
// a Global resource once the Server finishes building, mirroring the
// build-then-freeze lifecycle of the two-phase provider registration.
type Registry struct {
	providers map[string]LlmProvider
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]LlmProvider)}
}

// RegisterProvider adds a provider under name, overwriting any existing
// registration with the same name.
func (r *Registry) RegisterProvider(name string, provider LlmProvider) {
	r.providers[name] = provider
}

// Generate resolves model's provider prefix and forwards the request.
func (r *Registry) Generate(ctx context.Context, model ModelID, request GenerationRequest) (GenerationResponse, error) {
	provider, ok := r.providers[model.Provider()]
	if !ok {
		return GenerationResponse{}, &GenerationError{
			Kind:    GenerationInvalidRequest,
			Message: fmt.Sprintf("unknown provider %q", model.Provider()),
		}
	}
	return provider.Generate(ctx, model.Model(), request)
}
