package providers

import (
	"context"
	"errors"

	openai "github.com/sashabaranov/go-openai"

	pllog "github.com/TeamRadiantAI/polaris-sub001/log"
)

// OpenAIProvider wraps an OpenAI-compatible chat-completions client,
// the reference LlmProvider wired into the kernel. NewOpenAIProvider
// takes a base URL so OpenAI-compatible gateways (Azure OpenAI, local
// proxies) work without a separate provider implementation.
type OpenAIProvider struct {
	client *openai.Client
	logger pllog.Logger
}

// NewOpenAIProvider builds a provider from an API key. baseURL may be
// empty to use OpenAI's default endpoint.
func NewOpenAIProvider(apiKey, baseURL string) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIProvider{
		client: openai.NewClientWithConfig(cfg),
		logger: pllog.Default(),
	}
}

func (p *OpenAIProvider) Generate(ctx context.Context, model string, request GenerationRequest) (GenerationResponse, error) {
	req := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    toOpenAIMessages(request),
		Temperature: request.Temperature,
	}
	if request.MaxTokens > 0 {
		req.MaxTokens = request.MaxTokens
	}
	if len(request.Tools) > 0 {
		req.Tools = toOpenAITools(request.Tools)
	}
	if request.OutputSchema != nil {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	p.logger.Debug("openai: generating with model %s (%d messages)", model, len(req.Messages))

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return GenerationResponse{}, wrapOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return GenerationResponse{}, &GenerationError{
			Kind:    GenerationInvalidResponse,
			Message: "no choices in response",
		}
	}

	choice := resp.Choices[0]
	return GenerationResponse{
		Text:       choice.Message.Content,
		ToolCalls:  fromOpenAIToolCalls(choice.Message.ToolCalls),
		StopReason: string(choice.FinishReason),
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

func toOpenAIMessages(request GenerationRequest) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(request.Messages)+1)
	if request.System != "" {
		out = append(out, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: request.System,
		})
	}
	for _, m := range request.Messages {
		msg := openai.ChatCompletionMessage{
			Role:       toOpenAIRole(m.Role),
			Content:    m.Text,
			ToolCallID: m.ToolCallID,
		}
		for _, tc := range m.ToolCalls {
			msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}
		out = append(out, msg)
	}
	return out
}

func toOpenAIRole(r Role) string {
	switch r {
	case RoleSystem:
		return openai.ChatMessageRoleSystem
	case RoleAssistant:
		return openai.ChatMessageRoleAssistant
	case RoleTool:
		return openai.ChatMessageRoleTool
	default:
		return openai.ChatMessageRoleUser
	}
}

func toOpenAITools(defs []ToolDefinition) []openai.Tool {
	tools := make([]openai.Tool, 0, len(defs))
	for _, d := range defs {
		tools = append(tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  d.Parameters,
			},
		})
	}
	return tools
}

func fromOpenAIToolCalls(calls []openai.ToolCall) []ToolCall {
	if len(calls) == 0 {
		return nil
	}
	out := make([]ToolCall, 0, len(calls))
	for _, c := range calls {
		out = append(out, ToolCall{
			ID:        c.ID,
			Name:      c.Function.Name,
			Arguments: c.Function.Arguments,
		})
	}
	return out
}

func wrapOpenAIError(err error) *GenerationError {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		kind := GenerationProvider
		switch apiErr.HTTPStatusCode {
		case 401, 403:
			kind = GenerationAuth
		case 429:
			kind = GenerationRateLimited
		case 400:
			kind = GenerationInvalidRequest
		}
		return &GenerationError{Kind: kind, Message: apiErr.Message, Cause: err}
	}
	return &GenerationError{Kind: GenerationHTTP, Message: err.Error(), Cause: err}
}
