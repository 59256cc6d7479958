package adapter

import (
	"github.com/hpn/hpn-chat-adapter/internal/domain"
)

// Request/response types exchanged between the Adapter and a Transport.
// They follow the chat completions wire format so that a ChatRequest
// marshals to the payload the remote API receives.

// ToolChoiceAuto lets the model decide whether to call a tool.
const ToolChoiceAuto = "auto"

// ChatRequest is the assembled payload for one completion call.
type ChatRequest struct {
	// Model is the remote model identifier (e.g., "gpt-4o-mini").
	Model string `json:"model"`

	// Temperature is forwarded as-is; range checks are left to the remote API.
	Temperature float64 `json:"temperature"`

	// Messages is the conversation sent to the model, in order.
	Messages []domain.Message `json:"messages"`

	// Tools lists the declared tools. Omitted when no tool is registered.
	Tools []domain.Tool `json:"tools,omitempty"`

	// ToolChoice is "auto" whenever Tools is non-empty.
	ToolChoice string `json:"tool_choice,omitempty"`

	// ResponseFormat is set only on the structured-output path.
	ResponseFormat *domain.ResponseFormat `json:"response_format,omitempty"`
}

// ChatResponse is the transport-neutral reply of a completion call.
type ChatResponse struct {
	// ID is the remote completion identifier, if any.
	ID string `json:"id,omitempty"`

	// Model is the model that actually served the request.
	Model string `json:"model,omitempty"`

	// Choices contains the generated candidates. Only the first is read.
	Choices []Choice `json:"choices"`

	// Usage is nil when the remote reply carried no usage block.
	Usage *domain.TokenUsage `json:"usage,omitempty"`
}

// Choice is a single completion candidate.
type Choice struct {
	Index        int          `json:"index"`
	Message      ReplyMessage `json:"message"`
	FinishReason string       `json:"finish_reason,omitempty"`
}

// ReplyMessage is the assistant message inside a choice.
type ReplyMessage struct {
	Content   string            `json:"content"`
	Refusal   string            `json:"refusal,omitempty"`
	ToolCalls []domain.ToolCall `json:"tool_calls"`
}
