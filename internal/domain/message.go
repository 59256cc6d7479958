// Package domain contains the core chat entities exchanged with a model:
// messages, tool declarations, tool calls and token accounting.
// These types are transport-agnostic and carry their own JSON contract.
package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
	RoleTool      Role = "tool"
)

// Message is a single conversational record sent to or received from a model.
// The set of implementations is closed: UserMessage, SystemMessage,
// AssistantMessage and ToolMessage.
type Message interface {
	// Role returns the author role of the message.
	Role() Role

	// Text returns the textual content of the message (possibly empty).
	Text() string

	json.Marshaler

	sealed()
}

// wireMessage is the role/content record every message serializes to.
type wireMessage struct {
	Role       Role       `json:"role"`
	Content    *string    `json:"content"`
	Refusal    string     `json:"refusal,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// ============================================================================
// User
// ============================================================================

// UserMessage carries end-user input.
type UserMessage struct {
	Content string
}

// NewUserMessage creates a user message with the given content.
func NewUserMessage(content string) UserMessage {
	return UserMessage{Content: content}
}

func (m UserMessage) Role() Role   { return RoleUser }
func (m UserMessage) Text() string { return m.Content }
func (UserMessage) sealed()        {}

// MarshalJSON implements json.Marshaler.
func (m UserMessage) MarshalJSON() ([]byte, error) {
	content := m.Content
	return json.Marshal(wireMessage{Role: RoleUser, Content: &content})
}

// ============================================================================
// System
// ============================================================================

// SystemMessage carries instructions that frame the conversation.
type SystemMessage struct {
	Content string
}

// NewSystemMessage creates a system message with the given content.
func NewSystemMessage(content string) SystemMessage {
	return SystemMessage{Content: content}
}

func (m SystemMessage) Role() Role   { return RoleSystem }
func (m SystemMessage) Text() string { return m.Content }
func (SystemMessage) sealed()        {}

// MarshalJSON implements json.Marshaler.
func (m SystemMessage) MarshalJSON() ([]byte, error) {
	content := m.Content
	return json.Marshal(wireMessage{Role: RoleSystem, Content: &content})
}

// ============================================================================
// Assistant
// ============================================================================

// AssistantMessage is a model reply. Content and ToolCalls are not mutually
// exclusive; either, both or neither may be set.
type AssistantMessage struct {
	// Content is the reply text. A null content and an empty string both
	// read as ""; use HasToolCalls or Refusal to tell the cases apart.
	Content string

	// Refusal is set when the model declined to answer.
	Refusal string

	// ToolCalls lists the tools the model asked the caller to execute.
	ToolCalls []ToolCall

	// TokenUsage is nil when the remote reply did not report usage.
	// It is never sent back to the model.
	TokenUsage *TokenUsage
}

func (m AssistantMessage) Role() Role   { return RoleAssistant }
func (m AssistantMessage) Text() string { return m.Content }
func (AssistantMessage) sealed()        {}

// HasToolCalls reports whether the model requested at least one tool.
func (m AssistantMessage) HasToolCalls() bool {
	return len(m.ToolCalls) > 0
}

// Decode unmarshals the message content into v. It is meant for replies
// produced with a structured ResponseFormat.
func (m AssistantMessage) Decode(v any) error {
	if m.Content == "" {
		if m.Refusal != "" {
			return fmt.Errorf("model refused: %s", m.Refusal)
		}
		return errors.New("assistant message has no content to decode")
	}
	if err := json.Unmarshal([]byte(m.Content), v); err != nil {
		return fmt.Errorf("failed to decode assistant content: %w", err)
	}
	return nil
}

// MarshalJSON implements json.Marshaler. Content is emitted as null when
// empty, which the chat API accepts alongside tool calls.
func (m AssistantMessage) MarshalJSON() ([]byte, error) {
	w := wireMessage{
		Role:      RoleAssistant,
		Refusal:   m.Refusal,
		ToolCalls: m.ToolCalls,
	}
	if m.Content != "" || len(m.ToolCalls) == 0 {
		content := m.Content
		w.Content = &content
	}
	return json.Marshal(w)
}

// ============================================================================
// Tool result
// ============================================================================

// ToolMessage returns the result of a tool call to the model.
type ToolMessage struct {
	// ToolCallID links this result to ToolCall.ID.
	ToolCallID string
	Content    string
}

// NewToolMessage creates a tool-result message for the given call.
func NewToolMessage(toolCallID, content string) ToolMessage {
	return ToolMessage{ToolCallID: toolCallID, Content: content}
}

func (m ToolMessage) Role() Role   { return RoleTool }
func (m ToolMessage) Text() string { return m.Content }
func (ToolMessage) sealed()        {}

// MarshalJSON implements json.Marshaler.
func (m ToolMessage) MarshalJSON() ([]byte, error) {
	content := m.Content
	return json.Marshal(wireMessage{Role: RoleTool, Content: &content, ToolCallID: m.ToolCallID})
}

// ============================================================================
// Decoding
// ============================================================================

// UnknownRoleError is returned when a message record has an unsupported role.
type UnknownRoleError struct {
	Role string
}

func (e *UnknownRoleError) Error() string {
	return fmt.Sprintf("unknown message role '%s'", e.Role)
}

// UnmarshalMessage decodes a single role/content record into its variant.
func UnmarshalMessage(data []byte) (Message, error) {
	var w wireMessage
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("failed to decode message: %w", err)
	}

	content := ""
	if w.Content != nil {
		content = *w.Content
	}

	switch w.Role {
	case RoleUser:
		return UserMessage{Content: content}, nil
	case RoleSystem:
		return SystemMessage{Content: content}, nil
	case RoleAssistant:
		return AssistantMessage{Content: content, Refusal: w.Refusal, ToolCalls: w.ToolCalls}, nil
	case RoleTool:
		return ToolMessage{ToolCallID: w.ToolCallID, Content: content}, nil
	default:
		return nil, &UnknownRoleError{Role: string(w.Role)}
	}
}

// UnmarshalMessages decodes a JSON array of message records, preserving order.
func UnmarshalMessages(data []byte) ([]Message, error) {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("failed to decode message list: %w", err)
	}

	messages := make([]Message, 0, len(raws))
	for i, raw := range raws {
		msg, err := UnmarshalMessage(raw)
		if err != nil {
			return nil, fmt.Errorf("messages[%d]: %w", i, err)
		}
		messages = append(messages, msg)
	}
	return messages, nil
}
