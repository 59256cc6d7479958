package domain

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestMessage_MarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		message  Message
		expected string
	}{
		{
			name:     "user message",
			message:  NewUserMessage("Hello"),
			expected: `{"role":"user","content":"Hello"}`,
		},
		{
			name:     "system message",
			message:  NewSystemMessage("Be brief."),
			expected: `{"role":"system","content":"Be brief."}`,
		},
		{
			name:     "tool result",
			message:  NewToolMessage("call_1", `{"temp":21}`),
			expected: `{"role":"tool","content":"{\"temp\":21}","tool_call_id":"call_1"}`,
		},
		{
			name:     "assistant with content",
			message:  AssistantMessage{Content: "Hi there"},
			expected: `{"role":"assistant","content":"Hi there"}`,
		},
		{
			name: "assistant with tool calls only",
			message: AssistantMessage{
				ToolCalls: []ToolCall{{ID: "call_1", Name: "get_weather", Arguments: `{"city":"Hanoi"}`}},
			},
			expected: `{"role":"assistant","content":null,"tool_calls":[{"id":"call_1","type":"function","function":{"name":"get_weather","arguments":"{\"city\":\"Hanoi\"}"}}]}`,
		},
		{
			name: "assistant usage is not serialized",
			message: AssistantMessage{
				Content:    "ok",
				TokenUsage: &TokenUsage{PromptTokens: 1, CompletionTokens: 2, TotalTokens: 3},
			},
			expected: `{"role":"assistant","content":"ok"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.message)
			if err != nil {
				t.Fatalf("json.Marshal() error = %v", err)
			}
			if string(got) != tt.expected {
				t.Errorf("json.Marshal() = %s, want %s", got, tt.expected)
			}
		})
	}
}

func TestUnmarshalMessage(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantRole Role
		wantText string
	}{
		{"user", `{"role":"user","content":"hi"}`, RoleUser, "hi"},
		{"system", `{"role":"system","content":"rules"}`, RoleSystem, "rules"},
		{"tool", `{"role":"tool","content":"42","tool_call_id":"c1"}`, RoleTool, "42"},
		{"assistant null content", `{"role":"assistant","content":null}`, RoleAssistant, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := UnmarshalMessage([]byte(tt.input))
			if err != nil {
				t.Fatalf("UnmarshalMessage() error = %v", err)
			}
			if msg.Role() != tt.wantRole {
				t.Errorf("Role() = %s, want %s", msg.Role(), tt.wantRole)
			}
			if msg.Text() != tt.wantText {
				t.Errorf("Text() = %q, want %q", msg.Text(), tt.wantText)
			}
		})
	}
}

func TestUnmarshalMessage_ToolFields(t *testing.T) {
	input := `{"role":"assistant","content":"","tool_calls":[{"id":"call_9","type":"function","function":{"name":"lookup","arguments":"{\"q\":1}"}}]}`

	msg, err := UnmarshalMessage([]byte(input))
	if err != nil {
		t.Fatalf("UnmarshalMessage() error = %v", err)
	}

	asst, ok := msg.(AssistantMessage)
	if !ok {
		t.Fatalf("UnmarshalMessage() type = %T, want AssistantMessage", msg)
	}
	if len(asst.ToolCalls) != 1 {
		t.Fatalf("len(ToolCalls) = %d, want 1", len(asst.ToolCalls))
	}
	call := asst.ToolCalls[0]
	if call.ID != "call_9" || call.Name != "lookup" || call.Arguments != `{"q":1}` {
		t.Errorf("ToolCalls[0] = %+v, want id=call_9 name=lookup arguments={\"q\":1}", call)
	}
}

func TestUnmarshalMessage_UnknownRole(t *testing.T) {
	_, err := UnmarshalMessage([]byte(`{"role":"function","content":"x"}`))

	var roleErr *UnknownRoleError
	if !errors.As(err, &roleErr) {
		t.Fatalf("UnmarshalMessage() error = %v, want *UnknownRoleError", err)
	}
	if roleErr.Role != "function" {
		t.Errorf("UnknownRoleError.Role = %s, want function", roleErr.Role)
	}
}

func TestUnmarshalMessages_PreservesOrder(t *testing.T) {
	input := `[
		{"role":"system","content":"s"},
		{"role":"user","content":"u1"},
		{"role":"assistant","content":"a1"},
		{"role":"user","content":"u2"}
	]`

	msgs, err := UnmarshalMessages([]byte(input))
	if err != nil {
		t.Fatalf("UnmarshalMessages() error = %v", err)
	}

	want := []string{"s", "u1", "a1", "u2"}
	if len(msgs) != len(want) {
		t.Fatalf("len(messages) = %d, want %d", len(msgs), len(want))
	}
	for i, m := range msgs {
		if m.Text() != want[i] {
			t.Errorf("messages[%d].Text() = %q, want %q", i, m.Text(), want[i])
		}
	}
}

func TestUnmarshalMessages_ReportsIndex(t *testing.T) {
	_, err := UnmarshalMessages([]byte(`[{"role":"user","content":"ok"},{"role":"robot"}]`))
	if err == nil {
		t.Fatal("UnmarshalMessages() error = nil, want error")
	}
	if got := err.Error(); got != "messages[1]: unknown message role 'robot'" {
		t.Errorf("error = %q", got)
	}
}

func TestAssistantMessage_Decode(t *testing.T) {
	var out struct {
		City string `json:"city"`
		Temp int    `json:"temp"`
	}

	msg := AssistantMessage{Content: `{"city":"Hue","temp":30}`}
	if err := msg.Decode(&out); err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if out.City != "Hue" || out.Temp != 30 {
		t.Errorf("Decode() = %+v, want {Hue 30}", out)
	}

	refused := AssistantMessage{Refusal: "cannot help"}
	if err := refused.Decode(&out); err == nil {
		t.Error("Decode() on refusal error = nil, want error")
	}

	if err := (AssistantMessage{Content: "not json"}).Decode(&out); err == nil {
		t.Error("Decode() on invalid JSON error = nil, want error")
	}
}
