package adapter

import (
	"sync"

	"github.com/hpn/hpn-chat-adapter/internal/domain"
	"github.com/tiktoken-go/tokenizer"
)

// Per-message framing cost (<|start|>role ... <|end|>) and per-tool-call
// overhead used by the chat token counting convention.
const (
	messageOverheadTokens  = 4
	toolCallOverheadTokens = 3
)

var (
	encoderOnce sync.Once
	encoder     tokenizer.Codec
)

// getEncoder returns the shared BPE encoder (o200k_base, the GPT-4o family),
// falling back to cl100k_base. It returns nil if neither is available.
func getEncoder() tokenizer.Codec {
	encoderOnce.Do(func() {
		enc, err := tokenizer.Get(tokenizer.O200kBase)
		if err != nil {
			enc, err = tokenizer.Get(tokenizer.Cl100kBase)
			if err != nil {
				return
			}
		}
		encoder = enc
	})
	return encoder
}

// CountTokens returns the number of BPE tokens in text.
func CountTokens(text string) int {
	if text == "" {
		return 0
	}
	enc := getEncoder()
	if enc == nil {
		return 0
	}
	ids, _, err := enc.Encode(text)
	if err != nil {
		return 0
	}
	return len(ids)
}

// EstimateTokens estimates the prompt size of messages locally.
// The result is an estimate for logging and cost previews; it never
// replaces the usage reported by the remote API.
func EstimateTokens(messages []domain.Message) int {
	total := 0
	for _, raw := range messages {
		m, err := canonicalMessage(raw, -1)
		if err != nil {
			continue
		}
		total += messageOverheadTokens
		total += CountTokens(string(m.Role()))
		total += CountTokens(m.Text())

		switch v := m.(type) {
		case domain.AssistantMessage:
			total += countToolCalls(v.ToolCalls)
		case domain.ToolMessage:
			total += CountTokens(v.ToolCallID)
		}
	}
	return total
}

func countToolCalls(calls []domain.ToolCall) int {
	total := 0
	for _, c := range calls {
		total += toolCallOverheadTokens
		total += CountTokens(c.Name)
		total += CountTokens(c.Arguments)
	}
	return total
}
