package ui

import (
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/hpn/hpn-chat-adapter/internal/domain"
)

func TestFormatInvoke(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	at := time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name      string
		toolCalls int
		usage     *domain.TokenUsage
		want      []string
	}{
		{
			name:  "text reply with usage",
			usage: &domain.TokenUsage{PromptTokens: 12, CompletionTokens: 5, TotalTokens: 17},
			want:  []string{"09:30:00", "[INVOKE]", "gpt-4o-mini", "text reply", "12+5=17 tokens"},
		},
		{
			name:      "single tool call",
			toolCalls: 1,
			want:      []string{"1 tool call", "usage not reported"},
		},
		{
			name:      "several tool calls",
			toolCalls: 3,
			want:      []string{"3 tool calls"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := FormatInvoke(at, "gpt-4o-mini", tt.toolCalls, tt.usage)
			for _, w := range tt.want {
				if !strings.Contains(line, w) {
					t.Errorf("FormatInvoke() = %q, missing %q", line, w)
				}
			}
		})
	}
}
