package adapter

import (
	"context"

	"github.com/hpn/hpn-chat-adapter/internal/domain"
)

// dispatchMode selects how a request is built and which transport path
// serves it.
type dispatchMode int

const (
	// modeComplete is a plain completion.
	modeComplete dispatchMode = iota

	// modeParse attaches a response schema and uses the validating path.
	modeParse
)

func (m dispatchMode) String() string {
	switch m {
	case modeParse:
		return "parse"
	default:
		return "complete"
	}
}

// modeFor returns the dispatch mode implied by an optional response format.
func modeFor(format *domain.ResponseFormat) dispatchMode {
	if format != nil {
		return modeParse
	}
	return modeComplete
}

// prepare applies the mode-specific part of request construction.
func (m dispatchMode) prepare(req *ChatRequest, format *domain.ResponseFormat) {
	if m == modeParse {
		req.ResponseFormat = format
	}
}

// send routes the request to the transport path of the mode.
func (m dispatchMode) send(ctx context.Context, t Transport, req *ChatRequest) (*ChatResponse, error) {
	if m == modeParse {
		return t.Parse(ctx, req)
	}
	return t.Complete(ctx, req)
}
