package adapter

import (
	"context"
)

// Transport sends an assembled ChatRequest to a model-serving endpoint.
// Implementations own network behavior; the Adapter returns their errors
// unchanged.
type Transport interface {
	// Complete performs a plain chat completion.
	Complete(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// Parse performs a chat completion whose output the remote API must
	// validate against req.ResponseFormat.
	Parse(ctx context.Context, req *ChatRequest) (*ChatResponse, error)

	// Name returns the transport identifier string.
	Name() string
}
