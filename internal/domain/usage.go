package domain

// TokenUsage records how many tokens one exchange consumed.
type TokenUsage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
	TotalTokens      int64 `json:"total_tokens"`
}

// ResponseFormat asks the model to answer with JSON matching Schema.
type ResponseFormat struct {
	// Name identifies the schema to the remote API.
	Name string `json:"name"`

	// Description is optional guidance for the model.
	Description string `json:"description,omitempty"`

	// Schema is a JSON Schema object describing the expected reply.
	Schema map[string]any `json:"schema"`

	// Strict requests exact schema adherence.
	Strict bool `json:"strict"`
}

// NewResponseFormat creates a strict response format.
func NewResponseFormat(name string, schema map[string]any) *ResponseFormat {
	return &ResponseFormat{Name: name, Schema: schema, Strict: true}
}
