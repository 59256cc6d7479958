// Package adapter provides the chat-completion adapter and its transports.
// It uses the Adapter pattern to turn plain text or domain messages into a
// single remote completion call and the reply back into a domain message.
package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/hpn/hpn-chat-adapter/internal/domain"
)

const (
	// DefaultModel is the low-cost model used when none is configured.
	DefaultModel = "gpt-4o-mini"

	// DefaultTemperature is the sampling temperature used when none is configured.
	DefaultTemperature = 0.0
)

// Config holds the construction-time settings of an Adapter.
type Config struct {
	// Model is the remote model identifier. Defaults to DefaultModel.
	Model string

	// Temperature is forwarded unchanged; the remote API validates its range.
	Temperature float64

	// APIKey is the explicit credential. When empty, CredentialEnvVar is read.
	APIKey string

	// BaseURL overrides the default API endpoint of the OpenAI transport.
	BaseURL string

	// Timeout bounds a single HTTP exchange of the OpenAI transport.
	Timeout time.Duration

	// Tools are registered in order at construction time.
	Tools []domain.Tool
}

// Adapter invokes a remote chat-completion endpoint.
// It holds no per-call state; the tool set is its only mutable field and is
// not synchronized, so concurrent RegisterTool calls need external locking.
type Adapter struct {
	model       string
	temperature float64
	tools       *domain.ToolSet
	transport   Transport
	logger      *slog.Logger
}

// Option is a functional option for configuring an Adapter.
type Option func(*options)

type options struct {
	transport Transport
	logger    *slog.Logger
	lookupEnv func(string) (string, bool)
}

// WithTransport replaces the default OpenAI transport.
func WithTransport(t Transport) Option {
	return func(o *options) {
		o.transport = t
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithEnvLookup replaces os.LookupEnv for credential resolution.
func WithEnvLookup(lookup func(string) (string, bool)) Option {
	return func(o *options) {
		o.lookupEnv = lookup
	}
}

// New creates an Adapter. The credential is resolved once, from cfg.APIKey
// and then from CredentialEnvVar; if both are empty New returns
// ErrMissingCredential.
func New(cfg Config, opts ...Option) (*Adapter, error) {
	o := options{
		logger:    slog.Default(),
		lookupEnv: os.LookupEnv,
	}
	for _, opt := range opts {
		opt(&o)
	}

	apiKey := resolveCredential(cfg.APIKey, o.lookupEnv)
	if apiKey == "" {
		return nil, ErrMissingCredential
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}

	transport := o.transport
	if transport == nil {
		transport = NewOpenAITransport(apiKey,
			WithOpenAIBaseURL(cfg.BaseURL),
			WithOpenAITimeout(cfg.Timeout),
		)
	}

	a := &Adapter{
		model:       model,
		temperature: cfg.Temperature,
		tools:       domain.NewToolSet(cfg.Tools...),
		transport:   transport,
		logger:      o.logger,
	}

	a.logger.Debug("adapter initialized",
		slog.String("model", a.model),
		slog.Float64("temperature", a.temperature),
		slog.String("transport", transport.Name()),
		slog.Int("tools", a.tools.Len()),
	)

	return a, nil
}

// resolveCredential returns the first non-empty credential source.
func resolveCredential(explicit string, lookupEnv func(string) (string, bool)) string {
	if key := strings.TrimSpace(explicit); key != "" {
		return key
	}
	if lookupEnv == nil {
		return ""
	}
	if key, ok := lookupEnv(CredentialEnvVar); ok {
		return strings.TrimSpace(key)
	}
	return ""
}

// Model returns the configured model identifier.
func (a *Adapter) Model() string {
	return a.model
}

// Temperature returns the configured sampling temperature.
func (a *Adapter) Temperature() float64 {
	return a.temperature
}

// RegisterTool adds tool under its name, replacing any tool of the same name.
func (a *Adapter) RegisterTool(tool domain.Tool) {
	a.tools.Register(tool)
}

// Tool returns the tool registered under name.
func (a *Adapter) Tool(name string) (domain.Tool, bool) {
	return a.tools.Get(name)
}

// Tools returns the registered tools in insertion order.
func (a *Adapter) Tools() []domain.Tool {
	return a.tools.List()
}

// InvokeOption configures a single Invoke call.
type InvokeOption func(*invokeOptions)

type invokeOptions struct {
	responseFormat *domain.ResponseFormat
}

// WithResponseFormat requests a structured reply matching format.
func WithResponseFormat(format *domain.ResponseFormat) InvokeOption {
	return func(o *invokeOptions) {
		o.responseFormat = format
	}
}

// Invoke sends input to the model and returns its reply.
//
// input must be a string (sent as one user message), a domain.Message, or a
// []domain.Message (sent unchanged, in order). Any other shape fails with an
// error matching ErrInvalidInputType before a request is made. Transport
// errors are returned as-is.
func (a *Adapter) Invoke(ctx context.Context, input any, opts ...InvokeOption) (*domain.AssistantMessage, error) {
	var callOpts invokeOptions
	for _, opt := range opts {
		opt(&callOpts)
	}

	messages, err := normalizeInput(input)
	if err != nil {
		return nil, err
	}

	mode := modeFor(callOpts.responseFormat)
	req := a.buildRequest(messages)
	mode.prepare(req, callOpts.responseFormat)

	if a.logger.Enabled(ctx, slog.LevelDebug) {
		a.logger.Debug("invoking model",
			slog.String("model", req.Model),
			slog.String("mode", mode.String()),
			slog.Int("messages", len(req.Messages)),
			slog.Int("tools", len(req.Tools)),
			slog.Int("estimated_prompt_tokens", EstimateTokens(req.Messages)),
		)
	}

	start := time.Now()
	resp, err := mode.send(ctx, a.transport, req)
	if err != nil {
		a.logger.Debug("model call failed",
			slog.String("mode", mode.String()),
			slog.Duration("latency", time.Since(start)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	reply, err := toAssistantMessage(resp)
	if err != nil {
		return nil, err
	}

	attrs := []any{
		slog.String("mode", mode.String()),
		slog.Duration("latency", time.Since(start)),
		slog.Int("tool_calls", len(reply.ToolCalls)),
	}
	if reply.TokenUsage != nil {
		attrs = append(attrs, slog.Int64("total_tokens", reply.TokenUsage.TotalTokens))
	}
	a.logger.Debug("model replied", attrs...)

	return reply, nil
}

// normalizeInput converts the accepted input shapes to a message sequence.
func normalizeInput(input any) ([]domain.Message, error) {
	switch v := input.(type) {
	case string:
		return []domain.Message{domain.NewUserMessage(v)}, nil
	case domain.Message:
		m, err := canonicalMessage(v, -1)
		if err != nil {
			return nil, err
		}
		return []domain.Message{m}, nil
	case []domain.Message:
		out := make([]domain.Message, len(v))
		for i, m := range v {
			cm, err := canonicalMessage(m, i)
			if err != nil {
				return nil, err
			}
			out[i] = cm
		}
		return out, nil
	case nil:
		return nil, &InputTypeError{Got: "nil", Index: -1}
	default:
		return nil, &InputTypeError{Got: fmt.Sprintf("%T", input), Index: -1}
	}
}

// canonicalMessage returns the value form of m. Pointer variants are
// dereferenced; nil pointers and foreign implementations are rejected.
func canonicalMessage(m domain.Message, index int) (domain.Message, error) {
	switch v := m.(type) {
	case domain.UserMessage, domain.SystemMessage, domain.AssistantMessage, domain.ToolMessage:
		return v, nil
	case *domain.UserMessage:
		if v != nil {
			return *v, nil
		}
	case *domain.SystemMessage:
		if v != nil {
			return *v, nil
		}
	case *domain.AssistantMessage:
		if v != nil {
			return *v, nil
		}
	case *domain.ToolMessage:
		if v != nil {
			return *v, nil
		}
	case nil:
		return nil, &InputTypeError{Got: "nil", Index: index}
	default:
		return nil, &InputTypeError{Got: fmt.Sprintf("%T", m), Index: index}
	}
	return nil, &InputTypeError{Got: fmt.Sprintf("nil %T", m), Index: index}
}

// buildRequest assembles the payload shared by both dispatch modes.
func (a *Adapter) buildRequest(messages []domain.Message) *ChatRequest {
	req := &ChatRequest{
		Model:       a.model,
		Temperature: a.temperature,
		Messages:    messages,
	}

	if a.tools.Len() > 0 {
		req.Tools = a.tools.List()
		req.ToolChoice = ToolChoiceAuto
	}

	return req
}

// toAssistantMessage reads the first choice of a reply.
func toAssistantMessage(resp *ChatResponse) (*domain.AssistantMessage, error) {
	if resp == nil || len(resp.Choices) == 0 {
		return nil, ErrEmptyChoices
	}

	msg := resp.Choices[0].Message
	reply := &domain.AssistantMessage{
		Content:   msg.Content,
		Refusal:   msg.Refusal,
		ToolCalls: msg.ToolCalls,
	}
	if reply.ToolCalls == nil {
		reply.ToolCalls = []domain.ToolCall{}
	}

	if resp.Usage != nil {
		usage := *resp.Usage
		reply.TokenUsage = &usage
	}

	return reply, nil
}
