package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hpn/hpn-chat-adapter/internal/domain"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

const (
	// DefaultOpenAIBaseURL is the default Chat Completions API endpoint.
	DefaultOpenAIBaseURL = "https://api.openai.com/v1/"

	// DefaultTimeout is the default per-request timeout.
	DefaultTimeout = 60 * time.Second
)

// ErrInvalidStructuredOutput is returned by Parse when the model's content
// is not a JSON document.
var ErrInvalidStructuredOutput = errors.New("structured output is not valid JSON")

// OpenAITransport implements Transport with the official openai-go SDK's
// Chat Completions API (/v1/chat/completions).
type OpenAITransport struct {
	client     openai.Client
	baseURL    string
	timeout    time.Duration
	maxRetries int
}

// OpenAITransportOption is a functional option for configuring OpenAITransport.
type OpenAITransportOption func(*openAISettings)

type openAISettings struct {
	baseURL    string
	timeout    time.Duration
	maxRetries int
	httpClient *http.Client
}

// WithOpenAIBaseURL sets a custom API base URL. Empty keeps the default.
func WithOpenAIBaseURL(url string) OpenAITransportOption {
	return func(s *openAISettings) {
		if url = strings.TrimSpace(url); url != "" {
			s.baseURL = strings.TrimSuffix(url, "/") + "/"
		}
	}
}

// WithOpenAITimeout sets the per-request timeout. Non-positive keeps the default.
func WithOpenAITimeout(timeout time.Duration) OpenAITransportOption {
	return func(s *openAISettings) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// WithOpenAIMaxRetries sets the SDK retry budget. The default is 0 so that a
// failed call surfaces to the caller immediately.
func WithOpenAIMaxRetries(n int) OpenAITransportOption {
	return func(s *openAISettings) {
		if n >= 0 {
			s.maxRetries = n
		}
	}
}

// WithOpenAIHTTPClient sets a custom HTTP client.
func WithOpenAIHTTPClient(client *http.Client) OpenAITransportOption {
	return func(s *openAISettings) {
		s.httpClient = client
	}
}

// NewOpenAITransport creates a transport authenticated with apiKey.
func NewOpenAITransport(apiKey string, opts ...OpenAITransportOption) *OpenAITransport {
	s := openAISettings{
		baseURL: DefaultOpenAIBaseURL,
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(&s)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(s.baseURL),
		option.WithRequestTimeout(s.timeout),
		option.WithMaxRetries(s.maxRetries),
	}
	if s.httpClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(s.httpClient))
	}

	return &OpenAITransport{
		client:     openai.NewClient(reqOpts...),
		baseURL:    s.baseURL,
		timeout:    s.timeout,
		maxRetries: s.maxRetries,
	}
}

// Name returns the transport identifier.
func (t *OpenAITransport) Name() string {
	return "openai"
}

// Complete implements Transport.Complete.
func (t *OpenAITransport) Complete(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	params, err := toChatParams(req)
	if err != nil {
		return nil, err
	}

	resp, err := t.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, err
	}
	return fromChatCompletion(resp), nil
}

// Parse implements Transport.Parse. The request carries a strict JSON schema
// response format and the first choice must hold a JSON document unless the
// model refused or only called tools.
func (t *OpenAITransport) Parse(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	if req.ResponseFormat == nil {
		return nil, errors.New("parse request has no response format")
	}

	params, err := toChatParams(req)
	if err != nil {
		return nil, err
	}

	resp, err := t.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, err
	}

	out := fromChatCompletion(resp)
	if len(out.Choices) > 0 {
		msg := out.Choices[0].Message
		if msg.Refusal == "" && msg.Content != "" && !json.Valid([]byte(msg.Content)) {
			return nil, fmt.Errorf("%w (schema %q)", ErrInvalidStructuredOutput, req.ResponseFormat.Name)
		}
	}
	return out, nil
}

// --- conversion helpers: ChatRequest → Chat Completions params ---

func toChatParams(req *ChatRequest) (openai.ChatCompletionNewParams, error) {
	messages, err := toChatMessages(req.Messages)
	if err != nil {
		return openai.ChatCompletionNewParams{}, err
	}

	params := openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(req.Model),
		Messages:    messages,
		Temperature: openai.Float(req.Temperature),
	}

	if len(req.Tools) > 0 {
		params.Tools = toChatTools(req.Tools)
	}
	if req.ToolChoice != "" {
		params.ToolChoice = openai.ChatCompletionToolChoiceOptionUnionParam{
			OfAuto: openai.String(req.ToolChoice),
		}
	}

	if rf := req.ResponseFormat; rf != nil {
		schema := openai.ResponseFormatJSONSchemaJSONSchemaParam{
			Name:   rf.Name,
			Schema: rf.Schema,
			Strict: openai.Bool(rf.Strict),
		}
		if rf.Description != "" {
			schema.Description = openai.String(rf.Description)
		}
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{JSONSchema: schema},
		}
	}

	return params, nil
}

func toChatMessages(msgs []domain.Message) ([]openai.ChatCompletionMessageParamUnion, error) {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for i, m := range msgs {
		switch v := m.(type) {
		case domain.SystemMessage:
			out = append(out, openai.ChatCompletionMessageParamUnion{
				OfSystem: &openai.ChatCompletionSystemMessageParam{
					Content: openai.ChatCompletionSystemMessageParamContentUnion{
						OfString: openai.String(v.Content),
					},
				},
			})
		case domain.UserMessage:
			out = append(out, openai.ChatCompletionMessageParamUnion{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfString: openai.String(v.Content),
					},
				},
			})
		case domain.AssistantMessage:
			out = append(out, openai.ChatCompletionMessageParamUnion{
				OfAssistant: toAssistantParam(v),
			})
		case domain.ToolMessage:
			out = append(out, openai.ChatCompletionMessageParamUnion{
				OfTool: &openai.ChatCompletionToolMessageParam{
					ToolCallID: v.ToolCallID,
					Content: openai.ChatCompletionToolMessageParamContentUnion{
						OfString: openai.String(v.Content),
					},
				},
			})
		default:
			return nil, fmt.Errorf("messages[%d]: unsupported message type %T", i, m)
		}
	}
	return out, nil
}

func toAssistantParam(m domain.AssistantMessage) *openai.ChatCompletionAssistantMessageParam {
	asst := &openai.ChatCompletionAssistantMessageParam{}
	if m.Content != "" || len(m.ToolCalls) == 0 {
		asst.Content = openai.ChatCompletionAssistantMessageParamContentUnion{
			OfString: openai.String(m.Content),
		}
	}
	if m.Refusal != "" {
		asst.Refusal = openai.String(m.Refusal)
	}
	for _, tc := range m.ToolCalls {
		asst.ToolCalls = append(asst.ToolCalls, openai.ChatCompletionMessageToolCallUnionParam{
			OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
				ID: tc.ID,
				Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			},
		})
	}
	return asst
}

func toChatTools(tools []domain.Tool) []openai.ChatCompletionToolUnionParam {
	out := make([]openai.ChatCompletionToolUnionParam, len(tools))
	for i, tool := range tools {
		fn := shared.FunctionDefinitionParam{
			Name:       tool.Name,
			Parameters: shared.FunctionParameters(tool.Parameters),
		}
		if tool.Description != "" {
			fn.Description = openai.String(tool.Description)
		}
		out[i] = openai.ChatCompletionToolUnionParam{
			OfFunction: &openai.ChatCompletionFunctionToolParam{Function: fn},
		}
	}
	return out
}

// --- conversion helpers: Chat Completions output → ChatResponse ---

func fromChatCompletion(resp *openai.ChatCompletion) *ChatResponse {
	out := &ChatResponse{
		ID:      resp.ID,
		Model:   resp.Model,
		Choices: make([]Choice, 0, len(resp.Choices)),
	}

	for _, c := range resp.Choices {
		msg := ReplyMessage{
			Content:   c.Message.Content,
			Refusal:   c.Message.Refusal,
			ToolCalls: make([]domain.ToolCall, 0, len(c.Message.ToolCalls)),
		}
		for _, tc := range c.Message.ToolCalls {
			call := domain.ToolCall{ID: tc.ID, Type: string(tc.Type)}
			if call.Type == domain.ToolTypeFunction {
				fn := tc.AsFunction()
				call.Name = fn.Function.Name
				call.Arguments = fn.Function.Arguments
			}
			msg.ToolCalls = append(msg.ToolCalls, call)
		}
		out.Choices = append(out.Choices, Choice{
			Index:        int(c.Index),
			Message:      msg,
			FinishReason: string(c.FinishReason),
		})
	}

	if resp.JSON.Usage.Valid() {
		out.Usage = &domain.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}

	return out
}
