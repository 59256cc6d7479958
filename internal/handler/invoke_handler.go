// Package handler provides the HTTP surface of the chat adapter.
package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/hpn/hpn-chat-adapter/internal/adapter"
	"github.com/hpn/hpn-chat-adapter/internal/domain"
	"github.com/hpn/hpn-chat-adapter/internal/ui"
	"github.com/openai/openai-go/v3"
)

// Context keys shared with LoggingMiddleware.
const (
	ctxKeyModel       = "model"
	ctxKeyTotalTokens = "total_tokens"
)

// InvokeRequest is the body of POST /v1/invoke.
type InvokeRequest struct {
	// Input is a JSON string, one message record or an array of message records.
	Input json.RawMessage `json:"input"`

	// ResponseFormat selects the structured-output path when present.
	ResponseFormat *domain.ResponseFormat `json:"response_format,omitempty"`
}

// InvokeResponse is the body returned by POST /v1/invoke.
type InvokeResponse struct {
	Message *domain.AssistantMessage `json:"message"`
	Usage   *domain.TokenUsage       `json:"usage"`
	Cost    *CostMetrics             `json:"cost"`
}

// InvokeHandler exposes an Adapter over HTTP.
// The adapter's tool set is not synchronized, so the handler holds mu for
// reading around Invoke and for writing around RegisterTool.
type InvokeHandler struct {
	mu      sync.RWMutex
	adapter *adapter.Adapter
	costs   *CostEstimator
	logger  *slog.Logger
	console bool
}

// InvokeHandlerOption is a functional option for configuring InvokeHandler.
type InvokeHandlerOption func(*InvokeHandler)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) InvokeHandlerOption {
	return func(h *InvokeHandler) {
		h.logger = logger
	}
}

// WithCostEstimator replaces the default cost estimator.
func WithCostEstimator(costs *CostEstimator) InvokeHandlerOption {
	return func(h *InvokeHandler) {
		h.costs = costs
	}
}

// WithConsole enables colored per-invoke summary lines on stdout.
func WithConsole(enabled bool) InvokeHandlerOption {
	return func(h *InvokeHandler) {
		h.console = enabled
	}
}

// NewInvokeHandler creates a new InvokeHandler.
func NewInvokeHandler(a *adapter.Adapter, opts ...InvokeHandlerOption) *InvokeHandler {
	h := &InvokeHandler{
		adapter: a,
		costs:   NewCostEstimator(DefaultPriceTable()),
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(h)
	}

	return h
}

// Register mounts the handler's routes on r.
func (h *InvokeHandler) Register(r gin.IRoutes) {
	r.POST("/v1/invoke", h.HandleInvoke)
	r.GET("/v1/tools", h.HandleListTools)
	r.PUT("/v1/tools", h.HandleRegisterTool)
	r.GET("/health", h.HandleHealth)
}

// HandleInvoke handles POST /v1/invoke.
func (h *InvokeHandler) HandleInvoke(c *gin.Context) {
	var req InvokeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "invalid_request_error", "Invalid request body: "+err.Error())
		return
	}

	input, err := decodeInput(req.Input)
	if err != nil {
		sendError(c, http.StatusBadRequest, "invalid_request_error", err.Error())
		return
	}

	var opts []adapter.InvokeOption
	if req.ResponseFormat != nil {
		if req.ResponseFormat.Name == "" {
			sendError(c, http.StatusBadRequest, "invalid_request_error", "response_format.name is required")
			return
		}
		opts = append(opts, adapter.WithResponseFormat(req.ResponseFormat))
	}

	h.mu.RLock()
	reply, err := h.adapter.Invoke(c.Request.Context(), input, opts...)
	h.mu.RUnlock()

	c.Set(ctxKeyModel, h.adapter.Model())
	if err != nil {
		h.sendInvokeError(c, err)
		if h.console {
			ui.PrintError(c.Writer.Status(), "invoke failed")
		}
		return
	}

	resp := InvokeResponse{Message: reply, Usage: reply.TokenUsage}
	if reply.TokenUsage != nil {
		c.Set(ctxKeyTotalTokens, reply.TokenUsage.TotalTokens)
		if metrics, ok := h.costs.Record(h.adapter.Model(), *reply.TokenUsage); ok {
			resp.Cost = &metrics
		}
	}

	if h.console {
		ui.PrintInvoke(h.adapter.Model(), len(reply.ToolCalls), reply.TokenUsage)
		if resp.Cost != nil {
			ui.PrintCost(FormatUSD(resp.Cost.Cost), FormatUSD(resp.Cost.TotalCost))
		}
	}

	c.JSON(http.StatusOK, resp)
}

// decodeInput turns the raw input field into one of the shapes Invoke accepts.
func decodeInput(raw json.RawMessage) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, errors.New("input is required")
	}

	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil, fmt.Errorf("invalid input string: %w", err)
		}
		return s, nil
	case '{':
		return domain.UnmarshalMessage(trimmed)
	case '[':
		return domain.UnmarshalMessages(trimmed)
	default:
		return nil, fmt.Errorf("input must be a string, a message or a list of messages")
	}
}

// sendInvokeError maps an Invoke failure to an HTTP status.
func (h *InvokeHandler) sendInvokeError(c *gin.Context, err error) {
	var apiErr *openai.Error
	switch {
	case adapter.IsInvalidInputType(err):
		sendError(c, http.StatusBadRequest, "invalid_request_error", err.Error())
	case errors.As(err, &apiErr):
		h.logger.Warn("upstream rejected request",
			slog.Int("status", apiErr.StatusCode),
			slog.String("type", apiErr.Type),
			slog.String("code", apiErr.Code),
		)
		status := apiErr.StatusCode
		if status < 400 {
			status = http.StatusBadGateway
		}
		errType := apiErr.Type
		if errType == "" {
			errType = "upstream_error"
		}
		msg := apiErr.Message
		if msg == "" {
			msg = http.StatusText(status)
		}
		sendError(c, status, errType, msg)
	case errors.Is(err, context.DeadlineExceeded):
		h.logger.Warn("upstream timed out")
		sendError(c, http.StatusGatewayTimeout, "timeout_error", "Upstream request timed out")
	default:
		h.logger.Error("invoke failed", slog.String("error", err.Error()))
		sendError(c, http.StatusBadGateway, "upstream_error", err.Error())
	}
}

// HandleListTools handles GET /v1/tools.
func (h *InvokeHandler) HandleListTools(c *gin.Context) {
	h.mu.RLock()
	tools := h.adapter.Tools()
	h.mu.RUnlock()

	c.JSON(http.StatusOK, gin.H{
		"object": "list",
		"data":   tools,
	})
}

// HandleRegisterTool handles PUT /v1/tools. A tool with an existing name
// replaces the previous declaration.
func (h *InvokeHandler) HandleRegisterTool(c *gin.Context) {
	var tool domain.Tool
	if err := c.ShouldBindJSON(&tool); err != nil {
		sendError(c, http.StatusBadRequest, "invalid_request_error", "Invalid tool declaration: "+err.Error())
		return
	}
	if tool.Name == "" {
		sendError(c, http.StatusBadRequest, "invalid_request_error", "tool name is required")
		return
	}

	h.mu.Lock()
	_, replaced := h.adapter.Tool(tool.Name)
	h.adapter.RegisterTool(tool)
	count := len(h.adapter.Tools())
	h.mu.Unlock()

	h.logger.Info("tool registered",
		slog.String("name", tool.Name),
		slog.Bool("replaced", replaced),
		slog.Int("tools", count),
	)

	c.JSON(http.StatusOK, gin.H{
		"name":     tool.Name,
		"replaced": replaced,
		"tools":    count,
	})
}

// ToolCount returns the number of registered tools.
func (h *InvokeHandler) ToolCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.adapter.Tools())
}

// HandleHealth handles GET /health.
func (h *InvokeHandler) HandleHealth(c *gin.Context) {
	tools := h.ToolCount()

	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"model":       h.adapter.Model(),
		"temperature": h.adapter.Temperature(),
		"tools":       tools,
		"total_cost":  h.costs.Total(),
	})
}

// sendError sends an error response in OpenAI-compatible format.
func sendError(c *gin.Context, status int, errType, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{
			"message": message,
			"type":    errType,
			"param":   nil,
			"code":    nil,
		},
	})
}
