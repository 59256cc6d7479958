package handler

import (
	"fmt"
	"strings"
	"sync"

	"github.com/hpn/hpn-chat-adapter/internal/domain"
)

// Price is the USD cost per one million tokens of a model.
type Price struct {
	InputPerMillion  float64
	OutputPerMillion float64
}

// DefaultPriceTable returns list prices for common chat models.
// Dated snapshots (gpt-4o-mini-2024-07-18) resolve by longest prefix.
func DefaultPriceTable() map[string]Price {
	return map[string]Price{
		"gpt-4o-mini":   {InputPerMillion: 0.15, OutputPerMillion: 0.60},
		"gpt-4o":        {InputPerMillion: 2.50, OutputPerMillion: 10.00},
		"gpt-4.1-nano":  {InputPerMillion: 0.10, OutputPerMillion: 0.40},
		"gpt-4.1-mini":  {InputPerMillion: 0.40, OutputPerMillion: 1.60},
		"gpt-4.1":       {InputPerMillion: 2.00, OutputPerMillion: 8.00},
		"gpt-4-turbo":   {InputPerMillion: 10.00, OutputPerMillion: 30.00},
		"gpt-3.5-turbo": {InputPerMillion: 0.50, OutputPerMillion: 1.50},
	}
}

// CostMetrics holds the cost of one call and the running total.
type CostMetrics struct {
	InputTokens  int64   `json:"input_tokens"`
	OutputTokens int64   `json:"output_tokens"`
	Cost         float64 `json:"cost_usd"`
	TotalCost    float64 `json:"total_cost_usd"`
}

// CostEstimator prices reported token usage and keeps a running total
// across requests. It is safe for concurrent use.
type CostEstimator struct {
	mu     sync.RWMutex
	prices map[string]Price
	total  float64
}

// NewCostEstimator creates an estimator over prices.
func NewCostEstimator(prices map[string]Price) *CostEstimator {
	return &CostEstimator{prices: prices}
}

// PriceFor returns the price of model, matching the longest known prefix.
func (e *CostEstimator) PriceFor(model string) (Price, bool) {
	if p, ok := e.prices[model]; ok {
		return p, true
	}

	best := ""
	for name := range e.prices {
		if strings.HasPrefix(model, name) && len(name) > len(best) {
			best = name
		}
	}
	if best == "" {
		return Price{}, false
	}
	return e.prices[best], true
}

// CalculateCost returns the USD cost of usage under price.
func CalculateCost(price Price, usage domain.TokenUsage) float64 {
	inputCost := (float64(usage.PromptTokens) / 1_000_000) * price.InputPerMillion
	outputCost := (float64(usage.CompletionTokens) / 1_000_000) * price.OutputPerMillion
	return inputCost + outputCost
}

// Record prices usage for model and adds it to the running total.
// It reports false when the model has no known price.
func (e *CostEstimator) Record(model string, usage domain.TokenUsage) (CostMetrics, bool) {
	price, ok := e.PriceFor(model)
	if !ok {
		return CostMetrics{}, false
	}

	cost := CalculateCost(price, usage)

	e.mu.Lock()
	e.total += cost
	total := e.total
	e.mu.Unlock()

	return CostMetrics{
		InputTokens:  usage.PromptTokens,
		OutputTokens: usage.CompletionTokens,
		Cost:         cost,
		TotalCost:    total,
	}, true
}

// Total returns the accumulated cost in USD.
func (e *CostEstimator) Total() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.total
}

// Reset clears the running total.
func (e *CostEstimator) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.total = 0
}

// FormatUSD formats an amount with precision suited to its magnitude.
func FormatUSD(amount float64) string {
	if amount < 0.0001 {
		return fmt.Sprintf("$%.6f", amount)
	} else if amount < 0.01 {
		return fmt.Sprintf("$%.4f", amount)
	}
	return fmt.Sprintf("$%.2f", amount)
}
