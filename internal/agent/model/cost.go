package model

import (
	"github.com/cloudwego/eino/schema"
)

// Pricing is USD per one million text tokens.
type Pricing struct {
	InputPerM  float64
	OutputPerM float64
}

// Published Gemini standard-tier text pricing. Unknown models cost zero so
// accounting never blocks a turn.
var pricingTable = map[string]Pricing{
	"gemini-2.5-flash":      {InputPerM: 0.30, OutputPerM: 2.50},
	"gemini-2.5-flash-lite": {InputPerM: 0.10, OutputPerM: 0.40},
	"gemini-embedding-001":  {InputPerM: 0.15},
}

// CostEnabled reports whether per-turn cost accounting is active.
func CostEnabled() bool {
	return true
}

// ResolvePricing looks up pricing for a model name.
func ResolvePricing(model string) Pricing {
	return pricingTable[model]
}

// ComputeCost converts token usage into USD input/output/total cost.
func ComputeCost(usage *schema.TokenUsage, p Pricing) (inputCost, outputCost, total float64) {
	if usage == nil {
		return 0, 0, 0
	}
	inputCost = p.InputPerM * float64(usage.PromptTokens) / 1_000_000.0
	outputCost = p.OutputPerM * float64(usage.CompletionTokens) / 1_000_000.0
	return inputCost, outputCost, inputCost + outputCost
}
