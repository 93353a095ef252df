package model

import "encoding/json"

// QueryType classifies how a turn should be executed.
type QueryType string

const (
	QuerySimple     QueryType = "simple"
	QueryComplex    QueryType = "complex"
	QueryOutOfScope QueryType = "out_of_scope"
)

// Subtask is one independent unit of work in a complex plan.
type Subtask struct {
	Description string          `json:"description"`
	Tool        string          `json:"tool"`
	Params      json.RawMessage `json:"params"`
}

// ExecutionPlan is the planner's decomposition of a turn.
type ExecutionPlan struct {
	QueryType     QueryType `json:"query_type"`
	Subtasks      []Subtask `json:"subtasks,omitempty"`
	Reasoning     string    `json:"reasoning,omitempty"`
	SynthesisHint string    `json:"synthesis_hint,omitempty"`
}
