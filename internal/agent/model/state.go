package model

import (
	"github.com/cloudwego/eino/schema"
)

// TurnState stores per-invocation state for the Eino graph.
// Concurrency model:
//   - This struct is registered as Graph Local State via compose.WithGenLocalState.
//   - All reads/writes happen only inside Eino state handlers:
//     WithStatePreHandler, WithStatePostHandler, or compose.ProcessState.
//   - Eino serializes access to state within these handlers, so no additional
//     mutex/atomic is required as long as you never touch it outside handlers.
//   - Do not access TurnState directly from outside handlers. For persistence,
//     use the session repository.
type TurnState struct {
	ConversationID string
	Query          string
	Session        *SessionState

	Scope ScopeDecision
	Plan  *ExecutionPlan

	Messages             []*schema.Message // executor loop transcript, mutated only inside state handlers
	ToolCallCount        int               // maintained in handlers (reset/increment)
	ToolCallLimitReached bool              // set when tool call limit is exceeded
	ToolCallIDSeq        int               // local sequence to synthesize tool_call_id when provider omits

	// ToolCallNames maps tool_call_id to the tool name and raw arguments of
	// the assistant call that produced it, so tool messages can be tied back
	// to their origin when observations are extracted.
	ToolCallNames map[string]ToolCallOrigin

	// Accumulated total LLM cost (USD) across model invocations for this turn.
	TotalCostUSD float64
}

// ToolCallOrigin records which tool a tool_call_id belongs to.
type ToolCallOrigin struct {
	Name      string
	Arguments string
}
