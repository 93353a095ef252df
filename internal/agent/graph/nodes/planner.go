package nodes

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sync"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/partdesk/server/internal/agent/graph/prompts"
	"github.com/partdesk/server/internal/agent/model"
	"github.com/partdesk/server/internal/agent/scope"
	sessionx "github.com/partdesk/server/internal/agent/session"
	"github.com/partdesk/server/internal/agent/tools"
	logx "github.com/partdesk/server/pkg/logger"
)

// jsonBlockPattern grabs the outermost JSON object in a model response,
// tolerating prose or code fences around it.
var jsonBlockPattern = regexp.MustCompile(`\{[\s\S]*\}`)

// NewPlannerSetupNode renders the planning prompt for an in-scope query.
func NewPlannerSetupNode(registry *tools.Registry, historyTurns int) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, _ model.ScopeDecision) ([]*schema.Message, error) {
		var query string
		var session *model.SessionState
		err := compose.ProcessState(ctx, func(_ context.Context, s *model.TurnState) error {
			query = s.Query
			session = s.Session
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}

		rendered, err := prompts.RenderPlanner(ctx, registry.Docs(), prompts.PlannerSessionContext(session, historyTurns), query)
		if err != nil {
			return nil, fmt.Errorf("render planner prompt: %w", err)
		}
		return []*schema.Message{schema.UserMessage(rendered)}, nil
	})
}

// NewPlannerChatModelPostHandler logs usage cost for the planner call.
func NewPlannerChatModelPostHandler(modelName string) func(context.Context, *schema.Message, *model.TurnState) (*schema.Message, error) {
	return func(ctx context.Context, out *schema.Message, state *model.TurnState) (*schema.Message, error) {
		logUsageCost(state, out, NodePlannerChatModel, modelName)
		return out, nil
	}
}

// NewPlanParserNode parses the planner response into an execution plan.
// Parsing never fails the turn: anything unusable degrades to a simple
// plan so the executor loop can still serve the query.
func NewPlanParserNode(registry *tools.Registry) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, resp *schema.Message) (model.ExecutionPlan, error) {
		plan := ParsePlan(resp.Content, registry)
		return plan, nil
	})
}

// ParsePlan extracts and validates a plan from raw model output.
func ParsePlan(content string, registry *tools.Registry) model.ExecutionPlan {
	simple := model.ExecutionPlan{QueryType: model.QuerySimple, Reasoning: "fallback: unparseable planner output"}

	match := jsonBlockPattern.FindString(content)
	if match == "" {
		logx.Warn().Msg("No JSON found in planner response - treating query as simple")
		return simple
	}

	var plan model.ExecutionPlan
	if err := json.Unmarshal([]byte(match), &plan); err != nil {
		logx.Warn().Err(err).Msg("Malformed planner JSON - treating query as simple")
		return simple
	}

	switch plan.QueryType {
	case model.QuerySimple, model.QueryComplex, model.QueryOutOfScope:
	default:
		plan.QueryType = model.QuerySimple
	}

	if plan.QueryType == model.QueryComplex {
		valid := plan.Subtasks[:0]
		for _, st := range plan.Subtasks {
			if st.Tool == "" || (registry != nil && !registry.Has(st.Tool)) {
				logx.Warn().Str("tool", st.Tool).Msg("Dropping subtask with unknown tool")
				continue
			}
			valid = append(valid, st)
		}
		plan.Subtasks = valid
		// A complex plan with nothing to run is just a simple query.
		if len(plan.Subtasks) == 0 {
			plan.QueryType = model.QuerySimple
		}
	}

	return plan
}

// NewPlanParserPostHandler saves the plan to state.
func NewPlanParserPostHandler() func(context.Context, model.ExecutionPlan, *model.TurnState) (model.ExecutionPlan, error) {
	return func(ctx context.Context, out model.ExecutionPlan, state *model.TurnState) (model.ExecutionPlan, error) {
		state.Plan = &out
		logx.Debug().
			Str("conversation_id", state.ConversationID).
			Str("query_type", string(out.QueryType)).
			Int("subtasks", len(out.Subtasks)).
			Str("reasoning", out.Reasoning).
			Msg("Execution plan ready")
		return out, nil
	}
}

// NewPlanCondition routes by query type: complex plans fan out to workers,
// simple plans enter the executor loop, out-of-scope plans get rejected.
func NewPlanCondition() func(context.Context, model.ExecutionPlan) (string, error) {
	return func(ctx context.Context, plan model.ExecutionPlan) (string, error) {
		switch plan.QueryType {
		case model.QueryComplex:
			return NodeWorkerPool, nil
		case model.QueryOutOfScope:
			return NodePlanReject, nil
		default:
			return NodeExecutorSetup, nil
		}
	}
}

// NewPlanRejectNode refuses a query the planner marked out of scope.
func NewPlanRejectNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, _ model.ExecutionPlan) (*model.TurnDraft, error) {
		return rejectDraft(ctx, scope.RejectionMessage)
	})
}

// NewWorkerPoolNode executes a complex plan's subtasks concurrently. Each
// subtask writes into its own slot so result order matches plan order, and
// a failing subtask surfaces as an error observation without sinking the
// rest of the batch.
func NewWorkerPoolNode(registry *tools.Registry) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, plan model.ExecutionPlan) (*model.TurnDraft, error) {
		observations := make([]model.ToolObservation, len(plan.Subtasks))

		var wg sync.WaitGroup
		for i, st := range plan.Subtasks {
			wg.Add(1)
			go func(i int, st model.Subtask) {
				defer wg.Done()
				obs := model.ToolObservation{
					Description: st.Description,
					Tool:        st.Tool,
					Params:      st.Params,
				}
				out, err := registry.Invoke(ctx, st.Tool, string(st.Params))
				if err != nil {
					logx.Warn().Err(err).Str("tool", st.Tool).Msg("Worker subtask failed")
					obs.Err = err.Error()
				} else {
					obs.Payload = json.RawMessage(out)
				}
				observations[i] = obs
			}(i, st)
		}
		wg.Wait()

		var draft *model.TurnDraft
		err := compose.ProcessState(ctx, func(_ context.Context, state *model.TurnState) error {
			// Session updates run after the barrier, in plan order.
			sessionx.Update(state.Session, observations)
			draft = &model.TurnDraft{
				ConversationID: state.ConversationID,
				Query:          state.Query,
				Session:        state.Session,
				Observations:   observations,
				SynthesisHint:  plan.SynthesisHint,
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}

		logx.Debug().
			Str("conversation_id", draft.ConversationID).
			Int("subtasks", len(plan.Subtasks)).
			Msg("Worker pool finished")
		return draft, nil
	})
}
