package nodes

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	"github.com/partdesk/server/internal/agent/graph/prompts"
	"github.com/partdesk/server/internal/agent/model"
	"github.com/partdesk/server/internal/agent/scope"
	sessionx "github.com/partdesk/server/internal/agent/session"
	"github.com/partdesk/server/internal/agent/tools"
	logx "github.com/partdesk/server/pkg/logger"
)

// Node names used when wiring the graph.
const (
	NodeScopeCheck        = "ScopeCheck"
	NodeScopeReject       = "ScopeReject"
	NodeExecutorSetup     = "ExecutorSetup"
	NodeExecutorChatModel = "ExecutorChatModel"
	NodeToolExecutor      = "ToolExecutor"
	NodeCollector         = "ResultCollector"
	NodeSecondaryScope    = "SecondaryScopeCheck"
	NodePlannerSetup      = "PlannerSetup"
	NodePlannerChatModel  = "PlannerChatModel"
	NodePlanParser        = "PlanParser"
	NodePlanReject        = "PlanReject"
	NodeWorkerPool        = "WorkerPool"
)

// NewScopeCheckPreHandler initializes turn state from the incoming query.
func NewScopeCheckPreHandler() func(context.Context, model.TurnInput, *model.TurnState) (model.TurnInput, error) {
	return func(ctx context.Context, in model.TurnInput, s *model.TurnState) (model.TurnInput, error) {
		s.ConversationID = in.ConversationID
		s.Query = in.Query
		s.Session = in.Session
		if s.Session == nil {
			s.Session = model.NewSessionState()
		}
		// Reset per-turn counters
		s.ToolCallCount = 0
		s.ToolCallLimitReached = false
		s.ToolCallIDSeq = 0
		s.TotalCostUSD = 0
		s.ToolCallNames = map[string]model.ToolCallOrigin{}
		return in, nil
	}
}

// NewScopeCheckNode classifies the query as in or out of scope.
func NewScopeCheckNode(classifier *scope.Classifier) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in model.TurnInput) (model.ScopeDecision, error) {
		session := in.Session
		if session == nil {
			session = model.NewSessionState()
		}
		return classifier.Classify(ctx, in.Query, session.History), nil
	})
}

// NewScopeCheckPostHandler records the decision in state.
func NewScopeCheckPostHandler() func(context.Context, model.ScopeDecision, *model.TurnState) (model.ScopeDecision, error) {
	return func(ctx context.Context, out model.ScopeDecision, s *model.TurnState) (model.ScopeDecision, error) {
		s.Scope = out
		logx.Debug().
			Str("conversation_id", s.ConversationID).
			Bool("in_scope", out.InScope).
			Str("stage", out.Stage).
			Str("reason", out.Reason).
			Msg("Scope decision")
		return out, nil
	}
}

// NewScopeCondition routes out-of-scope queries to the rejection node and
// everything else to the topology's entry node.
func NewScopeCondition(inScopeTarget string) func(context.Context, model.ScopeDecision) (string, error) {
	return func(ctx context.Context, decision model.ScopeDecision) (string, error) {
		if !decision.InScope {
			logx.Debug().Str("reason", decision.Reason).Msg("Routing to scope rejection")
			return NodeScopeReject, nil
		}
		return inScopeTarget, nil
	}
}

// NewScopeRejectNode produces the canned refusal for out-of-scope queries.
func NewScopeRejectNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, _ model.ScopeDecision) (*model.TurnDraft, error) {
		return rejectDraft(ctx, scope.RejectionMessage)
	})
}

func rejectDraft(ctx context.Context, response string) (*model.TurnDraft, error) {
	var draft *model.TurnDraft
	err := compose.ProcessState(ctx, func(_ context.Context, s *model.TurnState) error {
		draft = &model.TurnDraft{
			ConversationID: s.ConversationID,
			Query:          s.Query,
			Session:        s.Session,
			Rejected:       true,
			Response:       response,
		}
		return nil
	})
	return draft, err
}

// NewExecutorSetupFromScope builds the executor's opening messages after
// the scope check (react topology).
func NewExecutorSetupFromScope(registry *tools.Registry, historyTurns int) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, _ model.ScopeDecision) ([]*schema.Message, error) {
		return buildExecutorMessages(ctx, registry, historyTurns)
	})
}

// NewExecutorSetupFromPlan is the same entry used when a planner routed a
// simple query into the executor loop (planner topology).
func NewExecutorSetupFromPlan(registry *tools.Registry, historyTurns int) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, _ model.ExecutionPlan) ([]*schema.Message, error) {
		return buildExecutorMessages(ctx, registry, historyTurns)
	})
}

func buildExecutorMessages(ctx context.Context, registry *tools.Registry, historyTurns int) ([]*schema.Message, error) {
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

	systemPrompt, err := prompts.RenderExecutorSystem(ctx, registry.Docs(), prompts.ExecutorSessionContext(session, historyTurns))
	if err != nil {
		return nil, fmt.Errorf("render executor prompt: %w", err)
	}

	return []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(query),
	}, nil
}

// NewExecutorChatModelPreHandler accumulates the loop transcript and, once
// the tool budget is spent, injects a wrap-up notice.
func NewExecutorChatModelPreHandler(maxToolCalls int) func(context.Context, []*schema.Message, *model.TurnState) ([]*schema.Message, error) {
	return func(ctx context.Context, in []*schema.Message, state *model.TurnState) ([]*schema.Message, error) {
		// Heuristic fix for providers that omit tool_call_id on tool results
		if len(in) > 0 {
			last := in[len(in)-1]
			if last != nil && last.Role == schema.Tool && strings.TrimSpace(last.ToolCallID) == "" {
				for i := len(state.Messages) - 1; i >= 0; i-- {
					msg := state.Messages[i]
					if msg == nil || msg.Role != schema.Assistant || len(msg.ToolCalls) == 0 {
						continue
					}
					if id := msg.ToolCalls[0].ID; strings.TrimSpace(id) != "" {
						last.ToolCallID = id
					}
					break
				}
			}
		}

		state.Messages = append(state.Messages, in...)

		if checkAndMarkToolLimit(state, maxToolCalls) {
			maxToolCalls = normalizeMaxToolCalls(maxToolCalls)
			wrapUp := &schema.Message{
				Role: schema.System,
				Content: fmt.Sprintf(
					"SYSTEM NOTICE: You have reached the maximum tool call limit (%d). "+
						"Please synthesize your findings using the information you've already gathered. "+
						"Acknowledge any limitations if you couldn't complete all necessary tool calls.",
					maxToolCalls,
				),
			}
			state.Messages = append(state.Messages, wrapUp)
		}

		logx.Debug().Msg("AI thinking...")

		return state.Messages, nil
	}
}

// NewExecutorChatModelPostHandler logs usage cost, normalizes tool call
// IDs, and records the origin of every tool call so observations can be
// tied back to it later.
func NewExecutorChatModelPostHandler(modelName string) func(context.Context, *schema.Message, *model.TurnState) (*schema.Message, error) {
	return func(ctx context.Context, out *schema.Message, state *model.TurnState) (*schema.Message, error) {
		logUsageCost(state, out, NodeExecutorChatModel, modelName)

		// Some providers omit tool_call IDs; synthesize stable local ones.
		if out != nil && len(out.ToolCalls) > 0 {
			for i := range out.ToolCalls {
				if strings.TrimSpace(out.ToolCalls[i].ID) == "" {
					state.ToolCallIDSeq++
					out.ToolCalls[i].ID = fmt.Sprintf("call_%d", state.ToolCallIDSeq)
				}
				state.ToolCallNames[out.ToolCalls[i].ID] = model.ToolCallOrigin{
					Name:      out.ToolCalls[i].Function.Name,
					Arguments: out.ToolCalls[i].Function.Arguments,
				}
			}
		}

		state.Messages = append(state.Messages, out)

		if out != nil && len(out.ToolCalls) > 0 {
			logx.Debug().Int("tool_count", len(out.ToolCalls)).Msg("Calling tools")
		} else {
			logx.Debug().Msg("Executor analysis ready")
		}
		return out, nil
	}
}

// logUsageCost computes and logs per-call LLM cost when enabled.
func logUsageCost(state *model.TurnState, out *schema.Message, node, modelName string) {
	if !model.CostEnabled() || out == nil || out.ResponseMeta == nil || out.ResponseMeta.Usage == nil {
		return
	}
	pricing := model.ResolvePricing(modelName)
	inC, outC, totalC := model.ComputeCost(out.ResponseMeta.Usage, pricing)
	if out.Extra == nil {
		out.Extra = map[string]any{}
	}
	out.Extra["usage_cost"] = map[string]any{
		"currency":          "USD",
		"model":             modelName,
		"prompt_tokens":     out.ResponseMeta.Usage.PromptTokens,
		"completion_tokens": out.ResponseMeta.Usage.CompletionTokens,
		"total_tokens":      out.ResponseMeta.Usage.TotalTokens,
		"input_cost":        inC,
		"output_cost":       outC,
		"total_cost":        totalC,
	}
	logx.Debug().
		Str("conversation_id", state.ConversationID).
		Str("node", node).
		Str("model", modelName).
		Int("prompt_tokens", out.ResponseMeta.Usage.PromptTokens).
		Int("completion_tokens", out.ResponseMeta.Usage.CompletionTokens).
		Int("total_tokens", out.ResponseMeta.Usage.TotalTokens).
		Float64("input_cost_usd", inC).
		Float64("output_cost_usd", outC).
		Float64("total_cost_usd", totalC).
		Msg("LLM usage")

	state.TotalCostUSD += totalC
	out.Extra["usage_cost_total_usd"] = state.TotalCostUSD
}

// NewToolExecutorCondition routes the executor output: tool calls loop
// back through the tool node, everything else falls through to collection.
func NewToolExecutorCondition() func(context.Context, *schema.Message) (string, error) {
	return func(ctx context.Context, input *schema.Message) (string, error) {
		var limitReached bool
		compose.ProcessState(ctx, func(_ context.Context, state *model.TurnState) error {
			limitReached = state.ToolCallLimitReached
			return nil
		})

		if limitReached {
			logx.Debug().Msg("Tool limit reached previously - routing to collector")
			return NodeCollector, nil
		}

		if len(input.ToolCalls) > 0 {
			logx.Debug().Int("tool_count", len(input.ToolCalls)).Msg("Routing to ToolExecutor")
			return NodeToolExecutor, nil
		}

		logx.Debug().Msg("No tool calls - routing to collector")
		return NodeCollector, nil
	}
}

// NewToolExecutorPreHandler counts tool round trips against the budget.
func NewToolExecutorPreHandler(maxToolCalls int) func(context.Context, *schema.Message, *model.TurnState) (*schema.Message, error) {
	return func(ctx context.Context, in *schema.Message, state *model.TurnState) (*schema.Message, error) {
		exceeded := incrementToolCallAndCheck(state, maxToolCalls)

		logx.Debug().
			Int("tool_call_count", state.ToolCallCount).
			Str("conversation_id", state.ConversationID).
			Msg("Tool execution attempt")

		if exceeded {
			logx.Warn().
				Int("tool_call_count", state.ToolCallCount).
				Int("max_tool_calls", normalizeMaxToolCalls(maxToolCalls)).
				Str("conversation_id", state.ConversationID).
				Msg("Tool call limit exceeded - flagging and continuing")
		}
		return in, nil
	}
}

// NewCollectorNode turns the executor transcript into observations, runs
// the live scrape fallback, and folds the results into the session.
func NewCollectorNode(registry *tools.Registry) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, _ *schema.Message) (*model.TurnDraft, error) {
		var draft *model.TurnDraft
		err := compose.ProcessState(ctx, func(_ context.Context, state *model.TurnState) error {
			observations := sessionx.Observations(state.Messages, state.ToolCallNames)
			observations = scrapeFallback(ctx, registry, observations)
			sessionx.Update(state.Session, observations)

			hint := ""
			if state.Plan != nil {
				hint = state.Plan.SynthesisHint
			}
			draft = &model.TurnDraft{
				ConversationID: state.ConversationID,
				Query:          state.Query,
				Session:        state.Session,
				Observations:   observations,
				AgentAnalysis:  agentAnalysis(state.Messages),
				SynthesisHint:  hint,
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to access state: %w", err)
		}
		logx.Debug().
			Str("conversation_id", draft.ConversationID).
			Int("observations", len(draft.Observations)).
			Int("discussed_parts", len(draft.Session.DiscussedParts)).
			Msg("Collected executor results")
		return draft, nil
	})
}

// agentAnalysis returns the last assistant message that carries content
// and no further tool calls.
func agentAnalysis(msgs []*schema.Message) string {
	for i := len(msgs) - 1; i >= 0; i-- {
		msg := msgs[i]
		if msg == nil || msg.Role != schema.Assistant || len(msg.ToolCalls) > 0 {
			continue
		}
		if content := strings.TrimSpace(msg.Content); content != "" {
			return content
		}
	}
	return ""
}

// scrapeFallback fires a live scrape when get_part reported "not found"
// and no scrape ran during the loop.
func scrapeFallback(ctx context.Context, registry *tools.Registry, observations []model.ToolObservation) []model.ToolObservation {
	if registry == nil || !registry.Has("scrape_part_live") {
		return observations
	}
	for _, obs := range observations {
		if obs.Tool == "scrape_part_live" {
			return observations
		}
	}

	for _, obs := range observations {
		if obs.Tool != "get_part" {
			continue
		}
		var payload struct {
			Error    string `json:"error"`
			PSNumber string `json:"ps_number"`
		}
		if err := json.Unmarshal(obs.Payload, &payload); err != nil {
			continue
		}
		if !strings.Contains(strings.ToLower(payload.Error), "not found") || payload.PSNumber == "" {
			continue
		}

		logx.Info().Str("ps_number", payload.PSNumber).Msg("Part not in catalog - triggering live scrape")
		args, _ := json.Marshal(map[string]string{"ps_number": payload.PSNumber})
		scraped := model.ToolObservation{Tool: "scrape_part_live", Params: args}
		out, err := registry.Invoke(ctx, "scrape_part_live", string(args))
		if err != nil {
			logx.Warn().Err(err).Str("ps_number", payload.PSNumber).Msg("Live scrape failed")
			scraped.Err = err.Error()
		} else {
			scraped.Payload = json.RawMessage(out)
		}
		observations = append(observations, scraped)
	}
	return observations
}

// NewSecondaryScopeNode rejects the whole turn when any gathered part
// belongs to a foreign appliance, and purges those parts from the session.
func NewSecondaryScopeNode() *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, draft *model.TurnDraft) (*model.TurnDraft, error) {
		offending := sessionx.FindOutOfScope(draft.Observations)
		if len(offending) == 0 {
			return draft, nil
		}

		psNumbers := sessionx.PSNumbers(offending)
		logx.Warn().
			Str("conversation_id", draft.ConversationID).
			Strs("ps_numbers", psNumbers).
			Msg("Out-of-scope parts detected after execution - rejecting turn")

		draft.Rejected = true
		draft.Response = sessionx.RejectionMessage(offending)
		draft.Session.PurgeParts(psNumbers)
		return draft, nil
	})
}
