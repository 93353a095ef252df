package nodes

import (
	"context"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partdesk/server/internal/agent/model"
)

func TestScopeConditionRouting(t *testing.T) {
	cond := NewScopeCondition(NodePlannerSetup)

	target, err := cond(context.Background(), model.ScopeDecision{InScope: true, Stage: "rules"})
	require.NoError(t, err)
	assert.Equal(t, NodePlannerSetup, target)

	target, err = cond(context.Background(), model.ScopeDecision{InScope: false, Stage: "llm"})
	require.NoError(t, err)
	assert.Equal(t, NodeScopeReject, target)
}

func TestToolExecutorConditionRouting(t *testing.T) {
	cond := NewToolExecutorCondition()

	withCalls := &schema.Message{
		Role:      schema.Assistant,
		ToolCalls: []schema.ToolCall{{ID: "call_0", Function: schema.FunctionCall{Name: "get_part"}}},
	}
	target, err := cond(context.Background(), withCalls)
	require.NoError(t, err)
	assert.Equal(t, NodeToolExecutor, target)

	target, err = cond(context.Background(), schema.AssistantMessage("done", nil))
	require.NoError(t, err)
	assert.Equal(t, NodeCollector, target)
}

func TestPlanConditionRouting(t *testing.T) {
	cond := NewPlanCondition()

	target, err := cond(context.Background(), model.ExecutionPlan{QueryType: model.QueryComplex})
	require.NoError(t, err)
	assert.Equal(t, NodeWorkerPool, target)

	target, err = cond(context.Background(), model.ExecutionPlan{QueryType: model.QueryOutOfScope})
	require.NoError(t, err)
	assert.Equal(t, NodePlanReject, target)

	target, err = cond(context.Background(), model.ExecutionPlan{QueryType: model.QuerySimple})
	require.NoError(t, err)
	assert.Equal(t, NodeExecutorSetup, target)
}
