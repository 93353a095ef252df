package nodes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partdesk/server/internal/agent/model"
	"github.com/partdesk/server/internal/agent/resolve"
	"github.com/partdesk/server/internal/agent/tools"
	"github.com/partdesk/server/internal/store"
)

func testRegistry() *tools.Registry {
	m := store.NewMemoryStore()
	store.SeedDemo(m)
	return tools.NewRegistry(tools.Deps{Store: m, Resolver: resolve.NewResolver(m)})
}

func TestParsePlanComplex(t *testing.T) {
	content := "Here is my plan:\n```json\n" + `{
		"query_type": "complex",
		"reasoning": "installation question",
		"synthesis_hint": "lead with difficulty",
		"subtasks": [
			{"description": "part details", "tool": "get_part", "params": {"ps_number": "PS11752778"}},
			{"description": "community tips", "tool": "search_qna", "params": {"query": "install", "ps_number": "PS11752778"}}
		]
	}` + "\n```"

	plan := ParsePlan(content, testRegistry())

	assert.Equal(t, model.QueryComplex, plan.QueryType)
	require.Len(t, plan.Subtasks, 2)
	assert.Equal(t, "get_part", plan.Subtasks[0].Tool)
	assert.Equal(t, "lead with difficulty", plan.SynthesisHint)
}

func TestParsePlanNoJSONFallsBackToSimple(t *testing.T) {
	plan := ParsePlan("I think this is a simple lookup.", testRegistry())

	assert.Equal(t, model.QuerySimple, plan.QueryType)
	assert.Empty(t, plan.Subtasks)
}

func TestParsePlanMalformedJSONFallsBackToSimple(t *testing.T) {
	plan := ParsePlan(`{"query_type": "complex", "subtasks": [`+"broken", testRegistry())

	assert.Equal(t, model.QuerySimple, plan.QueryType)
}

func TestParsePlanUnknownQueryTypeBecomesSimple(t *testing.T) {
	plan := ParsePlan(`{"query_type": "weird"}`, testRegistry())

	assert.Equal(t, model.QuerySimple, plan.QueryType)
}

func TestParsePlanDropsUnknownToolSubtasks(t *testing.T) {
	plan := ParsePlan(`{
		"query_type": "complex",
		"subtasks": [
			{"description": "ok", "tool": "get_part", "params": {"ps_number": "PS1"}},
			{"description": "bogus", "tool": "order_pizza", "params": {}}
		]
	}`, testRegistry())

	assert.Equal(t, model.QueryComplex, plan.QueryType)
	require.Len(t, plan.Subtasks, 1)
	assert.Equal(t, "get_part", plan.Subtasks[0].Tool)
}

// A complex plan whose subtasks all drop away is just a simple query.
func TestParsePlanComplexWithNoRunnableSubtasks(t *testing.T) {
	plan := ParsePlan(`{
		"query_type": "complex",
		"subtasks": [{"description": "bogus", "tool": "order_pizza", "params": {}}]
	}`, testRegistry())

	assert.Equal(t, model.QuerySimple, plan.QueryType)
	assert.Empty(t, plan.Subtasks)
}

func TestParsePlanOutOfScopePassesThrough(t *testing.T) {
	plan := ParsePlan(`{"query_type": "out_of_scope", "reasoning": "lawnmower parts"}`, testRegistry())

	assert.Equal(t, model.QueryOutOfScope, plan.QueryType)
}
