package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/partdesk/server/internal/agent/model"
)

func sessionWithParts() *model.SessionState {
	s := model.NewSessionState()
	s.RecordPart(model.PartCard{PSNumber: "PS11752778", Appliance: model.ApplianceRefrigerator})
	s.RecordPart(model.PartCard{PSNumber: "PS12364199", Appliance: model.ApplianceRefrigerator})
	s.RecordPart(model.PartCard{PSNumber: "PS429725", Appliance: model.ApplianceRefrigerator})
	return s
}

func TestPlannerSessionContextEmpty(t *testing.T) {
	got := PlannerSessionContext(model.NewSessionState(), 4)
	assert.Equal(t, "No previous context. User has not discussed any parts yet.", got)
}

func TestPlannerSessionContextReferenceSlots(t *testing.T) {
	s := sessionWithParts()
	s.AddTurn(model.RoleUser, "my fridge is leaking")
	s.AddTurn(model.RoleAssistant, "Here are some parts that may help.")
	s.RecordModel(model.ApplianceRefrigerator, "WRS325SDHZ")
	s.RecordSymptom(model.ApplianceRefrigerator, "Leaking")

	got := PlannerSessionContext(s, 4)

	assert.Contains(t, got, "## Recent Conversation")
	assert.Contains(t, got, "User: my fridge is leaking")
	assert.Contains(t, got, "**Top/first recommendation: PS11752778**")
	assert.Contains(t, got, "**Most recently mentioned: PS429725**")
	assert.Contains(t, got, "All discussed parts (in order): PS11752778, PS12364199, PS429725")
	assert.Contains(t, got, "Appliance type: refrigerator")
	assert.Contains(t, got, "User's refrigerator model: WRS325SDHZ")
	assert.Contains(t, got, "Current symptom: Leaking")
}

func TestPlannerSessionContextSinglePartHasNoRecentSlot(t *testing.T) {
	s := model.NewSessionState()
	s.RecordPart(model.PartCard{PSNumber: "PS429725", Appliance: model.ApplianceRefrigerator})

	got := PlannerSessionContext(s, 4)

	assert.Contains(t, got, "**Top/first recommendation: PS429725**")
	assert.NotContains(t, got, "Most recently mentioned")
}

func TestPlannerSessionContextClipsLongTurns(t *testing.T) {
	s := model.NewSessionState()
	s.AddTurn(model.RoleAssistant, strings.Repeat("x", 400))

	got := PlannerSessionContext(s, 4)

	assert.Contains(t, got, strings.Repeat("x", 300)+"...")
	assert.NotContains(t, got, strings.Repeat("x", 301))
}

func TestExecutorSessionContext(t *testing.T) {
	s := sessionWithParts()
	s.AddTurn(model.RoleUser, "does the first one fit?")

	got := ExecutorSessionContext(s, 6)

	assert.Contains(t, got, "**User:** does the first one fit?")
	assert.Contains(t, got, "## Recently Discussed Parts")
	assert.Contains(t, got, "PS numbers: PS11752778, PS12364199, PS429725")
	assert.Contains(t, got, "'this part'")
}

func TestExecutorSessionContextEmpty(t *testing.T) {
	assert.Equal(t, "No prior context.", ExecutorSessionContext(model.NewSessionState(), 6))
}

func TestExecutorSessionContextKeepsLastFivePSNumbers(t *testing.T) {
	s := model.NewSessionState()
	for _, ps := range []string{"PS1", "PS2", "PS3", "PS4", "PS5", "PS6"} {
		s.RecordPart(model.PartCard{PSNumber: ps})
	}

	got := ExecutorSessionContext(s, 6)

	assert.Contains(t, got, "PS numbers: PS2, PS3, PS4, PS5, PS6")
	assert.NotContains(t, got, "PS1,")
}

func TestSynthesisSessionContext(t *testing.T) {
	s := sessionWithParts()
	s.AddTurn(model.RoleAssistant, "The door bin is your best bet.")

	got := SynthesisSessionContext(s, 6)

	assert.Contains(t, got, "**Assistant:** The door bin is your best bet.")
	assert.Contains(t, got, "Recently discussed parts: PS11752778, PS12364199, PS429725")
}

func TestFormatResults(t *testing.T) {
	got := FormatResults([]model.ToolObservation{
		{Tool: "get_part", Payload: []byte(`{"ps_number":"PS429725"}`)},
		{Description: "check stock", Tool: "search_parts", Err: "store unavailable"},
		{Payload: []byte(`"plain"`)},
	}, "The filter fits this model.")

	assert.True(t, strings.HasPrefix(got, "## Executor Results\n"))
	assert.Contains(t, got, "### Tool: get_part")
	assert.Contains(t, got, "```json\n{\n  \"ps_number\": \"PS429725\"\n}\n```")
	assert.Contains(t, got, "### Tool: search_parts\ncheck stock\nError: store unavailable")
	assert.Contains(t, got, "### Tool: unknown")
	assert.Contains(t, got, "### Agent's Analysis\nThe filter fits this model.")
}

func TestFormatResultsNoObservations(t *testing.T) {
	got := FormatResults(nil, "")
	assert.Equal(t, "## Executor Results\n", got)
}
