package session

import (
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partdesk/server/internal/agent/model"
)

func obs(tool, payload string) model.ToolObservation {
	return model.ToolObservation{Tool: tool, Payload: []byte(payload)}
}

func TestObservationsPairsToolMessagesWithOrigins(t *testing.T) {
	msgs := []*schema.Message{
		schema.SystemMessage("sys"),
		{
			Role: schema.Assistant,
			ToolCalls: []schema.ToolCall{
				{ID: "call_0", Function: schema.FunctionCall{Name: "get_part", Arguments: `{"part_reference":"PS429725"}`}},
			},
		},
		{Role: schema.Tool, ToolCallID: "call_0", Content: `{"ps_number":"PS429725"}`},
		{Role: schema.Tool, ToolCallID: "call_9", Content: "plain text, not json"},
	}
	origins := Origins(msgs)
	require.Contains(t, origins, "call_0")
	assert.Equal(t, "get_part", origins["call_0"].Name)

	out := Observations(msgs, origins)
	require.Len(t, out, 2)

	assert.Equal(t, "get_part", out[0].Tool)
	assert.JSONEq(t, `{"ps_number":"PS429725"}`, string(out[0].Payload))

	// No matching origin: tool name stays empty, raw text is quoted JSON.
	assert.Empty(t, out[1].Tool)
	assert.JSONEq(t, `"plain text, not json"`, string(out[1].Payload))
}

func TestUpdateRecordsSupportedPart(t *testing.T) {
	s := model.NewSessionState()
	Update(s, []model.ToolObservation{
		obs("get_part", `{"ps_number":"ps429725","name":"Water Filter","appliance_type":"Refrigerator","price":49.75,"in_stock":true}`),
	})

	require.Len(t, s.DiscussedParts, 1)
	p := s.DiscussedParts[0]
	assert.Equal(t, "PS429725", p.PSNumber)
	assert.Equal(t, model.ApplianceRefrigerator, p.Appliance)
	assert.Equal(t, 49.75, p.Price)
	assert.True(t, p.InStock)
	assert.Equal(t, model.ApplianceRefrigerator, s.Focus)
}

func TestUpdateSkipsForeignAppliancePart(t *testing.T) {
	s := model.NewSessionState()
	Update(s, []model.ToolObservation{
		obs("get_part", `{"ps_number":"PS2061113","name":"Turntable Motor","appliance_type":"microwave"}`),
	})

	assert.Empty(t, s.DiscussedParts)
}

func TestUpdateSkipsOutOfScopeFlaggedPart(t *testing.T) {
	s := model.NewSessionState()
	Update(s, []model.ToolObservation{
		obs("get_part", `{"ps_number":"PS1","name":"Mystery","out_of_scope":true}`),
	})

	assert.Empty(t, s.DiscussedParts)
}

// A single out-of-scope result taints the whole turn: even valid parts
// from the same transcript stay out of session memory.
func TestUpdateRecordsNothingWhenTurnHasOutOfScopePart(t *testing.T) {
	s := model.NewSessionState()
	Update(s, []model.ToolObservation{
		obs("get_part", `{"ps_number":"PS111","name":"Door Bin","appliance_type":"refrigerator"}`),
		obs("get_part", `{"ps_number":"PS2061113","name":"Turntable Motor","appliance_type":"microwave","out_of_scope":true}`),
	})

	assert.Empty(t, s.DiscussedParts)
}

func TestUpdateCarriesRatingBrandAndManufacturerNumber(t *testing.T) {
	s := model.NewSessionState()
	Update(s, []model.ToolObservation{
		obs("get_part", `{"ps_number":"PS429725","name":"Water Filter","appliance_type":"refrigerator","brand":"Whirlpool","manufacturer_part_number":"EDR1RXD1","average_rating":4.7,"num_reviews":321}`),
	})

	require.Len(t, s.DiscussedParts, 1)
	p := s.DiscussedParts[0]
	assert.Equal(t, "Whirlpool", p.Brand)
	assert.Equal(t, "EDR1RXD1", p.ManufacturerNumber)
	assert.Equal(t, 4.7, p.AverageRating)
	assert.Equal(t, 321, p.NumReviews)
}

func TestUpdateRecordsPartWithoutAppliance(t *testing.T) {
	s := model.NewSessionState()
	Update(s, []model.ToolObservation{
		obs("search_parts", `{"parts":[{"ps_number":"PS1","name":"Gasket"},{"ps_number":"PS2","name":"Bin","appliance_type":"refrigerator"}]}`),
	})

	require.Len(t, s.DiscussedParts, 2)
	assert.Empty(t, s.DiscussedParts[0].Appliance)
	assert.Equal(t, model.ApplianceRefrigerator, s.Focus)
}

func TestUpdateRecordsSymptomAndModel(t *testing.T) {
	s := model.NewSessionState()
	Update(s, []model.ToolObservation{
		obs("get_symptoms", `{"appliance_type":"refrigerator","matched_symptom":"Ice maker not making ice"}`),
		obs("check_compatibility", `{"appliance_type":"refrigerator","compatible":true,"model_number":"WRS325SDHZ"}`),
		obs("check_compatibility", `{"appliance_type":"refrigerator","compatible":false,"model_number":"GSS25GSHSS"}`),
	})

	ac := s.Appliances[model.ApplianceRefrigerator]
	require.NotNil(t, ac)
	assert.Equal(t, []string{"Ice maker not making ice"}, ac.Symptoms)
	assert.Equal(t, []string{"WRS325SDHZ"}, ac.Models)
}

func TestCollectPartsSkipsErrorsAndDedups(t *testing.T) {
	parts := CollectParts([]model.ToolObservation{
		obs("get_part", `{"ps_number":"PS1","name":"Bin","error":"not found"}`),
		obs("search_parts", `{"parts":[{"ps_number":"ps2","name":"Filter"},{"ps_number":"PS2","name":"Filter"},{"ps_number":"PS3"}]}`),
		obs("get_part", `{"ps_number":"PS4","name":"Pump","appliance_type":"dishwasher"}`),
	})

	require.Len(t, parts, 2)
	assert.Equal(t, "PS2", parts[0].PSNumber)
	assert.Equal(t, "PS4", parts[1].PSNumber)
	assert.Equal(t, model.ApplianceDishwasher, parts[1].Appliance)
}

func TestFindOutOfScopeFlaggedItem(t *testing.T) {
	found := FindOutOfScope([]model.ToolObservation{
		obs("get_part", `{"ps_number":"PS2061113","name":"Turntable Motor","appliance_type":"microwave","out_of_scope":true}`),
	})

	require.Len(t, found, 1)
	assert.Equal(t, "PS2061113", found[0].PSNumber)
	assert.Equal(t, model.ApplianceType("microwave"), found[0].Appliance)
}

func TestFindOutOfScopeUnsupportedApplianceInList(t *testing.T) {
	found := FindOutOfScope([]model.ToolObservation{
		obs("search_parts", `{"parts":[{"ps_number":"PS1","name":"Bin","appliance_type":"refrigerator"},{"ps_number":"PS2","name":"Belt","appliance_type":"dryer"}]}`),
	})

	require.Len(t, found, 1)
	assert.Equal(t, "PS2", found[0].PSNumber)
	assert.Equal(t, model.ApplianceType("dryer"), found[0].Appliance)
}

// Model listings carry the appliance on the model entries; the first one
// identifies the part's appliance.
func TestFindOutOfScopeFromModelsListing(t *testing.T) {
	found := FindOutOfScope([]model.ToolObservation{
		obs("get_compatible_models", `{"part_number":"PS55","models":[{"model_number":"M1","appliance_type":"oven"},{"model_number":"M2","appliance_type":"oven"}]}`),
	})

	require.Len(t, found, 1)
	assert.Equal(t, "PS55", found[0].PSNumber)
	assert.Equal(t, "Unknown Part", found[0].Name)
	assert.Equal(t, model.ApplianceType("oven"), found[0].Appliance)
}

func TestFindOutOfScopeDedupsAndDefaults(t *testing.T) {
	found := FindOutOfScope([]model.ToolObservation{
		obs("get_part", `{"ps_number":"PS7","name":"Knob","appliance_type":"stove"}`),
		obs("get_part", `{"ps_number":"PS7","name":"Knob","appliance_type":"stove"}`),
		obs("get_part", `{"out_of_scope":true}`),
	})

	require.Len(t, found, 2)
	assert.Equal(t, "PS7", found[0].PSNumber)
	assert.Equal(t, "Unknown", found[1].PSNumber)
	assert.Equal(t, "Unknown Part", found[1].Name)
	assert.Equal(t, model.ApplianceType("unknown"), found[1].Appliance)
}

func TestFindOutOfScopeCleanTranscript(t *testing.T) {
	found := FindOutOfScope([]model.ToolObservation{
		obs("get_part", `{"ps_number":"PS1","name":"Bin","appliance_type":"refrigerator"}`),
	})

	assert.Empty(t, found)
}
