package tools

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partdesk/server/internal/agent/model"
	"github.com/partdesk/server/internal/agent/resolve"
	"github.com/partdesk/server/internal/store"
)

func newTestRegistry() *Registry {
	m := store.NewMemoryStore()
	store.SeedDemo(m)
	return NewRegistry(Deps{Store: m, Resolver: resolve.NewResolver(m)})
}

func TestRegistryRoster(t *testing.T) {
	r := newTestRegistry()

	names := r.Names()
	assert.Len(t, names, 13)
	for _, name := range []string{
		"resolve_part", "resolve_model",
		"get_part", "check_compatibility", "get_compatible_parts", "get_compatible_models",
		"get_symptoms", "get_repair_instructions",
		"search_parts", "search_parts_semantic",
		"search_qna", "search_repair_stories", "search_reviews",
	} {
		assert.True(t, r.Has(name), name)
	}

	// No fetcher wired, so the live scrape tool is absent.
	assert.False(t, r.Has("scrape_part_live"))
}

func TestRegistryToolInfos(t *testing.T) {
	r := newTestRegistry()

	infos, err := r.ToolInfos(context.Background())
	require.NoError(t, err)
	assert.Len(t, infos, 13)
}

func TestRegistryDocs(t *testing.T) {
	docs := newTestRegistry().Docs()

	assert.Contains(t, docs, "### Resolution Tools")
	assert.Contains(t, docs, "### Part Tools")
	assert.Contains(t, docs, "- `resolve_part`:")
	assert.Contains(t, docs, "- `search_reviews`:")
	assert.NotContains(t, docs, "### Live Scrape")
}

func TestInvokeUnknownTool(t *testing.T) {
	_, err := newTestRegistry().Invoke(context.Background(), "no_such_tool", "{}")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown tool")
}

func TestInvokeGetPartNotFound(t *testing.T) {
	raw, err := newTestRegistry().Invoke(context.Background(), "get_part", `{"ps_number":"PS9999999"}`)
	require.NoError(t, err)

	var out GetPartOutput
	require.NoError(t, json.Unmarshal([]byte(raw), &out))
	assert.Equal(t, "Part PS9999999 not found in database", out.Error)
	assert.False(t, out.OutOfScope)
}

func TestInvokeGetPartOutOfScope(t *testing.T) {
	raw, err := newTestRegistry().Invoke(context.Background(), "get_part", `{"ps_number":"PS2061113"}`)
	require.NoError(t, err)

	var out GetPartOutput
	require.NoError(t, json.Unmarshal([]byte(raw), &out))
	assert.True(t, out.OutOfScope)
	assert.Equal(t, model.ApplianceType("microwave"), out.Appliance)
	assert.Contains(t, out.Error, "not a refrigerator or dishwasher")
}

func TestInvokeCheckCompatibility(t *testing.T) {
	r := newTestRegistry()

	raw, err := r.Invoke(context.Background(), "check_compatibility", `{"ps_number":"PS11752778","model_number":"WRS325SDHZ"}`)
	require.NoError(t, err)
	var out CheckCompatibilityOutput
	require.NoError(t, json.Unmarshal([]byte(raw), &out))
	assert.True(t, out.Compatible)
	assert.Equal(t, model.ApplianceRefrigerator, out.Appliance)

	raw, err = r.Invoke(context.Background(), "check_compatibility", `{"ps_number":"PS11752778","model_number":"WDT780SAEM1"}`)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(raw), &out))
	assert.False(t, out.Compatible)
}

func TestInvokeResolvePartUsesSessionFromContext(t *testing.T) {
	r := newTestRegistry()
	session := model.NewSessionState()
	session.RecordPart(model.PartCard{PSNumber: "PS429725", Appliance: model.ApplianceRefrigerator})
	ctx := WithSession(context.Background(), session)

	raw, err := r.Invoke(ctx, "resolve_part", `{"input":"this part"}`)
	require.NoError(t, err)

	var out resolve.PartResolution
	require.NoError(t, json.Unmarshal([]byte(raw), &out))
	assert.True(t, out.Resolved)
	assert.Equal(t, "PS429725", out.PSNumber)
	assert.Equal(t, resolve.ConfidenceSession, out.Confidence)
}

func TestInvokeGetSymptomsMatches(t *testing.T) {
	raw, err := newTestRegistry().Invoke(context.Background(), "get_symptoms", `{"appliance_type":"refrigerator","symptom":"ice maker not making ice"}`)
	require.NoError(t, err)

	var out GetSymptomsOutput
	require.NoError(t, json.Unmarshal([]byte(raw), &out))
	assert.Equal(t, "Ice maker not making ice", out.Matched)
	require.NotEmpty(t, out.Parts)
	assert.Equal(t, "PS12364199", out.Parts[0].PSNumber)
}

func TestInvokeGetSymptomsRejectsUnsupportedAppliance(t *testing.T) {
	raw, err := newTestRegistry().Invoke(context.Background(), "get_symptoms", `{"appliance_type":"washing machine"}`)
	require.NoError(t, err)

	var out GetSymptomsOutput
	require.NoError(t, json.Unmarshal([]byte(raw), &out))
	assert.Contains(t, out.Error, "appliance_type must be refrigerator or dishwasher")
}

func TestInvokeGetRepairInstructions(t *testing.T) {
	raw, err := newTestRegistry().Invoke(context.Background(), "get_repair_instructions", `{"appliance_type":"dishwasher","symptom":"dishes not getting clean"}`)
	require.NoError(t, err)

	var out GetRepairInstructionsOutput
	require.NoError(t, json.Unmarshal([]byte(raw), &out))
	require.Len(t, out.Guides, 1)
	assert.Equal(t, "Troubleshooting poor wash performance", out.Guides[0].Title)
}

func TestInvokeGetCompatibleModels(t *testing.T) {
	raw, err := newTestRegistry().Invoke(context.Background(), "get_compatible_models", `{"ps_number":"PS11752778"}`)
	require.NoError(t, err)

	var out GetCompatibleModelsOutput
	require.NoError(t, json.Unmarshal([]byte(raw), &out))
	assert.Equal(t, 1, out.CompatibleModelCount)
	require.Len(t, out.Models, 1)
	assert.Equal(t, "WRS325SDHZ", out.Models[0].Number)
}

func TestSessionFromMissing(t *testing.T) {
	assert.Nil(t, SessionFrom(context.Background()))
}
