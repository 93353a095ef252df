package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partdesk/server/internal/agent/model"
)

func seeded() *MemoryStore {
	m := NewMemoryStore()
	SeedDemo(m)
	return m
}

func TestPartByPSCaseInsensitive(t *testing.T) {
	m := seeded()

	p, err := m.PartByPS(context.Background(), "ps11752778")
	require.NoError(t, err)
	assert.Equal(t, "Refrigerator Door Shelf Bin", p.Name)

	_, err = m.PartByPS(context.Background(), "PS0000000")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPartCardCarriesCatalogFields(t *testing.T) {
	m := seeded()

	p, err := m.PartByPS(context.Background(), "PS11752778")
	require.NoError(t, err)

	card := p.Card()
	assert.Equal(t, "Whirlpool", card.Brand)
	assert.Equal(t, "WPW10321304", card.ManufacturerNumber)
	assert.Equal(t, 4.8, card.AverageRating)
	assert.Equal(t, 412, card.NumReviews)
	assert.Equal(t, 36.18, card.Price)
	assert.True(t, card.InStock)
}

func TestPartsByManufacturerNumber(t *testing.T) {
	m := seeded()

	exact, err := m.PartsByManufacturerNumber(context.Background(), "wpw10321304", true)
	require.NoError(t, err)
	require.Len(t, exact, 1)
	assert.Equal(t, "PS11752778", exact[0].PSNumber)

	partial, err := m.PartsByManufacturerNumber(context.Background(), "W1", false)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(partial), 2)
}

func TestSearchPartsRequiresAllTerms(t *testing.T) {
	m := seeded()

	out, err := m.SearchParts(context.Background(), "ice maker assembly", "", 10)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "PS12364199", out[0].PSNumber)

	none, err := m.SearchParts(context.Background(), "ice maker turbine", "", 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSearchPartsApplianceFilterAndLimit(t *testing.T) {
	m := seeded()

	out, err := m.SearchParts(context.Background(), "dishwasher", model.ApplianceRefrigerator, 10)
	require.NoError(t, err)
	assert.Empty(t, out)

	limited, err := m.SearchParts(context.Background(), "refrigerator", "", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestPartsForModel(t *testing.T) {
	m := seeded()

	parts, err := m.PartsForModel(context.Background(), "wrs325sdhz", "")
	require.NoError(t, err)
	require.Len(t, parts, 2)

	filtered, err := m.PartsForModel(context.Background(), "WRS325SDHZ", "Whirlpool")
	require.NoError(t, err)
	assert.Len(t, filtered, 2)

	none, err := m.PartsForModel(context.Background(), "WRS325SDHZ", "Bosch")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestIsCompatible(t *testing.T) {
	m := seeded()

	ok, err := m.IsCompatible(context.Background(), "ps11752778", "wrs325sdhz")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = m.IsCompatible(context.Background(), "PS11752778", "WDT780SAEM1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCompatibleModelsSorted(t *testing.T) {
	m := seeded()
	m.LinkCompatibility("PS11752778", "AAA111")

	models, err := m.CompatibleModels(context.Background(), "PS11752778")
	require.NoError(t, err)
	require.Len(t, models, 2)
	assert.Equal(t, "AAA111", models[0].Number)
	assert.Equal(t, "WRS325SDHZ", models[1].Number)
}

func TestPartsForSymptomSubstringMatch(t *testing.T) {
	m := seeded()

	parts, err := m.PartsForSymptom(context.Background(), model.ApplianceRefrigerator, "ice maker")
	require.NoError(t, err)
	require.Len(t, parts, 2)
	assert.Equal(t, "PS12364199", parts[0].PSNumber)
}

func TestSearchPartsSemanticRanksByCosine(t *testing.T) {
	m := seeded()
	m.InsertPartEmbedding("PS11752778", []float32{1, 0})
	m.InsertPartEmbedding("PS429725", []float32{0.9, 0.1})
	m.InsertPartEmbedding("PS11722167", []float32{0, 1})

	out, err := m.SearchPartsSemantic(context.Background(), []float32{1, 0}, 0.5, 10)
	require.NoError(t, err)

	// The orthogonal part falls below threshold; parts without embeddings
	// never match.
	require.Len(t, out, 2)
	assert.Equal(t, "PS11752778", out[0].Part.PSNumber)
	assert.Equal(t, "PS429725", out[1].Part.PSNumber)
	assert.Greater(t, out[0].Score, out[1].Score)
}

func TestSearchQnAThresholdAndOrdering(t *testing.T) {
	m := NewMemoryStore()
	m.InsertQnA(QnA{PSNumber: "PS1", Question: "near"}, []float32{1, 0})
	m.InsertQnA(QnA{PSNumber: "PS1", Question: "mid"}, []float32{0.7, 0.7})
	m.InsertQnA(QnA{PSNumber: "PS1", Question: "far"}, []float32{0, 1})
	m.InsertQnA(QnA{PSNumber: "PS2", Question: "other part"}, []float32{1, 0})

	out, err := m.SearchQnA(context.Background(), "PS1", []float32{1, 0}, 0.5, 10)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "near", out[0].Question)
	assert.Equal(t, "mid", out[1].Question)
}

func TestInsertPartOverwriteKeepsOrder(t *testing.T) {
	m := NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, m.InsertPart(ctx, &Part{PSNumber: "PS1", Name: "first"}))
	require.NoError(t, m.InsertPart(ctx, &Part{PSNumber: "PS2", Name: "second"}))
	require.NoError(t, m.InsertPart(ctx, &Part{PSNumber: "ps1", Name: "updated"}))

	p, err := m.PartByPS(ctx, "PS1")
	require.NoError(t, err)
	assert.Equal(t, "updated", p.Name)

	out, err := m.SearchParts(ctx, "", "", 10)
	require.NoError(t, err)
	assert.Empty(t, out)
}
