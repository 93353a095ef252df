package resolve

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partdesk/server/internal/agent/model"
	"github.com/partdesk/server/internal/store"
)

func seededResolver() *Resolver {
	m := store.NewMemoryStore()
	store.SeedDemo(m)
	return NewResolver(m)
}

func TestResolvePartExactPS(t *testing.T) {
	r := seededResolver()

	res, err := r.ResolvePart(context.Background(), "ps11752778", nil)
	require.NoError(t, err)

	assert.True(t, res.Resolved)
	assert.Equal(t, "PS11752778", res.PSNumber)
	assert.Equal(t, ConfidenceExact, res.Confidence)
	assert.Equal(t, "Refrigerator Door Shelf Bin", res.PartName)
	assert.Equal(t, model.ApplianceRefrigerator, res.Appliance)
}

func TestResolvePartFromURL(t *testing.T) {
	r := seededResolver()

	url := "https://www.partselect.com/PS11752778-Whirlpool-WPW10321304-Refrigerator-Door-Bin.htm"
	res, err := r.ResolvePart(context.Background(), url, nil)
	require.NoError(t, err)

	assert.True(t, res.Resolved)
	assert.Equal(t, "PS11752778", res.PSNumber)
	assert.Equal(t, ConfidenceExact, res.Confidence)
	assert.Equal(t, url, res.URL)
}

func TestResolvePartEmbeddedPSNumber(t *testing.T) {
	r := seededResolver()

	res, err := r.ResolvePart(context.Background(), "is ps12364199 still in stock?", nil)
	require.NoError(t, err)

	assert.True(t, res.Resolved)
	assert.Equal(t, "PS12364199", res.PSNumber)
	assert.Equal(t, ConfidenceExact, res.Confidence)
	assert.Empty(t, res.URL)
}

func TestResolvePartSessionReference(t *testing.T) {
	r := seededResolver()
	session := model.NewSessionState()
	session.RecordPart(model.PartCard{PSNumber: "PS429725", Appliance: model.ApplianceRefrigerator})

	res, err := r.ResolvePart(context.Background(), "how do I install this part?", session)
	require.NoError(t, err)

	assert.True(t, res.Resolved)
	assert.Equal(t, "PS429725", res.PSNumber)
	assert.Equal(t, ConfidenceSession, res.Confidence)
	assert.Equal(t, "Refrigerator Water Filter", res.PartName)
}

// A session part that the catalog no longer knows must not resolve.
func TestResolvePartStaleSessionEntry(t *testing.T) {
	r := seededResolver()
	session := model.NewSessionState()
	session.RecordPart(model.PartCard{PSNumber: "PS9999999"})

	res, err := r.ResolvePart(context.Background(), "this part", session)
	require.NoError(t, err)

	assert.False(t, res.Resolved)
	assert.NotEqual(t, ConfidenceSession, res.Confidence)
}

// An explicit PS number that misses is terminal, never a text search.
func TestResolvePartBarePSMissIsTerminal(t *testing.T) {
	r := seededResolver()

	res, err := r.ResolvePart(context.Background(), "PS9999999", nil)
	require.NoError(t, err)

	assert.False(t, res.Resolved)
	assert.Equal(t, "PS9999999", res.PSNumber)
	assert.Equal(t, ConfidenceNotFound, res.Confidence)
	assert.Equal(t, "Part PS9999999 not found in database", res.Message)
}

func TestResolvePartManufacturerNumber(t *testing.T) {
	r := seededResolver()

	res, err := r.ResolvePart(context.Background(), "wpw10321304", nil)
	require.NoError(t, err)

	assert.True(t, res.Resolved)
	assert.Equal(t, "PS11752778", res.PSNumber)
	assert.Equal(t, "WPW10321304", res.ManufacturerNumber)
	assert.Equal(t, ConfidenceMatched, res.Confidence)
}

func TestResolvePartTextSearchSingleHit(t *testing.T) {
	r := seededResolver()

	res, err := r.ResolvePart(context.Background(), "water filter", nil)
	require.NoError(t, err)

	assert.True(t, res.Resolved)
	assert.Equal(t, "PS429725", res.PSNumber)
	assert.Equal(t, ConfidenceSearch, res.Confidence)
}

func TestResolvePartTextSearchMultipleHits(t *testing.T) {
	r := seededResolver()

	res, err := r.ResolvePart(context.Background(), "refrigerator", nil)
	require.NoError(t, err)

	assert.False(t, res.Resolved)
	assert.Equal(t, ConfidenceSearch, res.Confidence)
	assert.Greater(t, len(res.Candidates), 1)
}

func TestResolvePartNothingMatches(t *testing.T) {
	r := seededResolver()

	res, err := r.ResolvePart(context.Background(), "flux capacitor housing", nil)
	require.NoError(t, err)

	assert.False(t, res.Resolved)
	assert.Equal(t, ConfidenceNotFound, res.Confidence)
	assert.NotNil(t, res.Candidates)
}

func TestResolveModelExact(t *testing.T) {
	r := seededResolver()

	res, err := r.ResolveModel(context.Background(), " wrs325sdhz ")
	require.NoError(t, err)

	assert.True(t, res.Resolved)
	assert.Equal(t, "WRS325SDHZ", res.ModelNumber)
	assert.Equal(t, "Whirlpool", res.Brand)
	assert.Equal(t, ConfidenceExact, res.Confidence)
}

func TestResolveModelPartialSingle(t *testing.T) {
	r := seededResolver()

	res, err := r.ResolveModel(context.Background(), "WRS325")
	require.NoError(t, err)

	assert.True(t, res.Resolved)
	assert.Equal(t, "WRS325SDHZ", res.ModelNumber)
	assert.Equal(t, ConfidencePartial, res.Confidence)
}

func TestResolveModelNotFound(t *testing.T) {
	r := seededResolver()

	res, err := r.ResolveModel(context.Background(), "ZZZ000")
	require.NoError(t, err)

	assert.False(t, res.Resolved)
	assert.Equal(t, ConfidenceNotFound, res.Confidence)
}
