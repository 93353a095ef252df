package graph

import (
	"context"
	"errors"
	"testing"
	"time"

	chatmodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partdesk/server/internal/agent/model"
	"github.com/partdesk/server/internal/agent/repo"
	"github.com/partdesk/server/internal/agent/tools"
	"github.com/partdesk/server/internal/scrape"
)

type stubChat struct {
	reply string
}

func (s *stubChat) Generate(_ context.Context, _ []*schema.Message, _ ...chatmodel.Option) (*schema.Message, error) {
	return schema.AssistantMessage(s.reply, nil), nil
}

func (s *stubChat) Stream(_ context.Context, _ []*schema.Message, _ ...chatmodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not supported")
}

func TestDefaultToolDepsWiresScrapeClassifier(t *testing.T) {
	chat := &stubChat{}

	deps := defaultToolDeps(tools.Deps{
		Fetcher: scrape.NewFetcher("https://example.com", time.Second),
	}, chat)
	assert.NotNil(t, deps.Classifier)
	assert.NotNil(t, deps.SymptomMatcher)

	// No live scraping, no classifier to run.
	deps = defaultToolDeps(tools.Deps{}, chat)
	assert.Nil(t, deps.Classifier)
	assert.NotNil(t, deps.SymptomMatcher)
}

func mentionDraft() *model.TurnDraft {
	s := model.NewSessionState()
	s.RecordPart(model.PartCard{PSNumber: "PS11752778", Name: "Door Bin", Appliance: model.ApplianceRefrigerator})
	s.RecordPart(model.PartCard{PSNumber: "PS429725", Name: "Water Filter", Appliance: model.ApplianceRefrigerator})

	return &model.TurnDraft{
		ConversationID: "conv-1",
		Query:          "which door bin fits?",
		Session:        s,
		Observations: []model.ToolObservation{
			{Tool: "get_part", Payload: []byte(`{"ps_number":"PS11752778","name":"Door Bin","appliance_type":"refrigerator"}`)},
			{Tool: "get_part", Payload: []byte(`{"ps_number":"PS429725","name":"Water Filter","appliance_type":"refrigerator"}`)},
		},
	}
}

// Part cards and session memory both close over the PS numbers the
// response actually cites.
func TestFinalizeFiltersCardsAndSessionToMentions(t *testing.T) {
	sessions := repo.NewMemorySessionRepository()
	p := &Pipeline{repo: sessions}
	draft := mentionDraft()

	result, err := p.finalize(context.Background(), draft, "The **Door Bin (PS11752778)** fits your model.")
	require.NoError(t, err)

	require.Len(t, result.Parts, 1)
	assert.Equal(t, "PS11752778", result.Parts[0].PSNumber)

	saved, err := sessions.Load(context.Background(), "conv-1")
	require.NoError(t, err)
	require.Len(t, saved.DiscussedParts, 1)
	assert.Equal(t, "PS11752778", saved.DiscussedParts[0].PSNumber)
	require.Len(t, saved.History, 2)
	assert.Equal(t, "which door bin fits?", saved.History[0].Content)
}

func TestFinalizeZeroMentionsClearsParts(t *testing.T) {
	sessions := repo.NewMemorySessionRepository()
	p := &Pipeline{repo: sessions}

	result, err := p.finalize(context.Background(), mentionDraft(), "Happy to help with anything else.")
	require.NoError(t, err)

	assert.Empty(t, result.Parts)

	saved, err := sessions.Load(context.Background(), "conv-1")
	require.NoError(t, err)
	assert.Empty(t, saved.DiscussedParts)
}
