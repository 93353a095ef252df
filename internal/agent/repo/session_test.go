package repo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partdesk/server/internal/agent/model"
)

func TestMemoryRepositoryLoadUnknownConversation(t *testing.T) {
	r := NewMemorySessionRepository()

	s, err := r.Load(context.Background(), "conv-1")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Empty(t, s.DiscussedParts)
	assert.NotNil(t, s.Appliances)
}

func TestMemoryRepositorySaveLoadRoundTrip(t *testing.T) {
	r := NewMemorySessionRepository()
	ctx := context.Background()

	s := model.NewSessionState()
	s.RecordPart(model.PartCard{PSNumber: "PS11752778", Name: "Door Bin", Appliance: model.ApplianceRefrigerator})
	s.AddTurn(model.RoleUser, "need a door bin")
	require.NoError(t, r.Save(ctx, "conv-1", s))

	// Mutations after save must not leak into the stored copy.
	s.RecordPart(model.PartCard{PSNumber: "PS999", Name: "Later"})

	loaded, err := r.Load(ctx, "conv-1")
	require.NoError(t, err)
	require.Len(t, loaded.DiscussedParts, 1)
	assert.Equal(t, "PS11752778", loaded.DiscussedParts[0].PSNumber)
	assert.Equal(t, model.ApplianceRefrigerator, loaded.Focus)
	require.Len(t, loaded.History, 1)
}

func TestMemoryRepositoryIsolatesConversations(t *testing.T) {
	r := NewMemorySessionRepository()
	ctx := context.Background()

	a := model.NewSessionState()
	a.RecordPart(model.PartCard{PSNumber: "PS1", Name: "A"})
	require.NoError(t, r.Save(ctx, "conv-a", a))

	b, err := r.Load(ctx, "conv-b")
	require.NoError(t, err)
	assert.Empty(t, b.DiscussedParts)
}

func TestMemoryRepositoryClear(t *testing.T) {
	r := NewMemorySessionRepository()
	ctx := context.Background()

	s := model.NewSessionState()
	s.AddTurn(model.RoleUser, "hello")
	require.NoError(t, r.Save(ctx, "conv-1", s))
	require.NoError(t, r.Clear(ctx, "conv-1"))

	loaded, err := r.Load(ctx, "conv-1")
	require.NoError(t, err)
	assert.Empty(t, loaded.History)
}

func TestRedisRepositorySessionKey(t *testing.T) {
	r := NewRedisSessionRepository(nil, time.Hour)
	assert.Equal(t, "session:conv-42:state", r.sessionKey("conv-42"))
}
