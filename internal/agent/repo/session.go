package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/partdesk/server/internal/agent/model"
	errx "github.com/partdesk/server/internal/core/error"
	logx "github.com/partdesk/server/pkg/logger"
)

// RedisSessionRepository keeps session state as a JSON blob per
// conversation, with the TTL refreshed on every save.
type RedisSessionRepository struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisSessionRepository(rdb redis.Cmdable, ttl time.Duration) *RedisSessionRepository {
	return &RedisSessionRepository{rdb: rdb, ttl: ttl}
}

func (r *RedisSessionRepository) sessionKey(conversationID string) string {
	return fmt.Sprintf("session:%s:state", conversationID)
}

func (r *RedisSessionRepository) Load(ctx context.Context, conversationID string) (*model.SessionState, error) {
	key := r.sessionKey(conversationID)

	raw, err := r.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.NewSessionState(), nil
		}
		logx.Error().Err(err).Str("key", key).Msg("failed to load session from redis")
		return nil, errx.WrapRedis(err)
	}

	var s model.SessionState
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		// A corrupt blob should not strand the conversation; start fresh.
		logx.Warn().Err(err).Str("conversationID", conversationID).Msg("corrupt session state, resetting")
		return model.NewSessionState(), nil
	}
	if s.Appliances == nil {
		s.Appliances = map[model.ApplianceType]*model.ApplianceContext{}
	}
	return &s, nil
}

func (r *RedisSessionRepository) Save(ctx context.Context, conversationID string, s *model.SessionState) error {
	b, err := json.Marshal(s)
	if err != nil {
		logx.Error().Err(err).Str("conversationID", conversationID).Msg("failed to marshal session")
		return fmt.Errorf("marshal session: %w", err)
	}
	key := r.sessionKey(conversationID)

	if err := r.rdb.Set(ctx, key, b, r.ttl).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to save session to redis")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisSessionRepository) Clear(ctx context.Context, conversationID string) error {
	key := r.sessionKey(conversationID)
	if err := r.rdb.Del(ctx, key).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to delete session from redis")
		return errx.WrapRedis(err)
	}
	return nil
}

var _ model.SessionRepository = (*RedisSessionRepository)(nil)

// MemorySessionRepository holds sessions in process memory, for local
// runs and tests where Redis is not available.
type MemorySessionRepository struct {
	mu       sync.Mutex
	sessions map[string][]byte
}

func NewMemorySessionRepository() *MemorySessionRepository {
	return &MemorySessionRepository{sessions: map[string][]byte{}}
}

func (r *MemorySessionRepository) Load(_ context.Context, conversationID string) (*model.SessionState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	raw, ok := r.sessions[conversationID]
	if !ok {
		return model.NewSessionState(), nil
	}
	var s model.SessionState
	if err := json.Unmarshal(raw, &s); err != nil {
		return model.NewSessionState(), nil
	}
	if s.Appliances == nil {
		s.Appliances = map[model.ApplianceType]*model.ApplianceContext{}
	}
	return &s, nil
}

func (r *MemorySessionRepository) Save(_ context.Context, conversationID string, s *model.SessionState) error {
	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[conversationID] = b
	return nil
}

func (r *MemorySessionRepository) Clear(_ context.Context, conversationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, conversationID)
	return nil
}

var _ model.SessionRepository = (*MemorySessionRepository)(nil)
