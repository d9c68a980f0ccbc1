package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ScopeCache is the redis-backed variant of the session scope cache, for
// deployments running more than one API instance. Cache errors degrade to a
// miss; the database stays the source of truth.
type ScopeCache struct {
	client  *redis.Client
	idleTTL time.Duration
}

func NewScopeCache(client *redis.Client, idleTTL time.Duration) *ScopeCache {
	if idleTTL <= 0 {
		idleTTL = 1 * time.Hour
	}
	return &ScopeCache{
		client:  client,
		idleTTL: idleTTL,
	}
}

func scopeKey(sessionId string) string {
	return "session_scope:" + sessionId
}

func (r *ScopeCache) Get(ctx context.Context, sessionId string) ([]uuid.UUID, bool) {
	raw, err := r.client.Get(ctx, scopeKey(sessionId)).Bytes()
	if err != nil {
		return nil, false
	}
	var ids []uuid.UUID
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, false
	}
	return ids, true
}

func (r *ScopeCache) Set(ctx context.Context, sessionId string, documentIds []uuid.UUID) {
	raw, err := json.Marshal(documentIds)
	if err != nil {
		return
	}
	r.client.Set(ctx, scopeKey(sessionId), raw, r.idleTTL)
}

func (r *ScopeCache) Invalidate(ctx context.Context, sessionId string) {
	r.client.Del(ctx, scopeKey(sessionId))
}
