package memory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// ScopeCache keeps resolved session scopes in process memory. Entries expire
// after an idle TTL so closed or abandoned sessions fall out on their own.
type ScopeCache struct {
	cache *cache.Cache
}

func NewScopeCache(idleTTL time.Duration) *ScopeCache {
	if idleTTL <= 0 {
		idleTTL = 1 * time.Hour
	}
	c := cache.New(idleTTL, 10*time.Minute)
	return &ScopeCache{
		cache: c,
	}
}

func (r *ScopeCache) Get(ctx context.Context, sessionId string) ([]uuid.UUID, bool) {
	if x, found := r.cache.Get(sessionId); found {
		return x.([]uuid.UUID), true
	}
	return nil, false
}

func (r *ScopeCache) Set(ctx context.Context, sessionId string, documentIds []uuid.UUID) {
	r.cache.Set(sessionId, documentIds, cache.DefaultExpiration)
}

func (r *ScopeCache) Invalidate(ctx context.Context, sessionId string) {
	r.cache.Delete(sessionId)
}
