// Package cache keeps read-only catalog lookups in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"nexus-backend/internal/models"
	"nexus-backend/internal/store"
)

// DefaultTTL applies when NewCatalogCache is given a non-positive ttl.
const DefaultTTL = 10 * time.Minute

// redisAPI is the subset of *redis.Client the cache uses.
type redisAPI interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

var _ store.CatalogStore = (*CatalogCache)(nil)

// CatalogCache wraps a CatalogStore and caches sub-expert descriptors.
// Redis errors never fail a lookup; they fall back to the wrapped store.
type CatalogCache struct {
	next   store.CatalogStore
	client redisAPI
	ttl    time.Duration
}

func NewCatalogCache(next store.CatalogStore, client redisAPI, ttl time.Duration) *CatalogCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CatalogCache{next: next, client: client, ttl: ttl}
}

func subExpertKey(id uuid.UUID) string {
	return fmt.Sprintf("catalog:sub_expert:%s", id)
}

func expertSubExpertsKey(expertID uuid.UUID) string {
	return fmt.Sprintf("catalog:expert_sub_experts:%s", expertID)
}

func (c *CatalogCache) ListExperts(ctx context.Context) ([]models.Expert, error) {
	return c.next.ListExperts(ctx)
}

func (c *CatalogCache) ListSubExpertQuestions(ctx context.Context, subExpertID uuid.UUID) ([]models.SubExpertQuestion, error) {
	return c.next.ListSubExpertQuestions(ctx, subExpertID)
}

func (c *CatalogCache) GetSubExpertByID(ctx context.Context, id uuid.UUID) (*models.SubExpert, error) {
	key := subExpertKey(id)
	var cached models.SubExpert
	if c.load(ctx, key, &cached) {
		return &cached, nil
	}

	d, err := c.next.GetSubExpertByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.save(ctx, key, d)
	return d, nil
}

func (c *CatalogCache) ListSubExpertsByExpert(ctx context.Context, expertID uuid.UUID) ([]models.SubExpert, error) {
	key := expertSubExpertsKey(expertID)
	var cached []models.SubExpert
	if c.load(ctx, key, &cached) {
		return cached, nil
	}

	items, err := c.next.ListSubExpertsByExpert(ctx, expertID)
	if err != nil {
		return nil, err
	}
	if len(items) > 0 {
		c.save(ctx, key, items)
	}
	return items, nil
}

func (c *CatalogCache) load(ctx context.Context, key string, dst interface{}) bool {
	data, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		log.Printf("WARN [CatalogCache] get %s: %v", key, err)
		return false
	}
	if err := json.Unmarshal([]byte(data), dst); err != nil {
		log.Printf("WARN [CatalogCache] unmarshal %s: %v", key, err)
		return false
	}
	return true
}

func (c *CatalogCache) save(ctx context.Context, key string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("WARN [CatalogCache] marshal %s: %v", key, err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		log.Printf("WARN [CatalogCache] set %s: %v", key, err)
	}
}
