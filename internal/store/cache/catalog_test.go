package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"nexus-backend/internal/models"
	"nexus-backend/internal/store"
)

type fakeRedis struct {
	data    map[string]string
	ttls    map[string]time.Duration
	failGet error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if f.failGet != nil {
		return redis.NewStringResult("", f.failGet)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	}
	f.ttls[key] = expiration
	return redis.NewStatusResult("OK", nil)
}

type countingCatalog struct {
	store.CatalogStore
	subExperts map[uuid.UUID]*models.SubExpert
	byExpert   map[uuid.UUID][]models.SubExpert
	gets       int
	lists      int
}

func (c *countingCatalog) GetSubExpertByID(_ context.Context, id uuid.UUID) (*models.SubExpert, error) {
	c.gets++
	d, ok := c.subExperts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return d, nil
}

func (c *countingCatalog) ListSubExpertsByExpert(_ context.Context, expertID uuid.UUID) ([]models.SubExpert, error) {
	c.lists++
	return c.byExpert[expertID], nil
}

func TestCatalogCache_GetSubExpertHitsStoreOnce(t *testing.T) {
	id := uuid.New()
	prompt := "Act as counsel."
	next := &countingCatalog{subExperts: map[uuid.UUID]*models.SubExpert{
		id: {ID: id, Title: "Legal", PromptBase: &prompt, IsActive: true},
	}}
	rdb := newFakeRedis()
	c := NewCatalogCache(next, rdb, time.Minute)

	for i := 0; i < 3; i++ {
		d, err := c.GetSubExpertByID(context.Background(), id)
		require.NoError(t, err)
		require.Equal(t, "Legal", d.Title)
		require.Equal(t, prompt, *d.PromptBase)
	}
	require.Equal(t, 1, next.gets)
	require.Equal(t, time.Minute, rdb.ttls[subExpertKey(id)])
}

func TestCatalogCache_NotFoundIsNotCached(t *testing.T) {
	next := &countingCatalog{subExperts: map[uuid.UUID]*models.SubExpert{}}
	c := NewCatalogCache(next, newFakeRedis(), 0)

	_, err := c.GetSubExpertByID(context.Background(), uuid.New())
	require.ErrorIs(t, err, store.ErrNotFound)
	require.Equal(t, DefaultTTL, c.ttl)
}

func TestCatalogCache_RedisFailureFallsThrough(t *testing.T) {
	id := uuid.New()
	next := &countingCatalog{subExperts: map[uuid.UUID]*models.SubExpert{id: {ID: id, Title: "Tax"}}}
	rdb := newFakeRedis()
	rdb.failGet = errors.New("connection refused")
	c := NewCatalogCache(next, rdb, time.Minute)

	for i := 0; i < 2; i++ {
		d, err := c.GetSubExpertByID(context.Background(), id)
		require.NoError(t, err)
		require.Equal(t, "Tax", d.Title)
	}
	require.Equal(t, 2, next.gets)
}

func TestCatalogCache_ListSubExperts(t *testing.T) {
	expertID := uuid.New()
	next := &countingCatalog{byExpert: map[uuid.UUID][]models.SubExpert{
		expertID: {{ID: uuid.New(), Title: "A"}, {ID: uuid.New(), Title: "B"}},
	}}
	c := NewCatalogCache(next, newFakeRedis(), time.Minute)

	for i := 0; i < 2; i++ {
		items, err := c.ListSubExpertsByExpert(context.Background(), expertID)
		require.NoError(t, err)
		require.Len(t, items, 2)
		require.Equal(t, "B", items[1].Title)
	}
	require.Equal(t, 1, next.lists)

	empty, err := c.ListSubExpertsByExpert(context.Background(), uuid.New())
	require.NoError(t, err)
	require.Empty(t, empty)
}
