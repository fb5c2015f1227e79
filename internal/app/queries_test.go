package app

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"reviewhub/internal/domain"
)

// memCache is a map-backed domain.Cache for query tests.
type memCache struct {
	data map[string][]byte
	sets int
	gets int
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.gets++
	b, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *memCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	c.sets++
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.data[key] = b
	return nil
}

func (c *memCache) Del(ctx context.Context, key string) error {
	delete(c.data, key)
	return nil
}

type listingStore struct {
	fakeStore
	page  domain.ReviewsPage
	err   error
	calls int
}

func (s *listingStore) ListReviews(ctx context.Context, connectionID int64, pg domain.PageQuery) (domain.ReviewsPage, error) {
	s.calls++
	return s.page, s.err
}

func TestListReviews_MissThenHit(t *testing.T) {
	store := &listingStore{page: domain.ReviewsPage{Items: []domain.Review{
		{ID: 1, ConnectionID: 7, StandardReview: domain.StandardReview{Content: "great", Rating: 5}},
	}}}
	cache := newMemCache()
	q := NewQueryService(store, cache, 15*time.Minute)

	pg := domain.PageQuery{Limit: 50, Sort: "-published_at"}
	first, err := q.ListReviews(context.Background(), 7, pg)
	if err != nil {
		t.Fatalf("ListReviews: %v", err)
	}
	if len(first.Items) != 1 || first.Items[0].Content != "great" {
		t.Fatalf("unexpected page: %+v", first)
	}
	if store.calls != 1 || cache.sets != 1 {
		t.Fatalf("miss should hit store once and populate cache: calls=%d sets=%d", store.calls, cache.sets)
	}

	second, err := q.ListReviews(context.Background(), 7, pg)
	if err != nil {
		t.Fatalf("ListReviews: %v", err)
	}
	if store.calls != 1 {
		t.Fatalf("hit must not touch the store again, calls=%d", store.calls)
	}
	if len(second.Items) != 1 || second.Items[0].ID != 1 {
		t.Fatalf("cached page differs: %+v", second)
	}
}

func TestListReviews_DistinctKeysPerVariant(t *testing.T) {
	store := &listingStore{page: domain.ReviewsPage{}}
	cache := newMemCache()
	q := NewQueryService(store, cache, time.Minute)

	q.ListReviews(context.Background(), 7, domain.PageQuery{Limit: 50, Sort: "-published_at"})
	q.ListReviews(context.Background(), 7, domain.PageQuery{Limit: 100, Sort: "-published_at"})
	q.ListReviews(context.Background(), 8, domain.PageQuery{Limit: 50, Sort: "-published_at"})
	if store.calls != 3 {
		t.Fatalf("each variant is its own key, calls=%d", store.calls)
	}
}

func TestListReviews_StoreError(t *testing.T) {
	store := &listingStore{err: errors.New("db gone")}
	q := NewQueryService(store, newMemCache(), time.Minute)
	if _, err := q.ListReviews(context.Background(), 7, domain.PageQuery{Limit: 50}); err == nil {
		t.Fatalf("expected store error to propagate")
	}
}
