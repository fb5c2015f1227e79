package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"reviewhub/internal/domain"
)

type QueryService struct {
	store    domain.ReviewStore
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewQueryService(store domain.ReviewStore, cache domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{store: store, cache: cache, cacheTTL: ttl}
}

func reviewsCacheKey(connectionID int64, limit int, sort string) string {
	return fmt.Sprintf("reviews:%d:%d:%s", connectionID, limit, sort)
}

func (s *QueryService) ListReviews(ctx context.Context, connectionID int64, pg domain.PageQuery) (domain.ReviewsPage, error) {
	key := reviewsCacheKey(connectionID, pg.Limit, pg.Sort)
	var out domain.ReviewsPage
	if ok, _ := s.cache.Get(ctx, key, &out); ok {
		return out, nil
	}

	rs, err := s.store.ListReviews(ctx, connectionID, pg)
	if err != nil {
		return domain.ReviewsPage{}, err
	}

	// copy slice to avoid aliasing the repo's backing array
	copyRS := deepCopyReviewsPage(rs)

	// size guard: oversized pages stay uncached
	if b, _ := json.Marshal(copyRS); len(b) < 1_000_000 {
		_ = s.cache.Set(ctx, key, copyRS, int(s.cacheTTL.Seconds()))
	}
	return copyRS, nil
}

// ListSyncLogs reads the audit trail directly; sync history is written once
// per run and not worth caching.
func (s *QueryService) ListSyncLogs(ctx context.Context, connectionID int64, limit int) ([]domain.SyncLog, error) {
	return s.store.ListSyncLogs(ctx, connectionID, limit)
}

func (s *QueryService) GetConnection(ctx context.Context, id int64) (domain.PlatformConnection, error) {
	return s.store.GetConnection(ctx, id)
}

func deepCopyReviewsPage(in domain.ReviewsPage) domain.ReviewsPage {
	var out domain.ReviewsPage
	if n := len(in.Items); n > 0 {
		out.Items = make([]domain.Review, n)
		copy(out.Items, in.Items)
	}
	return out
}
