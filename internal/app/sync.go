package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"reviewhub/internal/adapters/observability"
	"reviewhub/internal/domain"
)

var (
	ErrUnknownPlatform = errors.New("unknown platform")
	ErrSyncInProgress  = errors.New("a sync for this connection is already running")
)

// ProviderResolver is what the orchestrator needs from the registry.
type ProviderResolver interface {
	Provider(name string) (domain.ReviewProvider, error)
}

// SyncRequest is one user- or scheduler-triggered "connect platform" /
// "refresh reviews" action.
type SyncRequest struct {
	LocationID  int64
	Platform    string
	PageID      string
	PageURL     string
	AccessToken string
	AuthCode    string
	RedirectURI string
	UserToken   string
	PlaceID     string
	PostedAfter *time.Time
	Limit       int
}

// SyncResult is the caller-facing outcome. It is never a partial-success
// shape: per-item persistence failures live in the sync log, not here.
type SyncResult struct {
	Success         bool   `json:"success"`
	ReviewsImported int    `json:"reviewsImported"`
	Error           string `json:"error,omitempty"`
}

// SyncService drives the end-to-end ingestion flow for one connection:
// resolve provider, authenticate, fetch, persist, notify downstream, log.
type SyncService struct {
	registry ProviderResolver
	store    domain.ReviewStore
	cache    domain.Cache
	notifier domain.AnalysisNotifier

	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewSyncService(reg ProviderResolver, store domain.ReviewStore, cache domain.Cache, notifier domain.AnalysisNotifier) *SyncService {
	return &SyncService{
		registry: reg,
		store:    store,
		cache:    cache,
		notifier: notifier,
		inflight: map[string]struct{}{},
	}
}

func (s *SyncService) Sync(ctx context.Context, req SyncRequest) SyncResult {
	fail := func(err error) SyncResult {
		observability.ObserveSyncRun(req.Platform, domain.SyncFailed)
		return SyncResult{Success: false, ReviewsImported: 0, Error: err.Error()}
	}

	// 1) Resolve the provider; unknown or gated platforms never reach a fetch.
	provider, err := s.registry.Provider(req.Platform)
	if err != nil {
		return fail(err)
	}
	if provider == nil {
		return fail(fmt.Errorf("%w: %s", ErrUnknownPlatform, req.Platform))
	}

	// 2) Guard against duplicate concurrent invocations for the same target.
	key := fmt.Sprintf("%d:%s", req.LocationID, req.Platform)
	if !s.acquire(key) {
		return fail(ErrSyncInProgress)
	}
	defer s.release(key)

	// 3) Resolve the platform row and the connection (get-or-create).
	plat, err := s.store.GetPlatformByName(ctx, req.Platform)
	if err != nil {
		return fail(err)
	}
	conn, err := s.store.GetOrCreateConnection(ctx, domain.PlatformConnection{
		LocationID:         req.LocationID,
		PlatformID:         plat.ID,
		PlatformLocationID: req.PageID,
		PlatformURL:        optStr(req.PageURL),
		AccessToken:        optStr(req.AccessToken),
	})
	if err != nil {
		return fail(fmt.Errorf("resolve connection: %w", err))
	}

	// 4) Settle on a token: caller-supplied, stored, or freshly authenticated.
	token := req.AccessToken
	if token == "" && conn.AccessToken != nil {
		token = *conn.AccessToken
	}
	if token == "" {
		token, err = provider.Authenticate(ctx, domain.AuthRequest{
			Code:        req.AuthCode,
			RedirectURI: req.RedirectURI,
			UserToken:   req.UserToken,
		})
		if err != nil {
			return fail(fmt.Errorf("authenticate: %w", err))
		}
	}

	// 5) Fetch and persist.
	opts := domain.FetchOptions{
		PlaceID:     req.PlaceID,
		PostedAfter: req.PostedAfter,
		Limit:       req.Limit,
	}
	if opts.PostedAfter == nil {
		opts.PostedAfter = conn.LastSyncAt
	}
	reviews, err := provider.FetchReviews(ctx, conn.PlatformLocationID, token, opts)
	if err != nil {
		s.writeSyncLog(ctx, conn.ID, domain.SyncStats{
			ErrorMessage: err.Error(),
			StartedAt:    time.Now().UTC(),
			CompletedAt:  time.Now().UTC(),
		})
		return fail(fmt.Errorf("fetch reviews: %w", err))
	}

	stats, err := s.store.SaveReviews(ctx, conn.ID, reviews)
	if err != nil {
		return fail(fmt.Errorf("save reviews: %w", err))
	}

	// 6) New imports wake the sentiment analyzer. Best effort: a trigger
	// failure must never fail the sync itself.
	if stats.ReviewsNew > 0 && s.notifier != nil {
		if err := s.notifier.NotifyNewReviews(ctx, conn.ID); err != nil {
			log.Warn().Int64("connection", conn.ID).Err(err).Msg("sentiment trigger failed")
		}
	}

	// 7) Audit trail and bookkeeping, all swallowed on failure.
	s.writeSyncLog(ctx, conn.ID, stats)
	if err := s.store.TouchConnectionSync(ctx, conn.ID, stats.CompletedAt); err != nil {
		log.Warn().Int64("connection", conn.ID).Err(err).Msg("touch last_sync_at failed")
	}
	s.invalidateReviews(ctx, conn.ID)

	observability.ObserveSyncRun(req.Platform, stats.Status())
	observability.ObserveSyncReviews(req.Platform, stats.ReviewsNew, stats.ReviewsUpdated)

	log.Info().
		Str("platform", req.Platform).
		Int64("connection", conn.ID).
		Int("fetched", stats.ReviewsFetched).
		Int("new", stats.ReviewsNew).
		Int("updated", stats.ReviewsUpdated).
		Msg("sync completed")

	return SyncResult{Success: true, ReviewsImported: stats.ReviewsNew + stats.ReviewsUpdated}
}

// writeSyncLog keeps the audit trail without ever failing the run.
func (s *SyncService) writeSyncLog(ctx context.Context, connectionID int64, stats domain.SyncStats) {
	if err := s.store.CreateSyncLog(ctx, connectionID, stats); err != nil {
		log.Error().Int64("connection", connectionID).Err(err).Msg("sync log write failed")
	}
}

func (s *SyncService) acquire(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[key]; busy {
		return false
	}
	s.inflight[key] = struct{}{}
	return true
}

func (s *SyncService) release(key string) {
	s.mu.Lock()
	delete(s.inflight, key)
	s.mu.Unlock()
}

// invalidate the most common review-list cache variants
func (s *SyncService) invalidateReviews(ctx context.Context, connectionID int64) {
	if s.cache == nil {
		return
	}
	for _, lim := range []int{50, 100, 200} {
		_ = s.cache.Del(ctx, reviewsCacheKey(connectionID, lim, "-published_at"))
	}
}

func optStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
