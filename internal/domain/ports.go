package domain

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found")

// ReviewStore is the persistence boundary for connections, reviews and
// sync history.
type ReviewStore interface {
	// Write paths
	GetPlatformByName(ctx context.Context, name string) (Platform, error)
	GetOrCreateConnection(ctx context.Context, c PlatformConnection) (PlatformConnection, error)
	SaveReviews(ctx context.Context, connectionID int64, reviews []StandardReview) (SyncStats, error)
	CreateSyncLog(ctx context.Context, connectionID int64, stats SyncStats) error
	TouchConnectionSync(ctx context.Context, connectionID int64, at time.Time) error

	// Read paths
	GetConnection(ctx context.Context, id int64) (PlatformConnection, error)
	ListActiveConnections(ctx context.Context) ([]SyncTarget, error)
	ListReviews(ctx context.Context, connectionID int64, pg PageQuery) (ReviewsPage, error)
	ListSyncLogs(ctx context.Context, connectionID int64, limit int) ([]SyncLog, error)
}

// PlatformPage is one connectable page/location on an external platform.
// Metadata carries platform-specific extras, e.g. a page-scoped access token.
type PlatformPage struct {
	ID         string
	Name       string
	PictureURL *string
	PageURL    *string
	Metadata   map[string]string
}

// AuthRequest carries whichever credential a platform's auth flow needs:
// an OAuth authorization code (Google), a short-lived user token (Facebook),
// or nothing at all (Yelp).
type AuthRequest struct {
	Code        string
	RedirectURI string
	UserToken   string
}

// FetchOptions tune a review fetch.
type FetchOptions struct {
	PlaceID     string     // Google: Places review fetch needs a Place ID
	PostedAfter *time.Time // incremental fetch lower bound, where supported
	Limit       int
}

// PlatformConfig is display metadata for a platform.
type PlatformConfig struct {
	Name        string
	DisplayName string
	AuthKind    string // oauth_code | user_token | server_key
}

// ReviewProvider adapts one external platform's auth flow and payload
// shape to the canonical model. Implementations are stateless.
type ReviewProvider interface {
	Name() string
	Config() PlatformConfig
	Authenticate(ctx context.Context, req AuthRequest) (string, error)
	GetUserPages(ctx context.Context, accessToken string) ([]PlatformPage, error)
	FetchReviews(ctx context.Context, pageID, accessToken string, opts FetchOptions) ([]StandardReview, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

// AnalysisNotifier triggers the downstream sentiment-analysis job for a
// connection. Callers treat failures as best-effort.
type AnalysisNotifier interface {
	NotifyNewReviews(ctx context.Context, connectionID int64) error
}

// Read models & queries

type PageQuery struct {
	Limit int
	Sort  string
}

type ReviewsPage struct {
	Items []Review
}
