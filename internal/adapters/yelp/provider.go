// internal/adapters/yelp/provider.go
package yelp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"reviewhub/internal/adapters/payload"
	"reviewhub/internal/adapters/rest"
	"reviewhub/internal/domain"
)

const (
	defaultFusionBase = "https://api.yelp.com/v3"
	defaultZembraBase = "https://api.zembra.io"
)

// ErrNoPageListing marks that Yelp has no "list my pages" call; page
// discovery goes through SearchBusinesses instead.
var ErrNoPageListing = errors.New("yelp: page discovery is by business search")

type Provider struct {
	fusionBase  string
	fusionKey   string
	zembraBase  string
	zembraToken string
	rc          *rest.Client
}

// New fails fast when the server-held credentials are not configured.
// Yelp has no user-level OAuth: both keys belong to the platform, so a
// missing one is a configuration error, never an auth error.
func New(fusionBase, fusionKey, zembraBase, zembraToken string) (*Provider, error) {
	if fusionKey == "" {
		return nil, fmt.Errorf("yelp: fusion api key is required")
	}
	if zembraToken == "" {
		return nil, fmt.Errorf("yelp: zembra token is required")
	}
	if fusionBase == "" {
		fusionBase = defaultFusionBase
	}
	if zembraBase == "" {
		zembraBase = defaultZembraBase
	}
	return &Provider{
		fusionBase:  fusionBase,
		fusionKey:   fusionKey,
		zembraBase:  zembraBase,
		zembraToken: zembraToken,
		rc:          rest.New(5),
	}, nil
}

func (p *Provider) Name() string { return "yelp" }

func (p *Provider) Config() domain.PlatformConfig {
	return domain.PlatformConfig{Name: "yelp", DisplayName: "Yelp", AuthKind: "server_key"}
}

// Authenticate is a no-op: access rides on the server-held API key.
func (p *Provider) Authenticate(ctx context.Context, req domain.AuthRequest) (string, error) {
	return "", nil
}

func (p *Provider) GetUserPages(ctx context.Context, accessToken string) ([]domain.PlatformPage, error) {
	return nil, ErrNoPageListing
}

// SearchBusinesses finds candidate pages by name via the Fusion API.
func (p *Provider) SearchBusinesses(ctx context.Context, name, location string) ([]domain.PlatformPage, error) {
	if name == "" {
		return nil, fmt.Errorf("yelp: business name is required")
	}
	if location == "" {
		location = "United States"
	}
	var out struct {
		Businesses []map[string]any `json:"businesses"`
	}
	q := url.Values{}
	q.Set("term", name)
	q.Set("location", location)
	q.Set("limit", "10")
	err := p.rc.GetJSON(ctx, rest.Request{
		URL: p.fusionBase + "/businesses/search", Query: q, Bearer: p.fusionKey,
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("yelp: business search failed: %w", err)
	}

	pages := make([]domain.PlatformPage, 0, len(out.Businesses))
	for _, b := range out.Businesses {
		pg := domain.PlatformPage{
			ID:       payload.FirstStr(b, "alias", "id"),
			Name:     payload.Str(b, "name"),
			Metadata: map[string]string{},
		}
		if pic := payload.Str(b, "image_url"); pic != "" {
			pg.PictureURL = &pic
		}
		if u := payload.Str(b, "url"); u != "" {
			pg.PageURL = &u
		}
		if f, ok := payload.Float(b, "rating"); ok {
			pg.Metadata["rating"] = fmt.Sprintf("%.1f", f)
		}
		pages = append(pages, pg)
	}
	return pages, nil
}

// FetchReviews delegates to the Zembra aggregation service, which holds the
// scraping side of the house. Supports incremental fetch via PostedAfter.
func (p *Provider) FetchReviews(ctx context.Context, pageID, accessToken string, opts domain.FetchOptions) ([]domain.StandardReview, error) {
	var out struct {
		Data struct {
			Reviews []map[string]any `json:"reviews"`
		} `json:"data"`
	}
	q := url.Values{}
	q.Set("network", "yelp")
	q.Set("slug", pageID)
	if opts.PostedAfter != nil {
		q.Set("postedAfter", opts.PostedAfter.UTC().Format(time.RFC3339))
	}
	if opts.Limit > 0 {
		q.Set("limit", fmt.Sprintf("%d", opts.Limit))
	}
	err := p.rc.GetJSON(ctx, rest.Request{
		URL: p.zembraBase + "/reviews", Query: q, Bearer: p.zembraToken,
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("yelp: zembra fetch failed: %w", err)
	}

	reviews := make([]domain.StandardReview, 0, len(out.Data.Reviews))
	for _, d := range out.Data.Reviews {
		rv := mapZembraReview(d)
		if rv.Empty() {
			continue
		}
		reviews = append(reviews, rv)
	}
	return reviews, nil
}

func mapZembraReview(d map[string]any) domain.StandardReview {
	rv := domain.StandardReview{
		ExternalID: payload.FirstStr(d, "id", "reviewId"),
		AuthorName: payload.FirstStr(d, "author.name", "author"),
		Content:    payload.FirstStr(d, "text", "content"),
	}
	if f, ok := payload.Float(d, "rating", "score"); ok {
		rv.Rating = domain.ClampRating(f)
	}
	if pic := payload.FirstStr(d, "author.image", "author.avatar"); pic != "" {
		rv.AuthorAvatar = &pic
	}
	if title := payload.Str(d, "title"); title != "" {
		rv.Title = &title
	}
	rv.PublishedAt = domain.TimeOrNow(payload.Time(d, "timestamp", "created_at", "date"))
	if rv.ExternalID == "" {
		rv.ExternalID = domain.SynthExternalID(rv.PublishedAt, rv.Content)
	}
	if replies := payload.Maps(d, "replies"); len(replies) > 0 {
		if txt := payload.Str(replies[0], "text"); txt != "" {
			rv.ReplyContent = &txt
			if at := payload.Time(replies[0], "timestamp", "date"); !at.IsZero() {
				rv.ReplyAt = &at
			}
		}
	}
	rv.RawJSON, _ = json.Marshal(d)
	return rv
}
