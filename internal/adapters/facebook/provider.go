// internal/adapters/facebook/provider.go
package facebook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"

	"reviewhub/internal/adapters/payload"
	"reviewhub/internal/adapters/rest"
	"reviewhub/internal/domain"
)

const defaultGraphBase = "https://graph.facebook.com/v19.0"

var (
	ErrNoToken   = errors.New("facebook: user access token is required")
	ErrNoReviews = errors.New("facebook: no reviews found or access restricted")
)

// reviewKeywords is the allowlist used to pick review-like page posts.
// A post mentioning none of these is discarded.
var reviewKeywords = []string{
	"review", "recommend", "experience", "service",
	"great", "excellent", "amazing", "love",
	"terrible", "awful", "disappointed", "worst",
}

type Provider struct {
	base      string
	appID     string
	appSecret string
	rc        *rest.Client
}

// New fails fast when the Graph app credentials are not configured.
func New(graphBase, appID, appSecret string) (*Provider, error) {
	if appID == "" || appSecret == "" {
		return nil, fmt.Errorf("facebook: app id and secret are required")
	}
	if graphBase == "" {
		graphBase = defaultGraphBase
	}
	return &Provider{base: graphBase, appID: appID, appSecret: appSecret, rc: rest.New(5)}, nil
}

func (p *Provider) Name() string { return "facebook" }

func (p *Provider) Config() domain.PlatformConfig {
	return domain.PlatformConfig{Name: "facebook", DisplayName: "Facebook", AuthKind: "user_token"}
}

// Authenticate upgrades the short-lived token from the client-side SDK login
// to a long-lived token. The app secret never leaves this process.
func (p *Provider) Authenticate(ctx context.Context, req domain.AuthRequest) (string, error) {
	if req.UserToken == "" {
		return "", ErrNoToken
	}
	var out struct {
		AccessToken string `json:"access_token"`
	}
	form := url.Values{}
	form.Set("grant_type", "fb_exchange_token")
	form.Set("client_id", p.appID)
	form.Set("client_secret", p.appSecret)
	form.Set("fb_exchange_token", req.UserToken)
	// POST keeps the app secret out of URLs and access logs.
	if err := p.rc.PostForm(ctx, p.base+"/oauth/access_token", form, &out); err != nil {
		return "", fmt.Errorf("facebook: token exchange failed: %w", err)
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("facebook: token exchange returned no token")
	}
	return out.AccessToken, nil
}

// GetUserPages lists the pages the user manages. The page-scoped access
// token rides along in Metadata; review fetches need it, not the user token.
func (p *Provider) GetUserPages(ctx context.Context, accessToken string) ([]domain.PlatformPage, error) {
	var out struct {
		Data []map[string]any `json:"data"`
	}
	q := url.Values{}
	q.Set("fields", "id,name,access_token,link,picture{url}")
	err := p.rc.GetJSON(ctx, rest.Request{
		URL: p.base + "/me/accounts", Query: q, Bearer: accessToken,
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("facebook: list pages failed: %w", err)
	}

	pages := make([]domain.PlatformPage, 0, len(out.Data))
	for _, d := range out.Data {
		pg := domain.PlatformPage{
			ID:       payload.Str(d, "id"),
			Name:     payload.Str(d, "name"),
			Metadata: map[string]string{},
		}
		if pic := payload.Str(d, "picture.data.url"); pic != "" {
			pg.PictureURL = &pic
		}
		if link := payload.Str(d, "link"); link != "" {
			pg.PageURL = &link
		}
		if tok := payload.Str(d, "access_token"); tok != "" {
			pg.Metadata["page_access_token"] = tok
		}
		pages = append(pages, pg)
	}
	return pages, nil
}

// FetchReviews pulls from two independent sources: native page ratings and
// review-like page posts. A permission-restricted ratings edge (403) is a
// per-source zero, not a failure; only both sources coming up empty is.
func (p *Provider) FetchReviews(ctx context.Context, pageID, accessToken string, opts domain.FetchOptions) ([]domain.StandardReview, error) {
	var reviews []domain.StandardReview

	ratings, err := p.fetchRatings(ctx, pageID, accessToken)
	if err != nil {
		if errors.Is(err, rest.ErrForbidden) {
			log.Warn().Str("page", pageID).Msg("facebook ratings restricted, falling back to posts")
		} else {
			log.Warn().Str("page", pageID).Err(err).Msg("facebook ratings fetch failed")
		}
	} else {
		reviews = append(reviews, ratings...)
	}

	posts, err := p.fetchReviewPosts(ctx, pageID, accessToken)
	if err != nil {
		log.Warn().Str("page", pageID).Err(err).Msg("facebook posts fetch failed")
	} else {
		reviews = append(reviews, posts...)
	}

	if len(reviews) == 0 {
		// Distinguish "the integration cannot work as configured" from an
		// empty-but-working source.
		return nil, ErrNoReviews
	}
	return reviews, nil
}

func (p *Provider) fetchRatings(ctx context.Context, pageID, token string) ([]domain.StandardReview, error) {
	var out struct {
		Data []map[string]any `json:"data"`
	}
	q := url.Values{}
	q.Set("fields", "reviewer{name,picture{url}},rating,recommendation_type,review_text,created_time")
	err := p.rc.GetJSON(ctx, rest.Request{
		URL: p.base + "/" + pageID + "/ratings", Query: q, Bearer: token,
	}, &out)
	if err != nil {
		return nil, err
	}

	rs := make([]domain.StandardReview, 0, len(out.Data))
	for _, d := range out.Data {
		rv := mapRating(d)
		if rv.Empty() {
			continue
		}
		rs = append(rs, rv)
	}
	return rs, nil
}

func (p *Provider) fetchReviewPosts(ctx context.Context, pageID, token string) ([]domain.StandardReview, error) {
	var out struct {
		Data []map[string]any `json:"data"`
	}
	q := url.Values{}
	q.Set("fields", "id,message,created_time,from{name,picture{url}},permalink_url")
	err := p.rc.GetJSON(ctx, rest.Request{
		URL: p.base + "/" + pageID + "/posts", Query: q, Bearer: token,
	}, &out)
	if err != nil {
		return nil, err
	}

	var rs []domain.StandardReview
	for _, d := range out.Data {
		msg := payload.Str(d, "message")
		if !looksLikeReview(msg) {
			continue
		}
		rv := mapPost(d)
		if rv.Empty() {
			continue
		}
		rs = append(rs, rv)
	}
	return rs, nil
}

// looksLikeReview keeps only posts mentioning at least one review keyword.
func looksLikeReview(msg string) bool {
	if strings.TrimSpace(msg) == "" {
		return false
	}
	low := strings.ToLower(msg)
	for _, kw := range reviewKeywords {
		if strings.Contains(low, kw) {
			return true
		}
	}
	return false
}

func mapRating(d map[string]any) domain.StandardReview {
	rv := domain.StandardReview{
		AuthorName: payload.FirstStr(d, "reviewer.name", "open_graph_story.from.name"),
		Content:    payload.Str(d, "review_text"),
	}
	if f, ok := payload.Float(d, "rating"); ok {
		rv.Rating = domain.ClampRating(f)
	} else {
		// recommendation_type pages carry no numeric score
		switch payload.Str(d, "recommendation_type") {
		case "positive":
			rv.Rating = 5
		case "negative":
			rv.Rating = 1
		}
	}
	if pic := payload.Str(d, "reviewer.picture.data.url"); pic != "" {
		rv.AuthorAvatar = &pic
	}
	rv.PublishedAt = domain.TimeOrNow(payload.Time(d, "created_time"))
	// The ratings edge exposes no review id; synthesize one so re-ingests
	// resolve to the same row.
	rv.ExternalID = domain.SynthExternalID(rv.PublishedAt, rv.Content)
	rv.RawJSON, _ = json.Marshal(d)
	return rv
}

func mapPost(d map[string]any) domain.StandardReview {
	rv := domain.StandardReview{
		ExternalID: payload.Str(d, "id"),
		AuthorName: payload.Str(d, "from.name"),
		Content:    payload.Str(d, "message"),
	}
	if pic := payload.Str(d, "from.picture.data.url"); pic != "" {
		rv.AuthorAvatar = &pic
	}
	rv.PublishedAt = domain.TimeOrNow(payload.Time(d, "created_time"))
	if rv.ExternalID == "" {
		rv.ExternalID = domain.SynthExternalID(rv.PublishedAt, rv.Content)
	}
	rv.RawJSON, _ = json.Marshal(d)
	return rv
}
