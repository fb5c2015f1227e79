// internal/adapters/google/provider.go
package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"golang.org/x/oauth2"

	"reviewhub/internal/adapters/payload"
	"reviewhub/internal/adapters/rest"
	"reviewhub/internal/domain"
)

const (
	defaultAccountsBase = "https://mybusinessaccountmanagement.googleapis.com/v1"
	defaultBusinessBase = "https://mybusinessbusinessinformation.googleapis.com/v1"
	defaultPlacesBase   = "https://maps.googleapis.com/maps/api"
)

var ErrNoCode = errors.New("google: authorization code is required")

// Config carries OAuth client credentials and the server-held Places key.
// The base URL overrides exist for tests; empty means the real endpoints.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	PlacesKey    string

	TokenURL     string
	AccountsBase string
	BusinessBase string
	PlacesBase   string
}

type Provider struct {
	oauth        *oauth2.Config
	placesKey    string
	accountsBase string
	businessBase string
	placesBase   string
	rc           *rest.Client
}

// New fails fast when the OAuth client is not configured. The Places key is
// allowed to be empty: review fetching then degrades to the no-place-id path.
func New(cfg Config) (*Provider, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("google: oauth client id and secret are required")
	}
	endpoint := oauth2.Endpoint{
		AuthURL:  "https://accounts.google.com/o/oauth2/auth",
		TokenURL: "https://oauth2.googleapis.com/token",
	}
	if cfg.TokenURL != "" {
		endpoint.TokenURL = cfg.TokenURL
	}
	p := &Provider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Endpoint:     endpoint,
			Scopes:       []string{"https://www.googleapis.com/auth/business.manage"},
		},
		placesKey:    cfg.PlacesKey,
		accountsBase: cfg.AccountsBase,
		businessBase: cfg.BusinessBase,
		placesBase:   cfg.PlacesBase,
		rc:           rest.New(5),
	}
	if p.accountsBase == "" {
		p.accountsBase = defaultAccountsBase
	}
	if p.businessBase == "" {
		p.businessBase = defaultBusinessBase
	}
	if p.placesBase == "" {
		p.placesBase = defaultPlacesBase
	}
	return p, nil
}

func (p *Provider) Name() string { return "google" }

func (p *Provider) Config() domain.PlatformConfig {
	return domain.PlatformConfig{Name: "google", DisplayName: "Google Business Profile", AuthKind: "oauth_code"}
}

// Authenticate completes the authorization-code flow server-side. The code
// arrives from the redirect callback as an explicit argument; the client
// secret never leaves this process.
func (p *Provider) Authenticate(ctx context.Context, req domain.AuthRequest) (string, error) {
	if req.Code == "" {
		return "", ErrNoCode
	}
	opts := []oauth2.AuthCodeOption{}
	if req.RedirectURI != "" {
		opts = append(opts, oauth2.SetAuthURLParam("redirect_uri", req.RedirectURI))
	}
	tok, err := p.oauth.Exchange(ctx, req.Code, opts...)
	if err != nil {
		return "", fmt.Errorf("google: code exchange failed: %w", err)
	}
	return tok.AccessToken, nil
}

// GetUserPages walks Business Profile accounts and their locations.
func (p *Provider) GetUserPages(ctx context.Context, accessToken string) ([]domain.PlatformPage, error) {
	var accounts struct {
		Accounts []map[string]any `json:"accounts"`
	}
	err := p.rc.GetJSON(ctx, rest.Request{
		URL: p.accountsBase + "/accounts", Bearer: accessToken,
	}, &accounts)
	if err != nil {
		return nil, fmt.Errorf("google: list accounts failed: %w", err)
	}

	var pages []domain.PlatformPage
	for _, acc := range accounts.Accounts {
		accName := payload.Str(acc, "name")
		if accName == "" {
			continue
		}
		var locs struct {
			Locations []map[string]any `json:"locations"`
		}
		q := url.Values{}
		q.Set("readMask", "name,title,metadata")
		err := p.rc.GetJSON(ctx, rest.Request{
			URL: p.businessBase + "/" + accName + "/locations", Query: q, Bearer: accessToken,
		}, &locs)
		if err != nil {
			return nil, fmt.Errorf("google: list locations for %s failed: %w", accName, err)
		}
		for _, loc := range locs.Locations {
			pg := domain.PlatformPage{
				ID:       payload.Str(loc, "name"), // resource name, e.g. locations/123
				Name:     payload.Str(loc, "title"),
				Metadata: map[string]string{},
			}
			if uri := payload.Str(loc, "metadata.mapsUri"); uri != "" {
				pg.PageURL = &uri
			}
			if place := payload.Str(loc, "metadata.placeId"); place != "" {
				pg.Metadata["place_id"] = place
			}
			pages = append(pages, pg)
		}
	}
	return pages, nil
}

// FetchReviews reads reviews from the Places Details API. Business Profile
// APIs expose no review content, so a Place ID is required; without one this
// is a configuration gap and the result is empty, not an error.
func (p *Provider) FetchReviews(ctx context.Context, pageID, accessToken string, opts domain.FetchOptions) ([]domain.StandardReview, error) {
	if opts.PlaceID == "" {
		return []domain.StandardReview{}, nil
	}

	var out struct {
		Result map[string]any `json:"result"`
		Status string         `json:"status"`
	}
	q := url.Values{}
	q.Set("place_id", opts.PlaceID)
	q.Set("fields", "reviews")
	q.Set("key", p.placesKey)
	err := p.rc.GetJSON(ctx, rest.Request{
		URL: p.placesBase + "/place/details/json", Query: q,
	}, &out)
	if err != nil {
		return nil, fmt.Errorf("google: place details failed: %w", err)
	}
	if out.Status != "" && out.Status != "OK" {
		return nil, fmt.Errorf("google: place details status %s", out.Status)
	}

	raw := payload.Maps(out.Result, "reviews")
	reviews := make([]domain.StandardReview, 0, len(raw))
	for _, d := range raw {
		rv := mapPlaceReview(d)
		if rv.Empty() {
			continue
		}
		if opts.PostedAfter != nil && rv.PublishedAt.Before(*opts.PostedAfter) {
			continue
		}
		reviews = append(reviews, rv)
	}
	return reviews, nil
}

func mapPlaceReview(d map[string]any) domain.StandardReview {
	rv := domain.StandardReview{
		AuthorName: payload.Str(d, "author_name"),
		Content:    payload.Str(d, "text"),
	}
	if f, ok := payload.Float(d, "rating"); ok {
		rv.Rating = domain.ClampRating(f)
	}
	if pic := payload.Str(d, "profile_photo_url"); pic != "" {
		rv.AuthorAvatar = &pic
	}
	rv.PublishedAt = domain.TimeOrNow(payload.Time(d, "time"))
	// Places reviews carry no stable id; hash the stable fields instead.
	rv.ExternalID = domain.SynthExternalID(rv.PublishedAt, rv.Content)
	rv.RawJSON, _ = json.Marshal(d)
	return rv
}
