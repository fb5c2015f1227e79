package facebook

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"reviewhub/internal/domain"
)

func newTestProvider(t *testing.T, handler http.Handler) (*Provider, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	p, err := New(srv.URL, "app-id", "app-secret")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return p, srv
}

func TestNew_RequiresCredentials(t *testing.T) {
	if _, err := New("", "", "secret"); err == nil {
		t.Fatalf("expected error without app id")
	}
	if _, err := New("", "id", ""); err == nil {
		t.Fatalf("expected error without app secret")
	}
}

func TestAuthenticate_ExchangesToken(t *testing.T) {
	p, _ := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/oauth/access_token" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		r.ParseForm()
		if got := r.PostFormValue("fb_exchange_token"); got != "short" {
			t.Errorf("fb_exchange_token = %q", got)
		}
		w.Write([]byte(`{"access_token":"long-lived"}`))
	}))

	tok, err := p.Authenticate(context.Background(), domain.AuthRequest{UserToken: "short"})
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if tok != "long-lived" {
		t.Fatalf("token = %q", tok)
	}
}

func TestAuthenticate_NoToken(t *testing.T) {
	p, _ := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	}))
	if _, err := p.Authenticate(context.Background(), domain.AuthRequest{}); !errors.Is(err, ErrNoToken) {
		t.Fatalf("want ErrNoToken, got %v", err)
	}
}

func TestGetUserPages_CarriesPageToken(t *testing.T) {
	p, _ := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/me/accounts" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer user-tok" {
			t.Errorf("Authorization = %q", got)
		}
		w.Write([]byte(`{"data":[
			{"id":"p1","name":"Main Street Cafe","access_token":"page-tok",
			 "link":"https://facebook.com/p1","picture":{"data":{"url":"https://cdn/p1.png"}}}
		]}`))
	}))

	pages, err := p.GetUserPages(context.Background(), "user-tok")
	if err != nil {
		t.Fatalf("GetUserPages: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(pages))
	}
	pg := pages[0]
	if pg.ID != "p1" || pg.Name != "Main Street Cafe" {
		t.Fatalf("unexpected page: %+v", pg)
	}
	if pg.Metadata["page_access_token"] != "page-tok" {
		t.Fatalf("page token not carried in metadata: %v", pg.Metadata)
	}
	if pg.PictureURL == nil || *pg.PictureURL != "https://cdn/p1.png" {
		t.Fatalf("picture url not mapped")
	}
}

func TestFetchReviews_RatingsRestrictedFallsBackToPosts(t *testing.T) {
	p, _ := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/p1/ratings":
			w.WriteHeader(http.StatusForbidden)
		case "/p1/posts":
			w.Write([]byte(`{"data":[
				{"id":"post_1","message":"Great service, will come back!",
				 "from":{"name":"Ada"},"created_time":"2024-03-01T12:00:00+0000"},
				{"id":"post_2","message":"We are closed on Monday",
				 "from":{"name":"Owner"},"created_time":"2024-03-02T12:00:00+0000"}
			]}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))

	got, err := p.FetchReviews(context.Background(), "p1", "page-tok", domain.FetchOptions{})
	if err != nil {
		t.Fatalf("FetchReviews: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 review-like post, got %d", len(got))
	}
	rv := got[0]
	if rv.ExternalID != "post_1" {
		t.Fatalf("external id = %q", rv.ExternalID)
	}
	if rv.Rating != 0 {
		t.Fatalf("posts carry no score, rating = %v", rv.Rating)
	}
	if rv.Content != "Great service, will come back!" || rv.AuthorName != "Ada" {
		t.Fatalf("unexpected mapping: %+v", rv)
	}
}

func TestFetchReviews_MapsRatings(t *testing.T) {
	p, _ := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/p1/ratings":
			w.Write([]byte(`{"data":[
				{"reviewer":{"name":"Bob","picture":{"data":{"url":"https://cdn/b.png"}}},
				 "recommendation_type":"positive","review_text":"Excellent food",
				 "created_time":"2024-03-01T12:00:00+0000"},
				{"reviewer":{"name":"Eve"},"recommendation_type":"negative",
				 "review_text":"Worst experience","created_time":"2024-03-02T12:00:00+0000"}
			]}`))
		case "/p1/posts":
			w.Write([]byte(`{"data":[]}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))

	got, err := p.FetchReviews(context.Background(), "p1", "page-tok", domain.FetchOptions{})
	if err != nil {
		t.Fatalf("FetchReviews: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 reviews, got %d", len(got))
	}
	if got[0].Rating != 5 || got[1].Rating != 1 {
		t.Fatalf("recommendation mapping: %v / %v", got[0].Rating, got[1].Rating)
	}
	if got[0].ExternalID == "" || got[0].ExternalID == got[1].ExternalID {
		t.Fatalf("synthesized ids must be stable and distinct: %q %q", got[0].ExternalID, got[1].ExternalID)
	}
	if got[0].AuthorAvatar == nil || *got[0].AuthorAvatar != "https://cdn/b.png" {
		t.Fatalf("avatar not mapped")
	}
}

func TestFetchReviews_BothSourcesEmpty(t *testing.T) {
	p, _ := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[]}`))
	}))
	if _, err := p.FetchReviews(context.Background(), "p1", "tok", domain.FetchOptions{}); !errors.Is(err, ErrNoReviews) {
		t.Fatalf("want ErrNoReviews, got %v", err)
	}
}

func TestLooksLikeReview(t *testing.T) {
	cases := []struct {
		msg  string
		want bool
	}{
		{"Amazing experience at this place", true},
		{"I recommend the pasta", true},
		{"We open at 9am tomorrow", false},
		{"   ", false},
	}
	for _, c := range cases {
		if got := looksLikeReview(c.msg); got != c.want {
			t.Fatalf("looksLikeReview(%q) = %v", c.msg, got)
		}
	}
}
