package rest_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"

	"reviewhub/internal/adapters/rest"
)

func TestGetJSON_RetriesThenSucceeds(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&hits, 1)
		if n < 3 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := rest.New(100)
	var out struct {
		OK bool `json:"ok"`
	}
	if err := c.GetJSON(context.Background(), rest.Request{URL: srv.URL}, &out); err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
	if !out.OK {
		t.Fatalf("body not decoded")
	}
	if got := atomic.LoadInt32(&hits); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
}

func TestGetJSON_StatusErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			w.WriteHeader(http.StatusNotFound)
		case "/denied":
			w.WriteHeader(http.StatusForbidden)
		default:
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
	defer srv.Close()

	c := rest.New(100)
	var out map[string]any
	if err := c.GetJSON(context.Background(), rest.Request{URL: srv.URL + "/missing"}, &out); !errors.Is(err, rest.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if err := c.GetJSON(context.Background(), rest.Request{URL: srv.URL + "/denied"}, &out); !errors.Is(err, rest.ErrForbidden) {
		t.Fatalf("want ErrForbidden, got %v", err)
	}
	if err := c.GetJSON(context.Background(), rest.Request{URL: srv.URL + "/other"}, &out); !errors.Is(err, rest.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized, got %v", err)
	}
}

func TestGetJSON_SendsAuthAndQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("Authorization = %q", got)
		}
		if got := r.URL.Query().Get("limit"); got != "5" {
			t.Errorf("limit = %q", got)
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := rest.New(100)
	var out map[string]any
	err := c.GetJSON(context.Background(), rest.Request{
		URL:    srv.URL,
		Query:  url.Values{"limit": {"5"}},
		Bearer: "tok",
	}, &out)
	if err != nil {
		t.Fatalf("GetJSON: %v", err)
	}
}

func TestPostForm_DecodesToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if got := r.PostFormValue("grant_type"); got != "fb_exchange_token" {
			t.Errorf("grant_type = %q", got)
		}
		w.Write([]byte(`{"access_token":"long-lived"}`))
	}))
	defer srv.Close()

	c := rest.New(100)
	var out struct {
		AccessToken string `json:"access_token"`
	}
	err := c.PostForm(context.Background(), srv.URL,
		url.Values{"grant_type": {"fb_exchange_token"}}, &out)
	if err != nil {
		t.Fatalf("PostForm: %v", err)
	}
	if out.AccessToken != "long-lived" {
		t.Fatalf("token = %q", out.AccessToken)
	}
}
