package redisad

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	srv := miniredis.RunT(t)
	return New(srv.Addr(), "", 0)
}

func TestCache_RoundTrip(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	var out payload
	ok, err := c.Get(ctx, "k", &out)
	if err != nil {
		t.Fatalf("Get miss: %v", err)
	}
	if ok {
		t.Fatalf("expected miss on empty cache")
	}

	if err := c.Set(ctx, "k", payload{Name: "reviews", Count: 3}, 60); err != nil {
		t.Fatalf("Set: %v", err)
	}
	ok, err = c.Get(ctx, "k", &out)
	if err != nil || !ok {
		t.Fatalf("Get hit: ok=%v err=%v", ok, err)
	}
	if out.Name != "reviews" || out.Count != 3 {
		t.Fatalf("unexpected value: %+v", out)
	}

	if err := c.Del(ctx, "k"); err != nil {
		t.Fatalf("Del: %v", err)
	}
	if ok, _ := c.Get(ctx, "k", &out); ok {
		t.Fatalf("expected miss after delete")
	}
}

func TestCache_SetRejectsUnmarshalable(t *testing.T) {
	c := newTestCache(t)
	if err := c.Set(context.Background(), "k", make(chan int), 60); err == nil {
		t.Fatalf("expected marshal error")
	}
}
