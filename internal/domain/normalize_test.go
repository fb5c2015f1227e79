package domain_test

import (
	"testing"
	"time"

	"reviewhub/internal/domain"
)

func TestClampRating(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{-3, 0},
		{0, 0},
		{4.2, 4.2},
		{5, 5},
		{9.2, 5},
	}
	for _, c := range cases {
		if got := domain.ClampRating(c.in); got != c.want {
			t.Fatalf("ClampRating(%v) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestTimeOrNow(t *testing.T) {
	known := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	if got := domain.TimeOrNow(known); !got.Equal(known) {
		t.Fatalf("expected passthrough, got %v", got)
	}
	before := time.Now()
	got := domain.TimeOrNow(time.Time{})
	if got.Before(before.Add(-time.Second)) || got.After(time.Now().Add(time.Second)) {
		t.Fatalf("expected fallback to now, got %v", got)
	}
}

func TestSynthExternalID_Stable(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	a := domain.SynthExternalID(at, "great service")
	b := domain.SynthExternalID(at, "great service")
	if a != b {
		t.Fatalf("same inputs produced different ids: %s vs %s", a, b)
	}
	if c := domain.SynthExternalID(at, "terrible service"); c == a {
		t.Fatalf("different text produced same id")
	}
	if d := domain.SynthExternalID(at.Add(time.Minute), "great service"); d == a {
		t.Fatalf("different timestamp produced same id")
	}
}

func TestStandardReview_Empty(t *testing.T) {
	if !(domain.StandardReview{}).Empty() {
		t.Fatalf("zero review should be empty")
	}
	if (domain.StandardReview{Content: "ok"}).Empty() {
		t.Fatalf("review with text is not empty")
	}
	if (domain.StandardReview{Rating: 3}).Empty() {
		t.Fatalf("review with rating is not empty")
	}
}
