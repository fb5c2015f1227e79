package platform

import (
	"errors"
	"testing"

	"reviewhub/internal/shared"
)

func fullConfig() shared.Config {
	return shared.Config{
		GoogleClientID:     "gid",
		GoogleClientSecret: "gsecret",
		FacebookAppID:      "fid",
		FacebookAppSecret:  "fsecret",
		YelpAPIKey:         "ykey",
		ZembraToken:        "ztok",
	}
}

func TestProvider_UnknownIsAbsence(t *testing.T) {
	r := New(fullConfig())
	p, err := r.Provider("myspace")
	if p != nil || err != nil {
		t.Fatalf("unknown platform should be (nil, nil), got %v, %v", p, err)
	}
}

func TestProvider_ComingSoonNeverDispatches(t *testing.T) {
	r := New(fullConfig())
	p, err := r.Provider("tripadvisor")
	if p != nil {
		t.Fatalf("coming_soon platform must not hand out a provider")
	}
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("want ErrUnavailable, got %v", err)
	}
}

func TestProvider_ConstructionFailureSurfacesOnUse(t *testing.T) {
	// Missing keys do not break registry construction, only first use.
	r := New(shared.Config{})
	p, err := r.Provider("facebook")
	if err == nil || p != nil {
		t.Fatalf("expected construction error on first use, got %v, %v", p, err)
	}
	// The failure is remembered.
	if _, err2 := r.Provider("facebook"); err2 == nil {
		t.Fatalf("construction failure must resurface on every use")
	}
}

func TestProvider_LazySingleton(t *testing.T) {
	r := New(fullConfig())
	a, err := r.Provider("yelp")
	if err != nil {
		t.Fatalf("Provider: %v", err)
	}
	b, err := r.Provider("yelp")
	if err != nil {
		t.Fatalf("Provider: %v", err)
	}
	if a != b {
		t.Fatalf("repeat resolutions must return the same instance")
	}
	if a.Config().Name != "yelp" {
		t.Fatalf("wrong provider: %s", a.Config().Name)
	}
}

func TestAllAndActive(t *testing.T) {
	r := New(fullConfig())
	all := r.All()
	if len(all) != 5 {
		t.Fatalf("expected 5 registered platforms, got %d", len(all))
	}
	active := r.Active()
	if len(active) != 3 {
		t.Fatalf("expected 3 active platforms, got %d", len(active))
	}
	for _, d := range active {
		if d.Status != StatusActive {
			t.Fatalf("non-active descriptor leaked: %+v", d)
		}
	}
}
