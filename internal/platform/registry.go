// Package platform holds the static platform catalog and resolves names to
// lazily constructed provider singletons.
package platform

import (
	"errors"
	"fmt"
	"sync"

	"reviewhub/internal/adapters/facebook"
	"reviewhub/internal/adapters/google"
	"reviewhub/internal/adapters/yelp"
	"reviewhub/internal/domain"
	"reviewhub/internal/shared"
)

// Status gates dispatch: anything but StatusActive is never handed a
// real provider, even if selected by a caller.
const (
	StatusActive     = "active"
	StatusComingSoon = "coming_soon"
	StatusMaint      = "maintenance"
)

var ErrUnavailable = errors.New("platform: not available")

// Descriptor is the read-only listing entry for one platform.
type Descriptor struct {
	Name        string
	DisplayName string
	Status      string
}

type entry struct {
	desc  Descriptor
	build func() (domain.ReviewProvider, error)

	once     sync.Once
	provider domain.ReviewProvider
	err      error
}

type Registry struct {
	entries map[string]*entry
	order   []string
}

// New builds the registry for the configured environment. Providers are not
// constructed here: a platform whose keys are absent only fails when it is
// actually used.
func New(cfg shared.Config) *Registry {
	r := &Registry{entries: map[string]*entry{}}

	r.add(Descriptor{Name: "google", DisplayName: "Google Business Profile", Status: StatusActive},
		func() (domain.ReviewProvider, error) {
			return google.New(google.Config{
				ClientID:     cfg.GoogleClientID,
				ClientSecret: cfg.GoogleClientSecret,
				RedirectURI:  cfg.GoogleRedirectURI,
				PlacesKey:    cfg.GooglePlacesKey,
			})
		})
	r.add(Descriptor{Name: "facebook", DisplayName: "Facebook", Status: StatusActive},
		func() (domain.ReviewProvider, error) {
			return facebook.New("", cfg.FacebookAppID, cfg.FacebookAppSecret)
		})
	r.add(Descriptor{Name: "yelp", DisplayName: "Yelp", Status: StatusActive},
		func() (domain.ReviewProvider, error) {
			return yelp.New("", cfg.YelpAPIKey, "", cfg.ZembraToken)
		})
	r.add(Descriptor{Name: "tripadvisor", DisplayName: "Tripadvisor", Status: StatusComingSoon}, nil)
	r.add(Descriptor{Name: "trustpilot", DisplayName: "Trustpilot", Status: StatusComingSoon}, nil)

	return r
}

func (r *Registry) add(d Descriptor, build func() (domain.ReviewProvider, error)) {
	r.entries[d.Name] = &entry{desc: d, build: build}
	r.order = append(r.order, d.Name)
}

// Provider resolves a platform name to its provider. Unknown names yield
// (nil, nil) — absence is not an error. Platforms that are not active yield
// ErrUnavailable so callers never dispatch to them. The concrete provider is
// built on first access; a construction failure (missing keys) is remembered
// and resurfaces on every use.
func (r *Registry) Provider(name string) (domain.ReviewProvider, error) {
	e, ok := r.entries[name]
	if !ok {
		return nil, nil
	}
	if e.desc.Status != StatusActive {
		return nil, fmt.Errorf("%w: %s is %s", ErrUnavailable, name, e.desc.Status)
	}
	e.once.Do(func() {
		e.provider, e.err = e.build()
	})
	return e.provider, e.err
}

// All lists every registered platform in registration order.
func (r *Registry) All() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.entries[name].desc)
	}
	return out
}

// Active lists only dispatchable platforms.
func (r *Registry) Active() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, name := range r.order {
		if d := r.entries[name].desc; d.Status == StatusActive {
			out = append(out, d)
		}
	}
	return out
}
