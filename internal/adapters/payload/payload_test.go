package payload_test

import (
	"testing"
	"time"

	"reviewhub/internal/adapters/payload"
)

func doc() map[string]any {
	return map[string]any{
		"reviewer": map[string]any{
			"displayName": "Ada",
			"photo":       map[string]any{"url": "http://x/a.png"},
		},
		"starRating":  "4,0",
		"rating":      float64(5),
		"create_time": "2024-03-01T12:00:00-0700",
		"time":        float64(1709290800),
		"data": []any{
			map[string]any{"id": "1"},
			"not-a-map",
			map[string]any{"id": "2"},
		},
	}
}

func TestLookupAndStr(t *testing.T) {
	m := doc()
	if got := payload.Str(m, "reviewer.displayName"); got != "Ada" {
		t.Fatalf("nested str = %q", got)
	}
	if got := payload.Str(m, "reviewer.missing.deep"); got != "" {
		t.Fatalf("missing path should be empty, got %q", got)
	}
	if got := payload.FirstStr(m, "nope", "reviewer.photo.url"); got != "http://x/a.png" {
		t.Fatalf("FirstStr = %q", got)
	}
}

func TestFloatCoercion(t *testing.T) {
	m := doc()
	if f, ok := payload.Float(m, "rating"); !ok || f != 5 {
		t.Fatalf("float path = %v %v", f, ok)
	}
	if f, ok := payload.Float(m, "starRating"); !ok || f != 4 {
		t.Fatalf("comma string = %v %v", f, ok)
	}
	if _, ok := payload.Float(m, "reviewer.displayName"); ok {
		t.Fatalf("non-numeric string should not coerce")
	}
}

func TestTimeCoercion(t *testing.T) {
	m := doc()
	if got := payload.Time(m, "time"); got.Unix() != 1709290800 {
		t.Fatalf("unix seconds = %v", got)
	}
	got := payload.Time(m, "create_time")
	want := time.Date(2024, 3, 1, 19, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("offset layout = %v, want %v", got, want)
	}
	if got := payload.Time(m, "absent"); !got.IsZero() {
		t.Fatalf("absent path should be zero, got %v", got)
	}
}

func TestMaps(t *testing.T) {
	got := payload.Maps(doc(), "data")
	if len(got) != 2 {
		t.Fatalf("expected 2 objects, got %d", len(got))
	}
	if got[1]["id"] != "2" {
		t.Fatalf("unexpected element: %v", got[1])
	}
}
