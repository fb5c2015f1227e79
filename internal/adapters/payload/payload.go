// Package payload holds shape-tolerant lookup helpers for the loosely typed
// JSON documents the review platforms return. Providers map through these
// instead of hard-coding one payload layout per API version.
package payload

import (
	"strconv"
	"strings"
	"time"
)

// Lookup is a safe nested lookup with dot paths on maps.
func Lookup(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// Str returns the string at path or "".
func Str(m map[string]any, path string) string {
	if v := Lookup(m, path); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// FirstStr returns the first non-empty string across several paths.
func FirstStr(m map[string]any, paths ...string) string {
	for _, p := range paths {
		if s := Str(m, p); s != "" {
			return s
		}
	}
	return ""
}

// Float coerces a number from several paths (float64/int/string like "4,0").
func Float(m map[string]any, paths ...string) (float64, bool) {
	for _, k := range paths {
		switch v := Lookup(m, k).(type) {
		case float64:
			return v, true
		case int:
			return float64(v), true
		case string:
			s := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
			if s == "" {
				continue
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

// Time coerces a timestamp from several paths. Accepts unix seconds
// (number or numeric string) and the date layouts the platforms emit.
// Returns the zero time when nothing parses.
func Time(m map[string]any, paths ...string) time.Time {
	for _, k := range paths {
		switch v := Lookup(m, k).(type) {
		case float64:
			if v > 0 {
				return time.Unix(int64(v), 0).UTC()
			}
		case string:
			s := strings.TrimSpace(v)
			if s == "" {
				continue
			}
			if secs, err := strconv.ParseInt(s, 10, 64); err == nil && secs > 0 {
				return time.Unix(secs, 0).UTC()
			}
			for _, layout := range []string{
				time.RFC3339,
				"2006-01-02T15:04:05-0700", // Facebook
				"2006-01-02 15:04:05",
				"2006-01-02",
			} {
				if t, err := time.Parse(layout, s); err == nil {
					return t.UTC()
				}
			}
		}
	}
	return time.Time{}
}

// StrList accepts []any of either strings or objects carrying url/src/name.
func StrList(m map[string]any, paths ...string) []string {
	for _, k := range paths {
		if raw, ok := Lookup(m, k).([]any); ok {
			out := make([]string, 0, len(raw))
			for _, it := range raw {
				switch t := it.(type) {
				case string:
					if t != "" {
						out = append(out, t)
					}
				case map[string]any:
					for _, key := range []string{"url", "src", "name"} {
						if s, ok := t[key].(string); ok && s != "" {
							out = append(out, s)
							break
						}
					}
				}
			}
			if len(out) > 0 {
				return out
			}
		}
	}
	return nil
}

// Maps returns the []map[string]any at path, tolerating []any payloads.
func Maps(m map[string]any, path string) []map[string]any {
	raw, ok := Lookup(m, path).([]any)
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(raw))
	for _, it := range raw {
		if obj, ok := it.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}
