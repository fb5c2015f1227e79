package domain

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// ClampRating normalizes a platform rating into [0, 5].
func ClampRating(r float64) float64 {
	if r < 0 {
		return 0
	}
	if r > 5 {
		return 5
	}
	return r
}

// TimeOrNow falls back to the current time when a publish timestamp is
// missing or unparseable. Bad timestamps never abort a record.
func TimeOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}

// SynthExternalID builds a deterministic id from stable fields for platforms
// that expose no native review id. Upsert dedup depends on this being stable
// across fetches of the same review.
func SynthExternalID(publishedAt time.Time, text string) string {
	sig := strings.Join([]string{
		fmt.Sprintf("%d", publishedAt.Unix()),
		strings.TrimSpace(text),
	}, "|")
	sum := sha1.Sum([]byte(sig))
	return hex.EncodeToString(sum[:])
}
