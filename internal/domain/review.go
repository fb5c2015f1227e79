package domain

import "time"

// StandardReview is the canonical shape every platform payload is mapped into.
// Providers emit it; the store persists it under a platform connection.
type StandardReview struct {
	ExternalID   string // platform-native id, or a synthesized stable hash
	AuthorName   string
	AuthorAvatar *string
	Rating       float64 // clamped to [0,5]
	Content      string
	Title        *string
	PublishedAt  time.Time
	ReplyContent *string
	ReplyAt      *time.Time
	RawJSON      []byte // full original payload, kept for audit/debug
}

// Empty reports whether the review carries nothing worth persisting.
// A review with no text and no rating is skipped, not recorded.
func (r StandardReview) Empty() bool {
	return r.Content == "" && r.Rating == 0
}

// Review is the persisted form of a StandardReview. The natural key is
// (ConnectionID, ExternalID): re-ingesting updates, never duplicates.
type Review struct {
	ID           int64
	ConnectionID int64
	StandardReview
	CreatedAt time.Time
	UpdatedAt time.Time
}
