package domain

import "time"

// Platform is a catalog row. The catalog is maintained externally;
// lookups never create entries.
type Platform struct {
	ID   int64
	Name string
}

// PlatformConnection binds a tenant location to a platform account/page.
// Created lazily on first successful connect; never deleted by this pipeline.
type PlatformConnection struct {
	ID                 int64
	LocationID         int64
	PlatformID         int64
	PlatformLocationID string // external page/place identifier
	PlatformURL        *string
	AccessToken        *string // page-scoped or long-lived token for unattended refresh
	IsActive           bool
	LastSyncAt         *time.Time
}

// SyncTarget is a connection joined with its platform name, as the batch
// syncer consumes it.
type SyncTarget struct {
	PlatformConnection
	PlatformName string
}

// SyncStats aggregates one ingestion run.
type SyncStats struct {
	ReviewsFetched int
	ReviewsNew     int
	ReviewsUpdated int
	ErrorMessage   string
	StartedAt      time.Time
	CompletedAt    time.Time
}

// Status derives the run outcome: failed iff any error was recorded.
func (s SyncStats) Status() string {
	if s.ErrorMessage != "" {
		return SyncFailed
	}
	return SyncSuccess
}

const (
	SyncSuccess = "success"
	SyncFailed  = "failed"
)

// SyncLog is one immutable audit row per ingestion run.
type SyncLog struct {
	ID             int64
	ConnectionID   int64
	ReviewsFetched int
	ReviewsNew     int
	ReviewsUpdated int
	ErrorMessage   *string
	Status         string
	StartedAt      time.Time
	CompletedAt    time.Time
}
