package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	driver "github.com/go-sql-driver/mysql"

	"reviewhub/internal/domain"
)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}
func valTime(p *time.Time) any {
	if p == nil {
		return nil
	}
	return *p
}
func valJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) GetPlatformByName(ctx context.Context, name string) (domain.Platform, error) {
	var p domain.Platform
	err := r.db.QueryRowContext(ctx, getPlatformSQL, name).Scan(&p.ID, &p.Name)
	if err == sql.ErrNoRows {
		// The platform catalog is maintained externally; lookups never create.
		return domain.Platform{}, fmt.Errorf("platform %q: %w", name, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Platform{}, err
	}
	return p, nil
}

// GetOrCreateConnection is idempotent on (location_id, platform_id). A lost
// race on first creation surfaces as a duplicate-key error and resolves by
// re-reading the winner's row.
func (r *Repo) GetOrCreateConnection(ctx context.Context, c domain.PlatformConnection) (domain.PlatformConnection, error) {
	existing, err := r.connectionByKey(ctx, c.LocationID, c.PlatformID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return domain.PlatformConnection{}, err
	}

	res, err := r.db.ExecContext(ctx, insertConnectionSQL,
		c.LocationID,
		c.PlatformID,
		c.PlatformLocationID,
		valStr(c.PlatformURL),
		valStr(c.AccessToken),
	)
	if err != nil {
		var me *driver.MySQLError
		if errors.As(err, &me) && me.Number == 1062 {
			return r.connectionByKey(ctx, c.LocationID, c.PlatformID)
		}
		return domain.PlatformConnection{}, err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return domain.PlatformConnection{}, err
	}
	c.ID = id
	c.IsActive = true
	return c, nil
}

func (r *Repo) connectionByKey(ctx context.Context, locationID, platformID int64) (domain.PlatformConnection, error) {
	return scanConnection(r.db.QueryRowContext(ctx, getConnectionByKeySQL, locationID, platformID))
}

func (r *Repo) GetConnection(ctx context.Context, id int64) (domain.PlatformConnection, error) {
	return scanConnection(r.db.QueryRowContext(ctx, getConnectionSQL, id))
}

type rowScanner interface{ Scan(dest ...any) error }

func scanConnection(row rowScanner) (domain.PlatformConnection, error) {
	var c domain.PlatformConnection
	var platformURL, accessToken sql.NullString
	var lastSync sql.NullTime
	err := row.Scan(
		&c.ID,
		&c.LocationID,
		&c.PlatformID,
		&c.PlatformLocationID,
		&platformURL,
		&accessToken,
		&c.IsActive,
		&lastSync,
	)
	if err == sql.ErrNoRows {
		return domain.PlatformConnection{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.PlatformConnection{}, err
	}
	if platformURL.Valid {
		s := platformURL.String
		c.PlatformURL = &s
	}
	if accessToken.Valid {
		s := accessToken.String
		c.AccessToken = &s
	}
	if lastSync.Valid {
		t := lastSync.Time
		c.LastSyncAt = &t
	}
	return c, nil
}

func (r *Repo) ListActiveConnections(ctx context.Context) ([]domain.SyncTarget, error) {
	rows, err := r.db.QueryContext(ctx, listActiveConnectionsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SyncTarget
	for rows.Next() {
		var t domain.SyncTarget
		var platformURL, accessToken sql.NullString
		var lastSync sql.NullTime
		if err := rows.Scan(
			&t.ID,
			&t.LocationID,
			&t.PlatformID,
			&t.PlatformLocationID,
			&platformURL,
			&accessToken,
			&t.IsActive,
			&lastSync,
			&t.PlatformName,
		); err != nil {
			return nil, err
		}
		if platformURL.Valid {
			s := platformURL.String
			t.PlatformURL = &s
		}
		if accessToken.Valid {
			s := accessToken.String
			t.AccessToken = &s
		}
		if lastSync.Valid {
			ts := lastSync.Time
			t.LastSyncAt = &ts
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// SaveReviews upserts each review on (platform_connection_id, external_id).
// Ingestion is best effort per item: a failing row is recorded in the stats'
// error message and the batch continues. Reviews with no content and no
// rating are skipped entirely.
func (r *Repo) SaveReviews(ctx context.Context, connectionID int64, reviews []domain.StandardReview) (domain.SyncStats, error) {
	stats := domain.SyncStats{
		ReviewsFetched: len(reviews),
		StartedAt:      time.Now().UTC(),
	}

	var errs []string
	for _, rv := range reviews {
		if rv.Empty() {
			continue
		}
		res, err := r.db.ExecContext(ctx, upsertReviewSQL,
			connectionID,
			rv.ExternalID,
			rv.AuthorName,
			valStr(rv.AuthorAvatar),
			rv.Rating,
			rv.Content,
			valStr(rv.Title),
			rv.PublishedAt,
			valStr(rv.ReplyContent),
			valTime(rv.ReplyAt),
			valJSON(rv.RawJSON),
		)
		if err != nil {
			errs = append(errs, fmt.Sprintf("review %s: %v", rv.ExternalID, err))
			continue
		}
		// 1 affected row = fresh insert; 2 = duplicate-key update.
		// 0 means the re-ingest changed nothing; count it as an update.
		if n, err := res.RowsAffected(); err == nil && n == 1 {
			stats.ReviewsNew++
		} else {
			stats.ReviewsUpdated++
		}
	}

	stats.CompletedAt = time.Now().UTC()
	stats.ErrorMessage = strings.Join(errs, "; ")
	return stats, nil
}

// CreateSyncLog writes one immutable audit row per ingestion run.
func (r *Repo) CreateSyncLog(ctx context.Context, connectionID int64, stats domain.SyncStats) error {
	var errMsg any
	if stats.ErrorMessage != "" {
		errMsg = stats.ErrorMessage
	}
	_, err := r.db.ExecContext(ctx, insertSyncLogSQL,
		connectionID,
		stats.ReviewsFetched,
		stats.ReviewsNew,
		stats.ReviewsUpdated,
		errMsg,
		stats.Status(),
		stats.StartedAt,
		stats.CompletedAt,
	)
	return err
}

func (r *Repo) TouchConnectionSync(ctx context.Context, connectionID int64, at time.Time) error {
	_, err := r.db.ExecContext(ctx, touchConnectionSQL, at, connectionID)
	return err
}

func (r *Repo) ListReviews(ctx context.Context, connectionID int64, pg domain.PageQuery) (domain.ReviewsPage, error) {
	rows, err := r.db.QueryContext(ctx, listReviewsSQL, connectionID, pg.Limit)
	if err != nil {
		return domain.ReviewsPage{}, err
	}
	defer rows.Close()

	var out []domain.Review
	for rows.Next() {
		var rv domain.Review
		var (
			avatar, title, reply sql.NullString
			replyAt              sql.NullTime
			rawB                 sql.RawBytes
		)
		if err := rows.Scan(
			&rv.ID,
			&rv.ConnectionID,
			&rv.ExternalID,
			&rv.AuthorName,
			&avatar,
			&rv.Rating,
			&rv.Content,
			&title,
			&rv.PublishedAt,
			&reply,
			&replyAt,
			&rawB,
			&rv.CreatedAt,
			&rv.UpdatedAt,
		); err != nil {
			return domain.ReviewsPage{}, err
		}
		if avatar.Valid {
			s := avatar.String
			rv.AuthorAvatar = &s
		}
		if title.Valid {
			s := title.String
			rv.Title = &s
		}
		if reply.Valid {
			s := reply.String
			rv.ReplyContent = &s
		}
		if replyAt.Valid {
			t := replyAt.Time
			rv.ReplyAt = &t
		}
		if len(rawB) > 0 {
			rv.RawJSON = append([]byte(nil), rawB...)
		}
		out = append(out, rv)
	}
	if err := rows.Err(); err != nil {
		return domain.ReviewsPage{}, err
	}
	return domain.ReviewsPage{Items: out}, nil
}

func (r *Repo) ListSyncLogs(ctx context.Context, connectionID int64, limit int) ([]domain.SyncLog, error) {
	rows, err := r.db.QueryContext(ctx, listSyncLogsSQL, connectionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SyncLog
	for rows.Next() {
		var sl domain.SyncLog
		var errMsg sql.NullString
		if err := rows.Scan(
			&sl.ID,
			&sl.ConnectionID,
			&sl.ReviewsFetched,
			&sl.ReviewsNew,
			&sl.ReviewsUpdated,
			&errMsg,
			&sl.Status,
			&sl.StartedAt,
			&sl.CompletedAt,
		); err != nil {
			return nil, err
		}
		if errMsg.Valid {
			s := errMsg.String
			sl.ErrorMessage = &s
		}
		out = append(out, sl)
	}
	return out, rows.Err()
}
