package mysql

const getPlatformSQL = `
SELECT id, name FROM platforms WHERE name = ?
`

const getConnectionByKeySQL = `
SELECT id, location_id, platform_id, platform_location_id, platform_url, access_token, is_active, last_sync_at
FROM platform_connections
WHERE location_id = ? AND platform_id = ?
`

const getConnectionSQL = `
SELECT id, location_id, platform_id, platform_location_id, platform_url, access_token, is_active, last_sync_at
FROM platform_connections
WHERE id = ?
`

const listActiveConnectionsSQL = `
SELECT c.id, c.location_id, c.platform_id, c.platform_location_id, c.platform_url,
       c.access_token, c.is_active, c.last_sync_at, p.name
FROM platform_connections c
JOIN platforms p ON p.id = c.platform_id
WHERE c.is_active = 1
ORDER BY c.id
`

// Unique key on (location_id, platform_id) backs get-or-create: a losing
// concurrent insert hits ER_DUP_ENTRY and re-reads the winner's row.
const insertConnectionSQL = `
INSERT INTO platform_connections
  (location_id, platform_id, platform_location_id, platform_url, access_token, is_active)
VALUES (?, ?, ?, ?, ?, 1)
`

const touchConnectionSQL = `
UPDATE platform_connections SET last_sync_at = ? WHERE id = ?
`

// Natural key (platform_connection_id, external_id) makes re-ingest an
// update. With the driver's default protocol the result reports 1 affected
// row for an insert and 2 for an update — that signal drives the
// new-vs-updated split in SaveReviews.
const upsertReviewSQL = `
INSERT INTO reviews
  (platform_connection_id, external_id, author_name, author_avatar, rating, content, title,
   published_at, reply_content, reply_at, raw)
VALUES (?, ?, ?, ?, ?, ?, ?, COALESCE(?, CURRENT_TIMESTAMP), ?, ?, ?)
ON DUPLICATE KEY UPDATE
  author_name   = VALUES(author_name),
  author_avatar = COALESCE(VALUES(author_avatar), reviews.author_avatar),
  rating        = VALUES(rating),
  content       = VALUES(content),
  title         = COALESCE(VALUES(title), reviews.title),
  published_at  = COALESCE(VALUES(published_at), reviews.published_at),
  reply_content = COALESCE(VALUES(reply_content), reviews.reply_content),
  reply_at      = COALESCE(VALUES(reply_at), reviews.reply_at),
  raw           = COALESCE(VALUES(raw), reviews.raw),
  updated_at    = CURRENT_TIMESTAMP
`

const insertSyncLogSQL = `
INSERT INTO sync_logs
  (platform_connection_id, reviews_fetched, reviews_new, reviews_updated,
   error_message, status, started_at, completed_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`

const listReviewsSQL = `
SELECT id, platform_connection_id, external_id, author_name, author_avatar, rating, content,
       title, published_at, reply_content, reply_at, raw, created_at, updated_at
FROM reviews
WHERE platform_connection_id = ?
ORDER BY published_at DESC, id DESC
LIMIT ?
`

const listSyncLogsSQL = `
SELECT id, platform_connection_id, reviews_fetched, reviews_new, reviews_updated,
       error_message, status, started_at, completed_at
FROM sync_logs
WHERE platform_connection_id = ?
ORDER BY started_at DESC, id DESC
LIMIT ?
`
