package database

import (
	"database/sql"
	"fmt"
	"time"
)

// MediaRepository handles database operations for media
type MediaRepository struct {
	db *DB
}

// NewMediaRepository creates a new media repository
func NewMediaRepository(db *DB) *MediaRepository {
	return &MediaRepository{db: db}
}

// ListMedia returns every medium in the store, newest first.
func (r *MediaRepository) ListMedia() ([]*Medium, error) {
	rows, err := r.db.Query(mediumSelect + ` ORDER BY date DESC, link`)
	if err != nil {
		return nil, fmt.Errorf("failed to list media: %w", err)
	}
	defer rows.Close()
	return scanMedia(rows)
}

// ListMediaByChannel returns a channel's media, newest first.
func (r *MediaRepository) ListMediaByChannel(channelID int64) ([]*Medium, error) {
	rows, err := r.db.Query(mediumSelect+` WHERE channel_id = ? ORDER BY date DESC, link`, channelID)
	if err != nil {
		return nil, fmt.Errorf("failed to list channel media: %w", err)
	}
	defer rows.Close()
	return scanMedia(rows)
}

// UpsertNewMedia merges a batch of freshly discovered items and advances the
// channel watermark, atomically. Within the batch the first occurrence of a
// (channel, link) key wins; items whose key already exists in the store are
// skipped and counted. Returns the inserted media and the skipped count.
func (r *MediaRepository) UpsertNewMedia(channelID int64, items []Medium, watermark int64) ([]*Medium, int, error) {
	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	inserted, skipped, err := insertNewMedia(tx, channelID, items, now)
	if err != nil {
		return nil, 0, err
	}

	if _, err := tx.Exec(`
		UPDATE channels SET last_update = MAX(last_update, ?), updated_at = ? WHERE id = ?
	`, watermark, now, channelID); err != nil {
		return nil, 0, fmt.Errorf("failed to advance watermark: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, 0, fmt.Errorf("failed to commit media upsert: %w", err)
	}

	return inserted, skipped, nil
}

// insertNewMedia inserts the batch inside an open transaction, skipping
// in-batch duplicates (first wins) and rows whose key already exists.
func insertNewMedia(tx *sql.Tx, channelID int64, items []Medium, now time.Time) ([]*Medium, int, error) {
	if len(items) == 0 {
		return nil, 0, nil
	}

	stmt, err := tx.Prepare(`
		INSERT INTO media (channel_id, link, title, date, duration, location, state, filename, tags, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (channel_id, link) DO NOTHING
	`)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to prepare media insert: %w", err)
	}
	defer stmt.Close()

	var inserted []*Medium
	skipped := 0
	seen := make(map[string]bool, len(items))

	for i := range items {
		m := items[i]
		if seen[m.Link] {
			skipped++
			continue
		}
		seen[m.Link] = true

		if m.Location == "" {
			m.Location = LocationRemote
		}
		if m.State == "" {
			m.State = StateUnread
		}

		res, err := stmt.Exec(channelID, m.Link, m.Title, m.Date, m.Duration,
			m.Location, m.State, m.Filename, encodeList(m.Tags), m.Description, now)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to insert medium %q: %w", m.Link, err)
		}

		n, err := res.RowsAffected()
		if err != nil {
			return nil, 0, fmt.Errorf("failed to read rows affected: %w", err)
		}
		if n == 0 {
			skipped++
			continue
		}

		m.ChannelID = channelID
		m.CreatedAt = now
		inserted = append(inserted, &m)
	}

	return inserted, skipped, nil
}

// UpdateMedium writes all mutable medium fields back to the store. The
// (channel, link) key must match exactly one row; anything else means the
// caller holds a stale reference and gets ErrNotFound.
func (r *MediaRepository) UpdateMedium(m *Medium) error {
	r.db.Lock()
	defer r.db.Unlock()

	res, err := r.db.Exec(`
		UPDATE media
		SET title = ?, date = ?, duration = ?, location = ?, state = ?,
		    filename = ?, tags = ?, description = ?
		WHERE channel_id = ? AND link = ?
	`, m.Title, m.Date, m.Duration, m.Location, m.State,
		m.Filename, encodeList(m.Tags), m.Description, m.ChannelID, m.Link)
	if err != nil {
		return fmt.Errorf("failed to update medium: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("medium (%d, %s): %w", m.ChannelID, m.Link, ErrNotFound)
	}
	return nil
}

const mediumSelect = `
	SELECT channel_id, link, title, date, duration, location, state, filename, tags, description, created_at
	FROM media`

func scanMedia(rows *sql.Rows) ([]*Medium, error) {
	var media []*Medium
	for rows.Next() {
		var m Medium
		var tags string
		err := rows.Scan(&m.ChannelID, &m.Link, &m.Title, &m.Date, &m.Duration,
			&m.Location, &m.State, &m.Filename, &tags, &m.Description, &m.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan medium row: %w", err)
		}
		m.Tags = decodeList(tags)
		media = append(media, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate medium rows: %w", err)
	}
	return media, nil
}
