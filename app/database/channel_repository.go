package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ChannelRepository handles database operations for channels
type ChannelRepository struct {
	db *DB
}

// NewChannelRepository creates a new channel repository
func NewChannelRepository(db *DB) *ChannelRepository {
	return &ChannelRepository{db: db}
}

// CreateChannelWithMedia inserts a channel together with its initial media
// batch in a single transaction and sets the watermark. On success the
// channel's ID, LastUpdate and timestamps are filled in and the inserted
// media are returned.
func (r *ChannelRepository) CreateChannelWithMedia(ch *Channel, items []Medium, watermark int64) ([]*Medium, error) {
	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	res, err := tx.Exec(`
		INSERT INTO channels (url, title, type, categories, auto, mask, disabled, last_update, addcount, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, ch.URL, ch.Title, ch.Type, encodeList(ch.Categories), ch.Auto, ch.Mask,
		ch.Disabled, watermark, ch.AddCount, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert channel: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read channel id: %w", err)
	}

	inserted, _, err := insertNewMedia(tx, id, items, now)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit channel creation: %w", err)
	}

	ch.ID = id
	ch.LastUpdate = watermark
	ch.CreatedAt = now
	ch.UpdatedAt = now
	return inserted, nil
}

// GetChannel returns a channel by id, or ErrNotFound.
func (r *ChannelRepository) GetChannel(id int64) (*Channel, error) {
	row := r.db.QueryRow(channelSelect+` WHERE id = ?`, id)
	ch, err := scanChannel(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get channel: %w", err)
	}
	return ch, nil
}

// GetChannelsByURL returns every channel row referencing the given URL.
// The URL is a lookup key, not unique.
func (r *ChannelRepository) GetChannelsByURL(url string) ([]*Channel, error) {
	rows, err := r.db.Query(channelSelect+` WHERE url = ? ORDER BY id`, url)
	if err != nil {
		return nil, fmt.Errorf("failed to query channels by url: %w", err)
	}
	defer rows.Close()
	return scanChannels(rows)
}

// ListChannels returns all channels ordered by creation, newest first.
func (r *ChannelRepository) ListChannels() ([]*Channel, error) {
	rows, err := r.db.Query(channelSelect + ` ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}
	defer rows.Close()
	return scanChannels(rows)
}

// UpdateChannel writes all mutable channel fields back to the store.
// The watermark never moves backwards.
func (r *ChannelRepository) UpdateChannel(ch *Channel) error {
	r.db.Lock()
	defer r.db.Unlock()

	res, err := r.db.Exec(`
		UPDATE channels
		SET url = ?, title = ?, type = ?, categories = ?, auto = ?, mask = ?,
		    disabled = ?, last_update = MAX(last_update, ?), addcount = ?, updated_at = ?
		WHERE id = ?
	`, ch.URL, ch.Title, ch.Type, encodeList(ch.Categories), ch.Auto, ch.Mask,
		ch.Disabled, ch.LastUpdate, ch.AddCount, time.Now().UTC(), ch.ID)
	if err != nil {
		return fmt.Errorf("failed to update channel: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("channel %d: %w", ch.ID, ErrNotFound)
	}
	return nil
}

// RemoveChannels deletes the given channels; their media cascade with them.
func (r *ChannelRepository) RemoveChannels(ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	if _, err := tx.Exec(`DELETE FROM media WHERE channel_id IN (`+placeholders+`)`, args...); err != nil {
		return fmt.Errorf("failed to remove media: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM channels WHERE id IN (`+placeholders+`)`, args...); err != nil {
		return fmt.Errorf("failed to remove channels: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit channel removal: %w", err)
	}
	return nil
}

const channelSelect = `
	SELECT id, url, title, type, categories, auto, mask, disabled, last_update, addcount, created_at, updated_at
	FROM channels`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChannel(row rowScanner) (*Channel, error) {
	var ch Channel
	var categories string
	err := row.Scan(&ch.ID, &ch.URL, &ch.Title, &ch.Type, &categories, &ch.Auto,
		&ch.Mask, &ch.Disabled, &ch.LastUpdate, &ch.AddCount, &ch.CreatedAt, &ch.UpdatedAt)
	if err != nil {
		return nil, err
	}
	ch.Categories = decodeList(categories)
	return &ch, nil
}

func scanChannels(rows *sql.Rows) ([]*Channel, error) {
	var channels []*Channel
	for rows.Next() {
		ch, err := scanChannel(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan channel row: %w", err)
		}
		channels = append(channels, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate channel rows: %w", err)
	}
	return channels, nil
}

func encodeList(values []string) string {
	if len(values) == 0 {
		return "[]"
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func decodeList(data string) []string {
	if data == "" || data == "[]" {
		return nil
	}
	var values []string
	if err := json.Unmarshal([]byte(data), &values); err != nil {
		return nil
	}
	return values
}
