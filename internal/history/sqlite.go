package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200

	// timestampLayout is fixed width so loaded_at sorts lexically.
	timestampLayout = "2006-01-02T15:04:05.000000000Z"
)

// SQLiteRepository implements Repository using the track_history table.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite track history repository.
//
// Parameters:
//   - db: Open SQLite connection with migrations applied
//
// Returns:
//   - *SQLiteRepository: Repository instance ready for use
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// RecordTrackLoad inserts a track load.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - load: Load to persist; ID and LoadedAt are filled in when empty
//
// Returns:
//   - error: ErrInvalidTrackLoad on validation failure, otherwise the database error
func (r *SQLiteRepository) RecordTrackLoad(ctx context.Context, load *TrackLoad) error {
	if load == nil {
		return fmt.Errorf("%w: load is nil", ErrInvalidTrackLoad)
	}
	if err := load.Validate(); err != nil {
		return err
	}
	if load.ID == "" {
		load.ID = uuid.NewString()
	}
	if load.LoadedAt.IsZero() {
		load.LoadedAt = time.Now()
	}
	load.LoadedAt = load.LoadedAt.UTC()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO track_history
		 (id, deck, title, artist, track_uri, source, bpm, key_label, device_name, loaded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		load.ID,
		load.Deck,
		load.Title,
		load.Artist,
		load.TrackURI,
		load.Source,
		load.BPM,
		load.KeyLabel,
		load.DeviceName,
		load.LoadedAt.Format(timestampLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting track load: %w", err)
	}
	return nil
}

// List returns recent track loads ordered newest first.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - opts: Deck filter and limit (default 50, max 200)
//
// Returns:
//   - []TrackLoad: Loads ordered by loaded_at DESC (may be empty)
//   - error: nil on success, otherwise the underlying query error
func (r *SQLiteRepository) List(ctx context.Context, opts ListOptions) ([]TrackLoad, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	where := ""
	var args []any
	if opts.Deck != 0 {
		where = "WHERE deck = ?"
		args = append(args, opts.Deck)
	}
	args = append(args, limit)

	//nolint:gosec // where only ever holds a fixed placeholder clause
	query := fmt.Sprintf(
		`SELECT id, deck, title, artist, track_uri, source, bpm, key_label, device_name, loaded_at
		 FROM track_history
		 %s
		 ORDER BY loaded_at DESC
		 LIMIT ?`, where)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying track history: %w", err)
	}
	defer rows.Close()

	loads := make([]TrackLoad, 0, limit)
	for rows.Next() {
		var (
			load     TrackLoad
			loadedAt string
		)
		if err := rows.Scan(&load.ID, &load.Deck, &load.Title, &load.Artist, &load.TrackURI,
			&load.Source, &load.BPM, &load.KeyLabel, &load.DeviceName, &loadedAt); err != nil {
			return nil, fmt.Errorf("scanning track history: %w", err)
		}

		ts, err := parseTimestamp(loadedAt)
		if err != nil {
			return nil, err
		}
		load.LoadedAt = ts

		loads = append(loads, load)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating track history: %w", err)
	}

	return loads, nil
}

// Prune deletes loads older than the given duration.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - olderThan: Retention window (rows loaded before now-olderThan are deleted)
//
// Returns:
//   - int64: Number of rows deleted
//   - error: ErrInvalidRetention for non-positive durations, otherwise the database error
func (r *SQLiteRepository) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, ErrInvalidRetention
	}

	cutoff := time.Now().UTC().Add(-olderThan).Format(timestampLayout)
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM track_history WHERE loaded_at < ?",
		cutoff,
	)
	if err != nil {
		return 0, fmt.Errorf("deleting track history: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}
	return n, nil
}

// parseTimestamp parses a loaded_at value stored in SQLite.
func parseTimestamp(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("loaded_at is empty")
	}
	ts, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing loaded_at: %w", err)
	}
	return ts, nil
}
