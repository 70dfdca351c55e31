// Package database handles PostgreSQL connections and queries.
//
// Go Pattern: We use the `sqlx` package which extends Go's standard
// `database/sql` with convenient features like scanning rows into
// structs. No ORM — the SQL is written out, which keeps the ranking
// signals (ts_rank, similarity, containment) visible in one place.
//
// database/sql has built-in connection pooling: one *sqlx.DB is created
// at startup and shared across the application, safe for concurrent use.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver — the underscore import runs its init()

	"github.com/tubescribe/tubescribe-api/internal/models"
)

// DB wraps the sqlx database connection with our application-specific
// methods. Embedding (*sqlx.DB) gives us all of sqlx's methods plus our
// own — composition, Go's version of inheritance.
type DB struct {
	*sqlx.DB
}

// New creates a new database connection with connection pooling configured.
func New(databaseURL string) (*DB, error) {
	// sqlx.Connect both opens the connection and pings the database
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(2 * time.Minute)
	db.SetConnMaxIdleTime(30 * time.Second)

	return &DB{db}, nil
}

// HealthCheck verifies the database connection is alive.
func (db *DB) HealthCheck(ctx context.Context) error {
	return db.PingContext(ctx)
}

// --- Channel Operations ---

// UpsertChannel creates a channel or updates an existing one by its
// external channel id, returning the stored row.
func (db *DB) UpsertChannel(ctx context.Context, ch *models.Channel) error {
	query := `
		INSERT INTO channels (channel_id, channel_name, channel_url, description, last_checked)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (channel_id) DO UPDATE
		SET channel_name = EXCLUDED.channel_name,
			channel_url = EXCLUDED.channel_url,
			description = EXCLUDED.description,
			last_checked = NOW(),
			updated_at = NOW()
		RETURNING id, last_checked, created_at, updated_at`

	return db.QueryRowContext(ctx, query,
		ch.ChannelID, ch.ChannelName, ch.ChannelURL, ch.Description,
	).Scan(&ch.ID, &ch.LastChecked, &ch.CreatedAt, &ch.UpdatedAt)
}

// GetChannel retrieves a channel by its external channel id.
func (db *DB) GetChannel(ctx context.Context, channelID string) (*models.Channel, error) {
	var ch models.Channel
	err := db.GetContext(ctx, &ch, `SELECT * FROM channels WHERE channel_id = $1`, channelID)
	if err != nil {
		return nil, fmt.Errorf("channel not found: %w", err)
	}
	return &ch, nil
}

// ListChannels returns all channels with their video and transcript counts.
func (db *DB) ListChannels(ctx context.Context) ([]models.ChannelSummary, error) {
	var channels []models.ChannelSummary
	err := db.SelectContext(ctx, &channels, `
		SELECT c.*,
			COUNT(DISTINCT v.id) AS video_count,
			COUNT(DISTINCT t.id) AS transcript_count
		FROM channels c
		LEFT JOIN videos v ON v.channel_id = c.id
		LEFT JOIN transcripts t ON t.video_id = v.id
		GROUP BY c.id
		ORDER BY c.channel_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}
	return channels, nil
}

// ListChannelVideos returns a channel's videos with transcript presence
// and any accumulated fetch errors.
func (db *DB) ListChannelVideos(ctx context.Context, channelRowID int64) ([]models.VideoSummary, error) {
	type row struct {
		models.Video
		HasTranscript bool `db:"has_transcript"`
	}
	var rows []row
	err := db.SelectContext(ctx, &rows, `
		SELECT v.*, (t.id IS NOT NULL) AS has_transcript
		FROM videos v
		LEFT JOIN transcripts t ON t.video_id = v.id
		WHERE v.channel_id = $1
		ORDER BY v.published_at DESC`, channelRowID)
	if err != nil {
		return nil, fmt.Errorf("failed to list videos: %w", err)
	}

	var errRows []models.TranscriptError
	err = db.SelectContext(ctx, &errRows, `
		SELECT e.* FROM transcript_errors e
		JOIN videos v ON v.id = e.video_id
		WHERE v.channel_id = $1
		ORDER BY e.created_at`, channelRowID)
	if err != nil {
		return nil, fmt.Errorf("failed to list transcript errors: %w", err)
	}
	errsByVideo := make(map[int64][]models.TranscriptError)
	for _, e := range errRows {
		errsByVideo[e.VideoRowID] = append(errsByVideo[e.VideoRowID], e)
	}

	videos := make([]models.VideoSummary, 0, len(rows))
	for _, r := range rows {
		errs := errsByVideo[r.Video.ID]
		if errs == nil {
			errs = []models.TranscriptError{}
		}
		videos = append(videos, models.VideoSummary{
			VideoID:       r.Video.VideoID,
			Title:         r.Video.Title,
			PublishedAt:   r.Video.PublishedAt,
			ThumbnailURL:  r.Video.ThumbnailURL,
			HasTranscript: r.HasTranscript,
			Errors:        errs,
		})
	}
	return videos, nil
}

// --- Video Operations ---

// UpsertVideo creates a video or refreshes its metadata by external video
// id. Re-ingesting an existing video never touches its transcript.
func (db *DB) UpsertVideo(ctx context.Context, v *models.Video) error {
	query := `
		INSERT INTO videos (channel_id, video_id, title, description, published_at, thumbnail_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (video_id) DO UPDATE
		SET title = EXCLUDED.title,
			description = EXCLUDED.description,
			published_at = EXCLUDED.published_at,
			thumbnail_url = EXCLUDED.thumbnail_url
		RETURNING id, created_at`

	return db.QueryRowContext(ctx, query,
		v.ChannelRowID, v.VideoID, v.Title, v.Description, v.PublishedAt, v.ThumbnailURL,
	).Scan(&v.ID, &v.CreatedAt)
}

// GetVideoByVideoID retrieves a video by its external id.
func (db *DB) GetVideoByVideoID(ctx context.Context, videoID string) (*models.Video, error) {
	var v models.Video
	err := db.GetContext(ctx, &v, `SELECT * FROM videos WHERE video_id = $1`, videoID)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// --- Transcript Operations ---

// CreateTranscript inserts a transcript unless the video already has one.
// Transcripts are never updated in place — a retry only fills the gap.
// Returns true when a row was inserted.
func (db *DB) CreateTranscript(ctx context.Context, t *models.Transcript) (bool, error) {
	query := `
		INSERT INTO transcripts (video_id, text, segments, language_code, is_generated)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (video_id) DO NOTHING
		RETURNING id, created_at`

	err := db.QueryRowContext(ctx, query,
		t.VideoRowID, t.Text, t.Segments, t.LanguageCode, t.IsGenerated,
	).Scan(&t.ID, &t.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		// Conflict: the video already has a transcript.
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to create transcript: %w", err)
	}
	return true, nil
}

// TranscriptForVideo returns the transcript for an external video id, or
// nil without error when the video has none (or does not exist).
func (db *DB) TranscriptForVideo(ctx context.Context, videoID string) (*models.Transcript, error) {
	var t models.Transcript
	err := db.GetContext(ctx, &t, `
		SELECT t.* FROM transcripts t
		JOIN videos v ON v.id = t.video_id
		WHERE v.video_id = $1`, videoID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load transcript: %w", err)
	}
	return &t, nil
}

// TranscriptsForVideos is the batch form of TranscriptForVideo. External
// ids without a transcript are absent from the result map.
func (db *DB) TranscriptsForVideos(ctx context.Context, videoIDs []string) (map[string]*models.Transcript, error) {
	if len(videoIDs) == 0 {
		return map[string]*models.Transcript{}, nil
	}

	type row struct {
		models.Transcript
		ExternalID string `db:"external_id"`
	}
	query, args, err := sqlx.In(`
		SELECT t.*, v.video_id AS external_id
		FROM transcripts t
		JOIN videos v ON v.id = t.video_id
		WHERE v.video_id IN (?)`, videoIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to build transcript query: %w", err)
	}

	var rows []row
	if err := db.SelectContext(ctx, &rows, db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to load transcripts: %w", err)
	}

	out := make(map[string]*models.Transcript, len(rows))
	for i := range rows {
		t := rows[i].Transcript
		out[rows[i].ExternalID] = &t
	}
	return out, nil
}

// --- Transcript Error Operations ---

// RecordTranscriptError appends a failed fetch attempt for a video.
func (db *DB) RecordTranscriptError(ctx context.Context, e *models.TranscriptError) error {
	query := `
		INSERT INTO transcript_errors (video_id, error_type, error_message)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`

	if err := db.QueryRowContext(ctx, query,
		e.VideoRowID, e.ErrorType, e.ErrorMessage,
	).Scan(&e.ID, &e.CreatedAt); err != nil {
		return fmt.Errorf("failed to record transcript error: %w", err)
	}
	return nil
}

// ClearTranscriptErrors removes a video's accumulated fetch errors, called
// once a transcript is finally stored.
func (db *DB) ClearTranscriptErrors(ctx context.Context, videoRowID int64) error {
	_, err := db.ExecContext(ctx, `DELETE FROM transcript_errors WHERE video_id = $1`, videoRowID)
	if err != nil {
		return fmt.Errorf("failed to clear transcript errors: %w", err)
	}
	return nil
}

// ListRetryCandidates returns a channel's videos that still lack a
// transcript but have at least one fetch error of the given types
// recorded. The upstream fetcher polls this to decide what to retry.
func (db *DB) ListRetryCandidates(ctx context.Context, channelRowID int64, errorTypes []string, limit int) ([]models.Video, error) {
	if limit < 1 || limit > 500 {
		limit = 100
	}
	if len(errorTypes) == 0 {
		return []models.Video{}, nil
	}

	query, args, err := sqlx.In(`
		SELECT v.* FROM videos v
		LEFT JOIN transcripts t ON t.video_id = v.id
		WHERE v.channel_id = ?
			AND t.id IS NULL
			AND v.id IN (
				SELECT DISTINCT video_id FROM transcript_errors WHERE error_type IN (?)
			)
		ORDER BY v.published_at DESC
		LIMIT ?`, channelRowID, errorTypes, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to build retry query: %w", err)
	}

	var videos []models.Video
	if err := db.SelectContext(ctx, &videos, db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list retry candidates: %w", err)
	}
	return videos, nil
}

// --- Stats ---

// GetStats returns overall corpus statistics.
func (db *DB) GetStats(ctx context.Context) (*models.Stats, error) {
	stats := &models.Stats{ErrorsByType: map[string]int{}}

	err := db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM channels),
			(SELECT COUNT(*) FROM videos),
			(SELECT COUNT(*) FROM transcripts),
			(SELECT COUNT(*) FROM transcript_errors)`,
	).Scan(&stats.Channels, &stats.Videos, &stats.Transcripts, &stats.Errors)
	if err != nil {
		return nil, fmt.Errorf("failed to count entities: %w", err)
	}

	if stats.Videos > 0 {
		stats.Coverage = fmt.Sprintf("%.1f%%", float64(stats.Transcripts)/float64(stats.Videos)*100)
	} else {
		stats.Coverage = "0%"
	}

	rows, err := db.QueryContext(ctx, `
		SELECT error_type, COUNT(*) FROM transcript_errors GROUP BY error_type`)
	if err != nil {
		return nil, fmt.Errorf("failed to group errors: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var errorType string
		var count int
		if err := rows.Scan(&errorType, &count); err != nil {
			return nil, fmt.Errorf("failed to scan error counts: %w", err)
		}
		stats.ErrorsByType[errorType] = count
	}
	return stats, rows.Err()
}
