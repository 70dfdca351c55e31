// Package models defines the data structures used throughout the application.
//
// Go Pattern: Models are plain structs with JSON tags for serialization.
// There is no ORM here — the database package writes the SQL, and the `db`
// tags tell sqlx how to scan rows into these structs.
package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Channel is an indexed YouTube channel. Rows are created and updated by
// ingestion; the search core only reads them.
type Channel struct {
	ID          int64      `json:"-" db:"id"`
	ChannelID   string     `json:"channel_id" db:"channel_id"` // YouTube channel ID (UC...)
	ChannelName string     `json:"channel_name" db:"channel_name"`
	ChannelURL  string     `json:"channel_url" db:"channel_url"`
	Description *string    `json:"description,omitempty" db:"description"`
	LastChecked *time.Time `json:"last_checked,omitempty" db:"last_checked"` // Pointer = nullable
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// Video is one uploaded item on a channel. The external video_id is
// globally unique — re-ingesting the same video updates the existing row.
type Video struct {
	ID           int64     `json:"-" db:"id"`
	ChannelRowID int64     `json:"-" db:"channel_id"`
	VideoID      string    `json:"video_id" db:"video_id"` // YouTube video ID (11 chars)
	Title        string    `json:"title" db:"title"`
	Description  *string   `json:"description,omitempty" db:"description"`
	PublishedAt  time.Time `json:"published_at" db:"published_at"`
	ThumbnailURL string    `json:"thumbnail_url" db:"thumbnail_url"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// Segment is one timestamped fragment of a transcript.
type Segment struct {
	Start float64 `json:"start"` // playback offset in seconds
	Text  string  `json:"text"`
}

// Segments is an ordered list of transcript segments, stored as JSONB.
// It implements sql.Scanner and driver.Valuer so sqlx can read and write
// the column directly.
type Segments []Segment

// Scan implements sql.Scanner for the JSONB segments column.
func (s *Segments) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	case nil:
		*s = nil
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Segments", src)
	}
}

// Value implements driver.Valuer for the JSONB segments column.
func (s Segments) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Transcript holds the full transcript of one video. Text is the segment
// texts joined by single spaces, in order — the snippet locator depends on
// that exact construction to map character offsets back to segments.
type Transcript struct {
	ID           int64     `json:"-" db:"id"`
	VideoRowID   int64     `json:"-" db:"video_id"`
	Text         string    `json:"text" db:"text"`
	Segments     Segments  `json:"segments" db:"segments"`
	LanguageCode string    `json:"language_code" db:"language_code"`
	IsGenerated  bool      `json:"is_generated" db:"is_generated"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// TranscriptError records one failed transcript fetch attempt. Several can
// accumulate per video across retries; ingestion clears them once a
// transcript is finally stored.
type TranscriptError struct {
	ID           int64     `json:"-" db:"id"`
	VideoRowID   int64     `json:"-" db:"video_id"`
	ErrorType    string    `json:"error_type" db:"error_type"`
	ErrorMessage string    `json:"error_message" db:"error_message"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// MatchField identifies which scored field of a video a match came from.
// Go Pattern: string constants instead of enums — a type alias plus named
// constants is the conventional substitute.
type MatchField string

const (
	FieldTranscript  MatchField = "transcript"
	FieldTitle       MatchField = "title"
	FieldDescription MatchField = "description"
)

// --- Search store row types ---
// These are the raw rows the field-search queries return. Rank weighting
// happens in the search package, not in SQL, so the store only reports the
// relevance signals per row.

// TranscriptHit is one transcript-field row: video display metadata plus
// the transcript body and segments needed for snippet extraction.
type TranscriptHit struct {
	VideoID      string    `db:"video_id"`
	Title        string    `db:"title"`
	ChannelName  string    `db:"channel_name"`
	ThumbnailURL string    `db:"thumbnail_url"`
	PublishedAt  time.Time `db:"published_at"`
	Text         string    `db:"text"`
	Segments     Segments  `db:"segments"`
	TSRank       float64   `db:"ts_rank"`
	Similarity   float64   `db:"similarity"`
	HasPhrase    bool      `db:"has_phrase"`
}

// FieldHit is one title- or description-field row. FieldText is the text
// of the matched field (the title itself, or the description body). The
// phrase bonus applies only to transcripts, so these rows carry just the
// two continuous signals.
type FieldHit struct {
	VideoID      string    `db:"video_id"`
	Title        string    `db:"title"`
	ChannelName  string    `db:"channel_name"`
	ThumbnailURL string    `db:"thumbnail_url"`
	PublishedAt  time.Time `db:"published_at"`
	FieldText    string    `db:"field_text"`
	TSRank       float64   `db:"ts_rank"`
	Similarity   float64   `db:"similarity"`
}

// --- Read API DTOs ---
// Go Pattern: separate structs for API output vs database models keeps the
// API contract independent of the schema.

// ChannelSummary is one row of GET /api/v1/channels.
type ChannelSummary struct {
	Channel
	VideoCount      int `json:"video_count" db:"video_count"`
	TranscriptCount int `json:"transcript_count" db:"transcript_count"`
}

// VideoSummary is one video in a channel detail response.
type VideoSummary struct {
	VideoID       string            `json:"video_id"`
	Title         string            `json:"title"`
	PublishedAt   time.Time         `json:"published_at"`
	ThumbnailURL  string            `json:"thumbnail_url"`
	HasTranscript bool              `json:"has_transcript"`
	Errors        []TranscriptError `json:"errors"`
}

// ChannelDetail is the response for GET /api/v1/channels/:channelID.
type ChannelDetail struct {
	Channel
	Videos []VideoSummary `json:"videos"`
}

// Stats is the response for GET /api/v1/stats.
type Stats struct {
	Channels     int            `json:"channels"`
	Videos       int            `json:"videos"`
	Transcripts  int            `json:"transcripts"`
	Coverage     string         `json:"coverage"` // transcripts / videos, e.g. "87.5%"
	Errors       int            `json:"errors"`
	ErrorsByType map[string]int `json:"errors_by_type"`
}

// --- Ingest DTOs ---

// IngestChannelRequest is the JSON body for POST /api/v1/ingest/channels.
type IngestChannelRequest struct {
	ChannelID   string  `json:"channel_id" binding:"required"`
	ChannelName string  `json:"channel_name" binding:"required"`
	ChannelURL  string  `json:"channel_url" binding:"required"`
	Description *string `json:"description,omitempty"`
}

// IngestVideoPayload is one pushed video: metadata plus either transcript
// segments or a fetch-error record.
type IngestVideoPayload struct {
	ChannelID    string    `json:"channel_id" binding:"required"`
	VideoID      string    `json:"video_id" binding:"required"`
	Title        string    `json:"title" binding:"required"`
	Description  *string   `json:"description,omitempty"`
	PublishedAt  time.Time `json:"published_at" binding:"required"`
	ThumbnailURL string    `json:"thumbnail_url"`

	Segments     Segments `json:"segments,omitempty"`
	LanguageCode string   `json:"language_code,omitempty"`
	IsGenerated  bool     `json:"is_generated,omitempty"`

	FetchError *IngestFetchError `json:"fetch_error,omitempty"`
}

// IngestFetchError reports that the upstream fetcher could not obtain a
// transcript for the video.
type IngestFetchError struct {
	ErrorType    string `json:"error_type" binding:"required"`
	ErrorMessage string `json:"error_message"`
}

// IngestVideosRequest is the JSON body for POST /api/v1/ingest/videos.
type IngestVideosRequest struct {
	Videos []IngestVideoPayload `json:"videos" binding:"required,min=1,max=500"`
}

// ErrorResponse is a standard error format for all API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// HealthResponse is returned by the health check endpoint.
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Database string `json:"database"`
	Workers  int    `json:"workers"`
}
