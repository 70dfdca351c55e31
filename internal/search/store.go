// store.go defines the text-index store contract the search core reads
// from.
//
// Go Pattern: Define interfaces where they are USED, not where they are
// implemented. The database package satisfies this interface implicitly;
// tests substitute an in-memory fake. The store handle is an explicit
// injected dependency — the core carries no process-wide connection state.
package search

import (
	"context"

	"github.com/tubescribe/tubescribe-api/internal/models"
)

// FieldSearch is one field-level query against the text-index store.
type FieldSearch struct {
	// TSQuery is the normalized query in tsquery syntax.
	TSQuery string

	// Raw is the original query string, used for substring containment
	// and trigram similarity.
	Raw string

	// MinSimilarity is the trigram-similarity threshold in [0,1]; field
	// text scoring above it matches even without an index hit.
	MinSimilarity float64

	// Limit caps the number of raw rows returned.
	Limit int

	// ChannelID restricts the search to one channel's videos when
	// non-empty.
	ChannelID string
}

// Store is the queryable text-index the search core consumes. Each method
// is a snapshot read; an empty result set is a valid, non-error outcome,
// and store-level failures propagate to the caller unretried.
type Store interface {
	// SearchTranscripts returns transcript-field rows matching the
	// three-way predicate (index hit, similarity above threshold, or
	// substring containment), one row per transcript.
	SearchTranscripts(ctx context.Context, q FieldSearch) ([]models.TranscriptHit, error)

	// SearchTitles returns title-field rows, at most one per video.
	SearchTitles(ctx context.Context, q FieldSearch) ([]models.FieldHit, error)

	// SearchDescriptions returns description-field rows, at most one per
	// video; videos with a null description are never candidates.
	SearchDescriptions(ctx context.Context, q FieldSearch) ([]models.FieldHit, error)

	// CountMatchingVideos reports how many distinct videos match the
	// query on any field, used for channel-scoped pagination totals.
	CountMatchingVideos(ctx context.Context, q FieldSearch) (int, error)

	// TranscriptForVideo returns the transcript for an external video id,
	// or nil (without error) when the video has none.
	TranscriptForVideo(ctx context.Context, videoID string) (*models.Transcript, error)

	// TranscriptsForVideos is the batch form of TranscriptForVideo; ids
	// without a transcript are absent from the result map.
	TranscriptsForVideos(ctx context.Context, videoIDs []string) (map[string]*models.Transcript, error)
}
