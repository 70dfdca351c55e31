// service.go wires the field searchers, aggregator, and ranker into the
// four search entry points the API layer calls.
package search

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/tubescribe/tubescribe-api/internal/models"
)

// DefaultMinSimilarity is the trigram threshold applied when the caller
// does not supply one.
const DefaultMinSimilarity = 0.3

const defaultLimit = 20

// Service is the search engine. It is stateless per call and safe for
// concurrent use.
type Service struct {
	store Store
}

// New creates a search service reading from the given store.
func New(store Store) *Service {
	return &Service{store: store}
}

// Params are the caller-facing knobs of a search.
type Params struct {
	Query         string
	Limit         int
	ExactMatch    bool
	MinSimilarity float64
}

// Match is one occurrence-level match retained on a VideoResult for
// detail views. Summary responses expose only the aggregate fields.
type Match struct {
	Field     models.MatchField `json:"field"`
	Snippet   string            `json:"snippet"`
	Timestamp *float64          `json:"timestamp,omitempty"`
	Rank      float64           `json:"rank"`
}

// VideoResult is one video aggregate: display metadata, per-field match
// counts, the representative snippet, and the rank the result list is
// sorted by.
type VideoResult struct {
	VideoID            string    `json:"video_id"`
	Title              string    `json:"title"`
	ChannelName        string    `json:"channel_name"`
	ThumbnailURL       string    `json:"thumbnail_url"`
	PublishedAt        time.Time `json:"published_at"`
	TranscriptMatches  int       `json:"transcript_matches"`
	TitleMatches       int       `json:"title_matches"`
	DescriptionMatches int       `json:"description_matches"`
	Snippet            string    `json:"snippet"`
	Timestamp          *float64  `json:"timestamp"`
	Rank               float64   `json:"rank"`
	Matches            []Match   `json:"-"`
}

// SnippetResult is one entry of a batch-snippet response.
type SnippetResult struct {
	Snippet   string   `json:"snippet"`
	Timestamp *float64 `json:"timestamp"`
}

// VideoMatch is one transcript occurrence in the in-video navigation
// mode: the playback timestamp plus the excerpt with the query
// highlighted inline.
type VideoMatch struct {
	Timestamp *float64 `json:"timestamp"`
	Text      string   `json:"text"`
}

// Search runs a whole-corpus search and returns at most limit video
// aggregates, ordered by rank descending.
func (s *Service) Search(ctx context.Context, p Params) ([]VideoResult, error) {
	limit := p.Limit
	if limit < 1 {
		limit = defaultLimit
	}

	// Each field searcher requests 2× the limit to leave headroom for
	// per-video deduplication during aggregation.
	matches, err := s.collect(ctx, "", p, limit*2)
	if err != nil {
		return nil, err
	}

	results := aggregate(matches)
	sortResults(results)
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// SearchChannel runs a channel-scoped search with (limit, offset)
// pagination and reports the total number of matching videos.
func (s *Service) SearchChannel(ctx context.Context, channelID string, p Params, offset int) ([]VideoResult, int, error) {
	limit := p.Limit
	if limit < 1 {
		limit = defaultLimit
	}
	if offset < 0 {
		offset = 0
	}

	// Headroom covers everything up to the end of the requested page so
	// consecutive pages slice one consistent ordering.
	matches, err := s.collect(ctx, channelID, p, (offset+limit)*2)
	if err != nil {
		return nil, 0, err
	}

	q := Normalize(p.Query, p.ExactMatch)
	total, err := s.store.CountMatchingVideos(ctx, FieldSearch{
		TSQuery:       q.TSQuery(),
		Raw:           p.Query,
		MinSimilarity: minSimilarity(p),
		ChannelID:     channelID,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count matches: %w", err)
	}

	results := aggregate(matches)
	sortResults(results)

	if offset >= len(results) {
		return []VideoResult{}, total, nil
	}
	results = results[offset:]
	if len(results) > limit {
		results = results[:limit]
	}
	return results, total, nil
}

// BatchSnippets returns at most one best snippet+timestamp per requested
// video id. Ids without a transcript are simply absent from the map.
func (s *Service) BatchSnippets(ctx context.Context, videoIDs []string, query string) (map[string]SnippetResult, error) {
	transcripts, err := s.store.TranscriptsForVideos(ctx, videoIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load transcripts: %w", err)
	}

	out := make(map[string]SnippetResult, len(transcripts))
	for videoID, t := range transcripts {
		located := locate(t.Text, t.Segments, query)
		// Occurrences come back in text order; the first one is the
		// earliest, which is the one the caller navigates to.
		out[videoID] = SnippetResult{
			Snippet:   located[0].Snippet,
			Timestamp: located[0].Timestamp,
		}
	}
	return out, nil
}

// VideoMatches returns every transcript occurrence of the query in one
// video, in chronological order, with the match highlighted inline. A
// video without a transcript — or a query with no verbatim occurrence —
// yields an empty list, not an error.
func (s *Service) VideoMatches(ctx context.Context, videoID, query string) ([]VideoMatch, error) {
	t, err := s.store.TranscriptForVideo(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transcript: %w", err)
	}
	if t == nil {
		return []VideoMatch{}, nil
	}

	spans := occurrences(t.Text, query)
	out := make([]VideoMatch, 0, len(spans))
	for _, s := range spans {
		out = append(out, VideoMatch{
			Timestamp: resolveTimestamp(t.Segments, s.start),
			Text:      highlightSnippet(t.Text, s.start, s.end),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		ti, tj := out[i].Timestamp, out[j].Timestamp
		if ti == nil || tj == nil {
			return tj == nil && ti != nil
		}
		return *ti < *tj
	})
	return out, nil
}

// collect runs the three field searchers and returns the flat stream of
// per-field, per-occurrence matches feeding the aggregator.
func (s *Service) collect(ctx context.Context, channelID string, p Params, rowCap int) ([]fieldMatch, error) {
	q := Normalize(p.Query, p.ExactMatch)
	fs := FieldSearch{
		TSQuery:       q.TSQuery(),
		Raw:           p.Query,
		MinSimilarity: minSimilarity(p),
		Limit:         rowCap,
		ChannelID:     channelID,
	}

	var matches []fieldMatch

	transcriptHits, err := s.store.SearchTranscripts(ctx, fs)
	if err != nil {
		return nil, fmt.Errorf("transcript search failed: %w", err)
	}
	for i := range transcriptHits {
		matches = append(matches, explodeTranscriptHit(&transcriptHits[i], p.Query)...)
	}

	titleHits, err := s.store.SearchTitles(ctx, fs)
	if err != nil {
		return nil, fmt.Errorf("title search failed: %w", err)
	}
	for i := range titleHits {
		matches = append(matches, titleMatch(&titleHits[i]))
	}

	descriptionHits, err := s.store.SearchDescriptions(ctx, fs)
	if err != nil {
		return nil, fmt.Errorf("description search failed: %w", err)
	}
	for i := range descriptionHits {
		matches = append(matches, descriptionMatch(&descriptionHits[i], p.Query))
	}

	return matches, nil
}

// explodeTranscriptHit turns one transcript row into one match per
// occurrence of the raw query in the full text. All occurrences carry the
// row's rank — the field score is per-field, not per-occurrence.
func explodeTranscriptHit(hit *models.TranscriptHit, rawQuery string) []fieldMatch {
	rank := TranscriptRank(hit.TSRank, hit.Similarity, hit.HasPhrase)
	meta := videoMeta{
		VideoID:      hit.VideoID,
		Title:        hit.Title,
		ChannelName:  hit.ChannelName,
		ThumbnailURL: hit.ThumbnailURL,
		PublishedAt:  hit.PublishedAt,
	}

	located := locate(hit.Text, hit.Segments, rawQuery)
	matches := make([]fieldMatch, 0, len(located))
	for _, m := range located {
		matches = append(matches, fieldMatch{
			video:     meta,
			field:     models.FieldTranscript,
			snippet:   m.Snippet,
			timestamp: m.Timestamp,
			rank:      rank,
		})
	}
	return matches
}

// titleMatch converts a title row; the title itself is the snippet.
func titleMatch(hit *models.FieldHit) fieldMatch {
	return fieldMatch{
		video: videoMeta{
			VideoID:      hit.VideoID,
			Title:        hit.Title,
			ChannelName:  hit.ChannelName,
			ThumbnailURL: hit.ThumbnailURL,
			PublishedAt:  hit.PublishedAt,
		},
		field:   models.FieldTitle,
		snippet: hit.FieldText,
		rank:    TitleRank(hit.TSRank, hit.Similarity),
	}
}

// descriptionMatch converts a description row, excerpting around the
// first occurrence of the query in the description body.
func descriptionMatch(hit *models.FieldHit, rawQuery string) fieldMatch {
	var snippet string
	if spans := occurrences(hit.FieldText, rawQuery); len(spans) > 0 {
		snippet = extractSnippet(hit.FieldText, spans[0].start, spans[0].end)
	} else {
		snippet = fallbackSnippet(hit.FieldText)
	}

	return fieldMatch{
		video: videoMeta{
			VideoID:      hit.VideoID,
			Title:        hit.Title,
			ChannelName:  hit.ChannelName,
			ThumbnailURL: hit.ThumbnailURL,
			PublishedAt:  hit.PublishedAt,
		},
		field:   models.FieldDescription,
		snippet: snippet,
		rank:    DescriptionRank(hit.TSRank, hit.Similarity),
	}
}

// minSimilarity clamps the caller's threshold into [0,1]. The API layer
// applies DefaultMinSimilarity when the caller omits the parameter.
func minSimilarity(p Params) float64 {
	switch {
	case p.MinSimilarity < 0:
		return 0
	case p.MinSimilarity > 1:
		return 1
	default:
		return p.MinSimilarity
	}
}
