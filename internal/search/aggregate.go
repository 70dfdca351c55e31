// aggregate.go merges the flat stream of per-field, per-occurrence
// matches into one record per video, then orders the records for output.
package search

import (
	"sort"
	"time"

	"github.com/tubescribe/tubescribe-api/internal/models"
)

// fieldMatch is one raw match: which video, which field, where, and how
// strong.
type fieldMatch struct {
	video     videoMeta
	field     models.MatchField
	snippet   string
	timestamp *float64
	rank      float64
}

// videoMeta is the display metadata every field searcher returns
// alongside its relevance signals.
type videoMeta struct {
	VideoID      string
	Title        string
	ChannelName  string
	ThumbnailURL string
	PublishedAt  time.Time
}

// aggregate groups matches by video identity. Per video it tracks the
// maximum rank seen (the sort key), separate match counts per field, and
// the representative snippet: the best transcript-field match when one
// exists, since transcript rank dominates, otherwise the best match of
// any field. All occurrence-level matches are retained on the aggregate
// for detail views.
func aggregate(matches []fieldMatch) []VideoResult {
	byVideo := make(map[string]*VideoResult)
	var order []string

	for _, m := range matches {
		agg, ok := byVideo[m.video.VideoID]
		if !ok {
			agg = &VideoResult{
				VideoID:      m.video.VideoID,
				Title:        m.video.Title,
				ChannelName:  m.video.ChannelName,
				ThumbnailURL: m.video.ThumbnailURL,
				PublishedAt:  m.video.PublishedAt,
			}
			byVideo[m.video.VideoID] = agg
			order = append(order, m.video.VideoID)
		}

		if m.rank > agg.Rank || len(agg.Matches) == 0 {
			agg.Rank = m.rank
		}

		switch m.field {
		case models.FieldTranscript:
			agg.TranscriptMatches++
		case models.FieldTitle:
			agg.TitleMatches++
		case models.FieldDescription:
			agg.DescriptionMatches++
		}

		agg.Matches = append(agg.Matches, Match{
			Field:     m.field,
			Snippet:   m.snippet,
			Timestamp: m.timestamp,
			Rank:      m.rank,
		})
	}

	results := make([]VideoResult, 0, len(order))
	for _, videoID := range order {
		agg := byVideo[videoID]
		snippet, timestamp := representative(agg.Matches)
		agg.Snippet = snippet
		agg.Timestamp = timestamp
		results = append(results, *agg)
	}
	return results
}

// representative picks the aggregate's snippet: the highest-ranked
// transcript match if the video has one, else the highest-ranked match
// overall. Ties keep the earliest match.
func representative(matches []Match) (string, *float64) {
	var best *Match
	var bestTranscript *Match

	for i := range matches {
		m := &matches[i]
		if best == nil || m.Rank > best.Rank {
			best = m
		}
		if m.Field == models.FieldTranscript && (bestTranscript == nil || m.Rank > bestTranscript.Rank) {
			bestTranscript = m
		}
	}

	if bestTranscript != nil {
		return bestTranscript.Snippet, bestTranscript.Timestamp
	}
	if best != nil {
		return best.Snippet, best.Timestamp
	}
	return "", nil
}

// sortResults orders aggregates by rank descending. Rank ties — rare with
// continuous float ranks — break deterministically: newer publish
// timestamp first, then video id ascending.
func sortResults(results []VideoResult) {
	sort.Slice(results, func(i, j int) bool {
		a, b := &results[i], &results[j]
		if a.Rank != b.Rank {
			return a.Rank > b.Rank
		}
		if !a.PublishedAt.Equal(b.PublishedAt) {
			return a.PublishedAt.After(b.PublishedAt)
		}
		return a.VideoID < b.VideoID
	})
}
