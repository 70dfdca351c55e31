// search.go implements the text-index store the search core reads from.
//
// Each field query returns raw rows carrying three relevance signals —
// full-text rank (ts_rank over a tsvector), trigram similarity (pg_trgm),
// and case-insensitive substring containment — and the search package
// blends them into ranks. The weights live there, not in SQL, so the
// scoring is reproducible outside Postgres.
package database

import (
	"context"
	"fmt"

	"github.com/tubescribe/tubescribe-api/internal/models"
	"github.com/tubescribe/tubescribe-api/internal/search"
)

// SearchTranscripts returns transcript-field rows matching the three-way
// predicate, one row per transcript. The search core explodes each row
// into per-occurrence matches.
//
// All field queries order by published_at desc then video_id before the
// row cap, so repeated fetches slice one stable sequence even when more
// rows match than the cap admits.
func (db *DB) SearchTranscripts(ctx context.Context, q search.FieldSearch) ([]models.TranscriptHit, error) {
	query := `
		SELECT v.video_id, v.title, c.channel_name, v.thumbnail_url, v.published_at,
			t.text, t.segments,
			ts_rank(t.text_search_vector, to_tsquery('english', $1)) AS ts_rank,
			similarity(t.text, $2) AS similarity,
			(t.text ILIKE '%' || $2 || '%') AS has_phrase
		FROM transcripts t
		JOIN videos v ON v.id = t.video_id
		JOIN channels c ON c.id = v.channel_id
		WHERE (t.text_search_vector @@ to_tsquery('english', $1)
			OR similarity(t.text, $2) > $3
			OR t.text ILIKE '%' || $2 || '%')`
	args := []interface{}{q.TSQuery, q.Raw, q.MinSimilarity}

	if q.ChannelID != "" {
		query += fmt.Sprintf(" AND c.channel_id = $%d", len(args)+1)
		args = append(args, q.ChannelID)
	}
	query += fmt.Sprintf(" ORDER BY v.published_at DESC, v.video_id LIMIT $%d", len(args)+1)
	args = append(args, q.Limit)

	var hits []models.TranscriptHit
	if err := db.SelectContext(ctx, &hits, query, args...); err != nil {
		return nil, fmt.Errorf("transcript search query failed: %w", err)
	}
	return hits, nil
}

// SearchTitles returns title-field rows, at most one per video.
func (db *DB) SearchTitles(ctx context.Context, q search.FieldSearch) ([]models.FieldHit, error) {
	query := `
		SELECT v.video_id, v.title, c.channel_name, v.thumbnail_url, v.published_at,
			v.title AS field_text,
			ts_rank(v.title_search_vector, to_tsquery('english', $1)) AS ts_rank,
			similarity(v.title, $2) AS similarity
		FROM videos v
		JOIN channels c ON c.id = v.channel_id
		WHERE (v.title_search_vector @@ to_tsquery('english', $1)
			OR similarity(v.title, $2) > $3
			OR v.title ILIKE '%' || $2 || '%')`
	args := []interface{}{q.TSQuery, q.Raw, q.MinSimilarity}

	if q.ChannelID != "" {
		query += fmt.Sprintf(" AND c.channel_id = $%d", len(args)+1)
		args = append(args, q.ChannelID)
	}
	query += fmt.Sprintf(" ORDER BY v.published_at DESC, v.video_id LIMIT $%d", len(args)+1)
	args = append(args, q.Limit)

	var hits []models.FieldHit
	if err := db.SelectContext(ctx, &hits, query, args...); err != nil {
		return nil, fmt.Errorf("title search query failed: %w", err)
	}
	return hits, nil
}

// SearchDescriptions returns description-field rows, at most one per
// video. Videos with a null description are filtered out before the
// predicate runs — null-field exclusion is a filter, not an error.
func (db *DB) SearchDescriptions(ctx context.Context, q search.FieldSearch) ([]models.FieldHit, error) {
	query := `
		SELECT v.video_id, v.title, c.channel_name, v.thumbnail_url, v.published_at,
			v.description AS field_text,
			ts_rank(v.description_search_vector, to_tsquery('english', $1)) AS ts_rank,
			similarity(v.description, $2) AS similarity
		FROM videos v
		JOIN channels c ON c.id = v.channel_id
		WHERE v.description IS NOT NULL
			AND (v.description_search_vector @@ to_tsquery('english', $1)
			OR similarity(v.description, $2) > $3
			OR v.description ILIKE '%' || $2 || '%')`
	args := []interface{}{q.TSQuery, q.Raw, q.MinSimilarity}

	if q.ChannelID != "" {
		query += fmt.Sprintf(" AND c.channel_id = $%d", len(args)+1)
		args = append(args, q.ChannelID)
	}
	query += fmt.Sprintf(" ORDER BY v.published_at DESC, v.video_id LIMIT $%d", len(args)+1)
	args = append(args, q.Limit)

	var hits []models.FieldHit
	if err := db.SelectContext(ctx, &hits, query, args...); err != nil {
		return nil, fmt.Errorf("description search query failed: %w", err)
	}
	return hits, nil
}

// CountMatchingVideos reports how many distinct videos match the query on
// any field, for channel-scoped pagination totals.
func (db *DB) CountMatchingVideos(ctx context.Context, q search.FieldSearch) (int, error) {
	query := `
		SELECT COUNT(DISTINCT v.id)
		FROM videos v
		JOIN channels c ON c.id = v.channel_id
		LEFT JOIN transcripts t ON t.video_id = v.id
		WHERE (
			(t.id IS NOT NULL AND (t.text_search_vector @@ to_tsquery('english', $1)
				OR similarity(t.text, $2) > $3
				OR t.text ILIKE '%' || $2 || '%'))
			OR (v.title_search_vector @@ to_tsquery('english', $1)
				OR similarity(v.title, $2) > $3
				OR v.title ILIKE '%' || $2 || '%')
			OR (v.description IS NOT NULL AND (v.description_search_vector @@ to_tsquery('english', $1)
				OR similarity(v.description, $2) > $3
				OR v.description ILIKE '%' || $2 || '%'))
		)`
	args := []interface{}{q.TSQuery, q.Raw, q.MinSimilarity}

	if q.ChannelID != "" {
		query += fmt.Sprintf(" AND c.channel_id = $%d", len(args)+1)
		args = append(args, q.ChannelID)
	}

	var total int
	if err := db.GetContext(ctx, &total, query, args...); err != nil {
		return 0, fmt.Errorf("count query failed: %w", err)
	}
	return total, nil
}
