// service_test.go — Tests for the search entry points against an
// in-memory fake store.
package search

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/tubescribe/tubescribe-api/internal/models"
)

// fakeStore is an in-memory Store returning canned rows. The service
// never inspects how rows were produced, so fixed slices are enough.
type fakeStore struct {
	transcripts  []models.TranscriptHit
	titles       []models.FieldHit
	descriptions []models.FieldHit
	count        int
	byVideo      map[string]*models.Transcript

	err error
}

func (f *fakeStore) SearchTranscripts(_ context.Context, _ FieldSearch) ([]models.TranscriptHit, error) {
	return f.transcripts, f.err
}

func (f *fakeStore) SearchTitles(_ context.Context, _ FieldSearch) ([]models.FieldHit, error) {
	return f.titles, f.err
}

func (f *fakeStore) SearchDescriptions(_ context.Context, _ FieldSearch) ([]models.FieldHit, error) {
	return f.descriptions, f.err
}

func (f *fakeStore) CountMatchingVideos(_ context.Context, _ FieldSearch) (int, error) {
	return f.count, f.err
}

func (f *fakeStore) TranscriptForVideo(_ context.Context, videoID string) (*models.Transcript, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byVideo[videoID], nil
}

func (f *fakeStore) TranscriptsForVideos(_ context.Context, videoIDs []string) (map[string]*models.Transcript, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]*models.Transcript)
	for _, id := range videoIDs {
		if t, ok := f.byVideo[id]; ok {
			out[id] = t
		}
	}
	return out, nil
}

var (
	day1 = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	day2 = time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
)

func transcriptHit(videoID, text string, segments models.Segments, tsRank, sim float64, phrase bool, published time.Time) models.TranscriptHit {
	return models.TranscriptHit{
		VideoID:      videoID,
		Title:        "Video " + videoID,
		ChannelName:  "Test Channel",
		ThumbnailURL: "https://example.com/" + videoID + ".jpg",
		PublishedAt:  published,
		Text:         text,
		Segments:     segments,
		TSRank:       tsRank,
		Similarity:   sim,
		HasPhrase:    phrase,
	}
}

func TestSearch_AggregatesPerVideo(t *testing.T) {
	segments := models.Segments{
		{Start: 0.0, Text: "learning rust is fun"},
		{Start: 10.0, Text: "rust has a borrow checker"},
	}
	text := "learning rust is fun rust has a borrow checker"

	store := &fakeStore{
		transcripts: []models.TranscriptHit{
			transcriptHit("vid-rust-01", text, segments, 0.4, 0.8, true, day1),
		},
		titles: []models.FieldHit{
			{
				VideoID:      "vid-rust-01",
				Title:        "Rust for Beginners",
				ChannelName:  "Test Channel",
				ThumbnailURL: "https://example.com/vid-rust-01.jpg",
				PublishedAt:  day1,
				FieldText:    "Rust for Beginners",
				TSRank:       0.3,
				Similarity:   0.5,
			},
		},
	}
	svc := New(store)

	results, err := svc.Search(context.Background(), Params{Query: "rust", Limit: 10})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1 aggregated video", len(results))
	}

	r := results[0]
	if r.TranscriptMatches != 2 {
		t.Errorf("TranscriptMatches = %d, want 2 (one per occurrence)", r.TranscriptMatches)
	}
	if r.TitleMatches != 1 {
		t.Errorf("TitleMatches = %d, want 1", r.TitleMatches)
	}
	if r.DescriptionMatches != 0 {
		t.Errorf("DescriptionMatches = %d, want 0", r.DescriptionMatches)
	}

	// Rank is the max across matches: the transcript phrase hit.
	wantRank := TranscriptRank(0.4, 0.8, true)
	if r.Rank != wantRank {
		t.Errorf("Rank = %v, want %v", r.Rank, wantRank)
	}

	// Representative snippet comes from the transcript field, with the
	// first occurrence's timestamp.
	if r.Timestamp == nil || *r.Timestamp != 0.0 {
		t.Errorf("Timestamp = %v, want 0.0 from first segment", r.Timestamp)
	}
	if !strings.Contains(strings.ToLower(r.Snippet), "rust") {
		t.Errorf("Snippet %q does not contain the query", r.Snippet)
	}
}

func TestSearch_OrdersByRankDescending(t *testing.T) {
	store := &fakeStore{
		transcripts: []models.TranscriptHit{
			transcriptHit("vid-low", "some python here", models.Segments{{Start: 0, Text: "some python here"}}, 0.1, 0.4, false, day1),
			transcriptHit("vid-high", "python python everywhere", models.Segments{{Start: 0, Text: "python python everywhere"}}, 0.6, 0.9, true, day1),
		},
	}
	svc := New(store)

	results, err := svc.Search(context.Background(), Params{Query: "python", Limit: 10})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if results[0].VideoID != "vid-high" {
		t.Errorf("first result = %s, want vid-high", results[0].VideoID)
	}
	if results[0].Rank < results[1].Rank {
		t.Errorf("results out of rank order: %v then %v", results[0].Rank, results[1].Rank)
	}
}

func TestSearch_TieBreaksByPublishedAtThenVideoID(t *testing.T) {
	seg := models.Segments{{Start: 0, Text: "same go content"}}
	store := &fakeStore{
		transcripts: []models.TranscriptHit{
			transcriptHit("vid-b", "same go content", seg, 0.5, 0.5, false, day1),
			transcriptHit("vid-a", "same go content", seg, 0.5, 0.5, false, day1),
			transcriptHit("vid-newer", "same go content", seg, 0.5, 0.5, false, day2),
		},
	}
	svc := New(store)

	results, err := svc.Search(context.Background(), Params{Query: "go", Limit: 10})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}

	// Equal ranks: newer publish date first, then video id ascending.
	wantOrder := []string{"vid-newer", "vid-a", "vid-b"}
	for i, want := range wantOrder {
		if results[i].VideoID != want {
			t.Errorf("results[%d] = %s, want %s", i, results[i].VideoID, want)
		}
	}
}

func TestSearch_RepeatedCallsIdentical(t *testing.T) {
	seg := models.Segments{{Start: 0, Text: "stable ordering test"}}
	store := &fakeStore{
		transcripts: []models.TranscriptHit{
			transcriptHit("vid-1", "stable ordering test", seg, 0.5, 0.5, false, day1),
			transcriptHit("vid-2", "stable ordering test", seg, 0.5, 0.5, false, day1),
		},
	}
	svc := New(store)

	first, err := svc.Search(context.Background(), Params{Query: "stable", Limit: 10})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := svc.Search(context.Background(), Params{Query: "stable", Limit: 10})
		if err != nil {
			t.Fatalf("Search failed: %v", err)
		}
		for j := range first {
			if again[j].VideoID != first[j].VideoID || again[j].Rank != first[j].Rank {
				t.Fatalf("run %d diverged at result %d", i, j)
			}
		}
	}
}

func TestSearch_TruncatesToLimit(t *testing.T) {
	seg := models.Segments{{Start: 0, Text: "limit test content"}}
	var hits []models.TranscriptHit
	for _, id := range []string{"vid-1", "vid-2", "vid-3", "vid-4"} {
		hits = append(hits, transcriptHit(id, "limit test content", seg, 0.5, 0.5, false, day1))
	}
	store := &fakeStore{transcripts: hits}
	svc := New(store)

	results, err := svc.Search(context.Background(), Params{Query: "limit", Limit: 2})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("got %d results, want limit of 2", len(results))
	}
}

func TestSearch_StoreErrorPropagates(t *testing.T) {
	store := &fakeStore{err: errors.New("connection refused")}
	svc := New(store)

	if _, err := svc.Search(context.Background(), Params{Query: "anything"}); err == nil {
		t.Fatal("expected error from failing store")
	}
}

func TestSearchChannel_Pagination(t *testing.T) {
	seg := models.Segments{{Start: 0, Text: "paging content here"}}
	var hits []models.TranscriptHit
	published := day1
	for _, id := range []string{"vid-1", "vid-2", "vid-3", "vid-4", "vid-5"} {
		hits = append(hits, transcriptHit(id, "paging content here", seg, 0.5, 0.5, false, published))
		published = published.Add(time.Hour)
	}
	store := &fakeStore{transcripts: hits, count: 5}
	svc := New(store)

	page1, total, err := svc.SearchChannel(context.Background(), "UCchannel", Params{Query: "paging", Limit: 2}, 0)
	if err != nil {
		t.Fatalf("SearchChannel failed: %v", err)
	}
	if total != 5 {
		t.Errorf("total = %d, want 5", total)
	}
	if len(page1) != 2 {
		t.Fatalf("page 1 has %d results, want 2", len(page1))
	}

	page2, _, err := svc.SearchChannel(context.Background(), "UCchannel", Params{Query: "paging", Limit: 2}, 2)
	if err != nil {
		t.Fatalf("SearchChannel failed: %v", err)
	}
	if len(page2) != 2 {
		t.Fatalf("page 2 has %d results, want 2", len(page2))
	}

	// Consecutive pages never overlap.
	seen := map[string]bool{}
	for _, r := range page1 {
		seen[r.VideoID] = true
	}
	for _, r := range page2 {
		if seen[r.VideoID] {
			t.Errorf("video %s appears on both pages", r.VideoID)
		}
	}
}

func TestSearchChannel_OffsetPastEnd(t *testing.T) {
	store := &fakeStore{count: 1, transcripts: []models.TranscriptHit{
		transcriptHit("vid-1", "only one", models.Segments{{Start: 0, Text: "only one"}}, 0.5, 0.5, false, day1),
	}}
	svc := New(store)

	results, total, err := svc.SearchChannel(context.Background(), "UCchannel", Params{Query: "only", Limit: 10}, 50)
	if err != nil {
		t.Fatalf("SearchChannel failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("got %d results past the end, want 0", len(results))
	}
	if total != 1 {
		t.Errorf("total = %d, want 1", total)
	}
}

func TestBatchSnippets(t *testing.T) {
	store := &fakeStore{
		byVideo: map[string]*models.Transcript{
			"vid-1": {
				Text: "intro section docker basics outro",
				Segments: models.Segments{
					{Start: 0.0, Text: "intro section"},
					{Start: 30.0, Text: "docker basics outro"},
				},
			},
			"vid-2": {
				Text:     "nothing relevant at all",
				Segments: models.Segments{{Start: 0.0, Text: "nothing relevant at all"}},
			},
		},
	}
	svc := New(store)

	out, err := svc.BatchSnippets(context.Background(), []string{"vid-1", "vid-2", "vid-missing"}, "docker")
	if err != nil {
		t.Fatalf("BatchSnippets failed: %v", err)
	}

	hit, ok := out["vid-1"]
	if !ok {
		t.Fatal("vid-1 missing from batch result")
	}
	if hit.Timestamp == nil || *hit.Timestamp != 30.0 {
		t.Errorf("vid-1 timestamp = %v, want 30.0", hit.Timestamp)
	}

	// Query absent verbatim: fallback snippet without a timestamp.
	miss, ok := out["vid-2"]
	if !ok {
		t.Fatal("vid-2 missing from batch result")
	}
	if miss.Timestamp != nil {
		t.Errorf("vid-2 timestamp = %v, want nil fallback", *miss.Timestamp)
	}

	// Videos without a transcript are simply absent.
	if _, ok := out["vid-missing"]; ok {
		t.Error("vid-missing should be absent from the batch result")
	}
}

func TestVideoMatches(t *testing.T) {
	store := &fakeStore{
		byVideo: map[string]*models.Transcript{
			"vid-1": {
				Text: "first kubernetes mention then later kubernetes again",
				Segments: models.Segments{
					{Start: 5.0, Text: "first kubernetes mention"},
					{Start: 60.0, Text: "then later kubernetes again"},
				},
			},
		},
	}
	svc := New(store)

	matches, err := svc.VideoMatches(context.Background(), "vid-1", "kubernetes")
	if err != nil {
		t.Fatalf("VideoMatches failed: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(matches))
	}

	// Chronological order with highlighted excerpts.
	if matches[0].Timestamp == nil || *matches[0].Timestamp != 5.0 {
		t.Errorf("first timestamp = %v, want 5.0", matches[0].Timestamp)
	}
	if matches[1].Timestamp == nil || *matches[1].Timestamp != 60.0 {
		t.Errorf("second timestamp = %v, want 60.0", matches[1].Timestamp)
	}
	for _, m := range matches {
		if !strings.Contains(m.Text, "<mark>kubernetes</mark>") {
			t.Errorf("match text %q missing highlight", m.Text)
		}
	}
}

// TestVideoMatches_CaseFoldedRunes exercises transcripts containing runes
// whose lower case has a different byte length; highlighting must stay
// inside the original text's bounds.
func TestVideoMatches_CaseFoldedRunes(t *testing.T) {
	store := &fakeStore{
		byVideo: map[string]*models.Transcript{
			"vid-1": {
				Text: "Ⱥlpha talk Ⱥlpha again",
				Segments: models.Segments{
					{Start: 0.0, Text: "Ⱥlpha talk"},
					{Start: 20.0, Text: "Ⱥlpha again"},
				},
			},
		},
	}
	svc := New(store)

	matches, err := svc.VideoMatches(context.Background(), "vid-1", "ⱥlpha")
	if err != nil {
		t.Fatalf("VideoMatches failed: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(matches))
	}
	if matches[0].Timestamp == nil || *matches[0].Timestamp != 0.0 {
		t.Errorf("first timestamp = %v, want 0.0", matches[0].Timestamp)
	}
	if matches[1].Timestamp == nil || *matches[1].Timestamp != 20.0 {
		t.Errorf("second timestamp = %v, want 20.0", matches[1].Timestamp)
	}
	for _, m := range matches {
		if !strings.Contains(m.Text, "<mark>Ⱥlpha</mark>") {
			t.Errorf("match text %q missing original-case highlight", m.Text)
		}
	}
}

func TestVideoMatches_NoTranscript(t *testing.T) {
	svc := New(&fakeStore{byVideo: map[string]*models.Transcript{}})

	matches, err := svc.VideoMatches(context.Background(), "vid-unknown", "anything")
	if err != nil {
		t.Fatalf("VideoMatches failed: %v", err)
	}
	if matches == nil || len(matches) != 0 {
		t.Errorf("got %v, want empty non-nil list", matches)
	}
}

func TestSearch_NullDescriptionNeverRanked(t *testing.T) {
	// The store contract excludes null-description videos from the
	// description searcher; an empty description slice must leave other
	// field results intact.
	store := &fakeStore{
		titles: []models.FieldHit{
			{VideoID: "vid-1", Title: "Go Talk", FieldText: "Go Talk", TSRank: 0.3, Similarity: 0.4, PublishedAt: day1},
		},
	}
	svc := New(store)

	results, err := svc.Search(context.Background(), Params{Query: "go", Limit: 10})
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	if results[0].DescriptionMatches != 0 {
		t.Errorf("DescriptionMatches = %d, want 0", results[0].DescriptionMatches)
	}
	if results[0].Snippet != "Go Talk" {
		t.Errorf("Snippet = %q, want the title", results[0].Snippet)
	}
}
