// search_test.go — Unit tests for search parameter defaulting and bounds.
package handlers

import (
	"testing"

	"github.com/tubescribe/tubescribe-api/internal/search"
)

func TestSearchQueryParams(t *testing.T) {
	ptr := func(f float64) *float64 { return &f }

	tests := []struct {
		name   string
		query  searchQuery
		want   search.Params
		wantOK bool
	}{
		{
			name:   "defaults applied",
			query:  searchQuery{Q: "rust"},
			want:   search.Params{Query: "rust", Limit: 20, MinSimilarity: search.DefaultMinSimilarity},
			wantOK: true,
		},
		{
			name:   "explicit values kept",
			query:  searchQuery{Q: "rust", Limit: 50, ExactMatch: true, MinSimilarity: ptr(0.7)},
			want:   search.Params{Query: "rust", Limit: 50, ExactMatch: true, MinSimilarity: 0.7},
			wantOK: true,
		},
		{
			name:   "explicit zero similarity is not the default",
			query:  searchQuery{Q: "rust", MinSimilarity: ptr(0)},
			want:   search.Params{Query: "rust", Limit: 20, MinSimilarity: 0},
			wantOK: true,
		},
		{
			name:   "limit above cap clamps to the cap",
			query:  searchQuery{Q: "rust", Limit: 500},
			want:   search.Params{Query: "rust", Limit: 100, MinSimilarity: search.DefaultMinSimilarity},
			wantOK: true,
		},
		{
			name:   "negative limit resets to default",
			query:  searchQuery{Q: "rust", Limit: -1},
			want:   search.Params{Query: "rust", Limit: 20, MinSimilarity: search.DefaultMinSimilarity},
			wantOK: true,
		},
		{
			name:   "similarity above one rejected",
			query:  searchQuery{Q: "rust", MinSimilarity: ptr(1.5)},
			wantOK: false,
		},
		{
			name:   "negative similarity rejected",
			query:  searchQuery{Q: "rust", MinSimilarity: ptr(-0.1)},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.query.params()
			if ok != tt.wantOK {
				t.Fatalf("params() ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if got != tt.want {
				t.Errorf("params() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
