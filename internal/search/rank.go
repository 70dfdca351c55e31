// rank.go holds the per-field scoring functions.
//
// The weights are fixed design constants, not configuration. They are
// deliberately implemented as pure functions of (index relevance,
// similarity, substring containment) so the blend is reproducible and
// testable outside any particular search engine.
package search

// phraseBonus is the flat boost a transcript gets when the raw query
// appears verbatim (case-insensitively) in the text. It is large enough
// that phrase matches always outrank fuzzy-only matches.
const phraseBonus = 100

// TranscriptRank scores a transcript-field match. Transcripts carry the
// highest field weight.
func TranscriptRank(tsRank, similarity float64, hasPhrase bool) float64 {
	rank := tsRank*10 + similarity*5
	if hasPhrase {
		rank += phraseBonus
	}
	return rank
}

// TitleRank scores a title-field match: weighted above descriptions,
// below transcript phrase hits.
func TitleRank(tsRank, similarity float64) float64 {
	return tsRank*5 + similarity*3
}

// DescriptionRank scores a description-field match, the lowest weight.
func DescriptionRank(tsRank, similarity float64) float64 {
	return tsRank*2 + similarity*1
}
