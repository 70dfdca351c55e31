// Package search implements the ranking and snippet-extraction engine:
// query normalization, multi-field relevance scoring, per-video match
// aggregation, and character-offset-to-timestamp mapping inside a
// transcript's segment list.
//
// The package is a pure read path. Every call takes a snapshot read
// against the injected Store and returns; nothing here holds locks or
// mutates shared state, so concurrent searches are independent.
package search

import (
	"regexp"
	"strings"
)

// nonWord matches every character that is neither a word character nor
// whitespace. Matches Postgres' word boundaries closely enough for
// building tsquery terms.
var nonWord = regexp.MustCompile(`[^\w\s]`)

// Query is a normalized search query ready for the text-index store.
type Query struct {
	// Raw is the original query string, used for substring containment,
	// trigram similarity, and snippet location.
	Raw string

	// Terms are the lower-cased, punctuation-stripped tokens. When the
	// token list would be empty (query is pure punctuation), Terms holds
	// the raw lower-cased query as a single degenerate unit.
	Terms []string

	// Phrase requires strict positional adjacency between consecutive
	// terms. There is no adjacency slop — adjacency is exact.
	Phrase bool
}

// Normalize turns raw user input into a structured query.
//
// Rules: strip everything that is not a word character or whitespace,
// lower-case, split on whitespace. exact_match or a multi-word query
// forces phrase mode; a single term without exact_match is a plain
// single-term search.
func Normalize(raw string, exactMatch bool) Query {
	cleaned := nonWord.ReplaceAllString(raw, "")
	terms := strings.Fields(strings.ToLower(cleaned))

	if len(terms) == 0 {
		// Degenerate case: nothing tokenizable. Fall back to the raw
		// lower-cased query as a single unit — search still returns a
		// (possibly empty) list rather than failing.
		return Query{
			Raw:    raw,
			Terms:  []string{strings.ToLower(raw)},
			Phrase: exactMatch,
		}
	}

	return Query{
		Raw:    raw,
		Terms:  terms,
		Phrase: exactMatch || len(terms) > 1,
	}
}

// TSQuery renders the query in Postgres tsquery syntax: terms joined with
// the <-> adjacency operator in phrase mode, or the bare term otherwise.
func (q Query) TSQuery() string {
	if q.Phrase {
		return strings.Join(q.Terms, " <-> ")
	}
	return q.Terms[0]
}
