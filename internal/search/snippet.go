// snippet.go locates query occurrences inside a transcript, extracts a
// bounded excerpt around each one, and maps the character offset back to
// the originating segment's playback timestamp.
//
// The timestamp walk relies on the transcript invariant that full text is
// exactly the segment texts joined by single spaces, in order. Each
// segment occupies len(segment.text)+1 characters of the full text (the
// +1 is the joining space); any deviation from that construction would
// desync every timestamp after the first drift point.
package search

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/tubescribe/tubescribe-api/internal/models"
)

const (
	// snippetContext is how many characters of surrounding text a snippet
	// keeps on each side of the match.
	snippetContext = 150

	// maxOccurrences caps occurrence fan-out per transcript. A long,
	// highly repetitive transcript could otherwise produce a
	// pathologically large match list for a short query.
	maxOccurrences = 100
)

// SnippetMatch is one located occurrence: a human-readable excerpt plus
// the playback timestamp of the segment the match falls in. Position is
// the byte offset of the occurrence in the full text, or -1 for the
// fallback match produced when the query never appears verbatim.
type SnippetMatch struct {
	Snippet   string
	Timestamp *float64
	Position  int
}

// span is one occurrence of the query: [start, end) byte offsets into
// the original text. The end is tracked per match because case folding
// is not length-preserving, so the matched text can be a different byte
// length than the query.
type span struct {
	start, end int
}

// locate returns one SnippetMatch per non-overlapping occurrence of the
// raw query in text. If the query is never found as a substring (a
// fuzzy-only match), it returns a single fallback match: the start of the
// text with no timestamp.
func locate(text string, segments models.Segments, rawQuery string) []SnippetMatch {
	spans := occurrences(text, rawQuery)
	if len(spans) == 0 {
		return []SnippetMatch{{
			Snippet:  fallbackSnippet(text),
			Position: -1,
		}}
	}

	matches := make([]SnippetMatch, 0, len(spans))
	for _, s := range spans {
		matches = append(matches, SnippetMatch{
			Snippet:   extractSnippet(text, s.start, s.end),
			Timestamp: resolveTimestamp(segments, s.start),
			Position:  s.start,
		})
	}
	return matches
}

// occurrences scans text case-insensitively for every non-overlapping
// occurrence of query and returns the byte spans, in text order. The
// scan resumes immediately after each match's end, so adjacent repeats of
// the query are each counted once.
//
// The scan folds rune by rune over the original bytes rather than
// searching a lowered copy — lowering can change a rune's byte length
// (U+023A is 2 bytes, its lower case U+2C65 is 3), which would desync
// every offset after such a rune.
func occurrences(text, query string) []span {
	if query == "" {
		return nil
	}

	var spans []span
	i := 0
	for i < len(text) && len(spans) < maxOccurrences {
		if end, ok := matchAt(text, i, query); ok {
			spans = append(spans, span{start: i, end: end})
			i = end
			continue
		}
		_, size := utf8.DecodeRuneInString(text[i:])
		i += size
	}
	return spans
}

// matchAt reports whether query matches text at byte offset i under
// per-rune case folding, returning the byte offset just past the match.
func matchAt(text string, i int, query string) (int, bool) {
	for _, qr := range query {
		if i >= len(text) {
			return 0, false
		}
		tr, size := utf8.DecodeRuneInString(text[i:])
		if unicode.ToLower(tr) != unicode.ToLower(qr) {
			return 0, false
		}
		i += size
	}
	return i, true
}

// extractSnippet returns the text window around the match at byte span
// [matchStart, matchEnd), clamped to the text bounds, with an ellipsis on
// each side that was cut.
func extractSnippet(text string, matchStart, matchEnd int) string {
	start := matchStart - snippetContext
	if start < 0 {
		start = 0
	}
	end := matchEnd + snippetContext
	if end > len(text) {
		end = len(text)
	}
	start = alignRuneStart(text, start)
	end = alignRuneStart(text, end)

	snippet := strings.TrimSpace(text[start:end])
	if start > 0 {
		snippet = "..." + snippet
	}
	if end < len(text) {
		snippet = snippet + "..."
	}
	return snippet
}

// fallbackSnippet returns the opening of the text, used when the query is
// not present verbatim (the match came from the index or similarity).
func fallbackSnippet(text string) string {
	end := snippetContext * 2
	if end > len(text) {
		end = len(text)
	}
	end = alignRuneStart(text, end)
	return strings.TrimSpace(text[:end]) + "..."
}

// highlightSnippet is extractSnippet with the matched span wrapped in
// <mark> tags, preserving the original casing of the matched text. Used
// by the in-video navigation mode.
func highlightSnippet(text string, matchStart, matchEnd int) string {
	// Spans come from occurrences over this same text, but clamp anyway
	// so a bad span garbles output instead of panicking.
	if matchEnd > len(text) {
		matchEnd = len(text)
	}
	if matchStart > matchEnd {
		matchStart = matchEnd
	}

	start := matchStart - snippetContext
	if start < 0 {
		start = 0
	}
	end := matchEnd + snippetContext
	if end > len(text) {
		end = len(text)
	}
	start = alignRuneStart(text, start)
	end = alignRuneStart(text, end)

	var b strings.Builder
	if start > 0 {
		b.WriteString("...")
	}
	b.WriteString(text[start:matchStart])
	b.WriteString("<mark>")
	b.WriteString(text[matchStart:matchEnd])
	b.WriteString("</mark>")
	b.WriteString(text[matchEnd:end])
	if end < len(text) {
		b.WriteString("...")
	}
	return b.String()
}

// resolveTimestamp walks the segment sequence accumulating a running
// character offset; the segment whose range contains pos supplies the
// timestamp. Each segment spans [offset, offset+len(text)) with one
// joining space after it.
//
// If no segment range contains pos (the join invariant would have to be
// broken), the first segment's start time is returned, or nil when there
// are no segments at all.
func resolveTimestamp(segments models.Segments, pos int) *float64 {
	if len(segments) == 0 {
		return nil
	}

	offset := 0
	for i := range segments {
		segLen := len(segments[i].Text)
		if pos >= offset && pos < offset+segLen {
			return &segments[i].Start
		}
		offset += segLen + 1
	}

	return &segments[0].Start
}

// alignRuneStart moves a byte offset left until it sits on a UTF-8 rune
// boundary, so window clamping never splits a multi-byte character.
func alignRuneStart(s string, i int) int {
	for i > 0 && i < len(s) && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}
