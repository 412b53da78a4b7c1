// Package patterns extracts tracking ids, URLs and generic terms from a line of text.
//
// The matchers are compiled once and are safe for concurrent use.
package patterns

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Category names, also used as metric and summary labels.
const (
	CategoryTrackingIDs = "tracking_ids"
	CategoryURLs        = "urls"
	CategoryTerms       = "terms"
)

const (
	trackingIDExpr = `CRQ-[0-9]+`
	urlExpr        = `https?://\S+`

	// wordExpr matches whole word runs. Combining marks belong to the word, so
	// decomposed letters are not split. Only runs starting with a letter or
	// underscore are terms: "9abc" yields nothing rather than "abc".
	wordExpr = `[\p{L}\p{M}\p{N}_]+`

	// urlTrailingPunct is trimmed from the end of a URL match.
	urlTrailingPunct = ".,)"
)

// Default is the process-wide matcher set.
var Default = New()

// Matchers holds the three compiled pattern classes.
type Matchers struct {
	trackingID *regexp.Regexp
	url        *regexp.Regexp
	term       *regexp.Regexp
}

// New compiles a matcher set.
func New() *Matchers {
	return &Matchers{
		trackingID: regexp.MustCompile(trackingIDExpr),
		url:        regexp.MustCompile(urlExpr),
		term:       regexp.MustCompile(wordExpr),
	}
}

// Matches collects candidates per category in order of appearance. Nothing is deduplicated.
type Matches struct {
	TrackingIDs []string
	URLs        []string
	Terms       []string
}

// Len returns the total number of candidates.
func (m *Matches) Len() int {
	return len(m.TrackingIDs) + len(m.URLs) + len(m.Terms)
}

// Extract returns every match of every class in text.
func (ms *Matchers) Extract(text string) Matches {
	var matches Matches

	ms.ExtractInto(text, &matches)

	return matches
}

// ExtractInto appends every match of every class in text to dst.
func (ms *Matchers) ExtractInto(text string, dst *Matches) {
	dst.TrackingIDs = append(dst.TrackingIDs, ms.trackingID.FindAllString(text, -1)...)

	for _, raw := range ms.url.FindAllString(text, -1) {
		if url, ok := trimURL(raw); ok {
			dst.URLs = append(dst.URLs, url)
		}
	}

	for _, word := range ms.term.FindAllString(text, -1) {
		if isTerm(word) {
			dst.Terms = append(dst.Terms, word)
		}
	}
}

func isTerm(word string) bool {
	first, _ := utf8.DecodeRuneInString(word)

	return first == '_' || unicode.IsLetter(first)
}

// trimURL strips trailing sentence punctuation. A match left with nothing after the
// scheme separator is rejected.
func trimURL(raw string) (string, bool) {
	url := strings.TrimRight(raw, urlTrailingPunct)

	_, rest, found := strings.Cut(url, "://")
	if !found || rest == "" {
		return "", false
	}

	return url, true
}
