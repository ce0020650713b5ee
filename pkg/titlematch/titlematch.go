// Package titlematch compares media titles from different catalogues.
//
// TMDB, TVDB and Sonarr rarely spell a series identically ("Marvel's Daredevil"
// vs "Daredevil", "Shōgun" vs "Shogun"), so lookups fall back to fuzzy matching
// on normalised titles, nudged by release year.
package titlematch

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/hbollon/go-edlib"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Minimum score for Best to report a match.
const Threshold = 0.85

// Matches II-IX after a space. Leading numerals and a lone "I" or "X" are left
// alone ("I Robot", "American History X").
var romanNumeral = regexp.MustCompile(`(?i) (ii|iii|iv|v|vi|vii|viii|ix)\b`)

var romanValue = map[string]string{
	"ii": "2", "iii": "3", "iv": "4", "v": "5",
	"vi": "6", "vii": "7", "viii": "8", "ix": "9",
}

// Clean lowercases, strips accents, articles and punctuation, and collapses
// whitespace so titles from different sources compare equal.
func Clean(title string) string {
	s := strings.ToLower(title)
	s = romanNumeral.ReplaceAllStringFunc(s, func(m string) string {
		return " " + romanValue[strings.TrimSpace(m)]
	})
	s = stripAccents(s)

	s = strings.NewReplacer("&", " and ", "-", " ", "'", "", "’", "", ".", " ").Replace(s)

	parts := strings.Split(s, ":")
	for i, p := range parts {
		parts[i] = stripArticle(strings.TrimSpace(p))
	}
	s = strings.Join(parts, " ")

	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func stripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func stripArticle(s string) string {
	for _, art := range []string{"the ", "a ", "an "} {
		if rest, ok := strings.CutPrefix(s, art); ok {
			return rest
		}
	}
	return s
}

// Candidate is one catalogue entry to compare against.
type Candidate struct {
	Title string
	Year  int // 0 if unknown
}

// Score returns the similarity of two titles in [0, 1]. Years, when both are
// known, adjust the score: equal years add a small bonus, years more than one
// apart are penalised.
func Score(title string, year int, c Candidate) float64 {
	a, b := Clean(title), Clean(c.Title)
	if a == "" || b == "" {
		return 0
	}
	score := float64(edlib.JaroWinklerSimilarity(a, b))

	if year > 0 && c.Year > 0 {
		switch d := year - c.Year; {
		case d == 0:
			score = min(score*1.05, 1.0)
		case d < -1 || d > 1:
			score *= 0.85
		}
	}
	return score
}

// Best returns the index of the highest scoring candidate at or above
// Threshold, or -1 if none qualifies. Ties go to the earlier candidate.
func Best(title string, year int, candidates []Candidate) (int, float64) {
	best, bestScore := -1, 0.0
	for i, c := range candidates {
		if s := Score(title, year, c); s > bestScore {
			best, bestScore = i, s
		}
	}
	if bestScore < Threshold {
		return -1, bestScore
	}
	return best, bestScore
}
