// Package fuzzy provides the string normalization and similarity scoring
// used to reconcile names across providers. Matching is heuristic and
// best-effort; cutoffs are supplied by callers, not fixed here.
package fuzzy

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// accentStripper decomposes characters and drops combining marks, so
// "Pokémon" compares equal to "Pokemon".
var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// editionQualifiers are marketing suffixes that vary between the catalog
// and the storefront listing of the same game.
var editionQualifiers = []string{
	"remastered",
	"definitive edition",
	"game of the year edition",
	"game of the year",
	"goty edition",
	"goty",
	"deluxe edition",
	"enhanced edition",
	"complete edition",
	"anniversary edition",
	"hd",
}

// StripAccents removes diacritical marks from s.
func StripAccents(s string) string {
	out, _, err := transform.String(accentStripper, s)
	if err != nil {
		return s
	}
	return out
}

// Normalize lowercases, strips accents, and collapses punctuation to
// single spaces. It is the common preparation for similarity scoring.
func Normalize(s string) string {
	s = strings.ToLower(StripAccents(s))
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// NormalizeTitle reduces a game title to its comparable core: lowercase,
// accents stripped, anything after the first ':', '(' or '-' dropped,
// edition qualifiers removed, punctuation collapsed.
func NormalizeTitle(title string) string {
	t := strings.ToLower(StripAccents(title))

	// Cut platform suffixes and subtitles introduced by separators.
	if i := strings.IndexAny(t, ":(-"); i >= 0 {
		t = t[:i]
	}

	t = Normalize(t)
	for _, q := range editionQualifiers {
		t = strings.TrimSpace(strings.TrimSuffix(t, q))
	}
	return t
}

// Similarity returns a ratio in [0, 1] based on edit distance over the
// longer input. Inputs are compared as given; normalize first when
// case or punctuation should not count.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	// Distance and length must count the same units, so both work on
	// runes; byte lengths overstate similarity for multibyte titles.
	ra, rb := []rune(a), []rune(b)
	longest := max(len(ra), len(rb))
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein(ra, rb))/float64(longest)
}

// BestMatch returns the index and score of the candidate most similar to
// target, provided the score clears cutoff. Candidates are compared as
// given. The boolean reports whether any candidate cleared the cutoff.
func BestMatch(target string, candidates []string, cutoff float64) (int, float64, bool) {
	bestIdx, bestScore := -1, 0.0
	for i, c := range candidates {
		score := Similarity(target, c)
		if score > bestScore {
			bestIdx, bestScore = i, score
		}
	}
	if bestIdx < 0 || bestScore < cutoff {
		return -1, bestScore, false
	}
	return bestIdx, bestScore, true
}

// levenshtein computes the edit distance between two rune slices using
// two rolling rows.
func levenshtein(ra, rb []rune) int {
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)

	for j := 0; j <= len(rb); j++ {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 0
			if ra[i-1] != rb[j-1] {
				cost = 1
			}
			curr[j] = min(
				prev[j]+1,      // deletion
				curr[j-1]+1,    // insertion
				prev[j-1]+cost, // substitution
			)
		}
		prev, curr = curr, prev
	}

	return prev[len(rb)]
}
