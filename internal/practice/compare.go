package practice

import (
	"math"
	"strings"
	"unicode"

	"github.com/antzucaro/matchr"

	"github.com/MrWong99/scenecoach/pkg/types"
)

// CompareWords aligns the words of transcribed and expected by position and
// stops at the shorter of the two. Each pair reports case-insensitive
// equality, the Jaro-Winkler similarity of the letter content, and whether
// the two words share a Double Metaphone code.
func CompareWords(transcribed, expected string) []types.WordMatch {
	said := strings.Fields(transcribed)
	want := strings.Fields(expected)
	n := min(len(said), len(want))

	out := make([]types.WordMatch, 0, n)
	for i := range n {
		a, b := normalise(said[i]), normalise(want[i])
		m := types.WordMatch{
			Position:    i,
			Expected:    want[i],
			Transcribed: said[i],
			Exact:       strings.EqualFold(said[i], want[i]),
		}
		switch {
		case a == b:
			m.Similarity = 1
		case a != "" && b != "":
			m.Similarity = math.Round(matchr.JaroWinkler(a, b, false)*1e4) / 1e4
		}
		m.SoundsAlike = codesOverlap(codes(a), codes(b))
		out = append(out, m)
	}
	return out
}

// normalise lowercases w and drops everything that is not a letter or digit,
// so "There," and "there" compare equal.
func normalise(w string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return -1
	}, w)
}

// codes returns the non-empty Double Metaphone codes of w.
func codes(w string) map[string]struct{} {
	set := make(map[string]struct{}, 2)
	if w == "" {
		return set
	}
	p, s := matchr.DoubleMetaphone(w)
	if p != "" {
		set[p] = struct{}{}
	}
	if s != "" {
		set[s] = struct{}{}
	}
	return set
}

// codesOverlap reports whether the two code sets share at least one code.
func codesOverlap(a, b map[string]struct{}) bool {
	if len(a) > len(b) {
		a, b = b, a
	}
	for code := range a {
		if _, ok := b[code]; ok {
			return true
		}
	}
	return false
}
