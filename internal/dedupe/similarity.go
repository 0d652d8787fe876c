package dedupe

import (
	"regexp"
	"strings"

	"github.com/antzucaro/matchr"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

var multiSpace = regexp.MustCompile(`\s{2,}`)

// NormalizeTitle standardizes an announcement title for comparison:
// NFC composition, fullwidth-to-halfwidth folding, lowercasing, and
// whitespace collapsing. Announcement titles mix Korean with fullwidth
// parentheses and digits depending on the publishing portal.
func NormalizeTitle(title string) string {
	t := strings.TrimSpace(title)
	if t == "" {
		return ""
	}
	t = norm.NFC.String(t)
	t = width.Fold.String(t)
	t = strings.ToLower(t)
	t = multiSpace.ReplaceAllString(t, " ")
	return t
}

// Similarity returns a normalized Damerau-Levenshtein similarity between two
// already-normalized titles: 1.0 identical, 0.0 completely different.
func Similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	ra, rb := []rune(a), []rune(b)
	maxLen := len(ra)
	if len(rb) > maxLen {
		maxLen = len(rb)
	}
	if maxLen == 0 {
		return 1.0
	}
	dist := matchr.DamerauLevenshtein(string(ra), string(rb))
	sim := 1.0 - float64(dist)/float64(maxLen)
	if sim < 0 {
		return 0
	}
	return sim
}

// lengthRatio returns min(len)/max(len) over rune counts. A pair whose ratio
// is below the similarity threshold cannot reach it and is skipped outright.
func lengthRatio(a, b string) float64 {
	la, lb := len([]rune(a)), len([]rune(b))
	if la == 0 && lb == 0 {
		return 1.0
	}
	min, max := la, lb
	if min > max {
		min, max = max, min
	}
	if max == 0 {
		return 1.0
	}
	return float64(min) / float64(max)
}
