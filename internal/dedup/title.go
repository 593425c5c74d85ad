package dedup

import (
	"strings"
	"unicode"
)

// normalizeTitle lowercases and keeps only alphanumerics and spaces, so
// punctuation and formatting variants of the same title compare equal.
func normalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// titleSimilarity scores two raw titles in [0,1]. Identical normalized forms
// score 1.0; containment of one normalized title in the other counts as at
// least 0.85 when both are longer than 10 characters; otherwise the score is
// the best subsequence ratio over the raw and normalized forms.
func titleSimilarity(a, b string) float64 {
	rawA := strings.TrimSpace(strings.ToLower(a))
	rawB := strings.TrimSpace(strings.ToLower(b))

	sim := subsequenceRatio(rawA, rawB)

	if len(rawA) > 10 && len(rawB) > 10 {
		if (strings.Contains(rawA, rawB) || strings.Contains(rawB, rawA)) && sim < 0.85 {
			sim = 0.85
		}
	}

	cleanA := normalizeTitle(rawA)
	cleanB := normalizeTitle(rawB)
	if cleanA != "" && cleanA == cleanB {
		return 1.0
	}
	if cleanA != "" && cleanB != "" {
		if r := subsequenceRatio(cleanA, cleanB); r > sim {
			sim = r
		}
	}
	return sim
}

// subsequenceRatio is 2*LCS/(len(a)+len(b)), the classic similarity ratio
// over the longest common subsequence of the two strings.
func subsequenceRatio(a, b string) float64 {
	if a == "" && b == "" {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}

	ra := []rune(a)
	rb := []rune(b)

	// one-row DP over the shorter string
	if len(rb) > len(ra) {
		ra, rb = rb, ra
	}
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			if ra[i-1] == rb[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}
		prev, curr = curr, prev
	}
	lcs := prev[len(rb)]
	return 2 * float64(lcs) / float64(len(ra)+len(rb))
}
