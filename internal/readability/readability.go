// Package readability estimates the US grade level of article text from
// sentence length and syllable complexity. The estimate is a cheap heuristic,
// not a full Flesch-Kincaid computation; it only needs to be deterministic
// and monotone in the inputs the pipeline tunes for.
package readability

import (
	"strings"
)

const (
	// MaxGrade is the ceiling of the scale and the conservative value
	// returned for empty input.
	MaxGrade = 12.0
	// MinGrade is the floor of the scale.
	MinGrade = 1.0
)

// Estimate returns a grade level in [1,12] for the given text. Empty or
// sentence-free input yields MaxGrade as a "needs simplification" signal.
func Estimate(text string) float64 {
	text = strings.TrimSpace(text)
	if text == "" {
		return MaxGrade
	}

	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return MaxGrade
	}

	words := strings.Fields(text)
	avgSentenceLen := float64(len(words)) / float64(len(sentences))

	var grade float64
	switch {
	case avgSentenceLen <= 10:
		grade = 4.0
	case avgSentenceLen <= 15:
		grade = 6.0
	case avgSentenceLen <= 20:
		grade = 8.0
	default:
		grade = 10.0
	}

	complex := 0
	for _, w := range words {
		if CountSyllables(w) >= 3 {
			complex++
		}
	}
	if len(words) > 0 {
		grade += float64(complex) / float64(len(words)) * 4
	}

	if grade > MaxGrade {
		grade = MaxGrade
	}
	if grade < MinGrade {
		grade = MinGrade
	}
	return grade
}

func splitSentences(text string) []string {
	parts := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})
	out := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}

// CountSyllables estimates syllables as the number of vowel groups, with the
// silent-e rule. Every word counts as at least one syllable.
func CountSyllables(word string) int {
	word = strings.ToLower(word)
	count := 0
	prevVowel := false
	for _, r := range word {
		vowel := strings.ContainsRune("aeiouy", r)
		if vowel && !prevVowel {
			count++
		}
		prevVowel = vowel
	}
	if strings.HasSuffix(word, "e") && count > 1 {
		count--
	}
	if count < 1 {
		count = 1
	}
	return count
}
