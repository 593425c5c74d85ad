package readability

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateEmptyInput(t *testing.T) {
	assert.Equal(t, MaxGrade, Estimate(""))
	assert.Equal(t, MaxGrade, Estimate("   \n\t"))
	assert.Equal(t, MaxGrade, Estimate("..."))
}

func TestEstimateBounds(t *testing.T) {
	texts := []string{
		"Eat less salt.",
		"Walk every day. Drink water. Sleep well.",
		strings.Repeat("Cardiovascular complications necessitate comprehensive pharmacological intervention strategies. ", 10),
		"Short. " + strings.Repeat("word ", 40) + ".",
	}
	for _, text := range texts {
		got := Estimate(text)
		assert.GreaterOrEqual(t, got, MinGrade, "text %q", text)
		assert.LessOrEqual(t, got, MaxGrade, "text %q", text)
	}
}

// sentence builds a sentence of n simple one-syllable words.
func sentence(n int) string {
	words := strings.Fields(strings.Repeat("dogs run fast and jump high now ", n))
	return strings.Join(words[:n], " ") + "."
}

func TestEstimateMonotoneInSentenceLength(t *testing.T) {
	// same vocabulary, growing sentence length: the estimate never decreases
	lengths := []int{5, 12, 18, 30}
	prev := 0.0
	for _, n := range lengths {
		got := Estimate(sentence(n))
		assert.GreaterOrEqual(t, got, prev, "length %d", n)
		prev = got
	}
}

func TestEstimateComplexWordsRaiseGrade(t *testing.T) {
	simple := "The dog ran to the park with the kids."
	complexText := "The cardiologist recommended comprehensive rehabilitation immediately."
	assert.Greater(t, Estimate(complexText), Estimate(simple))
}

func TestEstimateBands(t *testing.T) {
	// ten one-syllable words per sentence lands in the lowest band with no
	// complexity penalty
	text := "The cat sat on the mat near the old door."
	assert.Equal(t, 4.0, Estimate(text))
}

func TestCountSyllables(t *testing.T) {
	tests := []struct {
		word string
		want int
	}{
		{"cat", 1},
		{"water", 2},
		{"banana", 3},
		{"the", 1},
		{"make", 1},  // silent e
		{"apple", 1}, // vowel groups: a, e; silent e drops one
		{"rhythm", 1},
		{"x", 1},
		{"medication", 4},
	}
	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			assert.Equal(t, tt.want, CountSyllables(tt.word))
		})
	}
}
