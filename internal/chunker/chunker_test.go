package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthed/article-pipeline/config"
	"github.com/healthed/article-pipeline/internal/agent/extract"
	"github.com/healthed/article-pipeline/internal/models"
	"github.com/healthed/article-pipeline/pkg/logger"
)

func testChunker(t *testing.T) *Chunker {
	t.Helper()
	return New(config.Default().Pipeline, nil, logger.NewTestLogger())
}

// healthParagraph builds a keyword-dense paragraph of roughly n words.
func healthParagraph(n int) string {
	base := "Patients with diabetes and hypertension should check their blood pressure often because chronic disease raises clinical health risks. " +
		"Your doctor or nurse at the clinic can adjust medication, treatment, or therapy and review each prescription drug dose. " +
		"Watch for symptoms such as pain, fatigue, nausea, or dizziness and report them during monitoring and checkup visits. " +
		"A balanced diet with less salt and sodium, regular exercise, and attention to weight and calories supports a healthy lifestyle. "
	var b strings.Builder
	for len(strings.Fields(b.String())) < n {
		b.WriteString(base)
	}
	words := strings.Fields(b.String())
	if len(words) > n {
		words = words[:n]
	}
	return strings.Join(words, " ")
}

// neutralParagraph builds an n-word paragraph with no domain keywords.
func neutralParagraph(n int) string {
	base := strings.Fields("the quick brown fox jumps over a lazy dog near the river bank while autumn leaves drift slowly across the quiet valley floor under a pale evening sky")
	words := make([]string, 0, n)
	for len(words) < n {
		words = append(words, base...)
	}
	return strings.Join(words[:n], " ")
}

func TestChunkNeverEmitsBelowMinimum(t *testing.T) {
	c := testChunker(t)

	pages := []extract.Page{
		{PageNumber: 1, Text: healthParagraph(120) + "\n\n" + healthParagraph(300) + "\n\n" + healthParagraph(250)},
		{PageNumber: 2, Text: healthParagraph(40)}, // below minimum, remainder dropped
	}

	chunks := c.Chunk(pages, "doc-1")
	require.NotEmpty(t, chunks)
	for _, ch := range chunks {
		assert.GreaterOrEqual(t, ch.WordCount, c.MinChunkSize(), "chunk %s", ch.ID)
	}
	for _, ch := range chunks {
		assert.NotEqual(t, 2, ch.PageNumber, "page below minimum must emit nothing")
	}
}

func TestChunkEmptyAndMalformedPages(t *testing.T) {
	c := testChunker(t)

	pages := []extract.Page{
		{PageNumber: 1, Text: ""},
		{PageNumber: 2, Text: "   \n\n  \t \n"},
		{PageNumber: 3, Text: "42\nPage 7\nchapter 3\nshort"},
	}
	assert.Empty(t, c.Chunk(pages, "doc-junk"))
}

func TestRelevanceScoreBounds(t *testing.T) {
	c := testChunker(t)

	tests := []struct {
		name string
		text string
	}{
		{"keyword dense", healthParagraph(200)},
		{"no keywords", neutralParagraph(200)},
		{"single word", "hello"},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch := c.newChunk(tt.text, 0, 1, "doc")
			score := c.relevanceScore(&ch)
			assert.GreaterOrEqual(t, score, 0.0)
			assert.LessOrEqual(t, score, 1.0)
		})
	}
}

func TestRelevanceScoreZeroWithoutKeywords(t *testing.T) {
	c := testChunker(t)

	// length never rescues a keyword-free chunk
	for _, n := range []int{50, 500, 5000} {
		ch := c.newChunk(neutralParagraph(n), 0, 1, "doc")
		assert.Zero(t, c.relevanceScore(&ch), "words=%d", n)
	}
}

func TestRelevanceScoreDeterministic(t *testing.T) {
	c := testChunker(t)
	ch := c.newChunk(healthParagraph(180), 0, 1, "doc")
	first := c.relevanceScore(&ch)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, c.relevanceScore(&ch))
	}
}

func TestChunkRelevantPageOnly(t *testing.T) {
	c := testChunker(t)

	// page 1: five keyword-dense paragraphs; page 2: unrelated prose
	paras := make([]string, 5)
	for i := range paras {
		paras[i] = healthParagraph(48)
	}
	pages := []extract.Page{
		{PageNumber: 1, Text: strings.Join(paras, "\n\n")},
		{PageNumber: 2, Text: neutralParagraph(300)},
	}

	chunks := c.Chunk(pages, "doc-2")
	require.Len(t, chunks, 2)
	assert.Equal(t, 1, chunks[0].PageNumber)
	assert.True(t, chunks[0].IsRelevant)
	assert.GreaterOrEqual(t, chunks[0].RelevanceScore, 0.3)
	assert.NotEmpty(t, chunks[0].Keywords)

	assert.Equal(t, 2, chunks[1].PageNumber)
	assert.False(t, chunks[1].IsRelevant)
	assert.Zero(t, chunks[1].RelevanceScore)
}

func TestChunkIDsAndSequence(t *testing.T) {
	c := testChunker(t)

	pages := []extract.Page{
		{PageNumber: 1, Text: healthParagraph(350) + "\n\n" + healthParagraph(350)},
	}
	chunks := c.Chunk(pages, "doc-3")
	require.NotEmpty(t, chunks)
	for i, ch := range chunks {
		assert.Equal(t, "doc-3", ch.SourceDocumentID)
		assert.Contains(t, ch.ID, "doc-3_chunk_")
		if i > 0 {
			assert.Greater(t, ch.SequenceIndex, chunks[i-1].SequenceIndex)
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		text string
		want models.ChunkType
	}{
		{"header", "Managing Your Blood Pressure", models.ChunkHeader},
		{"list", "• eat less salt\n• walk every day\n• take your medicine", models.ChunkList},
		{"table", "systolic\t120\ndiastolic\t80", models.ChunkTable},
		{"plain text", "Most adults should have their blood pressure checked at least once a year.", models.ChunkText},
		{"short sentence with period", "See your doctor.", models.ChunkText},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.text))
		})
	}
}

func TestOversizedParagraphSplitsOnSentences(t *testing.T) {
	c := testChunker(t)

	// one giant paragraph well above the target size
	sentence := "Patients with diabetes should check their blood pressure, report new symptoms, watch their diet, and follow the treatment plan from their doctor. "
	giant := strings.TrimSpace(strings.Repeat(sentence, 60))

	chunks := c.Chunk([]extract.Page{{PageNumber: 1, Text: giant}}, "doc-4")
	require.NotEmpty(t, chunks)
	for _, ch := range chunks {
		assert.LessOrEqual(t, ch.WordCount, c.maxSize)
		assert.GreaterOrEqual(t, ch.WordCount, c.minSize)
	}
}
