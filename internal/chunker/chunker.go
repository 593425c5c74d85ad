package chunker

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/healthed/article-pipeline/config"
	"github.com/healthed/article-pipeline/internal/agent/extract"
	"github.com/healthed/article-pipeline/internal/models"
	"github.com/healthed/article-pipeline/pkg/logger"
)

var (
	paragraphSplitRe = regexp.MustCompile(`\n\s*\n`)
	sentenceSplitRe  = regexp.MustCompile(`[.!?]+\s+`)
	numericLineRe    = regexp.MustCompile(`^\d+\s*$`)
	headerFooterRe   = regexp.MustCompile(`(?i)^(page|chapter|\d+)\s*\d*\s*$`)
	listMarkerRe     = regexp.MustCompile(`(?m)^\s*[•\-\*\d+\.\)]\s+`)
	spaceRunRe       = regexp.MustCompile(`\s{3,}`)
	whitespaceRe     = regexp.MustCompile(`\s+`)
)

// Chunker splits page text into size-bounded, paragraph-respecting chunks and
// keeps only the ones that score above the relevance threshold.
type Chunker struct {
	targetSize int
	minSize    int
	maxSize    int
	threshold  float64
	lexicon    Lexicon
	logger     logger.Logger
}

// New builds a chunker from pipeline configuration. A nil lexicon selects
// the default health keyword table.
func New(cfg config.PipelineConfig, lexicon Lexicon, log logger.Logger) *Chunker {
	if lexicon == nil {
		lexicon = DefaultLexicon()
	}
	target := cfg.ChunkTargetWords
	minSize := target / 4
	if minSize < 50 {
		minSize = 50
	}
	return &Chunker{
		targetSize: target,
		minSize:    minSize,
		maxSize:    target * 2,
		threshold:  cfg.RelevanceThreshold,
		lexicon:    lexicon,
		logger:     log,
	}
}

// MinChunkSize exposes the derived minimum word count, mostly for callers
// constructing test fixtures.
func (c *Chunker) MinChunkSize() int { return c.minSize }

// Chunk splits every page into scored chunks in page/sequence order, marking
// the ones above the relevance threshold. Malformed or empty pages contribute
// nothing; Chunk never fails.
func (c *Chunker) Chunk(pages []extract.Page, documentID string) []models.Chunk {
	var all []models.Chunk
	index := 0

	for _, page := range pages {
		pageChunks := c.chunkPage(page.Text, page.PageNumber, documentID, index)
		all = append(all, pageChunks...)
		index += len(pageChunks)
	}

	relevant := 0
	for i := range all {
		score := c.relevanceScore(&all[i])
		all[i].RelevanceScore = score
		if score >= c.threshold {
			all[i].IsRelevant = true
			relevant++
		}
	}

	c.logger.Info("Chunking completed",
		logger.String("documentId", documentID),
		logger.Int("totalChunks", len(all)),
		logger.Int("relevantChunks", relevant),
	)
	return all
}

func (c *Chunker) chunkPage(text string, pageNumber int, documentID string, startIndex int) []models.Chunk {
	paragraphs := c.paragraphs(text)
	if len(paragraphs) == 0 {
		return nil
	}

	var chunks []models.Chunk
	var current []string
	currentWords := 0
	index := startIndex

	emit := func() {
		joined := strings.TrimSpace(strings.Join(current, "\n\n"))
		if joined == "" {
			return
		}
		chunks = append(chunks, c.newChunk(joined, index, pageNumber, documentID))
		index++
	}

	for _, para := range paragraphs {
		paraWords := len(strings.Fields(para))

		// emit once the next paragraph would overflow and the chunk is
		// already big enough to stand alone
		if currentWords+paraWords > c.maxSize && currentWords >= c.minSize {
			emit()
			current = []string{para}
			currentWords = paraWords
			continue
		}
		current = append(current, para)
		currentWords += paraWords
	}

	// the trailing remainder is dropped unless it reaches the minimum
	if currentWords >= c.minSize {
		emit()
	}

	return chunks
}

// paragraphs strips header/footer noise and returns cleaned paragraphs.
func (c *Chunker) paragraphs(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var out []string
	for _, raw := range paragraphSplitRe.Split(text, -1) {
		var kept []string
		for _, line := range strings.Split(raw, "\n") {
			line = strings.TrimSpace(line)
			if len(line) < 10 {
				continue
			}
			if numericLineRe.MatchString(line) || headerFooterRe.MatchString(line) {
				continue
			}
			kept = append(kept, line)
		}
		para := strings.TrimSpace(whitespaceRe.ReplaceAllString(strings.Join(kept, " "), " "))
		if para == "" {
			continue
		}
		out = append(out, c.splitOversized(para)...)
	}
	return out
}

// splitOversized breaks a paragraph longer than the target size on sentence
// boundaries so no single fragment forces an oversized chunk.
func (c *Chunker) splitOversized(para string) []string {
	if len(strings.Fields(para)) <= c.targetSize {
		return []string{para}
	}

	var out []string
	var current string
	currentWords := 0

	for _, sentence := range sentenceSplitRe.Split(para, -1) {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}
		sentenceWords := len(strings.Fields(sentence))

		if currentWords+sentenceWords > c.targetSize && currentWords > 0 {
			out = append(out, current)
			current = sentence
			currentWords = sentenceWords
			continue
		}
		if current == "" {
			current = sentence
		} else {
			current += ". " + sentence
		}
		currentWords += sentenceWords
	}
	if current != "" {
		out = append(out, current)
	}
	return out
}

func (c *Chunker) newChunk(text string, index, pageNumber int, documentID string) models.Chunk {
	return models.Chunk{
		ID:               fmt.Sprintf("%s_chunk_%d", documentID, index),
		SourceDocumentID: documentID,
		PageNumber:       pageNumber,
		SequenceIndex:    index,
		Text:             text,
		WordCount:        len(strings.Fields(text)),
		Type:             classify(text),
		Keywords:         c.detectKeywords(text),
	}
}

// classify applies structural heuristics to tag a chunk as header, list,
// table, or plain text.
func classify(text string) models.ChunkType {
	words := strings.Fields(text)
	if len(words) <= 10 && isTitleCase(text) && !strings.HasSuffix(text, ".") &&
		!strings.HasSuffix(text, "!") && !strings.HasSuffix(text, "?") {
		return models.ChunkHeader
	}
	if listMarkerRe.MatchString(text) {
		return models.ChunkList
	}
	if strings.Contains(text, "\t") || spaceRunRe.MatchString(text) {
		return models.ChunkTable
	}
	return models.ChunkText
}

// isTitleCase reports whether every word starts with an uppercase letter and
// continues in lowercase.
func isTitleCase(s string) bool {
	sawWord := false
	for _, word := range strings.Fields(s) {
		first := true
		for _, r := range word {
			if !unicode.IsLetter(r) {
				continue
			}
			if first {
				if !unicode.IsUpper(r) {
					return false
				}
				first = false
				sawWord = true
			} else if unicode.IsUpper(r) {
				return false
			}
		}
	}
	return sawWord
}

func (c *Chunker) detectKeywords(text string) []string {
	lower := strings.ToLower(text)
	seen := make(map[string]struct{})
	var found []string
	for _, cat := range c.lexicon {
		for _, kw := range cat.Keywords {
			if _, dup := seen[kw]; dup {
				continue
			}
			if strings.Contains(lower, kw) {
				seen[kw] = struct{}{}
				found = append(found, kw)
			}
		}
	}
	return found
}

// relevanceScore computes the weighted category hit-density score with a
// diversity bonus and a short-chunk penalty. The result is deterministic for
// a given text and lexicon and always falls in [0,1].
func (c *Chunker) relevanceScore(chunk *models.Chunk) float64 {
	if chunk.Text == "" || chunk.WordCount == 0 {
		return 0
	}
	lower := strings.ToLower(chunk.Text)

	weighted := 0.0
	categoriesPresent := 0
	for _, cat := range c.lexicon {
		hits := 0
		for _, kw := range cat.Keywords {
			if strings.Contains(lower, kw) {
				hits++
			}
		}
		if hits > 0 {
			categoriesPresent++
		}
		if len(cat.Keywords) > 0 {
			weighted += float64(hits) / float64(len(cat.Keywords)) * cat.Weight
		}
	}

	diversity := float64(categoriesPresent) * 0.1
	if diversity > 0.3 {
		diversity = 0.3
	}

	lengthFactor := float64(chunk.WordCount) / float64(c.minSize)
	if lengthFactor > 1 {
		lengthFactor = 1
	}

	score := (weighted + diversity) * lengthFactor
	if score > 1 {
		score = 1
	}
	return score
}
