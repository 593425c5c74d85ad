// Package dedup decides whether a candidate article duplicates one already in
// the corpus. Detection is two-staged: a cheap title comparison that
// short-circuits on near-exact renames, then corpus-wide TF-IDF cosine
// similarity over combined title/body/tag text. Lexical n-grams are enough at
// this corpus scale; the check is deterministic for a fixed corpus snapshot.
package dedup

import (
	"regexp"
	"sort"
	"strings"

	"github.com/healthed/article-pipeline/config"
	"github.com/healthed/article-pipeline/internal/models"
	"github.com/healthed/article-pipeline/pkg/logger"
)

// abbreviations expanded before vectorization, longest form first so "hbp"
// is not clobbered by the "bp" rule.
var abbreviationRules = []struct {
	pattern  *regexp.Regexp
	expanded string
}{
	{regexp.MustCompile(`\bdash\b`), "dietary approaches to stop hypertension"},
	{regexp.MustCompile(`\bhbp\b`), "high blood pressure"},
	{regexp.MustCompile(`\bbp\b`), "blood pressure"},
}

var (
	nonWordRe    = regexp.MustCompile(`[^\w\s.!?]`)
	multiSpaceRe = regexp.MustCompile(`\s+`)
)

// Match is one corpus article that crossed the similarity threshold.
type Match struct {
	ArticleID string
	Score     float64
}

// Detector runs the two-stage duplicate check. It never mutates the corpus
// it is handed and never fails: internal errors degrade to "no duplicates",
// because duplicate detection is a quality gate, not a pipeline stage that
// may kill a document.
type Detector struct {
	contentThreshold float64
	titleThreshold   float64
	vectorizer       *Vectorizer
	logger           logger.Logger
}

func New(cfg config.PipelineConfig, log logger.Logger) *Detector {
	return &Detector{
		contentThreshold: cfg.SimilarityThreshold,
		titleThreshold:   cfg.TitleSimilarityThreshold,
		vectorizer:       NewVectorizer(VectorizerConfig{}),
		logger:           log,
	}
}

// CheckForDuplicates compares the candidate against every corpus article and
// returns matches at or above the content threshold, sorted by descending
// score. Title-stage matches at or above the title threshold return
// immediately without vectorizing. An empty corpus yields no matches.
func (d *Detector) CheckForDuplicates(candidate models.Candidate, corpus []models.Article) []Match {
	if len(corpus) == 0 {
		return nil
	}

	if matches := d.titleStage(candidate, corpus); len(matches) > 0 {
		d.logger.Warn("Title-stage duplicate match",
			logger.String("title", candidate.Title),
			logger.Int("matches", len(matches)),
		)
		return matches
	}

	matches := d.contentStage(candidate, corpus)
	if len(matches) > 0 {
		d.logger.Warn("Content-stage duplicate match",
			logger.String("title", candidate.Title),
			logger.Int("matches", len(matches)),
			logger.Float64("topScore", matches[0].Score),
		)
	}
	return matches
}

// titleStage scores every corpus title against the candidate title and
// returns the ones at or above the title threshold. Title collisions are
// treated as certain duplicates; precision over recall.
func (d *Detector) titleStage(candidate models.Candidate, corpus []models.Article) []Match {
	var matches []Match
	for _, article := range corpus {
		sim := titleSimilarity(candidate.Title, article.Title)
		if sim >= d.titleThreshold {
			matches = append(matches, Match{ArticleID: article.ID, Score: sim})
		}
	}
	sortMatches(matches)
	return matches
}

func (d *Detector) contentStage(candidate models.Candidate, corpus []models.Article) []Match {
	texts := make([]string, 0, len(corpus)+1)
	ids := make([]string, 0, len(corpus))
	for _, article := range corpus {
		text := prepareText(article.Title, article.Content, article.Tags)
		if text == "" {
			continue
		}
		texts = append(texts, text)
		ids = append(ids, article.ID)
	}
	if len(texts) == 0 {
		return nil
	}
	texts = append(texts, prepareText(candidate.Title, candidate.Content, candidate.Tags))

	vectors := d.vectorizer.FitTransform(texts)
	if len(vectors) != len(texts) {
		return nil
	}
	candidateVec := vectors[len(vectors)-1]

	best := make(map[string]float64, len(ids))
	for i, id := range ids {
		score := Cosine(candidateVec, vectors[i])
		if score > best[id] {
			best[id] = score
		}
	}

	var matches []Match
	for id, score := range best {
		if score >= d.contentThreshold {
			matches = append(matches, Match{ArticleID: id, Score: score})
		}
	}
	sortMatches(matches)
	return matches
}

// prepareText builds the joint representation that is vectorized: the title
// twice (weighting it above the body), then body and tags, cleaned.
func prepareText(title, content string, tags []string) string {
	combined := strings.Join([]string{title + " " + title, content, strings.Join(tags, " ")}, " ")
	return cleanText(combined)
}

func cleanText(text string) string {
	text = strings.ToLower(text)
	for _, rule := range abbreviationRules {
		text = rule.pattern.ReplaceAllString(text, rule.expanded)
	}
	text = nonWordRe.ReplaceAllString(text, " ")
	text = multiSpaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// sortMatches orders by descending score, then by id so equal scores are
// stable across runs.
func sortMatches(matches []Match) {
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].ArticleID < matches[j].ArticleID
	})
}
