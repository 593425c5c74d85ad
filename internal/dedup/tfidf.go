package dedup

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

var tokenRe = regexp.MustCompile(`\w+`)

// VectorizerConfig tunes the TF-IDF model. Zero values select the defaults
// used by the detector.
type VectorizerConfig struct {
	MaxFeatures int     // vocabulary cap, most frequent terms win
	NgramMin    int     // shortest n-gram, in words
	NgramMax    int     // longest n-gram, in words
	MaxDocFreq  float64 // terms present in more than this fraction of docs are dropped
}

func (c VectorizerConfig) withDefaults() VectorizerConfig {
	if c.MaxFeatures == 0 {
		c.MaxFeatures = 2000
	}
	if c.NgramMin == 0 {
		c.NgramMin = 1
	}
	if c.NgramMax == 0 {
		c.NgramMax = 3
	}
	if c.MaxDocFreq == 0 {
		c.MaxDocFreq = 0.9
	}
	return c
}

// Vectorizer builds L2-normalized TF-IDF vectors over word n-grams with
// English stopwords removed. It is stateless across calls; FitTransform
// learns the vocabulary from the documents it is given, so results are fully
// deterministic for a fixed document set.
type Vectorizer struct {
	cfg VectorizerConfig
}

func NewVectorizer(cfg VectorizerConfig) *Vectorizer {
	return &Vectorizer{cfg: cfg.withDefaults()}
}

// Vector is a sparse TF-IDF vector keyed by vocabulary index.
type Vector map[int]float64

// FitTransform learns a vocabulary from docs and returns one normalized
// vector per document, in input order.
func (v *Vectorizer) FitTransform(docs []string) []Vector {
	n := len(docs)
	if n == 0 {
		return nil
	}

	counts := make([]map[string]int, n)
	docFreq := make(map[string]int)
	totalFreq := make(map[string]int)

	for i, doc := range docs {
		terms := v.terms(doc)
		tc := make(map[string]int, len(terms))
		for _, t := range terms {
			tc[t]++
		}
		counts[i] = tc
		for t, c := range tc {
			docFreq[t]++
			totalFreq[t] += c
		}
	}

	// drop terms that appear in too many documents; they carry no signal
	maxDF := int(v.cfg.MaxDocFreq * float64(n))
	if maxDF < 1 {
		maxDF = 1
	}
	kept := make([]string, 0, len(docFreq))
	for t, df := range docFreq {
		if n > 1 && df > maxDF {
			continue
		}
		kept = append(kept, t)
	}

	// cap the vocabulary at the most frequent terms; ties break
	// lexicographically so the model is deterministic
	sort.Slice(kept, func(i, j int) bool {
		if totalFreq[kept[i]] != totalFreq[kept[j]] {
			return totalFreq[kept[i]] > totalFreq[kept[j]]
		}
		return kept[i] < kept[j]
	})
	if len(kept) > v.cfg.MaxFeatures {
		kept = kept[:v.cfg.MaxFeatures]
	}

	vocab := make(map[string]int, len(kept))
	for i, t := range kept {
		vocab[t] = i
	}

	// smoothed idf, as if one extra document contained every term
	idf := make([]float64, len(kept))
	for i, t := range kept {
		idf[i] = math.Log(float64(1+n)/float64(1+docFreq[t])) + 1
	}

	vectors := make([]Vector, n)
	for i, tc := range counts {
		vec := make(Vector)
		for t, c := range tc {
			idx, ok := vocab[t]
			if !ok {
				continue
			}
			vec[idx] = float64(c) * idf[idx]
		}
		normalize(vec)
		vectors[i] = vec
	}
	return vectors
}

// terms tokenizes, removes stopwords, and expands the remaining token stream
// into n-grams.
func (v *Vectorizer) terms(doc string) []string {
	raw := tokenRe.FindAllString(strings.ToLower(doc), -1)
	tokens := raw[:0]
	for _, t := range raw {
		if _, stop := englishStopwords[t]; !stop {
			tokens = append(tokens, t)
		}
	}

	var terms []string
	for size := v.cfg.NgramMin; size <= v.cfg.NgramMax; size++ {
		for i := 0; i+size <= len(tokens); i++ {
			terms = append(terms, strings.Join(tokens[i:i+size], " "))
		}
	}
	return terms
}

func normalize(vec Vector) {
	var sum float64
	for _, w := range vec {
		sum += w * w
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for i, w := range vec {
		vec[i] = w / norm
	}
}

// Cosine returns the cosine similarity of two normalized vectors.
func Cosine(a, b Vector) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	var dot float64
	for i, w := range a {
		dot += w * b[i]
	}
	return dot
}
