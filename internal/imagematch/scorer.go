package imagematch

import (
	"sort"
	"strings"

	"github.com/healthed/article-pipeline/internal/models"
)

// Image is one candidate returned by the search provider.
type Image struct {
	ID             string
	URL            string
	ThumbnailURL   string
	Description    string
	AltDescription string
	Author         string
	AuthorURL      string
	Width          int
	Height         int
	RelevanceScore float64
}

var descriptionKeywords = []string{
	"health", "medical", "doctor", "hospital", "medicine",
	"wellness", "care", "treatment", "healthy", "fitness",
}

// ScoreImages ranks candidate images against an article by word overlap with
// the image description and alt text, plus bonuses for landscape aspect
// ratios, resolution, and domain keywords. Pure and deterministic; the input
// slice order only matters for breaking exact ties.
func ScoreImages(images []Image, title string, category models.Category, tags []string) []Image {
	searchText := strings.ToLower(title + " " + string(category) + " " + strings.Join(tags, " "))

	scored := make([]Image, len(images))
	copy(scored, images)

	for i := range scored {
		img := &scored[i]
		score := 0.0

		if img.Description != "" {
			score += jaccard(searchText, strings.ToLower(img.Description)) * 0.4
		}
		if img.AltDescription != "" {
			score += jaccard(searchText, strings.ToLower(img.AltDescription)) * 0.3
		}

		if img.Height > 0 {
			ratio := float64(img.Width) / float64(img.Height)
			switch {
			case ratio >= 1.2 && ratio <= 2.0:
				score += 0.1
			case ratio >= 0.8 && ratio < 1.2:
				score += 0.05
			}
		}

		pixels := img.Width * img.Height
		switch {
		case pixels > 1_000_000:
			score += 0.1
		case pixels > 500_000:
			score += 0.05
		}

		combined := strings.ToLower(img.Description + " " + img.AltDescription)
		hits := 0
		for _, kw := range descriptionKeywords {
			if strings.Contains(combined, kw) {
				hits++
			}
		}
		bonus := float64(hits) * 0.05
		if bonus > 0.2 {
			bonus = 0.2
		}
		score += bonus

		if score > 1 {
			score = 1
		}
		img.RelevanceScore = score
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].RelevanceScore > scored[j].RelevanceScore
	})
	return scored
}

// jaccard is word-set intersection over union.
func jaccard(a, b string) float64 {
	setA := wordSet(a)
	setB := wordSet(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 0
	}

	intersection := 0
	for w := range setA {
		if _, ok := setB[w]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func wordSet(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, w := range strings.Fields(s) {
		out[w] = struct{}{}
	}
	return out
}
