// Package imagematch finds a stock image for a generated article. Candidate
// images come from an external search provider; ranking is a pure, local
// scoring pass so results are reproducible for a fixed candidate list.
package imagematch

import (
	"context"
	"fmt"
	"strings"

	"github.com/healthed/article-pipeline/internal/models"
	"github.com/healthed/article-pipeline/pkg/logger"
)

// SearchProvider is the external keyed image search. Empty results are not
// an error.
type SearchProvider interface {
	Search(ctx context.Context, query string) ([]Image, error)
}

var categorySearchTerms = map[models.Category][]string{
	models.CategoryHypertension: {
		"blood pressure monitor", "healthy heart", "medical checkup",
		"stethoscope", "blood pressure cuff",
	},
	models.CategoryDiabetes: {
		"blood glucose meter", "healthy food", "diabetes testing",
		"insulin pen", "blood sugar", "diabetic care",
	},
	models.CategoryNutrition: {
		"healthy food", "fresh vegetables", "balanced diet",
		"nutritious meal", "fruits vegetables", "healthy eating",
	},
	models.CategoryPhysicalActivity: {
		"exercise fitness", "walking outdoors", "gym workout",
		"yoga stretching", "running jogging", "active lifestyle",
	},
	models.CategoryGeneralHealth: {
		"healthy lifestyle", "wellness concept", "medical care",
		"health checkup", "preventive care", "health and wellness",
	},
}

var fallbackSearchTerms = []string{
	"health and wellness", "medical care", "healthy lifestyle",
	"doctor patient", "health concept", "wellness",
}

var titleStopwords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {},
	"on": {}, "at": {}, "to": {}, "for": {}, "of": {}, "with": {}, "by": {},
	"how": {}, "what": {}, "when": {}, "where": {}, "why": {},
}

// Matcher queries the provider and picks the best-scoring image.
type Matcher struct {
	provider SearchProvider
	logger   logger.Logger
}

func NewMatcher(provider SearchProvider, log logger.Logger) *Matcher {
	return &Matcher{provider: provider, logger: log}
}

// FindImage returns the highest-scoring candidate across up to five search
// queries, or nil when nothing suitable turned up. Provider errors on a
// single query are logged and skipped.
func (m *Matcher) FindImage(ctx context.Context, title string, category models.Category, tags []string) (*Image, error) {
	var best *Image

	for _, query := range buildQueries(title, category, tags) {
		images, err := m.provider.Search(ctx, query)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("image search cancelled: %w", ctx.Err())
			}
			m.logger.Warn("Image search query failed",
				logger.String("query", query),
				logger.Error(err),
			)
			continue
		}
		if len(images) == 0 {
			continue
		}

		ranked := ScoreImages(images, title, category, tags)
		if best == nil || ranked[0].RelevanceScore > best.RelevanceScore {
			top := ranked[0]
			best = &top
		}
	}

	if best == nil {
		m.logger.Info("No suitable image found", logger.String("title", title))
		return nil, nil
	}
	return best, nil
}

// Attribution returns the credit line the article stores with the image.
func Attribution(img Image) string {
	if img.Author == "" {
		return ""
	}
	return fmt.Sprintf("Photo by %s on Unsplash", img.Author)
}

// buildQueries assembles category terms, title keywords, and tags into at
// most five search queries.
func buildQueries(title string, category models.Category, tags []string) []string {
	var queries []string
	seen := make(map[string]struct{})
	add := func(q string) {
		q = strings.TrimSpace(q)
		if q == "" {
			return
		}
		if _, dup := seen[q]; dup {
			return
		}
		seen[q] = struct{}{}
		queries = append(queries, q)
	}

	for _, term := range categorySearchTerms[category] {
		add(term)
	}

	if kw := titleKeywords(title); kw != "" {
		add(kw)
	}

	for i, tag := range tags {
		if i >= 3 {
			break
		}
		add(strings.ReplaceAll(strings.ToLower(tag), "_", " "))
	}

	for _, term := range fallbackSearchTerms {
		if len(queries) >= 3 {
			break
		}
		add(term)
	}

	if len(queries) > 5 {
		queries = queries[:5]
	}
	return queries
}

// titleKeywords keeps up to four non-stopword title words as one query.
func titleKeywords(title string) string {
	var kept []string
	for _, w := range strings.Fields(strings.ToLower(title)) {
		if _, stop := titleStopwords[w]; stop || len(w) <= 2 {
			continue
		}
		kept = append(kept, w)
		if len(kept) == 4 {
			break
		}
	}
	return strings.Join(kept, " ")
}
