package models

import (
	"time"
)

// Category is the fixed set of health topics an article can belong to.
type Category string

const (
	CategoryHypertension     Category = "Hypertension"
	CategoryDiabetes         Category = "Diabetes"
	CategoryNutrition        Category = "Nutrition"
	CategoryPhysicalActivity Category = "Physical Activity"
	CategoryObesity          Category = "Obesity"
	CategoryGeneralHealth    Category = "General Health"
)

// Categories lists every valid category, in display order.
func Categories() []Category {
	return []Category{
		CategoryHypertension,
		CategoryDiabetes,
		CategoryNutrition,
		CategoryPhysicalActivity,
		CategoryObesity,
		CategoryGeneralHealth,
	}
}

// ParseCategory maps a raw string onto a known category. The second return
// value is false when the input is unrecognized; callers decide whether to
// fall back to General Health.
func ParseCategory(s string) (Category, bool) {
	for _, c := range Categories() {
		if string(c) == s {
			return c, true
		}
	}
	return CategoryGeneralHealth, false
}

// ArticleStatus is the editorial lifecycle of a generated article.
type ArticleStatus string

const (
	ArticleDraft    ArticleStatus = "draft"
	ArticleReviewed ArticleStatus = "reviewed"
	ArticleApproved ArticleStatus = "approved"
	ArticleUploaded ArticleStatus = "uploaded"
	ArticleRejected ArticleStatus = "rejected"
)

// Article is an accepted, persisted health article. Rejected articles stay in
// the store but are excluded from the duplicate-detection corpus.
type Article struct {
	ID               string        `json:"id"`
	Title            string        `json:"title"`
	Category         Category      `json:"category"`
	Content          string        `json:"content"`
	Tags             []string      `json:"tags"`
	ImageURL         string        `json:"imageUrl,omitempty"`
	ImageAttribution string        `json:"imageAttribution,omitempty"`
	ReadingLevel     float64       `json:"readingLevel"`
	Status           ArticleStatus `json:"status"`
	SourceDocumentID string        `json:"sourceDocumentId"`
	SourceChunkID    string        `json:"sourceChunkId"`
	CreatedAt        time.Time     `json:"createdAt"`
	UpdatedAt        time.Time     `json:"updatedAt"`
}

// Candidate is a summarized unit that has not yet passed duplicate and image
// checks. It lives only for the duration of one pipeline step.
type Candidate struct {
	Title         string
	Category      Category
	Content       string
	Tags          []string
	ReadingLevel  float64
	Confidence    float64
	SourceChunkID string
}
