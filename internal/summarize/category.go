package summarize

import (
	"strings"

	"github.com/healthed/article-pipeline/internal/models"
)

var categoryKeywords = map[models.Category][]string{
	models.CategoryHypertension: {
		"blood pressure", "hypertension", "high blood pressure",
		"systolic", "diastolic", "bp",
	},
	models.CategoryDiabetes: {
		"diabetes", "blood sugar", "glucose", "insulin",
		"diabetic", "type 1", "type 2",
	},
	models.CategoryNutrition: {
		"nutrition", "diet", "food", "eating", "meal",
		"calories", "vitamins", "minerals", "healthy eating",
	},
	models.CategoryPhysicalActivity: {
		"exercise", "physical activity", "workout", "fitness",
		"walking", "running", "gym", "cardio", "strength training",
	},
	models.CategoryObesity: {
		"obesity", "overweight", "weight loss", "weight management",
		"bmi", "body mass index", "excess weight", "healthy weight",
		"portion control", "calorie counting",
	},
}

// SuggestCategory votes each category's keyword list against the chunk text
// and returns the winner, or General Health when nothing matches. Ties break
// in the fixed category order so the hint is deterministic.
func SuggestCategory(text string) models.Category {
	lower := strings.ToLower(text)

	best := models.CategoryGeneralHealth
	bestScore := 0
	for _, cat := range models.Categories() {
		keywords, ok := categoryKeywords[cat]
		if !ok {
			continue
		}
		score := 0
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				score++
			}
		}
		if score > bestScore {
			best = cat
			bestScore = score
		}
	}
	return best
}
