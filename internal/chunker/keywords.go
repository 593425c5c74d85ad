package chunker

// KeywordCategory is one weighted group of domain terms used for relevance
// scoring. Weights across a lexicon sum to 1.0.
type KeywordCategory struct {
	Name     string
	Weight   float64
	Keywords []string
}

// Lexicon is the full keyword table the relevance scorer runs against.
type Lexicon []KeywordCategory

// DefaultLexicon returns the health-domain keyword table. Callers that need
// different terms or weights pass their own lexicon to New.
func DefaultLexicon() Lexicon {
	return Lexicon{
		{
			Name:   "conditions",
			Weight: 0.30,
			Keywords: []string{
				"diabetes", "hypertension", "blood pressure", "heart disease",
				"kidney disease", "chronic", "condition", "disease", "disorder",
				"syndrome", "illness", "medical", "health", "clinical",
				"obesity", "overweight", "obese", "weight gain", "excess weight",
				"body mass index", "bmi", "morbid obesity", "weight problem",
			},
		},
		{
			Name:   "treatments",
			Weight: 0.25,
			Keywords: []string{
				"medication", "medicine", "treatment", "therapy", "prescription",
				"drug", "dose", "dosage", "pills", "tablets", "injection",
				"weight loss surgery", "bariatric surgery", "gastric bypass",
				"weight management", "weight loss program",
			},
		},
		{
			Name:   "symptoms",
			Weight: 0.20,
			Keywords: []string{
				"symptoms", "signs", "pain", "ache", "fever", "fatigue",
				"nausea", "dizziness", "shortness of breath", "chest pain",
				"joint pain", "back pain", "sleep apnea", "snoring",
			},
		},
		{
			Name:   "lifestyle",
			Weight: 0.15,
			Keywords: []string{
				"diet", "nutrition", "exercise", "physical activity", "weight",
				"lifestyle", "eating", "food", "salt", "sodium", "calories",
				"weight loss", "healthy weight", "portion control", "portion size",
				"calorie counting", "meal planning", "healthy eating", "balanced diet",
				"weight management", "fitness", "cardio", "strength training",
			},
		},
		{
			Name:   "care",
			Weight: 0.10,
			Keywords: []string{
				"doctor", "physician", "nurse", "healthcare", "hospital",
				"clinic", "appointment", "checkup", "monitoring", "care",
				"nutritionist", "dietitian", "weight counselor", "fitness trainer",
				"weight loss specialist", "endocrinologist",
			},
		},
	}
}
