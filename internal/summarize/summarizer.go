// Package summarize defines the summarization oracle that turns a content
// chunk into a draft article, plus the category hinting that steers it.
package summarize

import (
	"context"
	"fmt"

	"github.com/healthed/article-pipeline/internal/models"
)

// Summary is the raw oracle output before category validation and
// reading-level estimation.
type Summary struct {
	Title      string   `json:"title"`
	Category   string   `json:"category"`
	Content    string   `json:"content"`
	Tags       []string `json:"medical_condition_tags"`
	Confidence float64  `json:"confidence_score"`
}

// SummarizationError marks a failed oracle call. The pipeline treats it as a
// per-chunk skip, never as a document failure.
type SummarizationError struct {
	ChunkID string
	Err     error
}

func (e *SummarizationError) Error() string {
	return fmt.Sprintf("summarization failed for chunk %s: %v", e.ChunkID, e.Err)
}

func (e *SummarizationError) Unwrap() error { return e.Err }

// Oracle maps a chunk to a title/body/tags summary. Implementations must
// honor ctx cancellation and deadlines.
type Oracle interface {
	Summarize(ctx context.Context, chunk models.Chunk, categoryHint models.Category) (*Summary, error)
}
