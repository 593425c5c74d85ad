package extract

import (
	"context"
	"fmt"
	"io"
)

// Page is the page-indexed text the extractor yields.
type Page struct {
	PageNumber int    `json:"pageNumber"`
	Text       string `json:"text"`
	WordCount  int    `json:"wordCount"`
}

// Result is the complete extraction output for one document.
type Result struct {
	Pages     []Page `json:"pages"`
	PageCount int    `json:"pageCount"`
}

// ExtractionError marks an unreadable or corrupt source. It is fatal to the
// document; the pipeline transitions to failed when it sees one.
type ExtractionError struct {
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction failed: %v", e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// Extractor turns raw document bytes into page-indexed text.
type Extractor interface {
	Extract(ctx context.Context, reader io.Reader) (*Result, error)
}
