package pdf

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
	"golang.org/x/sync/errgroup"

	"github.com/healthed/article-pipeline/internal/agent/extract"
	"github.com/healthed/article-pipeline/pkg/logger"
)

const maxPageWorkers = 4

// Extractor reads page text out of PDF documents.
type Extractor struct {
	logger logger.Logger
	// pages with fewer words than this are dropped as non-content
	minPageWords int
}

func NewExtractor(log logger.Logger) *Extractor {
	return &Extractor{
		logger:       log,
		minPageWords: 10,
	}
}

// Extract reads the whole document into memory and pulls plain text per page.
// Pages are extracted concurrently and returned in page order. Any failure to
// open or walk the document is an ExtractionError.
func (e *Extractor) Extract(ctx context.Context, reader io.Reader) (*extract.Result, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, &extract.ExtractionError{Err: err}
	}

	buf := bytes.NewReader(content)
	pdfReader, err := pdf.NewReader(buf, buf.Size())
	if err != nil {
		return nil, &extract.ExtractionError{Err: err}
	}

	numPages := pdfReader.NumPage()

	g, ctx := errgroup.WithContext(ctx)
	pageChan := make(chan extract.Page, numPages)
	sem := make(chan struct{}, maxPageWorkers)

	for i := 1; i <= numPages; i++ {
		pageNum := i
		g.Go(func() error {
			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return ctx.Err()
			}

			page := pdfReader.Page(pageNum)
			if page.V.IsNull() {
				return nil
			}

			text, err := page.GetPlainText(nil)
			if err != nil {
				// a single unreadable page is not fatal to the document
				e.logger.Warn("Skipping unreadable page",
					logger.Int("page", pageNum),
					logger.Error(err),
				)
				return nil
			}

			wordCount := len(strings.Fields(text))
			if wordCount < e.minPageWords {
				return nil
			}

			select {
			case pageChan <- extract.Page{
				PageNumber: pageNum,
				Text:       strings.TrimSpace(text),
				WordCount:  wordCount,
			}:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}

	go func() {
		g.Wait()
		close(pageChan)
	}()

	pages := make([]extract.Page, 0, numPages)
	for p := range pageChan {
		pages = append(pages, p)
	}

	if err := g.Wait(); err != nil {
		return nil, &extract.ExtractionError{Err: err}
	}

	sort.Slice(pages, func(i, j int) bool { return pages[i].PageNumber < pages[j].PageNumber })

	e.logger.Info("PDF extraction completed",
		logger.Int("totalPages", numPages),
		logger.Int("contentPages", len(pages)),
	)

	return &extract.Result{Pages: pages, PageCount: numPages}, nil
}
