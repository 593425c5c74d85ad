package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/healthed/article-pipeline/internal/agent/extract"
	"github.com/healthed/article-pipeline/internal/imagematch"
	"github.com/healthed/article-pipeline/internal/models"
	"github.com/healthed/article-pipeline/internal/readability"
	"github.com/healthed/article-pipeline/internal/summarize"
	"github.com/healthed/article-pipeline/pkg/logger"
	"github.com/healthed/article-pipeline/pkg/queue"
)

// ProcessDocument drives a document through the processing states. Permanent
// failures are recorded on the document itself, so a returned error only
// signals the queue to retry.
func (s *PipelineService) ProcessDocument(ctx context.Context, task *queue.DocumentTask) error {
	if task == nil || task.DocumentID == "" {
		return fmt.Errorf("invalid task: missing document id")
	}

	doc, err := s.documents.GetDocument(ctx, task.DocumentID)
	if err != nil {
		return fmt.Errorf("load document %s: %w", task.DocumentID, err)
	}
	if doc.Status.Terminal() {
		s.logger.Info("Skipping already processed document",
			logger.String("documentId", doc.ID),
			logger.String("status", string(doc.Status)),
		)
		return nil
	}

	started := time.Now()
	log := s.logger.With(logger.String("documentId", doc.ID))
	log.Info("Processing document", logger.String("filename", doc.OriginalFilename))

	doc.StartedAt = started.UTC()
	if err := s.transition(ctx, doc, models.StatusParsing, 0.1); err != nil {
		return err
	}

	pages, err := s.extractPages(ctx, doc)
	if err != nil {
		return s.fail(ctx, doc, fmt.Errorf("extract text: %w", err))
	}
	doc.TotalPages = len(pages.Pages)
	s.appendLog(doc, fmt.Sprintf("extracted %d pages", doc.TotalPages))

	if err := s.transition(ctx, doc, models.StatusChunking, 0.3); err != nil {
		return err
	}

	chunks := s.chunker.Chunk(pages.Pages, doc.ID)
	doc.TotalChunks = len(chunks)

	var relevant []models.Chunk
	for _, c := range chunks {
		if c.IsRelevant {
			relevant = append(relevant, c)
		}
	}
	s.appendLog(doc, fmt.Sprintf("produced %d chunks, %d relevant", len(chunks), len(relevant)))
	log.Info("Chunking complete",
		logger.Int("chunks", len(chunks)),
		logger.Int("relevant", len(relevant)),
	)

	if len(relevant) == 0 {
		s.appendLog(doc, "no relevant content found")
		return s.complete(ctx, doc, started)
	}

	if err := s.transition(ctx, doc, models.StatusProcessing, 0.5); err != nil {
		return err
	}

	corpus, err := s.articles.ListActive(ctx)
	if err != nil {
		// Dedup degrades to an empty corpus rather than blocking the run.
		log.Warn("Failed to load article corpus, skipping duplicate checks against existing articles",
			logger.Error(err),
		)
		corpus = nil
	}

	for i, chunk := range relevant {
		if err := ctx.Err(); err != nil {
			return s.fail(ctx, doc, fmt.Errorf("processing cancelled: %w", err))
		}

		article, err := s.processChunk(ctx, doc, chunk, corpus)
		if err != nil {
			var summaryErr *summarize.SummarizationError
			if errors.As(err, &summaryErr) && ctx.Err() == nil {
				doc.Stats.ItemsSkipped++
				s.appendLog(doc, fmt.Sprintf("chunk %s skipped: summarization failed", chunk.ID))
				log.Warn("Skipping chunk after summarization failure",
					logger.String("chunkId", chunk.ID),
					logger.Error(err),
				)
				continue
			}
			return s.fail(ctx, doc, err)
		}
		if article == nil {
			// Duplicate of an existing article.
			continue
		}

		doc.ArticleIDs = append(doc.ArticleIDs, article.ID)
		corpus = append(corpus, *article)

		// Pace the summarization backend between items.
		if i < len(relevant)-1 && s.cfg.SummarizeDelay > 0 {
			select {
			case <-time.After(s.cfg.SummarizeDelay):
			case <-ctx.Done():
				return s.fail(ctx, doc, fmt.Errorf("processing cancelled: %w", ctx.Err()))
			}
		}
	}

	return s.complete(ctx, doc, started)
}

func (s *PipelineService) extractPages(ctx context.Context, doc *models.Document) (*extract.Result, error) {
	reader, err := s.storage.Get(ctx, doc.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("fetch stored document: %w", err)
	}
	defer reader.Close()

	return s.extractor.Extract(ctx, reader)
}

// processChunk turns one relevant chunk into a stored article. It returns
// (nil, nil) when the chunk duplicates an existing article.
func (s *PipelineService) processChunk(ctx context.Context, doc *models.Document, chunk models.Chunk, corpus []models.Article) (*models.Article, error) {
	itemCtx := ctx
	if s.cfg.ItemTimeout > 0 {
		var cancel context.CancelFunc
		itemCtx, cancel = context.WithTimeout(ctx, s.cfg.ItemTimeout)
		defer cancel()
	}

	hint := summarize.SuggestCategory(chunk.Text)
	summary, err := s.oracle.Summarize(itemCtx, chunk, hint)
	if err != nil {
		return nil, err
	}

	category, ok := models.ParseCategory(summary.Category)
	if !ok {
		s.appendLog(doc, fmt.Sprintf("chunk %s: unrecognized category %q, filed under %s",
			chunk.ID, summary.Category, models.CategoryGeneralHealth))
		s.logger.Warn("Unrecognized category from summarizer",
			logger.String("documentId", doc.ID),
			logger.String("chunkId", chunk.ID),
			logger.String("category", summary.Category),
		)
		category = models.CategoryGeneralHealth
	}

	candidate := models.Candidate{
		Title:         summary.Title,
		Category:      category,
		Content:       summary.Content,
		Tags:          summary.Tags,
		ReadingLevel:  readability.Estimate(summary.Content),
		Confidence:    summary.Confidence,
		SourceChunkID: chunk.ID,
	}

	if matches := s.detector.CheckForDuplicates(candidate, corpus); len(matches) > 0 {
		doc.Stats.DuplicatesSkipped++
		s.appendLog(doc, fmt.Sprintf("chunk %s skipped: duplicate of article %s",
			chunk.ID, matches[0].ArticleID))
		s.logger.Info("Skipping duplicate article",
			logger.String("documentId", doc.ID),
			logger.String("chunkId", chunk.ID),
			logger.String("duplicateOf", matches[0].ArticleID),
			logger.Float64("similarity", matches[0].Score),
		)
		return nil, nil
	}

	now := time.Now().UTC()
	article := &models.Article{
		ID:               uuid.New().String(),
		Title:            candidate.Title,
		Category:         candidate.Category,
		Content:          candidate.Content,
		Tags:             candidate.Tags,
		ReadingLevel:     candidate.ReadingLevel,
		Status:           models.ArticleDraft,
		SourceDocumentID: doc.ID,
		SourceChunkID:    chunk.ID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if img, err := s.images.FindImage(itemCtx, article.Title, article.Category, article.Tags); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("image search: %w", err)
		}
		s.logger.Warn("Image search failed, continuing without image",
			logger.String("documentId", doc.ID),
			logger.String("articleTitle", article.Title),
			logger.Error(err),
		)
	} else if img != nil {
		article.ImageURL = img.URL
		article.ImageAttribution = imagematch.Attribution(*img)
	}

	if err := s.articles.InsertArticle(ctx, article); err != nil {
		return nil, fmt.Errorf("save article: %w", err)
	}

	doc.Stats.ArticlesGenerated++
	s.appendLog(doc, fmt.Sprintf("generated article %q in %s", article.Title, article.Category))
	return article, nil
}

func (s *PipelineService) transition(ctx context.Context, doc *models.Document, status models.ProcessingStatus, progress float64) error {
	doc.Status = status
	s.appendLog(doc, string(status))
	if err := s.documents.UpdateDocument(ctx, doc); err != nil {
		return fmt.Errorf("update document %s: %w", doc.ID, err)
	}
	s.saveSnapshot(ctx, doc, progress)
	return nil
}

func (s *PipelineService) complete(ctx context.Context, doc *models.Document, started time.Time) error {
	doc.Status = models.StatusCompleted
	doc.CompletedAt = time.Now().UTC()
	doc.Stats.Pages = doc.TotalPages
	doc.Stats.Chunks = doc.TotalChunks
	doc.Stats.ElapsedSeconds = time.Since(started).Seconds()
	s.appendLog(doc, fmt.Sprintf("completed: %d articles, %d duplicates skipped, %d items skipped",
		doc.Stats.ArticlesGenerated, doc.Stats.DuplicatesSkipped, doc.Stats.ItemsSkipped))

	if err := s.documents.UpdateDocument(ctx, doc); err != nil {
		return fmt.Errorf("update document %s: %w", doc.ID, err)
	}
	s.saveSnapshot(ctx, doc, 1.0)

	s.logger.Info("Document processing complete",
		logger.String("documentId", doc.ID),
		logger.Int("articles", doc.Stats.ArticlesGenerated),
		logger.Int("duplicatesSkipped", doc.Stats.DuplicatesSkipped),
		logger.Int("itemsSkipped", doc.Stats.ItemsSkipped),
		logger.Float64("elapsedSeconds", doc.Stats.ElapsedSeconds),
	)
	return nil
}

// fail records the failure on the document and reports it to the queue. The
// original error is returned so the task can be retried.
func (s *PipelineService) fail(ctx context.Context, doc *models.Document, cause error) error {
	doc.Status = models.StatusFailed
	doc.ErrorMessage = cause.Error()
	doc.CompletedAt = time.Now().UTC()
	s.appendLog(doc, "failed: "+cause.Error())

	// Use a fresh context so a cancelled run still records its failure.
	updateCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.documents.UpdateDocument(updateCtx, doc); err != nil {
		s.logger.Error("Failed to record document failure",
			logger.String("documentId", doc.ID),
			logger.Error(err),
		)
	}
	s.saveSnapshot(updateCtx, doc, 0)

	s.logger.Error("Document processing failed",
		logger.String("documentId", doc.ID),
		logger.Error(cause),
	)
	return cause
}

func (s *PipelineService) saveSnapshot(ctx context.Context, doc *models.Document, progress float64) {
	status := &queue.TaskStatus{
		DocumentID: doc.ID,
		Status:     string(doc.Status),
		Progress:   progress,
		Error:      doc.ErrorMessage,
		StartedAt:  doc.StartedAt,
		FinishedAt: doc.CompletedAt,
	}
	if err := s.queue.SaveStatus(ctx, status); err != nil {
		s.logger.Warn("Failed to save task status",
			logger.String("documentId", doc.ID),
			logger.Error(err),
		)
	}
}

func (s *PipelineService) appendLog(doc *models.Document, entry string) {
	doc.ProcessingLog = append(doc.ProcessingLog,
		fmt.Sprintf("%s %s", time.Now().UTC().Format(time.RFC3339), entry))
}
