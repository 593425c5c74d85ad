package pipeline

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/healthed/article-pipeline/config"
	"github.com/healthed/article-pipeline/internal/agent/extract"
	"github.com/healthed/article-pipeline/internal/models"
	"github.com/healthed/article-pipeline/internal/store"
	"github.com/healthed/article-pipeline/internal/summarize"
	"github.com/healthed/article-pipeline/pkg/logger"
	"github.com/healthed/article-pipeline/pkg/queue"
	"github.com/healthed/article-pipeline/pkg/storage"
)

// ErrInvalidFile rejects uploads before anything is stored.
var ErrInvalidFile = errors.New("invalid file")

const maxConcurrentUploads = 5

type PipelineService struct {
	extractor extract.Extractor
	chunker   Chunker
	oracle    summarize.Oracle
	detector  DuplicateChecker
	images    ImageFinder

	documents store.DocumentStore
	articles  store.ArticleStore
	storage   storage.Storage
	queue     queue.Queue

	cfg    config.PipelineConfig
	logger logger.Logger
}

// NewService wires the pipeline stages together.
func NewService(
	extractor extract.Extractor,
	chunker Chunker,
	oracle summarize.Oracle,
	detector DuplicateChecker,
	images ImageFinder,
	documents store.DocumentStore,
	articles store.ArticleStore,
	objectStore storage.Storage,
	q queue.Queue,
	cfg config.PipelineConfig,
	log logger.Logger,
) Service {
	return &PipelineService{
		extractor: extractor,
		chunker:   chunker,
		oracle:    oracle,
		detector:  detector,
		images:    images,
		documents: documents,
		articles:  articles,
		storage:   objectStore,
		queue:     q,
		cfg:       cfg,
		logger:    log,
	}
}

func (s *PipelineService) Upload(ctx context.Context, file multipart.File, header *multipart.FileHeader) (*models.Document, error) {
	if err := s.validateUpload(header); err != nil {
		s.logger.Warn("Rejected upload",
			logger.String("filename", header.Filename),
			logger.Error(err),
		)
		return nil, err
	}

	id := uuid.New().String()
	key := fmt.Sprintf("documents/%s%s", id, strings.ToLower(filepath.Ext(header.Filename)))

	if _, err := s.storage.Store(ctx, file, key, header.Size, "application/pdf"); err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}

	doc := &models.Document{
		ID:               id,
		Filename:         filepath.Base(key),
		OriginalFilename: header.Filename,
		StorageKey:       key,
		FileSizeBytes:    header.Size,
		ContentType:      "application/pdf",
		Status:           models.StatusUploaded,
		ProcessingLog:    []string{"document uploaded"},
		UploadedAt:       time.Now().UTC(),
	}
	if err := s.documents.InsertDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("save document: %w", err)
	}

	task := &queue.DocumentTask{
		DocumentID: doc.ID,
		StorageKey: doc.StorageKey,
		Filename:   doc.OriginalFilename,
		EnqueuedAt: time.Now().UTC(),
	}
	if err := s.queue.Enqueue(ctx, task); err != nil {
		return nil, fmt.Errorf("enqueue document: %w", err)
	}

	s.logger.Info("Document accepted",
		logger.String("documentId", doc.ID),
		logger.String("filename", doc.OriginalFilename),
		logger.Int64("size", doc.FileSizeBytes),
	)
	return doc, nil
}

// UploadBatch accepts several files at once. Each file is validated and
// enqueued independently; the first failure aborts the rest but documents
// already accepted stay queued.
func (s *PipelineService) UploadBatch(ctx context.Context, files []*multipart.FileHeader) ([]*models.Document, error) {
	docs := make([]*models.Document, 0, len(files))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentUploads)

	for _, header := range files {
		header := header
		g.Go(func() error {
			file, err := header.Open()
			if err != nil {
				return fmt.Errorf("open file %s: %w", header.Filename, err)
			}
			defer file.Close()

			doc, err := s.Upload(ctx, file, header)
			if err != nil {
				return fmt.Errorf("upload %s: %w", header.Filename, err)
			}

			mu.Lock()
			docs = append(docs, doc)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return docs, err
	}
	return docs, nil
}

func (s *PipelineService) validateUpload(header *multipart.FileHeader) error {
	if header.Size == 0 {
		return fmt.Errorf("%w: empty file", ErrInvalidFile)
	}
	maxBytes := int64(s.cfg.MaxFileSizeMB) * 1024 * 1024
	if maxBytes > 0 && header.Size > maxBytes {
		return fmt.Errorf("%w: file exceeds %d MB", ErrInvalidFile, s.cfg.MaxFileSizeMB)
	}
	if ext := strings.ToLower(filepath.Ext(header.Filename)); ext != ".pdf" {
		return fmt.Errorf("%w: unsupported file type %q", ErrInvalidFile, ext)
	}
	return nil
}

func (s *PipelineService) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	return s.documents.GetDocument(ctx, id)
}

func (s *PipelineService) ListDocuments(ctx context.Context, status models.ProcessingStatus, limit, offset int) ([]models.Document, int, error) {
	return s.documents.ListDocuments(ctx, status, limit, offset)
}

func (s *PipelineService) GetProgress(ctx context.Context, id string) (*queue.TaskStatus, error) {
	if _, err := s.documents.GetDocument(ctx, id); err != nil {
		return nil, err
	}
	return s.queue.GetStatus(ctx, id)
}

func (s *PipelineService) DeleteDocument(ctx context.Context, id string) error {
	doc, err := s.documents.GetDocument(ctx, id)
	if err != nil {
		return err
	}

	if err := s.storage.Delete(ctx, doc.StorageKey); err != nil {
		// The database row is authoritative, a stale object is harmless.
		s.logger.Warn("Failed to delete stored object",
			logger.String("documentId", id),
			logger.String("key", doc.StorageKey),
			logger.Error(err),
		)
	}

	if !doc.Status.Terminal() {
		if err := s.queue.Cancel(ctx, id); err != nil {
			s.logger.Warn("Failed to cancel pending task",
				logger.String("documentId", id),
				logger.Error(err),
			)
		}
	}

	return s.documents.DeleteDocument(ctx, id)
}

func (s *PipelineService) GetArticle(ctx context.Context, id string) (*models.Article, error) {
	return s.articles.GetArticle(ctx, id)
}

func (s *PipelineService) ListArticles(ctx context.Context, category models.Category, status models.ArticleStatus, limit, offset int) ([]models.Article, int, error) {
	return s.articles.ListArticles(ctx, category, status, limit, offset)
}

func (s *PipelineService) UpdateArticleStatus(ctx context.Context, id string, status models.ArticleStatus) error {
	if err := s.articles.UpdateArticleStatus(ctx, id, status); err != nil {
		return err
	}
	s.logger.Info("Article status updated",
		logger.String("articleId", id),
		logger.String("status", string(status)),
	)
	return nil
}

func (s *PipelineService) DeleteArticle(ctx context.Context, id string) error {
	return s.articles.DeleteArticle(ctx, id)
}
