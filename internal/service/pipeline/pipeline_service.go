package pipeline

import (
	"context"
	"mime/multipart"

	"github.com/healthed/article-pipeline/internal/agent/extract"
	"github.com/healthed/article-pipeline/internal/dedup"
	"github.com/healthed/article-pipeline/internal/imagematch"
	"github.com/healthed/article-pipeline/internal/models"
	"github.com/healthed/article-pipeline/pkg/queue"
)

// Service covers the document lifecycle, the processing pipeline itself and
// review operations on the generated articles.
type Service interface {
	Upload(ctx context.Context, file multipart.File, header *multipart.FileHeader) (*models.Document, error)
	UploadBatch(ctx context.Context, files []*multipart.FileHeader) ([]*models.Document, error)
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	ListDocuments(ctx context.Context, status models.ProcessingStatus, limit, offset int) ([]models.Document, int, error)
	DeleteDocument(ctx context.Context, id string) error

	// GetProgress returns the live queue snapshot for an in-flight
	// document, which updates faster than the stored record.
	GetProgress(ctx context.Context, id string) (*queue.TaskStatus, error)

	// ProcessDocument runs the uploaded document through extraction,
	// chunking, summarization, deduplication and image matching. It is
	// invoked by the queue worker.
	ProcessDocument(ctx context.Context, task *queue.DocumentTask) error

	GetArticle(ctx context.Context, id string) (*models.Article, error)
	ListArticles(ctx context.Context, category models.Category, status models.ArticleStatus, limit, offset int) ([]models.Article, int, error)
	UpdateArticleStatus(ctx context.Context, id string, status models.ArticleStatus) error
	DeleteArticle(ctx context.Context, id string) error
}

// Chunker splits extracted pages into scored chunks.
type Chunker interface {
	Chunk(pages []extract.Page, documentID string) []models.Chunk
}

// DuplicateChecker compares a candidate article against the active corpus.
type DuplicateChecker interface {
	CheckForDuplicates(candidate models.Candidate, corpus []models.Article) []dedup.Match
}

// ImageFinder picks a stock image for an article.
type ImageFinder interface {
	FindImage(ctx context.Context, title string, category models.Category, tags []string) (*imagematch.Image, error)
}
