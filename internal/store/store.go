// Package store persists document processing state and the article corpus in
// an embedded sqlite database.
package store

import (
	"context"
	"errors"

	"github.com/healthed/article-pipeline/internal/models"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// DocumentStore holds per-document processing state. Only the pipeline
// writes; handlers read.
type DocumentStore interface {
	InsertDocument(ctx context.Context, doc *models.Document) error
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	UpdateDocument(ctx context.Context, doc *models.Document) error
	ListDocuments(ctx context.Context, status models.ProcessingStatus, limit, offset int) ([]models.Document, int, error)
	DeleteDocument(ctx context.Context, id string) error
}

// ArticleStore is the article corpus. ListActive is the duplicate detector's
// snapshot: it excludes rejected articles, which are not duplicate-blocking
// evidence.
type ArticleStore interface {
	InsertArticle(ctx context.Context, article *models.Article) error
	GetArticle(ctx context.Context, id string) (*models.Article, error)
	ListActive(ctx context.Context) ([]models.Article, error)
	ListArticles(ctx context.Context, category models.Category, status models.ArticleStatus, limit, offset int) ([]models.Article, int, error)
	UpdateArticleStatus(ctx context.Context, id string, status models.ArticleStatus) error
	DeleteArticle(ctx context.Context, id string) error
}
