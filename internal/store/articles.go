package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/healthed/article-pipeline/internal/models"
)

func (s *Store) InsertArticle(ctx context.Context, article *models.Article) error {
	tags, err := json.Marshal(article.Tags)
	if err != nil {
		return fmt.Errorf("marshal tags: %w", err)
	}

	query, args, err := sq.Insert("articles").
		Columns("id", "title", "category", "content", "tags", "image_url",
			"image_attribution", "reading_level", "status",
			"source_document_id", "source_chunk_id", "created_at", "updated_at").
		Values(article.ID, article.Title, string(article.Category), article.Content,
			string(tags), article.ImageURL, article.ImageAttribution,
			article.ReadingLevel, string(article.Status),
			article.SourceDocumentID, article.SourceChunkID,
			formatTime(article.CreatedAt), formatTime(article.UpdatedAt)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert article: %w", err)
	}
	return nil
}

func (s *Store) GetArticle(ctx context.Context, id string) (*models.Article, error) {
	query, args, err := articleSelect().Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	article, err := scanArticle(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get article: %w", err)
	}
	return article, nil
}

// ListActive returns the duplicate-detection corpus: every article whose
// status is not rejected, in stable id order.
func (s *Store) ListActive(ctx context.Context) ([]models.Article, error) {
	query, args, err := articleSelect().
		Where(sq.NotEq{"status": string(models.ArticleRejected)}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list active articles: %w", err)
	}
	defer rows.Close()

	var articles []models.Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("scan article: %w", err)
		}
		articles = append(articles, *article)
	}
	return articles, rows.Err()
}

func (s *Store) ListArticles(ctx context.Context, category models.Category, status models.ArticleStatus, limit, offset int) ([]models.Article, int, error) {
	if limit <= 0 {
		limit = 20
	}

	countQuery := sq.Select("COUNT(*)").From("articles")
	listQuery := articleSelect().OrderBy("created_at DESC").
		Limit(uint64(limit)).Offset(uint64(offset))
	if category != "" {
		countQuery = countQuery.Where(sq.Eq{"category": string(category)})
		listQuery = listQuery.Where(sq.Eq{"category": string(category)})
	}
	if status != "" {
		countQuery = countQuery.Where(sq.Eq{"status": string(status)})
		listQuery = listQuery.Where(sq.Eq{"status": string(status)})
	}

	query, args, err := countQuery.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build count: %w", err)
	}
	var total int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count articles: %w", err)
	}

	query, args, err = listQuery.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list articles: %w", err)
	}
	defer rows.Close()

	var articles []models.Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan article: %w", err)
		}
		articles = append(articles, *article)
	}
	return articles, total, rows.Err()
}

func (s *Store) UpdateArticleStatus(ctx context.Context, id string, status models.ArticleStatus) error {
	query, args, err := sq.Update("articles").
		Set("status", string(status)).
		Set("updated_at", formatTime(time.Now())).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update article status: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) DeleteArticle(ctx context.Context, id string) error {
	query, args, err := sq.Delete("articles").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete article: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func articleSelect() sq.SelectBuilder {
	return sq.Select("id", "title", "category", "content", "tags", "image_url",
		"image_attribution", "reading_level", "status",
		"source_document_id", "source_chunk_id", "created_at", "updated_at").
		From("articles")
}

func scanArticle(row rowScanner) (*models.Article, error) {
	var article models.Article
	var category, status, tags, createdAt, updatedAt string

	err := row.Scan(&article.ID, &article.Title, &category, &article.Content,
		&tags, &article.ImageURL, &article.ImageAttribution,
		&article.ReadingLevel, &status, &article.SourceDocumentID,
		&article.SourceChunkID, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	article.Category = models.Category(category)
	article.Status = models.ArticleStatus(status)
	if err := json.Unmarshal([]byte(tags), &article.Tags); err != nil {
		return nil, fmt.Errorf("unmarshal tags: %w", err)
	}
	article.CreatedAt = parseTime(createdAt)
	article.UpdatedAt = parseTime(updatedAt)
	return &article, nil
}
