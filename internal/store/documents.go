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

const timeLayout = time.RFC3339Nano

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func (s *Store) InsertDocument(ctx context.Context, doc *models.Document) error {
	articleIDs, err := json.Marshal(doc.ArticleIDs)
	if err != nil {
		return fmt.Errorf("marshal article ids: %w", err)
	}
	log, err := json.Marshal(doc.ProcessingLog)
	if err != nil {
		return fmt.Errorf("marshal processing log: %w", err)
	}
	stats, err := json.Marshal(doc.Stats)
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}

	query, args, err := sq.Insert("documents").
		Columns("id", "filename", "original_filename", "storage_key",
			"file_size_bytes", "content_type", "status", "total_pages",
			"total_chunks", "article_ids", "error_message", "processing_log",
			"stats", "uploaded_at", "started_at", "completed_at").
		Values(doc.ID, doc.Filename, doc.OriginalFilename, doc.StorageKey,
			doc.FileSizeBytes, doc.ContentType, string(doc.Status), doc.TotalPages,
			doc.TotalChunks, string(articleIDs), doc.ErrorMessage, string(log),
			string(stats), formatTime(doc.UploadedAt), formatTime(doc.StartedAt),
			formatTime(doc.CompletedAt)).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (s *Store) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	query, args, err := documentSelect().Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	doc, err := scanDocument(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

func (s *Store) UpdateDocument(ctx context.Context, doc *models.Document) error {
	articleIDs, err := json.Marshal(doc.ArticleIDs)
	if err != nil {
		return fmt.Errorf("marshal article ids: %w", err)
	}
	log, err := json.Marshal(doc.ProcessingLog)
	if err != nil {
		return fmt.Errorf("marshal processing log: %w", err)
	}
	stats, err := json.Marshal(doc.Stats)
	if err != nil {
		return fmt.Errorf("marshal stats: %w", err)
	}

	query, args, err := sq.Update("documents").
		Set("status", string(doc.Status)).
		Set("total_pages", doc.TotalPages).
		Set("total_chunks", doc.TotalChunks).
		Set("article_ids", string(articleIDs)).
		Set("error_message", doc.ErrorMessage).
		Set("processing_log", string(log)).
		Set("stats", string(stats)).
		Set("started_at", formatTime(doc.StartedAt)).
		Set("completed_at", formatTime(doc.CompletedAt)).
		Where(sq.Eq{"id": doc.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ListDocuments(ctx context.Context, status models.ProcessingStatus, limit, offset int) ([]models.Document, int, error) {
	if limit <= 0 {
		limit = 20
	}

	countQuery := sq.Select("COUNT(*)").From("documents")
	listQuery := documentSelect().OrderBy("uploaded_at DESC").
		Limit(uint64(limit)).Offset(uint64(offset))
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
		return nil, 0, fmt.Errorf("count documents: %w", err)
	}

	query, args, err = listQuery.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("build list: %w", err)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, *doc)
	}
	return docs, total, rows.Err()
}

func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	query, args, err := sq.Delete("documents").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func documentSelect() sq.SelectBuilder {
	return sq.Select("id", "filename", "original_filename", "storage_key",
		"file_size_bytes", "content_type", "status", "total_pages",
		"total_chunks", "article_ids", "error_message", "processing_log",
		"stats", "uploaded_at", "started_at", "completed_at").
		From("documents")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*models.Document, error) {
	var doc models.Document
	var status, articleIDs, processingLog, stats string
	var uploadedAt, startedAt, completedAt string

	err := row.Scan(&doc.ID, &doc.Filename, &doc.OriginalFilename, &doc.StorageKey,
		&doc.FileSizeBytes, &doc.ContentType, &status, &doc.TotalPages,
		&doc.TotalChunks, &articleIDs, &doc.ErrorMessage, &processingLog,
		&stats, &uploadedAt, &startedAt, &completedAt)
	if err != nil {
		return nil, err
	}

	doc.Status = models.ProcessingStatus(status)
	if err := json.Unmarshal([]byte(articleIDs), &doc.ArticleIDs); err != nil {
		return nil, fmt.Errorf("unmarshal article ids: %w", err)
	}
	if err := json.Unmarshal([]byte(processingLog), &doc.ProcessingLog); err != nil {
		return nil, fmt.Errorf("unmarshal processing log: %w", err)
	}
	if err := json.Unmarshal([]byte(stats), &doc.Stats); err != nil {
		return nil, fmt.Errorf("unmarshal stats: %w", err)
	}
	doc.UploadedAt = parseTime(uploadedAt)
	doc.StartedAt = parseTime(startedAt)
	doc.CompletedAt = parseTime(completedAt)
	return &doc, nil
}
