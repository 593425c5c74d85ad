package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthed/article-pipeline/config"
	"github.com/healthed/article-pipeline/internal/agent/extract"
	"github.com/healthed/article-pipeline/internal/dedup"
	"github.com/healthed/article-pipeline/internal/imagematch"
	"github.com/healthed/article-pipeline/internal/models"
	"github.com/healthed/article-pipeline/internal/store"
	"github.com/healthed/article-pipeline/internal/summarize"
	"github.com/healthed/article-pipeline/pkg/logger"
	"github.com/healthed/article-pipeline/pkg/queue"
)

type fakeExtractor struct {
	pages []extract.Page
	err   error
}

func (f *fakeExtractor) Extract(ctx context.Context, r io.Reader) (*extract.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &extract.Result{Pages: f.pages, PageCount: len(f.pages)}, nil
}

type fakeChunker struct {
	chunks []models.Chunk
}

func (f *fakeChunker) Chunk(pages []extract.Page, documentID string) []models.Chunk {
	return f.chunks
}

type fakeOracle struct {
	failChunks map[string]bool
	summaries  map[string]*summarize.Summary
	calls      int
}

func (f *fakeOracle) Summarize(ctx context.Context, chunk models.Chunk, hint models.Category) (*summarize.Summary, error) {
	f.calls++
	if f.failChunks[chunk.ID] {
		return nil, &summarize.SummarizationError{ChunkID: chunk.ID, Err: errors.New("backend unavailable")}
	}
	if s, ok := f.summaries[chunk.ID]; ok {
		return s, nil
	}
	return &summarize.Summary{
		Title:      "Article from " + chunk.ID,
		Category:   string(models.CategoryHypertension),
		Content:    "Managing blood pressure takes steady habits. " + chunk.Text,
		Tags:       []string{"hypertension"},
		Confidence: 0.9,
	}, nil
}

type fakeDetector struct {
	duplicateTitles map[string]string // candidate title -> existing article id
	corpusSizes     []int
}

func (f *fakeDetector) CheckForDuplicates(candidate models.Candidate, corpus []models.Article) []dedup.Match {
	f.corpusSizes = append(f.corpusSizes, len(corpus))
	if id, ok := f.duplicateTitles[candidate.Title]; ok {
		return []dedup.Match{{ArticleID: id, Score: 0.91}}
	}
	return nil
}

type fakeImageFinder struct {
	img *imagematch.Image
	err error
}

func (f *fakeImageFinder) FindImage(ctx context.Context, title string, category models.Category, tags []string) (*imagematch.Image, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.img, nil
}

type fakeStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: make(map[string][]byte)}
}

func (f *fakeStorage) Store(ctx context.Context, r io.Reader, key string, size int64, contentType string) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	return key, nil
}

func (f *fakeStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %s not found", key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeStorage) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, key)
	delete(f.objects, key)
	return nil
}

type fakeQueue struct {
	mu        sync.Mutex
	enqueued  []*queue.DocumentTask
	statuses  []*queue.TaskStatus
	cancelled []string
}

func (f *fakeQueue) Enqueue(ctx context.Context, task *queue.DocumentTask) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.enqueued = append(f.enqueued, task)
	return nil
}

func (f *fakeQueue) GetStatus(ctx context.Context, documentID string) (*queue.TaskStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.statuses) - 1; i >= 0; i-- {
		if f.statuses[i].DocumentID == documentID {
			return f.statuses[i], nil
		}
	}
	return nil, errors.New("not found")
}

func (f *fakeQueue) SaveStatus(ctx context.Context, status *queue.TaskStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statuses = append(f.statuses, status)
	return nil
}

func (f *fakeQueue) Cancel(ctx context.Context, documentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, documentID)
	return nil
}

func (f *fakeQueue) Close() error { return nil }

type env struct {
	svc       Service
	store     *store.Store
	storage   *fakeStorage
	queue     *fakeQueue
	extractor *fakeExtractor
	chunker   *fakeChunker
	oracle    *fakeOracle
	detector  *fakeDetector
	images    *fakeImageFinder
}

func newEnv(t *testing.T) *env {
	t.Helper()
	s, err := store.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	e := &env{
		store:     s,
		storage:   newFakeStorage(),
		queue:     &fakeQueue{},
		extractor: &fakeExtractor{pages: pagesFixture(3)},
		chunker:   &fakeChunker{},
		oracle:    &fakeOracle{failChunks: map[string]bool{}, summaries: map[string]*summarize.Summary{}},
		detector:  &fakeDetector{duplicateTitles: map[string]string{}},
		images:    &fakeImageFinder{},
	}

	cfg := config.Default().Pipeline
	cfg.SummarizeDelay = 0
	e.svc = NewService(e.extractor, e.chunker, e.oracle, e.detector, e.images,
		s, s, e.storage, e.queue, cfg, logger.NewTestLogger())
	return e
}

func pagesFixture(n int) []extract.Page {
	pages := make([]extract.Page, n)
	for i := range pages {
		pages[i] = extract.Page{PageNumber: i + 1, Text: "page text", WordCount: 200}
	}
	return pages
}

func chunksFixture(documentID string, relevant, irrelevant int) []models.Chunk {
	var chunks []models.Chunk
	for i := 0; i < relevant+irrelevant; i++ {
		chunks = append(chunks, models.Chunk{
			ID:               fmt.Sprintf("%s-chunk-%d", documentID, i),
			SourceDocumentID: documentID,
			PageNumber:       1,
			SequenceIndex:    i,
			Text:             "blood pressure and diet guidance",
			WordCount:        120,
			Type:             models.ChunkText,
			IsRelevant:       i < relevant,
			RelevanceScore:   0.5,
		})
	}
	return chunks
}

func uploadedDocument(t *testing.T, e *env, id string) *models.Document {
	t.Helper()
	doc := &models.Document{
		ID:               id,
		Filename:         id + ".pdf",
		OriginalFilename: "guide.pdf",
		StorageKey:       "documents/" + id + ".pdf",
		FileSizeBytes:    1024,
		ContentType:      "application/pdf",
		Status:           models.StatusUploaded,
		UploadedAt:       time.Now().UTC(),
	}
	require.NoError(t, e.store.InsertDocument(context.Background(), doc))
	e.storage.objects[doc.StorageKey] = []byte("%PDF-1.4 fixture")
	return doc
}

type nopFile struct {
	*bytes.Reader
}

func (nopFile) Close() error { return nil }

func uploadHeader(filename string, size int64) *multipart.FileHeader {
	return &multipart.FileHeader{Filename: filename, Size: size}
}

func TestUploadAcceptsPDF(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	file := nopFile{bytes.NewReader([]byte("%PDF-1.4 fixture"))}
	doc, err := e.svc.Upload(ctx, file, uploadHeader("patient-guide.pdf", 16))
	require.NoError(t, err)

	assert.Equal(t, models.StatusUploaded, doc.Status)
	assert.Equal(t, "patient-guide.pdf", doc.OriginalFilename)
	assert.Contains(t, e.storage.objects, doc.StorageKey)

	require.Len(t, e.queue.enqueued, 1)
	assert.Equal(t, doc.ID, e.queue.enqueued[0].DocumentID)

	stored, err := e.store.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.StorageKey, stored.StorageKey)
}

func TestUploadRejectsInvalidFiles(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	file := nopFile{bytes.NewReader([]byte("data"))}

	_, err := e.svc.Upload(ctx, file, uploadHeader("notes.txt", 4))
	assert.ErrorIs(t, err, ErrInvalidFile)

	_, err = e.svc.Upload(ctx, file, uploadHeader("empty.pdf", 0))
	assert.ErrorIs(t, err, ErrInvalidFile)

	_, err = e.svc.Upload(ctx, file, uploadHeader("huge.pdf", 200*1024*1024))
	assert.ErrorIs(t, err, ErrInvalidFile)

	assert.Empty(t, e.queue.enqueued)
}

func batchHeaders(t *testing.T, names ...string) []*multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, name := range names {
		part, err := writer.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte("%PDF-1.4 fixture"))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	form, err := multipart.NewReader(body, writer.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["files"]
}

func TestUploadBatch(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	docs, err := e.svc.UploadBatch(ctx, batchHeaders(t, "a.pdf", "b.pdf", "c.pdf"))
	require.NoError(t, err)
	assert.Len(t, docs, 3)
	assert.Len(t, e.queue.enqueued, 3)

	_, total, err := e.svc.ListDocuments(ctx, models.StatusUploaded, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
}

func TestUploadBatchRejectsMixedTypes(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.svc.UploadBatch(ctx, batchHeaders(t, "a.pdf", "notes.txt"))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidFile)
}

func TestProcessDocumentHappyPath(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	doc := uploadedDocument(t, e, "doc-1")
	e.chunker.chunks = chunksFixture(doc.ID, 3, 2)
	e.images.img = &imagematch.Image{
		URL:    "https://images.example.com/bp.jpg",
		Author: "Jane Doe",
	}

	err := e.svc.ProcessDocument(ctx, &queue.DocumentTask{DocumentID: doc.ID, StorageKey: doc.StorageKey})
	require.NoError(t, err)

	got, err := e.store.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)
	assert.Equal(t, 3, got.TotalPages)
	assert.Equal(t, 5, got.TotalChunks)
	assert.Len(t, got.ArticleIDs, 3)
	assert.Equal(t, 3, got.Stats.ArticlesGenerated)
	assert.Zero(t, got.Stats.ItemsSkipped)
	assert.False(t, got.CompletedAt.IsZero())

	article, err := e.store.GetArticle(ctx, got.ArticleIDs[0])
	require.NoError(t, err)
	assert.Equal(t, models.ArticleDraft, article.Status)
	assert.Equal(t, doc.ID, article.SourceDocumentID)
	assert.Equal(t, "https://images.example.com/bp.jpg", article.ImageURL)
	assert.Contains(t, article.ImageAttribution, "Jane Doe")
	assert.Greater(t, article.ReadingLevel, 0.0)

	// The last snapshot reports completion.
	last := e.queue.statuses[len(e.queue.statuses)-1]
	assert.Equal(t, "completed", last.Status)
	assert.Equal(t, 1.0, last.Progress)
}

func TestProcessDocumentSkipsFailedSummaries(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	doc := uploadedDocument(t, e, "doc-1")
	e.chunker.chunks = chunksFixture(doc.ID, 5, 0)
	e.oracle.failChunks["doc-1-chunk-1"] = true
	e.oracle.failChunks["doc-1-chunk-3"] = true
	// Distinct titles so the articles do not collide with each other.
	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("doc-1-chunk-%d", i)
		e.oracle.summaries[id] = &summarize.Summary{
			Title:      fmt.Sprintf("Guide part %d", i),
			Category:   string(models.CategoryDiabetes),
			Content:    "Checking glucose regularly keeps treatment on track.",
			Confidence: 0.8,
		}
	}

	err := e.svc.ProcessDocument(ctx, &queue.DocumentTask{DocumentID: doc.ID})
	require.NoError(t, err)

	got, err := e.store.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)
	assert.Equal(t, 3, got.Stats.ArticlesGenerated)
	assert.Equal(t, 2, got.Stats.ItemsSkipped)
	assert.Len(t, got.ArticleIDs, 3)
}

func TestProcessDocumentNoRelevantChunks(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	doc := uploadedDocument(t, e, "doc-1")
	e.chunker.chunks = chunksFixture(doc.ID, 0, 4)

	err := e.svc.ProcessDocument(ctx, &queue.DocumentTask{DocumentID: doc.ID})
	require.NoError(t, err)

	got, err := e.store.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)
	assert.Empty(t, got.ArticleIDs)
	assert.Zero(t, got.Stats.ArticlesGenerated)
	assert.Zero(t, e.oracle.calls)
}

func TestProcessDocumentExtractionFailure(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	doc := uploadedDocument(t, e, "doc-1")
	e.extractor.err = &extract.ExtractionError{Err: errors.New("encrypted document")}

	err := e.svc.ProcessDocument(ctx, &queue.DocumentTask{DocumentID: doc.ID})
	require.Error(t, err)

	got, getErr := e.store.GetDocument(ctx, doc.ID)
	require.NoError(t, getErr)
	assert.Equal(t, models.StatusFailed, got.Status)
	assert.Contains(t, got.ErrorMessage, "encrypted document")
	assert.False(t, got.CompletedAt.IsZero())
}

func TestProcessDocumentSkipsDuplicates(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	doc := uploadedDocument(t, e, "doc-1")
	e.chunker.chunks = chunksFixture(doc.ID, 2, 0)
	e.oracle.summaries["doc-1-chunk-0"] = &summarize.Summary{
		Title:      "Managing High Blood Pressure",
		Category:   string(models.CategoryHypertension),
		Content:    "Reduce salt and move more.",
		Confidence: 0.9,
	}
	e.detector.duplicateTitles["Managing High Blood Pressure"] = "existing-1"

	err := e.svc.ProcessDocument(ctx, &queue.DocumentTask{DocumentID: doc.ID})
	require.NoError(t, err)

	got, err := e.store.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Stats.ArticlesGenerated)
	assert.Equal(t, 1, got.Stats.DuplicatesSkipped)
	assert.Len(t, got.ArticleIDs, 1)
}

func TestProcessDocumentGrowsCorpusWithinRun(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	doc := uploadedDocument(t, e, "doc-1")
	e.chunker.chunks = chunksFixture(doc.ID, 3, 0)
	for i := 0; i < 3; i++ {
		id := fmt.Sprintf("doc-1-chunk-%d", i)
		e.oracle.summaries[id] = &summarize.Summary{
			Title:      fmt.Sprintf("Distinct article %d", i),
			Category:   string(models.CategoryNutrition),
			Content:    "Vegetables and whole grains support heart health.",
			Confidence: 0.9,
		}
	}

	require.NoError(t, e.svc.ProcessDocument(ctx, &queue.DocumentTask{DocumentID: doc.ID}))

	// Each check sees the articles generated before it.
	assert.Equal(t, []int{0, 1, 2}, e.detector.corpusSizes)
}

func TestProcessDocumentUnknownCategoryFallsBack(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	doc := uploadedDocument(t, e, "doc-1")
	e.chunker.chunks = chunksFixture(doc.ID, 1, 0)
	e.oracle.summaries["doc-1-chunk-0"] = &summarize.Summary{
		Title:      "Sleep and Recovery",
		Category:   "Sleep Hygiene",
		Content:    "Good sleep supports overall health.",
		Confidence: 0.7,
	}

	require.NoError(t, e.svc.ProcessDocument(ctx, &queue.DocumentTask{DocumentID: doc.ID}))

	got, err := e.store.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, got.ArticleIDs, 1)

	article, err := e.store.GetArticle(ctx, got.ArticleIDs[0])
	require.NoError(t, err)
	assert.Equal(t, models.CategoryGeneralHealth, article.Category)

	logged := strings.Join(got.ProcessingLog, "\n")
	assert.Contains(t, logged, "Sleep Hygiene")
	assert.Contains(t, logged, string(models.CategoryGeneralHealth))
}

func TestProcessDocumentImageFailureIsNonFatal(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	doc := uploadedDocument(t, e, "doc-1")
	e.chunker.chunks = chunksFixture(doc.ID, 1, 0)
	e.images.err = errors.New("image service down")

	require.NoError(t, e.svc.ProcessDocument(ctx, &queue.DocumentTask{DocumentID: doc.ID}))

	got, err := e.store.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, got.ArticleIDs, 1)

	article, err := e.store.GetArticle(ctx, got.ArticleIDs[0])
	require.NoError(t, err)
	assert.Empty(t, article.ImageURL)
	assert.Empty(t, article.ImageAttribution)
}

func TestProcessDocumentSkipsTerminalDocuments(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	doc := uploadedDocument(t, e, "doc-1")
	doc.Status = models.StatusCompleted
	require.NoError(t, e.store.UpdateDocument(ctx, doc))

	require.NoError(t, e.svc.ProcessDocument(ctx, &queue.DocumentTask{DocumentID: doc.ID}))
	assert.Zero(t, e.oracle.calls)
}

func TestProcessDocumentCancellation(t *testing.T) {
	e := newEnv(t)
	doc := uploadedDocument(t, e, "doc-1")
	e.chunker.chunks = chunksFixture(doc.ID, 2, 0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := e.svc.ProcessDocument(ctx, &queue.DocumentTask{DocumentID: doc.ID})
	require.Error(t, err)
}

func TestGetProgressReportsLatestSnapshot(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	doc := uploadedDocument(t, e, "doc-1")
	e.chunker.chunks = chunksFixture(doc.ID, 1, 0)

	require.NoError(t, e.svc.ProcessDocument(ctx, &queue.DocumentTask{DocumentID: doc.ID}))

	status, err := e.svc.GetProgress(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "completed", status.Status)
	assert.Equal(t, 1.0, status.Progress)

	_, err = e.svc.GetProgress(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeleteDocumentRemovesObject(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	doc := uploadedDocument(t, e, "doc-1")

	require.NoError(t, e.svc.DeleteDocument(ctx, doc.ID))
	assert.Contains(t, e.storage.deleted, doc.StorageKey)
	assert.Contains(t, e.queue.cancelled, doc.ID)

	_, err := e.store.GetDocument(ctx, doc.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestArticleReviewLifecycle(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	doc := uploadedDocument(t, e, "doc-1")
	e.chunker.chunks = chunksFixture(doc.ID, 1, 0)

	require.NoError(t, e.svc.ProcessDocument(ctx, &queue.DocumentTask{DocumentID: doc.ID}))

	got, err := e.store.GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	require.Len(t, got.ArticleIDs, 1)
	id := got.ArticleIDs[0]

	require.NoError(t, e.svc.UpdateArticleStatus(ctx, id, models.ArticleReviewed))
	require.NoError(t, e.svc.UpdateArticleStatus(ctx, id, models.ArticleApproved))

	article, err := e.svc.GetArticle(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.ArticleApproved, article.Status)

	articles, total, err := e.svc.ListArticles(ctx, "", models.ArticleApproved, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, articles, 1)
}
