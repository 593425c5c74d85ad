package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/healthed/article-pipeline/internal/models"
	"github.com/healthed/article-pipeline/internal/service/pipeline"
	"github.com/healthed/article-pipeline/internal/store"
	"github.com/healthed/article-pipeline/pkg/logger"
)

type DocumentHandler struct {
	service pipeline.Service
	logger  logger.Logger
}

// ErrorResponse is the body returned on any failed request.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func NewDocumentHandler(service pipeline.Service, log logger.Logger) *DocumentHandler {
	return &DocumentHandler{
		service: service,
		logger:  log,
	}
}

// Upload accepts a PDF and queues it for processing.
func (h *DocumentHandler) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		h.handleError(c, http.StatusBadRequest, "Invalid file upload", err)
		return
	}
	defer file.Close()

	doc, err := h.service.Upload(c.Request.Context(), file, header)
	if err != nil {
		if errors.Is(err, pipeline.ErrInvalidFile) {
			h.handleError(c, http.StatusBadRequest, "Rejected file", err)
			return
		}
		h.handleError(c, http.StatusInternalServerError, "Failed to accept upload", err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"documentId": doc.ID,
		"filename":   doc.OriginalFilename,
		"status":     string(doc.Status),
		"uploadedAt": doc.UploadedAt,
	})
}

// Get returns a document with its processing log and stats.
func (h *DocumentHandler) Get(c *gin.Context) {
	id := c.Param("id")

	doc, err := h.service.GetDocument(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.handleError(c, http.StatusNotFound, "Document not found", err)
			return
		}
		h.handleError(c, http.StatusInternalServerError, "Failed to get document", err)
		return
	}

	c.JSON(http.StatusOK, doc)
}

// UploadBatch accepts several PDFs in one request.
func (h *DocumentHandler) UploadBatch(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		h.handleError(c, http.StatusBadRequest, "Invalid form data", err)
		return
	}

	files := form.File["files"]
	if len(files) == 0 {
		h.handleError(c, http.StatusBadRequest, "No files provided", nil)
		return
	}

	docs, err := h.service.UploadBatch(c.Request.Context(), files)
	if err != nil {
		if errors.Is(err, pipeline.ErrInvalidFile) {
			h.handleError(c, http.StatusBadRequest, "Rejected file", err)
			return
		}
		h.handleError(c, http.StatusInternalServerError, "Failed to accept uploads", err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"documents": docs,
		"count":     len(docs),
	})
}

// Progress returns the queue snapshot for an in-flight document.
func (h *DocumentHandler) Progress(c *gin.Context) {
	id := c.Param("id")

	status, err := h.service.GetProgress(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.handleError(c, http.StatusNotFound, "Document not found", err)
			return
		}
		h.handleError(c, http.StatusInternalServerError, "Failed to get progress", err)
		return
	}

	c.JSON(http.StatusOK, status)
}

// List returns documents, optionally filtered by status.
func (h *DocumentHandler) List(c *gin.Context) {
	var status models.ProcessingStatus
	if v := c.Query("status"); v != "" {
		status = models.ProcessingStatus(v)
	}
	limit := queryInt(c, "limit", 20)
	offset := queryInt(c, "offset", 0)

	docs, total, err := h.service.ListDocuments(c.Request.Context(), status, limit, offset)
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to list documents", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"documents": docs,
		"total":     total,
		"limit":     limit,
		"offset":    offset,
	})
}

// Delete removes a document, its stored object and any pending task.
func (h *DocumentHandler) Delete(c *gin.Context) {
	id := c.Param("id")

	if err := h.service.DeleteDocument(c.Request.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.handleError(c, http.StatusNotFound, "Document not found", err)
			return
		}
		h.handleError(c, http.StatusInternalServerError, "Failed to delete document", err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *DocumentHandler) handleError(c *gin.Context, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Message = err.Error()
		h.logger.Error(message,
			logger.String("path", c.Request.URL.Path),
			logger.Error(err),
		)
	}
	c.JSON(status, resp)
}

func queryInt(c *gin.Context, name string, fallback int) int {
	v := c.Query(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
