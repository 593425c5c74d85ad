package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/healthed/article-pipeline/internal/models"
	"github.com/healthed/article-pipeline/internal/service/pipeline"
	"github.com/healthed/article-pipeline/internal/store"
	"github.com/healthed/article-pipeline/pkg/logger"
)

type ArticleHandler struct {
	service pipeline.Service
	logger  logger.Logger
}

func NewArticleHandler(service pipeline.Service, log logger.Logger) *ArticleHandler {
	return &ArticleHandler{
		service: service,
		logger:  log,
	}
}

var allowedStatuses = map[models.ArticleStatus]bool{
	models.ArticleDraft:    true,
	models.ArticleReviewed: true,
	models.ArticleApproved: true,
	models.ArticleUploaded: true,
	models.ArticleRejected: true,
}

// Get returns a single generated article.
func (h *ArticleHandler) Get(c *gin.Context) {
	id := c.Param("id")

	article, err := h.service.GetArticle(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.handleError(c, http.StatusNotFound, "Article not found", err)
			return
		}
		h.handleError(c, http.StatusInternalServerError, "Failed to get article", err)
		return
	}

	c.JSON(http.StatusOK, article)
}

// List returns articles, optionally filtered by category and status.
func (h *ArticleHandler) List(c *gin.Context) {
	var category models.Category
	if v := c.Query("category"); v != "" {
		parsed, ok := models.ParseCategory(v)
		if !ok {
			h.handleError(c, http.StatusBadRequest, "Unknown category", nil)
			return
		}
		category = parsed
	}
	var status models.ArticleStatus
	if v := c.Query("status"); v != "" {
		status = models.ArticleStatus(v)
		if !allowedStatuses[status] {
			h.handleError(c, http.StatusBadRequest, "Unknown status", nil)
			return
		}
	}
	limit := queryInt(c, "limit", 20)
	offset := queryInt(c, "offset", 0)

	articles, total, err := h.service.ListArticles(c.Request.Context(), category, status, limit, offset)
	if err != nil {
		h.handleError(c, http.StatusInternalServerError, "Failed to list articles", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"articles": articles,
		"total":    total,
		"limit":    limit,
		"offset":   offset,
	})
}

type statusUpdateRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatus moves an article through the review lifecycle.
func (h *ArticleHandler) UpdateStatus(c *gin.Context) {
	id := c.Param("id")

	var req statusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.handleError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	status := models.ArticleStatus(req.Status)
	if !allowedStatuses[status] {
		h.handleError(c, http.StatusBadRequest, "Unknown status", nil)
		return
	}

	if err := h.service.UpdateArticleStatus(c.Request.Context(), id, status); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.handleError(c, http.StatusNotFound, "Article not found", err)
			return
		}
		h.handleError(c, http.StatusInternalServerError, "Failed to update article", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"articleId": id,
		"status":    string(status),
	})
}

// Delete removes an article permanently.
func (h *ArticleHandler) Delete(c *gin.Context) {
	id := c.Param("id")

	if err := h.service.DeleteArticle(c.Request.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			h.handleError(c, http.StatusNotFound, "Article not found", err)
			return
		}
		h.handleError(c, http.StatusInternalServerError, "Failed to delete article", err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *ArticleHandler) handleError(c *gin.Context, status int, message string, err error) {
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
