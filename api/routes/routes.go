package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/healthed/article-pipeline/api/handlers"
	"github.com/healthed/article-pipeline/api/middleware"
)

// SetupRoutes registers all API routes.
func SetupRoutes(r *gin.Engine, h *handlers.Handlers) {
	r.Use(middleware.CORS())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")

	docs := v1.Group("/documents")
	{
		docs.POST("/upload", h.Document.Upload)
		docs.POST("/batch", h.Document.UploadBatch)
		docs.GET("", h.Document.List)
		docs.GET("/:id", h.Document.Get)
		docs.GET("/:id/progress", h.Document.Progress)
		docs.DELETE("/:id", h.Document.Delete)
	}

	articles := v1.Group("/articles")
	{
		articles.GET("", h.Article.List)
		articles.GET("/:id", h.Article.Get)
		articles.PATCH("/:id/status", h.Article.UpdateStatus)
		articles.DELETE("/:id", h.Article.Delete)
	}
}
