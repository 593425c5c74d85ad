package handlers

import (
	"github.com/healthed/article-pipeline/internal/service/pipeline"
	"github.com/healthed/article-pipeline/pkg/logger"
)

type Handlers struct {
	Document *DocumentHandler
	Article  *ArticleHandler
}

func NewHandlers(svc pipeline.Service, log logger.Logger) *Handlers {
	return &Handlers{
		Document: NewDocumentHandler(svc, log),
		Article:  NewArticleHandler(svc, log),
	}
}
