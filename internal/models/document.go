package models

import (
	"time"
)

// ProcessingStatus tracks a source document through the pipeline.
type ProcessingStatus string

const (
	StatusUploaded   ProcessingStatus = "uploaded"
	StatusParsing    ProcessingStatus = "parsing"
	StatusChunking   ProcessingStatus = "chunking"
	StatusProcessing ProcessingStatus = "processing"
	StatusCompleted  ProcessingStatus = "completed"
	StatusFailed     ProcessingStatus = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s ProcessingStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// ProcessingStats aggregates the outcome of one pipeline run.
type ProcessingStats struct {
	Pages             int     `json:"pages"`
	Chunks            int     `json:"chunks"`
	ArticlesGenerated int     `json:"articlesGenerated"`
	DuplicatesSkipped int     `json:"duplicatesSkipped"`
	ItemsSkipped      int     `json:"itemsSkipped"`
	ElapsedSeconds    float64 `json:"elapsedSeconds"`
}

// Document is the processing state record for one uploaded source document.
// Only the pipeline mutates it; handlers read it.
type Document struct {
	ID               string           `json:"id"`
	Filename         string           `json:"filename"`
	OriginalFilename string           `json:"originalFilename"`
	StorageKey       string           `json:"storageKey"`
	FileSizeBytes    int64            `json:"fileSizeBytes"`
	ContentType      string           `json:"contentType"`
	Status           ProcessingStatus `json:"status"`
	TotalPages       int              `json:"totalPages"`
	TotalChunks      int              `json:"totalChunks"`
	ArticleIDs       []string         `json:"articleIds"`
	ErrorMessage     string           `json:"errorMessage,omitempty"`
	ProcessingLog    []string         `json:"processingLog"`
	Stats            ProcessingStats  `json:"stats"`
	UploadedAt       time.Time        `json:"uploadedAt"`
	StartedAt        time.Time        `json:"startedAt,omitempty"`
	CompletedAt      time.Time        `json:"completedAt,omitempty"`
}
