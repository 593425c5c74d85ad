package models

// ChunkType classifies the structure of a content chunk.
type ChunkType string

const (
	ChunkText   ChunkType = "text"
	ChunkHeader ChunkType = "header"
	ChunkList   ChunkType = "list"
	ChunkTable  ChunkType = "table"
)

// Chunk is a bounded span of page text, the minimal unit of summarization.
// Chunks are immutable once produced by the chunker and are not persisted
// beyond the id reference the resulting article carries.
type Chunk struct {
	ID               string    `json:"id"`
	SourceDocumentID string    `json:"sourceDocumentId"`
	PageNumber       int       `json:"pageNumber"`
	SequenceIndex    int       `json:"sequenceIndex"`
	Text             string    `json:"text"`
	WordCount        int       `json:"wordCount"`
	Type             ChunkType `json:"type"`
	Keywords         []string  `json:"keywords"`
	IsRelevant       bool      `json:"isRelevant"`
	RelevanceScore   float64   `json:"relevanceScore"`
}
