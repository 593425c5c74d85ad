package summarize

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/healthed/article-pipeline/config"
	"github.com/healthed/article-pipeline/internal/models"
	"github.com/healthed/article-pipeline/pkg/logger"
)

const systemPrompt = `You are a health education expert who rewrites medical content as simple articles for readers at a 6th-grade level. Use short sentences, common words, and practical tips. Respond with JSON only.`

const promptTemplate = `CONTENT TO SUMMARIZE:
%s

INSTRUCTIONS:
1. Create a clear, engaging title (maximum 8 words).
2. Categorize the content using one of: %s. Suggested category: %s.
3. Write the main content in simple language: short sentences, bullet points where they help, short paragraphs, 6th-grade reading level.
4. Identify relevant medical condition tags.

RESPONSE FORMAT (JSON):
{"title": "...", "category": "...", "content": "...", "medical_condition_tags": ["..."], "confidence_score": 0.85}`

// OpenAIOracle implements Oracle over any OpenAI-compatible chat endpoint.
type OpenAIOracle struct {
	client      *openai.Client
	model       string
	temperature float32
	logger      logger.Logger
}

func NewOpenAIOracle(cfg config.SummarizerConfig, log logger.Logger) *OpenAIOracle {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &OpenAIOracle{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		logger:      log,
	}
}

// Summarize sends one chunk to the chat endpoint and parses the JSON reply.
// Every failure mode comes back as a SummarizationError so callers can treat
// it uniformly as a per-chunk skip.
func (o *OpenAIOracle) Summarize(ctx context.Context, chunk models.Chunk, categoryHint models.Category) (*Summary, error) {
	categories := make([]string, 0, len(models.Categories()))
	for _, c := range models.Categories() {
		categories = append(categories, string(c))
	}
	prompt := fmt.Sprintf(promptTemplate, chunk.Text, strings.Join(categories, ", "), categoryHint)

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.model,
		Temperature: o.temperature,
		MaxTokens:   1000,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return nil, &SummarizationError{ChunkID: chunk.ID, Err: err}
	}
	if len(resp.Choices) == 0 {
		return nil, &SummarizationError{ChunkID: chunk.ID, Err: fmt.Errorf("empty completion")}
	}

	summary, err := ParseSummary(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, &SummarizationError{ChunkID: chunk.ID, Err: err}
	}

	o.logger.Debug("Chunk summarized",
		logger.String("chunkId", chunk.ID),
		logger.String("title", summary.Title),
	)
	return summary, nil
}

// ParseSummary extracts the JSON object from a model reply, tolerating prose
// around it, and validates the required fields.
func ParseSummary(reply string) (*Summary, error) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start == -1 || end <= start {
		return nil, fmt.Errorf("no JSON object in reply")
	}

	var summary Summary
	if err := json.Unmarshal([]byte(reply[start:end+1]), &summary); err != nil {
		return nil, fmt.Errorf("decode summary: %w", err)
	}

	summary.Title = strings.TrimSpace(summary.Title)
	summary.Content = strings.TrimSpace(summary.Content)
	if summary.Title == "" {
		return nil, fmt.Errorf("summary missing title")
	}
	if summary.Content == "" {
		return nil, fmt.Errorf("summary missing content")
	}
	if len(summary.Title) > 200 {
		summary.Title = summary.Title[:200]
	}
	if len(summary.Tags) > 10 {
		summary.Tags = summary.Tags[:10]
	}
	if summary.Confidence == 0 {
		summary.Confidence = 0.8
	}
	return &summary, nil
}
