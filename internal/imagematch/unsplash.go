package imagematch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/healthed/article-pipeline/config"
	"github.com/healthed/article-pipeline/pkg/logger"
)

// UnsplashProvider implements SearchProvider against the Unsplash REST API.
type UnsplashProvider struct {
	accessKey string
	baseURL   string
	perPage   int
	client    *http.Client
	logger    logger.Logger
}

func NewUnsplashProvider(cfg config.UnsplashConfig, log logger.Logger) *UnsplashProvider {
	perPage := cfg.PerPage
	if perPage <= 0 {
		perPage = 10
	}
	return &UnsplashProvider{
		accessKey: cfg.AccessKey,
		baseURL:   cfg.BaseURL,
		perPage:   perPage,
		client:    &http.Client{Timeout: cfg.Timeout},
		logger:    log,
	}
}

type unsplashPhoto struct {
	ID   string `json:"id"`
	URLs struct {
		Regular string `json:"regular"`
		Thumb   string `json:"thumb"`
	} `json:"urls"`
	Description    string `json:"description"`
	AltDescription string `json:"alt_description"`
	User           struct {
		Name  string `json:"name"`
		Links struct {
			HTML string `json:"html"`
		} `json:"links"`
	} `json:"user"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

type unsplashSearchResponse struct {
	Results []unsplashPhoto `json:"results"`
}

// Search runs one photo search. A non-200 response is an error; an empty
// result list is not.
func (p *UnsplashProvider) Search(ctx context.Context, query string) ([]Image, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("per_page", strconv.Itoa(p.perPage))
	params.Set("orientation", "landscape")
	params.Set("content_filter", "high")
	params.Set("order_by", "relevant")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		p.baseURL+"/search/photos?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build search request: %w", err)
	}
	req.Header.Set("Authorization", "Client-ID "+p.accessKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image search: unexpected status %d", resp.StatusCode)
	}

	var decoded unsplashSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	images := make([]Image, 0, len(decoded.Results))
	for _, r := range decoded.Results {
		images = append(images, Image{
			ID:             r.ID,
			URL:            r.URLs.Regular,
			ThumbnailURL:   r.URLs.Thumb,
			Description:    r.Description,
			AltDescription: r.AltDescription,
			Author:         r.User.Name,
			AuthorURL:      r.User.Links.HTML,
			Width:          r.Width,
			Height:         r.Height,
		})
	}

	p.logger.Debug("Image search completed",
		logger.String("query", query),
		logger.Int("results", len(images)),
	)
	return images, nil
}
