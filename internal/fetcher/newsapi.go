package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rafael/topic-research-back/internal/domain"
)

var ErrNewsAPIUnavailable = errors.New("newsapi client unavailable")

// maxArticles bounds how many candidates one gathering run hands downstream.
const maxArticles = 5

// ArticleSource fetches candidate articles for a topic. Implementations
// return an empty slice, not an error, when the topic has no results.
type ArticleSource interface {
	FetchArticles(ctx context.Context, topic string) ([]domain.Article, error)
}

type NewsAPIConfig struct {
	APIKey     string
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// NewsAPIClient gathers articles from the NewsAPI "everything" endpoint.
type NewsAPIClient struct {
	apiKey     string
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

func NewNewsAPIClient(cfg NewsAPIConfig) *NewsAPIClient {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://newsapi.org/v2"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	return &NewsAPIClient{
		apiKey:     strings.TrimSpace(cfg.APIKey),
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		timeout:    cfg.Timeout,
		httpClient: cfg.HTTPClient,
	}
}

func (c *NewsAPIClient) Available() bool {
	return c.apiKey != ""
}

type newsAPIResponse struct {
	Status       string `json:"status"`
	TotalResults int    `json:"totalResults"`
	Articles     []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		URL         string `json:"url"`
		Content     string `json:"content"`
	} `json:"articles"`
}

func (c *NewsAPIClient) FetchArticles(ctx context.Context, topic string) ([]domain.Article, error) {
	if !c.Available() {
		return nil, ErrNewsAPIUnavailable
	}

	endpoint := fmt.Sprintf(
		"%s/everything?q=%s&language=en&pageSize=10",
		c.baseURL,
		url.QueryEscape(topic),
	)

	requestCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	request, err := http.NewRequestWithContext(requestCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build newsapi request: %w", err)
	}
	request.Header.Set("X-Api-Key", c.apiKey)

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("call newsapi: %w", err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(io.LimitReader(response.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read newsapi response: %w", err)
	}
	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("newsapi status %d: %s", response.StatusCode, truncate(string(body), 200))
	}

	var decoded newsAPIResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("decode newsapi response: %w", err)
	}

	articles := make([]domain.Article, 0, maxArticles)
	for _, item := range decoded.Articles {
		if len(articles) >= maxArticles {
			break
		}
		content := item.Content
		if strings.TrimSpace(content) == "" {
			content = item.Description
		}
		articles = append(articles, domain.Article{
			Title:   item.Title,
			URL:     item.URL,
			Content: content,
		})
	}
	return articles, nil
}

func truncate(value string, limit int) string {
	if len(value) <= limit {
		return value
	}
	return value[:limit] + "..."
}
