package fetcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"creator-trends/internal/analytics"
)

// ErrFetchFailed marks any failure of an upstream provider call.
var ErrFetchFailed = errors.New("fetch failed")

func fetchFailed(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrFetchFailed, err)
}

// KeywordTrend is the raw provider answer for one topic.
type KeywordTrend struct {
	Keyword string
	Series  []analytics.Point
	Related []string
}

// NewsItem is one provider news result.
type NewsItem struct {
	Title       string
	Description string
	URL         string
	ImageURL    string
	Source      string
	PublishedAt *time.Time
	Category    string
}

// TopSearch is one trending-now entry.
type TopSearch struct {
	Keyword      string
	SearchVolume int64
	Articles     int
	Category     string
}

// Video is one YouTube search result.
type Video struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	URL         string `json:"url"`
	Thumbnail   string `json:"thumbnail,omitempty"`
	Channel     string `json:"channel,omitempty"`
	Views       int64  `json:"views"`
	Duration    string `json:"duration,omitempty"`
	PublishedAt string `json:"publishedAt,omitempty"`
}

// Competitor is one organic result for a site-restricted query.
type Competitor struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
	Position    int    `json:"position"`
}

// TrendSource retrieves trends, news and search data for a topic.
type TrendSource interface {
	FetchKeywordTrend(ctx context.Context, topic, location string) (KeywordTrend, error)
	FetchNews(ctx context.Context, category, location string) ([]NewsItem, error)
	FetchTopSearches(ctx context.Context, category, location string) ([]TopSearch, error)
	SearchYouTube(ctx context.Context, query string, maxResults int) ([]Video, error)
	SearchCompetitors(ctx context.Context, query string) ([]Competitor, error)
}

// ContentIdea is one generated video concept.
type ContentIdea struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
}

// PerformanceInput carries thumbnail statistics for analysis.
type PerformanceInput struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Views       int64   `json:"views"`
	Clicks      int64   `json:"clicks"`
	CTR         float64 `json:"ctr"`
}

// ContentGenerator produces creator copy through an LLM.
type ContentGenerator interface {
	GenerateDescription(ctx context.Context, title string, keywords []string, category string) (string, error)
	GenerateKeywords(ctx context.Context, title, category string) ([]string, error)
	ContentIdeas(ctx context.Context, category string, trendingTopics []string) ([]ContentIdea, error)
	ImproveTitle(ctx context.Context, title, category string) (string, error)
	AnalyzePerformance(ctx context.Context, input PerformanceInput) (string, error)
}

type errorResponse struct {
	Error   json.RawMessage `json:"error"`
	Message string          `json:"message"`
}

func parseHTTPError(provider string, status int, payload []byte) error {
	var apiErr errorResponse
	if err := json.Unmarshal(payload, &apiErr); err == nil {
		if msg := errorMessage(apiErr.Error); msg != "" {
			return fmt.Errorf("%s api error (%d): %s", provider, status, msg)
		}
		if apiErr.Message != "" {
			return fmt.Errorf("%s api error (%d): %s", provider, status, apiErr.Message)
		}
	}
	if len(payload) > 0 {
		return fmt.Errorf("%s api error (%d): %s", provider, status, strings.TrimSpace(string(payload)))
	}
	return fmt.Errorf("%s api error (%d)", provider, status)
}

// errorMessage accepts both "error":"text" and "error":{"message":"text"}.
func errorMessage(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}
	var nested struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &nested); err == nil {
		return nested.Message
	}
	return ""
}
