package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const chatCompletionsPath = "/chat/completions"

// OpenRouterOptions parameterise the LLM client.
type OpenRouterOptions struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
	Referer string
	Title   string
}

// OpenRouter generates creator copy through the OpenRouter chat completions API.
type OpenRouter struct {
	opts    OpenRouterOptions
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewOpenRouter constructs an LLM client.
func NewOpenRouter(opts OpenRouterOptions, logger zerolog.Logger) *OpenRouter {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if opts.Model == "" {
		opts.Model = "openai/gpt-3.5-turbo"
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://openrouter.ai/api/v1"
	}

	return &OpenRouter{
		opts:    opts,
		logger:  logger.With().Str("component", "openrouter_client").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// GenerateDescription writes a short click-oriented description for a thumbnail title.
func (o *OpenRouter) GenerateDescription(ctx context.Context, title string, keywords []string, category string) (string, error) {
	prompt := fmt.Sprintf(`Create an engaging, SEO-optimized description for a YouTube thumbnail with the title %q.
Keywords to include: %s
Category: %s

Make it compelling, under 160 characters, and focus on what viewers will get from clicking. Use action words and create curiosity.`,
		title, strings.Join(keywords, ", "), category)

	content, err := o.complete(ctx, chatRequest{
		Messages: []chatMessage{
			{Role: "system", Content: "You are an expert YouTube content creator who specializes in creating compelling thumbnail descriptions that drive clicks and engagement."},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   200,
		Temperature: 0.7,
	})
	if err != nil {
		return "", fetchFailed("generate description", err)
	}
	return content, nil
}

// GenerateKeywords returns SEO keywords split from a comma separated completion.
func (o *OpenRouter) GenerateKeywords(ctx context.Context, title, category string) ([]string, error) {
	prompt := fmt.Sprintf(`Generate 10 relevant SEO keywords for a YouTube video with title %q in the %s category.
Return only the keywords as a comma-separated list, no explanations.`, title, category)

	content, err := o.complete(ctx, chatRequest{
		Messages: []chatMessage{
			{Role: "system", Content: "You are an SEO expert who generates high-performing keywords for YouTube content."},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   150,
		Temperature: 0.5,
	})
	if err != nil {
		return nil, fetchFailed("generate keywords", err)
	}
	return splitKeywords(content), nil
}

// ContentIdeas returns generated video concepts. A completion that is not a JSON
// array is wrapped into a single idea carrying the raw text.
func (o *OpenRouter) ContentIdeas(ctx context.Context, category string, trendingTopics []string) ([]ContentIdea, error) {
	prompt := fmt.Sprintf(`Generate 5 trending YouTube video ideas for the %s category.
Consider these trending topics: %s

For each idea, provide:
1. Catchy title
2. Brief description
3. Target keywords

Format as JSON array with objects containing: title, description, keywords`, category, strings.Join(trendingTopics, ", "))

	content, err := o.complete(ctx, chatRequest{
		Messages: []chatMessage{
			{Role: "system", Content: "You are a YouTube content strategist who creates viral video concepts and titles."},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   800,
		Temperature: 0.8,
	})
	if err != nil {
		return nil, fetchFailed("generate content ideas", err)
	}
	return parseIdeas(content), nil
}

// ImproveTitle rewrites a title for click-through; double quotes are stripped.
func (o *OpenRouter) ImproveTitle(ctx context.Context, title, category string) (string, error) {
	prompt := fmt.Sprintf(`Improve this YouTube video title for better click-through rates: %q
Category: %s

Make it more engaging, add curiosity gaps, use power words, and ensure it's under 60 characters. Return only the improved title.`, title, category)

	content, err := o.complete(ctx, chatRequest{
		Messages: []chatMessage{
			{Role: "system", Content: "You are a YouTube title optimization expert who creates high-CTR titles."},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   100,
		Temperature: 0.6,
	})
	if err != nil {
		return "", fetchFailed("improve title", err)
	}
	return strings.ReplaceAll(content, `"`, ""), nil
}

// AnalyzePerformance returns improvement suggestions for thumbnail statistics.
func (o *OpenRouter) AnalyzePerformance(ctx context.Context, input PerformanceInput) (string, error) {
	prompt := fmt.Sprintf(`Analyze this thumbnail performance and provide improvement suggestions:

Title: %s
Description: %s
Views: %d
Clicks: %d
CTR: %g%%

Provide specific actionable recommendations to improve performance.`,
		input.Title, input.Description, input.Views, input.Clicks, input.CTR)

	content, err := o.complete(ctx, chatRequest{
		Messages: []chatMessage{
			{Role: "system", Content: "You are a YouTube analytics expert who provides data-driven optimization recommendations."},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   300,
		Temperature: 0.4,
	})
	if err != nil {
		return "", fetchFailed("analyze performance", err)
	}
	return content, nil
}

func (o *OpenRouter) complete(ctx context.Context, payload chatRequest) (string, error) {
	payload.Model = o.opts.Model

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+chatCompletionsPath, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.opts.APIKey)
	if o.opts.Referer != "" {
		req.Header.Set("HTTP-Referer", o.opts.Referer)
	}
	if o.opts.Title != "" {
		req.Header.Set("X-Title", o.opts.Title)
	}

	start := time.Now()
	resp, err := o.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	o.logger.Debug().Str("model", payload.Model).Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).Msg("chat completion finished")

	if resp.StatusCode != http.StatusOK {
		return "", parseHTTPError("openrouter", resp.StatusCode, respBytes)
	}

	var res chatResponse
	if err := json.Unmarshal(respBytes, &res); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(res.Choices) == 0 {
		return "", errors.New("chat response has no choices")
	}
	return strings.TrimSpace(res.Choices[0].Message.Content), nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func splitKeywords(content string) []string {
	parts := strings.Split(content, ",")
	keywords := make([]string, 0, len(parts))
	for _, part := range parts {
		if k := strings.TrimSpace(part); k != "" {
			keywords = append(keywords, k)
		}
	}
	return keywords
}

func parseIdeas(content string) []ContentIdea {
	trimmed := strings.TrimSpace(content)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")

	var ideas []ContentIdea
	if err := json.Unmarshal([]byte(strings.TrimSpace(trimmed)), &ideas); err == nil {
		return ideas
	}
	return []ContentIdea{{
		Title:       "AI-Generated Content Ideas",
		Description: content,
		Keywords:    []string{"trending", "viral", "content"},
	}}
}

var _ ContentGenerator = (*OpenRouter)(nil)
