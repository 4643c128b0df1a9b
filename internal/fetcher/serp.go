package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"creator-trends/internal/analytics"
)

const (
	serpSearchPath    = "/search.json"
	maxRelatedQueries = 10
	maxTopSearches    = 20
	newsResultCount   = 20
	competitorCount   = 10
)

// SERPOptions parameterise the search provider client.
type SERPOptions struct {
	BaseURL   string
	APIKey    string
	Timeout   time.Duration
	UserAgent string
}

// SERP fetches trends, news and search results from SerpApi.
type SERP struct {
	opts    SERPOptions
	logger  zerolog.Logger
	client  *http.Client
	baseURL string
}

// NewSERP constructs a search provider client.
func NewSERP(opts SERPOptions, logger zerolog.Logger) *SERP {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://serpapi.com"
	}

	return &SERP{
		opts:    opts,
		logger:  logger.With().Str("component", "serp_fetcher").Logger(),
		client:  &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// FetchKeywordTrend loads the interest-over-time series and rising related queries for topic.
func (s *SERP) FetchKeywordTrend(ctx context.Context, topic, location string) (KeywordTrend, error) {
	geo := strings.ToUpper(location)

	var timeseries trendsResponse
	if err := s.search(ctx, url.Values{
		"engine":    {"google_trends"},
		"q":         {topic},
		"geo":       {geo},
		"data_type": {"TIMESERIES"},
	}, &timeseries); err != nil {
		return KeywordTrend{}, fetchFailed("fetch keyword trend", err)
	}

	var related trendsResponse
	if err := s.search(ctx, url.Values{
		"engine":    {"google_trends"},
		"q":         {topic},
		"geo":       {geo},
		"data_type": {"RELATED_QUERIES"},
	}, &related); err != nil {
		return KeywordTrend{}, fetchFailed("fetch related queries", err)
	}

	series := make([]analytics.Point, 0, len(timeseries.InterestOverTime.TimelineData))
	for _, entry := range timeseries.InterestOverTime.TimelineData {
		series = append(series, entry.point())
	}

	rising := related.RelatedQueries.Rising
	if len(rising) > maxRelatedQueries {
		rising = rising[:maxRelatedQueries]
	}
	queries := make([]string, 0, len(rising))
	for _, q := range rising {
		queries = append(queries, q.Query)
	}

	s.logger.Debug().Str("topic", topic).Int("points", len(series)).Int("related", len(queries)).
		Msg("keyword trend fetched")

	return KeywordTrend{Keyword: topic, Series: series, Related: queries}, nil
}

// FetchNews loads news results for a category query.
func (s *SERP) FetchNews(ctx context.Context, category, location string) ([]NewsItem, error) {
	var res newsResponse
	if err := s.search(ctx, url.Values{
		"engine": {"google_news"},
		"q":      {category},
		"gl":     {location},
		"hl":     {"en"},
		"num":    {strconv.Itoa(newsResultCount)},
	}, &res); err != nil {
		return nil, fetchFailed("fetch news", err)
	}

	items := make([]NewsItem, 0, len(res.NewsResults))
	for _, article := range res.NewsResults {
		if article.Link == "" {
			continue
		}
		items = append(items, NewsItem{
			Title:       article.Title,
			Description: article.Snippet,
			URL:         article.Link,
			ImageURL:    article.Thumbnail,
			Source:      article.sourceName(),
			PublishedAt: article.publishedAt(),
			Category:    category,
		})
	}
	return items, nil
}

// FetchTopSearches loads the trending-now list for a category.
func (s *SERP) FetchTopSearches(ctx context.Context, category, location string) ([]TopSearch, error) {
	var res trendingNowResponse
	if err := s.search(ctx, url.Values{
		"engine": {"google_trends_trending_now"},
		"geo":    {strings.ToUpper(location)},
		"cat":    {strconv.Itoa(analytics.CategoryToCode(category))},
	}, &res); err != nil {
		return nil, fetchFailed("fetch top searches", err)
	}

	entries := res.TrendingSearches
	if len(entries) > maxTopSearches {
		entries = entries[:maxTopSearches]
	}

	searches := make([]TopSearch, 0, len(entries))
	for _, entry := range entries {
		if strings.TrimSpace(entry.Query) == "" {
			continue
		}
		searches = append(searches, TopSearch{
			Keyword:      entry.Query,
			SearchVolume: entry.SearchVolume,
			Articles:     len(entry.Articles),
			Category:     category,
		})
	}
	return searches, nil
}

// SearchYouTube runs a YouTube search and normalises view counts.
func (s *SERP) SearchYouTube(ctx context.Context, query string, maxResults int) ([]Video, error) {
	if maxResults <= 0 {
		maxResults = 10
	}

	var res youtubeResponse
	if err := s.search(ctx, url.Values{
		"engine":       {"youtube"},
		"search_query": {query},
		"num":          {strconv.Itoa(maxResults)},
	}, &res); err != nil {
		return nil, fetchFailed("search youtube", err)
	}

	videos := make([]Video, 0, len(res.VideoResults))
	for _, v := range res.VideoResults {
		videos = append(videos, Video{
			Title:       v.Title,
			Description: v.Description,
			URL:         v.Link,
			Thumbnail:   v.Thumbnail.Static,
			Channel:     v.Channel.Name,
			Views:       parseViews(v.Views),
			Duration:    v.Length,
			PublishedAt: v.PublishedDate,
		})
	}
	return videos, nil
}

// SearchCompetitors lists YouTube pages ranking for query.
func (s *SERP) SearchCompetitors(ctx context.Context, query string) ([]Competitor, error) {
	var res organicResponse
	if err := s.search(ctx, url.Values{
		"engine": {"google"},
		"q":      {fmt.Sprintf("site:youtube.com %q", query)},
		"num":    {strconv.Itoa(competitorCount)},
	}, &res); err != nil {
		return nil, fetchFailed("search competitors", err)
	}

	competitors := make([]Competitor, 0, len(res.OrganicResults))
	for _, r := range res.OrganicResults {
		competitors = append(competitors, Competitor{
			Title:       r.Title,
			URL:         r.Link,
			Description: r.Snippet,
			Position:    r.Position,
		})
	}
	return competitors, nil
}

func (s *SERP) search(ctx context.Context, params url.Values, dst any) error {
	params.Set("api_key", s.opts.APIKey)
	endpoint := s.baseURL + serpSearchPath + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if ua := strings.TrimSpace(s.opts.UserAgent); ua != "" {
		req.Header.Set("User-Agent", ua)
	} else {
		req.Header.Set("User-Agent", "creator-trends/1.0")
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	s.logger.Debug().Str("engine", params.Get("engine")).Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).Msg("serp request completed")

	if resp.StatusCode != http.StatusOK {
		return parseHTTPError("serp", resp.StatusCode, payload)
	}

	var apiErr errorResponse
	if err := json.Unmarshal(payload, &apiErr); err == nil {
		if msg := errorMessage(apiErr.Error); msg != "" {
			return fmt.Errorf("serp api error: %s", msg)
		}
	}

	return json.Unmarshal(payload, dst)
}

type trendsResponse struct {
	InterestOverTime struct {
		TimelineData []timelineEntry `json:"timeline_data"`
	} `json:"interest_over_time"`
	RelatedQueries struct {
		Rising []struct {
			Query string `json:"query"`
		} `json:"rising"`
	} `json:"related_queries"`
}

type timelineEntry struct {
	Timestamp string `json:"timestamp"`
	Values    []struct {
		ExtractedValue *float64 `json:"extracted_value"`
	} `json:"values"`
}

// point treats a missing first value as zero.
func (e timelineEntry) point() analytics.Point {
	var p analytics.Point
	if secs, err := strconv.ParseInt(e.Timestamp, 10, 64); err == nil {
		p.Timestamp = time.Unix(secs, 0).UTC()
	}
	if len(e.Values) > 0 && e.Values[0].ExtractedValue != nil {
		p.Value = *e.Values[0].ExtractedValue
	}
	return p
}

type newsResponse struct {
	NewsResults []newsResult `json:"news_results"`
}

type newsResult struct {
	Title     string          `json:"title"`
	Snippet   string          `json:"snippet"`
	Link      string          `json:"link"`
	Thumbnail string          `json:"thumbnail"`
	Source    json.RawMessage `json:"source"`
	Date      string          `json:"date"`
	ISODate   string          `json:"iso_date"`
}

var newsDateLayouts = []string{
	time.RFC3339,
	"01/02/2006, 03:04 PM, -0700 MST",
	"Jan 2, 2006",
}

func (r newsResult) publishedAt() *time.Time {
	for _, raw := range []string{r.ISODate, r.Date} {
		if raw == "" {
			continue
		}
		for _, layout := range newsDateLayouts {
			if ts, err := time.Parse(layout, raw); err == nil {
				ts = ts.UTC()
				return &ts
			}
		}
	}
	return nil
}

// sourceName accepts both a plain string and {"name": ...}.
func (r newsResult) sourceName() string {
	if len(r.Source) == 0 {
		return ""
	}
	var name string
	if err := json.Unmarshal(r.Source, &name); err == nil {
		return name
	}
	var obj struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(r.Source, &obj); err == nil {
		return obj.Name
	}
	return ""
}

type trendingNowResponse struct {
	TrendingSearches []struct {
		Query        string            `json:"query"`
		SearchVolume int64             `json:"search_volume"`
		Articles     []json.RawMessage `json:"articles"`
	} `json:"trending_searches"`
}

type youtubeResponse struct {
	VideoResults []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Link        string `json:"link"`
		Thumbnail   struct {
			Static string `json:"static"`
		} `json:"thumbnail"`
		Channel struct {
			Name string `json:"name"`
		} `json:"channel"`
		Views         json.RawMessage `json:"views"`
		Length        string          `json:"length"`
		PublishedDate string          `json:"published_date"`
	} `json:"video_results"`
}

// parseViews accepts a JSON number or a display string such as "1.2M views".
func parseViews(raw json.RawMessage) int64 {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return 0
	}
	var text string
	if err := json.Unmarshal(trimmed, &text); err == nil {
		return analytics.ParseViewCount(text)
	}
	return analytics.ParseViewCount(string(trimmed))
}

type organicResponse struct {
	OrganicResults []struct {
		Title    string `json:"title"`
		Link     string `json:"link"`
		Snippet  string `json:"snippet"`
		Position int    `json:"position"`
	} `json:"organic_results"`
}

var _ TrendSource = (*SERP)(nil)
