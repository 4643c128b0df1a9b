package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"creator-trends/internal/alerting"
	"creator-trends/internal/analytics"
	"creator-trends/internal/config"
	"creator-trends/internal/fetcher"
	"creator-trends/internal/metrics"
	"creator-trends/internal/scheduler"
	"creator-trends/internal/storage"
	"creator-trends/internal/usage"
)

const (
	defaultCategory = "general"
	defaultLocation = "us"

	cachedListLimit     = 20
	topKeywordsLimit    = 50
	dashboardKeywords   = 10
	dashboardNews       = 5
	dashboardEventRange = 7 * 24 * time.Hour
)

// ErrInvalidInput marks a request missing a required parameter.
var ErrInvalidInput = errors.New("invalid input")

// Repository is the persistence the trend service needs.
type Repository interface {
	storage.KeywordStore
	storage.NewsStore
	storage.EventStore
	DashboardCounts(ctx context.Context, since time.Time) (storage.DashboardCounts, error)
}

// KeywordResult is a single keyword lookup outcome.
type KeywordResult struct {
	Record storage.KeywordRecord
	Cached bool
}

// SearchesResult is a top-searches outcome.
type SearchesResult struct {
	Records []storage.KeywordRecord
	Cached  bool
}

// NewsResult is a trending-news outcome.
type NewsResult struct {
	Articles []storage.NewsArticle
	Cached   bool
}

// Dashboard aggregates counts and highlights.
type Dashboard struct {
	Counts      storage.DashboardCounts `json:"stats"`
	TopKeywords []storage.KeywordRecord `json:"trendingKeywords"`
	RecentNews  []storage.NewsArticle   `json:"recentNews"`
	LastUpdated time.Time               `json:"lastUpdated"`
}

// Service orchestrates cache lookups, provider fetches, derivation, persistence and alerting.
type Service struct {
	scheduler  *scheduler.Scheduler
	source     fetcher.TrendSource
	generator  fetcher.ContentGenerator
	store      Repository
	thumbnails ThumbnailRepository
	notifier   alerting.Notifier
	cooldown   *alerting.Cooldown
	now        usage.Clock
	logger     zerolog.Logger

	news        analytics.CachePolicy
	keyword     analytics.CachePolicy
	topSearches analytics.CachePolicy

	categories []string
	location   string
	channels   []string
	alertsOn   bool
	locker     storage.AdvisoryLocker
	lockKey    int64
}

// Deps groups the collaborators of a Service.
type Deps struct {
	Scheduler  *scheduler.Scheduler
	Source     fetcher.TrendSource
	Generator  fetcher.ContentGenerator
	Store      Repository
	Thumbnails ThumbnailRepository
	Notifier   alerting.Notifier
	Clock      usage.Clock
}

// New constructs the trend service.
func New(cfg *config.Config, deps Deps, logger zerolog.Logger) *Service {
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	var locker storage.AdvisoryLocker
	if l, ok := deps.Store.(storage.AdvisoryLocker); ok {
		locker = l
	}

	location := cfg.Refresh.Location
	if location == "" {
		location = defaultLocation
	}

	return &Service{
		scheduler:   deps.Scheduler,
		source:      deps.Source,
		generator:   deps.Generator,
		store:       deps.Store,
		thumbnails:  deps.Thumbnails,
		notifier:    deps.Notifier,
		cooldown:    alerting.NewCooldown(cfg.Alerting.Cooldown),
		now:         clock,
		logger:      logger.With().Str("component", "service").Logger(),
		news:        analytics.CachePolicy{Window: windowOr(cfg.Cache.NewsWindow, analytics.NewsWindow)},
		keyword:     analytics.CachePolicy{Window: windowOr(cfg.Cache.KeywordWindow, analytics.KeywordWindow)},
		topSearches: analytics.CachePolicy{Window: windowOr(cfg.Cache.TopSearchesWindow, analytics.TopSearchesWindow)},
		categories:  cfg.Refresh.Categories,
		location:    location,
		channels:    cfg.Alerting.Channels,
		alertsOn:    cfg.Alerting.Enabled,
		locker:      locker,
		lockKey:     cfg.Refresh.AdvisoryLockKey,
	}
}

func windowOr(configured, fallback time.Duration) time.Duration {
	if configured > 0 {
		return configured
	}
	return fallback
}

// Run begins the periodic top-searches refresh loop.
func (s *Service) Run(ctx context.Context) error {
	if s.scheduler == nil {
		return fmt.Errorf("scheduler not configured")
	}
	return s.scheduler.Run(ctx, s.RefreshTopSearches)
}

// KeywordTrend returns the stored record for topic while it is fresh, otherwise
// fetches the series, derives trend and volume and upserts the result.
func (s *Service) KeywordTrend(ctx context.Context, topic, location string, fresh bool) (KeywordResult, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return KeywordResult{}, fmt.Errorf("%w: topic is required", ErrInvalidInput)
	}
	location = orDefault(location, defaultLocation)
	now := s.now()

	previous, err := s.store.FindKeyword(ctx, topic)
	if err != nil {
		return KeywordResult{}, err
	}
	if previous != nil && s.keyword.Serve(previous.LastUpdated, fresh, now) {
		metrics.RecordCache("keyword", true)
		return KeywordResult{Record: *previous, Cached: true}, nil
	}
	metrics.RecordCache("keyword", false)

	raw, err := s.source.FetchKeywordTrend(ctx, topic, location)
	if err != nil {
		metrics.RecordUpstreamError("keyword_trend")
		return KeywordResult{}, err
	}

	related := raw.Related
	if related == nil {
		related = []string{}
	}
	derived := storage.KeywordRecord{
		Keyword:         topic,
		SearchVolume:    analytics.AverageVolume(raw.Series),
		Trend:           analytics.ClassifyTrend(raw.Series),
		RelatedKeywords: related,
		Source:          "serp_api",
		LastUpdated:     now,
	}

	stored, err := s.store.UpsertKeyword(ctx, derived)
	if err != nil {
		return KeywordResult{}, err
	}

	s.logger.Info().Str("keyword", topic).Str("trend", string(stored.Trend)).
		Int64("search_volume", stored.SearchVolume).Msg("keyword refreshed")

	s.maybeAlert(ctx, previous, stored)
	return KeywordResult{Record: stored, Cached: false}, nil
}

// TopKeywords lists stored keywords by search volume.
func (s *Service) TopKeywords(ctx context.Context) ([]storage.KeywordRecord, error) {
	return s.store.ListTopKeywords(ctx, topKeywordsLimit)
}

// TopSearches returns fresh rising records of category from storage, or fetches the
// trending-now list and upserts every entry as rising.
func (s *Service) TopSearches(ctx context.Context, category, location string, fresh bool) (SearchesResult, error) {
	category = orDefault(category, defaultCategory)
	location = orDefault(location, defaultLocation)
	now := s.now()

	if !fresh {
		cached, err := s.store.ListRecentKeywords(ctx,
			storage.KeywordFilter{Category: category, Trend: analytics.TrendRising},
			s.topSearches.Cutoff(now), cachedListLimit)
		if err != nil {
			return SearchesResult{}, err
		}
		if len(cached) > 0 {
			metrics.RecordCache("top_searches", true)
			return SearchesResult{Records: cached, Cached: true}, nil
		}
	}
	metrics.RecordCache("top_searches", false)

	searches, err := s.source.FetchTopSearches(ctx, category, location)
	if err != nil {
		metrics.RecordUpstreamError("top_searches")
		return SearchesResult{}, err
	}

	records := make([]storage.KeywordRecord, 0, len(searches))
	for _, search := range searches {
		rec := storage.KeywordRecord{
			Keyword:      search.Keyword,
			Category:     search.Category,
			SearchVolume: search.SearchVolume,
			Trend:        analytics.TrendRising,
			Articles:     search.Articles,
			Source:       "serp_api",
			LastUpdated:  now,
		}
		stored, upsertErr := s.store.UpsertKeyword(ctx, rec)
		if upsertErr != nil {
			s.logger.Error().Err(upsertErr).Str("keyword", search.Keyword).Msg("failed to save search keyword")
			rec.RelatedKeywords = []string{}
			records = append(records, rec)
			continue
		}
		records = append(records, stored)
	}

	return SearchesResult{Records: records, Cached: false}, nil
}

// TrendingNews returns recently stored articles of category, or fetches news and
// stores each article unless its URL is already known.
func (s *Service) TrendingNews(ctx context.Context, userID int64, category, location string, fresh bool) (NewsResult, error) {
	category = orDefault(category, defaultCategory)
	location = orDefault(location, defaultLocation)
	now := s.now()

	if !fresh {
		cached, err := s.store.ListRecentNews(ctx, category, s.news.Cutoff(now), cachedListLimit)
		if err != nil {
			return NewsResult{}, err
		}
		if len(cached) > 0 {
			metrics.RecordCache("news", true)
			return NewsResult{Articles: cached, Cached: true}, nil
		}
	}
	metrics.RecordCache("news", false)

	items, err := s.source.FetchNews(ctx, category, location)
	if err != nil {
		metrics.RecordUpstreamError("news")
		return NewsResult{}, err
	}

	articles := make([]storage.NewsArticle, 0, len(items))
	for _, item := range items {
		article := storage.NewsArticle{
			Title:       item.Title,
			Description: item.Description,
			URL:         item.URL,
			ImageURL:    item.ImageURL,
			Source:      item.Source,
			PublishedAt: item.PublishedAt,
			Category:    item.Category,
			CreatedAt:   now,
		}
		stored, insertErr := s.store.InsertNewsIfAbsent(ctx, article)
		if insertErr != nil {
			s.logger.Error().Err(insertErr).Str("url", item.URL).Msg("failed to save news article")
			articles = append(articles, article)
			continue
		}
		articles = append(articles, stored)
	}

	s.recordEvent(ctx, storage.Event{
		UserID:   userID,
		Kind:     storage.EventSearch,
		Source:   "trending_news",
		Metadata: map[string]string{"category": category, "location": location},
	})

	return NewsResult{Articles: articles, Cached: false}, nil
}

// YouTubeSearch searches YouTube content and records the search.
func (s *Service) YouTubeSearch(ctx context.Context, userID int64, query string, maxResults int) ([]fetcher.Video, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: search query is required", ErrInvalidInput)
	}

	videos, err := s.source.SearchYouTube(ctx, query, maxResults)
	if err != nil {
		metrics.RecordUpstreamError("youtube_search")
		return nil, err
	}

	s.recordEvent(ctx, storage.Event{
		UserID:   userID,
		Kind:     storage.EventSearch,
		Source:   "youtube_search",
		Metadata: map[string]string{"searchQuery": query},
	})
	return videos, nil
}

// Competitors lists YouTube pages ranking for query.
func (s *Service) Competitors(ctx context.Context, query string) ([]fetcher.Competitor, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: search query is required", ErrInvalidInput)
	}

	competitors, err := s.source.SearchCompetitors(ctx, query)
	if err != nil {
		metrics.RecordUpstreamError("competitors")
		return nil, err
	}
	return competitors, nil
}

// Dashboard collects counts, top keywords and the latest news.
func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	counts, err := s.store.DashboardCounts(ctx, s.now().Add(-dashboardEventRange))
	if err != nil {
		return Dashboard{}, err
	}
	keywords, err := s.store.ListTopKeywords(ctx, dashboardKeywords)
	if err != nil {
		return Dashboard{}, err
	}
	news, err := s.store.ListLatestNews(ctx, dashboardNews)
	if err != nil {
		return Dashboard{}, err
	}
	return Dashboard{Counts: counts, TopKeywords: keywords, RecentNews: news, LastUpdated: s.now()}, nil
}

// RefreshTopSearches refreshes every configured category. Only the holder of the
// advisory lock does the work.
func (s *Service) RefreshTopSearches(ctx context.Context, bucket time.Time) error {
	unlock, proceed, err := s.acquireLock(ctx)
	if err != nil {
		return err
	}
	if !proceed {
		s.logger.Debug().Time("bucket", bucket).Msg("skip refresh because advisory lock held elsewhere")
		return nil
	}
	if unlock != nil {
		defer unlock()
	}

	var errs []error
	for _, category := range s.categories {
		res, refreshErr := s.TopSearches(ctx, category, s.location, true)
		if refreshErr != nil {
			s.logger.Error().Err(refreshErr).Str("category", category).Msg("top searches refresh failed")
			errs = append(errs, fmt.Errorf("refresh %s: %w", category, refreshErr))
			continue
		}
		s.logger.Info().Time("bucket", bucket).Str("category", category).
			Int("records", len(res.Records)).Msg("top searches refreshed")
	}
	return errors.Join(errs...)
}

func (s *Service) acquireLock(ctx context.Context) (func(), bool, error) {
	if s.lockKey == 0 || s.locker == nil {
		return nil, true, nil
	}
	unlock, acquired, err := s.locker.TryAdvisoryLock(ctx, s.lockKey)
	if err != nil {
		return nil, false, fmt.Errorf("acquire advisory lock: %w", err)
	}
	if !acquired {
		return nil, false, nil
	}
	return unlock, true, nil
}

// maybeAlert notifies when a keyword turns rising.
func (s *Service) maybeAlert(ctx context.Context, previous *storage.KeywordRecord, stored storage.KeywordRecord) {
	if !s.alertsOn || s.notifier == nil || stored.Trend != analytics.TrendRising {
		return
	}

	var before analytics.Trend
	if previous != nil {
		before = previous.Trend
	}
	if before == analytics.TrendRising {
		return
	}
	if !s.cooldown.Allow(stored.Keyword, s.now()) {
		s.logger.Debug().Str("keyword", stored.Keyword).Msg("alert suppressed by cooldown")
		return
	}

	note := alerting.Notification{
		Keyword:      stored.Keyword,
		Category:     stored.Category,
		SearchVolume: stored.SearchVolume,
		Previous:     before,
		Current:      stored.Trend,
		Related:      stored.RelatedKeywords,
		ObservedAt:   stored.LastUpdated,
		Channels:     s.channels,
	}
	if err := s.notifier.Notify(ctx, note); err != nil {
		metrics.RecordAlert("failed")
		s.logger.Error().Err(err).Str("keyword", stored.Keyword).Msg("failed to dispatch alert")
		return
	}
	metrics.RecordAlert("sent")
}

func (s *Service) recordEvent(ctx context.Context, event storage.Event) {
	if event.UserID == 0 {
		return
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = s.now()
	}
	if err := s.store.InsertEvent(ctx, event); err != nil {
		s.logger.Error().Err(err).Str("kind", event.Kind).Str("source", event.Source).Msg("failed to record event")
	}
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}
