package service

import (
	"context"
	"fmt"
	"strings"

	"creator-trends/internal/fetcher"
	"creator-trends/internal/metrics"
	"creator-trends/internal/storage"
)

// GenerateDescription writes a thumbnail description for title.
func (s *Service) GenerateDescription(ctx context.Context, userID int64, title string, keywords []string, category string) (string, error) {
	title, category, err := s.contentInput(title, category)
	if err != nil {
		return "", err
	}

	description, err := s.generator.GenerateDescription(ctx, title, keywords, category)
	if err != nil {
		metrics.RecordUpstreamError("generate_description")
		return "", err
	}

	s.recordEvent(ctx, storage.Event{
		UserID:   userID,
		Kind:     storage.EventGenerate,
		Source:   "ai_description",
		Metadata: map[string]string{"title": title, "category": category},
	})
	return description, nil
}

// GenerateKeywords returns SEO keywords for title.
func (s *Service) GenerateKeywords(ctx context.Context, userID int64, title, category string) ([]string, error) {
	title, category, err := s.contentInput(title, category)
	if err != nil {
		return nil, err
	}

	keywords, err := s.generator.GenerateKeywords(ctx, title, category)
	if err != nil {
		metrics.RecordUpstreamError("generate_keywords")
		return nil, err
	}

	s.recordEvent(ctx, storage.Event{
		UserID:   userID,
		Kind:     storage.EventGenerate,
		Source:   "ai_keywords",
		Metadata: map[string]string{"title": title, "category": category},
	})
	return keywords, nil
}

// ContentIdeas returns video concepts for category.
func (s *Service) ContentIdeas(ctx context.Context, userID int64, category string, trendingTopics []string) ([]fetcher.ContentIdea, error) {
	if s.generator == nil {
		return nil, fmt.Errorf("content generator not configured")
	}
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, fmt.Errorf("%w: category is required", ErrInvalidInput)
	}

	ideas, err := s.generator.ContentIdeas(ctx, category, trendingTopics)
	if err != nil {
		metrics.RecordUpstreamError("content_ideas")
		return nil, err
	}

	s.recordEvent(ctx, storage.Event{
		UserID:   userID,
		Kind:     storage.EventGenerate,
		Source:   "ai_content_ideas",
		Metadata: map[string]string{"category": category},
	})
	return ideas, nil
}

// ImproveTitle rewrites title for click-through.
func (s *Service) ImproveTitle(ctx context.Context, title, category string) (string, error) {
	title, category, err := s.contentInput(title, category)
	if err != nil {
		return "", err
	}

	improved, err := s.generator.ImproveTitle(ctx, title, category)
	if err != nil {
		metrics.RecordUpstreamError("improve_title")
		return "", err
	}
	return improved, nil
}

// AnalyzePerformance returns suggestions for thumbnail statistics.
func (s *Service) AnalyzePerformance(ctx context.Context, input fetcher.PerformanceInput) (string, error) {
	if s.generator == nil {
		return "", fmt.Errorf("content generator not configured")
	}
	if strings.TrimSpace(input.Title) == "" {
		return "", fmt.Errorf("%w: thumbnail data with title is required", ErrInvalidInput)
	}

	analysis, err := s.generator.AnalyzePerformance(ctx, input)
	if err != nil {
		metrics.RecordUpstreamError("analyze_performance")
		return "", err
	}
	return analysis, nil
}

func (s *Service) contentInput(title, category string) (string, string, error) {
	if s.generator == nil {
		return "", "", fmt.Errorf("content generator not configured")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return "", "", fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	return title, orDefault(category, defaultCategory), nil
}
