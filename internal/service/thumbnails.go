package service

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"creator-trends/internal/metrics"
	"creator-trends/internal/storage"
	"creator-trends/internal/usage"
)

const (
	defaultThumbnailCategory = "other"
	defaultPageSize          = 10
	maxPageSize              = 50
	defaultTimeRange         = "30d"
	userAnalyticsRange       = 30 * 24 * time.Hour
	topThumbnailsLimit       = 5
)

var timeRanges = map[string]time.Duration{
	"7d":  7 * 24 * time.Hour,
	"30d": 30 * 24 * time.Hour,
	"90d": 90 * 24 * time.Hour,
}

// ThumbnailRepository is the persistence the thumbnail operations need.
type ThumbnailRepository interface {
	storage.ThumbnailStore
	storage.ActivityStore
}

// ThumbnailQuery selects a page of the caller's thumbnails. Category "all" matches every category.
type ThumbnailQuery struct {
	Page     int
	Limit    int
	Category string
	Search   string
}

// Pagination describes where a page sits in the full result.
type Pagination struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalItems  int64 `json:"totalItems"`
	HasNext     bool  `json:"hasNext"`
	HasPrev     bool  `json:"hasPrev"`
}

// ThumbnailPage is one page of thumbnails.
type ThumbnailPage struct {
	Thumbnails []storage.Thumbnail `json:"thumbnails"`
	Pagination Pagination          `json:"pagination"`
}

// NewThumbnail is the input for CreateThumbnail. With GenerateAI set, a missing
// description or keyword list is filled in by the content generator.
type NewThumbnail struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	ImageURL    string   `json:"imageUrl"`
	VideoURL    string   `json:"videoUrl"`
	Category    string   `json:"category"`
	Keywords    []string `json:"keywords"`
	Tags        []string `json:"tags"`
	IsPublic    bool     `json:"isPublic"`
	GenerateAI  bool     `json:"generateAI"`
}

// ThumbnailReport is a thumbnail with its event chart over a time range.
type ThumbnailReport struct {
	Thumbnail   storage.Thumbnail            `json:"thumbnail"`
	TimeRange   string                       `json:"timeRange"`
	ChartData   []storage.EventCount         `json:"chartData"`
	Performance storage.ThumbnailPerformance `json:"performance"`
}

// UserAnalytics summarises a user's activity over the last 30 days.
type UserAnalytics struct {
	storage.UserActivity
	Usage usage.Counter `json:"usage"`
}

// ListThumbnails returns one page of the caller's thumbnails, newest first.
func (s *Service) ListThumbnails(ctx context.Context, userID int64, q ThumbnailQuery) (ThumbnailPage, error) {
	repo, err := s.thumbnailRepo()
	if err != nil {
		return ThumbnailPage{}, err
	}

	page := max(q.Page, 1)
	limit := q.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	limit = min(limit, maxPageSize)

	category := strings.ToLower(strings.TrimSpace(q.Category))
	if category == "all" {
		category = ""
	}

	thumbs, total, err := repo.ListThumbnails(ctx, userID, storage.ThumbnailFilter{
		Category: category,
		Search:   q.Search,
		Offset:   (page - 1) * limit,
		Limit:    limit,
	})
	if err != nil {
		return ThumbnailPage{}, err
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return ThumbnailPage{
		Thumbnails: thumbs,
		Pagination: Pagination{
			CurrentPage: page,
			TotalPages:  totalPages,
			TotalItems:  total,
			HasNext:     page < totalPages,
			HasPrev:     page > 1,
		},
	}, nil
}

// CreateThumbnail stores a thumbnail for the caller and records a generate event.
// Generation failures are logged and the thumbnail is stored without the generated fields.
func (s *Service) CreateThumbnail(ctx context.Context, userID int64, in NewThumbnail) (storage.Thumbnail, error) {
	repo, err := s.thumbnailRepo()
	if err != nil {
		return storage.Thumbnail{}, err
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return storage.Thumbnail{}, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	category, err := thumbnailCategory(in.Category)
	if err != nil {
		return storage.Thumbnail{}, err
	}

	thumb := storage.Thumbnail{
		UserID:      userID,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		ImageURL:    in.ImageURL,
		VideoURL:    in.VideoURL,
		Category:    category,
		Keywords:    in.Keywords,
		Tags:        in.Tags,
		IsPublic:    in.IsPublic,
		AIGenerated: in.GenerateAI,
	}
	if in.GenerateAI {
		s.fillGenerated(ctx, &thumb)
	}

	stored, err := repo.CreateThumbnail(ctx, thumb)
	if err != nil {
		return storage.Thumbnail{}, err
	}

	s.recordEvent(ctx, storage.Event{
		UserID:      userID,
		ThumbnailID: &stored.ID,
		Kind:        storage.EventGenerate,
		Source:      "api",
		Metadata:    map[string]string{"aiGenerated": strconv.FormatBool(in.GenerateAI)},
	})
	return stored, nil
}

func (s *Service) fillGenerated(ctx context.Context, thumb *storage.Thumbnail) {
	if s.generator == nil {
		s.logger.Warn().Str("title", thumb.Title).Msg("content generator not configured; storing thumbnail as given")
		return
	}

	if thumb.Description == "" {
		description, err := s.generator.GenerateDescription(ctx, thumb.Title, thumb.Keywords, thumb.Category)
		if err != nil {
			metrics.RecordUpstreamError("generate_description")
			s.logger.Error().Err(err).Str("title", thumb.Title).Msg("failed to generate thumbnail description")
		} else {
			thumb.Description = description
		}
	}

	if len(thumb.Keywords) == 0 {
		keywords, err := s.generator.GenerateKeywords(ctx, thumb.Title, thumb.Category)
		if err != nil {
			metrics.RecordUpstreamError("generate_keywords")
			s.logger.Error().Err(err).Str("title", thumb.Title).Msg("failed to generate thumbnail keywords")
		} else {
			thumb.Keywords = keywords
		}
	}
}

// GetThumbnail returns the caller's thumbnail, counting the read as a view.
func (s *Service) GetThumbnail(ctx context.Context, userID, id int64) (storage.Thumbnail, error) {
	repo, err := s.thumbnailRepo()
	if err != nil {
		return storage.Thumbnail{}, err
	}

	thumb, err := repo.ViewThumbnail(ctx, userID, id)
	if err != nil {
		return storage.Thumbnail{}, err
	}

	s.recordEvent(ctx, storage.Event{
		UserID:      userID,
		ThumbnailID: &thumb.ID,
		Kind:        storage.EventView,
		Source:      "api",
	})
	return thumb, nil
}

// UpdateThumbnail applies a partial update to the caller's thumbnail.
func (s *Service) UpdateThumbnail(ctx context.Context, userID, id int64, patch storage.ThumbnailPatch) (storage.Thumbnail, error) {
	repo, err := s.thumbnailRepo()
	if err != nil {
		return storage.Thumbnail{}, err
	}

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return storage.Thumbnail{}, fmt.Errorf("%w: title cannot be empty", ErrInvalidInput)
		}
		patch.Title = &title
	}
	if patch.Category != nil {
		category, err := thumbnailCategory(*patch.Category)
		if err != nil {
			return storage.Thumbnail{}, err
		}
		patch.Category = &category
	}

	return repo.UpdateThumbnail(ctx, userID, id, patch)
}

// DeleteThumbnail removes the caller's thumbnail and its events.
func (s *Service) DeleteThumbnail(ctx context.Context, userID, id int64) error {
	repo, err := s.thumbnailRepo()
	if err != nil {
		return err
	}
	return repo.DeleteThumbnail(ctx, userID, id)
}

// ThumbnailAnalytics charts the thumbnail's events per day over timeRange (7d, 30d or 90d).
// Unknown ranges fall back to 30d.
func (s *Service) ThumbnailAnalytics(ctx context.Context, userID, id int64, timeRange string) (ThumbnailReport, error) {
	repo, err := s.thumbnailRepo()
	if err != nil {
		return ThumbnailReport{}, err
	}

	window, ok := timeRanges[timeRange]
	if !ok {
		timeRange = defaultTimeRange
		window = timeRanges[defaultTimeRange]
	}

	thumb, err := repo.FindThumbnail(ctx, userID, id)
	if err != nil {
		return ThumbnailReport{}, err
	}

	chart, err := repo.ThumbnailActivity(ctx, thumb.ID, s.now().Add(-window))
	if err != nil {
		return ThumbnailReport{}, err
	}

	return ThumbnailReport{
		Thumbnail:   thumb,
		TimeRange:   timeRange,
		ChartData:   chart,
		Performance: thumb.Performance,
	}, nil
}

// UserAnalytics summarises the user's thumbnails and last 30 days of events.
func (s *Service) UserAnalytics(ctx context.Context, user storage.User) (UserAnalytics, error) {
	repo, err := s.thumbnailRepo()
	if err != nil {
		return UserAnalytics{}, err
	}

	activity, err := repo.UserActivity(ctx, user.ID, s.now().Add(-userAnalyticsRange), topThumbnailsLimit)
	if err != nil {
		return UserAnalytics{}, err
	}
	return UserAnalytics{UserActivity: activity, Usage: user.Usage}, nil
}

func (s *Service) thumbnailRepo() (ThumbnailRepository, error) {
	if s.thumbnails == nil {
		return nil, fmt.Errorf("thumbnail store not configured")
	}
	return s.thumbnails, nil
}

func thumbnailCategory(category string) (string, error) {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		return defaultThumbnailCategory, nil
	}
	if !slices.Contains(storage.ThumbnailCategories, category) {
		return "", fmt.Errorf("%w: category must be one of %s", ErrInvalidInput, strings.Join(storage.ThumbnailCategories, ", "))
	}
	return category, nil
}
