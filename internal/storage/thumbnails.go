package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

const (
	thumbnailColumns = `id, user_id, title, description, image_url, video_url, category, keywords, ai_generated,
        views, clicks, ctr, rating, impressions, engagement, conversion_rate, is_public, tags, created_at, updated_at`

	insertThumbnailSQL = `INSERT INTO thumbnails (
        user_id,
        title,
        description,
        image_url,
        video_url,
        category,
        keywords,
        ai_generated,
        is_public,
        tags
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9,$10
    )
    RETURNING ` + thumbnailColumns + `;`

	thumbnailFilterSQL = `
    WHERE user_id = $1
      AND ($2 = '' OR category = $2)
      AND ($3 = '' OR title ILIKE $3 OR description ILIKE $3
           OR EXISTS (SELECT 1 FROM unnest(keywords) AS k WHERE k ILIKE $3))`

	countThumbnailsSQL = `SELECT COUNT(*) FROM thumbnails` + thumbnailFilterSQL + `;`

	listThumbnailsSQL = `SELECT ` + thumbnailColumns + `
    FROM thumbnails` + thumbnailFilterSQL + `
    ORDER BY created_at DESC, id DESC
    OFFSET $4
    LIMIT $5;`

	viewThumbnailSQL = `UPDATE thumbnails
    SET views = views + 1
    WHERE id = $1 AND user_id = $2
    RETURNING ` + thumbnailColumns + `;`

	findThumbnailSQL = `SELECT ` + thumbnailColumns + `
    FROM thumbnails
    WHERE id = $1 AND user_id = $2;`

	updateThumbnailSQL = `UPDATE thumbnails
    SET
        title       = COALESCE($3, title),
        description = COALESCE($4, description),
        image_url   = COALESCE($5, image_url),
        video_url   = COALESCE($6, video_url),
        category    = COALESCE($7, category),
        keywords    = COALESCE($8, keywords),
        is_public   = COALESCE($9, is_public),
        tags        = COALESCE($10, tags),
        updated_at  = now()
    WHERE id = $1 AND user_id = $2
    RETURNING ` + thumbnailColumns + `;`

	deleteThumbnailSQL = `DELETE FROM thumbnails WHERE id = $1 AND user_id = $2;`

	thumbnailActivitySQL = `SELECT to_char(created_at AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day, kind, COUNT(*)
    FROM events
    WHERE thumbnail_id = $1
      AND created_at >= $2
    GROUP BY day, kind
    ORDER BY day, kind;`

	userThumbnailCountSQL = `SELECT COUNT(*) FROM thumbnails WHERE user_id = $1;`

	userEventCountsSQL = `SELECT kind, COUNT(*)
    FROM events
    WHERE user_id = $1
      AND created_at >= $2
    GROUP BY kind
    ORDER BY kind;`

	topThumbnailsSQL = `SELECT ` + thumbnailColumns + `
    FROM thumbnails
    WHERE user_id = $1
    ORDER BY views DESC, id DESC
    LIMIT $2;`
)

// ThumbnailStore defines persistence for user-owned thumbnails. Every lookup is scoped to the owner.
type ThumbnailStore interface {
	CreateThumbnail(ctx context.Context, thumb Thumbnail) (Thumbnail, error)
	ListThumbnails(ctx context.Context, userID int64, filter ThumbnailFilter) ([]Thumbnail, int64, error)
	FindThumbnail(ctx context.Context, userID, id int64) (Thumbnail, error)
	ViewThumbnail(ctx context.Context, userID, id int64) (Thumbnail, error)
	UpdateThumbnail(ctx context.Context, userID, id int64, patch ThumbnailPatch) (Thumbnail, error)
	DeleteThumbnail(ctx context.Context, userID, id int64) error
	ThumbnailActivity(ctx context.Context, thumbnailID int64, since time.Time) ([]EventCount, error)
}

// ActivityStore defines per-user analytics summaries.
type ActivityStore interface {
	UserActivity(ctx context.Context, userID int64, since time.Time, top int) (UserActivity, error)
}

// CreateThumbnail stores a new thumbnail and returns it with its defaults filled in.
func (s *Store) CreateThumbnail(ctx context.Context, thumb Thumbnail) (Thumbnail, error) {
	pool, err := s.getPool()
	if err != nil {
		return Thumbnail{}, err
	}

	category := thumb.Category
	if category == "" {
		category = "other"
	}

	stored, err := scanThumbnail(pool.QueryRow(ctx, insertThumbnailSQL,
		thumb.UserID,
		thumb.Title,
		thumb.Description,
		thumb.ImageURL,
		thumb.VideoURL,
		category,
		nonNil(thumb.Keywords),
		thumb.AIGenerated,
		thumb.IsPublic,
		nonNil(thumb.Tags),
	))
	if err != nil {
		return Thumbnail{}, fmt.Errorf("insert thumbnail: %w", err)
	}
	return stored, nil
}

// ListThumbnails returns one page of the user's thumbnails, newest first, plus the total match count.
// Search matches title, description or any keyword case-insensitively.
func (s *Store) ListThumbnails(ctx context.Context, userID int64, filter ThumbnailFilter) ([]Thumbnail, int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, 0, err
	}

	pattern := ""
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern = "%" + escapeLike(search) + "%"
	}

	var total int64
	if scanErr := pool.QueryRow(ctx, countThumbnailsSQL, userID, filter.Category, pattern).Scan(&total); scanErr != nil {
		return nil, 0, fmt.Errorf("count thumbnails: %w", scanErr)
	}

	rows, queryErr := pool.Query(ctx, listThumbnailsSQL, userID, filter.Category, pattern, filter.Offset, filter.Limit)
	if queryErr != nil {
		return nil, 0, fmt.Errorf("list thumbnails: %w", queryErr)
	}
	thumbs, err := collectThumbnails(rows, filter.Limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list thumbnails: %w", err)
	}
	return thumbs, total, nil
}

// FindThumbnail returns the user's thumbnail without touching its counters.
func (s *Store) FindThumbnail(ctx context.Context, userID, id int64) (Thumbnail, error) {
	pool, err := s.getPool()
	if err != nil {
		return Thumbnail{}, err
	}

	thumb, err := scanThumbnail(pool.QueryRow(ctx, findThumbnailSQL, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Thumbnail{}, ErrThumbnailNotFound
	}
	if err != nil {
		return Thumbnail{}, fmt.Errorf("find thumbnail: %w", err)
	}
	return thumb, nil
}

// ViewThumbnail increments the view counter and returns the updated thumbnail.
func (s *Store) ViewThumbnail(ctx context.Context, userID, id int64) (Thumbnail, error) {
	pool, err := s.getPool()
	if err != nil {
		return Thumbnail{}, err
	}

	thumb, err := scanThumbnail(pool.QueryRow(ctx, viewThumbnailSQL, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Thumbnail{}, ErrThumbnailNotFound
	}
	if err != nil {
		return Thumbnail{}, fmt.Errorf("view thumbnail: %w", err)
	}
	return thumb, nil
}

// UpdateThumbnail applies the non-nil fields of patch.
func (s *Store) UpdateThumbnail(ctx context.Context, userID, id int64, patch ThumbnailPatch) (Thumbnail, error) {
	pool, err := s.getPool()
	if err != nil {
		return Thumbnail{}, err
	}

	thumb, err := scanThumbnail(pool.QueryRow(ctx, updateThumbnailSQL,
		id,
		userID,
		optional(patch.Title),
		optional(patch.Description),
		optional(patch.ImageURL),
		optional(patch.VideoURL),
		optional(patch.Category),
		optionalSlice(patch.Keywords),
		optional(patch.IsPublic),
		optionalSlice(patch.Tags),
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return Thumbnail{}, ErrThumbnailNotFound
	}
	if err != nil {
		return Thumbnail{}, fmt.Errorf("update thumbnail: %w", err)
	}
	return thumb, nil
}

// DeleteThumbnail removes the thumbnail; its events go with it.
func (s *Store) DeleteThumbnail(ctx context.Context, userID, id int64) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	tag, err := pool.Exec(ctx, deleteThumbnailSQL, id, userID)
	if err != nil {
		return fmt.Errorf("delete thumbnail: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrThumbnailNotFound
	}
	return nil
}

// ThumbnailActivity counts the thumbnail's events since the given time by UTC day and kind.
func (s *Store) ThumbnailActivity(ctx context.Context, thumbnailID int64, since time.Time) ([]EventCount, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, thumbnailActivitySQL, thumbnailID, since)
	if queryErr != nil {
		return nil, fmt.Errorf("thumbnail activity: %w", queryErr)
	}
	defer rows.Close()

	counts := make([]EventCount, 0)
	for rows.Next() {
		var count EventCount
		if err := rows.Scan(&count.Date, &count.Kind, &count.Count); err != nil {
			return nil, fmt.Errorf("scan thumbnail activity: %w", err)
		}
		counts = append(counts, count)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("thumbnail activity: %w", rows.Err())
	}
	return counts, nil
}

// UserActivity returns the user's thumbnail count, event counts by kind since the given time
// and the top thumbnails by views.
func (s *Store) UserActivity(ctx context.Context, userID int64, since time.Time, top int) (UserActivity, error) {
	pool, err := s.getPool()
	if err != nil {
		return UserActivity{}, err
	}

	var activity UserActivity
	if scanErr := pool.QueryRow(ctx, userThumbnailCountSQL, userID).Scan(&activity.ThumbnailCount); scanErr != nil {
		return UserActivity{}, fmt.Errorf("count user thumbnails: %w", scanErr)
	}

	rows, queryErr := pool.Query(ctx, userEventCountsSQL, userID, since)
	if queryErr != nil {
		return UserActivity{}, fmt.Errorf("user event counts: %w", queryErr)
	}
	activity.EventCounts = make([]EventCount, 0)
	for rows.Next() {
		var count EventCount
		if err := rows.Scan(&count.Kind, &count.Count); err != nil {
			rows.Close()
			return UserActivity{}, fmt.Errorf("scan user event counts: %w", err)
		}
		activity.EventCounts = append(activity.EventCounts, count)
	}
	rows.Close()
	if rows.Err() != nil {
		return UserActivity{}, fmt.Errorf("user event counts: %w", rows.Err())
	}

	topRows, queryErr := pool.Query(ctx, topThumbnailsSQL, userID, top)
	if queryErr != nil {
		return UserActivity{}, fmt.Errorf("top thumbnails: %w", queryErr)
	}
	if activity.TopThumbnails, err = collectThumbnails(topRows, top); err != nil {
		return UserActivity{}, fmt.Errorf("top thumbnails: %w", err)
	}
	return activity, nil
}

func collectThumbnails(rows pgx.Rows, limit int) ([]Thumbnail, error) {
	defer rows.Close()

	thumbs := make([]Thumbnail, 0, max(limit, 0))
	for rows.Next() {
		thumb, err := scanThumbnail(rows)
		if err != nil {
			return nil, err
		}
		thumbs = append(thumbs, thumb)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return thumbs, nil
}

func scanThumbnail(row pgx.Row) (Thumbnail, error) {
	var (
		thumb  Thumbnail
		rating int16
	)

	if err := row.Scan(
		&thumb.ID,
		&thumb.UserID,
		&thumb.Title,
		&thumb.Description,
		&thumb.ImageURL,
		&thumb.VideoURL,
		&thumb.Category,
		&thumb.Keywords,
		&thumb.AIGenerated,
		&thumb.Performance.Views,
		&thumb.Performance.Clicks,
		&thumb.Performance.CTR,
		&rating,
		&thumb.Analytics.Impressions,
		&thumb.Analytics.Engagement,
		&thumb.Analytics.ConversionRate,
		&thumb.IsPublic,
		&thumb.Tags,
		&thumb.CreatedAt,
		&thumb.UpdatedAt,
	); err != nil {
		return Thumbnail{}, err
	}

	thumb.Performance.Rating = int(rating)
	thumb.Keywords = nonNil(thumb.Keywords)
	thumb.Tags = nonNil(thumb.Tags)
	return thumb, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside an ILIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func optional[T any](v *T) any {
	if v == nil {
		return nil
	}
	return *v
}

func optionalSlice(v *[]string) any {
	if v == nil {
		return nil
	}
	return nonNil(*v)
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
