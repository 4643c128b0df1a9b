package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"creator-trends/internal/analytics"
	"creator-trends/internal/usage"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
	// ErrUserNotFound indicates no identity record exists for a uid.
	ErrUserNotFound = errors.New("storage: user not found")
	// ErrThumbnailNotFound indicates no thumbnail with the id belongs to the user.
	ErrThumbnailNotFound = errors.New("storage: thumbnail not found")
)

const (
	keywordColumns = `keyword, category, search_volume, trend, related_keywords, articles, source, last_updated`

	upsertKeywordSQL = `INSERT INTO trend_keywords (
        keyword,
        category,
        search_volume,
        trend,
        related_keywords,
        articles,
        source,
        last_updated
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8
    )
    ON CONFLICT (keyword) DO UPDATE
    SET
        category         = COALESCE(NULLIF(EXCLUDED.category, ''), trend_keywords.category),
        search_volume    = EXCLUDED.search_volume,
        trend            = EXCLUDED.trend,
        related_keywords = COALESCE(EXCLUDED.related_keywords, trend_keywords.related_keywords),
        articles         = CASE WHEN EXCLUDED.articles > 0 THEN EXCLUDED.articles ELSE trend_keywords.articles END,
        source           = EXCLUDED.source,
        last_updated     = EXCLUDED.last_updated
    RETURNING ` + keywordColumns + `;`

	findKeywordSQL = `SELECT ` + keywordColumns + `
    FROM trend_keywords
    WHERE keyword = $1;`

	listRecentKeywordsSQL = `SELECT ` + keywordColumns + `
    FROM trend_keywords
    WHERE ($1 = '' OR category = $1)
      AND ($2 = '' OR trend = $2)
      AND last_updated > $3
    ORDER BY search_volume DESC
    LIMIT $4;`

	listTopKeywordsSQL = `SELECT ` + keywordColumns + `
    FROM trend_keywords
    ORDER BY search_volume DESC, last_updated DESC
    LIMIT $1;`

	newsColumns = `id, title, description, url, image_url, source, published_at, category, created_at`

	insertNewsIfAbsentSQL = `WITH inserted AS (
        INSERT INTO news_articles (title, description, url, image_url, source, published_at, category)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        ON CONFLICT (url) DO NOTHING
        RETURNING ` + newsColumns + `
    )
    SELECT ` + newsColumns + ` FROM inserted
    UNION ALL
    SELECT ` + newsColumns + ` FROM news_articles
    WHERE url = $3 AND NOT EXISTS (SELECT 1 FROM inserted)
    LIMIT 1;`

	listRecentNewsSQL = `SELECT ` + newsColumns + `
    FROM news_articles
    WHERE category = $1
      AND created_at > $2
    ORDER BY published_at DESC NULLS LAST
    LIMIT $3;`

	listLatestNewsSQL = `SELECT ` + newsColumns + `
    FROM news_articles
    ORDER BY published_at DESC NULLS LAST
    LIMIT $1;`

	userColumns = `id, uid, email, display_name, photo_url, is_verified, tier, preferences, api_calls_today, last_api_call, created_at, updated_at`

	findOrCreateUserSQL = `INSERT INTO users (uid, email, display_name, photo_url, is_verified)
    VALUES ($1,$2,$3,$4,$5)
    ON CONFLICT (uid) DO UPDATE SET uid = users.uid
    RETURNING ` + userColumns + `;`

	setUserTierSQL = `UPDATE users
    SET tier = $2, updated_at = now()
    WHERE uid = $1
    RETURNING ` + userColumns + `;`

	updateProfileSQL = `UPDATE users
    SET display_name = COALESCE(NULLIF($2, ''), display_name),
        preferences  = preferences || $3::jsonb,
        updated_at   = now()
    WHERE uid = $1
    RETURNING ` + userColumns + `;`

	lockUsageSQL = `SELECT uid, tier, api_calls_today, last_api_call
    FROM users
    WHERE uid = $1
    FOR UPDATE;`

	updateUsageSQL = `UPDATE users
    SET api_calls_today = $2, last_api_call = $3, updated_at = $3
    WHERE uid = $1;`

	insertEventSQL = `INSERT INTO events (user_id, kind, source, metadata, created_at, thumbnail_id)
    VALUES ($1,$2,$3,$4,$5,$6);`

	dashboardCountsSQL = `SELECT
        (SELECT COUNT(*) FROM users),
        (SELECT COUNT(*) FROM news_articles),
        (SELECT COUNT(*) FROM trend_keywords),
        (SELECT COUNT(*) FROM events WHERE created_at > $1);`

	tryAdvisoryLockSQL = `SELECT pg_try_advisory_xact_lock($1);`
)

// DB is the subset of pgxpool.Pool the store relies on.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Close()
}

// KeywordStore defines keyword trend persistence.
type KeywordStore interface {
	FindKeyword(ctx context.Context, keyword string) (*KeywordRecord, error)
	UpsertKeyword(ctx context.Context, rec KeywordRecord) (KeywordRecord, error)
	ListRecentKeywords(ctx context.Context, filter KeywordFilter, since time.Time, limit int) ([]KeywordRecord, error)
	ListTopKeywords(ctx context.Context, limit int) ([]KeywordRecord, error)
}

// NewsStore defines news article persistence.
type NewsStore interface {
	InsertNewsIfAbsent(ctx context.Context, article NewsArticle) (NewsArticle, error)
	ListRecentNews(ctx context.Context, category string, since time.Time, limit int) ([]NewsArticle, error)
	ListLatestNews(ctx context.Context, limit int) ([]NewsArticle, error)
}

// UserStore defines identity persistence.
type UserStore interface {
	FindOrCreateUser(ctx context.Context, ident Identity) (User, error)
	SetUserTier(ctx context.Context, uid string, tier usage.Tier) (User, error)
	UpdateProfile(ctx context.Context, uid string, patch ProfilePatch) (User, error)
}

// EventStore defines analytics log persistence.
type EventStore interface {
	InsertEvent(ctx context.Context, event Event) error
}

// AdvisoryLocker exposes advisory lock helpers.
type AdvisoryLocker interface {
	TryAdvisoryLock(ctx context.Context, key int64) (unlock func(), acquired bool, err error)
}

// Store aggregates access to keywords, news, users and events.
type Store struct {
	pool DB
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool DB) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (DB, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// TryAdvisoryLock takes a transaction-scoped advisory lock and returns a release func.
func (s *Store) TryAdvisoryLock(ctx context.Context, key int64) (func(), bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, false, err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("begin lock tx: %w", err)
	}

	var acquired bool
	if err := tx.QueryRow(ctx, tryAdvisoryLockSQL, key).Scan(&acquired); err != nil {
		_ = tx.Rollback(ctx)
		return nil, false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !acquired {
		_ = tx.Rollback(ctx)
		return nil, false, nil
	}

	unlock := func() {
		ctxUnlock, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = tx.Rollback(ctxUnlock)
	}
	return unlock, true, nil
}

// FindKeyword returns the stored record for keyword, or nil when none exists.
func (s *Store) FindKeyword(ctx context.Context, keyword string) (*KeywordRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rec, err := scanKeyword(pool.QueryRow(ctx, findKeywordSQL, keyword))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find keyword: %w", err)
	}
	return &rec, nil
}

// UpsertKeyword inserts or updates a keyword record atomically and returns the stored row.
// An empty category or nil related list keeps the stored value.
func (s *Store) UpsertKeyword(ctx context.Context, rec KeywordRecord) (KeywordRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return KeywordRecord{}, err
	}

	source := rec.Source
	if source == "" {
		source = "serp_api"
	}

	stored, err := scanKeyword(pool.QueryRow(ctx, upsertKeywordSQL,
		rec.Keyword,
		rec.Category,
		rec.SearchVolume,
		string(rec.Trend),
		rec.RelatedKeywords,
		rec.Articles,
		source,
		rec.LastUpdated,
	))
	if err != nil {
		return KeywordRecord{}, fmt.Errorf("upsert keyword: %w", err)
	}
	return stored, nil
}

// ListRecentKeywords lists records matching filter refreshed after since, by volume.
func (s *Store) ListRecentKeywords(ctx context.Context, filter KeywordFilter, since time.Time, limit int) ([]KeywordRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentKeywordsSQL, filter.Category, string(filter.Trend), since, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent keywords: %w", queryErr)
	}
	return collectKeywords(rows, limit)
}

// ListTopKeywords lists stored records ordered by search volume.
func (s *Store) ListTopKeywords(ctx context.Context, limit int) ([]KeywordRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listTopKeywordsSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list top keywords: %w", queryErr)
	}
	return collectKeywords(rows, limit)
}

// InsertNewsIfAbsent stores an article unless its URL is known and returns the stored row.
func (s *Store) InsertNewsIfAbsent(ctx context.Context, article NewsArticle) (NewsArticle, error) {
	pool, err := s.getPool()
	if err != nil {
		return NewsArticle{}, err
	}

	var published interface{}
	if article.PublishedAt != nil {
		published = *article.PublishedAt
	}

	stored, err := scanNews(pool.QueryRow(ctx, insertNewsIfAbsentSQL,
		article.Title,
		article.Description,
		article.URL,
		article.ImageURL,
		article.Source,
		published,
		article.Category,
	))
	if err != nil {
		return NewsArticle{}, fmt.Errorf("insert news: %w", err)
	}
	return stored, nil
}

// ListRecentNews lists articles of a category stored after since, newest publication first.
func (s *Store) ListRecentNews(ctx context.Context, category string, since time.Time, limit int) ([]NewsArticle, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentNewsSQL, category, since, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent news: %w", queryErr)
	}
	return collectNews(rows, limit)
}

// ListLatestNews lists the most recently published articles across categories.
func (s *Store) ListLatestNews(ctx context.Context, limit int) ([]NewsArticle, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listLatestNewsSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list latest news: %w", queryErr)
	}
	return collectNews(rows, limit)
}

// FindOrCreateUser returns the user for ident.UID, creating it on first sight.
func (s *Store) FindOrCreateUser(ctx context.Context, ident Identity) (User, error) {
	pool, err := s.getPool()
	if err != nil {
		return User{}, err
	}

	displayName := ident.DisplayName
	if displayName == "" {
		displayName = ident.Email
	}

	user, err := scanUser(pool.QueryRow(ctx, findOrCreateUserSQL,
		ident.UID,
		ident.Email,
		displayName,
		ident.PhotoURL,
		ident.Verified,
	))
	if err != nil {
		return User{}, fmt.Errorf("find or create user: %w", err)
	}
	return user, nil
}

// SetUserTier changes a user's subscription tier.
func (s *Store) SetUserTier(ctx context.Context, uid string, tier usage.Tier) (User, error) {
	pool, err := s.getPool()
	if err != nil {
		return User{}, err
	}

	user, err := scanUser(pool.QueryRow(ctx, setUserTierSQL, uid, string(tier)))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("set user tier: %w", err)
	}
	return user, nil
}

// UpdateProfile sets a non-empty display name and merges the given preference keys.
func (s *Store) UpdateProfile(ctx context.Context, uid string, patch ProfilePatch) (User, error) {
	pool, err := s.getPool()
	if err != nil {
		return User{}, err
	}

	prefs := []byte("{}")
	if patch.Preferences != nil {
		if prefs, err = json.Marshal(patch.Preferences); err != nil {
			return User{}, fmt.Errorf("marshal preferences: %w", err)
		}
	}

	user, err := scanUser(pool.QueryRow(ctx, updateProfileSQL, uid, patch.DisplayName, prefs))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("update profile: %w", err)
	}
	return user, nil
}

// ApplyUsage locks the user's row, evaluates the call and persists the counter when admitted.
func (s *Store) ApplyUsage(ctx context.Context, uid string, evaluate func(usage.Account) usage.Decision) (usage.Decision, error) {
	pool, err := s.getPool()
	if err != nil {
		return usage.Decision{}, err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return usage.Decision{}, fmt.Errorf("begin usage tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var (
		account  usage.Account
		tier     string
		calls    int
		lastCall sql.NullTime
	)
	scanErr := tx.QueryRow(ctx, lockUsageSQL, uid).Scan(&account.Identity, &tier, &calls, &lastCall)
	if errors.Is(scanErr, pgx.ErrNoRows) {
		return usage.Decision{}, ErrUserNotFound
	}
	if scanErr != nil {
		return usage.Decision{}, fmt.Errorf("lock usage: %w", scanErr)
	}

	account.Tier = usage.Tier(tier)
	account.Counter.CallsToday = calls
	if lastCall.Valid {
		ts := lastCall.Time
		account.Counter.LastCall = &ts
	}

	decision := evaluate(account)
	if !decision.Admitted {
		return decision, nil
	}

	if _, execErr := tx.Exec(ctx, updateUsageSQL, uid, decision.Counter.CallsToday, *decision.Counter.LastCall); execErr != nil {
		return usage.Decision{}, fmt.Errorf("update usage: %w", execErr)
	}
	if err := tx.Commit(ctx); err != nil {
		return usage.Decision{}, fmt.Errorf("commit usage: %w", err)
	}
	return decision, nil
}

// InsertEvent appends an analytics log entry.
func (s *Store) InsertEvent(ctx context.Context, event Event) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	metadata, err := json.Marshal(event.Metadata)
	if err != nil {
		return fmt.Errorf("marshal event metadata: %w", err)
	}
	createdAt := event.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	var thumbnailID any
	if event.ThumbnailID != nil {
		thumbnailID = *event.ThumbnailID
	}

	if _, execErr := pool.Exec(ctx, insertEventSQL, event.UserID, event.Kind, event.Source, metadata, createdAt, thumbnailID); execErr != nil {
		return fmt.Errorf("insert event: %w", execErr)
	}
	return nil
}

// DashboardCounts returns collection sizes; Events counts entries after since.
func (s *Store) DashboardCounts(ctx context.Context, since time.Time) (DashboardCounts, error) {
	pool, err := s.getPool()
	if err != nil {
		return DashboardCounts{}, err
	}

	var counts DashboardCounts
	if scanErr := pool.QueryRow(ctx, dashboardCountsSQL, since).Scan(
		&counts.Users,
		&counts.News,
		&counts.Keywords,
		&counts.Events,
	); scanErr != nil {
		return DashboardCounts{}, fmt.Errorf("dashboard counts: %w", scanErr)
	}
	return counts, nil
}

func collectKeywords(rows pgx.Rows, limit int) ([]KeywordRecord, error) {
	defer rows.Close()

	records := make([]KeywordRecord, 0, limit)
	for rows.Next() {
		rec, err := scanKeyword(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return records, nil
}

func collectNews(rows pgx.Rows, limit int) ([]NewsArticle, error) {
	defer rows.Close()

	articles := make([]NewsArticle, 0, limit)
	for rows.Next() {
		article, err := scanNews(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, article)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return articles, nil
}

func scanKeyword(row pgx.Row) (KeywordRecord, error) {
	var (
		rec      KeywordRecord
		category sql.NullString
		trend    string
		related  []string
	)

	if err := row.Scan(
		&rec.Keyword,
		&category,
		&rec.SearchVolume,
		&trend,
		&related,
		&rec.Articles,
		&rec.Source,
		&rec.LastUpdated,
	); err != nil {
		return KeywordRecord{}, err
	}

	parsed, err := analytics.ParseTrend(trend)
	if err != nil {
		return KeywordRecord{}, fmt.Errorf("parse trend: %w", err)
	}
	rec.Trend = parsed
	rec.Category = category.String
	rec.RelatedKeywords = related
	if rec.RelatedKeywords == nil {
		rec.RelatedKeywords = []string{}
	}
	return rec, nil
}

func scanNews(row pgx.Row) (NewsArticle, error) {
	var (
		article   NewsArticle
		published sql.NullTime
	)

	if err := row.Scan(
		&article.ID,
		&article.Title,
		&article.Description,
		&article.URL,
		&article.ImageURL,
		&article.Source,
		&published,
		&article.Category,
		&article.CreatedAt,
	); err != nil {
		return NewsArticle{}, err
	}

	if published.Valid {
		ts := published.Time
		article.PublishedAt = &ts
	}
	return article, nil
}

func scanUser(row pgx.Row) (User, error) {
	var (
		user     User
		tier     string
		prefs    []byte
		lastCall sql.NullTime
	)

	if err := row.Scan(
		&user.ID,
		&user.UID,
		&user.Email,
		&user.DisplayName,
		&user.PhotoURL,
		&user.Verified,
		&tier,
		&prefs,
		&user.Usage.CallsToday,
		&lastCall,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return User{}, err
	}

	user.Tier = usage.Tier(tier)
	if len(prefs) > 0 {
		if err := json.Unmarshal(prefs, &user.Preferences); err != nil {
			return User{}, fmt.Errorf("decode preferences: %w", err)
		}
	}
	if lastCall.Valid {
		ts := lastCall.Time
		user.Usage.LastCall = &ts
	}
	return user, nil
}

var (
	_ KeywordStore   = (*Store)(nil)
	_ NewsStore      = (*Store)(nil)
	_ UserStore      = (*Store)(nil)
	_ EventStore     = (*Store)(nil)
	_ ThumbnailStore = (*Store)(nil)
	_ ActivityStore  = (*Store)(nil)
	_ AdvisoryLocker = (*Store)(nil)
	_ usage.Ledger   = (*Store)(nil)
)
