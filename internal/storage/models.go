package storage

import (
	"time"

	"creator-trends/internal/analytics"
	"creator-trends/internal/usage"
)

// KeywordRecord is the persisted trend data for one search term.
type KeywordRecord struct {
	Keyword         string          `json:"keyword"`
	Category        string          `json:"category,omitempty"`
	SearchVolume    int64           `json:"searchVolume"`
	Trend           analytics.Trend `json:"trend"`
	RelatedKeywords []string        `json:"relatedKeywords"`
	Articles        int             `json:"articles,omitempty"`
	Source          string          `json:"source"`
	LastUpdated     time.Time       `json:"lastUpdated"`
}

// KeywordFilter narrows recent keyword queries. Empty fields match everything.
type KeywordFilter struct {
	Category string
	Trend    analytics.Trend
}

// NewsArticle is a stored news result, unique by URL.
type NewsArticle struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	URL         string     `json:"url"`
	ImageURL    string     `json:"imageUrl,omitempty"`
	Source      string     `json:"source,omitempty"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
	Category    string     `json:"category,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// User is an identity record with its embedded usage counter.
type User struct {
	ID          int64         `json:"id"`
	UID         string        `json:"uid"`
	Email       string        `json:"email"`
	DisplayName string        `json:"displayName"`
	PhotoURL    string        `json:"photoURL,omitempty"`
	Verified    bool          `json:"isVerified"`
	Tier        usage.Tier    `json:"subscription"`
	Preferences Preferences   `json:"preferences"`
	Usage       usage.Counter `json:"usage"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// Preferences holds per-user display settings.
type Preferences struct {
	Theme         string `json:"theme"`
	Notifications bool   `json:"notifications"`
	Language      string `json:"language"`
}

// PreferencesPatch carries the preference keys a profile update sets; nil keeps the stored value.
type PreferencesPatch struct {
	Theme         *string `json:"theme,omitempty"`
	Notifications *bool   `json:"notifications,omitempty"`
	Language      *string `json:"language,omitempty"`
}

// ProfilePatch is a partial profile update.
type ProfilePatch struct {
	DisplayName string
	Preferences *PreferencesPatch
}

// Identity carries the claims used to find or create a User.
type Identity struct {
	UID         string
	Email       string
	DisplayName string
	PhotoURL    string
	Verified    bool
}

// Event kinds recorded in the analytics log.
const (
	EventView     = "view"
	EventClick    = "click"
	EventShare    = "share"
	EventDownload = "download"
	EventGenerate = "generate"
	EventSearch   = "search"
)

// Event is one analytics log entry. ThumbnailID is set for thumbnail-scoped entries.
type Event struct {
	UserID      int64
	ThumbnailID *int64
	Kind        string
	Source      string
	Metadata    map[string]string
	CreatedAt   time.Time
}

// DashboardCounts aggregates collection sizes for the dashboard.
type DashboardCounts struct {
	Users    int64 `json:"totalUsers"`
	News     int64 `json:"totalNews"`
	Keywords int64 `json:"totalKeywords"`
	Events   int64 `json:"recentEvents"`
}

// Thumbnail categories accepted by the thumbnails table.
var ThumbnailCategories = []string{"gaming", "education", "entertainment", "technology", "lifestyle", "business", "other"}

// Thumbnail is a creator-owned thumbnail with its performance counters.
type Thumbnail struct {
	ID          int64                `json:"id"`
	UserID      int64                `json:"userId"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	ImageURL    string               `json:"imageUrl"`
	VideoURL    string               `json:"videoUrl,omitempty"`
	Category    string               `json:"category"`
	Keywords    []string             `json:"keywords"`
	AIGenerated bool                 `json:"aiGenerated"`
	Performance ThumbnailPerformance `json:"performance"`
	Analytics   ThumbnailAnalytics   `json:"analytics"`
	IsPublic    bool                 `json:"isPublic"`
	Tags        []string             `json:"tags"`
	CreatedAt   time.Time            `json:"createdAt"`
	UpdatedAt   time.Time            `json:"updatedAt"`
}

// ThumbnailPerformance tracks audience response to a thumbnail.
type ThumbnailPerformance struct {
	Views  int64   `json:"views"`
	Clicks int64   `json:"clicks"`
	CTR    float64 `json:"ctr"`
	Rating int     `json:"rating"`
}

// ThumbnailAnalytics holds reach figures reported for a thumbnail.
type ThumbnailAnalytics struct {
	Impressions    int64   `json:"impressions"`
	Engagement     float64 `json:"engagement"`
	ConversionRate float64 `json:"conversionRate"`
}

// ThumbnailFilter selects one page of a user's thumbnails. Empty Category and Search match everything.
type ThumbnailFilter struct {
	Category string
	Search   string
	Offset   int
	Limit    int
}

// ThumbnailPatch is a partial thumbnail update; nil fields keep the stored value.
type ThumbnailPatch struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	ImageURL    *string   `json:"imageUrl"`
	VideoURL    *string   `json:"videoUrl"`
	Category    *string   `json:"category"`
	Keywords    *[]string `json:"keywords"`
	IsPublic    *bool     `json:"isPublic"`
	Tags        *[]string `json:"tags"`
}

// EventCount is the number of events of one kind, optionally bucketed by UTC day (YYYY-MM-DD).
type EventCount struct {
	Date  string `json:"date,omitempty"`
	Kind  string `json:"event"`
	Count int64  `json:"count"`
}

// UserActivity summarises a user's thumbnails and recent events.
type UserActivity struct {
	ThumbnailCount int64        `json:"thumbnailCount"`
	EventCounts    []EventCount `json:"eventCounts"`
	TopThumbnails  []Thumbnail  `json:"topThumbnails"`
}
