package storage

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creator-trends/internal/usage"
)

var thumbnailRowColumns = []string{
	"id", "user_id", "title", "description", "image_url", "video_url", "category", "keywords", "ai_generated",
	"views", "clicks", "ctr", "rating", "impressions", "engagement", "conversion_rate", "is_public", "tags", "created_at", "updated_at",
}

func thumbnailRow(id int64, title string, views int64, at time.Time) []any {
	return []any{
		id, int64(42), title, "", "https://img.example.com/" + title + ".png", "", "gaming", []string{"minecraft"}, false,
		views, int64(0), float64(0), int16(3), int64(0), float64(0), float64(0), false, []string(nil), at, at,
	}
}

func TestCreateThumbnailDefaultsCategory(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery("INSERT INTO thumbnails").
		WithArgs(int64(42), "Speedrun", "", "", "", "other", []string{}, true, false, []string{}).
		WillReturnRows(mock.NewRows(thumbnailRowColumns).AddRow(thumbnailRow(9, "Speedrun", 0, now)...))

	thumb, err := store.CreateThumbnail(context.Background(), Thumbnail{UserID: 42, Title: "Speedrun", AIGenerated: true})
	require.NoError(t, err)
	assert.Equal(t, int64(9), thumb.ID)
	assert.Equal(t, 3, thumb.Performance.Rating)
	assert.Equal(t, []string{}, thumb.Tags)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListThumbnailsEscapesSearch(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT COUNT").
		WithArgs(int64(42), "gaming", `%100\%\_run%`).
		WillReturnRows(mock.NewRows([]string{"count"}).AddRow(int64(12)))
	mock.ExpectQuery("FROM thumbnails").
		WithArgs(int64(42), "gaming", `%100\%\_run%`, 10, 10).
		WillReturnRows(mock.NewRows(thumbnailRowColumns).
			AddRow(thumbnailRow(3, "b", 5, now)...).
			AddRow(thumbnailRow(2, "a", 1, now.Add(-time.Hour))...))

	thumbs, total, err := store.ListThumbnails(context.Background(), 42, ThumbnailFilter{Category: "gaming", Search: " 100%_run ", Offset: 10, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(12), total)
	require.Len(t, thumbs, 2)
	assert.Equal(t, int64(3), thumbs[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListThumbnailsEmptySearchMatchesAll(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT COUNT").
		WithArgs(int64(42), "", "").
		WillReturnRows(mock.NewRows([]string{"count"}).AddRow(int64(0)))
	mock.ExpectQuery("FROM thumbnails").
		WithArgs(int64(42), "", "", 0, 10).
		WillReturnRows(mock.NewRows(thumbnailRowColumns))

	thumbs, total, err := store.ListThumbnails(context.Background(), 42, ThumbnailFilter{Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, thumbs)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestViewThumbnailScopedToOwner(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SET views = views \\+ 1").
		WithArgs(int64(9), int64(42)).
		WillReturnRows(mock.NewRows(thumbnailRowColumns).AddRow(thumbnailRow(9, "Speedrun", 8, now)...))
	mock.ExpectQuery("SET views = views \\+ 1").
		WithArgs(int64(9), int64(7)).
		WillReturnRows(mock.NewRows(thumbnailRowColumns))

	thumb, err := store.ViewThumbnail(context.Background(), 42, 9)
	require.NoError(t, err)
	assert.Equal(t, int64(8), thumb.Performance.Views)

	_, err = store.ViewThumbnail(context.Background(), 7, 9)
	assert.ErrorIs(t, err, ErrThumbnailNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateThumbnailPassesOnlySetFields(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	title := "Speedrun any%"
	public := true
	keywords := []string{"speedrun"}

	mock.ExpectQuery("UPDATE thumbnails").
		WithArgs(int64(9), int64(42), title, nil, nil, nil, nil, []string{"speedrun"}, true, nil).
		WillReturnRows(mock.NewRows(thumbnailRowColumns).AddRow(thumbnailRow(9, title, 0, now)...))

	thumb, err := store.UpdateThumbnail(context.Background(), 42, 9, ThumbnailPatch{Title: &title, Keywords: &keywords, IsPublic: &public})
	require.NoError(t, err)
	assert.Equal(t, title, thumb.Title)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteThumbnailMissing(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("DELETE FROM thumbnails").
		WithArgs(int64(9), int64(42)).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec("DELETE FROM thumbnails").
		WithArgs(int64(9), int64(42)).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	require.NoError(t, store.DeleteThumbnail(context.Background(), 42, 9))
	assert.ErrorIs(t, store.DeleteThumbnail(context.Background(), 42, 9), ErrThumbnailNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestThumbnailActivityGroupsByDay(t *testing.T) {
	store, mock := newMockStore(t)
	since := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("GROUP BY day, kind").
		WithArgs(int64(9), since).
		WillReturnRows(mock.NewRows([]string{"day", "kind", "count"}).
			AddRow("2024-04-02", "click", int64(2)).
			AddRow("2024-04-02", "view", int64(5)))

	counts, err := store.ThumbnailActivity(context.Background(), 9, since)
	require.NoError(t, err)
	assert.Equal(t, []EventCount{
		{Date: "2024-04-02", Kind: EventClick, Count: 2},
		{Date: "2024-04-02", Kind: EventView, Count: 5},
	}, counts)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserActivity(t *testing.T) {
	store, mock := newMockStore(t)
	since := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM thumbnails").
		WithArgs(int64(42)).
		WillReturnRows(mock.NewRows([]string{"count"}).AddRow(int64(3)))
	mock.ExpectQuery("GROUP BY kind").
		WithArgs(int64(42), since).
		WillReturnRows(mock.NewRows([]string{"kind", "count"}).AddRow("generate", int64(4)))
	mock.ExpectQuery("ORDER BY views DESC").
		WithArgs(int64(42), 5).
		WillReturnRows(mock.NewRows(thumbnailRowColumns).AddRow(thumbnailRow(9, "Speedrun", 80, since)...))

	activity, err := store.UserActivity(context.Background(), 42, since, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(3), activity.ThumbnailCount)
	assert.Equal(t, []EventCount{{Kind: EventGenerate, Count: 4}}, activity.EventCounts)
	require.Len(t, activity.TopThumbnails, 1)
	assert.Equal(t, int64(80), activity.TopThumbnails[0].Performance.Views)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertEventCarriesThumbnailID(t *testing.T) {
	store, mock := newMockStore(t)
	at := time.Date(2024, 5, 1, 15, 0, 0, 0, time.UTC)
	thumbID := int64(9)

	mock.ExpectExec("INSERT INTO events").
		WithArgs(int64(3), EventView, "api", []byte(`null`), at, int64(9)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := store.InsertEvent(context.Background(), Event{UserID: 3, ThumbnailID: &thumbID, Kind: EventView, Source: "api", CreatedAt: at})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateProfileMergesPreferences(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	theme := "dark"

	mock.ExpectQuery("preferences \\|\\| \\$3::jsonb").
		WithArgs("uid-1", "Ana", []byte(`{"theme":"dark"}`)).
		WillReturnRows(mock.NewRows([]string{"id", "uid", "email", "display_name", "photo_url", "is_verified", "tier", "preferences", "api_calls_today", "last_api_call", "created_at", "updated_at"}).
			AddRow(int64(1), "uid-1", "ana@example.com", "Ana", "", true, "free", []byte(`{"theme":"dark","notifications":true,"language":"en"}`), 0, nil, now, now))
	mock.ExpectQuery("UPDATE users").
		WithArgs("ghost", "", []byte(`{}`)).
		WillReturnRows(mock.NewRows([]string{"id"}))

	user, err := store.UpdateProfile(context.Background(), "uid-1", ProfilePatch{DisplayName: "Ana", Preferences: &PreferencesPatch{Theme: &theme}})
	require.NoError(t, err)
	assert.Equal(t, "Ana", user.DisplayName)
	assert.Equal(t, Preferences{Theme: "dark", Notifications: true, Language: "en"}, user.Preferences)
	assert.Equal(t, usage.TierFree, user.Tier)
	assert.Nil(t, user.Usage.LastCall)

	_, err = store.UpdateProfile(context.Background(), "ghost", ProfilePatch{})
	assert.ErrorIs(t, err, ErrUserNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\% off\_now \\o/`, escapeLike(`50% off_now \o/`))
}
