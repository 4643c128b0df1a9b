package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creator-trends/internal/analytics"
	"creator-trends/internal/auth"
	"creator-trends/internal/config"
	"creator-trends/internal/fetcher"
	"creator-trends/internal/service"
	"creator-trends/internal/storage"
	"creator-trends/internal/usage"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeService struct {
	keyword      service.KeywordResult
	keywordErr   error
	lastFresh    bool
	lastMax      int
	lastUserID   int64
	descriptions int

	thumbs     map[int64]storage.Thumbnail
	lastQuery  service.ThumbnailQuery
	lastPatch  storage.ThumbnailPatch
	lastRange  string
	lastCreate service.NewThumbnail
}

func (f *fakeService) KeywordTrend(_ context.Context, topic, _ string, fresh bool) (service.KeywordResult, error) {
	f.lastFresh = fresh
	if f.keywordErr != nil {
		return service.KeywordResult{}, f.keywordErr
	}
	res := f.keyword
	res.Record.Keyword = topic
	return res, nil
}

func (f *fakeService) TopKeywords(context.Context) ([]storage.KeywordRecord, error) {
	return []storage.KeywordRecord{{Keyword: "golang", Trend: analytics.TrendRising}}, nil
}

func (f *fakeService) TopSearches(_ context.Context, category, _ string, _ bool) (service.SearchesResult, error) {
	return service.SearchesResult{Records: []storage.KeywordRecord{{Keyword: "top", Category: category}}, Cached: true}, nil
}

func (f *fakeService) TrendingNews(_ context.Context, userID int64, _, _ string, _ bool) (service.NewsResult, error) {
	f.lastUserID = userID
	return service.NewsResult{Articles: []storage.NewsArticle{{Title: "headline", URL: "https://example.com/a"}}}, nil
}

func (f *fakeService) YouTubeSearch(_ context.Context, userID int64, query string, maxResults int) ([]fetcher.Video, error) {
	f.lastUserID = userID
	f.lastMax = maxResults
	if query == "" {
		return nil, fmt.Errorf("%w: search query is required", service.ErrInvalidInput)
	}
	return []fetcher.Video{{Title: "video"}}, nil
}

func (f *fakeService) Competitors(context.Context, string) ([]fetcher.Competitor, error) {
	return nil, fmt.Errorf("serp: %w: timeout", fetcher.ErrFetchFailed)
}

func (f *fakeService) Dashboard(context.Context) (service.Dashboard, error) {
	return service.Dashboard{Counts: storage.DashboardCounts{Users: 3}}, nil
}

func (f *fakeService) GenerateDescription(_ context.Context, userID int64, title string, _ []string, _ string) (string, error) {
	f.lastUserID = userID
	f.descriptions++
	return "about " + title, nil
}

func (f *fakeService) GenerateKeywords(context.Context, int64, string, string) ([]string, error) {
	return []string{"a", "b"}, nil
}

func (f *fakeService) ContentIdeas(context.Context, int64, string, []string) ([]fetcher.ContentIdea, error) {
	return []fetcher.ContentIdea{{Title: "idea"}}, nil
}

func (f *fakeService) ImproveTitle(_ context.Context, title, _ string) (string, error) {
	return title + "!", nil
}

func (f *fakeService) AnalyzePerformance(context.Context, fetcher.PerformanceInput) (string, error) {
	return "looks good", nil
}

func (f *fakeService) ListThumbnails(_ context.Context, userID int64, q service.ThumbnailQuery) (service.ThumbnailPage, error) {
	f.lastUserID = userID
	f.lastQuery = q
	thumbs := make([]storage.Thumbnail, 0, len(f.thumbs))
	for _, thumb := range f.thumbs {
		thumbs = append(thumbs, thumb)
	}
	return service.ThumbnailPage{
		Thumbnails: thumbs,
		Pagination: service.Pagination{CurrentPage: max(q.Page, 1), TotalPages: 1, TotalItems: int64(len(thumbs))},
	}, nil
}

func (f *fakeService) CreateThumbnail(_ context.Context, userID int64, in service.NewThumbnail) (storage.Thumbnail, error) {
	f.lastCreate = in
	if in.Title == "" {
		return storage.Thumbnail{}, fmt.Errorf("%w: title is required", service.ErrInvalidInput)
	}
	if f.thumbs == nil {
		f.thumbs = make(map[int64]storage.Thumbnail)
	}
	thumb := storage.Thumbnail{ID: int64(len(f.thumbs) + 1), UserID: userID, Title: in.Title, Category: "other", AIGenerated: in.GenerateAI}
	f.thumbs[thumb.ID] = thumb
	return thumb, nil
}

func (f *fakeService) owned(userID, id int64) (storage.Thumbnail, error) {
	thumb, ok := f.thumbs[id]
	if !ok || thumb.UserID != userID {
		return storage.Thumbnail{}, storage.ErrThumbnailNotFound
	}
	return thumb, nil
}

func (f *fakeService) GetThumbnail(_ context.Context, userID, id int64) (storage.Thumbnail, error) {
	thumb, err := f.owned(userID, id)
	if err != nil {
		return storage.Thumbnail{}, err
	}
	thumb.Performance.Views++
	f.thumbs[id] = thumb
	return thumb, nil
}

func (f *fakeService) UpdateThumbnail(_ context.Context, userID, id int64, patch storage.ThumbnailPatch) (storage.Thumbnail, error) {
	f.lastPatch = patch
	thumb, err := f.owned(userID, id)
	if err != nil {
		return storage.Thumbnail{}, err
	}
	if patch.Title != nil {
		thumb.Title = *patch.Title
	}
	f.thumbs[id] = thumb
	return thumb, nil
}

func (f *fakeService) DeleteThumbnail(_ context.Context, userID, id int64) error {
	if _, err := f.owned(userID, id); err != nil {
		return err
	}
	delete(f.thumbs, id)
	return nil
}

func (f *fakeService) ThumbnailAnalytics(_ context.Context, userID, id int64, timeRange string) (service.ThumbnailReport, error) {
	f.lastRange = timeRange
	thumb, err := f.owned(userID, id)
	if err != nil {
		return service.ThumbnailReport{}, err
	}
	return service.ThumbnailReport{
		Thumbnail: thumb,
		TimeRange: "30d",
		ChartData: []storage.EventCount{{Date: "2024-05-01", Kind: storage.EventView, Count: 4}},
	}, nil
}

func (f *fakeService) UserAnalytics(_ context.Context, user storage.User) (service.UserAnalytics, error) {
	return service.UserAnalytics{
		UserActivity: storage.UserActivity{
			ThumbnailCount: int64(len(f.thumbs)),
			EventCounts:    []storage.EventCount{{Kind: storage.EventGenerate, Count: 2}},
			TopThumbnails:  []storage.Thumbnail{},
		},
		Usage: user.Usage,
	}, nil
}

type fakeUsers struct {
	created []storage.Identity
	tiers   map[string]usage.Tier
	patches []storage.ProfilePatch
}

func (f *fakeUsers) FindOrCreateUser(_ context.Context, ident storage.Identity) (storage.User, error) {
	f.created = append(f.created, ident)
	tier := usage.TierFree
	if t, ok := f.tiers[ident.UID]; ok {
		tier = t
	}
	return storage.User{ID: 42, UID: ident.UID, Email: ident.Email, Tier: tier}, nil
}

func (f *fakeUsers) SetUserTier(_ context.Context, uid string, tier usage.Tier) (storage.User, error) {
	if f.tiers == nil {
		f.tiers = make(map[string]usage.Tier)
	}
	f.tiers[uid] = tier
	return storage.User{ID: 42, UID: uid, Tier: tier}, nil
}

func (f *fakeUsers) UpdateProfile(_ context.Context, uid string, patch storage.ProfilePatch) (storage.User, error) {
	f.patches = append(f.patches, patch)
	user := storage.User{ID: 42, UID: uid, DisplayName: patch.DisplayName, Preferences: storage.Preferences{Theme: "auto", Notifications: true, Language: "en"}}
	if patch.Preferences != nil && patch.Preferences.Theme != nil {
		user.Preferences.Theme = *patch.Preferences.Theme
	}
	return user, nil
}

type fakeGate struct {
	calls map[string]int
}

func (g *fakeGate) Check(_ context.Context, identity string, limit int) (usage.Decision, error) {
	if g.calls == nil {
		g.calls = make(map[string]int)
	}
	if g.calls[identity] >= limit {
		return usage.Decision{Admitted: false, Limit: limit, Counter: usage.Counter{CallsToday: limit}}, nil
	}
	g.calls[identity]++
	return usage.Decision{Admitted: true, Limit: limit, Counter: usage.Counter{CallsToday: g.calls[identity]}}, nil
}

type testEnv struct {
	router *gin.Engine
	svc    *fakeService
	users  *fakeUsers
	tokens *auth.Tokens
}

func testConfig(environment string, origins ...string) *config.Config {
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	cfg := &config.Config{}
	cfg.App.Environment = environment
	cfg.Auth = config.AuthConfig{JWTSecret: "test-secret", Issuer: "creator-trends", TokenTTL: time.Hour, DevToken: "dev-token"}
	cfg.HTTP.AllowedOrigins = origins
	cfg.Limits = config.LimitsConfig{ContentIdeas: 10, ImproveTitle: 15, GenerateKeywords: 20, GenerateDescription: 2, Thumbnails: 50}
	return cfg
}

func newTestEnv(t *testing.T, environment string, origins ...string) testEnv {
	t.Helper()
	return newTestEnvWithConfig(t, testConfig(environment, origins...))
}

func newTestEnvWithConfig(t *testing.T, cfg *config.Config) testEnv {
	t.Helper()
	svc := &fakeService{}
	users := &fakeUsers{}
	tokens := auth.NewTokens(cfg.Auth)
	router := NewRouter(Deps{
		Config:   cfg,
		Service:  svc,
		Users:    users,
		Gate:     &fakeGate{},
		Verifier: tokens,
		Issuer:   tokens,
		Logger:   zerolog.Nop(),
	})
	return testEnv{router: router, svc: svc, users: users, tokens: tokens}
}

func (e testEnv) do(t *testing.T, method, target string, body any, header http.Header) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	var payload map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	}
	return rec, payload
}

func bearer(token string) http.Header {
	return http.Header{"Authorization": []string{"Bearer " + token}}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, "production")
	rec, body := env.do(t, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", body["status"])
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestDevelopmentIdentityWithoutHeader(t *testing.T) {
	env := newTestEnv(t, "development")
	rec, body := env.do(t, http.MethodGet, "/api/auth/profile", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	user := body["user"].(map[string]any)
	assert.Equal(t, auth.DevIdentity.UID, user["uid"])
	require.Len(t, env.users.created, 1)
}

func TestDevelopmentTokenMapsToDevIdentity(t *testing.T) {
	env := newTestEnv(t, "development")
	rec, _ := env.do(t, http.MethodGet, "/api/auth/profile", nil, bearer("dev-token"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, auth.DevIdentity.UID, env.users.created[0].UID)
}

func TestProductionRequiresToken(t *testing.T) {
	env := newTestEnv(t, "production")

	rec, body := env.do(t, http.MethodGet, "/api/auth/profile", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "No token provided", body["error"])

	rec, body = env.do(t, http.MethodGet, "/api/auth/profile", nil, bearer("dev-token"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid token", body["error"])
}

func TestSignedTokenAuthenticates(t *testing.T) {
	env := newTestEnv(t, "production")
	token, err := env.tokens.Issue(storage.Identity{UID: "user-1", Email: "u@example.com"})
	require.NoError(t, err)

	rec, body := env.do(t, http.MethodGet, "/api/auth/profile", nil, bearer(token))
	require.Equal(t, http.StatusOK, rec.Code)
	user := body["user"].(map[string]any)
	assert.Equal(t, "user-1", user["uid"])
	assert.Equal(t, "u@example.com", user["email"])
}

func TestKeywordsRoutes(t *testing.T) {
	env := newTestEnv(t, "development")

	rec, body := env.do(t, http.MethodGet, "/api/data/keywords", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["cached"])
	assert.Len(t, body["keywords"], 1)

	env.svc.keyword = service.KeywordResult{Record: storage.KeywordRecord{Trend: analytics.TrendRising, SearchVolume: 15}}
	rec, body = env.do(t, http.MethodGet, "/api/data/keywords?topic=react+native&fresh=true", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	keyword := body["keyword"].(map[string]any)
	assert.Equal(t, "react native", keyword["keyword"])
	assert.Equal(t, "rising", keyword["trend"])
	assert.True(t, env.svc.lastFresh)

	env.do(t, http.MethodGet, "/api/data/keywords?topic=x&fresh=maybe", nil, nil)
	assert.False(t, env.svc.lastFresh)
}

func TestUpstreamFailureMapsToBadGateway(t *testing.T) {
	env := newTestEnv(t, "development")
	env.svc.keywordErr = fmt.Errorf("fetch keyword trend: %w", fetcher.ErrFetchFailed)

	rec, body := env.do(t, http.MethodGet, "/api/data/keywords?topic=go", nil, nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "Failed to fetch trending keywords", body["error"])

	rec, _ = env.do(t, http.MethodGet, "/api/data/competitors?query=go", nil, nil)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestYouTubeSearchValidation(t *testing.T) {
	env := newTestEnv(t, "development")

	rec, body := env.do(t, http.MethodGet, "/api/data/youtube-search", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Search query is required", body["error"])

	rec, _ = env.do(t, http.MethodGet, "/api/data/youtube-search?query=go&maxResults=abc", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = env.do(t, http.MethodGet, "/api/data/youtube-search?query=go&maxResults=500", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "go", body["query"])
	assert.Equal(t, maxMaxResults, env.svc.lastMax)
	assert.Equal(t, int64(42), env.svc.lastUserID)
}

func TestRateLimitDeniesAfterLimit(t *testing.T) {
	env := newTestEnv(t, "development")
	req := map[string]any{"title": "Go tips", "category": "tech"}

	for i := 0; i < 2; i++ {
		rec, body := env.do(t, http.MethodPost, "/api/ai/generate-description", req, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "about Go tips", body["description"])
	}

	rec, body := env.do(t, http.MethodPost, "/api/ai/generate-description", req, nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "Daily API limit exceeded", body["error"])
	assert.EqualValues(t, 2, body["limit"])
	assert.Equal(t, true, body["upgrade"])
	assert.Equal(t, 2, env.svc.descriptions)
}

func TestAnalyzePerformanceIsNotRateLimited(t *testing.T) {
	env := newTestEnv(t, "development")
	for i := 0; i < 5; i++ {
		rec, body := env.do(t, http.MethodPost, "/api/ai/analyze-performance", map[string]any{"title": "x"}, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "looks good", body["analysis"])
	}
}

func TestImproveTitleEchoesOriginal(t *testing.T) {
	env := newTestEnv(t, "development")
	rec, body := env.do(t, http.MethodPost, "/api/ai/improve-title", map[string]any{"title": "Go"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Go", body["originalTitle"])
	assert.Equal(t, "Go!", body["improvedTitle"])
}

func TestMalformedJSONIsRejected(t *testing.T) {
	env := newTestEnv(t, "development")
	req := httptest.NewRequest(http.MethodPost, "/api/ai/generate-keywords", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpgrade(t *testing.T) {
	env := newTestEnv(t, "development")

	rec, body := env.do(t, http.MethodPost, "/api/auth/upgrade", map[string]any{"planType": "premium"}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "premium", body["subscription"])

	rec, body = env.do(t, http.MethodGet, "/api/auth/profile", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "premium", body["user"].(map[string]any)["subscription"])
}

func TestDashboardIsPublic(t *testing.T) {
	env := newTestEnv(t, "production")
	rec, body := env.do(t, http.MethodGet, "/api/dashboard", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	dash := body["dashboard"].(map[string]any)
	stats := dash["stats"].(map[string]any)
	assert.EqualValues(t, 3, stats["totalUsers"])
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t, "production")
	req := httptest.NewRequest(http.MethodOptions, "/api/data/keywords", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORSWildcardOmitsCredentials(t *testing.T) {
	env := newTestEnv(t, "production", "*", "https://studio.example.com")

	req := httptest.NewRequest(http.MethodOptions, "/api/data/keywords", nil)
	req.Header.Set("Origin", "https://evil.example.net")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodOptions, "/api/data/keywords", nil)
	req.Header.Set("Origin", "https://studio.example.com")
	rec = httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Equal(t, "https://studio.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORSUnlistedOrigin(t *testing.T) {
	env := newTestEnv(t, "production")
	req := httptest.NewRequest(http.MethodOptions, "/api/data/keywords", nil)
	req.Header.Set("Origin", "https://evil.example.net")
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestUnknownRoute(t *testing.T) {
	env := newTestEnv(t, "production")
	rec, body := env.do(t, http.MethodGet, "/nope", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Route not found", body["error"])
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	env := newTestEnv(t, "production")
	token, err := env.tokens.Issue(storage.Identity{UID: "user-1", Email: "u@example.com"})
	require.NoError(t, err)

	rec, body := env.do(t, http.MethodPost, "/api/auth/login", nil, bearer(token))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Login successful", body["message"])
	assert.Equal(t, "user-1", body["user"].(map[string]any)["uid"])

	issued, ok := body["token"].(string)
	require.True(t, ok)
	ident, err := env.tokens.Verify(issued)
	require.NoError(t, err)
	assert.Equal(t, "user-1", ident.UID)
	assert.Equal(t, "u@example.com", ident.Email)
}

func TestLoginWithoutSecret(t *testing.T) {
	cfg := testConfig("development")
	cfg.Auth.JWTSecret = ""
	env := newTestEnvWithConfig(t, cfg)

	rec, body := env.do(t, http.MethodPost, "/api/auth/login", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "dev-token", body["token"])

	cfg = testConfig("development")
	cfg.Auth.JWTSecret = ""
	cfg.Auth.DevToken = ""
	env = newTestEnvWithConfig(t, cfg)

	rec, body = env.do(t, http.MethodPost, "/api/auth/login", nil, nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Login failed", body["error"])
}

func TestLoginRequiresToken(t *testing.T) {
	env := newTestEnv(t, "production")
	rec, _ := env.do(t, http.MethodPost, "/api/auth/login", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUpdateProfile(t *testing.T) {
	env := newTestEnv(t, "development")

	rec, body := env.do(t, http.MethodPut, "/api/auth/profile", map[string]any{
		"displayName": "  Ana ",
		"preferences": map[string]any{"theme": "dark", "notifications": false},
	}, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Profile updated successfully", body["message"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "Ana", user["displayName"])
	assert.Equal(t, "dark", user["preferences"].(map[string]any)["theme"])

	require.Len(t, env.users.patches, 1)
	patch := env.users.patches[0]
	assert.Equal(t, "Ana", patch.DisplayName)
	require.NotNil(t, patch.Preferences.Notifications)
	assert.False(t, *patch.Preferences.Notifications)
	assert.Nil(t, patch.Preferences.Language)
}

func TestUpdateProfileRejectsUnknownTheme(t *testing.T) {
	env := newTestEnv(t, "development")
	rec, body := env.do(t, http.MethodPut, "/api/auth/profile", map[string]any{"preferences": map[string]any{"theme": "neon"}}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Theme must be one of light, dark, auto", body["error"])
	assert.Empty(t, env.users.patches)
}

func TestUserAnalytics(t *testing.T) {
	env := newTestEnv(t, "development")
	_, _ = env.do(t, http.MethodPost, "/api/thumbnails", map[string]any{"title": "Speedrun"}, nil)

	rec, body := env.do(t, http.MethodGet, "/api/auth/analytics", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	report := body["analytics"].(map[string]any)
	assert.EqualValues(t, 1, report["thumbnailCount"])
	assert.Len(t, report["eventCounts"], 1)
	assert.Contains(t, report, "usage")
	assert.Contains(t, report, "topThumbnails")
}
