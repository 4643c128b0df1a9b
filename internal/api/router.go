// Package api exposes the creator-trends REST surface over gin.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"creator-trends/internal/config"
	"creator-trends/internal/fetcher"
	"creator-trends/internal/service"
	"creator-trends/internal/storage"
	"creator-trends/internal/usage"
	"creator-trends/internal/version"
)

// TrendService is the domain surface the handlers call.
type TrendService interface {
	KeywordTrend(ctx context.Context, topic, location string, fresh bool) (service.KeywordResult, error)
	TopKeywords(ctx context.Context) ([]storage.KeywordRecord, error)
	TopSearches(ctx context.Context, category, location string, fresh bool) (service.SearchesResult, error)
	TrendingNews(ctx context.Context, userID int64, category, location string, fresh bool) (service.NewsResult, error)
	YouTubeSearch(ctx context.Context, userID int64, query string, maxResults int) ([]fetcher.Video, error)
	Competitors(ctx context.Context, query string) ([]fetcher.Competitor, error)
	Dashboard(ctx context.Context) (service.Dashboard, error)

	GenerateDescription(ctx context.Context, userID int64, title string, keywords []string, category string) (string, error)
	GenerateKeywords(ctx context.Context, userID int64, title, category string) ([]string, error)
	ContentIdeas(ctx context.Context, userID int64, category string, trendingTopics []string) ([]fetcher.ContentIdea, error)
	ImproveTitle(ctx context.Context, title, category string) (string, error)
	AnalyzePerformance(ctx context.Context, input fetcher.PerformanceInput) (string, error)

	ListThumbnails(ctx context.Context, userID int64, q service.ThumbnailQuery) (service.ThumbnailPage, error)
	CreateThumbnail(ctx context.Context, userID int64, in service.NewThumbnail) (storage.Thumbnail, error)
	GetThumbnail(ctx context.Context, userID, id int64) (storage.Thumbnail, error)
	UpdateThumbnail(ctx context.Context, userID, id int64, patch storage.ThumbnailPatch) (storage.Thumbnail, error)
	DeleteThumbnail(ctx context.Context, userID, id int64) error
	ThumbnailAnalytics(ctx context.Context, userID, id int64, timeRange string) (service.ThumbnailReport, error)
	UserAnalytics(ctx context.Context, user storage.User) (service.UserAnalytics, error)
}

// Admission gates rate-limited routes.
type Admission interface {
	Check(ctx context.Context, identity string, limit int) (usage.Decision, error)
}

// TokenVerifier resolves a bearer token into an identity.
type TokenVerifier interface {
	Verify(raw string) (storage.Identity, error)
}

// TokenIssuer signs a bearer token for an identity.
type TokenIssuer interface {
	Issue(ident storage.Identity) (string, error)
}

// Deps groups the router collaborators.
type Deps struct {
	Config   *config.Config
	Service  TrendService
	Users    storage.UserStore
	Gate     Admission
	Verifier TokenVerifier
	Issuer   TokenIssuer
	Logger   zerolog.Logger
}

type handler struct {
	svc         TrendService
	users       storage.UserStore
	issuer      TokenIssuer
	limits      config.LimitsConfig
	development bool
	devToken    string
	logger      zerolog.Logger
}

// NewRouter wires middleware and routes.
func NewRouter(deps Deps) *gin.Engine {
	if !deps.Config.App.Development() {
		gin.SetMode(gin.ReleaseMode)
	}

	logger := deps.Logger.With().Str("component", "http").Logger()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestID())
	r.Use(requestLogger(logger))
	r.Use(corsMiddleware(deps.Config.HTTP.AllowedOrigins))

	h := &handler{
		svc:         deps.Service,
		users:       deps.Users,
		issuer:      deps.Issuer,
		limits:      deps.Config.Limits,
		development: deps.Config.App.Development(),
		devToken:    deps.Config.Auth.DevToken,
		logger:      logger,
	}

	r.GET("/health", h.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/api/dashboard", h.dashboard)

	authn := authenticate(deps.Verifier, deps.Users, deps.Config.App.Development(), deps.Config.Auth.DevToken, logger)

	authGroup := r.Group("/api/auth", authn)
	{
		authGroup.POST("/login", h.login)
		authGroup.GET("/profile", h.profile)
		authGroup.PUT("/profile", h.updateProfile)
		authGroup.POST("/upgrade", h.upgrade)
		authGroup.GET("/analytics", h.userAnalytics)
	}

	data := r.Group("/api/data", authn)
	{
		data.GET("/keywords", h.keywords)
		data.GET("/top-searches", h.topSearches)
		data.GET("/news", h.news)
		data.GET("/youtube-search", h.youtubeSearch)
		data.GET("/competitors", h.competitors)
	}

	thumbs := r.Group("/api/thumbnails", authn)
	{
		thumbs.GET("", h.listThumbnails)
		thumbs.POST("", rateLimit(deps.Gate, "thumbnails", h.limits.Thumbnails, logger), h.createThumbnail)
		thumbs.GET("/:id", h.getThumbnail)
		thumbs.PUT("/:id", h.updateThumbnail)
		thumbs.DELETE("/:id", h.deleteThumbnail)
		thumbs.GET("/:id/analytics", h.thumbnailAnalytics)
	}

	ai := r.Group("/api/ai", authn)
	{
		ai.POST("/generate-description", rateLimit(deps.Gate, "generate_description", h.limits.GenerateDescription, logger), h.generateDescription)
		ai.POST("/generate-keywords", rateLimit(deps.Gate, "generate_keywords", h.limits.GenerateKeywords, logger), h.generateKeywords)
		ai.POST("/content-ideas", rateLimit(deps.Gate, "content_ideas", h.limits.ContentIdeas, logger), h.contentIdeas)
		ai.POST("/improve-title", rateLimit(deps.Gate, "improve_title", h.limits.ImproveTitle, logger), h.improveTitle)
		ai.POST("/analyze-performance", h.analyzePerformance)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Route not found", "path": c.Request.URL.Path})
	})

	return r
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "OK",
		"message":   "creator-trends backend is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   version.Version,
	})
}

func (h *handler) dashboard(c *gin.Context) {
	dash, err := h.svc.Dashboard(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "Failed to fetch dashboard data")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "dashboard": dash})
}
