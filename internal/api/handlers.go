package api

import (
	"errors"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"creator-trends/internal/auth"
	"creator-trends/internal/fetcher"
	"creator-trends/internal/service"
	"creator-trends/internal/storage"
	"creator-trends/internal/usage"
)

const (
	defaultMaxResults = 10
	maxMaxResults     = 50
)

func (h *handler) keywords(c *gin.Context) {
	topic := strings.TrimSpace(c.Query("topic"))
	if topic == "" {
		records, err := h.svc.TopKeywords(c.Request.Context())
		if err != nil {
			h.respondError(c, err, "Failed to fetch trending keywords")
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "keywords": records, "cached": true})
		return
	}

	res, err := h.svc.KeywordTrend(c.Request.Context(), topic, c.Query("location"), queryFlag(c, "fresh"))
	if err != nil {
		h.respondError(c, err, "Failed to fetch trending keywords")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "keyword": res.Record, "cached": res.Cached})
}

func (h *handler) topSearches(c *gin.Context) {
	res, err := h.svc.TopSearches(c.Request.Context(), c.Query("category"), c.Query("location"), queryFlag(c, "fresh"))
	if err != nil {
		h.respondError(c, err, "Failed to fetch top searches")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "searches": res.Records, "cached": res.Cached})
}

func (h *handler) news(c *gin.Context) {
	user := currentUser(c)
	res, err := h.svc.TrendingNews(c.Request.Context(), user.ID, c.Query("category"), c.Query("location"), queryFlag(c, "fresh"))
	if err != nil {
		h.respondError(c, err, "Failed to fetch trending news")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "news": res.Articles, "cached": res.Cached})
}

func (h *handler) youtubeSearch(c *gin.Context) {
	query := c.Query("query")
	maxResults := defaultMaxResults
	if raw := c.Query("maxResults"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "maxResults must be a positive integer"})
			return
		}
		maxResults = min(n, maxMaxResults)
	}

	user := currentUser(c)
	results, err := h.svc.YouTubeSearch(c.Request.Context(), user.ID, query, maxResults)
	if err != nil {
		h.respondError(c, err, "Failed to search YouTube content")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "results": results, "query": query})
}

func (h *handler) competitors(c *gin.Context) {
	query := c.Query("query")
	results, err := h.svc.Competitors(c.Request.Context(), query)
	if err != nil {
		h.respondError(c, err, "Failed to analyze competitors")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "competitors": results, "query": query})
}

type titleRequest struct {
	Title    string   `json:"title"`
	Keywords []string `json:"keywords"`
	Category string   `json:"category"`
}

type ideasRequest struct {
	Category       string   `json:"category"`
	TrendingTopics []string `json:"trendingTopics"`
}

func (h *handler) generateDescription(c *gin.Context) {
	var req titleRequest
	if !bindJSON(c, &req) {
		return
	}
	user := currentUser(c)
	description, err := h.svc.GenerateDescription(c.Request.Context(), user.ID, req.Title, req.Keywords, req.Category)
	if err != nil {
		h.respondError(c, err, "Failed to generate description")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "description": description})
}

func (h *handler) generateKeywords(c *gin.Context) {
	var req titleRequest
	if !bindJSON(c, &req) {
		return
	}
	user := currentUser(c)
	keywords, err := h.svc.GenerateKeywords(c.Request.Context(), user.ID, req.Title, req.Category)
	if err != nil {
		h.respondError(c, err, "Failed to generate keywords")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "keywords": keywords})
}

func (h *handler) contentIdeas(c *gin.Context) {
	var req ideasRequest
	if !bindJSON(c, &req) {
		return
	}
	user := currentUser(c)
	ideas, err := h.svc.ContentIdeas(c.Request.Context(), user.ID, req.Category, req.TrendingTopics)
	if err != nil {
		h.respondError(c, err, "Failed to generate content ideas")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "ideas": ideas})
}

func (h *handler) improveTitle(c *gin.Context) {
	var req titleRequest
	if !bindJSON(c, &req) {
		return
	}
	improved, err := h.svc.ImproveTitle(c.Request.Context(), req.Title, req.Category)
	if err != nil {
		h.respondError(c, err, "Failed to improve title")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "originalTitle": req.Title, "improvedTitle": improved})
}

func (h *handler) analyzePerformance(c *gin.Context) {
	var req fetcher.PerformanceInput
	if !bindJSON(c, &req) {
		return
	}
	analysis, err := h.svc.AnalyzePerformance(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err, "Failed to analyze performance")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "analysis": analysis})
}

func (h *handler) login(c *gin.Context) {
	user := currentUser(c)
	token, err := h.issuer.Issue(storage.Identity{
		UID:         user.UID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		PhotoURL:    user.PhotoURL,
		Verified:    user.Verified,
	})
	if errors.Is(err, auth.ErrNoSecret) && h.development && h.devToken != "" {
		token, err = h.devToken, nil
	}
	if err != nil {
		h.respondError(c, err, "Login failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Login successful",
		"token":   token,
		"user":    user,
	})
}

func (h *handler) profile(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"success": true, "user": currentUser(c)})
}

var themes = []string{"light", "dark", "auto"}

type profileRequest struct {
	DisplayName string                    `json:"displayName"`
	Preferences *storage.PreferencesPatch `json:"preferences"`
}

func (h *handler) updateProfile(c *gin.Context) {
	var req profileRequest
	if !bindJSON(c, &req) {
		return
	}
	if prefs := req.Preferences; prefs != nil && prefs.Theme != nil && !slices.Contains(themes, *prefs.Theme) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Theme must be one of " + strings.Join(themes, ", ")})
		return
	}

	user := currentUser(c)
	updated, err := h.users.UpdateProfile(c.Request.Context(), user.UID, storage.ProfilePatch{
		DisplayName: strings.TrimSpace(req.DisplayName),
		Preferences: req.Preferences,
	})
	if err != nil {
		h.respondError(c, err, "Failed to update profile")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Profile updated successfully",
		"user":    updated,
	})
}

func (h *handler) userAnalytics(c *gin.Context) {
	report, err := h.svc.UserAnalytics(c.Request.Context(), currentUser(c))
	if err != nil {
		h.respondError(c, err, "Failed to get analytics")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "analytics": report})
}

type upgradeRequest struct {
	PlanType string `json:"planType"`
}

func (h *handler) upgrade(c *gin.Context) {
	var req upgradeRequest
	if !bindJSON(c, &req) {
		return
	}

	user := currentUser(c)
	if usage.Tier(req.PlanType) == usage.TierPremium {
		updated, err := h.users.SetUserTier(c.Request.Context(), user.UID, usage.TierPremium)
		if err != nil {
			h.respondError(c, err, "Failed to upgrade subscription")
			return
		}
		user = updated
		h.logger.Info().Str("uid", user.UID).Msg("subscription upgraded")
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"message":      "Subscription upgraded successfully",
		"subscription": user.Tier,
	})
}

// bindJSON decodes the body and answers 400 on malformed JSON. An empty body decodes to zero values.
func bindJSON(c *gin.Context, dst any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
		return false
	}
	return true
}

// queryFlag parses a boolean query parameter; unparsable values read as false.
func queryFlag(c *gin.Context, name string) bool {
	v, err := strconv.ParseBool(c.Query(name))
	return err == nil && v
}

func (h *handler) respondError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": userMessage(err)})
	case errors.Is(err, fetcher.ErrFetchFailed):
		h.logger.Warn().Err(err).Str("request_id", c.GetString(requestIDKey)).Msg("upstream provider failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": fallback})
	case errors.Is(err, storage.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
	case errors.Is(err, storage.ErrThumbnailNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Thumbnail not found"})
	default:
		h.logger.Error().Err(err).Str("request_id", c.GetString(requestIDKey)).Msg(fallback)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

// userMessage strips the sentinel prefix and capitalises the detail.
func userMessage(err error) string {
	msg := strings.TrimPrefix(err.Error(), service.ErrInvalidInput.Error()+": ")
	if msg == "" {
		return "Invalid request"
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}
