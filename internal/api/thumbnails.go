package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"creator-trends/internal/service"
	"creator-trends/internal/storage"
)

func (h *handler) listThumbnails(c *gin.Context) {
	page, ok := queryInt(c, "page")
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}

	user := currentUser(c)
	res, err := h.svc.ListThumbnails(c.Request.Context(), user.ID, service.ThumbnailQuery{
		Page:     page,
		Limit:    limit,
		Category: c.Query("category"),
		Search:   c.Query("search"),
	})
	if err != nil {
		h.respondError(c, err, "Failed to fetch thumbnails")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "thumbnails": res.Thumbnails, "pagination": res.Pagination})
}

func (h *handler) createThumbnail(c *gin.Context) {
	var req service.NewThumbnail
	if !bindJSON(c, &req) {
		return
	}

	user := currentUser(c)
	thumb, err := h.svc.CreateThumbnail(c.Request.Context(), user.ID, req)
	if err != nil {
		h.respondError(c, err, "Failed to create thumbnail")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Thumbnail created successfully", "thumbnail": thumb})
}

func (h *handler) getThumbnail(c *gin.Context) {
	id, ok := thumbnailID(c)
	if !ok {
		return
	}

	user := currentUser(c)
	thumb, err := h.svc.GetThumbnail(c.Request.Context(), user.ID, id)
	if err != nil {
		h.respondError(c, err, "Failed to fetch thumbnail")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "thumbnail": thumb})
}

func (h *handler) updateThumbnail(c *gin.Context) {
	id, ok := thumbnailID(c)
	if !ok {
		return
	}
	var patch storage.ThumbnailPatch
	if !bindJSON(c, &patch) {
		return
	}

	user := currentUser(c)
	thumb, err := h.svc.UpdateThumbnail(c.Request.Context(), user.ID, id, patch)
	if err != nil {
		h.respondError(c, err, "Failed to update thumbnail")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Thumbnail updated successfully", "thumbnail": thumb})
}

func (h *handler) deleteThumbnail(c *gin.Context) {
	id, ok := thumbnailID(c)
	if !ok {
		return
	}

	user := currentUser(c)
	if err := h.svc.DeleteThumbnail(c.Request.Context(), user.ID, id); err != nil {
		h.respondError(c, err, "Failed to delete thumbnail")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Thumbnail deleted successfully"})
}

func (h *handler) thumbnailAnalytics(c *gin.Context) {
	id, ok := thumbnailID(c)
	if !ok {
		return
	}

	user := currentUser(c)
	report, err := h.svc.ThumbnailAnalytics(c.Request.Context(), user.ID, id, c.Query("timeRange"))
	if err != nil {
		h.respondError(c, err, "Failed to get thumbnail analytics")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "analytics": report})
}

func thumbnailID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid thumbnail id"})
		return 0, false
	}
	return id, true
}

// queryInt reads an optional integer query parameter; absent reads as 0.
func queryInt(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be an integer"})
		return 0, false
	}
	return n, true
}
