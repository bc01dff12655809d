package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lysyi3m/card-preview/app/database"
	"github.com/lysyi3m/card-preview/app/social"
)

const maxPageBody = 20 << 20

func NewHandler(websiteRepo database.WebsiteRepository, authWall AuthWallChecker, version string) *Handler {
	return &Handler{
		websiteRepo: websiteRepo,
		authWall:    authWall,
		version:     version,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
		"version":   h.version,
	}

	if count, err := h.websiteRepo.GetWebsiteCount(); err == nil {
		health["websites"] = count
	}

	c.JSON(http.StatusOK, health)
}

// APICreateWebsite stores a website for background extraction. Either a URL,
// an HTML snapshot or both must be given.
func (h *Handler) APICreateWebsite(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxPageBody)

	var req createWebsiteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "message": err.Error()})
		return
	}
	if req.URL == "" && req.HTML == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "message": "url or html is required"})
		return
	}

	w, err := h.websiteRepo.CreateWebsite(req.URL, req.HTML)
	if err != nil {
		slog.Error("Database error", "operation", "create_website", "url", req.URL, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	slog.Debug("Website queued for extraction", "website", w.ID, "url", w.URL, "snapshot", req.HTML != "")

	c.JSON(http.StatusAccepted, gin.H{
		"id":     w.ID,
		"status": string(w.Status),
	})
}

func (h *Handler) APIGetWebsite(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing website id parameter"})
		return
	}

	w, err := h.websiteRepo.GetWebsite(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_website", "website", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if w == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Website not found"})
		return
	}

	c.JSON(http.StatusOK, newWebsiteResponse(w))
}

func (h *Handler) APICheckAuthWall(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxPageBody)

	var req authWallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "message": err.Error()})
		return
	}

	walled := h.authWall.IsAuthWalled(c.Request.Context(), req.URL, req.HTML)

	slog.Debug("Auth wall check", "url", req.URL, "auth_walled", walled)

	c.JSON(http.StatusOK, gin.H{
		"url":         req.URL,
		"auth_walled": walled,
	})
}

// APIExtractTweets parses a saved bookmarks page sent as the raw request body.
func (h *Handler) APIExtractTweets(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxPageBody)

	body, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "message": err.Error()})
		return
	}
	if len(body) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "message": "request body is empty"})
		return
	}

	tweets, err := social.ExtractPosts(string(body))
	if err != nil {
		var structural *social.StructuralError
		if errors.As(err, &structural) {
			slog.Warn("Bookmarks page layout not recognized", "post", structural.Post, "field", structural.Field)
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "Unrecognized page structure",
				"message": err.Error(),
				"post":    structural.Post,
				"field":   structural.Field,
			})
			return
		}
		slog.Error("Failed to extract tweets", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Extraction error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tweets": tweets,
		"total":  len(tweets),
	})
}
