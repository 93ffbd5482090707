package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"highlights-service/internal/videos"
	"highlights-service/pkg/ctxmanage"
	"highlights-service/pkg/logkey"

	"github.com/gin-gonic/gin"
)

// ListVideos returns the public catalog of active events.
func (h *Handler) ListVideos(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	list, err := h.v.List(c.Request.Context())
	if err != nil {
		slog.Error("error listing videos", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to list videos"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"videos": list})
}

// GetVideo resolves one active event by its public slug.
func (h *Handler) GetVideo(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	slug := c.Param("slug")

	video, err := h.v.GetBySlug(c.Request.Context(), slug)
	if err != nil {
		if errors.Is(err, videos.ErrVideoNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "video not found"})
			return
		}
		slog.Error("error fetching video", slog.String(logkey.TraceID, traceId),
			slog.String("Slug", slug), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch video"})
		return
	}
	c.JSON(http.StatusOK, video)
}
