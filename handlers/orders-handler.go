package handlers

import (
	"log/slog"
	"net/http"

	"highlights-service/internal/auth"
	"highlights-service/pkg/ctxmanage"
	"highlights-service/pkg/logkey"

	"github.com/gin-gonic/gin"
)

// MyOrders lists the caller's orders with their items, newest first.
func (h *Handler) MyOrders(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": http.StatusText(http.StatusUnauthorized)})
		return
	}

	myOrders, err := h.o.GetMyOrders(c.Request.Context(), claims.Subject)
	if err != nil {
		slog.Error("error fetching orders", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.UserID, claims.Subject), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch orders"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": myOrders})
}

// MyVideos lists the caller's entitled content: items of their paid orders.
func (h *Handler) MyVideos(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": http.StatusText(http.StatusUnauthorized)})
		return
	}

	entitled, err := h.o.GetEntitledVideos(c.Request.Context(), claims.Subject)
	if err != nil {
		slog.Error("error fetching entitled videos", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.UserID, claims.Subject), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch your videos"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"videos": entitled})
}
