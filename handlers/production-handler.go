package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"highlights-service/internal/auth"
	"highlights-service/internal/orders"
	"highlights-service/pkg/ctxmanage"
	"highlights-service/pkg/logkey"

	"github.com/gin-gonic/gin"
)

type ProductionFormRequest struct {
	FighterName  string `json:"fighterName" validate:"required"`
	Age          string `json:"age"`
	Instagram    string `json:"instagram"`
	Email        string `json:"email" validate:"omitempty,email"`
	RoundsCount  string `json:"roundsCount"`
	MusicLink    string `json:"musicLink"`
	Contact1     string `json:"contact1"`
	Contact2     string `json:"contact2"`
	CornerColor  string `json:"cornerColor"`
	Team         string `json:"team"`
	OpponentName string `json:"opponentName"`
	Notes        string `json:"notes"`
}

// SubmitProductionForm stores the buyer's fight details for an item they own.
// A first submission moves the item into production; later submissions update
// the details without touching the status, even after delivery.
func (h *Handler) SubmitProductionForm(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	claims, ok := c.Request.Context().Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": http.StatusText(http.StatusUnauthorized)})
		return
	}

	itemID := c.Param("id")
	var req ProductionFormRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("json validation error", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": http.StatusText(http.StatusBadRequest)})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		slog.Error("validation failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "fighterName is required"})
		return
	}

	// Ownership check before any write.
	if _, err := h.o.GetOrderItemForUser(c.Request.Context(), itemID, claims.Subject); err != nil {
		if errors.Is(err, orders.ErrItemNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "order item not found"})
			return
		}
		slog.Error("error fetching order item", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch order item"})
		return
	}

	newStatus, err := h.o.UpdateProductionForm(c.Request.Context(), itemID, orders.ProductionFormData{
		FighterName:  req.FighterName,
		Age:          req.Age,
		Instagram:    req.Instagram,
		Email:        req.Email,
		RoundsCount:  req.RoundsCount,
		MusicLink:    req.MusicLink,
		Contact1:     req.Contact1,
		Contact2:     req.Contact2,
		CornerColor:  req.CornerColor,
		Team:         req.Team,
		OpponentName: req.OpponentName,
		Notes:        req.Notes,
	})
	if err != nil {
		slog.Error("error updating production form", slog.String(logkey.TraceID, traceId),
			slog.String("Item ID", itemID), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to save production details"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "production details saved", "production_status": newStatus})
}

// ProductionQueue returns the editing pipeline's work grouped by event.
func (h *Handler) ProductionQueue(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	queue, err := h.o.GetProductionQueue(c.Request.Context())
	if err != nil {
		slog.Error("error fetching production queue", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch production queue"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"queue": queue})
}

type DeliverRequest struct {
	URL string `json:"url" validate:"required"`
}

// DeliverItem records the finished video's link and marks the item delivered.
func (h *Handler) DeliverItem(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	itemID := c.Param("id")

	var req DeliverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("json validation error", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": http.StatusText(http.StatusBadRequest)})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "url is required"})
		return
	}

	url := orders.NormalizeDeliveredURL(req.URL)
	if err := h.o.DeliverOrderItem(c.Request.Context(), itemID, url); err != nil {
		if errors.Is(err, orders.ErrItemNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "order item not found"})
			return
		}
		slog.Error("error delivering order item", slog.String(logkey.TraceID, traceId),
			slog.String("Item ID", itemID), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to deliver the video"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "video delivered", "url": url})
}
