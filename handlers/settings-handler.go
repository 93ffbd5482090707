package handlers

import (
	"log/slog"
	"net/http"

	"highlights-service/internal/settings"
	"highlights-service/pkg/ctxmanage"
	"highlights-service/pkg/logkey"

	"github.com/gin-gonic/gin"
)

// GetSettings exposes storefront pricing knobs to the public frontend.
func (h *Handler) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, h.s.Get(c.Request.Context()))
}

type UpdateSettingsRequest struct {
	FullFightUpsellPrice *int64 `json:"full_fight_upsell_price" validate:"required"`
}

// UpdateSettings lets an admin adjust the upsell price. Amounts are minor
// units and must not be negative.
func (h *Handler) UpdateSettings(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)

	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("json validation error", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": http.StatusText(http.StatusBadRequest)})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "full_fight_upsell_price is required"})
		return
	}
	if *req.FullFightUpsellPrice < 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "full_fight_upsell_price must not be negative"})
		return
	}

	updated := settings.AppSettings{FullFightUpsellPrice: *req.FullFightUpsellPrice}
	if err := h.s.Update(c.Request.Context(), updated); err != nil {
		slog.Error("error updating settings", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to update settings"})
		return
	}
	c.JSON(http.StatusOK, updated)
}
