package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"highlights-service/internal/gateway"
	"highlights-service/internal/orders"
	"highlights-service/internal/stores/kafka"
	"highlights-service/pkg/logkey"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Webhook reconciles asynchronous gateway notifications with local orders.
// The gateway delivers at least once and disables endpoints that keep
// returning non-200, so every classified outcome short of a real internal
// failure is acknowledged with 200.
func (h *Handler) Webhook(c *gin.Context) {
	traceId := uuid.NewString()
	const MaxBodyBytes = int64(65536)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes)

	var event gateway.Event
	if err := c.ShouldBindJSON(&event); err != nil {
		slog.Error("failed to bind webhook payload", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	classification, relevant := gateway.ClassifyEvent(event)
	if !relevant {
		slog.Info("unhandled webhook event type", slog.String(logkey.TraceID, traceId), slog.String(logkey.EventType, event.Type))
		c.JSON(http.StatusOK, gin.H{
			"message": "Event type not handled",
			"event":   event.Type,
		})
		return
	}

	ctx := c.Request.Context()

	// Correlate: charge-level id first, then the parent order id.
	var order orders.Order
	found := false
	for _, gatewayId := range classification.CorrelationIds {
		o, err := h.o.FindOrderByGatewayID(ctx, gatewayId)
		if err == nil {
			order = o
			found = true
			break
		}
		if !errors.Is(err, orders.ErrOrderNotFound) {
			slog.Error("order lookup failed", slog.String(logkey.TraceID, traceId),
				slog.String(logkey.GatewayID, gatewayId), slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "order lookup failed"})
			return
		}
	}

	if !found {
		// A gap the gateway cannot fix by retrying: acknowledge, but make the
		// log impossible to miss for manual reconciliation.
		slog.Error("RECONCILIATION GAP: no order matches webhook correlation ids",
			slog.String(logkey.TraceID, traceId),
			slog.String(logkey.EventType, event.Type),
			slog.String("Correlation IDs", strings.Join(classification.CorrelationIds, ", ")))
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	target := classification.TargetStatus

	if order.Status == target {
		// Duplicate delivery: already converged, nothing to apply.
		slog.Info("webhook already applied", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.OrderID, order.ID), slog.String("Status", order.Status))
		c.JSON(http.StatusOK, gin.H{"received": true, "updated_order": order.ID, "status": order.Status})
		return
	}

	if !orders.CanTransition(order.Status, target) {
		// paid is terminal; a late or adversarial failed event never reverts it.
		slog.Error("rejected status downgrade from webhook",
			slog.String(logkey.TraceID, traceId),
			slog.String(logkey.OrderID, order.ID),
			slog.String("Stored", order.Status),
			slog.String("Target", target))
		c.JSON(http.StatusOK, gin.H{"received": true, "updated_order": order.ID, "status": order.Status})
		return
	}

	if err := h.o.UpdateOrderStatus(ctx, order.ID, target); err != nil {
		// The one case worth a 500: the store is unreachable and a gateway
		// retry can succeed later.
		slog.Error("failed to update order status", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.OrderID, order.ID), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "database update failed"})
		return
	}

	slog.Info("order status updated via webhook", slog.String(logkey.TraceID, traceId),
		slog.String(logkey.OrderID, order.ID), slog.String("Status", target))

	if target == orders.StatusPaid {
		h.publishOrderPaid(c, traceId, order)
	}

	c.JSON(http.StatusOK, gin.H{"received": true, "updated_order": order.ID, "status": target})
}

// publishOrderPaid hands the paid order's items to the production pipeline.
// Publish failures are logged, never surfaced to the gateway: the status
// update already committed and a retry storm would not replay it anyway.
func (h *Handler) publishOrderPaid(c *gin.Context, traceId string, order orders.Order) {
	items, err := h.o.ListOrderItems(c.Request.Context(), order.ID)
	if err != nil {
		slog.Error("failed to list items for paid order", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.OrderID, order.ID), slog.String(logkey.ERROR, err.Error()))
		return
	}

	for _, item := range items {
		jsonData, err := json.Marshal(kafka.OrderPaidEvent{
			OrderId:     order.ID,
			VideoId:     item.VideoID,
			UserId:      order.UserID,
			AccessLevel: item.AccessLevel,
			CreatedAt:   time.Now().UTC(),
		})
		if err != nil {
			slog.Error("failed to marshal OrderPaidEvent", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
			continue
		}
		if err := h.k.ProduceMessage(kafka.TopicOrderPaid, []byte(order.ID), jsonData); err != nil {
			slog.Error("failed to produce OrderPaidEvent", slog.String(logkey.TraceID, traceId),
				slog.String(logkey.OrderID, order.ID), slog.String(logkey.ERROR, err.Error()))
		}
	}
}
