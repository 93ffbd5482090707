package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"highlights-service/internal/auth"
	"highlights-service/internal/gateway"
	"highlights-service/internal/orders"
	"highlights-service/internal/videos"
	"highlights-service/pkg/cpf"
	"highlights-service/pkg/ctxmanage"
	"highlights-service/pkg/logkey"

	"github.com/gin-gonic/gin"
)

type CheckoutRequest struct {
	VideoSlug      string `json:"video_slug" validate:"required"`
	WantsFullFight bool   `json:"wants_full_fight"`
	// CPF is only read when the profile holds no valid tax id: one replacement
	// attempt, validated and persisted before the gateway call.
	CPF string `json:"cpf"`
}

// Checkout drives one purchase attempt end to end: resolve buyer and product,
// settle the tax-id precondition, charge through the gateway, and persist the
// order with its item. Single pass, no automatic retry.
func (h *Handler) Checkout(c *gin.Context) {
	traceId := ctxmanage.GetTraceIdOfRequest(c)
	ctx := c.Request.Context()

	claims, ok := ctx.Value(auth.ClaimsKey).(auth.Claims)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "please sign in to complete your purchase"})
		return
	}

	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("json validation error", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": http.StatusText(http.StatusBadRequest)})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		slog.Error("validation failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "video_slug is required"})
		return
	}

	video, err := h.v.GetBySlug(ctx, req.VideoSlug)
	if err != nil {
		if errors.Is(err, videos.ErrVideoNotFound) {
			slog.Error("video not found for checkout", slog.String(logkey.TraceID, traceId), slog.String("Slug", req.VideoSlug))
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "video not found"})
			return
		}
		slog.Error("error resolving video", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve video"})
		return
	}

	profile, err := h.u.GetProfile(ctx, claims.Subject)
	if err != nil {
		slog.Error("error fetching buyer profile", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.UserID, claims.Subject), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to load your profile"})
		return
	}

	// Hard precondition: a valid CPF before anything touches the gateway. The
	// request may carry one replacement; an invalid replacement aborts with no
	// order created.
	document := cpf.Strip(profile.CPF)
	if !cpf.Valid(document) {
		document = cpf.Strip(req.CPF)
		if !cpf.Valid(document) {
			slog.Error("checkout aborted on invalid cpf", slog.String(logkey.TraceID, traceId), slog.String(logkey.UserID, claims.Subject))
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "a valid CPF is required to complete the purchase"})
			return
		}
		if err := h.u.UpdateCPF(ctx, claims.Subject, document); err != nil {
			// The purchase can still proceed; the buyer will be prompted again
			// next time.
			slog.Error("failed to persist replacement cpf", slog.String(logkey.TraceID, traceId),
				slog.String(logkey.UserID, claims.Subject), slog.String(logkey.ERROR, err.Error()))
		}
	}

	amount := video.PriceHighlight
	accessLevel := orders.AccessHighlightOnly
	description := "Acesso ao evento: " + video.Title
	if req.WantsFullFight {
		amount += h.s.Get(ctx).FullFightUpsellPrice
		accessLevel = orders.AccessFullAccess
		description += " + Luta na Íntegra"
	}

	customerName := profile.FullName
	if customerName == "" {
		customerName = "Cliente"
	}

	transaction, err := h.gw.CreateTransaction(ctx, gateway.TransactionInput{
		Amount:        amount,
		Description:   description,
		PaymentMethod: gateway.PaymentMethodPix,
		Customer: gateway.Customer{
			Name:     customerName,
			Email:    profile.Email,
			Document: document,
			Phone:    splitPhone(profile.Whatsapp),
		},
	})
	if err != nil {
		slog.Error("gateway rejected the payment request", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.UserID, claims.Subject), slog.String(logkey.ERROR, err.Error()))
		var gwErr *gateway.Error
		if errors.As(err, &gwErr) {
			c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": gwErr.Body})
			return
		}
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	status := transaction.Status
	if status == "" {
		status = orders.StatusPending
	}

	// The order row is persisted regardless of the gateway-reported status;
	// the reconciler converges it later.
	order, err := h.o.CreateOrder(ctx, orders.NewOrder{
		UserID:        claims.Subject,
		Status:        status,
		GatewayID:     transaction.ID,
		PaymentMethod: gateway.PaymentMethodPix,
		TotalAmount:   amount,
		PixQRCode:     transaction.QRCode,
		PixQRCodeURL:  transaction.QRCodeURL,
	})
	if err != nil {
		// The buyer has paid or will pay with no local record. Not safe to
		// retry: a second attempt risks a double charge.
		slog.Error("ORPHANED PAYMENT: gateway accepted but order insert failed",
			slog.String(logkey.TraceID, traceId),
			slog.String(logkey.UserID, claims.Subject),
			slog.String(logkey.GatewayID, transaction.ID),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error": "your payment was submitted but the order could not be recorded; please contact support and do not retry",
		})
		return
	}

	// The item insert is unconditional: even a pending order must be linked to
	// its video, or a later paid confirmation would entitle the buyer to
	// nothing.
	_, err = h.o.CreateOrderItem(ctx, order.ID, video.ID, accessLevel)
	if err != nil {
		// Order row stays behind for manual repair.
		slog.Error("UNLINKED ORDER: order created but item insert failed",
			slog.String(logkey.TraceID, traceId),
			slog.String(logkey.OrderID, order.ID),
			slog.String(logkey.GatewayID, transaction.ID),
			slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error": "your order was recorded but the video could not be linked; please contact support",
		})
		return
	}

	response := gin.H{
		"order_id":     order.ID,
		"status":       status,
		"total_amount": amount,
	}
	if transaction.QRCode != "" {
		response["pix_qr_code"] = transaction.QRCode
		if transaction.QRCodeURL != "" {
			response["pix_qr_code_url"] = transaction.QRCodeURL
		}
	} else {
		response["message"] = "order recorded; access will be released once the payment is confirmed"
	}
	c.JSON(http.StatusOK, response)
}

// splitPhone decomposes a raw whatsapp number into the gateway's
// country/area/subscriber parts, falling back to placeholder values when the
// stored number is too short to split.
func splitPhone(raw string) gateway.MobilePhone {
	digits := onlyDigits(raw)

	phone := gateway.MobilePhone{
		CountryCode: "55",
		AreaCode:    "11",
		Number:      "999999999",
	}
	if len(digits) < 10 {
		return phone
	}
	if len(digits) >= 12 && strings.HasPrefix(digits, "55") {
		phone.AreaCode = digits[2:4]
		phone.Number = digits[4:]
	} else {
		phone.AreaCode = digits[0:2]
		phone.Number = digits[2:]
	}
	return phone
}

func onlyDigits(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
