package handlers

import (
	"context"
	"os"

	"highlights-service/internal/auth"
	"highlights-service/internal/gateway"
	"highlights-service/internal/orders"
	"highlights-service/internal/settings"
	"highlights-service/internal/users"
	"highlights-service/internal/videos"
	"highlights-service/middleware"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// OrderStore is the order/order-item persistence the handlers depend on.
type OrderStore interface {
	CreateOrder(ctx context.Context, no orders.NewOrder) (orders.Order, error)
	CreateOrderItem(ctx context.Context, orderID, videoID, accessLevel string) (orders.OrderItem, error)
	FindOrderByGatewayID(ctx context.Context, gatewayID string) (orders.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID, status string) error
	ListOrderItems(ctx context.Context, orderID string) ([]orders.OrderItem, error)
	GetMyOrders(ctx context.Context, userID string) ([]orders.Order, error)
	GetEntitledVideos(ctx context.Context, userID string) ([]orders.EntitledVideo, error)
	GetOrderItemForUser(ctx context.Context, itemID, userID string) (orders.OrderItem, error)
	UpdateProductionForm(ctx context.Context, itemID string, form orders.ProductionFormData) (string, error)
	DeliverOrderItem(ctx context.Context, itemID, url string) error
	GetProductionQueue(ctx context.Context) ([]orders.ProductionQueueGroup, error)
}

type VideoStore interface {
	GetBySlug(ctx context.Context, slug string) (videos.Video, error)
	List(ctx context.Context) ([]videos.Video, error)
}

type UserStore interface {
	GetProfile(ctx context.Context, userID string) (users.Profile, error)
	UpdateCPF(ctx context.Context, userID, cpf string) error
}

type SettingsStore interface {
	Get(ctx context.Context) settings.AppSettings
	Update(ctx context.Context, s settings.AppSettings) error
}

// TransactionCreator submits one payment attempt to the gateway.
type TransactionCreator interface {
	CreateTransaction(ctx context.Context, input gateway.TransactionInput) (*gateway.TransactionResult, error)
}

// EventProducer publishes domain events for downstream consumers.
type EventProducer interface {
	ProduceMessage(topic string, key, value []byte) error
}

type Handler struct {
	o        OrderStore
	v        VideoStore
	u        UserStore
	s        SettingsStore
	gw       TransactionCreator
	k        EventProducer
	validate *validator.Validate
}

func NewHandler(o OrderStore, v VideoStore, u UserStore, s SettingsStore,
	gw TransactionCreator, k EventProducer) *Handler {
	return &Handler{
		o:        o,
		v:        v,
		u:        u,
		s:        s,
		gw:       gw,
		k:        k,
		validate: validator.New(),
	}
}

func API(endpointPrefix string, keys *auth.Keys, h *Handler) *gin.Engine {
	r := gin.New()
	mode := os.Getenv("GIN_MODE")
	if mode == gin.ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	m, err := middleware.NewMid(keys)
	if err != nil {
		panic(err)
	}

	r.Use(middleware.Logger(), gin.Recovery())

	r.GET("/ping", HealthCheck)
	v1 := r.Group(endpointPrefix)
	{
		// The gateway authenticates at the transport level only; this route
		// must stay outside the buyer session middleware.
		v1.POST("/webhook", h.Webhook)

		v1.GET("/videos/list", h.ListVideos)
		v1.GET("/videos/view/:slug", h.GetVideo)
		v1.GET("/settings", h.GetSettings)

		v1.Use(m.Authentication())
		v1.POST("/checkout", m.Authorize(h.Checkout, auth.RoleUser))
		v1.GET("/orders/my", m.Authorize(h.MyOrders, auth.RoleUser))
		v1.GET("/videos/my", m.Authorize(h.MyVideos, auth.RoleUser))
		v1.POST("/orders/items/:id/production-form", m.Authorize(h.SubmitProductionForm, auth.RoleUser))

		v1.GET("/production/queue", m.Authorize(h.ProductionQueue, auth.RoleAdmin))
		v1.POST("/production/items/:id/deliver", m.Authorize(h.DeliverItem, auth.RoleAdmin))
		v1.PUT("/settings", m.Authorize(h.UpdateSettings, auth.RoleAdmin))
	}
	return r
}

func HealthCheck(c *gin.Context) {
	c.JSON(200, gin.H{
		"message": "pong",
	})
}
