package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"highlights-service/internal/auth"
	"highlights-service/internal/gateway"
	"highlights-service/internal/orders"
	"highlights-service/internal/settings"
	"highlights-service/internal/users"
	"highlights-service/internal/videos"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Function-field fakes: a nil field means the test does not expect that call.

type fakeOrders struct {
	createOrder          func(ctx context.Context, no orders.NewOrder) (orders.Order, error)
	createOrderItem      func(ctx context.Context, orderID, videoID, accessLevel string) (orders.OrderItem, error)
	findOrderByGatewayID func(ctx context.Context, gatewayID string) (orders.Order, error)
	updateOrderStatus    func(ctx context.Context, orderID, status string) error
	listOrderItems       func(ctx context.Context, orderID string) ([]orders.OrderItem, error)
	getMyOrders          func(ctx context.Context, userID string) ([]orders.Order, error)
	getEntitledVideos    func(ctx context.Context, userID string) ([]orders.EntitledVideo, error)
	getOrderItemForUser  func(ctx context.Context, itemID, userID string) (orders.OrderItem, error)
	updateProductionForm func(ctx context.Context, itemID string, form orders.ProductionFormData) (string, error)
	deliverOrderItem     func(ctx context.Context, itemID, url string) error
	getProductionQueue   func(ctx context.Context) ([]orders.ProductionQueueGroup, error)
}

func (f *fakeOrders) CreateOrder(ctx context.Context, no orders.NewOrder) (orders.Order, error) {
	if f.createOrder == nil {
		panic("unexpected CreateOrder call")
	}
	return f.createOrder(ctx, no)
}

func (f *fakeOrders) CreateOrderItem(ctx context.Context, orderID, videoID, accessLevel string) (orders.OrderItem, error) {
	if f.createOrderItem == nil {
		panic("unexpected CreateOrderItem call")
	}
	return f.createOrderItem(ctx, orderID, videoID, accessLevel)
}

func (f *fakeOrders) FindOrderByGatewayID(ctx context.Context, gatewayID string) (orders.Order, error) {
	if f.findOrderByGatewayID == nil {
		panic("unexpected FindOrderByGatewayID call")
	}
	return f.findOrderByGatewayID(ctx, gatewayID)
}

func (f *fakeOrders) UpdateOrderStatus(ctx context.Context, orderID, status string) error {
	if f.updateOrderStatus == nil {
		panic("unexpected UpdateOrderStatus call")
	}
	return f.updateOrderStatus(ctx, orderID, status)
}

func (f *fakeOrders) ListOrderItems(ctx context.Context, orderID string) ([]orders.OrderItem, error) {
	if f.listOrderItems == nil {
		panic("unexpected ListOrderItems call")
	}
	return f.listOrderItems(ctx, orderID)
}

func (f *fakeOrders) GetMyOrders(ctx context.Context, userID string) ([]orders.Order, error) {
	if f.getMyOrders == nil {
		panic("unexpected GetMyOrders call")
	}
	return f.getMyOrders(ctx, userID)
}

func (f *fakeOrders) GetEntitledVideos(ctx context.Context, userID string) ([]orders.EntitledVideo, error) {
	if f.getEntitledVideos == nil {
		panic("unexpected GetEntitledVideos call")
	}
	return f.getEntitledVideos(ctx, userID)
}

func (f *fakeOrders) GetOrderItemForUser(ctx context.Context, itemID, userID string) (orders.OrderItem, error) {
	if f.getOrderItemForUser == nil {
		panic("unexpected GetOrderItemForUser call")
	}
	return f.getOrderItemForUser(ctx, itemID, userID)
}

func (f *fakeOrders) UpdateProductionForm(ctx context.Context, itemID string, form orders.ProductionFormData) (string, error) {
	if f.updateProductionForm == nil {
		panic("unexpected UpdateProductionForm call")
	}
	return f.updateProductionForm(ctx, itemID, form)
}

func (f *fakeOrders) DeliverOrderItem(ctx context.Context, itemID, url string) error {
	if f.deliverOrderItem == nil {
		panic("unexpected DeliverOrderItem call")
	}
	return f.deliverOrderItem(ctx, itemID, url)
}

func (f *fakeOrders) GetProductionQueue(ctx context.Context) ([]orders.ProductionQueueGroup, error) {
	if f.getProductionQueue == nil {
		panic("unexpected GetProductionQueue call")
	}
	return f.getProductionQueue(ctx)
}

type fakeVideos struct {
	getBySlug func(ctx context.Context, slug string) (videos.Video, error)
	list      func(ctx context.Context) ([]videos.Video, error)
}

func (f *fakeVideos) GetBySlug(ctx context.Context, slug string) (videos.Video, error) {
	if f.getBySlug == nil {
		panic("unexpected GetBySlug call")
	}
	return f.getBySlug(ctx, slug)
}

func (f *fakeVideos) List(ctx context.Context) ([]videos.Video, error) {
	if f.list == nil {
		panic("unexpected List call")
	}
	return f.list(ctx)
}

type fakeUsers struct {
	getProfile func(ctx context.Context, userID string) (users.Profile, error)
	updateCPF  func(ctx context.Context, userID, cpf string) error
}

func (f *fakeUsers) GetProfile(ctx context.Context, userID string) (users.Profile, error) {
	if f.getProfile == nil {
		panic("unexpected GetProfile call")
	}
	return f.getProfile(ctx, userID)
}

func (f *fakeUsers) UpdateCPF(ctx context.Context, userID, cpf string) error {
	if f.updateCPF == nil {
		panic("unexpected UpdateCPF call")
	}
	return f.updateCPF(ctx, userID, cpf)
}

type fakeSettings struct {
	settings settings.AppSettings
	update   func(ctx context.Context, s settings.AppSettings) error
}

func (f *fakeSettings) Get(ctx context.Context) settings.AppSettings {
	return f.settings
}

func (f *fakeSettings) Update(ctx context.Context, s settings.AppSettings) error {
	if f.update == nil {
		panic("unexpected Update call")
	}
	return f.update(ctx, s)
}

type fakeGateway struct {
	createTransaction func(ctx context.Context, input gateway.TransactionInput) (*gateway.TransactionResult, error)
}

func (f *fakeGateway) CreateTransaction(ctx context.Context, input gateway.TransactionInput) (*gateway.TransactionResult, error) {
	if f.createTransaction == nil {
		panic("unexpected CreateTransaction call")
	}
	return f.createTransaction(ctx, input)
}

type producedMessage struct {
	Topic string
	Key   []byte
	Value []byte
}

type fakeProducer struct {
	produced []producedMessage
	err      error
}

func (f *fakeProducer) ProduceMessage(topic string, key, value []byte) error {
	if f.err != nil {
		return f.err
	}
	f.produced = append(f.produced, producedMessage{Topic: topic, Key: key, Value: value})
	return nil
}

func userClaims(userID string) auth.Claims {
	return auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: userID},
		Roles:            []string{auth.RoleUser},
	}
}

// newTestContext builds a gin context with a JSON body and optional verified
// claims already placed in the request context.
func newTestContext(t *testing.T, method, target string, body any, claims *auth.Claims) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding request body: %v", err)
		}
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, target, &buf)
	c.Request.Header.Set("Content-Type", "application/json")
	if claims != nil {
		ctx := context.WithValue(c.Request.Context(), auth.ClaimsKey, *claims)
		c.Request = c.Request.WithContext(ctx)
	}
	return c, w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decoding response %q: %v", w.Body.String(), err)
	}
	return out
}

func assertStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d, body %s", w.Code, want, w.Body.String())
	}
}
