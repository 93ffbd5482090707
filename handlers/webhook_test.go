package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"highlights-service/internal/gateway"
	"highlights-service/internal/orders"
	"highlights-service/internal/stores/kafka"
)

func webhookHandler(o *fakeOrders, k *fakeProducer) *Handler {
	return NewHandler(o, &fakeVideos{}, &fakeUsers{}, &fakeSettings{}, &fakeGateway{}, k)
}

func orderPaidEventBody(id string) gateway.Event {
	return gateway.Event{Type: "order.paid", Data: gateway.EventData{ID: id}}
}

func TestWebhookMarksOrderPaidAndFansOut(t *testing.T) {
	updates := 0
	o := &fakeOrders{
		findOrderByGatewayID: func(_ context.Context, gatewayID string) (orders.Order, error) {
			if gatewayID != "or_123" {
				return orders.Order{}, orders.ErrOrderNotFound
			}
			return orders.Order{ID: "order-1", UserID: testUserID, Status: orders.StatusPending, GatewayID: "or_123"}, nil
		},
		updateOrderStatus: func(_ context.Context, orderID, status string) error {
			updates++
			if orderID != "order-1" || status != orders.StatusPaid {
				t.Errorf("update = (%s, %s), want (order-1, paid)", orderID, status)
			}
			return nil
		},
		listOrderItems: func(_ context.Context, _ string) ([]orders.OrderItem, error) {
			return []orders.OrderItem{
				{ID: "item-1", OrderID: "order-1", VideoID: testVideoID, AccessLevel: orders.AccessFullAccess},
			}, nil
		},
	}
	k := &fakeProducer{}

	c, w := newTestContext(t, http.MethodPost, "/webhook", orderPaidEventBody("or_123"), nil)
	webhookHandler(o, k).Webhook(c)

	assertStatus(t, w, http.StatusOK)
	if updates != 1 {
		t.Fatalf("updates = %d, want 1", updates)
	}
	if len(k.produced) != 1 {
		t.Fatalf("produced %d messages, want 1", len(k.produced))
	}
	msg := k.produced[0]
	if msg.Topic != kafka.TopicOrderPaid || string(msg.Key) != "order-1" {
		t.Errorf("produced to %q key %q", msg.Topic, msg.Key)
	}
	var event kafka.OrderPaidEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		t.Fatalf("decoding produced event: %v", err)
	}
	if event.OrderId != "order-1" || event.VideoId != testVideoID || event.AccessLevel != orders.AccessFullAccess {
		t.Errorf("produced event = %+v", event)
	}
}

func TestWebhookDuplicateDeliveryIsIdempotent(t *testing.T) {
	// Second delivery of the same confirmation: no status write, no fanout.
	o := &fakeOrders{
		findOrderByGatewayID: func(_ context.Context, _ string) (orders.Order, error) {
			return orders.Order{ID: "order-1", Status: orders.StatusPaid}, nil
		},
	}
	k := &fakeProducer{}

	c, w := newTestContext(t, http.MethodPost, "/webhook", orderPaidEventBody("or_123"), nil)
	webhookHandler(o, k).Webhook(c)

	assertStatus(t, w, http.StatusOK)
	if len(k.produced) != 0 {
		t.Errorf("duplicate delivery produced %d messages, want 0", len(k.produced))
	}
}

func TestWebhookFailedEventNeverDowngradesPaid(t *testing.T) {
	o := &fakeOrders{
		findOrderByGatewayID: func(_ context.Context, _ string) (orders.Order, error) {
			return orders.Order{ID: "order-1", Status: orders.StatusPaid}, nil
		},
	}

	body := gateway.Event{Type: "charge.payment_failed", Data: gateway.EventData{ID: "ch_9"}}
	c, w := newTestContext(t, http.MethodPost, "/webhook", body, nil)
	webhookHandler(o, &fakeProducer{}).Webhook(c)

	assertStatus(t, w, http.StatusOK)
	if got := decodeBody(t, w)["status"]; got != orders.StatusPaid {
		t.Errorf("reported status = %v, want paid", got)
	}
}

func TestWebhookChargeEventFallsBackToParentOrderID(t *testing.T) {
	lookups := []string{}
	o := &fakeOrders{
		findOrderByGatewayID: func(_ context.Context, gatewayID string) (orders.Order, error) {
			lookups = append(lookups, gatewayID)
			if gatewayID == "or_parent" {
				return orders.Order{ID: "order-1", Status: orders.StatusPending}, nil
			}
			return orders.Order{}, orders.ErrOrderNotFound
		},
		updateOrderStatus: func(_ context.Context, _, _ string) error { return nil },
		listOrderItems: func(_ context.Context, _ string) ([]orders.OrderItem, error) {
			return nil, nil
		},
	}

	body := gateway.Event{Type: "charge.paid", Data: gateway.EventData{
		ID:    "ch_child",
		Order: &gateway.EventOrder{ID: "or_parent"},
	}}
	c, w := newTestContext(t, http.MethodPost, "/webhook", body, nil)
	webhookHandler(o, &fakeProducer{}).Webhook(c)

	assertStatus(t, w, http.StatusOK)
	if len(lookups) != 2 || lookups[0] != "ch_child" || lookups[1] != "or_parent" {
		t.Errorf("lookups = %v, want [ch_child or_parent]", lookups)
	}
	if decodeBody(t, w)["updated_order"] != "order-1" {
		t.Errorf("response = %v", decodeBody(t, w))
	}
}

func TestWebhookUnknownEventTypeAcknowledged(t *testing.T) {
	// Store fakes stay nil: any lookup or write would panic the test.
	o := &fakeOrders{}

	body := gateway.Event{Type: "subscription.created", Data: gateway.EventData{ID: "sub_1"}}
	c, w := newTestContext(t, http.MethodPost, "/webhook", body, nil)
	webhookHandler(o, &fakeProducer{}).Webhook(c)

	assertStatus(t, w, http.StatusOK)
	if decodeBody(t, w)["message"] != "Event type not handled" {
		t.Errorf("response = %v", decodeBody(t, w))
	}
}

func TestWebhookUnmatchedOrderAcknowledged(t *testing.T) {
	o := &fakeOrders{
		findOrderByGatewayID: func(_ context.Context, _ string) (orders.Order, error) {
			return orders.Order{}, orders.ErrOrderNotFound
		},
	}

	c, w := newTestContext(t, http.MethodPost, "/webhook", orderPaidEventBody("or_ghost"), nil)
	webhookHandler(o, &fakeProducer{}).Webhook(c)

	assertStatus(t, w, http.StatusOK)
	if decodeBody(t, w)["received"] != true {
		t.Errorf("response = %v", decodeBody(t, w))
	}
}

func TestWebhookLookupFailureReturns500(t *testing.T) {
	o := &fakeOrders{
		findOrderByGatewayID: func(_ context.Context, _ string) (orders.Order, error) {
			return orders.Order{}, errors.New("connection refused")
		},
	}

	c, w := newTestContext(t, http.MethodPost, "/webhook", orderPaidEventBody("or_123"), nil)
	webhookHandler(o, &fakeProducer{}).Webhook(c)

	assertStatus(t, w, http.StatusInternalServerError)
}

func TestWebhookUpdateFailureReturns500(t *testing.T) {
	o := &fakeOrders{
		findOrderByGatewayID: func(_ context.Context, _ string) (orders.Order, error) {
			return orders.Order{ID: "order-1", Status: orders.StatusPending}, nil
		},
		updateOrderStatus: func(_ context.Context, _, _ string) error {
			return errors.New("deadlock detected")
		},
	}
	k := &fakeProducer{}

	c, w := newTestContext(t, http.MethodPost, "/webhook", orderPaidEventBody("or_123"), nil)
	webhookHandler(o, k).Webhook(c)

	assertStatus(t, w, http.StatusInternalServerError)
	if len(k.produced) != 0 {
		t.Errorf("fanout happened despite failed update")
	}
}

func TestWebhookFailedEventMarksPendingOrderFailed(t *testing.T) {
	var applied string
	o := &fakeOrders{
		findOrderByGatewayID: func(_ context.Context, _ string) (orders.Order, error) {
			return orders.Order{ID: "order-1", Status: orders.StatusPending}, nil
		},
		updateOrderStatus: func(_ context.Context, _, status string) error {
			applied = status
			return nil
		},
	}
	k := &fakeProducer{}

	body := gateway.Event{Type: "order.canceled", Data: gateway.EventData{ID: "or_123"}}
	c, w := newTestContext(t, http.MethodPost, "/webhook", body, nil)
	webhookHandler(o, k).Webhook(c)

	assertStatus(t, w, http.StatusOK)
	if applied != orders.StatusFailed {
		t.Errorf("applied status = %q, want failed", applied)
	}
	if len(k.produced) != 0 {
		t.Errorf("failed transition should not fan out")
	}
}

func TestWebhookMalformedBody(t *testing.T) {
	c, w := newTestContext(t, http.MethodPost, "/webhook", nil, nil)
	c.Request.Body = http.NoBody
	webhookHandler(&fakeOrders{}, &fakeProducer{}).Webhook(c)
	assertStatus(t, w, http.StatusBadRequest)
}
