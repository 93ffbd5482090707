package kafka

import "time"

const (
	// TopicOrderPaid feeds the production pipeline: one event per purchased
	// video once its order is confirmed paid.
	TopicOrderPaid = `order-service.order-paid`

	ConsumerGroup = `production-pipeline`
)

// OrderPaidEvent is the payload published on TopicOrderPaid.
type OrderPaidEvent struct {
	OrderId     string    `json:"order_id"`
	VideoId     string    `json:"video_id"`
	UserId      string    `json:"user_id"`
	AccessLevel string    `json:"access_level"`
	CreatedAt   time.Time `json:"created_at"`
}
