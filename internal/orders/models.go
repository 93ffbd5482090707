package orders

import "time"

// Order statuses. pending moves to paid or failed via the webhook reconciler;
// paid and failed are terminal, and paid is never downgraded.
const (
	StatusPending = "pending"
	StatusPaid    = "paid"
	StatusFailed  = "failed"
)

// Access levels for a purchased video.
const (
	AccessHighlightOnly = "highlight_only"
	AccessFullAccess    = "full_access"
)

// Production workflow states for an order item.
const (
	ProductionPendingForm  = "pending_form"
	ProductionInProduction = "in_production"
	ProductionDelivered    = "delivered"
)

// Order represents one purchase transaction. Orders are financial records and
// are never deleted.
type Order struct {
	ID            string      `json:"id"`
	UserID        string      `json:"user_id"`
	Status        string      `json:"status"`
	GatewayID     string      `json:"gateway_id"` // set once, never reassigned
	PaymentMethod string      `json:"payment_method"`
	TotalAmount   int64       `json:"total_amount"` // minor currency units
	PixQRCode     string      `json:"pix_qr_code,omitempty"`
	PixQRCodeURL  string      `json:"pix_qr_code_url,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
	Items         []OrderItem `json:"order_items,omitempty"`
}

// OrderItem is one purchased product line and its production workflow.
type OrderItem struct {
	ID                 string              `json:"id"`
	OrderID            string              `json:"order_id"`
	VideoID            string              `json:"video_id"`
	AccessLevel        string              `json:"access_level"`
	ProductionStatus   string              `json:"production_status"`
	ProductionFormData *ProductionFormData `json:"production_form_data,omitempty"`
	DeliveredVideoURL  string              `json:"delivered_video_url,omitempty"`
	VideoTitle         string              `json:"video_title,omitempty"`
	CreatedAt          time.Time           `json:"created_at"`
}

// ProductionFormData holds the fight details the buyer submits so the editors
// can cut the highlight.
type ProductionFormData struct {
	FighterName  string `json:"fighterName"`
	Age          string `json:"age"`
	Instagram    string `json:"instagram"`
	Email        string `json:"email"`
	RoundsCount  string `json:"roundsCount"`
	MusicLink    string `json:"musicLink"`
	Contact1     string `json:"contact1"`
	Contact2     string `json:"contact2"`
	CornerColor  string `json:"cornerColor"`
	Team         string `json:"team"`
	OpponentName string `json:"opponentName"`
	Notes        string `json:"notes"`
}

// NewOrder carries everything needed to persist an order after the gateway
// accepted the payment request.
type NewOrder struct {
	UserID        string
	Status        string
	GatewayID     string
	PaymentMethod string
	TotalAmount   int64
	PixQRCode     string
	PixQRCodeURL  string
}

// EntitledVideo is one video a buyer may watch: an order item belonging to
// one of their paid orders.
type EntitledVideo struct {
	OrderItemID       string              `json:"order_item_id"`
	OrderID           string              `json:"order_id"`
	VideoID           string              `json:"video_id"`
	Title             string              `json:"title"`
	EventName         string              `json:"event_name"`
	TeaserURL         string              `json:"teaser_url"`
	AccessLevel       string              `json:"access_level"`
	ProductionStatus  string              `json:"production_status"`
	DeliveredVideoURL string              `json:"delivered_video_url,omitempty"`
	FormData          *ProductionFormData `json:"production_form_data,omitempty"`
	OrderDate         time.Time           `json:"order_date"`
}

// ProductionQueueItem is one unit of work for the editing pipeline.
type ProductionQueueItem struct {
	OrderItemID       string              `json:"order_item_id"`
	OrderID           string              `json:"order_id"`
	OrderCreatedAt    time.Time           `json:"order_created_at"`
	VideoID           string              `json:"video_id"`
	VideoTitle        string              `json:"video_title"`
	EventID           string              `json:"event_id"`
	EventTitle        string              `json:"event_title"`
	ProductionStatus  string              `json:"production_status"`
	FormData          *ProductionFormData `json:"production_form_data,omitempty"`
	DeliveredVideoURL string              `json:"delivered_video_url,omitempty"`
}

// ProductionQueueGroup bundles a source event's queue items so the editors
// work one event at a time.
type ProductionQueueGroup struct {
	EventID    string                `json:"event_id"`
	EventTitle string                `json:"event_title"`
	InProgress []ProductionQueueItem `json:"in_progress"`
	Delivered  []ProductionQueueItem `json:"delivered"`
}
