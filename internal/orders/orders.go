package orders

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrItemNotFound  = errors.New("order item not found")
)

type Conf struct {
	db *sql.DB
}

func NewConf(db *sql.DB) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Conf{db: db}, nil
}

// CreateOrder persists a new order right after the gateway accepted the
// payment request. Deliberately a standalone statement rather than part of a
// transaction with the item insert: if the item insert fails, the order row
// must survive for manual repair.
func (c *Conf) CreateOrder(ctx context.Context, no NewOrder) (Order, error) {
	order := Order{
		ID:            uuid.NewString(),
		UserID:        no.UserID,
		Status:        no.Status,
		GatewayID:     no.GatewayID,
		PaymentMethod: no.PaymentMethod,
		TotalAmount:   no.TotalAmount,
		PixQRCode:     no.PixQRCode,
		PixQRCodeURL:  no.PixQRCodeURL,
	}

	query := `
		INSERT INTO orders (id, user_id, status, gateway_id, payment_method, total_amount,
		                    pix_qr_code, pix_qr_code_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING created_at, updated_at
	`
	err := c.db.QueryRowContext(ctx, query,
		order.ID, order.UserID, order.Status, nullable(order.GatewayID), order.PaymentMethod,
		order.TotalAmount, nullable(order.PixQRCode), nullable(order.PixQRCodeURL),
	).Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return Order{}, fmt.Errorf("inserting order: %w", err)
	}
	return order, nil
}

// CreateOrderItem links the purchased video to its order. Called for every
// created order regardless of the gateway-reported status.
func (c *Conf) CreateOrderItem(ctx context.Context, orderID, videoID, accessLevel string) (OrderItem, error) {
	item := OrderItem{
		ID:               uuid.NewString(),
		OrderID:          orderID,
		VideoID:          videoID,
		AccessLevel:      accessLevel,
		ProductionStatus: ProductionPendingForm,
	}

	query := `
		INSERT INTO order_items (id, order_id, video_id, access_level, production_status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING created_at
	`
	err := c.db.QueryRowContext(ctx, query,
		item.ID, item.OrderID, item.VideoID, item.AccessLevel, item.ProductionStatus,
	).Scan(&item.CreatedAt)
	if err != nil {
		return OrderItem{}, fmt.Errorf("inserting order item: %w", err)
	}
	return item, nil
}

// FindOrderByGatewayID resolves an order from the gateway's correlation id.
func (c *Conf) FindOrderByGatewayID(ctx context.Context, gatewayID string) (Order, error) {
	query := `
		SELECT id, user_id, status, COALESCE(gateway_id, ''), payment_method, total_amount,
		       COALESCE(pix_qr_code, ''), COALESCE(pix_qr_code_url, ''), created_at, updated_at
		FROM orders
		WHERE gateway_id = $1
		LIMIT 1
	`
	var o Order
	err := c.db.QueryRowContext(ctx, query, gatewayID).Scan(
		&o.ID, &o.UserID, &o.Status, &o.GatewayID, &o.PaymentMethod, &o.TotalAmount,
		&o.PixQRCode, &o.PixQRCodeURL, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Order{}, ErrOrderNotFound
		}
		return Order{}, fmt.Errorf("querying order by gateway id: %w", err)
	}
	return o, nil
}

// UpdateOrderStatus moves an order to status. The WHERE clause repeats the
// paid-is-terminal guard so a racing write can never downgrade a paid order
// even if the caller's check read stale state.
func (c *Conf) UpdateOrderStatus(ctx context.Context, orderID, status string) error {
	query := `
		UPDATE orders
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND (status <> 'paid' OR $1 = 'paid')
	`
	if _, err := c.db.ExecContext(ctx, query, status, orderID); err != nil {
		return fmt.Errorf("updating order status: %w", err)
	}
	return nil
}

// ListOrderItems returns the items of one order with their video titles.
func (c *Conf) ListOrderItems(ctx context.Context, orderID string) ([]OrderItem, error) {
	query := `
		SELECT oi.id, oi.order_id, oi.video_id, oi.access_level, oi.production_status,
		       oi.production_form_data, COALESCE(oi.delivered_video_url, ''), v.title, oi.created_at
		FROM order_items oi
		JOIN videos v ON v.id = oi.video_id
		WHERE oi.order_id = $1
		ORDER BY oi.created_at
	`
	rows, err := c.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("querying order items: %w", err)
	}
	defer rows.Close()

	var items []OrderItem
	for rows.Next() {
		item, err := scanOrderItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating order items: %w", err)
	}
	return items, nil
}

// GetMyOrders returns a buyer's orders, newest first, each with its items.
func (c *Conf) GetMyOrders(ctx context.Context, userID string) ([]Order, error) {
	query := `
		SELECT id, user_id, status, COALESCE(gateway_id, ''), payment_method, total_amount,
		       COALESCE(pix_qr_code, ''), COALESCE(pix_qr_code_url, ''), created_at, updated_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := c.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying orders: %w", err)
	}
	defer rows.Close()

	var result []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(
			&o.ID, &o.UserID, &o.Status, &o.GatewayID, &o.PaymentMethod, &o.TotalAmount,
			&o.PixQRCode, &o.PixQRCodeURL, &o.CreatedAt, &o.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning order: %w", err)
		}
		result = append(result, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating orders: %w", err)
	}

	for i := range result {
		items, err := c.ListOrderItems(ctx, result[i].ID)
		if err != nil {
			return nil, err
		}
		result[i].Items = items
	}
	return result, nil
}

// GetEntitledVideos derives a buyer's accessible content: items belonging to
// their paid orders.
func (c *Conf) GetEntitledVideos(ctx context.Context, userID string) ([]EntitledVideo, error) {
	query := `
		SELECT oi.id, oi.order_id, oi.video_id, v.title, v.event_name, v.teaser_url,
		       oi.access_level, oi.production_status, COALESCE(oi.delivered_video_url, ''),
		       oi.production_form_data, o.created_at
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		JOIN videos v ON v.id = oi.video_id
		WHERE o.user_id = $1 AND o.status = 'paid'
		ORDER BY o.created_at DESC
	`
	rows, err := c.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying entitled videos: %w", err)
	}
	defer rows.Close()

	var result []EntitledVideo
	for rows.Next() {
		var ev EntitledVideo
		var formData []byte
		if err := rows.Scan(
			&ev.OrderItemID, &ev.OrderID, &ev.VideoID, &ev.Title, &ev.EventName, &ev.TeaserURL,
			&ev.AccessLevel, &ev.ProductionStatus, &ev.DeliveredVideoURL, &formData, &ev.OrderDate,
		); err != nil {
			return nil, fmt.Errorf("scanning entitled video: %w", err)
		}
		ev.DeliveredVideoURL = NormalizeDeliveredURL(ev.DeliveredVideoURL)
		if fd, err := unmarshalFormData(formData); err == nil {
			ev.FormData = fd
		}
		result = append(result, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entitled videos: %w", err)
	}
	return result, nil
}

// GetOrderItemForUser fetches an item only if the order it belongs to is
// owned by userID.
func (c *Conf) GetOrderItemForUser(ctx context.Context, itemID, userID string) (OrderItem, error) {
	query := `
		SELECT oi.id, oi.order_id, oi.video_id, oi.access_level, oi.production_status,
		       oi.production_form_data, COALESCE(oi.delivered_video_url, ''), v.title, oi.created_at
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		JOIN videos v ON v.id = oi.video_id
		WHERE oi.id = $1 AND o.user_id = $2
	`
	row := c.db.QueryRowContext(ctx, query, itemID, userID)
	item, err := scanOrderItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return OrderItem{}, ErrItemNotFound
		}
		return OrderItem{}, err
	}
	return item, nil
}

// UpdateProductionForm stores the buyer's form data and advances pending_form
// items to in_production without regressing anything further along.
func (c *Conf) UpdateProductionForm(ctx context.Context, itemID string, form ProductionFormData) (string, error) {
	formJSON, err := json.Marshal(form)
	if err != nil {
		return "", fmt.Errorf("marshaling form data: %w", err)
	}

	var newStatus string
	err = c.withTx(ctx, func(tx *sql.Tx) error {
		var current string
		err := tx.QueryRowContext(ctx,
			`SELECT production_status FROM order_items WHERE id = $1 FOR UPDATE`, itemID,
		).Scan(&current)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrItemNotFound
			}
			return fmt.Errorf("querying production status: %w", err)
		}

		newStatus = NextProductionStatus(current)
		_, err = tx.ExecContext(ctx, `
			UPDATE order_items
			SET production_status = $1, production_form_data = $2, updated_at = NOW()
			WHERE id = $3
		`, newStatus, formJSON, itemID)
		if err != nil {
			return fmt.Errorf("updating production form: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return newStatus, nil
}

// DeliverOrderItem records the finished video's URL and marks the item
// delivered.
func (c *Conf) DeliverOrderItem(ctx context.Context, itemID, url string) error {
	result, err := c.db.ExecContext(ctx, `
		UPDATE order_items
		SET production_status = $1, delivered_video_url = $2, updated_at = NOW()
		WHERE id = $3
	`, ProductionDelivered, url, itemID)
	if err != nil {
		return fmt.Errorf("delivering order item: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delivery update: %w", err)
	}
	if affected == 0 {
		return ErrItemNotFound
	}
	return nil
}

// GetProductionQueue returns the editing pipeline's work: items in production
// or delivered, grouped by the source event, newest orders first.
func (c *Conf) GetProductionQueue(ctx context.Context) ([]ProductionQueueGroup, error) {
	query := `
		SELECT oi.id, oi.order_id, o.created_at, oi.video_id, v.title,
		       COALESCE(v.event_id::text, ''), COALESCE(e.title, v.event_name),
		       oi.production_status, oi.production_form_data, COALESCE(oi.delivered_video_url, '')
		FROM order_items oi
		JOIN orders o ON o.id = oi.order_id
		JOIN videos v ON v.id = oi.video_id
		LEFT JOIN events e ON e.id = v.event_id
		WHERE oi.production_status IN ('in_production', 'delivered')
		ORDER BY o.created_at DESC
	`
	rows, err := c.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying production queue: %w", err)
	}
	defer rows.Close()

	var items []ProductionQueueItem
	for rows.Next() {
		var item ProductionQueueItem
		var formData []byte
		if err := rows.Scan(
			&item.OrderItemID, &item.OrderID, &item.OrderCreatedAt, &item.VideoID, &item.VideoTitle,
			&item.EventID, &item.EventTitle, &item.ProductionStatus, &formData, &item.DeliveredVideoURL,
		); err != nil {
			return nil, fmt.Errorf("scanning production queue item: %w", err)
		}
		item.DeliveredVideoURL = NormalizeDeliveredURL(item.DeliveredVideoURL)
		if fd, err := unmarshalFormData(formData); err == nil {
			item.FormData = fd
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating production queue: %w", err)
	}
	return GroupProductionQueue(items), nil
}

// GroupProductionQueue buckets queue items by event, preserving the incoming
// (newest first) order of both the groups and their items.
func GroupProductionQueue(items []ProductionQueueItem) []ProductionQueueGroup {
	var groups []ProductionQueueGroup
	index := map[string]int{}

	for _, item := range items {
		key := item.EventID
		if key == "" {
			key = item.EventTitle
		}
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, ProductionQueueGroup{
				EventID:    item.EventID,
				EventTitle: item.EventTitle,
			})
		}
		if item.ProductionStatus == ProductionDelivered {
			groups[i].Delivered = append(groups[i].Delivered, item)
		} else {
			groups[i].InProgress = append(groups[i].InProgress, item)
		}
	}
	return groups
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrderItem(row rowScanner) (OrderItem, error) {
	var item OrderItem
	var formData []byte
	err := row.Scan(
		&item.ID, &item.OrderID, &item.VideoID, &item.AccessLevel, &item.ProductionStatus,
		&formData, &item.DeliveredVideoURL, &item.VideoTitle, &item.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return OrderItem{}, sql.ErrNoRows
		}
		return OrderItem{}, fmt.Errorf("scanning order item: %w", err)
	}
	item.DeliveredVideoURL = NormalizeDeliveredURL(item.DeliveredVideoURL)
	if fd, err := unmarshalFormData(formData); err == nil {
		item.ProductionFormData = fd
	}
	return item, nil
}

func unmarshalFormData(raw []byte) (*ProductionFormData, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var fd ProductionFormData
	if err := json.Unmarshal(raw, &fd); err != nil {
		return nil, fmt.Errorf("unmarshaling form data: %w", err)
	}
	return &fd, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (c *Conf) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		if er := tx.Rollback(); er != nil && !errors.Is(er, sql.ErrTxDone) {
			return fmt.Errorf("failed to rollback withTx: %w", err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit withTx: %w", err)
	}
	return nil
}
