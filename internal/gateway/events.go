package gateway

import "strings"

// Target statuses a webhook event can drive an order to.
const (
	TargetPaid   = "paid"
	TargetFailed = "failed"
)

// Event is the webhook envelope the gateway posts on payment state changes.
type Event struct {
	Type string    `json:"type"`
	Data EventData `json:"data"`
}

// EventData is the event payload. For charge-level events Order links back to
// the parent gateway order; the same logical payment can be reported under
// either id.
type EventData struct {
	ID    string      `json:"id"`
	Order *EventOrder `json:"order"`
}

type EventOrder struct {
	ID string `json:"id"`
}

// Classification is the reconciler's reading of one event: the status the
// matched order should move to, and the gateway ids to correlate by, in
// lookup order.
type Classification struct {
	TargetStatus   string
	CorrelationIds []string
}

// ClassifyEvent maps an event envelope to a target order status and its
// correlation keys. The second return is false for event types that carry no
// status change; those must be acknowledged, not errored, or the gateway
// eventually disables the webhook.
func ClassifyEvent(event Event) (Classification, bool) {
	if event.Type == "" {
		return Classification{}, false
	}

	var target string
	switch {
	case event.Type == "order.paid" || event.Type == "charge.paid":
		target = TargetPaid
	case strings.Contains(event.Type, "failed") || strings.Contains(event.Type, "canceled"):
		target = TargetFailed
	default:
		return Classification{}, false
	}

	// Charge-level id first, parent order id as fallback: checkout stores the
	// gateway order id, but older rows may hold the charge id.
	var ids []string
	if event.Data.ID != "" {
		ids = append(ids, event.Data.ID)
	}
	if event.Data.Order != nil && event.Data.Order.ID != "" && event.Data.Order.ID != event.Data.ID {
		ids = append(ids, event.Data.Order.ID)
	}
	if len(ids) == 0 {
		return Classification{}, false
	}

	return Classification{TargetStatus: target, CorrelationIds: ids}, true
}
