package logkey

// Shared structured logging keys so log searches stay consistent across handlers.
const (
	TraceID   = "Trace ID"
	ERROR     = "Error"
	OrderID   = "Order ID"
	GatewayID = "Gateway ID"
	UserID    = "User ID"
	VideoID   = "Video ID"
	EventType = "Event Type"
)
