package orders

import "strings"

// CanTransition reports whether an order may move from current to target.
// paid is sticky: once an order is paid, no later event (including malformed
// or out-of-order failed deliveries) may take it back. Reapplying the current
// status is allowed so duplicate webhook deliveries stay no-ops.
func CanTransition(current, target string) bool {
	if current == StatusPaid {
		return target == StatusPaid
	}
	return true
}

// NormalizeDeliveredURL makes a stored delivery link navigable: a bare domain
// gets an explicit https scheme, everything else passes through as stored.
func NormalizeDeliveredURL(url string) string {
	if url == "" {
		return ""
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return "https://" + url
	}
	return url
}

// NextProductionStatus decides the production state after a buyer submits the
// form: a fresh item moves to in_production, anything further along keeps its
// status so a resubmission never regresses a delivered item.
func NextProductionStatus(current string) string {
	if current == "" || current == ProductionPendingForm {
		return ProductionInProduction
	}
	return current
}
