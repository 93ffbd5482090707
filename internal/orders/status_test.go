package orders

import "testing"

func TestCanTransition(t *testing.T) {
	tests := []struct {
		current string
		target  string
		want    bool
	}{
		{StatusPending, StatusPaid, true},
		{StatusPending, StatusFailed, true},
		{StatusPending, StatusPending, true},
		{StatusPaid, StatusPaid, true},
		{StatusPaid, StatusFailed, false},
		{StatusPaid, StatusPending, false},
		{StatusFailed, StatusPaid, true},
		{StatusFailed, StatusFailed, true},
	}
	for _, tt := range tests {
		if got := CanTransition(tt.current, tt.target); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.current, tt.target, got, tt.want)
		}
	}
}

func TestNormalizeDeliveredURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"drive.google.com/file/d/abc", "https://drive.google.com/file/d/abc"},
		{"https://drive.google.com/file/d/abc", "https://drive.google.com/file/d/abc"},
		{"http://example.com/video", "http://example.com/video"},
	}
	for _, tt := range tests {
		if got := NormalizeDeliveredURL(tt.in); got != tt.want {
			t.Errorf("NormalizeDeliveredURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNextProductionStatus(t *testing.T) {
	tests := []struct {
		current string
		want    string
	}{
		{"", ProductionInProduction},
		{ProductionPendingForm, ProductionInProduction},
		{ProductionInProduction, ProductionInProduction},
		{ProductionDelivered, ProductionDelivered},
	}
	for _, tt := range tests {
		if got := NextProductionStatus(tt.current); got != tt.want {
			t.Errorf("NextProductionStatus(%q) = %q, want %q", tt.current, got, tt.want)
		}
	}
}
